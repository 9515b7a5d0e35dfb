package seqnum

import (
	"fmt"
	"math"
	"strconv"
)

// Number is a sample sequence number assigned by a DataWriter.
type Number int64

// Sequence number limits.
const (
	// Min is the first sequence number a writer assigns. It is also the
	// default value used when a range has to start "from the beginning".
	Min Number = 1

	// Max is the largest representable sequence number.
	Max Number = math.MaxInt64

	// Unknown marks a sequence number that has not been observed.
	Unknown Number = -(1 << 32)
)

// IsValid returns true if n is a usable sequence number (>= Min).
func (n Number) IsValid() bool {
	return n >= Min
}

// Next returns the following sequence number, saturating at Max.
func (n Number) Next() Number {
	if n == Max {
		return Max
	}
	return n + 1
}

// Previous returns the preceding sequence number, saturating at Min.
func (n Number) Previous() Number {
	if n <= Min {
		return Min
	}
	return n - 1
}

// String returns the decimal form, or "unknown" for Unknown.
func (n Number) String() string {
	if n == Unknown {
		return "unknown"
	}
	return strconv.FormatInt(int64(n), 10)
}

// Range is an inclusive interval of sequence numbers.
type Range struct {
	Low  Number `cbor:"1,keyasint" json:"low"`
	High Number `cbor:"2,keyasint" json:"high"`
}

// Contains returns true if n lies within the range.
func (r Range) Contains(n Number) bool {
	return n >= r.Low && n <= r.High
}

// Len returns the count of sequence numbers in the range.
func (r Range) Len() uint64 {
	if r.High < r.Low {
		return 0
	}
	return uint64(r.High-r.Low) + 1
}

// String returns "low-high", or just "low" for a single number.
func (r Range) String() string {
	if r.Low == r.High {
		return r.Low.String()
	}
	return fmt.Sprintf("%s-%s", r.Low, r.High)
}
