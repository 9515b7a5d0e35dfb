package seqnum

import (
	"strings"

	"github.com/google/btree"
)

// btreeDegree is the node degree for the range tree. Coherent sets and
// acknowledgement windows rarely hold more than a handful of ranges.
const btreeDegree = 8

// Set is a set of sequence numbers stored as disjoint, coalesced ranges.
// The zero value is an empty set ready for use.
type Set struct {
	// ranges is keyed by Range.Low; stored ranges never overlap or touch.
	ranges *btree.BTreeG[Range]
}

func lessByLow(a, b Range) bool {
	return a.Low < b.Low
}

// NewSet creates a set holding the given ranges.
func NewSet(ranges ...Range) *Set {
	s := &Set{}
	for _, r := range ranges {
		s.InsertRange(r)
	}
	return s
}

func (s *Set) init() {
	if s.ranges == nil {
		s.ranges = btree.NewG(btreeDegree, lessByLow)
	}
}

// touches reports whether a range ending at hi overlaps or is adjacent to a
// range starting at lo (lo >= the first range's Low).
func touches(hi, lo Number) bool {
	return lo <= hi || (hi < Max && lo == hi+1)
}

// floor returns the range with the greatest Low <= n.
func (s *Set) floor(n Number) (Range, bool) {
	var (
		found Range
		ok    bool
	)
	s.ranges.DescendLessOrEqual(Range{Low: n}, func(r Range) bool {
		found, ok = r, true
		return false
	})
	return found, ok
}

// ceiling returns the range with the smallest Low >= n.
func (s *Set) ceiling(n Number) (Range, bool) {
	var (
		found Range
		ok    bool
	)
	s.ranges.AscendGreaterOrEqual(Range{Low: n}, func(r Range) bool {
		found, ok = r, true
		return false
	})
	return found, ok
}

// Insert adds a single sequence number. It returns true if the set changed.
func (s *Set) Insert(n Number) bool {
	return s.InsertRange(Range{Low: n, High: n})
}

// InsertRange adds every number in r, merging with overlapping or adjacent
// ranges. It returns true if the set changed. An inverted range is ignored.
func (s *Set) InsertRange(r Range) bool {
	if r.Low > r.High {
		return false
	}
	s.init()

	lo, hi := r.Low, r.High

	if prev, ok := s.floor(lo); ok {
		if prev.High >= hi {
			return false // already covered
		}
		if touches(prev.High, lo) {
			s.ranges.Delete(prev)
			lo = prev.Low
		}
	}

	for {
		next, ok := s.ceiling(lo)
		if !ok || !touches(hi, next.Low) {
			break
		}
		s.ranges.Delete(next)
		if next.High > hi {
			hi = next.High
		}
	}

	s.ranges.ReplaceOrInsert(Range{Low: lo, High: hi})
	return true
}

// Reset removes every range.
func (s *Set) Reset() {
	if s.ranges != nil {
		s.ranges.Clear(false)
	}
}

// Empty returns true if the set holds no numbers.
func (s *Set) Empty() bool {
	return s.ranges == nil || s.ranges.Len() == 0
}

// Disjoint returns true if the set has a gap, i.e. more than one range.
func (s *Set) Disjoint() bool {
	return s.ranges != nil && s.ranges.Len() > 1
}

// Low returns the smallest number in the set, or Unknown if empty.
func (s *Set) Low() Number {
	if s.Empty() {
		return Unknown
	}
	r, _ := s.ranges.Min()
	return r.Low
}

// High returns the high-water mark of the set, or Unknown if empty.
func (s *Set) High() Number {
	if s.Empty() {
		return Unknown
	}
	r, _ := s.ranges.Max()
	return r.High
}

// CumulativeAck returns the end of the first contiguous range, or Unknown if
// empty.
func (s *Set) CumulativeAck() Number {
	if s.Empty() {
		return Unknown
	}
	r, _ := s.ranges.Min()
	return r.High
}

// Contains returns true if n is in the set.
func (s *Set) Contains(n Number) bool {
	if s.Empty() {
		return false
	}
	r, ok := s.floor(n)
	return ok && r.High >= n
}

// Ranges returns the ranges in ascending order.
func (s *Set) Ranges() []Range {
	if s.Empty() {
		return nil
	}
	out := make([]Range, 0, s.ranges.Len())
	s.ranges.Ascend(func(r Range) bool {
		out = append(out, r)
		return true
	})
	return out
}

// MissingRanges returns the gaps between the stored ranges in ascending order.
func (s *Set) MissingRanges() []Range {
	ranges := s.Ranges()
	if len(ranges) < 2 {
		return nil
	}
	gaps := make([]Range, 0, len(ranges)-1)
	for i := 1; i < len(ranges); i++ {
		gaps = append(gaps, Range{
			Low:  ranges[i-1].High + 1,
			High: ranges[i].Low - 1,
		})
	}
	return gaps
}

// String returns the ranges as a comma separated list, e.g. "1-3,5".
func (s *Set) String() string {
	ranges := s.Ranges()
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
