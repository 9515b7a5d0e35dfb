package log

import (
	"fmt"
	"strings"
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
)

// Event represents a protocol log event for one reader/writer association.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ReaderID identifies the local DataReader.
	ReaderID ident.GUID `cbor:"2,keyasint"`

	// WriterID identifies the remote DataWriter.
	WriterID ident.GUID `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Liveliness *LivelinessEvent `cbor:"10,keyasint,omitempty"`
	Historic   *HistoricEvent   `cbor:"11,keyasint,omitempty"`
	Coherent   *CoherentEvent   `cbor:"12,keyasint,omitempty"`
	Ownership  *OwnershipEvent  `cbor:"13,keyasint,omitempty"`
	Error      *ErrorEventData  `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLiveliness indicates a writer liveliness change.
	CategoryLiveliness Category = 0
	// CategoryHistoric indicates historic sample handling.
	CategoryHistoric Category = 1
	// CategoryCoherent indicates a coherent set resolution.
	CategoryCoherent Category = 2
	// CategoryOwnership indicates an exclusive ownership change.
	CategoryOwnership Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLiveliness:
		return "LIVELINESS"
	case CategoryHistoric:
		return "HISTORIC"
	case CategoryCoherent:
		return "COHERENT"
	case CategoryOwnership:
		return "OWNERSHIP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "liveliness":
		return CategoryLiveliness, nil
	case "historic":
		return CategoryHistoric, nil
	case "coherent":
		return CategoryCoherent, nil
	case "ownership":
		return CategoryOwnership, nil
	case "error":
		return CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category %q (use liveliness, historic, coherent, ownership, error)", s)
	}
}

// LivelinessEvent captures a writer liveliness transition.
type LivelinessEvent struct {
	// OldState is the previous state name (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state name.
	NewState string `cbor:"2,keyasint"`

	// LeaseDuration is the lease in force at the time of the change.
	LeaseDuration time.Duration `cbor:"3,keyasint,omitempty"`

	// Removed is true when the writer was removed from the reader.
	Removed bool `cbor:"4,keyasint,omitempty"`
}

// HistoricAction identifies a step of historic sample handling.
type HistoricAction uint8

const (
	// HistoricWaitBegin indicates the reader started buffering historic samples.
	HistoricWaitBegin HistoricAction = 0
	// HistoricWaitCancelled indicates the wait was abandoned without hand-off.
	HistoricWaitCancelled HistoricAction = 1
	// HistoricHandOff indicates buffered samples were handed off for delivery.
	HistoricHandOff HistoricAction = 2
	// HistoricDelivered indicates a hand-off finished.
	HistoricDelivered HistoricAction = 3
	// HistoricTimeout indicates the grace period expired.
	HistoricTimeout HistoricAction = 4
)

// String returns the action name.
func (a HistoricAction) String() string {
	switch a {
	case HistoricWaitBegin:
		return "WAIT_BEGIN"
	case HistoricWaitCancelled:
		return "WAIT_CANCELLED"
	case HistoricHandOff:
		return "HAND_OFF"
	case HistoricDelivered:
		return "DELIVERED"
	case HistoricTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// HistoricEvent captures historic sample handling.
type HistoricEvent struct {
	// Action is the step taken.
	Action HistoricAction `cbor:"1,keyasint"`

	// Count is the number of samples involved (hand-off only).
	Count int `cbor:"2,keyasint,omitempty"`

	// LastSeq is the highest historic sequence number (hand-off only).
	LastSeq seqnum.Number `cbor:"3,keyasint,omitempty"`
}

// CoherentEvent captures the resolution of a coherent set.
type CoherentEvent struct {
	// Result is the completion state name.
	Result string `cbor:"1,keyasint"`

	// NumSamples is the writer-declared set size.
	NumSamples uint32 `cbor:"2,keyasint,omitempty"`

	// LastSample is the writer-declared last sequence number.
	LastSample seqnum.Number `cbor:"3,keyasint,omitempty"`

	// LocalHigh is the highest sequence number received for the set.
	LocalHigh seqnum.Number `cbor:"4,keyasint,omitempty"`

	// Group is true for group coherent sets.
	Group bool `cbor:"5,keyasint,omitempty"`

	// PublisherID identifies the publisher of a group set.
	PublisherID ident.GUID `cbor:"6,keyasint,omitempty"`
}

// OwnershipEvent captures a change of instance owner.
type OwnershipEvent struct {
	// Instance is the instance whose owner changed.
	Instance ident.InstanceHandle `cbor:"1,keyasint"`

	// Owner is the new owner (Unknown when the instance has none).
	Owner ident.GUID `cbor:"2,keyasint,omitempty"`

	// Strength is the owner's ownership strength.
	Strength int32 `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
