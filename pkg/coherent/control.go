package coherent

import (
	"errors"
	"fmt"
	"maps"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
)

// ErrInvalidControl is returned for a malformed coherent change control.
var ErrInvalidControl = errors.New("invalid coherent change control")

// State is the completion state of a coherent set.
type State uint8

const (
	// NotCompletedYet means the set may still complete.
	NotCompletedYet State = iota

	// Completed means every declared sample has been received.
	Completed

	// Rejected means the received samples contradict the declaration.
	Rejected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case NotCompletedYet:
		return "NOT_COMPLETED_YET"
	case Completed:
		return "COMPLETED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// WriterSample is a writer's declaration of one coherent set.
type WriterSample struct {
	// NumSamples is the number of samples in the set. Zero means no
	// declaration has been received.
	NumSamples uint32 `cbor:"1,keyasint" json:"num_samples"`

	// LastSample is the sequence number of the set's final sample.
	LastSample seqnum.Number `cbor:"2,keyasint" json:"last_sample"`
}

// IsZero returns true if nothing has been declared.
func (w WriterSample) IsZero() bool {
	return w.NumSamples == 0
}

// Control is the end-of-set message a writer sends for a coherent set.
// A Control is not modified after construction; accessors return copies.
type Control struct {
	// PublisherID identifies the publisher that owns the set.
	PublisherID ident.GUID

	// GroupCoherent is true when the set spans the publisher's writers.
	GroupCoherent bool

	// Samples is the sending writer's declaration.
	Samples WriterSample

	// InstanceCounts holds the number of set members per instance.
	InstanceCounts map[ident.InstanceHandle]uint32

	// GroupSamples holds the declaration of every writer in a group set.
	GroupSamples map[ident.GUID]WriterSample
}

// Validate checks the internal consistency of the control.
func (c Control) Validate() error {
	if c.Samples.NumSamples > 0 && !c.Samples.LastSample.IsValid() {
		return fmt.Errorf("%w: last sample %s with %d samples",
			ErrInvalidControl, c.Samples.LastSample, c.Samples.NumSamples)
	}
	if !c.GroupCoherent && len(c.GroupSamples) > 0 {
		return fmt.Errorf("%w: group samples on a non-group set", ErrInvalidControl)
	}
	for writer, ws := range c.GroupSamples {
		if ws.NumSamples > 0 && !ws.LastSample.IsValid() {
			return fmt.Errorf("%w: writer %s last sample %s",
				ErrInvalidControl, writer, ws.LastSample)
		}
	}
	return nil
}

// CloneGroupSamples returns a copy of the group breakdown.
func (c Control) CloneGroupSamples() map[ident.GUID]WriterSample {
	return maps.Clone(c.GroupSamples)
}

// CloneInstanceCounts returns a copy of the per-instance counts.
func (c Control) CloneInstanceCounts() map[ident.InstanceHandle]uint32 {
	return maps.Clone(c.InstanceCounts)
}

// Evaluate compares the sequence numbers received locally for a set with the
// writer's declaration.
func Evaluate(local *seqnum.Set, remote WriterSample) State {
	if remote.NumSamples == 0 {
		return NotCompletedYet
	}

	high := local.High()
	if !local.Disjoint() && high == remote.LastSample {
		return Completed
	}
	if high > remote.LastSample {
		return Rejected
	}
	return NotCompletedYet
}
