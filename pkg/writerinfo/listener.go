package writerinfo

import "time"

// Listener receives WriterInfo state transitions. Every method is called
// without the WriterInfo lock held. A notification describes a point in time;
// the WriterInfo may have changed again by the time it is delivered.
type Listener interface {
	// WriterBecameAlive is called when the writer moves to ALIVE.
	WriterBecameAlive(w *WriterInfo, at time.Time)

	// WriterBecameDead is called when the writer's lease expires.
	WriterBecameDead(w *WriterInfo)

	// WriterRemoved is called when the association is being removed.
	WriterRemoved(w *WriterInfo)

	// ResumeSampleProcessing is called when the historic grace period
	// expires without an end-of-historic signal.
	ResumeSampleProcessing(w *WriterInfo)
}

// NopListener implements Listener with no-ops. Embed it to implement only
// the notifications of interest.
type NopListener struct{}

func (NopListener) WriterBecameAlive(*WriterInfo, time.Time) {}
func (NopListener) WriterBecameDead(*WriterInfo)             {}
func (NopListener) WriterRemoved(*WriterInfo)                {}
func (NopListener) ResumeSampleProcessing(*WriterInfo)       {}

var _ Listener = NopListener{}
