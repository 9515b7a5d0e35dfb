package writerinfo

import (
	"maps"

	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/seqnum"
)

// RecordCoherentSample adds seq to the coherent set in progress. The first
// sample of a set resets the received range to [seqnum.Min, seq]. It returns
// true when seq started a new set.
func (w *WriterInfo) RecordCoherentSample(seq seqnum.Number) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	first := w.coherentSamples == 0
	if first {
		w.localCoherent.Reset()
		w.localCoherent.InsertRange(seqnum.Range{Low: seqnum.Min, High: seq})
	} else {
		w.localCoherent.Insert(seq)
	}
	w.coherentSamples++
	return first
}

// BeginCoherentChange records the publisher context of the set in progress
// and counts it. Call it after RecordCoherentSample for the sample that
// opened the set.
func (w *WriterInfo) BeginCoherentChange(group bool, publisher ident.GUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.groupCoherent = group
	w.publisherID = publisher
	w.coherentSamples++
}

// ApplyRemoteCoherentInfo applies the writer's end-of-set declaration. A
// publisher or group flag that disagrees with the tracked set is logged as
// an inconsistency; the declaration is applied regardless.
func (w *WriterInfo) ApplyRemoteCoherentInfo(ctrl coherent.Control) {
	w.mu.Lock()
	trackedPublisher := w.publisherID
	trackedGroup := w.groupCoherent
	mismatch := ctrl.PublisherID != trackedPublisher || ctrl.GroupCoherent != trackedGroup

	remote := ctrl.Samples
	if ctrl.GroupCoherent {
		if own, ok := ctrl.GroupSamples[w.writerID]; ok {
			remote = own
		}
	}
	w.remoteCoherent = remote
	w.groupSamples = ctrl.CloneGroupSamples()
	w.mu.Unlock()

	if !mismatch {
		return
	}

	w.logger.Warn("coherent control inconsistent with tracked set",
		"tracked_publisher", trackedPublisher.Short(),
		"control_publisher", ctrl.PublisherID.Short(),
		"tracked_group", trackedGroup,
		"control_group", ctrl.GroupCoherent)
	coherentInconsistencies.Inc()
	w.logEvent(log.Event{
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Message: "coherent control inconsistent with tracked set",
			Context: "ApplyRemoteCoherentInfo",
		},
	})
}

// EvaluateCompletion compares the received sequence numbers with the
// writer's declaration.
func (w *WriterInfo) EvaluateCompletion() coherent.State {
	w.mu.Lock()
	state := coherent.Evaluate(&w.localCoherent, w.remoteCoherent)
	remote := w.remoteCoherent
	localHigh := w.localCoherent.High()
	group := w.groupCoherent
	publisher := w.publisherID
	w.mu.Unlock()

	if state == coherent.NotCompletedYet {
		return state
	}

	w.logger.Debug("coherent set resolved", "result", state,
		"last_sample", remote.LastSample, "local_high", localHigh)
	coherentResolutions.WithLabelValues(state.String()).Inc()
	w.logEvent(log.Event{
		Category: log.CategoryCoherent,
		Coherent: &log.CoherentEvent{
			Result:      state.String(),
			NumSamples:  remote.NumSamples,
			LastSample:  remote.LastSample,
			LocalHigh:   localHigh,
			Group:       group,
			PublisherID: publisher,
		},
	})
	return state
}

// ResetCoherentInfo clears the coherent set in progress.
func (w *WriterInfo) ResetCoherentInfo() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.coherentSamples = 0
	w.groupCoherent = false
	w.publisherID = ident.Unknown
	w.localCoherent.Reset()
	w.remoteCoherent = coherent.WriterSample{}
	w.groupSamples = nil
}

// CoherentSampleCount returns the bookkeeping count of the set in progress.
func (w *WriterInfo) CoherentSampleCount() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coherentSamples
}

// IsGroupCoherent returns true if the set in progress spans a publisher.
func (w *WriterInfo) IsGroupCoherent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.groupCoherent
}

// PublisherID returns the publisher of the set in progress.
func (w *WriterInfo) PublisherID() ident.GUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.publisherID
}

// LocalCoherentRanges returns the sequence ranges received for the set in
// progress.
func (w *WriterInfo) LocalCoherentRanges() []seqnum.Range {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.localCoherent.Ranges()
}

// RemoteCoherentInfo returns the writer's declaration for the set in
// progress. It is zero until a control has been applied.
func (w *WriterInfo) RemoteCoherentInfo() coherent.WriterSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remoteCoherent
}

// GroupCoherentSamples returns a copy of the group breakdown of the last
// applied control.
func (w *WriterInfo) GroupCoherentSamples() map[ident.GUID]coherent.WriterSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.groupSamples)
}
