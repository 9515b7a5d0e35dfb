package reader

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dcps-reader/dcps-go/pkg/coherent"
	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// Flags carries the per-sample header information relevant to delivery.
type Flags struct {
	// Coherent marks the sample as a member of a coherent set.
	Coherent bool

	// GroupCoherent marks the set as spanning the publisher's writers.
	GroupCoherent bool

	// PublisherID identifies the publisher of a coherent set.
	PublisherID ident.GUID
}

// Receive processes a sample from writerID. The sample counts as writer
// activity. It is then held for its coherent set, buffered for historic
// delivery, or delivered live.
func (r *Reader) Receive(writerID ident.GUID, s writerinfo.Sample, flags Flags) error {
	a, err := r.lookup(writerID)
	if err != nil {
		return err
	}

	a.info.MarkActivity(r.sched.Now())

	if flags.Coherent {
		r.mu.Lock()
		a.held = append(a.held, s)
		r.mu.Unlock()

		if a.info.RecordCoherentSample(s.Seq) {
			a.info.BeginCoherentChange(flags.GroupCoherent, flags.PublisherID)
		}
		if !a.info.RemoteCoherentInfo().IsZero() {
			r.resolveCoherent(writerID, a)
		}
		return nil
	}

	if a.info.OfferSample(s) {
		return nil
	}

	r.deliver(a, Delivery{WriterID: writerID, Sample: s}, "live")
	return nil
}

// EndHistoric signals the end of writerID's historic stream and delivers the
// buffered samples in sequence order. It returns the number delivered.
func (r *Reader) EndHistoric(writerID ident.GUID) (int, error) {
	a, err := r.lookup(writerID)
	if err != nil {
		return 0, err
	}
	return r.drainHistoric(writerID, a), nil
}

// drainHistoric hands off and delivers the historic buffer of a, then
// releases coherent sets that completed while it was pending. It returns the
// number of historic samples delivered.
func (r *Reader) drainHistoric(writerID ident.GUID, a *association) int {
	delivered := 0
	if samples, ok := a.info.EndHistoricWait(); ok {
		for _, s := range samples {
			if r.deliver(a, Delivery{WriterID: writerID, Sample: s, Historic: true}, "historic") {
				delivered++
			}
		}
		a.info.FinishHistoricDelivery()
	}

	r.releaseDeferred(writerID, a)
	return delivered
}

// releaseDeferred delivers completed coherent sets held back by a historic
// wait, in completion order. Sets that complete while the release runs are
// appended and delivered by the same loop.
func (r *Reader) releaseDeferred(writerID ident.GUID, a *association) {
	r.mu.Lock()
	if a.releasing || a.info.IsWaitingForHistoric() || a.info.IsDeliveringHistoric() {
		r.mu.Unlock()
		return
	}
	a.releasing = true
	for len(a.deferred) > 0 {
		sets := a.deferred
		a.deferred = nil
		r.mu.Unlock()

		for _, held := range sets {
			for _, s := range held {
				r.deliver(a, Delivery{WriterID: writerID, Sample: s, Coherent: true}, "coherent")
			}
		}

		r.mu.Lock()
	}
	a.releasing = false
	r.mu.Unlock()
}

// ApplyCoherentControl applies writerID's end-of-set control and resolves the
// set if possible. Completed sets are delivered in sequence order; rejected
// sets are dropped.
func (r *Reader) ApplyCoherentControl(writerID ident.GUID, ctrl coherent.Control) (coherent.State, error) {
	if err := ctrl.Validate(); err != nil {
		return coherent.NotCompletedYet, fmt.Errorf("apply control from %s: %w", writerID, err)
	}
	a, err := r.lookup(writerID)
	if err != nil {
		return coherent.NotCompletedYet, err
	}

	a.info.MarkActivity(r.sched.Now())
	a.info.ApplyRemoteCoherentInfo(ctrl)
	return r.resolveCoherent(writerID, a), nil
}

// resolveCoherent evaluates the set in progress and releases or drops the
// held samples once it resolves.
func (r *Reader) resolveCoherent(writerID ident.GUID, a *association) coherent.State {
	state := a.info.EvaluateCompletion()
	if state == coherent.NotCompletedYet {
		return state
	}

	r.mu.Lock()
	held := a.held
	a.held = nil
	r.mu.Unlock()
	a.info.ResetCoherentInfo()

	if state == coherent.Rejected {
		samplesDropped.WithLabelValues("rejected").Add(float64(len(held)))
		r.logger.Warn("coherent set rejected", "writer", writerID.Short(), "dropped", len(held))
		return state
	}

	slices.SortStableFunc(held, func(x, y writerinfo.Sample) int {
		return cmp.Compare(x.Seq, y.Seq)
	})

	// A completed set must not overtake historic samples still to be
	// delivered, nor an earlier set waiting for them.
	r.mu.Lock()
	if a.releasing || len(a.deferred) > 0 ||
		a.info.IsWaitingForHistoric() || a.info.IsDeliveringHistoric() {
		a.deferred = append(a.deferred, held)
		r.mu.Unlock()
		r.logger.Debug("coherent set deferred behind historic data",
			"writer", writerID.Short(), "samples", len(held))
		return state
	}
	r.mu.Unlock()

	for _, s := range held {
		r.deliver(a, Delivery{WriterID: writerID, Sample: s, Coherent: true}, "coherent")
	}
	return state
}

// deliver hands d to the sample handler unless ownership forbids it. It
// returns true if the sample was delivered.
func (r *Reader) deliver(a *association, d Delivery, kind string) bool {
	if !r.ownsInstance(d.WriterID, a, d.Sample.Instance) {
		samplesDropped.WithLabelValues("not_owner").Inc()
		r.logger.Debug("sample from non-owner dropped",
			"writer", d.WriterID.Short(), "instance", d.Sample.Instance, "seq", d.Sample.Seq)
		return false
	}

	r.mu.Lock()
	fn := r.onSample
	r.mu.Unlock()

	samplesDelivered.WithLabelValues(kind).Inc()
	if fn != nil {
		fn(d)
	}
	return true
}
