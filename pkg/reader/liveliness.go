package reader

import (
	"time"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/writerinfo"
)

// LivelinessChangedStatus summarizes the liveliness of matched writers.
// The change fields count transitions since the status was last reported.
type LivelinessChangedStatus struct {
	AliveCount          int        `json:"alive_count"`
	NotAliveCount       int        `json:"not_alive_count"`
	AliveCountChange    int        `json:"alive_count_change"`
	NotAliveCountChange int        `json:"not_alive_count_change"`
	LastWriter          ident.GUID `json:"last_writer"`
}

// LivelinessChanged returns the current status and resets its change
// counters.
func (r *Reader) LivelinessChanged() LivelinessChangedStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takeStatus()
}

// takeStatus returns the status and resets its change counters. Caller holds
// r.mu.
func (r *Reader) takeStatus() LivelinessChangedStatus {
	status := r.status
	r.status.AliveCountChange = 0
	r.status.NotAliveCountChange = 0
	return status
}

// recount moves a between liveliness counters and returns the handler to
// notify, if any. Caller holds r.mu.
func (r *Reader) recount(a *association, writerID ident.GUID, to livelinessCount) (LivelinessHandler, LivelinessChangedStatus) {
	switch a.counted {
	case countedAlive:
		r.status.AliveCount--
		r.status.AliveCountChange--
	case countedNotAlive:
		r.status.NotAliveCount--
		r.status.NotAliveCountChange--
	}
	switch to {
	case countedAlive:
		r.status.AliveCount++
		r.status.AliveCountChange++
	case countedNotAlive:
		r.status.NotAliveCount++
		r.status.NotAliveCountChange++
	}
	a.counted = to
	r.status.LastWriter = writerID

	if r.onLiveliness == nil {
		return nil, LivelinessChangedStatus{}
	}
	return r.onLiveliness, r.takeStatus()
}

// WriterBecameAlive implements writerinfo.Listener.
func (r *Reader) WriterBecameAlive(w *writerinfo.WriterInfo, at time.Time) {
	r.mu.Lock()
	a := r.associationOf(w)
	if a == nil || r.closed {
		r.mu.Unlock()
		return
	}
	fn, status := r.recount(a, w.WriterID(), countedAlive)
	r.mu.Unlock()

	r.logger.Debug("writer alive", "writer", w.WriterID().Short(), "at", at)
	if lease := w.LeaseDuration(); lease > 0 {
		r.scheduleLivelinessCheck(at.Add(lease))
	}
	if fn != nil {
		fn(status)
	}
}

// WriterBecameDead implements writerinfo.Listener.
func (r *Reader) WriterBecameDead(w *writerinfo.WriterInfo) {
	r.mu.Lock()
	a := r.associationOf(w)
	if a == nil || r.closed {
		r.mu.Unlock()
		return
	}
	fn, status := r.recount(a, w.WriterID(), countedNotAlive)
	r.mu.Unlock()

	r.logger.Info("writer liveliness lost", "writer", w.WriterID().Short())
	r.releaseOwnership(w.WriterID())
	if fn != nil {
		fn(status)
	}
}

// WriterRemoved implements writerinfo.Listener.
func (r *Reader) WriterRemoved(w *writerinfo.WriterInfo) {
	r.mu.Lock()
	a := r.associationOf(w)
	if a == nil || r.closed {
		r.mu.Unlock()
		return
	}
	var (
		fn     LivelinessHandler
		status LivelinessChangedStatus
	)
	if a.counted != countedNone {
		fn, status = r.recount(a, w.WriterID(), countedNone)
	}
	r.mu.Unlock()

	r.releaseOwnership(w.WriterID())
	if fn != nil {
		fn(status)
	}
}

// ResumeSampleProcessing implements writerinfo.Listener. The historic buffer
// is delivered as if the end of historic data had been signalled.
func (r *Reader) ResumeSampleProcessing(w *writerinfo.WriterInfo) {
	r.mu.Lock()
	a := r.associationOf(w)
	r.mu.Unlock()
	if a == nil {
		return
	}

	n := r.drainHistoric(w.WriterID(), a)
	r.logger.Info("historic wait timed out", "writer", w.WriterID().Short(), "delivered", n)
}

// scheduleLivelinessCheck arms the liveliness timer for deadline unless an
// earlier check is already pending.
func (r *Reader) scheduleLivelinessCheck(deadline time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if !r.nextCheck.IsZero() && !deadline.Before(r.nextCheck) {
		return
	}
	r.nextCheck = deadline
	r.livelinessTimer.Schedule(max(deadline.Sub(r.sched.Now()), 0))
}

// CheckLiveliness evaluates every writer's lease at now and returns the
// next deadline, if any writer is still tracked.
func (r *Reader) CheckLiveliness(now time.Time) (time.Time, bool) {
	r.mu.Lock()
	infos := make([]*writerinfo.WriterInfo, 0, len(r.writers))
	for _, a := range r.writers {
		infos = append(infos, a.info)
	}
	r.mu.Unlock()

	var next time.Time
	for _, info := range infos {
		deadline, ok := info.CheckActivity(now)
		if ok && (next.IsZero() || deadline.Before(next)) {
			next = deadline
		}
	}
	return next, !next.IsZero()
}

// checkLiveliness runs on the liveliness timer.
func (r *Reader) checkLiveliness(now time.Time) {
	r.mu.Lock()
	r.nextCheck = time.Time{}
	r.mu.Unlock()

	if next, ok := r.CheckLiveliness(now); ok {
		r.scheduleLivelinessCheck(next)
	}
}
