package writerinfo

import (
	"time"

	"github.com/dcps-reader/dcps-go/pkg/log"
)

// MarkActivity records a liveliness-relevant event at now. A writer that is
// not ALIVE becomes ALIVE and the listener is notified.
func (w *WriterInfo) MarkActivity(now time.Time) {
	w.mu.Lock()
	w.lastActivity = now
	if w.state == StateAlive {
		w.mu.Unlock()
		return
	}
	old := w.state
	w.state = StateAlive
	lease := w.leaseDuration
	w.mu.Unlock()

	w.logger.Debug("writer alive", "from", old, "lease", lease)
	livelinessTransitions.WithLabelValues(StateAlive.String()).Inc()
	w.logEvent(log.Event{
		Category: log.CategoryLiveliness,
		Liveliness: &log.LivelinessEvent{
			OldState:      old.String(),
			NewState:      StateAlive.String(),
			LeaseDuration: lease,
		},
	})

	w.listener.WriterBecameAlive(w, now)
}

// CheckActivity evaluates the lease at now. It returns the next time the
// check must run and true while the writer stays ALIVE under a finite lease.
// An expired lease moves the writer to DEAD, notifies the listener and
// returns false, as does an untracked lease or a writer that is not ALIVE.
func (w *WriterInfo) CheckActivity(now time.Time) (time.Time, bool) {
	w.mu.Lock()
	if w.state != StateAlive || w.leaseDuration == 0 {
		w.mu.Unlock()
		return time.Time{}, false
	}

	expiry := w.lastActivity.Add(w.leaseDuration)
	if now.Before(expiry) {
		w.mu.Unlock()
		return expiry, true
	}

	// The state is updated before unlocking so the listener, and anything
	// it asks about this writer, observes DEAD.
	w.state = StateDead
	lease := w.leaseDuration
	last := w.lastActivity
	w.mu.Unlock()

	w.logger.Debug("writer lease expired", "last_activity", last, "lease", lease)
	livelinessTransitions.WithLabelValues(StateDead.String()).Inc()
	w.logEvent(log.Event{
		Category: log.CategoryLiveliness,
		Liveliness: &log.LivelinessEvent{
			OldState:      StateAlive.String(),
			NewState:      StateDead.String(),
			LeaseDuration: lease,
		},
	})

	w.listener.WriterBecameDead(w)
	return time.Time{}, false
}

// MarkRemoved notifies the listener that the association is going away. The
// liveliness state is left untouched.
func (w *WriterInfo) MarkRemoved() {
	w.mu.Lock()
	state := w.state
	w.mu.Unlock()

	w.logger.Debug("writer removed", "state", state)
	w.logEvent(log.Event{
		Category: log.CategoryLiveliness,
		Liveliness: &log.LivelinessEvent{
			OldState: state.String(),
			NewState: state.String(),
			Removed:  true,
		},
	})

	w.listener.WriterRemoved(w)
}

// State returns the current liveliness state.
func (w *WriterInfo) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// StateName returns the diagnostic name of the current state. A corrupted
// state value is logged and rendered as "Invalid state".
func (w *WriterInfo) StateName() string {
	state := w.State()
	if !state.IsValid() {
		w.logger.Error("invalid writer state", "state", uint8(state))
	}
	return state.String()
}

// LastActivity returns the time of the most recent activity.
func (w *WriterInfo) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActivity
}

// LeaseDuration returns the liveliness lease.
func (w *WriterInfo) LeaseDuration() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.leaseDuration
}

// SetLeaseDuration changes the liveliness lease, e.g. after a QoS update.
// The new lease applies from the next CheckActivity.
func (w *WriterInfo) SetLeaseDuration(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.leaseDuration = d
}
