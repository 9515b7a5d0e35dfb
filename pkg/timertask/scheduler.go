package timertask

import "time"

// Timer is a handle to a callback armed on a Scheduler.
type Timer interface {
	// Stop disarms the callback. It returns true if the call stopped the
	// timer, false if it had already fired or been stopped. Stop is
	// idempotent.
	Stop() bool
}

// Scheduler arms callbacks on an externally managed execution context.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// AfterFunc runs f on its own goroutine (or the scheduler's context)
	// once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the Scheduler backed by the runtime timer heap.
var System Scheduler = systemScheduler{}

type systemScheduler struct{}

func (systemScheduler) Now() time.Time {
	return time.Now()
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
