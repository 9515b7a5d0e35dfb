package timertask

import (
	"sync"
	"time"
	"weak"
)

// Func is the callback a Task runs against its target.
type Func[T any] func(target *T, now time.Time)

// Task is a single-shot callback that can be re-armed. Arming a Task that is
// already pending replaces the pending shot.
type Task[T any] struct {
	sched  Scheduler
	target weak.Pointer[T]
	fn     Func[T]

	mu      sync.Mutex
	timer   Timer
	gen     uint64 // bumped on every Schedule/Cancel; stale shots compare unequal
	stopped bool
	running sync.WaitGroup
}

// New creates a Task that calls fn on target. A nil scheduler selects System.
func New[T any](sched Scheduler, target *T, fn Func[T]) *Task[T] {
	if sched == nil {
		sched = System
	}
	return &Task[T]{
		sched:  sched,
		target: weak.Make(target),
		fn:     fn,
	}
}

// Schedule arms the task to fire after d, replacing any pending shot.
// It returns false if the task has been stopped.
func (t *Task[T]) Schedule(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.sched.AfterFunc(d, func() {
		t.fire(gen)
	})
	return true
}

// Cancel disarms a pending shot. Calling Cancel with nothing pending is a
// no-op.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Stop cancels the task permanently and waits for a running callback to
// return. It must not be called from within the callback.
func (t *Task[T]) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.running.Wait()
}

// Pending returns true if a shot is armed and has not fired yet.
func (t *Task[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// fire is invoked by the scheduler for the shot armed with generation gen.
func (t *Task[T]) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.running.Add(1)
	t.mu.Unlock()

	defer t.running.Done()

	target := t.target.Value()
	if target == nil {
		return
	}
	t.fn(target, t.sched.Now())
}
