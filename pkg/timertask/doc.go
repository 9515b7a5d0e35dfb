// Package timertask implements single-shot, cancellable callbacks bound to a
// target object that may go away before the callback fires.
//
// # Scheduler
//
// Timers are armed through a Scheduler, an external execution context that
// runs a function after a duration. System uses time.AfterFunc; tests use
// FakeScheduler and advance its clock by hand.
//
// # Weak Targets
//
// A Task observes its target through a weak pointer. The target's owner
// holds the only strong reference, so a Task never keeps its target alive and
// no reference cycle forms between an object and its own timer. A shot that
// fires after the target has been collected does nothing.
//
// # Cancellation
//
// Cancel disarms a pending shot and returns immediately; it is safe from any
// goroutine, including from inside the callback. Stop additionally refuses
// future scheduling and blocks until a callback already running has
// returned, so an owner can call it from its teardown path and know no
// callback runs against a torn-down object. Stop must not be called from
// inside the callback itself.
package timertask
