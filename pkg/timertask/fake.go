package timertask

import (
	"sort"
	"sync"
	"time"
)

// FakeScheduler is a Scheduler with a manually advanced clock. Callbacks run
// synchronously on the goroutine calling Advance.
type FakeScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	when    time.Time
	seq     uint64
	f       func()
	stopped bool
}

// NewFakeScheduler creates a FakeScheduler whose clock starts at start.
func NewFakeScheduler(start time.Time) *FakeScheduler {
	return &FakeScheduler{now: start}
}

// Now returns the fake clock's time.
func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AfterFunc arms f to run once the clock has been advanced by d.
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ft := &fakeTimer{s: s, when: s.now.Add(d), seq: s.seq, f: f}
	s.pending = append(s.pending, ft)
	return ft
}

// Pending returns the number of armed timers.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Advance moves the clock forward by d and runs every timer that became due,
// earliest first. Timers armed by a callback run in the same call if they
// fall due within the window.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.popDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		if next.when.After(s.now) {
			s.now = next.when
		}
		s.mu.Unlock()

		next.f()
	}
}

// popDue removes and returns the earliest timer due at or before target.
func (s *FakeScheduler) popDue(target time.Time) *fakeTimer {
	sort.Slice(s.pending, func(i, j int) bool {
		if s.pending[i].when.Equal(s.pending[j].when) {
			return s.pending[i].seq < s.pending[j].seq
		}
		return s.pending[i].when.Before(s.pending[j].when)
	})
	if len(s.pending) == 0 || s.pending[0].when.After(target) {
		return nil
	}
	ft := s.pending[0]
	s.pending = s.pending[1:]
	return ft
}

func (ft *fakeTimer) Stop() bool {
	ft.s.mu.Lock()
	defer ft.s.mu.Unlock()

	if ft.stopped {
		return false
	}
	ft.stopped = true
	for i, p := range ft.s.pending {
		if p == ft {
			ft.s.pending = append(ft.s.pending[:i], ft.s.pending[i+1:]...)
			return true
		}
	}
	return false
}
