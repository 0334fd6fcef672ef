// Package sched provides keyed, cancellable delayed tasks.
//
// Both timed side effects in plantstream are the same shape: fire a
// function after a delay, with at most one pending task per key, and
// allow cancellation before it fires. The pump-completion timer uses the
// plant id as key (guaranteeing one pending completion per plant) and
// the channel client uses a single reconnect key (guaranteeing one
// pending reconnect). Modeling both on one scheduler keeps the
// cancellation semantics in one tested place.
package sched

import (
	"sync"
	"time"
)

// Scheduler manages delayed tasks keyed by string. Scheduling a key that
// already has a pending task is a no-op; the original task keeps its
// deadline.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		pending: make(map[string]*time.Timer),
	}
}

// Schedule fires fn after delay unless the key is cancelled first.
// Returns false if a task for the key is already pending (or the
// scheduler is stopped), true if the task was scheduled. fn runs on a
// timer goroutine; the key is released immediately before fn runs, so
// fn may schedule the same key again.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if _, exists := s.pending[key]; exists {
		return false
	}

	s.pending[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		fn()
	})
	return true
}

// Replace cancels any pending task for the key and schedules a new one.
func (s *Scheduler) Replace(key string, delay time.Duration, fn func()) bool {
	s.Cancel(key)
	return s.Schedule(key, delay, fn)
}

// Cancel stops the pending task for the key if one exists. Returns true
// if a task was cancelled before firing.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, exists := s.pending[key]
	if !exists {
		return false
	}
	delete(s.pending, key)
	return timer.Stop()
}

// Pending reports whether a task for the key is scheduled and not yet
// fired.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.pending[key]
	return exists
}

// Stop cancels all pending tasks and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, timer := range s.pending {
		timer.Stop()
		delete(s.pending, key)
	}
}
