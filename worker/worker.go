// Package worker runs a hardware test protocol on a background goroutine
// while the frame loop keeps polling and rendering.
//
// The protocol publishes its progress into a state value guarded by the
// session mutex. The frame loop copies that state out once per frame with
// Snapshot, which only holds the lock for the copy. Cancellation is
// cooperative: the protocol checks Task.Cancelled between phases and
// never while holding the lock, so a cancel request cannot leave the
// mutex held.
package worker

import (
	"fmt"
	"sync"
)

// Session owns one background protocol run. The state type S must be
// safe to copy by value.
type Session[S any] struct {
	mu        sync.Mutex
	state     S
	cancelReq bool
	err       error

	done  chan struct{}
	ended bool
}

// Task is the protocol's handle on its session.
type Task[S any] struct {
	s *Session[S]
}

// Start launches run on a new goroutine and returns immediately.
func Start[S any](initial S, run func(t *Task[S])) *Session[S] {
	s := &Session[S]{
		state: initial,
		done:  make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer func() {
			if r := recover(); r != nil {
				s.mu.Lock()
				s.err = fmt.Errorf("worker: protocol panicked: %v", r)
				s.mu.Unlock()
			}
		}()
		run(&Task[S]{s: s})
	}()

	return s
}

// Snapshot returns a copy of the published state.
func (s *Session[S]) Snapshot() S {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	return st
}

// Cancel asks the protocol to stop at its next cancellation point. It
// does not wait.
func (s *Session[S]) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.cancelReq = true
	s.mu.Unlock()
}

// Done reports whether the protocol goroutine has returned.
func (s *Session[S]) Done() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the protocol goroutine has returned.
func (s *Session[S]) Wait() {
	<-s.done
}

// Err returns the panic recorded for a protocol that did not return
// normally, or nil.
func (s *Session[S]) Err() error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	return err
}

// End cancels the protocol and blocks until its goroutine has exited.
// It is safe to call on a nil or already ended session.
func (s *Session[S]) End() {
	if s == nil || s.ended {
		return
	}
	s.Cancel()
	<-s.done
	s.ended = true
}

// Update applies fn to the published state under the session lock.
func (t *Task[S]) Update(fn func(st *S)) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	fn(&t.s.state)
}

// State returns a copy of the published state.
func (t *Task[S]) State() S {
	return t.s.Snapshot()
}

// Cancelled reports whether the owner asked the protocol to stop.
func (t *Task[S]) Cancelled() bool {
	t.s.mu.Lock()
	c := t.s.cancelReq
	t.s.mu.Unlock()
	return c
}
