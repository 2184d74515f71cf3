package trainer

import (
	"context"
	"sync"
)

// Signal is a single-shot, resettable rendezvous between the playback worker
// and the input handler. The worker calls Reset immediately before presenting
// a unit and then waits; the first Release wakes it and every later Release
// is a no-op until the next Reset.
type Signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewSignal returns a released signal: nothing is pending yet.
func NewSignal() *Signal {
	ch := make(chan struct{})
	close(ch)
	return &Signal{ch: ch, set: true}
}

// Reset re-arms a released signal. It is a no-op on an armed signal.
func (s *Signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.ch = make(chan struct{})
		s.set = false
	}
}

// Release wakes the waiter. It reports whether this call performed the release.
func (s *Signal) Release() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return false
	}
	s.set = true
	close(s.ch)
	return true
}

// IsSet reports whether the signal has been released since the last Reset.
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Done returns a channel closed on release.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Wait blocks until release or ctx cancellation.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
