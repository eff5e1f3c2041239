// Package scheduler provides ports.FrameScheduler implementations.
package scheduler

import (
	"sort"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

var _ ports.FrameScheduler = (*ManualScheduler)(nil)

// ManualScheduler runs frame callbacks only when stepped.
// Callbacks requested while a frame runs are deferred to the next step.
type ManualScheduler struct {
	mu      sync.Mutex
	next    ports.FrameHandle
	pending map[ports.FrameHandle]ports.FrameCallback
	now     float64
	ran     int
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[ports.FrameHandle]ports.FrameCallback)}
}

// RequestFrame implements ports.FrameScheduler.
func (s *ManualScheduler) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.pending[s.next] = cb
	return s.next
}

// CancelFrame implements ports.FrameScheduler.
func (s *ManualScheduler) CancelFrame(handle ports.FrameHandle) {
	s.mu.Lock()
	delete(s.pending, handle)
	s.mu.Unlock()
}

// Step advances the clock to nowMs and runs the callbacks pending at that moment.
// Returns the number of callbacks that ran.
func (s *ManualScheduler) Step(nowMs float64) int {
	s.mu.Lock()
	s.now = nowMs
	handles := make([]ports.FrameHandle, 0, len(s.pending))
	for h := range s.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	s.mu.Unlock()

	ran := 0
	for _, h := range handles {
		// A callback may cancel a later one in the same step
		s.mu.Lock()
		cb, ok := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if !ok {
			continue
		}
		cb(nowMs)
		ran++
	}

	s.mu.Lock()
	s.ran += ran
	s.mu.Unlock()

	return ran
}

// Advance steps frames times, frameMs apart, and returns the callbacks that ran.
func (s *ManualScheduler) Advance(frames int, frameMs float64) int {
	total := 0
	for i := 0; i < frames; i++ {
		total += s.Step(s.Now() + frameMs)
	}
	return total
}

// Now returns the time of the last step.
func (s *ManualScheduler) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Clock returns a ports.Clock reading the manual time.
func (s *ManualScheduler) Clock() ports.Clock {
	return s.Now
}

// Pending returns the number of scheduled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Ran returns the total number of callbacks run so far.
func (s *ManualScheduler) Ran() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran
}
