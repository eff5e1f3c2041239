package scheduler

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

var _ ports.FrameScheduler = (*TickerScheduler)(nil)

// TickerScheduler runs frame callbacks on wall-clock timers at a target frame rate.
// Callbacks run on timer goroutines; callers serialize their own state.
type TickerScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	start    time.Time
	next     ports.FrameHandle
	timers   map[ports.FrameHandle]*time.Timer
	closed   bool
}

// NewTickerScheduler creates a scheduler targeting fps frames per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		start:    time.Now(),
		timers:   make(map[ports.FrameHandle]*time.Timer),
	}
}

// Interval returns the frame interval.
func (s *TickerScheduler) Interval() time.Duration {
	return s.interval
}

// Now returns milliseconds since the scheduler was created.
func (s *TickerScheduler) Now() float64 {
	return float64(time.Since(s.start).Microseconds()) / 1000
}

// Clock returns a ports.Clock over Now.
func (s *TickerScheduler) Clock() ports.Clock {
	return s.Now
}

// RequestFrame implements ports.FrameScheduler.
// After Close it returns a handle that never fires.
func (s *TickerScheduler) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	handle := s.next
	if s.closed {
		return handle
	}

	s.timers[handle] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, ok := s.timers[handle]
		delete(s.timers, handle)
		s.mu.Unlock()

		if ok {
			cb(s.Now())
		}
	})

	return handle
}

// CancelFrame implements ports.FrameScheduler.
func (s *TickerScheduler) CancelFrame(handle ports.FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
	}
}

// Pending returns the number of scheduled callbacks.
func (s *TickerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels every pending callback and refuses new ones.
func (s *TickerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
}
