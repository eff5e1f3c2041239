package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// FrameFunc renders one frame. Returning false stops the loop.
type FrameFunc func(nowMs float64) bool

// RenderLoop drives FrameFunc once per scheduler frame.
//
// It is either Idle (no frame scheduled) or Running (exactly one frame
// scheduled or in progress). Stop cancels the pending frame synchronously;
// a callback that fires after Stop, or after a Stop/Start cycle, is a no-op.
type RenderLoop struct {
	logger    *slog.Logger
	scheduler ports.FrameScheduler
	frame     FrameFunc

	mu         sync.Mutex
	handle     ports.FrameHandle
	running    bool
	generation uint64
	frames     uint64
}

// NewRenderLoop creates an idle loop.
func NewRenderLoop(logger *slog.Logger, scheduler ports.FrameScheduler, frame FrameFunc) *RenderLoop {
	return &RenderLoop{
		logger:    logger.With(slog.String("component", "render_loop")),
		scheduler: scheduler,
		frame:     frame,
	}
}

// Start schedules the loop if it is idle. Returns false if it was already running.
func (l *RenderLoop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}
	l.running = true
	l.generation++
	l.handle = l.scheduler.RequestFrame(l.callback(l.generation))

	l.logger.Debug("render loop started", slog.Uint64("generation", l.generation))
	return true
}

// Stop cancels the scheduled frame and returns the loop to idle.
func (l *RenderLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != 0 {
		l.scheduler.CancelFrame(l.handle)
		l.handle = 0
	}
	if l.running {
		l.logger.Debug("render loop stopped", slog.Uint64("frames", l.frames))
	}
	l.running = false
	l.generation++
}

// Running returns true while the loop is scheduled or mid-frame.
func (l *RenderLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Handle returns the pending frame handle, zero when none is scheduled.
func (l *RenderLoop) Handle() ports.FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Frames returns the number of frames rendered.
func (l *RenderLoop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *RenderLoop) callback(gen uint64) ports.FrameCallback {
	return func(nowMs float64) {
		l.mu.Lock()
		if gen != l.generation || !l.running {
			l.mu.Unlock()
			return
		}
		l.handle = 0
		l.mu.Unlock()

		// The frame runs unlocked so it may call Stop
		cont := l.frame(nowMs)

		l.mu.Lock()
		defer l.mu.Unlock()

		if gen != l.generation {
			return
		}
		l.frames++
		if !cont {
			l.running = false
			l.generation++
			return
		}
		l.handle = l.scheduler.RequestFrame(l.callback(gen))
	}
}
