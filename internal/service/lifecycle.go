package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// LifecycleCoordinator reacts to host visibility changes and unmount.
//
// Hiding pauses output but keeps the playing intent; showing again resumes
// playback if that intent was set when the host went away.
type LifecycleCoordinator struct {
	logger     *slog.Logger
	controller *PlaybackController
	graph      *AudioGraphManager
	bus        ports.EventBus

	mu           sync.Mutex
	hidden       bool
	resumeIntent bool
	unmounted    bool
}

// NewLifecycleCoordinator creates a coordinator for a visible, mounted visualizer.
func NewLifecycleCoordinator(
	logger *slog.Logger,
	controller *PlaybackController,
	graph *AudioGraphManager,
	bus ports.EventBus,
) *LifecycleCoordinator {
	return &LifecycleCoordinator{
		logger:     logger.With(slog.String("component", "lifecycle")),
		controller: controller,
		graph:      graph,
		bus:        bus,
	}
}

// SetHidden applies a visibility change. Repeated calls with the same value are no-ops.
// The returned error is the resume failure, also surfaced in the controller state.
func (l *LifecycleCoordinator) SetHidden(ctx context.Context, hidden bool) error {
	l.mu.Lock()
	if l.unmounted || l.hidden == hidden {
		l.mu.Unlock()
		return nil
	}
	l.hidden = hidden

	var err error
	if hidden {
		l.resumeIntent = l.controller.suspendForBackground(ctx)
		l.logger.Debug("hidden", slog.Bool("resume_intent", l.resumeIntent))
	} else {
		resume := l.resumeIntent
		l.resumeIntent = false
		if resume {
			err = l.controller.resumeFromBackground(ctx)
		}
		l.logger.Debug("visible", slog.Bool("resumed", resume && err == nil))
	}
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(domain.NewVisibilityChangedEvent(hidden))
	}
	return err
}

// Hidden returns the last visibility reported.
func (l *LifecycleCoordinator) Hidden() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hidden
}

// ResumeIntent reports whether playback resumes on the next visible transition.
func (l *LifecycleCoordinator) ResumeIntent() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resumeIntent
}

// Unmount cancels pending frames and releases the audio graph. The audio
// context is left open since other visualizers may share it.
func (l *LifecycleCoordinator) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.unmounted {
		return
	}
	l.unmounted = true
	l.resumeIntent = false

	l.controller.detach()
	l.graph.Release()
	l.logger.Debug("unmounted")
}
