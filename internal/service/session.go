package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/visualizer"
)

// SessionDeps are the collaborators of a VisualizerSession.
// Logger, Clock, Bus and Rand are optional.
type SessionDeps struct {
	Logger    *slog.Logger
	Platform  ports.AudioPlatform
	Element   ports.MediaElement
	Scheduler ports.FrameScheduler
	Clock     ports.Clock
	Canvas    ports.Canvas
	Bus       ports.EventBus
	Config    visualizer.Config
	Theme     domain.Theme
	Rand      *rand.Rand
}

// VisualizerSession is one mounted visualizer. It owns the audio graph,
// the render loop, the compositor and the playback and lifecycle controllers.
//
// Frames are serialized by the session mutex and never run after Dispose.
type VisualizerSession struct {
	id     string
	logger *slog.Logger
	canvas ports.Canvas
	bus    ports.EventBus
	clock  ports.Clock

	graph      *AudioGraphManager
	loop       *RenderLoop
	controller *PlaybackController
	lifecycle  *LifecycleCoordinator

	mu         sync.Mutex
	compositor *visualizer.Compositor
	element    ports.MediaElement
	last       visualizer.FrameResult
	onFrame    func(visualizer.FrameResult)
	disposed   bool
}

// NewVisualizerSession mounts a visualizer.
func NewVisualizerSession(deps SessionDeps) (*VisualizerSession, error) {
	switch {
	case deps.Platform == nil:
		return nil, errors.New("session: audio platform is required")
	case deps.Element == nil:
		return nil, errors.New("session: media element is required")
	case deps.Scheduler == nil:
		return nil, errors.New("session: frame scheduler is required")
	case deps.Canvas == nil:
		return nil, errors.New("session: canvas is required")
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		start := time.Now()
		clock = func() float64 {
			return float64(time.Since(start).Microseconds()) / 1000
		}
	}

	id := uuid.NewString()
	logger = logger.With(slog.String("session", id))

	s := &VisualizerSession{
		id:      id,
		logger:  logger.With(slog.String("component", "session")),
		canvas:  deps.Canvas,
		bus:     deps.Bus,
		clock:   clock,
		element: deps.Element,
		compositor: visualizer.NewCompositor(deps.Config, visualizer.Options{
			Theme: domain.ParseTheme(string(deps.Theme)),
		}, deps.Rand),
	}

	s.graph = NewAudioGraphManager(logger, deps.Platform, deps.Config)
	s.loop = NewRenderLoop(logger, deps.Scheduler, s.renderFrame)
	s.controller = NewPlaybackController(logger, deps.Element, s.graph, s.loop, deps.Bus, clock)
	s.controller.OnSourceChange(s.applySource)
	s.lifecycle = NewLifecycleCoordinator(logger, s.controller, s.graph, deps.Bus)

	s.logger.Debug("session mounted")
	return s, nil
}

// ID returns the session id used in logs.
func (s *VisualizerSession) ID() string {
	return s.id
}

// Controller returns the playback controller.
func (s *VisualizerSession) Controller() *PlaybackController {
	return s.controller
}

// Lifecycle returns the lifecycle coordinator.
func (s *VisualizerSession) Lifecycle() *LifecycleCoordinator {
	return s.lifecycle
}

// Graph returns the audio graph manager.
func (s *VisualizerSession) Graph() *AudioGraphManager {
	return s.graph
}

// Loop returns the render loop.
func (s *VisualizerSession) Loop() *RenderLoop {
	return s.loop
}

// Ripples returns a snapshot of the live ripples.
func (s *VisualizerSession) Ripples() []visualizer.Ripple {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositor.Ripples().Ripples()
}

// OnFrame registers a hook called after every drawn frame, outside the session lock.
func (s *VisualizerSession) OnFrame(fn func(visualizer.FrameResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

// Start assigns source and starts playback. When playback cannot start a
// still frame is drawn and the error returned.
func (s *VisualizerSession) Start(ctx context.Context, source domain.MediaSource) error {
	if s.isDisposed() {
		return domain.ErrSessionDisposed
	}
	if err := s.controller.SetSource(ctx, source); err != nil {
		return err
	}
	if err := s.controller.Play(ctx); err != nil {
		s.drawStill()
		return err
	}
	return nil
}

// Stop pauses playback and leaves the idle core on screen.
func (s *VisualizerSession) Stop(ctx context.Context) error {
	if s.isDisposed() {
		return domain.ErrSessionDisposed
	}
	if err := s.controller.Pause(ctx); err != nil {
		return err
	}
	s.drawStill()
	return nil
}

// SetTheme switches the background treatment.
func (s *VisualizerSession) SetTheme(theme domain.Theme) {
	s.mu.Lock()
	opts := s.compositor.Options()
	opts.Theme = theme
	s.compositor.SetOptions(opts)
	s.mu.Unlock()

	if !s.controller.IsPlaying() {
		s.drawStill()
	}
}

// Title returns the display title of the current source, resolved from
// the media tags when the source carries none.
func (s *VisualizerSession) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositor.Options().Title
}

// Theme returns the current background theme.
func (s *VisualizerSession) Theme() domain.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositor.Options().Theme
}

// Snapshot returns the result of the last frame.
func (s *VisualizerSession) Snapshot() visualizer.FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Dispose unmounts the session. Pending frames are cancelled and the graph
// released; the media element is left to its owner. Safe to call repeatedly.
func (s *VisualizerSession) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.onFrame = nil
	s.mu.Unlock()

	s.lifecycle.Unmount()
	s.logger.Debug("session disposed")
}

func (s *VisualizerSession) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// applySource resets per-source render state after a source change.
func (s *VisualizerSession) applySource(source domain.MediaSource) {
	title := source.Title
	if title == "" {
		if tagged, ok := s.element.(ports.TaggedElement); ok {
			title = tagged.Title()
		}
	}

	s.mu.Lock()
	opts := s.compositor.Options()
	opts.Title = title
	opts.ShowTitle = source.ShowTitle
	opts.Preview = source.Preview
	opts.Compact = source.Compact
	s.compositor.SetOptions(opts)
	s.compositor.Reset()
	s.mu.Unlock()
}

// renderFrame is the render loop body. It returns false to end the loop
// once playback has stopped.
func (s *VisualizerSession) renderFrame(nowMs float64) bool {
	playing := s.controller.IsPlaying()

	var raw []byte
	if playing {
		if data, ok := s.graph.FrequencyData(nowMs); ok {
			raw = data
		}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	if rate := s.graph.SampleRate(); rate > 0 {
		s.compositor.SetSampleRate(rate)
	}
	result := s.compositor.Frame(s.canvas, raw, playing, nowMs)
	s.last = result
	hook := s.onFrame
	s.mu.Unlock()

	for _, err := range result.Errors {
		s.logger.Debug("frame element skipped", slog.Any("error", err))
	}
	if hook != nil {
		hook(result)
	}
	if s.bus != nil && result.Beats.Any() {
		s.bus.Publish(domain.NewBeatEvent(result.Beats, result.Bands))
	}
	return playing
}

// drawStill draws a single paused frame outside the render loop.
func (s *VisualizerSession) drawStill() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	result := s.compositor.Frame(s.canvas, nil, false, s.clock())
	s.last = result
	hook := s.onFrame
	s.mu.Unlock()

	if hook != nil {
		hook(result)
	}
}
