package service

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

const (
	// DefaultVolume is the volume of a new controller.
	DefaultVolume = 0.8

	// ProgressInterval throttles timeupdate handling.
	ProgressInterval = 250 * time.Millisecond
)

// SeekTarget is either a fraction of the duration or an absolute position.
type SeekTarget struct {
	Fraction   float64
	Position   time.Duration
	ByFraction bool
}

// SeekFraction targets a fraction of the duration in [0,1].
func SeekFraction(f float64) SeekTarget {
	return SeekTarget{Fraction: f, ByFraction: true}
}

// SeekTo targets an absolute position.
func SeekTo(position time.Duration) SeekTarget {
	return SeekTarget{Position: position}
}

// PlaybackController owns PlaybackState and drives the media element,
// the audio graph and the render loop from user actions and media events.
//
// All operations are serialized via sync.RWMutex. Events are published after
// the lock is released, so subscribers may call back into the controller.
type PlaybackController struct {
	// Dependencies (injected)
	logger  *slog.Logger
	element ports.MediaElement
	graph   *AudioGraphManager
	loop    *RenderLoop
	bus     ports.EventBus
	clock   ports.Clock

	// onSourceChange runs after a source change, outside the lock
	onSourceChange func(domain.MediaSource)

	mu           sync.RWMutex
	state        domain.PlaybackState
	playing      atomic.Bool
	lastProgress float64
	degraded     bool
	detached     bool
}

// NewPlaybackController creates a controller and registers it as the element's listener.
func NewPlaybackController(
	logger *slog.Logger,
	element ports.MediaElement,
	graph *AudioGraphManager,
	loop *RenderLoop,
	bus ports.EventBus,
	clock ports.Clock,
) *PlaybackController {
	c := &PlaybackController{
		logger:       logger.With(slog.String("component", "playback")),
		element:      element,
		graph:        graph,
		loop:         loop,
		bus:          bus,
		clock:        clock,
		state:        domain.PlaybackState{Volume: DefaultVolume},
		lastProgress: math.Inf(-1),
	}

	element.SetVolume(DefaultVolume)
	element.SetListener(c.handleMediaEvent)

	c.logger.Debug("playback controller initialized")
	return c
}

// OnSourceChange registers a hook run after every source change.
func (c *PlaybackController) OnSourceChange(fn func(domain.MediaSource)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSourceChange = fn
}

// State returns a copy of the playback state.
func (c *PlaybackController) State() domain.PlaybackState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsPlaying returns the playing intent without taking the lock, for frame callbacks.
func (c *PlaybackController) IsPlaying() bool {
	return c.playing.Load()
}

// Play sets up and resumes the audio graph, starts the media element and,
// once it has started, the render loop. On failure the state is left not
// playing and the error is surfaced in State().LastError.
func (c *PlaybackController) Play(ctx context.Context) error {
	c.mu.Lock()
	events, err := c.playLocked(ctx)
	c.mu.Unlock()

	c.publish(events...)
	return err
}

func (c *PlaybackController) playLocked(ctx context.Context) ([]domain.Event, error) {
	if c.detached {
		return nil, domain.ErrSessionDisposed
	}
	if c.state.Source.URL == "" {
		return nil, domain.ErrNoSource
	}
	if c.state.IsPlaying && !c.element.Paused() {
		return nil, nil
	}

	c.logger.Debug("play", slog.String("url", c.state.Source.URL))

	var events []domain.Event

	handle, err := c.graph.Setup(ctx, c.element)
	if err != nil {
		return c.failLocked(ctx, domain.NewPlaybackError("setup", "audio graph setup failed", err)), err
	}
	if handle.Degraded && !c.degraded {
		events = append(events, domain.NewGraphDegradedEvent(domain.ErrSourceAlreadyConnected))
	}
	c.degraded = handle.Degraded

	if err := c.element.Play(ctx); err != nil {
		perr := domain.NewPlaybackError("play", "media element refused to play", err)
		return append(events, c.failLocked(ctx, perr)...), perr
	}

	c.setPlaying(true)
	c.state.LastError = nil
	c.loop.Start()

	return append(events, domain.NewPlaybackStartedEvent(c.state.Source, c.degraded)), nil
}

// Pause pauses the element, stops the render loop and suspends the graph.
func (c *PlaybackController) Pause(ctx context.Context) error {
	c.mu.Lock()
	c.element.Pause()
	c.loop.Stop()
	if err := c.graph.Suspend(ctx); err != nil {
		c.logger.Warn("failed to suspend audio graph", slog.Any("error", err))
	}
	wasPlaying := c.state.IsPlaying
	c.setPlaying(false)
	position := c.element.CurrentTime()
	c.state.CurrentTime = position
	c.mu.Unlock()

	if wasPlaying {
		c.publish(domain.NewPlaybackPausedEvent(position))
	}
	return nil
}

// Seek moves the playhead. The media must be loaded.
func (c *PlaybackController) Seek(target SeekTarget) error {
	c.mu.Lock()

	if !c.state.IsLoaded {
		c.mu.Unlock()
		return domain.ErrNotLoaded
	}

	var position time.Duration
	if target.ByFraction {
		if math.IsNaN(target.Fraction) || target.Fraction < 0 || target.Fraction > 1 {
			c.mu.Unlock()
			return domain.ErrInvalidSeek
		}
		position = time.Duration(target.Fraction * float64(c.state.Duration))
	} else {
		if target.Position < 0 || target.Position > c.state.Duration {
			c.mu.Unlock()
			return domain.ErrInvalidSeek
		}
		position = target.Position
	}

	if err := c.element.Seek(position); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.CurrentTime = position
	duration := c.state.Duration
	c.mu.Unlock()

	c.publish(domain.NewPlaybackProgressEvent(position, duration))
	return nil
}

// SetVolume sets the volume in [0,1]. A nonzero volume clears mute.
func (c *PlaybackController) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	c.mu.Lock()
	var events []domain.Event
	c.state.Volume = volume
	c.element.SetVolume(volume)
	if volume > 0 && c.state.IsMuted {
		c.state.IsMuted = false
		c.element.SetMuted(false)
		events = append(events, domain.NewMuteToggledEvent(false))
	}
	c.mu.Unlock()

	c.publish(append(events, domain.NewVolumeChangedEvent(volume))...)
	return nil
}

// ToggleMute flips the mute state and returns the new value.
func (c *PlaybackController) ToggleMute() bool {
	c.mu.Lock()
	c.state.IsMuted = !c.state.IsMuted
	muted := c.state.IsMuted
	c.element.SetMuted(muted)
	c.mu.Unlock()

	c.publish(domain.NewMuteToggledEvent(muted))
	return muted
}

// SetSource replaces the media source. A new URL stops playback, resets
// time, duration and the loaded flag, and tears down and rebuilds the graph.
// Setting the same URL only updates the display flags.
func (c *PlaybackController) SetSource(ctx context.Context, source domain.MediaSource) error {
	c.mu.Lock()

	if c.detached {
		c.mu.Unlock()
		return domain.ErrSessionDisposed
	}

	hook := c.onSourceChange
	if source.URL == c.state.Source.URL && c.state.Source.URL != "" {
		c.state.Source = source
		c.mu.Unlock()
		if hook != nil {
			hook(source)
		}
		return nil
	}

	c.logger.Debug("source change", slog.String("url", source.URL))

	c.element.Pause()
	c.loop.Stop()
	c.graph.Teardown()

	c.state = domain.PlaybackState{
		Source:  source,
		Volume:  c.state.Volume,
		IsMuted: c.state.IsMuted,
	}
	c.setPlaying(false)
	c.lastProgress = math.Inf(-1)
	c.degraded = false

	c.element.SetSource(source.URL)

	var events []domain.Event
	if source.URL != "" {
		handle, err := c.graph.Setup(ctx, c.element)
		switch {
		case err != nil:
			// Play retries the setup and surfaces the failure if it persists
			c.logger.Warn("audio graph rebuild failed", slog.Any("error", err))
		default:
			c.degraded = handle.Degraded
			if handle.Degraded {
				events = append(events, domain.NewGraphDegradedEvent(domain.ErrSourceAlreadyConnected))
			}
			if err := c.graph.Suspend(ctx); err != nil {
				c.logger.Warn("failed to suspend rebuilt graph", slog.Any("error", err))
			}
		}
	}
	c.mu.Unlock()

	if hook != nil {
		hook(source)
	}
	c.publish(append([]domain.Event{domain.NewSourceChangedEvent(source)}, events...)...)
	return nil
}

// suspendForBackground pauses output while keeping the playing intent.
// Returns true if playback was active.
func (c *PlaybackController) suspendForBackground(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsPlaying {
		return false
	}
	c.element.Pause()
	c.loop.Stop()
	if err := c.graph.Suspend(ctx); err != nil {
		c.logger.Warn("failed to suspend audio graph", slog.Any("error", err))
	}
	return true
}

// resumeFromBackground resumes the graph and retries playback. On failure
// the controller falls back to paused and surfaces the error.
func (c *PlaybackController) resumeFromBackground(ctx context.Context) error {
	c.mu.Lock()

	if !c.state.IsPlaying || c.detached {
		c.mu.Unlock()
		return nil
	}

	var perr *domain.PlaybackError
	if err := c.graph.Resume(ctx); err != nil {
		perr = domain.NewPlaybackError("resume", "failed to resume audio", err)
	} else if err := c.element.Play(ctx); err != nil {
		perr = domain.NewPlaybackError("play", "media element refused to resume", err)
	}

	if perr != nil {
		events := c.failLocked(ctx, perr)
		c.mu.Unlock()
		c.publish(events...)
		return perr
	}

	c.state.LastError = nil
	c.loop.Start()
	c.mu.Unlock()
	return nil
}

// detach stops everything and unregisters from the element.
func (c *PlaybackController) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return
	}
	c.detached = true
	c.loop.Stop()
	c.element.Pause()
	c.element.SetListener(nil)
	c.setPlaying(false)
}

// failLocked surfaces err, stops the loop and leaves the controller not playing.
func (c *PlaybackController) failLocked(ctx context.Context, err error) []domain.Event {
	c.logger.Warn("playback failed", slog.Any("error", err))

	c.loop.Stop()
	c.element.Pause()
	if serr := c.graph.Suspend(ctx); serr != nil {
		c.logger.Debug("suspend after failure", slog.Any("error", serr))
	}
	c.setPlaying(false)
	c.state.LastError = err

	return []domain.Event{domain.NewPlaybackErrorEvent(err)}
}

func (c *PlaybackController) setPlaying(playing bool) {
	c.state.IsPlaying = playing
	c.playing.Store(playing)
}

// handleMediaEvent applies media element events to the state.
func (c *PlaybackController) handleMediaEvent(event domain.MediaEvent) {
	c.mu.Lock()

	if c.detached {
		c.mu.Unlock()
		return
	}

	var events []domain.Event
	switch event.Type {
	case domain.MediaLoadedMetadata:
		c.state.Duration = event.Duration
		c.state.IsLoaded = true
		c.state.LastError = nil
		events = append(events, domain.NewMediaLoadedEvent(c.state.Source, event.Duration))

	case domain.MediaTimeUpdate:
		now := c.clock()
		if now-c.lastProgress < float64(ProgressInterval.Milliseconds()) {
			break
		}
		c.lastProgress = now
		c.state.CurrentTime = event.CurrentTime
		if event.Duration > 0 {
			c.state.Duration = event.Duration
		}
		events = append(events, domain.NewPlaybackProgressEvent(c.state.CurrentTime, c.state.Duration))

	case domain.MediaEnded:
		c.loop.Stop()
		if err := c.graph.Suspend(context.Background()); err != nil {
			c.logger.Debug("suspend after end", slog.Any("error", err))
		}
		c.setPlaying(false)
		c.state.CurrentTime = c.state.Duration
		events = append(events, domain.NewPlaybackEndedEvent(c.state.Source))

	case domain.MediaError:
		var err error
		if !c.state.IsLoaded {
			err = domain.NewLoadError(c.state.Source.URL, "failed to load media", event.Err)
		} else {
			err = domain.NewPlaybackError("media", "media playback failed", event.Err)
		}
		events = c.failLocked(context.Background(), err)
	}
	c.mu.Unlock()

	c.publish(events...)
}

func (c *PlaybackController) publish(events ...domain.Event) {
	if c.bus == nil {
		return
	}
	for _, e := range events {
		c.bus.Publish(e)
	}
}
