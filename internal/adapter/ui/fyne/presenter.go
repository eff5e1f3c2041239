// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/service"
	"github.com/tejashwikalptaru/wavepulse/internal/visualizer"
)

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
// Methods may be called from any goroutine.
type UIView interface {
	// Playback state updates
	SetPlayState(playing bool)
	SetMuteState(muted bool)
	SetVolume(volume float64)

	// Source information
	SetTitle(title string)

	// Progress updates
	SetCurrentTime(seconds float64)
	SetTotalTime(seconds float64)
	SetProgress(position, duration float64)

	// Visualizer
	SetTheme(theme domain.Theme)
	FrameDrawn()

	// Notifications
	ShowNotification(title, message string)
}

// Presenter coordinates a VisualizerSession and the view (MVP).
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to view updates
// - Translate view commands to session and controller calls
//
// Thread-safety: All operations are thread-safe via sync.RWMutex.
type Presenter struct {
	logger  *slog.Logger
	session *service.VisualizerSession
	bus     ports.EventBus
	view    UIView

	mu            sync.RWMutex
	subscriptions []domain.SubscriptionID
	duration      float64

	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and syncs the view with the session.
func NewPresenter(
	logger *slog.Logger,
	session *service.VisualizerSession,
	bus ports.EventBus,
	view UIView,
) *Presenter {
	p := &Presenter{
		logger:  logger.With(slog.String("component", "presenter")),
		session: session,
		bus:     bus,
		view:    view,
	}

	p.subscribeToEvents()
	session.OnFrame(func(visualizer.FrameResult) {
		p.view.FrameDrawn()
	})
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventSourceChanged:  p.onSourceChanged,
		domain.EventMediaLoaded:    p.onMediaLoaded,
		domain.EventPlaybackStart:  p.onPlaybackStarted,
		domain.EventPlaybackPause:  p.onPlaybackPaused,
		domain.EventPlaybackEnded:  p.onPlaybackEnded,
		domain.EventPlaybackTime:   p.onPlaybackProgress,
		domain.EventPlaybackFailed: p.onPlaybackFailed,

		// Volume events
		domain.EventVolumeChanged: p.onVolumeChanged,
		domain.EventMuteToggled:   p.onMuteToggled,

		// Engine events
		domain.EventGraphDegraded: p.onGraphDegraded,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

// syncInitialState synchronizes the view with the current session state.
func (p *Presenter) syncInitialState() {
	state := p.session.Controller().State()

	p.view.SetVolume(state.Volume * 100.0)
	p.view.SetMuteState(state.IsMuted)
	p.view.SetPlayState(state.IsPlaying)
	p.view.SetTheme(p.session.Theme())

	if state.Source.URL != "" {
		p.view.SetTitle(displayTitle(p.session.Title(), state.Source.URL))
	}
	if state.Duration > 0 {
		p.setDuration(state.Duration.Seconds())
		p.view.SetTotalTime(state.Duration.Seconds())
		p.view.SetProgress(state.CurrentTime.Seconds(), state.Duration.Seconds())
		p.view.SetCurrentTime(state.CurrentTime.Seconds())
	}
}

// Event handlers

func (p *Presenter) onSourceChanged(event domain.Event) {
	e, ok := event.(domain.SourceChangedEvent)
	if !ok {
		return
	}

	p.setDuration(0)
	p.view.SetTitle(displayTitle(p.session.Title(), e.Source.URL))
	p.view.SetPlayState(false)
	p.view.SetTotalTime(0)
	p.view.SetCurrentTime(0)
	p.view.SetProgress(0, 0)
}

func (p *Presenter) onMediaLoaded(event domain.Event) {
	e, ok := event.(domain.MediaLoadedEvent)
	if !ok {
		return
	}

	seconds := e.Duration.Seconds()
	p.setDuration(seconds)
	p.view.SetTotalTime(seconds)
}

func (p *Presenter) onPlaybackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onPlaybackPaused(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onPlaybackEnded(domain.Event) {
	p.view.SetPlayState(false)

	duration := p.getDuration()
	p.view.SetCurrentTime(duration)
	p.view.SetProgress(duration, duration)
}

func (p *Presenter) onPlaybackProgress(event domain.Event) {
	e, ok := event.(domain.PlaybackProgressEvent)
	if !ok {
		return
	}

	p.view.SetCurrentTime(e.Position.Seconds())
	p.view.SetProgress(e.Position.Seconds(), e.Duration.Seconds())
}

func (p *Presenter) onPlaybackFailed(event domain.Event) {
	e, ok := event.(domain.PlaybackErrorEvent)
	if !ok {
		return
	}

	p.view.SetPlayState(false)
	p.view.ShowNotification("Playback Error", e.Message)
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}

	p.view.SetVolume(e.Volume * 100.0)
}

func (p *Presenter) onMuteToggled(event domain.Event) {
	e, ok := event.(domain.MuteToggledEvent)
	if !ok {
		return
	}

	p.view.SetMuteState(e.Muted)
}

func (p *Presenter) onGraphDegraded(domain.Event) {
	p.view.ShowNotification("Visualizer", "Audio analysis is unavailable, showing an estimated pulse")
}

// UI Command handlers (called by the view)

// OnPlayClicked toggles playback.
func (p *Presenter) OnPlayClicked() {
	controller := p.session.Controller()

	var err error
	if controller.IsPlaying() {
		err = controller.Pause(context.Background())
	} else {
		err = controller.Play(context.Background())
	}

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoSource):
		p.view.ShowNotification("Nothing to play", "Open a WAV file first")
	default:
		// The controller already published a PlaybackErrorEvent
		p.logger.Error("play/pause failed", slog.Any("error", err))
	}
}

// OnStopClicked pauses playback and rewinds.
func (p *Presenter) OnStopClicked() {
	if err := p.session.Stop(context.Background()); err != nil {
		p.logger.Error("stop failed", slog.Any("error", err))
		return
	}

	if !p.session.Controller().State().IsLoaded {
		return
	}
	if err := p.session.Controller().Seek(service.SeekTo(0)); err != nil {
		p.logger.Warn("rewind failed", slog.Any("error", err))
	}
}

// OnMuteClicked toggles mute.
func (p *Presenter) OnMuteClicked() {
	p.session.Controller().ToggleMute()
}

// OnVolumeChanged handles volume slider changes in 0-100.
func (p *Presenter) OnVolumeChanged(volume float64) {
	if err := p.session.Controller().SetVolume(volume / 100.0); err != nil {
		p.logger.Error("volume change failed", slog.Any("error", err))
		p.view.ShowNotification("Volume Error",
			fmt.Sprintf("Failed to change volume: %v", err))
	}
}

// OnSeekRequested handles seek requests from the progress slider, in seconds.
func (p *Presenter) OnSeekRequested(position float64) {
	duration := p.getDuration()
	if duration <= 0 {
		return
	}

	fraction := min(max(position/duration, 0), 1)
	if err := p.session.Controller().Seek(service.SeekFraction(fraction)); err != nil {
		p.logger.Error("seek failed", slog.Any("error", err))
		p.view.ShowNotification("Seek Error",
			fmt.Sprintf("Failed to seek: %v", err))
	}
}

// OnFileOpened loads a file and starts playing it.
func (p *Presenter) OnFileOpened(filePath string) error {
	source := domain.MediaSource{
		URL:       "file://" + filePath,
		ShowTitle: true,
	}
	return p.session.Start(context.Background(), source)
}

// OnThemeToggled switches between the dark and light backgrounds.
func (p *Presenter) OnThemeToggled() {
	next := domain.ThemeLight
	if p.session.Theme() == domain.ThemeLight {
		next = domain.ThemeDark
	}
	p.session.SetTheme(next)
	p.view.SetTheme(next)
}

// OnVisibilityChanged forwards window foreground changes to the session.
func (p *Presenter) OnVisibilityChanged(hidden bool) {
	if err := p.session.Lifecycle().SetHidden(context.Background(), hidden); err != nil {
		p.logger.Warn("visibility change failed",
			slog.Bool("hidden", hidden),
			slog.Any("error", err))
	}
}

// Shutdown unsubscribes from the bus and detaches the frame hook.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.session.OnFrame(nil)

		p.mu.Lock()
		subs := p.subscriptions
		p.subscriptions = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.bus.Unsubscribe(id)
		}
	})
}

func (p *Presenter) setDuration(seconds float64) {
	p.mu.Lock()
	p.duration = seconds
	p.mu.Unlock()
}

func (p *Presenter) getDuration() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.duration
}

// displayTitle falls back to the file name of url.
func displayTitle(title, url string) string {
	if title != "" {
		return title
	}
	if url == "" {
		return "No track loaded"
	}
	name := path.Base(url)
	return strings.TrimSuffix(name, path.Ext(name))
}
