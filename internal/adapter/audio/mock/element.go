package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

var errMockPlay = errors.New("mock play rejected")

// MediaElement is a mock implementation of ports.MediaElement.
// It never emits events on its own: tests drive loading, progress, ending
// and errors explicitly with the Emit methods.
//
// Thread-safety: This implementation is thread-safe. Listeners are called
// without the element lock held.
type MediaElement struct {
	mu       sync.Mutex
	url      string
	paused   bool
	position time.Duration
	duration time.Duration
	volume   float64
	muted    bool
	listener ports.MediaListener
	closed   bool
	title    string

	playCalls  int
	pauseCalls int

	// Behavior configuration (for testing error scenarios)
	playErr error
}

// NewMediaElement creates a paused element with full volume.
func NewMediaElement() *MediaElement {
	return &MediaElement{paused: true, volume: 1}
}

// SetFailPlay makes Play reject. The error wraps domain.ErrAutoplayBlocked.
func (m *MediaElement) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fail {
		m.playErr = errors.Join(domain.ErrAutoplayBlocked, errMockPlay)
	} else {
		m.playErr = nil
	}
}

// SetSource implements ports.MediaElement.
func (m *MediaElement) SetSource(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	m.paused = true
	m.position = 0
	m.duration = 0
}

// SetTitle sets the title reported by Title, standing in for embedded tags.
func (m *MediaElement) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

// Title implements ports.TaggedElement.
func (m *MediaElement) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Source implements ports.MediaElement.
func (m *MediaElement) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Play implements ports.MediaElement.
func (m *MediaElement) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++
	if m.closed {
		return errors.New("media element closed")
	}
	if m.url == "" {
		return domain.ErrNoSource
	}
	if m.playErr != nil {
		m.paused = true
		return m.playErr
	}
	m.paused = false
	return nil
}

// Pause implements ports.MediaElement.
func (m *MediaElement) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.paused = true
}

// Paused implements ports.MediaElement.
func (m *MediaElement) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Seek implements ports.MediaElement.
func (m *MediaElement) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position < 0 || (m.duration > 0 && position > m.duration) {
		return domain.ErrInvalidSeek
	}
	m.position = position
	return nil
}

// CurrentTime implements ports.MediaElement.
func (m *MediaElement) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Duration implements ports.MediaElement.
func (m *MediaElement) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// SetVolume implements ports.MediaElement.
func (m *MediaElement) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

// Volume returns the last volume set.
func (m *MediaElement) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// SetMuted implements ports.MediaElement.
func (m *MediaElement) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Muted returns the last mute state set.
func (m *MediaElement) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// SetListener implements ports.MediaElement.
func (m *MediaElement) SetListener(listener ports.MediaListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = listener
}

// Close implements ports.MediaElement.
func (m *MediaElement) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.paused = true
	return nil
}

// Closed returns true once Close was called.
func (m *MediaElement) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PlayCalls returns how many times Play was called.
func (m *MediaElement) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// PauseCalls returns how many times Pause was called.
func (m *MediaElement) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

// EmitLoaded finishes loading with the given duration.
func (m *MediaElement) EmitLoaded(duration time.Duration) {
	m.mu.Lock()
	m.duration = duration
	m.mu.Unlock()

	m.emit(domain.MediaEvent{Type: domain.MediaLoadedMetadata, Duration: duration})
}

// EmitTimeUpdate moves the playhead and reports it.
func (m *MediaElement) EmitTimeUpdate(position time.Duration) {
	m.mu.Lock()
	m.position = position
	duration := m.duration
	m.mu.Unlock()

	m.emit(domain.MediaEvent{Type: domain.MediaTimeUpdate, CurrentTime: position, Duration: duration})
}

// EmitEnded reaches the end of the media.
func (m *MediaElement) EmitEnded() {
	m.mu.Lock()
	m.paused = true
	m.position = m.duration
	duration := m.duration
	m.mu.Unlock()

	m.emit(domain.MediaEvent{Type: domain.MediaEnded, CurrentTime: duration, Duration: duration})
}

// EmitError fails loading or playback.
func (m *MediaElement) EmitError(err error) {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()

	m.emit(domain.MediaEvent{Type: domain.MediaError, Err: err})
}

func (m *MediaElement) emit(event domain.MediaEvent) {
	m.mu.Lock()
	listener := m.listener
	m.mu.Unlock()

	if listener != nil {
		listener(event)
	}
}

var (
	_ ports.MediaElement  = (*MediaElement)(nil)
	_ ports.TaggedElement = (*MediaElement)(nil)
)
