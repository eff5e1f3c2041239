package software

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

const (
	// TimeUpdateInterval is how often a playing element reports its position.
	TimeUpdateInterval = 100 * time.Millisecond

	// tapFrames is the number of output frames kept for analysers.
	tapFrames = 16384
)

var errElementClosed = errors.New("media element closed")

// MediaElement plays local WAV files through an Output.
//
// Events are delivered from the element's own goroutine, never from the
// call that caused them, so listeners may call back into the element.
type MediaElement struct {
	logger *slog.Logger
	output Output
	tap    *ringbuffer.RingBuffer

	mu       sync.Mutex
	url      string
	title    string
	stream   *pcmStream
	player   OutputPlayer
	loadErr  error
	paused   bool
	volume   float64
	muted    bool
	listener ports.MediaListener
	queue    []domain.MediaEvent
	closed   bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewMediaElement creates a paused element and starts its event goroutine.
// Close must be called to stop it.
func NewMediaElement(logger *slog.Logger, output Output) *MediaElement {
	m := &MediaElement{
		logger: logger.With(slog.String("component", "media_element")),
		output: output,
		tap:    ringbuffer.New(tapFrames * bytesPerFrame),
		paused: true,
		volume: 1,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.run()

	return m
}

// SetSource implements ports.MediaElement. The file header is read
// immediately; the outcome is reported as an event.
func (m *MediaElement) SetSource(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.loadLocked(url)
}

func (m *MediaElement) loadLocked(url string) {
	m.unloadLocked()
	m.url = url
	if url == "" {
		return
	}

	path, err := resolvePath(url)
	if err == nil {
		m.stream, err = openStream(path, m.output.SampleRate(), m.tap)
	}
	if err != nil {
		m.logger.Warn("failed to load media", slog.String("url", url), slog.Any("error", err))
		m.loadErr = err
		m.enqueueLocked(domain.MediaEvent{Type: domain.MediaError, Err: err})
		return
	}

	m.title = readTitle(path)
	m.logger.Debug("media loaded",
		slog.String("url", url),
		slog.Duration("duration", m.stream.Duration()),
		slog.Int("sample_rate", m.stream.SampleRate()))

	m.enqueueLocked(domain.MediaEvent{Type: domain.MediaLoadedMetadata, Duration: m.stream.Duration()})
}

// Source implements ports.MediaElement.
func (m *MediaElement) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Title implements ports.TaggedElement.
func (m *MediaElement) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Play implements ports.MediaElement. Playing an ended element restarts it.
func (m *MediaElement) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return errElementClosed
	case m.url == "":
		return domain.ErrNoSource
	case m.loadErr != nil:
		return m.loadErr
	}

	if m.stream.Done() {
		if err := m.seekLocked(0); err != nil {
			return err
		}
	}
	if m.player == nil {
		m.player = m.output.NewPlayer(m.stream)
		m.applyVolumeLocked()
	}
	m.player.Play()
	m.paused = false
	return nil
}

// Pause implements ports.MediaElement.
func (m *MediaElement) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.player != nil {
		m.player.Pause()
	}
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

	if m.stream == nil {
		return domain.ErrNotLoaded
	}
	if position < 0 || position > m.stream.Duration() {
		return domain.ErrInvalidSeek
	}
	return m.seekLocked(position)
}

// CurrentTime implements ports.MediaElement. It accounts for frames still
// buffered in the output.
func (m *MediaElement) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

// Duration implements ports.MediaElement.
func (m *MediaElement) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return 0
	}
	return m.stream.Duration()
}

// SetVolume implements ports.MediaElement.
func (m *MediaElement) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	m.applyVolumeLocked()
}

// SetMuted implements ports.MediaElement.
func (m *MediaElement) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyVolumeLocked()
}

// SetListener implements ports.MediaElement.
func (m *MediaElement) SetListener(listener ports.MediaListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = listener
}

// Close implements ports.MediaElement. It stops the event goroutine and
// releases the file. Safe to call repeatedly.
func (m *MediaElement) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.unloadLocked()
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()

	m.logger.Debug("media element closed")
	return nil
}

// unloadLocked drops the current source along with its undelivered events.
func (m *MediaElement) unloadLocked() {
	m.queue = nil
	if m.player != nil {
		m.player.Pause()
		m.player = nil
	}
	if m.stream != nil {
		if err := m.stream.Close(); err != nil {
			m.logger.Debug("close stream", slog.Any("error", err))
		}
		m.stream = nil
	}
	m.tap.Reset()
	m.url = ""
	m.title = ""
	m.loadErr = nil
	m.paused = true
}

func (m *MediaElement) seekLocked(position time.Duration) error {
	offset := m.stream.offsetOf(position)
	if m.player != nil {
		_, err := m.player.Seek(offset, io.SeekStart)
		return err
	}
	_, err := m.stream.Seek(offset, io.SeekStart)
	return err
}

func (m *MediaElement) positionLocked() time.Duration {
	if m.stream == nil {
		return 0
	}
	pos := m.stream.Played()
	if m.player != nil {
		pos -= framesToDuration(int64(m.player.BufferedSize()/bytesPerFrame), m.output.SampleRate())
	}
	return max(pos, 0)
}

func (m *MediaElement) applyVolumeLocked() {
	if m.player == nil {
		return
	}
	if m.muted {
		m.player.SetVolume(0)
		return
	}
	m.player.SetVolume(m.volume)
}

func (m *MediaElement) enqueueLocked(event domain.MediaEvent) {
	m.queue = append(m.queue, event)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// run delivers queued events and polls playback progress until Close.
func (m *MediaElement) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(TimeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		case <-ticker.C:
			m.poll()
		}
		m.deliver()
	}
}

// poll queues a timeupdate while playing, or ended once the output drained.
func (m *MediaElement) poll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.player == nil || m.stream == nil {
		return
	}

	duration := m.stream.Duration()
	if m.stream.Done() && m.player.BufferedSize() == 0 {
		m.paused = true
		m.player.Pause()
		m.queue = append(m.queue, domain.MediaEvent{Type: domain.MediaEnded, CurrentTime: duration, Duration: duration})
		return
	}

	m.queue = append(m.queue, domain.MediaEvent{
		Type:        domain.MediaTimeUpdate,
		CurrentTime: m.positionLocked(),
		Duration:    duration,
	})
}

func (m *MediaElement) deliver() {
	m.mu.Lock()
	events := m.queue
	m.queue = nil
	listener := m.listener
	m.mu.Unlock()

	if listener == nil {
		return
	}
	for _, event := range events {
		listener(event)
	}
}

var (
	_ ports.MediaElement  = (*MediaElement)(nil)
	_ ports.TaggedElement = (*MediaElement)(nil)
)
