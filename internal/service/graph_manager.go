// Package service provides the playback and rendering orchestration of a visualizer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
	"github.com/tejashwikalptaru/wavepulse/internal/visualizer"
)

// Degraded-mode synthesis
const (
	degradedBeatMs  = 500.0 // 120 bpm envelope
	energySmoothing = 0.9
)

// GraphHandle is the live audio graph of one visualizer.
// Source is nil in degraded mode.
type GraphHandle struct {
	Context  ports.AudioContext
	Analyser ports.AnalyserNode
	Source   ports.SourceNode
	Data     []byte
	Degraded bool

	element ports.MediaElement
}

// AudioGraphManager builds and owns the audio graph feeding the analyser.
// All operations are thread-safe via sync.Mutex.
type AudioGraphManager struct {
	// Dependencies (injected)
	logger   *slog.Logger
	platform ports.AudioPlatform
	cfg      visualizer.Config

	mu     sync.Mutex
	handle *GraphHandle

	// energy is the smoothed level of the last live frames of the current
	// source, used to shape the synthesized spectrum in degraded mode
	energy    float64
	haveLevel bool
}

// NewAudioGraphManager creates a graph manager. No graph exists until Setup.
func NewAudioGraphManager(logger *slog.Logger, platform ports.AudioPlatform, cfg visualizer.Config) *AudioGraphManager {
	return &AudioGraphManager{
		logger:   logger.With(slog.String("component", "graph")),
		platform: platform,
		cfg:      cfg,
	}
}

// Setup returns a usable graph for element.
//
// An existing graph for the same element is resumed and reused. Otherwise any
// prior graph is torn down and a new context and analyser are built. If the
// element is already bound to another source node the graph enters degraded
// mode instead of failing: the analyser stays alive and FrequencyData
// synthesizes a spectrum from the last live level, if any.
func (m *AudioGraphManager) Setup(ctx context.Context, element ports.MediaElement) (*GraphHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.handle; h != nil && h.element == element && h.Context.State() != domain.ContextClosed {
		if h.Context.State() == domain.ContextSuspended {
			if err := h.Context.Resume(ctx); err != nil {
				return nil, domain.NewGraphSetupError("resume", "failed to resume audio context", err)
			}
		}
		return h, nil
	}

	m.teardownLocked()

	ac, err := m.platform.NewContext()
	if err != nil {
		return nil, domain.NewGraphSetupError("context", "failed to create audio context", err)
	}
	h := &GraphHandle{Context: ac, element: element}

	analyser, err := ac.CreateAnalyser(m.cfg.FFTSize, m.cfg.Smoothing)
	if err != nil {
		m.discard(h)
		return nil, domain.NewGraphSetupError("analyser", "failed to create analyser", err)
	}
	h.Analyser = analyser
	h.Data = make([]byte, analyser.FrequencyBinCount())

	source, err := ac.CreateMediaElementSource(element)
	if err == nil {
		if err = source.Connect(analyser); err != nil {
			source.Disconnect()
		}
	}
	if err != nil {
		if !errors.Is(err, domain.ErrSourceAlreadyConnected) {
			m.logger.Warn("source binding failed, using degraded mode", slog.Any("error", err))
		} else {
			m.logger.Info("media element already bound, using degraded mode")
		}
		h.Degraded = true
	} else {
		h.Source = source
	}

	if ac.State() == domain.ContextSuspended {
		if err := ac.Resume(ctx); err != nil {
			m.discard(h)
			return nil, domain.NewGraphSetupError("resume", "failed to start audio context", err)
		}
	}

	m.handle = h
	m.logger.Debug("audio graph ready",
		slog.Int("bins", len(h.Data)),
		slog.Int("sample_rate", ac.SampleRate()),
		slog.Bool("degraded", h.Degraded))

	return h, nil
}

// Suspend pauses the context without destroying nodes. Safe without a graph.
func (m *AudioGraphManager) Suspend(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil || m.handle.Context.State() != domain.ContextRunning {
		return nil
	}
	return m.handle.Context.Suspend(ctx)
}

// Resume restarts a suspended context. Safe without a graph.
func (m *AudioGraphManager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return nil
	}
	switch m.handle.Context.State() {
	case domain.ContextRunning:
		return nil
	case domain.ContextClosed:
		return domain.ErrContextClosed
	default:
		return m.handle.Context.Resume(ctx)
	}
}

// Teardown disconnects every node, closes the context and forgets the graph
// and the tracked level. It is safe to call repeatedly.
func (m *AudioGraphManager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.resetLevel()
}

// Release disconnects the nodes and drops the graph without closing the
// context, which may be shared with other users of the platform.
func (m *AudioGraphManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLevel()
	if m.handle == nil {
		return
	}
	disconnect(m.handle)
	m.handle = nil
	m.logger.Debug("audio graph released")
}

// FrequencyData returns the analyser bytes for this frame.
//
// In degraded mode the bytes are synthesized from the last known energy and a
// steady pulse envelope at nowMs. It returns false when there is no graph,
// the context is not running, or the graph is degraded and no live level was
// ever seen for the current source.
func (m *AudioGraphManager) FrequencyData(nowMs float64) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.handle
	if h == nil || h.Context.State() != domain.ContextRunning {
		return nil, false
	}

	if h.Degraded {
		if !m.haveLevel {
			return nil, false
		}
		m.synthesize(h.Data, nowMs)
		return h.Data, true
	}

	h.Analyser.ByteFrequencyData(h.Data)
	m.track(h.Data)
	return h.Data, true
}

// Degraded reports whether the current graph runs without a live source.
func (m *AudioGraphManager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil && m.handle.Degraded
}

// Active returns true if a graph exists.
func (m *AudioGraphManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// State returns the context state, or closed when no graph exists.
func (m *AudioGraphManager) State() domain.ContextState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return domain.ContextClosed
	}
	return m.handle.Context.State()
}

// SampleRate returns the context sample rate, or zero without a graph.
func (m *AudioGraphManager) SampleRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return 0
	}
	return m.handle.Context.SampleRate()
}

func (m *AudioGraphManager) teardownLocked() {
	if m.handle == nil {
		return
	}
	m.discard(m.handle)
	m.handle = nil
	m.logger.Debug("audio graph torn down")
}

// discard disconnects and closes a possibly partial graph.
func (m *AudioGraphManager) discard(h *GraphHandle) {
	disconnect(h)
	if h.Context != nil && h.Context.State() != domain.ContextClosed {
		if err := h.Context.Close(); err != nil {
			m.logger.Warn("failed to close audio context", slog.Any("error", err))
		}
	}
}

func disconnect(h *GraphHandle) {
	if h.Source != nil {
		h.Source.Disconnect()
	}
	if h.Analyser != nil {
		h.Analyser.Disconnect()
	}
}

func (m *AudioGraphManager) resetLevel() {
	m.energy = 0
	m.haveLevel = false
}

// track updates the running energy estimate from live data.
func (m *AudioGraphManager) track(data []byte) {
	if len(data) == 0 {
		return
	}
	var sum int
	for _, v := range data {
		sum += int(v)
	}
	level := float64(sum) / float64(len(data)) / 255

	if !m.haveLevel {
		m.energy = level
		m.haveLevel = true
		return
	}
	m.energy = m.energy*energySmoothing + level*(1-energySmoothing)
}

// synthesize fills dst with a plausible spectrum: energy falling off toward
// the high bins, modulated by a decaying pulse every degradedBeatMs.
func (m *AudioGraphManager) synthesize(dst []byte, nowMs float64) {
	energy := math.Max(m.energy, 0.1)

	phase := math.Mod(nowMs, degradedBeatMs) / degradedBeatMs
	envelope := math.Exp(-phase * 6)

	n := float64(len(dst))
	for i := range dst {
		pos := float64(i) / n
		falloff := 1 - 0.85*pos
		shimmer := 0.05 * math.Sin(nowMs/90+pos*12)
		v := energy*falloff*(0.45+0.55*envelope*(1-pos)) + shimmer*energy
		dst[i] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
}
