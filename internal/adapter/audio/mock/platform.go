// Package mock provides an in-memory audio platform and media element.
// It is used for testing services without a sound card, and by the --mock demo mode.
package mock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// DefaultSampleRate is the sample rate reported by mock contexts.
const DefaultSampleRate = 44100

var (
	errMockContext  = errors.New("mock context creation failed")
	errMockAnalyser = errors.New("mock analyser creation failed")
	errMockSource   = errors.New("mock source creation failed")
	errMockResume   = errors.New("mock resume failed")
)

// Platform is a mock implementation of ports.AudioPlatform.
// Like a browser, it allows a media element to be bound to at most one
// source node until the context owning that node is closed.
//
// Thread-safety: This implementation is thread-safe.
type Platform struct {
	logger *slog.Logger

	mu         sync.Mutex
	sampleRate int
	contexts   []*Context
	bound      map[ports.MediaElement]*Context

	// Behavior configuration (for testing error scenarios)
	failContext  bool
	failAnalyser bool
	failSource   bool
	failResume   bool
	startRunning bool
	signal       Signal
}

// Signal fills dst with synthetic frequency data for the n-th read.
type Signal func(n int, dst []byte)

// NewPlatform creates a mock platform whose contexts start suspended.
func NewPlatform() *Platform {
	return &Platform{
		sampleRate: DefaultSampleRate,
		bound:      make(map[ports.MediaElement]*Context),
	}
}

// SetLogger sets the logger for this platform.
func (p *Platform) SetLogger(logger *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// SetFailContext configures the platform to fail context creation.
func (p *Platform) SetFailContext(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failContext = fail
}

// SetFailAnalyser configures new contexts to fail analyser creation.
func (p *Platform) SetFailAnalyser(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAnalyser = fail
}

// SetFailSource configures new contexts to fail source creation with a
// generic error, as opposed to domain.ErrSourceAlreadyConnected.
func (p *Platform) SetFailSource(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failSource = fail
}

// SetFailResume configures every context to fail Resume.
func (p *Platform) SetFailResume(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failResume = fail
}

// SetStartRunning makes new contexts start in the running state.
func (p *Platform) SetStartRunning(running bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startRunning = running
}

// SetSignal makes analysers created from now on generate their data with fn
// instead of returning the bytes set by SetFrequencyData.
func (p *Platform) SetSignal(fn Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signal = fn
}

func (p *Platform) currentSignal() Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signal
}

// SetSampleRate sets the sample rate of new contexts.
func (p *Platform) SetSampleRate(rate int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sampleRate = rate
}

// BindElsewhere marks element as already bound to a source node owned by
// someone else, so the next binding attempt fails with domain.ErrSourceAlreadyConnected.
func (p *Platform) BindElsewhere(element ports.MediaElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bound[element] = nil
}

// IsBound returns true if element has a live source binding.
func (p *Platform) IsBound(element ports.MediaElement) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.bound[element]
	return ok
}

// Contexts returns every context created so far, oldest first.
func (p *Platform) Contexts() []*Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Context, len(p.contexts))
	copy(out, p.contexts)
	return out
}

// LastContext returns the most recent context, or nil.
func (p *Platform) LastContext() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[len(p.contexts)-1]
}

// NewContext implements ports.AudioPlatform.
func (p *Platform) NewContext() (ports.AudioContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failContext {
		return nil, errMockContext
	}

	state := domain.ContextSuspended
	if p.startRunning {
		state = domain.ContextRunning
	}
	c := &Context{
		platform:   p,
		state:      state,
		sampleRate: p.sampleRate,
	}
	p.contexts = append(p.contexts, c)

	if p.logger != nil {
		p.logger.Debug("mock context created", slog.Int("index", len(p.contexts)-1))
	}
	return c, nil
}

func (p *Platform) bind(element ports.MediaElement, owner *Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failSource {
		return errMockSource
	}
	if _, ok := p.bound[element]; ok {
		return domain.ErrSourceAlreadyConnected
	}
	p.bound[element] = owner
	return nil
}

func (p *Platform) releaseBindings(owner *Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for el, c := range p.bound {
		if c == owner {
			delete(p.bound, el)
		}
	}
}

func (p *Platform) resumeFails() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failResume
}

func (p *Platform) analyserFails() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failAnalyser
}

// Context is a mock implementation of ports.AudioContext.
type Context struct {
	platform *Platform

	mu          sync.Mutex
	state       domain.ContextState
	sampleRate  int
	analysers   []*Analyser
	sources     []*Source
	resumeCalls int
	closeCalls  int
}

// State implements ports.AudioContext.
func (c *Context) State() domain.ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SampleRate implements ports.AudioContext.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Resume implements ports.AudioContext.
func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.platform.resumeFails() {
		return errMockResume
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resumeCalls++
	if c.state == domain.ContextClosed {
		return domain.ErrContextClosed
	}
	c.state = domain.ContextRunning
	return nil
}

// Suspend implements ports.AudioContext.
func (c *Context) Suspend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.ContextClosed {
		return domain.ErrContextClosed
	}
	c.state = domain.ContextSuspended
	return nil
}

// Close implements ports.AudioContext.
func (c *Context) Close() error {
	c.mu.Lock()
	c.closeCalls++
	if c.state == domain.ContextClosed {
		c.mu.Unlock()
		return domain.ErrContextClosed
	}
	c.state = domain.ContextClosed
	c.mu.Unlock()

	c.platform.releaseBindings(c)
	return nil
}

// CreateAnalyser implements ports.AudioContext.
func (c *Context) CreateAnalyser(fftSize int, smoothing float64) (ports.AnalyserNode, error) {
	if c.platform.analyserFails() {
		return nil, errMockAnalyser
	}
	if fftSize < 32 || bits.OnesCount(uint(fftSize)) != 1 {
		return nil, fmt.Errorf("fft size %d: %w", fftSize, domain.ErrInvalidConfig)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("smoothing %v: %w", smoothing, domain.ErrInvalidConfig)
	}

	signal := c.platform.currentSignal()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.ContextClosed {
		return nil, domain.ErrContextClosed
	}
	a := &Analyser{fftSize: fftSize, smoothing: smoothing, signal: signal}
	c.analysers = append(c.analysers, a)
	return a, nil
}

// CreateMediaElementSource implements ports.AudioContext.
func (c *Context) CreateMediaElementSource(element ports.MediaElement) (ports.SourceNode, error) {
	if c.State() == domain.ContextClosed {
		return nil, domain.ErrContextClosed
	}
	if err := c.platform.bind(element, c); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Source{element: element}
	c.sources = append(c.sources, s)
	return s, nil
}

// Analysers returns the analysers created on this context.
func (c *Context) Analysers() []*Analyser {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Analyser, len(c.analysers))
	copy(out, c.analysers)
	return out
}

// Sources returns the source nodes created on this context.
func (c *Context) Sources() []*Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// CloseCalls returns how many times Close was called.
func (c *Context) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// ResumeCalls returns how many successful-or-closed Resume calls reached the context.
func (c *Context) ResumeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeCalls
}

// Analyser is a mock implementation of ports.AnalyserNode.
// Its frequency data is whatever the test last set.
type Analyser struct {
	mu           sync.Mutex
	fftSize      int
	smoothing    float64
	data         []byte
	disconnected bool
	reads        int
	signal       Signal
}

// SetFrequencyData sets the bytes returned by ByteFrequencyData.
func (a *Analyser) SetFrequencyData(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = append(a.data[:0], data...)
}

// FFTSize returns the configured FFT size.
func (a *Analyser) FFTSize() int {
	return a.fftSize
}

// Smoothing returns the configured smoothing constant.
func (a *Analyser) Smoothing() float64 {
	return a.smoothing
}

// Disconnected returns true once Disconnect was called.
func (a *Analyser) Disconnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disconnected
}

// Reads returns how many times ByteFrequencyData was called.
func (a *Analyser) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// FrequencyBinCount implements ports.AnalyserNode.
func (a *Analyser) FrequencyBinCount() int {
	return a.fftSize / 2
}

// ByteFrequencyData implements ports.AnalyserNode.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reads++
	dst = dst[:min(len(dst), a.fftSize/2)]
	if a.signal != nil {
		a.signal(a.reads, dst)
		return
	}
	n := copy(dst, a.data)
	clear(dst[n:])
}

// Disconnect implements ports.AnalyserNode.
func (a *Analyser) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disconnected = true
}

// Source is a mock implementation of ports.SourceNode.
type Source struct {
	mu           sync.Mutex
	element      ports.MediaElement
	analyser     ports.AnalyserNode
	disconnected bool
}

// Connect implements ports.SourceNode.
func (s *Source) Connect(analyser ports.AnalyserNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if analyser == nil {
		return errors.New("nil analyser")
	}
	s.analyser = analyser
	s.disconnected = false
	return nil
}

// Disconnect implements ports.SourceNode.
func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyser = nil
	s.disconnected = true
}

// Connected returns true while the source feeds an analyser.
func (s *Source) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyser != nil
}

// Disconnected returns true once Disconnect was called.
func (s *Source) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// Verify interface compliance
var (
	_ ports.AudioPlatform = (*Platform)(nil)
	_ ports.AudioContext  = (*Context)(nil)
	_ ports.AnalyserNode  = (*Analyser)(nil)
	_ ports.SourceNode    = (*Source)(nil)
)
