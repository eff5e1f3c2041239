package software

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Platform is a ports.AudioPlatform over an Output.
//
// Like a browser, it allows at most one source node per media element for
// as long as the context that created it is open.
type Platform struct {
	logger *slog.Logger
	output Output

	mu    sync.Mutex
	bound map[*MediaElement]*Context
}

// NewPlatform creates a platform on output.
func NewPlatform(logger *slog.Logger, output Output) *Platform {
	return &Platform{
		logger: logger.With(slog.String("component", "audio_platform")),
		output: output,
		bound:  make(map[*MediaElement]*Context),
	}
}

// NewContext implements ports.AudioPlatform. Contexts start suspended.
func (p *Platform) NewContext() (ports.AudioContext, error) {
	return &Context{platform: p, state: domain.ContextSuspended}, nil
}

func (p *Platform) bind(element *MediaElement, owner *Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.bound[element]; ok {
		p.logger.Debug("element already bound", slog.String("url", element.Source()))
		return domain.ErrSourceAlreadyConnected
	}
	p.bound[element] = owner
	return nil
}

func (p *Platform) release(owner *Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for el, c := range p.bound {
		if c == owner {
			delete(p.bound, el)
		}
	}
}

// Context is a ports.AudioContext. The media element drives the output
// itself, so the state only tracks the lifecycle of the graph.
type Context struct {
	platform *Platform

	mu        sync.Mutex
	state     domain.ContextState
	analysers []*Analyser
	sources   []*Source
}

// State implements ports.AudioContext.
func (c *Context) State() domain.ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SampleRate implements ports.AudioContext.
func (c *Context) SampleRate() int {
	return c.platform.output.SampleRate()
}

// Resume implements ports.AudioContext.
func (c *Context) Resume(ctx context.Context) error {
	return c.transition(ctx, domain.ContextRunning)
}

// Suspend implements ports.AudioContext.
func (c *Context) Suspend(ctx context.Context) error {
	return c.transition(ctx, domain.ContextSuspended)
}

func (c *Context) transition(ctx context.Context, to domain.ContextState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.ContextClosed {
		return domain.ErrContextClosed
	}
	c.state = to
	return nil
}

// Close implements ports.AudioContext. It disconnects every node and
// releases the media elements bound to this context.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.state == domain.ContextClosed {
		c.mu.Unlock()
		return domain.ErrContextClosed
	}
	c.state = domain.ContextClosed
	sources := c.sources
	analysers := c.analysers
	c.sources, c.analysers = nil, nil
	c.mu.Unlock()

	for _, s := range sources {
		s.Disconnect()
	}
	for _, a := range analysers {
		a.Disconnect()
	}
	c.platform.release(c)
	return nil
}

// CreateAnalyser implements ports.AudioContext.
func (c *Context) CreateAnalyser(fftSize int, smoothing float64) (ports.AnalyserNode, error) {
	if fftSize < 32 || bits.OnesCount(uint(fftSize)) != 1 {
		return nil, fmt.Errorf("%w: fft size %d", domain.ErrInvalidConfig, fftSize)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("%w: smoothing %v", domain.ErrInvalidConfig, smoothing)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.ContextClosed {
		return nil, domain.ErrContextClosed
	}
	a := newAnalyser(fftSize, smoothing)
	c.analysers = append(c.analysers, a)
	return a, nil
}

// CreateMediaElementSource implements ports.AudioContext. Only elements of
// this package can be bound.
func (c *Context) CreateMediaElementSource(element ports.MediaElement) (ports.SourceNode, error) {
	el, ok := element.(*MediaElement)
	if !ok {
		return nil, fmt.Errorf("software platform cannot bind %T", element)
	}
	if c.State() == domain.ContextClosed {
		return nil, domain.ErrContextClosed
	}
	if err := c.platform.bind(el, c); err != nil {
		return nil, err
	}

	s := &Source{element: el}
	c.mu.Lock()
	c.sources = append(c.sources, s)
	c.mu.Unlock()
	return s, nil
}

// Source is a ports.SourceNode feeding an element's tap to an analyser.
type Source struct {
	element *MediaElement

	mu       sync.Mutex
	analyser *Analyser
}

// Connect implements ports.SourceNode.
func (s *Source) Connect(node ports.AnalyserNode) error {
	a, ok := node.(*Analyser)
	if !ok {
		return fmt.Errorf("software source cannot feed %T", node)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyser = a
	a.attach(s.element.tap)
	return nil
}

// Disconnect implements ports.SourceNode.
func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyser != nil {
		s.analyser.Disconnect()
		s.analyser = nil
	}
}

var (
	_ ports.AudioPlatform = (*Platform)(nil)
	_ ports.AudioContext  = (*Context)(nil)
	_ ports.SourceNode    = (*Source)(nil)
)
