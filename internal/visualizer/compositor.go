package visualizer

import (
	"math/rand"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Options are the display flags of one visualizer instance.
type Options struct {
	Theme     domain.Theme
	Title     string
	ShowTitle bool
	Preview   bool // reduced effects for thumbnails
	Compact   bool // smaller core for tight layouts
}

// FrameResult describes what one frame computed and drew.
type FrameResult struct {
	Bands      domain.BandIntensities
	Beats      domain.BeatFlags
	CoreRadius float64
	Ripples    int
	Spawned    int
	Title      string // empty unless ShowTitle is set
	Errors     []error
}

// Compositor runs the per-frame pipeline: background, analysis, beat
// detection, ripples and the core, in that order.
type Compositor struct {
	cfg  Config
	opts Options

	analyzer   *FrequencyAnalyzer
	detector   *BeatDetector
	beats      BeatState
	ripples    *RippleSystem
	core       *CorePulse
	background *Background
}

// NewCompositor creates a compositor. rng seeds ripple jitter, the heartbeat
// and the cloud layout; pass a seeded source for reproducible frames.
func NewCompositor(cfg Config, opts Options, rng *rand.Rand) *Compositor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) // nolint:gosec
	}

	c := &Compositor{
		cfg:        cfg,
		analyzer:   NewFrequencyAnalyzer(cfg),
		detector:   NewBeatDetector(cfg),
		ripples:    NewRippleSystem(cfg, rng),
		core:       NewCorePulse(cfg, opts.Theme),
		background: NewBackground(cfg, opts.Theme, rng),
	}
	c.SetOptions(opts)
	return c
}

// SetOptions applies new display flags.
func (c *Compositor) SetOptions(opts Options) {
	c.opts = opts
	c.core.SetTheme(opts.Theme)
	c.background.SetTheme(opts.Theme)

	if opts.Compact {
		c.core.SetScale(c.cfg.CompactScale)
	} else {
		c.core.SetScale(1)
	}

	if opts.Preview {
		c.ripples.SetMaxCount(max(c.cfg.MaxRipples/2, 1))
	} else {
		c.ripples.SetMaxCount(c.cfg.MaxRipples)
	}
}

// Options returns the current display flags.
func (c *Compositor) Options() Options {
	return c.opts
}

// SetSampleRate forwards the analyser sample rate for Hz partitioning.
func (c *Compositor) SetSampleRate(rate int) {
	c.analyzer.SetSampleRate(rate)
}

// Ripples exposes the particle system.
func (c *Compositor) Ripples() *RippleSystem {
	return c.ripples
}

// BeatState returns a copy of the detector state.
func (c *Compositor) BeatState() BeatState {
	return c.beats
}

// Reset clears ripples, beat references and smoothing, used on source changes.
func (c *Compositor) Reset() {
	c.ripples.Clear()
	c.beats.Reset()
	c.core.Reset()
	c.background.Invalidate()
}

// Frame renders one frame. raw is the analyser byte data, or nil when no
// live data is available; playing selects the pulse mode and enables spawning.
func (c *Compositor) Frame(canvas ports.Canvas, raw []byte, playing bool, nowMs float64) FrameResult {
	var result FrameResult

	w, h := canvas.Size()
	cx, cy := float64(w)/2, float64(h)/2
	side := float64(min(w, h))

	c.background.Draw(canvas, nowMs)

	if !playing {
		raw = nil
	}
	result.Bands = c.analyzer.Analyze(raw)
	result.Beats = c.detector.Detect(result.Bands, &c.beats)

	_, coreMax := c.core.Bounds(canvas)
	c.ripples.SetGeometry(coreMax, side*c.cfg.RippleMaxSizeRatio)

	if playing {
		for _, band := range domain.Bands {
			if !result.Beats.Onset[band] {
				continue
			}
			if c.ripples.Spawn(KindForBand(band), result.Bands.Get(band), raw, nowMs) {
				result.Spawned++
			}
		}
		if !c.opts.Preview && c.ripples.MaybeHeartbeat(result.Bands.Overall, nowMs) {
			result.Spawned++
		}
	}

	c.ripples.Tick()
	result.Errors = append(result.Errors, c.ripples.Render(canvas, cx, cy, c.opts.Theme)...)
	result.Ripples = c.ripples.Len()

	radius, err := c.core.Render(canvas, cx, cy, result.Bands, playing, nowMs)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	result.CoreRadius = radius

	if c.opts.ShowTitle {
		result.Title = c.opts.Title
	}

	return result
}
