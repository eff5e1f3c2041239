package visualizer

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Ripple is an expanding ring spawned by a beat.
type Ripple struct {
	Kind        RippleKind
	Radius      float64
	Age         int
	MaxLife     float64
	Speed       float64
	BaseOpacity float64
	Opacity     float64
	Watermark   float64 // highest opacity this ripple may still show
	Thickness   float64
	Intensity   float64
	SpawnedAt   float64
	Spectrum    []byte
}

// RippleSystem owns the live ripples of one visualizer.
type RippleSystem struct {
	cfg Config
	rng *rand.Rand

	ripples   []*Ripple
	lastSpawn [rippleKindCount]float64
	spawned   [rippleKindCount]bool
	maxCount  int

	// Geometry, updated by the compositor when the canvas is resized
	startRadius float64
	maxRadius   float64
}

// NewRippleSystem creates an empty system. rng drives spawn jitter and the heartbeat.
// nolint:gosec // G404 - weak random is fine for visual effects
func NewRippleSystem(cfg Config, rng *rand.Rand) *RippleSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RippleSystem{
		cfg:         cfg,
		rng:         rng,
		maxCount:    cfg.MaxRipples,
		startRadius: 10,
		maxRadius:   200,
	}
}

// SetGeometry updates the spawn radius and the eviction radius.
func (s *RippleSystem) SetGeometry(coreMaxRadius, maxRadius float64) {
	s.startRadius = coreMaxRadius * s.cfg.RippleStartFactor
	s.maxRadius = maxRadius
}

// SetMaxCount lowers or raises the population cap, evicting if needed.
func (s *RippleSystem) SetMaxCount(n int) {
	s.maxCount = max(n, 1)
	s.enforceCap(s.maxCount)
}

// Len returns the number of live ripples.
func (s *RippleSystem) Len() int {
	return len(s.ripples)
}

// Ripples returns a copy of the live ripples.
func (s *RippleSystem) Ripples() []Ripple {
	out := make([]Ripple, len(s.ripples))
	for i, r := range s.ripples {
		out[i] = *r
	}
	return out
}

// Clear removes every ripple and resets the spawn cooldowns.
func (s *RippleSystem) Clear() {
	s.ripples = s.ripples[:0]
	s.spawned = [rippleKindCount]bool{}
	s.lastSpawn = [rippleKindCount]float64{}
}

// Spawn adds a ripple of the given kind unless its cooldown has not elapsed.
// intensity is the band intensity at the beat, spectrum the analyser bytes of the frame.
// At the population cap the ripple with the lowest remaining opacity makes room.
//
// Returns true if a ripple was spawned.
func (s *RippleSystem) Spawn(kind RippleKind, intensity float64, spectrum []byte, nowMs float64) bool {
	tuning := s.cfg.Tuning(kind)

	if s.spawned[kind] && nowMs-s.lastSpawn[kind] < tuning.CooldownMs {
		return false
	}

	// Life never exceeds RippleLifespan * SizeFactor; quieter beats fade sooner
	maxLife := math.Floor(s.cfg.RippleLifespan * tuning.SizeFactor * (0.6 + 0.4*clamp01(intensity)))
	if maxLife < 1 {
		return false
	}

	r := &Ripple{
		Kind:        kind,
		Radius:      s.startRadius,
		MaxLife:     maxLife,
		Speed:       tuning.Speed * s.jitter() * (0.8 + 0.4*clamp01(intensity)),
		BaseOpacity: math.Min(1, tuning.Opacity*s.jitter()),
		Thickness:   tuning.Thickness * s.jitter(),
		Intensity:   intensity,
		SpawnedAt:   nowMs,
	}
	r.Opacity = r.BaseOpacity
	r.Watermark = r.BaseOpacity
	if len(spectrum) > 0 {
		r.Spectrum = make([]byte, len(spectrum))
		copy(r.Spectrum, spectrum)
	}

	s.enforceCap(s.maxCount - 1)
	s.ripples = append(s.ripples, r)
	s.lastSpawn[kind] = nowMs
	s.spawned[kind] = true

	return true
}

// MaybeHeartbeat spawns a heartbeat ripple with a small constant probability,
// independent of detected beats.
func (s *RippleSystem) MaybeHeartbeat(intensity float64, nowMs float64) bool {
	if s.rng.Float64() >= s.cfg.HeartbeatChance {
		return false
	}
	return s.Spawn(RippleHeartbeat, intensity, nil, nowMs)
}

// Tick advances every ripple by one frame and evicts the finished ones.
func (s *RippleSystem) Tick() {
	live := s.ripples[:0]
	for _, r := range s.ripples {
		r.Speed *= s.cfg.RippleSpeedDecay
		r.Radius += r.Speed
		r.Age++

		opacity := r.BaseOpacity * fadeCurve(float64(r.Age)/r.MaxLife)
		if opacity > r.Watermark {
			opacity = r.Watermark
		}
		r.Opacity = opacity
		r.Watermark = opacity

		if r.Opacity <= s.cfg.RippleOpacityEpsilon || r.Radius >= s.maxRadius {
			continue
		}
		live = append(live, r)
	}
	clear(s.ripples[len(live):])
	s.ripples = live

	s.enforceCap(s.maxCount)
}

// Render draws every ripple around the centre. A ripple that cannot be drawn
// is dropped and reported; the others are still drawn.
func (s *RippleSystem) Render(canvas ports.Canvas, cx, cy float64, theme domain.Theme) []error {
	var errs []error

	live := s.ripples[:0]
	for i, r := range s.ripples {
		if err := s.renderOne(canvas, cx, cy, theme, i, r); err != nil {
			errs = append(errs, err)
			continue
		}
		live = append(live, r)
	}
	clear(s.ripples[len(live):])
	s.ripples = live

	return errs
}

func (s *RippleSystem) renderOne(canvas ports.Canvas, cx, cy float64, theme domain.Theme, index int, r *Ripple) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = domain.NewRenderFrameError("ripple", index, fmt.Sprint(rec))
		}
	}()

	if !finite(r.Radius) || !finite(r.Opacity) || !finite(r.Thickness) || r.Radius < 0 {
		return domain.NewRenderFrameError("ripple", index, "malformed particle state")
	}

	base := rippleColor(r.Kind, theme)
	canvas.StrokeCircle(cx, cy, r.Radius, r.Thickness, withAlpha(base, r.Opacity))

	if len(r.Spectrum) == 0 || s.cfg.AccentCount <= 0 {
		return nil
	}

	count := min(s.cfg.AccentCount, 12)
	for k := 0; k < count; k++ {
		sample := r.Spectrum[k*len(r.Spectrum)/count]
		if sample <= s.cfg.AccentThreshold {
			continue
		}
		strength := float64(sample) / 255
		angle := 2*math.Pi*float64(k)/float64(count) - math.Pi/2
		ax := cx + math.Cos(angle)*r.Radius
		ay := cy + math.Sin(angle)*r.Radius
		size := r.Thickness * (1.5 + 2*strength)
		canvas.RadialGlow(ax, ay, 0, size, withAlpha(base, r.Opacity*strength))
	}

	return nil
}

// jitter returns a multiplier in [1-j, 1+j].
func (s *RippleSystem) jitter() float64 {
	return 1 + (s.rng.Float64()*2-1)*s.cfg.RippleJitter
}

// enforceCap evicts the ripples with the lowest remaining opacity until at most n remain.
func (s *RippleSystem) enforceCap(n int) {
	for len(s.ripples) > max(n, 0) {
		victim := 0
		for i, r := range s.ripples {
			v := s.ripples[victim]
			if r.Opacity < v.Opacity || (r.Opacity == v.Opacity && r.Age > v.Age) {
				victim = i
			}
		}
		copy(s.ripples[victim:], s.ripples[victim+1:])
		s.ripples[len(s.ripples)-1] = nil
		s.ripples = s.ripples[:len(s.ripples)-1]
	}
}

// fadeCurve is strictly decreasing on [0,1) and zero from 1 on.
func fadeCurve(t float64) float64 {
	if t >= 1 {
		return 0
	}
	if t <= 0 {
		return 1
	}
	return math.Pow(1-t, 1.5)
}

func rippleColor(kind RippleKind, theme domain.Theme) color.RGBA {
	if theme == domain.ThemeLight {
		switch kind {
		case RippleMid:
			return color.RGBA{R: 70, G: 110, B: 220, A: 255}
		case RippleHigh:
			return color.RGBA{R: 40, G: 170, B: 200, A: 255}
		case RippleHeartbeat:
			return color.RGBA{R: 230, G: 110, B: 140, A: 255}
		default:
			return color.RGBA{R: 120, G: 70, B: 200, A: 255}
		}
	}

	switch kind {
	case RippleMid:
		return color.RGBA{R: 90, G: 160, B: 255, A: 255}
	case RippleHigh:
		return color.RGBA{R: 120, G: 240, B: 255, A: 255}
	case RippleHeartbeat:
		return color.RGBA{R: 255, G: 120, B: 170, A: 255}
	default:
		return color.RGBA{R: 180, G: 110, B: 255, A: 255}
	}
}

func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	c.A = uint8(clamp01(alpha) * 255)
	return c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
