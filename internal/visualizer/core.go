package visualizer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// CorePulse draws the central disc whose size follows the bass.
type CorePulse struct {
	cfg   Config
	theme domain.Theme
	scale float64

	// Smoothed between frames so play/pause transitions do not jump
	radius float64
	glow   float64
	primed bool
}

// NewCorePulse creates a core pulse renderer.
func NewCorePulse(cfg Config, theme domain.Theme) *CorePulse {
	return &CorePulse{cfg: cfg, theme: theme, scale: 1}
}

// SetTheme switches the palette.
func (c *CorePulse) SetTheme(theme domain.Theme) {
	c.theme = theme
}

// SetScale shrinks or grows the core, used by compact mode.
func (c *CorePulse) SetScale(scale float64) {
	if scale > 0 {
		c.scale = scale
	}
}

// Bounds returns the minimum and maximum core radius for a canvas.
func (c *CorePulse) Bounds(canvas ports.Canvas) (minR, maxR float64) {
	w, h := canvas.Size()
	side := float64(min(w, h))
	return side * c.cfg.CoreMinRatio * c.scale, side * c.cfg.CoreMaxRatio * c.scale
}

// Glow returns the smoothed glow activity in [0,1].
func (c *CorePulse) Glow() float64 {
	return c.glow
}

// Reset drops the smoothing history.
func (c *CorePulse) Reset() {
	c.radius = 0
	c.glow = 0
	c.primed = false
}

// Render draws the core at the centre and returns the radius drawn.
//
// While playing the radius follows bass intensity plus a fast pulse.
// While paused it breathes slowly around a calm baseline regardless of audio.
func (c *CorePulse) Render(canvas ports.Canvas, cx, cy float64, bands domain.BandIntensities, playing bool, nowMs float64) (radius float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = domain.NewRenderFrameError("core", -1, fmt.Sprint(rec))
		}
	}()

	minR, maxR := c.Bounds(canvas)
	span := maxR - minR
	seconds := nowMs / 1000

	var target, activity float64
	if playing {
		pulse := math.Sin(2 * math.Pi * c.cfg.CorePlayingHz * seconds)
		activity = clamp01(bands.Low*0.7 + bands.Overall*0.3)
		target = minR + span*(0.35+0.55*activity) + span*0.1*pulse*activity
	} else {
		breath := math.Sin(2 * math.Pi * c.cfg.CoreIdleHz * seconds)
		activity = 0.15 + 0.05*breath
		target = minR + span*(0.3+0.1*breath)
	}

	a := c.cfg.GlowSmoothing
	if !c.primed {
		c.radius = target
		c.glow = activity
		c.primed = true
	} else {
		c.radius = c.radius*a + target*(1-a)
		c.glow = c.glow*a + activity*(1-a)
	}

	if !finite(c.radius) || !finite(c.glow) {
		c.Reset()
		return 0, domain.NewRenderFrameError("core", -1, "non-finite core state")
	}

	fill, glow := coreColors(c.theme)
	glowRadius := c.radius * (1.4 + 1.2*c.glow)
	canvas.RadialGlow(cx, cy, c.radius, glowRadius, withAlpha(glow, 0.25+0.5*c.glow))
	canvas.FillCircle(cx, cy, c.radius, fill)
	canvas.FillCircle(cx, cy, c.radius*0.55, withAlpha(color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0.2+0.4*c.glow))

	return c.radius, nil
}

func coreColors(theme domain.Theme) (fill, glow color.RGBA) {
	if theme == domain.ThemeLight {
		return color.RGBA{R: 110, G: 80, B: 210, A: 255}, color.RGBA{R: 160, G: 130, B: 255, A: 255}
	}
	return color.RGBA{R: 150, G: 90, B: 255, A: 255}, color.RGBA{R: 200, G: 140, B: 255, A: 255}
}
