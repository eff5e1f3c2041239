package visualizer

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

var (
	darkBackground  = color.RGBA{R: 8, G: 6, B: 20, A: 255}
	lightBackground = color.RGBA{R: 214, G: 232, B: 250, A: 255}
	cloudColor      = color.RGBA{R: 255, G: 255, B: 255, A: 200}
)

// cloud is one ellipse of the light-mode parallax layer.
// X and Y are fractions of the canvas size.
type cloud struct {
	X, Y  float64
	Width float64
	Depth float64 // 0..1, nearer clouds drift faster
}

// Background paints the theme backdrop. Dark mode fades the previous frame to
// leave trails; light mode repaints the sky and drifts a layer of clouds.
type Background struct {
	cfg    Config
	theme  domain.Theme
	clouds []cloud
	fresh  bool
}

// NewBackground creates the backdrop for a theme. rng places the clouds.
func NewBackground(cfg Config, theme domain.Theme, rng *rand.Rand) *Background {
	b := &Background{cfg: cfg, theme: theme, fresh: true}
	if rng == nil {
		rng = rand.New(rand.NewSource(2)) // nolint:gosec
	}
	for i := 0; i < cfg.CloudCount; i++ {
		b.clouds = append(b.clouds, cloud{
			X:     rng.Float64(),
			Y:     0.1 + rng.Float64()*0.8,
			Width: 0.12 + rng.Float64()*0.12,
			Depth: 0.3 + rng.Float64()*0.7,
		})
	}
	return b
}

// SetTheme switches the backdrop and forces a full repaint on the next frame.
func (b *Background) SetTheme(theme domain.Theme) {
	b.theme = theme
	b.fresh = true
}

// Invalidate forces a full clear on the next frame.
func (b *Background) Invalidate() {
	b.fresh = true
}

// Draw paints the backdrop for the frame at nowMs.
func (b *Background) Draw(canvas ports.Canvas, nowMs float64) {
	if b.theme == domain.ThemeLight {
		canvas.Clear(lightBackground)
		b.drawClouds(canvas, nowMs)
		b.fresh = false
		return
	}

	if b.fresh {
		canvas.Clear(darkBackground)
		b.fresh = false
		return
	}
	trail := darkBackground
	trail.A = b.cfg.TrailAlpha
	canvas.Fade(trail)
}

func (b *Background) drawClouds(canvas ports.Canvas, nowMs float64) {
	w, h := canvas.Size()
	fw, fh := float64(w), float64(h)
	seconds := nowMs / 1000

	for _, c := range b.clouds {
		x := math.Mod(c.X+seconds*b.cfg.CloudDriftPerSec*c.Depth, 1.2) - 0.1
		rx := c.Width * fw * (0.6 + 0.4*c.Depth)
		ry := rx * 0.35
		col := cloudColor
		col.A = uint8(float64(cloudColor.A) * (0.4 + 0.6*c.Depth))
		canvas.FillEllipse(x*fw, c.Y*fh, rx, ry, col)
		canvas.FillEllipse(x*fw+rx*0.5, c.Y*fh-ry*0.4, rx*0.6, ry*0.9, col)
	}
}
