// Package render provides ports.Canvas implementations.
package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

var _ ports.Canvas = (*RasterCanvas)(nil)

// RasterCanvas draws into an in-memory RGBA image with alpha blending.
type RasterCanvas struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewRasterCanvas creates a canvas of the given size.
func NewRasterCanvas(width, height int) *RasterCanvas {
	return &RasterCanvas{img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// Resize reallocates the backing image if the size changed.
// Returns true if the canvas was resized.
func (c *RasterCanvas) Resize(width, height int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return false
	}
	c.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	return true
}

// Snapshot returns a copy of the current image.
func (c *RasterCanvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// At returns the pixel at x, y.
func (c *RasterCanvas) At(x, y int) color.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img.RGBAAt(x, y)
}

// Size implements ports.Canvas.
func (c *RasterCanvas) Size() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements ports.Canvas.
func (c *RasterCanvas) Clear(col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()

	col.A = 255
	pix := c.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = col.R, col.G, col.B, col.A
	}
}

// Fade implements ports.Canvas.
func (c *RasterCanvas) Fade(col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c.blend(x, y, col, 1)
		}
	}
}

// FillCircle implements ports.Canvas.
func (c *RasterCanvas) FillCircle(cx, cy, radius float64, col color.RGBA) {
	c.FillEllipse(cx, cy, radius, radius, col)
}

// StrokeCircle implements ports.Canvas.
func (c *RasterCanvas) StrokeCircle(cx, cy, radius, width float64, col color.RGBA) {
	if radius <= 0 || width <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	inner := math.Max(radius-width/2, 0)
	outer := radius + width/2
	c.eachPixel(cx, cy, outer, outer, func(x, y int, dx, dy float64) {
		d := math.Hypot(dx, dy)
		if d >= inner && d <= outer {
			c.blend(x, y, col, 1)
		}
	})
}

// RadialGlow implements ports.Canvas.
func (c *RasterCanvas) RadialGlow(cx, cy, inner, outer float64, col color.RGBA) {
	if outer <= 0 || outer <= inner {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eachPixel(cx, cy, outer, outer, func(x, y int, dx, dy float64) {
		d := math.Hypot(dx, dy)
		switch {
		case d > outer:
			return
		case d <= inner:
			c.blend(x, y, col, 1)
		default:
			c.blend(x, y, col, 1-(d-inner)/(outer-inner))
		}
	})
}

// FillEllipse implements ports.Canvas.
func (c *RasterCanvas) FillEllipse(cx, cy, rx, ry float64, col color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eachPixel(cx, cy, rx, ry, func(x, y int, dx, dy float64) {
		nx, ny := dx/rx, dy/ry
		if nx*nx+ny*ny <= 1 {
			c.blend(x, y, col, 1)
		}
	})
}

// eachPixel visits the pixels of the bounding box around cx, cy clipped to the image.
// Caller must hold the write lock.
func (c *RasterCanvas) eachPixel(cx, cy, rx, ry float64, fn func(x, y int, dx, dy float64)) {
	if math.IsNaN(cx+cy+rx+ry) || math.IsInf(cx+cy+rx+ry, 0) {
		return
	}
	b := c.img.Bounds()
	x0 := max(int(math.Floor(cx-rx)), b.Min.X)
	x1 := min(int(math.Ceil(cx+rx)), b.Max.X-1)
	y0 := max(int(math.Floor(cy-ry)), b.Min.Y)
	y1 := min(int(math.Ceil(cy+ry)), b.Max.Y-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			fn(x, y, float64(x)+0.5-cx, float64(y)+0.5-cy)
		}
	}
}

// blend composites col over the pixel with its alpha scaled by coverage.
// Caller must hold the write lock.
func (c *RasterCanvas) blend(x, y int, col color.RGBA, coverage float64) {
	a := float64(col.A) / 255 * coverage
	if a <= 0 {
		return
	}
	i := c.img.PixOffset(x, y)
	pix := c.img.Pix[i : i+4 : i+4]
	pix[0] = mix(pix[0], col.R, a)
	pix[1] = mix(pix[1], col.G, a)
	pix[2] = mix(pix[2], col.B, a)
	pix[3] = mix(pix[3], 255, a)
}

func mix(dst, src uint8, a float64) uint8 {
	if a >= 1 {
		return src
	}
	return uint8(math.Round(float64(dst)*(1-a) + float64(src)*a))
}
