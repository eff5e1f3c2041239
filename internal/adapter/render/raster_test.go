package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterCanvas_Clear(t *testing.T) {
	c := NewRasterCanvas(4, 3)
	c.Clear(color.RGBA{R: 10, G: 20, B: 30, A: 0})

	w, h := c.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, c.At(3, 2), "clear should be opaque")
}

func TestRasterCanvas_FillCircle(t *testing.T) {
	c := NewRasterCanvas(21, 21)
	c.Clear(color.RGBA{})

	red := color.RGBA{R: 255, A: 255}
	c.FillCircle(10.5, 10.5, 5, red)

	assert.Equal(t, red, c.At(10, 10), "centre should be filled")
	assert.Equal(t, color.RGBA{A: 255}, c.At(0, 0), "corner should be untouched")
}

func TestRasterCanvas_StrokeCircle(t *testing.T) {
	c := NewRasterCanvas(41, 41)
	c.Clear(color.RGBA{})

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	c.StrokeCircle(20.5, 20.5, 10, 2, white)

	assert.Equal(t, color.RGBA{A: 255}, c.At(20, 20), "inside of the ring stays empty")
	assert.Equal(t, white, c.At(30, 20), "ring pixel should be drawn")
}

func TestRasterCanvas_FadeBlends(t *testing.T) {
	c := NewRasterCanvas(2, 2)
	c.Clear(color.RGBA{R: 200, G: 200, B: 200})

	c.Fade(color.RGBA{A: 128})

	px := c.At(0, 0)
	assert.Less(t, px.R, uint8(200))
	assert.Greater(t, px.R, uint8(0))
}

func TestRasterCanvas_RadialGlowFalloff(t *testing.T) {
	c := NewRasterCanvas(41, 41)
	c.Clear(color.RGBA{})

	c.RadialGlow(20.5, 20.5, 0, 20, color.RGBA{G: 255, A: 255})

	centre := c.At(20, 20).G
	edge := c.At(36, 20).G
	assert.Greater(t, centre, edge, "glow should fade outward")
}

func TestRasterCanvas_ClipsOutOfBounds(t *testing.T) {
	c := NewRasterCanvas(10, 10)

	require.NotPanics(t, func() {
		c.FillCircle(-50, -50, 100, color.RGBA{R: 1, A: 255})
		c.StrokeCircle(500, 500, 20, 3, color.RGBA{A: 255})
		c.FillEllipse(5, 5, 0, 3, color.RGBA{A: 255})
	})
}

func TestRasterCanvas_Resize(t *testing.T) {
	c := NewRasterCanvas(10, 10)

	assert.False(t, c.Resize(10, 10))
	assert.True(t, c.Resize(20, 5))

	w, h := c.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 5, h)
	assert.Equal(t, 20*5*4, len(c.Snapshot().Pix))
}

func TestRecorder_Records(t *testing.T) {
	r := NewRecorder(100, 50)
	r.Clear(color.RGBA{})
	r.StrokeCircle(1, 2, 3, 4, color.RGBA{})

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, OpStrokeCircle, calls[1].Op)
	assert.Equal(t, 3.0, calls[1].R1)
	assert.Equal(t, 1, r.Count(OpClear))

	r.PanicOn = OpFade
	assert.Panics(t, func() { r.Fade(color.RGBA{}) })

	r.Reset()
	assert.Empty(t, r.Calls())
}
