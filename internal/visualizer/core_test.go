package visualizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

func TestCorePulse_Bounds(t *testing.T) {
	c := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	rec := render.NewRecorder(200, 100)

	minR, maxR := c.Bounds(rec)
	assert.InDelta(t, 8.0, minR, 1e-9)
	assert.InDelta(t, 16.0, maxR, 1e-9)

	c.SetScale(0.7)
	minR, maxR = c.Bounds(rec)
	assert.InDelta(t, 5.6, minR, 1e-9)
	assert.InDelta(t, 11.2, maxR, 1e-9)
}

func TestCorePulse_PlayingFollowsBass(t *testing.T) {
	c := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	rec := render.NewRecorder(200, 100)

	loud := domain.BandIntensities{Low: 1, Overall: 1}
	radius, err := c.Render(rec, 100, 50, loud, true, 0)

	require.NoError(t, err)
	assert.InDelta(t, 8+8*0.9, radius, 1e-9)
	assert.Equal(t, 2, rec.Count(render.OpFillCircle))
	assert.Equal(t, 1, rec.Count(render.OpRadialGlow))
}

func TestCorePulse_PausedIgnoresAudio(t *testing.T) {
	a := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	b := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	rec := render.NewRecorder(200, 100)

	ra, _ := a.Render(rec, 100, 50, domain.BandIntensities{Low: 1, Overall: 1}, false, 300)
	rb, _ := b.Render(rec, 100, 50, domain.BandIntensities{}, false, 300)

	assert.Equal(t, ra, rb)
}

func TestCorePulse_SmoothsTransitions(t *testing.T) {
	c := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	rec := render.NewRecorder(200, 100)

	paused, err := c.Render(rec, 100, 50, domain.BandIntensities{}, false, 0)
	require.NoError(t, err)
	assert.InDelta(t, 8+8*0.3, paused, 1e-9)

	playing, err := c.Render(rec, 100, 50, domain.BandIntensities{Low: 1, Overall: 1}, true, 0)
	require.NoError(t, err)
	assert.InDelta(t, paused*0.8+(8+8*0.9)*0.2, playing, 1e-9, "radius eases toward the new target")
}

func TestCorePulse_StaysWithinBounds(t *testing.T) {
	c := NewCorePulse(DefaultConfig(), domain.ThemeLight)
	rec := render.NewRecorder(300, 300)
	minR, maxR := c.Bounds(rec)

	for frame := 0; frame < 600; frame++ {
		now := float64(frame) * 16.7
		level := float64(frame%60) / 60
		playing := frame%200 < 150

		radius, err := c.Render(rec, 150, 150, domain.BandIntensities{Low: level, Overall: level}, playing, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, radius, minR)
		assert.LessOrEqual(t, radius, maxR)
	}
}

func TestCorePulse_RenderFault(t *testing.T) {
	c := NewCorePulse(DefaultConfig(), domain.ThemeDark)
	rec := render.NewRecorder(100, 100)
	rec.PanicOn = render.OpFillCircle

	_, err := c.Render(rec, 50, 50, domain.BandIntensities{}, true, 0)

	var frameErr *domain.RenderFrameError
	require.True(t, errors.As(err, &frameErr))
	assert.Equal(t, "core", frameErr.Element)
}
