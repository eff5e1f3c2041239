package visualizer

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

func newTestCompositor(cfg Config, opts Options) *Compositor {
	return NewCompositor(cfg, opts, rand.New(rand.NewSource(3))) // nolint:gosec
}

func TestCompositor_PausedFrameIsIdle(t *testing.T) {
	c := newTestCompositor(testConfig(), Options{Theme: domain.ThemeDark})
	rec := render.NewRecorder(320, 240)

	res := c.Frame(rec, bytes.Repeat([]byte{255}, 256), false, 0)

	assert.Equal(t, NewFrequencyAnalyzer(testConfig()).Idle(), res.Bands, "no live data while paused")
	assert.False(t, res.Beats.Any())
	assert.Equal(t, 0, res.Spawned)
	assert.Equal(t, 0, res.Ripples)
	assert.Empty(t, res.Errors)
	assert.Greater(t, res.CoreRadius, 0.0)
}

func TestCompositor_BeatSpawnsRipples(t *testing.T) {
	c := newTestCompositor(testConfig(), Options{Theme: domain.ThemeDark})
	rec := render.NewRecorder(320, 240)

	quiet := c.Frame(rec, make([]byte, 256), true, 0)
	assert.Equal(t, 0, quiet.Spawned)

	loud := c.Frame(rec, bytes.Repeat([]byte{200}, 256), true, 16)
	assert.True(t, loud.Beats.Onset[domain.BandLow])
	assert.True(t, loud.Beats.Onset[domain.BandMid])
	assert.True(t, loud.Beats.Onset[domain.BandHigh])
	assert.Equal(t, 3, loud.Spawned)
	assert.Equal(t, 3, loud.Ripples)

	// The hold keeps the bands active but produces no new ripples.
	held := c.Frame(rec, bytes.Repeat([]byte{200}, 256), true, 500)
	assert.True(t, held.Beats.Active[domain.BandLow])
	assert.Equal(t, 0, held.Spawned)
}

func TestCompositor_DrawOrder(t *testing.T) {
	c := newTestCompositor(testConfig(), Options{Theme: domain.ThemeDark})
	rec := render.NewRecorder(320, 240)

	c.Frame(rec, make([]byte, 256), true, 0)
	c.Frame(rec, bytes.Repeat([]byte{200}, 256), true, 16)

	calls := rec.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, render.OpClear, calls[0].Op, "first dark frame clears")

	var fadeAt, strokeAt, coreAt = -1, -1, -1
	for i, call := range calls {
		switch {
		case call.Op == render.OpFade && fadeAt < 0:
			fadeAt = i
		case call.Op == render.OpStrokeCircle && strokeAt < 0:
			strokeAt = i
		case call.Op == render.OpFillCircle && strokeAt >= 0 && coreAt < 0:
			coreAt = i
		}
	}
	require.GreaterOrEqual(t, fadeAt, 0, "later dark frames fade")
	assert.Less(t, fadeAt, strokeAt, "background before ripples")
	assert.Less(t, strokeAt, coreAt, "ripples before the core")
}

func TestCompositor_LightThemeClouds(t *testing.T) {
	cfg := testConfig()
	c := newTestCompositor(cfg, Options{Theme: domain.ThemeLight})
	rec := render.NewRecorder(320, 240)

	c.Frame(rec, nil, false, 0)
	c.Frame(rec, nil, false, 16)

	assert.Equal(t, 2, rec.Count(render.OpClear), "light theme repaints the sky every frame")
	assert.Equal(t, 0, rec.Count(render.OpFade))
	assert.Equal(t, 2*2*cfg.CloudCount, rec.Count(render.OpFillEllipse))
}

func TestCompositor_Options(t *testing.T) {
	cfg := testConfig()
	c := newTestCompositor(cfg, Options{Theme: domain.ThemeDark, Title: "Song", ShowTitle: true})
	rec := render.NewRecorder(100, 100)

	res := c.Frame(rec, nil, false, 0)
	assert.Equal(t, "Song", res.Title)

	c.SetOptions(Options{Theme: domain.ThemeDark, Title: "Song", Preview: true})
	res = c.Frame(rec, nil, false, 16)
	assert.Empty(t, res.Title)

	for i := 0; i < 10; i++ {
		c.Ripples().Spawn(RippleKind(i%3), 0.5, nil, float64(i*1000))
	}
	assert.Equal(t, cfg.MaxRipples/2, c.Ripples().Len(), "preview halves the ripple cap")
}

func TestCompositor_CompactShrinksCore(t *testing.T) {
	full := newTestCompositor(testConfig(), Options{})
	compact := newTestCompositor(testConfig(), Options{Compact: true})
	rec := render.NewRecorder(200, 200)

	a := full.Frame(rec, nil, false, 0)
	b := compact.Frame(rec, nil, false, 0)

	assert.InDelta(t, a.CoreRadius*0.7, b.CoreRadius, 1e-9)
}

func TestCompositor_ResetClearsState(t *testing.T) {
	c := newTestCompositor(testConfig(), Options{})
	rec := render.NewRecorder(320, 240)

	c.Frame(rec, make([]byte, 256), true, 0)
	c.Frame(rec, bytes.Repeat([]byte{200}, 256), true, 16)
	require.Greater(t, c.Ripples().Len(), 0)

	c.Reset()

	assert.Equal(t, 0, c.Ripples().Len())
	assert.Equal(t, BeatState{}, c.BeatState())
}

func TestCompositor_RippleFaultDoesNotStopFrame(t *testing.T) {
	c := newTestCompositor(testConfig(), Options{})
	rec := render.NewRecorder(320, 240)

	c.Frame(rec, make([]byte, 256), true, 0)
	rec.PanicOn = render.OpStrokeCircle
	res := c.Frame(rec, bytes.Repeat([]byte{200}, 256), true, 16)

	assert.Len(t, res.Errors, 3)
	assert.Equal(t, 0, res.Ripples)
	assert.Greater(t, res.CoreRadius, 0.0, "core still drawn")
}
