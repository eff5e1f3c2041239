package visualizer

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// testConfig returns defaults without jitter or random heartbeats.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RippleJitter = 0
	cfg.HeartbeatChance = 0
	return cfg
}

func newTestRipples(cfg Config) *RippleSystem {
	return NewRippleSystem(cfg, rand.New(rand.NewSource(7))) // nolint:gosec
}

func TestRippleSystem_SpawnCooldownPerKind(t *testing.T) {
	s := newTestRipples(testConfig())

	assert.True(t, s.Spawn(RippleLow, 0.5, nil, 0))
	assert.False(t, s.Spawn(RippleLow, 0.5, nil, 99), "low cooldown is 100ms")
	assert.True(t, s.Spawn(RippleHigh, 0.5, nil, 99), "cooldowns are per kind")
	assert.False(t, s.Spawn(RippleHigh, 0.5, nil, 148), "high cooldown is 50ms")
	assert.True(t, s.Spawn(RippleHigh, 0.5, nil, 149))
	assert.True(t, s.Spawn(RippleLow, 0.5, nil, 100))
	assert.True(t, s.Spawn(RippleMid, 0.5, nil, 100))
	assert.False(t, s.Spawn(RippleMid, 0.5, nil, 249), "mid cooldown is 150ms")

	assert.Equal(t, 5, s.Len())
}

func TestRippleSystem_CooldownNeverViolated(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRipples = 64
	s := newTestRipples(cfg)

	last := map[RippleKind]float64{}
	for now := 0.0; now < 5000; now += 16.7 {
		for _, kind := range []RippleKind{RippleLow, RippleMid, RippleHigh} {
			if !s.Spawn(kind, 0.8, nil, now) {
				continue
			}
			if prev, ok := last[kind]; ok {
				assert.GreaterOrEqual(t, now-prev, cfg.Tuning(kind).CooldownMs, "kind %s", kind)
			}
			last[kind] = now
		}
		s.Tick()
	}
}

func TestRippleSystem_ZeroLifespanNotSpawned(t *testing.T) {
	cfg := testConfig()
	cfg.RippleLifespan = 0
	s := newTestRipples(cfg)

	assert.False(t, s.Spawn(RippleLow, 1, nil, 0))
	assert.Equal(t, 0, s.Len())
}

func TestRippleSystem_LifeBoundedByLifespan(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRipples = 16
	s := newTestRipples(cfg)

	kinds := []RippleKind{RippleLow, RippleMid, RippleHigh, RippleHeartbeat}
	for _, intensity := range []float64{0, 0.5, 1, 3} {
		s.Clear()
		for _, kind := range kinds {
			require.True(t, s.Spawn(kind, intensity, nil, 0))
		}
		for _, r := range s.Ripples() {
			bound := cfg.RippleLifespan * cfg.Tuning(r.Kind).SizeFactor
			assert.LessOrEqual(t, r.MaxLife, bound, "kind %s at intensity %v", r.Kind, intensity)
			assert.Greater(t, r.MaxLife, 0.0)
		}
	}

	s.Clear()
	require.True(t, s.Spawn(RippleLow, 1, nil, 0))
	assert.InDelta(t, cfg.RippleLifespan*cfg.Low.SizeFactor, s.Ripples()[0].MaxLife, 1, "full intensity reaches the bound")
}

func TestRippleSystem_OpacityAndRadiusMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	s := newTestRipples(cfg)
	s.SetGeometry(20, 10000)

	require.True(t, s.Spawn(RippleMid, 0.9, nil, 0))
	prev := s.Ripples()[0]

	frames := 0
	for s.Len() > 0 {
		s.Tick()
		frames++
		require.Less(t, frames, 1000, "ripple never expired")
		if s.Len() == 0 {
			break
		}
		cur := s.Ripples()[0]
		assert.Less(t, cur.Opacity, prev.Opacity, "frame %d", frames)
		assert.GreaterOrEqual(t, cur.Radius, prev.Radius, "frame %d", frames)
		assert.LessOrEqual(t, cur.Opacity, cur.Watermark)
		prev = cur
	}
}

func TestRippleSystem_RemovedAtMaxRadius(t *testing.T) {
	s := newTestRipples(testConfig())
	s.SetGeometry(10, 20)

	require.True(t, s.Spawn(RippleHigh, 1, nil, 0))
	assert.InDelta(t, 11.0, s.Ripples()[0].Radius, 1e-9, "spawned just outside the core")

	for i := 0; i < 10; i++ {
		s.Tick()
	}
	assert.Equal(t, 0, s.Len())
}

func TestRippleSystem_CapEvictsLowestOpacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRipples = 3
	s := newTestRipples(cfg)

	for i := 0; i < 4; i++ {
		require.True(t, s.Spawn(RippleLow, 0.5, nil, float64(i*200)))
		for j := 0; j < 5; j++ {
			s.Tick()
		}
		assert.LessOrEqual(t, s.Len(), cfg.MaxRipples)
	}

	ripples := s.Ripples()
	require.Len(t, ripples, 3)
	for i, want := range []float64{200, 400, 600} {
		assert.Equal(t, want, ripples[i].SpawnedAt, "oldest ripple should have been evicted")
	}
}

func TestRippleSystem_SetMaxCountEvicts(t *testing.T) {
	cfg := testConfig()
	s := newTestRipples(cfg)
	s.Spawn(RippleLow, 0.5, nil, 0)
	s.Spawn(RippleMid, 0.5, nil, 0)
	s.Spawn(RippleHigh, 0.5, nil, 0)

	s.SetMaxCount(1)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, RippleLow, s.Ripples()[0].Kind, "low ripples start most opaque")
}

func TestRippleSystem_Clear(t *testing.T) {
	s := newTestRipples(testConfig())
	s.Spawn(RippleLow, 0.5, nil, 0)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Spawn(RippleLow, 0.5, nil, 1), "clear resets cooldowns")
}

func TestRippleSystem_Heartbeat(t *testing.T) {
	cfg := testConfig()
	cfg.HeartbeatChance = 1
	s := newTestRipples(cfg)

	assert.True(t, s.MaybeHeartbeat(0.2, 0))
	assert.False(t, s.MaybeHeartbeat(0.2, 1000), "heartbeat cooldown")
	assert.True(t, s.MaybeHeartbeat(0.2, 1200))

	cfg.HeartbeatChance = 0
	quiet := newTestRipples(cfg)
	assert.False(t, quiet.MaybeHeartbeat(0.2, 0))
}

func TestRippleSystem_RenderAccents(t *testing.T) {
	s := newTestRipples(testConfig())
	s.Spawn(RippleLow, 0.5, bytes.Repeat([]byte{255}, 128), 0)
	s.Spawn(RippleMid, 0.5, make([]byte, 128), 0)

	rec := render.NewRecorder(200, 200)
	errs := s.Render(rec, 100, 100, domain.ThemeDark)

	assert.Empty(t, errs)
	assert.Equal(t, 2, rec.Count(render.OpStrokeCircle))
	assert.Equal(t, 12, rec.Count(render.OpRadialGlow), "accents only where the spectrum is bright")
}

func TestRippleSystem_RenderFaultDropsOnlyThatRipple(t *testing.T) {
	s := newTestRipples(testConfig())
	s.Spawn(RippleLow, 0.5, nil, 0)
	s.Spawn(RippleMid, 0.5, nil, 0)
	s.ripples[0].Radius = math.NaN()

	rec := render.NewRecorder(200, 200)
	errs := s.Render(rec, 100, 100, domain.ThemeLight)

	require.Len(t, errs, 1)
	var frameErr *domain.RenderFrameError
	assert.True(t, errors.As(errs[0], &frameErr))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, RippleMid, s.Ripples()[0].Kind)
	assert.Equal(t, 1, rec.Count(render.OpStrokeCircle))
}

func TestRippleSystem_RenderRecoversPanics(t *testing.T) {
	s := newTestRipples(testConfig())
	s.Spawn(RippleLow, 0.5, nil, 0)

	rec := render.NewRecorder(200, 200)
	rec.PanicOn = render.OpStrokeCircle

	var errs []error
	require.NotPanics(t, func() {
		errs = s.Render(rec, 100, 100, domain.ThemeDark)
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, 0, s.Len())
}
