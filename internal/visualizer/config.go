// Package visualizer implements the per-frame audio visualization engine:
// band analysis, beat detection, the ripple particle system, the core pulse
// and the compositor that draws them onto a ports.Canvas.
//
// Everything in this package is a pure function of its inputs and an explicit
// nowMs timestamp. It never reads the wall clock and never touches the audio graph.
package visualizer

import (
	"math/bits"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// PartitionMode selects how analyser bins are split into bands.
type PartitionMode string

const (
	// PartitionIndex splits bins by index: 10% low, 30% mid, 60% high
	PartitionIndex PartitionMode = "index"

	// PartitionHz splits bins by frequency using the analyser sample rate
	PartitionHz PartitionMode = "hz"
)

// RippleKind tags a ripple with the band that spawned it.
type RippleKind int

const (
	RippleLow RippleKind = iota
	RippleMid
	RippleHigh
	RippleHeartbeat

	rippleKindCount
)

// String returns a human-readable representation of the ripple kind.
func (k RippleKind) String() string {
	switch k {
	case RippleLow:
		return "low"
	case RippleMid:
		return "mid"
	case RippleHigh:
		return "high"
	case RippleHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// KindForBand maps a detected band to its ripple kind.
func KindForBand(band domain.Band) RippleKind {
	switch band {
	case domain.BandMid:
		return RippleMid
	case domain.BandHigh:
		return RippleHigh
	default:
		return RippleLow
	}
}

// RippleTuning holds the per-kind base values sampled at spawn time.
type RippleTuning struct {
	Speed      float64 `mapstructure:"speed"`       // pixels per frame at spawn
	Opacity    float64 `mapstructure:"opacity"`     // starting opacity before jitter
	Thickness  float64 `mapstructure:"thickness"`   // stroke width in pixels
	SizeFactor float64 `mapstructure:"size_factor"` // lifespan multiplier
	CooldownMs float64 `mapstructure:"cooldown_ms"` // minimum interval between two spawns of this kind
}

// Config holds every tunable constant of the engine.
type Config struct {
	// Analyser
	FFTSize   int     `mapstructure:"fft_size"`
	Smoothing float64 `mapstructure:"smoothing"`

	// Bands
	Partition    PartitionMode `mapstructure:"partition"`
	LowMaxHz     float64       `mapstructure:"low_max_hz"`
	MidMaxHz     float64       `mapstructure:"mid_max_hz"`
	HighMaxHz    float64       `mapstructure:"high_max_hz"`
	MinHz        float64       `mapstructure:"min_hz"`
	IdleLow      float64       `mapstructure:"idle_low"`
	IdleMid      float64       `mapstructure:"idle_mid"`
	IdleHigh     float64       `mapstructure:"idle_high"`
	OverallLowW  float64       `mapstructure:"overall_low_weight"`
	OverallMidW  float64       `mapstructure:"overall_mid_weight"`
	OverallHighW float64       `mapstructure:"overall_high_weight"`

	// Beat detection
	BeatThreshold  float64 `mapstructure:"beat_threshold"`
	BeatFilter     float64 `mapstructure:"beat_filter"`
	BeatHoldFrames int     `mapstructure:"beat_hold_frames"`

	// Ripples
	MaxRipples           int          `mapstructure:"max_ripples"`
	RippleLifespan       float64      `mapstructure:"ripple_lifespan"`
	RippleSpeedDecay     float64      `mapstructure:"ripple_speed_decay"`
	RippleJitter         float64      `mapstructure:"ripple_jitter"`
	RippleOpacityEpsilon float64      `mapstructure:"ripple_opacity_epsilon"`
	RippleMaxSizeRatio   float64      `mapstructure:"ripple_max_size_ratio"`
	RippleStartFactor    float64      `mapstructure:"ripple_start_factor"`
	HeartbeatChance      float64      `mapstructure:"heartbeat_chance"`
	AccentCount          int          `mapstructure:"accent_count"`
	AccentThreshold      byte         `mapstructure:"accent_threshold"`
	Low                  RippleTuning `mapstructure:"low"`
	Mid                  RippleTuning `mapstructure:"mid"`
	High                 RippleTuning `mapstructure:"high"`
	Heartbeat            RippleTuning `mapstructure:"heartbeat"`

	// Core pulse, as ratios of the smaller canvas dimension
	CoreMinRatio     float64 `mapstructure:"core_min_ratio"`
	CoreMaxRatio     float64 `mapstructure:"core_max_ratio"`
	CorePlayingHz    float64 `mapstructure:"core_playing_hz"`
	CoreIdleHz       float64 `mapstructure:"core_idle_hz"`
	GlowSmoothing    float64 `mapstructure:"glow_smoothing"`
	CompactScale     float64 `mapstructure:"compact_scale"`
	TrailAlpha       uint8   `mapstructure:"trail_alpha"`
	CloudCount       int     `mapstructure:"cloud_count"`
	CloudDriftPerSec float64 `mapstructure:"cloud_drift_per_sec"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:   512,
		Smoothing: 0.6,

		Partition:    PartitionIndex,
		MinHz:        20,
		LowMaxHz:     250,
		MidMaxHz:     2000,
		HighMaxHz:    10000,
		IdleLow:      0.06,
		IdleMid:      0.04,
		IdleHigh:     0.03,
		OverallLowW:  0.5,
		OverallMidW:  0.3,
		OverallHighW: 0.2,

		BeatThreshold:  0.15,
		BeatFilter:     0.8,
		BeatHoldFrames: 40,

		MaxRipples:           8,
		RippleLifespan:       150,
		RippleSpeedDecay:     0.985,
		RippleJitter:         0.3,
		RippleOpacityEpsilon: 0.01,
		RippleMaxSizeRatio:   0.5,
		RippleStartFactor:    1.1,
		HeartbeatChance:      0.01,
		AccentCount:          12,
		AccentThreshold:      170,
		Low:                  RippleTuning{Speed: 1.6, Opacity: 0.8, Thickness: 4, SizeFactor: 1.2, CooldownMs: 100},
		Mid:                  RippleTuning{Speed: 2.2, Opacity: 0.6, Thickness: 2.5, SizeFactor: 1.0, CooldownMs: 150},
		High:                 RippleTuning{Speed: 3.0, Opacity: 0.45, Thickness: 1.5, SizeFactor: 0.8, CooldownMs: 50},
		Heartbeat:            RippleTuning{Speed: 1.0, Opacity: 0.35, Thickness: 6, SizeFactor: 1.4, CooldownMs: 1200},

		CoreMinRatio:     0.08,
		CoreMaxRatio:     0.16,
		CorePlayingHz:    5,
		CoreIdleHz:       1.25,
		GlowSmoothing:    0.8,
		CompactScale:     0.7,
		TrailAlpha:       70,
		CloudCount:       6,
		CloudDriftPerSec: 0.02,
	}
}

// Tuning returns the base values for a ripple kind.
func (c Config) Tuning(kind RippleKind) RippleTuning {
	switch kind {
	case RippleMid:
		return c.Mid
	case RippleHigh:
		return c.High
	case RippleHeartbeat:
		return c.Heartbeat
	default:
		return c.Low
	}
}

// Validate checks ranges that would otherwise break the math of the engine.
func (c Config) Validate() error {
	if c.FFTSize < 256 || bits.OnesCount(uint(c.FFTSize)) != 1 {
		return domain.NewValidationError("fft_size", c.FFTSize, "must be a power of two >= 256")
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return domain.NewValidationError("smoothing", c.Smoothing, "must be in [0,1)")
	}
	if c.Partition != PartitionIndex && c.Partition != PartitionHz {
		return domain.NewValidationError("partition", c.Partition, "must be index or hz")
	}
	if c.BeatThreshold <= 0 || c.BeatThreshold >= 1 {
		return domain.NewValidationError("beat_threshold", c.BeatThreshold, "must be in (0,1)")
	}
	if c.BeatFilter <= 0 || c.BeatFilter >= 1 {
		return domain.NewValidationError("beat_filter", c.BeatFilter, "must be in (0,1)")
	}
	if c.BeatHoldFrames < 0 {
		return domain.NewValidationError("beat_hold_frames", c.BeatHoldFrames, "must not be negative")
	}
	if c.MaxRipples < 1 {
		return domain.NewValidationError("max_ripples", c.MaxRipples, "must be at least 1")
	}
	if c.RippleSpeedDecay <= 0 || c.RippleSpeedDecay >= 1 {
		return domain.NewValidationError("ripple_speed_decay", c.RippleSpeedDecay, "must be in (0,1)")
	}
	if c.RippleJitter < 0 || c.RippleJitter >= 1 {
		return domain.NewValidationError("ripple_jitter", c.RippleJitter, "must be in [0,1)")
	}
	if c.CoreMinRatio <= 0 || c.CoreMaxRatio < c.CoreMinRatio {
		return domain.NewValidationError("core_max_ratio", c.CoreMaxRatio, "must be >= core_min_ratio > 0")
	}
	if c.GlowSmoothing < 0 || c.GlowSmoothing >= 1 {
		return domain.NewValidationError("glow_smoothing", c.GlowSmoothing, "must be in [0,1)")
	}
	return nil
}
