// Package domain contains core visualization and playback models with no external dependencies.
// This package defines the fundamental entities of the wavepulse engine.
package domain

import (
	"time"
)

// Band identifies a coarse slice of the frequency spectrum.
type Band int

const (
	// BandLow covers bass frequencies
	BandLow Band = iota

	// BandMid covers the mid range
	BandMid

	// BandHigh covers treble frequencies
	BandHigh
)

// Bands lists the analysed bands in spectrum order.
var Bands = [...]Band{BandLow, BandMid, BandHigh}

// String returns a human-readable representation of the band.
func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return "unknown"
	}
}

// BandIntensities is a per-frame snapshot of normalized band energy.
// Every field is in [0,1].
type BandIntensities struct {
	Low     float64
	Mid     float64
	High    float64
	Overall float64
}

// Get returns the intensity of a single band.
func (b BandIntensities) Get(band Band) float64 {
	switch band {
	case BandLow:
		return b.Low
	case BandMid:
		return b.Mid
	case BandHigh:
		return b.High
	default:
		return 0
	}
}

// BeatFlags reports which bands are in a beat for the current frame.
//
// Active stays true for the configured hold frames after a detection,
// Onset is true only on the frame the beat was detected.
type BeatFlags struct {
	Active [3]bool
	Onset  [3]bool
}

// Any returns true if any band registered an onset this frame.
func (f BeatFlags) Any() bool {
	return f.Onset[BandLow] || f.Onset[BandMid] || f.Onset[BandHigh]
}

// Theme selects the background treatment of the compositor.
type Theme string

const (
	// ThemeDark draws on a dark vignette
	ThemeDark Theme = "dark"

	// ThemeLight draws on a light sky with a drifting cloud layer
	ThemeLight Theme = "light"
)

// ParseTheme returns the theme for a name, defaulting to dark.
func ParseTheme(name string) Theme {
	if Theme(name) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// MediaSource describes what the hosting UI asked the visualizer to play.
type MediaSource struct {
	// URL is handed to the media element untouched
	URL string

	// Title is the optional display title
	Title string

	// Preview renders a reduced visualization for preview cards
	Preview bool

	// Compact shrinks the core and ripple sizes for small hosts
	Compact bool

	// ShowTitle asks the host to display Title
	ShowTitle bool
}

// PlaybackState is owned by the playback controller and read by hosts.
type PlaybackState struct {
	// Source is the currently assigned media source
	Source MediaSource

	// IsPlaying is the user's playing intent. It stays true while the
	// tab is hidden so playback can resume when it becomes visible.
	IsPlaying bool

	// Volume is the current volume level (0.0 to 1.0)
	Volume float64

	// IsMuted indicates if audio is muted
	IsMuted bool

	// Duration is the total length reported by the media element
	Duration time.Duration

	// CurrentTime is the last reported playback position
	CurrentTime time.Duration

	// IsLoaded is set once metadata for the source has loaded
	IsLoaded bool

	// LastError is the single user-facing error, cleared on the next success
	LastError error
}

// ContextState mirrors the running state of an audio context.
type ContextState int

const (
	// ContextSuspended indicates the context is alive but not processing
	ContextSuspended ContextState = iota

	// ContextRunning indicates the context is processing audio
	ContextRunning

	// ContextClosed indicates the context has been released
	ContextClosed
)

// String returns a human-readable representation of the context state.
func (s ContextState) String() string {
	switch s {
	case ContextSuspended:
		return "suspended"
	case ContextRunning:
		return "running"
	case ContextClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MediaEventType identifies events raised by a media element.
type MediaEventType int

const (
	// MediaLoadedMetadata fires once duration is known
	MediaLoadedMetadata MediaEventType = iota

	// MediaTimeUpdate fires while the playhead advances
	MediaTimeUpdate

	// MediaEnded fires when playback reaches the end
	MediaEnded

	// MediaError fires when the source cannot be loaded or decoded
	MediaError
)

// MediaEvent is delivered by a media element to its listener.
type MediaEvent struct {
	Type        MediaEventType
	Duration    time.Duration
	CurrentTime time.Duration
	Err         error
}
