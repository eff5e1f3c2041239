// Package ports define interfaces for dependency inversion.
// These interfaces keep the visualization engine independent of the audio backend and the UI toolkit.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// AudioPlatform creates audio contexts.
// It abstracts the underlying audio backend and allows for testing with mocks.
type AudioPlatform interface {
	// NewContext creates a new audio context in the suspended or running state.
	//
	// Returns an error if the backend cannot provide a context.
	NewContext() (AudioContext, error)
}

// AudioContext owns the nodes of one audio graph.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioContext interface {
	// State returns the current running state.
	State() domain.ContextState

	// SampleRate returns the sample rate in Hz.
	SampleRate() int

	// Resume starts audio processing. Resuming a running context is a no-op.
	Resume(ctx context.Context) error

	// Suspend pauses audio processing without releasing nodes.
	Suspend(ctx context.Context) error

	// Close releases the context. Closing a closed context returns domain.ErrContextClosed.
	Close() error

	// CreateAnalyser creates an analyser node.
	// fftSize must be a power of two >= 32, smoothing must be in [0,1).
	CreateAnalyser(fftSize int, smoothing float64) (AnalyserNode, error)

	// CreateMediaElementSource binds a source node to a media element.
	// An element can be bound to at most one source node; a second binding
	// returns domain.ErrSourceAlreadyConnected.
	CreateMediaElementSource(element MediaElement) (SourceNode, error)
}

// AnalyserNode exposes frequency-domain data of the signal flowing through it.
type AnalyserNode interface {
	// FrequencyBinCount returns half the FFT size.
	FrequencyBinCount() int

	// ByteFrequencyData fills dst with magnitudes scaled to 0-255.
	// dst should be FrequencyBinCount() long; extra entries are left untouched.
	ByteFrequencyData(dst []byte)

	// Disconnect detaches the node from its inputs and outputs.
	Disconnect()
}

// SourceNode feeds the audio of a media element into the graph.
type SourceNode interface {
	// Connect routes the source through the analyser to the output.
	Connect(analyser AnalyserNode) error

	// Disconnect detaches the source. The element stays bound to this node.
	Disconnect()
}

// MediaListener receives media element events.
type MediaListener func(event domain.MediaEvent)

// MediaElement is a playable audio element.
//
// Events are delivered to the listener from the element's own goroutine or,
// for mocks, synchronously from the triggering call.
type MediaElement interface {
	// SetSource replaces the media URL and starts loading it.
	// Loading completes asynchronously with MediaLoadedMetadata or MediaError.
	SetSource(url string)

	// Source returns the current URL.
	Source() string

	// Play starts playback. It blocks until playback has started or failed.
	Play(ctx context.Context) error

	// Pause pauses playback.
	Pause()

	// Paused returns true if the element is not playing.
	Paused() bool

	// Seek moves the playhead.
	Seek(position time.Duration) error

	// CurrentTime returns the playhead position.
	CurrentTime() time.Duration

	// Duration returns the media duration, zero until metadata has loaded.
	Duration() time.Duration

	// SetVolume sets the output volume (0.0 to 1.0).
	SetVolume(volume float64)

	// SetMuted mutes or unmutes the output without changing the volume.
	SetMuted(muted bool)

	// SetListener registers the single event listener. nil removes it.
	SetListener(listener MediaListener)

	// Close releases decoding and output resources.
	Close() error
}

// TaggedElement is implemented by media elements that can read a display
// title from the tags of the loaded media.
type TaggedElement interface {
	// Title returns the embedded title, empty if unknown.
	Title() string
}
