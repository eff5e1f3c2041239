// Package domain defines domain-specific errors.
// These errors represent engine and playback failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrSourceAlreadyConnected is returned by a platform when a media element
	// already has a source node bound to it.
	ErrSourceAlreadyConnected = errors.New("media element already connected to a source node")

	// ErrContextClosed is returned when an operation targets a closed audio context.
	ErrContextClosed = errors.New("audio context closed")

	// ErrNoSource is returned when playback is attempted without a media source.
	ErrNoSource = errors.New("no media source set")

	// ErrNotLoaded is returned when an operation requires loaded metadata.
	ErrNotLoaded = errors.New("media not loaded")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidSeek is returned when seeking to an invalid position.
	ErrInvalidSeek = errors.New("invalid seek target")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSessionDisposed is returned when a disposed session is used.
	ErrSessionDisposed = errors.New("visualizer session disposed")

	// ErrAutoplayBlocked is returned by media elements that refuse to start.
	ErrAutoplayBlocked = errors.New("playback blocked")

	// ErrUnsupportedFormat is returned when a media file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// GraphSetupError is returned when the audio graph cannot be built.
// It is recovered locally by degraded mode wherever playback can still proceed.
type GraphSetupError struct {
	Op      string // Operation that failed (e.g., "context", "analyser", "source")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *GraphSetupError) Error() string {
	return fmt.Sprintf("audio graph %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *GraphSetupError) Unwrap() error {
	return e.Err
}

// NewGraphSetupError creates a new GraphSetupError.
func NewGraphSetupError(op, message string, err error) *GraphSetupError {
	return &GraphSetupError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// PlaybackError represents a rejected play or pause request.
type PlaybackError struct {
	Op      string // "play" or "pause"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError creates a new PlaybackError.
func NewPlaybackError(op, message string, err error) *PlaybackError {
	return &PlaybackError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// LoadError represents a media element failing to load its source.
type LoadError struct {
	URL     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load '%s': %s", e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError.
func NewLoadError(url, message string, err error) *LoadError {
	return &LoadError{
		URL:     url,
		Message: message,
		Err:     err,
	}
}

// RenderFrameError describes a fault while drawing a single element of a frame.
// It never stops the render loop.
type RenderFrameError struct {
	Element string // "ripple", "core", "background"
	Index   int    // Particle index, -1 when not applicable
	Message string
}

// Error implements the error interface.
func (e *RenderFrameError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("render %s[%d] failed: %s", e.Element, e.Index, e.Message)
	}
	return fmt.Sprintf("render %s failed: %s", e.Element, e.Message)
}

// NewRenderFrameError creates a new RenderFrameError.
func NewRenderFrameError(element string, index int, message string) *RenderFrameError {
	return &RenderFrameError{
		Element: element,
		Index:   index,
		Message: message,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap ties every validation error to ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// UserMessage returns the text a host should display for a surfaced error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return "Unable to load audio. Please check the file and try again."
	}

	var playErr *PlaybackError
	if errors.As(err, &playErr) {
		if errors.Is(err, ErrAutoplayBlocked) {
			return "Playback was blocked. Press play to start audio."
		}
		return "Unable to play audio."
	}

	return err.Error()
}
