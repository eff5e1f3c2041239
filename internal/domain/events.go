// Package domain defines events for the event-driven architecture.
// Events let hosts observe playback and engine state without callbacks into the engine.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventSourceChanged  EventType = "playback.source_changed"
	EventMediaLoaded    EventType = "playback.loaded"
	EventPlaybackStart  EventType = "playback.started"
	EventPlaybackPause  EventType = "playback.paused"
	EventPlaybackEnded  EventType = "playback.ended"
	EventPlaybackTime   EventType = "playback.progress"
	EventPlaybackFailed EventType = "playback.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"

	// Engine events
	EventGraphDegraded     EventType = "graph.degraded"
	EventVisibilityChanged EventType = "lifecycle.visibility"
	EventBeat              EventType = "engine.beat"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SourceChangedEvent is published when a new media source replaces the previous one.
type SourceChangedEvent struct {
	baseEvent
	Source MediaSource
}

// Type returns the event type.
func (e SourceChangedEvent) Type() EventType {
	return EventSourceChanged
}

// NewSourceChangedEvent creates a new SourceChangedEvent.
func NewSourceChangedEvent(source MediaSource) SourceChangedEvent {
	return SourceChangedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
	}
}

// MediaLoadedEvent is published once the media element knows the duration.
type MediaLoadedEvent struct {
	baseEvent
	Source   MediaSource
	Duration time.Duration
}

// Type returns the event type.
func (e MediaLoadedEvent) Type() EventType {
	return EventMediaLoaded
}

// NewMediaLoadedEvent creates a new MediaLoadedEvent.
func NewMediaLoadedEvent(source MediaSource, duration time.Duration) MediaLoadedEvent {
	return MediaLoadedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Duration:  duration,
	}
}

// PlaybackStartedEvent is published when playback starts.
type PlaybackStartedEvent struct {
	baseEvent
	Source   MediaSource
	Degraded bool
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStart
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(source MediaSource, degraded bool) PlaybackStartedEvent {
	return PlaybackStartedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Degraded:  degraded,
	}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPause
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(position time.Duration) PlaybackPausedEvent {
	return PlaybackPausedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// PlaybackEndedEvent is published when the media reaches its end.
type PlaybackEndedEvent struct {
	baseEvent
	Source MediaSource
}

// Type returns the event type.
func (e PlaybackEndedEvent) Type() EventType {
	return EventPlaybackEnded
}

// NewPlaybackEndedEvent creates a new PlaybackEndedEvent.
func NewPlaybackEndedEvent(source MediaSource) PlaybackEndedEvent {
	return PlaybackEndedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
	}
}

// PlaybackProgressEvent is published at most once per throttle interval during playback.
type PlaybackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e PlaybackProgressEvent) Type() EventType {
	return EventPlaybackTime
}

// NewPlaybackProgressEvent creates a new PlaybackProgressEvent.
func NewPlaybackProgressEvent(position, duration time.Duration) PlaybackProgressEvent {
	return PlaybackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// PlaybackErrorEvent is published when a user-facing error is surfaced.
type PlaybackErrorEvent struct {
	baseEvent
	Error   error
	Message string
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackFailed
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
		Message:   UserMessage(err),
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// GraphDegradedEvent is published when the audio graph falls back to synthesized data.
type GraphDegradedEvent struct {
	baseEvent
	Reason error
}

// Type returns the event type.
func (e GraphDegradedEvent) Type() EventType {
	return EventGraphDegraded
}

// NewGraphDegradedEvent creates a new GraphDegradedEvent.
func NewGraphDegradedEvent(reason error) GraphDegradedEvent {
	return GraphDegradedEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}

// VisibilityChangedEvent is published when the host reports a visibility change.
type VisibilityChangedEvent struct {
	baseEvent
	Hidden bool
}

// Type returns the event type.
func (e VisibilityChangedEvent) Type() EventType {
	return EventVisibilityChanged
}

// NewVisibilityChangedEvent creates a new VisibilityChangedEvent.
func NewVisibilityChangedEvent(hidden bool) VisibilityChangedEvent {
	return VisibilityChangedEvent{
		baseEvent: newBaseEvent(),
		Hidden:    hidden,
	}
}

// BeatEvent is published for every frame with at least one beat onset.
type BeatEvent struct {
	baseEvent
	Flags       BeatFlags
	Intensities BandIntensities
}

// Type returns the event type.
func (e BeatEvent) Type() EventType {
	return EventBeat
}

// NewBeatEvent creates a new BeatEvent.
func NewBeatEvent(flags BeatFlags, intensities BandIntensities) BeatEvent {
	return BeatEvent{
		baseEvent:   newBaseEvent(),
		Flags:       flags,
		Intensities: intensities,
	}
}
