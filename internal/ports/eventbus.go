package ports

import (
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// EventBus carries engine notifications to whoever hosts the visualizer.
// The playback controller reports source, transport and volume changes, the
// graph manager reports degraded analysis, and the session reports beats and
// visibility. Safe for concurrent use.
type EventBus interface {
	// Publish hands event to typed subscribers, then to SubscribeAll
	// handlers. Beat events are published once per frame, so handlers
	// must not block.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type. Registering the same
	// handler twice delivers twice.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown ids are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether publishing eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions.
	Close() error
}

// EventFilter reports whether a subscriber wants event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus is an EventBus with per-subscription filters, e.g. a
// handler that only cares about low band onsets.
type FilteringEventBus interface {
	EventBus

	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
