// Package ports define the EventBus interface for event-driven communication.
// The event bus replaces listener registration on the engine and the session.
package ports

import (
	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The engine publishes playback state, the session publishes queue, selection
// and network-error events, and observers (foreground presentation, the
// connection handle, the MPRIS adapter) subscribe without knowing the publishers.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In the engine: Publish a state change
//	bus.Publish(domain.NewPlaybackStateChangedEvent(state))
//
//	// In an observer: Subscribe to state changes
//	subID := bus.Subscribe(domain.EventPlaybackStateChanged, func(event domain.Event) {
//	    e := event.(domain.PlaybackStateChangedEvent)
//	    render(e.State)
//	})
//
//	// Later: Unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of that event type.
	//
	// Handlers run on the publisher's goroutine and must return quickly; work that
	// touches session state is posted to the session loop instead.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	// This is useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	// After calling Close, published events are dropped.
	Close() error
}

// Executor runs functions one at a time on a single goroutine.
// All session state is mutated from the executor, so it needs no locking.
type Executor interface {
	// Post schedules fn and returns immediately. It never blocks.
	// Returns false if the executor is closed.
	Post(fn func()) bool

	// Do runs fn on the executor and waits for it to return.
	// It must not be called from the executor's own goroutine.
	//
	// Returns domain.ErrSessionClosed if the executor is closed.
	Do(fn func()) error

	// Close stops the executor after draining already-posted functions.
	Close()
}
