// Package eventbus provides the event bus and the serial loop used by the session.
package eventbus

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// ErrBusClosed is returned by Close when the bus was already closed.
var ErrBusClosed = errors.New("event bus already closed")

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Events are delivered to handlers synchronously in the order they were subscribed.
//
// Thread-safety: This implementation is thread-safe. Multiple goroutines can
// publish events and subscribe/unsubscribe handlers concurrently.
type SyncEventBus struct {
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	// mu protects subscribers, allSubscribers and closed
	mu     sync.RWMutex
	closed bool
}

// subscription represents a single event subscription.
type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger disables handler diagnostics.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	return &SyncEventBus{
		logger:      logger,
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// Publish publishes an event to all subscribers of that event type.
// Handlers are called synchronously in the order they subscribed.
//
// If the event bus is closed, this method does nothing.
// Panics in handlers are recovered and logged, but do not stop other handlers
// from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}

	// Snapshot so handlers may (un)subscribe while being called
	eventType := event.Type()
	typed := append([]subscription(nil), bus.subscribers[eventType]...)
	wildcard := append([]subscription(nil), bus.allSubscribers...)
	bus.mu.RUnlock()

	for _, sub := range typed {
		bus.callHandler(sub, event)
	}
	for _, sub := range wildcard {
		bus.callHandler(sub, event)
	}
}

// callHandler calls an event handler and recovers from panics.
func (bus *SyncEventBus) callHandler(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && bus.logger != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()

	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID that can be used to unsubscribe.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{
		id:      domain.SubscriptionID("sub-" + uuid.NewString()),
		handler: handler,
	}
	bus.subscribers[eventType] = append(bus.subscribers[eventType], sub)

	return sub.id
}

// Unsubscribe removes a previously registered event handler.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscribers {
		if i := indexOf(subs, id); i >= 0 {
			// Keep delivery order stable for the remaining handlers
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}

	if i := indexOf(bus.allSubscribers, id); i >= 0 {
		bus.allSubscribers = append(bus.allSubscribers[:i:i], bus.allSubscribers[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{
		id:      domain.SubscriptionID("sub-all-" + uuid.NewString()),
		handler: handler,
	}
	bus.allSubscribers = append(bus.allSubscribers, sub)

	return sub.id
}

// HasSubscribers returns true if there are any active subscriptions for the given event type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
//
// Returns ErrBusClosed if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrBusClosed
	}

	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil

	return nil
}

// SubscriberCount returns the number of active subscriptions for debugging.
// This counts both type-specific and wildcard subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
