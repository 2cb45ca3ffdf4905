// Package domain defines events for the event-driven architecture.
// Events decouple the engine, the session and its observers.
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
	// Catalog events
	EventCatalogRefreshed EventType = "catalog.refreshed"
	EventCatalogFailed    EventType = "catalog.failed"

	// Playback engine events
	EventPlaybackStateChanged EventType = "playback.state_changed"
	EventPlaybackError        EventType = "playback.error"

	// Session events
	EventQueueChanged     EventType = "session.queue_changed"
	EventSelectionChanged EventType = "session.selection_changed"
	EventNetworkError     EventType = "session.network_error"

	// Presentation events
	EventForegroundChanged EventType = "presentation.foreground_changed"
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

// CatalogRefreshedEvent is published when a catalog fetch succeeds.
type CatalogRefreshedEvent struct {
	baseEvent
	Songs int
}

// Type returns the event type.
func (e CatalogRefreshedEvent) Type() EventType {
	return EventCatalogRefreshed
}

// NewCatalogRefreshedEvent creates a new CatalogRefreshedEvent.
func NewCatalogRefreshedEvent(songs int) CatalogRefreshedEvent {
	return CatalogRefreshedEvent{
		baseEvent: newBaseEvent(),
		Songs:     songs,
	}
}

// CatalogFailedEvent is published when a catalog fetch fails.
type CatalogFailedEvent struct {
	baseEvent
	Error error
}

// Type returns the event type.
func (e CatalogFailedEvent) Type() EventType {
	return EventCatalogFailed
}

// NewCatalogFailedEvent creates a new CatalogFailedEvent.
func NewCatalogFailedEvent(err error) CatalogFailedEvent {
	return CatalogFailedEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
	}
}

// PlaybackStateChangedEvent is published by the engine on every state transition.
type PlaybackStateChangedEvent struct {
	baseEvent
	State PlaybackState
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventPlaybackStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(state PlaybackState) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
	}
}

// PlaybackErrorEvent is published when the engine fails to decode or fetch an item.
type PlaybackErrorEvent struct {
	baseEvent
	Index int
	Error error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(index int, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Index:     index,
		Error:     err,
	}
}

// QueueChangedEvent is published when the session replaces its queue.
type QueueChangedEvent struct {
	baseEvent
	Queue []Song
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Song) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Queue:     queue,
	}
}

// SelectionChangedEvent is published when the current selection changes.
// Song is nil when the selection was cleared.
type SelectionChangedEvent struct {
	baseEvent
	Song  *Song
	Index int
}

// Type returns the event type.
func (e SelectionChangedEvent) Type() EventType {
	return EventSelectionChanged
}

// NewSelectionChangedEvent creates a new SelectionChangedEvent.
func NewSelectionChangedEvent(song *Song, index int) SelectionChangedEvent {
	return SelectionChangedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
		Index:     index,
	}
}

// NetworkErrorEvent is the session-level event raised when a browse query
// meets a catalog that could not be fetched.
type NetworkErrorEvent struct {
	baseEvent
	Error error
}

// Type returns the event type.
func (e NetworkErrorEvent) Type() EventType {
	return EventNetworkError
}

// NewNetworkErrorEvent creates a new NetworkErrorEvent.
func NewNetworkErrorEvent(err error) NetworkErrorEvent {
	return NetworkErrorEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
	}
}

// ForegroundChangedEvent is published when the process is promoted to or demoted from foreground.
type ForegroundChangedEvent struct {
	baseEvent
	Foreground bool
}

// Type returns the event type.
func (e ForegroundChangedEvent) Type() EventType {
	return EventForegroundChanged
}

// NewForegroundChangedEvent creates a new ForegroundChangedEvent.
func NewForegroundChangedEvent(foreground bool) ForegroundChangedEvent {
	return ForegroundChangedEvent{
		baseEvent:  newBaseEvent(),
		Foreground: foreground,
	}
}
