// Package ports define interfaces for dependency inversion.
// These interfaces allow the core session logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// PlaybackEngine is the interface for media playback engines.
// This abstracts the underlying decoder/output library and allows for testing with mocks.
//
// State changes are not returned from the commands; they are published as
// domain.PlaybackStateChangedEvent on the event bus the engine was built with.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type PlaybackEngine interface {
	// Prepare replaces the engine queue and positions it at startIndex.
	// The item is fetched and decoded asynchronously; playback starts once it
	// is ready if play-when-ready is set.
	//
	// Returns domain.ErrInvalidIndex if startIndex is out of range.
	Prepare(queue []domain.Song, startIndex int) error

	// SetPlayWhenReady starts (true) or pauses (false) playback of the prepared item.
	SetPlayWhenReady(playWhenReady bool) error

	// Seek moves within the current item.
	// Range checking is the engine's responsibility.
	Seek(position time.Duration) error

	// Next moves to the next queue item. At the last item it does nothing.
	Next() error

	// Previous restarts the current item or moves to the previous one.
	Previous() error

	// Stop stops playback and drops the prepared item. The queue is kept.
	Stop() error

	// Release stops playback, detaches listeners and frees decoder resources.
	// The engine must not be used afterwards.
	Release() error

	// State returns a snapshot of the current playback state.
	State() domain.PlaybackState
}

// PlaybackEngineConfig contains configuration for creating a playback engine.
type PlaybackEngineConfig struct {
	// SampleRate is the output sample rate in Hz
	SampleRate int

	// BufferDuration is the output buffer length
	BufferDuration time.Duration
}
