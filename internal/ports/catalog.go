package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// SongStore is the remote catalog collaborator.
// It exposes a single operation: fetch every song document.
//
// Thread-safety: Implementations must be thread-safe.
type SongStore interface {
	// FetchAll returns every song in store order.
	// There is no pagination and no incremental sync.
	//
	// Returns an error if the store is unreachable or the documents cannot be decoded.
	// Implementations never return a partial result together with a nil error.
	// They must return promptly once ctx is cancelled; a session being closed
	// stops waiting for fetches that do not.
	FetchAll(ctx context.Context) ([]domain.Song, error)

	// Name identifies the backend in logs and errors (e.g., "http", "sqlite").
	Name() string
}
