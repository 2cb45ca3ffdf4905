package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// TransportControls are the playback commands external controllers can send
// (lock screen, media keys, Bluetooth, notification buttons, UI).
type TransportControls interface {
	Play() error
	Pause() error
	Stop() error
	SkipToNext() error
	SkipToPrevious() error
	SeekTo(position time.Duration) error
	PlayFromMediaID(mediaID string) error
}

// MediaBrowser answers hierarchical browse queries with a flat list of
// playable items under domain.RootID.
type MediaBrowser interface {
	// Root returns the well-known root identifier.
	Root() string

	// LoadChildren returns a future resolved exactly once with the children of parentID.
	LoadChildren(parentID string) *domain.Future[[]domain.MediaItem]
}

// Session is the full surface of the session coordinator seen by controllers.
type Session interface {
	TransportControls
	MediaBrowser

	// State returns a snapshot of the session.
	State() (domain.SessionState, error)
}
