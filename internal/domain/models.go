// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunestream session daemon.
package domain

import (
	"time"
)

// RootID is the identifier of the single browsable collection.
// Every playable item of the catalog is a direct child of this root.
const RootID = "root_id"

// Song represents a single playable entry of the remote catalog.
// Songs are immutable once fetched and are replaced wholesale on refresh.
type Song struct {
	// ID is the unique catalog identifier (the document's media id)
	ID string

	// Title is the song title
	Title string

	// Artist is the performing artist, shown as the subtitle
	Artist string

	// MediaURI points at the playable audio (http(s):// or file://)
	MediaURI string

	// ArtworkURI points at the cover image
	ArtworkURI string
}

// MediaItem describes a playable item as rendered to browse clients.
type MediaItem struct {
	MediaID  string
	Title    string
	Subtitle string
	MediaURI string
	IconURI  string
	Playable bool
}

// AsMediaItem renders the song as a playable item descriptor.
func (s Song) AsMediaItem() MediaItem {
	return MediaItem{
		MediaID:  s.ID,
		Title:    s.Title,
		Subtitle: s.Artist,
		MediaURI: s.MediaURI,
		IconURI:  s.ArtworkURI,
		Playable: true,
	}
}

// SongFromMediaItem maps a browse descriptor back to a song.
func SongFromMediaItem(item MediaItem) Song {
	return Song{
		ID:         item.MediaID,
		Title:      item.Title,
		Artist:     item.Subtitle,
		MediaURI:   item.MediaURI,
		ArtworkURI: item.IconURI,
	}
}

// Queue is an ordered, immutable sequence of songs in catalog fetch order.
// The zero value is an empty queue.
type Queue struct {
	songs []Song
	index map[string]int
}

// NewQueue builds a queue from a fetch result.
// Duplicate identifiers are kept as returned; lookups resolve to the first occurrence.
func NewQueue(songs []Song) Queue {
	q := Queue{
		songs: make([]Song, len(songs)),
		index: make(map[string]int, len(songs)),
	}
	copy(q.songs, songs)
	for i, s := range q.songs {
		if _, seen := q.index[s.ID]; !seen {
			q.index[s.ID] = i
		}
	}
	return q
}

// Len returns the number of songs in the queue.
func (q Queue) Len() int {
	return len(q.songs)
}

// IsEmpty reports whether the queue has no songs.
func (q Queue) IsEmpty() bool {
	return len(q.songs) == 0
}

// At returns the song at index i. It panics if i is out of range.
func (q Queue) At(i int) Song {
	return q.songs[i]
}

// IndexOf returns the position of the first song with the given id.
func (q Queue) IndexOf(id string) (int, bool) {
	i, ok := q.index[id]
	return i, ok
}

// Find returns the first song with the given id.
func (q Queue) Find(id string) (Song, bool) {
	i, ok := q.index[id]
	if !ok {
		return Song{}, false
	}
	return q.songs[i], true
}

// Songs returns a copy of the queue contents.
func (q Queue) Songs() []Song {
	out := make([]Song, len(q.songs))
	copy(out, q.songs)
	return out
}

// MediaItems renders every song of the queue as a playable item.
func (q Queue) MediaItems() []MediaItem {
	items := make([]MediaItem, len(q.songs))
	for i, s := range q.songs {
		items[i] = s.AsMediaItem()
	}
	return items
}

// Readiness describes whether the queue has been populated.
type Readiness int

const (
	// ReadinessNotReady means the first catalog refresh has not completed
	ReadinessNotReady Readiness = iota

	// ReadinessReady means the queue is fully populated
	ReadinessReady

	// ReadinessFailed means the catalog could not be fetched
	ReadinessFailed
)

// Decided reports whether the readiness has left the not-ready state.
func (r Readiness) Decided() bool {
	return r != ReadinessNotReady
}

// String returns a human-readable representation of the readiness.
func (r Readiness) String() string {
	switch r {
	case ReadinessNotReady:
		return "not-ready"
	case ReadinessReady:
		return "ready"
	case ReadinessFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlaybackStatus represents the engine playback status.
type PlaybackStatus int

const (
	// StatusIdle indicates nothing has been prepared
	StatusIdle PlaybackStatus = iota

	// StatusBuffering indicates the current item is being fetched or decoded
	StatusBuffering

	// StatusPlaying indicates audio is being output
	StatusPlaying

	// StatusPaused indicates the item is ready but play-when-ready is off
	StatusPaused

	// StatusStopped indicates playback ended or was stopped
	StatusStopped

	// StatusError indicates the engine failed to decode or fetch the item
	StatusError
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBuffering:
		return "buffering"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PlaybackState is a snapshot of the engine state.
// It is owned by the playback engine; the session only reads it.
type PlaybackState struct {
	// Status is the current playback status
	Status PlaybackStatus

	// Index is the engine's position in the prepared queue (-1 if nothing prepared)
	Index int

	// Position is the playback position within the current item
	Position time.Duration

	// Duration is the total length of the current item (0 if unknown)
	Duration time.Duration

	// PlayWhenReady indicates playback starts as soon as the item is ready
	PlayWhenReady bool

	// Err holds the last engine error when Status is StatusError
	Err error
}

// IsPlaying reports whether audio is being output or about to be.
func (s PlaybackState) IsPlaying() bool {
	return s.Status == StatusPlaying ||
		(s.Status == StatusBuffering && s.PlayWhenReady)
}

// IsPlayEnabled reports whether a play command would start playback.
func (s PlaybackState) IsPlayEnabled() bool {
	return s.Status == StatusPaused ||
		(s.Status == StatusBuffering && !s.PlayWhenReady)
}

// IsPrepared reports whether the engine holds a prepared item.
func (s PlaybackState) IsPrepared() bool {
	return s.Status == StatusBuffering ||
		s.Status == StatusPlaying ||
		s.Status == StatusPaused
}

// SessionState is a snapshot of the session coordinator.
type SessionState struct {
	Readiness Readiness
	Queue     []Song
	Current   *Song
	Prepared  bool
	Playback  PlaybackState
}
