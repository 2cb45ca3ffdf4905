// Package document holds the wire form of a catalog song document shared by
// the HTTP and SQLite stores.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// Song is a catalog document. Field names follow the remote collection.
type Song struct {
	MediaID  string `json:"mediaId"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	SongURL  string `json:"songUrl"`
	ImageURL string `json:"imageUrl"`
}

// FromSong converts a domain song to its document form.
func FromSong(s domain.Song) Song {
	return Song{
		MediaID:  s.ID,
		Title:    s.Title,
		Subtitle: s.Artist,
		SongURL:  s.MediaURI,
		ImageURL: s.ArtworkURI,
	}
}

// ToSong converts the document to a domain song.
func (d Song) ToSong() domain.Song {
	return domain.Song{
		ID:         d.MediaID,
		Title:      d.Title,
		Artist:     d.Subtitle,
		MediaURI:   d.SongURL,
		ArtworkURI: d.ImageURL,
	}
}

// Validate reports documents that cannot be played or addressed.
func (d Song) Validate() error {
	if d.MediaID == "" {
		return fmt.Errorf("document %q: missing mediaId", d.Title)
	}
	if d.SongURL == "" {
		return fmt.Errorf("document %q: missing songUrl", d.MediaID)
	}
	return nil
}

// Decode parses one JSON document.
func Decode(data []byte) (Song, error) {
	var d Song
	if err := json.Unmarshal(data, &d); err != nil {
		return Song{}, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}

// DecodeCollection parses a collection body. Both a bare JSON array and an
// object of the form {"documents": [...]} are accepted.
func DecodeCollection(data []byte) ([]Song, error) {
	var docs []Song
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var wrapped struct {
		Documents []Song `json:"documents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if wrapped.Documents == nil {
		return nil, fmt.Errorf("decode collection: no documents field")
	}
	return wrapped.Documents, nil
}

// Encode renders the document as JSON.
func (d Song) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document %q: %w", d.MediaID, err)
	}
	return data, nil
}
