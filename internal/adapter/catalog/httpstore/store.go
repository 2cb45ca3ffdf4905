// Package httpstore fetches the song catalog from a remote JSON endpoint.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/document"
	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// maxBodySize caps the collection body read from the endpoint.
const maxBodySize = 16 << 20

// Store implements ports.SongStore over HTTP GET.
type Store struct {
	logger *slog.Logger
	client *http.Client
	url    string
}

// New creates a store reading the collection at url.
// A nil client uses http.DefaultClient.
func New(logger *slog.Logger, client *http.Client, url string) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{
		logger: logger.With(slog.String("store", "http")),
		client: client,
		url:    url,
	}
}

// Name implements ports.SongStore.
func (s *Store) Name() string { return "http" }

// FetchAll implements ports.SongStore.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Song, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", s.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("collection exceeds %s", humanize.IBytes(maxBodySize))
	}

	docs, err := document.DecodeCollection(body)
	if err != nil {
		return nil, err
	}

	songs := make([]domain.Song, 0, len(docs))
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			s.logger.Warn("skipping document", slog.Any("error", err))
			continue
		}
		songs = append(songs, d.ToSong())
	}

	s.logger.Debug("collection fetched",
		slog.Int("documents", len(docs)),
		slog.Int("songs", len(songs)),
		slog.String("size", humanize.IBytes(uint64(len(body)))),
	)
	return songs, nil
}

var _ ports.SongStore = (*Store)(nil)
