// Package localstore builds the song catalog from a directory of audio files.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Extensions the playback engines can decode.
var audioFormats = []string{".mp3", ".flac", ".wav", ".ogg"}

// Cover images looked up next to the audio files, in order.
var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

// isAudioFile checks the extension against the decodable formats.
func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range audioFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// Store implements ports.SongStore over a local directory tree.
// Songs are returned in lexical path order; the media id is the path
// relative to the root, with forward slashes.
type Store struct {
	logger *slog.Logger
	root   string
}

// New creates a store rooted at dir.
func New(logger *slog.Logger, dir string) *Store {
	return &Store{
		logger: logger.With(slog.String("store", "local")),
		root:   dir,
	}
}

// Name implements ports.SongStore.
func (s *Store) Name() string { return "local" }

// FetchAll implements ports.SongStore.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Song, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("resolve music directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("music directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("music directory %s is not a directory", root)
	}

	covers := make(map[string]string)
	songs := []domain.Song{}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isAudioFile(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		song := s.readSong(path)
		song.ID = filepath.ToSlash(rel)
		song.ArtworkURI = coverFor(covers, filepath.Dir(path))
		songs = append(songs, song)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	s.logger.Debug("directory scanned", slog.String("root", root), slog.Int("songs", len(songs)))
	return songs, nil
}

// readSong extracts title and artist, falling back to the file name when
// the file carries no readable tags.
func (s *Store) readSong(path string) domain.Song {
	song := domain.Song{
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MediaURI: fileURI(path),
	}

	file, err := os.Open(path)
	if err != nil {
		s.logger.Warn("cannot open audio file", slog.String("path", path), slog.Any("error", err))
		return song
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		if !errors.Is(err, tag.ErrNoTagsFound) {
			s.logger.Debug("tag read failed", slog.String("path", path), slog.Any("error", err))
		}
		return song
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		song.Title = title
	}
	artist := strings.TrimSpace(metadata.Artist())
	if artist == "" {
		artist = strings.TrimSpace(metadata.AlbumArtist())
	}
	song.Artist = artist
	return song
}

// coverFor returns the cover image URI for dir, caching the lookup.
func coverFor(cache map[string]string, dir string) string {
	if uri, ok := cache[dir]; ok {
		return uri
	}
	uri := ""
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			uri = fileURI(p)
			break
		}
	}
	cache[dir] = uri
	return uri
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

var _ ports.SongStore = (*Store)(nil)
