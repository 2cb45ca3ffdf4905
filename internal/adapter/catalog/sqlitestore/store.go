// Package sqlitestore keeps the song catalog as a document collection in SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/document"
	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

const (
	appName    = "tunestream"
	dbFileName = "catalog.db"
)

// Documents are kept as JSON text; seq preserves insertion order and is not
// reassigned when a document is replaced.
const schema = `
	CREATE TABLE IF NOT EXISTS songs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		media_id TEXT NOT NULL UNIQUE,
		doc TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (unixepoch())
	);
`

// DefaultPath returns the catalog database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Store implements ports.SongStore over a SQLite database.
type Store struct {
	logger *slog.Logger
	db     *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(logger *slog.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	s, err := New(logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and ensures the schema exists.
func New(logger *slog.Logger, db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Store{
		logger: logger.With(slog.String("store", "sqlite")),
		db:     db,
	}, nil
}

// Name implements ports.SongStore.
func (s *Store) Name() string { return "sqlite" }

// FetchAll implements ports.SongStore. Songs come back in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Song, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM songs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		doc, err := document.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		songs = append(songs, doc.ToSong())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}

	if songs == nil {
		songs = []domain.Song{}
	}
	return songs, nil
}

// Put inserts or replaces songs in one transaction. A replaced song keeps
// its original position.
func (s *Store) Put(ctx context.Context, songs ...domain.Song) error {
	docs := make([]document.Song, len(songs))
	for i, song := range songs {
		docs[i] = document.FromSong(song)
		if err := docs[i].Validate(); err != nil {
			return err
		}
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO songs (media_id, doc) VALUES (?, ?)
			ON CONFLICT(media_id) DO UPDATE SET doc = excluded.doc, updated_at = unixepoch()
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, d := range docs {
			raw, err := d.Encode()
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, d.MediaID, string(raw)); err != nil {
				return fmt.Errorf("put %q: %w", d.MediaID, err)
			}
		}
		return nil
	})
}

// Import reads a JSON collection (the same shape the HTTP endpoint serves)
// and puts every valid document. It returns the number stored.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read collection: %w", err)
	}
	docs, err := document.DecodeCollection(data)
	if err != nil {
		return 0, err
	}

	songs := make([]domain.Song, 0, len(docs))
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			s.logger.Warn("skipping document", slog.Any("error", err))
			continue
		}
		songs = append(songs, d.ToSong())
	}
	if err := s.Put(ctx, songs...); err != nil {
		return 0, err
	}
	return len(songs), nil
}

// Delete removes the song with mediaID. Missing ids are not an error.
func (s *Store) Delete(ctx context.Context, mediaID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE media_id = ?`, mediaID)
	return err
}

// Count returns the number of stored songs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

var _ ports.SongStore = (*Store)(nil)
