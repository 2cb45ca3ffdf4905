package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/logger"
)

// id3v1 builds a file body ending in an ID3v1 tag.
func id3v1(title, artist string) []byte {
	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}

	body := make([]byte, 512)
	body = append(body, []byte("TAG")...)
	body = append(body, field(title, 30)...)
	body = append(body, field(artist, 30)...)
	body = append(body, field("Album", 30)...)
	body = append(body, field("2024", 4)...)
	body = append(body, field("", 30)...)
	body = append(body, 0xff)
	return body
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestStore_FetchAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "02 second.mp3"), id3v1("Second Song", "Band"))
	writeFile(t, filepath.Join(dir, "a", "01.mp3"), id3v1("First Song", "Singer"))
	writeFile(t, filepath.Join(dir, "a", "cover.jpg"), []byte("jpeg"))
	writeFile(t, filepath.Join(dir, "a", "notes.txt"), []byte("not audio"))
	writeFile(t, filepath.Join(dir, ".hidden", "x.mp3"), id3v1("Hidden", "Nobody"))

	store := New(logger.NewTestLogger(), dir)
	songs, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 2)

	assert.Equal(t, "a/01.mp3", songs[0].ID)
	assert.Equal(t, "First Song", songs[0].Title)
	assert.Equal(t, "Singer", songs[0].Artist)
	assert.Equal(t, fileURI(filepath.Join(dir, "a", "01.mp3")), songs[0].MediaURI)
	assert.Equal(t, fileURI(filepath.Join(dir, "a", "cover.jpg")), songs[0].ArtworkURI)

	assert.Equal(t, "b/02 second.mp3", songs[1].ID)
	assert.Equal(t, "Second Song", songs[1].Title)
	assert.Empty(t, songs[1].ArtworkURI)
	assert.Equal(t, "local", store.Name())
}

func TestStore_UntaggedFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Loose Track.FLAC"), []byte("x"))

	songs, err := New(logger.NewTestLogger(), dir).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Loose Track", songs[0].Title)
	assert.Empty(t, songs[0].Artist)
}

func TestStore_EmptyDirectory(t *testing.T) {
	songs, err := New(logger.NewTestLogger(), t.TempDir()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, songs)
	assert.Empty(t, songs)
}

func TestStore_MissingDirectory(t *testing.T) {
	songs, err := New(logger.NewTestLogger(), filepath.Join(t.TempDir(), "gone")).FetchAll(context.Background())
	assert.Error(t, err)
	assert.Nil(t, songs)
}

func TestStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"), id3v1("A", "B"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(logger.NewTestLogger(), dir).FetchAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsAudioFile(t *testing.T) {
	tests := map[string]bool{
		"a.mp3":  true,
		"a.MP3":  true,
		"b.flac": true,
		"c.ogg":  true,
		"d.wav":  true,
		"e.m4a":  false,
		"f.txt":  false,
		"noext":  false,
	}
	for name, want := range tests {
		if got := isAudioFile(name); got != want {
			t.Errorf("isAudioFile(%q) = %v, want %v", name, got, want)
		}
	}
}
