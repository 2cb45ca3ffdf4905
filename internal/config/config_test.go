package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, BackendSQLite, cfg.Catalog.Backend)
	assert.Zero(t, cfg.CatalogTimeout())
	assert.Equal(t, EngineBeep, cfg.Engine.Backend)
	assert.Equal(t, 44100, cfg.Engine.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.EngineBuffer())
	assert.Equal(t, "tunestream", cfg.Session.Name)
	assert.True(t, cfg.MPRISEnabled())
	assert.True(t, cfg.NotificationsEnabled())
	assert.True(t, cfg.InhibitSleep())

	assert.Equal(t, cfg, Default())
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.toml", `
[log]
level = "DEBUG"
format = "json"

[catalog]
backend = "http"
url = "https://catalog.example/songs"
timeout = "15s"

[engine]
backend = "mock"
sample_rate = 48000
buffer = "250ms"

[session]
name = "tunestream.test"
mpris = false

[notifications]
enabled = false
inhibit_sleep = false
`)

	cfg, err := load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendHTTP, cfg.Catalog.Backend)
	assert.Equal(t, "https://catalog.example/songs", cfg.Catalog.URL)
	assert.Equal(t, 15*time.Second, cfg.CatalogTimeout())
	assert.Equal(t, EngineMock, cfg.Engine.Backend)
	assert.Equal(t, 48000, cfg.Engine.SampleRate)
	assert.Equal(t, 250*time.Millisecond, cfg.EngineBuffer())
	assert.Equal(t, "tunestream.test", cfg.Session.Name)
	assert.False(t, cfg.MPRISEnabled())
	assert.False(t, cfg.NotificationsEnabled())
	assert.False(t, cfg.InhibitSleep())
}

func TestLoad_LaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.toml", `
[catalog]
backend = "local"
music_dir = "/music"

[engine]
sample_rate = 22050
`)
	second := writeConfig(t, dir, "second.toml", `
[engine]
sample_rate = 96000
`)

	cfg, err := load([]string{first, filepath.Join(dir, "missing.toml")}, second)
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Catalog.Backend)
	assert.Equal(t, "/music", cfg.Catalog.MusicDir)
	assert.Equal(t, 96000, cfg.Engine.SampleRate)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(nil, filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "bad.toml", "[catalog\nbackend = ")
	_, err := load(nil, path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"http without url", "[catalog]\nbackend = \"http\"\n"},
		{"local without dir", "[catalog]\nbackend = \"local\"\n"},
		{"unknown backend", "[catalog]\nbackend = \"firestore\"\n"},
		{"bad timeout", "[catalog]\ntimeout = \"soon\"\n"},
		{"negative timeout", "[catalog]\ntimeout = \"-1s\"\n"},
		{"unknown engine", "[engine]\nbackend = \"bass\"\n"},
		{"unknown log format", "[log]\nformat = \"xml\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.toml", tt.body)
			_, err := load(nil, path)
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/music", filepath.Join(home, "music")},
		{"/usr/local/music", "/usr/local/music"},
		{"music/albums", "music/albums"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSearchPaths(t *testing.T) {
	paths := searchPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join("tunestream", "config.toml"), filepath.Join(filepath.Base(filepath.Dir(paths[0])), filepath.Base(paths[0])))
	assert.Equal(t, "config.toml", paths[1])
}
