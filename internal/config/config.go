// Package config loads the tunestream configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "tunestream"

// Catalog backends.
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
	BackendLocal  = "local"
)

// Engine backends.
const (
	EngineBeep = "beep"
	EngineMock = "mock"
)

type Config struct {
	Log           LogConfig           `koanf:"log"`
	Catalog       CatalogConfig       `koanf:"catalog"`
	Engine        EngineConfig        `koanf:"engine"`
	Session       SessionConfig       `koanf:"session"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// LogConfig holds logging settings. TUNESTREAM_LOG_LEVEL overrides Level.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "text" or "json" (default: "text")
}

// CatalogConfig selects and configures the song store.
type CatalogConfig struct {
	Backend    string `koanf:"backend"`     // "http", "sqlite" or "local" (default: "sqlite")
	URL        string `koanf:"url"`         // collection endpoint for the http backend
	Timeout    string `koanf:"timeout"`     // fetch timeout, e.g. "15s" (default: none)
	SQLitePath string `koanf:"sqlite_path"` // database file (default: XDG data dir)
	MusicDir   string `koanf:"music_dir"`   // directory for the local backend
}

// EngineConfig selects the playback engine.
type EngineConfig struct {
	Backend    string `koanf:"backend"`     // "beep" or "mock" (default: "beep")
	SampleRate int    `koanf:"sample_rate"` // speaker rate in Hz (default: 44100)
	Buffer     string `koanf:"buffer"`      // speaker buffer, e.g. "100ms" (default: "100ms")
}

// SessionConfig holds session and controller settings.
type SessionConfig struct {
	Name  string `koanf:"name"`  // MPRIS bus name suffix (default: "tunestream")
	MPRIS *bool  `koanf:"mpris"` // expose the session over MPRIS (default: true)
}

// NotificationsConfig holds desktop presentation settings.
type NotificationsConfig struct {
	Enabled      *bool `koanf:"enabled"`       // show playback notifications (default: true)
	InhibitSleep *bool `koanf:"inhibit_sleep"` // block idle sleep while playing (default: true)
}

// Load reads the configuration files in order of priority (last wins):
// the XDG config file, ./config.toml, then explicit when it is not empty.
// A missing explicit file is an error; the others are optional.
func Load(explicit string) (*Config, error) {
	return load(searchPaths(), explicit)
}

func load(optional []string, explicit string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range optional {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if explicit != "" {
		if err := k.Load(file.Provider(expandPath(explicit)), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicit, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.normalize()
	return cfg
}

func searchPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tunestream/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

// normalize applies defaults and validates the settings.
func (c *Config) normalize() error {
	var errs []error

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	// Catalog
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = BackendSQLite
	}
	switch c.Catalog.Backend {
	case BackendHTTP:
		if c.Catalog.URL == "" {
			errs = append(errs, errors.New("catalog.url is required for the http backend"))
		}
	case BackendSQLite:
	case BackendLocal:
		if c.Catalog.MusicDir == "" {
			errs = append(errs, errors.New("catalog.music_dir is required for the local backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.backend: unknown backend %q", c.Catalog.Backend))
	}
	c.Catalog.SQLitePath = expandPath(c.Catalog.SQLitePath)
	c.Catalog.MusicDir = expandPath(c.Catalog.MusicDir)
	if _, err := parseDuration(c.Catalog.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("catalog.timeout: %w", err))
	}

	// Engine
	if c.Engine.Backend == "" {
		c.Engine.Backend = EngineBeep
	}
	if c.Engine.Backend != EngineBeep && c.Engine.Backend != EngineMock {
		errs = append(errs, fmt.Errorf("engine.backend: unknown backend %q", c.Engine.Backend))
	}
	if c.Engine.SampleRate <= 0 {
		c.Engine.SampleRate = 44100
	}
	if c.Engine.Buffer == "" {
		c.Engine.Buffer = "100ms"
	}
	if _, err := parseDuration(c.Engine.Buffer); err != nil {
		errs = append(errs, fmt.Errorf("engine.buffer: %w", err))
	}

	// Session
	if c.Session.Name == "" {
		c.Session.Name = appName
	}

	return errors.Join(errs...)
}

// CatalogTimeout returns the fetch timeout; zero means none.
func (c *Config) CatalogTimeout() time.Duration {
	d, _ := parseDuration(c.Catalog.Timeout)
	return d
}

// EngineBuffer returns the speaker buffer duration.
func (c *Config) EngineBuffer() time.Duration {
	d, _ := parseDuration(c.Engine.Buffer)
	return d
}

// MPRISEnabled reports whether the session is exposed over MPRIS.
func (c *Config) MPRISEnabled() bool {
	return boolOr(c.Session.MPRIS, true)
}

// NotificationsEnabled reports whether playback notifications are shown.
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Notifications.Enabled, true)
}

// InhibitSleep reports whether idle sleep is blocked while playing.
func (c *Config) InhibitSleep() bool {
	return boolOr(c.Notifications.InhibitSleep, true)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
