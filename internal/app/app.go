// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/httpstore"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/localstore"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/sqlitestore"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/mpris"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/notify"
	fyneui "github.com/tejashwikalptaru/tunestream/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/tunestream/internal/config"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
	"github.com/tejashwikalptaru/tunestream/internal/service"
)

// progressInterval is how often the window polls the playback position.
const progressInterval = 500 * time.Millisecond

// Application is the root application structure that holds all dependencies.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	config   Config
	logger   *slog.Logger
	fyneApp  fyne.App
	headless bool

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	store       ports.SongStore
	storeCloser io.Closer
	engine      ports.PlaybackEngine
	notifier    ports.Notifier
	host        ports.ForegroundHost
	mpris       *mpris.Adapter

	// Services
	catalog    *service.CatalogService
	session    *service.SessionService
	foreground *service.ForegroundService

	// UI
	viewModel  *fyneui.ViewModel
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Settings is the loaded configuration file
	Settings *config.Config

	// Headless runs the session without a window
	Headless bool

	// LogOutput receives log records (nil for stderr)
	LogOutput io.Writer

	// HTTPClient fetches the catalog and media (nil for a default client)
	HTTPClient *http.Client

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:    "io.github.tejashwikalptaru.tunestream",
		AppName:  "tunestream",
		Settings: config.Default(),
	}
}

// NewApplication creates a new application with all dependencies wired.
// On error every component created so far is released.
func NewApplication(cfg Config) (*Application, error) {
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	settings := cfg.Settings

	app := &Application{config: cfg, headless: cfg.Headless}

	// Step 1: Create logger
	loggerCfg := logger.FromSettings(settings.Log.Level, settings.Log.Format)
	loggerCfg.Output = cfg.LogOutput
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 3: Create the song store
	store, closer, err := newStore(app.logger, settings, client)
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	app.store = store
	app.storeCloser = closer

	// Step 4: Create the playback engine
	switch settings.Engine.Backend {
	case config.EngineMock:
		app.engine = mock.NewEngine(app.eventBus, app.logger.With(slog.String("engine", "mock")))
	default:
		app.engine = beep.NewEngine(app.logger, app.eventBus, ports.PlaybackEngineConfig{
			SampleRate:     settings.Engine.SampleRate,
			BufferDuration: settings.EngineBuffer(),
		}, client)
	}

	// Step 5: Create services
	app.catalog = service.NewCatalogService(app.logger, app.store, app.eventBus, settings.CatalogTimeout())
	app.session = service.NewSessionService(app.logger, app.catalog, app.engine, app.eventBus, eventbus.NewLoop(app.logger))

	// Step 6: Desktop presentation
	if settings.NotificationsEnabled() {
		app.notifier = notify.New(app.logger, notify.Options{AppName: cfg.AppName, DesktopEntry: cfg.AppID})
	} else {
		app.notifier = notify.NewStub()
	}
	if settings.InhibitSleep() {
		app.host = notify.NewSleepInhibitor(app.logger, cfg.AppName)
	} else {
		app.host = notify.StubHost{}
	}
	app.foreground = service.NewForegroundService(
		app.logger, app.eventBus, app.notifier, app.host, app.session, eventbus.NewLoop(app.logger))

	// Step 7: Media controller
	if settings.MPRISEnabled() {
		adapter, err := mpris.New(app.logger, settings.Session.Name, cfg.AppName, app.session)
		if err != nil {
			// Non-fatal - the session still works without a desktop controller
			app.logger.Warn("mpris unavailable", slog.Any("error", err))
		} else {
			app.mpris = adapter
		}
	}

	// Step 8: Create UI
	if !cfg.Headless {
		if err := app.buildUI(); err != nil {
			app.Shutdown()
			return nil, err
		}
	}

	return app, nil
}

func newStore(lg *slog.Logger, settings *config.Config, client *http.Client) (ports.SongStore, io.Closer, error) {
	switch settings.Catalog.Backend {
	case config.BackendHTTP:
		return httpstore.New(lg, client, settings.Catalog.URL), nil, nil
	case config.BackendLocal:
		return localstore.New(lg, settings.Catalog.MusicDir), nil, nil
	default:
		path := settings.Catalog.SQLitePath
		if path == "" {
			var err error
			if path, err = sqlitestore.DefaultPath(); err != nil {
				return nil, nil, fmt.Errorf("resolve catalog path: %w", err)
			}
		}
		store, err := sqlitestore.Open(lg, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

func (a *Application) buildUI() error {
	if a.config.TestFyneApp != nil {
		a.fyneApp = a.config.TestFyneApp
	} else {
		a.fyneApp = fyneapp.NewWithID(a.config.AppID)
	}

	conn, err := service.Connect(context.Background(), a.logger, a.session, a.eventBus)
	if err != nil {
		return fmt.Errorf("connect to session: %w", err)
	}
	a.viewModel = fyneui.NewViewModel(a.logger, conn, progressInterval)
	a.mainWindow = fyneui.NewMainWindow(a.fyneApp, a.viewModel, a.logger)
	return nil
}

// Run starts the session and blocks until ctx is done or the window is closed.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("tunestream started",
		slog.String("store", a.store.Name()),
		slog.Bool("headless", a.headless))

	if err := a.session.Start(); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if a.headless {
		<-ctx.Done()
		return nil
	}

	if err := a.viewModel.Load(); err != nil {
		return fmt.Errorf("load media items: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(a.mainWindow.Close)
		case <-stop:
		}
	}()

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
	return nil
}

// Session returns the media session.
func (a *Application) Session() *service.SessionService {
	return a.session
}

// Store returns the configured song store.
func (a *Application) Store() ports.SongStore {
	return a.store
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application, nil when headless.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// Shutdown gracefully shuts down the application in reverse order of creation.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.viewModel != nil {
			a.viewModel.Shutdown()
		}
		if a.mpris != nil {
			errs = append(errs, a.mpris.Close())
		}
		if a.foreground != nil {
			errs = append(errs, a.foreground.Shutdown())
		}
		if a.notifier != nil {
			errs = append(errs, a.notifier.Shutdown())
		}
		if closer, ok := a.host.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
		if a.session != nil {
			errs = append(errs, a.session.Close())
		} else if a.engine != nil {
			errs = append(errs, a.engine.Release())
		}
		if a.storeCloser != nil {
			errs = append(errs, a.storeCloser.Close())
		}
		if a.eventBus != nil {
			errs = append(errs, a.eventBus.Close())
		}

		a.logger.Info("application shutdown complete")
	})

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Warn("shutdown finished with errors", slog.Any("error", err))
	}
	return err
}
