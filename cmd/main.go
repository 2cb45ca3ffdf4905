// Package main is the production entry point for the tunestream player.
//
// Build:
//
//	go build -o build/tunestream ./cmd
//
// Run:
//
//	./build/tunestream [-config path] [-headless]
//
// Seed the local catalog database from a JSON document collection:
//
//	./build/tunestream -seed songs.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/catalog/sqlitestore"
	"github.com/tejashwikalptaru/tunestream/internal/app"
	"github.com/tejashwikalptaru/tunestream/internal/config"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config.toml")
	seedPath := flag.String("seed", "", "import a JSON song collection into the sqlite catalog and exit")
	headless := flag.Bool("headless", false, "run without a window")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *seedPath != "" {
		if err := seed(settings, *seedPath); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.DefaultConfig()
	cfg.Settings = settings
	cfg.Headless = *headless

	// Create the application with dependency injection
	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window is closed or a signal arrives)
	if err := application.Run(ctx); err != nil {
		log.Printf("Application error: %v", err)
	}
}

func seed(settings *config.Config, path string) error {
	lg := logger.NewLogger(logger.FromSettings(settings.Log.Level, settings.Log.Format))

	dbPath := settings.Catalog.SQLitePath
	if dbPath == "" {
		var err error
		if dbPath, err = sqlitestore.DefaultPath(); err != nil {
			return err
		}
	}

	store, err := sqlitestore.Open(lg, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := store.Import(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d songs into %s\n", n, dbPath)
	return nil
}
