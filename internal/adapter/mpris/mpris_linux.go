//go:build linux

package mpris

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Adapter connects a session to MPRIS over D-Bus.
type Adapter struct {
	logger *slog.Logger
	server *server.Server
	once   sync.Once
}

// New creates and starts a new MPRIS adapter registered as
// org.mpris.MediaPlayer2.<name>.
// Returns an error if the session bus is unreachable.
func New(logger *slog.Logger, name, identity string, session ports.Session) (*Adapter, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("mpris: %w", err)
	}
	_ = conn.Close()

	a := &Adapter{
		logger: logger.With(slog.String("adapter", "mpris")),
	}

	root := &rootAdapter{identity: identity}
	player := &playerAdapter{session: session}
	a.server = server.NewServer(name, root, player)

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("MPRIS server stopped", slog.Any("error", err))
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	var err error
	a.once.Do(func() {
		err = a.server.Stop()
	})
	return err
}
