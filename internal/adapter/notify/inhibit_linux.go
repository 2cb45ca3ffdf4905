//go:build linux

package notify

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

const (
	login1Dest   = "org.freedesktop.login1"
	login1Path   = "/org/freedesktop/login1"
	login1Method = "org.freedesktop.login1.Manager.Inhibit"
)

// sleepInhibitor holds a logind idle/sleep inhibitor lock while promoted.
type sleepInhibitor struct {
	logger *slog.Logger
	who    string
	conn   *dbus.Conn

	mu   sync.Mutex
	lock *os.File
}

// NewSleepInhibitor creates a foreground host backed by logind.
// Returns a no-op host if the system bus is unavailable.
func NewSleepInhibitor(logger *slog.Logger, who string) ports.ForegroundHost {
	logger = logger.With(slog.String("adapter", "inhibit"))

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		logger.Info("D-Bus system bus unavailable, sleep inhibition disabled", slog.Any("error", err))
		return StubHost{}
	}
	return &sleepInhibitor{logger: logger, who: who, conn: conn}
}

// Promote takes the inhibitor lock.
func (s *sleepInhibitor) Promote(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock != nil {
		return nil
	}

	var fd dbus.UnixFD
	err := s.conn.Object(login1Dest, login1Path).
		Call(login1Method, 0, "sleep:idle", s.who, reason, "block").
		Store(&fd)
	if err != nil {
		return fmt.Errorf("inhibit sleep: %w", err)
	}

	s.lock = os.NewFile(uintptr(fd), "inhibitor")
	s.logger.Debug("sleep inhibited", slog.String("reason", reason))
	return nil
}

// Demote releases the inhibitor lock by closing its descriptor.
func (s *sleepInhibitor) Demote() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock == nil {
		return nil
	}
	err := s.lock.Close()
	s.lock = nil
	s.logger.Debug("sleep inhibition released")
	return err
}

// Close releases any held lock and closes the system bus connection.
func (s *sleepInhibitor) Close() error {
	_ = s.Demote()
	return s.conn.Close()
}
