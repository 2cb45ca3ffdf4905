//go:build !linux

package mpris

import (
	"log/slog"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ *slog.Logger, _, _ string, _ ports.Session) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
