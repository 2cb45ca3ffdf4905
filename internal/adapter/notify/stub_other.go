//go:build !linux

package notify

import (
	"log/slog"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// New returns a no-op notifier on non-Linux platforms.
// Desktop notifications are only supported on Linux via D-Bus.
func New(_ *slog.Logger, _ Options) ports.Notifier {
	return NewStub()
}

// NewSleepInhibitor returns a no-op host on non-Linux platforms.
func NewSleepInhibitor(_ *slog.Logger, _ string) ports.ForegroundHost {
	return StubHost{}
}
