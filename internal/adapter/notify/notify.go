// Package notify provides desktop notifications and sleep inhibition via D-Bus.
// On platforms without D-Bus, or when the bus is unreachable, no-op
// implementations are returned.
package notify

import (
	"sync"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Options configures the D-Bus notifier.
type Options struct {
	AppName      string // Shown by the notification server
	DesktopEntry string // Desktop file name, without .desktop
}

// StubNotifier is a no-op notifier.
type StubNotifier struct {
	actions chan string
	once    sync.Once
}

// NewStub creates a notifier that shows nothing.
func NewStub() *StubNotifier {
	return &StubNotifier{actions: make(chan string)}
}

func (s *StubNotifier) Notify(_ ports.Notification) (uint32, error) {
	return 0, nil
}

func (s *StubNotifier) Close(_ uint32) error {
	return nil
}

func (s *StubNotifier) Actions() <-chan string {
	return s.actions
}

func (s *StubNotifier) Shutdown() error {
	s.once.Do(func() { close(s.actions) })
	return nil
}

// StubHost is a foreground host that inhibits nothing.
type StubHost struct{}

func (StubHost) Promote(string) error { return nil }

func (StubHost) Demote() error { return nil }

var (
	_ ports.Notifier       = (*StubNotifier)(nil)
	_ ports.ForegroundHost = StubHost{}
)
