package notify

import (
	"testing"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

func TestStubNotifier(t *testing.T) {
	n := NewStub()

	id, err := n.Notify(ports.Notification{Title: "Alpha"})
	if err != nil || id != 0 {
		t.Errorf("Notify() = %d, %v; want 0, nil", id, err)
	}
	if err := n.Close(1); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	if err := n.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if err := n.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
	if _, ok := <-n.Actions(); ok {
		t.Error("expected actions channel to be closed after Shutdown")
	}
}

func TestStubHost(t *testing.T) {
	var h StubHost
	if err := h.Promote("playing"); err != nil {
		t.Errorf("Promote() error: %v", err)
	}
	if err := h.Demote(); err != nil {
		t.Errorf("Demote() error: %v", err)
	}
}
