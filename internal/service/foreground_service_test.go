package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
	"github.com/tejashwikalptaru/tunestream/internal/testutil"
)

type fakeNotifier struct {
	mu      sync.Mutex
	shown   []ports.Notification
	closed  []uint32
	nextID  uint32
	actions chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{actions: make(chan string, 8)}
}

func (n *fakeNotifier) Notify(notification ports.Notification) (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, notification)
	if notification.ReplacesID != 0 {
		return notification.ReplacesID, nil
	}
	n.nextID++
	return n.nextID, nil
}

func (n *fakeNotifier) Close(id uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, id)
	return nil
}

func (n *fakeNotifier) Actions() <-chan string { return n.actions }

func (n *fakeNotifier) Shutdown() error { return nil }

func (n *fakeNotifier) lastShown() (ports.Notification, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.shown) == 0 {
		return ports.Notification{}, 0
	}
	return n.shown[len(n.shown)-1], len(n.shown)
}

func (n *fakeNotifier) closedIDs() []uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint32(nil), n.closed...)
}

type fakeHost struct {
	mu       sync.Mutex
	promoted bool
	promotes int
}

func (h *fakeHost) Promote(string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.promoted {
		h.promotes++
	}
	h.promoted = true
	return nil
}

func (h *fakeHost) Demote() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.promoted = false
	return nil
}

func (h *fakeHost) isPromoted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.promoted
}

type foregroundHarness struct {
	*sessionHarness
	fg       *ForegroundService
	notifier *fakeNotifier
	host     *fakeHost
}

func newForegroundHarness(t *testing.T) *foregroundHarness {
	t.Helper()

	h := newSessionHarness(t, newStubStore(abc()...))
	notifier := newFakeNotifier()
	host := &fakeHost{}
	lg := logger.NewTestLogger()
	fg := NewForegroundService(lg, h.bus, notifier, host, h.session, eventbus.NewLoop(lg))

	require.NoError(t, h.session.Start())
	h.waitReadiness(t, domain.ReadinessReady)

	return &foregroundHarness{sessionHarness: h, fg: fg, notifier: notifier, host: host}
}

func (h *foregroundHarness) Close() {
	_ = h.fg.Shutdown()
	h.sessionHarness.Close()
}

// settle waits for the session and the presentation loop to drain.
func (h *foregroundHarness) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Sync())
	h.fg.IsForeground()
}

func TestForegroundService_PlayingShowsNotification(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("b"))
	h.settle(t)

	assert.True(t, h.fg.IsForeground())
	assert.True(t, h.host.isPromoted())

	n, count := h.notifier.lastShown()
	require.Positive(t, count)
	assert.Equal(t, "Bravo", n.Title)
	assert.Equal(t, "Two", n.Body)
	assert.True(t, n.Persistent)
	require.Len(t, n.Actions, 3)
	assert.Equal(t, ports.ActionPrevious, n.Actions[0].Key)
	assert.Equal(t, "Pause", n.Actions[1].Label)
	assert.Equal(t, ports.ActionNext, n.Actions[2].Key)
	assert.Equal(t, 1, h.events.count(domain.EventForegroundChanged))
}

func TestForegroundService_PauseKeepsNotification(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("a"))
	h.settle(t)
	require.NoError(t, h.session.Pause())
	h.settle(t)

	assert.False(t, h.fg.IsForeground())
	assert.False(t, h.host.isPromoted())
	assert.Empty(t, h.notifier.closedIDs())

	n, _ := h.notifier.lastShown()
	assert.Equal(t, "Play", n.Actions[1].Label)
	assert.Equal(t, uint32(1), n.ReplacesID, "the paused notification replaces the playing one")
}

func TestForegroundService_StopClosesNotification(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("a"))
	h.settle(t)
	require.NoError(t, h.session.Stop())
	h.settle(t)

	assert.Equal(t, []uint32{1}, h.notifier.closedIDs())
	assert.False(t, h.host.isPromoted())
}

func TestForegroundService_SelectionChangeReplacesNotification(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("a"))
	h.settle(t)
	require.NoError(t, h.session.SkipToNext())
	h.settle(t)

	n, _ := h.notifier.lastShown()
	assert.Equal(t, "Bravo", n.Title)
	assert.Equal(t, uint32(1), n.ReplacesID)
	assert.Equal(t, 1, h.host.promotes, "skipping keeps the process promoted")
}

func TestForegroundService_ActionsDriveSession(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("a"))
	h.settle(t)

	h.notifier.actions <- ports.ActionNext
	require.Eventually(t, func() bool {
		st, err := h.session.State()
		return err == nil && st.Current != nil && st.Current.ID == "b"
	}, 2*time.Second, 5*time.Millisecond)

	h.notifier.actions <- ports.ActionPlayPause
	require.Eventually(t, func() bool {
		st, err := h.session.State()
		return err == nil && st.Playback.Status == domain.StatusPaused
	}, 2*time.Second, 5*time.Millisecond)

	h.notifier.actions <- ports.ActionPlayPause
	require.Eventually(t, func() bool {
		st, err := h.session.State()
		return err == nil && st.Playback.Status == domain.StatusPlaying
	}, 2*time.Second, 5*time.Millisecond)
}

func TestForegroundService_ShutdownCleansUp(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newForegroundHarness(t)
	defer h.Close()

	require.NoError(t, h.session.PlayFromMediaID("a"))
	h.settle(t)

	require.NoError(t, h.fg.Shutdown())
	require.NoError(t, h.fg.Shutdown())

	assert.False(t, h.host.isPromoted())
	assert.Equal(t, []uint32{1}, h.notifier.closedIDs())
	assert.False(t, h.fg.IsForeground())
}
