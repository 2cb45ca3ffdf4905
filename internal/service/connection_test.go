package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
	"github.com/tejashwikalptaru/tunestream/internal/testutil"
)

func connect(t *testing.T, h *sessionHarness) *Connection {
	t.Helper()
	conn, err := Connect(context.Background(), logger.NewTestLogger(), h.session, h.bus)
	require.NoError(t, err)
	return conn
}

func TestConnection_TracksSession(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newSessionHarness(t, newStubStore(abc()...))
	defer h.Close()

	require.NoError(t, h.session.Start())
	h.waitReadiness(t, domain.ReadinessReady)

	conn := connect(t, h)
	defer conn.Disconnect()

	var seen atomic.Int32
	conn.Observe(func(domain.Event) { seen.Add(1) })

	_, ok := conn.CurrentSong()
	assert.False(t, ok)

	f, err := conn.Subscribe(conn.Root())
	require.NoError(t, err)
	items, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	require.NoError(t, conn.TransportControls().PlayFromMediaID("c"))
	require.NoError(t, h.session.Sync())

	song, ok := conn.CurrentSong()
	require.True(t, ok)
	assert.Equal(t, "c", song.ID)
	assert.Equal(t, domain.StatusPlaying, conn.PlaybackState().Status)
	assert.Positive(t, seen.Load())
}

func TestConnection_SnapshotOnConnect(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := newSessionHarness(t, newStubStore(abc()...))
	defer h.Close()

	require.NoError(t, h.session.Start())
	h.waitReadiness(t, domain.ReadinessReady)
	require.NoError(t, h.session.PlayFromMediaID("b"))
	require.NoError(t, h.session.Sync())

	conn := connect(t, h)
	defer conn.Disconnect()

	song, ok := conn.CurrentSong()
	require.True(t, ok)
	assert.Equal(t, "b", song.ID)
	assert.Equal(t, domain.StatusPlaying, conn.PlaybackState().Status)
}

func TestConnection_NetworkError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store := newStubStore()
	store.set(nil, errStoreDown)
	h := newSessionHarness(t, store)
	defer h.Close()

	conn := connect(t, h)
	defer conn.Disconnect()

	require.NoError(t, h.session.Start())
	h.waitReadiness(t, domain.ReadinessFailed)

	f, err := conn.Subscribe(domain.RootID)
	require.NoError(t, err)
	items, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, conn.NetworkError(), domain.ErrCatalogUnavailable)

	store.set(abc(), nil)
	require.NoError(t, h.session.Refresh())
	require.Eventually(t, func() bool { return conn.NetworkError() == nil }, 2*time.Second, 5*time.Millisecond)
}

func TestConnection_Disconnect(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	store := newStubStore(abc()...)
	release := store.hold()
	defer release()
	h := newSessionHarness(t, store)
	defer h.Close()

	require.NoError(t, h.session.Start())

	conn := connect(t, h)
	pending, err := conn.Subscribe(domain.RootID)
	require.NoError(t, err)

	var seen atomic.Int32
	conn.Observe(func(domain.Event) { seen.Add(1) })

	conn.Disconnect()
	conn.Disconnect()

	assert.False(t, conn.IsConnected())
	assert.True(t, pending.IsCancelled())

	_, err = conn.Subscribe(domain.RootID)
	assert.ErrorIs(t, err, domain.ErrDisconnected)
	assert.ErrorIs(t, conn.TransportControls().Play(), domain.ErrDisconnected)
	assert.ErrorIs(t, conn.TransportControls().SeekTo(time.Second), domain.ErrDisconnected)

	h.bus.Publish(domain.NewSelectionChangedEvent(nil, -1))
	assert.Zero(t, seen.Load())
}

func TestConnection_ConnectWithDoneContext(t *testing.T) {
	h := newSessionHarness(t, newStubStore())
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, logger.NewTestLogger(), h.session, h.bus)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnection_ConnectToClosedSession(t *testing.T) {
	h := newSessionHarness(t, newStubStore())
	defer h.Close()
	require.NoError(t, h.session.Close())

	_, err := Connect(context.Background(), logger.NewTestLogger(), h.session, h.bus)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, 1, h.bus.SubscriberCount(), "only the event log stays subscribed")
}
