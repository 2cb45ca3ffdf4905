package fyne

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
	"github.com/tejashwikalptaru/tunestream/internal/service"
)

type staticStore struct {
	songs []domain.Song
	err   error
}

func (s staticStore) FetchAll(context.Context) ([]domain.Song, error) { return s.songs, s.err }

func (s staticStore) Name() string { return "static" }

type fixture struct {
	vm      *ViewModel
	session *service.SessionService
	engine  *mock.Engine
}

func newFixture(t *testing.T, store staticStore) *fixture {
	t.Helper()
	test.NewTempApp(t)

	lg := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(lg)
	engine := mock.NewEngine(bus, lg)
	catalog := service.NewCatalogService(lg, store, bus, 0)
	session := service.NewSessionService(lg, catalog, engine, bus, eventbus.NewLoop(lg))

	conn, err := service.Connect(context.Background(), lg, session, bus)
	require.NoError(t, err)
	vm := NewViewModel(lg, conn, 0)

	t.Cleanup(func() {
		vm.Shutdown()
		_ = session.Close()
		_ = bus.Close()
	})

	require.NoError(t, session.Start())
	return &fixture{vm: vm, session: session, engine: engine}
}

func songs() []domain.Song {
	return []domain.Song{
		{ID: "a", Title: "Alpha", Artist: "One", ArtworkURI: "https://img.example/a.jpg"},
		{ID: "b", Title: "Bravo", Artist: "Two"},
	}
}

func waitString(t *testing.T, b interface{ Get() (string, error) }, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := b.Get()
		return err == nil && v == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestViewModel_LoadSuccess(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})

	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusSuccess)

	items := f.vm.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].MediaID)

	// The first browse selects the first song
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.CurrentID, "a")
	title, _ := f.vm.CurrentTitle.Get()
	assert.Equal(t, "Alpha", title)
	artwork, _ := f.vm.CurrentArtwork.Get()
	assert.Equal(t, "https://img.example/a.jpg", artwork)

	connected, _ := f.vm.Connected.Get()
	assert.True(t, connected)
}

func TestViewModel_LoadFailure(t *testing.T) {
	f := newFixture(t, staticStore{err: errors.New("offline")})

	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusError)

	require.Eventually(t, func() bool {
		v, _ := f.vm.NetworkError.Get()
		return v
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.vm.Items())
}

func TestViewModel_PlayOrToggle(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})
	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusSuccess)
	require.NoError(t, f.session.Sync())

	b := f.vm.Items()[1]

	// Another song: play it
	require.NoError(t, f.vm.PlayOrToggle(b, true))
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPlaying.String())
	waitString(t, f.vm.CurrentID, "b")
	prepares := f.engine.PrepareCalls()

	// Same song while playing, no toggle: nothing happens
	require.NoError(t, f.vm.PlayOrToggle(b, false))
	require.NoError(t, f.session.Sync())
	assert.Equal(t, domain.StatusPlaying, f.engine.State().Status)

	// Same song while playing with toggle: pause
	require.NoError(t, f.vm.PlayOrToggle(b, true))
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPaused.String())

	playing, _ := f.vm.IsPlaying.Get()
	assert.False(t, playing)

	// Same song while paused: resume without preparing
	require.NoError(t, f.vm.PlayOrToggle(b, true))
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPlaying.String())
	assert.Equal(t, prepares, f.engine.PrepareCalls())
}

func TestViewModel_Navigation(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})
	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusSuccess)
	require.NoError(t, f.session.Sync())

	require.NoError(t, f.vm.SkipToNext())
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.CurrentID, "b")

	require.NoError(t, f.vm.SeekTo(12.5))
	require.NoError(t, f.session.Sync())
	assert.Equal(t, 12500*time.Millisecond, f.engine.State().Position)

	position, _ := f.vm.Position.Get()
	assert.InDelta(t, 12.5, position, 0.001)

	require.NoError(t, f.vm.SkipToPrevious())
	require.NoError(t, f.session.Sync())
	assert.Equal(t, time.Duration(0), f.engine.State().Position)
}

func TestViewModel_ProgressPolling(t *testing.T) {
	test.NewTempApp(t)

	lg := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(lg)
	defer bus.Close()
	engine := mock.NewEngine(bus, lg)
	catalog := service.NewCatalogService(lg, staticStore{songs: songs()}, bus, 0)
	session := service.NewSessionService(lg, catalog, engine, bus, eventbus.NewLoop(lg))
	defer session.Close()

	conn, err := service.Connect(context.Background(), lg, session, bus)
	require.NoError(t, err)
	vm := NewViewModel(lg, conn, 5*time.Millisecond)
	defer vm.Shutdown()

	require.NoError(t, session.Start())
	require.NoError(t, vm.Load())
	waitString(t, vm.Status, StatusSuccess)
	require.NoError(t, session.Sync())
	require.NoError(t, session.Play())

	// Position follows playback between polls
	engine.SimulateProgress(30 * time.Second)
	require.Eventually(t, func() bool {
		v, _ := vm.Position.Get()
		return v >= 30
	}, 2*time.Second, 5*time.Millisecond)

	duration, _ := vm.Duration.Get()
	assert.InDelta(t, mock.DefaultDuration.Seconds(), duration, 0.001)
}

func TestViewModel_Shutdown(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})

	f.vm.Shutdown()
	f.vm.Shutdown()

	connected, _ := f.vm.Connected.Get()
	assert.False(t, connected)
	assert.ErrorIs(t, f.vm.SkipToNext(), domain.ErrDisconnected)
	assert.ErrorIs(t, f.vm.Load(), domain.ErrDisconnected)
}

func TestViewModel_TogglePlaybackAndStop(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})
	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusSuccess)
	require.NoError(t, f.session.Sync())

	// The selected song starts playing
	require.NoError(t, f.vm.TogglePlayback())
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPlaying.String())
	waitString(t, f.vm.CurrentID, "a")

	require.NoError(t, f.vm.TogglePlayback())
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPaused.String())

	require.NoError(t, f.vm.Stop())
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusStopped.String())
	waitString(t, f.vm.CurrentID, "a")
}

func TestViewModel_PlayOrToggleAfterStop(t *testing.T) {
	f := newFixture(t, staticStore{songs: songs()})
	require.NoError(t, f.vm.Load())
	waitString(t, f.vm.Status, StatusSuccess)
	require.NoError(t, f.session.Sync())

	a := f.vm.Items()[0]
	require.NoError(t, f.vm.PlayOrToggle(a, true))
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPlaying.String())

	require.NoError(t, f.vm.Stop())
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusStopped.String())
	prepares := f.engine.PrepareCalls()

	// A stopped song holds nothing to resume, so it is prepared again
	require.NoError(t, f.vm.PlayOrToggle(a, true))
	require.NoError(t, f.session.Sync())
	waitString(t, f.vm.PlaybackStatus, domain.StatusPlaying.String())
	assert.Equal(t, prepares+1, f.engine.PrepareCalls())
	waitString(t, f.vm.CurrentID, "a")
}
