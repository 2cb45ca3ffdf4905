package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunestream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
)

var errStoreDown = errors.New("store unreachable")

// stubStore is an in-memory SongStore. With a gate set, FetchAll blocks
// until the gate is closed or, unless deaf, the context is cancelled.
type stubStore struct {
	mu    sync.Mutex
	songs []domain.Song
	err   error
	gate  chan struct{}
	deaf  bool
	calls int
}

func newStubStore(songs ...domain.Song) *stubStore {
	return &stubStore{songs: songs}
}

func (s *stubStore) FetchAll(ctx context.Context) ([]domain.Song, error) {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	deaf := s.deaf
	songs := append([]domain.Song(nil), s.songs...)
	err := s.err
	s.mu.Unlock()

	if gate != nil && deaf {
		<-gate
	} else if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) set(songs []domain.Song, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs = songs
	s.err = err
}

// hold makes subsequent fetches block until the returned function is called.
func (s *stubStore) hold() func() {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// holdIgnoringCancel is hold for a store that does not honour cancellation.
func (s *stubStore) holdIgnoringCancel() func() {
	s.mu.Lock()
	s.deaf = true
	s.mu.Unlock()
	return s.hold()
}

func (s *stubStore) fetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// eventLog records every event published on a bus.
type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(bus *eventbus.SyncEventBus) *eventLog {
	l := &eventLog{}
	bus.SubscribeAll(func(e domain.Event) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, e)
	})
	return l
}

func (l *eventLog) count(eventType domain.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

func (l *eventLog) last(eventType domain.EventType) domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type() == eventType {
			return l.events[i]
		}
	}
	return nil
}

func abc() []domain.Song {
	return []domain.Song{
		{ID: "a", Title: "Alpha", Artist: "One", MediaURI: "https://cdn.example/a.mp3"},
		{ID: "b", Title: "Bravo", Artist: "Two", MediaURI: "https://cdn.example/b.mp3"},
		{ID: "c", Title: "Charlie", Artist: "Three", MediaURI: "https://cdn.example/c.mp3"},
	}
}

type sessionHarness struct {
	session *SessionService
	engine  *mock.Engine
	bus     *eventbus.SyncEventBus
	store   *stubStore
	events  *eventLog
}

// newSessionHarness wires a session to the mock engine. Callers close it with
// h.Close so leak checks deferred before it see a clean state.
func newSessionHarness(t *testing.T, store *stubStore) *sessionHarness {
	t.Helper()

	lg := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(lg)
	events := recordEvents(bus)
	engine := mock.NewEngine(bus, lg)
	catalog := NewCatalogService(lg, store, bus, 0)
	session := NewSessionService(lg, catalog, engine, bus, eventbus.NewLoop(lg))

	return &sessionHarness{
		session: session,
		engine:  engine,
		bus:     bus,
		store:   store,
		events:  events,
	}
}

func (h *sessionHarness) Close() {
	_ = h.session.Close()
	_ = h.bus.Close()
}

func (h *sessionHarness) state(t *testing.T) domain.SessionState {
	t.Helper()
	require.NoError(t, h.session.Sync())
	st, err := h.session.State()
	require.NoError(t, err)
	return st
}

// waitReadiness waits until the first refresh has been applied.
func (h *sessionHarness) waitReadiness(t *testing.T, want domain.Readiness) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := h.session.State()
		return err == nil && st.Readiness == want
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.session.Sync())
}

// browse issues a root query and waits for its result.
func (h *sessionHarness) browse(t *testing.T) []domain.MediaItem {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items, err := h.session.LoadChildren(domain.RootID).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, h.session.Sync())
	return items
}
