package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Connection is a client handle onto a running session.
//
// It caches the latest selection, playback state and network error so UI
// layers can read them without going through the session loop, and it owns
// the browse queries it issued: Disconnect cancels those still pending.
//
// Thread-safety: all methods may be called from any goroutine.
type Connection struct {
	logger  *slog.Logger
	session ports.Session
	bus     ports.EventBus

	mu         sync.RWMutex
	current    *domain.Song
	playback   domain.PlaybackState
	networkErr error
	queries    []*domain.Future[[]domain.MediaItem]
	observers  []func(domain.Event)
	subs       []domain.SubscriptionID
	closed     bool
}

// Connect attaches a new connection to the session.
func Connect(ctx context.Context, logger *slog.Logger, session ports.Session, bus ports.EventBus) (*Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Connection{
		logger:   logger.With(slog.String("service", "connection")),
		session:  session,
		bus:      bus,
		playback: domain.PlaybackState{Status: domain.StatusIdle, Index: -1},
	}

	// Subscribe before taking the snapshot so no change falls in between
	for _, t := range []domain.EventType{
		domain.EventSelectionChanged,
		domain.EventPlaybackStateChanged,
		domain.EventNetworkError,
		domain.EventQueueChanged,
	} {
		c.subs = append(c.subs, bus.Subscribe(t, c.handleEvent))
	}

	state, err := session.State()
	if err != nil {
		c.unsubscribe()
		return nil, err
	}

	c.mu.Lock()
	c.current = state.Current
	c.playback = state.Playback
	c.mu.Unlock()

	c.logger.Debug("connected", slog.String("readiness", state.Readiness.String()))
	return c, nil
}

func (c *Connection) handleEvent(event domain.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	switch e := event.(type) {
	case domain.SelectionChangedEvent:
		c.current = e.Song
	case domain.PlaybackStateChangedEvent:
		c.playback = e.State
	case domain.NetworkErrorEvent:
		c.networkErr = e.Error
	case domain.QueueChangedEvent:
		// A successful fetch clears a previous network error
		c.networkErr = nil
	}
	observers := append([]func(domain.Event){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}

// Observe registers fn to be called after the connection's cache has been
// updated for a session event. fn runs on the publisher's goroutine and must
// not call back into the session synchronously.
func (c *Connection) Observe(fn func(domain.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.observers = append(c.observers, fn)
	}
}

// Root returns the browse root of the session.
func (c *Connection) Root() string {
	return c.session.Root()
}

// Subscribe issues a browse query for parentID.
func (c *Connection) Subscribe(parentID string) (*domain.Future[[]domain.MediaItem], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrDisconnected
	}

	// Forget queries that already completed
	live := c.queries[:0]
	for _, q := range c.queries {
		if !q.IsDone() {
			live = append(live, q)
		}
	}
	c.queries = live

	f := c.session.LoadChildren(parentID)
	c.queries = append(c.queries, f)
	return f, nil
}

// CurrentSong returns the selected song, if any.
func (c *Connection) CurrentSong() (domain.Song, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return domain.Song{}, false
	}
	return *c.current, true
}

// PlaybackState returns the last playback state seen.
func (c *Connection) PlaybackState() domain.PlaybackState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playback
}

// NetworkError returns the last catalog error reported by the session.
func (c *Connection) NetworkError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.networkErr
}

// Snapshot asks the session for its current state, including the live
// playback position.
func (c *Connection) Snapshot() (domain.SessionState, error) {
	if !c.IsConnected() {
		return domain.SessionState{}, domain.ErrDisconnected
	}
	return c.session.State()
}

// IsConnected reports whether Disconnect has not been called yet.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// TransportControls returns the session commands. After Disconnect every
// command fails with domain.ErrDisconnected.
func (c *Connection) TransportControls() ports.TransportControls {
	return connectedControls{c: c}
}

// Disconnect detaches the connection and cancels its pending queries.
// It is safe to call more than once.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	queries := c.queries
	c.queries = nil
	c.observers = nil
	c.mu.Unlock()

	c.unsubscribe()
	for _, q := range queries {
		q.Cancel()
	}
	c.logger.Debug("disconnected")
}

func (c *Connection) unsubscribe() {
	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.subs = nil
}

func (c *Connection) controls() (ports.TransportControls, error) {
	if !c.IsConnected() {
		return nil, domain.ErrDisconnected
	}
	return c.session, nil
}

// connectedControls forwards commands while the connection is open.
type connectedControls struct {
	c *Connection
}

func (t connectedControls) Play() error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.Play()
}

func (t connectedControls) Pause() error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.Pause()
}

func (t connectedControls) Stop() error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.Stop()
}

func (t connectedControls) SkipToNext() error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.SkipToNext()
}

func (t connectedControls) SkipToPrevious() error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.SkipToPrevious()
}

func (t connectedControls) SeekTo(position time.Duration) error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.SeekTo(position)
}

func (t connectedControls) PlayFromMediaID(mediaID string) error {
	s, err := t.c.controls()
	if err != nil {
		return err
	}
	return s.PlayFromMediaID(mediaID)
}

// Verify that connectedControls implements the TransportControls interface
var _ ports.TransportControls = connectedControls{}
