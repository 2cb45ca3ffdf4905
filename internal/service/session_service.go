package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// closeWait bounds how long Close waits for fetches still running after
// cancellation.
const closeWait = 2 * time.Second

// SessionService coordinates the catalog, the playback engine and the
// external controllers.
//
// All mutable state below is owned by the loop: public commands run on it
// with Do, engine events and refresh completions are posted to it. Nothing
// else touches these fields, so the service holds no mutex of its own.
type SessionService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	catalog *CatalogService
	engine  ports.PlaybackEngine
	bus     ports.EventBus
	loop    ports.Executor

	// Loop-owned state
	readiness     domain.Readiness
	queue         domain.Queue
	preparedQueue domain.Queue
	current       *domain.Song
	currentIndex  int
	prepared      bool
	started       bool
	autoPrepared  bool
	pendingBrowse []*domain.Future[[]domain.MediaItem]
	pendingPlays  []string
	fetchErr      error
	generation    uint64
	cancelRefresh context.CancelFunc
	closed        bool

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	subs      []domain.SubscriptionID
	fetches   sync.WaitGroup
	closeWait time.Duration
}

// NewSessionService creates a session coordinator.
// The session takes ownership of loop and engine: Close closes the loop and
// releases the engine.
func NewSessionService(
	logger *slog.Logger,
	catalog *CatalogService,
	engine ports.PlaybackEngine,
	bus ports.EventBus,
	loop ports.Executor,
) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())

	s := &SessionService{
		logger:       logger.With(slog.String("service", "session")),
		catalog:      catalog,
		engine:       engine,
		bus:          bus,
		loop:         loop,
		currentIndex: -1,
		ctx:          ctx,
		cancel:       cancel,
		closeWait:    closeWait,
	}

	s.subs = append(s.subs, bus.Subscribe(domain.EventPlaybackStateChanged, func(event domain.Event) {
		e, ok := event.(domain.PlaybackStateChangedEvent)
		if !ok {
			return
		}
		loop.Post(func() { s.handleEngineState(e.State) })
	}))

	return s
}

// Start triggers the initial catalog fetch. It returns immediately.
func (s *SessionService) Start() error {
	return s.Refresh()
}

// Refresh re-fetches the catalog in the background.
// A newer refresh supersedes one still in flight.
func (s *SessionService) Refresh() error {
	return s.loop.Do(s.startRefresh)
}

func (s *SessionService) startRefresh() {
	if s.closed {
		return
	}

	if s.cancelRefresh != nil {
		s.cancelRefresh()
	}
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelRefresh = cancel

	s.logger.Debug("refreshing catalog", slog.Uint64("generation", gen))

	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		queue, err := s.catalog.Refresh(ctx)
		s.loop.Post(func() { s.applyRefresh(gen, queue, err) })
	}()
}

// applyRefresh installs the outcome of refresh gen. Stale or post-teardown
// completions are dropped.
func (s *SessionService) applyRefresh(gen uint64, queue domain.Queue, err error) {
	if s.closed || gen != s.generation {
		s.logger.Debug("dropping stale refresh", slog.Uint64("generation", gen))
		return
	}
	s.cancelRefresh = nil

	if err != nil {
		if s.readiness == domain.ReadinessReady {
			// Keep the last good queue
			s.logger.Warn("catalog refresh failed, keeping current queue", slog.Any("error", err))
			s.bus.Publish(domain.NewNetworkErrorEvent(err))
			return
		}

		s.readiness = domain.ReadinessFailed
		s.fetchErr = err
		s.logger.Error("catalog unavailable", slog.Any("error", err))

		if len(s.pendingPlays) > 0 {
			s.logger.Warn("dropping held play commands", slog.Int("count", len(s.pendingPlays)))
		}
		s.pendingPlays = nil

		pending := s.pendingBrowse
		s.pendingBrowse = nil
		for _, f := range pending {
			s.failBrowse(f)
		}
		return
	}

	s.replaceQueue(queue)
	s.readiness = domain.ReadinessReady
	s.fetchErr = nil
	s.bus.Publish(domain.NewQueueChangedEvent(queue.Songs()))

	plays := s.pendingPlays
	s.pendingPlays = nil
	for _, id := range plays {
		if err := s.playFromMediaID(id); err != nil {
			s.logger.Warn("held play command failed", slog.String("media_id", id), slog.Any("error", err))
		}
	}

	pending := s.pendingBrowse
	s.pendingBrowse = nil
	for _, f := range pending {
		s.resolveBrowse(f)
	}
}

// replaceQueue swaps in a new queue and re-points the selection by id.
func (s *SessionService) replaceQueue(queue domain.Queue) {
	s.queue = queue
	if s.current == nil {
		return
	}

	if idx, ok := queue.IndexOf(s.current.ID); ok {
		song := queue.At(idx)
		s.current = &song
		s.currentIndex = idx
		return
	}

	// Started playback keeps going; the selection is dropped when it ends
	if s.prepared && s.started {
		s.logger.Info("playing song left the catalog", slog.String("media_id", s.current.ID))
		s.currentIndex = -1
		return
	}

	s.logger.Info("selection left the catalog", slog.String("media_id", s.current.ID))
	s.clearSelection()
}

func (s *SessionService) clearSelection() {
	s.current = nil
	s.currentIndex = -1
	s.prepared = false
	s.started = false
	s.bus.Publish(domain.NewSelectionChangedEvent(nil, -1))
}

// Root returns the browse root identifier.
func (s *SessionService) Root() string {
	return domain.RootID
}

// LoadChildren answers a browse query.
//
// Queries for the root are resolved as soon as readiness is decided; until
// then they are held. Any other parent is rejected with domain.ErrUnknownParent.
// Each future resolves exactly once and may be cancelled by the caller.
func (s *SessionService) LoadChildren(parentID string) *domain.Future[[]domain.MediaItem] {
	f := domain.NewFuture[[]domain.MediaItem]("browse-" + uuid.NewString())

	if parentID != domain.RootID {
		f.Reject(fmt.Errorf("%w: %q", domain.ErrUnknownParent, parentID))
		return f
	}

	if !s.loop.Post(func() { s.browse(f) }) {
		f.Reject(domain.ErrSessionClosed)
	}
	return f
}

func (s *SessionService) browse(f *domain.Future[[]domain.MediaItem]) {
	if s.closed {
		f.Cancel()
		return
	}

	switch s.readiness {
	case domain.ReadinessNotReady:
		s.pendingBrowse = append(s.pendingBrowse, f)
	case domain.ReadinessReady:
		s.resolveBrowse(f)
	case domain.ReadinessFailed:
		s.failBrowse(f)
	}
}

func (s *SessionService) resolveBrowse(f *domain.Future[[]domain.MediaItem]) {
	if f.IsDone() {
		// Cancelled by the caller
		return
	}

	// Only the first browse after readiness prepares the first song
	if !s.autoPrepared && s.current == nil && !s.prepared && !s.queue.IsEmpty() {
		s.autoPrepared = true
		if err := s.prepareAt(0, false); err != nil {
			s.logger.Warn("failed to prepare first item", slog.Any("error", err))
		}
	}
	f.Resolve(s.queue.MediaItems())
}

func (s *SessionService) failBrowse(f *domain.Future[[]domain.MediaItem]) {
	if !f.Resolve([]domain.MediaItem{}) {
		return
	}
	s.bus.Publish(domain.NewNetworkErrorEvent(s.fetchErr))
}

// prepareAt hands the whole queue to the engine positioned at idx and selects that song.
func (s *SessionService) prepareAt(idx int, playWhenReady bool) error {
	if idx < 0 || idx >= s.queue.Len() {
		return domain.ErrInvalidIndex
	}

	song := s.queue.At(idx)
	if err := s.engine.Prepare(s.queue.Songs(), idx); err != nil {
		return err
	}
	s.preparedQueue = s.queue
	s.prepared = true
	s.started = false

	if err := s.engine.SetPlayWhenReady(playWhenReady); err != nil {
		return err
	}

	s.selectSong(song, idx)
	return nil
}

func (s *SessionService) selectSong(song domain.Song, idx int) {
	if s.current != nil && s.current.ID == song.ID && s.currentIndex == idx {
		return
	}
	s.current = &song
	s.currentIndex = idx

	selected := song
	s.bus.Publish(domain.NewSelectionChangedEvent(&selected, idx))
}

// handleEngineState runs on the loop for every engine state change.
func (s *SessionService) handleEngineState(state domain.PlaybackState) {
	if s.closed {
		return
	}
	switch state.Status {
	case domain.StatusError:
		s.prepared = false
		s.started = false
		s.logger.Error("playback error",
			slog.Int("index", state.Index),
			slog.Any("error", state.Err))
		s.dropVanishedSelection()
		return
	case domain.StatusStopped, domain.StatusIdle:
		s.prepared = false
		s.started = false
		s.dropVanishedSelection()
		return
	case domain.StatusPlaying:
		s.started = true
	}

	if s.preparedQueue.IsEmpty() || state.Index < 0 || state.Index >= s.preparedQueue.Len() {
		return
	}
	s.prepared = true

	// Engine navigation (skip, auto-advance) moves the selection
	song := s.preparedQueue.At(state.Index)
	if s.current != nil && s.current.ID == song.ID {
		return
	}
	if idx, ok := s.queue.IndexOf(song.ID); ok {
		s.selectSong(s.queue.At(idx), idx)
		return
	}
	// Still playing from a queue a refresh replaced
	s.selectSong(song, -1)
}

// dropVanishedSelection clears a selection kept only because it was playing
// when a refresh removed it.
func (s *SessionService) dropVanishedSelection() {
	if s.current == nil || s.currentIndex >= 0 {
		return
	}
	s.logger.Debug("clearing selection that left the catalog", slog.String("media_id", s.current.ID))
	s.clearSelection()
}

// PlayFromMediaID plays the song with the given id.
//
// Replaying the current song while it is paused, or while it is still
// buffering, toggles play-when-ready instead of preparing it again. Before the
// catalog is ready the command is held and replayed once it is.
func (s *SessionService) PlayFromMediaID(mediaID string) error {
	var err error
	if doErr := s.loop.Do(func() { err = s.playFromMediaID(mediaID) }); doErr != nil {
		return doErr
	}
	return err
}

func (s *SessionService) playFromMediaID(mediaID string) error {
	if s.closed {
		return domain.ErrSessionClosed
	}

	switch s.readiness {
	case domain.ReadinessNotReady:
		s.logger.Debug("holding play command until catalog is ready", slog.String("media_id", mediaID))
		s.pendingPlays = append(s.pendingPlays, mediaID)
		return nil
	case domain.ReadinessFailed:
		return domain.ErrCatalogUnavailable
	}

	if s.current != nil && s.current.ID == mediaID && s.prepared {
		state := s.engine.State()
		if state.Status == domain.StatusPaused || state.Status == domain.StatusBuffering {
			s.logger.Debug("toggling current song",
				slog.String("media_id", mediaID),
				slog.Bool("play_when_ready", !state.PlayWhenReady))
			return s.engine.SetPlayWhenReady(!state.PlayWhenReady)
		}
	}

	idx, ok := s.queue.IndexOf(mediaID)
	if !ok {
		s.logger.Warn("play request for unknown media id", slog.String("media_id", mediaID))
		return domain.NewServiceError("SessionService", "PlayFromMediaID",
			fmt.Sprintf("unknown media id %q", mediaID), domain.ErrSongNotFound)
	}

	return s.prepareAt(idx, true)
}

// Play starts playback. With nothing prepared, the current song (or the
// first one) is prepared first.
func (s *SessionService) Play() error {
	var err error
	if doErr := s.loop.Do(func() {
		if s.prepared {
			err = s.engine.SetPlayWhenReady(true)
			return
		}
		if s.queue.IsEmpty() {
			err = domain.ErrNotPrepared
			return
		}
		idx := 0
		if s.currentIndex >= 0 {
			idx = s.currentIndex
		}
		err = s.prepareAt(idx, true)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Pause pauses playback.
func (s *SessionService) Pause() error {
	return s.delegate(func() error { return s.engine.SetPlayWhenReady(false) })
}

// Stop stops playback. The selection is kept.
func (s *SessionService) Stop() error {
	return s.delegate(func() error {
		s.prepared = false
		return s.engine.Stop()
	})
}

// SkipToNext moves to the next song. The engine owns the boundary policy.
func (s *SessionService) SkipToNext() error {
	return s.delegate(s.engine.Next)
}

// SkipToPrevious restarts the song or moves to the previous one.
func (s *SessionService) SkipToPrevious() error {
	return s.delegate(s.engine.Previous)
}

// SeekTo moves within the current song. Range checking is left to the engine.
func (s *SessionService) SeekTo(position time.Duration) error {
	return s.delegate(func() error { return s.engine.Seek(position) })
}

func (s *SessionService) delegate(fn func() error) error {
	var err error
	if doErr := s.loop.Do(func() {
		if s.closed {
			err = domain.ErrSessionClosed
			return
		}
		err = fn()
	}); doErr != nil {
		return doErr
	}
	return err
}

// State returns a snapshot of the session.
func (s *SessionService) State() (domain.SessionState, error) {
	var state domain.SessionState
	err := s.loop.Do(func() {
		state = domain.SessionState{
			Readiness: s.readiness,
			Queue:     s.queue.Songs(),
			Prepared:  s.prepared,
			Playback:  s.engine.State(),
		}
		if s.current != nil {
			song := *s.current
			state.Current = &song
		}
	})
	return state, err
}

// Sync waits until everything already posted to the session has run.
func (s *SessionService) Sync() error {
	return s.loop.Do(func() {})
}

// Close tears the session down: the in-flight refresh is cancelled, held
// queries are cancelled, the engine is released and the loop stopped.
// Refresh completions arriving afterwards have no effect.
func (s *SessionService) Close() error {
	already := false
	if err := s.loop.Do(func() {
		if s.closed {
			already = true
			return
		}
		s.closed = true

		if s.cancelRefresh != nil {
			s.cancelRefresh()
			s.cancelRefresh = nil
		}
		for _, f := range s.pendingBrowse {
			f.Cancel()
		}
		s.pendingBrowse = nil
		s.pendingPlays = nil
	}); err != nil || already {
		return nil
	}

	for _, id := range s.subs {
		s.bus.Unsubscribe(id)
	}
	s.subs = nil

	err := s.engine.Release()
	s.cancel()
	s.loop.Close()
	s.waitFetches()

	s.logger.Debug("session closed")
	return err
}

// waitFetches waits for cancelled fetches to return. A store that ignores
// cancellation is abandoned after closeWait; its late result is dropped
// because the loop is already closed.
func (s *SessionService) waitFetches() {
	done := make(chan struct{})
	go func() {
		s.fetches.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.closeWait):
		s.logger.Warn("catalog fetch ignored cancellation, not waiting for it",
			slog.Duration("waited", s.closeWait))
	}
}

// Verify that SessionService implements the Session interface
var _ ports.Session = (*SessionService)(nil)
