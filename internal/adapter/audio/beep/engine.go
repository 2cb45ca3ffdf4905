// Package beep provides a gopxl/beep playback engine implementing ports.PlaybackEngine.
// Items are fetched over HTTP or from disk, decoded in memory and played
// through the system speaker.
package beep

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

const (
	// DefaultSampleRate is the speaker rate used when none is configured.
	DefaultSampleRate = 44100

	// DefaultBufferDuration is the speaker buffer used when none is configured.
	DefaultBufferDuration = 100 * time.Millisecond

	// DefaultMaxMediaSize caps a downloaded item.
	DefaultMaxMediaSize = 256 << 20

	// restartThreshold is how far into an item Previous restarts instead of going back.
	restartThreshold = 3 * time.Second

	// resampleQuality is passed to beep.Resample.
	resampleQuality = 4
)

// Engine is the beep implementation of ports.PlaybackEngine.
//
// Preparing an item starts an asynchronous load (download and decode); the
// engine reports buffering until it completes. Reaching the end of an item
// advances to the next one; the end of the queue stops playback.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex.
type Engine struct {
	// Dependencies
	logger *slog.Logger
	bus    ports.EventBus
	out    output
	client *http.Client

	// Configuration
	sampleRate   beep.SampleRate
	bufferSize   int
	maxMediaSize int64

	mu sync.Mutex

	// Queue state
	queue    []domain.Song
	index    int
	status   domain.PlaybackStatus
	pwr      bool
	lastErr  error
	released bool

	// Current item
	item        *media
	ctrl        *beep.Ctrl
	pendingSeek time.Duration
	outputReady bool

	// Load generation; bumped whenever the current item is replaced
	gen        uint64
	cancelLoad context.CancelFunc

	finished chan uint64
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewEngine creates an engine playing through the system speaker.
// The speaker is opened lazily on the first successful load.
// A nil client uses http.DefaultClient.
func NewEngine(logger *slog.Logger, bus ports.EventBus, cfg ports.PlaybackEngineConfig, client *http.Client) *Engine {
	return newEngine(logger, bus, cfg, client, speakerOutput{})
}

func newEngine(logger *slog.Logger, bus ports.EventBus, cfg ports.PlaybackEngineConfig, client *http.Client, out output) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = DefaultBufferDuration
	}

	sr := beep.SampleRate(cfg.SampleRate)
	e := &Engine{
		logger:       logger.With(slog.String("engine", "beep")),
		bus:          bus,
		out:          out,
		client:       client,
		sampleRate:   sr,
		bufferSize:   sr.N(cfg.BufferDuration),
		maxMediaSize: DefaultMaxMediaSize,
		index:        -1,
		status:       domain.StatusIdle,
		pendingSeek:  -1,
		finished:     make(chan uint64, 1),
		done:         make(chan struct{}),
	}

	e.wg.Add(1)
	go e.watchFinished()

	return e
}

// Prepare replaces the queue and starts loading the item at startIndex.
func (e *Engine) Prepare(queue []domain.Song, startIndex int) error {
	e.mu.Lock()

	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if startIndex < 0 || startIndex >= len(queue) {
		e.mu.Unlock()
		return domain.ErrInvalidIndex
	}

	e.queue = append([]domain.Song(nil), queue...)
	// A new queue always starts paused; callers opt in with SetPlayWhenReady
	e.pwr = false
	e.logger.Debug("prepare", slog.Int("items", len(queue)), slog.Int("start", startIndex))
	state := e.loadLocked(startIndex)
	e.mu.Unlock()

	e.publish(state)
	return nil
}

// loadLocked drops the current item and starts loading queue[idx].
func (e *Engine) loadLocked(idx int) domain.PlaybackState {
	e.dropItemLocked()

	e.index = idx
	e.status = domain.StatusBuffering
	e.lastErr = nil
	e.pendingSeek = -1

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelLoad = cancel

	gen := e.gen
	song := e.queue[idx]

	e.wg.Add(1)
	go e.load(ctx, gen, song)

	return e.snapshotLocked()
}

// dropItemLocked cancels any load in flight and closes the current item.
func (e *Engine) dropItemLocked() {
	e.gen++
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	if e.item != nil {
		e.out.Clear()
		e.item.Close()
		e.item = nil
		e.ctrl = nil
	}
}

// load runs on its own goroutine; results for a superseded generation are discarded.
func (e *Engine) load(ctx context.Context, gen uint64, song domain.Song) {
	defer e.wg.Done()

	start := time.Now()
	item, err := e.open(ctx, song.MediaURI)

	e.mu.Lock()
	if gen != e.gen || e.released {
		e.mu.Unlock()
		if item != nil {
			item.Close()
		}
		return
	}

	if err == nil {
		err = e.startLocked(gen, item)
	}
	if err != nil {
		if item != nil {
			item.Close()
		}
		cause := domain.NewEngineError("prepare", song.MediaURI, err)
		e.status = domain.StatusError
		e.lastErr = cause
		index := e.index
		state := e.snapshotLocked()
		e.mu.Unlock()

		e.logger.Error("load failed", slog.String("media_id", song.ID), slog.Any("error", cause))
		e.publishEvent(domain.NewPlaybackErrorEvent(index, cause))
		e.publish(state)
		return
	}

	state := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug("item ready",
		slog.String("media_id", song.ID),
		slog.Duration("duration", state.Duration),
		slog.Duration("took", time.Since(start)),
	)
	e.publish(state)
}

// startLocked hands a decoded item to the output, paused unless play-when-ready is set.
func (e *Engine) startLocked(gen uint64, item *media) error {
	if !e.outputReady {
		if err := e.out.Init(e.sampleRate, e.bufferSize); err != nil {
			return err
		}
		e.outputReady = true
	}

	if e.pendingSeek >= 0 {
		pos := clamp(e.pendingSeek, item.format.SampleRate.D(item.stream.Len()))
		if err := item.stream.Seek(item.format.SampleRate.N(pos)); err != nil {
			return err
		}
		e.pendingSeek = -1
	}

	var s beep.Streamer = item.stream
	if item.format.SampleRate != e.sampleRate {
		s = beep.Resample(resampleQuality, item.format.SampleRate, e.sampleRate, item.stream)
	}

	e.item = item
	e.ctrl = &beep.Ctrl{Streamer: s, Paused: !e.pwr}
	e.status = e.readyStatusLocked()

	e.out.Play(beep.Seq(e.ctrl, beep.Callback(func() {
		// Runs on the output goroutine with the output locked
		select {
		case e.finished <- gen:
		default:
		}
	})))
	return nil
}

// watchFinished advances the queue when an item runs out.
func (e *Engine) watchFinished() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case gen := <-e.finished:
			e.handleFinished(gen)
		}
	}
}

func (e *Engine) handleFinished(gen uint64) {
	e.mu.Lock()
	if e.released || gen != e.gen {
		e.mu.Unlock()
		return
	}

	var state domain.PlaybackState
	if e.index < len(e.queue)-1 {
		state = e.loadLocked(e.index + 1)
	} else {
		e.dropItemLocked()
		e.status = domain.StatusStopped
		state = e.snapshotLocked()
	}
	e.mu.Unlock()

	e.publish(state)
}

func (e *Engine) readyStatusLocked() domain.PlaybackStatus {
	if e.pwr {
		return domain.StatusPlaying
	}
	return domain.StatusPaused
}

// SetPlayWhenReady starts or pauses playback of the prepared item.
func (e *Engine) SetPlayWhenReady(playWhenReady bool) error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}

	e.pwr = playWhenReady
	if e.ctrl != nil {
		e.out.Lock()
		e.ctrl.Paused = !playWhenReady
		e.out.Unlock()
		e.status = e.readyStatusLocked()
	}
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(state)
	return nil
}

// Seek moves within the current item, clamped to its length.
// While the item is still loading the position is applied once it is ready.
func (e *Engine) Seek(position time.Duration) error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}

	switch {
	case e.item != nil:
		if err := e.seekLocked(position); err != nil {
			e.mu.Unlock()
			return err
		}
	case e.status == domain.StatusBuffering:
		e.pendingSeek = max(position, 0)
	default:
		e.mu.Unlock()
		return domain.ErrNotPrepared
	}
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(state)
	return nil
}

func (e *Engine) seekLocked(position time.Duration) error {
	f := e.item.format
	position = clamp(position, f.SampleRate.D(e.item.stream.Len()))

	e.out.Lock()
	err := e.item.stream.Seek(f.SampleRate.N(position))
	e.out.Unlock()
	if err != nil {
		return domain.NewEngineError("seek", e.queue[e.index].MediaURI, err)
	}
	return nil
}

// Next moves to the next queue item. At the last item it does nothing.
func (e *Engine) Next() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return domain.ErrNotPrepared
	}
	if e.index >= len(e.queue)-1 {
		e.mu.Unlock()
		return nil
	}

	state := e.loadLocked(e.index + 1)
	e.mu.Unlock()

	e.publish(state)
	return nil
}

// Previous restarts the current item when more than three seconds in or at
// the first item, and moves back otherwise.
func (e *Engine) Previous() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return domain.ErrNotPrepared
	}

	var state domain.PlaybackState
	if e.positionLocked() > restartThreshold || e.index == 0 {
		if e.item != nil {
			if err := e.seekLocked(0); err != nil {
				e.mu.Unlock()
				return err
			}
		}
		state = e.snapshotLocked()
	} else {
		state = e.loadLocked(e.index - 1)
	}
	e.mu.Unlock()

	e.publish(state)
	return nil
}

// Stop stops playback and drops the current item. The queue is kept.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return domain.ErrEngineReleased
	}

	e.dropItemLocked()
	e.status = domain.StatusStopped
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(state)
	return nil
}

// Release stops playback, waits for loads in flight and closes the output.
// It's safe to call multiple times (idempotent).
func (e *Engine) Release() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return nil
	}
	e.released = true
	e.dropItemLocked()
	e.status = domain.StatusIdle
	outputReady := e.outputReady
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()

	if outputReady {
		e.out.Close()
	}
	e.logger.Debug("released")
	return nil
}

// State returns a snapshot of the current playback state.
func (e *Engine) State() domain.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) positionLocked() time.Duration {
	if e.item == nil {
		return 0
	}
	e.out.Lock()
	defer e.out.Unlock()
	return e.item.format.SampleRate.D(e.item.stream.Position())
}

func (e *Engine) snapshotLocked() domain.PlaybackState {
	state := domain.PlaybackState{
		Status:        e.status,
		Index:         e.index,
		PlayWhenReady: e.pwr,
		Err:           e.lastErr,
	}
	if e.item != nil {
		state.Position = e.positionLocked()
		state.Duration = e.item.format.SampleRate.D(e.item.stream.Len())
	}
	return state
}

func (e *Engine) publish(state domain.PlaybackState) {
	e.publishEvent(domain.NewPlaybackStateChangedEvent(state))
}

func (e *Engine) publishEvent(event domain.Event) {
	e.mu.Lock()
	released := e.released
	e.mu.Unlock()
	if released || e.bus == nil {
		return
	}
	e.bus.Publish(event)
}

func clamp(position, length time.Duration) time.Duration {
	if position < 0 {
		return 0
	}
	if length > 0 && position > length {
		return length
	}
	return position
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
