// Package mock provides a mock implementation of the PlaybackEngine interface.
// This is used for testing the session without decoding or outputting audio.
package mock

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// DefaultDuration is the simulated length of every item.
const DefaultDuration = 3 * time.Minute

// restartThreshold is how far into an item Previous restarts instead of going back.
const restartThreshold = 3 * time.Second

// Engine is a mock implementation of the PlaybackEngine interface.
// It simulates preparation and playback in memory and publishes state changes
// on the event bus synchronously, from the goroutine that caused them.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	bus    ports.EventBus
	logger *slog.Logger

	mu sync.Mutex

	// Queue state
	queue    []domain.Song
	index    int
	position time.Duration
	status   domain.PlaybackStatus
	pwr      bool
	lastErr  error
	released bool

	// Behavior configuration (for testing)
	autoReady   bool
	failPrepare bool

	// Call recording (for testing)
	prepareCalls int
	lastStart    int
	pwrCalls     []bool
}

// NewEngine creates a new mock playback engine.
// Prepared items become ready immediately unless SetAutoReady(false) is called.
func NewEngine(bus ports.EventBus, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		bus:       bus,
		logger:    logger.With(slog.String("engine", "mock")),
		index:     -1,
		lastStart: -1,
		status:    domain.StatusIdle,
		autoReady: true,
	}
}

// SetAutoReady controls whether Prepare and navigation finish buffering on their own.
func (m *Engine) SetAutoReady(auto bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReady = auto
}

// SetFailPrepare configures the mock to fail Prepare (for testing).
func (m *Engine) SetFailPrepare(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPrepare = fail
}

// Prepare replaces the queue and starts buffering the item at startIndex.
func (m *Engine) Prepare(queue []domain.Song, startIndex int) error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}
	m.prepareCalls++

	if m.failPrepare {
		m.mu.Unlock()
		return domain.NewEngineError("prepare", "", errors.New("mock prepare failed"))
	}
	if startIndex < 0 || startIndex >= len(queue) {
		m.mu.Unlock()
		return domain.ErrInvalidIndex
	}

	m.queue = append([]domain.Song(nil), queue...)
	m.lastStart = startIndex
	m.index = startIndex
	m.lastErr = nil
	m.logger.Debug("prepare", slog.Int("items", len(queue)), slog.Int("start", startIndex))

	states := m.loadCurrentLocked()
	m.mu.Unlock()

	m.publish(states...)
	return nil
}

// loadCurrentLocked moves to the buffering state for the item at m.index and,
// with auto-ready on, straight on to the ready state.
// It returns the states to publish once the lock is released.
func (m *Engine) loadCurrentLocked() []domain.PlaybackState {
	m.position = 0
	m.status = domain.StatusBuffering
	states := []domain.PlaybackState{m.snapshotLocked()}

	if m.autoReady {
		m.status = m.readyStatusLocked()
		states = append(states, m.snapshotLocked())
	}
	return states
}

func (m *Engine) readyStatusLocked() domain.PlaybackStatus {
	if m.pwr {
		return domain.StatusPlaying
	}
	return domain.StatusPaused
}

// SetPlayWhenReady starts or pauses playback of the prepared item.
func (m *Engine) SetPlayWhenReady(playWhenReady bool) error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}

	m.pwrCalls = append(m.pwrCalls, playWhenReady)
	m.pwr = playWhenReady
	if m.status == domain.StatusPlaying || m.status == domain.StatusPaused {
		m.status = m.readyStatusLocked()
	}
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(state)
	return nil
}

// Seek moves within the current item, clamped to its bounds.
func (m *Engine) Seek(position time.Duration) error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if !m.preparedLocked() {
		m.mu.Unlock()
		return domain.ErrNotPrepared
	}

	m.position = clamp(position, 0, DefaultDuration)
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(state)
	return nil
}

// Next moves to the next item. At the last item it does nothing.
func (m *Engine) Next() error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return domain.ErrNotPrepared
	}
	if m.index >= len(m.queue)-1 {
		m.mu.Unlock()
		return nil
	}

	m.index++
	states := m.loadCurrentLocked()
	m.mu.Unlock()

	m.publish(states...)
	return nil
}

// Previous restarts the current item when past the restart threshold or at
// the first item, otherwise moves back one item.
func (m *Engine) Previous() error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return domain.ErrNotPrepared
	}

	var states []domain.PlaybackState
	if m.index <= 0 || m.position > restartThreshold {
		m.position = 0
		states = []domain.PlaybackState{m.snapshotLocked()}
	} else {
		m.index--
		states = m.loadCurrentLocked()
	}
	m.mu.Unlock()

	m.publish(states...)
	return nil
}

// Stop stops playback and drops the prepared item. The queue is kept.
func (m *Engine) Stop() error {
	m.mu.Lock()

	if m.released {
		m.mu.Unlock()
		return domain.ErrEngineReleased
	}

	m.status = domain.StatusStopped
	m.position = 0
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(state)
	return nil
}

// Release stops playback and detaches the event bus.
// Calling Release more than once is a no-op.
func (m *Engine) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil
	}

	m.released = true
	m.status = domain.StatusIdle
	m.queue = nil
	m.index = -1
	m.bus = nil
	return nil
}

// State returns a snapshot of the current playback state.
func (m *Engine) State() domain.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Engine) preparedLocked() bool {
	return m.status == domain.StatusBuffering ||
		m.status == domain.StatusPlaying ||
		m.status == domain.StatusPaused
}

func (m *Engine) snapshotLocked() domain.PlaybackState {
	state := domain.PlaybackState{
		Status:        m.status,
		Index:         m.index,
		Position:      m.position,
		PlayWhenReady: m.pwr,
		Err:           m.lastErr,
	}
	if m.preparedLocked() {
		state.Duration = DefaultDuration
	}
	return state
}

func (m *Engine) publish(states ...domain.PlaybackState) {
	m.mu.Lock()
	bus := m.bus
	m.mu.Unlock()

	if bus == nil {
		return
	}
	for _, s := range states {
		bus.Publish(domain.NewPlaybackStateChangedEvent(s))
	}
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// SimulateReady finishes buffering of the current item (for testing).
func (m *Engine) SimulateReady() {
	m.mu.Lock()
	if m.status != domain.StatusBuffering {
		m.mu.Unlock()
		return
	}
	m.status = m.readyStatusLocked()
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(state)
}

// SimulateProgress advances the playback position (for testing).
// Reaching the end of the item behaves like SimulateFinish.
func (m *Engine) SimulateProgress(delta time.Duration) {
	m.mu.Lock()
	if m.status != domain.StatusPlaying {
		m.mu.Unlock()
		return
	}
	m.position += delta
	if m.position < DefaultDuration {
		state := m.snapshotLocked()
		m.mu.Unlock()
		m.publish(state)
		return
	}
	m.mu.Unlock()

	m.SimulateFinish()
}

// SimulateFinish ends the current item (for testing). The engine advances to
// the next item, or stops after the last one.
func (m *Engine) SimulateFinish() {
	m.mu.Lock()
	if !m.preparedLocked() {
		m.mu.Unlock()
		return
	}

	var states []domain.PlaybackState
	if m.index < len(m.queue)-1 {
		m.index++
		states = m.loadCurrentLocked()
	} else {
		m.status = domain.StatusStopped
		m.position = 0
		states = []domain.PlaybackState{m.snapshotLocked()}
	}
	m.mu.Unlock()

	m.publish(states...)
}

// SimulateError puts the engine into the error state (for testing).
func (m *Engine) SimulateError(cause error) {
	m.mu.Lock()
	uri := ""
	if m.index >= 0 && m.index < len(m.queue) {
		uri = m.queue[m.index].MediaURI
	}
	m.lastErr = domain.NewEngineError("decode", uri, cause)
	m.status = domain.StatusError
	state := m.snapshotLocked()
	index := m.index
	bus := m.bus
	m.mu.Unlock()

	if bus != nil {
		bus.Publish(domain.NewPlaybackErrorEvent(index, state.Err))
	}
	m.publish(state)
}

// PrepareCalls returns how many times Prepare was called (for testing).
func (m *Engine) PrepareCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepareCalls
}

// LastPrepare returns the queue and start index of the last successful Prepare (for testing).
func (m *Engine) LastPrepare() ([]domain.Song, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Song(nil), m.queue...), m.lastStart
}

// PlayWhenReadyCalls returns the values passed to SetPlayWhenReady (for testing).
func (m *Engine) PlayWhenReadyCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.pwrCalls...)
}

// IsReleased reports whether Release was called (for testing).
func (m *Engine) IsReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
