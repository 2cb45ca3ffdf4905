// Package fyne provides the Fyne data-binding facade over a session connection.
// Views bind their widgets to the exported bindings and call the commands.
package fyne

import (
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2/data/binding"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/service"
)

// Media-items resource status values.
const (
	StatusLoading = "loading"
	StatusSuccess = "success"
	StatusError   = "error"
)

// ViewModel exposes session state as Fyne data bindings.
//
// Responsibilities:
// - Observe the connection and map session events to bindings
// - Poll the playback position while something is selected
// - Translate UI commands into transport controls
//
// Thread-safety: All operations are thread-safe.
type ViewModel struct {
	// Dependencies
	logger *slog.Logger
	conn   *service.Connection

	// Media items
	Status binding.String
	Songs  binding.UntypedList

	// Connection
	Connected    binding.Bool
	NetworkError binding.Bool

	// Now playing
	CurrentID      binding.String
	CurrentTitle   binding.String
	CurrentArtist  binding.String
	CurrentArtwork binding.String

	// Playback
	PlaybackStatus binding.String
	IsPlaying      binding.Bool
	Position       binding.Float
	Duration       binding.Float

	// Presentation state
	mu       sync.RWMutex
	hasSong  bool
	netErr   bool
	interval time.Duration

	progressTicker   *time.Ticker
	stopProgressChan chan struct{}
	wg               sync.WaitGroup
	shutdownOnce     sync.Once
}

// NewViewModel creates a view-model over conn and takes ownership of it.
// Position is polled every progressInterval; zero disables polling.
func NewViewModel(logger *slog.Logger, conn *service.Connection, progressInterval time.Duration) *ViewModel {
	vm := &ViewModel{
		logger:           logger.With(slog.String("component", "viewmodel")),
		conn:             conn,
		Status:           binding.NewString(),
		Songs:            binding.NewUntypedList(),
		Connected:        binding.NewBool(),
		NetworkError:     binding.NewBool(),
		CurrentID:        binding.NewString(),
		CurrentTitle:     binding.NewString(),
		CurrentArtist:    binding.NewString(),
		CurrentArtwork:   binding.NewString(),
		PlaybackStatus:   binding.NewString(),
		IsPlaying:        binding.NewBool(),
		Position:         binding.NewFloat(),
		Duration:         binding.NewFloat(),
		interval:         progressInterval,
		stopProgressChan: make(chan struct{}),
	}

	conn.Observe(vm.onEvent)
	vm.syncInitialState()

	if progressInterval > 0 {
		vm.startProgressUpdates()
	}
	return vm
}

// syncInitialState copies the connection cache into the bindings.
func (vm *ViewModel) syncInitialState() {
	_ = vm.Connected.Set(vm.conn.IsConnected())

	vm.mu.Lock()
	vm.netErr = vm.conn.NetworkError() != nil
	_ = vm.NetworkError.Set(vm.netErr)
	vm.mu.Unlock()

	if song, ok := vm.conn.CurrentSong(); ok {
		vm.setCurrent(&song)
	} else {
		vm.setCurrent(nil)
	}
	vm.setPlayback(vm.conn.PlaybackState())
}

// Load subscribes to the browse root and fills Songs when it resolves.
func (vm *ViewModel) Load() error {
	_ = vm.Status.Set(StatusLoading)

	f, err := vm.conn.Subscribe(vm.conn.Root())
	if err != nil {
		_ = vm.Status.Set(StatusError)
		return err
	}

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()

		select {
		case <-f.Done():
		case <-vm.stopProgressChan:
			return
		}

		items, _, err := f.Result()
		if err != nil {
			vm.logger.Debug("browse did not complete", slog.Any("error", err))
			_ = vm.Status.Set(StatusError)
			return
		}
		vm.setItems(items)
	}()
	return nil
}

func (vm *ViewModel) setItems(items []domain.MediaItem) {
	values := make([]interface{}, len(items))
	for i, item := range items {
		values[i] = item
	}
	_ = vm.Songs.Set(values)

	// Serialized with onEvent: the network error event follows the empty
	// result it explains
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.netErr {
		_ = vm.Status.Set(StatusError)
		return
	}
	_ = vm.Status.Set(StatusSuccess)
}

func (vm *ViewModel) onEvent(event domain.Event) {
	switch e := event.(type) {
	case domain.SelectionChangedEvent:
		vm.setCurrent(e.Song)
	case domain.PlaybackStateChangedEvent:
		vm.setPlayback(e.State)
	case domain.NetworkErrorEvent:
		vm.mu.Lock()
		vm.netErr = true
		_ = vm.NetworkError.Set(true)
		_ = vm.Status.Set(StatusError)
		vm.mu.Unlock()
	case domain.QueueChangedEvent:
		items := make([]domain.MediaItem, len(e.Queue))
		for i, s := range e.Queue {
			items[i] = s.AsMediaItem()
		}
		vm.mu.Lock()
		vm.netErr = false
		_ = vm.NetworkError.Set(false)
		vm.mu.Unlock()
		vm.setItems(items)
	}
}

func (vm *ViewModel) setCurrent(song *domain.Song) {
	vm.mu.Lock()
	vm.hasSong = song != nil
	vm.mu.Unlock()

	if song == nil {
		_ = vm.CurrentID.Set("")
		_ = vm.CurrentTitle.Set("")
		_ = vm.CurrentArtist.Set("")
		_ = vm.CurrentArtwork.Set("")
		return
	}
	_ = vm.CurrentID.Set(song.ID)
	_ = vm.CurrentTitle.Set(song.Title)
	_ = vm.CurrentArtist.Set(song.Artist)
	_ = vm.CurrentArtwork.Set(song.ArtworkURI)
}

func (vm *ViewModel) setPlayback(state domain.PlaybackState) {
	_ = vm.PlaybackStatus.Set(state.Status.String())
	_ = vm.IsPlaying.Set(state.IsPlaying())
	_ = vm.Position.Set(state.Position.Seconds())
	_ = vm.Duration.Set(state.Duration.Seconds())
}

func (vm *ViewModel) startProgressUpdates() {
	vm.progressTicker = time.NewTicker(vm.interval)

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		for {
			select {
			case <-vm.progressTicker.C:
				vm.updateProgress()
			case <-vm.stopProgressChan:
				return
			}
		}
	}()
}

func (vm *ViewModel) updateProgress() {
	vm.mu.RLock()
	hasSong := vm.hasSong
	vm.mu.RUnlock()

	// Only update if a song is selected
	if !hasSong {
		return
	}

	state, err := vm.conn.Snapshot()
	if err != nil || state.Playback.Duration <= 0 {
		return
	}

	_ = vm.Position.Set(state.Playback.Position.Seconds())
	_ = vm.Duration.Set(state.Playback.Duration.Seconds())
}

// Commands (called by views)

// PlayOrToggle plays item, or toggles it when it is the prepared current song.
//
// For the current song: while playing, toggle pauses it (without toggle the
// call does nothing); while paused or buffering it resumes. A stopped song,
// like any other song, is played again from its media id.
func (vm *ViewModel) PlayOrToggle(item domain.MediaItem, toggle bool) error {
	controls := vm.conn.TransportControls()
	state := vm.conn.PlaybackState()
	current, ok := vm.conn.CurrentSong()

	if ok && state.IsPrepared() && current.ID == item.MediaID {
		switch {
		case state.IsPlaying():
			if toggle {
				return vm.logged("pause", controls.Pause())
			}
			return nil
		case state.IsPlayEnabled():
			return vm.logged("play", controls.Play())
		default:
			return nil
		}
	}

	return vm.logged("play from media id", controls.PlayFromMediaID(item.MediaID))
}

// TogglePlayback plays or pauses the current song. Without a selection the
// first item is played.
func (vm *ViewModel) TogglePlayback() error {
	items := vm.Items()
	if len(items) == 0 {
		return nil
	}

	target := items[0]
	if current, ok := vm.conn.CurrentSong(); ok {
		for _, item := range items {
			if item.MediaID == current.ID {
				target = item
				break
			}
		}
	}
	return vm.PlayOrToggle(target, true)
}

// Stop stops playback and keeps the selection.
func (vm *ViewModel) Stop() error {
	return vm.logged("stop", vm.conn.TransportControls().Stop())
}

// SkipToNext moves to the next song.
func (vm *ViewModel) SkipToNext() error {
	return vm.logged("skip to next", vm.conn.TransportControls().SkipToNext())
}

// SkipToPrevious restarts the song or moves to the previous one.
func (vm *ViewModel) SkipToPrevious() error {
	return vm.logged("skip to previous", vm.conn.TransportControls().SkipToPrevious())
}

// SeekTo moves to seconds within the current song.
func (vm *ViewModel) SeekTo(seconds float64) error {
	position := time.Duration(seconds * float64(time.Second))
	return vm.logged("seek", vm.conn.TransportControls().SeekTo(position))
}

func (vm *ViewModel) logged(op string, err error) error {
	if err != nil {
		vm.logger.Error(op+" failed", slog.Any("error", err))
	}
	return err
}

// Items returns the current media items.
func (vm *ViewModel) Items() []domain.MediaItem {
	values, err := vm.Songs.Get()
	if err != nil {
		return nil
	}
	items := make([]domain.MediaItem, 0, len(values))
	for _, v := range values {
		if item, ok := v.(domain.MediaItem); ok {
			items = append(items, item)
		}
	}
	return items
}

// Shutdown stops polling and disconnects.
// It's safe to call multiple times (idempotent).
func (vm *ViewModel) Shutdown() {
	vm.shutdownOnce.Do(func() {
		if vm.progressTicker != nil {
			vm.progressTicker.Stop()
		}
		close(vm.stopProgressChan)
		vm.wg.Wait()

		vm.conn.Disconnect()
		_ = vm.Connected.Set(false)
	})
}
