package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// ForegroundService keeps the desktop presentation in step with playback.
//
// While a song plays, the process is promoted (idle sleep is inhibited) and
// a persistent notification with transport actions is shown. Pausing keeps
// the notification and demotes the process; stopping or failing removes both.
// Notification actions are routed back to the session.
type ForegroundService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	notifier ports.Notifier
	host     ports.ForegroundHost
	controls ports.TransportControls
	loop     ports.Executor

	// Loop-owned state
	current        *domain.Song
	status         domain.PlaybackStatus
	notificationID uint32
	foreground     bool

	// playing is read by the action router outside the loop
	playing atomic.Bool

	subs []domain.SubscriptionID
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewForegroundService creates the presentation service. It takes ownership
// of loop and starts routing notification actions immediately.
func NewForegroundService(
	logger *slog.Logger,
	bus ports.EventBus,
	notifier ports.Notifier,
	host ports.ForegroundHost,
	controls ports.TransportControls,
	loop ports.Executor,
) *ForegroundService {
	f := &ForegroundService{
		logger:   logger.With(slog.String("service", "foreground")),
		bus:      bus,
		notifier: notifier,
		host:     host,
		controls: controls,
		loop:     loop,
		status:   domain.StatusIdle,
		done:     make(chan struct{}),
	}

	f.subs = append(f.subs,
		bus.Subscribe(domain.EventPlaybackStateChanged, func(event domain.Event) {
			if e, ok := event.(domain.PlaybackStateChangedEvent); ok {
				f.playing.Store(e.State.IsPlaying())
				loop.Post(func() { f.onPlayback(e.State) })
			}
		}),
		bus.Subscribe(domain.EventSelectionChanged, func(event domain.Event) {
			if e, ok := event.(domain.SelectionChangedEvent); ok {
				loop.Post(func() { f.onSelection(e.Song) })
			}
		}),
	)

	f.wg.Add(1)
	go f.routeActions()

	return f
}

func (f *ForegroundService) onSelection(song *domain.Song) {
	f.current = song
	if song == nil {
		return
	}
	// The selection may arrive after the playing state it belongs to
	if f.notificationID != 0 || f.status == domain.StatusPlaying {
		f.showNotification()
	}
}

func (f *ForegroundService) onPlayback(state domain.PlaybackState) {
	previous := f.status
	f.status = state.Status
	if previous == state.Status {
		return
	}

	switch state.Status {
	case domain.StatusPlaying:
		f.promote()
		f.showNotification()
	case domain.StatusPaused:
		f.demote()
		if f.notificationID != 0 {
			// Swap the pause action for play
			f.showNotification()
		}
	case domain.StatusStopped, domain.StatusIdle, domain.StatusError:
		f.closeNotification()
		f.demote()
	case domain.StatusBuffering:
		// Keep whatever is shown until the item is ready
	}
}

func (f *ForegroundService) promote() {
	if f.foreground {
		return
	}
	if err := f.host.Promote("playing music"); err != nil {
		f.logger.Warn("failed to promote process", slog.Any("error", err))
	}
	f.foreground = true
	f.bus.Publish(domain.NewForegroundChangedEvent(true))
}

func (f *ForegroundService) demote() {
	if !f.foreground {
		return
	}
	if err := f.host.Demote(); err != nil {
		f.logger.Warn("failed to demote process", slog.Any("error", err))
	}
	f.foreground = false
	f.bus.Publish(domain.NewForegroundChangedEvent(false))
}

func (f *ForegroundService) showNotification() {
	if f.current == nil {
		return
	}

	toggle := ports.Action{Key: ports.ActionPlayPause, Label: "Pause"}
	if f.status != domain.StatusPlaying {
		toggle.Label = "Play"
	}

	id, err := f.notifier.Notify(ports.Notification{
		Title: f.current.Title,
		Body:  f.current.Artist,
		Icon:  f.current.ArtworkURI,
		Actions: []ports.Action{
			{Key: ports.ActionPrevious, Label: "Previous"},
			toggle,
			{Key: ports.ActionNext, Label: "Next"},
		},
		ReplacesID: f.notificationID,
		Persistent: true,
	})
	if err != nil {
		f.logger.Warn("failed to show notification", slog.Any("error", err))
		return
	}
	f.notificationID = id
}

func (f *ForegroundService) closeNotification() {
	if f.notificationID == 0 {
		return
	}
	if err := f.notifier.Close(f.notificationID); err != nil {
		f.logger.Debug("failed to close notification", slog.Any("error", err))
	}
	f.notificationID = 0
}

// routeActions turns notification buttons into session commands.
func (f *ForegroundService) routeActions() {
	defer f.wg.Done()

	actions := f.notifier.Actions()
	for {
		select {
		case <-f.done:
			return
		case key, ok := <-actions:
			if !ok {
				return
			}
			f.handleAction(key)
		}
	}
}

func (f *ForegroundService) handleAction(key string) {
	var err error
	switch key {
	case ports.ActionPrevious:
		err = f.controls.SkipToPrevious()
	case ports.ActionNext:
		err = f.controls.SkipToNext()
	case ports.ActionPlayPause:
		if f.playing.Load() {
			err = f.controls.Pause()
		} else {
			err = f.controls.Play()
		}
	default:
		f.logger.Debug("ignoring notification action", slog.String("action", key))
		return
	}

	if err != nil {
		f.logger.Warn("notification action failed", slog.String("action", key), slog.Any("error", err))
	}
}

// IsForeground reports whether the process is currently promoted.
func (f *ForegroundService) IsForeground() bool {
	var fg bool
	if err := f.loop.Do(func() { fg = f.foreground }); err != nil {
		return false
	}
	return fg
}

// Shutdown removes the notification, demotes the process and stops routing actions.
func (f *ForegroundService) Shutdown() error {
	f.once.Do(func() {
		for _, id := range f.subs {
			f.bus.Unsubscribe(id)
		}
		f.subs = nil

		_ = f.loop.Do(func() {
			f.closeNotification()
			f.demote()
		})
		f.loop.Close()

		close(f.done)
		f.wg.Wait()
	})
	return nil
}
