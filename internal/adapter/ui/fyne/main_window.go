package fyne

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunestream/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/tunestream/res"
)

// Window defaults.
const (
	AppName = "tunestream"
	Width   = 420
	Height  = 560
)

// MainWindow is the now-playing window.
// It renders the song list and transport bar from the view-model bindings and
// forwards user input to the view-model commands.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	vm     *ViewModel
	logger *slog.Logger

	// UI components
	list           *widget.List
	prevButton     *widget.Button
	playButton     *widget.Button
	stopButton     *widget.Button
	nextButton     *widget.Button
	title          *widget.Label
	artist         *widget.Label
	banner         *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	artwork        *canvas.Image

	// Main-goroutine state
	items     []MediaRow
	artworkID string

	closeOnce sync.Once
}

// MediaRow is a song as displayed in the list.
type MediaRow struct {
	MediaID string
	Text    string
}

// NewMainWindow creates the window over vm.
func NewMainWindow(app fyneapp.App, vm *ViewModel, logger *slog.Logger) *MainWindow {
	w := &MainWindow{
		app:    app,
		vm:     vm,
		logger: logger.With(slog.String("component", "main_window")),
	}

	w.window = app.NewWindow(AppName)
	w.buildUI()
	w.bind()
	w.addShortcuts()

	w.window.Resize(fyneapp.NewSize(Width, Height))
	return w
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	w.artwork = canvas.NewImageFromResource(theme.MediaMusicIcon())
	w.artwork.FillMode = canvas.ImageFillContain
	w.artwork.SetMinSize(fyneapp.NewSize(160, 160))

	w.title = widget.NewLabelWithData(w.vm.CurrentTitle)
	w.title.Truncation = fyneapp.TextTruncateEllipsis
	w.title.TextStyle = fyneapp.TextStyle{Bold: true}
	w.artist = widget.NewLabelWithData(w.vm.CurrentArtist)
	w.artist.Truncation = fyneapp.TextTruncateEllipsis

	w.banner = widget.NewLabel("Catalog unavailable")
	w.banner.Importance = widget.DangerImportance
	w.banner.Hide()

	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() { _ = w.vm.SkipToPrevious() })
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() { _ = w.vm.TogglePlayback() })
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), func() { _ = w.vm.Stop() })
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() { _ = w.vm.SkipToNext() })

	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.1
	w.progressSlider.OnChangeEnded = func(value float64) { _ = w.vm.SeekTo(value) }
	w.currentTime = widget.NewLabel(formatTime(0))
	w.endTime = widget.NewLabel(formatTime(0))

	w.list = widget.NewList(
		func() int {
			return len(w.items)
		},
		func() fyneapp.CanvasObject {
			return widgets.NewDoubleTapLabel(w.onRowDoubleTapped)
		},
		func(i widget.ListItemID, obj fyneapp.CanvasObject) {
			label, ok := obj.(*widgets.DoubleTapLabel)
			if !ok || i < 0 || i >= len(w.items) {
				return
			}
			label.SetIndex(i)
			label.SetText(w.items[i].Text)
		},
	)

	info := container.NewVBox(w.title, w.artist)
	header := container.NewBorder(nil, nil, w.artwork, nil, info)
	buttons := container.NewHBox(w.prevButton, w.playButton, w.stopButton, w.nextButton)
	slider := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)
	controls := container.NewVBox(w.banner, header, buttons, slider)

	w.window.SetContent(container.NewPadded(container.NewBorder(nil, controls, nil, nil, w.list)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// bind attaches listeners to the view-model. Listener callbacks run on the
// Fyne main goroutine.
func (w *MainWindow) bind() {
	w.vm.Songs.AddListener(binding.NewDataListener(w.refreshItems))

	w.vm.IsPlaying.AddListener(binding.NewDataListener(func() {
		playing, _ := w.vm.IsPlaying.Get()
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	}))

	w.vm.Duration.AddListener(binding.NewDataListener(func() {
		duration, _ := w.vm.Duration.Get()
		w.progressSlider.Max = math.Max(duration, 1)
		w.progressSlider.Refresh()
		w.endTime.SetText(formatTime(duration))
	}))

	w.vm.Position.AddListener(binding.NewDataListener(func() {
		position, _ := w.vm.Position.Get()
		w.progressSlider.Value = math.Min(position, w.progressSlider.Max)
		w.progressSlider.Refresh()
		w.currentTime.SetText(formatTime(position))
	}))

	w.vm.NetworkError.AddListener(binding.NewDataListener(func() {
		if failed, _ := w.vm.NetworkError.Get(); failed {
			w.banner.Show()
		} else {
			w.banner.Hide()
		}
	}))

	w.vm.CurrentID.AddListener(binding.NewDataListener(w.selectCurrent))
	w.vm.CurrentArtwork.AddListener(binding.NewDataListener(w.loadArtwork))
}

func (w *MainWindow) refreshItems() {
	items := w.vm.Items()
	rows := make([]MediaRow, len(items))
	for i, item := range items {
		rows[i] = MediaRow{MediaID: item.MediaID, Text: rowText(item.Title, item.Subtitle)}
	}
	w.items = rows
	w.list.Refresh()
	w.selectCurrent()
}

func (w *MainWindow) selectCurrent() {
	id, _ := w.vm.CurrentID.Get()
	if id == "" {
		w.list.UnselectAll()
		return
	}
	for i, row := range w.items {
		if row.MediaID == id {
			w.list.Select(i)
			return
		}
	}
}

// onRowDoubleTapped plays the tapped song, or keeps it playing when it is
// already the current one.
func (w *MainWindow) onRowDoubleTapped(index int) {
	items := w.vm.Items()
	if index < 0 || index >= len(items) {
		return
	}
	_ = w.vm.PlayOrToggle(items[index], false)
}

// loadArtwork fetches the current artwork off the main goroutine.
func (w *MainWindow) loadArtwork() {
	uri, _ := w.vm.CurrentArtwork.Get()
	w.artworkID = uri
	if uri == "" {
		w.artwork.Resource = theme.MediaMusicIcon()
		w.artwork.Refresh()
		return
	}

	go func() {
		resource, err := loadResource(uri)
		if err != nil {
			w.logger.Debug("artwork unavailable", slog.String("uri", uri), slog.Any("error", err))
			resource = theme.MediaMusicIcon()
		}
		fyneapp.Do(func() {
			// A newer selection may have replaced this one
			if w.artworkID != uri {
				return
			}
			w.artwork.Resource = resource
			w.artwork.Refresh()
		})
	}()
}

// loadResource reads artwork from a file:// or http(s):// URI.
func loadResource(uri string) (fyneapp.Resource, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "file", "":
		return fyneapp.LoadResourceFromPath(u.Path)
	case "http", "https":
		return fyneapp.LoadResourceFromURLString(uri)
	default:
		return nil, fmt.Errorf("unsupported artwork scheme %q", u.Scheme)
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	exit := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	exit.IsQuit = true

	about := fyneapp.NewMenuItem("About", func() {
		content := widget.NewRichTextFromMarkdown(res.AboutContent)
		content.Wrapping = fyneapp.TextWrapWord
		dialog.ShowCustom("About "+AppName, "Close", content, w.window)
	})

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", exit),
		fyneapp.NewMenu("Help", about),
	}
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	c := w.window.Canvas()

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		_ = w.vm.TogglePlayback()
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyRight,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		_ = w.vm.SkipToNext()
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyLeft,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		_ = w.vm.SkipToPrevious()
	})
}

// SetOnClosed registers fn to run when the window is closed by the user.
func (w *MainWindow) SetOnClosed(fn func()) {
	w.window.SetOnClosed(fn)
}

// Show shows the window without entering the event loop.
func (w *MainWindow) Show() {
	w.window.Show()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

func rowText(title, subtitle string) string {
	if subtitle == "" {
		return title
	}
	return fmt.Sprintf("%s - %s", title, subtitle)
}

// formatTime renders seconds as mm:ss.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%.2d:%.2d", int(seconds/60), int(math.Mod(seconds, 60)))
}
