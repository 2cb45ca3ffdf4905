//go:build linux

package notify

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	signalActionInvoked = dbusNotifyInterface + ".ActionInvoked"
	signalClosed        = dbusNotifyInterface + ".NotificationClosed"
)

// dbusNotifier sends notifications via D-Bus and listens for action invocations.
type dbusNotifier struct {
	logger *slog.Logger
	opts   Options
	conn   *dbus.Conn
	obj    dbus.BusObject

	signals chan *dbus.Signal
	actions chan string

	mu   sync.Mutex
	live map[uint32]bool

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a Notifier that sends desktop notifications via D-Bus.
// Returns a no-op notifier if D-Bus is unavailable.
func New(logger *slog.Logger, opts Options) ports.Notifier {
	logger = logger.With(slog.String("adapter", "notify"))

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Info("D-Bus session bus unavailable, notifications disabled", slog.Any("error", err))
		return NewStub()
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
	); err != nil {
		logger.Warn("cannot subscribe to notification signals", slog.Any("error", err))
	}

	n := &dbusNotifier{
		logger:  logger,
		opts:    opts,
		conn:    conn,
		obj:     conn.Object(dbusNotifyDest, dbusNotifyPath),
		signals: make(chan *dbus.Signal, 16),
		actions: make(chan string, 8),
		live:    make(map[uint32]bool),
		done:    make(chan struct{}),
	}
	conn.Signal(n.signals)

	n.wg.Add(1)
	go n.dispatch()

	return n
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif ports.Notification) (uint32, error) {
	timeout := int32(-1)
	if notif.Persistent {
		timeout = 0
	}

	// D-Bus Notify method signature:
	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		n.opts.AppName,
		notif.ReplacesID,
		appIcon(notif.Icon),
		notif.Title,
		notif.Body,
		flattenActions(notif.Actions),
		buildHints(notif, n.opts.DesktopEntry),
		timeout,
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	n.mu.Lock()
	n.live[id] = true
	n.mu.Unlock()
	return id, nil
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	n.mu.Lock()
	delete(n.live, id)
	n.mu.Unlock()

	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

func (n *dbusNotifier) Actions() <-chan string {
	return n.actions
}

// dispatch forwards action invocations for notifications this process owns.
func (n *dbusNotifier) dispatch() {
	defer n.wg.Done()
	defer close(n.actions)

	for {
		select {
		case <-n.done:
			return
		case sig, ok := <-n.signals:
			if !ok {
				return
			}
			n.handleSignal(sig)
		}
	}
}

func (n *dbusNotifier) handleSignal(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	n.mu.Lock()
	owned := n.live[id]
	if sig.Name == signalClosed {
		delete(n.live, id)
	}
	n.mu.Unlock()

	if !owned || sig.Name != signalActionInvoked {
		return
	}
	key, ok := sig.Body[1].(string)
	if !ok {
		return
	}

	select {
	case n.actions <- key:
	case <-n.done:
	}
}

// Shutdown stops listening and closes the bus connection.
func (n *dbusNotifier) Shutdown() error {
	var err error
	n.once.Do(func() {
		n.conn.RemoveSignal(n.signals)
		close(n.done)
		n.wg.Wait()
		err = n.conn.Close()
	})
	return err
}

// flattenActions renders actions as the key, label, key, label... list D-Bus expects.
func flattenActions(actions []ports.Action) []string {
	out := make([]string, 0, len(actions)*2)
	for _, a := range actions {
		out = append(out, a.Key, a.Label)
	}
	return out
}

func buildHints(notif ports.Notification, desktopEntry string) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"category": dbus.MakeVariant("x-tunestream.playback"),
	}
	if desktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(desktopEntry)
	}
	if notif.Persistent {
		hints["resident"] = dbus.MakeVariant(true)
		hints["transient"] = dbus.MakeVariant(false)
	}
	if strings.HasPrefix(notif.Icon, "file://") {
		hints["image-path"] = dbus.MakeVariant(notif.Icon)
	}
	return hints
}

// appIcon returns the icon argument; remote artwork cannot be loaded by the server.
func appIcon(icon string) string {
	switch {
	case strings.HasPrefix(icon, "http://"), strings.HasPrefix(icon, "https://"):
		return ""
	case strings.HasPrefix(icon, "file://"):
		return strings.TrimPrefix(icon, "file://")
	default:
		return icon
	}
}
