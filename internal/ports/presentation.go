package ports

// Notification contains the data of a persistent playback notification.
type Notification struct {
	Title      string   // Summary text (required)
	Body       string   // Body text
	Icon       string   // Artwork URI or icon name
	Actions    []Action // Transport actions offered by the notification
	ReplacesID uint32   // 0 = new notification, >0 = replace existing
	Persistent bool     // true = never expires
}

// Action is a notification button.
type Action struct {
	Key   string
	Label string
}

// Notification action keys routed back into the session as transport commands.
const (
	ActionPrevious  = "previous"
	ActionPlayPause = "play-pause"
	ActionNext      = "next"
)

// Notifier shows desktop notifications.
type Notifier interface {
	// Notify shows or replaces a notification and returns its ID.
	// Returns 0 and nil error if notifications are unavailable.
	Notify(n Notification) (uint32, error)

	// Close dismisses a notification by ID.
	Close(id uint32) error

	// Actions delivers the keys of invoked notification actions.
	// The channel is closed when the notifier is shut down.
	Actions() <-chan string

	// Shutdown releases the notifier's resources.
	Shutdown() error
}

// ForegroundHost promotes the hosting process while media is playing.
type ForegroundHost interface {
	// Promote marks the process as actively playing (e.g., blocks idle sleep).
	// Calling Promote while promoted is a no-op.
	Promote(reason string) error

	// Demote reverts Promote. Calling Demote while not promoted is a no-op.
	Demote() error
}
