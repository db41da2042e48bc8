// Package axobserver implements the per-PID Accessibility observer
// registry of spec.md §4.6: one AXObserver per watched process, attached
// lazily and torn down when the process's last window disappears,
// translating AX notifications into world.WorldEvent-shaped updates.
//
// Grounded in original_source/crates/mac-winops/src/ax_observer.rs's
// per-PID observer scaffolding (one observer per PID, idempotent
// attach/detach, notification-to-event translation) and
// gioui-gio/app/os_darwin.go's registry-of-callback-contexts pattern
// (there keyed by view handle via cgo.Handle; here keyed by pid via a
// plain map, since a single registry owns the lifecycle rather than
// many independent per-view handles). The pure translation and registry
// bookkeeping below are OS-independent and tested directly; the actual
// AXObserverCreate/AXObserverAddNotification calls live in
// observer_darwin.go.
package axobserver

// Notification identifies one of the AX notifications spec.md §4.6
// subscribes to.
type Notification int

const (
	NotificationWindowCreated Notification = iota
	NotificationUIElementDestroyed
	NotificationFocusedWindowChanged
	NotificationTitleChanged
	NotificationMoved
	NotificationResized
)

// notificationNames is the canonical AX notification string for each
// Notification, matching spec.md §4.6's subscribed-notifications list.
var notificationNames = map[Notification]string{
	NotificationWindowCreated:        "AXWindowCreated",
	NotificationUIElementDestroyed:   "AXUIElementDestroyed",
	NotificationFocusedWindowChanged: "AXFocusedWindowChanged",
	NotificationTitleChanged:         "AXTitleChanged",
	NotificationMoved:                "AXMoved",
	NotificationResized:              "AXResized",
}

// Name returns the canonical AX notification string for n.
func (n Notification) Name() string { return notificationNames[n] }

// AllNotifications is the fixed set of notifications registered for
// every observed application, per spec.md §4.6.
var AllNotifications = []Notification{
	NotificationWindowCreated,
	NotificationUIElementDestroyed,
	NotificationFocusedWindowChanged,
	NotificationTitleChanged,
	NotificationMoved,
	NotificationResized,
}

// Hint carries whatever window attributes a notification's callback
// could cheaply read off the AX element at the moment it fired.
type Hint struct {
	Title       string
	Role        string
	Subrole     string
	HasPosition bool
	X, Y        float64
	HasSize     bool
	W, H        float64
}

// EventKind mirrors internal/world's EventKind without importing it, so
// this package's translation logic stays independent of the world
// model's subscription machinery; the registry's caller maps these onto
// world.EventKind when publishing.
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventRemoved
	EventFocusChanged
)

// Event is the translated, OS-independent shape of one AX notification.
type Event struct {
	PID  int32
	Kind EventKind
	Hint Hint
}

// Translate maps a raw Notification plus its Hint into an Event. Window
// creation/destruction map directly; focus changes report
// EventFocusChanged; title/move/resize changes on the currently observed
// window all surface as EventUpdated, since the world model's Upsert
// collapses field-level diffs itself.
func Translate(pid int32, n Notification, hint Hint) Event {
	var kind EventKind
	switch n {
	case NotificationWindowCreated:
		kind = EventAdded
	case NotificationUIElementDestroyed:
		kind = EventRemoved
	case NotificationFocusedWindowChanged:
		kind = EventFocusChanged
	default:
		kind = EventUpdated
	}
	return Event{PID: pid, Kind: kind, Hint: hint}
}
