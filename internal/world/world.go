// Package world implements the tracked-window snapshot and the
// subscribable world-event stream of spec.md §4.6, §3: WindowInfo,
// WorldWindow, WorldEvent, and the per-subscriber EventCursor with
// lost-event accounting. The fan-out/subscribe shape is grounded in
// zjrosen-perles/internal/pubsub's generic Broker[T] (map of per-
// subscriber channels under a mutex, closed on unsubscribe), adapted from
// its drop-newest overflow policy (perles simply drops the event that
// doesn't fit) to the spec's required drop-oldest-with-lost-count policy:
// a World subscriber must never silently lose track of how much it
// missed.
package world

import (
	"sync"
)

// WindowID identifies a tracked window.
type WindowID uint64

// Rect is a pixel rectangle; kept distinct from internal/geom.Rect to
// avoid a dependency edge from the wire-shaped world model onto the
// placement engine's geometry helpers.
type Rect struct{ X, Y, W, H float64 }

// WindowInfo is the window-level snapshot entity of spec.md §3.
type WindowInfo struct {
	ID            WindowID
	PID           int32
	App           string
	Title         string
	Pos           *Rect
	Space         *int64
	Layer         int32
	Focused       bool
	IsOnScreen    bool
	OnActiveSpace bool
}

// AxProps carries Accessibility-derived capability flags for a window.
type AxProps struct {
	Role       string
	Subrole    string
	CanSetPos  bool
	CanSetSize bool
}

// WindowMode indicates a tracked window's visibility/zoom state.
type WindowMode int

const (
	ModeNormal WindowMode = iota
	ModeMinimized
	ModeZoomed
	ModeFullscreen
)

// Frames is the authoritative placement-relevant state of a tracked
// window.
type Frames struct {
	Authoritative Rect
	Mode          WindowMode
	Scale         float64
}

// WorldWindow is WindowInfo enriched with AX capability info and
// display/z-order, per spec.md §3.
type WorldWindow struct {
	WindowInfo
	Ax        *AxProps
	DisplayID int64
	Z         int
}

// EventKind tags a WorldEvent variant.
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventRemoved
	EventFocusChanged
)

// WorldEvent is a single change to the tracked-window set, per spec.md §3.
type WorldEvent struct {
	Kind   EventKind
	Window WorldWindow // valid for Added/Updated/FocusChanged
	Key    WindowID    // valid for Updated/Removed
	Diff   map[string]any
	Seq    uint64
}

// subscription is one subscriber's bounded event buffer.
type subscription struct {
	mu        sync.Mutex
	buf       []WorldEvent
	cap       int
	lostCount uint64
	notify    chan struct{}
	closed    bool
	filter    FilterFunc
}

func newSubscription(capacity int) *subscription {
	return &subscription{cap: capacity, notify: make(chan struct{}, 1)}
}

func (s *subscription) push(ev WorldEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.buf) >= s.cap {
		// Drop the oldest event and account for it: spec.md §4.6/§8 requires
		// lost_count to never decrease and dropped events to always be
		// reflected there, never silently discarded without a trace.
		s.buf = s.buf[1:]
		s.lostCount++
	}
	s.buf = append(s.buf, ev)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) drain() ([]WorldEvent, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf
	s.buf = nil
	return out, s.lostCount
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.notify)
}

// Subscription is a subscriber's handle onto the world event stream.
type Subscription struct {
	sub   *subscription
	world *World
}

// Next blocks until at least one event is available or the subscription
// is closed, then returns every event queued so far plus the current
// lost_count (spec.md §3's EventCursor).
func (s *Subscription) Next() (events []WorldEvent, lostCount uint64, ok bool) {
	for {
		_, open := <-s.sub.notify
		events, lostCount = s.sub.drain()
		if len(events) > 0 {
			return events, lostCount, true
		}
		if !open {
			return nil, lostCount, false
		}
	}
}

// LostCount returns the subscriber's current lost-event count without
// consuming any buffered events.
func (s *Subscription) LostCount() uint64 {
	s.sub.mu.Lock()
	defer s.sub.mu.Unlock()
	return s.sub.lostCount
}

// Close unsubscribes, releasing the world's reference to this
// subscription.
func (s *Subscription) Close() {
	s.world.mu.Lock()
	delete(s.world.subs, s.sub)
	s.world.mu.Unlock()
	s.sub.close()
}

// Status exposes world-model telemetry per spec.md §4.6.
type Status struct {
	LastTickMs    int64
	CurrentPollMs int64
	ReconcileSeq  uint64
	DebounceCount uint64
	Capabilities  Capabilities
}

// Capabilities reports which OS permissions the world model currently
// has.
type Capabilities struct {
	Accessibility   bool
	ScreenRecording bool
}

// World holds the authoritative snapshot of tracked windows and fans out
// WorldEvents to subscribers. Snapshot reads take the read lock and
// return copies; they are not lock-free.
type World struct {
	mu      sync.RWMutex
	windows map[WindowID]WorldWindow
	subs    map[*subscription]struct{}
	seq     uint64
	status  Status

	pollMinMs int64
	pollMaxMs int64
}

// DefaultSubscriberBuffer is the default bounded-buffer size for a new
// subscription.
const DefaultSubscriberBuffer = 256

// New constructs an empty World with adaptive-poll bounds.
func New(pollMinMs, pollMaxMs int64) *World {
	return &World{
		windows:   make(map[WindowID]WorldWindow),
		subs:      make(map[*subscription]struct{}),
		pollMinMs: pollMinMs,
		pollMaxMs: pollMaxMs,
		status:    Status{CurrentPollMs: pollMinMs},
	}
}

// Subscribe registers a new bounded-buffer subscription.
func (w *World) Subscribe() *Subscription {
	return w.SubscribeWithFilter(nil)
}

// FilterFunc pre-filters events server-side before they reach a
// subscriber's buffer, per spec.md §4.6's subscribe_with_filter.
type FilterFunc func(WorldEvent) bool

// SubscribeWithFilter registers a subscription that only receives events
// for which filter returns true (or every event, if filter is nil).
func (w *World) SubscribeWithFilter(filter FilterFunc) *Subscription {
	sub := newSubscription(DefaultSubscriberBuffer)
	w.mu.Lock()
	w.subs[sub] = struct{}{}
	w.mu.Unlock()
	s := &Subscription{sub: sub, world: w}
	if filter != nil {
		s.sub.filter = filter
	}
	return s
}

// Snapshot returns an immutable copy of every tracked window.
func (w *World) Snapshot() []WorldWindow {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]WorldWindow, 0, len(w.windows))
	for _, ww := range w.windows {
		out = append(out, ww)
	}
	return out
}

// WindowsForPID returns every currently tracked window belonging to pid.
// Used by callers that only know a process, not a WindowID (the AX
// observer's notifications carry a pid but no window identity).
func (w *World) WindowsForPID(pid int32) []WorldWindow {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []WorldWindow
	for _, ww := range w.windows {
		if ww.PID == pid {
			out = append(out, ww)
		}
	}
	return out
}

// Get returns the current snapshot of a single tracked window.
func (w *World) Get(id WindowID) (WorldWindow, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ww, ok := w.windows[id]
	return ww, ok
}

// StatusSnapshot returns the current world status.
func (w *World) StatusSnapshot() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

func (w *World) publish(ev WorldEvent) {
	w.mu.Lock()
	w.seq++
	ev.Seq = w.seq
	w.status.ReconcileSeq = w.seq
	subs := make([]*subscription, 0, len(w.subs))
	for s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()
	for _, s := range subs {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		s.push(ev)
	}
}

// Upsert adds or updates a window in the snapshot and publishes the
// corresponding Added/Updated event.
func (w *World) Upsert(ww WorldWindow) {
	w.mu.Lock()
	_, existed := w.windows[ww.ID]
	w.windows[ww.ID] = ww
	w.mu.Unlock()
	if existed {
		w.publish(WorldEvent{Kind: EventUpdated, Window: ww, Key: ww.ID})
	} else {
		w.publish(WorldEvent{Kind: EventAdded, Window: ww})
	}
}

// Remove drops a window from the snapshot and publishes Removed.
func (w *World) Remove(id WindowID) {
	w.mu.Lock()
	_, existed := w.windows[id]
	delete(w.windows, id)
	w.mu.Unlock()
	if existed {
		w.publish(WorldEvent{Kind: EventRemoved, Key: id})
	}
}

// SetFocused marks id as focused and every other window unfocused,
// publishing FocusChanged.
func (w *World) SetFocused(id WindowID) {
	w.mu.Lock()
	for k, ww := range w.windows {
		ww.Focused = k == id
		w.windows[k] = ww
	}
	focused := w.windows[id]
	w.mu.Unlock()
	w.publish(WorldEvent{Kind: EventFocusChanged, Window: focused})
}

// SetActiveSpaces updates OnActiveSpace for every tracked window given
// the current set of active space ids (spec.md §4.6's active-space
// adoption). A window with a nil Space is treated as sticky/unspaced and
// always considered on the active space.
func (w *World) SetActiveSpaces(activeIDs map[int64]struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ww := range w.windows {
		onActive := ww.Space == nil
		if ww.Space != nil {
			_, onActive = activeIDs[*ww.Space]
		}
		ww.OnActiveSpace = onActive
		w.windows[id] = ww
	}
}

// HintRefresh records a request for an earlier reconciliation pass by
// bumping the reconcile sequence (Status.ReconcileSeq) at once. The World
// does not run reconciliation itself (cmd/hotki's reconcileLoop does, on
// a fixed ticker; axbridge is the caller of HintRefresh), and nothing
// reads this bump to schedule an earlier pass.
func (w *World) HintRefresh() {
	w.mu.Lock()
	w.seq++
	w.status.ReconcileSeq = w.seq
	w.mu.Unlock()
}

// SetPollMs records the adaptive poll interval currently in effect,
// clamped to the configured [min, max] bounds.
func (w *World) SetPollMs(ms int64) {
	if ms < w.pollMinMs {
		ms = w.pollMinMs
	}
	if ms > w.pollMaxMs {
		ms = w.pollMaxMs
	}
	w.mu.Lock()
	w.status.CurrentPollMs = ms
	w.mu.Unlock()
}

// SetCapabilities records the currently-granted OS permissions.
func (w *World) SetCapabilities(c Capabilities) {
	w.mu.Lock()
	w.status.Capabilities = c
	w.mu.Unlock()
}
