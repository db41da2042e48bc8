package axobserver

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Backend attaches/detaches the real OS-level observer for one pid. The
// darwin implementation (observer_darwin.go) wraps
// AXObserverCreate/AXObserverAddNotification/AXObserverGetRunLoopSource;
// tests use a mock.
type Backend interface {
	Attach(pid int32, onEvent func(Event)) (handle interface{}, err error)
	Detach(handle interface{})
}

// hintCacheSize bounds the per-pid last-seen-Hint cache: observed pids
// rarely number more than a few dozen at once, and an evicted entry just
// means the next lookup misses rather than anything breaking.
const hintCacheSize = 256

// Registry owns one attached observer per pid, per spec.md §4.6: ensure
// is idempotent (a pid already attached is a no-op), remove tears down
// and forgets the pid. It also caches the most recent Hint per pid, so a
// caller that only needs "what did AX last tell us about this process"
// doesn't have to wait for another notification or issue a fresh
// AXUIElementCopyAttributeValue round-trip.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	onEvent func(Event)
	active  map[int32]interface{}
	hints   *lru.Cache
}

// New constructs a Registry. onEvent receives every translated AX event
// from every attached pid; callers typically wire this into
// internal/world's Upsert/Remove/SetFocused.
func New(backend Backend, onEvent func(Event)) *Registry {
	hints, _ := lru.New(hintCacheSize)
	return &Registry{
		backend: backend,
		onEvent: onEvent,
		active:  make(map[int32]interface{}),
		hints:   hints,
	}
}

// LastHint returns the most recently observed Hint for pid, if any event
// has arrived for it since the pid was last attached.
func (r *Registry) LastHint(pid int32) (Hint, bool) {
	v, ok := r.hints.Get(pid)
	if !ok {
		return Hint{}, false
	}
	return v.(Hint), true
}

// deliver caches ev's Hint for its pid before forwarding ev to the
// registered onEvent callback.
func (r *Registry) deliver(ev Event) {
	r.hints.Add(ev.PID, ev.Hint)
	r.onEvent(ev)
}

// Ensure attaches an observer for pid if one is not already active.
// Returns nil without attaching if pid is already tracked.
func (r *Registry) Ensure(pid int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[pid]; ok {
		return nil
	}
	handle, err := r.backend.Attach(pid, r.deliver)
	if err != nil {
		return err
	}
	r.active[pid] = handle
	return nil
}

// Remove detaches pid's observer, if any. It is a no-op for an
// untracked pid.
func (r *Registry) Remove(pid int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.active[pid]
	if !ok {
		return
	}
	r.backend.Detach(handle)
	delete(r.active, pid)
	r.hints.Remove(pid)
}

// ActivePIDs returns the currently tracked pids, for diagnostics and
// tests.
func (r *Registry) ActivePIDs() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	pids := make([]int32, 0, len(r.active))
	for pid := range r.active {
		pids = append(pids, pid)
	}
	return pids
}

// RemoveAll detaches every tracked pid, for shutdown.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, handle := range r.active {
		r.backend.Detach(handle)
		delete(r.active, pid)
		r.hints.Remove(pid)
	}
}
