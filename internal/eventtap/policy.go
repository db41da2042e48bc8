// Package eventtap implements the pure decision logic of spec.md §4.1's
// event-tap pipeline: given the current suspend/capture-all state and a
// key event's match classification, decide whether to emit the event to
// the engine queue and whether to intercept it (drop it from reaching
// the foreground app). The CGEventTap installation, runloop wiring, and
// synthetic-event tagging are a thin darwin-cgo layer (eventtap_darwin.go)
// around this table so the policy itself can be exercised without macOS.
//
// Grounded in gioui-gio/app/os_darwin.go's pattern of keeping OS-callback
// logic as a small state machine driven from a single goroutine, with the
// actual OS plumbing kept to a thin cgo shim around it.
package eventtap

import "sync"

// Kind distinguishes a key-down from a key-up event.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
)

// MatchKind classifies how a scancode matched against the current
// binding tree, per spec.md §4.1's policy table. It is supplied by the
// caller (the binding resolver has already run) — Policy itself knows
// nothing about chords or bindings.
type MatchKind int

const (
	// NoMatch: the chord does not match any registration in scope.
	NoMatch MatchKind = iota
	// MatchEmit: matched a registration with intercept=false.
	MatchEmit
	// MatchIntercept: matched a registration with intercept=true.
	MatchIntercept
)

// Policy holds the event-tap's suspend/capture-all/key-tracking state
// and classifies events per spec.md §4.1.
type Policy struct {
	mu          sync.Mutex
	suspended   bool
	captureAll  bool
	intercepted map[int]bool // virtual keycodes currently tracked as intercepted
}

// NewPolicy constructs a Policy with nothing suspended or captured.
func NewPolicy() *Policy {
	return &Policy{intercepted: make(map[int]bool)}
}

// SetSuspended toggles suspension: while suspended, every event passes
// through unmodified (no emit, no intercept) regardless of match.
func (p *Policy) SetSuspended(suspended bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = suspended
}

// SetCaptureAll toggles capture-all mode (spec.md §4.1's overlay rule):
// while active and not suspended, every key is intercepted and only
// matched keys are emitted.
func (p *Policy) SetCaptureAll(captureAll bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captureAll = captureAll
}

// Classify decides (emit, intercept) for one key event, given its
// scancode, down/up kind, OS autorepeat flag, and match classification.
func (p *Policy) Classify(code int, kind Kind, isRepeat bool, m MatchKind) (emit, intercept bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.suspended {
		if kind == KeyUp {
			delete(p.intercepted, code)
		}
		return false, false
	}

	tracked := p.intercepted[code]

	if p.captureAll {
		if kind == KeyDown && !isRepeat {
			p.intercepted[code] = true
		} else if kind == KeyUp {
			delete(p.intercepted, code)
		}
		return m != NoMatch, true
	}

	switch kind {
	case KeyDown:
		if !isRepeat {
			if m == MatchIntercept {
				p.intercepted[code] = true
				return true, true
			}
			delete(p.intercepted, code)
			return m == MatchEmit, false
		}
		// Autorepeat: emit only if matched; intercept follows tracked state
		// from the original non-repeat down (spec.md §4.1).
		if tracked {
			return m != NoMatch, true
		}
		return m == MatchEmit || m == MatchIntercept, false

	default: // KeyUp
		delete(p.intercepted, code)
		if tracked {
			return m != NoMatch, true
		}
		switch m {
		case MatchIntercept:
			return true, true
		case MatchEmit:
			return true, false
		default:
			return false, false
		}
	}
}

// IsIntercepted reports whether code is currently tracked as intercepted
// (a non-repeat KeyDown for it was intercepted and no KeyUp has been
// observed yet).
func (p *Policy) IsIntercepted(code int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intercepted[code]
}
