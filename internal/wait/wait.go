// Package wait implements bounded, event-driven waits over
// internal/world's subscription stream, for tests that need to observe
// a world state transition rather than poll it. Grounded in
// original_source/crates/hotki-world/src/wait.rs's WindowObserver: a
// per-window wait that advances on every relevant world event rather
// than a fixed poll loop, bounded by an overall deadline, an idle
// ceiling between events, and a maximum event count (to fail fast on a
// subscription stuck replaying the same churn forever).
package wait

import (
	"errors"
	"fmt"
	"time"

	"github.com/cortesi/hotki/internal/world"
)

// Config bounds a wait, per original_source's WaitConfig.
type Config struct {
	Overall   time.Duration
	Idle      time.Duration
	MaxEvents int
}

// DefaultConfig mirrors original_source/crates/hotki-world/src/wait.rs's
// Default impl.
var DefaultConfig = Config{
	Overall:   8 * time.Second,
	Idle:      80 * time.Millisecond,
	MaxEvents: 512,
}

// Error is the common shape of every wait failure, carrying enough
// detail to diagnose a failed test assertion without re-running it.
type Error struct {
	Kind      ErrorKind
	Key       world.WindowID
	Condition string
	Elapsed   time.Duration
	Events    int
	Lost      uint64
}

// ErrorKind distinguishes why a wait did not succeed.
type ErrorKind int

const (
	ErrTimeout ErrorKind = iota
	ErrSaturated
	ErrStreamClosed
	ErrRemoved
	ErrNotFound
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrTimeout:
		return fmt.Sprintf("wait: timeout waiting for %s on %v after %v (events=%d lost=%d)", e.Condition, e.Key, e.Elapsed, e.Events, e.Lost)
	case ErrSaturated:
		return fmt.Sprintf("wait: exhausted %d events waiting for %s on %v after %v (lost=%d)", e.Events, e.Condition, e.Key, e.Elapsed, e.Lost)
	case ErrStreamClosed:
		return fmt.Sprintf("wait: event stream closed while waiting for %s on %v after %v (events=%d lost=%d)", e.Condition, e.Key, e.Elapsed, e.Events, e.Lost)
	case ErrRemoved:
		return fmt.Sprintf("wait: window %v removed while waiting for %s after %v (events=%d lost=%d)", e.Key, e.Condition, e.Elapsed, e.Events, e.Lost)
	case ErrNotFound:
		return fmt.Sprintf("wait: timeout awaiting a window matching %s after %v (events=%d lost=%d)", e.Condition, e.Elapsed, e.Events, e.Lost)
	default:
		return "wait: unknown error"
	}
}

// pumped is one drained batch forwarded by the background pump
// goroutine, or a closed-stream signal.
type pumped struct {
	n  int
	ok bool
}

// WindowObserver waits on a single tracked window's world events. A
// single background goroutine owns the subscription's Next() calls and
// forwards drained batches on events; every wait method reads from that
// channel rather than calling Next() itself, since Next()/drain() is not
// safe to call concurrently from multiple goroutines.
type WindowObserver struct {
	w            *world.World
	sub          *world.Subscription
	key          world.WindowID
	config       Config
	baselineLost uint64
	events       chan pumped
	done         chan struct{}
}

// NewWindowObserver subscribes to w's event stream filtered to key, per
// original_source's WindowObserver::new.
func NewWindowObserver(w *world.World, key world.WindowID, config Config) *WindowObserver {
	sub := w.SubscribeWithFilter(func(ev world.WorldEvent) bool {
		return ev.Window.ID == key || ev.Key == key
	})
	o := &WindowObserver{
		w:      w,
		sub:    sub,
		key:    key,
		config: config,
		events: make(chan pumped),
		done:   make(chan struct{}),
	}
	go o.pump()
	return o
}

func (o *WindowObserver) pump() {
	for {
		evs, _, ok := o.sub.Next()
		select {
		case o.events <- pumped{n: len(evs), ok: ok}:
		case <-o.done:
			return
		}
		if !ok {
			return
		}
	}
}

// Close releases the underlying subscription and stops the pump.
func (o *WindowObserver) Close() {
	close(o.done)
	o.sub.Close()
}

// WaitForWindow blocks until predicate(window) is true for the tracked
// window's current snapshot, or a bound is exceeded. present=false in
// predicate means the window is not currently present in the world.
func (o *WindowObserver) WaitForWindow(condition string, predicate func(ww world.WorldWindow, present bool) bool) (world.WorldWindow, error) {
	start := time.Now()
	events := 0
	deadline := start.Add(o.config.Overall)

	for {
		ww, present := o.w.Get(o.key)
		if predicate(ww, present) {
			return ww, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return world.WorldWindow{}, o.err(ErrTimeout, condition, start, events)
		}
		idleTimeout := o.config.Idle
		if idleTimeout > remaining {
			idleTimeout = remaining
		}

		advanced, closed := o.awaitEvent(idleTimeout)
		if closed {
			return world.WorldWindow{}, o.err(ErrStreamClosed, condition, start, events)
		}
		if advanced {
			events++
			if events >= o.config.MaxEvents {
				return world.WorldWindow{}, o.err(ErrSaturated, condition, start, events)
			}
		}
		if time.Now().After(deadline) {
			return world.WorldWindow{}, o.err(ErrTimeout, condition, start, events)
		}
	}
}

// WaitForRemoval blocks until the tracked window is no longer present.
func (o *WindowObserver) WaitForRemoval() error {
	_, err := o.WaitForWindow("removed", func(_ world.WorldWindow, present bool) bool {
		return !present
	})
	var werr *Error
	if errors.As(err, &werr) && werr.Kind == ErrTimeout {
		werr.Kind = ErrRemoved
	}
	return err
}

// awaitEvent blocks up to timeout for the pump goroutine's next drained
// batch, returning advanced=true if at least one event arrived and
// closed=true if the subscription was closed in the meantime.
func (o *WindowObserver) awaitEvent(timeout time.Duration) (advanced, closed bool) {
	select {
	case r := <-o.events:
		if !r.ok {
			return false, true
		}
		return r.n > 0, false
	case <-time.After(timeout):
		return false, false
	}
}

func (o *WindowObserver) err(kind ErrorKind, condition string, start time.Time, events int) *Error {
	return &Error{
		Kind:      kind,
		Key:       o.key,
		Condition: condition,
		Elapsed:   time.Since(start),
		Events:    events,
		Lost:      o.sub.LostCount() - o.baselineLost,
	}
}

// WaitForAny blocks until predicate matches some window in w's current
// snapshot, subscribing to every event (unfiltered) while it waits. A
// single background goroutine pumps the subscription, the same way
// WindowObserver's pump does, so only one goroutine ever calls Next().
func WaitForAny(w *world.World, config Config, condition string, predicate func(world.WorldWindow) bool) (world.WorldWindow, error) {
	start := time.Now()
	deadline := start.Add(config.Overall)
	sub := w.Subscribe()
	defer sub.Close()

	pumpEvents := make(chan pumped)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			evs, _, ok := sub.Next()
			select {
			case pumpEvents <- pumped{n: len(evs), ok: ok}:
			case <-done:
				return
			}
			if !ok {
				return
			}
		}
	}()

	events := 0
	for {
		for _, ww := range w.Snapshot() {
			if predicate(ww) {
				return ww, nil
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return world.WorldWindow{}, &Error{Kind: ErrNotFound, Condition: condition, Elapsed: time.Since(start), Events: events, Lost: sub.LostCount()}
		}
		idleTimeout := config.Idle
		if idleTimeout > remaining {
			idleTimeout = remaining
		}

		select {
		case r := <-pumpEvents:
			if !r.ok {
				return world.WorldWindow{}, &Error{Kind: ErrStreamClosed, Condition: condition, Elapsed: time.Since(start), Events: events, Lost: sub.LostCount()}
			}
			if r.n > 0 {
				events++
				if events >= config.MaxEvents {
					return world.WorldWindow{}, &Error{Kind: ErrSaturated, Condition: condition, Elapsed: time.Since(start), Events: events, Lost: sub.LostCount()}
				}
			}
		case <-time.After(idleTimeout):
		}
		if time.Now().After(deadline) {
			return world.WorldWindow{}, &Error{Kind: ErrNotFound, Condition: condition, Elapsed: time.Since(start), Events: events, Lost: sub.LostCount()}
		}
	}
}
