// Package axbridge adapts internal/axobserver's pid-scoped AX
// notification stream onto internal/world's WindowID-keyed model.
//
// An AX notification carries a pid and a best-effort attribute hint, but
// no window identity (original_source/crates/mac-winops/src/ax_observer.rs's
// AxEvent is {pid, kind, hint} with nothing stronger). That means this
// package cannot mint a new WindowID on AXWindowCreated, or know which
// tracked WindowID to drop on AXUIElementDestroyed: both require a
// reconciliation pass over the OS's actual window list, which is out of
// this package's scope. Instead it calls World.HintRefresh to request
// one.
//
// What it can do without a reconciliation pass is patch an
// already-tracked window in place: when exactly one of the pid's
// windows is currently tracked, a title/move/resize/focus notification
// unambiguously refers to it, so the bridge updates World directly
// rather than waiting for the next poll tick.
package axbridge

import (
	"github.com/cortesi/hotki/internal/axobserver"
	"github.com/cortesi/hotki/internal/world"
)

// Bridge owns the translation from axobserver.Event to World mutations.
type Bridge struct {
	world *world.World
}

// New constructs a Bridge publishing into w. The returned Handle
// satisfies the func(axobserver.Event) signature axobserver.New expects
// as its onEvent callback.
func New(w *world.World) *Bridge {
	return &Bridge{world: w}
}

// Handle is the axobserver.Registry onEvent callback.
func (b *Bridge) Handle(ev axobserver.Event) {
	switch ev.Kind {
	case axobserver.EventAdded, axobserver.EventRemoved:
		b.world.HintRefresh()
		return
	}

	matches := b.world.WindowsForPID(ev.PID)
	if len(matches) != 1 {
		b.world.HintRefresh()
		return
	}
	target := matches[0]

	switch ev.Kind {
	case axobserver.EventFocusChanged:
		b.world.SetFocused(target.ID)
	case axobserver.EventUpdated:
		applyHint(&target, ev.Hint)
		b.world.Upsert(target)
	}
}

// applyHint merges whichever fields the notification's hint actually
// carried onto ww; a hint with HasPosition/HasSize false leaves the
// corresponding field untouched rather than zeroing it out.
func applyHint(ww *world.WorldWindow, hint axobserver.Hint) {
	if hint.Title != "" {
		ww.Title = hint.Title
	}
	if hint.HasPosition || hint.HasSize {
		pos := world.Rect{}
		if ww.Pos != nil {
			pos = *ww.Pos
		}
		if hint.HasPosition {
			pos.X, pos.Y = hint.X, hint.Y
		}
		if hint.HasSize {
			pos.W, pos.H = hint.W, hint.H
		}
		ww.Pos = &pos
	}
}
