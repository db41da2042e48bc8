package axbridge

import (
	"testing"

	"github.com/cortesi/hotki/internal/axobserver"
	"github.com/cortesi/hotki/internal/world"
)

func newStatusCheckedWorld() *world.World {
	return world.New(50, 1000)
}

func TestHandleAddedRequestsReconcileWithoutGuessingAnID(t *testing.T) {
	w := newStatusCheckedWorld()
	before := w.StatusSnapshot().ReconcileSeq

	New(w).Handle(axobserver.Event{PID: 1, Kind: axobserver.EventAdded})

	after := w.StatusSnapshot().ReconcileSeq
	if after == before {
		t.Fatalf("expected ReconcileSeq to advance, got %d == %d", after, before)
	}
	if len(w.Snapshot()) != 0 {
		t.Fatalf("expected no window to be synthesized, got %v", w.Snapshot())
	}
}

func TestHandleRemovedRequestsReconcile(t *testing.T) {
	w := newStatusCheckedWorld()
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, PID: 7}})
	before := w.StatusSnapshot().ReconcileSeq

	New(w).Handle(axobserver.Event{PID: 7, Kind: axobserver.EventRemoved})

	after := w.StatusSnapshot().ReconcileSeq
	if after == before {
		t.Fatal("expected ReconcileSeq to advance on removal hint")
	}
	if _, ok := w.Get(1); !ok {
		t.Fatal("bridge must not remove the window itself, only request reconciliation")
	}
}

func TestHandleUpdatedPatchesSoleTrackedWindowForPID(t *testing.T) {
	w := newStatusCheckedWorld()
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, PID: 7, Title: "before"}})

	New(w).Handle(axobserver.Event{
		PID:  7,
		Kind: axobserver.EventUpdated,
		Hint: axobserver.Hint{Title: "after", HasPosition: true, X: 10, Y: 20, HasSize: true, W: 100, H: 200},
	})

	ww, ok := w.Get(1)
	if !ok {
		t.Fatal("expected window still tracked")
	}
	if ww.Title != "after" {
		t.Fatalf("expected title patched, got %q", ww.Title)
	}
	if ww.Pos == nil || ww.Pos.X != 10 || ww.Pos.Y != 20 || ww.Pos.W != 100 || ww.Pos.H != 200 {
		t.Fatalf("expected position/size patched, got %+v", ww.Pos)
	}
}

func TestHandleUpdatedWithAmbiguousPIDDefersToReconcile(t *testing.T) {
	w := newStatusCheckedWorld()
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, PID: 7, Title: "one"}})
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 2, PID: 7, Title: "two"}})
	before := w.StatusSnapshot().ReconcileSeq

	New(w).Handle(axobserver.Event{PID: 7, Kind: axobserver.EventUpdated, Hint: axobserver.Hint{Title: "renamed"}})

	after := w.StatusSnapshot().ReconcileSeq
	if after == before {
		t.Fatal("expected ReconcileSeq to advance when pid is ambiguous")
	}
	one, _ := w.Get(1)
	two, _ := w.Get(2)
	if one.Title != "one" || two.Title != "two" {
		t.Fatalf("ambiguous update must not patch either window, got %q %q", one.Title, two.Title)
	}
}

func TestHandleFocusChangedSetsSoleTrackedWindowFocused(t *testing.T) {
	w := newStatusCheckedWorld()
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, PID: 7}})
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 2, PID: 9}})

	New(w).Handle(axobserver.Event{PID: 7, Kind: axobserver.EventFocusChanged})

	one, _ := w.Get(1)
	two, _ := w.Get(2)
	if !one.Focused {
		t.Fatal("expected window 1 focused")
	}
	if two.Focused {
		t.Fatal("expected window 2 not focused")
	}
}

func TestHandleUpdatedLeavesUnsetHintFieldsUntouched(t *testing.T) {
	w := newStatusCheckedWorld()
	pos := world.Rect{X: 1, Y: 2, W: 3, H: 4}
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, PID: 7, Title: "keep", Pos: &pos}})

	New(w).Handle(axobserver.Event{PID: 7, Kind: axobserver.EventUpdated, Hint: axobserver.Hint{}})

	ww, _ := w.Get(1)
	if ww.Title != "keep" {
		t.Fatalf("expected title untouched, got %q", ww.Title)
	}
	if ww.Pos == nil || *ww.Pos != pos {
		t.Fatalf("expected position untouched, got %+v", ww.Pos)
	}
}
