package world

import "testing"

func TestUpsertEmitsAddedThenUpdated(t *testing.T) {
	w := New(50, 1000)
	sub := w.Subscribe()
	defer sub.Close()

	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1, App: "Foo"}})
	events, _, ok := sub.Next()
	if !ok || len(events) != 1 || events[0].Kind != EventAdded {
		t.Fatalf("expected single Added event, got %+v ok=%v", events, ok)
	}

	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1, App: "Foo", Title: "renamed"}})
	events, _, ok = sub.Next()
	if !ok || len(events) != 1 || events[0].Kind != EventUpdated {
		t.Fatalf("expected single Updated event, got %+v ok=%v", events, ok)
	}
}

func TestGetReturnsCurrentSnapshotOrFalse(t *testing.T) {
	w := New(50, 1000)
	if _, ok := w.Get(1); ok {
		t.Fatal("expected no window before Upsert")
	}
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1, Title: "first"}})
	ww, ok := w.Get(1)
	if !ok || ww.Title != "first" {
		t.Fatalf("got %+v ok=%v", ww, ok)
	}
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1, Title: "second"}})
	ww, ok = w.Get(1)
	if !ok || ww.Title != "second" {
		t.Fatalf("expected updated snapshot, got %+v ok=%v", ww, ok)
	}
	w.Remove(1)
	if _, ok := w.Get(1); ok {
		t.Fatal("expected no window after Remove")
	}
}

func TestRemoveEmitsRemovedOnlyIfPresent(t *testing.T) {
	w := New(50, 1000)
	sub := w.Subscribe()
	defer sub.Close()

	w.Remove(99) // never existed: no event
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1}})
	sub.Next() // drain Added
	w.Remove(1)
	events, _, ok := sub.Next()
	if !ok || len(events) != 1 || events[0].Kind != EventRemoved || events[0].Key != 1 {
		t.Fatalf("expected single Removed(1) event, got %+v ok=%v", events, ok)
	}
}

func TestOverflowDropsOldestAndIncrementsLostCount(t *testing.T) {
	w := New(50, 1000)
	sub := w.SubscribeWithFilter(nil)
	sub.sub.cap = 2 // shrink buffer to force overflow deterministically

	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1}})
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 2}})
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 3}})

	events, lost, ok := sub.Next()
	if !ok {
		t.Fatal("expected ok")
	}
	if lost != 1 {
		t.Fatalf("expected lost_count=1 after one overflow drop, got %d", lost)
	}
	if len(events) != 2 {
		t.Fatalf("expected exactly 2 buffered events to survive, got %d", len(events))
	}
	if events[0].Window.ID != 2 || events[1].Window.ID != 3 {
		t.Fatalf("expected oldest (id=1) dropped, kept id=2,3; got %+v", events)
	}
}

func TestSubscribeWithFilter(t *testing.T) {
	w := New(50, 1000)
	sub := w.SubscribeWithFilter(func(ev WorldEvent) bool {
		return ev.Kind == EventRemoved
	})
	defer sub.Close()

	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1}})
	w.Remove(1)

	events, _, ok := sub.Next()
	if !ok || len(events) != 1 || events[0].Kind != EventRemoved {
		t.Fatalf("expected only the Removed event to pass the filter, got %+v", events)
	}
}

func TestSetActiveSpacesStickyWindowAlwaysActive(t *testing.T) {
	w := New(50, 1000)
	space := int64(5)
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1, Space: &space}})
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 2}}) // nil Space: sticky

	w.SetActiveSpaces(map[int64]struct{}{7: {}})
	snap := snapshotByID(w)
	if snap[1].OnActiveSpace {
		t.Fatal("expected window on inactive space 5 to be marked not on active space")
	}
	if !snap[2].OnActiveSpace {
		t.Fatal("expected sticky (nil Space) window to always be on active space")
	}
}

func TestSetFocusedExclusive(t *testing.T) {
	w := New(50, 1000)
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 1}})
	w.Upsert(WorldWindow{WindowInfo: WindowInfo{ID: 2}})
	w.SetFocused(2)
	snap := snapshotByID(w)
	if snap[1].Focused || !snap[2].Focused {
		t.Fatalf("expected exactly window 2 focused, got %+v", snap)
	}
}

func TestSetPollMsClampsToBounds(t *testing.T) {
	w := New(50, 1000)
	w.SetPollMs(1)
	if got := w.StatusSnapshot().CurrentPollMs; got != 50 {
		t.Fatalf("expected floor clamp to 50, got %d", got)
	}
	w.SetPollMs(5000)
	if got := w.StatusSnapshot().CurrentPollMs; got != 1000 {
		t.Fatalf("expected ceiling clamp to 1000, got %d", got)
	}
}

func snapshotByID(w *World) map[WindowID]WorldWindow {
	out := make(map[WindowID]WorldWindow)
	for _, ww := range w.Snapshot() {
		out[ww.ID] = ww
	}
	return out
}
