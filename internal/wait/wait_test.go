package wait

import (
	"testing"
	"time"

	"github.com/cortesi/hotki/internal/world"
)

func TestWaitForWindowReturnsImmediatelyWhenAlreadyTrue(t *testing.T) {
	w := world.New(50, 1000)
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, Title: "ready"}})

	obs := NewWindowObserver(w, 1, Config{Overall: time.Second, Idle: 10 * time.Millisecond, MaxEvents: 10})
	defer obs.Close()

	got, err := obs.WaitForWindow("title-ready", func(ww world.WorldWindow, present bool) bool {
		return present && ww.Title == "ready"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "ready" {
		t.Fatalf("got %+v", got)
	}
}

func TestWaitForWindowTimesOutWhenConditionNeverHolds(t *testing.T) {
	w := world.New(50, 1000)
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, Title: "wrong"}})

	obs := NewWindowObserver(w, 1, Config{Overall: 60 * time.Millisecond, Idle: 10 * time.Millisecond, MaxEvents: 10})
	defer obs.Close()

	_, err := obs.WaitForWindow("title-ready", func(ww world.WorldWindow, present bool) bool {
		return present && ww.Title == "ready"
	})
	werr, ok := err.(*Error)
	if !ok || werr.Kind != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestWaitForWindowAdvancesOnUpsert(t *testing.T) {
	w := world.New(50, 1000)
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, Title: "initial"}})

	obs := NewWindowObserver(w, 1, Config{Overall: time.Second, Idle: 20 * time.Millisecond, MaxEvents: 10})
	defer obs.Close()

	go func() {
		time.Sleep(15 * time.Millisecond)
		w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, Title: "renamed"}})
	}()

	got, err := obs.WaitForWindow("title-renamed", func(ww world.WorldWindow, present bool) bool {
		return present && ww.Title == "renamed"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "renamed" {
		t.Fatalf("got %+v", got)
	}
}

func TestWaitForRemovalSucceedsAfterRemove(t *testing.T) {
	w := world.New(50, 1000)
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1}})

	obs := NewWindowObserver(w, 1, Config{Overall: time.Second, Idle: 20 * time.Millisecond, MaxEvents: 10})
	defer obs.Close()

	go func() {
		time.Sleep(15 * time.Millisecond)
		w.Remove(1)
	}()

	if err := obs.WaitForRemoval(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForAnyFindsMatchingWindowAcrossSnapshot(t *testing.T) {
	w := world.New(50, 1000)
	w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 1, App: "Other"}})

	go func() {
		time.Sleep(15 * time.Millisecond)
		w.Upsert(world.WorldWindow{WindowInfo: world.WindowInfo{ID: 2, App: "Target"}})
	}()

	got, err := WaitForAny(w, Config{Overall: time.Second, Idle: 20 * time.Millisecond, MaxEvents: 10}, "app-target", func(ww world.WorldWindow) bool {
		return ww.App == "Target"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.App != "Target" {
		t.Fatalf("got %+v", got)
	}
}

func TestWaitForAnyNotFoundWhenNeverMatches(t *testing.T) {
	w := world.New(50, 1000)
	_, err := WaitForAny(w, Config{Overall: 40 * time.Millisecond, Idle: 10 * time.Millisecond, MaxEvents: 10}, "never", func(world.WorldWindow) bool {
		return false
	})
	werr, ok := err.(*Error)
	if !ok || werr.Kind != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
