package eventtap

import "testing"

func TestIgnoresOwnSourcePID(t *testing.T) {
	if !ShouldIgnoreSynthetic(42, 42, 0) {
		t.Fatal("expected event from own PID to be ignored")
	}
}

func TestIgnoresHotkTaggedEvent(t *testing.T) {
	if !ShouldIgnoreSynthetic(99, 42, HotkTag) {
		t.Fatal("expected HOTK_TAG-tagged event to be ignored regardless of source PID")
	}
}

func TestPassesThroughUnrelatedEvent(t *testing.T) {
	if ShouldIgnoreSynthetic(99, 42, 0) {
		t.Fatal("expected unrelated event to pass through")
	}
}
