package eventtap

import "testing"

func TestSuspendedAlwaysPassesThrough(t *testing.T) {
	p := NewPolicy()
	p.SetSuspended(true)
	emit, intercept := p.Classify(1, KeyDown, false, MatchIntercept)
	if emit || intercept {
		t.Fatalf("expected no emit/intercept while suspended, got emit=%v intercept=%v", emit, intercept)
	}
}

func TestNoMatchNeverEmitsOrIntercepts(t *testing.T) {
	p := NewPolicy()
	emit, intercept := p.Classify(1, KeyDown, false, NoMatch)
	if emit || intercept {
		t.Fatal("expected no emit/intercept for unmatched key")
	}
}

func TestMatchEmitOnlyDoesNotIntercept(t *testing.T) {
	p := NewPolicy()
	emit, intercept := p.Classify(1, KeyDown, false, MatchEmit)
	if !emit || intercept {
		t.Fatalf("expected emit without intercept, got emit=%v intercept=%v", emit, intercept)
	}
}

func TestMatchInterceptEmitsAndIntercepts(t *testing.T) {
	p := NewPolicy()
	emit, intercept := p.Classify(1, KeyDown, false, MatchIntercept)
	if !emit || !intercept {
		t.Fatalf("expected emit and intercept, got emit=%v intercept=%v", emit, intercept)
	}
}

func TestInterceptedKeyTracksThroughAutorepeatAndUp(t *testing.T) {
	p := NewPolicy()
	p.Classify(9, KeyDown, false, MatchIntercept)
	if !p.IsIntercepted(9) {
		t.Fatal("expected code tracked as intercepted after non-repeat intercept down")
	}

	// Registration disappears mid-hold (binding tree changed underneath),
	// but the held key must still intercept per spec.md §4.1.
	emit, intercept := p.Classify(9, KeyDown, true, NoMatch)
	if emit || !intercept {
		t.Fatalf("expected autorepeat of tracked key to still intercept, got emit=%v intercept=%v", emit, intercept)
	}

	emit, intercept = p.Classify(9, KeyUp, false, NoMatch)
	if emit || !intercept {
		t.Fatalf("expected final key-up of tracked key to still intercept, got emit=%v intercept=%v", emit, intercept)
	}
	if p.IsIntercepted(9) {
		t.Fatal("expected tracking cleared after key-up")
	}
}

func TestUntrackedAutorepeatNeverIntercepts(t *testing.T) {
	p := NewPolicy()
	// A key that was never pressed through us (e.g. started before the tap
	// existed) should never gain intercept status from an autorepeat alone.
	emit, intercept := p.Classify(5, KeyDown, true, MatchEmit)
	if !emit || intercept {
		t.Fatalf("expected emit-only for untracked autorepeat, got emit=%v intercept=%v", emit, intercept)
	}
}

func TestCaptureAllInterceptsEverythingEmitsOnlyMatched(t *testing.T) {
	p := NewPolicy()
	p.SetCaptureAll(true)
	emit, intercept := p.Classify(1, KeyDown, false, NoMatch)
	if emit || !intercept {
		t.Fatalf("expected intercept without emit for unmatched key under capture-all, got emit=%v intercept=%v", emit, intercept)
	}
	emit, intercept = p.Classify(2, KeyDown, false, MatchEmit)
	if !emit || !intercept {
		t.Fatalf("expected intercept and emit for matched key under capture-all, got emit=%v intercept=%v", emit, intercept)
	}
}

func TestSuspendedOverridesCaptureAll(t *testing.T) {
	p := NewPolicy()
	p.SetCaptureAll(true)
	p.SetSuspended(true)
	emit, intercept := p.Classify(1, KeyDown, false, MatchIntercept)
	if emit || intercept {
		t.Fatal("expected suspended to override capture-all entirely")
	}
}
