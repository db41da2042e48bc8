package repeater

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortesi/hotki/internal/config"
)

type fakeShell struct {
	calls int32
}

func (f *fakeShell) Run(command string) (stdout, stderr string, ok bool, err error) {
	atomic.AddInt32(&f.calls, 1)
	return "out\n", "", true, nil
}

type fakeRelay struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeRelay) KeyDown(pid int, chord string, isRepeat bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "down")
	return nil
}

func (f *fakeRelay) KeyUp(pid int, chord string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "up")
	return nil
}

type fakeNotifier struct {
	notifications []string
}

func (f *fakeNotifier) Notify(kind config.NotifyKind, title, body string) {
	f.notifications = append(f.notifications, body)
}

func TestStartShellRunsImmediately(t *testing.T) {
	sh := &fakeShell{}
	r := New(sh, nil, nil, func() int { return -1 })
	r.StartShell("b1", "true", config.NotifyInfo, config.NotifyError, nil)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&sh.calls) != 1 {
		t.Fatalf("expected exactly one immediate run, got %d", sh.calls)
	}
}

func TestStartReplacesExistingTicker(t *testing.T) {
	sh := &fakeShell{}
	r := New(sh, nil, nil, func() int { return -1 })
	spec := &RepeatSpec{InitialDelayMs: 5, IntervalMs: 5}
	r.StartShell("b1", "true", config.NotifyInfo, config.NotifyError, spec)
	time.Sleep(12 * time.Millisecond)
	r.StartShell("b1", "true", config.NotifyInfo, config.NotifyError, nil) // replace: cancels old ticker
	calls := atomic.LoadInt32(&sh.calls)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&sh.calls) > calls+1 {
		t.Fatalf("expected old ticker to stop firing after replace, went from %d to %d", calls, sh.calls)
	}
}

func TestRelayPIDHandoff(t *testing.T) {
	relay := &fakeRelay{}
	pid := int32(100)
	r := New(nil, relay, nil, func() int { return int(atomic.LoadInt32(&pid)) })
	r.StartRelay("b1", "cmd+a", &RepeatSpec{InitialDelayMs: 5, IntervalMs: 10})
	time.Sleep(8 * time.Millisecond)
	atomic.StoreInt32(&pid, 200)
	time.Sleep(30 * time.Millisecond)
	r.StopSync("b1")

	relay.mu.Lock()
	defer relay.mu.Unlock()
	foundUpBeforeNewDown := false
	for i, ev := range relay.events {
		if ev == "up" && i+1 < len(relay.events) && relay.events[i+1] == "down" {
			// The very next down after an up during handoff must be for the new pid;
			// we can't observe pid directly here but we assert ordering: up always
			// precedes the handoff down, never interleaved with a down first.
			foundUpBeforeNewDown = true
		}
	}
	if !foundUpBeforeNewDown {
		t.Fatalf("expected an up event during pid handoff, events=%v", relay.events)
	}
}

func TestStopSyncWaitsForTicker(t *testing.T) {
	r := New(&fakeShell{}, nil, nil, func() int { return -1 })
	r.StartShell("b1", "true", config.NotifyInfo, config.NotifyError, &RepeatSpec{InitialDelayMs: 5, IntervalMs: 5})
	if !r.StopSync("b1") {
		t.Fatal("expected stop_sync to acknowledge")
	}
}

func TestNoteOsRepeatCancelsTicker(t *testing.T) {
	sh := &fakeShell{}
	r := New(sh, nil, nil, func() int { return -1 })
	r.StartShell("b1", "true", config.NotifyInfo, config.NotifyError, &RepeatSpec{InitialDelayMs: 5, IntervalMs: 5})
	time.Sleep(12 * time.Millisecond)
	r.NoteOsRepeat("b1")
	calls := atomic.LoadInt32(&sh.calls)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&sh.calls) > calls+1 {
		t.Fatalf("expected ticker to stop after note_os_repeat")
	}
}

func TestTrimNotifyBody(t *testing.T) {
	got := TrimNotifyBody("\n\nhello\nworld\n\n", "")
	if got != "hello\nworld" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func TestResolveRepeatSpecClamping(t *testing.T) {
	tooSmall := 1
	tooBig := 10000
	spec := ResolveRepeatSpec(&tooSmall, &tooBig)
	if spec.InitialDelayMs != MinInitialDelayMs {
		t.Fatalf("expected initial delay clamped to min, got %d", spec.InitialDelayMs)
	}
	if spec.IntervalMs != MaxIntervalMs {
		t.Fatalf("expected interval clamped to max, got %d", spec.IntervalMs)
	}
}

func TestDefaultRepeatSpecFloorsInterval(t *testing.T) {
	spec := DefaultRepeatSpec()
	if spec.IntervalMs != DefaultMinIntervalMs {
		t.Fatalf("expected default interval floored to %d, got %d", DefaultMinIntervalMs, spec.IntervalMs)
	}
	if spec.InitialDelayMs != SysInitialDelayMs {
		t.Fatalf("expected default initial delay %d, got %d", SysInitialDelayMs, spec.InitialDelayMs)
	}
}
