package repeater

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerFiresAfterInitialDelayThenInterval(t *testing.T) {
	var count int32
	tk := Start(10*time.Millisecond, 10*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	defer tk.Stop()
	time.Sleep(55 * time.Millisecond)
	got := atomic.LoadInt32(&count)
	if got < 2 || got > 6 {
		t.Fatalf("expected a handful of ticks in 55ms at 10ms interval, got %d", got)
	}
}

func TestTickerStopSyncAcknowledges(t *testing.T) {
	tk := Start(5*time.Millisecond, 5*time.Millisecond, func() {})
	time.Sleep(20 * time.Millisecond)
	if !tk.StopSync() {
		t.Fatal("expected StopSync to acknowledge within the timeout")
	}
	select {
	case <-tk.done:
	default:
		t.Fatal("expected done channel closed after StopSync")
	}
}

func TestTickerCancelBeforeInitialDelayNeverTicks(t *testing.T) {
	var count int32
	tk := Start(50*time.Millisecond, 5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	tk.Stop()
	time.Sleep(70 * time.Millisecond)
	if atomic.LoadInt32(&count) != 0 {
		t.Fatalf("expected no ticks after early cancel, got %d", atomic.LoadInt32(&count))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	tk := Start(time.Millisecond, time.Millisecond, func() {})
	tk.Stop()
	tk.Stop() // must not panic on double-close
}
