package applog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogWritesFormattedLineWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info(CatWorld, "window added", "id", 7, "app", "Finder")

	out := buf.String()
	if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "[world]") {
		t.Fatalf("missing level/category: %q", out)
	}
	if !strings.Contains(out, "window added") || !strings.Contains(out, "id=7") || !strings.Contains(out, "app=Finder") {
		t.Fatalf("missing message/fields: %q", out)
	}
}

func TestLogRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetMinLevel(LevelWarn)

	l.Debug(CatTap, "should not appear")
	l.Info(CatTap, "should not appear either")
	l.Warn(CatTap, "this one should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug/info to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "this one should appear") {
		t.Fatalf("expected warn to be written, got %q", out)
	}
}

func TestSetEnabledFalseSuppressesAllOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetEnabled(false)

	l.Error(CatIPC, "boom")
	if buf.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buf.String())
	}
}

func TestOddFieldCountAppendsMissingMarker(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info(CatConfig, "orphan field", "key")

	if !strings.Contains(buf.String(), "key=<missing>") {
		t.Fatalf("expected orphan key marker, got %q", buf.String())
	}
}

func TestSubscribeReceivesSubsequentEntries(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	ch, cancel := l.Subscribe(4)
	defer cancel()

	l.Info(CatRelay, "posted", "pid", 123)

	select {
	case entry := <-ch:
		if entry.Cat != CatRelay || entry.Msg != "posted" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribed entry")
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	ch, cancel := l.Subscribe(4)
	cancel()

	l.Info(CatRelay, "after cancel")

	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}
}

func TestErrorErrAppendsErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.ErrorErr(CatWinops, "place failed", errPlace{})

	if !strings.Contains(buf.String(), "error=placement broke") {
		t.Fatalf("expected error field, got %q", buf.String())
	}
}

type errPlace struct{}

func (errPlace) Error() string { return "placement broke" }
