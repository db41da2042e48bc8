package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestClientConnectSucceedsDuringStartupPollWindow(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hotki-startup.sock")

	// Simulate a server that's still starting: listen only after a short
	// delay, well inside the 1s startup poll window.
	go func() {
		time.Sleep(30 * time.Millisecond)
		srv := NewServer(socketPath, echoHandler, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Run(ctx)
	}()

	client := NewClient(socketPath, true, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("expected the startup poll window to find the server, got %v", err)
	}
	client.Close()
}

func TestClientConnectFailsWhenNothingListens(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hotki-nobody-home.sock")

	client := NewClient(socketPath, false, nil)
	start := time.Now()
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("expected an error connecting to a socket nothing is listening on")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("expected the bounded retry loop to fail well under 3s, took %v", elapsed)
	}
}

func TestRequestReturnsHandlerErrorAsReplyError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hotki-err.sock")
	srv := NewServer(socketPath, func(kind Kind, payload json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)
	waitForSocket(t, socketPath)

	client := NewClient(socketPath, false, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	err := client.Request(context.Background(), KindGetBindings, nil, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected handler error \"boom\", got %v", err)
	}
}
