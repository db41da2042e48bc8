package ipc

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestDefaultSocketPathIncludesUID(t *testing.T) {
	path := DefaultSocketPath()
	want := strconv.Itoa(os.Getuid())
	if !strings.Contains(path, want) {
		t.Fatalf("expected socket path to include uid %s, got %s", want, path)
	}
	if !strings.HasSuffix(path, ".sock") {
		t.Fatalf("expected .sock suffix, got %s", path)
	}
}
