//go:build !darwin

package main

import (
	"context"
	"fmt"
)

// runPlatform has no implementation outside macOS: the event tap,
// Accessibility APIs, and window-server placement calls this engine
// requires are all Apple-platform-only.
func runPlatform(ctx context.Context, b *Backend) error {
	return fmt.Errorf("hotki: server mode requires macOS")
}
