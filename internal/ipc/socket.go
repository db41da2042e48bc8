package ipc

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSocketPath returns the default Unix domain socket path, scoped
// per-uid so two users on the same machine never collide. spec.md §6
// leaves the concrete path to the implementation ("default_socket_path()")
// and only requires it be overridable via --socket.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("hotki-%d.sock", os.Getuid()))
}
