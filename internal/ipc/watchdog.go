package ipc

// watchParent blocks until pid exits, then calls onExit. The real
// implementation (kqueue EVFILT_PROC, falling back to polling
// kill(pid, 0)) lives in watchdog_darwin.go and replaces this variable
// via init on darwin builds; spec.md's parent-pid watchdog is a macOS
// mechanism with no portable equivalent, so elsewhere it is a no-op.
var watchParent = func(pid int32, onExit func()) {}
