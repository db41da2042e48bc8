//go:build darwin

package ipc

import (
	"time"

	"golang.org/x/sys/unix"
)

// parentPollInterval is the kill(pid,0) fallback cadence when kqueue
// registration fails.
const parentPollInterval = 100 * time.Millisecond

func init() {
	watchParent = watchParentDarwin
}

// watchParentDarwin blocks until pid exits, then calls onExit. Grounded
// on original_source/crates/hotki-server/src/server.rs's parent-pid
// watchdog thread: register EVFILT_PROC/NOTE_EXIT on pid via kqueue for
// precise exit detection, falling back to polling kill(pid, 0) if
// registration fails.
func watchParentDarwin(pid int32, onExit func()) {
	kq, err := unix.Kqueue()
	if err == nil {
		defer unix.Close(kq)
		kevs := []unix.Kevent_t{{
			Ident:  uint64(pid),
			Filter: unix.EVFILT_PROC,
			Flags:  unix.EV_ADD | unix.EV_ONESHOT,
			Fflags: unix.NOTE_EXIT,
		}}
		if _, err := unix.Kevent(kq, kevs, nil, nil); err == nil {
			out := make([]unix.Kevent_t, 1)
			if _, err := unix.Kevent(kq, nil, out, nil); err == nil {
				onExit()
				return
			}
		}
	}

	for {
		if !pidAlive(pid) {
			onExit()
			return
		}
		time.Sleep(parentPollInterval)
	}
}

// pidAlive reports whether pid currently exists, per kill(pid, 0)'s
// documented use as a liveness probe: success or EPERM both mean the
// process exists, any other error means it doesn't.
func pidAlive(pid int32) bool {
	err := unix.Kill(int(pid), 0)
	return err == nil || err == unix.EPERM
}
