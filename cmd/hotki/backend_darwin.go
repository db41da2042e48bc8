//go:build darwin

// Platform runtime wiring for macOS: the real AX-backed winops.Ops, the
// real CGEventPostToPid relay, the AX observer registry, and the
// CGEventTap-driven event loop, all assembled and handed to Backend via
// AttachPlatform. Grounded in gioui-gio/app/os_darwin.go's pattern of a
// single platform-setup function that builds every cgo-backed
// collaborator and starts the runloop on a locked OS thread.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/cortesi/hotki/internal/axbridge"
	"github.com/cortesi/hotki/internal/axobserver"
	"github.com/cortesi/hotki/internal/eventtap"
	"github.com/cortesi/hotki/internal/geom"
	"github.com/cortesi/hotki/internal/relay"
	"github.com/cortesi/hotki/internal/winops"
	"github.com/cortesi/hotki/internal/world"
)

// reconcileInterval is the fallback poll period for the on-screen window
// list, used alongside (not instead of) AX-notification-driven
// reconciliation: CGWindowList is the only source of window identity
// (AX has none), so a miss between notifications still gets picked up.
const reconcileInterval = 500 * time.Millisecond

func runPlatform(ctx context.Context, b *Backend) error {
	pool := winops.NewRefPool()
	store := winops.NewAXElementStore(pool)

	var ops *winops.AXOps
	visibleFrame := func(w winops.WindowRef) (geom.Rect, error) {
		rect, err := ops.GetRect(w)
		if err != nil {
			return geom.Rect{}, err
		}
		return winops.VisibleFrameForAXPoint(rect.X, rect.Y)
	}
	ops = winops.NewAXOps(store.Resolve, visibleFrame)

	poster, err := relay.NewDarwinPoster()
	if err != nil {
		return fmt.Errorf("hotki: %w", err)
	}
	rel := relay.New(poster, false)

	w := b.world

	bridge := axbridge.New(w)
	registry := axobserver.New(axobserver.DarwinBackend{}, bridge.Handle)

	b.AttachPlatform(ops, rel, registry)

	go reconcileLoop(ctx, registry, store, w)

	ownPID := int32(os.Getpid())
	ready := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		cb := func(code int, kind eventtap.Kind, isRepeat bool, sourcePID int32, sourceUserData int64) bool {
			return b.HandleKeyEvent(code, kind, isRepeat, b.CurrentFocus())
		}

		ctrl, err := eventtap.RunEventLoop(cb, ownPID, ready)
		if err != nil {
			errCh <- err
			return
		}
		go func() {
			<-ctx.Done()
			ctrl.Stop()
			poster.Close()
			registry.RemoveAll()
		}()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ready:
	case <-ctx.Done():
	}
	return nil
}

// reconcileLoop periodically rebuilds the world model's window set from
// CGWindowListCopyWindowInfo plus each observed process's AX windows,
// per spec.md §4.6: AX notifications alone carry no window identity, so
// a standing poll is required alongside them.
func reconcileLoop(ctx context.Context, registry *axobserver.Registry, store *winops.AXElementStore, w *world.World) {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileAll(registry, store, w)
		}
	}
}

// reconcileAll lists every on-screen window, ensures an AX observer is
// attached for each owning pid, matches AX elements against the
// CGWindowList entries per pid, and upserts the result into the world
// model, removing any previously tracked window no longer present.
func reconcileAll(registry *axobserver.Registry, store *winops.AXElementStore, w *world.World) {
	cgWindows := winops.ListOnScreenWindows()

	byPID := make(map[int32][]winops.CGWindowInfo)
	for _, info := range cgWindows {
		if info.Layer != 0 {
			continue
		}
		byPID[info.PID] = append(byPID[info.PID], info)
	}

	seen := make(map[world.WindowID]bool)
	frontmost := true
	for pid, infos := range byPID {
		if err := registry.Ensure(pid); err != nil {
			continue
		}
		for _, rw := range store.ReconcilePID(pid, infos) {
			id := world.WindowID(rw.Ref)
			seen[id] = true
			ww := world.WorldWindow{
				WindowInfo: world.WindowInfo{
					ID:         id,
					PID:        pid,
					App:        rw.Info.OwnerName,
					Title:      rw.Info.Title,
					Pos:        &world.Rect{X: rw.Info.Bounds.X, Y: rw.Info.Bounds.Y, W: rw.Info.Bounds.W, H: rw.Info.Bounds.H},
					Layer:      rw.Info.Layer,
					Focused:    frontmost,
					IsOnScreen: true,
				},
			}
			w.Upsert(ww)
			frontmost = false
		}
	}

	for _, ww := range w.Snapshot() {
		if !seen[ww.ID] {
			w.Remove(ww.ID)
			store.Forget(winops.WindowRef(ww.ID))
		}
	}

	for _, pid := range registry.ActivePIDs() {
		if _, ok := byPID[pid]; !ok {
			registry.Remove(pid)
		}
	}
}
