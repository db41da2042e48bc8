//go:build darwin

package eventtap

/*
#cgo CFLAGS: -Werror -x objective-c
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

extern CGEventRef hotki_tap_callback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFMachPortRef hotki_create_tap(uintptr_t handle) {
	CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) |
		CGEventMaskBit(kCGEventTapDisabledByTimeout) | CGEventMaskBit(kCGEventTapDisabledByUserInput);
	return CGEventTapCreate(kCGHIDEventTap, kCGHeadInsertEventTap, kCGEventTapOptionDefault,
		mask, hotki_tap_callback, (void *)handle);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"
)

// Control stops a running event loop from any goroutine, per spec.md
// §4.1's run_event_loop/control.stop contract.
type Control struct {
	stop chan struct{}
}

func (c *Control) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

// Callback receives classified key events from the tap, already past
// the synthetic-event filter. It returns true to drop the event
// (intercept), false to let it pass through unchanged.
type Callback func(code int, kind Kind, isRepeat bool, sourcePID int32, sourceUserData int64) (intercept bool)

type loopState struct {
	cb     Callback
	port   C.CFMachPortRef
	ownPID int32
}

// RunEventLoop installs the tap, adds its runloop source to the current
// runloop in common modes, signals readiness on ready, and blocks
// running the loop until control.Stop() is called. Must run on the
// thread that owns the runloop (spec.md §4.1).
func RunEventLoop(cb Callback, ownPID int32, ready chan<- struct{}) (*Control, error) {
	state := &loopState{cb: cb, ownPID: ownPID}
	h := cgo.NewHandle(state)

	port := C.hotki_create_tap(C.uintptr_t(h))
	if port == 0 {
		h.Delete()
		return nil, fmt.Errorf("eventtap: CGEventTapCreate failed (Input Monitoring permission denied?)")
	}
	state.port = port

	src := C.CFMachPortCreateRunLoopSource(0, port, 0)
	if src == 0 {
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(port)))
		h.Delete()
		return nil, fmt.Errorf("eventtap: CFMachPortCreateRunLoopSource failed")
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(src)))

	rl := C.CFRunLoopGetCurrent()
	C.CFRunLoopAddSource(rl, src, C.kCFRunLoopCommonModes)
	C.CGEventTapEnable(port, true)

	ctrl := &Control{stop: make(chan struct{})}
	go func() {
		<-ctrl.stop
		C.CFRunLoopStop(rl)
	}()

	if ready != nil {
		close(ready)
	}
	C.CFRunLoopRun()

	C.CFRunLoopRemoveSource(rl, src, C.kCFRunLoopCommonModes)
	C.CGEventTapEnable(port, false)
	C.CFRelease(C.CFTypeRef(unsafe.Pointer(port)))
	h.Delete()
	return ctrl, nil
}

//export hotki_tap_callback
func hotki_tap_callback(proxy C.CGEventTapProxy, cType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) (ret C.CGEventRef) {
	// A panic must never unwind across this cgo boundary: map it to Keep
	// (pass the original event through) rather than crash the tap thread.
	defer func() {
		if recover() != nil {
			ret = event
		}
	}()

	h := cgo.Handle(uintptr(refcon))
	state, ok := h.Value().(*loopState)
	if !ok {
		return event
	}

	if cType == C.kCGEventTapDisabledByTimeout || cType == C.kCGEventTapDisabledByUserInput {
		C.CGEventTapEnable(state.port, true)
		return event
	}

	sourcePID := int32(C.CGEventGetIntegerValueField(event, C.CGEventField(41)))
	sourceTag := int64(C.CGEventGetIntegerValueField(event, C.CGEventField(42)))
	if ShouldIgnoreSynthetic(sourcePID, state.ownPID, sourceTag) {
		return event
	}

	code := int(C.CGEventGetIntegerValueField(event, C.CGEventField(9)))
	isRepeat := C.CGEventGetIntegerValueField(event, C.CGEventField(8)) != 0
	kind := KeyDown
	if cType == C.kCGEventKeyUp {
		kind = KeyUp
	}

	if state.cb(code, kind, isRepeat, sourcePID, sourceTag) {
		return 0
	}
	return event
}
