//go:build darwin

package relay

/*
#cgo CFLAGS: -Werror -x objective-c
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

static CGEventRef hotki_make_key_event(CGEventSourceRef src, CGKeyCode code, bool keyDown) {
	return CGEventCreateKeyboardEvent(src, code, keyDown);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/cortesi/hotki/internal/keycode"
)

// hotkTag is the sentinel written to EVENT_SOURCE_USER_DATA (field index
// 42, spec.md §8) to mark our own injected events, so the event tap can
// recognize and ignore them.
const hotkTag C.int64_t = 0x686f746b // "hotk"

const fieldEventSourceUserData = C.CGEventField(42)
const fieldKeyboardAutorepeat = C.CGEventField(8)

func cgFlagsFor(m keycode.Modifiers) C.CGEventFlags {
	var f C.CGEventFlags
	if m.Contain(keycode.Command) {
		f |= C.kCGEventFlagMaskCommand
	}
	if m.Contain(keycode.Shift) {
		f |= C.kCGEventFlagMaskShift
	}
	if m.Contain(keycode.Control) {
		f |= C.kCGEventFlagMaskControl
	}
	if m.Contain(keycode.Option) {
		f |= C.kCGEventFlagMaskAlternate
	}
	return f
}

// DarwinPoster posts planned synthetic events via CGEventPostToPid,
// grounded in app/os_macos.go's CFTypeRef-wrapping cgo idiom (a private
// event source is created once and released with the poster).
type DarwinPoster struct {
	src C.CGEventSourceRef
}

// NewDarwinPoster creates a private-state (kCGEventSourceStatePrivate)
// event source.
func NewDarwinPoster() (*DarwinPoster, error) {
	src := C.CGEventSourceCreate(C.kCGEventSourceStatePrivate)
	if src == 0 {
		return nil, fmt.Errorf("relay: CGEventSourceCreate failed")
	}
	return &DarwinPoster{src: src}, nil
}

// Close releases the event source.
func (p *DarwinPoster) Close() {
	if p.src != 0 {
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(p.src)))
		p.src = 0
	}
}

// Post posts a single planned event to pid via CGEventPostToPid.
func (p *DarwinPoster) Post(pid int, ev PlannedEvent) error {
	down := ev.Kind == ModifierDown || ev.Kind == KeyDown
	cgEvent := C.hotki_make_key_event(p.src, C.CGKeyCode(ev.Keycode), C.bool(down))
	if cgEvent == 0 {
		return fmt.Errorf("relay: CGEventCreateKeyboardEvent failed for keycode %d", ev.Keycode)
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(cgEvent)))

	C.CGEventSetFlags(cgEvent, cgFlagsFor(ev.Flags))
	if ev.Tagged {
		C.CGEventSetIntegerValueField(cgEvent, fieldEventSourceUserData, C.int64_t(hotkTag))
	}
	if ev.AutoRepeat {
		C.CGEventSetIntegerValueField(cgEvent, fieldKeyboardAutorepeat, 1)
	}
	C.CGEventPostToPid(C.pid_t(pid), cgEvent)
	return nil
}
