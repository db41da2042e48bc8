//go:build darwin

package axobserver

/*
#cgo CFLAGS: -Werror -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation

#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

extern void hotki_ax_callback(AXObserverRef observer, AXUIElementRef element, CFStringRef notification, void *refcon);

static AXError hotki_observer_create(pid_t pid, uintptr_t handle, AXObserverRef *out) {
	return AXObserverCreate(pid, hotki_ax_callback, out);
}

static AXError hotki_observer_add(AXObserverRef observer, AXUIElementRef element, CFStringRef notification, uintptr_t handle) {
	return AXObserverAddNotification(observer, element, notification, (void *)handle);
}

static CFTypeRef hotki_cfstring(const char *s) {
	return CFStringCreateWithCString(NULL, s, kCFStringEncodingUTF8);
}

static CFStringRef hotki_copy_string_attr(AXUIElementRef elem, CFStringRef attr) {
	CFTypeRef out = NULL;
	if (AXUIElementCopyAttributeValue(elem, attr, &out) != 0 || out == NULL) {
		return NULL;
	}
	return (CFStringRef)out;
}

static int hotki_cfstring_to_utf8(CFStringRef s, char *buf, int bufLen) {
	if (s == NULL) {
		return 0;
	}
	return CFStringGetCString(s, buf, bufLen, kCFStringEncodingUTF8) ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"
)

// darwinHandle is the attach handle this backend hands back to Registry:
// the observer, app element, and cgo.Handle context that must all be
// released together on Detach.
type darwinHandle struct {
	observer C.AXObserverRef
	appElem  C.AXUIElementRef
	h        cgo.Handle
}

type observerCtx struct {
	pid     int32
	onEvent func(Event)
}

// DarwinBackend is the real macOS Backend, grounded in
// original_source/crates/mac-winops/src/ax_observer.rs's AXObserverCreate/
// AXObserverAddNotification lifecycle, adapted from Rust's RAII Drop-based
// release to Go's explicit Detach.
type DarwinBackend struct{}

func cfstr(s string) C.CFStringRef {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.CFStringRef(C.hotki_cfstring(cs))
}

// Attach creates one AXObserver for pid, adds its runloop source to the
// current runloop in the default mode, and registers every notification
// in AllNotifications against the process's application element.
func (DarwinBackend) Attach(pid int32, onEvent func(Event)) (interface{}, error) {
	ctx := &observerCtx{pid: pid, onEvent: onEvent}
	h := cgo.NewHandle(ctx)

	var observer C.AXObserverRef
	if code := C.hotki_observer_create(C.pid_t(pid), C.uintptr_t(h), &observer); code != kAXErrorSuccess {
		h.Delete()
		return nil, fmt.Errorf("axobserver: AXObserverCreate failed for pid %d: %d", pid, int(code))
	}

	appElem := C.AXUIElementCreateApplication(C.pid_t(pid))
	if appElem == 0 {
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(observer)))
		h.Delete()
		return nil, fmt.Errorf("axobserver: AXUIElementCreateApplication failed for pid %d", pid)
	}

	for _, n := range AllNotifications {
		name := cfstr(n.Name())
		C.hotki_observer_add(observer, appElem, name, C.uintptr_t(h))
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(name)))
	}

	src := C.AXObserverGetRunLoopSource(observer)
	C.CFRunLoopAddSource(C.CFRunLoopGetCurrent(), src, C.kCFRunLoopDefaultMode)

	return &darwinHandle{observer: observer, appElem: appElem, h: h}, nil
}

// Detach removes the observer's runloop source and releases every CF
// object and the cgo.Handle allocated in Attach.
func (DarwinBackend) Detach(handle interface{}) {
	dh, ok := handle.(*darwinHandle)
	if !ok {
		return
	}
	src := C.AXObserverGetRunLoopSource(dh.observer)
	C.CFRunLoopRemoveSource(C.CFRunLoopGetCurrent(), src, C.kCFRunLoopDefaultMode)
	C.CFRelease(C.CFTypeRef(unsafe.Pointer(dh.appElem)))
	C.CFRelease(C.CFTypeRef(unsafe.Pointer(dh.observer)))
	dh.h.Delete()
}

const kAXErrorSuccess = 0

func readStringAttr(elem C.AXUIElementRef, attr string) string {
	a := cfstr(attr)
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(a)))
	s := C.hotki_copy_string_attr(elem, a)
	if s == 0 {
		return ""
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(s)))
	buf := make([]byte, 1024)
	if C.hotki_cfstring_to_utf8(s, (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf))) == 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

//export hotki_ax_callback
func hotki_ax_callback(observer C.AXObserverRef, element C.AXUIElementRef, notification C.CFStringRef, refcon unsafe.Pointer) {
	// A panic must never unwind across this cgo boundary; there is no
	// event value to fall back to, so just swallow it.
	defer func() { recover() }()

	h := cgo.Handle(uintptr(refcon))
	ctx, ok := h.Value().(*observerCtx)
	if !ok {
		return
	}

	name := cfStringToGo(notification)
	n, ok := notificationByName(name)
	if !ok {
		return
	}

	hint := Hint{
		Title:   readStringAttr(element, "AXTitle"),
		Role:    readStringAttr(element, "AXRole"),
		Subrole: readStringAttr(element, "AXSubrole"),
	}
	ctx.onEvent(Translate(ctx.pid, n, hint))
}

func cfStringToGo(s C.CFStringRef) string {
	if s == 0 {
		return ""
	}
	buf := make([]byte, 256)
	if C.hotki_cfstring_to_utf8(s, (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf))) == 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

func notificationByName(name string) (Notification, bool) {
	for _, n := range AllNotifications {
		if n.Name() == name {
			return n, true
		}
	}
	return 0, false
}
