//go:build darwin

package winops

/*
#cgo CFLAGS: -Werror -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation

#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

static AXUIElementRef hotki_app_element(pid_t pid) {
	return AXUIElementCreateApplication(pid);
}

static AXError hotki_copy_attr(AXUIElementRef elem, CFStringRef attr, CFTypeRef *out) {
	return AXUIElementCopyAttributeValue(elem, attr, out);
}

static AXError hotki_set_attr(AXUIElementRef elem, CFStringRef attr, CFTypeRef value) {
	return AXUIElementSetAttributeValue(elem, attr, value);
}

static AXError hotki_copy_bool_settable(AXUIElementRef elem, CFStringRef attr, Boolean *out) {
	return AXUIElementIsAttributeSettable(elem, attr, out);
}

static CFTypeRef hotki_cfstring(const char *s) {
	return CFStringCreateWithCString(NULL, s, kCFStringEncodingUTF8);
}

static AXError hotki_perform_action(AXUIElementRef elem, CFStringRef action) {
	return AXUIElementPerformAction(elem, action);
}

static CGPoint hotki_point_value(AXValueRef v) {
	CGPoint p = {0, 0};
	AXValueGetValue(v, kAXValueCGPointType, &p);
	return p;
}

static CGSize hotki_size_value(AXValueRef v) {
	CGSize s = {0, 0};
	AXValueGetValue(v, kAXValueCGSizeType, &s);
	return s;
}

static AXValueRef hotki_make_point(CGFloat x, CGFloat y) {
	CGPoint p = CGPointMake(x, y);
	return AXValueCreate(kAXValueCGPointType, &p);
}

static AXValueRef hotki_make_size(CGFloat w, CGFloat h) {
	CGSize s = CGSizeMake(w, h);
	return AXValueCreate(kAXValueCGSizeType, &s);
}
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/cortesi/hotki/internal/geom"
)

// axSettleInterval is how long WaitSettle pauses for an AX attribute
// write to be observed by the window server before the next step reads
// it back, grounded in the window-server round-trip delay
// app/os_macos.go's own NSWindow setFrame calls rely on being
// synchronous for (AX writes are not).
const axSettleInterval = 15 * time.Millisecond

// kAXErrorSuccess mirrors ApplicationServices' AXError success value.
const kAXErrorSuccess = 0

func cfstr(s string) C.CFTypeRef {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.hotki_cfstring(cs)
}

// AXOps implements Ops against a live AXUIElement, one element per
// WindowRef as resolved by a caller-supplied lookup (AXElementStore.Resolve
// maps a WindowRef to its AXUIElement; RefPool records its pid).
// Grounded in original_source/crates/mac-winops/src/focus/ax.rs's
// AXUIElement lifecycle and app/os_macos.go's window-method style,
// adapted from AppKit NSWindow property writes to AX attribute writes.
type AXOps struct {
	resolve      func(w WindowRef) (C.AXUIElementRef, error)
	visibleFrame func(w WindowRef) (geom.Rect, error)
}

// NewAXOps constructs an AXOps that resolves a WindowRef to its
// AXUIElementRef via resolve, and its current screen's visible frame
// (menu bar and Dock excluded) via visibleFrame — AX has no attribute
// for a screen's visible frame, so that lookup is NSScreen's job and is
// supplied by the caller rather than implemented here.
func NewAXOps(resolve func(w WindowRef) (C.AXUIElementRef, error), visibleFrame func(w WindowRef) (geom.Rect, error)) *AXOps {
	return &AXOps{resolve: resolve, visibleFrame: visibleFrame}
}

func (o *AXOps) elem(w WindowRef) (C.AXUIElementRef, error) {
	return o.resolve(w)
}

func (o *AXOps) attrSettable(w WindowRef, attr string) (bool, error) {
	elem, err := o.elem(w)
	if err != nil {
		return false, err
	}
	a := cfstr(attr)
	defer C.CFRelease(C.CFTypeRef(a))
	var settable C.Boolean
	code := C.hotki_copy_bool_settable(elem, C.CFStringRef(a), &settable)
	if code != kAXErrorSuccess {
		return false, nil
	}
	return settable != 0, nil
}

// CanSetPos reports whether AXPosition is settable on w.
func (o *AXOps) CanSetPos(w WindowRef) (bool, error) {
	return o.attrSettable(w, "AXPosition")
}

// CanSetSize reports whether AXSize is settable on w.
func (o *AXOps) CanSetSize(w WindowRef) (bool, error) {
	return o.attrSettable(w, "AXSize")
}

// GetRect reads AXPosition and AXSize and combines them into a Rect.
func (o *AXOps) GetRect(w WindowRef) (geom.Rect, error) {
	elem, err := o.elem(w)
	if err != nil {
		return geom.Rect{}, err
	}

	posAttr := cfstr("AXPosition")
	defer C.CFRelease(C.CFTypeRef(posAttr))
	var posVal C.CFTypeRef
	if code := C.hotki_copy_attr(elem, C.CFStringRef(posAttr), &posVal); code != kAXErrorSuccess {
		return geom.Rect{}, ErrWindowGone
	}
	defer C.CFRelease(posVal)
	pos := C.hotki_point_value(C.AXValueRef(posVal))

	sizeAttr := cfstr("AXSize")
	defer C.CFRelease(C.CFTypeRef(sizeAttr))
	var sizeVal C.CFTypeRef
	if code := C.hotki_copy_attr(elem, C.CFStringRef(sizeAttr), &sizeVal); code != kAXErrorSuccess {
		return geom.Rect{}, ErrWindowGone
	}
	defer C.CFRelease(sizeVal)
	size := C.hotki_size_value(C.AXValueRef(sizeVal))

	return geom.Rect{X: float64(pos.x), Y: float64(pos.y), W: float64(size.width), H: float64(size.height)}, nil
}

// SetPos writes AXPosition.
func (o *AXOps) SetPos(w WindowRef, p geom.Point) error {
	elem, err := o.elem(w)
	if err != nil {
		return err
	}
	attr := cfstr("AXPosition")
	defer C.CFRelease(C.CFTypeRef(attr))
	val := C.hotki_make_point(C.CGFloat(p.X), C.CGFloat(p.Y))
	defer C.CFRelease(C.CFTypeRef(val))
	if code := C.hotki_set_attr(elem, C.CFStringRef(attr), C.CFTypeRef(val)); code != kAXErrorSuccess {
		return ErrUnsupported
	}
	return nil
}

// SetSize writes AXSize.
func (o *AXOps) SetSize(w WindowRef, size geom.Point) error {
	elem, err := o.elem(w)
	if err != nil {
		return err
	}
	attr := cfstr("AXSize")
	defer C.CFRelease(C.CFTypeRef(attr))
	val := C.hotki_make_size(C.CGFloat(size.X), C.CGFloat(size.Y))
	defer C.CFRelease(C.CFTypeRef(val))
	if code := C.hotki_set_attr(elem, C.CFStringRef(attr), C.CFTypeRef(val)); code != kAXErrorSuccess {
		return ErrUnsupported
	}
	return nil
}

// VisibleFrame delegates to the caller-supplied NSScreen lookup.
func (o *AXOps) VisibleFrame(w WindowRef) (geom.Rect, error) {
	return o.visibleFrame(w)
}

// WaitSettle pauses briefly for the window server to apply the last AX
// write before the pipeline reads the rect back.
func (o *AXOps) WaitSettle(w WindowRef) error {
	time.Sleep(axSettleInterval)
	return nil
}

// Raise performs AXRaise on w, bringing it to the front of its
// application's window list without changing focus to another app.
func (o *AXOps) Raise(w WindowRef) error {
	elem, err := o.elem(w)
	if err != nil {
		return err
	}
	attr := cfstr("AXRaise")
	defer C.CFRelease(C.CFTypeRef(attr))
	if code := C.hotki_perform_action(elem, C.CFStringRef(attr)); code != kAXErrorSuccess {
		return ErrUnsupported
	}
	return nil
}
