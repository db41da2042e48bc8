//go:build darwin

package winops

/*
#cgo CFLAGS: -Werror -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework CoreFoundation

#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

static CFArrayRef hotki_copy_window_list(void) {
	return CGWindowListCopyWindowInfo(
		kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
		kCGNullWindowID);
}

static CFTypeRef hotki_mkstr(const char *s) {
	return CFStringCreateWithCString(NULL, s, kCFStringEncodingUTF8);
}

static CFTypeRef hotki_dict_get(CFDictionaryRef d, CFStringRef key) {
	if (d == NULL) {
		return NULL;
	}
	return CFDictionaryGetValue(d, key);
}

static int hotki_number_as_int64(CFTypeRef n, int64_t *out) {
	if (n == NULL || CFGetTypeID(n) != CFNumberGetTypeID()) {
		return 0;
	}
	return CFNumberGetValue((CFNumberRef)n, kCFNumberSInt64Type, out) ? 1 : 0;
}

static int hotki_number_as_double(CFTypeRef n, double *out) {
	if (n == NULL || CFGetTypeID(n) != CFNumberGetTypeID()) {
		return 0;
	}
	return CFNumberGetValue((CFNumberRef)n, kCFNumberDoubleType, out) ? 1 : 0;
}

static int hotki_string_utf8(CFTypeRef s, char *buf, int bufLen) {
	if (s == NULL || CFGetTypeID(s) != CFStringGetTypeID()) {
		return 0;
	}
	return CFStringGetCString((CFStringRef)s, buf, bufLen, kCFStringEncodingUTF8) ? 1 : 0;
}

static CFArrayRef hotki_copy_ax_windows(AXUIElementRef app) {
	CFTypeRef out = NULL;
	if (AXUIElementCopyAttributeValue(app, CFSTR("AXWindows"), &out) != 0) {
		return NULL;
	}
	return (CFArrayRef)out;
}

static CGPoint hotki_ax_position(AXUIElementRef elem, int *ok) {
	CGPoint p = {0, 0};
	CFTypeRef val = NULL;
	*ok = 0;
	if (AXUIElementCopyAttributeValue(elem, CFSTR("AXPosition"), &val) != 0 || val == NULL) {
		return p;
	}
	AXValueGetValue((AXValueRef)val, kAXValueCGPointType, &p);
	CFRelease(val);
	*ok = 1;
	return p;
}

static CGSize hotki_ax_size(AXUIElementRef elem, int *ok) {
	CGSize s = {0, 0};
	CFTypeRef val = NULL;
	*ok = 0;
	if (AXUIElementCopyAttributeValue(elem, CFSTR("AXSize"), &val) != 0 || val == NULL) {
		return s;
	}
	AXValueGetValue((AXValueRef)val, kAXValueCGSizeType, &s);
	CFRelease(val);
	*ok = 1;
	return s;
}
*/
import "C"

import (
	"math"
	"sync"
	"unsafe"

	"github.com/cortesi/hotki/internal/geom"
)

// CGWindowInfo is one on-screen window entry read from
// CGWindowListCopyWindowInfo, the portable shape cmd/hotki's
// reconciliation pass matches against AX elements per window.
type CGWindowInfo struct {
	WindowID  uint64
	PID       int32
	Layer     int32
	Bounds    geom.Rect
	OwnerName string
	Title     string
}

func cfStr(field string) *C.char {
	cs := C.CString(field)
	return cs
}

func readDictString(dict C.CFDictionaryRef, key string) string {
	k := cfStr(key)
	defer C.free(unsafe.Pointer(k))
	cfKey := C.hotki_mkstr(k)
	defer C.CFRelease(C.CFTypeRef(cfKey))
	v := C.hotki_dict_get(dict, C.CFStringRef(cfKey))
	buf := make([]byte, 1024)
	if C.hotki_string_utf8(v, (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf))) == 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

func readDictInt64(dict C.CFDictionaryRef, key string) (int64, bool) {
	k := cfStr(key)
	defer C.free(unsafe.Pointer(k))
	cfKey := C.hotki_mkstr(k)
	defer C.CFRelease(C.CFTypeRef(cfKey))
	v := C.hotki_dict_get(dict, C.CFStringRef(cfKey))
	var out C.int64_t
	if C.hotki_number_as_int64(v, &out) == 0 {
		return 0, false
	}
	return int64(out), true
}

func readDictDouble(dict C.CFDictionaryRef, key string) (float64, bool) {
	k := cfStr(key)
	defer C.free(unsafe.Pointer(k))
	cfKey := C.hotki_mkstr(k)
	defer C.CFRelease(C.CFTypeRef(cfKey))
	v := C.hotki_dict_get(dict, C.CFStringRef(cfKey))
	var out C.double
	if C.hotki_number_as_double(v, &out) == 0 {
		return 0, false
	}
	return float64(out), true
}

func readDictRect(dict C.CFDictionaryRef) geom.Rect {
	k := cfStr("kCGWindowBounds")
	defer C.free(unsafe.Pointer(k))
	cfKey := C.hotki_mkstr(k)
	defer C.CFRelease(C.CFTypeRef(cfKey))
	bounds := C.hotki_dict_get(dict, C.CFStringRef(cfKey))
	boundsDict := C.CFDictionaryRef(bounds)
	x, _ := readDictDouble(boundsDict, "X")
	y, _ := readDictDouble(boundsDict, "Y")
	w, _ := readDictDouble(boundsDict, "Width")
	h, _ := readDictDouble(boundsDict, "Height")
	return geom.Rect{X: x, Y: y, W: w, H: h}
}

// ListOnScreenWindows enumerates every on-screen, non-desktop window via
// CGWindowListCopyWindowInfo, per spec.md §4.6's reconciliation pass: the
// world model's authoritative window set is rebuilt from this list plus
// each owning process's AX window elements, since AX notifications alone
// carry no window identity (only a pid).
func ListOnScreenWindows() []CGWindowInfo {
	arr := C.hotki_copy_window_list()
	if arr == 0 {
		return nil
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(arr)))

	n := int(C.CFArrayGetCount(arr))
	out := make([]CGWindowInfo, 0, n)
	for i := 0; i < n; i++ {
		dict := C.CFDictionaryRef(C.CFArrayGetValueAtIndex(arr, C.CFIndex(i)))
		pid, _ := readDictInt64(dict, "kCGWindowOwnerPID")
		wid, _ := readDictInt64(dict, "kCGWindowNumber")
		layer, _ := readDictInt64(dict, "kCGWindowLayer")
		out = append(out, CGWindowInfo{
			WindowID:  uint64(wid),
			PID:       int32(pid),
			Layer:     int32(layer),
			Bounds:    readDictRect(dict),
			OwnerName: readDictString(dict, "kCGWindowOwnerName"),
			Title:     readDictString(dict, "kCGWindowName"),
		})
	}
	return out
}

// AXElementStore resolves WindowRefs to live AXUIElementRefs and backs
// AXOps's resolve callback. Elements are retained (CFRetain) for as long
// as a WindowRef names them and released on Forget.
type AXElementStore struct {
	mu    sync.Mutex
	pool  *RefPool
	elems map[WindowRef]C.AXUIElementRef
}

// NewAXElementStore constructs an empty store backed by pool.
func NewAXElementStore(pool *RefPool) *AXElementStore {
	return &AXElementStore{pool: pool, elems: make(map[WindowRef]C.AXUIElementRef)}
}

// Resolve implements the resolve callback NewAXOps expects.
func (s *AXElementStore) Resolve(w WindowRef) (C.AXUIElementRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.elems[w]
	if !ok {
		return 0, ErrWindowGone
	}
	return elem, nil
}

// Forget releases ref's AX element and removes it from both the store
// and the backing RefPool.
func (s *AXElementStore) Forget(ref WindowRef) {
	s.mu.Lock()
	elem, ok := s.elems[ref]
	delete(s.elems, ref)
	s.mu.Unlock()
	if ok {
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(elem)))
	}
	s.pool.Release(ref)
}

// ResolvedWindow pairs a freshly matched AX element with its CGWindowList
// counterpart for one process's reconciliation pass.
type ResolvedWindow struct {
	Ref  WindowRef
	Info CGWindowInfo
}

// ReconcilePID matches pid's AXWindows elements against the subset of
// cgWindows belonging to pid (by nearest on-screen bounds, since AX
// exposes no window id), allocating a new WindowRef for any element not
// already tracked and retaining it for the lifetime of that ref.
func (s *AXElementStore) ReconcilePID(pid int32, cgWindows []CGWindowInfo) []ResolvedWindow {
	app := C.AXUIElementCreateApplication(C.pid_t(pid))
	if app == 0 {
		return nil
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(app)))

	axWindows := C.hotki_copy_ax_windows(app)
	if axWindows == 0 {
		return nil
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(axWindows)))

	n := int(C.CFArrayGetCount(axWindows))
	var out []ResolvedWindow
	used := make(map[int]bool, len(cgWindows))
	for i := 0; i < n; i++ {
		elem := C.AXUIElementRef(C.CFArrayGetValueAtIndex(axWindows, C.CFIndex(i)))
		var posOK, sizeOK C.int
		pos := C.hotki_ax_position(elem, &posOK)
		size := C.hotki_ax_size(elem, &sizeOK)
		if posOK == 0 || sizeOK == 0 {
			continue
		}
		rect := geom.Rect{X: float64(pos.x), Y: float64(pos.y), W: float64(size.width), H: float64(size.height)}

		best, bestDist := -1, math.MaxFloat64
		for j, info := range cgWindows {
			if info.PID != pid || used[j] {
				continue
			}
			d := rectDistance(rect, info.Bounds)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 || bestDist > rectMatchTolerance {
			continue
		}
		used[best] = true
		ref := s.ensureRef(pid, elem)
		out = append(out, ResolvedWindow{Ref: ref, Info: cgWindows[best]})
	}
	return out
}

// rectMatchTolerance is the maximum rectDistance (summed absolute
// difference of x, y, width and height, in pixels) between an AX
// element's geometry and a CGWindowList entry's bounds for the two to be
// considered the same window.
const rectMatchTolerance = 4.0

func rectDistance(a, b geom.Rect) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dw := a.W - b.W
	dh := a.H - b.H
	return math.Abs(dx) + math.Abs(dy) + math.Abs(dw) + math.Abs(dh)
}

// ensureRef returns ref's existing WindowRef for elem if already tracked
// (compared by AX identity via CFEqual), otherwise retains elem and
// allocates a fresh ref.
func (s *AXElementStore) ensureRef(pid int32, elem C.AXUIElementRef) WindowRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, tracked := range s.elems {
		if C.CFEqual(C.CFTypeRef(unsafe.Pointer(tracked)), C.CFTypeRef(unsafe.Pointer(elem))) != 0 {
			return ref
		}
	}
	C.CFRetain(C.CFTypeRef(unsafe.Pointer(elem)))
	ref := s.pool.Alloc(pid)
	s.elems[ref] = elem
	return ref
}
