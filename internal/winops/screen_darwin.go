//go:build darwin

package winops

/*
#cgo CFLAGS: -Werror -fobjc-arc -x objective-c
#cgo LDFLAGS: -framework AppKit

#include <AppKit/AppKit.h>

typedef struct { double x, y, w, h; int ok; } hotki_screen_rect;

// hotki_visible_frame_for_point returns the visibleFrame (menu bar and
// Dock excluded) of whichever NSScreen contains (x, y) in Cocoa's
// bottom-left-origin coordinate space, falling back to NSScreen.mainScreen
// when no screen contains the point.
static hotki_screen_rect hotki_visible_frame_for_point(double x, double y) {
	@autoreleasepool {
		NSPoint p = NSMakePoint(x, y);
		NSScreen *match = nil;
		for (NSScreen *s in NSScreen.screens) {
			if (NSPointInRect(p, s.frame)) {
				match = s;
				break;
			}
		}
		if (match == nil) {
			match = NSScreen.mainScreen;
		}
		hotki_screen_rect out = {0, 0, 0, 0, 0};
		if (match == nil) {
			return out;
		}
		NSRect vf = match.visibleFrame;
		out.x = vf.origin.x;
		out.y = vf.origin.y;
		out.w = vf.size.width;
		out.h = vf.size.height;
		out.ok = 1;
		return out;
	}
}

static double hotki_main_screen_height(void) {
	@autoreleasepool {
		NSScreen *s = NSScreen.mainScreen;
		if (s == nil) {
			return 0;
		}
		return s.frame.size.height;
	}
}
*/
import "C"

import "github.com/cortesi/hotki/internal/geom"

// flipY converts a top-left-origin CoreGraphics/AX y-coordinate to
// Cocoa's bottom-left-origin space, and back, against the main screen's
// height — the two conventions share this single conversion point
// (app/os_macos.go's NSScreen queries live entirely in the Cocoa
// convention; AX positions live entirely in the CG convention).
func flipY(y float64) float64 {
	return float64(C.hotki_main_screen_height()) - y
}

// VisibleFrameForAXPoint returns the visible frame (menu bar and Dock
// excluded) of the screen containing the AX-space point (x, y), expressed
// back in AX/CG's top-left-origin coordinate space so it composes
// directly with GetRect/SetPos's Rect values.
func VisibleFrameForAXPoint(x, y float64) (geom.Rect, error) {
	r := C.hotki_visible_frame_for_point(C.double(x), C.double(flipY(y)))
	if r.ok == 0 {
		return geom.Rect{}, ErrWindowGone
	}
	h := float64(C.hotki_main_screen_height())
	return geom.Rect{
		X: float64(r.x),
		Y: h - float64(r.y) - float64(r.h),
		W: float64(r.w),
		H: float64(r.h),
	}, nil
}
