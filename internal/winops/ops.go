// Package winops implements the window placement engine of spec.md
// §4.5: the ordered, verify-at-each-step state machine that places a
// window into a grid cell despite apps that enforce minimum sizes,
// quantize to size increments, apply changes asynchronously, or tween.
// The pure pipeline logic is exercised against a mock Ops in tests; the
// real Ops is a darwin-cgo AXUIElement implementation grounded in
// app/os_macos.go's window-method style (Configure/zoomWindow/
// raiseWindow), adapted from AppKit NSWindow calls to
// AXUIElementSetAttributeValue calls.
package winops

import (
	"errors"
	"fmt"

	"github.com/cortesi/hotki/internal/geom"
)

// WindowRef opaquely identifies a target window to an Ops implementation.
type WindowRef uint64

// Ops is the set of primitive, single-window operations the placement
// engine composes. Every mutator is expected to be asynchronous from the
// app's perspective; WaitSettle is the engine's only synchronization
// point.
type Ops interface {
	CanSetPos(w WindowRef) (bool, error)
	CanSetSize(w WindowRef) (bool, error)
	GetRect(w WindowRef) (geom.Rect, error)
	SetPos(w WindowRef, p geom.Point) error
	SetSize(w WindowRef, size geom.Point) error
	VisibleFrame(w WindowRef) (geom.Rect, error)
	WaitSettle(w WindowRef) error
	Raise(w WindowRef) error
}

// Sentinel errors from spec.md §4.5's "Error conditions".
var (
	ErrUnsupported = errors.New("winops: AX attribute unsupported")
	ErrWindowGone  = errors.New("winops: window no longer exists")
	ErrMainThread  = errors.New("winops: operation requires the main thread")
	ErrAppElement  = errors.New("winops: cannot create AX application element")
)

// VerificationFailure is returned when no pipeline step achieves the
// target rectangle within VerifyEps, carrying the last observed
// rectangle and which axes remained unverified.
type VerificationFailure struct {
	Last   geom.Rect
	Target geom.Rect
	PosOK  bool
	SizeOK bool
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("winops: verification failed: last=%+v target=%+v posOK=%v sizeOK=%v", e.Last, e.Target, e.PosOK, e.SizeOK)
}

// PosFirstOnlyFailure is returned when PosFirstOnly is set and the
// primary attempt (step 2) did not verify.
type PosFirstOnlyFailure struct {
	Last   geom.Rect
	Target geom.Rect
}

func (e *PosFirstOnlyFailure) Error() string {
	return fmt.Sprintf("winops: pos-first-only attempt failed: last=%+v target=%+v", e.Last, e.Target)
}

// VerifyEps is the tolerance (pixels) within which an observed rectangle
// is considered to match a target rectangle, per spec.md §4.5.
const VerifyEps = 2.0

// PlaceAttemptOptions controls how far the pipeline goes before giving
// up, per spec.md §4.5.
type PlaceAttemptOptions struct {
	PosFirstOnly       bool
	ForceSecondAttempt bool
	ForceShrinkMoveGrow bool
}
