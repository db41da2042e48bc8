package winops

import "github.com/cortesi/hotki/internal/geom"

// overshoot is how far outside the visible frame the initial hide target
// is placed before the tightening pass pushes the window further outward.
const overshoot = 4000.0

// MinImprovement is the smallest motion, in pixels, that the tightening
// pass counts as the window having moved; a round that moves it less
// keeps the previous position.
const MinImprovement = 0.5

// MaxTighteningRounds is the number of halving-step rounds the tightening
// pass runs; each round moves both position axes together.
const MaxTighteningRounds = 3

// hiddenState is the persisted pre-hide geometry for one window, keyed
// by (pid, windowID) by the caller.
type hiddenState struct {
	PreHidePos  geom.Point
	PreHideSize geom.Point
	HiddenRect  geom.Rect
}

// HideStore persists pre-hide geometry across hide/unhide calls, keyed
// by (pid, windowID) per spec.md §4.5.
type HideStore struct {
	entries map[hideKey]hiddenState
}

type hideKey struct {
	pid      int32
	windowID uint64
}

// NewHideStore constructs an empty HideStore.
func NewHideStore() *HideStore {
	return &HideStore{entries: make(map[hideKey]hiddenState)}
}

// cornerOvershootTarget computes the overshoot rectangle for corner,
// placed far outside vf in the chosen direction while keeping the
// window's current size.
func cornerOvershootTarget(vf geom.Rect, size geom.Point, corner geom.Corner) geom.Rect {
	var x, y float64
	switch corner {
	case geom.CornerTopLeft:
		x, y = vf.X-overshoot, vf.Y-overshoot
	case geom.CornerTopRight:
		x, y = vf.X+vf.W+overshoot-size.X, vf.Y-overshoot
	case geom.CornerBottomLeft:
		x, y = vf.X-overshoot, vf.Y+vf.H+overshoot-size.Y
	case geom.CornerBottomRight:
		x, y = vf.X+vf.W+overshoot-size.X, vf.Y+vf.H+overshoot-size.Y
	}
	return geom.Rect{X: x, Y: y, W: size.X, H: size.Y}
}

// outwardSign returns the unit direction a position axis should move to
// push further outward (off-screen) for corner, per axis.
func outwardSign(corner geom.Corner) (dx, dy float64) {
	switch corner {
	case geom.CornerTopLeft:
		return -1, -1
	case geom.CornerTopRight:
		return 1, -1
	case geom.CornerBottomLeft:
		return -1, 1
	default:
		return 1, 1
	}
}

// Hide pushes w off-screen past corner of its current visible frame (an
// overshoot move, then tighten), persisting the pre-hide geometry in
// store under key (pid, windowID) so Unhide can restore it. How much of
// the window stays on-screen is decided by where the window server stops
// the moves; Hide does not measure it.
func Hide(ops Ops, store *HideStore, pid int32, windowID uint64, w WindowRef, corner geom.Corner) (geom.Rect, error) {
	vf, err := ops.VisibleFrame(w)
	if err != nil {
		return geom.Rect{}, err
	}
	pre, err := ops.GetRect(w)
	if err != nil {
		return geom.Rect{}, err
	}
	size := geom.Point{X: pre.W, Y: pre.H}

	target := cornerOvershootTarget(vf, size, corner)
	if err := ops.SetSize(w, size); err != nil {
		return geom.Rect{}, err
	}
	if err := ops.SetPos(w, geom.Point{X: target.X, Y: target.Y}); err != nil {
		return geom.Rect{}, err
	}
	_ = ops.WaitSettle(w)

	hidden, err := tighten(ops, w, vf, size, corner)
	if err != nil {
		return geom.Rect{}, err
	}

	store.entries[hideKey{pid, windowID}] = hiddenState{
		PreHidePos:  geom.Point{X: pre.X, Y: pre.Y},
		PreHideSize: size,
		HiddenRect:  hidden,
	}
	return hidden, nil
}

// tighten runs the halving-step search that drives the overshot window
// further outward at corner: each of MaxTighteningRounds rounds moves
// both position axes outward together by step (overshoot/2, halved every
// round) and keeps the observed rect only if the window moved by at least
// MinImprovement. Every round runs; the axes are not searched separately,
// and a round without improvement does not end the search.
func tighten(ops Ops, w WindowRef, vf geom.Rect, size geom.Point, corner geom.Corner) (geom.Rect, error) {
	dxSign, dySign := outwardSign(corner)
	cur, err := ops.GetRect(w)
	if err != nil {
		return geom.Rect{}, err
	}

	step := overshoot / 2
	for round := 0; round < MaxTighteningRounds; round++ {
		candidate := geom.Point{
			X: cur.X + dxSign*step,
			Y: cur.Y + dySign*step,
		}
		if err := ops.SetPos(w, candidate); err != nil {
			return geom.Rect{}, err
		}
		_ = ops.WaitSettle(w)
		next, err := ops.GetRect(w)
		if err != nil {
			return geom.Rect{}, err
		}
		moved := abs(next.X-cur.X) + abs(next.Y-cur.Y)
		if moved < MinImprovement {
			// This step achieved nothing; revert isn't necessary since the
			// no-op already left cur unchanged, just shrink the step.
			step /= 2
			continue
		}
		cur = next
		step /= 2
	}
	return cur, nil
}

// Unhide restores the pre-hide geometry stored under (pid, windowID), if
// present, returning whether an entry was found to restore.
func Unhide(ops Ops, store *HideStore, pid int32, windowID uint64, w WindowRef) (bool, error) {
	st, ok := store.entries[hideKey{pid, windowID}]
	if !ok {
		return false, nil
	}
	if err := ops.SetSize(w, st.PreHideSize); err != nil {
		return false, err
	}
	if err := ops.SetPos(w, st.PreHidePos); err != nil {
		return false, err
	}
	_ = ops.WaitSettle(w)
	delete(store.entries, hideKey{pid, windowID})
	return true, nil
}
