package winops

import "github.com/cortesi/hotki/internal/geom"

// Direction is a cardinal screen direction for focus navigation, per
// spec.md §4.5's focus_dir(direction).
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// FocusCandidate is the minimal geometry focus_dir needs about a window
// on the active space: its frame and a z-order value (higher is more
// frontmost), plus an opaque key the caller uses to identify the window.
type FocusCandidate struct {
	Key  interface{}
	Rect geom.Rect
	Z    int
}

// axisDelta returns, for the given direction, how far forward candidate
// c lies from origin (positive means "in that direction") along the
// primary axis, and how far off-axis (perpendicular distance) it is
// measured center to center. ok is false if c does not lie in direction
// from origin at all.
func axisDelta(origin, c geom.Rect, dir Direction) (forward, perp float64, ok bool) {
	oc := origin.Center()
	cc := c.Center()
	switch dir {
	case DirUp:
		forward = oc.Y - cc.Y
		perp = abs(cc.X - oc.X)
	case DirDown:
		forward = cc.Y - oc.Y
		perp = abs(cc.X - oc.X)
	case DirLeft:
		forward = oc.X - cc.X
		perp = abs(cc.Y - oc.Y)
	case DirRight:
		forward = cc.X - oc.X
		perp = abs(cc.Y - oc.Y)
	}
	return forward, perp, forward > 0
}

// FocusDir selects the nearest candidate in direction from origin: the
// smallest forward distance wins, ties broken by smaller perpendicular
// distance, then by higher z-order (more frontmost), per spec.md §4.5.
// It returns ok=false if no candidate lies in direction at all.
func FocusDir(origin geom.Rect, candidates []FocusCandidate, dir Direction) (FocusCandidate, bool) {
	var best FocusCandidate
	var bestForward, bestPerp float64
	found := false

	for _, c := range candidates {
		forward, perp, ok := axisDelta(origin, c.Rect, dir)
		if !ok {
			continue
		}
		if !found {
			best, bestForward, bestPerp = c, forward, perp
			found = true
			continue
		}
		switch {
		case forward < bestForward:
			best, bestForward, bestPerp = c, forward, perp
		case forward == bestForward:
			switch {
			case perp < bestPerp:
				best, bestForward, bestPerp = c, forward, perp
			case perp == bestPerp && c.Z > best.Z:
				best, bestForward, bestPerp = c, forward, perp
			}
		}
	}
	return best, found
}
