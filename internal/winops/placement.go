package winops

import "github.com/cortesi/hotki/internal/geom"

// ShrinkSafeSize is the small, almost-certainly-legal size used by the
// shrink→move→grow fallback (step 6) to escape min-size/increment
// constraints that can block a direct resize.
const ShrinkSafeSize = 200.0

func verify(got, target geom.Rect, eps float64) (posOK, sizeOK bool) {
	posOK = abs(got.X-target.X) <= eps && abs(got.Y-target.Y) <= eps
	sizeOK = abs(got.W-target.W) <= eps && abs(got.H-target.H) <= eps
	return
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func applyOrder(ops Ops, w WindowRef, target geom.Rect, posFirst bool) error {
	pos := geom.Point{X: target.X, Y: target.Y}
	size := geom.Point{X: target.W, Y: target.H}
	if posFirst {
		if err := ops.SetPos(w, pos); err != nil {
			return err
		}
		if err := ops.SetSize(w, size); err != nil {
			return err
		}
	} else {
		if err := ops.SetSize(w, size); err != nil {
			return err
		}
		if err := ops.SetPos(w, pos); err != nil {
			return err
		}
	}
	return ops.WaitSettle(w)
}

// Place runs the 7-step placement pipeline of spec.md §4.5 to move w
// into grid cell (col, row) of a cols×rows grid over the visible frame
// of w's current screen.
func Place(ops Ops, w WindowRef, cols, rows, col, row int, opts PlaceAttemptOptions) (geom.Rect, error) {
	vf, err := ops.VisibleFrame(w)
	if err != nil {
		return geom.Rect{}, err
	}
	target := geom.GridCell(vf, cols, rows, col, row)

	// Step 1: order hint.
	canPos, err := ops.CanSetPos(w)
	if err != nil {
		return geom.Rect{}, err
	}
	canSize, err := ops.CanSetSize(w)
	if err != nil {
		return geom.Rect{}, err
	}
	if !canPos && !canSize {
		return geom.Rect{}, ErrUnsupported
	}
	posFirst := canPos

	// Step 2: primary attempt.
	if err := applyOrder(ops, w, target, posFirst); err != nil {
		return geom.Rect{}, err
	}
	got, err := ops.GetRect(w)
	if err != nil {
		return geom.Rect{}, err
	}
	posOK, sizeOK := verify(got, target, VerifyEps)
	if posOK && sizeOK && !opts.ForceSecondAttempt {
		return got, nil
	}
	if opts.PosFirstOnly {
		return geom.Rect{}, &PosFirstOnlyFailure{Last: got, Target: target}
	}

	// Step 3: axis nudge, if exactly one position axis is off.
	if axis := geom.SingleAxisOff(got, target, VerifyEps); axis.Axis != "" {
		nudged := geom.Point{X: got.X, Y: got.Y}
		switch axis.Axis {
		case "x":
			nudged.X = target.X
		case "y":
			nudged.Y = target.Y
		}
		if err := ops.SetPos(w, nudged); err == nil {
			_ = ops.WaitSettle(w)
			if got2, err2 := ops.GetRect(w); err2 == nil {
				got = got2
				posOK, sizeOK = verify(got, target, VerifyEps)
				if posOK && sizeOK {
					return got, nil
				}
			}
		}
	}

	// Step 4: retry opposite order.
	if err := applyOrder(ops, w, target, !posFirst); err != nil {
		return geom.Rect{}, err
	}
	got, err = ops.GetRect(w)
	if err != nil {
		return geom.Rect{}, err
	}
	posOK, sizeOK = verify(got, target, VerifyEps)
	if posOK && sizeOK {
		return got, nil
	}

	// Step 5: size-only + anchor, if pos latched but size did not.
	if posOK && !sizeOK && canSize {
		if err := ops.SetSize(w, geom.Point{X: target.W, Y: target.H}); err == nil {
			_ = ops.WaitSettle(w)
			if achieved, err2 := ops.GetRect(w); err2 == nil {
				anchored := geom.AnchorLegal(target, vf, geom.Point{X: achieved.W, Y: achieved.H})
				if err3 := ops.SetPos(w, geom.Point{X: anchored.X, Y: anchored.Y}); err3 == nil {
					_ = ops.WaitSettle(w)
					if got3, err4 := ops.GetRect(w); err4 == nil {
						got = got3
						posOK, sizeOK = verify(got, anchored, VerifyEps)
						if posOK && sizeOK {
							return got, nil
						}
					}
				}
			}
		}
	}

	// Step 6: shrink→move→grow fallback.
	if opts.ForceShrinkMoveGrow || (!posOK || !sizeOK) {
		if got6, err6 := shrinkMoveGrow(ops, w, target); err6 == nil {
			got = got6
			posOK, sizeOK = verify(got, target, VerifyEps)
			if posOK && sizeOK {
				return got, nil
			}
		}
	}

	// Step 7: terminate unverified.
	return geom.Rect{}, &VerificationFailure{Last: got, Target: target, PosOK: posOK, SizeOK: sizeOK}
}

// shrinkMoveGrow shrinks w to ShrinkSafeSize, moves it to target's origin,
// then grows it to target's size, waiting for settle between each phase,
// and returns the resulting observed rectangle. Separated from Place so
// it can be exercised directly against apps that refuse a direct resize
// from a large size but allow growth from a small one.
func shrinkMoveGrow(ops Ops, w WindowRef, target geom.Rect) (geom.Rect, error) {
	safe := geom.Point{X: ShrinkSafeSize, Y: ShrinkSafeSize}
	if err := ops.SetSize(w, safe); err != nil {
		return geom.Rect{}, err
	}
	_ = ops.WaitSettle(w)
	if err := ops.SetPos(w, geom.Point{X: target.X, Y: target.Y}); err != nil {
		return geom.Rect{}, err
	}
	_ = ops.WaitSettle(w)
	if err := ops.SetSize(w, geom.Point{X: target.W, Y: target.H}); err != nil {
		return geom.Rect{}, err
	}
	_ = ops.WaitSettle(w)
	return ops.GetRect(w)
}
