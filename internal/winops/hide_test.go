package winops

import (
	"testing"

	"github.com/cortesi/hotki/internal/geom"
)

func TestHidePersistsPreHideGeometryAndUnhideRestores(t *testing.T) {
	ops := &mockOps{
		vf:      geom.Rect{X: 0, Y: 0, W: 1000, H: 1000},
		rect:    geom.Rect{X: 100, Y: 100, W: 400, H: 300},
		canPos:  true,
		canSize: true,
	}
	store := NewHideStore()

	hidden, err := Hide(ops, store, 42, 7, 1, geom.CornerTopRight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Hidden rect should have moved the window outside the visible frame
	// to the right.
	if hidden.X+hidden.W <= ops.vf.X+ops.vf.W && hidden.X <= ops.vf.X+ops.vf.W {
		t.Fatalf("expected window pushed toward the right edge, got %+v", hidden)
	}

	ok, err := Unhide(ops, store, 42, 7, 1)
	if err != nil {
		t.Fatalf("unexpected error on unhide: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored entry to restore")
	}
	want := geom.Rect{X: 100, Y: 100, W: 400, H: 300}
	if !ops.rect.ApproxEqual(want, VerifyEps) {
		t.Fatalf("got %+v want %+v after unhide", ops.rect, want)
	}
}

func TestUnhideWithoutPriorHideReportsNotFound(t *testing.T) {
	ops := &mockOps{canPos: true, canSize: true}
	store := NewHideStore()
	ok, err := Unhide(ops, store, 1, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no stored entry")
	}
}

func TestHideTargetsRequestedCorner(t *testing.T) {
	vf := geom.Rect{X: 0, Y: 0, W: 1000, H: 1000}
	size := geom.Point{X: 200, Y: 150}

	tl := cornerOvershootTarget(vf, size, geom.CornerTopLeft)
	if tl.X >= vf.X || tl.Y >= vf.Y {
		t.Fatalf("top-left overshoot should move negative on both axes, got %+v", tl)
	}

	br := cornerOvershootTarget(vf, size, geom.CornerBottomRight)
	if br.X+br.W <= vf.X+vf.W || br.Y+br.H <= vf.Y+vf.H {
		t.Fatalf("bottom-right overshoot should move past both far edges, got %+v", br)
	}
}

func TestOutwardSignMatchesEachCorner(t *testing.T) {
	cases := []struct {
		corner     geom.Corner
		wantX, wantY float64
	}{
		{geom.CornerTopLeft, -1, -1},
		{geom.CornerTopRight, 1, -1},
		{geom.CornerBottomLeft, -1, 1},
		{geom.CornerBottomRight, 1, 1},
	}
	for _, c := range cases {
		dx, dy := outwardSign(c.corner)
		if dx != c.wantX || dy != c.wantY {
			t.Fatalf("corner %v: got (%v,%v) want (%v,%v)", c.corner, dx, dy, c.wantX, c.wantY)
		}
	}
}
