package geom

import "testing"

func TestGridCell(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 1440, H: 900}
	c := GridCell(vf, 3, 1, 0, 0)
	if c.W != 480 || c.H != 900 || c.X != 0 || c.Y != 0 {
		t.Fatalf("unexpected cell: %+v", c)
	}
	c2 := GridCell(vf, 3, 1, 2, 0)
	if c2.X != 960 {
		t.Fatalf("unexpected cell2 x: %+v", c2)
	}
}

func TestSingleAxisOff(t *testing.T) {
	target := Rect{X: 0, Y: 0, W: 480, H: 900}
	got := Rect{X: 10, Y: 0, W: 480, H: 900}
	d := SingleAxisOff(got, target, 2)
	if d.Axis != "x" || d.Delta != -10 {
		t.Fatalf("unexpected delta: %+v", d)
	}

	bothOff := Rect{X: 10, Y: 10, W: 480, H: 900}
	if d := SingleAxisOff(bothOff, target, 2); d.Axis != "" {
		t.Fatalf("expected no single axis, got %+v", d)
	}

	none := Rect{X: 0, Y: 0, W: 480, H: 900}
	if d := SingleAxisOff(none, target, 2); d.Axis != "" {
		t.Fatalf("expected no axis off, got %+v", d)
	}
}

func TestAnchorLegal(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 1440, H: 900}
	cell := GridCell(vf, 3, 1, 0, 0)
	// App enforces a minimum width of 600, wider than the 480 cell.
	anchored := AnchorLegal(cell, vf, Point{X: 600, Y: 900})
	if anchored.X != 0 || anchored.W != 600 || anchored.H != 900 {
		t.Fatalf("unexpected anchored rect: %+v", anchored)
	}
}

func TestApproxEqual(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}
	b := Rect{X: 1, Y: -1, W: 100, H: 100}
	if !a.ApproxEqual(b, 2) {
		t.Fatalf("expected approx equal")
	}
	if a.ApproxEqual(b, 0.5) {
		t.Fatalf("expected not approx equal at tight eps")
	}
}
