// Package geom implements the float64 point/rectangle arithmetic used by
// the placement engine and the world model, adapted from gioui.org/f32 to
// carry pixel geometry (window frames, visible frames, grid cells) rather
// than layout geometry.
package geom

import "math"

// Point is a two dimensional point in screen pixels.
type Point struct {
	X, Y float64
}

// Add returns p+p2.
func (p Point) Add(p2 Point) Point { return Point{p.X + p2.X, p.Y + p2.Y} }

// Sub returns p-p2.
func (p Point) Sub(p2 Point) Point { return Point{p.X - p2.X, p.Y - p2.Y} }

// Rect is an axis-aligned rectangle in screen pixels, with the origin at
// the top-left, matching CoreGraphics' screen coordinate convention as
// used throughout the placement engine.
type Rect struct {
	X, Y, W, H float64
}

// Min returns the top-left point of r.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Max returns the bottom-right point of r.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Center returns the center point of r.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies within r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Translated returns r moved by (dx, dy).
func (r Rect) Translated(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// WithSize returns r with its size replaced, origin unchanged.
func (r Rect) WithSize(w, h float64) Rect {
	r.W = w
	r.H = h
	return r
}

// WithOrigin returns r with its origin replaced, size unchanged.
func (r Rect) WithOrigin(x, y float64) Rect {
	r.X = x
	r.Y = y
	return r
}

// ApproxEqual reports whether r and s are equal within eps on every edge.
func (r Rect) ApproxEqual(s Rect, eps float64) bool {
	return math.Abs(r.X-s.X) <= eps &&
		math.Abs(r.Y-s.Y) <= eps &&
		math.Abs(r.W-s.W) <= eps &&
		math.Abs(r.H-s.H) <= eps
}

// AxisDelta describes which single axis of a rect differs from a target
// beyond eps, used by the placement engine's axis-nudge step.
type AxisDelta struct {
	Axis  string // "x", "y", or "" if not exactly one axis is off
	Delta float64
}

// SingleAxisOff reports the single position axis (x or y) that differs
// from target by more than eps, provided exactly one does; Axis is empty
// otherwise (zero or both axes off).
func SingleAxisOff(got, target Rect, eps float64) AxisDelta {
	dx := math.Abs(got.X - target.X)
	dy := math.Abs(got.Y - target.Y)
	switch {
	case dx > eps && dy <= eps:
		return AxisDelta{Axis: "x", Delta: target.X - got.X}
	case dy > eps && dx <= eps:
		return AxisDelta{Axis: "y", Delta: target.Y - got.Y}
	default:
		return AxisDelta{}
	}
}

// GridCell computes the target rectangle for grid cell (col, row) of a
// cols x rows grid tiling the visible frame vf.
func GridCell(vf Rect, cols, rows, col, row int) Rect {
	cw := vf.W / float64(cols)
	ch := vf.H / float64(rows)
	return Rect{
		X: vf.X + float64(col)*cw,
		Y: vf.Y + float64(row)*ch,
		W: cw,
		H: ch,
	}
}

// Corner identifies a screen corner for hide-to-corner placement.
type Corner int

const (
	CornerTopLeft Corner = iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

// AnchorLegal computes the anchored-legal rectangle for a window whose
// achievable size (due to an app-enforced minimum) does not fit the
// requested grid cell: the achievable size is kept but the rectangle is
// snapped to the cell's anchor corner, clamped to stay within vf.
func AnchorLegal(cell, vf Rect, achievable Point) Rect {
	w, h := achievable.X, achievable.Y
	if w > vf.W {
		w = vf.W
	}
	if h > vf.H {
		h = vf.H
	}
	x := cell.X
	y := cell.Y
	if x+w > vf.X+vf.W {
		x = vf.X + vf.W - w
	}
	if y+h > vf.Y+vf.H {
		y = vf.Y + vf.H - h
	}
	if x < vf.X {
		x = vf.X
	}
	if y < vf.Y {
		y = vf.Y
	}
	return Rect{X: x, Y: y, W: w, H: h}
}
