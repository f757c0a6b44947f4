package quadtree

import "math"

// Point is a single-precision 2D point.
type Point struct {
	X, Y float32
}

// Rectangle is an axis-aligned rectangle given by its lower-left corner
// and its extents. Width and Height are expected to be non-negative.
type Rectangle struct {
	X, Y, Width, Height float32
}

// Left returns the rectangle's minimum x edge.
func (r Rectangle) Left() float32 { return r.X }

// Right returns the rectangle's maximum x edge.
func (r Rectangle) Right() float32 { return r.X + r.Width }

// Top returns the rectangle's minimum y edge.
func (r Rectangle) Top() float32 { return r.Y }

// Bottom returns the rectangle's maximum y edge.
func (r Rectangle) Bottom() float32 { return r.Y + r.Height }

// Center returns the geometric center of the rectangle.
func (r Rectangle) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// Area returns width*height.
func (r Rectangle) Area() float32 {
	return r.Width * r.Height
}

// ContainsPoint reports whether p lies within r under the half-open
// convention: x <= px < x+w, y <= py < y+h.
func (r Rectangle) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// ContainsRect reports whether r fully contains other, half-open on the
// right/bottom edges.
func (r Rectangle) ContainsRect(other Rectangle) bool {
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

// Intersects reports whether r and other overlap.
func (r Rectangle) Intersects(other Rectangle) bool {
	if r.Right() <= other.X || other.Right() <= r.X {
		return false
	}
	if r.Bottom() <= other.Y || other.Bottom() <= r.Y {
		return false
	}
	return true
}

// degenerate reports whether r is too small or non-finite to subdivide.
func (r Rectangle) degenerate() bool {
	area := float64(r.Area())
	return area < 0.01 || math.IsNaN(area) || math.IsInf(area, 0)
}

// quarters splits r into four child rectangles around mid, in
// tl, tr, bl, br order (matching Node's child slot convention).
func (r Rectangle) quarters(mid Point) [4]Rectangle {
	return [4]Rectangle{
		{r.X, r.Y, mid.X - r.X, mid.Y - r.Y},                   // tl
		{mid.X, r.Y, r.Right() - mid.X, mid.Y - r.Y},           // tr
		{r.X, mid.Y, mid.X - r.X, r.Bottom() - mid.Y},          // bl
		{mid.X, mid.Y, r.Right() - mid.X, r.Bottom() - mid.Y},  // br
	}
}
