// Package geom contains the screen-space value types shared by the editor and its renderers.
package geom

import "math"

// Pos2 represents a point on the editing surface.
type Pos2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec2 represents a displacement, such as one frame's drag delta.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p moved by v.
func (p Pos2) Add(v Vec2) Pos2 {
	return Pos2{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from q to p.
func (p Pos2) Sub(q Pos2) Vec2 {
	return Vec2{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the euclidean distance between two points.
func (p Pos2) Distance(q Pos2) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// LengthSq returns the squared length of the vector.
func (v Vec2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// IsZero reports whether the vector has no length.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Rect represents an axis-aligned rectangle. Min is inclusive, Max is exclusive.
type Rect struct {
	Min Pos2 `json:"min"`
	Max Pos2 `json:"max"`
}

// RectFromTwoPos returns the rectangle spanned by two corners given in any order.
func RectFromTwoPos(a, b Pos2) Rect {
	return Rect{
		Min: Pos2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Pos2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// RectFromMinSize returns the rectangle with the given top-left corner and size.
func RectFromMinSize(min Pos2, size Vec2) Rect {
	return Rect{Min: min, Max: min.Add(size)}
}

// RectFromCenterSize returns the rectangle of the given size centered on c.
func RectFromCenterSize(c Pos2, size Vec2) Rect {
	half := Vec2{X: size.X / 2, Y: size.Y / 2}
	return Rect{
		Min: Pos2{X: c.X - half.X, Y: c.Y - half.Y},
		Max: Pos2{X: c.X + half.X, Y: c.Y + half.Y},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Pos2 {
	return Pos2{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(p Pos2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X &&
		p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Intersects reports whether two rectangles overlap. Touching edges count,
// so a zero-width selection box dragged along a node's border still hits it.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Expand grows the rectangle by amount on every side.
func (r Rect) Expand(amount float64) Rect {
	return Rect{
		Min: Pos2{X: r.Min.X - amount, Y: r.Min.Y - amount},
		Max: Pos2{X: r.Max.X + amount, Y: r.Max.Y + amount},
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Pos2{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Pos2{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}
