// Package vecmath provides the 2-vector primitives the physics package is
// built on: the host math library the rest of this module
// treats as a leaf dependency.
package vecmath

import "math"

// Vec2 is a 2D vector of float32 components.
type Vec2 struct {
	X, Y float32
}

// New returns the vector (x, y).
func New(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// Normalize returns v scaled to unit length, or the zero vector if v is zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

func (v Vec2) Abs() Vec2 {
	return Vec2{X: float32(math.Abs(float64(v.X))), Y: float32(math.Abs(float64(v.Y)))}
}

func Min(a, b Vec2) Vec2 {
	return Vec2{X: minF(a.X, b.X), Y: minF(a.Y, b.Y)}
}

func Max(a, b Vec2) Vec2 {
	return Vec2{X: maxF(a.X, b.X), Y: maxF(a.Y, b.Y)}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// LessOrEqualAll reports whether a.X <= b.X and a.Y <= b.Y, the component-wise
// comparison reduced with `all` that the AABB predicates are built from.
func LessOrEqualAll(a, b Vec2) bool {
	return a.X <= b.X && a.Y <= b.Y
}
