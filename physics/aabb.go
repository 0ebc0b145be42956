// Package physics implements the broad-phase dynamic AABB tree, the
// axis-aligned narrow-phase impulse solver, and the World façade that binds
// the two into a steppable simulation.
package physics

import "github.com/miaan15/cactus/vecmath"

// Collider is an axis-aligned box described by its center and positive
// half-extents. Collider and AABB are distinct types — unlike the C++
// predecessor, which aliased both to the same 2x2 matrix type and thereby
// obscured the invariant lo <= hi.
type Collider struct {
	Center   vecmath.Vec2
	HalfExts vecmath.Vec2
}

// AABB is an axis-aligned bounding box with Lo <= Hi componentwise.
type AABB struct {
	Lo, Hi vecmath.Vec2
}

// ColliderAABB returns the tight AABB enclosing c.
func ColliderAABB(c Collider) AABB {
	return AABB{
		Lo: c.Center.Sub(c.HalfExts),
		Hi: c.Center.Add(c.HalfExts),
	}
}

// Merge returns the smallest AABB containing both a and b.
func Merge(a, b AABB) AABB {
	return AABB{Lo: vecmath.Min(a.Lo, b.Lo), Hi: vecmath.Max(a.Hi, b.Hi)}
}

// Intersects reports whether a and b overlap, including touching edges.
func Intersects(a, b AABB) bool {
	return vecmath.LessOrEqualAll(a.Lo, b.Hi) && vecmath.LessOrEqualAll(b.Lo, a.Hi)
}

// Contains reports whether a fully encloses b.
func Contains(a, b AABB) bool {
	return vecmath.LessOrEqualAll(a.Lo, b.Lo) && vecmath.LessOrEqualAll(b.Hi, a.Hi)
}

// Area returns the 2D area (width * height) of a.
func Area(a AABB) float32 {
	size := a.Hi.Sub(a.Lo)
	return size.X * size.Y
}

// ExpandMargin returns a enlarged by margin on every side.
func ExpandMargin(a AABB, margin float32) AABB {
	d := vecmath.New(margin, margin)
	return AABB{Lo: a.Lo.Sub(d), Hi: a.Hi.Add(d)}
}

// Translate returns a shifted by d.
func Translate(a AABB, d vecmath.Vec2) AABB {
	return AABB{Lo: a.Lo.Add(d), Hi: a.Hi.Add(d)}
}
