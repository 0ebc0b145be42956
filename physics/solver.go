package physics

import (
	"math"

	"github.com/miaan15/cactus/vecmath"
)

const (
	positionalSlop    = 0.01
	positionalPercent = 0.8
	frictionEpsilon   = 1e-4
)

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Resolve applies restitution, friction, and Baumgarte positional correction
// to a and b in place, following the narrow-phase contract verbatim: the
// combined friction coefficient is sqrt(a^2 + b^2), not the customary
// sqrt(a*b) — spec-locked, see DESIGN.md.
//
// Resolve checks the tight overlap itself (the broad phase only guarantees
// fat-AABB overlap): if a and b's tight boxes do not overlap on both axes,
// both bodies are left unchanged. If both bodies have infinite mass (invmass
// sums to zero), the pair is skipped entirely: no division occurs.
func Resolve(a, b *Entry) {
	if a.InvMass+b.InvMass == 0 {
		return
	}

	delta := b.Center.Sub(a.Center)
	overlap := a.HalfExts.Add(b.HalfExts).Sub(delta.Abs())
	if overlap.X <= 0 || overlap.Y <= 0 {
		return
	}

	var normal vecmath.Vec2
	var penetration float32
	if overlap.X < overlap.Y {
		penetration = overlap.X
		normal = signAxis(delta.X, vecmath.New(1, 0))
	} else {
		penetration = overlap.Y
		normal = signAxis(delta.Y, vecmath.New(0, 1))
	}

	relVel := b.Vel.Sub(a.Vel)
	velAlongNormal := relVel.Dot(normal)
	if velAlongNormal > 0 {
		return
	}

	invMassSum := a.InvMass + b.InvMass
	restitution := minf(a.Restitution, b.Restitution)

	j := -(1 + restitution) * velAlongNormal / invMassSum
	impulse := normal.Scale(j)
	a.Vel = a.Vel.Sub(impulse.Scale(a.InvMass))
	b.Vel = b.Vel.Add(impulse.Scale(b.InvMass))

	correctionMag := maxf(penetration-positionalSlop, 0) * positionalPercent / invMassSum
	correction := normal.Scale(correctionMag)
	a.Center = a.Center.Sub(correction.Scale(a.InvMass))
	b.Center = b.Center.Add(correction.Scale(b.InvMass))

	relVel = b.Vel.Sub(a.Vel)
	tangent := relVel.Sub(normal.Scale(relVel.Dot(normal)))
	tangentLen := tangent.Length()
	if tangentLen <= frictionEpsilon {
		return
	}
	tangent = tangent.Scale(1 / tangentLen)

	jt := -relVel.Dot(tangent) / invMassSum
	muStatic := sqrtf(a.SFriction*a.SFriction + b.SFriction*b.SFriction)
	muDynamic := sqrtf(a.DFriction*a.DFriction + b.DFriction*b.DFriction)

	var frictionImpulse vecmath.Vec2
	if absf(jt) < j*muStatic {
		frictionImpulse = tangent.Scale(jt)
	} else {
		frictionImpulse = tangent.Scale(-j * muDynamic)
	}

	a.Vel = a.Vel.Sub(frictionImpulse.Scale(a.InvMass))
	b.Vel = b.Vel.Add(frictionImpulse.Scale(b.InvMass))
}

func signAxis(component float32, axis vecmath.Vec2) vecmath.Vec2 {
	if component > 0 {
		return axis
	}
	return axis.Scale(-1)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
