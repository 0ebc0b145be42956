package physics

import (
	"testing"

	"github.com/miaan15/cactus/vecmath"
)

func TestColliderAABB(t *testing.T) {
	c := Collider{Center: vecmath.New(2, 3), HalfExts: vecmath.New(1, 0.5)}
	a := ColliderAABB(c)
	if a.Lo != vecmath.New(1, 2.5) || a.Hi != vecmath.New(3, 3.5) {
		t.Fatalf("ColliderAABB(%+v) = %+v, want Lo=(1,2.5) Hi=(3,3.5)", c, a)
	}
}

func TestMergeContainsBoth(t *testing.T) {
	a := box(0, 0, 1, 1)
	b := box(5, 5, 1, 1)
	m := Merge(a, b)
	if !Contains(m, a) || !Contains(m, b) {
		t.Fatalf("Merge(%+v, %+v) = %+v does not contain both inputs", a, b, m)
	}
}

func TestIntersectsTouchingEdgesCount(t *testing.T) {
	a := box(0, 0, 1, 1)
	b := box(2, 0, 1, 1) // touches a at x=1
	if !Intersects(a, b) {
		t.Fatal("Intersects = false for edge-touching boxes, want true")
	}
	c := box(2.01, 0, 1, 1)
	if Intersects(a, c) {
		t.Fatal("Intersects = true for boxes with a gap, want false")
	}
}

func TestExpandMarginGrowsBySameAmountEverySide(t *testing.T) {
	a := box(0, 0, 1, 1)
	got := ExpandMargin(a, 0.25)
	want := AABB{Lo: vecmath.New(-1.25, -1.25), Hi: vecmath.New(1.25, 1.25)}
	if got != want {
		t.Fatalf("ExpandMargin = %+v, want %+v", got, want)
	}
}

func TestAreaOfUnitBoxIsFour(t *testing.T) {
	a := box(0, 0, 1, 1)
	if got := Area(a); got != 4 {
		t.Fatalf("Area(unit box with halfext 1) = %v, want 4", got)
	}
}
