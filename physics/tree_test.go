package physics

import (
	"testing"

	"github.com/miaan15/cactus/container"
	"github.com/miaan15/cactus/vecmath"
)

func box(cx, cy, hx, hy float32) AABB {
	return ColliderAABB(Collider{Center: vecmath.New(cx, cy), HalfExts: vecmath.New(hx, hy)})
}

// bruteForcePairs enumerates overlapping pairs by brute force, for checking
// OverlappingPairs against an obviously-correct reference.
func bruteForcePairs(handles []container.Key, tight map[container.Key]AABB) []Pair {
	var pairs []Pair
	for i := 0; i < len(handles); i++ {
		for j := i + 1; j < len(handles); j++ {
			if Intersects(tight[handles[i]], tight[handles[j]]) {
				pairs = append(pairs, makePair(handles[i], handles[j]))
			}
		}
	}
	return pairs
}

func TestTreeInsertSingleLeafIsRoot(t *testing.T) {
	tr := NewTree(0.1)
	h := container.Key(1)
	leaf := tr.Insert(h, box(0, 0, 1, 1), 0)

	root, ok := tr.RootAABB()
	if !ok {
		t.Fatal("RootAABB() ok = false after single insert")
	}
	if root != tr.LeafAABB(leaf) {
		t.Fatalf("root AABB %+v != leaf AABB %+v for single-leaf tree", root, tr.LeafAABB(leaf))
	}
}

// TestTreeOverlappingPairsCompleteness is property 5/6: OverlappingPairs
// matches a brute-force pairwise scan and is sorted with no duplicates.
func TestTreeOverlappingPairsCompleteness(t *testing.T) {
	tr := NewTree(0)
	centers := [][2]float32{{0, 0}, {1.5, 0}, {0, 1.5}, {10, 10}, {10.5, 10}}
	tight := map[container.Key]AABB{}
	var handles []container.Key

	for i, c := range centers {
		h := container.Key(i + 1)
		aabb := box(c[0], c[1], 1, 1)
		tr.Insert(h, aabb, 0)
		tight[h] = aabb
		handles = append(handles, h)
	}

	got := tr.OverlappingPairs()
	want := bruteForcePairs(handles, tight)

	if len(got) != len(want) {
		t.Fatalf("OverlappingPairs len = %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	seen := map[Pair]bool{}
	for i, p := range got {
		if seen[p] {
			t.Fatalf("duplicate pair %+v in result", p)
		}
		seen[p] = true
		if p.A > p.B {
			t.Fatalf("pair %+v not normalized A<=B", p)
		}
		if i > 0 {
			prev := got[i-1]
			if p.A < prev.A || (p.A == prev.A && p.B < prev.B) {
				t.Fatalf("pairs not sorted: %+v before %+v", prev, p)
			}
		}
	}
	for _, p := range want {
		if !seen[p] {
			t.Fatalf("OverlappingPairs missing %+v", p)
		}
	}
}

// TestTreeThreeSquaresPairEnumeration is scenario S2: three mutually
// overlapping unit squares must yield exactly three pairs.
func TestTreeThreeSquaresPairEnumeration(t *testing.T) {
	tr := NewTree(0)
	a := container.Key(1)
	b := container.Key(2)
	c := container.Key(3)
	tr.Insert(a, box(0, 0, 1, 1), 0)
	tr.Insert(b, box(1.5, 0, 1, 1), 0)
	tr.Insert(c, box(0, 1.5, 1, 1), 0)

	pairs := tr.OverlappingPairs()
	if len(pairs) != 3 {
		t.Fatalf("pairs = %v, want 3 pairs among mutually-overlapping squares", pairs)
	}
}

// TestTreeGroupMaskPrunesPairs verifies that leaves sharing a group bit are
// excluded from OverlappingPairs even though their AABBs overlap.
func TestTreeGroupMaskPrunesPairs(t *testing.T) {
	tr := NewTree(0)
	a := container.Key(1)
	b := container.Key(2)
	tr.Insert(a, box(0, 0, 1, 1), 0b0000001)
	tr.Insert(b, box(0.5, 0, 1, 1), 0b0000001)

	if pairs := tr.OverlappingPairs(); len(pairs) != 0 {
		t.Fatalf("pairs = %v, want none: shared group bit should prune the pair", pairs)
	}
}

// TestTreeRefitSmallMotionKeepsLeafInPlace is half of scenario S3: motion
// that stays inside the fat AABB's margin must leave the leaf's stored fat
// AABB as it was inserted (no detach/reinsert).
func TestTreeRefitSmallMotionKeepsLeafInPlace(t *testing.T) {
	tr := NewTree(0.5)
	h := container.Key(1)
	other := container.Key(2)
	leaf := tr.Insert(h, box(0, 0, 1, 1), 0)
	tr.Insert(other, box(20, 20, 1, 1), 0)

	moved := box(0.1, 0, 1, 1)
	tr.Refit(func(k container.Key) AABB {
		if k == h {
			return moved
		}
		return box(20, 20, 1, 1)
	})

	if tr.LeafHandle(leaf) != h {
		t.Fatalf("leaf %d no longer carries handle %v after small-motion refit", leaf, h)
	}
	if !Contains(tr.LeafAABB(leaf), moved) {
		t.Fatalf("leaf fat AABB %+v does not contain moved tight AABB %+v", tr.LeafAABB(leaf), moved)
	}
	if want := ExpandMargin(box(0, 0, 1, 1), 0.5); tr.LeafAABB(leaf) != want {
		t.Fatalf("leaf fat AABB %+v changed after small-motion refit, want %+v", tr.LeafAABB(leaf), want)
	}
}

// TestTreeRefitLargeMotionReinserts is the other half of scenario S3: motion
// that escapes the fat AABB must detach and reinsert the leaf, and the
// resulting fat AABB must contain the new tight AABB (property 4).
func TestTreeRefitLargeMotionReinserts(t *testing.T) {
	tr := NewTree(0.1)
	h := container.Key(1)
	other := container.Key(2)
	leaf := tr.Insert(h, box(0, 0, 1, 1), 0)
	tr.Insert(other, box(20, 20, 1, 1), 0)

	moved := box(50, 50, 1, 1)
	tr.Refit(func(k container.Key) AABB {
		if k == h {
			return moved
		}
		return box(20, 20, 1, 1)
	})

	// Reinsertion never reallocates the leaf's own arena slot, only the
	// internal nodes around it; the back-pointer callers hold stays valid.
	if tr.LeafHandle(leaf) != h {
		t.Fatalf("leaf %d no longer carries handle %v after large-motion refit", leaf, h)
	}
	if !Contains(tr.LeafAABB(leaf), moved) {
		t.Fatalf("leaf fat AABB %+v does not contain moved tight AABB %+v", tr.LeafAABB(leaf), moved)
	}
}

func TestTreeRemoveAndReinsert(t *testing.T) {
	tr := NewTree(0)
	a := container.Key(1)
	b := container.Key(2)
	c := container.Key(3)
	tr.Insert(a, box(0, 0, 1, 1), 0)
	leafB := tr.Insert(b, box(5, 0, 1, 1), 0)
	tr.Insert(c, box(10, 0, 1, 1), 0)

	if !tr.Remove(leafB) {
		t.Fatal("Remove(leafB) = false")
	}
	if tr.Remove(leafB) {
		t.Fatal("second Remove(leafB) should be false: leaf already gone")
	}

	pairs := tr.OverlappingPairs()
	for _, p := range pairs {
		if p.A == b || p.B == b {
			t.Fatalf("removed handle %v still appears in pairs %+v", b, pairs)
		}
	}
}

// TestTreeRootAABBContainsAllLeaves is property 7: after any sequence of
// inserts and refits, the root's AABB contains every leaf's fat AABB.
func TestTreeRootAABBContainsAllLeaves(t *testing.T) {
	tr := NewTree(0.2)
	var leaves []int
	positions := [][2]float32{{0, 0}, {3, 1}, {-2, 4}, {7, -3}, {1, 1}}
	for i, p := range positions {
		leaves = append(leaves, tr.Insert(container.Key(i+1), box(p[0], p[1], 1, 1), 0))
	}

	tr.Refit(func(k container.Key) AABB {
		return box(float32(k)*0.5, float32(k)*0.5, 1, 1)
	})

	root, ok := tr.RootAABB()
	if !ok {
		t.Fatal("RootAABB() ok = false")
	}
	for _, leaf := range leaves {
		if !Contains(root, tr.LeafAABB(leaf)) {
			t.Fatalf("root %+v does not contain leaf %+v", root, tr.LeafAABB(leaf))
		}
	}
}
