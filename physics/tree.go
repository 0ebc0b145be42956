package physics

import (
	"sort"

	"github.com/miaan15/cactus/container"
)

const noNode = -1

// node is either an internal node (Left/Right both set, no handle) or a leaf
// (Left/Right both noNode, Handle set). Nodes live in an arena addressed by
// index rather than by pointer: raw parent/child pointers in the C++
// predecessor are a double-free hazard on removal and reinsertion that an
// index arena with a backing freelist sidesteps entirely.
type node struct {
	parent, left, right int
	handle              container.Key
	aabb                AABB
	group               uint8
	selfCheck           bool
}

func (n *node) isLeaf() bool {
	return n.left == noNode
}

// Tree is a dynamic AABB tree: a self-balancing bounding-volume hierarchy
// whose leaves are 1:1 with live entries, supporting insert, remove, refit,
// and sorted overlapping-pair enumeration.
type Tree struct {
	nodes  *container.FreelistVector[node]
	root   int
	Margin float32
}

// NewTree returns an empty tree that fattens leaf AABBs by margin.
func NewTree(margin float32) *Tree {
	return &Tree{nodes: container.NewFreelistVector[node](), root: noNode, Margin: margin}
}

func (t *Tree) at(idx int) *node {
	return t.nodes.Ptr(idx)
}

// Insert adds a leaf carrying handle, whose current tight AABB is tight. The
// leaf's stored fat AABB is tight expanded by the tree's margin. It returns
// the leaf's stable arena index, which the caller should retain as a
// back-pointer for Remove: removal keys on this index directly, never by
// searching for a matching AABB.
func (t *Tree) Insert(handle container.Key, tight AABB, group uint8) int {
	fat := ExpandMargin(tight, t.Margin)
	leaf := t.nodes.Insert(node{parent: noNode, left: noNode, right: noNode, handle: handle, aabb: fat, group: group})

	if t.root == noNode {
		t.root = leaf
		return leaf
	}

	sibling := t.findBestSibling(fat)
	t.attach(sibling, leaf, fat, group)
	return leaf
}

// Remove detaches the leaf at arena index leaf: leaf's sibling is promoted
// into the freed parent's slot and ancestors are refitted. It returns false
// without mutation if leaf does not name a live leaf node.
func (t *Tree) Remove(leaf int) bool {
	n := t.at(leaf)
	if n == nil || !n.isLeaf() {
		return false
	}

	parentIdx := n.parent
	if parentIdx == noNode {
		if t.root != leaf {
			return false
		}
		t.root = noNode
		t.nodes.Erase(leaf)
		return true
	}

	parent := t.at(parentIdx)
	siblingIdx := parent.right
	if parent.left != leaf {
		siblingIdx = parent.left
	}
	sibling := t.at(siblingIdx)
	grandparent := parent.parent
	sibling.parent = grandparent

	if grandparent == noNode {
		t.root = siblingIdx
	} else {
		gp := t.at(grandparent)
		if gp.left == parentIdx {
			gp.left = siblingIdx
		} else {
			gp.right = siblingIdx
		}
	}

	t.nodes.Erase(parentIdx)
	t.nodes.Erase(leaf)
	t.refitAncestors(grandparent)
	return true
}

// TightAABBFunc supplies the current tight (un-fattened) AABB for a handle,
// used by Refit to decide whether a leaf's fat AABB still contains it.
type TightAABBFunc func(container.Key) AABB

// Refit scans every leaf; a leaf whose fat AABB no longer contains its
// entry's current tight AABB is detached and reinserted with a fresh fat
// AABB. Leaves whose movement stayed inside the margin are left untouched,
// which is the whole reason the margin exists.
func (t *Tree) Refit(tight TightAABBFunc) {
	if t.root == noNode {
		return
	}
	if t.at(t.root).isLeaf() {
		n := t.at(t.root)
		cur := tight(n.handle)
		if !Contains(n.aabb, cur) {
			n.aabb = ExpandMargin(cur, t.Margin)
		}
		return
	}

	var invalid []int
	t.collectInvalid(t.root, tight, &invalid)
	for _, leaf := range invalid {
		t.reinsert(leaf, tight)
	}
}

func (t *Tree) collectInvalid(cur int, tight TightAABBFunc, out *[]int) {
	n := t.at(cur)
	if n.isLeaf() {
		if !Contains(n.aabb, tight(n.handle)) {
			*out = append(*out, cur)
		}
		return
	}
	t.collectInvalid(n.left, tight, out)
	t.collectInvalid(n.right, tight, out)
}

func (t *Tree) reinsert(leaf int, tight TightAABBFunc) {
	n := t.at(leaf)
	parentIdx := n.parent

	if parentIdx != noNode {
		parent := t.at(parentIdx)
		siblingIdx := parent.right
		if parent.left != leaf {
			siblingIdx = parent.left
		}
		sibling := t.at(siblingIdx)
		grandparent := parent.parent
		sibling.parent = grandparent

		if grandparent == noNode {
			t.root = siblingIdx
		} else {
			gp := t.at(grandparent)
			if gp.left == parentIdx {
				gp.left = siblingIdx
			} else {
				gp.right = siblingIdx
			}
		}
		t.nodes.Erase(parentIdx)
		t.refitAncestors(grandparent)
	} else if t.root == leaf {
		t.root = noNode
	}

	fat := ExpandMargin(tight(n.handle), t.Margin)
	n.aabb = fat
	n.parent = noNode

	if t.root == noNode {
		t.root = leaf
		return
	}
	sibling := t.findBestSibling(fat)
	t.attach(sibling, leaf, fat, n.group)
}

type fitBest struct {
	node  int
	value float32
}

func (t *Tree) findBestSibling(fat AABB) int {
	root := t.root
	best := fitBest{node: root, value: Area(Merge(fat, t.at(root).aabb))}
	t.findBestHelper(&best, fat, 0, root)
	return best.node
}

// findBestHelper implements the branch-and-bound surface-area heuristic:
// descend into a candidate's children only if the best achievable value
// along that path could still beat the current best.
func (t *Tree) findBestHelper(best *fitBest, fat AABB, inherited float32, cur int) {
	n := t.at(cur)
	mergeAABB := Merge(fat, n.aabb)

	value := Area(mergeAABB) + inherited
	if value < best.value {
		best.node = cur
		best.value = value
	}

	if n.isLeaf() {
		return
	}

	delta := Area(mergeAABB) - Area(n.aabb)
	if Area(fat)+delta+inherited < best.value {
		t.findBestHelper(best, fat, inherited+delta, n.left)
		t.findBestHelper(best, fat, inherited+delta, n.right)
	}
}

// attach allocates a new internal node that becomes the parent of (sibling,
// leaf), replacing sibling in its former parent's child slot, then refits
// ancestors up to the root.
func (t *Tree) attach(siblingIdx, leafIdx int, leafAABB AABB, leafGroup uint8) {
	sibling := t.at(siblingIdx)
	oldParent := sibling.parent

	parentIdx := t.nodes.Insert(node{
		parent: oldParent,
		left:   siblingIdx,
		right:  leafIdx,
		aabb:   Merge(sibling.aabb, leafAABB),
		group:  sibling.group & leafGroup,
	})

	t.at(siblingIdx).parent = parentIdx
	t.at(leafIdx).parent = parentIdx

	if oldParent == noNode {
		t.root = parentIdx
	} else {
		op := t.at(oldParent)
		if op.left == siblingIdx {
			op.left = parentIdx
		} else {
			op.right = parentIdx
		}
	}

	t.refitAncestors(oldParent)
}

func (t *Tree) refitAncestors(start int) {
	for cur := start; cur != noNode; {
		n := t.at(cur)
		left, right := t.at(n.left), t.at(n.right)
		n.aabb = Merge(left.aabb, right.aabb)
		n.group = left.group & right.group
		cur = n.parent
	}
}

// Pair is an unordered pair of leaf handles, always stored with A <= B so
// that the pair list's lexicographic sort is also a sort on (A, B) pairwise.
type Pair struct {
	A, B container.Key
}

func makePair(a, b container.Key) Pair {
	if a <= b {
		return Pair{A: a, B: b}
	}
	return Pair{A: b, B: a}
}

// OverlappingPairs returns every unordered pair of leaves whose fat AABBs
// intersect and whose group masks share no bit, sorted lexicographically by
// (A, B) with no duplicates. Callers may rely on this order for binary
// search membership tests.
func (t *Tree) OverlappingPairs() []Pair {
	var pairs []Pair
	if t.root == noNode || t.at(t.root).isLeaf() {
		return pairs
	}

	t.clearSelfCheck(t.root)
	root := t.at(t.root)
	t.collectPairs(&pairs, root.left, root.right)

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

func (t *Tree) clearSelfCheck(cur int) {
	n := t.at(cur)
	n.selfCheck = false
	if n.isLeaf() {
		return
	}
	t.clearSelfCheck(n.left)
	t.clearSelfCheck(n.right)
}

func (t *Tree) selfPair(pairs *[]Pair, idx int) {
	n := t.at(idx)
	if n.selfCheck {
		return
	}
	n.selfCheck = true
	t.collectPairs(pairs, n.left, n.right)
}

func (t *Tree) collectPairs(pairs *[]Pair, aIdx, bIdx int) {
	a, b := t.at(aIdx), t.at(bIdx)
	if a.group&b.group != 0 {
		return
	}

	if a.isLeaf() && b.isLeaf() {
		if Intersects(a.aabb, b.aabb) {
			*pairs = append(*pairs, makePair(a.handle, b.handle))
		}
		return
	}

	if !Intersects(a.aabb, b.aabb) {
		if !a.isLeaf() {
			t.selfPair(pairs, aIdx)
		}
		if !b.isLeaf() {
			t.selfPair(pairs, bIdx)
		}
		return
	}

	if a.isLeaf() {
		t.selfPair(pairs, bIdx)
		t.collectPairs(pairs, aIdx, b.left)
		t.collectPairs(pairs, aIdx, b.right)
		return
	}
	if b.isLeaf() {
		t.selfPair(pairs, aIdx)
		t.collectPairs(pairs, a.left, bIdx)
		t.collectPairs(pairs, a.right, bIdx)
		return
	}

	t.selfPair(pairs, aIdx)
	t.selfPair(pairs, bIdx)
	t.collectPairs(pairs, a.left, b.left)
	t.collectPairs(pairs, a.left, b.right)
	t.collectPairs(pairs, a.right, b.left)
	t.collectPairs(pairs, a.right, b.right)
}

// LeafAABB returns the stored fat AABB of the leaf at arena index leaf.
func (t *Tree) LeafAABB(leaf int) AABB {
	return t.at(leaf).aabb
}

// LeafHandle returns the handle carried by the leaf at arena index leaf.
func (t *Tree) LeafHandle(leaf int) container.Key {
	return t.at(leaf).handle
}

// RootAABB returns the AABB of the whole tree, or false if the tree is
// empty.
func (t *Tree) RootAABB() (AABB, bool) {
	if t.root == noNode {
		return AABB{}, false
	}
	return t.at(t.root).aabb, true
}
