package physics

import (
	"sort"

	"github.com/miaan15/cactus/container"
	"github.com/miaan15/cactus/vecmath"
)

const noLeaf = -1

// Entry is a physical body: a collider, a velocity, mass/restitution/
// friction tunables, and an opaque back-reference to its tree leaf. The
// back-reference is set by World on insert and cleared on remove; the entry
// set never owns tree nodes, the tree does.
type Entry struct {
	Center      vecmath.Vec2
	HalfExts    vecmath.Vec2
	Vel         vecmath.Vec2
	InvMass     float32
	Restitution float32
	SFriction   float32
	DFriction   float32

	leaf int
}

// Collider returns the entry's current (center, half-extents) pair.
func (e *Entry) Collider() Collider {
	return Collider{Center: e.Center, HalfExts: e.HalfExts}
}

// AABB returns the entry's current tight AABB.
func (e *Entry) AABB() AABB {
	return ColliderAABB(e.Collider())
}

// EntrySet is a SlotMap of Entry, indexed by stable handles.
type EntrySet = container.SlotMap[Entry]

// World binds an EntrySet to a dynamic AABB tree and drives simulation steps.
type World struct {
	entries *EntrySet
	tree    *Tree

	pairs []Pair
}

// NewWorld returns an empty world whose tree fattens leaf AABBs by margin.
func NewWorld(margin float32) *World {
	return &World{
		entries: container.NewSlotMap[Entry](),
		tree:    NewTree(margin),
	}
}

// Margin returns the tree's fattening margin.
func (w *World) Margin() float32 {
	return w.tree.Margin
}

// SetMargin changes the tree's fattening margin. Existing leaves keep their
// current fat AABBs until an Update/Refit finds one no longer containing its
// entry's tight AABB and reinserts that leaf with the new margin.
func (w *World) SetMargin(margin float32) {
	w.tree.Margin = margin
}

// Create inserts a new entry and its tree leaf, returning a stable handle.
func (w *World) Create(center, halfexts vecmath.Vec2, invmass, restitution, sfriction, dfriction float32) container.Key {
	return w.CreateWithGroup(center, halfexts, invmass, restitution, sfriction, dfriction, 0)
}

// CreateWithGroup is Create with an explicit collision group mask (bits
// 0-6; pairs whose masks share a bit are pruned from overlap enumeration).
func (w *World) CreateWithGroup(center, halfexts vecmath.Vec2, invmass, restitution, sfriction, dfriction float32, group uint8) container.Key {
	key := w.entries.Insert(Entry{
		Center:      center,
		HalfExts:    halfexts,
		InvMass:     invmass,
		Restitution: restitution,
		SFriction:   sfriction,
		DFriction:   dfriction,
		leaf:        noLeaf,
	})

	entry := w.entries.At(key)
	leaf := w.tree.Insert(key, entry.AABB(), group)
	entry.leaf = leaf
	return key
}

// Destroy removes the entry and its tree leaf. It returns false if key does
// not resolve to a live entry.
func (w *World) Destroy(key container.Key) bool {
	entry := w.entries.At(key)
	if entry == nil {
		return false
	}
	if entry.leaf != noLeaf {
		w.tree.Remove(entry.leaf)
		entry.leaf = noLeaf
	}
	return w.entries.Erase(key)
}

// Get returns a pointer to the entry key resolves to, and whether it is
// live. The pointer is invalidated by any Destroy (swap-and-pop) or by an
// Insert that reallocates the backing storage.
func (w *World) Get(key container.Key) (*Entry, bool) {
	entry := w.entries.At(key)
	return entry, entry != nil
}

// Update reconciles every leaf's fat AABB against its entry's current tight
// AABB and recomputes the cached sorted overlapping-pair list. It does not
// invoke narrow-phase resolution; callers drive Resolve/ResolveCollider
// explicitly per pair.
func (w *World) Update(dt float32) {
	w.tree.Refit(func(key container.Key) AABB {
		entry := w.entries.At(key)
		if entry == nil {
			return AABB{}
		}
		return entry.AABB()
	})
	w.pairs = w.tree.OverlappingPairs()
}

// IsCollided consults the cached pair list from the last Update and, if the
// pair is present, rechecks the entries' current tight AABBs (the cache only
// guarantees fat-AABB overlap).
func (w *World) IsCollided(k0, k1 container.Key) bool {
	pair := makePair(k0, k1)
	i := sort.Search(len(w.pairs), func(i int) bool {
		if w.pairs[i].A != pair.A {
			return w.pairs[i].A >= pair.A
		}
		return w.pairs[i].B >= pair.B
	})
	if i >= len(w.pairs) || w.pairs[i] != pair {
		return false
	}

	e0, e1 := w.entries.At(pair.A), w.entries.At(pair.B)
	if e0 == nil || e1 == nil {
		return false
	}
	return Intersects(e0.AABB(), e1.AABB())
}

// ResolveCollider runs the narrow-phase impulse solver on the pair. It is a
// no-op if either handle is stale.
func (w *World) ResolveCollider(k0, k1 container.Key) {
	e0, e1 := w.entries.At(k0), w.entries.At(k1)
	if e0 == nil || e1 == nil {
		return
	}
	Resolve(e0, e1)
}

// SweptAABB returns the union of key's current tight AABB and that AABB
// translated by vel*dt — a swept-AABB fattening used by callers that want a
// continuous-collision-flavored broad-phase query without the tree itself
// performing CCD.
func (w *World) SweptAABB(key container.Key, dt float32) (AABB, bool) {
	entry := w.entries.At(key)
	if entry == nil {
		return AABB{}, false
	}
	tight := entry.AABB()
	moved := Translate(tight, entry.Vel.Scale(dt))
	return Merge(tight, moved), true
}

// Len returns the number of live entries.
func (w *World) Len() int {
	return w.entries.Len()
}

// Each calls fn with a pointer to every live entry, in current dense order.
// fn may mutate Center/Vel/etc.; those mutations are picked up by the next
// Update.
func (w *World) Each(fn func(key container.Key, entry *Entry)) {
	keys := make([]container.Key, 0, w.entries.Len())
	w.entries.Each(func(key container.Key, _ Entry) {
		keys = append(keys, key)
	})
	for _, key := range keys {
		fn(key, w.entries.At(key))
	}
}

// Pairs returns the cached sorted overlapping-pair list from the last
// Update call.
func (w *World) Pairs() []Pair {
	return w.pairs
}
