package ecs

import (
	"fmt"
	"reflect"

	"github.com/miaan15/cactus/container"
)

// SmallWorld is an archetype ECS parametric over a fixed, ordered list of
// component types declared once at construction — the runtime substitute
// for the C++ predecessor's variadic template parameter pack, since Go
// generics have no equivalent of an unbounded type parameter list.
type SmallWorld struct {
	types    []reflect.Type
	registry map[reflect.Type]int

	entities   *container.SlotMap[entitySpec]
	archetypes map[Signature]*Archetype
}

// NewSmallWorld declares the component types this world will ever store,
// in the order that fixes their component IDs. It panics if a type repeats
// (the runtime stand-in for the predecessor's is_unique_v constraint) or if
// more than 64 types are declared.
func NewSmallWorld(types ...reflect.Type) *SmallWorld {
	if len(types) > maxComponents {
		panic(fmt.Sprintf("ecs: %d component types declared, exceeds the %d-bit signature budget", len(types), maxComponents))
	}

	registry := make(map[reflect.Type]int, len(types))
	for id, t := range types {
		if _, dup := registry[t]; dup {
			panic(fmt.Sprintf("ecs: component type %s declared more than once", t))
		}
		registry[t] = id
	}

	w := &SmallWorld{
		types:      types,
		registry:   registry,
		entities:   container.NewSlotMap[entitySpec](),
		archetypes: make(map[Signature]*Archetype),
	}
	w.archetypeFor(0)
	return w
}

func (w *SmallWorld) archetypeFor(sig Signature) *Archetype {
	if a, ok := w.archetypes[sig]; ok {
		return a
	}
	a := newArchetype(sig, len(w.types))
	w.archetypes[sig] = a
	return a
}

// CreateEntity allocates an entity with signature 0 in the empty archetype.
func (w *SmallWorld) CreateEntity() Entity {
	key := w.entities.Insert(entitySpec{})
	e := Entity(key)

	arch := w.archetypeFor(0)
	row := len(arch.entities)
	arch.entities = append(arch.entities, e)

	spec := w.entities.At(container.Key(e))
	spec.archetype = arch
	spec.row = row
	return e
}

// DestroyEntity removes e from its current archetype and frees its handle,
// using the same swap-and-pop/fix-up discipline Emplace and Erase use.
func (w *SmallWorld) DestroyEntity(e Entity) bool {
	spec := w.entities.At(container.Key(e))
	if spec == nil {
		return false
	}

	arch := spec.archetype
	displaced, moved := arch.popRow(spec.row)
	if moved {
		dspec := w.entities.At(container.Key(displaced))
		dspec.row = spec.row
	}
	return w.entities.Erase(container.Key(e))
}

// Emplace ensures entity e carries component T, set to value. If e already
// has T, the existing component is overwritten in place and its address is
// returned. Otherwise e migrates to the archetype for its signature with
// T's bit set, and the migration is asymmetric by design: the destination
// row is appended before the source row is erased.
func Emplace[T any](w *SmallWorld, e Entity, value T) *T {
	id := componentIDOf[T](w)
	spec := w.entities.At(container.Key(e))
	if spec == nil {
		return nil
	}

	old := spec.archetype
	if old.signature.has(id) {
		col := column[T](old, id)
		col[spec.row] = value
		old.columns[id] = col
		return &col[spec.row]
	}

	dst := w.archetypeFor(old.signature.with(id))
	newRow := migrateAdd[T](dst, old, spec.row, e, id, value, w.types)

	displaced, moved := old.popRow(spec.row)
	if moved {
		dspec := w.entities.At(container.Key(displaced))
		dspec.row = spec.row
	}

	spec.archetype = dst
	spec.row = newRow
	return &column[T](dst, id)[newRow]
}

// Get returns a stable pointer to e's T component and true, or (nil, false)
// if e does not carry T. The pointer is invalidated by any structural
// mutation (Emplace/Erase/DestroyEntity) of e or of any other entity in the
// same archetype, since swap-and-pop can relocate rows.
func Get[T any](w *SmallWorld, e Entity) (*T, bool) {
	id := componentIDOf[T](w)
	spec := w.entities.At(container.Key(e))
	if spec == nil || !spec.archetype.signature.has(id) {
		return nil, false
	}
	col := column[T](spec.archetype, id)
	return &col[spec.row], true
}

// Erase clears e's T component and migrates it to the archetype for the
// resulting signature. If the resulting signature is 0 the destination
// archetype carries no columns for e's row, only its entity slot.
func Erase[T any](w *SmallWorld, e Entity) bool {
	id := componentIDOf[T](w)
	spec := w.entities.At(container.Key(e))
	if spec == nil || !spec.archetype.signature.has(id) {
		return false
	}

	old := spec.archetype
	dst := w.archetypeFor(old.signature.without(id))
	newRow := migrateRemove(dst, old, spec.row, e, w.types)

	displaced, moved := old.popRow(spec.row)
	if moved {
		dspec := w.entities.At(container.Key(displaced))
		dspec.row = spec.row
	}

	spec.archetype = dst
	spec.row = newRow
	return true
}

// Len returns the number of live entities across every archetype.
func (w *SmallWorld) Len() int {
	return w.entities.Len()
}
