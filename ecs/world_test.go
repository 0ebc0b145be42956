package ecs

import (
	"testing"

	"github.com/miaan15/cactus/container"
)

type Position struct{ X, Y, Z float64 }
type Velocity struct{ X, Y, Z float64 }
type Health struct{ HP int }

func newTestWorld() *SmallWorld {
	return NewSmallWorld(TypeOf[Position](), TypeOf[Velocity](), TypeOf[Health]())
}

// TestECSTransition is scenario S5.
func TestECSTransition(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()

	Emplace(w, e, Position{X: 1, Y: 2, Z: 3})
	Emplace(w, e, Health{HP: 55})
	Erase[Position](w, e)

	if _, ok := Get[Position](w, e); ok {
		t.Fatal("Get[Position] ok = true after Erase[Position]")
	}
	health, ok := Get[Health](w, e)
	if !ok || health.HP != 55 {
		t.Fatalf("Get[Health] = %+v, %v; want {55}, true", health, ok)
	}
}

// TestECSIsolation is scenario S6.
func TestECSIsolation(t *testing.T) {
	w := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()

	Emplace(w, a, Health{HP: 10})
	Emplace(w, b, Health{HP: 20})

	ha, _ := Get[Health](w, a)
	ha.HP = 999

	hb, ok := Get[Health](w, b)
	if !ok || hb.HP != 20 {
		t.Fatalf("mutating a's Health changed b's: got %+v, want HP=20", hb)
	}
}

// TestArchetypeRowConsistency is property 10: for every live entity, its
// archetype's row count exceeds its row, and Get returns the last write.
func TestArchetypeRowConsistency(t *testing.T) {
	w := newTestWorld()
	entities := make([]Entity, 10)
	for i := range entities {
		e := w.CreateEntity()
		Emplace(w, e, Position{X: float64(i)})
		if i%2 == 0 {
			Emplace(w, e, Velocity{X: float64(i) * 10})
		}
		entities[i] = e
	}

	// Erase Position from every third entity, forcing repeated migrations
	// and swap-and-pop displacement.
	for i := 0; i < len(entities); i += 3 {
		Erase[Position](w, entities[i])
	}

	for i, e := range entities {
		spec := w.entities.At(container.Key(e))
		if spec == nil {
			t.Fatalf("entity %d has no live spec", i)
		}
		if spec.archetype.rowCount() <= spec.row {
			t.Fatalf("entity %d: archetype rowCount %d <= row %d", i, spec.archetype.rowCount(), spec.row)
		}

		wantPos := i%3 != 0
		_, hasPos := Get[Position](w, e)
		if hasPos != wantPos {
			t.Fatalf("entity %d: Get[Position] ok = %v, want %v", i, hasPos, wantPos)
		}
		if hasPos {
			pos, _ := Get[Position](w, e)
			if pos.X != float64(i) {
				t.Fatalf("entity %d: Position.X = %v, want %v", i, pos.X, i)
			}
		}

		wantVel := i%2 == 0
		vel, hasVel := Get[Velocity](w, e)
		if hasVel != wantVel {
			t.Fatalf("entity %d: Get[Velocity] ok = %v, want %v", i, hasVel, wantVel)
		}
		if hasVel && vel.X != float64(i)*10 {
			t.Fatalf("entity %d: Velocity.X = %v, want %v", i, vel.X, i*10)
		}
	}
}

func TestEmplaceOverwritesInPlaceWithoutMigration(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()
	Emplace(w, e, Health{HP: 1})
	before := w.entities.At(container.Key(e)).archetype

	Emplace(w, e, Health{HP: 2})
	after := w.entities.At(container.Key(e)).archetype

	if before != after {
		t.Fatal("re-emplacing an already-present component migrated archetypes")
	}
	got, _ := Get[Health](w, e)
	if got.HP != 2 {
		t.Fatalf("Health.HP = %d, want 2", got.HP)
	}
}

func TestNewSmallWorldPanicsOnDuplicateType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewSmallWorld with duplicate types did not panic")
		}
	}()
	NewSmallWorld(TypeOf[Position](), TypeOf[Position]())
}

func TestEmplaceOnUndeclaredTypePanics(t *testing.T) {
	w := newTestWorld()
	e := w.CreateEntity()
	type Undeclared struct{ A int }

	defer func() {
		if recover() == nil {
			t.Fatal("Emplace on undeclared component type did not panic")
		}
	}()
	Emplace(w, e, Undeclared{})
}

func TestDestroyEntityFreesHandleAndFixesUpDisplaced(t *testing.T) {
	w := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	Emplace(w, a, Health{HP: 1})
	Emplace(w, b, Health{HP: 2})

	if !w.DestroyEntity(a) {
		t.Fatal("DestroyEntity(a) = false")
	}
	if _, ok := Get[Health](w, a); ok {
		t.Fatal("Get[Health](a) ok = true after DestroyEntity")
	}
	hb, ok := Get[Health](w, b)
	if !ok || hb.HP != 2 {
		t.Fatalf("destroying a corrupted b's Health: got %+v, %v", hb, ok)
	}
}
