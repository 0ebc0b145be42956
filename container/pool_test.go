package container_test

import (
	"testing"

	"github.com/miaan15/cactus/container"
)

func TestPoolIterationIncludesInvalidSlots(t *testing.T) {
	p := container.NewPool[int]()
	a := p.Insert(1)
	p.Insert(2)
	p.Erase(a)

	// Unlike FreelistVector, Pool.Each walks every slot regardless of
	// validity; callers are expected to track liveness externally.
	visited := 0
	p.Each(func(_ int, _ int) { visited++ })
	if visited != p.Len() {
		t.Fatalf("Each visited %d slots; want Len() = %d", visited, p.Len())
	}
	if p.Valid(a) {
		t.Fatalf("Valid(a) = true after Erase")
	}
}

func TestPoolLIFOReuse(t *testing.T) {
	p := container.NewPool[int]()
	a := p.Insert(1)
	b := p.Insert(2)
	p.Erase(a)
	p.Erase(b)

	x := p.Insert(10)
	y := p.Insert(20)
	if x != b || y != a {
		t.Fatalf("Pool reuse order = %d, %d; want %d, %d", x, y, b, a)
	}
}
