package ecs

import "github.com/miaan15/cactus/container"

// Entity is a 64-bit generational handle, reusing container's slot-map key
// packing (index in the high 32 bits, generation in the low 32) so the
// entity registry and the archetype tables share one generational scheme
// instead of inventing a second one.
type Entity container.Key

// entitySpec is the per-entity record the entity registry stores: which
// archetype the entity currently lives in, and at which row.
type entitySpec struct {
	archetype *Archetype
	row       int
}
