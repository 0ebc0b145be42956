package container

// Key is a generational handle: the high 32 bits are the slot index, the low
// 32 bits are the generation counter. This bit order is spec-fixed — the
// original C++ source this module is grounded on packs the same two fields
// in the opposite order in different places (its own get_idx/get_gen treat
// the index as the low 32 bits), which is exactly the inconsistency this
// layout exists to settle. Do not swap index and generation here.
type Key uint64

func newKey(index, generation uint32) Key {
	return Key(uint64(index)<<32 | uint64(generation))
}

// Index returns the slot index encoded in the key.
func (k Key) Index() uint32 {
	return uint32(k >> 32)
}

// Generation returns the generation counter encoded in the key.
func (k Key) Generation() uint32 {
	return uint32(k)
}

type slot struct {
	dataIndex  uint32 // data index when occupied; next free slot when free
	generation uint32
}

// SlotMap is a generational key to value map with dense, contiguous value
// storage and swap-and-pop erase. Keys remain unique across reuse: erasing
// an element bumps its slot's generation, invalidating every outstanding key
// for that slot.
type SlotMap[T any] struct {
	slots    []slot
	dataMap  []uint32 // dense position -> slot index
	data     []T
	nextFree uint32
}

// NewSlotMap returns an empty SlotMap.
func NewSlotMap[T any]() *SlotMap[T] {
	return &SlotMap[T]{}
}

// Insert stores value and returns a key that resolves to it until erased.
func (m *SlotMap[T]) Insert(value T) Key {
	densePos := len(m.data)
	m.data = append(m.data, value)

	usedSlot := m.nextFree
	if usedSlot == uint32(len(m.slots)) {
		m.slots = append(m.slots, slot{dataIndex: usedSlot + 1})
	}
	m.dataMap = append(m.dataMap, usedSlot)

	m.nextFree = m.slots[usedSlot].dataIndex
	m.slots[usedSlot].dataIndex = uint32(densePos)

	return newKey(usedSlot, m.slots[usedSlot].generation)
}

// find returns the dense position the key resolves to, or false if the key
// is stale or out of range.
func (m *SlotMap[T]) find(key Key) (int, bool) {
	idx := key.Index()
	if idx >= uint32(len(m.slots)) {
		return 0, false
	}
	if m.slots[idx].generation != key.Generation() {
		return 0, false
	}
	return int(m.slots[idx].dataIndex), true
}

// At returns a pointer to the value key resolves to, or nil if the key is
// stale. The pointer is invalidated by any Insert that reallocates, or by any
// Erase (including of a different key, via swap-and-pop).
func (m *SlotMap[T]) At(key Key) *T {
	pos, ok := m.find(key)
	if !ok {
		return nil
	}
	return &m.data[pos]
}

// Get returns the value key resolves to and whether the key is live.
func (m *SlotMap[T]) Get(key Key) (T, bool) {
	pos, ok := m.find(key)
	if !ok {
		var zero T
		return zero, false
	}
	return m.data[pos], true
}

// Erase removes the element key resolves to. It returns false without
// mutation if key does not resolve to a live element.
func (m *SlotMap[T]) Erase(key Key) bool {
	pos, ok := m.find(key)
	if !ok {
		return false
	}
	m.eraseAt(pos)
	return true
}

func (m *SlotMap[T]) eraseAt(pos int) {
	slotIdx := m.dataMap[pos]
	last := len(m.data) - 1

	if pos != last {
		m.data[pos] = m.data[last]
		m.dataMap[pos] = m.dataMap[last]
		m.slots[m.dataMap[pos]].dataIndex = uint32(pos)
	}

	var zero T
	m.data[last] = zero
	m.data = m.data[:last]
	m.dataMap = m.dataMap[:last]

	m.slots[slotIdx].dataIndex = m.nextFree
	m.nextFree = slotIdx
	m.slots[slotIdx].generation++
}

// Len returns the number of live elements.
func (m *SlotMap[T]) Len() int {
	return len(m.data)
}

// Reserve increases the backing storage's capacity.
func (m *SlotMap[T]) Reserve(n int) {
	if cap(m.data) < n {
		grown := make([]T, len(m.data), n)
		copy(grown, m.data)
		m.data = grown
	}
	if cap(m.dataMap) < n {
		grown := make([]uint32, len(m.dataMap), n)
		copy(grown, m.dataMap)
		m.dataMap = grown
	}
	if cap(m.slots) < n {
		grown := make([]slot, len(m.slots), n)
		copy(grown, m.slots)
		m.slots = grown
	}
}

// Clear empties the map and resets the free list.
func (m *SlotMap[T]) Clear() {
	m.slots = nil
	m.dataMap = nil
	m.data = nil
	m.nextFree = 0
}

// Swap exchanges the backing storage of m and rhs.
func (m *SlotMap[T]) Swap(rhs *SlotMap[T]) {
	m.slots, rhs.slots = rhs.slots, m.slots
	m.dataMap, rhs.dataMap = rhs.dataMap, m.dataMap
	m.data, rhs.data = rhs.data, m.data
	m.nextFree, rhs.nextFree = rhs.nextFree, m.nextFree
}

// Each calls fn for every live element in current dense (insertion-minus-
// erase-reshuffle) order.
func (m *SlotMap[T]) Each(fn func(key Key, value T)) {
	for pos, value := range m.data {
		slotIdx := m.dataMap[pos]
		fn(newKey(slotIdx, m.slots[slotIdx].generation), value)
	}
}
