package sparsecs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// DefaultMaxEntities is the default upper bound on entity slots, and the
// largest entity index (exclusive) a SparseSet accepts.
const DefaultMaxEntities = 1_000_000

// Entity is an opaque handle that packs a 32-bit slot index (low bits) and a
// 32-bit generation (high bits). Two entities are equal only when both parts
// match, so a handle kept across a despawn never aliases the entity that
// later reuses its slot.
type Entity uint64

// NewEntity packs index and generation into an Entity.
func NewEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index of the entity.
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation returns the generation counter of the entity.
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}

// EntityManager allocates and recycles entity handles. It owns no component
// data.
type EntityManager struct {
	generations []uint32 // current generation per slot, len = highwater mark
	freeIDs     []uint32 // stack of recycled slot indices
	free        []bool   // free[i] is true while i sits in freeIDs
	maxEntities uint32
}

// NewEntityManager creates a manager bounded to maxEntities slots, with room
// preallocated for initialCapacity of them.
func NewEntityManager(maxEntities uint32, initialCapacity int) *EntityManager {
	if maxEntities == 0 {
		maxEntities = DefaultMaxEntities
	}
	initialCapacity = min(max(initialCapacity, 0), int(maxEntities))
	return &EntityManager{
		generations: make([]uint32, 0, initialCapacity),
		freeIDs:     make([]uint32, 0, initialCapacity),
		free:        make([]bool, 0, initialCapacity),
		maxEntities: maxEntities,
	}
}

// Allocate returns a fresh entity. The most recently freed slot is reused
// first, keeping the generation it was given when it was freed; otherwise a
// new slot is appended with generation 0.
//
// It panics with ErrEntityCapacity when no slot is free and the highwater
// mark has reached the configured maximum.
func (m *EntityManager) Allocate() Entity {
	if n := len(m.freeIDs); n > 0 {
		id := m.freeIDs[n-1]
		m.freeIDs = m.freeIDs[:n-1]
		m.free[id] = false
		return NewEntity(id, m.generations[id])
	}
	if uint32(len(m.generations)) >= m.maxEntities {
		panic(eris.Wrapf(ErrEntityCapacity, "allocate: all %d slots in use", m.maxEntities))
	}
	id := uint32(len(m.generations))
	m.generations = append(m.generations, 0)
	m.free = append(m.free, false)
	return NewEntity(id, 0)
}

// Deallocate bumps the generation of the entity's slot and returns the slot
// to the free list. It is keyed by index only: the generation carried by e is
// not checked. It returns false, without side effects, when the index was
// never allocated.
func (m *EntityManager) Deallocate(e Entity) bool {
	id := e.Index()
	if id >= uint32(len(m.generations)) {
		return false
	}
	m.generations[id]++ // wraps on overflow
	if !m.free[id] {
		m.free[id] = true
		m.freeIDs = append(m.freeIDs, id)
	}
	return true
}

// IsAlive reports whether e refers to the current occupant of its slot.
func (m *EntityManager) IsAlive(e Entity) bool {
	id := e.Index()
	if id >= uint32(len(m.generations)) {
		return false
	}
	return m.generations[id] == e.Generation()
}

// Len returns the number of allocated slots that are not on the free list.
func (m *EntityManager) Len() int {
	return len(m.generations) - len(m.freeIDs)
}

// Cap returns the highwater mark of ever-allocated slots.
func (m *EntityManager) Cap() int {
	return len(m.generations)
}

// MaxEntities returns the configured slot limit.
func (m *EntityManager) MaxEntities() uint32 {
	return m.maxEntities
}
