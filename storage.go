package sparsecs

import (
	"math"
	"reflect"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// storage is the type-erased view of a SparseSet that the registry holds.
type storage interface {
	remove(e Entity)
	size() int
}

// storageCell pairs a storage with the borrow flag guarding it.
type storageCell struct {
	store storage
	typ   reflect.Type
	flag  borrowFlag
}

// ComponentStorage maps each component type to its SparseSet. Sets are
// created on the first insert of their type and are kept for the lifetime of
// the storage, even once empty.
type ComponentStorage struct {
	cells       map[reflect.Type]*storageCell
	order       []*storageCell // registration order
	maxEntities uint32
	log         *zap.Logger
}

// NewComponentStorage creates an empty registry whose sets accept entity
// indices below maxEntities. A nil logger is replaced by a no-op one. It
// panics with ErrInvalidConfig when maxEntities exceeds math.MaxInt32.
func NewComponentStorage(maxEntities uint32, logger *zap.Logger) *ComponentStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntities == 0 {
		maxEntities = DefaultMaxEntities
	}
	if maxEntities > math.MaxInt32 {
		panic(eris.Wrapf(ErrInvalidConfig, "component storage: max entities %d exceeds %d", maxEntities, math.MaxInt32))
	}
	return &ComponentStorage{
		cells:       make(map[reflect.Type]*storageCell, 16),
		maxEntities: maxEntities,
		log:         logger,
	}
}

// Remove drops e's components from every registered type. Every storage is
// borrowed exclusively before the first removal, so a conflict panics with
// ErrBorrowConflict and leaves all of them untouched.
func (s *ComponentStorage) Remove(e Entity) {
	s.lockAll()
	defer s.unlockAll()
	s.removeLocked(e)
}

// lockAll borrows every storage exclusively. When one is already borrowed,
// the ones taken so far are released before it panics.
func (s *ComponentStorage) lockAll() {
	for i, c := range s.order {
		if c.flag.tryAcquireMut() {
			continue
		}
		for _, held := range s.order[:i] {
			held.flag.releaseMut()
		}
		s.log.Debug("remove blocked by borrow", zap.Stringer("type", c.typ))
		panic(c.flag.mutConflict(c.typ))
	}
}

func (s *ComponentStorage) unlockAll() {
	for _, c := range s.order {
		c.flag.releaseMut()
	}
}

// removeLocked drops e from every set. The caller holds lockAll.
func (s *ComponentStorage) removeLocked(e Entity) {
	for _, c := range s.order {
		c.store.remove(e)
	}
}

// Len returns the number of registered component types.
func (s *ComponentStorage) Len() int {
	return len(s.order)
}

// Has reports whether a set exists for typ.
func (s *ComponentStorage) Has(typ reflect.Type) bool {
	_, ok := s.cells[typ]
	return ok
}

// Types returns the registered component types in registration order.
func (s *ComponentStorage) Types() []reflect.Type {
	types := make([]reflect.Type, len(s.order))
	for i, c := range s.order {
		types[i] = c.typ
	}
	return types
}

// Count returns how many entities hold a component of typ, or 0 if typ was
// never registered. It does not take a borrow.
func (s *ComponentStorage) Count(typ reflect.Type) int {
	c, ok := s.cells[typ]
	if !ok {
		return 0
	}
	return c.store.size()
}

func (s *ComponentStorage) cell(typ reflect.Type) (*storageCell, bool) {
	c, ok := s.cells[typ]
	return c, ok
}

// getOrCreateCell returns the cell for T, creating its set on first use. The
// second result is true when the cell was created by this call.
func getOrCreateCell[T any](s *ComponentStorage) (*storageCell, bool) {
	typ := typeOf[T]()
	if c, ok := s.cells[typ]; ok {
		return c, false
	}
	c := &storageCell{store: newSparseSet[T](s.maxEntities), typ: typ}
	s.cells[typ] = c
	s.order = append(s.order, c)
	s.log.Debug("component storage created", zap.Stringer("type", typ), zap.Int("types", len(s.order)))
	return c, true
}

// insertComponent stores value for e in T's set, creating the set if needed.
// The set is borrowed exclusively for the insert.
func insertComponent[T any](s *ComponentStorage, e Entity, value T) (created bool) {
	if e.Index() >= s.maxEntities {
		s.log.Error("component index out of range",
			zap.Stringer("entity", e), zap.Uint32("max", s.maxEntities))
		panic(eris.Wrapf(ErrIndexOutOfRange, "insert %v for %v: max index is %d", typeOf[T](), e, s.maxEntities))
	}
	c, created := getOrCreateCell[T](s)
	c.flag.acquireMut(c.typ)
	defer c.flag.releaseMut()
	c.store.(*SparseSet[T]).Insert(e, value)
	return created
}

// removeComponent drops e's component of type T, if any.
func removeComponent[T any](s *ComponentStorage, e Entity) {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return
	}
	c.flag.acquireMut(c.typ)
	defer c.flag.releaseMut()
	c.store.remove(e)
}

// hasComponent reports whether e holds a component of type T. It takes a
// shared borrow for the lookup.
func hasComponent[T any](s *ComponentStorage, e Entity) bool {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return false
	}
	c.flag.acquire(c.typ)
	defer c.flag.release()
	return c.store.(*SparseSet[T]).Contains(e)
}

// getComponent borrows e's component of type T for reading.
func getComponent[T any](s *ComponentStorage, e Entity) (*CompRef[T], bool) {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return nil, false
	}
	c.flag.acquire(c.typ)
	p, ok := c.store.(*SparseSet[T]).Get(e)
	if !ok {
		c.flag.release()
		return nil, false
	}
	return &CompRef[T]{guard: guard{cell: c}, value: p}, true
}

// getComponentMut borrows e's component of type T for writing.
func getComponentMut[T any](s *ComponentStorage, e Entity) (*CompMut[T], bool) {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return nil, false
	}
	c.flag.acquireMut(c.typ)
	p, ok := c.store.(*SparseSet[T]).Get(e)
	if !ok {
		c.flag.releaseMut()
		return nil, false
	}
	return &CompMut[T]{guard: guard{cell: c}, value: p}, true
}

// iterComponents borrows T's whole set for reading.
func iterComponents[T any](s *ComponentStorage) (*Ref[T], bool) {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return nil, false
	}
	return newRef[T](c), true
}

// iterComponentsMut borrows T's whole set for writing.
func iterComponentsMut[T any](s *ComponentStorage) (*RefMut[T], bool) {
	c, ok := s.cell(typeOf[T]())
	if !ok {
		return nil, false
	}
	return newRefMut[T](c), true
}
