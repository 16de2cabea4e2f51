// Package sparsecs is a sparse-set Entity Component System storage core.
//
// Entities are generational handles allocated by an EntityManager. Each
// component type lives in its own densely packed SparseSet, created on first
// insert and held type-erased by a ComponentStorage. Access to a type's
// storage follows single-writer/multiple-reader rules checked at runtime: a
// conflicting borrow panics with ErrBorrowConflict instead of corrupting data.
//
// Stale handles are not rejected by Insert, Get or Despawn; call IsAlive
// before using a handle of unknown provenance.
package sparsecs

import (
	"reflect"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// World composes an EntityManager and a ComponentStorage into the public
// API. A World is not safe for concurrent use.
type World struct {
	entities   *EntityManager
	components *ComponentStorage
	events     *EventBus
	log        *zap.Logger
	cfg        Config
}

// NewWorld creates a World. Without options it uses DefaultConfig and a
// no-op logger. It panics if the resulting configuration is invalid.
func NewWorld(opts ...Option) *World {
	w := &World{
		cfg:    DefaultConfig(),
		events: &EventBus{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.cfg.Validate(); err != nil {
		panic(eris.Wrap(err, "new world"))
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	w.entities = NewEntityManager(w.cfg.MaxEntities, w.cfg.InitialCapacity)
	w.components = NewComponentStorage(w.cfg.MaxEntities, w.log)
	return w
}

// Config returns the configuration the World was built with.
func (w *World) Config() Config {
	return w.cfg
}

// Events returns the bus the World publishes EntitySpawned, EntityDespawned
// and StorageCreated on.
func (w *World) Events() *EventBus {
	return w.events
}

// ComponentTypes returns every component type inserted so far, in the order
// their storage was created.
func (w *World) ComponentTypes() []reflect.Type {
	return w.components.Types()
}

// Spawn allocates a new entity. It panics with ErrEntityCapacity when the
// configured maximum is reached.
func (w *World) Spawn() Entity {
	if w.entities.Len() == w.entities.Cap() && uint32(w.entities.Cap()) >= w.entities.MaxEntities() {
		w.log.Error("entity capacity exceeded", zap.Uint32("max", w.entities.MaxEntities()))
	}
	e := w.entities.Allocate()
	Publish(w.events, EntitySpawned{Entity: e})
	return e
}

// Despawn frees the entity's index and drops every component stored for it.
// Both steps are keyed by index only, so despawning with a stale handle
// still frees the slot and scrubs its current components. Despawning an
// index that was never allocated leaves the allocator untouched.
//
// Every storage is borrowed exclusively before the index is freed. If any is
// already borrowed Despawn panics with ErrBorrowConflict and the entity stays
// alive with all of its components.
func (w *World) Despawn(e Entity) {
	w.components.lockAll()
	freed := w.entities.Deallocate(e)
	w.components.removeLocked(e)
	w.components.unlockAll()
	if !freed {
		w.log.Debug("despawn of unallocated entity", zap.Stringer("entity", e))
		return
	}
	Publish(w.events, EntityDespawned{Entity: e})
}

// IsAlive reports whether e is the current occupant of its slot.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.IsAlive(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// Cap returns the number of entity slots ever allocated.
func (w *World) Cap() int {
	return w.entities.Cap()
}

// Insert stores value as e's component of type T, replacing any previous
// one. It does not check IsAlive: inserting for a despawned entity is legal,
// and the caller is responsible for not doing so once the index may be
// reused.
//
// It panics with ErrIndexOutOfRange when e's index is not below
// Config.MaxEntities, and with ErrBorrowConflict while T is borrowed.
func Insert[T any](w *World, e Entity, value T) {
	if ce := w.log.Check(zap.DebugLevel, "insert on stale entity"); ce != nil && !w.entities.IsAlive(e) {
		ce.Write(zap.Stringer("entity", e), zap.Stringer("type", typeOf[T]()))
	}
	if insertComponent(w.components, e, value) {
		Publish(w.events, StorageCreated{Type: typeOf[T]()})
	}
}

// Remove drops e's component of type T, if any.
func Remove[T any](w *World, e Entity) {
	removeComponent[T](w.components, e)
}

// Has reports whether e holds a component of type T.
func Has[T any](w *World, e Entity) bool {
	return hasComponent[T](w.components, e)
}

// Get borrows e's component of type T for reading. It returns false when T
// was never inserted or e has no such component. The returned guard must be
// released.
func Get[T any](w *World, e Entity) (*CompRef[T], bool) {
	return getComponent[T](w.components, e)
}

// GetMut borrows e's component of type T for writing. It returns false when
// T was never inserted or e has no such component. The returned guard must
// be released.
func GetMut[T any](w *World, e Entity) (*CompMut[T], bool) {
	return getComponentMut[T](w.components, e)
}

// Query borrows the whole storage of T for reading. It returns false when T
// was never inserted. The returned guard must be released.
func Query[T any](w *World) (*Ref[T], bool) {
	return iterComponents[T](w.components)
}

// QueryMut borrows the whole storage of T for writing. It returns false when
// T was never inserted. The returned guard must be released.
func QueryMut[T any](w *World) (*RefMut[T], bool) {
	return iterComponentsMut[T](w.components)
}

// View runs fn with a shared borrow of T's storage, releasing it when fn
// returns or panics. It reports whether T was ever inserted.
func View[T any](w *World, fn func(*Ref[T])) bool {
	r, ok := Query[T](w)
	if !ok {
		return false
	}
	defer r.Release()
	fn(r)
	return true
}

// ViewMut runs fn with an exclusive borrow of T's storage, releasing it when
// fn returns or panics. It reports whether T was ever inserted.
func ViewMut[T any](w *World, fn func(*RefMut[T])) bool {
	r, ok := QueryMut[T](w)
	if !ok {
		return false
	}
	defer r.Release()
	fn(r)
	return true
}
