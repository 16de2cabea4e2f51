package sparsecs

import (
	"iter"
	"reflect"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// borrowFlag tracks outstanding borrows of one storage: a positive value
// counts shared borrows, -1 marks an exclusive one.
type borrowFlag struct {
	state atomic.Int32
}

const exclusiveBorrow int32 = -1

func (f *borrowFlag) acquire(typ reflect.Type) {
	for {
		s := f.state.Load()
		if s == exclusiveBorrow {
			panic(eris.Wrapf(ErrBorrowConflict, "shared borrow of %v while mutably borrowed", typ))
		}
		if f.state.CompareAndSwap(s, s+1) {
			return
		}
	}
}

func (f *borrowFlag) acquireMut(typ reflect.Type) {
	if !f.tryAcquireMut() {
		panic(f.mutConflict(typ))
	}
}

func (f *borrowFlag) tryAcquireMut() bool {
	return f.state.CompareAndSwap(0, exclusiveBorrow)
}

func (f *borrowFlag) mutConflict(typ reflect.Type) error {
	if f.state.Load() == exclusiveBorrow {
		return eris.Wrapf(ErrBorrowConflict, "mutable borrow of %v while mutably borrowed", typ)
	}
	return eris.Wrapf(ErrBorrowConflict, "mutable borrow of %v while borrowed", typ)
}

func (f *borrowFlag) release() {
	f.state.Add(-1)
}

func (f *borrowFlag) releaseMut() {
	f.state.Store(0)
}

// guard is the release bookkeeping shared by all borrow handles.
type guard struct {
	cell     *storageCell
	released bool
}

func (g *guard) check() {
	if g.released {
		panic(eris.Wrapf(ErrReleasedBorrow, "component %v", g.cell.typ))
	}
}

// guardedSeq wraps seq so each step re-checks that g is still held.
func guardedSeq(g *guard, seq iter.Seq[Entity]) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		g.check()
		for e := range seq {
			if !yield(e) {
				return
			}
			g.check()
		}
	}
}

// Ref is a shared borrow of the storage of component type T. Any number of
// Refs to one type may be held at once, but none while a RefMut is
// outstanding. Release it with a deferred Release, or use View.
type Ref[T any] struct {
	guard
	set *SparseSet[T]
}

func newRef[T any](c *storageCell) *Ref[T] {
	c.flag.acquire(c.typ)
	return &Ref[T]{guard: guard{cell: c}, set: c.store.(*SparseSet[T])}
}

// Release ends the borrow. Calling it again is a no-op.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.flag.release()
}

// Get returns a copy of the component held by e.
func (r *Ref[T]) Get(e Entity) (T, bool) {
	r.check()
	p, ok := r.set.Get(e)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Contains reports whether e holds the component.
func (r *Ref[T]) Contains(e Entity) bool {
	r.check()
	return r.set.Contains(e)
}

// Len returns the number of entities holding the component.
func (r *Ref[T]) Len() int {
	r.check()
	return r.set.Len()
}

// All yields each entity with a copy of its component, in dense order.
// The sequence panics with ErrReleasedBorrow if ranged over, or resumed,
// after Release.
func (r *Ref[T]) All() iter.Seq2[Entity, T] {
	r.check()
	return func(yield func(Entity, T) bool) {
		r.check()
		for e, p := range r.set.All() {
			if !yield(e, *p) {
				return
			}
			r.check()
		}
	}
}

// Entities yields the entities holding the component, in dense order. Like
// All, it must not outlive the borrow.
func (r *Ref[T]) Entities() iter.Seq[Entity] {
	r.check()
	return guardedSeq(&r.guard, r.set.Entities())
}

func (r *Ref[T]) String() string {
	r.check()
	return r.set.String()
}

// RefMut is an exclusive borrow of the storage of component type T.
type RefMut[T any] struct {
	guard
	set *SparseSet[T]
}

func newRefMut[T any](c *storageCell) *RefMut[T] {
	c.flag.acquireMut(c.typ)
	return &RefMut[T]{guard: guard{cell: c}, set: c.store.(*SparseSet[T])}
}

// Release ends the borrow. Calling it again is a no-op.
func (r *RefMut[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.flag.releaseMut()
}

// Get returns a pointer to the component held by e. The pointer must not be
// kept past Release.
func (r *RefMut[T]) Get(e Entity) (*T, bool) {
	r.check()
	return r.set.Get(e)
}

// Contains reports whether e holds the component.
func (r *RefMut[T]) Contains(e Entity) bool {
	r.check()
	return r.set.Contains(e)
}

// Len returns the number of entities holding the component.
func (r *RefMut[T]) Len() int {
	r.check()
	return r.set.Len()
}

// All yields each entity with a pointer to its component, in dense order.
// The sequence panics with ErrReleasedBorrow if ranged over, or resumed,
// after Release.
func (r *RefMut[T]) All() iter.Seq2[Entity, *T] {
	r.check()
	return func(yield func(Entity, *T) bool) {
		r.check()
		for e, p := range r.set.All() {
			if !yield(e, p) {
				return
			}
			r.check()
		}
	}
}

// Entities yields the entities holding the component, in dense order.
func (r *RefMut[T]) Entities() iter.Seq[Entity] {
	r.check()
	return guardedSeq(&r.guard, r.set.Entities())
}

// Set exposes the borrowed set for inserts and removals.
func (r *RefMut[T]) Set() *SparseSet[T] {
	r.check()
	return r.set
}

// CompRef is a shared borrow of a single component value.
type CompRef[T any] struct {
	guard
	value *T
}

// Value returns a copy of the borrowed component.
func (c *CompRef[T]) Value() T {
	c.check()
	return *c.value
}

// Release ends the borrow. Calling it again is a no-op.
func (c *CompRef[T]) Release() {
	if c.released {
		return
	}
	c.released = true
	c.cell.flag.release()
}

// CompMut is an exclusive borrow of a single component value.
type CompMut[T any] struct {
	guard
	value *T
}

// Ptr returns the borrowed component. It must not be kept past Release.
func (c *CompMut[T]) Ptr() *T {
	c.check()
	return c.value
}

// Set replaces the borrowed component.
func (c *CompMut[T]) Set(value T) {
	c.check()
	*c.value = value
}

// Release ends the borrow. Calling it again is a no-op.
func (c *CompMut[T]) Release() {
	if c.released {
		return
	}
	c.released = true
	c.cell.flag.releaseMut()
}
