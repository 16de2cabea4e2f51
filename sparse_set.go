package sparsecs

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// sparseTombstone marks an entity index with no component in a sparse table.
const sparseTombstone int32 = -1

// SparseSet stores the components of one type densely packed, with O(1)
// insert, remove and lookup through a sparse index table.
//
// dense[i] is the entity owning data[i], and sparse[dense[i].Index()] == i.
// Removal swaps the last element into the vacated slot, so iteration order is
// the current dense order and changes after any removal.
type SparseSet[T any] struct {
	sparse   []int32 // entity index -> dense position, or sparseTombstone
	dense    []Entity
	data     []T
	maxIndex uint32
}

// NewSparseSet creates an empty set accepting entity indices below
// DefaultMaxEntities.
func NewSparseSet[T any]() *SparseSet[T] {
	return newSparseSet[T](DefaultMaxEntities)
}

func newSparseSet[T any](maxIndex uint32) *SparseSet[T] {
	if maxIndex == 0 {
		maxIndex = DefaultMaxEntities
	}
	// dense positions are stored as int32
	if maxIndex > math.MaxInt32 {
		panic(eris.Wrapf(ErrInvalidConfig, "sparse set: max index %d exceeds %d", maxIndex, math.MaxInt32))
	}
	return &SparseSet[T]{maxIndex: maxIndex}
}

// position returns the dense position of the entity's index.
func (s *SparseSet[T]) position(e Entity) (int, bool) {
	id := e.Index()
	if id >= uint32(len(s.sparse)) {
		return 0, false
	}
	pos := s.sparse[id]
	if pos == sparseTombstone {
		return 0, false
	}
	return int(pos), true
}

// Insert stores value for e. If the entity's index already has a component
// in this set, the value is replaced in place and the stored handle is
// refreshed to e.
//
// It panics with ErrIndexOutOfRange, before touching the set, when the index
// is not below the set's maximum.
func (s *SparseSet[T]) Insert(e Entity, value T) {
	id := e.Index()
	if id >= s.maxIndex {
		panic(eris.Wrapf(ErrIndexOutOfRange, "insert %T for %v: max index is %d", value, e, s.maxIndex))
	}
	if pos, ok := s.position(e); ok {
		s.dense[pos] = e
		s.data[pos] = value
		return
	}
	if id >= uint32(len(s.sparse)) {
		s.sparse = extendSlice(s.sparse, int(id)+1-len(s.sparse), sparseTombstone)
	}
	s.sparse[id] = int32(len(s.dense))
	s.dense = append(s.dense, e)
	s.data = append(s.data, value)
}

// Remove drops the component held by the entity's index, if any. The last
// element is swapped into the vacated position.
func (s *SparseSet[T]) Remove(e Entity) {
	pos, ok := s.position(e)
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if pos != last {
		moved := s.dense[last]
		s.dense[pos] = moved
		s.data[pos] = s.data[last]
		s.sparse[moved.Index()] = int32(pos)
	}
	var zero T
	s.data[last] = zero
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	s.sparse[e.Index()] = sparseTombstone
}

// Get returns a pointer to the component held by the entity's index. The
// pointer is valid until the next Insert or Remove on the set.
func (s *SparseSet[T]) Get(e Entity) (*T, bool) {
	pos, ok := s.position(e)
	if !ok {
		return nil, false
	}
	return &s.data[pos], true
}

// Contains reports whether the entity's index has a component in this set.
func (s *SparseSet[T]) Contains(e Entity) bool {
	_, ok := s.position(e)
	return ok
}

// Len returns the number of entities holding this component.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// All yields every entity and a pointer to its component in dense order.
// Each call starts a fresh pass. The set must not be inserted into or
// removed from while iterating.
func (s *SparseSet[T]) All() iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i], &s.data[i]) {
				return
			}
		}
	}
}

// Entities yields the entities holding this component in dense order.
func (s *SparseSet[T]) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range s.dense {
			if !yield(e) {
				return
			}
		}
	}
}

func (s *SparseSet[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SparseSet[%v]:\n", typeOf[T]())
	fmt.Fprintf(&b, "  dense: %v\n", s.dense)
	b.WriteString("  data:\n")
	for i, e := range s.dense {
		fmt.Fprintf(&b, "    %v -> %+v\n", e, s.data[i])
	}
	return b.String()
}

// remove and size let the set sit behind a storage cell.
func (s *SparseSet[T]) remove(e Entity) { s.Remove(e) }

func (s *SparseSet[T]) size() int { return s.Len() }
