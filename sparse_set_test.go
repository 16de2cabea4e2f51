package sparsecs

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Components ---
type Position struct{ X, Y, Z float32 }
type Velocity struct{ X, Y, Z float32 }
type Health struct{ Current, Max int }

// checkInvariants verifies that dense, data and sparse agree.
func checkInvariants[T any](t *testing.T, s *SparseSet[T]) {
	t.Helper()
	require.Equal(t, len(s.dense), len(s.data))
	for i, e := range s.dense {
		require.Equal(t, int32(i), s.sparse[e.Index()], "sparse entry of %v", e)
	}
	live := 0
	for id, pos := range s.sparse {
		if pos == sparseTombstone {
			continue
		}
		live++
		require.Less(t, int(pos), len(s.dense))
		require.Equal(t, uint32(id), s.dense[pos].Index())
	}
	require.Equal(t, len(s.dense), live)
}

func TestSparseSetInsertGet(t *testing.T) {
	s := NewSparseSet[Position]()
	e := NewEntity(3, 0)
	s.Insert(e, Position{1, 2, 3})

	p, ok := s.Get(e)
	require.True(t, ok)
	assert.Equal(t, Position{1, 2, 3}, *p)
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.sparse, 4, "sparse table grows to the highest index used")

	p.X = 10
	p, _ = s.Get(e)
	assert.Equal(t, float32(10), p.X)

	_, ok = s.Get(NewEntity(2, 0))
	assert.False(t, ok)
	_, ok = s.Get(NewEntity(100, 0))
	assert.False(t, ok)
	checkInvariants(t, s)
}

func TestSparseSetOverwrite(t *testing.T) {
	s := NewSparseSet[Position]()
	e := NewEntity(0, 0)
	s.Insert(e, Position{1, 1, 1})
	s.Insert(e, Position{2, 2, 2})

	assert.Equal(t, 1, s.Len())
	p, ok := s.Get(e)
	require.True(t, ok)
	assert.Equal(t, Position{2, 2, 2}, *p)

	renewed := NewEntity(0, 5)
	s.Insert(renewed, Position{3, 3, 3})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []Entity{renewed}, slices.Collect(s.Entities()))
	checkInvariants(t, s)
}

// go test -run ^TestSparseSetReinsertAfterRemove$ . -count 1
func TestSparseSetReinsertAfterRemove(t *testing.T) {
	s := NewSparseSet[Position]()
	e := NewEntity(0, 0)
	s.Insert(e, Position{1, 1, 1})
	s.Remove(e)
	assert.Equal(t, 0, s.Len())
	s.Insert(e, Position{2, 2, 2})

	p, ok := s.Get(e)
	require.True(t, ok)
	assert.Equal(t, Position{2, 2, 2}, *p)
	assert.Equal(t, 1, s.Len())
	checkInvariants(t, s)
}

func TestSparseSetSwapRemove(t *testing.T) {
	t.Run("first of three", func(t *testing.T) {
		s := NewSparseSet[Health]()
		a, b, c := NewEntity(0, 0), NewEntity(1, 0), NewEntity(2, 0)
		s.Insert(a, Health{1, 1})
		s.Insert(b, Health{2, 2})
		s.Insert(c, Health{3, 3})

		s.Remove(a)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, c, s.dense[0], "last entity moves into the vacated slot")
		assert.Equal(t, Health{3, 3}, s.data[0])
		assert.Equal(t, b, s.dense[1])
		assert.False(t, s.Contains(a))
		checkInvariants(t, s)
	})

	t.Run("last", func(t *testing.T) {
		s := NewSparseSet[Health]()
		a, b := NewEntity(0, 0), NewEntity(1, 0)
		s.Insert(a, Health{1, 1})
		s.Insert(b, Health{2, 2})

		s.Remove(b)
		assert.Equal(t, []Entity{a}, s.dense)
		assert.Equal(t, []Health{{1, 1}}, s.data)
		checkInvariants(t, s)
	})

	t.Run("absent is a no-op", func(t *testing.T) {
		s := NewSparseSet[Health]()
		s.Insert(NewEntity(1, 0), Health{})
		s.Remove(NewEntity(0, 0))
		s.Remove(NewEntity(99, 0))
		assert.Equal(t, 1, s.Len())
		checkInvariants(t, s)
	})

	t.Run("ignores generation", func(t *testing.T) {
		s := NewSparseSet[Health]()
		s.Insert(NewEntity(4, 0), Health{})
		s.Remove(NewEntity(4, 9))
		assert.Equal(t, 0, s.Len())
	})
}

func TestSparseSetRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := NewSparseSet[int]()
	want := map[uint32]int{}
	for range 5000 {
		id := uint32(rng.IntN(64))
		e := NewEntity(id, 0)
		if rng.IntN(3) == 0 {
			s.Remove(e)
			delete(want, id)
		} else {
			v := rng.Int()
			s.Insert(e, v)
			want[id] = v
		}
	}
	checkInvariants(t, s)
	require.Equal(t, len(want), s.Len())
	for id, v := range want {
		got, ok := s.Get(NewEntity(id, 0))
		require.True(t, ok)
		require.Equal(t, v, *got)
	}
}

func TestSparseSetIteration(t *testing.T) {
	s := NewSparseSet[int]()
	for i := range uint32(5) {
		s.Insert(NewEntity(i*2, 0), int(i))
	}

	for _, v := range s.All() {
		*v *= 10
	}
	var got []int
	for e, v := range s.All() {
		assert.Equal(t, int(e.Index()/2)*10, *v)
		got = append(got, *v)
	}
	assert.Equal(t, []int{0, 10, 20, 30, 40}, got)

	// each call is a fresh pass, and early exit is honoured
	n := 0
	for range s.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
	assert.Len(t, slices.Collect(s.Entities()), 5)
}

func TestSparseSetIndexOutOfRange(t *testing.T) {
	s := newSparseSet[int](8)
	s.Insert(NewEntity(7, 0), 1)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.True(t, eris.Is(r.(error), ErrIndexOutOfRange))
		assert.Equal(t, 1, s.Len())
		assert.Len(t, s.sparse, 8)
	}()
	s.Insert(NewEntity(8, 0), 2)
}

func TestSparseSetString(t *testing.T) {
	s := NewSparseSet[Health]()
	s.Insert(NewEntity(1, 0), Health{Current: 5, Max: 10})
	out := s.String()
	assert.Contains(t, out, "SparseSet[sparsecs.Health]")
	assert.Contains(t, out, "Entity(1:0) -> {Current:5 Max:10}")
}

func TestSparseSetMaxIndexBound(t *testing.T) {
	requirePanicsWith(t, ErrInvalidConfig, func() { newSparseSet[Position](math.MaxInt32 + 1) })
	s := newSparseSet[Position](math.MaxInt32)
	assert.Equal(t, uint32(math.MaxInt32), s.maxIndex)
}
