package extract

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func recount(s *visitedSet) int {
	var n int
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

func TestVisitedSetGrowKeepsMarks(t *testing.T) {
	s := newVisitedSet(1)
	require.Equal(t, 64, s.capacity())

	require.True(t, s.mark(3))
	require.False(t, s.mark(3))
	require.True(t, s.mark(63))

	require.True(t, s.mark(1000))
	require.Equal(t, 1024, s.capacity())
	require.True(t, s.contains(3))
	require.True(t, s.contains(63))
	require.True(t, s.contains(1000))
	require.False(t, s.contains(999))
	require.False(t, s.contains(5000))
	require.Equal(t, 3, s.len())
}

func TestVisitedSetRandomMarks(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := newVisitedSet(64)
	expected := make(map[int]struct{})
	for i := 0; i < 5000; i++ {
		id := rng.Intn(1 << 16)
		_, seen := expected[id]
		require.Equal(t, !seen, s.mark(id))
		expected[id] = struct{}{}
	}
	for id := range expected {
		require.True(t, s.contains(id))
	}
	require.Equal(t, len(expected), s.len())
	require.Equal(t, s.len(), recount(s))
}

func TestVisitedSetDefaultCapacity(t *testing.T) {
	s := newVisitedSet(defaultVisitedCapacity)
	require.Equal(t, 1<<20, s.capacity())
	require.Equal(t, 0, s.len())
}
