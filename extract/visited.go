package extract

const defaultVisitedCapacity = 1 << 20

// visitedSet is a bit vector over vertex ids. It grows by doubling when an id
// beyond its capacity is marked; marks are never cleared.
type visitedSet struct {
	words []uint64
	count int
}

func newVisitedSet(capacity int) *visitedSet {
	if capacity < 64 {
		capacity = 64
	}
	return &visitedSet{words: make([]uint64, (capacity+63)/64)}
}

func (s *visitedSet) capacity() int {
	return len(s.words) * 64
}

func (s *visitedSet) len() int {
	return s.count
}

func (s *visitedSet) contains(id int) bool {
	if id < 0 || id >= s.capacity() {
		return false
	}
	return s.words[id/64]&(1<<(uint(id)%64)) != 0
}

// mark records id and reports whether it was newly added.
func (s *visitedSet) mark(id int) bool {
	if id >= s.capacity() {
		s.grow(id + 1)
	}
	word, bit := id/64, uint64(1)<<(uint(id)%64)
	if s.words[word]&bit != 0 {
		return false
	}
	s.words[word] |= bit
	s.count++
	return true
}

func (s *visitedSet) grow(required int) {
	newCapacity := 2 * s.capacity()
	for newCapacity < required {
		newCapacity *= 2
	}
	words := make([]uint64, newCapacity/64)
	copy(words, s.words)
	s.words = words
}
