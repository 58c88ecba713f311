package adjacency

import (
	"cmp"
	"slices"
)

// Entry is one (neighbor, weight) pair stored under a key.
type Entry struct {
	Neighbor uint32
	Weight   uint8
}

// NeighborSet is an ordered set of entries keyed strictly by Neighbor.
// The weight rides along and takes no part in ordering or uniqueness.
//
// Entries are appended in arrival order. While they arrive ascending the
// slice doubles as a sorted index; the first out-of-order insert builds a
// map index and the slice is sorted once, on the next read.
type NeighborSet struct {
	entries []Entry
	index   map[uint32]uint8 // nil while entries is sorted
	sorted  bool
}

func compareEntry(a, b Entry) int { return cmp.Compare(a.Neighbor, b.Neighbor) }

func compareNeighbor(e Entry, n uint32) int { return cmp.Compare(e.Neighbor, n) }

// Insert adds (n, w) unless an entry for n already exists, in which case the
// set is unchanged. It reports whether the entry was added.
func (s *NeighborSet) Insert(n uint32, w uint8) bool {
	if s.index == nil {
		last := len(s.entries) - 1
		if last < 0 || s.entries[last].Neighbor < n {
			s.entries = append(s.entries, Entry{Neighbor: n, Weight: w})
			return true
		}
		if _, found := slices.BinarySearchFunc(s.entries, n, compareNeighbor); found {
			return false
		}
		s.buildIndex()
	} else if _, found := s.index[n]; found {
		return false
	}

	s.index[n] = w
	s.entries = append(s.entries, Entry{Neighbor: n, Weight: w})
	s.sorted = false
	return true
}

func (s *NeighborSet) buildIndex() {
	s.index = make(map[uint32]uint8, 2*len(s.entries))
	for _, e := range s.entries {
		s.index[e.Neighbor] = e.Weight
	}
}

// Get returns the weight stored for n.
func (s *NeighborSet) Get(n uint32) (uint8, bool) {
	if s.index != nil {
		w, ok := s.index[n]
		return w, ok
	}
	i, found := slices.BinarySearchFunc(s.entries, n, compareNeighbor)
	if !found {
		return 0, false
	}
	return s.entries[i].Weight, true
}

// Len returns the number of entries.
func (s *NeighborSet) Len() int { return len(s.entries) }

// Entries returns the entries ordered by ascending Neighbor. The slice is
// owned by the set and must not be modified.
func (s *NeighborSet) Entries() []Entry {
	if s.index != nil && !s.sorted {
		slices.SortFunc(s.entries, compareEntry)
		s.sorted = true
	}
	return s.entries
}
