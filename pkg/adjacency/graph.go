// Package adjacency builds the canonical adjacency structure of an undirected
// weighted graph.
//
// Every input edge is normalized so that its lower endpoint becomes the key
// and its upper endpoint the neighbor. Neighbors are stored per key in a
// [NeighborSet], an ordered container keyed by neighbor id alone: inserting a
// neighbor that is already present is a no-op, whatever its weight. The weight
// of an edge is therefore fixed by its first occurrence in the input.
//
//	g := adjacency.New()
//	g.Add(edgelist.Edge{A: 1, B: 2, Weight: 10}) // stored as 1 -> (2, 10)
//	g.Add(edgelist.Edge{A: 2, B: 1, Weight: 20}) // dropped, 1 -> 2 exists
//	g.Add(edgelist.Edge{A: 3, B: 1, Weight: 5})  // stored as 1 -> (3, 5)
//
// Keys and neighbors are both iterated in ascending order, which is the order
// the binary encoder writes them in.
//
// A Graph is not safe for concurrent use.
package adjacency

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// NormalizedEdge is an edge with its endpoints ordered: Lo <= Hi.
// Self-loops (Lo == Hi) are ordinary pairs.
type NormalizedEdge struct {
	Lo, Hi uint32
	Weight uint8
}

// Normalize orders the endpoints of e.
func Normalize(e edgelist.Edge) NormalizedEdge {
	if e.A <= e.B {
		return NormalizedEdge{Lo: e.A, Hi: e.B, Weight: e.Weight}
	}
	return NormalizedEdge{Lo: e.B, Hi: e.A, Weight: e.Weight}
}

// Stats summarizes how a Graph was built.
type Stats struct {
	Keys       int `json:"keys"`       // distinct lower endpoints
	Edges      int `json:"edges"`      // stored (key, neighbor) pairs
	Duplicates int `json:"duplicates"` // input edges dropped as repeats
	Conflicts  int `json:"conflicts"`  // dropped repeats whose weight differed
}

// ConflictFunc is called when a repeated edge carries a weight different from
// the one already stored. kept is the stored weight, dropped the new one.
type ConflictFunc func(lo, hi uint32, kept, dropped uint8)

// Graph maps each key to the ordered set of its neighbors.
// The zero value is not usable; use [New].
type Graph struct {
	sets   map[uint32]*NeighborSet
	keys   []uint32
	sorted bool

	edges      int
	duplicates int
	conflicts  int

	// OnConflict, if set, observes dropped repeats with a differing weight.
	OnConflict ConflictFunc
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{sets: make(map[uint32]*NeighborSet), sorted: true}
}

// Canonicalize builds a Graph from edges in input order.
func Canonicalize(edges []edgelist.Edge) *Graph {
	g := New()
	for _, e := range edges {
		g.Add(e)
	}
	return g
}

// FromReader builds a Graph from every edge r yields.
// It returns r's error, if any, and no graph.
func FromReader(r *edgelist.Reader) (*Graph, error) {
	g := New()
	for r.Next() {
		g.Add(r.Edge())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Add normalizes e and inserts it. It reports whether the edge was stored;
// false means an edge between the same endpoints was already present.
func (g *Graph) Add(e edgelist.Edge) bool {
	return g.AddNormalized(Normalize(e))
}

// AddNormalized inserts an already normalized edge. See [Graph.Add].
func (g *Graph) AddNormalized(e NormalizedEdge) bool {
	set, ok := g.sets[e.Lo]
	if !ok {
		set = &NeighborSet{}
		g.sets[e.Lo] = set
		if n := len(g.keys); n > 0 && g.keys[n-1] > e.Lo {
			g.sorted = false
		}
		g.keys = append(g.keys, e.Lo)
	}

	if set.Insert(e.Hi, e.Weight) {
		g.edges++
		return true
	}

	g.duplicates++
	if kept, _ := set.Get(e.Hi); kept != e.Weight {
		g.conflicts++
		if g.OnConflict != nil {
			g.OnConflict(e.Lo, e.Hi, kept, e.Weight)
		}
	}
	return false
}

// Keys returns the keys in ascending order. The slice is owned by the Graph
// and must not be modified.
func (g *Graph) Keys() []uint32 {
	if !g.sorted {
		slices.Sort(g.keys)
		g.sorted = true
	}
	return g.keys
}

// Neighbors returns the neighbor set of key, or nil if key is absent.
func (g *Graph) Neighbors(key uint32) *NeighborSet {
	return g.sets[key]
}

// KeyCount returns the number of keys.
func (g *Graph) KeyCount() int { return len(g.sets) }

// EdgeCount returns the number of stored (key, neighbor) pairs.
func (g *Graph) EdgeCount() int { return g.edges }

// Stats returns build statistics.
func (g *Graph) Stats() Stats {
	return Stats{
		Keys:       len(g.sets),
		Edges:      g.edges,
		Duplicates: g.duplicates,
		Conflicts:  g.conflicts,
	}
}

// Each calls fn for every key in ascending order. Iteration stops at the
// first error, which is returned.
func (g *Graph) Each(fn func(key uint32, set *NeighborSet) error) error {
	for _, k := range g.Keys() {
		if err := fn(k, g.sets[k]); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes a human-readable listing, one key per line:
//
//	[1] { <2, 10> <3, 5> }
func (g *Graph) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	_ = g.Each(func(key uint32, set *NeighborSet) error {
		DumpLine(bw, key, set.Entries())
		return nil
	})
	if err := bw.Flush(); err != nil {
		return apperr.Wrap(apperr.ErrCodeIO, err, "write dump")
	}
	return nil
}

// DumpLine writes the dump line for one key.
func DumpLine(w io.Writer, key uint32, entries []Entry) {
	fmt.Fprintf(w, "[%d] { ", key)
	for _, e := range entries {
		fmt.Fprintf(w, "<%d, %d> ", e.Neighbor, e.Weight)
	}
	fmt.Fprintln(w, "}")
}
