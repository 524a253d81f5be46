// Package search implements the bounded best-first traversal shared by
// query-time Collection.Search and graph construction's neighbor
// discovery: a visited set, a candidate min-heap, and a result max-heap,
// all pooled for reuse across calls.
package search

import (
	"container/heap"
	"errors"

	"github.com/georgaylor/vectordb/pkg/vector"
)

// ErrUnableToInitiateSearch names the condition of a search having no live
// vector to seed its traversal from (an empty or fully-tombstoned
// collection). Bounded does not return it: when entry cannot be resolved
// it returns nil.
var ErrUnableToInitiateSearch = errors.New("search: unable to initiate search, no entry point available")

// Layer exposes a single graph layer's neighbor lists to the search
// engine, without exposing whether the layer is the base or an upper
// layer, or how it's guarded.
type Layer interface {
	Neighbors(id vector.ID) []vector.ID
}

// VectorLookup resolves a live vector by ID.
type VectorLookup func(id vector.ID) (vector.Vector, bool)

// Candidate is a single search result: a vector ID and its comparable
// distance to the query (already sign-adjusted so smaller is always
// better, regardless of kernel).
type Candidate struct {
	ID       vector.ID
	Distance float32
}

// candidateHeap is a min-heap over Candidate.Distance, used for the
// search frontier (next node to expand).
type candidateHeap []Candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].Distance < h[j].Distance }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// resultHeap is a max-heap over Candidate.Distance (the worst result is
// at the root), used to bound the result set to ef entries.
type resultHeap struct{ candidateHeap }

func (h resultHeap) Less(i, j int) bool { return h.candidateHeap[i].Distance > h.candidateHeap[j].Distance }

// Bounded runs a bounded best-first search over a single layer, starting
// from entry, and returns up to ef candidates nearest to query, sorted
// nearest-first. expansionCap limits how many of a node's neighbors are
// examined per expansion (2*M for the base layer, M for upper layers),
// matching the layer's own neighbor arity.
func Bounded(layer Layer, lookup VectorLookup, distance vector.Distance, query vector.Vector, entry vector.ID, ef int, expansionCap int) []Candidate {
	if ef <= 0 {
		return nil
	}

	state := acquireState()
	defer releaseState(state)

	entryVec, ok := lookup(entry)
	if !ok {
		return nil
	}
	entryDist := distance.Comparable(query, entryVec)

	state.visited[entry] = struct{}{}
	heap.Push(&state.candidates, Candidate{ID: entry, Distance: entryDist})
	heap.Push(&state.results, Candidate{ID: entry, Distance: entryDist})

	for state.candidates.Len() > 0 {
		best := state.candidates[0]
		if state.results.Len() >= ef && best.Distance > state.results.candidateHeap[0].Distance {
			break
		}
		heap.Pop(&state.candidates)

		neighbors := layer.Neighbors(best.ID)
		if len(neighbors) > expansionCap {
			neighbors = neighbors[:expansionCap]
		}
		for _, n := range neighbors {
			if _, seen := state.visited[n]; seen {
				continue
			}
			state.visited[n] = struct{}{}

			vec, ok := lookup(n)
			if !ok {
				continue
			}
			dist := distance.Comparable(query, vec)

			if state.results.Len() < ef {
				heap.Push(&state.candidates, Candidate{ID: n, Distance: dist})
				heap.Push(&state.results, Candidate{ID: n, Distance: dist})
			} else if dist < state.results.candidateHeap[0].Distance {
				heap.Push(&state.candidates, Candidate{ID: n, Distance: dist})
				heap.Pop(&state.results)
				heap.Push(&state.results, Candidate{ID: n, Distance: dist})
			}
		}
	}

	out := make([]Candidate, len(state.results.candidateHeap))
	copy(out, state.results.candidateHeap)
	sortByDistance(out)
	return out
}

// less reports whether a sorts before b: nearer first, ties broken by
// ascending vector.ID so results are deterministic regardless of
// insertion or heap-internal order.
func less(a, b Candidate) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

func sortByDistance(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && less(c[j], c[j-1]); j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
