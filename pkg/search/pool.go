package search

import (
	"sync"

	"github.com/georgaylor/vectordb/pkg/vector"
)

// state holds the scratch structures a single Bounded call needs: the
// visited set and the two heaps. Pooled so repeated searches (query
// traffic, or construction hammering the graph with inserts) don't
// re-allocate them each time; every field is reset before reuse.
type state struct {
	visited    map[vector.ID]struct{}
	candidates candidateHeap
	results    resultHeap
}

var statePool = sync.Pool{
	New: func() interface{} {
		return &state{
			visited:    make(map[vector.ID]struct{}),
			candidates: make(candidateHeap, 0, 64),
			results:    resultHeap{make(candidateHeap, 0, 64)},
		}
	},
}

func acquireState() *state {
	return statePool.Get().(*state)
}

func releaseState(s *state) {
	for k := range s.visited {
		delete(s.visited, k)
	}
	s.candidates = s.candidates[:0]
	s.results.candidateHeap = s.results.candidateHeap[:0]
	statePool.Put(s)
}
