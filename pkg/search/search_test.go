package search

import (
	"testing"

	"github.com/georgaylor/vectordb/pkg/vector"
)

// chainLayer connects id to id+1 and id-1, a simple line graph, enough
// to exercise multi-hop expansion.
type chainLayer struct{ n int }

func (c chainLayer) Neighbors(id vector.ID) []vector.ID {
	var out []vector.ID
	i := int(id)
	if i > 0 {
		out = append(out, vector.ID(i-1))
	}
	if i < c.n-1 {
		out = append(out, vector.ID(i+1))
	}
	return out
}

func chainVectors(n int) map[vector.ID]vector.Vector {
	vecs := make(map[vector.ID]vector.Vector, n)
	for i := 0; i < n; i++ {
		vecs[vector.ID(i)] = vector.Vector{float32(i)}
	}
	return vecs
}

func TestBoundedFindsNearest(t *testing.T) {
	vecs := chainVectors(20)
	layer := chainLayer{n: 20}
	lookup := func(id vector.ID) (vector.Vector, bool) { v, ok := vecs[id]; return v, ok }

	query := vector.Vector{15}
	results := Bounded(layer, lookup, vector.Euclidean, query, 0, 3, 40)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].ID != 15 {
		t.Fatalf("results[0].ID = %v, want 15", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not sorted ascending: %v", results)
		}
	}
}

func TestBoundedRespectsEf(t *testing.T) {
	vecs := chainVectors(50)
	layer := chainLayer{n: 50}
	lookup := func(id vector.ID) (vector.Vector, bool) { v, ok := vecs[id]; return v, ok }

	results := Bounded(layer, lookup, vector.Euclidean, vector.Vector{0}, 0, 5, 40)
	if len(results) != 5 {
		t.Fatalf("len(results) = %d, want 5", len(results))
	}
}

func TestBoundedMissingEntryReturnsNil(t *testing.T) {
	lookup := func(id vector.ID) (vector.Vector, bool) { return nil, false }
	results := Bounded(chainLayer{n: 1}, lookup, vector.Euclidean, vector.Vector{0}, 0, 5, 40)
	if results != nil {
		t.Fatalf("expected nil results for missing entry, got %v", results)
	}
}

func TestBoundedDescendingKernel(t *testing.T) {
	vecs := map[vector.ID]vector.Vector{
		0: {1, 0},
		1: {0, 1},
		2: {1, 1},
	}
	layer := flatLayer{ids: []vector.ID{0, 1, 2}}
	lookup := func(id vector.ID) (vector.Vector, bool) { v, ok := vecs[id]; return v, ok }

	query := vector.Vector{1, 0}
	results := Bounded(layer, lookup, vector.Cosine, query, 0, 3, 10)
	if len(results) == 0 || results[0].ID != 0 {
		t.Fatalf("expected closest-by-cosine id 0 first, got %v", results)
	}
}

func TestBoundedBreaksTiesByAscendingID(t *testing.T) {
	vecs := map[vector.ID]vector.Vector{
		2: {0},
		0: {0},
		1: {0},
	}
	layer := flatLayer{ids: []vector.ID{0, 1, 2}}
	lookup := func(id vector.ID) (vector.Vector, bool) { v, ok := vecs[id]; return v, ok }

	results := Bounded(layer, lookup, vector.Euclidean, vector.Vector{0}, 2, 3, 10)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, want := range []vector.ID{0, 1, 2} {
		if results[i].ID != want {
			t.Fatalf("results[%d].ID = %v, want %v (ties must break by ascending ID)", i, results[i].ID, want)
		}
	}
}

// flatLayer connects every id to every other id, for exhaustive-reach
// tests where traversal topology shouldn't constrain the result.
type flatLayer struct{ ids []vector.ID }

func (f flatLayer) Neighbors(id vector.ID) []vector.ID {
	out := make([]vector.ID, 0, len(f.ids)-1)
	for _, o := range f.ids {
		if o != id {
			out = append(out, o)
		}
	}
	return out
}
