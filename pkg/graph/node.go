// Package graph implements the layered HNSW proximity graph: a wide base
// layer plus progressively narrower upper layers of fixed-arity neighbor
// lists, built and mutated under per-node guards so construction can fan
// out across a layer's VectorIDs.
package graph

import (
	"fmt"

	"github.com/georgaylor/vectordb/pkg/vector"
)

// DefaultM is the maximum neighbor arity of a non-base node; the base
// layer's arity is 2*M. 32 is the spec's recommended value; it must be a
// power of two.
const DefaultM = 32

// BaseNode is a base-layer (layer 0) node: up to 2*M neighbors, sorted
// nearest-first. Unlike the Rust original's fixed [VectorID; 2M] array
// padded with an INVALID sentinel, this keeps only the valid prefix in a
// capacity-bounded slice — the same "neighbors always packed to the
// left" guarantee, expressed the idiomatic Go way instead of simulating
// a fixed-size array with sentinel padding.
type BaseNode struct {
	neighbors []vector.ID
}

// NewBaseNode returns an empty base node with capacity for 2*m neighbors.
func NewBaseNode(m int) BaseNode {
	return BaseNode{neighbors: make([]vector.ID, 0, 2*m)}
}

// Neighbors returns the node's valid neighbor IDs, nearest first.
func (n *BaseNode) Neighbors() []vector.ID { return n.neighbors }

// Len returns the number of valid neighbors.
func (n *BaseNode) Len() int { return len(n.neighbors) }

// Contains reports whether id is already a neighbor.
func (n *BaseNode) Contains(id vector.ID) bool { return contains(n.neighbors, id) }

// Insert adds id to the node's neighbor list, keeping it sorted
// ascending by distTo. If the list is already at capacity, id is only
// inserted when it's nearer than the current farthest neighbor, which is
// then evicted and returned (evicted, true); otherwise (vector.Invalid,
// false) is returned. distTo must be callable for id and every existing
// neighbor.
func (n *BaseNode) Insert(id vector.ID, distTo func(vector.ID) float32) (vector.ID, bool) {
	evicted, ok := insertSorted(&n.neighbors, cap(n.neighbors), id, distTo)
	return evicted, ok
}

// Remove deletes id from the neighbor list if present, compacting the
// remaining entries so the valid prefix stays contiguous. Reports
// whether id was found.
func (n *BaseNode) Remove(id vector.ID) bool { return remove(&n.neighbors, id) }

// Restore replaces the node's neighbor list wholesale with a previously
// persisted, already-sorted list, used by Collection.Load. Fails if
// neighbors exceeds the node's capacity.
func (n *BaseNode) Restore(neighbors []vector.ID) error {
	if len(neighbors) > cap(n.neighbors) {
		return errOverCapacity(len(neighbors), cap(n.neighbors))
	}
	n.neighbors = append(n.neighbors[:0], neighbors...)
	return nil
}

// UpperNode is an upper-layer node: up to M neighbors, sorted
// nearest-first.
type UpperNode struct {
	neighbors []vector.ID
}

// NewUpperNode returns an empty upper node with capacity for m neighbors.
func NewUpperNode(m int) UpperNode {
	return UpperNode{neighbors: make([]vector.ID, 0, m)}
}

// UpperNodeFromBase copies the nearest min(m, base.Len()) entries of a
// base node into a new upper node — used when a base layer is snapshot
// into the layer above it during construction.
func UpperNodeFromBase(base *BaseNode, m int) UpperNode {
	n := NewUpperNode(m)
	count := len(base.neighbors)
	if count > m {
		count = m
	}
	n.neighbors = append(n.neighbors, base.neighbors[:count]...)
	return n
}

func (n *UpperNode) Neighbors() []vector.ID { return n.neighbors }
func (n *UpperNode) Len() int               { return len(n.neighbors) }
func (n *UpperNode) Contains(id vector.ID) bool {
	return contains(n.neighbors, id)
}
func (n *UpperNode) Insert(id vector.ID, distTo func(vector.ID) float32) (vector.ID, bool) {
	return insertSorted(&n.neighbors, cap(n.neighbors), id, distTo)
}
func (n *UpperNode) Remove(id vector.ID) bool { return remove(&n.neighbors, id) }

// Restore replaces the node's neighbor list wholesale with a previously
// persisted, already-sorted list, used by Collection.Load.
func (n *UpperNode) Restore(neighbors []vector.ID) error {
	if len(neighbors) > cap(n.neighbors) {
		return errOverCapacity(len(neighbors), cap(n.neighbors))
	}
	n.neighbors = append(n.neighbors[:0], neighbors...)
	return nil
}

func errOverCapacity(got, limit int) error {
	return fmt.Errorf("graph: %d neighbors exceeds capacity %d", got, limit)
}

func contains(neighbors []vector.ID, id vector.ID) bool {
	for _, n := range neighbors {
		if n == id {
			return true
		}
	}
	return false
}

func remove(neighbors *[]vector.ID, id vector.ID) bool {
	arr := *neighbors
	for i, n := range arr {
		if n == id {
			*neighbors = append(arr[:i], arr[i+1:]...)
			return true
		}
	}
	return false
}

// insertSorted inserts id into *neighbors (capacity limit) keeping the
// slice sorted ascending by distTo, evicting the farthest entry when the
// slice is already at capacity and id is nearer than it.
func insertSorted(neighbors *[]vector.ID, limit int, id vector.ID, distTo func(vector.ID) float32) (vector.ID, bool) {
	arr := *neighbors
	if contains(arr, id) {
		return vector.Invalid, false
	}

	newDist := distTo(id)
	pos := len(arr)
	for i, existing := range arr {
		if newDist < distTo(existing) {
			pos = i
			break
		}
	}

	if len(arr) < limit {
		arr = append(arr, vector.Invalid)
		copy(arr[pos+1:], arr[pos:len(arr)-1])
		arr[pos] = id
		*neighbors = arr
		return vector.Invalid, false
	}

	// At capacity: only displace the farthest neighbor if id is nearer.
	if pos == len(arr) {
		return vector.Invalid, false
	}
	evicted := arr[len(arr)-1]
	copy(arr[pos+1:], arr[pos:len(arr)-1])
	arr[pos] = id
	*neighbors = arr
	return evicted, true
}
