// Package vector provides the fixed-dimension float32 vector type, its
// distance kernels, and the VectorID/slot-table machinery the collection
// package builds its index on top of.
package vector

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Vector is an ordered, fixed-length sequence of float32 components.
// Two vectors are only comparable when their lengths match; callers must
// check Len before calling a Distance kernel on a pair.
type Vector []float32

// Len returns the number of components in the vector.
func (v Vector) Len() int {
	return len(v)
}

// At returns the component at i.
func (v Vector) At(i int) float32 {
	return v[i]
}

// Equal reports whether v and other hold bitwise-identical components.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if math.Float32bits(v[i]) != math.Float32bits(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the vector's backing storage.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Hash returns a content-addressable hash of the vector's components,
// used by Collection.Build to deduplicate bit-identical vectors. Hashing
// the raw IEEE-754 bytes (rather than summing/combining float values)
// means two vectors collide only when every component's bit pattern is
// identical, including NaN payloads and the sign of zero.
func (v Vector) Hash() uint64 {
	h := xxhash.New()
	buf := make([]byte, 4)
	for _, f := range v {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
