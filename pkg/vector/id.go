package vector

import "math"

// ID is a 32-bit, non-negative identifier for a vector record. IDs are
// assigned monotonically from the slot table's length and are never
// reused, even after deletion.
type ID uint32

// Invalid is the sentinel ID marking an empty neighbor slot or a
// tombstoned (deleted) slot-table entry.
const Invalid ID = ID(math.MaxUint32)

// Valid reports whether the ID is not the Invalid sentinel.
func (id ID) Valid() bool {
	return id != Invalid
}

// MaxID is the largest ID value the collection will ever assign; the
// slot table must never be allowed to grow to this length.
const MaxID = math.MaxUint32
