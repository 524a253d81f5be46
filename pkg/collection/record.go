package collection

import (
	"github.com/georgaylor/vectordb/pkg/metadata"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// Record is a single stored vector plus its metadata, keyed by a
// collection-assigned ID.
type Record struct {
	ID       vector.ID
	Vector   vector.Vector
	Metadata metadata.Value
}

func (r Record) clone() Record {
	return Record{ID: r.ID, Vector: r.Vector.Clone(), Metadata: r.Metadata.Clone()}
}

// SearchResult is a single Search/TrueSearch hit: the matching record
// plus its raw (un-negated) distance to the query under the
// collection's configured kernel.
type SearchResult struct {
	Record   Record
	Distance float32
}

// Insertion is one record of an InsertMany batch.
type Insertion struct {
	Vector   vector.Vector
	Metadata metadata.Value
}
