package collection

import (
	"errors"
	"fmt"
)

// Kind classifies a collection Error for callers that want to branch on
// failure category without string-matching messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindLimit
	KindNotEmpty
	KindUnsupportedDistance
	KindNoEntryPoint
	KindDimension
)

// Error is the collection package's error type: every operation other
// than Save and Load returns one of these on failure, wrapping a sentinel
// so callers can still use errors.Is against the package-level Err* vars.
// Save and Load return plain wrapped errors.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.err }

func newError(kind Kind, sentinel error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), err: sentinel}
}

var (
	// ErrRecordNotFound is returned by Get, Update, and Delete when the
	// given ID doesn't name a live record.
	ErrRecordNotFound = errors.New("collection: record not found")
	// ErrCollectionLimit is returned by Build/Insert/InsertMany when adding
	// records would make the slot table reach vector.MaxID entries.
	ErrCollectionLimit = errors.New("collection: maximum record count exceeded")
	// ErrCollectionNotEmpty is returned by SetDimension when the
	// collection already holds records.
	ErrCollectionNotEmpty = errors.New("collection: collection is not empty")
	// ErrUnsupportedDistance is returned when a distance kernel name
	// doesn't resolve to a known kernel.
	ErrUnsupportedDistance = errors.New("collection: unsupported distance function")
	// ErrUnableToInitiateSearch is returned by Search when the collection
	// has no live record to seed traversal from.
	ErrUnableToInitiateSearch = errors.New("collection: unable to initiate search")
	// ErrInconsistentDimension is returned when a vector's length
	// doesn't match the collection's configured dimension.
	ErrInconsistentDimension = errors.New("collection: inconsistent vector dimension")
)

func errRecordNotFound(id interface{}) *Error {
	return newError(KindNotFound, ErrRecordNotFound, "record not found: %v", id)
}

func errCollectionLimit() *Error {
	return newError(KindLimit, ErrCollectionLimit, "collection cannot hold more than %d records", maxRecords-1)
}

func errCollectionNotEmpty() *Error {
	return newError(KindNotEmpty, ErrCollectionNotEmpty, "collection is not empty")
}

func errUnableToInitiateSearch() *Error {
	return newError(KindNoEntryPoint, ErrUnableToInitiateSearch, "no live record to seed search from")
}

func errInvalidDimension(found, expected int) *Error {
	return newError(KindDimension, ErrInconsistentDimension, "invalid dimension: found %d, expected %d", found, expected)
}
