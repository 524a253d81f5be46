package collection

import (
	"github.com/georgaylor/vectordb/pkg/logging"
	"github.com/georgaylor/vectordb/pkg/metrics"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// Config configures a Collection's index construction and search
// behavior. The zero value is not usable; use DefaultConfig and
// override individual fields.
type Config struct {
	// M is the upper-layer neighbor arity; the base layer's arity is
	// 2*M. Must be a power of two.
	M int
	// EfConstruction is the candidate pool size used while wiring
	// neighbors during Build/Insert.
	EfConstruction int
	// EfSearch is the default candidate pool size used by Search when
	// the caller doesn't override it.
	EfSearch int
	// ML controls how quickly upper layers shrink: Lk+1 = floor(Lk*ML).
	ML float64
	// Distance names the similarity kernel: "euclidean", "cosine", or
	// "dot".
	Distance string

	// Logger receives structured diagnostics for build/insert/update/
	// delete operations. Nil disables logging.
	Logger *logging.Logger
	// Metrics receives counters and histograms for the same operations,
	// plus search latency. Nil disables metrics.
	Metrics *metrics.Collector
}

// DefaultConfig returns the collection's recommended defaults.
func DefaultConfig() Config {
	return Config{
		M:              32,
		EfConstruction: 40,
		EfSearch:       15,
		ML:             0.3,
		Distance:       "euclidean",
	}
}

func (c Config) distanceKernel() (vector.Distance, error) {
	return vector.DistanceFrom(c.Distance)
}
