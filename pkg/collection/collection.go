// Package collection implements a single vector collection: a fixed-
// dimension set of records, each with a vector and optional metadata,
// indexed by a layered HNSW-style proximity graph for approximate
// nearest-neighbor search.
package collection

import (
	"sort"
	"sync"
	"time"

	"github.com/georgaylor/vectordb/pkg/graph"
	"github.com/georgaylor/vectordb/pkg/logging"
	"github.com/georgaylor/vectordb/pkg/metadata"
	"github.com/georgaylor/vectordb/pkg/metrics"
	"github.com/georgaylor/vectordb/pkg/search"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// maxRecords bounds a collection to the addressable range of vector.ID;
// vector.Invalid (vector.MaxID) can never be assigned to a real record.
const maxRecords = vector.MaxID

// defaultRelevancy is the sentinel threshold meaning "no relevancy
// filtering": every search result is kept regardless of distance.
const defaultRelevancy = float32(-1.0)

// Collection is a single-writer, many-reader vector collection guarded
// by one RWMutex: reads (Get, List, Search, Len, ...) take RLock, writes
// (Insert, Update, Delete, ...) take the full Lock.
type Collection struct {
	mu sync.RWMutex

	config    Config
	distance  vector.Distance
	relevancy float32
	dimension int

	slots vector.Slots
	data  []Record
	graph *graph.Graph

	logger  *logging.Logger
	metrics *metrics.Collector
}

// New validates cfg and returns an empty Collection.
func New(cfg Config) (*Collection, error) {
	dist, err := cfg.distanceKernel()
	if err != nil {
		return nil, errUnsupportedDistance(cfg.Distance)
	}
	m := cfg.M
	if m <= 0 {
		m = DefaultConfig().M
	}
	return &Collection{
		config:    cfg,
		distance:  dist,
		relevancy: defaultRelevancy,
		graph:     graph.New(m),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

func errUnsupportedDistance(name string) *Error {
	return newError(KindUnsupportedDistance, ErrUnsupportedDistance, "unsupported distance function: %q", name)
}

func (c *Collection) params() graph.Params {
	return graph.Params{
		M:              c.graph.M,
		EfConstruction: c.config.EfConstruction,
		ML:             c.config.ML,
		Distance:       c.distance,
	}
}

func (c *Collection) lookup(id vector.ID) (vector.Vector, bool) {
	i := int(id)
	if i < 0 || i >= len(c.data) {
		return nil, false
	}
	return c.data[i].Vector, true
}

func (c *Collection) logf(event string, fields map[string]interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).Info(event)
}

func (c *Collection) count(name string, delta int64) {
	if c.metrics == nil {
		return
	}
	c.metrics.Counter(name, delta)
}

func (c *Collection) observe(name string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Histogram(name, float64(d.Milliseconds()))
}

func (c *Collection) gauge(name string, value int64) {
	if c.metrics == nil {
		return
	}
	c.metrics.Gauge(name, value)
}

// Len reports the number of live records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.liveCount()
}

func (c *Collection) liveCount() int {
	n := 0
	for _, id := range c.slots {
		if id.Valid() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the collection holds no live records.
func (c *Collection) IsEmpty() bool { return c.Len() == 0 }

// Contains reports whether id names a live record.
func (c *Collection) Contains(id vector.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots.Live(id)
}

// Dimension returns the collection's fixed vector dimension, 0 if unset.
func (c *Collection) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// SetDimension fixes the collection's vector dimension. Only valid on a
// collection that has never held a record.
func (c *Collection) SetDimension(d int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slots) > 0 {
		return errCollectionNotEmpty()
	}
	c.dimension = d
	return nil
}

// SetRelevancy sets the result relevancy threshold. Pass defaultRelevancy
// (-1.0) to disable filtering.
func (c *Collection) SetRelevancy(threshold float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relevancy = threshold
}

func (c *Collection) validateDimension(v vector.Vector) error {
	if c.dimension == 0 {
		c.dimension = len(v)
		return nil
	}
	if len(v) != c.dimension {
		return errInvalidDimension(len(v), c.dimension)
	}
	return nil
}

// Get returns a deep copy of the live record named by id.
func (c *Collection) Get(id vector.ID) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.slots.Live(id) {
		return Record{}, errRecordNotFound(id)
	}
	return c.data[id].clone(), nil
}

// List returns deep copies of every live record, in ID order.
func (c *Collection) List() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, c.liveCount())
	for _, id := range c.slots {
		if id.Valid() {
			out = append(out, c.data[id].clone())
		}
	}
	return out
}

// Build bulk-constructs the collection's index from scratch. Only valid
// on a collection that has never held a record. Vectors that are
// bitwise-identical to one already accepted earlier in the batch are
// skipped (build-time deduplication); Insert and InsertMany perform no
// such deduplication.
func (c *Collection) Build(records []Record) ([]vector.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	if len(c.slots) > 0 {
		return nil, errCollectionNotEmpty()
	}
	if len(records) == 0 {
		return nil, nil
	}
	if uint64(len(records)) >= maxRecords {
		return nil, errCollectionLimit()
	}

	seen := make(map[uint64]struct{}, len(records))
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if err := c.validateDimension(r.Vector); err != nil {
			return nil, err
		}
		h := r.Vector.Hash()
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, r)
	}

	ids := c.slots.Append(len(kept))
	c.data = make([]Record, len(kept))
	for i, r := range kept {
		r.ID = ids[i]
		c.data[i] = Record{ID: r.ID, Vector: r.Vector.Clone(), Metadata: r.Metadata.Clone()}
	}

	c.graph = graph.Build(c.params(), len(c.data), c.lookup)

	c.logf("collection.build", map[string]interface{}{"records": len(kept), "skipped_duplicates": len(records) - len(kept)})
	c.count("records_inserted", int64(len(kept)))
	c.gauge("collection_size", int64(len(c.data)))
	c.observe("build_duration_ms", time.Since(start))
	return ids, nil
}

// Insert appends a single record and wires it into the graph.
func (c *Collection) Insert(v vector.Vector, md metadata.Value) (vector.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validateDimension(v); err != nil {
		return vector.Invalid, err
	}
	if uint64(len(c.slots))+1 >= maxRecords {
		return vector.Invalid, errCollectionLimit()
	}

	ids := c.slots.Append(1)
	id := ids[0]
	c.data = append(c.data, Record{ID: id, Vector: v.Clone(), Metadata: md.Clone()})

	graph.InsertToLayers(c.graph, c.params(), len(c.data)-1, len(c.data), c.lookup)

	c.logf("collection.insert", map[string]interface{}{"id": id})
	c.count("records_inserted", 1)
	c.gauge("collection_size", int64(len(c.data)))
	return id, nil
}

// InsertMany appends a batch of records in one pass, wiring them into
// the graph together (cheaper than N sequential Insert calls).
func (c *Collection) InsertMany(records []Insertion) ([]vector.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(records) == 0 {
		return nil, nil
	}
	if uint64(len(c.slots))+uint64(len(records)) >= maxRecords {
		return nil, errCollectionLimit()
	}
	for _, r := range records {
		if err := c.validateDimension(r.Vector); err != nil {
			return nil, err
		}
	}

	start := len(c.data)
	ids := c.slots.Append(len(records))
	for i, r := range records {
		c.data = append(c.data, Record{ID: ids[i], Vector: r.Vector.Clone(), Metadata: r.Metadata.Clone()})
	}

	graph.InsertToLayers(c.graph, c.params(), start, len(c.data), c.lookup)

	c.logf("collection.insert_many", map[string]interface{}{"records": len(records)})
	c.count("records_inserted", int64(len(records)))
	c.gauge("collection_size", int64(len(c.data)))
	return ids, nil
}

// Update replaces a live record's vector and/or metadata and rewires its
// graph neighbors against the new vector. On an empty collection this
// always returns ErrRecordNotFound, since no ID could ever be live.
func (c *Collection) Update(id vector.ID, v vector.Vector, md metadata.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.slots.Live(id) {
		return errRecordNotFound(id)
	}
	if err := c.validateDimension(v); err != nil {
		return err
	}

	c.data[id] = Record{ID: id, Vector: v.Clone(), Metadata: md.Clone()}
	graph.Rewire(c.graph, c.params(), id, c.lookup)

	c.logf("collection.update", map[string]interface{}{"id": id})
	c.count("collection.update.records", 1)
	return nil
}

// Delete tombstones a live record: its slot is marked invalid (never
// reused) and every reference to it is purged from the graph.
func (c *Collection) Delete(id vector.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.slots.Live(id) {
		return errRecordNotFound(id)
	}
	c.slots.Tombstone(id)
	graph.DeleteFromLayers(c.graph, []vector.ID{id})

	c.logf("collection.delete", map[string]interface{}{"id": id})
	c.count("records_deleted", 1)
	c.gauge("collection_size", int64(c.liveCount()))
	return nil
}

// Search runs an approximate nearest-neighbor search, descending the
// graph from its top layer to the base layer. ef overrides the base
// layer's candidate pool size; pass 0 to use the collection's configured
// EfSearch.
func (c *Collection) Search(query vector.Vector, n int, ef int) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := time.Now()

	if err := c.checkQueryDimension(query); err != nil {
		return nil, err
	}
	entry, ok := c.slots.FirstLive()
	if !ok {
		return nil, errUnableToInitiateSearch()
	}
	if ef <= 0 {
		ef = c.config.EfSearch
	}

	top := c.graph.TopLayer()
	current := entry
	var results []search.Candidate
	for layer := top; layer >= 0; layer-- {
		layerEf := 5
		expCap := c.graph.M
		if layer.IsBase() {
			layerEf = ef
			expCap = 2 * c.graph.M
		}
		results = search.Bounded(c.graph.View(layer), c.lookup, c.distance, query, current, layerEf, expCap)
		if len(results) == 0 {
			break
		}
		current = results[0].ID
	}

	out := c.toSearchResults(query, results)
	out = c.filterRelevancy(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	c.observe("search_latency_ms", time.Since(start))
	return out, nil
}

// TrueSearch runs an exact, brute-force nearest-neighbor search over
// every live record. Useful as a recall baseline for Search.
func (c *Collection) TrueSearch(query vector.Vector, n int) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.checkQueryDimension(query); err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, c.liveCount())
	for _, id := range c.slots {
		if !id.Valid() {
			continue
		}
		rec := c.data[id]
		out = append(out, SearchResult{Record: rec.clone(), Distance: c.distance.Calculate(query, rec.Vector)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			if c.distance.Ascending() {
				return out[i].Distance < out[j].Distance
			}
			return out[i].Distance > out[j].Distance
		}
		return out[i].Record.ID < out[j].Record.ID
	})

	out = c.filterRelevancy(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (c *Collection) checkQueryDimension(query vector.Vector) error {
	if c.dimension != 0 && len(query) != c.dimension {
		return errInvalidDimension(len(query), c.dimension)
	}
	return nil
}

func (c *Collection) toSearchResults(query vector.Vector, candidates []search.Candidate) []SearchResult {
	out := make([]SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		rec := c.data[cand.ID]
		raw := cand.Distance
		if !c.distance.Ascending() {
			raw = -raw
		}
		out = append(out, SearchResult{Record: rec.clone(), Distance: raw})
	}
	return out
}

// filterRelevancy drops results outside the configured threshold:
// "nearer than or equal to" for Euclidean, "at least as similar as" for
// Cosine and Dot. A threshold of defaultRelevancy disables filtering.
func (c *Collection) filterRelevancy(results []SearchResult) []SearchResult {
	if c.relevancy == defaultRelevancy {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if c.distance.Ascending() {
			if r.Distance <= c.relevancy {
				out = append(out, r)
			}
		} else if r.Distance >= c.relevancy {
			out = append(out, r)
		}
	}
	return out
}
