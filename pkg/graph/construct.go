package graph

import (
	"runtime"
	"sync"

	"github.com/georgaylor/vectordb/pkg/search"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// Params configures graph construction and incremental insertion.
type Params struct {
	M              int
	EfConstruction int
	ML             float64
	Distance       vector.Distance
}

// VectorLookup resolves a vector by ID for the duration of a
// construction call; the caller (Collection) owns the backing store and
// guarantees it isn't mutated concurrently with Build/InsertToLayers.
type VectorLookup func(id vector.ID) (vector.Vector, bool)

// guardedBaseNode wraps a BaseNode with its own lock so concurrent
// insertions into different nodes never contend, and insertions into the
// same node never race. No call path holds two node locks at once, so
// this can never deadlock.
type guardedBaseNode struct {
	mu   sync.RWMutex
	node BaseNode
}

func (g *guardedBaseNode) neighbors() []vector.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]vector.ID, len(g.node.neighbors))
	copy(out, g.node.neighbors)
	return out
}

func (g *guardedBaseNode) insert(id vector.ID, distTo func(vector.ID) float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.node.Insert(id, distTo)
}

type guardedUpperNode struct {
	mu   sync.RWMutex
	node UpperNode
}

func (g *guardedUpperNode) neighbors() []vector.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]vector.ID, len(g.node.neighbors))
	copy(out, g.node.neighbors)
	return out
}

func (g *guardedUpperNode) insert(id vector.ID, distTo func(vector.ID) float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.node.Insert(id, distTo)
}

type guardedBaseLayer []*guardedBaseNode

func (v guardedBaseLayer) Neighbors(id vector.ID) []vector.ID { return v[id].neighbors() }

type guardedUpperLayer []*guardedUpperNode

func (v guardedUpperLayer) Neighbors(id vector.ID) []vector.ID { return v[id].neighbors() }

// parallelFor calls fn(i) for i in [0, n), fanned out across
// runtime.GOMAXPROCS(0) workers. Used to build or extend one layer's
// range of node slots concurrently; the per-node locks above make this
// safe even when two ranges' searches touch the same node.
func parallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	work := make(chan int)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
}

// Build constructs a fresh graph over vector IDs [0, n), partitioning
// them into layers by layerRanges and wiring neighbors top-down. Vector
// ID 0 is reserved as the graph's permanent seed point: it receives no
// outbound search of its own, only the inbound links later insertions
// make to it.
func Build(p Params, n int, vectors VectorLookup) *Graph {
	g := New(p.M)
	if n == 0 {
		return g
	}

	ranges := layerRanges(n, p.ML, p.M)
	topLayer := LayerID(len(layerSizes(n, p.ML, p.M)) - 1)

	g.Upper = make([][]UpperNode, topLayer)
	g.ensureLen(n)

	base := make(guardedBaseLayer, n)
	for i := range base {
		base[i] = &guardedBaseNode{node: NewBaseNode(p.M)}
	}
	upper := make([]guardedUpperLayer, topLayer)
	for l := range upper {
		upper[l] = make(guardedUpperLayer, n)
		for i := range upper[l] {
			upper[l][i] = &guardedUpperNode{node: NewUpperNode(p.M)}
		}
	}

	for _, r := range ranges {
		rng := r
		parallelFor(rng.End-rng.Start, func(k int) {
			id := vector.ID(rng.Start + k)
			insertIntoLayers(id, rng.Layer, topLayer, base, upper, vectors, p)
		})
	}

	for i := range base {
		g.Base[i] = base[i].node
	}
	for l := range upper {
		for i := range upper[l] {
			g.Upper[l][i] = upper[l][i].node
		}
	}
	return g
}

// InsertToLayers extends g with newly-appended vector IDs [start, n),
// inserting each at the current top layer (so every incrementally
// inserted id, unlike a bulk-built one, receives links at every layer).
// If the graph was empty before this call, the first new id becomes the
// permanent seed point (mirroring Build's treatment of ID 0) and
// receives no outbound links of its own.
func InsertToLayers(g *Graph, p Params, start, n int, vectors VectorLookup) {
	wasEmpty := g.Len() == 0
	g.ensureLen(n)
	topLayer := g.TopLayer()

	base := make(guardedBaseLayer, n)
	for i := 0; i < n; i++ {
		base[i] = &guardedBaseNode{node: g.Base[i]}
	}
	upper := make([]guardedUpperLayer, len(g.Upper))
	for l := range g.Upper {
		upper[l] = make(guardedUpperLayer, n)
		for i := 0; i < n; i++ {
			upper[l][i] = &guardedUpperNode{node: g.Upper[l][i]}
		}
	}

	first := start
	if wasEmpty {
		first = start + 1
	}

	ids := make([]vector.ID, 0, n-first)
	for i := first; i < n; i++ {
		ids = append(ids, vector.ID(i))
	}
	parallelFor(len(ids), func(k int) {
		insertIntoLayers(ids[k], topLayer, topLayer, base, upper, vectors, p)
	})

	for i := 0; i < n; i++ {
		g.Base[i] = base[i].node
	}
	for l := range g.Upper {
		for i := 0; i < n; i++ {
			g.Upper[l][i] = upper[l][i].node
		}
	}
}

// insertIntoLayers seeds a bounded search at the top layer from the
// graph's fixed entry point (vector ID 0) and descends layer by layer.
// At every layer at or below entryLayer, the discovered neighbors are
// linked bidirectionally; above entryLayer the search still runs (to
// refine the descent's entry point for the next layer down) but no
// links are made.
func insertIntoLayers(id vector.ID, entryLayer, topLayer LayerID, base guardedBaseLayer, upper []guardedUpperLayer, vectors VectorLookup, p Params) {
	qv, ok := vectors(id)
	if !ok {
		return
	}

	current := vector.ID(0)
	for layer := topLayer; layer >= 0; layer-- {
		ef := 5
		expansionCap := p.M
		var layerView search.Layer
		if layer.IsBase() {
			ef = p.EfConstruction
			expansionCap = 2 * p.M
			layerView = base
		} else {
			layerView = upper[layer-1]
		}

		found := search.Bounded(layerView, search.VectorLookup(vectors), p.Distance, qv, current, ef, expansionCap)
		results := found[:0]
		for _, r := range found {
			if r.ID != id {
				results = append(results, r)
			}
		}
		if len(results) == 0 {
			continue
		}
		current = results[0].ID

		if layer <= entryLayer {
			limit := expansionCap
			if len(results) < limit {
				limit = len(results)
			}
			link(id, results[:limit], layer, base, upper, vectors, p.Distance)
		}
	}
}

func link(id vector.ID, candidates []search.Candidate, layer LayerID, base guardedBaseLayer, upper []guardedUpperLayer, vectors VectorLookup, distance vector.Distance) {
	distTo := func(ref vector.ID) func(vector.ID) float32 {
		rv, ok := vectors(ref)
		if !ok {
			return func(vector.ID) float32 { return 0 }
		}
		return func(other vector.ID) float32 {
			ov, ok := vectors(other)
			if !ok {
				return 0
			}
			return distance.Comparable(rv, ov)
		}
	}

	if layer.IsBase() {
		for _, c := range candidates {
			base[id].insert(c.ID, distTo(id))
			base[c.ID].insert(id, distTo(c.ID))
		}
		return
	}
	l := upper[layer-1]
	for _, c := range candidates {
		l[id].insert(c.ID, distTo(id))
		l[c.ID].insert(id, distTo(c.ID))
	}
}

// DeleteFromLayers tombstones ids out of the graph: each id's own node
// is reset to empty, and every surviving node's neighbor list has the
// id removed wherever it appears, keeping the packed-left invariant.
func DeleteFromLayers(g *Graph, ids []vector.ID) {
	if len(ids) == 0 {
		return
	}
	dead := make(map[vector.ID]struct{}, len(ids))
	for _, id := range ids {
		dead[id] = struct{}{}
	}

	parallelFor(len(g.Base), func(i int) {
		purge(&g.Base[i].neighbors, dead)
	})
	for l := range g.Upper {
		layer := g.Upper[l]
		parallelFor(len(layer), func(i int) {
			purge(&layer[i].neighbors, dead)
		})
	}

	for id := range dead {
		if int(id) < len(g.Base) {
			g.Base[id] = NewBaseNode(g.M)
		}
		for l := range g.Upper {
			if int(id) < len(g.Upper[l]) {
				g.Upper[l][id] = NewUpperNode(g.M)
			}
		}
	}
}

func purge(neighbors *[]vector.ID, dead map[vector.ID]struct{}) {
	arr := *neighbors
	kept := arr[:0]
	for _, n := range arr {
		if _, isDead := dead[n]; !isDead {
			kept = append(kept, n)
		}
	}
	*neighbors = kept
}

// Rewire re-establishes id's graph links after its vector has changed in
// place (Collection.Update): it purges id's existing links everywhere it
// appears, resets its own node, then re-runs insertion at every layer as
// if id were a fresh incremental insert.
func Rewire(g *Graph, p Params, id vector.ID, vectors VectorLookup) {
	dead := map[vector.ID]struct{}{id: {}}
	for i := range g.Base {
		purge(&g.Base[i].neighbors, dead)
	}
	for l := range g.Upper {
		for i := range g.Upper[l] {
			purge(&g.Upper[l][i].neighbors, dead)
		}
	}
	if int(id) < len(g.Base) {
		g.Base[id] = NewBaseNode(g.M)
	}
	for l := range g.Upper {
		if int(id) < len(g.Upper[l]) {
			g.Upper[l][id] = NewUpperNode(g.M)
		}
	}

	n := g.Len()
	base := make(guardedBaseLayer, n)
	for i := 0; i < n; i++ {
		base[i] = &guardedBaseNode{node: g.Base[i]}
	}
	upper := make([]guardedUpperLayer, len(g.Upper))
	for l := range g.Upper {
		upper[l] = make(guardedUpperLayer, n)
		for i := 0; i < n; i++ {
			upper[l][i] = &guardedUpperNode{node: g.Upper[l][i]}
		}
	}

	top := g.TopLayer()
	insertIntoLayers(id, top, top, base, upper, vectors, p)

	for i := 0; i < n; i++ {
		g.Base[i] = base[i].node
	}
	for l := range g.Upper {
		for i := 0; i < n; i++ {
			g.Upper[l][i] = upper[l][i].node
		}
	}
}
