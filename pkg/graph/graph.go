package graph

import (
	"github.com/georgaylor/vectordb/pkg/search"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// Graph is the full layered proximity index: one base layer plus zero or
// more upper layers, each dense over every live and tombstoned vector ID
// (invariant: every layer's length equals the collection's slot count).
type Graph struct {
	M     int
	Base  []BaseNode
	Upper [][]UpperNode // Upper[i] is layer i+1
}

// New returns an empty graph with the given base/upper neighbor arity.
func New(m int) *Graph {
	return &Graph{M: m}
}

// TopLayer returns the current topmost layer, 0 if the graph has no
// upper layers yet.
func (g *Graph) TopLayer() LayerID { return LayerID(len(g.Upper)) }

// Len returns the number of node slots in the base layer (and every
// upper layer, which are kept the same length).
func (g *Graph) Len() int { return len(g.Base) }

// BaseLayer exposes the base layer for read access.
func (g *Graph) BaseLayer() []BaseNode { return g.Base }

// UpperLayer exposes upper layer l (l >= 1) for read access.
func (g *Graph) UpperLayer(l LayerID) []UpperNode { return g.Upper[l-1] }

// baseLayerView adapts a base layer to search.Layer.
type baseLayerView []BaseNode

func (v baseLayerView) Neighbors(id vector.ID) []vector.ID { return v[id].Neighbors() }

// upperLayerView adapts an upper layer to search.Layer.
type upperLayerView []UpperNode

func (v upperLayerView) Neighbors(id vector.ID) []vector.ID { return v[id].Neighbors() }

// View returns a search.Layer view of layer l (0 is base), for callers
// (Collection's query path) running Bounded searches without caring
// whether the layer is the base or an upper layer.
func (g *Graph) View(l LayerID) search.Layer {
	if l.IsBase() {
		return baseLayerView(g.Base)
	}
	return upperLayerView(g.Upper[l-1])
}

// ensureLen grows the base layer and every existing upper layer to
// length n, appending empty nodes. Never shrinks.
func (g *Graph) ensureLen(n int) {
	for len(g.Base) < n {
		g.Base = append(g.Base, NewBaseNode(g.M))
	}
	for i := range g.Upper {
		for len(g.Upper[i]) < n {
			g.Upper[i] = append(g.Upper[i], NewUpperNode(g.M))
		}
	}
}
