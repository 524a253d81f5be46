package graph

// LayerID identifies a graph layer: 0 is the base layer, values above 0
// index into the progressively narrower upper layers.
type LayerID int

// IsBase reports whether this is the base (widest, 2*M-arity) layer.
func (l LayerID) IsBase() bool { return l == 0 }

// Descend returns every layer from top down to (and including) the base
// layer, the order construction and search both traverse in.
func Descend(top LayerID) []LayerID {
	out := make([]LayerID, 0, top+1)
	for l := top; l >= 0; l-- {
		out = append(out, l)
	}
	return out
}

// layerSizes computes the cumulative per-layer population bounds used to
// partition vector IDs across layers at bulk-build time: starting from
// n records, each successive (higher) layer holds floor(previous*ml)
// records, stopping once that would drop below m. The result is
// ascending (smallest/topmost layer first, n last).
func layerSizes(n int, ml float64, m int) []int {
	sizes := []int{n}
	for {
		next := int(float64(sizes[len(sizes)-1]) * ml)
		if next < m {
			break
		}
		sizes = append(sizes, next)
	}
	for i, j := 0, len(sizes)-1; i < j; i, j = i+1, j-1 {
		sizes[i], sizes[j] = sizes[j], sizes[i]
	}
	return sizes
}

// idRange is the half-open [Start, End) span of vector IDs whose entry
// layer is Layer: the first layer (scanning top to base) for which
// id < cumulative bound.
type idRange struct {
	Layer LayerID
	Start int
	End   int
}

// layerRanges partitions [0, n) into per-entry-layer ranges, top layer
// first, base layer last. Every range's Start is clamped to at least 1:
// vector ID 0 is always the graph's fixed seed/entry point, inserted
// before any range is processed, and is never re-processed by a range.
func layerRanges(n int, ml float64, m int) []idRange {
	cumulative := layerSizes(n, ml, m)
	numLayers := len(cumulative)

	ranges := make([]idRange, 0, numLayers)
	for i, end := range cumulative {
		start := 0
		if i > 0 {
			start = cumulative[i-1]
		}
		if start < 1 {
			start = 1
		}
		if start >= end {
			continue
		}
		ranges = append(ranges, idRange{
			Layer: LayerID(numLayers - 1 - i),
			Start: start,
			End:   end,
		})
	}
	return ranges
}
