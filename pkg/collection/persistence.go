package collection

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/georgaylor/vectordb/pkg/graph"
	"github.com/georgaylor/vectordb/pkg/metadata"
	"github.com/georgaylor/vectordb/pkg/vector"
)

// magic tags the start of a serialized collection so Load can reject
// garbage input early, before trusting any length-prefixed field.
const magic uint32 = 0x56444231 // "VDB1"

const formatVersion uint32 = 1

// Sanity bounds applied to every count read back from a blob before it's
// used to size an allocation, so a truncated or adversarial blob fails
// fast with an error instead of attempting a multi-gigabyte allocation.
const (
	maxSaneDimension   = 10000
	maxSaneRecordCount = 100_000_000
	maxSaneArity       = 4096
	maxSaneUpperLayers = 64
	maxSaneMetadataLen = 10 << 20 // 10 MiB per record
)

// Save serializes the collection (dimension, distance kernel, graph arity
// M, relevancy threshold, ML, slot table, records, and graph) as a single
// opaque byte blob; EfConstruction and EfSearch are not saved. The format is internal and not
// meant for cross-version compatibility beyond formatVersion.
func (c *Collection) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var buf bytes.Buffer
	header := []uint32{magic, formatVersion, uint32(c.dimension), uint32(c.distance), uint32(c.graph.M), uint32(len(c.slots))}
	for _, v := range header {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("collection: write header: %w", err)
		}
	}
	if err := binary.Write(&buf, binary.LittleEndian, math.Float32bits(c.relevancy)); err != nil {
		return fmt.Errorf("collection: write relevancy: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, math.Float64bits(c.config.ML)); err != nil {
		return fmt.Errorf("collection: write ml: %w", err)
	}

	for _, id := range c.slots {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(id)); err != nil {
			return fmt.Errorf("collection: write slot: %w", err)
		}
	}

	for _, rec := range c.data {
		if err := writeVector(&buf, rec.Vector); err != nil {
			return err
		}
		if err := writeMetadata(&buf, rec.Metadata); err != nil {
			return err
		}
	}

	if err := writeGraph(&buf, c.graph); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Load replaces the collection's contents with a blob previously
// produced by Save. The collection's EfConstruction, EfSearch, logger and
// metrics are kept; everything Save captured is restored, including the
// graph arity M, which replaces the one the collection was created with.
func (c *Collection) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("collection: read: %w", err)
	}
	buf := bytes.NewReader(data)

	var m, version, dimension, distance, gm, slotCount uint32
	for _, field := range []*uint32{&m, &version, &dimension, &distance, &gm, &slotCount} {
		if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("collection: read header: %w", err)
		}
	}
	if m != magic {
		return fmt.Errorf("collection: bad magic %x", m)
	}
	if version != formatVersion {
		return fmt.Errorf("collection: unsupported format version %d", version)
	}
	if dimension > maxSaneDimension {
		return fmt.Errorf("collection: dimension %d exceeds sane bound %d", dimension, maxSaneDimension)
	}
	if gm == 0 || gm > maxSaneArity {
		return fmt.Errorf("collection: graph arity %d outside sane bound (1, %d]", gm, maxSaneArity)
	}
	if slotCount > maxSaneRecordCount {
		return fmt.Errorf("collection: slot count %d exceeds sane bound %d", slotCount, maxSaneRecordCount)
	}

	var relevancyBits uint32
	if err := binary.Read(buf, binary.LittleEndian, &relevancyBits); err != nil {
		return fmt.Errorf("collection: read relevancy: %w", err)
	}
	var mlBits uint64
	if err := binary.Read(buf, binary.LittleEndian, &mlBits); err != nil {
		return fmt.Errorf("collection: read ml: %w", err)
	}

	slots := make(vector.Slots, slotCount)
	for i := range slots {
		var id uint32
		if err := binary.Read(buf, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("collection: read slot %d: %w", i, err)
		}
		slots[i] = vector.ID(id)
	}

	records := make([]Record, slotCount)
	for i := range records {
		v, err := readVector(buf, int(dimension))
		if err != nil {
			return fmt.Errorf("collection: read vector %d: %w", i, err)
		}
		md, err := readMetadata(buf)
		if err != nil {
			return fmt.Errorf("collection: read metadata %d: %w", i, err)
		}
		records[i] = Record{ID: vector.ID(i), Vector: v, Metadata: md}
	}

	g, err := readGraph(buf, int(gm))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dimension = int(dimension)
	distKernel, dErr := vector.DistanceFrom(vector.Distance(distance).String())
	if dErr != nil {
		return fmt.Errorf("collection: bad distance kernel %d", distance)
	}
	c.distance = distKernel
	c.config.Distance = distKernel.String()
	c.relevancy = math.Float32frombits(relevancyBits)
	c.config.ML = math.Float64frombits(mlBits)
	c.slots = slots
	c.data = records
	c.graph = g
	return nil
}

func writeVector(buf *bytes.Buffer, v vector.Vector) error {
	for _, f := range v {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("collection: write vector component: %w", err)
		}
	}
	return nil
}

func readVector(r io.Reader, dim int) (vector.Vector, error) {
	v := make(vector.Vector, dim)
	for i := range v {
		if err := binary.Read(r, binary.LittleEndian, &v[i]); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func writeMetadata(buf *bytes.Buffer, m metadata.Value) error {
	payload, err := proto.Marshal(m.Proto())
	if err != nil {
		return fmt.Errorf("collection: marshal metadata: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("collection: write metadata length: %w", err)
	}
	_, err = buf.Write(payload)
	return err
}

func readMetadata(r *bytes.Reader) (metadata.Value, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return metadata.Value{}, err
	}
	if n > maxSaneMetadataLen {
		return metadata.Value{}, fmt.Errorf("collection: metadata length %d exceeds sane bound %d", n, maxSaneMetadataLen)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return metadata.Value{}, err
	}
	var pb structpb.Value
	if err := proto.Unmarshal(payload, &pb); err != nil {
		return metadata.Value{}, fmt.Errorf("collection: unmarshal metadata: %w", err)
	}
	return metadata.FromProto(&pb), nil
}

func writeGraph(buf *bytes.Buffer, g *graph.Graph) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(g.Len())); err != nil {
		return fmt.Errorf("collection: write graph node count: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(g.Upper))); err != nil {
		return fmt.Errorf("collection: write upper layer count: %w", err)
	}
	for i := range g.Base {
		n := g.Base[i]
		if err := writeNeighbors(buf, n.Neighbors()); err != nil {
			return err
		}
	}
	for l := range g.Upper {
		for i := range g.Upper[l] {
			n := g.Upper[l][i]
			if err := writeNeighbors(buf, n.Neighbors()); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeNeighbors(buf *bytes.Buffer, neighbors []vector.ID) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(neighbors))); err != nil {
		return fmt.Errorf("collection: write neighbor count: %w", err)
	}
	for _, id := range neighbors {
		if err := binary.Write(buf, binary.LittleEndian, uint32(id)); err != nil {
			return fmt.Errorf("collection: write neighbor: %w", err)
		}
	}
	return nil
}

func readGraph(r *bytes.Reader, m int) (*graph.Graph, error) {
	var nodeCount, upperCount uint32
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return nil, fmt.Errorf("collection: read graph node count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &upperCount); err != nil {
		return nil, fmt.Errorf("collection: read upper layer count: %w", err)
	}
	if nodeCount > maxSaneRecordCount {
		return nil, fmt.Errorf("collection: graph node count %d exceeds sane bound %d", nodeCount, maxSaneRecordCount)
	}
	if upperCount > maxSaneUpperLayers {
		return nil, fmt.Errorf("collection: upper layer count %d exceeds sane bound %d", upperCount, maxSaneUpperLayers)
	}

	g := graph.New(m)
	g.Base = make([]graph.BaseNode, nodeCount)
	for i := range g.Base {
		n := graph.NewBaseNode(m)
		neighbors, err := readNeighbors(r, 2*m)
		if err != nil {
			return nil, fmt.Errorf("collection: read base neighbors %d: %w", i, err)
		}
		if err := n.Restore(neighbors); err != nil {
			return nil, fmt.Errorf("collection: restore base node %d: %w", i, err)
		}
		g.Base[i] = n
	}

	g.Upper = make([][]graph.UpperNode, upperCount)
	for l := range g.Upper {
		g.Upper[l] = make([]graph.UpperNode, nodeCount)
		for i := range g.Upper[l] {
			n := graph.NewUpperNode(m)
			neighbors, err := readNeighbors(r, m)
			if err != nil {
				return nil, fmt.Errorf("collection: read upper neighbors layer %d node %d: %w", l, i, err)
			}
			if err := n.Restore(neighbors); err != nil {
				return nil, fmt.Errorf("collection: restore upper node layer %d node %d: %w", l, i, err)
			}
			g.Upper[l][i] = n
		}
	}
	return g, nil
}

// readNeighbors reads a length-prefixed neighbor list, rejecting a
// count above maxCap (the node's own neighbor capacity) before
// allocating, so a corrupted count can't drive an oversized allocation.
func readNeighbors(r *bytes.Reader, maxCap int) ([]vector.ID, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if int(n) > maxCap {
		return nil, fmt.Errorf("collection: neighbor count %d exceeds node capacity %d", n, maxCap)
	}
	out := make([]vector.ID, n)
	for i := range out {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		out[i] = vector.ID(id)
	}
	return out, nil
}
