package collection

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/georgaylor/vectordb/pkg/metadata"
	"github.com/georgaylor/vectordb/pkg/vector"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c := newTestCollection(t)
	records := randomRecords(80, 5, 42)
	ids, err := c.Build(records)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	c.SetRelevancy(0.5)

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	restored, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if restored.Len() != c.Len() {
		t.Fatalf("restored Len() = %d, want %d", restored.Len(), c.Len())
	}
	if restored.Dimension() != c.Dimension() {
		t.Fatalf("restored Dimension() = %d, want %d", restored.Dimension(), c.Dimension())
	}

	for _, id := range ids {
		want, err := c.Get(id)
		if err != nil {
			t.Fatalf("Get() on original error: %v", err)
		}
		got, err := restored.Get(id)
		if err != nil {
			t.Fatalf("Get() on restored error: %v", err)
		}
		if !got.Vector.Equal(want.Vector) {
			t.Fatalf("restored record %d vector mismatch", id)
		}
	}

	query := records[10].Vector.Clone()
	results, err := restored.Search(query, 1, 0)
	if err != nil {
		t.Fatalf("Search() on restored error: %v", err)
	}
	if len(results) != 1 || results[0].Record.ID != ids[10] {
		t.Fatalf("Search() on restored graph did not find the exact match")
	}
}

func TestLoadRejectsHugeSlotCount(t *testing.T) {
	var buf bytes.Buffer
	header := []uint32{magic, formatVersion, 4, uint32(vector.Euclidean), 32, maxSaneRecordCount + 1}
	for _, v := range header {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write() error: %v", err)
		}
	}

	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := c.Load(&buf); err == nil {
		t.Fatal("expected Load() to reject a slot count above the sane bound")
	}
}

func TestLoadRejectsHugeNeighborCount(t *testing.T) {
	restored, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Hand-craft a minimal blob: header + zero slots + a graph whose base
	// neighbor count is absurd.
	var bad bytes.Buffer
	hdr := []uint32{magic, formatVersion, 4, uint32(vector.Euclidean), 8, 0}
	for _, v := range hdr {
		if err := binary.Write(&bad, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write() error: %v", err)
		}
	}
	if err := binary.Write(&bad, binary.LittleEndian, uint32(0)); err != nil { // relevancy bits
		t.Fatalf("binary.Write() error: %v", err)
	}
	if err := binary.Write(&bad, binary.LittleEndian, uint64(0)); err != nil { // ml bits
		t.Fatalf("binary.Write() error: %v", err)
	}
	if err := binary.Write(&bad, binary.LittleEndian, uint32(1)); err != nil { // graph node count
		t.Fatalf("binary.Write() error: %v", err)
	}
	if err := binary.Write(&bad, binary.LittleEndian, uint32(0)); err != nil { // upper layer count
		t.Fatalf("binary.Write() error: %v", err)
	}
	if err := binary.Write(&bad, binary.LittleEndian, uint32(maxSaneArity+1)); err != nil { // base neighbor count
		t.Fatalf("binary.Write() error: %v", err)
	}

	if err := restored.Load(&bad); err == nil {
		t.Fatal("expected Load() to reject an out-of-range neighbor count")
	}
}

func TestSaveLoadPreservesMetadata(t *testing.T) {
	c := newTestCollection(t)
	v := vector.Vector{1, 2, 3, 4}
	id, err := c.Insert(v, metadata.FromString("hello"))
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	restored, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got, err := restored.Get(id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Metadata.IsNull() {
		t.Fatal("restored metadata should not be null")
	}
	if got.Metadata.Proto().GetStringValue() != "hello" {
		t.Fatalf("restored metadata = %q, want %q", got.Metadata.Proto().GetStringValue(), "hello")
	}
}
