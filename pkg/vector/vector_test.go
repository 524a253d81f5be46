package vector

import "testing"

func TestVectorEqual(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{1, 2, 3}
	c := Vector{1, 2, 4}
	if !a.Equal(b) {
		t.Fatal("expected a == b")
	}
	if a.Equal(c) {
		t.Fatal("expected a != c")
	}
	if a.Equal(Vector{1, 2}) {
		t.Fatal("expected different lengths to be unequal")
	}
}

func TestVectorCloneIsIndependent(t *testing.T) {
	a := Vector{1, 2, 3}
	clone := a.Clone()
	clone[0] = 99
	if a[0] == 99 {
		t.Fatal("mutating the clone mutated the original")
	}
}

func TestVectorHashDeterministic(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{1, 2, 3}
	if a.Hash() != b.Hash() {
		t.Fatal("identical vectors must hash identically")
	}
}

func TestVectorHashDistinguishesComponents(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{1, 2, 4}
	if a.Hash() == b.Hash() {
		t.Fatal("different vectors should (overwhelmingly likely) hash differently")
	}
}

func TestSlotsAppendAndLive(t *testing.T) {
	var s Slots
	ids := s.Append(3)
	if len(ids) != 3 || ids[0] != 0 || ids[2] != 2 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	for _, id := range ids {
		if !s.Live(id) {
			t.Fatalf("id %v should be live", id)
		}
	}
}

func TestSlotsTombstone(t *testing.T) {
	var s Slots
	ids := s.Append(2)
	s.Tombstone(ids[0])
	if s.Live(ids[0]) {
		t.Fatal("tombstoned id should not be live")
	}
	if !s.Live(ids[1]) {
		t.Fatal("other id should remain live")
	}
}

func TestSlotsFirstLive(t *testing.T) {
	var s Slots
	if _, ok := s.FirstLive(); ok {
		t.Fatal("empty slot table should have no live id")
	}
	ids := s.Append(3)
	s.Tombstone(ids[0])
	first, ok := s.FirstLive()
	if !ok || first != ids[1] {
		t.Fatalf("FirstLive() = %v, %v; want %v, true", first, ok, ids[1])
	}
}
