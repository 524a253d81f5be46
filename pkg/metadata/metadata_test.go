package metadata

import "testing"

func TestNoneIsNull(t *testing.T) {
	if !None().IsNull() {
		t.Fatal("None() should be null")
	}
	if !(Value{}).IsNull() {
		t.Fatal("zero Value should be null")
	}
}

func TestFromStringRoundTrips(t *testing.T) {
	v := FromString("hello")
	if v.IsNull() {
		t.Fatal("string value should not be null")
	}
	if got := v.Proto().GetStringValue(); got != "hello" {
		t.Fatalf("GetStringValue() = %q, want %q", got, "hello")
	}
}

func TestFromMapRoundTrips(t *testing.T) {
	m, err := FromMap(map[string]Value{
		"name": FromString("alice"),
		"age":  FromInt(30),
	})
	if err != nil {
		t.Fatalf("FromMap error: %v", err)
	}
	fields := m.Proto().GetStructValue().GetFields()
	if fields["name"].GetStringValue() != "alice" {
		t.Fatalf("name = %v, want alice", fields["name"])
	}
	if fields["age"].GetNumberValue() != 30 {
		t.Fatalf("age = %v, want 30", fields["age"])
	}
}

func TestFromSliceRoundTrips(t *testing.T) {
	s, err := FromSlice([]Value{FromInt(1), FromInt(2), FromInt(3)})
	if err != nil {
		t.Fatalf("FromSlice error: %v", err)
	}
	values := s.Proto().GetListValue().GetValues()
	if len(values) != 3 {
		t.Fatalf("len(values) = %d, want 3", len(values))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m, _ := FromMap(map[string]Value{"x": FromInt(1)})
	clone := m.Clone()
	clone.Proto().GetStructValue().Fields["x"] = FromInt(99).Proto()

	if got := m.Proto().GetStructValue().GetFields()["x"].GetNumberValue(); got != 1 {
		t.Fatalf("mutating the clone mutated the original: x = %v", got)
	}
}
