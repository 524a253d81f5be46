// Package metadata wraps the small tagged union of JSON-like values a
// record may carry alongside its vector: null, number, string, bool,
// list, and nested struct. It's built directly on
// google.golang.org/protobuf's structpb.Value rather than a hand-rolled
// sum type, which gets deep-copy (proto.Clone) and JSON interop for
// free.
package metadata

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Value is a single metadata value attached to a record.
type Value struct {
	v *structpb.Value
}

// None returns the null metadata value.
func None() Value { return Value{v: structpb.NewNullValue()} }

// FromFloat wraps a numeric value.
func FromFloat(f float64) Value { return Value{v: structpb.NewNumberValue(f)} }

// FromInt wraps an integer value as a number.
func FromInt(i int64) Value { return Value{v: structpb.NewNumberValue(float64(i))} }

// FromString wraps a string value.
func FromString(s string) Value { return Value{v: structpb.NewStringValue(s)} }

// FromBool wraps a boolean value.
func FromBool(b bool) Value { return Value{v: structpb.NewBoolValue(b)} }

// FromSlice wraps a list of already-constructed Values.
func FromSlice(items []Value) (Value, error) {
	vals := make([]*structpb.Value, len(items))
	for i, it := range items {
		vals[i] = it.v
	}
	return Value{v: structpb.NewListValue(&structpb.ListValue{Values: vals})}, nil
}

// FromMap wraps a string-keyed struct of Values.
func FromMap(fields map[string]Value) (Value, error) {
	pbFields := make(map[string]*structpb.Value, len(fields))
	for k, v := range fields {
		pbFields[k] = v.v
	}
	s, err := structpb.NewStruct(nil)
	if err != nil {
		return Value{}, err
	}
	s.Fields = pbFields
	return Value{v: structpb.NewStructValue(s)}, nil
}

// FromProto wraps an already-built structpb.Value, e.g. one decoded from
// a persisted collection.
func FromProto(v *structpb.Value) Value {
	if v == nil {
		return None()
	}
	return Value{v: v}
}

// Proto returns the underlying structpb.Value, for persistence and
// interop; callers must not mutate it.
func (m Value) Proto() *structpb.Value { return m.v }

// IsNull reports whether this is the null value (or the zero Value).
func (m Value) IsNull() bool {
	if m.v == nil || m.v.GetKind() == nil {
		return true
	}
	_, isNull := m.v.GetKind().(*structpb.Value_NullValue)
	return isNull
}

// Clone returns a deep, independent copy, used whenever a Record crosses
// the Collection boundary (spec I6: callers must never be able to
// mutate a stored record through a returned reference).
func (m Value) Clone() Value {
	if m.v == nil {
		return None()
	}
	return Value{v: proto.Clone(m.v).(*structpb.Value)}
}
