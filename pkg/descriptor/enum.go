// Closed enumeration tables.
package descriptor

import (
	"fmt"
	"sort"
)

// EnumTable maps a closed set of native tags to the wire values of one
// enumeration type. Tables are immutable after construction.
type EnumTable[T ~string] struct {
	enumType string
	toWire   map[T]string
	fromWire map[string]T
}

// NewEnumTable builds a table for enumType from native -> wire pairs.
// It panics if two native tags share a wire value.
func NewEnumTable[T ~string](enumType string, pairs map[T]string) *EnumTable[T] {
	t := &EnumTable[T]{
		enumType: enumType,
		toWire:   make(map[T]string, len(pairs)),
		fromWire: make(map[string]T, len(pairs)),
	}
	for native, wire := range pairs {
		if prev, dup := t.fromWire[wire]; dup {
			panic(fmt.Sprintf("descriptor: enum %s: %q and %q share wire value %q", enumType, prev, native, wire))
		}
		t.toWire[native] = wire
		t.fromWire[wire] = native
	}
	return t
}

// Type returns the wire enumeration type.
func (t *EnumTable[T]) Type() string { return t.enumType }

// Wire returns the wire value for native.
func (t *EnumTable[T]) Wire(native T) (string, error) {
	wire, ok := t.toWire[native]
	if !ok {
		return "", fmt.Errorf("%w: %s %q", ErrUnknownEnumerationValue, t.enumType, string(native))
	}
	return wire, nil
}

// Native returns the native tag for a wire value.
func (t *EnumTable[T]) Native(wire string) (T, error) {
	native, ok := t.fromWire[wire]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownEnumerationValue, t.enumType, wire)
	}
	return native, nil
}

// Encode returns the enumerated wire value for native.
func (t *EnumTable[T]) Encode(native T) (Value, error) {
	wire, err := t.Wire(native)
	if err != nil {
		return Value{}, err
	}
	return Enum(t.enumType, wire), nil
}

// Decode returns the native tag carried by an enumerated value. The value's
// enumeration type is not checked because hosts report some enumerations
// under more than one type id.
func (t *EnumTable[T]) Decode(val Value) (T, error) {
	if val.Kind != KindEnumerated {
		var zero T
		return zero, fmt.Errorf("%w: %s is %s, want enumerated", ErrWrongType, t.enumType, val.Kind)
	}
	return t.Native(val.Str)
}

// Values returns the native tags in sorted order.
func (t *EnumTable[T]) Values() []T {
	out := make([]T, 0, len(t.toWire))
	for native := range t.toWire {
		out = append(out, native)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
