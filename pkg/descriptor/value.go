// Typed wire values.
package descriptor

import "fmt"

// Kind identifies the wire type carried by a Value.
type Kind uint8

// Value kinds understood by the remote protocol.
const (
	KindString Kind = iota + 1
	KindBoolean
	KindInteger
	KindDouble
	KindUnitDouble
	KindEnumerated
	KindObject
	KindList
	KindReference
	KindPath
	KindAlias
	KindClass
)

var kindNames = map[Kind]string{
	KindString:     "string",
	KindBoolean:    "boolean",
	KindInteger:    "integer",
	KindDouble:     "double",
	KindUnitDouble: "unitDouble",
	KindEnumerated: "enumerated",
	KindObject:     "object",
	KindList:       "list",
	KindReference:  "reference",
	KindPath:       "path",
	KindAlias:      "alias",
	KindClass:      "class",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Units attached to unit-double values.
const (
	UnitPercent  = "percentUnit"
	UnitPixels   = "pixelsUnit"
	UnitAngle    = "angleUnit"
	UnitDensity  = "densityUnit"
	UnitDistance = "distanceUnit"
)

// Value is a single tagged wire value. Only the fields relevant to Kind are
// meaningful.
type Value struct {
	Kind     Kind
	Str      string
	Bool     bool
	Int      int64
	Float    float64
	Unit     string
	EnumType string
	Object   *Descriptor
	List     []Value
	Ref      *Reference
}

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Double returns a double value.
func Double(f float64) Value { return Value{Kind: KindDouble, Float: f} }

// UnitDouble returns a double tagged with a unit.
func UnitDouble(unit string, f float64) Value {
	return Value{Kind: KindUnitDouble, Unit: unit, Float: f}
}

// Enum returns an enumerated value of the given enumeration type.
func Enum(enumType, value string) Value {
	return Value{Kind: KindEnumerated, EnumType: enumType, Str: value}
}

// Object wraps a nested descriptor.
func Object(d *Descriptor) Value { return Value{Kind: KindObject, Object: d} }

// ListOf returns a list value holding vals in order.
func ListOf(vals ...Value) Value {
	list := make([]Value, len(vals))
	copy(list, vals)
	return Value{Kind: KindList, List: list}
}

// Ref wraps an address reference.
func Ref(r *Reference) Value { return Value{Kind: KindReference, Ref: r} }

// Path returns a file path value.
func Path(p string) Value { return Value{Kind: KindPath, Str: p} }

// Alias returns a link (alias) value pointing at a file.
func Alias(p string) Value { return Value{Kind: KindAlias, Str: p} }

// Class returns a class id value.
func Class(c string) Value { return Value{Kind: KindClass, Str: c} }

// Number returns the numeric content of integer, double and unit-double
// values.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindDouble, KindUnitDouble:
		return v.Float, true
	}
	return 0, false
}

// Native converts a value to its plain Go form: string, bool, int64,
// float64, *Descriptor, []any or *Reference. Enumerations yield their wire
// value string.
func Native(v Value) any {
	switch v.Kind {
	case KindString, KindPath, KindAlias, KindClass, KindEnumerated:
		return v.Str
	case KindBoolean:
		return v.Bool
	case KindInteger:
		return v.Int
	case KindDouble, KindUnitDouble:
		return v.Float
	case KindObject:
		return v.Object
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = Native(item)
		}
		return out
	case KindReference:
		return v.Ref
	}
	return nil
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	if v.Object != nil {
		out.Object = v.Object.Clone()
	}
	if v.List != nil {
		out.List = make([]Value, len(v.List))
		for i, item := range v.List {
			out.List[i] = item.Clone()
		}
	}
	if v.Ref != nil {
		out.Ref = v.Ref.Clone()
	}
	return out
}
