// Native/wire conversion.
package descriptor

import (
	"fmt"
	"math"
)

// WireType names the wire representation a native value is encoded to.
type WireType uint8

// Wire types supported by Encode and Decode.
const (
	WireString WireType = iota + 1
	WireBoolean
	WireInteger
	WireDouble
	WirePercent
	WirePixels
	WireEnumerated
	WireObject
	WireList
	WirePath
	WireAlias
)

var wireTypeNames = map[WireType]string{
	WireString:     "string",
	WireBoolean:    "boolean",
	WireInteger:    "integer",
	WireDouble:     "double",
	WirePercent:    "percent",
	WirePixels:     "pixels",
	WireEnumerated: "enumerated",
	WireObject:     "object",
	WireList:       "list",
	WirePath:       "path",
	WireAlias:      "alias",
}

func (w WireType) String() string {
	if name, ok := wireTypeNames[w]; ok {
		return name
	}
	return fmt.Sprintf("wire(%d)", uint8(w))
}

// Enumeration is the native form of a WireEnumerated value.
type Enumeration struct {
	Type  string
	Value string
}

// PercentToWire converts a 0-100 percentage to the remote 0-1 fraction.
func PercentToWire(p float64) float64 {
	return p / 100
}

// PercentFromWire converts a remote 0-1 fraction back to a 0-100 percentage.
// A product at most snapULPs units in the last place away from a multiple of
// 1/100 is snapped to it, so p == PercentFromWire(PercentToWire(p)) holds
// exactly for those. Anything further away is returned unrounded.
func PercentFromWire(f float64) float64 {
	v := f * 100
	snapped := math.Round(v*100) / 100
	if math.Abs(v-snapped) <= snapULPs*ulp(v) {
		return snapped
	}
	return v
}

// snapULPs covers the rounding of one division and one multiplication plus
// the rounding of the snapped value itself.
const snapULPs = 4

func ulp(v float64) float64 {
	v = math.Abs(v)
	return math.Nextafter(v, math.Inf(1)) - v
}

// Encode converts a native value to its wire form.
func Encode(v any, wt WireType) (Value, error) {
	switch wt {
	case WireString:
		s, ok := v.(string)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return String(s), nil
	case WireBoolean:
		b, ok := v.(bool)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Bool(b), nil
	case WireInteger:
		i, ok := toInt(v)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Int(i), nil
	case WireDouble:
		f, ok := toFloat(v)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Double(f), nil
	case WirePercent:
		f, ok := toFloat(v)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return UnitDouble(UnitPercent, PercentToWire(f)), nil
	case WirePixels:
		f, ok := toFloat(v)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return UnitDouble(UnitPixels, f), nil
	case WireEnumerated:
		e, ok := v.(Enumeration)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Enum(e.Type, e.Value), nil
	case WireObject:
		d, ok := v.(*Descriptor)
		if !ok || d == nil {
			return Value{}, encodeErr(v, wt)
		}
		return Object(d), nil
	case WireList:
		list, ok := v.([]Value)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return ListOf(list...), nil
	case WirePath:
		s, ok := v.(string)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Path(s), nil
	case WireAlias:
		s, ok := v.(string)
		if !ok {
			return Value{}, encodeErr(v, wt)
		}
		return Alias(s), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnknownWireType, wt)
}

// Decode converts a wire value to its native form for wt. Percentages decode
// to 0-100, pixels to float64, enumerations to Enumeration.
func Decode(val Value, wt WireType) (any, error) {
	switch wt {
	case WireString:
		if val.Kind != KindString {
			return nil, decodeErr(val, wt)
		}
		return val.Str, nil
	case WireBoolean:
		if val.Kind != KindBoolean {
			return nil, decodeErr(val, wt)
		}
		return val.Bool, nil
	case WireInteger:
		if val.Kind != KindInteger {
			return nil, decodeErr(val, wt)
		}
		return val.Int, nil
	case WireDouble, WirePixels:
		f, ok := val.Number()
		if !ok {
			return nil, decodeErr(val, wt)
		}
		return f, nil
	case WirePercent:
		f, ok := val.Number()
		if !ok {
			return nil, decodeErr(val, wt)
		}
		return PercentFromWire(f), nil
	case WireEnumerated:
		if val.Kind != KindEnumerated {
			return nil, decodeErr(val, wt)
		}
		return Enumeration{Type: val.EnumType, Value: val.Str}, nil
	case WireObject:
		if val.Kind != KindObject || val.Object == nil {
			return nil, decodeErr(val, wt)
		}
		return val.Object, nil
	case WireList:
		if val.Kind != KindList {
			return nil, decodeErr(val, wt)
		}
		return val.List, nil
	case WirePath, WireAlias:
		if val.Kind != KindPath && val.Kind != KindAlias {
			return nil, decodeErr(val, wt)
		}
		return val.Str, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownWireType, wt)
}

func encodeErr(v any, wt WireType) error {
	return fmt.Errorf("%w: cannot encode %T as %s", ErrWrongType, v, wt)
}

func decodeErr(val Value, wt WireType) error {
	return fmt.Errorf("%w: cannot decode %s as %s", ErrWrongType, val.Kind, wt)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
