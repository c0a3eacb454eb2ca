// Tests for the native/wire codec and enumeration tables.
package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent_ExactHundredthsRoundTrip(t *testing.T) {
	for n := 0; n <= 10000; n++ {
		p := float64(n) / 100
		got := PercentFromWire(PercentToWire(p))
		if got != p {
			t.Fatalf("percent %v round-tripped to %v", p, got)
		}
	}
}

func TestPercent_OtherValuesWithinPrecision(t *testing.T) {
	for _, p := range []float64{33.333, 12.3456, 0.001, 99.9999} {
		got := PercentFromWire(PercentToWire(p))
		assert.InDelta(t, p, got, 1e-9, "percent %v", p)
	}
}

func TestPercent_NoSnapBeyondRounding(t *testing.T) {
	assert.Equal(t, 50.0, PercentFromWire(0.5))
	got := PercentFromWire(0.5 + 1e-12)
	assert.NotEqual(t, 50.0, got)
	assert.InDelta(t, 50.0000000001, got, 1e-12)
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		native any
		wire   WireType
		want   Value
		back   any
	}{
		{"string", "Sky", WireString, String("Sky"), "Sky"},
		{"boolean", true, WireBoolean, Bool(true), true},
		{"integer from int", 7, WireInteger, Int(7), int64(7)},
		{"double", 1.5, WireDouble, Double(1.5), 1.5},
		{"percent", 40.0, WirePercent, UnitDouble(UnitPercent, 0.4), 40.0},
		{"pixels", 3.0, WirePixels, UnitDouble(UnitPixels, 3), 3.0},
		{"enumerated", Enumeration{Type: "blendMode", Value: "screen"}, WireEnumerated, Enum("blendMode", "screen"), Enumeration{Type: "blendMode", Value: "screen"}},
		{"path", "/a/b.psb", WirePath, Path("/a/b.psb"), "/a/b.psb"},
		{"alias", "/a/b.psb", WireAlias, Alias("/a/b.psb"), "/a/b.psb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.native, tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := Decode(got, tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.back, back)
		})
	}
}

func TestEncode_WrongNativeType(t *testing.T) {
	_, err := Encode("ten", WireInteger)
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = Encode(1.5, WireInteger)
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = Encode(1, WireType(200))
	assert.ErrorIs(t, err, ErrUnknownWireType)
}

func TestDecode_WrongWireKind(t *testing.T) {
	_, err := Decode(String("x"), WireBoolean)
	assert.ErrorIs(t, err, ErrWrongType)
}

type fruit string

func TestEnumTable(t *testing.T) {
	table := NewEnumTable("fruitType", map[fruit]string{
		"apple": "appleFruit",
		"pear":  "pearFruit",
	})

	v, err := table.Encode("apple")
	require.NoError(t, err)
	assert.Equal(t, Enum("fruitType", "appleFruit"), v)

	native, err := table.Decode(Enum("otherType", "pearFruit"))
	require.NoError(t, err)
	assert.Equal(t, fruit("pear"), native)

	_, err = table.Decode(Enum("fruitType", "plumFruit"))
	assert.ErrorIs(t, err, ErrUnknownEnumerationValue)

	_, err = table.Encode("plum")
	assert.ErrorIs(t, err, ErrUnknownEnumerationValue)

	_, err = table.Decode(String("appleFruit"))
	assert.ErrorIs(t, err, ErrWrongType)

	assert.Equal(t, []fruit{"apple", "pear"}, table.Values())
}

func TestEnumTable_DuplicateWirePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewEnumTable("t", map[fruit]string{"a": "x", "b": "x"})
	})
}

func TestNative(t *testing.T) {
	assert.Equal(t, "screen", Native(Enum("blendMode", "screen")))
	assert.Equal(t, int64(3), Native(Int(3)))
	assert.Equal(t, 0.5, Native(UnitDouble(UnitPercent, 0.5)))
	assert.Equal(t, []any{true, "a"}, Native(ListOf(Bool(true), String("a"))))
}
