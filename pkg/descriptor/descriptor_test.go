// Tests for descriptors, references and JSON rendering.
package descriptor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_PutKeepsInsertionOrder(t *testing.T) {
	d := New("layer")
	d.PutString("name", "Sky")
	d.PutBool("visible", true)
	d.PutInt("layerID", 7)
	d.PutString("name", "Ground")

	assert.Equal(t, []string{"name", "visible", "layerID"}, d.Keys())
	name, err := d.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Ground", name)
}

func TestDescriptor_Delete(t *testing.T) {
	d := New("")
	d.PutInt("a", 1)
	d.PutInt("b", 2)
	d.PutInt("c", 3)
	d.Delete("b")
	d.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, d.Keys())
	assert.False(t, d.Has("b"))
	assert.Equal(t, 2, d.Len())
}

func TestDescriptor_TypedGetters(t *testing.T) {
	inner := New("rectangle")
	inner.PutUnitDouble("top", UnitPixels, 4)

	d := New("layer")
	d.PutString("name", "Sky")
	d.PutUnitDouble("opacity", UnitPercent, 0.5)
	d.PutEnum("mode", "blendMode", "multiply")
	d.PutObject("bounds", inner)
	d.Put("link", Alias("/tmp/a.psb"))
	d.Put("targets", ListOf(Int(1), Int(2)))

	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "number accepts unit doubles",
			check: func(t *testing.T) {
				f, err := d.GetNumber("opacity")
				require.NoError(t, err)
				assert.Equal(t, 0.5, f)
			},
		},
		{
			name: "enum returns type and value",
			check: func(t *testing.T) {
				typ, val, err := d.GetEnum("mode")
				require.NoError(t, err)
				assert.Equal(t, "blendMode", typ)
				assert.Equal(t, "multiply", val)
			},
		},
		{
			name: "object returns nested descriptor",
			check: func(t *testing.T) {
				o, err := d.GetObject("bounds")
				require.NoError(t, err)
				assert.Equal(t, "rectangle", o.Class)
			},
		},
		{
			name: "path accepts alias",
			check: func(t *testing.T) {
				p, err := d.GetPath("link")
				require.NoError(t, err)
				assert.Equal(t, "/tmp/a.psb", p)
			},
		},
		{
			name: "list",
			check: func(t *testing.T) {
				l, err := d.GetList("targets")
				require.NoError(t, err)
				assert.Len(t, l, 2)
			},
		},
		{
			name: "missing key",
			check: func(t *testing.T) {
				_, err := d.GetString("nope")
				assert.ErrorIs(t, err, ErrKeyNotFound)
			},
		},
		{
			name: "wrong type",
			check: func(t *testing.T) {
				_, err := d.GetBool("name")
				assert.ErrorIs(t, err, ErrWrongType)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, tt.check)
	}
}

func TestDescriptor_CloneIsDeep(t *testing.T) {
	inner := New("rectangle")
	inner.PutDouble("top", 1)
	d := New("layer")
	d.PutObject("bounds", inner)

	c := d.Clone()
	inner.PutDouble("top", 99)

	o, err := c.GetObject("bounds")
	require.NoError(t, err)
	top, err := o.GetNumber("top")
	require.NoError(t, err)
	assert.Equal(t, 1.0, top)
}

func TestNilDescriptorIsEmpty(t *testing.T) {
	var d *Descriptor
	assert.False(t, d.Has("x"))
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Keys())
}

func TestReference_FindAndPropertyKey(t *testing.T) {
	ref := NewReference(
		PropertyElement("property", "opacity"),
		IDElement("layer", 12),
		EnumElement("document", "ordinal", "targetEnum"),
	)

	key, ok := ref.PropertyKey("property")
	assert.True(t, ok)
	assert.Equal(t, "opacity", key)

	layer, ok := ref.Find("layer")
	require.True(t, ok)
	assert.Equal(t, IDElement("layer", 12), layer)

	_, ok = ref.Find("channel")
	assert.False(t, ok)
	assert.Equal(t, "property.opacity of layer#12 of document(ordinal.targetEnum)", ref.String())
}

func TestMarshalJSON(t *testing.T) {
	d := New("layer")
	d.PutString("name", "Sky")
	d.PutUnitDouble("opacity", UnitPercent, 0.25)
	d.PutEnum("mode", "blendMode", "screen")
	d.PutReference("null", NewReference(IDElement("layer", 3)))

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"_obj": "layer",
		"name": "Sky",
		"opacity": {"_unit": "percentUnit", "_value": 0.25},
		"mode": {"_enum": "blendMode", "_value": "screen"},
		"null": [{"_ref": "layer", "_id": 3}]
	}`, string(b))
}
