package hostsim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

func layerRef(id int64) *descriptor.Reference {
	return descriptor.NewReference(descriptor.IDElement("layer", id))
}

func keyRef(key string, target descriptor.RefElement) *descriptor.Reference {
	return descriptor.NewReference(descriptor.PropertyElement("property", key), target)
}

func targetEnum() descriptor.RefElement {
	return descriptor.EnumElement("layer", "ordinal", "targetEnum")
}

// stack returns a document with a background, two layers and a group
// holding a third layer, bottom to top.
func stack() *Document {
	return &Document{
		ID: 1, Width: 400, Height: 300,
		Layers: []*Layer{
			BackgroundLayer(1),
			ContentLayer(2, "Sky"),
			GroupEnd(5),
			ContentLayer(4, "Tree"),
			GroupStart(3, "Group"),
			ContentLayer(6, "Sun"),
		},
		Selected: []int64{6},
	}
}

func TestQuery_BackgroundOnlyReportsIDZero(t *testing.T) {
	h := New(&Document{ID: 1, Layers: []*Layer{BackgroundLayer(9)}})

	d, err := h.Query(keyRef("layerID", targetEnum()))
	require.NoError(t, err)
	id, err := d.GetInt("layerID")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	doc, err := h.Query(descriptor.NewReference(descriptor.EnumElement("document", "ordinal", "targetEnum")))
	require.NoError(t, err)
	n, err := doc.GetInt("numberOfLayers")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = h.Query(layerRef(0))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestQuery_IndexCountsFromBackground(t *testing.T) {
	h := New(stack())

	d, err := h.Query(keyRef("name", descriptor.IndexElement("layer", 1)))
	require.NoError(t, err)
	name, err := d.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Sky", name)

	d, err = h.Query(keyRef("itemIndex", descriptor.IDElement("layer", 4)))
	require.NoError(t, err)
	idx, err := d.GetInt("itemIndex")
	require.NoError(t, err)
	assert.Equal(t, int64(4), idx)
}

func TestQuery_PropertyFilterDropsOtherKeys(t *testing.T) {
	h := New(stack())

	d, err := h.Query(keyRef("smartObject", descriptor.IDElement("layer", 2)))
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	d, err = h.Query(keyRef("visible", descriptor.IDElement("layer", 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"visible"}, d.Keys())
}

func TestSubmit_OpacityRejectedOnHiddenLayer(t *testing.T) {
	doc := stack()
	doc.Layers[1].Visible = false
	h := New(doc)

	to := descriptor.New("layer")
	to.PutUnitDouble("opacity", descriptor.UnitPercent, 0.5)
	payload := descriptor.New("")
	payload.PutReference("null", layerRef(2))
	payload.PutObject("to", to)

	_, err := h.Submit("set", payload)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, 100.0, doc.Layers[1].Opacity)

	doc.Layers[1].Visible = true
	_, err = h.Submit("set", payload)
	require.NoError(t, err)
	assert.Equal(t, 50.0, doc.Layers[1].Opacity)
}

func TestSubmit_MoveRejectsBackgroundAndBelowBackground(t *testing.T) {
	doc := stack()
	h := New(doc)

	move := func(src *descriptor.Reference, to descriptor.RefElement) error {
		p := descriptor.New("")
		p.PutReference("null", src)
		p.PutReference("to", descriptor.NewReference(to))
		_, err := h.Submit("move", p)
		return err
	}

	err := move(layerRef(1), descriptor.IndexElement("layer", 3))
	assert.ErrorIs(t, err, ErrRejected)
	err = move(layerRef(6), descriptor.PropertyElement("layer", "background"))
	assert.ErrorIs(t, err, ErrRejected)

	require.NoError(t, move(layerRef(6), descriptor.IndexElement("layer", 1)))
	assert.Equal(t, int64(6), doc.Layers[1].ID)
	assert.Equal(t, int64(2), doc.Layers[2].ID)
}

func TestSubmit_MakeGroupFromSelection(t *testing.T) {
	doc := stack()
	doc.Selected = []int64{2, 6}
	h := New(doc)

	p := descriptor.New("")
	p.PutReference("null", descriptor.NewReference(descriptor.ClassElement("layerSection")))
	p.PutReference("from", descriptor.NewReference(targetEnum()))
	_, err := h.Submit("make", p)
	require.NoError(t, err)

	var got []types.LayerType
	var ids []int64
	for _, l := range doc.Layers {
		got = append(got, l.Type)
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []types.LayerType{
		types.LayerContent,
		types.LayerGroupEnd, types.LayerContent, types.LayerContent, types.LayerGroupStart,
		types.LayerGroupEnd, types.LayerContent, types.LayerGroupStart,
	}, got)
	assert.Equal(t, []int64{1, 8, 2, 6, 7, 5, 4, 3}, ids)
	assert.Equal(t, []int64{7}, doc.Selected)
}

func TestSubmit_DeleteGroupRemovesChildren(t *testing.T) {
	doc := stack()
	h := New(doc)

	p := descriptor.New("")
	p.PutReference("null", layerRef(3))
	_, err := h.Submit("delete", p)
	require.NoError(t, err)

	require.Len(t, doc.Layers, 3)
	assert.Equal(t, int64(6), doc.Layers[2].ID)
	assert.Equal(t, []int64{6}, doc.Selected)
}

func TestSubmit_RecordsCallsAndInjectsFailures(t *testing.T) {
	h := New(stack())
	h.FailOn("invert", ErrInjected)

	_, err := h.Submit("invert", nil)
	assert.ErrorIs(t, err, ErrInjected)
	_, err = h.Submit("nonexistentCommand", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, []string{"invert", "nonexistentCommand"}, h.Commands())

	h.FailOn("invert", nil)
	_, err = h.Submit("invert", nil)
	require.NoError(t, err)

	h.Reset()
	assert.Empty(t, h.Calls())
}

func TestSubmit_PlaceCentersAssetAtDocumentResolution(t *testing.T) {
	doc := stack()
	h := New(doc)
	h.AddAsset("/art/logo.psb", Asset{Width: 200, Height: 100, Resolution: 144})

	p := descriptor.New("")
	p.Put("null", descriptor.Path("/art/logo.psb"))
	p.PutBool("linked", true)
	_, err := h.Submit("placeEvent", p)
	require.NoError(t, err)

	l, _, err := doc.target()
	require.NoError(t, err)
	assert.Equal(t, "logo", l.Name)
	require.NotNil(t, l.SmartObject)
	assert.Equal(t, "/art/logo.psb", l.SmartObject.Link)
	assert.Equal(t, types.Transform{150, 125, 250, 125, 250, 175, 150, 175}, l.SmartObject.Transform)
	assert.Equal(t, int64(-1), l.SmartObject.Comp)
}

func TestHost_CopyRefusesOverwrite(t *testing.T) {
	h := New(stack())
	h.AddAsset("/a.psb", Asset{Width: 10, Height: 10, Resolution: 72})
	h.AddAsset("/b.psb", Asset{Width: 10, Height: 10, Resolution: 72})

	got, err := h.Copy("/a.psb", "/c.psb")
	require.NoError(t, err)
	assert.Equal(t, "/c.psb", got)
	_, ok := h.Asset("/c.psb")
	assert.True(t, ok)

	_, err = h.Copy("/a.psb", "/b.psb")
	assert.ErrorIs(t, err, ErrAssetExists)
	_, err = h.Copy("/missing.psb", "/d.psb")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	h.FailOn("copy", errors.New("disk full"))
	_, err = h.Copy("/a.psb", "/e.psb")
	assert.EqualError(t, err, "disk full")
}

func TestHost_DocumentContext(t *testing.T) {
	h := New(stack(), &Document{ID: 2, Layers: []*Layer{ContentLayer(1, "Only")}})

	id, err := h.ActiveDocumentID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, h.MakeActiveDocument(2))
	assert.Equal(t, int64(2), h.Active().ID)
	assert.ErrorIs(t, h.MakeActiveDocument(7), ErrNoSuchDocument)
}
