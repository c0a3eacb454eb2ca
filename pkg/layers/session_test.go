package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/internal/hostsim"
	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// newSession returns a session over an in-memory host holding docs.
func newSession(t *testing.T, docs ...*hostsim.Document) (*Session, *hostsim.Host) {
	t.Helper()
	h := hostsim.New(docs...)
	return New(h, WithDocuments(h), WithFileCopier(h)), h
}

// backgroundOnly is a document whose only layer is the background.
func backgroundOnly() *hostsim.Document {
	return &hostsim.Document{
		ID: 1, Width: 640, Height: 480,
		Layers: []*hostsim.Layer{hostsim.BackgroundLayer(1)},
	}
}

// withBackground is a background under three layers, the top one active.
func withBackground() *hostsim.Document {
	return &hostsim.Document{
		ID: 1, Width: 640, Height: 480,
		Layers: []*hostsim.Layer{
			hostsim.BackgroundLayer(1),
			hostsim.ContentLayer(2, "Sky"),
			hostsim.ContentLayer(3, "Hills"),
			hostsim.ContentLayer(4, "Sun"),
		},
		Selected: []int64{4},
	}
}

// nested is, top to bottom: A start, B start, X, B end, C, A end.
func nested() *hostsim.Document {
	return &hostsim.Document{
		ID: 1, Width: 640, Height: 480,
		Layers: []*hostsim.Layer{
			hostsim.GroupEnd(11),
			hostsim.ContentLayer(30, "C"),
			hostsim.GroupEnd(21),
			hostsim.ContentLayer(40, "X"),
			hostsim.GroupStart(20, "B"),
			hostsim.GroupStart(10, "A"),
		},
		Selected: []int64{40},
	}
}

func layerOf(t *testing.T, h *hostsim.Host, id int64) *hostsim.Layer {
	t.Helper()
	for _, l := range h.Active().Layers {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("layer %d not in active document", id)
	return nil
}

func TestSession_RemoteFailuresAreWrapped(t *testing.T) {
	s, h := newSession(t, withBackground())
	h.FailOn("get", hostsim.ErrInjected)

	_, err := s.LayerID(Current)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRemote)
	assert.ErrorIs(t, err, hostsim.ErrInjected)

	var op *types.OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "layer id", op.Op)
	assert.Equal(t, int64(-1), op.LayerID)
}

func TestSession_OpErrorCarriesTargetID(t *testing.T) {
	s, h := newSession(t, withBackground())
	h.FailOn("set", hostsim.ErrInjected)

	err := s.Set(ByID(3), "blendMode", types.BlendScreen)
	var op *types.OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, int64(3), op.LayerID)
	assert.Equal(t, "set blendMode", op.Op)

	var re *types.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "set", re.Command)
}

func TestSession_DocumentQueries(t *testing.T) {
	doc := withBackground()
	doc.Resolution = 300
	s, h := newSession(t, doc)

	res, err := s.DocumentResolution()
	require.NoError(t, err)
	assert.Equal(t, 300.0, res)

	sel, err := s.HasPixelSelection()
	require.NoError(t, err)
	assert.False(t, sel)

	h.Active().Selection = true
	sel, err = s.HasPixelSelection()
	require.NoError(t, err)
	assert.True(t, sel)
}

func TestResolve_StableID(t *testing.T) {
	s, _ := newSession(t, withBackground())

	for _, id := range []int64{1, 2, 99} {
		got, err := s.Resolve(ByID(id))
		require.NoError(t, err)
		assert.Equal(t, descriptor.IDElement("layer", id), got)
	}

	got, err := s.Resolve(Current)
	require.NoError(t, err)
	assert.Equal(t, targetElement(), got)

	_, err = s.Resolve(ByID(-1))
	assert.ErrorIs(t, err, types.ErrEntityNotFound)
}

func TestResolve_BackgroundOnly(t *testing.T) {
	s, _ := newSession(t, backgroundOnly())

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	byIndex, err := s.Resolve(ByIndex(1))
	require.NoError(t, err)
	byID, err := s.Resolve(ByID(0))
	require.NoError(t, err)
	assert.Equal(t, byID, byIndex)
	assert.Equal(t, backgroundElement(), byID)

	for _, i := range []int{0, 2, 5} {
		_, err := s.Resolve(ByIndex(i))
		assert.ErrorIs(t, err, types.ErrEntityNotFound, "index %d", i)
	}

	name, err := s.Get(ByID(0), "name")
	require.NoError(t, err)
	assert.Equal(t, "Background", name)
}

func TestResolve_IndexSkipsBackground(t *testing.T) {
	s, _ := newSession(t, withBackground())

	count, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 4, count)

	first, err := s.Resolve(ByIndex(1))
	require.NoError(t, err)
	assert.Equal(t, backgroundElement(), first)

	for i := 2; i <= count; i++ {
		got, err := s.Resolve(ByIndex(i))
		require.NoError(t, err)
		assert.Equal(t, descriptor.IndexElement("layer", i-1), got)
	}
	_, err = s.Resolve(ByIndex(count + 1))
	assert.ErrorIs(t, err, types.ErrEntityNotFound)

	want := []int64{1, 2, 3, 4}
	for i, id := range want {
		got, err := s.LayerID(ByIndex(i + 1))
		require.NoError(t, err)
		assert.Equal(t, id, got, "index %d", i+1)
	}
}

func TestResolve_IndexWithoutBackground(t *testing.T) {
	s, _ := newSession(t, nested())

	got, err := s.Resolve(ByIndex(1))
	require.NoError(t, err)
	assert.Equal(t, descriptor.IndexElement("layer", 1), got)

	id, err := s.LayerID(ByIndex(6))
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
}
