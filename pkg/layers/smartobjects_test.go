package layers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/internal/hostsim"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

const logo = "/art/logo.psb"

// linkedDoc is withBackground where Hills is a smart object linked to logo,
// placed at 10,20 with a 100x50 footprint at twice the document resolution.
func linkedDoc() *hostsim.Document {
	doc := withBackground()
	hills := doc.Layers[2]
	hills.SmartObject = &hostsim.SmartObject{
		Link:       logo,
		Resolution: 144,
		Size:       types.Size{Width: 200, Height: 100},
		Transform:  types.Transform{10, 20, 110, 20, 110, 70, 10, 70},
		Comp:       11,
		Comps:      []types.Comp{{ID: 11, Name: "Light"}, {ID: 12, Name: "Dark"}},
	}
	hills.Bounds = types.Bounds{Top: 20, Left: 10, Bottom: 70, Right: 110}
	return doc
}

func linkedSession(t *testing.T, opts ...Option) (*Session, *hostsim.Host) {
	t.Helper()
	h := hostsim.New(linkedDoc())
	h.AddAsset(logo, hostsim.Asset{
		Width: 200, Height: 100, Resolution: 144,
		Comps: []types.Comp{{ID: 11, Name: "Light"}, {ID: 12, Name: "Dark"}},
	})
	opts = append([]Option{WithDocuments(h), WithFileCopier(h)}, opts...)
	return New(h, opts...), h
}

func TestIsSmartObject(t *testing.T) {
	s, _ := linkedSession(t)

	ok, err := s.IsSmartObject(ByID(3))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsSmartObject(ByID(2))
	require.NoError(t, err)
	assert.False(t, ok)

	g, _ := newSession(t, nested())
	ok, err = g.IsSmartObject(ByID(20))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMakeSmartObject(t *testing.T) {
	s, h := newSession(t, withBackground())

	id, err := s.MakeSmartObject(MakeSmartObjectOptions{Layers: []int64{2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	so := layerOf(t, h, 2).SmartObject
	require.NotNil(t, so)
	assert.Equal(t, types.Size{Width: 640, Height: 480}, so.Size)
	assert.Equal(t, int64(-1), so.Comp)
}

func TestMakeSmartObject_SeveralLayers(t *testing.T) {
	s, h := newSession(t, withBackground())

	id, err := s.MakeSmartObject(MakeSmartObjectOptions{Layers: []int64{2, 3}, Link: true, File: "/art/merged.psb"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, id, 4}, stackIDs(h))
	assert.Equal(t, "/art/merged.psb", layerOf(t, h, id).SmartObject.Link)

	link, err := s.Get(ByID(id), "smartObject.link")
	require.NoError(t, err)
	assert.Equal(t, "/art/merged.psb", link)
}

func TestMakeSmartObject_LinkNeedsFile(t *testing.T) {
	s, h := newSession(t, withBackground())

	_, err := s.MakeSmartObject(MakeSmartObjectOptions{Link: true})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Empty(t, h.Commands())
}

func TestConvertToLinked(t *testing.T) {
	s, h := newSession(t, withBackground())

	require.NoError(t, s.ConvertToLinked(ByID(2), "/art/sky.psb"))
	so := layerOf(t, h, 2).SmartObject
	require.NotNil(t, so)
	assert.Equal(t, "/art/sky.psb", so.Link)
	_, ok := h.Asset("/art/sky.psb")
	assert.True(t, ok)

	err := s.ConvertToLinked(ByID(2), "")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestEditContents(t *testing.T) {
	s, h := linkedSession(t)

	require.NoError(t, s.EditContents(ByID(3)))
	doc := h.Active()
	assert.Equal(t, int64(2), doc.ID)
	assert.Equal(t, 200.0, doc.Width)
	assert.Equal(t, 144.0, doc.Resolution)

	err := s.EditContents(ByID(1))
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
}

func TestEditContents_NotSmartObject(t *testing.T) {
	s, h := linkedSession(t)

	err := s.EditContents(ByID(2))
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
	assert.Empty(t, h.Commands())
}

func TestSetComp(t *testing.T) {
	s, h := linkedSession(t)

	require.NoError(t, s.SetComp(ByID(3), 12))
	assert.Equal(t, int64(12), layerOf(t, h, 3).SmartObject.Comp)
	assert.Equal(t, []int64{4}, activeIDs(t, s))

	require.NoError(t, s.SetComp(ByID(3), -7))
	assert.Equal(t, int64(-1), layerOf(t, h, 3).SmartObject.Comp)

	err := s.SetComp(ByID(3), 99)
	assert.ErrorIs(t, err, types.ErrRemote)

	comps, err := s.Get(ByID(3), "smartObject.compsList")
	require.NoError(t, err)
	assert.Len(t, comps, 2)

	err = s.SetComp(ByID(2), 11)
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
}

func TestRelink(t *testing.T) {
	s, h := linkedSession(t)
	h.AddAsset("/art/logo-v2.psb", hostsim.Asset{Width: 400, Height: 200, Resolution: 300})

	require.NoError(t, s.Relink(ByID(3), "/art/logo-v2.psb"))
	so := layerOf(t, h, 3).SmartObject
	assert.Equal(t, "/art/logo-v2.psb", so.Link)
	assert.Equal(t, types.Size{Width: 400, Height: 200}, so.Size)
	assert.Equal(t, int64(-1), so.Comp)

	err := s.Relink(ByID(3), "/art/missing.psb")
	assert.ErrorIs(t, err, hostsim.ErrAssetNotFound)
	err = s.Relink(ByID(3), "")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestPlace(t *testing.T) {
	s, h := newSession(t, withBackground())
	h.AddAsset(logo, hostsim.Asset{Width: 200, Height: 100, Resolution: 144})

	id, err := s.Place(logo, PlaceOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, []int64{5}, activeIDs(t, s))
	so := layerOf(t, h, 5).SmartObject
	require.NotNil(t, so)
	assert.Empty(t, so.Link)
	// 200x100 at 144 ppi covers 100x50 pixels of a 72 ppi document.
	assert.Equal(t, types.Transform{270, 215, 370, 215, 370, 265, 270, 265}, so.Transform)
}

func TestPlace_PositionAndScale(t *testing.T) {
	s, h := newSession(t, withBackground())
	h.AddAsset(logo, hostsim.Asset{Width: 200, Height: 100, Resolution: 144})

	id, err := s.Place(logo, PlaceOptions{Link: true, Position: true, X: 10, Y: 20, ScaleX: 50})
	require.NoError(t, err)
	l := layerOf(t, h, id)
	assert.Equal(t, logo, l.SmartObject.Link)
	assert.Equal(t, types.Transform{10, 20, 60, 20, 60, 70, 10, 70}, l.SmartObject.Transform)
	assert.Equal(t, types.Bounds{Top: 20, Left: 10, Bottom: 70, Right: 60}, l.Bounds)
	assert.Equal(t, []string{"placeEvent", "transform", "transform"}, h.Commands())
}

func TestPlace_MissingAsset(t *testing.T) {
	s, _ := newSession(t, withBackground())

	_, err := s.Place("/nowhere.psb", PlaceOptions{})
	assert.ErrorIs(t, err, hostsim.ErrAssetNotFound)
	_, err = s.Place("", PlaceOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestMakeCopy_Embedded(t *testing.T) {
	doc := withBackground()
	doc.Layers[2].SmartObject = &hostsim.SmartObject{Resolution: 72, Size: types.Size{Width: 10, Height: 10}, Comp: -1}
	s, h := newSession(t, doc)

	id, err := s.MakeCopy(ByID(3), CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, id, 4}, stackIDs(h))
	assert.Equal(t, "Hills copy", layerOf(t, h, id).Name)
	assert.Equal(t, []string{"selectNoLayers", "select", "placedLayerMakeCopy"}, h.Commands())
}

func TestMakeCopy_Linked(t *testing.T) {
	s, h := linkedSession(t)

	id, err := s.MakeCopy(ByID(3), CopyOptions{SkipPrompt: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, id, 4}, stackIDs(h))

	_, ok := h.Asset("/art/logo_02.psb")
	require.True(t, ok)
	so := layerOf(t, h, id).SmartObject
	require.NotNil(t, so)
	assert.Equal(t, "/art/logo_02.psb", so.Link)
	assert.Equal(t, int64(11), so.Comp)
	for i, want := range (types.Transform{10, 20, 110, 20, 110, 70, 10, 70}) {
		assert.InDelta(t, want, so.Transform[i], 1e-9, "corner %d", i)
	}
}

func TestMakeCopy_Prompt(t *testing.T) {
	var suggested string
	prompt := types.PrompterFunc(func(message, name string) (string, bool, error) {
		suggested = name
		return "badge", true, nil
	})
	s, h := linkedSession(t, WithPrompter(prompt))

	_, err := s.MakeCopy(ByID(3), CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "logo_02.psb", suggested)
	_, ok := h.Asset("/art/badge.psb")
	assert.True(t, ok)
}

func TestMakeCopy_PromptCancelled(t *testing.T) {
	prompt := types.PrompterFunc(func(string, string) (string, bool, error) { return "", false, nil })
	s, h := linkedSession(t, WithPrompter(prompt))

	_, err := s.MakeCopy(ByID(3), CopyOptions{})
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Len(t, h.Active().Layers, 4)
}

func TestMakeCopy_RefusesSameFile(t *testing.T) {
	s, _ := linkedSession(t)

	_, err := s.MakeCopy(ByID(3), CopyOptions{File: "logo.psb"})
	assert.ErrorIs(t, err, types.ErrSameFile)
}

func TestMakeCopy_CopyFailure(t *testing.T) {
	s, h := linkedSession(t)
	h.FailOn("copy", errors.New("disk full"))

	_, err := s.MakeCopy(ByID(3), CopyOptions{File: "/tmp/out.psb"})
	assert.ErrorIs(t, err, types.ErrRemote)
	assert.Len(t, h.Active().Layers, 4)
}

func TestMakeCopy_NeedsFileCopier(t *testing.T) {
	h := hostsim.New(linkedDoc())
	s := New(h)

	_, err := s.MakeCopy(ByID(3), CopyOptions{SkipPrompt: true})
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
}
