package layers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lifter/internal/hostsim"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// findDoc is withBackground with Hills hidden at 40% opacity.
func findDoc() *hostsim.Document {
	doc := withBackground()
	doc.Layers[2].Visible = false
	doc.Layers[2].Opacity = 40
	return doc
}

func TestFindAll_Props(t *testing.T) {
	s, _ := newSession(t, findDoc())

	ids, err := s.FindAll(MatchProps{"visible": true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4}, ids)

	ids, err = s.FindAll(MatchProps{"opacity": 40, "visible": false})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	ids, err = s.FindAll(MatchProps{"kind": "normal"})
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestFindAll_SkipsMissingProperties(t *testing.T) {
	doc := nested()
	doc.Layers[1].SmartObject = &hostsim.SmartObject{Resolution: 72, Comp: -1}
	s, _ := newSession(t, doc)

	ids, err := s.FindAll(MatchProps{"kind": types.KindSmartObject})
	require.NoError(t, err)
	assert.Equal(t, []int64{30}, ids)
}

func TestFindAll_PropagatesErrors(t *testing.T) {
	s, _ := newSession(t, findDoc())
	boom := errors.New("boom")

	_, err := s.FindAll(MatchFunc(func(*Session, int64) (bool, error) { return false, boom }))
	assert.ErrorIs(t, err, boom)

	_, err = s.FindAll(MatchProps{"sparkle": 1})
	assert.ErrorIs(t, err, types.ErrUnsupportedProperty)
}

func TestFindFirstAndLast(t *testing.T) {
	s, _ := newSession(t, findDoc())
	visible := MatchProps{"visible": true}

	first, ok, err := s.FindFirst(visible)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), first)

	last, ok, err := s.FindLast(visible)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), last)

	_, ok, err = s.FindFirst(MatchProps{"name": "Moon"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindAllByName(t *testing.T) {
	s, _ := newSession(t, findDoc())

	ids, err := s.FindAllByName(`^S`)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids)

	_, err = s.FindAllByName(`(`)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestMatchExpr(t *testing.T) {
	tests := []struct {
		source string
		want   []int64
	}{
		{`opacity < 50`, []int64{3}},
		{`visible && name != "Background"`, []int64{2, 4}},
		{`id > 2`, []int64{3, 4}},
		{`kind == "normal" && not visible`, []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			s, _ := newSession(t, findDoc())
			m, err := MatchExpr(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.source, m.String())

			ids, err := s.FindAll(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMatchExpr_MissingPropertiesAreNil(t *testing.T) {
	s, _ := newSession(t, nested())

	m, err := MatchExpr(`kind == nil`)
	require.NoError(t, err)
	ids, err := s.FindAll(m)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 21, 20, 10}, ids)
}

func TestMatchExpr_Invalid(t *testing.T) {
	_, err := MatchExpr(`opacity <`)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
