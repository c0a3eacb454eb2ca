// Active selection and stack traversal.
package layers

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// ActivateOptions controls MakeActive.
type ActivateOptions struct {
	// MakeVisible shows each layer as it is selected.
	MakeVisible bool
	// Additive keeps the existing selection instead of clearing it first.
	Additive bool
}

// ActiveLayerIDs returns the ids of the selected layers in selection order.
func (s *Session) ActiveLayerIDs() ([]int64, error) {
	ids, err := s.activeLayerIDs()
	if err != nil {
		return nil, fail("active layers", Current, err)
	}
	return ids, nil
}

func (s *Session) activeLayerIDs() ([]int64, error) {
	d, err := s.documentProperty(keyTargetLayerIDs)
	if err != nil {
		return nil, err
	}
	if !d.Has(keyTargetLayerIDs) {
		return []int64{}, nil
	}
	list, err := d.GetList(keyTargetLayerIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		if v.Kind != descriptor.KindReference {
			return nil, fmt.Errorf("%w: target layer entry is %s", descriptor.ErrWrongType, v.Kind)
		}
		elem, ok := v.Ref.Find(classLayer)
		if !ok || elem.Form != descriptor.FormIdentifier {
			return nil, fmt.Errorf("%w: target layer entry is not an id reference", descriptor.ErrWrongType)
		}
		ids = append(ids, elem.ID)
	}
	return ids, nil
}

// ActiveLayerID returns the id of the current target layer.
func (s *Session) ActiveLayerID() (int64, error) {
	return s.LayerID(Current)
}

// MakeActive selects the layers in ids, in order. Every id is validated
// before the selection is touched. Id 0 names the sole background, which is
// always active, and is skipped.
func (s *Session) MakeActive(ids []int64, opts ActivateOptions) error {
	return fail("make active", Current, s.makeActive(ids, opts))
}

func (s *Session) makeActive(ids []int64, opts ActivateOptions) error {
	backgroundOnly := false
	for _, id := range ids {
		if id < 0 {
			return fmt.Errorf("%w: layer id %d", types.ErrInvalidArgument, id)
		}
		if id == 0 {
			count, err := s.Count()
			if err != nil {
				return err
			}
			if count != 0 {
				return fmt.Errorf("%w: layer id 0 outside a background-only document", types.ErrEntityNotFound)
			}
			backgroundOnly = true
		}
	}
	if backgroundOnly {
		return nil
	}
	if !opts.Additive {
		if err := s.makeNoneActive(); err != nil {
			return err
		}
	}
	for _, id := range ids {
		payload := descriptor.New("")
		payload.PutReference(keyTarget, descriptor.NewReference(descriptor.IDElement(classLayer, id)))
		payload.PutBool(keyMakeVisible, opts.MakeVisible)
		payload.PutEnum(keySelectionMod, enumSelectionMod, selAdd)
		if _, err := s.submit(cmdSelect, payload); err != nil {
			return err
		}
	}
	return nil
}

// MakeNoneActive clears the layer selection.
func (s *Session) MakeNoneActive() error {
	return fail("make none active", Current, s.makeNoneActive())
}

func (s *Session) makeNoneActive() error {
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(targetElement()))
	_, err := s.submit(cmdSelectNone, payload)
	return err
}

// MakeAllActive selects every layer except group end markers.
func (s *Session) MakeAllActive() error {
	var ids []int64
	err := s.ForEach(func(index int, id int64) error {
		typ, err := s.layerType(ByID(id))
		if err != nil {
			return err
		}
		if typ != types.LayerGroupEnd {
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return fail("make all active", Current, err)
	}
	return fail("make all active", Current, s.makeActive(ids, ActivateOptions{}))
}

// stackID returns the id of the layer addressed by an ordinal token, or 0
// in a background-only document.
func (s *Session) stackID(ordinal string) (int64, error) {
	count, err := s.Count()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	d, err := s.query(descriptor.NewReference(
		descriptor.PropertyElement(classProperty, keyLayerID),
		descriptor.EnumElement(classLayer, enumOrdinal, ordinal),
	))
	if err != nil {
		return 0, err
	}
	return d.GetInt(keyLayerID)
}

// FrontLayerID returns the id of the top layer.
func (s *Session) FrontLayerID() (int64, error) {
	id, err := s.stackID(ordFront)
	return id, fail("front layer", Current, err)
}

// BackLayerID returns the id of the bottom layer.
func (s *Session) BackLayerID() (int64, error) {
	id, err := s.stackID(ordBack)
	return id, fail("back layer", Current, err)
}

// NextLayerID returns the id of the layer above the current target.
func (s *Session) NextLayerID() (int64, error) {
	id, err := s.stackID(ordForward)
	return id, fail("next layer", Current, err)
}

// PreviousLayerID returns the id of the layer below the current target.
func (s *Session) PreviousLayerID() (int64, error) {
	id, err := s.stackID(ordBackward)
	return id, fail("previous layer", Current, err)
}

// makeStackActive activates the layer addressed by ordinal. It does nothing
// in a background-only document.
func (s *Session) makeStackActive(op, ordinal string) error {
	count, err := s.Count()
	if err != nil {
		return fail(op, Current, err)
	}
	if count == 0 {
		return nil
	}
	id, err := s.stackID(ordinal)
	if err != nil {
		return fail(op, Current, err)
	}
	return fail(op, ByID(id), s.makeActive([]int64{id}, ActivateOptions{}))
}

// MakeFrontActive selects the top layer.
func (s *Session) MakeFrontActive() error { return s.makeStackActive("make front active", ordFront) }

// MakeBackActive selects the bottom layer.
func (s *Session) MakeBackActive() error { return s.makeStackActive("make back active", ordBack) }

// MakeNextActive selects the layer above the current target.
func (s *Session) MakeNextActive() error { return s.makeStackActive("make next active", ordForward) }

// MakePreviousActive selects the layer below the current target.
func (s *Session) MakePreviousActive() error {
	return s.makeStackActive("make previous active", ordBackward)
}

// onActive runs fn with ref as the only active layer and restores the
// caller's selection afterwards. fn must address Current.
func (s *Session) onActive(ref LayerRef, fn func() error) error {
	if ref.IsCurrent() {
		return fn()
	}
	id, err := s.layerID(ref)
	if err != nil {
		return err
	}
	if id == 0 {
		return fn()
	}
	active, err := s.activeLayerIDs()
	if err != nil {
		return err
	}
	if len(active) == 1 && active[0] == id {
		return fn()
	}
	return s.preserveSelection(func() error {
		if err := s.makeActive([]int64{id}, ActivateOptions{}); err != nil {
			return err
		}
		return fn()
	})
}

// activate makes ref the only active layer without restoring the previous
// selection. Used by operations whose result should stay selected.
func (s *Session) activate(ref LayerRef) error {
	if ref.IsCurrent() {
		return nil
	}
	id, err := s.layerID(ref)
	if err != nil {
		return err
	}
	if id == 0 {
		return nil
	}
	active, err := s.activeLayerIDs()
	if err != nil {
		return err
	}
	if len(active) == 1 && active[0] == id {
		return nil
	}
	return s.makeActive([]int64{id}, ActivateOptions{})
}
