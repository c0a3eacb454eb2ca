// Layer, vector and filter masks.
package layers

import (
	"errors"
	"fmt"
	"math"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

func layerMaskElement() descriptor.RefElement {
	return descriptor.EnumElement(classChannel, enumChannel, channelMask)
}

func vectorMaskElement() descriptor.RefElement {
	return descriptor.EnumElement(classPath, enumPath, pathVectorMask)
}

// maskAddress returns a reference to the mask element of the layer at ref.
func (s *Session) maskAddress(mask descriptor.RefElement, ref LayerRef) (*descriptor.Reference, error) {
	layer, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return descriptor.NewReference(mask, layer), nil
}

// HasMask reports whether ref has a layer or vector mask. Filter masks are
// not considered.
func (s *Session) HasMask(ref LayerRef) (bool, error) {
	layerMask, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return false, fail("has mask", ref, err)
	}
	if layerMask {
		return true, nil
	}
	vectorMask, err := s.getBool(ref, "hasVectorMask")
	if err != nil {
		return false, fail("has mask", ref, err)
	}
	return vectorMask, nil
}

// HasLayerMask reports whether ref has a pixel mask.
func (s *Session) HasLayerMask(ref LayerRef) (bool, error) {
	ok, err := s.getBool(ref, "hasLayerMask")
	return ok, fail("has layer mask", ref, err)
}

// HasVectorMask reports whether ref has a vector mask.
func (s *Session) HasVectorMask(ref LayerRef) (bool, error) {
	ok, err := s.getBool(ref, "hasVectorMask")
	return ok, fail("has vector mask", ref, err)
}

// HasFilterMask reports whether ref has a smart filter mask.
func (s *Session) HasFilterMask(ref LayerRef) (bool, error) {
	ok, err := s.getBool(ref, "hasFilterMask")
	return ok, fail("has filter mask", ref, err)
}

// activateForMask makes ref active for a mask creation command. A
// background is converted to a normal layer first.
func (s *Session) activateForMask(ref LayerRef) error {
	background, err := s.getBool(ref, "isBackgroundLayer")
	if err != nil {
		return err
	}
	if !background {
		return s.activate(ref)
	}
	if err := s.makeLayerFromBackground(LayerSpec{}); err != nil {
		return err
	}
	return s.makeStackActive("make back active", ordBack)
}

// AddLayerMask adds a pixel mask to ref and leaves the layer active. The
// mask reveals the pixel selection when there is one and everything
// otherwise.
func (s *Session) AddLayerMask(ref LayerRef) error {
	return fail("add layer mask", ref, s.addLayerMask(ref))
}

func (s *Session) addLayerMask(ref LayerRef) error {
	has, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: layer already has a layer mask", types.ErrPreconditionNotMet)
	}
	if err := s.activateForMask(ref); err != nil {
		return err
	}
	selection, err := s.HasPixelSelection()
	if err != nil {
		return err
	}
	reveal := "revealAll"
	if selection {
		reveal = "revealSelection"
	}
	payload := descriptor.New("")
	payload.Put(keyNew, descriptor.Class(classChannel))
	payload.PutReference(keyAt, descriptor.NewReference(layerMaskElement()))
	payload.PutEnum(keyUsing, "userMaskEnabled", reveal)
	_, err = s.submit(cmdMake, payload)
	return err
}

// AddVectorMask adds a reveal-all vector mask to ref and leaves the layer
// active.
func (s *Session) AddVectorMask(ref LayerRef) error {
	return fail("add vector mask", ref, s.addVectorMask(ref))
}

func (s *Session) addVectorMask(ref LayerRef) error {
	has, err := s.getBool(ref, "hasVectorMask")
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: layer already has a vector mask", types.ErrPreconditionNotMet)
	}
	if err := s.activateForMask(ref); err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(descriptor.ClassElement(classPath)))
	payload.PutReference(keyAt, descriptor.NewReference(vectorMaskElement()))
	payload.PutEnum(keyUsing, "vectorMaskEnabled", "revealAll")
	_, err = s.submit(cmdMake, payload)
	return err
}

// RemoveLayerMask deletes the pixel mask of ref, applying it to the layer
// pixels first when apply is set.
func (s *Session) RemoveLayerMask(ref LayerRef, apply bool) error {
	return fail("remove layer mask", ref, s.removeLayerMask(ref, apply))
}

func (s *Session) removeLayerMask(ref LayerRef, apply bool) error {
	has, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: layer has no layer mask", types.ErrPreconditionNotMet)
	}
	addr, err := s.maskAddress(layerMaskElement(), ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	payload.PutBool(keyApply, apply)
	_, err = s.submit(cmdDelete, payload)
	return err
}

// RemoveVectorMask deletes the vector mask of ref. With apply, the mask is
// rasterized first: into the existing layer mask when there is one, or onto
// the layer pixels otherwise.
func (s *Session) RemoveVectorMask(ref LayerRef, apply bool) error {
	return fail("remove vector mask", ref, s.removeVectorMask(ref, apply))
}

func (s *Session) removeVectorMask(ref LayerRef, apply bool) error {
	has, err := s.getBool(ref, "hasVectorMask")
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: layer has no vector mask", types.ErrPreconditionNotMet)
	}
	if !apply {
		addr, err := s.maskAddress(vectorMaskElement(), ref)
		if err != nil {
			return err
		}
		payload := descriptor.New("")
		payload.PutReference(keyTarget, addr)
		_, err = s.submit(cmdDelete, payload)
		return err
	}

	// Rasterizing turns the vector mask into the layer mask, intersecting
	// one that already exists, so presence must be read beforehand.
	hadLayerMask, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	id, err := s.layerID(ref)
	if err != nil {
		return err
	}
	target := ByID(id)
	return s.preserveSelection(func() error {
		if err := s.makeActive([]int64{id}, ActivateOptions{}); err != nil {
			return err
		}
		addr, err := s.address(target)
		if err != nil {
			return err
		}
		payload := descriptor.New("")
		payload.PutReference(keyTarget, addr)
		payload.PutEnum(keyWhat, "rasterizeItem", pathVectorMask)
		if _, err := s.submit(cmdRasterize, payload); err != nil {
			return err
		}
		if hadLayerMask {
			return nil
		}
		return s.removeLayerMask(target, true)
	})
}

// EnableMasks enables or disables every layer and vector mask of ref.
func (s *Session) EnableMasks(ref LayerRef, enable bool) error {
	return fail("enable masks", ref, s.eachMask(ref, "layerMaskEnabled", "vectorMaskEnabled", enable))
}

// EnableLayerMask enables or disables the pixel mask of ref.
func (s *Session) EnableLayerMask(ref LayerRef, enable bool) error {
	return fail("enable layer mask", ref, s.set(ref, "layerMaskEnabled", enable))
}

// EnableVectorMask enables or disables the vector mask of ref.
func (s *Session) EnableVectorMask(ref LayerRef, enable bool) error {
	return fail("enable vector mask", ref, s.set(ref, "vectorMaskEnabled", enable))
}

// SetMaskLink links or unlinks every layer and vector mask of ref to the
// layer pixels.
func (s *Session) SetMaskLink(ref LayerRef, link bool) error {
	return fail("set mask link", ref, s.eachMask(ref, "layerMaskLinked", "vectorMaskLinked", link))
}

// SetLayerMaskLink links or unlinks the pixel mask of ref.
func (s *Session) SetLayerMaskLink(ref LayerRef, link bool) error {
	return fail("set layer mask link", ref, s.set(ref, "layerMaskLinked", link))
}

// SetVectorMaskLink links or unlinks the vector mask of ref.
func (s *Session) SetVectorMaskLink(ref LayerRef, link bool) error {
	return fail("set vector mask link", ref, s.set(ref, "vectorMaskLinked", link))
}

// eachMask writes value to layerProp when ref has a layer mask and to
// vectorProp when it has a vector mask.
func (s *Session) eachMask(ref LayerRef, layerProp, vectorProp string, value bool) error {
	hasLayer, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	if hasLayer {
		if err := s.set(ref, layerProp, value); err != nil {
			return err
		}
	}
	hasVector, err := s.getBool(ref, "hasVectorMask")
	if err != nil {
		return err
	}
	if hasVector {
		return s.set(ref, vectorProp, value)
	}
	return nil
}

// MakeLayerMaskActive targets painting at the pixel mask of ref, or back at
// the layer pixels when active is false.
func (s *Session) MakeLayerMaskActive(ref LayerRef, active bool) error {
	channel := layerMaskElement()
	if !active {
		channel = descriptor.EnumElement(classChannel, enumChannel, channelRGB)
	}
	addr, err := s.maskAddress(channel, ref)
	if err != nil {
		return fail("make layer mask active", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	_, err = s.submit(cmdSelect, payload)
	return fail("make layer mask active", ref, err)
}

// MakeVectorMaskActive selects or deselects the vector mask path of ref.
func (s *Session) MakeVectorMaskActive(ref LayerRef, active bool) error {
	mask, command := vectorMaskElement(), cmdSelect
	if !active {
		mask, command = descriptor.ClassElement(classPath), cmdDeselect
	}
	addr, err := s.maskAddress(mask, ref)
	if err != nil {
		return fail("make vector mask active", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	_, err = s.submit(command, payload)
	return fail("make vector mask active", ref, err)
}

// MakeLayerMaskVisible shows the pixel mask of ref in place of the layer
// composite, or hides it again.
func (s *Session) MakeLayerMaskVisible(ref LayerRef, visible bool) error {
	return fail("make layer mask visible", ref, s.makeLayerMaskVisible(ref, visible))
}

func (s *Session) makeLayerMaskVisible(ref LayerRef, visible bool) error {
	addr, err := s.maskAddress(layerMaskElement(), ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	payload.PutBool(keyMakeVisible, visible)
	_, err = s.submit(cmdSelect, payload)
	return err
}

func selectionElement() descriptor.RefElement {
	return descriptor.PropertyElement(classChannel, propSelection)
}

// SelectLayerMask loads the pixel mask of ref as the document selection.
func (s *Session) SelectLayerMask(ref LayerRef) error {
	addr, err := s.maskAddress(layerMaskElement(), ref)
	if err != nil {
		return fail("select layer mask", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(selectionElement()))
	payload.PutReference(keyTo, addr)
	_, err = s.submit(cmdSet, payload)
	return fail("select layer mask", ref, err)
}

// SelectVectorMask loads the vector mask of ref as the document selection.
func (s *Session) SelectVectorMask(ref LayerRef) error {
	addr, err := s.maskAddress(vectorMaskElement(), ref)
	if err != nil {
		return fail("select vector mask", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(selectionElement()))
	payload.PutReference(keyTo, addr)
	payload.PutInt(keyVersion, 1)
	payload.PutBool("vectorMaskParams", true)
	_, err = s.submit(cmdSet, payload)
	return fail("select vector mask", ref, err)
}

// RefineOptions are the edge refinement parameters of RefineLayerMask.
// Negative values are taken by magnitude.
type RefineOptions struct {
	BorderRadius   float64
	BorderContrast float64
	Smooth         float64
	FeatherRadius  float64
	Choke          float64
	AutoRadius     bool
	Decontaminate  bool
}

// RefineLayerMask refines the edges of the pixel mask of ref.
func (s *Session) RefineLayerMask(ref LayerRef, opts RefineOptions) error {
	return fail("refine layer mask", ref, s.refineLayerMask(ref, opts))
}

func (s *Session) refineLayerMask(ref LayerRef, opts RefineOptions) error {
	has, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: layer has no layer mask", types.ErrPreconditionNotMet)
	}
	addr, err := s.address(ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	payload.PutUnitDouble("refineEdgeBorderRadius", descriptor.UnitPixels, math.Abs(opts.BorderRadius))
	payload.PutUnitDouble("refineEdgeBorderContrast", descriptor.UnitPercent, descriptor.PercentToWire(math.Abs(opts.BorderContrast)))
	payload.PutInt("refineEdgeSmooth", int64(math.Abs(math.Ceil(opts.Smooth))))
	payload.PutUnitDouble("refineEdgeFeatherRadius", descriptor.UnitPixels, math.Abs(opts.FeatherRadius))
	payload.PutUnitDouble("refineEdgeChoke", descriptor.UnitPercent, descriptor.PercentToWire(math.Abs(opts.Choke)))
	payload.PutBool("refineEdgeAutoRadius", opts.AutoRadius)
	payload.PutBool("refineEdgeDecontaminate", opts.Decontaminate)
	payload.PutEnum("refineEdgeOutput", "refineEdgeOutput", "refineEdgeOutputUserMask")
	_, err = s.submit(cmdRefineEdge, payload)
	return err
}

// InvertLayerMask inverts the pixel mask of ref. The mask is shown for the
// duration of the inversion and hidden again, even when inverting fails.
func (s *Session) InvertLayerMask(ref LayerRef) error {
	return fail("invert layer mask", ref, s.invertLayerMask(ref))
}

func (s *Session) invertLayerMask(ref LayerRef) (err error) {
	has, err := s.getBool(ref, "hasLayerMask")
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: layer has no layer mask", types.ErrPreconditionNotMet)
	}
	if err := s.makeLayerMaskVisible(ref, true); err != nil {
		return err
	}
	defer func() {
		if herr := s.makeLayerMaskVisible(ref, false); herr != nil {
			err = errors.Join(err, herr)
		}
	}()
	_, err = s.submit(cmdInvert, nil)
	return err
}
