// Layer lifecycle and direct pixel operations.
package layers

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// LayerSpec describes the initial attributes of a new layer or group. Zero
// fields take the host defaults: opacity 100, normal blending, no color.
type LayerSpec struct {
	Name      string
	Opacity   *float64
	BlendMode types.BlendMode
	Color     types.LayerColor
}

// Opacity returns a pointer to pct, for LayerSpec and option structs.
func Opacity(pct float64) *float64 { return &pct }

// object builds the layer object sent with make and convert commands.
func (spec LayerSpec) object(class string) (*descriptor.Descriptor, error) {
	d := descriptor.New(class)
	if spec.Name != "" {
		d.PutString(keyName, spec.Name)
	}
	opacity := 100.0
	if spec.Opacity != nil {
		opacity = *spec.Opacity
	}
	if opacity < 0 || opacity > 100 {
		return nil, fmt.Errorf("%w: opacity %v outside 0..100", types.ErrInvalidArgument, opacity)
	}
	d.PutUnitDouble(keyOpacity, descriptor.UnitPercent, descriptor.PercentToWire(opacity))

	mode := spec.BlendMode
	if mode == "" {
		mode = types.BlendNormal
	}
	modeVal, err := blendModes.Encode(mode)
	if err != nil {
		return nil, err
	}
	d.Put(keyMode, modeVal)

	color := spec.Color
	if color == "" {
		color = types.ColorNone
	}
	colorVal, err := layerColors.Encode(color)
	if err != nil {
		return nil, err
	}
	d.Put(keyColor, colorVal)
	return d, nil
}

// Add creates a content layer above the current target and returns its id.
// The new layer becomes the only active layer.
func (s *Session) Add(spec LayerSpec) (int64, error) {
	return s.make("add layer", classLayer, spec)
}

// AddGroup creates an empty group above the current target and returns the
// id of its start marker.
func (s *Session) AddGroup(spec LayerSpec) (int64, error) {
	return s.make("add group", classLayerSection, spec)
}

func (s *Session) make(op, class string, spec LayerSpec) (int64, error) {
	obj, err := spec.object(class)
	if err != nil {
		return 0, fail(op, Current, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(descriptor.ClassElement(class)))
	payload.PutObject(keyUsing, obj)
	if _, err := s.submit(cmdMake, payload); err != nil {
		return 0, fail(op, Current, err)
	}
	id, err := s.layerID(Current)
	if err != nil {
		return 0, fail(op, Current, err)
	}
	return id, nil
}

// Remove deletes the layer at ref.
func (s *Session) Remove(ref LayerRef) error {
	addr, err := s.address(ref)
	if err != nil {
		return fail("remove", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	_, err = s.submit(cmdDelete, payload)
	return fail("remove", ref, err)
}

// Duplicate copies the layer at ref into the document documentID, or into
// the active document when documentID is 0.
func (s *Session) Duplicate(ref LayerRef, documentID int64) error {
	addr, err := s.address(ref)
	if err != nil {
		return fail("duplicate", ref, err)
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	if documentID > 0 {
		payload.PutReference(keyTo, descriptor.NewReference(descriptor.IDElement(classDocument, documentID)))
	}
	payload.PutInt(keyVersion, 5)
	_, err = s.submit(cmdDuplicate, payload)
	return fail("duplicate", ref, err)
}

// MakeLayerFromBackground converts the background into a normal layer with
// the attributes of spec. It does nothing when there is no background.
func (s *Session) MakeLayerFromBackground(spec LayerSpec) error {
	return fail("make layer from background", ByID(0), s.makeLayerFromBackground(spec))
}

func (s *Session) makeLayerFromBackground(spec LayerSpec) error {
	background, err := s.HasBackground()
	if err != nil {
		return err
	}
	if !background {
		return nil
	}
	obj, err := spec.object(classLayer)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(backgroundElement()))
	payload.PutObject(keyTo, obj)
	_, err = s.submit(cmdSet, payload)
	return err
}

// ApplyImageOptions selects the source of an apply-image operation. The zero
// value applies the composite channel of the active layer of the active
// document onto itself at full opacity with normal blending.
type ApplyImageOptions struct {
	// SourceDocumentID is the source document; 0 means the active document.
	SourceDocumentID int64
	// Source is the source layer inside the source document.
	Source LayerRef
	// Merged uses the merged image of the source document instead of a layer.
	Merged  bool
	Channel types.Channel
	Invert  bool
	// BlendMode defaults to normal.
	BlendMode types.BlendMode
	// Opacity defaults to 100.
	Opacity *float64
	// IgnoreTransparency disables preserve-transparency.
	IgnoreTransparency bool
}

// ApplyImage blends a source layer or merged image into the current target.
// The active document is restored afterwards.
func (s *Session) ApplyImage(opts ApplyImageOptions) error {
	return fail("apply image", Current, s.applyImage(opts))
}

func (s *Session) applyImage(opts ApplyImageOptions) (err error) {
	if s.docs == nil {
		return fmt.Errorf("%w: apply image needs a document context", types.ErrPreconditionNotMet)
	}
	active, err := s.docs.ActiveDocumentID()
	if err != nil {
		return &types.RemoteError{Command: cmdApplyImage, Err: err}
	}
	source := opts.SourceDocumentID
	if source == 0 {
		source = active
	}

	channel := opts.Channel
	if channel == "" {
		channel = types.ChannelComposite
	}
	channelWire, err := channels.Wire(channel)
	if err != nil {
		return err
	}
	mode := opts.BlendMode
	if mode == "" {
		mode = types.BlendNormal
	}
	modeWire, err := blendModes.Wire(mode)
	if err != nil {
		return err
	}
	opacity := 100.0
	if opts.Opacity != nil {
		opacity = *opts.Opacity
	}

	layer := descriptor.EnumElement(classLayer, enumOrdinal, ordMerged)
	if !opts.Merged {
		layer, err = s.sourceLayer(active, source, opts.Source)
		if err != nil {
			return err
		}
	}

	calc := descriptor.New(classCalculation)
	calc.PutReference(keyTo, descriptor.NewReference(
		descriptor.EnumElement(classChannel, enumChannel, channelWire),
		layer,
		descriptor.IDElement(classDocument, source),
	))
	calc.PutEnum("calculation", "calculationType", modeWire)
	calc.PutUnitDouble(keyOpacity, descriptor.UnitPercent, descriptor.PercentToWire(opacity))
	calc.PutBool("preserveTransparency", !opts.IgnoreTransparency)
	calc.PutBool("invert", opts.Invert)

	payload := descriptor.New("")
	payload.PutObject(keyWith, calc)
	_, err = s.submit(cmdApplyImage, payload)
	return err
}

// sourceLayer resolves ref inside the source document. Background layers
// are addressed by token because hosts reject their id in other documents.
func (s *Session) sourceLayer(active, source int64, ref LayerRef) (elem descriptor.RefElement, err error) {
	if source != active {
		if err := s.docs.MakeActiveDocument(source); err != nil {
			return elem, &types.RemoteError{Command: "activate document", Err: err}
		}
		defer func() {
			if rerr := s.docs.MakeActiveDocument(active); rerr != nil {
				err = errors.Join(err, &types.RemoteError{Command: "activate document", Err: rerr})
			}
		}()
	}
	background, err := s.getBool(ref, "isBackgroundLayer")
	if err != nil {
		return elem, err
	}
	if background {
		return backgroundElement(), nil
	}
	id, err := s.layerID(ref)
	if err != nil {
		return elem, err
	}
	return descriptor.IDElement(classLayer, id), nil
}

// Invert inverts the pixels of the layer at ref, which stays active.
func (s *Session) Invert(ref LayerRef) error {
	if err := s.activate(ref); err != nil {
		return fail("invert", ref, err)
	}
	_, err := s.submit(cmdInvert, nil)
	return fail("invert", ref, err)
}

// FillOptions controls Fill. A nil Color fills with the background color.
type FillOptions struct {
	Color     *types.HSB
	BlendMode types.BlendMode
	Opacity   *float64
}

// Fill fills the layer at ref, which stays active.
func (s *Session) Fill(ref LayerRef, opts FillOptions) error {
	mode := opts.BlendMode
	if mode == "" {
		mode = types.BlendNormal
	}
	modeVal, err := blendModes.Encode(mode)
	if err != nil {
		return fail("fill", ref, err)
	}
	opacity := 100.0
	if opts.Opacity != nil {
		opacity = *opts.Opacity
	}
	if opacity < 0 || opacity > 100 {
		return fail("fill", ref, fmt.Errorf("%w: opacity %v outside 0..100", types.ErrInvalidArgument, opacity))
	}
	if err := s.activate(ref); err != nil {
		return fail("fill", ref, err)
	}

	payload := descriptor.New("")
	if opts.Color == nil {
		payload.PutEnum(keyUsing, "fillContents", "backgroundColor")
	} else {
		payload.PutEnum(keyUsing, "fillContents", "color")
		hsb := descriptor.New(classHSBColor)
		hsb.PutUnitDouble("hue", descriptor.UnitAngle, opts.Color.Hue)
		hsb.PutDouble("saturation", opts.Color.Saturation)
		hsb.PutDouble("brightness", opts.Color.Brightness)
		payload.PutObject(keyColor, hsb)
	}
	payload.PutUnitDouble(keyOpacity, descriptor.UnitPercent, descriptor.PercentToWire(opacity))
	payload.Put(keyMode, modeVal)
	_, err = s.submit(cmdFill, payload)
	return fail("fill", ref, err)
}

// Rasterize flattens the layer at ref. Groups are merged into one layer. The
// caller's selection is restored afterwards.
func (s *Session) Rasterize(ref LayerRef) error {
	id, err := s.layerID(ref)
	if err != nil {
		return fail("rasterize", ref, err)
	}
	target := ByID(id)
	group, err := s.isGroup(target)
	if err != nil {
		return fail("rasterize", target, err)
	}
	err = s.preserveSelection(func() error {
		if err := s.makeActive([]int64{id}, ActivateOptions{}); err != nil {
			return err
		}
		if group {
			_, err := s.submit(cmdMerge, nil)
			return err
		}
		payload := descriptor.New("")
		payload.PutReference(keyTarget, descriptor.NewReference(targetElement()))
		_, err := s.submit(cmdRasterize, payload)
		return err
	})
	return fail("rasterize", target, err)
}

// SetLocked locks or unlocks every attribute of the layer at ref.
func (s *Session) SetLocked(ref LayerRef, locked bool) error {
	return fail("set locked", ref, s.set(ref, "allLocked", locked))
}

// ToggleIsolate toggles solo visibility of the layer at ref: either only it
// is shown, or the previous visibility of the other layers comes back.
func (s *Session) ToggleIsolate(ref LayerRef) error {
	addr, err := s.address(ref)
	if err != nil {
		return fail("toggle isolate", ref, err)
	}
	payload := descriptor.New("")
	payload.Put(keyTarget, descriptor.ListOf(descriptor.Ref(addr)))
	payload.PutBool(keyToggleOptions, true)
	_, err = s.submit(cmdShow, payload)
	return fail("toggle isolate", ref, err)
}
