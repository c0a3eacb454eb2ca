// Smart object conversion, placement and comps.
package layers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

const newLinkPrompt = "Enter a name for the new file to be linked"

// IsSmartObject reports whether ref is a smart object layer. Groups are
// never smart objects.
func (s *Session) IsSmartObject(ref LayerRef) (bool, error) {
	ok, err := s.isSmartObject(ref)
	if err != nil {
		return false, fail("is smart object", ref, err)
	}
	return ok, nil
}

func (s *Session) isSmartObject(ref LayerRef) (bool, error) {
	kind, err := s.get(ref, "kind")
	if err != nil {
		if errors.Is(err, types.ErrKindMismatch) {
			return false, nil
		}
		return false, err
	}
	return kind == types.KindSmartObject, nil
}

// activeSmartObject activates ref and verifies it is a smart object.
func (s *Session) activeSmartObject(ref LayerRef) (int64, error) {
	id, err := s.layerID(ref)
	if err != nil {
		return 0, err
	}
	ok, err := s.isSmartObject(ByID(id))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: layer is not a smart object", types.ErrPreconditionNotMet)
	}
	if err := s.activate(ByID(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// MakeSmartObjectOptions controls MakeSmartObject.
type MakeSmartObjectOptions struct {
	// Layers are converted together. Empty means the current selection.
	Layers []int64
	// Link converts the new smart object to one linked to File.
	Link bool
	File string
}

// MakeSmartObject wraps layers into a new smart object, leaves it active and
// returns its id.
func (s *Session) MakeSmartObject(opts MakeSmartObjectOptions) (int64, error) {
	id, err := s.makeSmartObject(opts)
	if err != nil {
		return 0, fail("make smart object", Current, err)
	}
	return id, nil
}

func (s *Session) makeSmartObject(opts MakeSmartObjectOptions) (int64, error) {
	if opts.Link && opts.File == "" {
		return 0, fmt.Errorf("%w: a linked smart object needs a file", types.ErrInvalidArgument)
	}
	if len(opts.Layers) > 0 {
		if err := s.makeActive(opts.Layers, ActivateOptions{}); err != nil {
			return 0, err
		}
	}
	if _, err := s.submit(cmdNewPlaced, nil); err != nil {
		return 0, err
	}
	if opts.Link {
		if err := s.convertToLinked(opts.File); err != nil {
			return 0, err
		}
	}
	return s.layerID(Current)
}

// ConvertToLinked turns the layer at ref into a smart object linked to file,
// converting it to a smart object first when needed.
func (s *Session) ConvertToLinked(ref LayerRef, file string) error {
	if file == "" {
		return fail("convert to linked", ref, fmt.Errorf("%w: file is required", types.ErrInvalidArgument))
	}
	ok, err := s.isSmartObject(ref)
	if err != nil {
		return fail("convert to linked", ref, err)
	}
	if err := s.activate(ref); err != nil {
		return fail("convert to linked", ref, err)
	}
	if !ok {
		if _, err := s.submit(cmdNewPlaced, nil); err != nil {
			return fail("convert to linked", ref, err)
		}
	}
	return fail("convert to linked", ref, s.convertToLinked(file))
}

func (s *Session) convertToLinked(file string) error {
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(targetElement()))
	payload.Put(keyUsing, descriptor.Path(file))
	_, err := s.submit(cmdPlacedToLinked, payload)
	return err
}

// EditContents opens the contents of the smart object at ref in their own
// document.
func (s *Session) EditContents(ref LayerRef) error {
	if _, err := s.activeSmartObject(ref); err != nil {
		return fail("edit contents", ref, err)
	}
	if _, err := s.submit(cmdPlacedEdit, descriptor.New("")); err != nil {
		return fail("edit contents", ref, err)
	}
	if s.docs == nil {
		return nil
	}
	// The host does not refresh its notion of the active document after
	// opening the contents; re-activating it does.
	doc, err := s.docs.ActiveDocumentID()
	if err != nil {
		return fail("edit contents", ref, &types.RemoteError{Command: "active document", Err: err})
	}
	if err := s.docs.MakeActiveDocument(doc); err != nil {
		return fail("edit contents", ref, &types.RemoteError{Command: "activate document", Err: err})
	}
	return nil
}

// SetComp switches the smart object at ref to the layer comp id. Negative
// ids select no comp.
func (s *Session) SetComp(ref LayerRef, id int64) error {
	return fail("set comp", ref, s.set(ref, "smartObjectMore.comp", id))
}

// Relink points the linked smart object at ref to file.
func (s *Session) Relink(ref LayerRef, file string) error {
	return fail("relink", ref, s.set(ref, "smartObject.link", file))
}

// PlaceOptions controls Place. Scales are percentages of the asset's inner
// canvas size; zero means 100.
type PlaceOptions struct {
	Link bool
	// Position moves the top-left corner of the placed layer to X, Y.
	Position bool
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
}

// Place adds file as a new smart object layer above the current target,
// leaves it active and returns its id.
func (s *Session) Place(file string, opts PlaceOptions) (int64, error) {
	id, err := s.place(file, opts)
	if err != nil {
		return 0, fail("place", Current, err)
	}
	return id, nil
}

func (s *Session) place(file string, opts PlaceOptions) (int64, error) {
	if file == "" {
		return 0, fmt.Errorf("%w: file is required", types.ErrInvalidArgument)
	}
	scaleX, scaleY := opts.ScaleX, opts.ScaleY
	if scaleX == 0 {
		scaleX = 100
	}
	if scaleY == 0 {
		scaleY = 100
	}

	payload := descriptor.New("")
	payload.Put(keyTarget, descriptor.Path(file))
	payload.PutEnum(keyCenterState, "quadCenterState", "QCSAverage")
	if opts.Link {
		payload.PutBool(keyLinked, true)
	}
	if _, err := s.submit(cmdPlace, payload); err != nil {
		return 0, err
	}

	g, err := s.placement(Current)
	if err != nil {
		return 0, err
	}
	if opts.Position {
		offset := descriptor.New(classOffset)
		offset.PutUnitDouble(keyHorizontal, descriptor.UnitPixels, opts.X-g.transform[0])
		offset.PutUnitDouble(keyVertical, descriptor.UnitPixels, opts.Y-g.transform[1])
		if err := s.transform(func(d *descriptor.Descriptor) { d.PutObject(keyOffset, offset) }); err != nil {
			return 0, err
		}
	}

	// Placing honours the asset resolution, so the scale that reaches the
	// target size is divided by the resolution ratio.
	width := scaleX / 100 * g.inner.Width / g.transform.Width() / g.dpiRatio * 100
	height := scaleY / 100 * g.inner.Height / g.transform.Height() / g.dpiRatio * 100
	err = s.transform(func(d *descriptor.Descriptor) {
		d.PutUnitDouble(keyWidth, descriptor.UnitPercent, descriptor.PercentToWire(width))
		d.PutUnitDouble(keyHeight, descriptor.UnitPercent, descriptor.PercentToWire(height))
	})
	if err != nil {
		return 0, err
	}
	return s.layerID(Current)
}

// transform sends a free transform of the current target anchored at its
// top-left corner.
func (s *Session) transform(fill func(d *descriptor.Descriptor)) error {
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(targetElement()))
	payload.PutEnum(keyCenterState, "quadCenterState", "QCSCorner0")
	fill(payload)
	_, err := s.submit(cmdTransform, payload)
	return err
}

// placement is the geometry of a placed smart object.
type placement struct {
	inner     types.Size
	transform types.Transform
	dpiRatio  float64
	comp      int64
}

func (s *Session) placement(ref LayerRef) (placement, error) {
	d, err := s.fetch(ref, keySmartObjectMore)
	if err != nil {
		return placement{}, err
	}
	more, err := objectKey(d, keySmartObjectMore)
	if err != nil {
		return placement{}, err
	}
	var g placement
	if g.inner, err = decodeSize(more); err != nil {
		return placement{}, err
	}
	list, err := more.GetList("nonAffineTransform")
	if err != nil {
		return placement{}, err
	}
	if g.transform, err = decodeTransform(list); err != nil {
		return placement{}, err
	}
	if g.inner.Width == 0 || g.inner.Height == 0 || g.transform.Width() == 0 || g.transform.Height() == 0 {
		return placement{}, fmt.Errorf("%w: smart object has an empty canvas", types.ErrPreconditionNotMet)
	}
	soRes, err := more.GetNumber(keyResolution)
	if err != nil {
		return placement{}, err
	}
	docRes, err := s.DocumentResolution()
	if err != nil {
		return placement{}, err
	}
	if docRes == 0 {
		return placement{}, fmt.Errorf("%w: document resolution is 0", types.ErrPreconditionNotMet)
	}
	g.dpiRatio = soRes / docRes
	if more.Has("comp") {
		if g.comp, err = more.GetInt("comp"); err != nil {
			return placement{}, err
		}
	} else {
		g.comp = -1
	}
	return g, nil
}

// CopyOptions controls MakeCopy.
type CopyOptions struct {
	// File overrides the suggested name of the copied asset. A relative name
	// is placed next to the original.
	File string
	// SkipPrompt accepts the suggested name without asking the Prompter.
	SkipPrompt bool
}

// MakeCopy duplicates the smart object at ref as a new smart object. Linked
// objects get their asset copied to a new file, which is placed with the
// geometry and comp of the original. The new layer is left active and its
// id returned. Failures leave the document as of the last completed step.
func (s *Session) MakeCopy(ref LayerRef, opts CopyOptions) (int64, error) {
	id, err := s.makeCopy(ref, opts)
	if err != nil {
		return 0, fail("make copy", ref, err)
	}
	return id, nil
}

func (s *Session) makeCopy(ref LayerRef, opts CopyOptions) (int64, error) {
	if _, err := s.activeSmartObject(ref); err != nil {
		return 0, err
	}
	v, err := s.get(Current, "smartObject.link")
	if err != nil {
		return 0, err
	}
	src, _ := v.(string)
	if src == "" {
		if _, err := s.submit(cmdPlacedCopy, nil); err != nil {
			return 0, err
		}
		return s.layerID(Current)
	}

	dst, err := s.copyDestination(src, opts)
	if err != nil {
		return 0, err
	}
	if s.files == nil {
		return 0, fmt.Errorf("%w: copying a linked asset needs a file copier", types.ErrPreconditionNotMet)
	}
	g, err := s.placement(Current)
	if err != nil {
		return 0, err
	}
	copied, err := s.files.Copy(src, dst)
	if err != nil {
		return 0, &types.RemoteError{Command: "copy file", Err: err}
	}
	s.logger.Debug("copied linked asset", "from", src, "to", copied)

	id, err := s.place(copied, PlaceOptions{
		Link:     true,
		Position: true,
		X:        g.transform[0],
		Y:        g.transform[1],
		ScaleX:   g.transform.Width() / g.inner.Width * g.dpiRatio * 100,
		ScaleY:   g.transform.Height() / g.inner.Height * g.dpiRatio * 100,
	})
	if err != nil {
		return 0, err
	}
	if err := s.set(ByID(id), "smartObjectMore.comp", g.comp); err != nil {
		return 0, err
	}
	return id, nil
}

// copyDestination picks the path of the copied asset next to src.
func (s *Session) copyDestination(src string, opts CopyOptions) (string, error) {
	dir, base := filepath.Dir(src), filepath.Base(src)
	ext := filepath.Ext(base)

	name := NextLinkedFileName(base)
	switch {
	case opts.File != "":
		name = opts.File
	case !opts.SkipPrompt && s.prompt != nil:
		answer, ok, err := s.prompt.PromptFileName(newLinkPrompt, name)
		if err != nil {
			return "", &types.RemoteError{Command: "prompt", Err: err}
		}
		if !ok || answer == "" {
			return "", types.ErrCancelled
		}
		name = answer
		if !strings.HasSuffix(name, ext) {
			name += ext
		}
	}

	dst := name
	if !filepath.IsAbs(dst) {
		dst = filepath.Join(dir, name)
	}
	if filepath.Clean(dst) == filepath.Clean(src) {
		return "", fmt.Errorf("%w: %s", types.ErrSameFile, dst)
	}
	return dst, nil
}
