package hostsim

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

type handler func(h *Host, d *Document, p *descriptor.Descriptor) error

var commands = map[string]handler{
	"set":                        runSet,
	"show":                       runShowHide(true),
	"hide":                       runShowHide(false),
	"move":                       runMove,
	"make":                       runMake,
	"delete":                     runDelete,
	"duplicate":                  runDuplicate,
	"select":                     runSelect,
	"deselect":                   runDeselect,
	"selectNoLayers":             runSelectNone,
	"applyImageEvent":            runApplyImage,
	"invert":                     runInvert,
	"fill":                       runFill,
	"mergeLayersNew":             runMerge,
	"rasterizeLayer":             runRasterize,
	"refineSelectionEdge":        runRefineEdge,
	"transform":                  runTransform,
	"newPlacedLayer":             runNewPlaced,
	"placedLayerMakeCopy":        runPlacedCopy,
	"placedLayerEditContents":    runEditContents,
	"placedLayerConvertToLinked": runConvertToLinked,
	"placedLayerRelinkToFile":    runRelink,
	"setPlacedLayerComp":         runSetComp,
	"placeEvent":                 runPlace,
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// reference reads a non-empty reference from p.
func reference(p *descriptor.Descriptor, key string) (*descriptor.Reference, error) {
	ref, err := p.GetReference(key)
	if err != nil {
		return nil, err
	}
	if len(ref.Elements) == 0 {
		return nil, rejected("%s is an empty reference", key)
	}
	return ref, nil
}

// layerOf resolves the layer element of ref, or the current target when ref
// names none.
func (d *Document) layerOf(ref *descriptor.Reference) (*Layer, int, error) {
	if e, ok := ref.Find("layer"); ok {
		return d.resolve(e)
	}
	return d.target()
}

// applyLayerKeys writes the keys of a set or make payload object to l.
func applyLayerKeys(l *Layer, to *descriptor.Descriptor) error {
	if l.Type == types.LayerGroupEnd {
		return rejected("group end markers cannot be edited")
	}
	for _, key := range to.Keys() {
		v, _ := to.Get(key)
		if err := applyLayerKey(l, key, v); err != nil {
			return err
		}
	}
	return nil
}

func applyLayerKey(l *Layer, key string, v descriptor.Value) error {
	num := func() (float64, error) {
		f, ok := v.Number()
		if !ok {
			return 0, rejected("%s is %s", key, v.Kind)
		}
		return f, nil
	}
	pct := func() (float64, error) {
		f, err := num()
		return descriptor.PercentFromWire(f), err
	}
	mask := func(m *Mask, kind string) (*Mask, error) {
		if m == nil {
			return nil, rejected("layer %d has no %s", l.ID, kind)
		}
		return m, nil
	}

	switch key {
	case "name":
		l.Name = v.Str
	case "color":
		l.Color = v.Str
	case "mode":
		l.BlendMode = v.Str
	case "visible":
		l.Visible = v.Bool
	case "opacity", "fillOpacity":
		if !l.Visible {
			return rejected("%s cannot be changed on a hidden layer", key)
		}
		f, err := pct()
		if err != nil {
			return err
		}
		if key == "opacity" {
			l.Opacity = f
		} else {
			l.FillOpacity = f
		}
	case "layerLocking":
		if l.Background {
			return rejected("background locks cannot be changed")
		}
		if v.Object == nil {
			return rejected("layerLocking is %s", v.Kind)
		}
		for _, sub := range v.Object.Keys() {
			b, err := v.Object.GetBool(sub)
			if err != nil {
				return err
			}
			switch sub {
			case "protectAll":
				l.Locks.All = b
			case "protectComposite":
				l.Locks.Pixels = b
			case "protectPosition":
				l.Locks.Position = b
			case "protectTransparency":
				l.Locks.Transparency = b
			default:
				return rejected("unknown lock %s", sub)
			}
		}
	case "userMaskEnabled", "userMaskLinked", "userMaskDensity", "userMaskFeather":
		m, err := mask(l.LayerMask, "layer mask")
		if err != nil {
			return err
		}
		return applyMaskKey(m, strings.TrimPrefix(key, "userMask"), v, num, pct)
	case "vectorMaskEnabled", "vectorMaskLinked", "vectorMaskDensity", "vectorMaskFeather":
		m, err := mask(l.VectorMask, "vector mask")
		if err != nil {
			return err
		}
		return applyMaskKey(m, strings.TrimPrefix(key, "vectorMask"), v, num, pct)
	case "filterMaskDensity", "filterMaskFeather":
		m, err := mask(l.FilterMask, "filter mask")
		if err != nil {
			return err
		}
		return applyMaskKey(m, strings.TrimPrefix(key, "filterMask"), v, num, pct)
	default:
		return rejected("key %s cannot be set", key)
	}
	return nil
}

func applyMaskKey(m *Mask, field string, v descriptor.Value, num, pct func() (float64, error)) error {
	switch field {
	case "Enabled":
		m.Enabled = v.Bool
	case "Linked":
		m.Linked = v.Bool
	case "Density":
		f, err := pct()
		if err != nil {
			return err
		}
		m.Density = f
	case "Feather":
		f, err := num()
		if err != nil {
			return err
		}
		m.Feather = f
	}
	return nil
}

func runSet(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	first := ref.Elements[0]
	if first.Class == "channel" && first.Form == descriptor.FormProperty && first.Value == "selection" {
		return selectionFromMask(d, p)
	}
	l, _, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	to, err := p.GetObject("to")
	if err != nil {
		return err
	}
	if first.Class == "layer" && first.Form == descriptor.FormProperty && l.Background {
		l.Background = false
		l.Locks.All = false
		if l.Name == "Background" {
			l.Name = "Layer 0"
		}
		if len(d.Selected) == 0 {
			d.selectOnly(l.ID)
		}
	}
	return applyLayerKeys(l, to)
}

// selectionFromMask loads a layer or vector mask as the pixel selection.
func selectionFromMask(d *Document, p *descriptor.Descriptor) error {
	to, err := reference(p, "to")
	if err != nil {
		return err
	}
	l, _, err := d.layerOf(to)
	if err != nil {
		return err
	}
	switch to.Elements[0].Class {
	case "channel":
		if l.LayerMask == nil {
			return rejected("layer %d has no layer mask", l.ID)
		}
	case "path":
		if l.VectorMask == nil {
			return rejected("layer %d has no vector mask", l.ID)
		}
	default:
		return rejected("cannot select %s", to.Elements[0])
	}
	d.Selection = true
	return nil
}

func runShowHide(visible bool) handler {
	return func(h *Host, d *Document, p *descriptor.Descriptor) error {
		list, err := p.GetList("null")
		if err != nil {
			return err
		}
		if visible && p.Has("toggleOptionsPalette") {
			if len(list) != 1 || list[0].Ref == nil {
				return rejected("isolate takes one layer")
			}
			l, _, err := d.layerOf(list[0].Ref)
			if err != nil {
				return err
			}
			d.toggleIsolate(l)
			return nil
		}
		for _, v := range list {
			if v.Ref == nil {
				return rejected("show/hide target is %s", v.Kind)
			}
			l, _, err := d.layerOf(v.Ref)
			if err != nil {
				return err
			}
			l.Visible = visible
		}
		return nil
	}
}

func (d *Document) toggleIsolate(solo *Layer) {
	if d.isolated != nil {
		for _, l := range d.Layers {
			if v, ok := d.isolated[l.ID]; ok {
				l.Visible = v
			}
		}
		d.isolated = nil
		return
	}
	d.isolated = make(map[int64]bool)
	for _, l := range d.Layers {
		d.isolated[l.ID] = l.Visible
		l.Visible = l == solo
	}
}

func runMove(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, from, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	if l.Background {
		return rejected("the background cannot be moved")
	}
	to, err := reference(p, "to")
	if err != nil {
		return err
	}
	e, ok := to.Find("layer")
	if !ok {
		return rejected("move destination %s is not a layer", to)
	}
	_, dest, err := d.resolve(e)
	if err != nil {
		return err
	}
	if dest == 0 && d.hasBackground() {
		return rejected("no layer can move below the background")
	}
	d.removeAt(from)
	d.insert(dest, l)
	return nil
}

// insertAbove returns the slice position above the current target, or the
// top of the stack.
func (d *Document) insertAbove() int {
	if _, p, err := d.target(); err == nil {
		return p + 1
	}
	return len(d.Layers)
}

func runMake(h *Host, d *Document, p *descriptor.Descriptor) error {
	if p.Has("new") {
		return makeLayerMask(d, p)
	}
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	switch ref.Elements[0].Class {
	case "layer":
		l := ContentLayer(d.nextID(), "")
		l.Name = fmt.Sprintf("Layer %d", l.ID)
		if p.Has("using") {
			using, err := p.GetObject("using")
			if err != nil {
				return err
			}
			if err := applyLayerKeys(l, using); err != nil {
				return err
			}
		}
		d.insert(d.insertAbove(), l)
		d.selectOnly(l.ID)
		return nil
	case "layerSection":
		return makeGroup(d, p)
	case "path":
		return makeVectorMask(d, p)
	}
	return rejected("cannot make %s", ref.Elements[0])
}

func makeGroup(d *Document, p *descriptor.Descriptor) error {
	startID := d.nextID()
	start := GroupStart(startID, fmt.Sprintf("Group %d", startID))
	end := GroupEnd(startID + 1)
	if p.Has("using") {
		using, err := p.GetObject("using")
		if err != nil {
			return err
		}
		if err := applyLayerKeys(start, using); err != nil {
			return err
		}
	}
	if !p.Has("from") {
		at := d.insertAbove()
		d.insert(at, end, start)
		d.selectOnly(start.ID)
		return nil
	}

	positions := d.selectedPositions()
	if len(positions) == 0 {
		return rejected("no layers selected to group")
	}
	var members []*Layer
	for _, pos := range positions {
		if d.Layers[pos].Background {
			return rejected("the background cannot be grouped")
		}
		members = append(members, d.Layers[pos])
	}
	for i := len(positions) - 1; i >= 0; i-- {
		d.removeAt(positions[i])
	}
	block := append(append([]*Layer{end}, members...), start)
	d.insert(positions[0], block...)
	d.selectOnly(start.ID)
	return nil
}

func makeLayerMask(d *Document, p *descriptor.Descriptor) error {
	at, err := reference(p, "at")
	if err != nil {
		return err
	}
	if e := at.Elements[0]; e.Class != "channel" || e.Value != "mask" {
		return rejected("cannot make a channel at %s", e)
	}
	l, _, err := d.target()
	if err != nil {
		return err
	}
	if l.Background {
		return rejected("the background cannot have a layer mask")
	}
	if l.LayerMask != nil {
		return rejected("layer %d already has a layer mask", l.ID)
	}
	l.LayerMask = newMask()
	d.Channel = "mask"
	return nil
}

func makeVectorMask(d *Document, p *descriptor.Descriptor) error {
	at, err := reference(p, "at")
	if err != nil {
		return err
	}
	if e := at.Elements[0]; e.Class != "path" || e.Value != "vectorMask" {
		return rejected("cannot make a path at %s", e)
	}
	l, _, err := d.target()
	if err != nil {
		return err
	}
	if l.Background {
		return rejected("the background cannot have a vector mask")
	}
	if l.VectorMask != nil {
		return rejected("layer %d already has a vector mask", l.ID)
	}
	l.VectorMask = newMask()
	return nil
}

func runDelete(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, pos, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	switch first := ref.Elements[0]; first.Class {
	case "channel":
		if l.LayerMask == nil {
			return rejected("layer %d has no layer mask", l.ID)
		}
		l.LayerMask = nil
		if d.Channel == "mask" {
			d.Channel = "RGB"
		}
		d.MaskVisible = false
		return nil
	case "path":
		if l.VectorMask == nil {
			return rejected("layer %d has no vector mask", l.ID)
		}
		l.VectorMask = nil
		return nil
	}

	lo := pos
	switch l.Type {
	case types.LayerGroupEnd:
		return rejected("group end markers cannot be deleted")
	case types.LayerGroupStart:
		if lo, err = d.groupSpan(pos); err != nil {
			return err
		}
	}
	if lo == 0 && pos == len(d.Layers)-1 {
		return rejected("the last layer cannot be deleted")
	}
	for i := pos; i >= lo; i-- {
		d.deselect(d.removeAt(i).ID)
	}
	if len(d.Selected) == 0 {
		below := lo - 1
		if below < 0 {
			below = 0
		}
		d.selectOnly(d.Layers[below].ID)
	}
	return nil
}

func runDuplicate(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, pos, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	lo := pos
	if l.Type == types.LayerGroupStart {
		if lo, err = d.groupSpan(pos); err != nil {
			return err
		}
	}
	dst := d
	if p.Has("to") {
		to, err := reference(p, "to")
		if err != nil {
			return err
		}
		e, ok := to.Find("document")
		if !ok || e.Form != descriptor.FormIdentifier {
			return rejected("duplicate destination %s is not a document", to)
		}
		if dst, err = h.Document(e.ID); err != nil {
			return err
		}
	}
	next := dst.nextID()
	copies := make([]*Layer, 0, pos-lo+1)
	for i := lo; i <= pos; i++ {
		c := d.Layers[i].clone()
		c.ID = next
		next++
		c.Background = false
		copies = append(copies, c)
	}
	top := copies[len(copies)-1]
	top.Name += " copy"
	if dst == d {
		d.insert(pos+1, copies...)
	} else {
		dst.insert(len(dst.Layers), copies...)
	}
	dst.selectOnly(top.ID)
	return nil
}

func runSelect(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	first := ref.Elements[0]
	switch first.Class {
	case "channel", "path":
		l, _, err := d.layerOf(ref)
		if err != nil {
			return err
		}
		if cur, _, err := d.target(); err != nil || cur != l {
			d.selectOnly(l.ID)
		}
		switch {
		case first.Class == "channel" && first.Value == "RGB":
			d.Channel = "RGB"
		case first.Class == "channel" && first.Value == "mask":
			if l.LayerMask == nil {
				return rejected("layer %d has no layer mask", l.ID)
			}
			if p.Has("makeVisible") {
				visible, err := p.GetBool("makeVisible")
				if err != nil {
					return err
				}
				d.MaskVisible = visible
			} else {
				d.Channel = "mask"
			}
		case first.Class == "path" && first.Value == "vectorMask":
			if l.VectorMask == nil {
				return rejected("layer %d has no vector mask", l.ID)
			}
			d.Channel = "vectorMask"
		default:
			return rejected("cannot select %s", first)
		}
		return nil
	case "layer":
		l, _, err := d.resolve(first)
		if err != nil {
			return err
		}
		if p.Has("makeVisible") {
			if show, _ := p.GetBool("makeVisible"); show {
				l.Visible = true
			}
		}
		if !p.Has("selectionModifier") {
			d.selectOnly(l.ID)
			return nil
		}
		for _, id := range d.Selected {
			if id == l.ID {
				return nil
			}
		}
		d.Selected = append(d.Selected, l.ID)
		return nil
	}
	return rejected("cannot select %s", first)
}

func runDeselect(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	if ref.Elements[0].Class != "path" {
		return rejected("cannot deselect %s", ref.Elements[0])
	}
	if d.Channel == "vectorMask" {
		d.Channel = "RGB"
	}
	return nil
}

func runSelectNone(h *Host, d *Document, p *descriptor.Descriptor) error {
	d.Selected = nil
	return nil
}

func runApplyImage(h *Host, d *Document, p *descriptor.Descriptor) error {
	with, err := p.GetObject("with")
	if err != nil {
		return err
	}
	to, err := reference(with, "to")
	if err != nil {
		return err
	}
	e, ok := to.Find("document")
	if !ok {
		return rejected("apply image source has no document")
	}
	src, err := h.Document(e.ID)
	if err != nil {
		return err
	}
	if le, ok := to.Find("layer"); ok && !(le.Form == descriptor.FormEnumerated && le.Value == "merged") {
		if _, _, err := src.resolve(le); err != nil {
			return err
		}
	}
	if _, _, err := with.GetEnum("calculation"); err != nil {
		return err
	}
	_, _, err = d.target()
	return err
}

func (d *Document) contentTarget() (*Layer, error) {
	l, _, err := d.target()
	if err != nil {
		return nil, err
	}
	if l.Type != types.LayerContent {
		return nil, rejected("layer %d is not a content layer", l.ID)
	}
	return l, nil
}

func runInvert(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, err := d.contentTarget()
	if err != nil {
		return err
	}
	if d.Channel == "mask" || d.MaskVisible {
		if l.LayerMask == nil {
			return rejected("layer %d has no layer mask", l.ID)
		}
		l.LayerMask.Inverted = !l.LayerMask.Inverted
		return nil
	}
	l.Inverted = !l.Inverted
	return nil
}

func runFill(h *Host, d *Document, p *descriptor.Descriptor) error {
	if _, err := d.contentTarget(); err != nil {
		return err
	}
	_, using, err := p.GetEnum("using")
	if err != nil {
		return err
	}
	if using == "color" && !p.Has("color") {
		return rejected("fill with color needs a color")
	}
	return nil
}

func runMerge(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, pos, err := d.target()
	if err != nil {
		return err
	}
	if l.Type == types.LayerGroupStart {
		lo, err := d.groupSpan(pos)
		if err != nil {
			return err
		}
		merged := l.clone()
		merged.Type = types.LayerContent
		merged.BlendMode = "normal"
		for i := pos; i >= lo; i-- {
			d.removeAt(i)
		}
		d.insert(lo, merged)
		d.selectOnly(merged.ID)
		return nil
	}
	positions := d.selectedPositions()
	if len(positions) < 2 {
		return rejected("merge needs a group or several layers")
	}
	top := d.Layers[positions[len(positions)-1]]
	for i := len(positions) - 2; i >= 0; i-- {
		d.removeAt(positions[i])
	}
	d.selectOnly(top.ID)
	return nil
}

func runRasterize(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, _, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	if p.Has("what") {
		_, what, err := p.GetEnum("what")
		if err != nil {
			return err
		}
		if what != "vectorMask" {
			return rejected("cannot rasterize %s", what)
		}
		if l.VectorMask == nil {
			return rejected("layer %d has no vector mask", l.ID)
		}
		if l.LayerMask == nil {
			l.LayerMask = newMask()
		}
		l.VectorMask = nil
		return nil
	}
	if l.Type != types.LayerContent {
		return rejected("layer %d is not a content layer", l.ID)
	}
	l.SmartObject = nil
	l.Kind = ""
	return nil
}

func runRefineEdge(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, _, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	if l.LayerMask == nil {
		return rejected("layer %d has no layer mask", l.ID)
	}
	return nil
}

func runTransform(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, err := d.contentTarget()
	if err != nil {
		return err
	}
	dx, dy := 0.0, 0.0
	if p.Has("offset") {
		off, err := p.GetObject("offset")
		if err != nil {
			return err
		}
		if dx, err = off.GetNumber("horizontal"); err != nil {
			return err
		}
		if dy, err = off.GetNumber("vertical"); err != nil {
			return err
		}
	}
	sx, sy := 1.0, 1.0
	if p.Has("width") {
		w, err := p.GetNumber("width")
		if err != nil {
			return err
		}
		sx = descriptor.PercentFromWire(w) / 100
	}
	if p.Has("height") {
		hh, err := p.GetNumber("height")
		if err != nil {
			return err
		}
		sy = descriptor.PercentFromWire(hh) / 100
	}

	if so := l.SmartObject; so != nil {
		t := &so.Transform
		ox, oy := t[0], t[1]
		for i := 0; i < len(t); i += 2 {
			t[i] = ox + (t[i]-ox)*sx + dx
			t[i+1] = oy + (t[i+1]-oy)*sy + dy
		}
		l.Bounds = transformBounds(*t)
		return nil
	}
	b := &l.Bounds
	w, hgt := b.Width()*sx, b.Height()*sy
	b.Left += dx
	b.Top += dy
	b.Right = b.Left + w
	b.Bottom = b.Top + hgt
	return nil
}

func transformBounds(t types.Transform) types.Bounds {
	xs := []float64{t[0], t[2], t[4], t[6]}
	ys := []float64{t[1], t[3], t[5], t[7]}
	sort.Float64s(xs)
	sort.Float64s(ys)
	return types.Bounds{Top: ys[0], Left: xs[0], Bottom: ys[3], Right: xs[3]}
}

func rectTransform(left, top, width, height float64) types.Transform {
	return types.Transform{
		left, top,
		left + width, top,
		left + width, top + height,
		left, top + height,
	}
}

func runNewPlaced(h *Host, d *Document, p *descriptor.Descriptor) error {
	positions := d.selectedPositions()
	if len(positions) == 0 {
		_, pos, err := d.target()
		if err != nil {
			return err
		}
		positions = []int{pos}
	}
	top := d.Layers[positions[len(positions)-1]]
	var l *Layer
	if len(positions) == 1 {
		l = top
		if l.Type != types.LayerContent {
			return rejected("layer %d is not a content layer", l.ID)
		}
	} else {
		l = ContentLayer(d.nextID(), top.Name)
		l.Bounds = top.Bounds
		for i := len(positions) - 1; i >= 0; i-- {
			d.removeAt(positions[i])
		}
		d.insert(positions[0], l)
	}
	if l.Background {
		l.Background = false
		l.Locks.All = false
	}
	b := l.Bounds
	if b.Width() <= 0 || b.Height() <= 0 {
		b = types.Bounds{Right: d.Width, Bottom: d.Height}
		l.Bounds = b
	}
	l.Kind = ""
	l.SmartObject = &SmartObject{
		Resolution: d.Resolution,
		Size:       types.Size{Width: b.Width(), Height: b.Height()},
		Transform:  rectTransform(b.Left, b.Top, b.Width(), b.Height()),
		Comp:       -1,
	}
	d.selectOnly(l.ID)
	return nil
}

func (d *Document) smartObjectTarget() (*Layer, int, error) {
	l, pos, err := d.target()
	if err != nil {
		return nil, -1, err
	}
	if l.SmartObject == nil {
		return nil, -1, rejected("layer %d is not a smart object", l.ID)
	}
	return l, pos, nil
}

func runPlacedCopy(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, pos, err := d.smartObjectTarget()
	if err != nil {
		return err
	}
	c := l.clone()
	c.ID = d.nextID()
	c.Name += " copy"
	d.insert(pos+1, c)
	d.selectOnly(c.ID)
	return nil
}

func runEditContents(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, _, err := d.smartObjectTarget()
	if err != nil {
		return err
	}
	var id int64
	for _, doc := range h.docs {
		if doc.ID > id {
			id = doc.ID
		}
	}
	so := l.SmartObject
	inner := ContentLayer(1, l.Name)
	inner.Bounds = types.Bounds{Right: so.Size.Width, Bottom: so.Size.Height}
	doc := &Document{
		ID:         id + 1,
		Name:       l.Name,
		Width:      so.Size.Width,
		Height:     so.Size.Height,
		Resolution: so.Resolution,
		Layers:     []*Layer{inner},
		Selected:   []int64{inner.ID},
	}
	h.AddDocument(doc)
	h.active = doc.ID
	return nil
}

func runConvertToLinked(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, _, err := d.smartObjectTarget()
	if err != nil {
		return err
	}
	file, err := p.GetPath("using")
	if err != nil {
		return err
	}
	so := l.SmartObject
	so.Link = file
	if _, ok := h.assets[file]; !ok {
		h.assets[file] = Asset{
			Width:      so.Size.Width,
			Height:     so.Size.Height,
			Resolution: so.Resolution,
			Comps:      append([]types.Comp(nil), so.Comps...),
		}
	}
	return nil
}

func runRelink(h *Host, d *Document, p *descriptor.Descriptor) error {
	l, _, err := d.smartObjectTarget()
	if err != nil {
		return err
	}
	if l.SmartObject.Link == "" {
		return rejected("layer %d is an embedded smart object", l.ID)
	}
	file, err := p.GetPath("null")
	if err != nil {
		return err
	}
	a, ok := h.assets[file]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, file)
	}
	so := l.SmartObject
	so.Link = file
	so.Size = types.Size{Width: a.Width, Height: a.Height}
	so.Resolution = a.Resolution
	so.Comps = append([]types.Comp(nil), a.Comps...)
	so.Comp = -1
	return nil
}

func runSetComp(h *Host, d *Document, p *descriptor.Descriptor) error {
	ref, err := reference(p, "null")
	if err != nil {
		return err
	}
	l, _, err := d.layerOf(ref)
	if err != nil {
		return err
	}
	if l.SmartObject == nil {
		return rejected("layer %d is not a smart object", l.ID)
	}
	id, err := p.GetInt("compID")
	if err != nil {
		return err
	}
	if id != -1 {
		found := false
		for _, c := range l.SmartObject.Comps {
			found = found || c.ID == id
		}
		if !found {
			return rejected("smart object %d has no comp %d", l.ID, id)
		}
	}
	l.SmartObject.Comp = id
	return nil
}

func runPlace(h *Host, d *Document, p *descriptor.Descriptor) error {
	file, err := p.GetPath("null")
	if err != nil {
		return err
	}
	a, ok := h.assets[file]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, file)
	}
	res := a.Resolution
	if res == 0 {
		res = d.Resolution
	}
	ratio := res / d.Resolution
	w, hgt := a.Width/ratio, a.Height/ratio
	left, top := (d.Width-w)/2, (d.Height-hgt)/2

	linked := false
	if p.Has("linked") {
		if linked, err = p.GetBool("linked"); err != nil {
			return err
		}
	}
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	l := ContentLayer(d.nextID(), name)
	l.SmartObject = &SmartObject{
		Resolution: res,
		Size:       types.Size{Width: a.Width, Height: a.Height},
		Transform:  rectTransform(left, top, w, hgt),
		Comp:       -1,
		Comps:      append([]types.Comp(nil), a.Comps...),
	}
	if linked {
		l.SmartObject.Link = file
	}
	l.Bounds = transformBounds(l.SmartObject.Transform)
	d.insert(d.insertAbove(), l)
	d.selectOnly(l.ID)
	return nil
}
