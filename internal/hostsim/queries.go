package hostsim

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

var sectionWire = map[types.LayerType]string{
	types.LayerContent:    "layerSectionContent",
	types.LayerGroupStart: "layerSectionStart",
	types.LayerGroupEnd:   "layerSectionEnd",
}

// Query implements types.Executor.
func (h *Host) Query(ref *descriptor.Reference) (*descriptor.Descriptor, error) {
	h.queries++
	if err := h.failOn["get"]; err != nil {
		return nil, err
	}
	if ref == nil || len(ref.Elements) == 0 {
		return nil, fmt.Errorf("%w: empty reference", ErrRejected)
	}
	key, keyed := ref.PropertyKey("property")
	elems := ref.Elements
	if keyed {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: reference %s has no target", ErrRejected, ref)
	}
	doc, err := h.documentOf(elems)
	if err != nil {
		return nil, err
	}

	var full *descriptor.Descriptor
	switch elems[0].Class {
	case "document":
		full = documentDescriptor(doc)
	case "layer":
		l, p, err := doc.resolve(elems[0])
		if err != nil {
			return nil, err
		}
		full = doc.layerDescriptor(l, p)
	default:
		return nil, fmt.Errorf("%w: cannot query %s", ErrRejected, elems[0])
	}
	if !keyed {
		return full, nil
	}
	out := descriptor.New(full.Class)
	if v, ok := full.Get(key); ok {
		out.Put(key, v)
	}
	return out, nil
}

// documentOf returns the document addressed by the last document element of
// elems, or the active document.
func (h *Host) documentOf(elems []descriptor.RefElement) (*Document, error) {
	for i := len(elems) - 1; i >= 0; i-- {
		e := elems[i]
		if e.Class != "document" {
			continue
		}
		if e.Form == descriptor.FormIdentifier {
			return h.Document(e.ID)
		}
		break
	}
	doc := h.Active()
	if doc == nil {
		return nil, ErrNoSuchDocument
	}
	return doc, nil
}

// resolve finds the layer addressed by e.
func (d *Document) resolve(e descriptor.RefElement) (*Layer, int, error) {
	switch e.Form {
	case descriptor.FormIdentifier:
		if e.ID == 0 {
			return nil, -1, fmt.Errorf("%w: layer id 0 cannot be addressed", ErrRejected)
		}
		return d.layer(e.ID)
	case descriptor.FormIndex:
		p, err := d.remotePosition(e.Index)
		if err != nil {
			return nil, -1, err
		}
		return d.Layers[p], p, nil
	case descriptor.FormProperty:
		if e.Value != "background" || !d.hasBackground() {
			return nil, -1, fmt.Errorf("%w: %s", ErrNoSuchLayer, e)
		}
		return d.Layers[0], 0, nil
	case descriptor.FormName:
		for i, l := range d.Layers {
			if l.Name == e.Value {
				return l, i, nil
			}
		}
		return nil, -1, fmt.Errorf("%w: name %q", ErrNoSuchLayer, e.Value)
	case descriptor.FormEnumerated:
		return d.resolveOrdinal(e.Value)
	}
	return nil, -1, fmt.Errorf("%w: cannot address a layer by %s", ErrRejected, e)
}

func (d *Document) resolveOrdinal(ordinal string) (*Layer, int, error) {
	if len(d.Layers) == 0 {
		return nil, -1, fmt.Errorf("%w: empty document", ErrNoSuchLayer)
	}
	top := len(d.Layers) - 1
	switch ordinal {
	case "targetEnum":
		return d.target()
	case "front":
		return d.Layers[top], top, nil
	case "back":
		return d.Layers[0], 0, nil
	case "forwardEnum", "backwardEnum":
		_, p, err := d.target()
		if err != nil {
			return nil, -1, err
		}
		if ordinal == "forwardEnum" {
			p++
		} else {
			p--
		}
		if p < 0 || p > top {
			return nil, -1, fmt.Errorf("%w: no layer %s of the target", ErrNoSuchLayer, ordinal)
		}
		return d.Layers[p], p, nil
	}
	return nil, -1, fmt.Errorf("%w: ordinal %s", ErrRejected, ordinal)
}

func documentDescriptor(d *Document) *descriptor.Descriptor {
	out := descriptor.New("document")
	out.PutInt("documentID", d.ID)
	out.PutString("title", d.Name)
	out.PutInt("numberOfLayers", int64(d.numberOfLayers()))
	out.PutBool("hasBackgroundLayer", d.hasBackground())
	out.PutUnitDouble("resolution", descriptor.UnitDensity, d.Resolution)
	out.PutUnitDouble("width", descriptor.UnitPixels, d.Width)
	out.PutUnitDouble("height", descriptor.UnitPixels, d.Height)

	ids := make([]descriptor.Value, 0, len(d.Selected))
	for _, id := range d.Selected {
		if l, _, err := d.layer(id); err == nil {
			ids = append(ids, descriptor.Ref(descriptor.NewReference(descriptor.IDElement("layer", d.reportedID(l)))))
		}
	}
	out.Put("targetLayersIDs", descriptor.ListOf(ids...))
	if d.Selection {
		sel := descriptor.New("rectangle")
		sel.PutUnitDouble("top", descriptor.UnitPixels, 0)
		sel.PutUnitDouble("left", descriptor.UnitPixels, 0)
		sel.PutUnitDouble("bottom", descriptor.UnitPixels, d.Height)
		sel.PutUnitDouble("right", descriptor.UnitPixels, d.Width)
		out.PutObject("selection", sel)
	}
	return out
}

func percent(pct float64) descriptor.Value {
	return descriptor.UnitDouble(descriptor.UnitPercent, descriptor.PercentToWire(pct))
}

func boundsObject(b types.Bounds) *descriptor.Descriptor {
	r := descriptor.New("rectangle")
	r.PutUnitDouble("top", descriptor.UnitPixels, b.Top)
	r.PutUnitDouble("left", descriptor.UnitPixels, b.Left)
	r.PutUnitDouble("bottom", descriptor.UnitPixels, b.Bottom)
	r.PutUnitDouble("right", descriptor.UnitPixels, b.Right)
	r.PutUnitDouble("width", descriptor.UnitPixels, b.Width())
	r.PutUnitDouble("height", descriptor.UnitPixels, b.Height())
	return r
}

// layerDescriptor renders the full descriptor of l at slice position p.
func (d *Document) layerDescriptor(l *Layer, p int) *descriptor.Descriptor {
	out := descriptor.New("layer")
	out.PutString("name", l.Name)
	out.PutInt("layerID", d.reportedID(l))
	out.PutInt("itemIndex", int64(p+1))
	out.PutBool("visible", l.Visible)
	out.Put("opacity", percent(l.Opacity))
	out.Put("fillOpacity", percent(l.FillOpacity))
	out.PutEnum("mode", "blendMode", l.BlendMode)
	out.PutEnum("color", "color", l.Color)
	out.PutEnum("layerSection", "layerSectionType", sectionWire[l.Type])
	out.PutBool("background", l.Background)
	out.PutBool("group", l.Clipped)
	out.PutObject("bounds", boundsObject(l.Bounds))
	out.PutObject("boundsNoEffects", boundsObject(l.Bounds))
	out.PutObject("boundsNoMask", boundsObject(l.Bounds))

	lk := descriptor.New("layerLocking")
	lk.PutBool("protectAll", l.Locks.All)
	lk.PutBool("protectComposite", l.Locks.Pixels)
	lk.PutBool("protectPosition", l.Locks.Position)
	lk.PutBool("protectTransparency", l.Locks.Transparency)
	out.PutObject("layerLocking", lk)

	md := descriptor.New("metadata")
	if l.Modified != 0 {
		md.PutDouble("layerTime", l.Modified)
	}
	out.PutObject("metadata", md)

	out.PutBool("hasUserMask", l.LayerMask != nil)
	if m := l.LayerMask; m != nil {
		out.PutBool("userMaskEnabled", m.Enabled)
		out.PutBool("userMaskLinked", m.Linked)
		out.Put("userMaskDensity", percent(m.Density))
		out.PutUnitDouble("userMaskFeather", descriptor.UnitPixels, m.Feather)
	}
	out.PutBool("hasVectorMask", l.VectorMask != nil)
	if m := l.VectorMask; m != nil {
		out.PutBool("vectorMaskEnabled", m.Enabled)
		out.Put("vectorMaskDensity", percent(m.Density))
		out.PutUnitDouble("vectorMaskFeather", descriptor.UnitPixels, m.Feather)
	}
	out.PutBool("hasFilterMask", l.FilterMask != nil)
	if m := l.FilterMask; m != nil {
		out.Put("filterMaskDensity", percent(m.Density))
		out.PutUnitDouble("filterMaskFeather", descriptor.UnitPixels, m.Feather)
	}

	if so := l.SmartObject; so != nil {
		out.PutObject("smartObject", smartObjectDescriptor(so))
		out.PutObject("smartObjectMore", smartObjectMoreDescriptor(so))
	}
	switch l.Kind {
	case "":
	case "text":
		out.PutObject("textKey", descriptor.New("textLayer"))
	case "3D":
		out.PutObject("layer3D", descriptor.New("layer3D"))
	case "video":
		out.PutObject("videoLayer", descriptor.New("videoLayer"))
	default:
		out.Put("adjustment", descriptor.ListOf(descriptor.Object(descriptor.New(l.Kind))))
	}
	return out
}

func smartObjectDescriptor(so *SmartObject) *descriptor.Descriptor {
	out := descriptor.New("smartObject")
	out.PutBool("linked", so.Link != "")
	if so.Link != "" {
		out.Put("link", descriptor.Path(so.Link))
	}
	comps := descriptor.New("compsList")
	list := make([]descriptor.Value, 0, len(so.Comps))
	for _, c := range so.Comps {
		obj := descriptor.New("compsList")
		obj.PutInt("ID", c.ID)
		obj.PutString("name", c.Name)
		list = append(list, descriptor.Object(obj))
	}
	comps.Put("compList", descriptor.ListOf(list...))
	out.PutObject("compsList", comps)
	return out
}

func smartObjectMoreDescriptor(so *SmartObject) *descriptor.Descriptor {
	out := descriptor.New("smartObjectMore")
	out.PutInt("comp", so.Comp)
	out.PutDouble("resolution", so.Resolution)
	size := descriptor.New("point")
	size.PutDouble("width", so.Size.Width)
	size.PutDouble("height", so.Size.Height)
	out.PutObject("size", size)
	corners := make([]descriptor.Value, len(so.Transform))
	for i, f := range so.Transform {
		corners[i] = descriptor.Double(f)
	}
	out.Put("nonAffineTransform", descriptor.ListOf(corners...))
	return out
}
