package hostsim

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Mask is a layer, vector or filter mask.
type Mask struct {
	Enabled  bool    `yaml:"enabled"`
	Linked   bool    `yaml:"linked"`
	Density  float64 `yaml:"density"`
	Feather  float64 `yaml:"feather"`
	Inverted bool    `yaml:"inverted,omitempty"`
}

func newMask() *Mask { return &Mask{Enabled: true, Linked: true, Density: 100} }

// SmartObject is the placed content of a smart object layer.
type SmartObject struct {
	// Link is the linked asset path, empty for embedded contents.
	Link       string          `yaml:"link,omitempty"`
	Resolution float64         `yaml:"resolution"`
	Size       types.Size      `yaml:"size"`
	Transform  types.Transform `yaml:"transform,flow"`
	Comp       int64           `yaml:"comp"`
	Comps      []types.Comp    `yaml:"comps,omitempty"`
}

// Layer is one entry of a document stack. Kind holds the payload marker of
// special content layers: "text", "3D", "video", or an adjustment class
// such as "curves". Smart objects carry SmartObject instead.
type Layer struct {
	ID          int64           `yaml:"id"`
	Name        string          `yaml:"name"`
	Type        types.LayerType `yaml:"type"`
	Kind        string          `yaml:"kind,omitempty"`
	Visible     bool            `yaml:"visible"`
	Opacity     float64         `yaml:"opacity"`
	FillOpacity float64         `yaml:"fill_opacity"`
	BlendMode   string          `yaml:"blend_mode"`
	Color       string          `yaml:"color"`
	Background  bool            `yaml:"background,omitempty"`
	Clipped     bool            `yaml:"clipped,omitempty"`
	Bounds      types.Bounds    `yaml:"bounds"`
	Locks       types.Locks     `yaml:"locks"`
	Modified    float64         `yaml:"modified,omitempty"`
	Inverted    bool            `yaml:"inverted,omitempty"`
	LayerMask   *Mask           `yaml:"layer_mask,omitempty"`
	VectorMask  *Mask           `yaml:"vector_mask,omitempty"`
	FilterMask  *Mask           `yaml:"filter_mask,omitempty"`
	SmartObject *SmartObject    `yaml:"smart_object,omitempty"`
}

func defaultLayer() Layer {
	return Layer{
		Type:        types.LayerContent,
		Visible:     true,
		Opacity:     100,
		FillOpacity: 100,
		BlendMode:   "normal",
		Color:       "none",
	}
}

// ContentLayer returns a visible normal layer with host defaults.
func ContentLayer(id int64, name string) *Layer {
	l := defaultLayer()
	l.ID, l.Name = id, name
	return &l
}

// BackgroundLayer returns a locked background layer.
func BackgroundLayer(id int64) *Layer {
	l := ContentLayer(id, "Background")
	l.Background = true
	l.Locks.All = true
	return l
}

// GroupStart returns a group start marker.
func GroupStart(id int64, name string) *Layer {
	l := ContentLayer(id, name)
	l.Type = types.LayerGroupStart
	l.BlendMode = "passThrough"
	return l
}

// GroupEnd returns a group end marker.
func GroupEnd(id int64) *Layer {
	l := ContentLayer(id, "</Layer group>")
	l.Type = types.LayerGroupEnd
	return l
}

func (l *Layer) clone() *Layer {
	c := *l
	if l.LayerMask != nil {
		m := *l.LayerMask
		c.LayerMask = &m
	}
	if l.VectorMask != nil {
		m := *l.VectorMask
		c.VectorMask = &m
	}
	if l.FilterMask != nil {
		m := *l.FilterMask
		c.FilterMask = &m
	}
	if l.SmartObject != nil {
		so := *l.SmartObject
		so.Comps = append([]types.Comp(nil), l.SmartObject.Comps...)
		c.SmartObject = &so
	}
	return &c
}

// Document is an open document. Layers are ordered bottom to top.
type Document struct {
	ID         int64    `yaml:"id"`
	Name       string   `yaml:"name,omitempty"`
	Width      float64  `yaml:"width"`
	Height     float64  `yaml:"height"`
	Resolution float64  `yaml:"resolution"`
	Selection  bool     `yaml:"selection,omitempty"`
	Layers     []*Layer `yaml:"layers"`
	// Selected lists the active layer ids in selection order. The last one is
	// the current target.
	Selected []int64 `yaml:"selected,flow,omitempty"`

	// Channel is the painting target of the current layer: "RGB", "mask" or
	// "vectorMask".
	Channel     string `yaml:"channel,omitempty"`
	MaskVisible bool   `yaml:"mask_visible,omitempty"`

	isolated map[int64]bool
}

func (d *Document) hasBackground() bool {
	return len(d.Layers) > 0 && d.Layers[0].Background
}

// numberOfLayers excludes the background.
func (d *Document) numberOfLayers() int {
	if d.hasBackground() {
		return len(d.Layers) - 1
	}
	return len(d.Layers)
}

// reportedID is the id the host reports: 0 for a background that is the
// only layer.
func (d *Document) reportedID(l *Layer) int64 {
	if l.Background && len(d.Layers) == 1 {
		return 0
	}
	return l.ID
}

func (d *Document) position(id int64) int {
	for i, l := range d.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) layer(id int64) (*Layer, int, error) {
	p := d.position(id)
	if p < 0 {
		return nil, -1, fmt.Errorf("%w: id %d", ErrNoSuchLayer, id)
	}
	return d.Layers[p], p, nil
}

// remotePosition maps a remote index to a slice position. With a background
// the index counts from 0 at the background.
func (d *Document) remotePosition(index int) (int, error) {
	p := index - 1
	if d.hasBackground() {
		p = index
	}
	if p < 0 || p >= len(d.Layers) {
		return -1, fmt.Errorf("%w: index %d", ErrNoSuchLayer, index)
	}
	return p, nil
}

// target returns the current target layer.
func (d *Document) target() (*Layer, int, error) {
	if len(d.Selected) == 0 {
		if len(d.Layers) == 1 && d.hasBackground() {
			return d.Layers[0], 0, nil
		}
		return nil, -1, fmt.Errorf("%w: no target layer", ErrNoSuchLayer)
	}
	return d.layer(d.Selected[len(d.Selected)-1])
}

func (d *Document) nextID() int64 {
	var max int64
	for _, l := range d.Layers {
		if l.ID > max {
			max = l.ID
		}
	}
	return max + 1
}

func (d *Document) selectOnly(id int64) {
	d.Selected = []int64{id}
	d.Channel = "RGB"
	d.MaskVisible = false
}

func (d *Document) deselect(id int64) {
	out := d.Selected[:0]
	for _, s := range d.Selected {
		if s != id {
			out = append(out, s)
		}
	}
	d.Selected = out
}

// insert places l at slice position p.
func (d *Document) insert(p int, l ...*Layer) {
	rest := append([]*Layer{}, d.Layers[p:]...)
	d.Layers = append(append(d.Layers[:p], l...), rest...)
}

func (d *Document) removeAt(p int) *Layer {
	l := d.Layers[p]
	d.Layers = append(d.Layers[:p], d.Layers[p+1:]...)
	return l
}

// groupSpan returns the slice positions of the group whose start marker is
// at p: its end marker position and p.
func (d *Document) groupSpan(p int) (int, error) {
	depth := 0
	for i := p; i >= 0; i-- {
		switch d.Layers[i].Type {
		case types.LayerGroupStart:
			depth++
		case types.LayerGroupEnd:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: group %d has no end marker", ErrRejected, d.Layers[p].ID)
}

// selectedPositions returns the slice positions of the selection, ascending.
func (d *Document) selectedPositions() []int {
	var out []int
	for i, l := range d.Layers {
		for _, id := range d.Selected {
			if l.ID == id {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
