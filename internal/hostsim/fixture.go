// YAML fixtures describing open documents and placeable assets.
package hostsim

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Fixture is the YAML form of a host.
type Fixture struct {
	// Active is the active document id. Zero selects the first document.
	Active    int64            `yaml:"active,omitempty"`
	Documents []*Document      `yaml:"documents"`
	Assets    map[string]Asset `yaml:"assets,omitempty"`
}

// UnmarshalYAML fills omitted layer fields with host defaults.
func (l *Layer) UnmarshalYAML(node *yaml.Node) error {
	type plain Layer
	p := plain(defaultLayer())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*l = Layer(p)
	return nil
}

// UnmarshalYAML fills omitted mask fields with the defaults of a new mask.
func (m *Mask) UnmarshalYAML(node *yaml.Node) error {
	type plain Mask
	p := plain(*newMask())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = Mask(p)
	return nil
}

// LoadFixture builds a host from a YAML fixture.
func LoadFixture(r io.Reader) (*Host, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	h := New(f.Documents...)
	for path, a := range f.Assets {
		h.AddAsset(path, a)
	}
	if f.Active != 0 {
		if err := h.MakeActiveDocument(f.Active); err != nil {
			return nil, fmt.Errorf("fixture active document: %w", err)
		}
	}
	return h, nil
}

// Fixture returns the current state of h in fixture form.
func (h *Host) Fixture() Fixture {
	f := Fixture{Active: h.active, Documents: h.docs}
	if len(h.assets) > 0 {
		f.Assets = h.assets
	}
	return f
}

// WriteFixture writes the current state of h as YAML.
func (h *Host) WriteFixture(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(h.Fixture()); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

func (f Fixture) validate() error {
	if len(f.Documents) == 0 {
		return errors.New("fixture has no documents")
	}
	docIDs := make(map[int64]bool)
	for _, d := range f.Documents {
		if d.ID <= 0 {
			return fmt.Errorf("fixture document ids must be positive, got %d", d.ID)
		}
		if docIDs[d.ID] {
			return fmt.Errorf("duplicate fixture document %d", d.ID)
		}
		docIDs[d.ID] = true
		if err := d.validate(); err != nil {
			return fmt.Errorf("document %d: %w", d.ID, err)
		}
	}
	return nil
}

func (d *Document) validate() error {
	if len(d.Layers) == 0 {
		return errors.New("no layers")
	}
	ids := make(map[int64]bool)
	depth := 0
	for i, l := range d.Layers {
		if l.ID <= 0 {
			return fmt.Errorf("layer ids must be positive, got %d", l.ID)
		}
		if ids[l.ID] {
			return fmt.Errorf("duplicate layer id %d", l.ID)
		}
		ids[l.ID] = true
		if l.Background && i != 0 {
			return fmt.Errorf("background layer %d is not at the bottom", l.ID)
		}
		switch l.Type {
		case types.LayerContent:
		case types.LayerGroupEnd:
			depth++
		case types.LayerGroupStart:
			depth--
			if depth < 0 {
				return fmt.Errorf("group %d has no end marker: %w", l.ID, types.ErrUnbalancedGroups)
			}
		default:
			return fmt.Errorf("layer %d has unknown type %q", l.ID, l.Type)
		}
	}
	if depth != 0 {
		return types.ErrUnbalancedGroups
	}
	for _, id := range d.Selected {
		if !ids[id] {
			return fmt.Errorf("selected layer %d does not exist", id)
		}
	}
	return nil
}
