package layers

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

type refKind uint8

const (
	refCurrent refKind = iota
	refID
	refIndex
)

// LayerRef is a logical reference to a layer: the current target, a stable
// id, or a 1-based position counted from the bottom of the stack.
// Positions change whenever the stack changes; hold ids across mutations.
type LayerRef struct {
	kind  refKind
	id    int64
	index int
}

// Current refers to the host's current target layer.
var Current = LayerRef{}

// ByID refers to a layer by stable id. Id 0 is the sole background layer.
func ByID(id int64) LayerRef { return LayerRef{kind: refID, id: id} }

// ByIndex refers to a layer by 1-based stack position.
func ByIndex(i int) LayerRef { return LayerRef{kind: refIndex, index: i} }

// IsCurrent reports whether r refers to the current target.
func (r LayerRef) IsCurrent() bool { return r.kind == refCurrent }

// ID returns the stable id of an id reference.
func (r LayerRef) ID() (int64, bool) { return r.id, r.kind == refID }

func (r LayerRef) String() string {
	switch r.kind {
	case refID:
		return fmt.Sprintf("id %d", r.id)
	case refIndex:
		return fmt.Sprintf("index %d", r.index)
	}
	return "current"
}

func targetElement() descriptor.RefElement {
	return descriptor.EnumElement(classLayer, enumOrdinal, ordTarget)
}

// backgroundElement addresses the background layer. Hosts reject id
// lookups of the sole background, whose id is reported as 0.
func backgroundElement() descriptor.RefElement {
	return descriptor.PropertyElement(classLayer, propBackground)
}

// Resolve converts ref into the address element sent to the host.
func (s *Session) Resolve(ref LayerRef) (descriptor.RefElement, error) {
	switch ref.kind {
	case refCurrent:
		return targetElement(), nil
	case refID:
		if ref.id < 0 {
			return descriptor.RefElement{}, fmt.Errorf("%w: layer id %d", types.ErrEntityNotFound, ref.id)
		}
		if ref.id == 0 {
			return backgroundElement(), nil
		}
		return descriptor.IDElement(classLayer, ref.id), nil
	}

	count, err := s.Count()
	if err != nil {
		return descriptor.RefElement{}, err
	}
	i := ref.index
	if count == 0 {
		if i != 1 {
			return descriptor.RefElement{}, fmt.Errorf("%w: index %d of a background-only document", types.ErrEntityNotFound, i)
		}
		return backgroundElement(), nil
	}
	if i < 1 || i > count {
		return descriptor.RefElement{}, fmt.Errorf("%w: index %d out of range 1..%d", types.ErrEntityNotFound, i, count)
	}
	background, err := s.HasBackground()
	if err != nil {
		return descriptor.RefElement{}, err
	}
	if background {
		if i == 1 {
			return backgroundElement(), nil
		}
		return descriptor.IndexElement(classLayer, i-1), nil
	}
	return descriptor.IndexElement(classLayer, i), nil
}

// address returns a reference holding only the resolved layer address.
func (s *Session) address(ref LayerRef) (*descriptor.Reference, error) {
	elem, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return descriptor.NewReference(elem), nil
}

// propertyAddress returns a reference to one key of the layer at ref.
func (s *Session) propertyAddress(ref LayerRef, key string) (*descriptor.Reference, error) {
	elem, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return descriptor.NewReference(descriptor.PropertyElement(classProperty, key), elem), nil
}

// fetch returns the layer descriptor at ref, limited to key when key is not
// empty.
func (s *Session) fetch(ref LayerRef, key string) (*descriptor.Descriptor, error) {
	var (
		addr *descriptor.Reference
		err  error
	)
	if key == "" {
		addr, err = s.address(ref)
	} else {
		addr, err = s.propertyAddress(ref, key)
	}
	if err != nil {
		return nil, err
	}
	return s.query(addr)
}

// Count returns the number of layers, counting the background only when
// other layers exist. A background-only document has count 0.
func (s *Session) Count() (int, error) {
	if s.cache != nil {
		return s.cache.count, nil
	}
	n, err := s.remoteCount()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	background, err := s.remoteHasBackground()
	if err != nil {
		return 0, err
	}
	if background {
		n++
	}
	return n, nil
}

// HasBackground reports whether the document has a background layer.
func (s *Session) HasBackground() (bool, error) {
	if s.cache != nil {
		return s.cache.background, nil
	}
	n, err := s.remoteCount()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	return s.remoteHasBackground()
}

func (s *Session) remoteCount() (int, error) {
	d, err := s.documentProperty(keyLayerCount)
	if err != nil {
		return 0, err
	}
	n, err := d.GetInt(keyLayerCount)
	if err != nil {
		return 0, fmt.Errorf("read layer count: %w", err)
	}
	return int(n), nil
}

func (s *Session) remoteHasBackground() (bool, error) {
	d, err := s.documentProperty(keyHasBackground)
	if err != nil {
		return false, err
	}
	if !d.Has(keyHasBackground) {
		return false, nil
	}
	return d.GetBool(keyHasBackground)
}

// layerID returns the stable id of ref, querying the host unless ref is
// already an id.
func (s *Session) layerID(ref LayerRef) (int64, error) {
	if id, ok := ref.ID(); ok {
		if id < 0 {
			return 0, fmt.Errorf("%w: layer id %d", types.ErrEntityNotFound, id)
		}
		return id, nil
	}
	d, err := s.fetch(ref, keyLayerID)
	if err != nil {
		return 0, err
	}
	id, err := d.GetInt(keyLayerID)
	if err != nil {
		return 0, fmt.Errorf("read layer id: %w", err)
	}
	return id, nil
}

// LayerID returns the stable id of the layer at ref.
func (s *Session) LayerID(ref LayerRef) (int64, error) {
	id, err := s.layerID(ref)
	if err != nil {
		return 0, fail("layer id", ref, err)
	}
	return id, nil
}

// layerType returns the structural kind of ref.
func (s *Session) layerType(ref LayerRef) (types.LayerType, error) {
	d, err := s.fetch(ref, keyLayerSection)
	if err != nil {
		return "", err
	}
	v, ok := d.Get(keyLayerSection)
	if !ok {
		return types.LayerContent, nil
	}
	return layerTypes.Decode(v)
}
