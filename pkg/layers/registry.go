package layers

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Getter derives a property value from the fetched payload. payload holds
// only Property.Key when a key is registered, otherwise the full layer
// descriptor.
type Getter func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error)

// Setter writes a property value to the layer at ref.
type Setter func(s *Session, ref LayerRef, p *Property, value any) error

// Check verifies a precondition before a property is read or written.
type Check func(s *Session, ref LayerRef) error

// Property describes one registered layer property.
type Property struct {
	Name string
	// Key is the wire key fetched for reads. Empty means the full layer
	// descriptor is fetched.
	Key     string
	Type    descriptor.WireType
	Default any
	// ContentOnly properties fail with ErrKindMismatch on group layers.
	ContentOnly bool
	// WriteOnly properties cannot be read back from the host.
	WriteOnly bool
	Requires  Check
	Get       Getter
	Set       Setter
}

// ReadOnly reports whether the property has no setter.
func (p *Property) ReadOnly() bool { return p.Set == nil }

// Registry is an immutable table of layer properties.
type Registry struct {
	props map[string]*Property
	names []string
}

// Registry construction errors.
var (
	ErrDuplicateProperty = errors.New("duplicate property name")
	ErrEmptyPropertyName = errors.New("property name must not be empty")
)

// NewRegistry builds a registry from props.
func NewRegistry(props ...Property) (*Registry, error) {
	r := &Registry{props: make(map[string]*Property, len(props))}
	for i := range props {
		p := props[i]
		if p.Name == "" {
			return nil, ErrEmptyPropertyName
		}
		if _, dup := r.props[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProperty, p.Name)
		}
		r.props[p.Name] = &p
		r.names = append(r.names, p.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the built-in property table.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(builtinProperties()...)
		if err != nil {
			panic(fmt.Sprintf("layers: built-in registry: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Lookup returns the property registered under name.
func (r *Registry) Lookup(name string) (*Property, bool) {
	p, ok := r.props[name]
	return p, ok
}

// Names returns the registered property names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Parse converts a textual value to the native form expected by the
// property's setter.
func (r *Registry) Parse(name, text string) (any, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProperty, name)
	}
	switch p.Type {
	case descriptor.WireBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants a boolean: %v", types.ErrInvalidArgument, name, err)
		}
		return b, nil
	case descriptor.WireInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants an integer: %v", types.ErrInvalidArgument, name, err)
		}
		return i, nil
	case descriptor.WireDouble, descriptor.WirePercent, descriptor.WirePixels:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants a number: %v", types.ErrInvalidArgument, name, err)
		}
		return f, nil
	}
	return text, nil
}

// Snapshot is every readable property of one layer.
type Snapshot struct {
	LayerID int64
	Values  map[string]any
	Raw     *descriptor.Descriptor
}

// Get reads the property name of the layer at ref. Names missing from the
// registry are looked up as raw keys of the full layer descriptor.
func (s *Session) Get(ref LayerRef, name string) (any, error) {
	v, err := s.get(ref, name)
	if err != nil {
		return nil, fail("get "+name, ref, err)
	}
	return v, nil
}

func (s *Session) get(ref LayerRef, name string) (any, error) {
	p, ok := s.registry.Lookup(name)
	if !ok {
		return s.rawValue(ref, name)
	}
	if p.WriteOnly {
		return nil, fmt.Errorf("%w: %s can only be set", types.ErrUnsupportedProperty, name)
	}
	if p.ContentOnly {
		if err := s.requireContent(ref); err != nil {
			return nil, err
		}
	}
	if p.Requires != nil {
		if err := p.Requires(s, ref); err != nil {
			return nil, err
		}
	}
	payload, err := s.fetch(ref, p.Key)
	if err != nil {
		return nil, err
	}
	if p.Get != nil {
		return p.Get(s, ref, p, payload)
	}
	return decodeKey(payload, p)
}

// decodeKey decodes p.Key from payload using p.Type.
func decodeKey(payload *descriptor.Descriptor, p *Property) (any, error) {
	v, ok := payload.Get(p.Key)
	if !ok {
		return nil, fmt.Errorf("%w: layer has no %s", types.ErrPreconditionNotMet, p.Key)
	}
	return descriptor.Decode(v, p.Type)
}

// rawValue looks name up in the full layer descriptor.
func (s *Session) rawValue(ref LayerRef, name string) (any, error) {
	full, err := s.fetch(ref, "")
	if err != nil {
		return nil, err
	}
	v, ok := full.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProperty, name)
	}
	return descriptor.Native(v), nil
}

// Set writes value to the property name of the layer at ref.
func (s *Session) Set(ref LayerRef, name string, value any) error {
	return fail("set "+name, ref, s.set(ref, name, value))
}

func (s *Session) set(ref LayerRef, name string, value any) error {
	p, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedProperty, name)
	}
	if p.Set == nil {
		return fmt.Errorf("%w: %s", types.ErrReadOnlyProperty, name)
	}
	typ, err := s.layerType(ref)
	if err != nil {
		return err
	}
	if typ == types.LayerGroupEnd {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedOnMarker, name)
	}
	if p.ContentOnly && typ != types.LayerContent {
		return fmt.Errorf("%w: %s is only valid on content layers", types.ErrKindMismatch, name)
	}
	if p.Requires != nil {
		if err := p.Requires(s, ref); err != nil {
			return err
		}
	}
	return p.Set(s, ref, p, value)
}

// GetAll reads every readable property of the layer at ref. Properties whose
// precondition or kind check fails are omitted.
func (s *Session) GetAll(ref LayerRef) (*Snapshot, error) {
	raw, err := s.fetch(ref, "")
	if err != nil {
		return nil, fail("get all", ref, err)
	}
	id, err := s.layerID(ref)
	if err != nil {
		return nil, fail("get all", ref, err)
	}
	snap := &Snapshot{LayerID: id, Values: make(map[string]any), Raw: raw}
	target := ByID(id)
	for _, name := range s.registry.Names() {
		p, _ := s.registry.Lookup(name)
		if p.WriteOnly {
			continue
		}
		v, err := s.get(target, name)
		if err != nil {
			if errors.Is(err, types.ErrPreconditionNotMet) || errors.Is(err, types.ErrKindMismatch) {
				continue
			}
			return nil, fail("get all "+name, target, err)
		}
		snap.Values[name] = v
	}
	return snap, nil
}

// requireContent fails with ErrKindMismatch unless ref is a content layer.
func (s *Session) requireContent(ref LayerRef) error {
	typ, err := s.layerType(ref)
	if err != nil {
		return err
	}
	if typ != types.LayerContent {
		return fmt.Errorf("%w: layer is %s", types.ErrKindMismatch, typ)
	}
	return nil
}

// requireFlag returns a Check that a boolean property is true.
func requireFlag(name string) Check {
	return func(s *Session, ref LayerRef) error {
		v, err := s.get(ref, name)
		if err != nil {
			return err
		}
		if ok, _ := v.(bool); !ok {
			return fmt.Errorf("%w: %s is false", types.ErrPreconditionNotMet, name)
		}
		return nil
	}
}

func (s *Session) getBool(ref LayerRef, name string) (bool, error) {
	v, err := s.get(ref, name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T", descriptor.ErrWrongType, name, v)
	}
	return b, nil
}
