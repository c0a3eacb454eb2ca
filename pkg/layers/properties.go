package layers

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// builtinProperties returns the default property table.
func builtinProperties() []Property {
	props := []Property{
		{
			Name: "itemIndex", Key: "itemIndex", Type: descriptor.WireInteger,
			Set: setItemIndex,
		},
		{
			Name: "layerId", Key: keyLayerID, Type: descriptor.WireInteger,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				if id, ok := ref.ID(); ok && id == 0 {
					return int64(0), nil
				}
				return decodeKey(payload, p)
			},
		},
		{
			Name: "name", Key: keyName, Type: descriptor.WireString, Default: "Layer",
			Set: activeSetter,
		},
		enumProperty("color", keyColor, layerColors, activeSetter),
		{
			Name: "visible", Key: keyVisible, Type: descriptor.WireBoolean, Default: true,
			Set: func(s *Session, ref LayerRef, p *Property, value any) error {
				visible, ok := value.(bool)
				if !ok {
					return fmt.Errorf("%w: visible wants a boolean, got %T", types.ErrInvalidArgument, value)
				}
				return s.setVisible(ref, visible)
			},
		},
		{
			Name: "opacity", Key: keyOpacity, Type: descriptor.WirePercent, Default: 100.0,
			Set: opacitySetter,
		},
		{
			Name: "fillOpacity", Key: "fillOpacity", Type: descriptor.WirePercent, Default: 100.0,
			ContentOnly: true,
			Set:         opacitySetter,
		},
		enumProperty("blendMode", keyMode, blendModes, directSetter),
		{
			Name: "type", Key: keyLayerSection, Type: descriptor.WireEnumerated,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				v, ok := payload.Get(p.Key)
				if !ok {
					return types.LayerContent, nil
				}
				return layerTypes.Decode(v)
			},
		},
		{
			Name: "kind", ContentOnly: true,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				return detectKind(payload), nil
			},
		},
		boundsProperty("bounds"),
		boundsProperty("boundsNoEffects"),
		boundsProperty("boundsNoMask"),
		{Name: "group", Key: "group", Type: descriptor.WireBoolean},
		{
			Name: "isBackgroundLayer", Key: propBackground, Type: descriptor.WireBoolean,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				if id, ok := ref.ID(); ok && id == 0 {
					return true, nil
				}
				return optionalBool(payload, p.Key)
			},
		},
		flagProperty("hasLayerMask", "hasUserMask"),
		flagProperty("hasVectorMask", "hasVectorMask"),
		flagProperty("hasFilterMask", "hasFilterMask"),
		{
			Name: "allLocked", Key: keyLayerLocking, Type: descriptor.WireBoolean,
			Get: lockGetter("protectAll"),
			Set: lockSetter("protectAll"),
		},
		{
			Name: "pixelsLocked", Key: keyLayerLocking, Type: descriptor.WireBoolean,
			ContentOnly: true,
			Get:         lockGetter("protectComposite"),
			Set:         lockSetter("protectComposite"),
		},
		{
			Name: "positionLocked", Key: keyLayerLocking, Type: descriptor.WireBoolean,
			ContentOnly: true,
			Get:         lockGetter("protectPosition"),
			Set:         lockSetter("protectPosition"),
		},
		{
			Name: "transparentPixelsLocked", Key: keyLayerLocking, Type: descriptor.WireBoolean,
			ContentOnly: true,
			Get:         lockGetter("protectTransparency"),
			Set:         lockSetter("protectTransparency"),
		},
		{
			Name: "locks", Key: keyLayerLocking, Type: descriptor.WireObject,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				lk, err := lockingObject(payload)
				if err != nil {
					return nil, err
				}
				var l types.Locks
				l.All, _ = optionalBool(lk, "protectAll")
				l.Pixels, _ = optionalBool(lk, "protectComposite")
				l.Position, _ = optionalBool(lk, "protectPosition")
				l.Transparency, _ = optionalBool(lk, "protectTransparency")
				return l, nil
			},
		},
		{
			Name: "xmpMetadata", Key: "metadata", Type: descriptor.WireObject,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				md, err := objectKey(payload, p.Key)
				if err != nil {
					return nil, err
				}
				return md.Clone(), nil
			},
		},
		{
			Name: "lastModified", Key: "metadata", Type: descriptor.WireObject,
			Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
				md, err := objectKey(payload, p.Key)
				if err != nil {
					return nil, err
				}
				seconds, err := md.GetNumber("layerTime")
				if err != nil {
					return nil, fmt.Errorf("%w: layer has no modification time", types.ErrPreconditionNotMet)
				}
				return types.Modified(seconds), nil
			},
		},
	}
	props = append(props, maskProperties()...)
	props = append(props, smartObjectProperties()...)
	return props
}

// maskProperties returns the gated layer, vector and filter mask
// attributes.
func maskProperties() []Property {
	hasLayer := requireFlag("hasLayerMask")
	hasVector := requireFlag("hasVectorMask")
	hasFilter := requireFlag("hasFilterMask")
	gated := func(name, key string, wt descriptor.WireType, req Check) Property {
		return Property{Name: name, Key: key, Type: wt, Requires: req, Set: directSetter}
	}
	return []Property{
		gated("layerMaskEnabled", "userMaskEnabled", descriptor.WireBoolean, hasLayer),
		gated("layerMaskLinked", "userMaskLinked", descriptor.WireBoolean, hasLayer),
		gated("layerMaskDensity", "userMaskDensity", descriptor.WirePercent, hasLayer),
		gated("layerMaskFeather", "userMaskFeather", descriptor.WirePixels, hasLayer),
		gated("vectorMaskEnabled", "vectorMaskEnabled", descriptor.WireBoolean, hasVector),
		{
			Name: "vectorMaskLinked", Key: "vectorMaskLinked", Type: descriptor.WireBoolean,
			WriteOnly: true, Requires: hasVector, Set: directSetter,
		},
		gated("vectorMaskDensity", "vectorMaskDensity", descriptor.WirePercent, hasVector),
		gated("vectorMaskFeather", "vectorMaskFeather", descriptor.WirePixels, hasVector),
		gated("filterMaskDensity", "filterMaskDensity", descriptor.WirePercent, hasFilter),
		gated("filterMaskFeather", "filterMaskFeather", descriptor.WirePixels, hasFilter),
	}
}

func boundsProperty(name string) Property {
	return Property{
		Name: name, Key: name, Type: descriptor.WireObject,
		Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
			obj, err := objectKey(payload, p.Key)
			if err != nil {
				return nil, err
			}
			return decodeBounds(obj)
		},
	}
}

func flagProperty(name, key string) Property {
	return Property{
		Name: name, Key: key, Type: descriptor.WireBoolean,
		Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
			return optionalBool(payload, p.Key)
		},
	}
}

// enumProperty registers an enumerated property backed by table.
func enumProperty[T ~string](name, key string, table *descriptor.EnumTable[T], set Setter) Property {
	return Property{
		Name: name, Key: key, Type: descriptor.WireEnumerated,
		Get: func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
			v, ok := payload.Get(p.Key)
			if !ok {
				return nil, fmt.Errorf("%w: layer has no %s", types.ErrPreconditionNotMet, p.Key)
			}
			return table.Decode(v)
		},
		Set: func(s *Session, ref LayerRef, p *Property, value any) error {
			native, ok := enumValue[T](value)
			if !ok {
				return fmt.Errorf("%w: %s wants %T, got %T", types.ErrInvalidArgument, name, native, value)
			}
			wire, err := table.Encode(native)
			if err != nil {
				return err
			}
			return set(s, ref, p, wire)
		},
	}
}

// encodeFor encodes value for p unless it is already a wire Value.
func encodeFor(p *Property, value any) (descriptor.Value, error) {
	if v, ok := value.(descriptor.Value); ok {
		return v, nil
	}
	v, err := descriptor.Encode(value, p.Type)
	if err != nil {
		return descriptor.Value{}, fmt.Errorf("%w: %s: %v", types.ErrInvalidArgument, p.Name, err)
	}
	return v, nil
}

// directSetter writes p.Key on the addressed layer.
func directSetter(s *Session, ref LayerRef, p *Property, value any) error {
	v, err := encodeFor(p, value)
	if err != nil {
		return err
	}
	return s.setKey(ref, p.Key, v)
}

// activeSetter makes the layer active and writes p.Key on the current
// target. Name and color edits only apply to the active layer.
func activeSetter(s *Session, ref LayerRef, p *Property, value any) error {
	v, err := encodeFor(p, value)
	if err != nil {
		return err
	}
	return s.onActive(ref, func() error {
		return s.setKey(Current, p.Key, v)
	})
}

// opacitySetter writes a percentage while the layer is visible, restoring
// the original visibility afterwards. Hosts reject opacity writes on hidden
// layers.
func opacitySetter(s *Session, ref LayerRef, p *Property, value any) error {
	v, err := encodeFor(p, value)
	if err != nil {
		return err
	}
	if pct := descriptor.PercentFromWire(v.Float); pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %s %v outside 0..100", types.ErrInvalidArgument, p.Name, pct)
	}
	return s.withVisible(ref, func() error {
		return s.setKey(ref, p.Key, v)
	})
}

func setItemIndex(s *Session, ref LayerRef, p *Property, value any) error {
	v, err := encodeFor(p, value)
	if err != nil {
		return err
	}
	index := int(v.Int)
	background, err := s.getBool(ref, "isBackgroundLayer")
	if err != nil {
		return err
	}
	if background {
		return fmt.Errorf("%w: the background layer cannot be moved", types.ErrPreconditionNotMet)
	}
	hasBackground, err := s.HasBackground()
	if err != nil {
		return err
	}
	if hasBackground && index == 1 {
		return fmt.Errorf("%w: no layer can move below the background", types.ErrPreconditionNotMet)
	}
	to, err := s.Resolve(ByIndex(index))
	if err != nil {
		return err
	}
	addr, err := s.address(ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	payload.PutReference(keyTo, descriptor.NewReference(to))
	payload.PutBool(keyAdjustment, false)
	payload.PutInt(keyVersion, 5)
	_, err = s.submit(cmdMove, payload)
	return err
}

func lockingObject(payload *descriptor.Descriptor) (*descriptor.Descriptor, error) {
	if !payload.Has(keyLayerLocking) {
		return descriptor.New(classLayerLocking), nil
	}
	return payload.GetObject(keyLayerLocking)
}

func lockGetter(sub string) Getter {
	return func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
		lk, err := lockingObject(payload)
		if err != nil {
			return nil, err
		}
		return optionalBool(lk, sub)
	}
}

// lockSetter writes one layerLocking flag. Background layers cannot be
// locked; unlocking them converts them to a normal layer.
func lockSetter(sub string) Setter {
	return func(s *Session, ref LayerRef, p *Property, value any) error {
		locked, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a boolean, got %T", types.ErrInvalidArgument, p.Name, value)
		}
		background, err := s.getBool(ref, "isBackgroundLayer")
		if err != nil {
			return err
		}
		if background {
			if sub == "protectAll" && !locked {
				return s.makeLayerFromBackground(LayerSpec{})
			}
			return fmt.Errorf("%w: background layer locks cannot be changed", types.ErrPreconditionNotMet)
		}
		return s.onActive(ref, func() error {
			lk := descriptor.New(classLayerLocking)
			lk.PutBool(sub, locked)
			to := descriptor.New(classLayer)
			to.PutObject(keyLayerLocking, lk)
			return s.setLayer(Current, to)
		})
	}
}

// setLayer sends a set command applying the keys of to on ref.
func (s *Session) setLayer(ref LayerRef, to *descriptor.Descriptor) error {
	addr, err := s.address(ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.PutReference(keyTarget, addr)
	payload.PutObject(keyTo, to)
	_, err = s.submit(cmdSet, payload)
	return err
}

// setKey sets one key on ref.
func (s *Session) setKey(ref LayerRef, key string, v descriptor.Value) error {
	to := descriptor.New(classLayer)
	to.Put(key, v)
	return s.setLayer(ref, to)
}

// setVisible shows or hides ref.
func (s *Session) setVisible(ref LayerRef, visible bool) error {
	addr, err := s.address(ref)
	if err != nil {
		return err
	}
	payload := descriptor.New("")
	payload.Put(keyTarget, descriptor.ListOf(descriptor.Ref(addr)))
	command := cmdHide
	if visible {
		command = cmdShow
	}
	_, err = s.submit(command, payload)
	return err
}

// withVisible runs fn with ref shown, hiding it again afterwards if it was
// hidden. The original visibility is restored even when fn fails.
func (s *Session) withVisible(ref LayerRef, fn func() error) (err error) {
	visible, err := s.getBool(ref, "visible")
	if err != nil {
		return err
	}
	if visible {
		return fn()
	}
	if err := s.setVisible(ref, true); err != nil {
		return err
	}
	defer func() {
		if herr := s.setVisible(ref, false); herr != nil {
			err = errors.Join(err, herr)
		}
	}()
	return fn()
}

func optionalBool(d *descriptor.Descriptor, key string) (bool, error) {
	if !d.Has(key) {
		return false, nil
	}
	return d.GetBool(key)
}

func objectKey(d *descriptor.Descriptor, key string) (*descriptor.Descriptor, error) {
	if !d.Has(key) {
		return nil, fmt.Errorf("%w: layer has no %s", types.ErrPreconditionNotMet, key)
	}
	return d.GetObject(key)
}
