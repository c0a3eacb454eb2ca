package layers

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// smartObjectProperties returns the smartObject and smartObjectMore
// properties. All of them fail with ErrPreconditionNotMet on layers that are
// not smart objects.
func smartObjectProperties() []Property {
	return []Property{
		{
			Name: "smartObject", Key: keySmartObject, Type: descriptor.WireObject,
			Get: smartObjectGetter(func(so *descriptor.Descriptor) (any, error) {
				return so.Clone(), nil
			}),
		},
		{
			Name: "smartObject.link", Key: keySmartObject, Type: descriptor.WirePath,
			Requires: requireSmartObject,
			Get: smartObjectGetter(func(so *descriptor.Descriptor) (any, error) {
				v, ok := so.Get("link")
				if !ok || (v.Kind != descriptor.KindPath && v.Kind != descriptor.KindAlias) {
					return "", nil
				}
				return v.Str, nil
			}),
			Set: func(s *Session, ref LayerRef, p *Property, value any) error {
				file, ok := value.(string)
				if !ok || file == "" {
					return fmt.Errorf("%w: smartObject.link wants a file path, got %v", types.ErrInvalidArgument, value)
				}
				return s.onActive(ref, func() error {
					payload := descriptor.New("")
					payload.Put(keyTarget, descriptor.Path(file))
					_, err := s.submit(cmdPlacedRelink, payload)
					return err
				})
			},
		},
		{
			Name: "smartObject.compsList", Key: keySmartObject, Type: descriptor.WireObject,
			Get: smartObjectGetter(decodeComps),
		},
		{
			Name: "smartObjectMore", Key: keySmartObjectMore, Type: descriptor.WireObject,
			Get: moreGetter(func(more *descriptor.Descriptor) (any, error) {
				return more.Clone(), nil
			}),
		},
		{
			Name: "smartObjectMore.comp", Key: keySmartObjectMore, Type: descriptor.WireInteger,
			Requires: requireSmartObject,
			Get: moreGetter(func(more *descriptor.Descriptor) (any, error) {
				return more.GetInt("comp")
			}),
			Set: func(s *Session, ref LayerRef, p *Property, value any) error {
				v, err := encodeFor(p, value)
				if err != nil {
					return err
				}
				comp := v.Int
				if comp < 0 {
					comp = -1
				}
				return s.onActive(ref, func() error {
					payload := descriptor.New("")
					payload.PutReference(keyTarget, descriptor.NewReference(targetElement()))
					payload.PutInt(keyCompID, comp)
					_, err := s.submit(cmdPlacedSetComp, payload)
					return err
				})
			},
		},
		{
			Name: "smartObjectMore.resolution", Key: keySmartObjectMore, Type: descriptor.WireDouble,
			Get: moreGetter(func(more *descriptor.Descriptor) (any, error) {
				return more.GetNumber(keyResolution)
			}),
		},
		{
			Name: "smartObjectMore.size", Key: keySmartObjectMore, Type: descriptor.WireObject,
			Get: moreGetter(func(more *descriptor.Descriptor) (any, error) {
				return decodeSize(more)
			}),
		},
		{
			Name: "smartObjectMore.transform", Key: keySmartObjectMore, Type: descriptor.WireList,
			Get: moreGetter(func(more *descriptor.Descriptor) (any, error) {
				list, err := more.GetList("nonAffineTransform")
				if err != nil {
					return nil, err
				}
				return decodeTransform(list)
			}),
		},
	}
}

func smartObjectGetter(fn func(so *descriptor.Descriptor) (any, error)) Getter {
	return func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
		so, err := objectKey(payload, keySmartObject)
		if err != nil {
			return nil, err
		}
		return fn(so)
	}
}

func moreGetter(fn func(more *descriptor.Descriptor) (any, error)) Getter {
	return func(s *Session, ref LayerRef, p *Property, payload *descriptor.Descriptor) (any, error) {
		more, err := objectKey(payload, keySmartObjectMore)
		if err != nil {
			return nil, err
		}
		return fn(more)
	}
}

// requireSmartObject fails with ErrPreconditionNotMet unless ref is a smart
// object.
func requireSmartObject(s *Session, ref LayerRef) error {
	d, err := s.fetch(ref, keySmartObject)
	if err != nil {
		return err
	}
	if !d.Has(keySmartObject) {
		return fmt.Errorf("%w: layer is not a smart object", types.ErrPreconditionNotMet)
	}
	return nil
}

// decodeComps reads the comps list, last entry first so the result stacks in
// panel order.
func decodeComps(so *descriptor.Descriptor) (any, error) {
	comps := []types.Comp{}
	if !so.Has("compsList") {
		return comps, nil
	}
	holder, err := so.GetObject("compsList")
	if err != nil {
		return nil, err
	}
	if !holder.Has("compList") {
		return comps, nil
	}
	list, err := holder.GetList("compList")
	if err != nil {
		return nil, err
	}
	for i := len(list) - 1; i >= 0; i-- {
		v := list[i]
		if v.Kind != descriptor.KindObject {
			return nil, fmt.Errorf("%w: comp entry %d is %s", descriptor.ErrWrongType, i, v.Kind)
		}
		id, err := v.Object.GetInt("ID")
		if err != nil {
			return nil, err
		}
		name, err := v.Object.GetString(keyName)
		if err != nil {
			return nil, err
		}
		comps = append(comps, types.Comp{ID: id, Name: name})
	}
	return comps, nil
}

func decodeSize(more *descriptor.Descriptor) (types.Size, error) {
	obj, err := more.GetObject("size")
	if err != nil {
		return types.Size{}, err
	}
	w, err := obj.GetNumber(keyWidth)
	if err != nil {
		return types.Size{}, err
	}
	h, err := obj.GetNumber(keyHeight)
	if err != nil {
		return types.Size{}, err
	}
	return types.Size{Width: w, Height: h}, nil
}
