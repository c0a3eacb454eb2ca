// Layer groups.
package layers

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// GroupOptions controls MakeGroup.
type GroupOptions struct {
	// Members are moved into the new group. They replace the selection.
	Members []int64
	// FromSelection moves the selected layers into the new group. Implied
	// when Members is not empty.
	FromSelection bool
	Name          string
}

// IsGroup reports whether ref is a group start marker.
func (s *Session) IsGroup(ref LayerRef) (bool, error) {
	ok, err := s.isGroup(ref)
	if err != nil {
		return false, fail("is group", ref, err)
	}
	return ok, nil
}

func (s *Session) isGroup(ref LayerRef) (bool, error) {
	typ, err := s.layerType(ref)
	if err != nil {
		return false, err
	}
	return typ == types.LayerGroupStart, nil
}

// MakeGroup creates a group, optionally around existing layers, and returns
// the id of its start marker. The new group is left active.
func (s *Session) MakeGroup(opts GroupOptions) (int64, error) {
	id, err := s.makeGroup(opts)
	if err != nil {
		return 0, fail("make group", Current, err)
	}
	return id, nil
}

func (s *Session) makeGroup(opts GroupOptions) (int64, error) {
	payload := descriptor.New("")
	payload.PutReference(keyTarget, descriptor.NewReference(descriptor.ClassElement(classLayerSection)))
	if len(opts.Members) > 0 {
		if err := s.makeActive(opts.Members, ActivateOptions{}); err != nil {
			return 0, err
		}
	}
	if len(opts.Members) > 0 || opts.FromSelection {
		payload.PutReference(keyFrom, descriptor.NewReference(targetElement()))
	}
	if _, err := s.submit(cmdMake, payload); err != nil {
		return 0, err
	}
	if opts.Name != "" {
		if err := s.setKey(Current, keyName, descriptor.String(opts.Name)); err != nil {
			return 0, err
		}
	}
	return s.layerID(Current)
}

// MergeGroup flattens the group at ref into a single layer, which is left
// active.
func (s *Session) MergeGroup(ref LayerRef) error {
	group, err := s.isGroup(ref)
	if err != nil {
		return fail("merge group", ref, err)
	}
	if !group {
		return fail("merge group", ref, fmt.Errorf("%w: layer is not a group", types.ErrKindMismatch))
	}
	if err := s.activate(ref); err != nil {
		return fail("merge group", ref, err)
	}
	_, err = s.submit(cmdMerge, nil)
	return fail("merge group", ref, err)
}
