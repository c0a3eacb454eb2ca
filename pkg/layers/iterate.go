// Stack iteration.
package layers

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// VisitFunc is called for each layer with its 1-based position (or its
// position in the active list for ForEachActive) and stable id. Returning
// Stop ends the iteration without error; any other error aborts it and is
// returned.
type VisitFunc func(index int, id int64) error

// Stop is returned by a VisitFunc to end iteration early.
var Stop = errors.New("stop iteration")

// ForEach visits every layer bottom to top, or top to bottom when reverse is
// set. Layer count and background presence are read once and cached for
// the duration of the call. Adding or removing layers from visit is not
// supported, and ForEach must not be nested.
func (s *Session) ForEach(visit VisitFunc, reverse bool) error {
	if s.cache != nil {
		return fail("for each", Current, types.ErrNestedIteration)
	}
	count, err := s.Count()
	if err != nil {
		return fail("for each", Current, err)
	}
	background, err := s.HasBackground()
	if err != nil {
		return fail("for each", Current, err)
	}
	s.cache = &stackCache{count: count, background: background}
	defer func() { s.cache = nil }()

	for step := 0; step < count; step++ {
		index := step + 1
		if reverse {
			index = count - step
		}
		id, err := s.layerID(ByIndex(index))
		if err != nil {
			return fail("for each", ByIndex(index), err)
		}
		if err := visit(index, id); err != nil {
			if errors.Is(err, Stop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// ForEachActive visits the selected layers in selection order, or reversed.
// The index passed to visit is the 0-based position in the selection.
func (s *Session) ForEachActive(visit VisitFunc, reverse bool) error {
	ids, err := s.activeLayerIDs()
	if err != nil {
		return fail("for each active", Current, err)
	}
	n := len(ids)
	for step := 0; step < n; step++ {
		i := step
		if reverse {
			i = n - 1 - step
		}
		if err := visit(i, ids[i]); err != nil {
			if errors.Is(err, Stop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// AllLayerIDs returns every layer id bottom to top.
func (s *Session) AllLayerIDs() ([]int64, error) {
	var ids []int64
	err := s.ForEach(func(index int, id int64) error {
		ids = append(ids, id)
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ParentGroupIDs returns the ids of the groups enclosing ref, outermost
// first.
func (s *Session) ParentGroupIDs(ref LayerRef) ([]int64, error) {
	target, err := s.layerID(ref)
	if err != nil {
		return nil, fail("parent groups", ref, err)
	}
	if target == 0 {
		count, err := s.Count()
		if err != nil {
			return nil, fail("parent groups", ref, err)
		}
		if count == 0 {
			return []int64{}, nil
		}
	}
	var (
		open    []int64
		parents []int64
		reached bool
	)
	err = s.ForEach(func(index int, id int64) error {
		if id == target {
			parents = append([]int64{}, open...)
			reached = true
			return Stop
		}
		typ, err := s.layerType(ByID(id))
		if err != nil {
			return err
		}
		switch typ {
		case types.LayerGroupStart:
			open = append(open, id)
		case types.LayerGroupEnd:
			if len(open) == 0 {
				return fmt.Errorf("%w: group end %d has no start", types.ErrUnbalancedGroups, id)
			}
			open = open[:len(open)-1]
		}
		return nil
	}, true)
	if err != nil {
		return nil, fail("parent groups", ByID(target), err)
	}
	if !reached {
		return nil, fail("parent groups", ByID(target), types.ErrEntityNotFound)
	}
	return parents, nil
}
