// Selection snapshot slots.
package layers

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// SaveSnapshot stores the current selection under slot, replacing any
// previous contents.
func (s *Session) SaveSnapshot(slot string) error {
	if slot == "" {
		return fail("save snapshot", Current, fmt.Errorf("%w: empty slot key", types.ErrInvalidArgument))
	}
	ids, err := s.activeLayerIDs()
	if err != nil {
		return fail("save snapshot", Current, err)
	}
	s.slots[slot] = ids
	return nil
}

// SaveSnapshotIDs stores ids under slot.
func (s *Session) SaveSnapshotIDs(slot string, ids []int64) error {
	if slot == "" {
		return fail("save snapshot", Current, fmt.Errorf("%w: empty slot key", types.ErrInvalidArgument))
	}
	saved := make([]int64, len(ids))
	copy(saved, ids)
	s.slots[slot] = saved
	return nil
}

// SaveSnapshotAll stores the ids of every layer, bottom to top, under slot.
func (s *Session) SaveSnapshotAll(slot string) error {
	ids, err := s.AllLayerIDs()
	if err != nil {
		return fail("save snapshot", Current, err)
	}
	return s.SaveSnapshotIDs(slot, ids)
}

// Snapshot returns a copy of the ids stored under slot.
func (s *Session) Snapshot(slot string) ([]int64, bool) {
	ids, ok := s.slots[slot]
	if !ok {
		return nil, false
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, true
}

// RestoreSnapshot re-selects the layers stored under slot in their saved
// order and discards the slot. An empty snapshot clears the selection.
func (s *Session) RestoreSnapshot(slot string) error {
	ids, ok := s.slots[slot]
	if !ok {
		return fail("restore snapshot", Current, fmt.Errorf("%w: %q", types.ErrSnapshotNotFound, slot))
	}
	delete(s.slots, slot)
	if len(ids) == 0 {
		return fail("restore snapshot", Current, s.makeNoneActive())
	}
	return fail("restore snapshot", Current, s.makeActive(ids, ActivateOptions{}))
}

// preserveSelection runs fn between a save and a restore of the current
// selection under a transient slot.
func (s *Session) preserveSelection(fn func() error) error {
	slot := newSlotKey()
	if err := s.SaveSnapshot(slot); err != nil {
		return err
	}
	err := fn()
	if rerr := s.RestoreSnapshot(slot); rerr != nil {
		if err == nil {
			return rerr
		}
		return errors.Join(err, rerr)
	}
	return err
}
