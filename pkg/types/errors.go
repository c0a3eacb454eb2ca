package types

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
)

// Resolution and registry errors.
var (
	ErrEntityNotFound          = errors.New("entity not found")
	ErrUnsupportedProperty     = errors.New("unsupported property")
	ErrReadOnlyProperty        = errors.New("property is read-only")
	ErrPreconditionNotMet      = errors.New("precondition not met")
	ErrKindMismatch            = errors.New("property or operation invalid for layer kind")
	ErrUnsupportedOnMarker     = errors.New("operation unsupported on group end marker")
	ErrUnknownEnumerationValue = descriptor.ErrUnknownEnumerationValue
	ErrInvalidArgument         = errors.New("invalid argument")
)

// Selection and iteration errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot slot not found")
	ErrNestedIteration  = errors.New("nested layer iteration is not supported")
	ErrUnbalancedGroups = errors.New("unbalanced group markers")
)

// Smart object file errors.
var (
	ErrCancelled = errors.New("cancelled by user")
	ErrSameFile  = errors.New("destination is the source file")
)

// ErrRemote matches every RemoteError via errors.Is.
var ErrRemote = errors.New("remote call failed")

// RemoteError wraps a failure surfaced by the Executor. The wrapped error is
// never inspected by this module.
type RemoteError struct {
	Command string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Command, e.Err)
}

// Unwrap returns the executor's error.
func (e *RemoteError) Unwrap() error { return e.Err }

// Is reports true for ErrRemote.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// OpError records the operation and target layer of a failure.
// LayerID is -1 when the target was not resolved to an id.
type OpError struct {
	Op      string
	LayerID int64
	Err     error
}

func (e *OpError) Error() string {
	if e.LayerID < 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s layer %d: %v", e.Op, e.LayerID, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error { return e.Err }
