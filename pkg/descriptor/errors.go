package descriptor

import "errors"

// Codec errors.
var (
	ErrKeyNotFound             = errors.New("descriptor key not found")
	ErrWrongType               = errors.New("descriptor value has wrong type")
	ErrUnknownWireType         = errors.New("unknown wire type")
	ErrUnknownEnumerationValue = errors.New("unknown enumeration value")
)
