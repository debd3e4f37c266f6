package kvstore

import "errors"

// Errors returned by engine operations for expected domain outcomes. Engine
// methods never panic and never return these wrapped in another error —
// callers compare with errors.Is.
var (
	// ErrInvalidArgument is returned for a store name that is empty.
	ErrInvalidArgument = errors.New("kvstore: invalid argument")
	// ErrStoreMissing is returned when an operation names a store that does
	// not exist.
	ErrStoreMissing = errors.New("kvstore: store does not exist")
	// ErrKeyMissing is returned when an operation names a key that does not
	// exist within an existing store. An expired record that cleanup has not
	// yet removed still exists for this purpose.
	ErrKeyMissing = errors.New("kvstore: key does not exist")
	// ErrReadOnly is returned when a write targets a readonly record without
	// an explicit force override.
	ErrReadOnly = errors.New("kvstore: key is readonly")
	// ErrAlreadyExists is returned by CreateStore for a store name already
	// registered.
	ErrAlreadyExists = errors.New("kvstore: store already exists")
)
