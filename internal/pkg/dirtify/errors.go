package dirtify

import "errors"

var (
	// ErrUnsupportedKey is returned when a key cannot address the target, e.g. a
	// symbol used on a struct or a string used on a slice.
	ErrUnsupportedKey = errors.New("dirtify: unsupported key")

	// ErrUnknownField is returned when writing a struct field that does not exist.
	ErrUnknownField = errors.New("dirtify: unknown field")

	// ErrUnexportedField is returned when writing an unexported struct field.
	ErrUnexportedField = errors.New("dirtify: unexported field")

	// ErrTypeMismatch is returned when a value is not assignable to the target slot.
	ErrTypeMismatch = errors.New("dirtify: type mismatch")

	// ErrIndexOutOfRange is returned when writing past the end of a slice or array.
	ErrIndexOutOfRange = errors.New("dirtify: index out of range")

	// ErrNotDeletable is returned when deleting from a target that is not a map.
	ErrNotDeletable = errors.New("dirtify: target does not support deletion")
)
