package domain

import "errors"

// Domain errors as sentinel values
var (
	// Record errors
	ErrRecordNotFound      = errors.New("record not found")
	ErrRecordAlreadyExists = errors.New("record already exists")
	ErrEmptyID             = errors.New("record id cannot be empty")
	ErrInvalidDocument     = errors.New("record document must be a JSON object")

	// Patch errors
	ErrInvalidPatch = errors.New("invalid patch operation")
	ErrInvalidPath  = errors.New("patch path does not resolve to an object")

	// Status errors
	ErrAlreadyArchived      = errors.New("record is already archived")
	ErrCannotModifyArchived = errors.New("cannot modify archived record")
	ErrVersionConflict      = errors.New("record was modified concurrently")
)
