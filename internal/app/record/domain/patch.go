package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/light-bringer/dirtify-service/internal/pkg/dirtify"
)

// OpKind is the kind of a patch operation.
type OpKind string

const (
	OpSet    OpKind = "set"
	OpDelete OpKind = "delete"
)

// Op is one patch operation addressed by a dot-separated path, e.g. "address.street"
// or "tags.0". Numeric segments index into arrays.
type Op struct {
	Kind  OpKind
	Path  string
	Value any
}

// Patch is an ordered list of operations applied as one edit.
type Patch []Op

// Validate checks every operation before any of them is applied.
func (p Patch) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty patch", ErrInvalidPatch)
	}
	for i, op := range p {
		switch op.Kind {
		case OpSet, OpDelete:
		default:
			return fmt.Errorf("%w: op %d has unknown kind %q", ErrInvalidPatch, i, op.Kind)
		}
		if _, err := SplitPath(op.Path); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}

// SplitPath splits a dot-separated path into its segments.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPatch)
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPatch, path)
		}
	}
	return segments, nil
}

// apply runs op against the document view. Intermediate segments must resolve
// to nested objects or arrays.
func (op Op) apply(doc *dirtify.View) error {
	segments, err := SplitPath(op.Path)
	if err != nil {
		return err
	}

	parent := doc
	for _, seg := range segments[:len(segments)-1] {
		key, err := segmentKey(parent, seg)
		if err != nil {
			return fmt.Errorf("%s: %w", op.Path, err)
		}
		next := parent.At(key)
		if next == nil {
			return fmt.Errorf("%w: %s", ErrInvalidPath, op.Path)
		}
		parent = next
	}

	key, err := segmentKey(parent, segments[len(segments)-1])
	if err != nil {
		return fmt.Errorf("%s: %w", op.Path, err)
	}

	switch op.Kind {
	case OpDelete:
		err = parent.Delete(key)
	default:
		err = parent.Set(key, op.Value)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPatch, op.Path, err)
	}
	return nil
}

// segmentKey converts a path segment into the key type the view expects.
func segmentKey(v *dirtify.View, seg string) (any, error) {
	if _, isArray := v.Target().([]any); !isArray {
		return seg, nil
	}
	i, err := strconv.Atoi(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an array index", ErrInvalidPath, seg)
	}
	return i, nil
}
