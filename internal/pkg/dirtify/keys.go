package dirtify

import (
	"fmt"
	"maps"
	"slices"
)

// Virtual property names. They are intercepted on every view and never reach the target.
const (
	DirtyKey       = "dirty"
	DirtyFieldsKey = "dirtyFields"
)

// Symbol is a non-textual property key. Every Symbol returned by NewSymbol is
// distinct, even when two share a description.
type Symbol struct {
	s *symbol
}

type symbol struct {
	description string
}

// NewSymbol creates a unique symbol key.
func NewSymbol(description string) Symbol {
	return Symbol{s: &symbol{description: description}}
}

// Description returns the description the symbol was created with.
func (s Symbol) Description() string {
	if s.s == nil {
		return ""
	}
	return s.s.description
}

func (s Symbol) String() string {
	return "Symbol(" + s.Description() + ")"
}

// Fields is a set of dirty keys. Keys are strings, Symbols or int indexes.
type Fields map[any]bool

// Has reports whether key is marked dirty.
func (f Fields) Has(key any) bool {
	return f[key]
}

// Names returns the dirty keys rendered as strings, sorted.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for key := range f {
		names = append(names, fmt.Sprint(key))
	}
	slices.Sort(names)
	return names
}

// Clone returns an independent copy of the set.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

func isVirtual(key any) bool {
	return key == DirtyKey || key == DirtyFieldsKey
}
