package domain

import (
	"slices"

	"github.com/light-bringer/dirtify-service/internal/pkg/dirtify"
)

// ChangeTracker accumulates the dirty document fields of a record across edits.
// Each edit runs through its own dirtify view; the tracker keeps the union so
// the repository can persist the full change set in one write.
type ChangeTracker struct {
	dirtyFields map[string]bool
}

// NewChangeTracker creates a new ChangeTracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{
		dirtyFields: make(map[string]bool),
	}
}

// MarkDirty marks a field as dirty (modified).
func (ct *ChangeTracker) MarkDirty(field string) {
	ct.dirtyFields[field] = true
}

// Merge marks every field of a dirtify snapshot dirty.
func (ct *ChangeTracker) Merge(fields dirtify.Fields) {
	for _, name := range fields.Names() {
		ct.MarkDirty(name)
	}
}

// Dirty checks if a field has been modified.
func (ct *ChangeTracker) Dirty(field string) bool {
	return ct.dirtyFields[field]
}

// Clear clears all dirty field markers.
func (ct *ChangeTracker) Clear() {
	ct.dirtyFields = make(map[string]bool)
}

// HasChanges returns true if any field has been modified.
func (ct *ChangeTracker) HasChanges() bool {
	return len(ct.dirtyFields) > 0
}

// DirtyFields returns the dirty field names, sorted.
func (ct *ChangeTracker) DirtyFields() []string {
	fields := make([]string, 0, len(ct.dirtyFields))
	for field := range ct.dirtyFields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}
