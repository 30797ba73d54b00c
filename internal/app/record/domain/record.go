package domain

import (
	"maps"
	"time"

	"github.com/light-bringer/dirtify-service/internal/pkg/dirtify"
)

// Record is the aggregate root for a schemaless JSON document.
// All document edits run through a dirtify view so only real changes are persisted.
type Record struct {
	id         string
	document   map[string]any
	version    int64
	createdAt  time.Time
	updatedAt  time.Time
	archivedAt *time.Time

	// Change tracking for optimized repository updates
	changes       *ChangeTracker
	archivedDirty bool
	isNew         bool

	// Domain events to be published
	events []DomainEvent
}

// NewRecord creates a new Record from a deep copy of doc. Every top-level key
// of doc starts dirty.
func NewRecord(id string, doc map[string]any, now time.Time) (*Record, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	r := &Record{
		id:        id,
		document:  make(map[string]any, len(doc)),
		version:   1,
		createdAt: now,
		updatedAt: now,
		changes:   NewChangeTracker(),
		isNew:     true,
		events:    make([]DomainEvent, 0),
	}

	view, _ := dirtify.New(r.document)
	for key, value := range doc {
		if err := view.Set(key, cloneValue(value)); err != nil {
			return nil, ErrInvalidDocument
		}
	}
	r.changes.Merge(view.DirtyFields())

	r.recordEvent(&RecordCreatedEvent{
		RecordID:  r.id,
		Document:  cloneDocument(r.document),
		CreatedAt: r.createdAt,
	})

	return r, nil
}

// ReconstructRecord reconstitutes a Record from storage with a clean change set.
func ReconstructRecord(
	id string,
	doc map[string]any,
	version int64,
	createdAt, updatedAt time.Time,
	archivedAt *time.Time,
) *Record {
	if doc == nil {
		doc = make(map[string]any)
	}
	return &Record{
		id:         id,
		document:   doc,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		archivedAt: archivedAt,
		changes:    NewChangeTracker(),
		events:     make([]DomainEvent, 0),
	}
}

// Getters
func (r *Record) ID() string                  { return r.id }
func (r *Record) Version() int64              { return r.version }
func (r *Record) CreatedAt() time.Time        { return r.createdAt }
func (r *Record) UpdatedAt() time.Time        { return r.updatedAt }
func (r *Record) ArchivedAt() *time.Time      { return r.archivedAt }
func (r *Record) Changes() *ChangeTracker     { return r.changes }
func (r *Record) ArchivedChanged() bool       { return r.archivedDirty }
func (r *Record) IsNew() bool                 { return r.isNew }
func (r *Record) DomainEvents() []DomainEvent { return r.events }

// Document returns a deep copy of the document. Edits go through Edit or Apply.
func (r *Record) Document() map[string]any {
	return cloneDocument(r.document)
}

// IsArchived returns true if the record is archived.
func (r *Record) IsArchived() bool {
	return r.archivedAt != nil
}

// Edit runs fn against a change-tracking view of the document. When the edit
// changed anything, its dirty fields join the record's change set and one
// RecordUpdatedEvent is recorded. It reports whether the document changed.
//
// An error from fn leaves earlier writes of the same edit in the document; the
// caller must discard the record instead of persisting it.
func (r *Record) Edit(fn func(doc *dirtify.View) error, now time.Time) (bool, error) {
	if err := r.checkNotArchived(); err != nil {
		return false, err
	}

	view, _ := dirtify.New(r.document)
	if err := fn(view); err != nil {
		return false, err
	}

	if !view.Dirty() {
		return false, nil
	}

	fields := view.DirtyFields()
	r.changes.Merge(fields)
	r.updatedAt = now

	r.recordEvent(&RecordUpdatedEvent{
		RecordID:    r.id,
		DirtyFields: fields.Names(),
		UpdatedAt:   now,
	})

	return true, nil
}

// Apply validates and applies patch as a single edit.
func (r *Record) Apply(patch Patch, now time.Time) (bool, error) {
	if err := patch.Validate(); err != nil {
		return false, err
	}

	return r.Edit(func(doc *dirtify.View) error {
		for _, op := range patch {
			if err := op.apply(doc); err != nil {
				return err
			}
		}
		return nil
	}, now)
}

// Archive archives the record (soft delete).
func (r *Record) Archive(now time.Time) error {
	if r.IsArchived() {
		return ErrAlreadyArchived
	}

	r.archivedAt = &now
	r.updatedAt = now
	r.archivedDirty = true

	r.recordEvent(&RecordArchivedEvent{
		RecordID:   r.id,
		ArchivedAt: now,
	})

	return nil
}

// HasChanges reports whether the record has anything to persist.
func (r *Record) HasChanges() bool {
	return r.changes.HasChanges() || r.archivedDirty
}

// checkNotArchived returns an error if the record is archived.
func (r *Record) checkNotArchived() error {
	if r.IsArchived() {
		return ErrCannotModifyArchived
	}
	return nil
}

// recordEvent adds a domain event to the list of events.
func (r *Record) recordEvent(event DomainEvent) {
	r.events = append(r.events, event)
}

// ClearEvents clears all recorded domain events (called after publishing).
func (r *Record) ClearEvents() {
	r.events = make([]DomainEvent, 0)
}

// cloneDocument deep-copies the JSON containers of a document.
func cloneDocument(doc map[string]any) map[string]any {
	out := maps.Clone(doc)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
