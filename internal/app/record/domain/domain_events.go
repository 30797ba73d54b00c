package domain

import "time"

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
}

// RecordCreatedEvent is emitted when a record is created.
type RecordCreatedEvent struct {
	RecordID  string
	Document  map[string]any
	CreatedAt time.Time
}

func (e *RecordCreatedEvent) EventType() string {
	return "record.created"
}

func (e *RecordCreatedEvent) AggregateID() string {
	return e.RecordID
}

// RecordUpdatedEvent is emitted once per edit that changed the document.
// DirtyFields holds the leaf keys touched by that edit.
type RecordUpdatedEvent struct {
	RecordID    string
	DirtyFields []string
	UpdatedAt   time.Time
}

func (e *RecordUpdatedEvent) EventType() string {
	return "record.updated"
}

func (e *RecordUpdatedEvent) AggregateID() string {
	return e.RecordID
}

// RecordArchivedEvent is emitted when a record is archived.
type RecordArchivedEvent struct {
	RecordID   string
	ArchivedAt time.Time
}

func (e *RecordArchivedEvent) EventType() string {
	return "record.archived"
}

func (e *RecordArchivedEvent) AggregateID() string {
	return e.RecordID
}
