package contracts

import (
	"context"
	"time"
)

// RecordDTO is a data transfer object for record queries.
type RecordDTO struct {
	RecordID    string
	Document    map[string]any
	DirtyFields []string // fields changed by the last write
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// ListFilter defines filtering options for listing records.
type ListFilter struct {
	IncludeArchived bool
	ChangedField    string // only records whose last write touched this field
	Limit           int
	Offset          int
}

// ListResult contains paginated record list results.
type ListResult struct {
	Records    []*RecordDTO
	TotalCount int64
}

// ReadModel defines the interface for record queries.
// Read models bypass the domain layer.
type ReadModel interface {
	// GetRecordByID retrieves a record DTO by ID
	GetRecordByID(ctx context.Context, recordID string) (*RecordDTO, error)

	// ListRecords retrieves a page of records with filtering
	ListRecords(ctx context.Context, filter *ListFilter) (*ListResult, error)
}
