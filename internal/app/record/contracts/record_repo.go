package contracts

import (
	"context"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
)

// RecordRepository defines the interface for record persistence.
// Repositories return mutations, they don't apply them.
type RecordRepository interface {
	// InsertMut creates a mutation for inserting a new record.
	InsertMut(record *domain.Record) (*spanner.Mutation, error)

	// UpdateMut creates a mutation for a changed record. A record with no
	// pending changes yields a nil mutation.
	UpdateMut(record *domain.Record) (*spanner.Mutation, error)

	// GetByID retrieves a record by ID with a clean change set.
	GetByID(ctx context.Context, recordID string) (*domain.Record, error)

	// Exists checks if a record exists.
	Exists(ctx context.Context, recordID string) (bool, error)
}
