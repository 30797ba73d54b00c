package get_record

import (
	"context"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
)

// Request contains the record ID to retrieve.
type Request struct {
	RecordID string
}

// Query handles the get record query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new get record query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute retrieves a record by ID.
func (q *Query) Execute(ctx context.Context, req *Request) (*contracts.RecordDTO, error) {
	if req.RecordID == "" {
		return nil, domain.ErrEmptyID
	}
	return q.readModel.GetRecordByID(ctx, req.RecordID)
}
