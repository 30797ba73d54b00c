package list_records

import (
	"context"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
)

// Request contains filtering and pagination parameters.
type Request struct {
	IncludeArchived bool
	ChangedField    string
	Limit           int
	Offset          int
}

// Query handles the list records query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new list records query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute retrieves a page of records with filtering.
func (q *Query) Execute(ctx context.Context, req *Request) (*contracts.ListResult, error) {
	filter := &contracts.ListFilter{
		IncludeArchived: req.IncludeArchived,
		ChangedField:    req.ChangedField,
		Limit:           req.Limit,
		Offset:          req.Offset,
	}

	return q.readModel.ListRecords(ctx, filter)
}
