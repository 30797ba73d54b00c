package list_events

import (
	"context"

	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
)

// Request contains filtering parameters for listing a record's events.
type Request struct {
	AggregateID string  // record ID, required
	EventType   *string // e.g. "record.updated"
	Limit       int     // default 100, max 1000
}

// EventsReadModel defines the interface for reading outbox events.
type EventsReadModel interface {
	ListEvents(ctx context.Context, req *Request) ([]*m_outbox.Data, error)
}

// Query handles the list events query use case.
type Query struct {
	readModel EventsReadModel
}

// NewQuery creates a new list events query.
func NewQuery(readModel EventsReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute retrieves the change history of one record, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*m_outbox.Data, error) {
	if req.AggregateID == "" {
		return nil, ErrMissingAggregateID
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Limit > 1000 {
		req.Limit = 1000
	}

	return q.readModel.ListEvents(ctx, req)
}
