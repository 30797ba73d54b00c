package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/pkg/query"
)

// EventsReadModel reads the outbox_events table.
type EventsReadModel struct {
	client *spanner.Client
}

// NewEventsReadModel creates a new EventsReadModel.
func NewEventsReadModel(client *spanner.Client) *EventsReadModel {
	return &EventsReadModel{
		client: client,
	}
}

// ListEvents retrieves the events of one aggregate, newest first.
func (r *EventsReadModel) ListEvents(ctx context.Context, req *list_events.Request) ([]*m_outbox.Data, error) {
	iter := r.client.Single().Query(ctx, eventsQuery(req).Build())
	defer iter.Stop()

	var events []*m_outbox.Data
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate events: %w", err)
		}

		var event m_outbox.Data
		if err := row.ToStruct(&event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}

func eventsQuery(req *list_events.Request) *query.Builder {
	q := query.From(m_outbox.TableName).
		Select(
			m_outbox.EventID,
			m_outbox.EventType,
			m_outbox.AggregateID,
			m_outbox.Payload,
			m_outbox.Status,
			m_outbox.CreatedAt,
			m_outbox.ProcessedAt,
		).
		Where(query.Eq(m_outbox.AggregateID, req.AggregateID))

	if req.EventType != nil {
		q = q.Where(query.Eq(m_outbox.EventType, *req.EventType))
	}

	return q.OrderBy(m_outbox.CreatedAt, query.Desc).Limit(int64(req.Limit))
}
