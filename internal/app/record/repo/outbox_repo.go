package repo

import (
	"encoding/json"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
)

// OutboxRepo implements OutboxRepository for Spanner.
type OutboxRepo struct {
	model *m_outbox.Model
	clock clock.Clock
}

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(clk clock.Clock) contracts.OutboxRepository {
	return &OutboxRepo{
		model: m_outbox.NewModel(),
		clock: clk,
	}
}

// InsertMut creates a mutation for inserting an outbox event.
func (r *OutboxRepo) InsertMut(event *contracts.OutboxEvent) *spanner.Mutation {
	return r.model.InsertMut(r.toData(event))
}

func (r *OutboxRepo) toData(event *contracts.OutboxEvent) *m_outbox.Data {
	// Payload is already JSON text; NullJSON carries it as a raw message.
	payload := spanner.NullJSON{Valid: event.Payload != ""}
	if payload.Valid {
		payload.Value = json.RawMessage(event.Payload)
	}

	return &m_outbox.Data{
		EventID:     event.EventID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     payload,
		Status:      event.Status,
		CreatedAt:   r.clock.Now(),
	}
}

// EnrichEvent converts a domain event to an outbox event with metadata.
func (r *OutboxRepo) EnrichEvent(event domain.DomainEvent, payload string) *contracts.OutboxEvent {
	return &contracts.OutboxEvent{
		EventID:     uuid.New().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		Payload:     payload,
		Status:      m_outbox.StatusPending,
	}
}
