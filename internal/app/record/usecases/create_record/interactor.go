package create_record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
)

// Request contains the data needed to create a record.
type Request struct {
	RecordID string // empty = generate
	Document map[string]any
}

// Interactor handles the create record use case.
type Interactor struct {
	repo       contracts.RecordRepository
	outboxRepo contracts.OutboxRepository
	committer  contracts.Committer
	clock      clock.Clock
}

// NewInteractor creates a new create record interactor.
func NewInteractor(
	repo contracts.RecordRepository,
	outboxRepo contracts.OutboxRepository,
	committer contracts.Committer,
	clock clock.Clock,
) *Interactor {
	return &Interactor{
		repo:       repo,
		outboxRepo: outboxRepo,
		committer:  committer,
		clock:      clock,
	}
}

// Execute creates a new record and its created event in one commit.
func (i *Interactor) Execute(ctx context.Context, req *Request) (string, error) {
	if req.Document == nil {
		return "", domain.ErrInvalidDocument
	}

	recordID := req.RecordID
	if recordID == "" {
		recordID = uuid.New().String()
	} else {
		exists, err := i.repo.Exists(ctx, recordID)
		if err != nil {
			return "", err
		}
		if exists {
			return "", domain.ErrRecordAlreadyExists
		}
	}

	record, err := domain.NewRecord(recordID, req.Document, i.clock.Now())
	if err != nil {
		return "", fmt.Errorf("failed to create record: %w", err)
	}

	plan := committer.NewPlan()

	mut, err := i.repo.InsertMut(record)
	if err != nil {
		return "", err
	}
	plan.Add(mut)

	for _, event := range record.DomainEvents() {
		payload, err := serializeEvent(event)
		if err != nil {
			return "", fmt.Errorf("failed to serialize event: %w", err)
		}
		plan.Add(i.outboxRepo.InsertMut(i.outboxRepo.EnrichEvent(event, payload)))
	}

	if err := i.committer.Apply(ctx, plan); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record.ID(), nil
}

// serializeEvent converts a domain event to JSON payload.
func serializeEvent(event domain.DomainEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
