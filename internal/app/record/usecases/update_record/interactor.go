package update_record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
)

// Request contains a patch for one record.
type Request struct {
	RecordID        string
	Patch           domain.Patch
	ExpectedVersion *int64 // nil = no client-side check
}

// Response reports what the patch did.
type Response struct {
	Changed     bool
	Version     int64
	DirtyFields []string
}

// Interactor handles the update record use case.
type Interactor struct {
	repo       contracts.RecordRepository
	outboxRepo contracts.OutboxRepository
	committer  contracts.Committer
	clock      clock.Clock
}

// NewInteractor creates a new update record interactor.
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

// Execute applies the patch and persists the record only if it became dirty.
// A patch that writes back the values already stored commits nothing.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.RecordID == "" {
		return nil, domain.ErrEmptyID
	}

	record, err := i.repo.GetByID(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	// Clear events on function exit to prevent duplicates on retry
	defer record.ClearEvents()

	if req.ExpectedVersion != nil && *req.ExpectedVersion != record.Version() {
		return nil, fmt.Errorf("%w: expected version %d, found %d",
			domain.ErrVersionConflict, *req.ExpectedVersion, record.Version())
	}

	changed, err := record.Apply(req.Patch, i.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Response{Version: record.Version(), DirtyFields: []string{}}, nil
	}

	plan := committer.NewPlan()

	mut, err := i.repo.UpdateMut(record)
	if err != nil {
		return nil, err
	}
	plan.Add(mut)

	for _, event := range record.DomainEvents() {
		payload, err := serializeEvent(event)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event: %w", err)
		}
		plan.Add(i.outboxRepo.InsertMut(i.outboxRepo.EnrichEvent(event, payload)))
	}

	check := committer.VersionCheck{
		Table:         m_record.TableName,
		Key:           spanner.Key{record.ID()},
		VersionColumn: m_record.Version,
		Expected:      record.Version(),
	}
	if err := i.committer.ApplyWithVersionCheck(ctx, check, plan); err != nil {
		if errors.Is(err, committer.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &Response{
		Changed:     true,
		Version:     record.Version() + 1,
		DirtyFields: record.Changes().DirtyFields(),
	}, nil
}

// serializeEvent converts a domain event to JSON payload.
func serializeEvent(event domain.DomainEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
