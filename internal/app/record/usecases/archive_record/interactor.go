package archive_record

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

// Request contains the record to archive.
type Request struct {
	RecordID string
}

// Interactor handles the archive record use case.
type Interactor struct {
	repo       contracts.RecordRepository
	outboxRepo contracts.OutboxRepository
	committer  contracts.Committer
	clock      clock.Clock
}

// NewInteractor creates a new archive record interactor.
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

// Execute archives a record (soft delete).
func (i *Interactor) Execute(ctx context.Context, req *Request) error {
	if req.RecordID == "" {
		return domain.ErrEmptyID
	}

	record, err := i.repo.GetByID(ctx, req.RecordID)
	if err != nil {
		return err
	}

	defer record.ClearEvents()

	if err := record.Archive(i.clock.Now()); err != nil {
		return err
	}

	plan := committer.NewPlan()

	mut, err := i.repo.UpdateMut(record)
	if err != nil {
		return err
	}
	plan.Add(mut)

	for _, event := range record.DomainEvents() {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		plan.Add(i.outboxRepo.InsertMut(i.outboxRepo.EnrichEvent(event, string(data))))
	}

	check := committer.VersionCheck{
		Table:         m_record.TableName,
		Key:           spanner.Key{record.ID()},
		VersionColumn: m_record.Version,
		Expected:      record.Version(),
	}
	if err := i.committer.ApplyWithVersionCheck(ctx, check, plan); err != nil {
		if errors.Is(err, committer.ErrVersionConflict) {
			return fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
