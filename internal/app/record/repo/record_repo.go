package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
)

// RecordRepo implements RecordRepository for Spanner.
type RecordRepo struct {
	client *spanner.Client
	model  *m_record.Model
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(client *spanner.Client) contracts.RecordRepository {
	return &RecordRepo{
		client: client,
		model:  m_record.NewModel(),
	}
}

// InsertMut creates a mutation for inserting a new record.
func (r *RecordRepo) InsertMut(record *domain.Record) (*spanner.Mutation, error) {
	data, err := domainToData(record)
	if err != nil {
		return nil, err
	}
	return r.model.InsertMut(data), nil
}

// UpdateMut creates a mutation writing only what changed since the record was
// loaded. A clean record yields nil.
func (r *RecordRepo) UpdateMut(record *domain.Record) (*spanner.Mutation, error) {
	updates := updateColumns(record)
	if len(updates) == 0 {
		return nil, nil
	}
	return r.model.UpdateMut(record.ID(), updates), nil
}

// GetByID retrieves a record by ID, reconstructing the domain aggregate.
func (r *RecordRepo) GetByID(ctx context.Context, recordID string) (*domain.Record, error) {
	row, err := r.client.Single().ReadRow(ctx, m_record.TableName, spanner.Key{recordID}, m_record.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var data m_record.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}

	return dataToDomain(&data)
}

// Exists checks if a record exists.
func (r *RecordRepo) Exists(ctx context.Context, recordID string) (bool, error) {
	row, err := r.client.Single().ReadRow(ctx, m_record.TableName, spanner.Key{recordID}, []string{m_record.RecordID})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return row != nil, nil
}

// updateColumns maps the record's pending changes to column values.
// The document is written whole; dirty_fields names what this write touched.
func updateColumns(record *domain.Record) map[string]interface{} {
	if !record.HasChanges() {
		return nil
	}

	updates := make(map[string]interface{})

	if changes := record.Changes(); changes.HasChanges() {
		updates[m_record.Document] = spanner.NullJSON{Value: record.Document(), Valid: true}
		updates[m_record.DirtyFields] = changes.DirtyFields()
	}

	if record.ArchivedChanged() {
		if archivedAt := record.ArchivedAt(); archivedAt != nil {
			updates[m_record.ArchivedAt] = *archivedAt
		} else {
			updates[m_record.ArchivedAt] = spanner.NullTime{}
		}
	}

	updates[m_record.UpdatedAt] = record.UpdatedAt()

	// Increment version for optimistic locking
	updates[m_record.Version] = record.Version() + 1

	return updates
}

// domainToData converts a domain Record to database Data.
func domainToData(record *domain.Record) (*m_record.Data, error) {
	if record.ID() == "" {
		return nil, domain.ErrEmptyID
	}

	data := &m_record.Data{
		RecordID:    record.ID(),
		Document:    spanner.NullJSON{Value: record.Document(), Valid: true},
		DirtyFields: record.Changes().DirtyFields(),
		Version:     record.Version(),
		CreatedAt:   record.CreatedAt(),
		UpdatedAt:   record.UpdatedAt(),
	}

	if archivedAt := record.ArchivedAt(); archivedAt != nil {
		data.ArchivedAt = spanner.NullTime{Time: *archivedAt, Valid: true}
	}

	return data, nil
}

// dataToDomain converts database Data to a domain Record.
func dataToDomain(data *m_record.Data) (*domain.Record, error) {
	doc, err := documentFromJSON(data.Document)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", data.RecordID, err)
	}

	var archivedAt *time.Time
	if data.ArchivedAt.Valid {
		t := data.ArchivedAt.Time
		archivedAt = &t
	}

	return domain.ReconstructRecord(
		data.RecordID,
		doc,
		data.Version,
		data.CreatedAt,
		data.UpdatedAt,
		archivedAt,
	), nil
}

// documentFromJSON unpacks a JSON column. NULL reads as an empty document.
func documentFromJSON(col spanner.NullJSON) (map[string]any, error) {
	if !col.Valid || col.Value == nil {
		return map[string]any{}, nil
	}
	doc, ok := col.Value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: document is %T, not an object", domain.ErrInvalidDocument, col.Value)
	}
	return doc, nil
}
