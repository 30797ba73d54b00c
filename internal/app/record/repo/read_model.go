package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
	"github.com/light-bringer/dirtify-service/internal/pkg/query"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ReadModelImpl implements ReadModel for Spanner.
type ReadModelImpl struct {
	client *spanner.Client
}

// NewReadModel creates a new ReadModel implementation.
func NewReadModel(client *spanner.Client) contracts.ReadModel {
	return &ReadModelImpl{
		client: client,
	}
}

// GetRecordByID retrieves a record DTO by ID.
func (rm *ReadModelImpl) GetRecordByID(ctx context.Context, recordID string) (*contracts.RecordDTO, error) {
	row, err := rm.client.Single().ReadRow(ctx, m_record.TableName, spanner.Key{recordID}, m_record.Columns)
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

	return dataToDTO(&data)
}

// ListRecords retrieves a page of records, newest first.
func (rm *ReadModelImpl) ListRecords(ctx context.Context, filter *contracts.ListFilter) (*contracts.ListResult, error) {
	base := listQuery(filter)

	iter := rm.client.Single().Query(ctx, base.Build())
	defer iter.Stop()

	records := make([]*contracts.RecordDTO, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate records: %w", err)
		}

		var data m_record.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse record: %w", err)
		}

		dto, err := dataToDTO(&data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to DTO: %w", err)
		}
		records = append(records, dto)
	}

	total, err := rm.count(ctx, base.Count())
	if err != nil {
		return nil, err
	}

	return &contracts.ListResult{
		Records:    records,
		TotalCount: total,
	}, nil
}

func (rm *ReadModelImpl) count(ctx context.Context, q *query.Builder) (int64, error) {
	iter := rm.client.Single().Query(ctx, q.Build())
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	var total int64
	if err := row.Column(0, &total); err != nil {
		return 0, fmt.Errorf("failed to parse record count: %w", err)
	}
	return total, nil
}

// listQuery builds the page query for filter. Count() on the result gives the
// matching total.
func listQuery(filter *contracts.ListFilter) *query.Builder {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := query.From(m_record.TableName).Select(m_record.Columns...)

	if !filter.IncludeArchived {
		q = q.Where(query.IsNull(m_record.ArchivedAt))
	}
	if filter.ChangedField != "" {
		q = q.Where(query.Contains(m_record.DirtyFields, filter.ChangedField))
	}

	q = q.OrderBy(m_record.CreatedAt, query.Desc).Limit(int64(limit))
	if filter.Offset > 0 {
		q = q.Offset(int64(filter.Offset))
	}
	return q
}

// dataToDTO converts database Data to a RecordDTO.
func dataToDTO(data *m_record.Data) (*contracts.RecordDTO, error) {
	doc, err := documentFromJSON(data.Document)
	if err != nil {
		return nil, err
	}

	dto := &contracts.RecordDTO{
		RecordID:    data.RecordID,
		Document:    doc,
		DirtyFields: data.DirtyFields,
		Version:     data.Version,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
	if data.ArchivedAt.Valid {
		t := data.ArchivedAt.Time
		dto.ArchivedAt = &t
	}
	if dto.DirtyFields == nil {
		dto.DirtyFields = []string{}
	}
	return dto, nil
}
