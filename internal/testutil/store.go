package testutil

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/models/m_record"
	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
)

// storedRecord is one row of the in-memory records table. The document is kept
// as JSON so reads decode it the way the Spanner client does.
type storedRecord struct {
	document    []byte
	dirtyFields []string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
	archivedAt  *time.Time
}

// write is a buffered mutation: check runs for every write of a plan before
// any apply does.
type write struct {
	check func() error
	apply func()
}

// MemoryStore is an in-memory stand-in for the Spanner backed repositories.
// It implements the record, outbox, committer and read model contracts, so
// use cases and transports can run end to end without an emulator.
//
// Mutations handed out by InsertMut/UpdateMut are real spanner.Mutations; the
// store remembers what each one writes and performs it when the plan carrying
// it is applied.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	records map[string]*storedRecord
	events  []*m_outbox.Data
	pending map[*spanner.Mutation]write

	recordModel *m_record.Model
	outboxModel *m_outbox.Model

	// ApplyErr, when set, fails the next commit.
	ApplyErr error
	// Commits counts successful commits.
	Commits int
}

var (
	_ contracts.RecordRepository  = (*MemoryStore)(nil)
	_ contracts.OutboxRepository  = outboxAdapter{}
	_ contracts.Committer         = (*MemoryStore)(nil)
	_ contracts.ReadModel         = (*MemoryStore)(nil)
	_ list_events.EventsReadModel = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store stamping outbox rows with clk.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:       clk,
		records:     make(map[string]*storedRecord),
		pending:     make(map[*spanner.Mutation]write),
		recordModel: m_record.NewModel(),
		outboxModel: m_outbox.NewModel(),
	}
}

// InsertMut creates a mutation inserting record.
func (s *MemoryStore) InsertMut(record *domain.Record) (*spanner.Mutation, error) {
	row, err := snapshot(record)
	if err != nil {
		return nil, err
	}
	id := record.ID()

	mut := s.recordModel.InsertMut(&m_record.Data{RecordID: id, Version: row.version})
	s.buffer(mut, write{
		check: func() error {
			if _, ok := s.records[id]; ok {
				return status.Errorf(codes.AlreadyExists, "row %s already exists", id)
			}
			return nil
		},
		apply: func() { s.records[id] = row },
	})
	return mut, nil
}

// UpdateMut creates a mutation writing the record's pending changes, or nil
// when there are none.
func (s *MemoryStore) UpdateMut(record *domain.Record) (*spanner.Mutation, error) {
	if !record.HasChanges() {
		return nil, nil
	}
	row, err := snapshot(record)
	if err != nil {
		return nil, err
	}
	id := record.ID()
	touched := record.Changes().HasChanges()
	row.version++

	mut := s.recordModel.UpdateMut(id, map[string]interface{}{m_record.Version: row.version})
	s.buffer(mut, write{
		check: func() error {
			if _, ok := s.records[id]; !ok {
				return status.Errorf(codes.NotFound, "row %s not found", id)
			}
			return nil
		},
		apply: func() {
			if !touched {
				row.dirtyFields = s.records[id].dirtyFields
			}
			s.records[id] = row
		},
	})
	return mut, nil
}

// GetByID loads a record with a clean change set.
func (s *MemoryStore) GetByID(_ context.Context, recordID string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.records[recordID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	doc, err := row.decode()
	if err != nil {
		return nil, err
	}
	return domain.ReconstructRecord(recordID, doc, row.version, row.createdAt, row.updatedAt, row.archivedAt), nil
}

// Exists checks if a record exists.
func (s *MemoryStore) Exists(_ context.Context, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[recordID]
	return ok, nil
}

// EnrichEvent converts a domain event to an outbox event.
func (s *MemoryStore) EnrichEvent(event domain.DomainEvent, payload string) *contracts.OutboxEvent {
	return &contracts.OutboxEvent{
		EventID:     uuid.New().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		Payload:     payload,
		Status:      m_outbox.StatusPending,
	}
}

// insertEventMut creates a mutation inserting an outbox event.
func (s *MemoryStore) insertEventMut(event *contracts.OutboxEvent) *spanner.Mutation {
	data := &m_outbox.Data{
		EventID:     event.EventID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     spanner.NullJSON{Value: json.RawMessage(event.Payload), Valid: event.Payload != ""},
		Status:      event.Status,
		CreatedAt:   s.clock.Now(),
	}

	mut := s.outboxModel.InsertMut(data)
	s.buffer(mut, write{
		check: func() error { return nil },
		apply: func() { s.events = append(s.events, data) },
	})
	return mut
}

// Apply commits plan atomically.
func (s *MemoryStore) Apply(_ context.Context, plan *committer.CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(plan)
}

// ApplyWithVersionCheck commits plan when the guarded record still has the
// expected version.
func (s *MemoryStore) ApplyWithVersionCheck(_ context.Context, check committer.VersionCheck, plan *committer.CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := check.Key[0].(string)
	row, ok := s.records[id]
	if !ok {
		return fmt.Errorf("failed to read version: %w", status.Error(codes.NotFound, "row not found"))
	}
	if err := committer.CheckVersion(check.Expected, row.version); err != nil {
		return err
	}

	return s.commit(plan)
}

func (s *MemoryStore) commit(plan *committer.CommitPlan) error {
	if err := s.ApplyErr; err != nil {
		s.ApplyErr = nil
		return err
	}

	writes := make([]write, 0, plan.Count())
	for _, mut := range plan.Mutations() {
		w, ok := s.pending[mut]
		if !ok {
			return errors.New("memory store: mutation was not created by this store")
		}
		writes = append(writes, w)
	}
	for _, w := range writes {
		if err := w.check(); err != nil {
			return err
		}
	}
	for i, w := range writes {
		w.apply()
		delete(s.pending, plan.Mutations()[i])
	}
	s.Commits++
	return nil
}

func (s *MemoryStore) buffer(mut *spanner.Mutation, w write) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[mut] = w
}

// GetRecordByID retrieves a record DTO by ID.
func (s *MemoryStore) GetRecordByID(_ context.Context, recordID string) (*contracts.RecordDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.records[recordID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return row.dto(recordID)
}

// ListRecords lists records newest first with the same paging rules as the
// Spanner read model.
func (s *MemoryStore) ListRecords(_ context.Context, filter *contracts.ListFilter) (*contracts.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*contracts.RecordDTO
	for id, row := range s.records {
		if !filter.IncludeArchived && row.archivedAt != nil {
			continue
		}
		if filter.ChangedField != "" && !slices.Contains(row.dirtyFields, filter.ChangedField) {
			continue
		}
		dto, err := row.dto(id)
		if err != nil {
			return nil, err
		}
		matched = append(matched, dto)
	}

	slices.SortFunc(matched, func(a, b *contracts.RecordDTO) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID, b.RecordID)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, 100)
	start := min(max(filter.Offset, 0), len(matched))
	end := min(start+limit, len(matched))

	return &contracts.ListResult{
		Records:    matched[start:end],
		TotalCount: int64(len(matched)),
	}, nil
}

// ListEvents lists an aggregate's events newest first.
func (s *MemoryStore) ListEvents(_ context.Context, req *list_events.Request) ([]*m_outbox.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*m_outbox.Data
	for i := len(s.events) - 1; i >= 0 && len(out) < req.Limit; i-- {
		e := s.events[i]
		if e.AggregateID != req.AggregateID {
			continue
		}
		if req.EventType != nil && e.EventType != *req.EventType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Events returns every committed outbox event in commit order.
func (s *MemoryStore) Events() []*m_outbox.Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.events)
}

// EventTypes returns the types of every committed outbox event in commit order.
func (s *MemoryStore) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]string, len(s.events))
	for i, e := range s.events {
		types[i] = e.EventType
	}
	return types
}

// OutboxRepo returns s as an OutboxRepository.
func (s *MemoryStore) OutboxRepo() contracts.OutboxRepository {
	return outboxAdapter{s}
}

type outboxAdapter struct{ s *MemoryStore }

func (a outboxAdapter) InsertMut(event *contracts.OutboxEvent) *spanner.Mutation {
	return a.s.insertEventMut(event)
}

func (a outboxAdapter) EnrichEvent(event domain.DomainEvent, payload string) *contracts.OutboxEvent {
	return a.s.EnrichEvent(event, payload)
}

func snapshot(record *domain.Record) (*storedRecord, error) {
	doc, err := json.Marshal(record.Document())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	return &storedRecord{
		document:    doc,
		dirtyFields: record.Changes().DirtyFields(),
		version:     record.Version(),
		createdAt:   record.CreatedAt(),
		updatedAt:   record.UpdatedAt(),
		archivedAt:  record.ArchivedAt(),
	}, nil
}

func (r *storedRecord) decode() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(r.document, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	return doc, nil
}

func (r *storedRecord) dto(id string) (*contracts.RecordDTO, error) {
	doc, err := r.decode()
	if err != nil {
		return nil, err
	}
	return &contracts.RecordDTO{
		RecordID:    id,
		Document:    doc,
		DirtyFields: slices.Clone(r.dirtyFields),
		Version:     r.version,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
		ArchivedAt:  r.archivedAt,
	}, nil
}
