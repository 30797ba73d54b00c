package record

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/light-bringer/dirtify-service/internal/app/record/queries/get_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_records"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/archive_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/create_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/update_record"
)

// Handler implements RecordServiceServer.
// It's a thin coordinator that delegates to use cases and queries.
type Handler struct {
	log *slog.Logger

	// Commands
	createRecord  *create_record.Interactor
	updateRecord  *update_record.Interactor
	archiveRecord *archive_record.Interactor

	// Queries
	getRecord   *get_record.Query
	listRecords *list_records.Query
	listEvents  *list_events.Query
}

var _ RecordServiceServer = (*Handler)(nil)

// NewHandler creates a new gRPC record handler.
func NewHandler(
	log *slog.Logger,
	createRecord *create_record.Interactor,
	updateRecord *update_record.Interactor,
	archiveRecord *archive_record.Interactor,
	getRecord *get_record.Query,
	listRecords *list_records.Query,
	listEvents *list_events.Query,
) *Handler {
	return &Handler{
		log:           log,
		createRecord:  createRecord,
		updateRecord:  updateRecord,
		archiveRecord: archiveRecord,
		getRecord:     getRecord,
		listRecords:   listRecords,
		listEvents:    listEvents,
	}
}

// CreateRecord creates a record.
//
// Request: {record_id?: string, document: object}. Reply: {record_id: string}.
func (h *Handler) CreateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := validateCreateRecordRequest(req); err != nil {
		return nil, err
	}

	recordID, err := h.createRecord.Execute(ctx, &create_record.Request{
		RecordID: stringField(req, fieldRecordID),
		Document: req.GetFields()[fieldDocument].GetStructValue().AsMap(),
	})
	if err != nil {
		return nil, h.fail("create record", err)
	}

	return structpb.NewStruct(map[string]any{fieldRecordID: recordID})
}

// UpdateRecord applies a patch to a record.
//
// Request: {record_id: string, expected_version?: number,
// ops: [{op: "set"|"delete", path: "a.b.0", value?: any}]}.
// Reply: {changed: bool, version: number, dirty_fields: [string]}.
func (h *Handler) UpdateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := validateUpdateRecordRequest(req); err != nil {
		return nil, err
	}

	patch, err := protoToPatch(req.GetFields()[fieldOps].GetListValue())
	if err != nil {
		return nil, err
	}

	appReq := &update_record.Request{
		RecordID: stringField(req, fieldRecordID),
		Patch:    patch,
	}
	if _, ok := req.GetFields()[fieldExpectedVersion]; ok {
		expected, err := intField(req, fieldExpectedVersion)
		if err != nil {
			return nil, err
		}
		appReq.ExpectedVersion = &expected
	}

	resp, err := h.updateRecord.Execute(ctx, appReq)
	if err != nil {
		return nil, h.fail("update record", err)
	}

	return structpb.NewStruct(map[string]any{
		fieldChanged:     resp.Changed,
		fieldVersion:     resp.Version,
		fieldDirtyFields: stringsToList(resp.DirtyFields),
	})
}

// GetRecord retrieves a record by ID.
func (h *Handler) GetRecord(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := validateRecordID(req); err != nil {
		return nil, err
	}

	dto, err := h.getRecord.Execute(ctx, &get_record.Request{RecordID: req.GetValue()})
	if err != nil {
		return nil, h.fail("get record", err)
	}

	reply, err := recordToProto(dto)
	if err != nil {
		return nil, h.fail("encode record", err)
	}
	return reply, nil
}

// ArchiveRecord archives a record (soft delete).
func (h *Handler) ArchiveRecord(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := validateRecordID(req); err != nil {
		return nil, err
	}

	if err := h.archiveRecord.Execute(ctx, &archive_record.Request{RecordID: req.GetValue()}); err != nil {
		return nil, h.fail("archive record", err)
	}

	return &emptypb.Empty{}, nil
}

// ListRecords lists records, newest first.
//
// Request: {include_archived?: bool, changed_field?: string, limit?: number, offset?: number}.
// Reply: {records: [record], total_count: number}.
func (h *Handler) ListRecords(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, fieldLimit)
	if err != nil {
		return nil, err
	}
	offset, err := intField(req, fieldOffset)
	if err != nil {
		return nil, err
	}

	result, err := h.listRecords.Execute(ctx, &list_records.Request{
		IncludeArchived: boolField(req, fieldIncludeArchived),
		ChangedField:    stringField(req, fieldChangedField),
		Limit:           int(limit),
		Offset:          int(offset),
	})
	if err != nil {
		return nil, h.fail("list records", err)
	}

	records := make([]any, 0, len(result.Records))
	for _, dto := range result.Records {
		s, err := recordToProto(dto)
		if err != nil {
			return nil, h.fail("encode record", err)
		}
		records = append(records, s.AsMap())
	}

	return structpb.NewStruct(map[string]any{
		fieldRecords:    records,
		fieldTotalCount: result.TotalCount,
	})
}

// ListRecordEvents lists the outbox events of one record, newest first.
//
// Request: {record_id: string, event_type?: string, limit?: number}.
// Reply: {events: [{event_id, event_type, record_id, status, created_at, payload}]}.
func (h *Handler) ListRecordEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, fieldLimit)
	if err != nil {
		return nil, err
	}

	queryReq := &list_events.Request{
		AggregateID: stringField(req, fieldRecordID),
		Limit:       int(limit),
	}
	if eventType := stringField(req, fieldEventType); eventType != "" {
		queryReq.EventType = &eventType
	}

	events, err := h.listEvents.Execute(ctx, queryReq)
	if err != nil {
		return nil, h.fail("list events", err)
	}

	out := make([]any, 0, len(events))
	for _, event := range events {
		m, err := eventToMap(event)
		if err != nil {
			return nil, h.fail("encode event", err)
		}
		out = append(out, m)
	}

	return structpb.NewStruct(map[string]any{fieldEvents: out})
}

// fail maps err to a status error, logging anything that is not a client error.
func (h *Handler) fail(op string, err error) error {
	st := mapDomainErrorToGRPC(err)
	if status.Code(st) == codes.Internal {
		h.log.Error(op+" failed", "error", err)
	} else {
		h.log.Debug(op+" rejected", "error", err)
	}
	return st
}
