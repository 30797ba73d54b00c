package record

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/light-bringer/dirtify-service/internal/app/record/contracts"
	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
)

// Struct field names used on the wire.
const (
	fieldRecordID        = "record_id"
	fieldDocument        = "document"
	fieldOps             = "ops"
	fieldOp              = "op"
	fieldPath            = "path"
	fieldValue           = "value"
	fieldExpectedVersion = "expected_version"
	fieldChanged         = "changed"
	fieldVersion         = "version"
	fieldDirtyFields     = "dirty_fields"
	fieldCreatedAt       = "created_at"
	fieldUpdatedAt       = "updated_at"
	fieldArchivedAt      = "archived_at"
	fieldIncludeArchived = "include_archived"
	fieldChangedField    = "changed_field"
	fieldLimit           = "limit"
	fieldOffset          = "offset"
	fieldRecords         = "records"
	fieldTotalCount      = "total_count"
	fieldEventType       = "event_type"
	fieldEvents          = "events"
	fieldEventID         = "event_id"
	fieldPayload         = "payload"
	fieldStatus          = "status"
)

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func boolField(s *structpb.Struct, name string) bool {
	return s.GetFields()[name].GetBoolValue()
}

// maxExactInt is the largest integer a JSON number holds exactly.
const maxExactInt = 1 << 53

// intField reads a non-negative whole number. Missing fields read as zero.
func intField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue > maxExactInt {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer", name)
	}
	return int64(n.NumberValue), nil
}

// protoToPatch converts the ops list of an UpdateRecord request.
func protoToPatch(ops *structpb.ListValue) (domain.Patch, error) {
	patch := make(domain.Patch, 0, len(ops.GetValues()))
	for i, v := range ops.GetValues() {
		op := v.GetStructValue()
		if op == nil {
			return nil, status.Errorf(codes.InvalidArgument, "ops[%d] must be an object", i)
		}
		kind := domain.OpKind(stringField(op, fieldOp))
		if kind == "" {
			kind = domain.OpSet
		}
		var value any
		if raw, ok := op.GetFields()[fieldValue]; ok {
			value = raw.AsInterface()
		}
		patch = append(patch, domain.Op{
			Kind:  kind,
			Path:  stringField(op, fieldPath),
			Value: value,
		})
	}
	return patch, nil
}

func recordToProto(dto *contracts.RecordDTO) (*structpb.Struct, error) {
	m := map[string]any{
		fieldRecordID:    dto.RecordID,
		fieldDocument:    dto.Document,
		fieldVersion:     dto.Version,
		fieldDirtyFields: stringsToList(dto.DirtyFields),
		fieldCreatedAt:   formatTime(dto.CreatedAt),
		fieldUpdatedAt:   formatTime(dto.UpdatedAt),
	}
	if dto.ArchivedAt != nil {
		m[fieldArchivedAt] = formatTime(*dto.ArchivedAt)
	}
	return structpb.NewStruct(m)
}

func eventToMap(event *m_outbox.Data) (map[string]any, error) {
	m := map[string]any{
		fieldEventID:   event.EventID,
		fieldEventType: event.EventType,
		fieldRecordID:  event.AggregateID,
		fieldStatus:    event.Status,
		fieldCreatedAt: formatTime(event.CreatedAt),
	}
	if event.Payload.Valid {
		payload, err := payloadToAny(event.Payload.Value)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", event.EventID, err)
		}
		m[fieldPayload] = payload
	}
	return m, nil
}

// payloadToAny normalises a JSON column value into plain JSON types.
func payloadToAny(v any) (any, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringsToList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
