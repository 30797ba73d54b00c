package record

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// validateRecordID validates requests that carry only a record ID.
func validateRecordID(req *wrapperspb.StringValue) error {
	if strings.TrimSpace(req.GetValue()) == "" {
		return status.Error(codes.InvalidArgument, "record_id is required")
	}
	return nil
}

// validateCreateRecordRequest validates the CreateRecord request.
func validateCreateRecordRequest(req *structpb.Struct) error {
	doc, ok := req.GetFields()[fieldDocument]
	if !ok {
		return status.Error(codes.InvalidArgument, "document is required")
	}
	if doc.GetStructValue() == nil {
		return status.Error(codes.InvalidArgument, "document must be an object")
	}
	if id, ok := req.GetFields()[fieldRecordID]; ok {
		if _, isString := id.GetKind().(*structpb.Value_StringValue); !isString {
			return status.Error(codes.InvalidArgument, "record_id must be a string")
		}
	}
	return nil
}

// validateUpdateRecordRequest validates the UpdateRecord request.
func validateUpdateRecordRequest(req *structpb.Struct) error {
	if stringField(req, fieldRecordID) == "" {
		return status.Error(codes.InvalidArgument, "record_id is required")
	}
	ops := req.GetFields()[fieldOps].GetListValue()
	if ops == nil || len(ops.GetValues()) == 0 {
		return status.Error(codes.InvalidArgument, "ops must be a non-empty list")
	}
	if v, ok := req.GetFields()[fieldExpectedVersion]; ok {
		if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
			return status.Error(codes.InvalidArgument, "expected_version must be a number")
		}
	}
	return nil
}
