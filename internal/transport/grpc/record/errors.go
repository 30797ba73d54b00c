package record

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/dirtify-service/internal/app/record/domain"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
)

// mapDomainErrorToGRPC converts domain errors to gRPC status codes.
func mapDomainErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, domain.ErrRecordAlreadyExists):
		return status.Error(codes.AlreadyExists, "record already exists")

	case errors.Is(err, domain.ErrEmptyID), errors.Is(err, list_events.ErrMissingAggregateID):
		return status.Error(codes.InvalidArgument, "record_id is required")

	case errors.Is(err, domain.ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, "document must be a JSON object")

	// Patch errors carry the offending path.
	case errors.Is(err, domain.ErrInvalidPatch), errors.Is(err, domain.ErrInvalidPath):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrVersionConflict):
		return status.Error(codes.Aborted, "record was modified concurrently")

	case errors.Is(err, domain.ErrAlreadyArchived):
		return status.Error(codes.FailedPrecondition, "record is already archived")

	case errors.Is(err, domain.ErrCannotModifyArchived):
		return status.Error(codes.FailedPrecondition, "cannot modify archived record")

	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
