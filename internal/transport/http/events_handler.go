package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventsLister is the slice of the record gRPC client the handler needs.
type EventsLister interface {
	ListRecordEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// EventsHandler serves a record's change history as JSON.
type EventsHandler struct {
	records EventsLister
}

// NewEventsHandler creates a new HTTP events handler.
func NewEventsHandler(records EventsLister) *EventsHandler {
	return &EventsHandler{
		records: records,
	}
}

// ListEventsResponse represents the HTTP response for listing events.
type ListEventsResponse struct {
	Events []any `json:"events"`
}

// Routes registers the handler on mux.
func (h *EventsHandler) Routes(mux *http.ServeMux) {
	mux.Handle("GET /api/v1/records/{id}/events", h)
}

// ServeHTTP handles GET /api/v1/records/{id}/events?event_type=&limit= requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := map[string]any{
		"record_id": r.PathValue("id"),
	}

	query := r.URL.Query()
	if eventType := query.Get("event_type"); eventType != "" {
		req["event_type"] = eventType
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		req["limit"] = limit
	}

	in, err := structpb.NewStruct(req)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.records.ListRecordEvents(r.Context(), in)
	if err != nil {
		http.Error(w, "failed to fetch events: "+status.Convert(err).Message(), httpStatus(err))
		return
	}

	events, _ := resp.AsMap()["events"].([]any)
	if events == nil {
		events = []any{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ListEventsResponse{Events: events})
}

func httpStatus(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
