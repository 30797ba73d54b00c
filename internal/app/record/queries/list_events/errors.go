package list_events

import "errors"

// ErrMissingAggregateID is returned when no record ID is given.
var ErrMissingAggregateID = errors.New("list events: aggregate id is required")
