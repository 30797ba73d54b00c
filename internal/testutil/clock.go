package testutil

import (
	"time"

	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
)

// Epoch is the fixed start time used by test clocks.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// NewMockClock creates a mock clock starting at Epoch.
func NewMockClock() *clock.MockClock {
	return clock.NewMockClock(Epoch)
}
