package engine

import (
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

// TotalDuration returns the contiguous time one booking occupies: every
// selected service's duration plus its own pre/post buffers, plus the
// provider-level default buffer applied once per booking.
func TotalDuration(services []model.Service, defaultBufferMinutes int) time.Duration {
	minutes := defaultBufferMinutes
	for _, s := range services {
		minutes += s.DurationMinutes + s.BufferBeforeMinutes + s.BufferAfterMinutes
	}
	return time.Duration(minutes) * time.Minute
}
