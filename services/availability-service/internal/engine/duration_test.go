package engine

import (
	"testing"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

func TestTotalDuration(t *testing.T) {
	services := []model.Service{
		{DurationMinutes: 60, BufferBeforeMinutes: 5, BufferAfterMinutes: 10},
		{DurationMinutes: 30},
	}
	got := TotalDuration(services, 15)
	if got != 120*time.Minute {
		t.Fatalf("expected 120m, got %s", got)
	}
}

func TestTotalDuration_EmptyServices(t *testing.T) {
	if got := TotalDuration(nil, 10); got != 10*time.Minute {
		t.Fatalf("expected 10m for empty service list, got %s", got)
	}
	if got := TotalDuration(nil, 0); got != 0 {
		t.Fatalf("expected zero, got %s", got)
	}
}
