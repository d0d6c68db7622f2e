package engine

import (
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

// Constraints holds the per-request checks applied to every raw candidate.
// The checks are independent; a candidate failing any one is dropped.
type Constraints struct {
	// Now is the reference instant. Injected rather than read from the
	// clock so callers (and tests) can freeze it.
	Now        time.Time
	LeadTime   time.Duration
	MaxAdvance time.Duration

	// RangeStart/RangeEnd bound candidate starts to the requested range.
	// Zero values disable the corresponding bound.
	RangeStart time.Time
	RangeEnd   time.Time

	Blackouts []model.Blackout
}

func (c Constraints) Allow(s model.Slot) bool {
	if s.Start.Before(c.Now.Add(c.LeadTime)) {
		return false
	}
	if s.Start.After(c.Now.Add(c.MaxAdvance)) {
		return false
	}
	if !c.RangeStart.IsZero() && s.Start.Before(c.RangeStart) {
		return false
	}
	if !c.RangeEnd.IsZero() && s.Start.After(c.RangeEnd) {
		return false
	}
	for _, b := range c.Blackouts {
		if overlaps(s.Start, s.End, b.Start, b.End) {
			return false
		}
	}
	return true
}

// overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not count.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
