package engine

import (
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

// ApplyBusy returns the slots that overlap none of the externally reported
// busy intervals, using the same half-open overlap rule as blackouts.
// Pure; callers decide whether busy data is available at all.
func ApplyBusy(slots []model.Slot, busy []model.BusyInterval) []model.Slot {
	if len(busy) == 0 {
		return slots
	}
	out := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		if busyOverlapsAny(s, busy) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func busyOverlapsAny(s model.Slot, busy []model.BusyInterval) bool {
	for _, b := range busy {
		if overlaps(s.Start, s.End, b.Start, b.End) {
			return true
		}
	}
	return false
}
