package engine

import (
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/timezone"
)

// RulesForDay returns the active rules whose weekday matches day as read in
// the provider's default zone. A rule's own TimeZone only affects how its
// minute offsets become instants, never which day it belongs to.
func RulesForDay(rules []model.AvailabilityRule, day time.Time, providerZone string) ([]model.AvailabilityRule, error) {
	weekday, err := timezone.Weekday(day, providerZone)
	if err != nil {
		return nil, err
	}

	var matched []model.AvailabilityRule
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if r.Weekday != weekday {
			continue
		}
		matched = append(matched, r)
	}
	return matched, nil
}
