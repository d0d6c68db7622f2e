package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/timezone"
)

// ErrInvalidRuleWindow marks a rule whose window cannot be walked
// (start at or past end, or minutes outside a single local day).
// Callers skip such rules instead of aborting the whole computation.
var ErrInvalidRuleWindow = errors.New("invalid rule window")

const minutesPerDay = 24 * 60

// WalkRule generates raw candidate slots for one rule on the civil day
// containing day. Candidates step by interval from the rule's local start;
// a candidate is emitted only when it fits entirely before the rule's local
// end, so the loop is bounded by (end-start)/interval.
//
// Rules spanning local midnight (EndMinute > 1440) are not representable;
// they must be split into two rules on consecutive days.
func WalkRule(rule model.AvailabilityRule, day time.Time, providerZone string, total, interval time.Duration) ([]model.Slot, error) {
	if rule.StartMinute < 0 || rule.EndMinute > minutesPerDay || rule.StartMinute >= rule.EndMinute {
		return nil, fmt.Errorf("%w: rule %s has window %d-%d", ErrInvalidRuleWindow, rule.ID, rule.StartMinute, rule.EndMinute)
	}
	if total <= 0 || interval <= 0 {
		return nil, nil
	}

	zone := rule.TimeZone
	if zone == "" {
		zone = providerZone
	}
	midnight, err := timezone.StartOfLocalDay(day, zone)
	if err != nil {
		return nil, err
	}

	ruleStart := midnight.Add(time.Duration(rule.StartMinute) * time.Minute)
	ruleEnd := midnight.Add(time.Duration(rule.EndMinute) * time.Minute)

	var out []model.Slot
	for t := ruleStart; !t.Add(total).After(ruleEnd); t = t.Add(interval) {
		out = append(out, model.Slot{Start: t, End: t.Add(total)})
	}
	return out, nil
}
