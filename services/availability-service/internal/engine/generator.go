// Package engine computes bookable time windows from a provider's recurring
// availability rules, blackouts, and service durations. It is pure and
// stateless: all inputs, including the reference instant, arrive per call,
// and identical inputs produce identical output.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

const (
	// DefaultIntervalMinutes is the walker step when the caller does not
	// supply one.
	DefaultIntervalMinutes = 30

	// MaxRangeDays is the hard ceiling on the walked range, independent of
	// provider configuration. Ranges wider than this after clamping are
	// rejected outright so a pathological request cannot drive an
	// effectively unbounded day loop.
	MaxRangeDays = 370
)

// ErrRangeTooWide is returned when the sanitized range still exceeds
// MaxRangeDays. The request is rejected rather than silently truncated.
var ErrRangeTooWide = errors.New("requested range exceeds the maximum walkable width")

type Request struct {
	Settings  model.BookingSettings
	Rules     []model.AvailabilityRule
	Blackouts []model.Blackout
	Services  []model.Service

	RangeStart time.Time
	RangeEnd   time.Time

	// IntervalMinutes is the walker step; <=0 selects the default.
	IntervalMinutes int

	// Now is the reference instant for lead-time and max-advance checks.
	// Zero means the real clock.
	Now time.Time
}

type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Slots walks calendar days across the requested range and returns every
// candidate window that passes the lead-time, max-advance, and blackout
// checks. Candidates come out in day order, then rule order, then walker
// step order, with exact duplicate windows removed; the list is not
// guaranteed strictly chronological when rules overlap.
func (g *Generator) Slots(req Request) ([]model.Slot, error) {
	settings := req.Settings
	if settings.LeadTimeMinutes < 0 || settings.MaxAdvanceDays < 0 {
		return nil, fmt.Errorf("booking settings for provider %s have negative lead time or advance window", settings.ProviderID)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	interval := time.Duration(req.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = DefaultIntervalMinutes * time.Minute
	}

	rangeStart := req.RangeStart.UTC()
	rangeEnd := req.RangeEnd.UTC()

	// A caller-supplied range end narrows the horizon, never widens it.
	horizon := now.Add(time.Duration(settings.MaxAdvanceDays) * 24 * time.Hour)
	if rangeEnd.After(horizon) {
		rangeEnd = horizon
	}
	if !rangeEnd.After(rangeStart) {
		return nil, nil
	}
	if rangeEnd.Sub(rangeStart) > MaxRangeDays*24*time.Hour {
		return nil, ErrRangeTooWide
	}

	total := TotalDuration(req.Services, settings.DefaultBufferMinutes)

	constraints := Constraints{
		Now:        now,
		LeadTime:   time.Duration(settings.LeadTimeMinutes) * time.Minute,
		MaxAdvance: time.Duration(settings.MaxAdvanceDays) * 24 * time.Hour,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Blackouts:  req.Blackouts,
	}

	type window struct{ start, end int64 }
	var slots []model.Slot
	seen := map[window]struct{}{}

	dayStart := rangeStart.Truncate(24 * time.Hour)
	for day := dayStart; !day.After(rangeEnd); day = day.Add(24 * time.Hour) {
		matched, err := RulesForDay(req.Rules, day, settings.TimeZone)
		if err != nil {
			return nil, err
		}
		for _, rule := range matched {
			candidates, err := WalkRule(rule, day, settings.TimeZone, total, interval)
			if err != nil {
				if errors.Is(err, ErrInvalidRuleWindow) {
					g.logger.Warn("skipping unwalkable availability rule",
						"provider_id", settings.ProviderID,
						"rule_id", rule.ID,
						"err", err,
					)
					continue
				}
				// A bad rule zone is a configuration fault, not a
				// per-rule hiccup; offering slots without it could
				// publish windows the provider never opened.
				return nil, err
			}
			for _, candidate := range candidates {
				if !constraints.Allow(candidate) {
					continue
				}
				// Overlapping rules and DST-repeated civil days can
				// reproduce a window already emitted; keep the first.
				key := window{candidate.Start.Unix(), candidate.End.Unix()}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				slots = append(slots, candidate)
			}
		}
	}
	return slots, nil
}
