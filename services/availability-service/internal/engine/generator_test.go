package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/timezone"
)

func testGenerator() *Generator {
	return NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func utcScenarioRequest(now time.Time) Request {
	return Request{
		Settings: model.BookingSettings{
			ProviderID:           "p1",
			TimeZone:             "UTC",
			LeadTimeMinutes:      60,
			MaxAdvanceDays:       2,
			DefaultBufferMinutes: 0,
		},
		Rules: []model.AvailabilityRule{
			{ID: "mon", Weekday: 1, StartMinute: 0, EndMinute: 1440, Active: true},
		},
		Services:        []model.Service{{ID: "svc", DurationMinutes: 60}},
		RangeStart:      now,
		RangeEnd:        now.Add(48 * time.Hour),
		IntervalMinutes: 30,
		Now:             now,
	}
}

func TestSlots_UTCScenario(t *testing.T) {
	// 2024-01-01 is a Monday.
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	slots, err := testGenerator().Slots(utcScenarioRequest(now))
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}

	// Lead time pushes the first offer to 01:00Z.
	first := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(first) {
		t.Fatalf("expected first slot at %s, got %s", first.Format(time.RFC3339), slots[0].Start.Format(time.RFC3339))
	}

	// Starts 01:00 through 23:00 every 30 minutes.
	if len(slots) != 45 {
		t.Fatalf("expected 45 slots, got %d", len(slots))
	}

	horizon := now.Add(48 * time.Hour)
	for _, s := range slots {
		if s.End.Sub(s.Start) != 60*time.Minute {
			t.Fatalf("slot %s has duration %s, expected 60m", s.Start.Format(time.RFC3339), s.End.Sub(s.Start))
		}
		if s.Start.Before(now.Add(time.Hour)) {
			t.Fatalf("slot %s violates lead time", s.Start.Format(time.RFC3339))
		}
		if s.Start.After(horizon) {
			t.Fatalf("slot %s exceeds the advance horizon", s.Start.Format(time.RFC3339))
		}
	}
}

func TestSlots_Idempotent(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := testGenerator()

	a, err := g.Slots(utcScenarioRequest(now))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := g.Slots(utcScenarioRequest(now))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			t.Fatalf("runs differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSlots_BlackoutRemovesOverlaps(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	req.Blackouts = []model.Blackout{{
		ID:    "b1",
		Start: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
	}}

	slots, err := testGenerator().Slots(req)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	// 01:00 and 01:30 both overlap the blackout; 02:00 touches and survives.
	if len(slots) != 43 {
		t.Fatalf("expected 43 slots, got %d", len(slots))
	}
	want := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(want) {
		t.Fatalf("expected first slot at %s, got %s", want.Format(time.RFC3339), slots[0].Start.Format(time.RFC3339))
	}
}

func TestSlots_WallClockStableAcrossDST(t *testing.T) {
	// One 8h Monday rule in Edmonton, generated across the 2024-03-10
	// spring-forward. Both Mondays must offer 9:00-17:00 local, which is
	// 16:00Z before the transition and 15:00Z after.
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	req := Request{
		Settings: model.BookingSettings{
			ProviderID:     "p1",
			TimeZone:       "America/Edmonton",
			MaxAdvanceDays: 30,
		},
		Rules: []model.AvailabilityRule{
			{ID: "mon", Weekday: 1, StartMinute: 540, EndMinute: 1020, Active: true},
		},
		Services:        []model.Service{{ID: "svc", DurationMinutes: 480}},
		RangeStart:      time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		IntervalMinutes: 30,
		Now:             now,
	}

	slots, err := testGenerator().Slots(req)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected one full-day slot per Monday, got %d", len(slots))
	}
	wantFirst := time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC)
	wantSecond := time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC)
	if !slots[0].Start.Equal(wantFirst) {
		t.Fatalf("pre-DST Monday: expected %s, got %s", wantFirst.Format(time.RFC3339), slots[0].Start.Format(time.RFC3339))
	}
	if !slots[1].Start.Equal(wantSecond) {
		t.Fatalf("post-DST Monday: expected %s, got %s", wantSecond.Format(time.RFC3339), slots[1].Start.Format(time.RFC3339))
	}
}

func TestSlots_SkipsInvalidRuleWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	req.Rules = append([]model.AvailabilityRule{
		{ID: "broken", Weekday: 1, StartMinute: 600, EndMinute: 540, Active: true},
	}, req.Rules...)

	slots, err := testGenerator().Slots(req)
	if err != nil {
		t.Fatalf("invalid rule must not abort generation: %v", err)
	}
	if len(slots) != 45 {
		t.Fatalf("expected the valid rule's 45 slots, got %d", len(slots))
	}
}

func TestSlots_DeduplicatesOverlappingRules(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	req.Rules = append(req.Rules, model.AvailabilityRule{
		ID: "mon-dup", Weekday: 1, StartMinute: 0, EndMinute: 1440, Active: true,
	})

	slots, err := testGenerator().Slots(req)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 45 {
		t.Fatalf("expected identical windows de-duplicated to 45, got %d", len(slots))
	}
}

func TestSlots_InvalidProviderZoneIsFatal(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	req.Settings.TimeZone = "Mars/Olympus"

	_, err := testGenerator().Slots(req)
	if !errors.Is(err, timezone.ErrInvalidTimeZone) {
		t.Fatalf("expected ErrInvalidTimeZone, got %v", err)
	}
}

func TestSlots_RangeTooWideFailsClosed(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	req.Settings.MaxAdvanceDays = 500
	req.RangeEnd = now.Add(400 * 24 * time.Hour)

	_, err := testGenerator().Slots(req)
	if !errors.Is(err, ErrRangeTooWide) {
		t.Fatalf("expected ErrRangeTooWide, got %v", err)
	}
}

func TestSlots_CallerRangeOnlyNarrowsHorizon(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := utcScenarioRequest(now)
	// Caller asks for a week; settings still cap offers at two days out.
	req.RangeEnd = now.Add(7 * 24 * time.Hour)
	req.Rules = []model.AvailabilityRule{
		{ID: "all-week-mon", Weekday: 1, StartMinute: 0, EndMinute: 1440, Active: true},
		{ID: "all-week-tue", Weekday: 2, StartMinute: 0, EndMinute: 1440, Active: true},
		{ID: "all-week-wed", Weekday: 3, StartMinute: 0, EndMinute: 1440, Active: true},
		{ID: "all-week-thu", Weekday: 4, StartMinute: 0, EndMinute: 1440, Active: true},
	}

	slots, err := testGenerator().Slots(req)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	horizon := now.Add(48 * time.Hour)
	for _, s := range slots {
		if s.Start.After(horizon) {
			t.Fatalf("slot %s offered past the max-advance horizon", s.Start.Format(time.RFC3339))
		}
	}
}
