package engine

import (
	"testing"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

func TestConstraints_LeadTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Constraints{Now: now, LeadTime: time.Hour, MaxAdvance: 48 * time.Hour}

	tooSoon := model.Slot{Start: now.Add(30 * time.Minute), End: now.Add(90 * time.Minute)}
	if c.Allow(tooSoon) {
		t.Fatal("slot inside the lead window must be rejected")
	}
	exact := model.Slot{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)}
	if !c.Allow(exact) {
		t.Fatal("slot starting exactly at now+lead must be allowed")
	}
}

func TestConstraints_MaxAdvance(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Constraints{Now: now, MaxAdvance: 48 * time.Hour}

	atHorizon := model.Slot{Start: now.Add(48 * time.Hour), End: now.Add(49 * time.Hour)}
	if !c.Allow(atHorizon) {
		t.Fatal("slot starting exactly at the horizon must be allowed")
	}
	past := model.Slot{Start: now.Add(48*time.Hour + time.Minute), End: now.Add(50 * time.Hour)}
	if c.Allow(past) {
		t.Fatal("slot past the advance horizon must be rejected")
	}
}

func TestConstraints_BlackoutHalfOpenOverlap(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blackout := model.Blackout{
		Start: now.Add(10 * time.Hour),
		End:   now.Add(12 * time.Hour),
	}
	c := Constraints{Now: now, MaxAdvance: 48 * time.Hour, Blackouts: []model.Blackout{blackout}}

	overlapping := model.Slot{Start: now.Add(11 * time.Hour), End: now.Add(13 * time.Hour)}
	if c.Allow(overlapping) {
		t.Fatal("slot overlapping a blackout must be rejected")
	}

	// Touching endpoints do not overlap under half-open semantics.
	endsAtStart := model.Slot{Start: now.Add(9 * time.Hour), End: blackout.Start}
	if !c.Allow(endsAtStart) {
		t.Fatal("slot ending where the blackout starts must be allowed")
	}
	startsAtEnd := model.Slot{Start: blackout.End, End: now.Add(13 * time.Hour)}
	if !c.Allow(startsAtEnd) {
		t.Fatal("slot starting where the blackout ends must be allowed")
	}
}
