package timezone

import (
	"errors"
	"testing"
	"time"
)

func TestOffsetMinutes_EdmontonAcrossDST(t *testing.T) {
	winter := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	off, err := OffsetMinutes(winter, "America/Edmonton")
	if err != nil {
		t.Fatalf("offset: %v", err)
	}
	if off != -420 {
		t.Fatalf("expected -420 (MST), got %d", off)
	}

	summer := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	off, err = OffsetMinutes(summer, "America/Edmonton")
	if err != nil {
		t.Fatalf("offset: %v", err)
	}
	if off != -360 {
		t.Fatalf("expected -360 (MDT), got %d", off)
	}
}

func TestZonedTime(t *testing.T) {
	got, err := ZonedTime("America/Edmonton", 2024, time.March, 11, 9, 0, 0)
	if err != nil {
		t.Fatalf("zoned time: %v", err)
	}
	// March 11 is the first Monday after the 2024 spring-forward; 9:00 local is MDT.
	want := time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestStartOfLocalDay(t *testing.T) {
	// 05:00Z on Jan 2 is still Jan 1 in Edmonton (UTC-7).
	instant := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	got, err := StartOfLocalDay(instant, "America/Edmonton")
	if err != nil {
		t.Fatalf("start of day: %v", err)
	}
	want := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestWeekday_ReadsInZone(t *testing.T) {
	// Monday 05:00Z is still Sunday in Edmonton.
	instant := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	wd, err := Weekday(instant, "America/Edmonton")
	if err != nil {
		t.Fatalf("weekday: %v", err)
	}
	if wd != 0 {
		t.Fatalf("expected Sunday (0), got %d", wd)
	}
	wd, err = Weekday(instant, "UTC")
	if err != nil {
		t.Fatalf("weekday: %v", err)
	}
	if wd != 1 {
		t.Fatalf("expected Monday (1), got %d", wd)
	}
}

func TestInvalidZoneFailsFast(t *testing.T) {
	if _, err := OffsetMinutes(time.Now(), "Mars/Olympus"); !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("expected ErrInvalidTimeZone, got %v", err)
	}
	if _, err := StartOfLocalDay(time.Now(), ""); !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("expected ErrInvalidTimeZone for empty zone, got %v", err)
	}
}
