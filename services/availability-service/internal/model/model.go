package model

import "time"

// BookingSettings is a provider's scheduling configuration. Read-only input
// to slot generation; a provider without a settings row is not bookable.
type BookingSettings struct {
	ProviderID           string
	TimeZone             string
	LeadTimeMinutes      int
	MaxAdvanceDays       int
	DefaultBufferMinutes int
}

// AvailabilityRule is one recurring weekly availability window.
// StartMinute/EndMinute are offsets from local midnight in the rule's own
// time zone; TimeZone empty means the provider's default zone applies.
// Rules do not span local midnight (EndMinute <= 1440).
type AvailabilityRule struct {
	ID          string
	ProviderID  string
	Weekday     int // 0=Sunday .. 6=Saturday, provider-local
	StartMinute int
	EndMinute   int
	TimeZone    string
	Active      bool
}

// Blackout is a one-off exclusion interval in absolute time.
type Blackout struct {
	ID     string
	Start  time.Time
	End    time.Time
	Reason string
}

// Service describes one bookable service's time footprint.
type Service struct {
	ID                  string
	Name                string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
}

// Slot is one candidate bookable window. Slots carry no identity and are
// never persisted; they are recomputed on every request.
type Slot struct {
	Start time.Time
	End   time.Time
}

// BusyInterval is an externally reported busy window (calendar free/busy).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}
