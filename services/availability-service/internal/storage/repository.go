package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/slotgrid/slotgrid/libs/db"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

// ErrNotConfigured means the provider exists but never completed scheduling
// setup (no settings row). Distinct from ErrNotFound so the API can tell
// "finish your setup" apart from "no such thing".
var ErrNotConfigured = errors.New("provider booking settings not configured")

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetSettings(ctx context.Context, providerID string) (model.BookingSettings, error) {
	var s model.BookingSettings
	err := r.pool.QueryRow(ctx, `
		SELECT provider_id::text, time_zone, lead_time_minutes, max_advance_days, default_buffer_minutes
		FROM booking_settings
		WHERE provider_id = $1
	`, providerID).Scan(&s.ProviderID, &s.TimeZone, &s.LeadTimeMinutes, &s.MaxAdvanceDays, &s.DefaultBufferMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BookingSettings{}, fmt.Errorf("%w: provider %s", ErrNotConfigured, providerID)
	}
	if err != nil {
		return model.BookingSettings{}, err
	}
	return s, nil
}

func (r *Repository) ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, provider_id::text, weekday, start_minute, end_minute, COALESCE(time_zone, ''), active
		FROM availability_rules
		WHERE provider_id = $1
		ORDER BY weekday ASC, start_minute ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		if err := rows.Scan(&rule.ID, &rule.ProviderID, &rule.Weekday, &rule.StartMinute, &rule.EndMinute, &rule.TimeZone, &rule.Active); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListBlackouts(ctx context.Context, providerID string, from, to time.Time) ([]model.Blackout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, start_time, end_time, COALESCE(reason, '')
		FROM blackouts
		WHERE provider_id = $1
			AND end_time > $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Blackout
	for rows.Next() {
		var b model.Blackout
		if err := rows.Scan(&b.ID, &b.Start, &b.End, &b.Reason); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// GetServices returns the requested services. Every id must resolve; a
// missing id yields ErrNotFound rather than a silently shorter booking.
func (r *Repository) GetServices(ctx context.Context, providerID string, serviceIDs []string) ([]model.Service, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, duration_minutes, buffer_before_minutes, buffer_after_minutes
		FROM provider_services
		WHERE provider_id = $1 AND id = ANY($2)
	`, providerID, serviceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]model.Service, len(serviceIDs))
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.BufferBeforeMinutes, &s.BufferAfterMinutes); err != nil {
			return nil, err
		}
		byID[s.ID] = s
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	out := make([]model.Service, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: service %s", ErrNotFound, id)
		}
		out = append(out, s)
	}
	return out, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
