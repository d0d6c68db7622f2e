package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/engine"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/freebusy"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/storage"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/timezone"
)

// Store is the read surface the slots endpoint needs.
type Store interface {
	GetSettings(ctx context.Context, providerID string) (model.BookingSettings, error)
	ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error)
	ListBlackouts(ctx context.Context, providerID string, from, to time.Time) ([]model.Blackout, error)
	GetServices(ctx context.Context, providerID string, serviceIDs []string) ([]model.Service, error)
}

// BusyCache is the fallback source of busy intervals when the live free/busy
// provider errors.
type BusyCache interface {
	Get(ctx context.Context, providerID string) ([]model.BusyInterval, error)
}

type SlotsHandler struct {
	store          Store
	generator      *engine.Generator
	freebusy       freebusy.Provider
	busyCache      BusyCache
	logger         *slog.Logger
	overlayTimeout time.Duration
}

func NewSlotsHandler(store Store, generator *engine.Generator, fb freebusy.Provider, cache BusyCache, logger *slog.Logger, overlayTimeout time.Duration) *SlotsHandler {
	if overlayTimeout <= 0 {
		overlayTimeout = 3 * time.Second
	}
	return &SlotsHandler{
		store:          store,
		generator:      generator,
		freebusy:       fb,
		busyCache:      cache,
		logger:         logger,
		overlayTimeout: overlayTimeout,
	}
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *SlotsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	if providerID == "" {
		http.Error(w, "provider_id is required", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(providerID); err != nil {
		http.Error(w, "provider_id must be a UUID", http.StatusBadRequest)
		return
	}

	serviceIDs := splitIDs(r.URL.Query().Get("service_ids"))
	if len(serviceIDs) == 0 {
		http.Error(w, "service_ids is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	settings, err := h.store.GetSettings(ctx, providerID)
	if err != nil {
		if storage.IsNotConfigured(err) {
			http.Error(w, "unavailable: booking configuration incomplete", http.StatusConflict)
			return
		}
		http.Error(w, "failed to load booking settings", http.StatusInternalServerError)
		return
	}

	// Unparseable range endpoints degrade to safe defaults rather than
	// leaking into the day-walking loop; only an inverted range is a
	// client error.
	from := now
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			from = t.UTC()
		}
	}
	to := now.Add(time.Duration(settings.MaxAdvanceDays) * 24 * time.Hour)
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			to = t.UTC()
		}
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	intervalMinutes := engine.DefaultIntervalMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("interval_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 240 {
			http.Error(w, "invalid interval_minutes", http.StatusBadRequest)
			return
		}
		intervalMinutes = n
	}

	rules, err := h.store.ListRules(ctx, providerID)
	if err != nil {
		http.Error(w, "failed to load availability rules", http.StatusInternalServerError)
		return
	}
	blackouts, err := h.store.ListBlackouts(ctx, providerID, from, to)
	if err != nil {
		http.Error(w, "failed to load blackouts", http.StatusInternalServerError)
		return
	}
	services, err := h.store.GetServices(ctx, providerID, serviceIDs)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service in service_ids", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load services", http.StatusInternalServerError)
		return
	}

	slots, err := h.generator.Slots(engine.Request{
		Settings:        settings,
		Rules:           rules,
		Blackouts:       blackouts,
		Services:        services,
		RangeStart:      from,
		RangeEnd:        to,
		IntervalMinutes: intervalMinutes,
		Now:             now,
	})
	if err != nil {
		switch {
		case errors.Is(err, timezone.ErrInvalidTimeZone):
			h.logger.Error("provider has unusable time zone configuration", "provider_id", providerID, "err", err)
			http.Error(w, "unavailable: booking configuration incomplete", http.StatusConflict)
		case errors.Is(err, engine.ErrRangeTooWide):
			http.Error(w, "requested range is too wide", http.StatusBadRequest)
		default:
			h.logger.Error("slot generation failed", "provider_id", providerID, "err", err)
			http.Error(w, "failed to compute availability", http.StatusInternalServerError)
		}
		return
	}

	calendarID := strings.TrimSpace(r.URL.Query().Get("calendar_id"))
	slots = engine.ApplyBusy(slots, h.resolveBusy(ctx, providerID, calendarID, from, to))

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartTime: s.Start.UTC().Format(time.RFC3339),
			EndTime:   s.End.UTC().Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(items)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// resolveBusy fetches busy intervals best-effort: live provider first, then
// the last-known cache. Nothing here may fail the request; a degraded
// internal-only answer beats no answer.
func (h *SlotsHandler) resolveBusy(ctx context.Context, providerID, calendarID string, from, to time.Time) []model.BusyInterval {
	if h.freebusy != nil {
		callCtx, cancel := context.WithTimeout(ctx, h.overlayTimeout)
		busy, err := h.freebusy.Busy(callCtx, providerID, calendarID, from, to)
		cancel()
		if err == nil {
			return busy
		}
		h.logger.Warn("free/busy lookup failed; trying cache", "provider_id", providerID, "err", err)
	}
	if h.busyCache != nil {
		busy, err := h.busyCache.Get(ctx, providerID)
		if err == nil {
			return busy
		}
		if !errors.Is(err, freebusy.ErrCacheMiss) {
			h.logger.Warn("busy cache read failed; returning internal-only slots", "provider_id", providerID, "err", err)
		}
	}
	return nil
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
