// Package freebusy fetches externally reported busy intervals for a
// provider's linked calendar. Lookups are best-effort: callers fall back to
// internal-only availability when the source is unreachable.
package freebusy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Provider interface {
	Busy(ctx context.Context, providerID, calendarID string, from, to time.Time) ([]model.BusyInterval, error)
}

// HTTPProvider queries the calendar-sync service's free/busy endpoint.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type busyResponse struct {
	Busy []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"busy"`
}

func (p *HTTPProvider) Busy(ctx context.Context, providerID, calendarID string, from, to time.Time) ([]model.BusyInterval, error) {
	q := url.Values{}
	q.Set("provider_id", providerID)
	if calendarID != "" {
		q.Set("calendar_id", calendarID)
	}
	q.Set("start", from.UTC().Format(time.RFC3339))
	q.Set("end", to.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v1/freebusy?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freebusy endpoint returned status %d", resp.StatusCode)
	}

	var body busyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode freebusy response: %w", err)
	}

	out := make([]model.BusyInterval, 0, len(body.Busy))
	for _, b := range body.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("bad busy interval start %q: %w", b.Start, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("bad busy interval end %q: %w", b.End, err)
		}
		if !end.After(start) {
			continue
		}
		out = append(out, model.BusyInterval{Start: start, End: end})
	}
	return out, nil
}
