//go:build protogen

package freebusy

import (
	"context"
	"time"

	"github.com/slotgrid/slotgrid/libs/grpcx"
	calendarv1 "github.com/slotgrid/slotgrid/protos/gen/calendar/v1"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type grpcProvider struct {
	client calendarv1.CalendarSyncServiceClient
}

// NewGRPCProvider dials the calendar-sync service. Requires generated proto
// stubs (build with -tags protogen after running the codegen step).
func NewGRPCProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: calendarv1.NewCalendarSyncServiceClient(conn)}, nil
}

func (p *grpcProvider) Busy(ctx context.Context, providerID, calendarID string, from, to time.Time) ([]model.BusyInterval, error) {
	resp, err := p.client.GetBusy(ctx, &calendarv1.BusyRequest{
		ProviderId: providerID,
		CalendarId: calendarID,
		Start:      timestamppb.New(from),
		End:        timestamppb.New(to),
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.BusyInterval, 0, len(resp.GetBusy()))
	for _, iv := range resp.GetBusy() {
		if iv.GetStart() == nil || iv.GetEnd() == nil {
			continue
		}
		start := iv.GetStart().AsTime()
		end := iv.GetEnd().AsTime()
		if !end.After(start) {
			continue
		}
		out = append(out, model.BusyInterval{Start: start, End: end})
	}
	return out, nil
}
