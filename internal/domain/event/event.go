package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
)

// Event represents a voucher domain event
type Event struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	VoucherID     int64           `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	Voucher       *entity.Voucher `json:"voucher,omitempty"`
	Actor         string          `json:"actor,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
}

// NewEvent creates an event carrying a snapshot of the voucher after the change
func NewEvent(eventType Type, voucher *entity.Voucher, actor string) *Event {
	id := uuid.NewString()
	return NewEventWithCorrelation(eventType, voucher, actor, id)
}

// NewEventWithCorrelation creates an event linked to a correlation chain such as a request id
func NewEventWithCorrelation(eventType Type, voucher *entity.Voucher, actor, correlationID string) *Event {
	evt := &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Actor:         actor,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
	if voucher != nil {
		snapshot := *voucher
		evt.Voucher = &snapshot
		evt.VoucherID = voucher.ID
		evt.VoucherNumber = voucher.VoucherNumber
	}
	return evt
}

type correlationKey struct{}

// ContextWithCorrelationID attaches a correlation id, usually the request id, to ctx
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the correlation id attached to ctx, or ""
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
