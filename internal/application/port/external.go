package port

import (
	"context"
	"time"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/event"
)

// EventPublisher hands voucher events to subscribers without waiting for them
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// RegisterRenderer renders a voucher register document
type RegisterRenderer interface {
	Render(ctx context.Context, vouchers []*entity.Voucher, generatedAt time.Time) ([]byte, error)
}

// ChatMessenger delivers plain text messages to a chat
type ChatMessenger interface {
	SendText(ctx context.Context, chatID, text string) error
}
