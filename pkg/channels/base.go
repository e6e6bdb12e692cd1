package channels

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kritika-bot/kritika/pkg/bus"
)

// Channel is one inbound/outbound transport (Telegram, local CLI).
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
}

// BaseChannel carries the behaviour every channel shares: the bus hookup,
// the allowlist and the running flag.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom []string
	running   atomic.Bool
}

func NewBaseChannel(name string, msgBus *bus.MessageBus, allowFrom []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		bus:       msgBus,
		allowFrom: allowFrom,
	}
}

func (b *BaseChannel) Name() string {
	return b.name
}

// IsAllowed reports whether a sender passes the allowlist. An empty list
// allows everyone.
func (b *BaseChannel) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	return false
}

func (b *BaseChannel) setRunning(v bool) {
	b.running.Store(v)
}

func (b *BaseChannel) IsRunning() bool {
	return b.running.Load()
}

// PublishEvent forwards an inbound event to the bus with a fresh
// correlation id for tracing.
func (b *BaseChannel) PublishEvent(kind bus.EventKind, chatID, senderName, content string) {
	b.bus.PublishInbound(bus.InboundMessage{
		Channel:       b.name,
		Kind:          kind,
		ChatID:        chatID,
		SenderName:    senderName,
		Content:       content,
		CorrelationID: uuid.NewString(),
	})
}
