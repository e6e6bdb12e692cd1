package bus

import "context"

const defaultQueueSize = 128

// MessageBus decouples channels from the tutor loop. Channels publish
// inbound events and consume outbound replies; the tutor loop does the
// reverse. A single consumer goroutine per direction keeps processing
// serial.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, defaultQueueSize),
		outbound: make(chan OutboundMessage, defaultQueueSize),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// ConsumeInbound blocks until a message arrives or ctx is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

// ConsumeOutbound blocks until a message arrives or ctx is cancelled.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case msg := <-b.outbound:
		return msg, true
	}
}

// TryConsumeOutbound drains one outbound message without blocking.
// Used by tests to assert exact outbound counts.
func (b *MessageBus) TryConsumeOutbound() (OutboundMessage, bool) {
	select {
	case msg := <-b.outbound:
		return msg, true
	default:
		return OutboundMessage{}, false
	}
}
