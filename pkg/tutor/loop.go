// Package tutor implements the message-handling flow between the message
// bus and the language model: one conversation session per chat, one
// outbound message per handled event.
package tutor

import (
	"context"
	"strings"
	"sync"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/logger"
	"github.com/kritika-bot/kritika/pkg/session"
	"github.com/kritika-bot/kritika/pkg/utils"
)

type Loop struct {
	bus      *bus.MessageBus
	registry *session.Registry
	routes   sync.Map // chatID -> channel name
}

func NewLoop(msgBus *bus.MessageBus, registry *session.Registry) *Loop {
	return &Loop{
		bus:      msgBus,
		registry: registry,
	}
}

// Registry exposes the loop's session registry (used by the heartbeat to
// enumerate known chats).
func (l *Loop) Registry() *session.Registry {
	return l.registry
}

// Run drains the inbound bus and processes events one at a time until ctx
// is cancelled. Serial consumption is what serializes handling per chat
// id; no handler error ever escapes this loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		l.handleEvent(ctx, msg)
	}
}

// RouteFor reports the channel a chat last spoke through. Used by the
// heartbeat to address synthetic events.
func (l *Loop) RouteFor(chatID string) (string, bool) {
	v, ok := l.routes.Load(chatID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (l *Loop) handleEvent(ctx context.Context, msg bus.InboundMessage) {
	if msg.Channel != "" {
		l.routes.Store(msg.ChatID, msg.Channel)
	}

	switch msg.Kind {
	case bus.EventStart:
		l.handleStart(msg)
	case bus.EventMessage:
		l.handleText(ctx, msg)
	default:
		logger.DebugCF("tutor", "Ignoring event of unknown kind", map[string]interface{}{
			"kind":    string(msg.Kind),
			"chat_id": msg.ChatID,
		})
	}
}

// handleStart (re)initializes the chat's session and sends the welcome
// message.
func (l *Loop) handleStart(msg bus.InboundMessage) {
	l.registry.Reset(msg.ChatID)
	logger.InfoCF("tutor", "Started new chat session", map[string]interface{}{
		"chat_id":        msg.ChatID,
		"sessions":       l.registry.Len(),
		"correlation_id": msg.CorrelationID,
	})

	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: WelcomeMessage(msg.SenderName),
	})
}

// handleText runs the full message flow. Exactly one outbound message is
// published per handled event: the model reply or one of the two fixed
// fallback strings. Events without text are ignored silently.
func (l *Loop) handleText(ctx context.Context, msg bus.InboundMessage) {
	if strings.TrimSpace(msg.Content) == "" {
		logger.DebugCF("tutor", "Non-text or empty message, ignoring", map[string]interface{}{
			"chat_id": msg.ChatID,
		})
		return
	}

	logger.InfoCF("tutor", "Received message", map[string]interface{}{
		"chat_id":        msg.ChatID,
		"preview":        utils.Truncate(msg.Content, 50),
		"correlation_id": msg.CorrelationID,
	})

	chat := l.registry.GetOrCreate(msg.ChatID)
	prompt := BuildPrompt(msg.SenderName, msg.Content)

	reply, err := chat.Send(ctx, prompt)
	if err != nil {
		logger.ErrorCF("tutor", "Gemini call failed", map[string]interface{}{
			"chat_id":        msg.ChatID,
			"error":          err.Error(),
			"correlation_id": msg.CorrelationID,
		})
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: ErrorFallback,
		})
		return
	}

	text := reply.Message()
	if text == "" {
		logger.WarnCF("tutor", "No text in Gemini response", map[string]interface{}{
			"chat_id":        msg.ChatID,
			"block_reason":   reply.BlockReason,
			"finish_reason":  reply.FinishReason,
			"correlation_id": msg.CorrelationID,
		})
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: EmptyReplyFallback,
		})
		return
	}

	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: text,
	})
}
