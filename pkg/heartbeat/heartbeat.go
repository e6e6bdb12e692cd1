// Package heartbeat sends the scheduled daily practice nudge. On each
// cron firing it injects one synthetic message per known chat, so the
// day's task flows through the normal handler and session history.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/config"
	"github.com/kritika-bot/kritika/pkg/logger"
	"github.com/kritika-bot/kritika/pkg/tutor"
)

type Heartbeat struct {
	cfg       config.HeartbeatConfig
	bus       *bus.MessageBus
	loop      *tutor.Loop
	gron      *gronx.Gronx
	lastFired string
}

func New(cfg config.HeartbeatConfig, msgBus *bus.MessageBus, loop *tutor.Loop) (*Heartbeat, error) {
	g := gronx.New()
	if !g.IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid heartbeat cron expression %q", cfg.Cron)
	}

	return &Heartbeat{
		cfg:  cfg,
		bus:  msgBus,
		loop: loop,
		gron: g,
	}, nil
}

// Start ticks once a minute and fires when the cron expression is due.
func (h *Heartbeat) Start(ctx context.Context) {
	logger.InfoCF("heartbeat", "Heartbeat scheduled", map[string]interface{}{
		"cron": h.cfg.Cron,
	})

	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.tick(now)
			}
		}
	}()
}

func (h *Heartbeat) tick(now time.Time) {
	minute := now.Format("2006-01-02 15:04")
	if minute == h.lastFired {
		return
	}

	due, err := h.gron.IsDue(h.cfg.Cron, now)
	if err != nil {
		logger.WarnCF("heartbeat", "Cron evaluation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if !due {
		return
	}

	h.lastFired = minute
	h.fire()
}

func (h *Heartbeat) fire() {
	chats := h.loop.Registry().ChatIDs()
	logger.InfoCF("heartbeat", "Firing daily practice nudge", map[string]interface{}{
		"chats": len(chats),
	})

	for _, chatID := range chats {
		channel, ok := h.loop.RouteFor(chatID)
		if !ok {
			continue
		}
		h.bus.PublishInbound(bus.InboundMessage{
			Channel: channel,
			Kind:    bus.EventMessage,
			ChatID:  chatID,
			Content: h.cfg.Prompt,
		})
	}
}
