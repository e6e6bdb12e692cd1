package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/channels"
	"github.com/kritika-bot/kritika/pkg/config"
	"github.com/kritika-bot/kritika/pkg/gemini"
	"github.com/kritika-bot/kritika/pkg/heartbeat"
	"github.com/kritika-bot/kritika/pkg/logger"
	"github.com/kritika-bot/kritika/pkg/session"
	"github.com/kritika-bot/kritika/pkg/tutor"
)

func main() {
	configPath := flag.String("config", "~/.kritika/config.json", "path to config file")
	cliMode := flag.Bool("cli", false, "enable the local CLI channel")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.FatalC("main", fmt.Sprintf("Failed to load config: %v", err))
	}

	if *debug || cfg.Logging.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFileLogging(cfg.Logging.FilePath, cfg.Logging.MaxSizeMB, cfg.Logging.MaxAgeDays); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if *cliMode {
		cfg.CLI.Enabled = true
	}

	// Fail fast before any event loop starts.
	if err := cfg.Validate(); err != nil {
		logger.FatalC("main", fmt.Sprintf("Failed to load API keys: %v. Exiting.", err))
	}
	logger.InfoC("main", "Successfully loaded API keys from environment variables.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgBus := bus.NewMessageBus()
	client := gemini.NewClient(cfg.Gemini, tutor.PersonaPrompt)
	registry := session.NewRegistry(func() session.Chat {
		return client.StartSession()
	})
	loop := tutor.NewLoop(msgBus, registry)

	chans := make(map[string]channels.Channel)
	if cfg.Telegram.Enabled {
		tg, err := channels.NewTelegramChannel(cfg.Telegram, msgBus)
		if err != nil {
			logger.FatalC("main", fmt.Sprintf("Telegram setup failed: %v", err))
		}
		chans[tg.Name()] = tg
	}
	if cfg.CLI.Enabled {
		cli, err := channels.NewCLIChannel(msgBus)
		if err != nil {
			logger.FatalC("main", fmt.Sprintf("CLI setup failed: %v", err))
		}
		chans[cli.Name()] = cli
	}
	if len(chans) == 0 {
		logger.FatalC("main", "No channels enabled, nothing to do")
	}

	for name, ch := range chans {
		if err := ch.Start(ctx); err != nil {
			logger.FatalC("main", fmt.Sprintf("Failed to start %s channel: %v", name, err))
		}
	}

	if cfg.Heartbeat.Enabled {
		hb, err := heartbeat.New(cfg.Heartbeat, msgBus, loop)
		if err != nil {
			logger.FatalC("main", fmt.Sprintf("Heartbeat setup failed: %v", err))
		}
		hb.Start(ctx)
	}

	// Route replies back to the channel each conversation lives on.
	go func() {
		for {
			msg, ok := msgBus.ConsumeOutbound(ctx)
			if !ok {
				return
			}
			ch, found := chans[msg.Channel]
			if !found {
				logger.WarnCF("main", "Outbound message for unknown channel", map[string]interface{}{
					"channel": msg.Channel,
				})
				continue
			}
			if err := ch.Send(ctx, msg); err != nil {
				logger.ErrorCF("main", "Failed to deliver message", map[string]interface{}{
					"channel": msg.Channel,
					"chat_id": msg.ChatID,
					"error":   err.Error(),
				})
			}
		}
	}()

	logger.InfoCF("main", "Kritika is running", map[string]interface{}{
		"model": client.Model(),
	})

	loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ch := range chans {
		_ = ch.Stop(shutdownCtx)
	}
	logger.InfoC("main", "Bot shutdown complete")
}
