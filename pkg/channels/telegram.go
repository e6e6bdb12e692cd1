package channels

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/config"
	"github.com/kritika-bot/kritika/pkg/logger"
	"github.com/kritika-bot/kritika/pkg/utils"
)

// Telegram caps messages at 4096 characters.
const telegramMaxLen = 4096

type TelegramChannel struct {
	*BaseChannel
	bot    *telego.Bot
	config config.TelegramConfig
}

func NewTelegramChannel(cfg config.TelegramConfig, msgBus *bus.MessageBus) (*TelegramChannel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", msgBus, cfg.AllowFrom),
		bot:         bot,
		config:      cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.bot.Username(),
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					logger.InfoC("telegram", "Updates channel closed")
					c.setRunning(false)
					return
				}
				if update.Message != nil {
					c.handleMessage(ctx, update.Message)
				}
			}
		}
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.setRunning(false)
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	chunks := splitMessage(markdownToTelegramHTML(msg.Content), telegramMaxLen)
	for i, chunk := range chunks {
		if len(chunks) > 1 {
			chunk = fmt.Sprintf("[%d/%d]\n%s", i+1, len(chunks), chunk)
		}

		tgMsg := tu.Message(tu.ID(chatID), chunk)
		tgMsg.ParseMode = telego.ModeHTML

		if _, err := c.bot.SendMessage(ctx, tgMsg); err != nil {
			logger.WarnCF("telegram", "HTML parse failed, falling back to plain text", map[string]interface{}{
				"error": err.Error(),
			})
			tgMsg.ParseMode = ""
			if _, err := c.bot.SendMessage(ctx, tgMsg); err != nil {
				return fmt.Errorf("failed to send message chunk %d: %w", i+1, err)
			}
		}
	}

	return nil
}

func (c *TelegramChannel) handleMessage(ctx context.Context, message *telego.Message) {
	user := message.From
	if user == nil {
		return
	}

	userID := fmt.Sprintf("%d", user.ID)
	if !c.IsAllowed(userID) && !c.IsAllowed(user.Username) {
		logger.DebugCF("telegram", "Message rejected by allowlist", map[string]interface{}{
			"user_id":  userID,
			"username": user.Username,
		})
		return
	}

	chatID := fmt.Sprintf("%d", message.Chat.ID)
	text := message.Text

	if isStartCommand(text) {
		c.PublishEvent(bus.EventStart, chatID, user.FirstName, "")
		return
	}

	// Other commands and non-text updates are not routed.
	if text == "" || strings.HasPrefix(text, "/") {
		logger.DebugCF("telegram", "Non-text or command message, ignoring", map[string]interface{}{
			"chat_id": chatID,
		})
		return
	}

	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"chat_id": chatID,
		"preview": utils.Truncate(text, 50),
	})

	// Typing indicator while Gemini works; best effort only.
	if err := c.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(message.Chat.ID), telego.ChatActionTyping)); err != nil {
		logger.WarnCF("telegram", "Failed to send chat action", map[string]interface{}{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}

	c.PublishEvent(bus.EventMessage, chatID, user.FirstName, text)
}

// isStartCommand reports whether text is the /start command, on its own
// or with arguments or a bot mention ("/start@KritikaBot"). Commands
// like "/startxyz" do not match.
func isStartCommand(text string) bool {
	cmd, _, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd == "/start"
}

func parseChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}

// splitMessage cuts content into chunks of at most maxLen bytes,
// preferring to break at a newline in the last third of a chunk and
// never cutting inside a multi-byte rune.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	for len(content) > maxLen {
		size := maxLen
		if nl := strings.LastIndex(content[:size], "\n"); nl > maxLen*2/3 {
			size = nl + 1
		} else {
			for size > 0 && !utf8.RuneStart(content[size]) {
				size--
			}
			if size == 0 {
				size = maxLen
			}
		}
		chunks = append(chunks, content[:size])
		content = content[size:]
	}
	return append(chunks, content)
}
