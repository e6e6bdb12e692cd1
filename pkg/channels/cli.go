package channels

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/logger"
)

// CLIChannel lets an operator talk to the persona locally without a
// Telegram deployment. All input maps to a single conversation.
type CLIChannel struct {
	*BaseChannel
	rl *readline.Instance
}

const cliChatID = "cli"

func NewCLIChannel(msgBus *bus.MessageBus) (*CLIChannel, error) {
	rl, err := readline.New("you> ")
	if err != nil {
		return nil, fmt.Errorf("failed to init readline: %w", err)
	}

	return &CLIChannel{
		BaseChannel: NewBaseChannel("cli", msgBus, nil),
		rl:          rl,
	}, nil
}

func (c *CLIChannel) Start(ctx context.Context) error {
	logger.InfoC("cli", "CLI channel ready, type /start to begin")
	c.setRunning(true)

	go func() {
		defer c.setRunning(false)
		name := os.Getenv("USER")

		for {
			if ctx.Err() != nil {
				return
			}

			line, err := c.rl.Readline()
			if err != nil {
				if err == readline.ErrInterrupt {
					continue
				}
				// io.EOF on ctrl-d, or the instance was closed
				return
			}

			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == "/start":
				c.PublishEvent(bus.EventStart, cliChatID, name, "")
			default:
				c.PublishEvent(bus.EventMessage, cliChatID, name, line)
			}
		}
	}()

	return nil
}

func (c *CLIChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	return c.rl.Close()
}

func (c *CLIChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	fmt.Printf("\nkritika> %s\n", msg.Content)
	return nil
}
