// Package telegram sends messages to a fixed chat through the Telegram
// bot API. The bot is send-only: no update polling, no command handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

type Config struct {
	Token  string
	ChatID int64
}

type Channel struct {
	bot  *tele.Bot
	chat *tele.Chat
}

func New(cfg Config) (*Channel, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Channel{bot: bot, chat: &tele.Chat{ID: cfg.ChatID}}, nil
}

func (c *Channel) Name() string { return "telegram" }

func (c *Channel) Send(ctx context.Context, text string) error {
	if c == nil || c.bot == nil {
		return errors.New("telegram channel not initialised")
	}
	// telebot has no context plumbing; respect cancellation up front and
	// rely on the bot's HTTP client timeout for the call itself.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := c.bot.Send(c.chat, text, sendOptions())
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// sendOptions keeps messages plain text. Entry and player names routinely
// contain '_' and '*', which a Markdown parse mode would reject as broken
// entities.
func sendOptions() *tele.SendOptions {
	return &tele.SendOptions{DisableWebPagePreview: true}
}

// Ping verifies the token by calling getMe with a bounded wait.
func (c *Channel) Ping(ctx context.Context) error {
	if c == nil || c.bot == nil {
		return errors.New("telegram channel not initialised")
	}
	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Raw("getMe", nil)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return errors.New("telegram ping timed out")
	}
}
