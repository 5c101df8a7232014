package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the channel needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel messages every owner chat through a bot.
type TelegramChannel struct {
	bot     Sender
	chatIDs []int64
	retry   RetryPolicy
}

func NewTelegramChannel(bot Sender, chatIDs []int64, retry RetryPolicy) *TelegramChannel {
	return &TelegramChannel{bot: bot, chatIDs: chatIDs, retry: retry}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Notify(ctx context.Context, n Notification) error {
	if len(c.chatIDs) == 0 {
		return errors.New("no owner chats configured")
	}

	text := n.Title + "\n\n" + n.Content

	var errs []error
	for _, chatID := range c.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		msg := tgbotapi.NewMessage(chatID, text)
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			return c.send(ctx, msg)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// send gives up when ctx ends. The bot call itself takes no context, so a
// stuck request is left to the bot's HTTP client timeout.
func (c *TelegramChannel) send(ctx context.Context, msg tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
