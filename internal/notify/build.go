package notify

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"cleanbook/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const telegramHTTPTimeout = 10 * time.Second

var newKafkaWriter = func(brokers []string, topic string) MessageWriter {
	return NewKafkaWriter(brokers, topic)
}

// BotFactory creates a Telegram client from a token.
type BotFactory func(token string) (Sender, error)

func NewBotAPI(cfg config.TelegramConfig) BotFactory {
	return func(token string) (Sender, error) {
		client := &http.Client{Timeout: telegramHTTPTimeout}
		bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
		if err != nil {
			return nil, err
		}
		bot.Debug = cfg.Debug
		return bot, nil
	}
}

// Build assembles a dispatcher for the configured channels. The returned
// close function releases channel resources.
func Build(cfg config.NotifyConfig, newBot BotFactory, logger *zerolog.Logger) (*Dispatcher, func() error, error) {
	var (
		channels []Channel
		closers  []func() error
	)
	retry := RetryPolicyFromConfig(cfg.Retry)

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Channels {
		switch name {
		case config.ChannelLog:
			channels = append(channels, NewLogChannel(logger))
		case config.ChannelTelegram:
			bot, err := newBot(cfg.Telegram.BotToken)
			if err != nil {
				_ = closeAll()
				return nil, nil, fmt.Errorf("telegram bot: %w", err)
			}
			channels = append(channels, NewTelegramChannel(bot, cfg.Telegram.OwnerChatIDs, retry))
		case config.ChannelKafka:
			ch := NewKafkaChannel(newKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
			channels = append(channels, ch)
			closers = append(closers, ch.Close)
		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("unknown notify channel %q", name)
		}
	}

	return NewDispatcher(cfg.Timeout, logger, channels...), closeAll, nil
}
