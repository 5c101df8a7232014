package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogChannel writes notifications to the service log.
type LogChannel struct {
	logger *zerolog.Logger
}

func NewLogChannel(logger *zerolog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Notify(ctx context.Context, n Notification) error {
	c.logger.Info().Str("title", n.Title).Str("content", n.Content).Msg("Owner notification")
	return nil
}
