package notify

import (
	"context"
	"time"

	"cleanbook/internal/metrics"

	"github.com/rs/zerolog"
)

// Notification is a message for the service owner.
type Notification struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Channel delivers notifications somewhere the owner will see them.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher fans a notification out to every configured channel.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewDispatcher(timeout time.Duration, logger *zerolog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		logger:   logger,
	}
}

// NotifyOwner blocks until every channel has finished and reports whether
// at least one accepted the notification. Failures are logged and counted only.
func (d *Dispatcher) NotifyOwner(ctx context.Context, n Notification) bool {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	delivered := false
	for _, ch := range d.channels {
		if err := ch.Notify(ctx, n); err != nil {
			metrics.IncNotification(ch.Name(), metrics.OutcomeFailed)
			d.logger.Warn().Err(err).Str("channel", ch.Name()).Str("title", n.Title).Msg("Owner notification failed")
			continue
		}
		metrics.IncNotification(ch.Name(), metrics.OutcomeDelivered)
		delivered = true
	}

	if !delivered {
		d.logger.Warn().Str("title", n.Title).Int("channels", len(d.channels)).Msg("Owner notification was not delivered")
	}
	return delivered
}
