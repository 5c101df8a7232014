package service

import (
	"context"

	"cleanbook/internal/notify"
	"cleanbook/internal/rpc"

	"github.com/rs/zerolog"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResult struct {
	OK bool `json:"ok"`
}

type NotifyOwnerInput struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type SystemService struct {
	store    Pinger
	notifier OwnerNotifier
	logger   *zerolog.Logger
}

func NewSystemService(store Pinger, notifier OwnerNotifier, logger *zerolog.Logger) *SystemService {
	return &SystemService{store: store, notifier: notifier, logger: logger}
}

func (s *SystemService) Health(ctx context.Context, _ rpc.Empty) (HealthResult, error) {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Health check failed")
		return HealthResult{}, rpc.StorageError(err)
	}
	return HealthResult{OK: true}, nil
}

// NotifyOwner sends an ad-hoc message to the owner. Admin only.
func (s *SystemService) NotifyOwner(ctx context.Context, in NotifyOwnerInput) (rpc.Success, error) {
	if _, err := rpc.RequireAdmin(ctx); err != nil {
		return rpc.Success{}, err
	}

	delivered := s.notifier.NotifyOwner(ctx, notify.Notification{Title: in.Title, Content: in.Content})
	return rpc.Success{Success: delivered}, nil
}
