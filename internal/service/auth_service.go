package service

import (
	"context"

	"cleanbook/internal/auth"
	"cleanbook/internal/models"
	"cleanbook/internal/rpc"

	"github.com/rs/zerolog"
)

// SessionRevoker ends a session by token.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	sessions SessionRevoker
	logger   *zerolog.Logger
}

func NewAuthService(sessions SessionRevoker, logger *zerolog.Logger) *AuthService {
	return &AuthService{sessions: sessions, logger: logger}
}

// Me returns the caller, or nil when anonymous.
func (s *AuthService) Me(ctx context.Context, _ rpc.Empty) (*models.User, error) {
	return rpc.Caller(ctx), nil
}

// Logout always succeeds; a session that cannot be revoked still gets cleared client side.
func (s *AuthService) Logout(ctx context.Context, _ rpc.Empty) (rpc.Success, error) {
	h, ok := auth.SessionFrom(ctx)
	if !ok {
		return rpc.Success{Success: true}, nil
	}

	if err := s.sessions.Revoke(ctx, h.Token); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to revoke session on logout")
	}
	if h.Clear != nil {
		h.Clear()
	}
	return rpc.Success{Success: true}, nil
}
