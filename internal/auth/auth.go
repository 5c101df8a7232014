package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"cleanbook/internal/config"
	"cleanbook/internal/domain"
	"cleanbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Credentials are whatever the transport found on the request.
type Credentials struct {
	SessionToken string
	APIKey       string
}

// Authenticator resolves request credentials to a user.
type Authenticator struct {
	users    domain.UserStore
	sessions domain.SessionStore
	keys     []config.APIClientKey
	ttl      time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewAuthenticator(users domain.UserStore, sessions domain.SessionStore, cfg config.SessionConfig, keys []config.APIClientKey, logger *zerolog.Logger) *Authenticator {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Authenticator{
		users:    users,
		sessions: sessions,
		keys:     keys,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate returns the caller's user, or nil for an anonymous caller.
// Lookup failures never reject the request; the caller is treated as anonymous.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) *models.User {
	if creds.APIKey != "" {
		if user := a.userForAPIKey(creds.APIKey); user != nil {
			return user
		}
		a.logger.Debug().Msg("Unknown api key, continuing as anonymous")
	}

	if creds.SessionToken == "" {
		return nil
	}

	session, err := a.sessions.GetSession(ctx, creds.SessionToken)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Session lookup failed, continuing as anonymous")
		return nil
	}
	if session == nil || session.Expired(a.now()) {
		return nil
	}

	user, err := a.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			a.logger.Warn().Err(err).Int64("user_id", session.UserID).Msg("User lookup failed, continuing as anonymous")
		}
		return nil
	}
	return user
}

func (a *Authenticator) userForAPIKey(key string) *models.User {
	var match *config.APIClientKey
	for i := range a.keys {
		// compare against every key so timing does not reveal which one matched
		if subtle.ConstantTimeCompare([]byte(a.keys[i].Key), []byte(key)) == 1 {
			match = &a.keys[i]
		}
	}
	if match == nil {
		return nil
	}

	return &models.User{
		ID:          match.UserID,
		OpenID:      "api-key:" + match.Name,
		Name:        match.Name,
		LoginMethod: models.LoginMethodAPIKey,
		Role:        match.Role,
	}
}

// IssueSession creates a new session for userID.
func (a *Authenticator) IssueSession(ctx context.Context, userID int64) (*models.Session, error) {
	now := a.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Revoke deletes the session behind token. An empty token is a no-op.
func (a *Authenticator) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
