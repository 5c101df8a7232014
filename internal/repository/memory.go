package repository

import (
	"context"
	"sync"
	"time"

	"cleanbook/internal/models"
)

// MemorySessionRepository keeps sessions in process memory.
type MemorySessionRepository struct {
	sessions sync.Map
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{now: time.Now}
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	stored := *session
	r.sessions.Store(session.Token, &stored)
	return nil
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if session.Expired(r.now()) {
		r.sessions.Delete(token)
		return nil, nil
	}
	out := *session
	return &out, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}
