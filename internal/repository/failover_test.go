package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cleanbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockStore) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func TestFailoverSessionRepository(t *testing.T) {
	primary := new(mockStore)
	fallback := NewMemorySessionRepository()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }

	session := &models.Session{Token: "tok", UserID: 1, ExpiresAt: now.Add(time.Hour)}

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("GetSession", ctx, "tok").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailsFallsBack", func(t *testing.T) {
		primary.On("SaveSession", ctx, session).Return(errors.New("redis down")).Once()

		require.NoError(t, repo.SaveSession(ctx, session))
		assert.True(t, repo.isDown.Load())

		// primary is not consulted while down
		got, err := repo.GetSession(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.UserID)
		primary.AssertExpectations(t)
	})

	t.Run("RecoversAfterInterval", func(t *testing.T) {
		now = now.Add(recoveryInterval + time.Second)
		primary.On("GetSession", ctx, "tok").Return(nil, nil).Once()

		// primary has no copy, the outage-era session is still found
		got, err := repo.GetSession(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		primary.On("DeleteSession", ctx, "tok").Return(nil).Once()

		require.NoError(t, repo.DeleteSession(ctx, "tok"))

		got, err := fallback.GetSession(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, got)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteWithPrimaryDown", func(t *testing.T) {
		primary.On("DeleteSession", ctx, "other").Return(errors.New("redis down")).Once()

		assert.NoError(t, repo.DeleteSession(ctx, "other"))
		assert.True(t, repo.isDown.Load())
	})
}
