package repository

import (
	"context"
	"testing"
	"time"

	"cleanbook/internal/config"
	"cleanbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		session := &models.Session{Token: "tok-1", UserID: 7, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(7), got.UserID)
		assert.True(t, s.Exists("session:tok-1"))
		assert.InDelta(t, time.Hour.Seconds(), s.TTL("session:tok-1").Seconds(), 5)
	})

	t.Run("Unknown", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ExpiresWithTTL", func(t *testing.T) {
		session := &models.Session{Token: "tok-short", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)}
		require.NoError(t, repo.SaveSession(ctx, session))

		s.FastForward(2 * time.Minute)

		got, err := repo.GetSession(ctx, "tok-short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RejectsExpired", func(t *testing.T) {
		err := repo.SaveSession(ctx, &models.Session{Token: "old", ExpiresAt: time.Now().Add(-time.Second)})
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "tok-del", UserID: 2, ExpiresAt: time.Now().Add(time.Hour)}))
		require.NoError(t, repo.DeleteSession(ctx, "tok-del"))

		got, err := repo.GetSession(ctx, "tok-del")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptPayload", func(t *testing.T) {
		require.NoError(t, s.Set("session:bad", "{not json"))
		_, err := repo.GetSession(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}

func TestRedisSessionRepository_ServerDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	s.Close()

	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	_, err = repo.GetSession(ctx, "tok")
	assert.Error(t, err)
	assert.Error(t, repo.SaveSession(ctx, &models.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.Error(t, repo.DeleteSession(ctx, "tok"))
	assert.Error(t, Ping(ctx, client))
}

func TestRedisSessionRepository_NilClient(t *testing.T) {
	repo := NewRedisSessionRepository(nil)
	ctx := context.Background()

	_, err := repo.GetSession(ctx, "tok")
	assert.Error(t, err)
	assert.Error(t, repo.DeleteSession(ctx, "tok"))
	assert.NoError(t, Close(nil))
}
