package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cleanbook/internal/config"
	"cleanbook/internal/database"
	"cleanbook/internal/models"
	"cleanbook/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cleanbook.db")
		store, err := OpenStore(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, &logger)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &database.DB{}, store)
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStore(ctx, config.DatabaseConfig{Driver: "mysql"}, &logger)
		assert.Error(t, err)
	})

	t.Run("postgres unreachable", func(t *testing.T) {
		cfg := config.DatabaseConfig{Driver: config.DriverPostgres}
		cfg.Postgres = config.PostgresConfig{Host: "127.0.0.1", Port: 1, User: "u", DBName: "x", SSLMode: "disable"}

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := OpenStore(ctx, cfg, &logger)
		assert.Error(t, err)
	})
}

func TestOpenSessions(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	session := &models.Session{Token: "tok", UserID: 3, ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("memory only", func(t *testing.T) {
		store, closeFn := OpenSessions(ctx, config.RedisConfig{}, &logger)
		defer closeFn()

		assert.IsType(t, &repository.MemorySessionRepository{}, store)
		require.NoError(t, store.SaveSession(ctx, session))
		got, err := store.GetSession(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(3), got.UserID)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, closeFn := OpenSessions(ctx, config.RedisConfig{Address: mr.Addr()}, &logger)
		defer closeFn()

		assert.IsType(t, &repository.FailoverSessionRepository{}, store)
		require.NoError(t, store.SaveSession(ctx, session))
		assert.True(t, mr.Exists("session:tok"))
	})
}
