package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleanbook/internal/api"
	"cleanbook/internal/auth"
	"cleanbook/internal/bootstrap"
	"cleanbook/internal/config"
	"cleanbook/internal/database"
	"cleanbook/internal/domain"
	"cleanbook/internal/logging"
	"cleanbook/internal/metrics"
	"cleanbook/internal/notify"
	"cleanbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init storage")
		return err
	}
	defer store.Close()

	sessions, closeSessions := bootstrap.OpenSessions(ctx, cfg.Redis, &logger)
	defer (func() { _ = closeSessions() })()

	dispatcher, closeNotify, err := notify.Build(cfg.Notify, notify.NewBotAPI(cfg.Notify.Telegram), logging.Component(&logger, "notify"))
	if err != nil {
		logger.Error().Err(err).Msg("init owner notifications")
		return err
	}
	defer (func() { _ = closeNotify() })()

	authn := auth.NewAuthenticator(store, sessions, cfg.Session, cfg.API.Auth.APIKeys, logging.Component(&logger, "auth"))
	router := api.NewAppRouter(
		service.NewBookingService(store, dispatcher, logging.Component(&logger, "bookings")),
		service.NewAuthService(authn, logging.Component(&logger, "auth")),
		service.NewSystemService(store, dispatcher, logging.Component(&logger, "system")),
	)
	identity := api.NewIdentity(authn, cfg.Session, cfg.API.Auth)
	logger.Info().Strs("procedures", router.Names()).Msg("procedures registered")

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, router, identity, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	var httpServer *api.HTTPServer
	if cfg.API.HTTP.Enabled {
		httpServer = api.NewHTTPServer(cfg.API, router, identity, &logger)
	}

	if grpcServer == nil && httpServer == nil {
		return errors.New("both api.http and api.grpc are disabled; nothing to serve")
	}

	startMetrics(ctx, cfg, &logger)
	startBackups(ctx, cfg, store, &logger)

	return startServers(ctx, grpcServer, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startBackups(ctx context.Context, cfg *config.Config, store domain.Store, logger *zerolog.Logger) {
	if !cfg.Backup.Enabled {
		return
	}
	db, ok := store.(*database.DB)
	if !ok {
		logger.Warn().Str("driver", cfg.Database.Driver).Msg("backups need the sqlite driver, skipping")
		return
	}
	go database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup")).Start(ctx)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	if httpServer != nil {
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	logger.Info().Bool("grpc", grpcServer != nil).Bool("http", httpServer != nil).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
