// Command admin runs operator tasks against the configured storage:
//
//	admin user -open-id owner -name "Owner" -role admin -session
//	admin backup
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cleanbook/internal/auth"
	"cleanbook/internal/bootstrap"
	"cleanbook/internal/config"
	"cleanbook/internal/database"
	"cleanbook/internal/logging"
	"cleanbook/internal/models"
	"cleanbook/internal/repository"

	"github.com/rs/zerolog"
)

const usage = `usage: admin <command> [flags]

commands:
  user     create or update a user, optionally issuing a session token
  backup   snapshot the sqlite database and prune old snapshots
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "user":
		return runUser(ctx, cfg, args[1:], out, &logger)
	case "backup":
		return runBackup(ctx, cfg, out, &logger)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
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
	logger := baseLogger.With().Str("component", "admin").Logger()

	return cfg, logger, closer, nil
}

func runUser(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger *zerolog.Logger) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	fs.SetOutput(out)
	openID := fs.String("open-id", "", "stable external identifier (required)")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "contact email")
	role := fs.String("role", string(models.RoleUser), "role: admin or user")
	issue := fs.Bool("session", false, "issue a session token for the user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *openID == "" {
		return errors.New("-open-id is required")
	}
	r := models.Role(*role)
	if r != models.RoleAdmin && r != models.RoleUser {
		return fmt.Errorf("unknown role %q", *role)
	}
	// In-memory sessions die with this process, so a token would be useless.
	if *issue && cfg.Redis.Address == "" {
		return errors.New("-session needs redis.address; in-memory sessions do not outlive this command")
	}

	store, err := bootstrap.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	user := &models.User{
		OpenID:      *openID,
		Name:        *name,
		Email:       *email,
		LoginMethod: models.LoginMethodOperator,
		Role:        r,
	}
	if err := store.UpsertUser(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d (%s) role=%s\n", user.ID, user.OpenID, user.Role)

	if !*issue {
		return nil
	}

	// Write straight to Redis: a failover copy in memory would die with this process.
	client := repository.NewRedisClient(cfg.Redis)
	defer (func() { _ = repository.Close(client) })()
	if err := repository.Ping(ctx, client); err != nil {
		return fmt.Errorf("redis %s unreachable, no session issued: %w", cfg.Redis.Address, err)
	}

	authn := auth.NewAuthenticator(store, repository.NewRedisSessionRepository(client), cfg.Session, nil, logger)
	session, err := authn.IssueSession(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s expires %s\n", session.Token, session.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runBackup(ctx context.Context, cfg *config.Config, out io.Writer, logger *zerolog.Logger) error {
	if cfg.Database.Driver != config.DriverSQLite {
		return fmt.Errorf("backup supports the sqlite driver only, configured %q", cfg.Database.Driver)
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	backups := database.NewBackupService(db, cfg.Backup, logger)
	path, err := backups.PerformBackup(ctx)
	if err != nil {
		return err
	}
	removed := backups.CleanupOldBackups()
	fmt.Fprintf(out, "backup written to %s, %d old snapshot(s) removed\n", path, removed)
	return nil
}
