package postgres

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/internal/domain"
	"cleanbook/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store is the PostgreSQL implementation of domain.Store.
type Store struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// Connect opens a pool for dsn, verifies it and applies the schema.
func Connect(ctx context.Context, dsn string, logger *zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := NewStore(pool, logger)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Msg("Postgres store initialized")
	return s, nil
}

func NewStore(db *pgxpool.Pool, logger *zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		open_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		login_method TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_signed_in TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL DEFAULT 0,
		service_type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		service_date TEXT,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) (*models.InsertResult, error) {
	err := s.db.QueryRow(ctx, `INSERT INTO bookings (
			customer_id, service_type, quantity, price,
			customer_name, customer_email, customer_phone, service_date, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		booking.CustomerID, booking.ServiceType, booking.Quantity, booking.Price,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.ServiceDate, booking.Notes, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	stored := *booking
	return &models.InsertResult{InsertID: booking.ID, AffectedRows: 1, Booking: &stored}, nil
}

func (s *Store) GetBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT id, customer_id, service_type, quantity, price,
			customer_name, customer_email, customer_phone, service_date, notes,
			status, created_at, updated_at
		FROM bookings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.ServiceType, &b.Quantity, &b.Price,
			&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.ServiceDate, &b.Notes,
			&b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid booking status %q", status)
	}
	cmd, err := s.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	err := s.db.QueryRow(ctx, `INSERT INTO users (open_id, name, email, login_method, role, last_signed_in)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		ON CONFLICT (open_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			login_method = EXCLUDED.login_method,
			role = EXCLUDED.role,
			updated_at = now(),
			last_signed_in = EXCLUDED.last_signed_in
		RETURNING id, created_at, updated_at, last_signed_in`,
		user.OpenID, user.Name, user.Email, user.LoginMethod, user.Role, nullTime(user),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.LastSignedIn)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `SELECT id, open_id, name, email, login_method, role,
			created_at, updated_at, last_signed_in
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.OpenID, &u.Name, &u.Email, &u.LoginMethod, &u.Role,
			&u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

func nullTime(u *models.User) any {
	if u.LastSignedIn.IsZero() {
		return nil
	}
	return u.LastSignedIn
}

var _ domain.Store = (*Store)(nil)
