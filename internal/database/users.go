package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cleanbook/internal/domain"
	"cleanbook/internal/models"
)

// UpsertUser inserts the user or refreshes the row with the same open_id,
// then writes the stored id back into user.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
				open_id, name, email, login_method, role,
				created_at, updated_at, last_signed_in
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(open_id) DO UPDATE SET
                name = excluded.name,
                email = excluded.email,
                login_method = excluded.login_method,
                role = excluded.role,
                updated_at = excluded.updated_at,
                last_signed_in = excluded.last_signed_in
              RETURNING id`
	now := time.Now().UTC()
	lastSignedIn := user.LastSignedIn
	if lastSignedIn.IsZero() {
		lastSignedIn = now
	}
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	var id int64
	err := db.QueryRowContext(ctx, query,
		user.OpenID,
		user.Name,
		user.Email,
		user.LoginMethod,
		role,
		now,
		now,
		lastSignedIn,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	user.ID = id
	user.Role = role
	user.UpdatedAt = now
	user.LastSignedIn = lastSignedIn
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, open_id, name, email, login_method, role,
	                 created_at, updated_at, last_signed_in
              FROM users WHERE id = ?`

	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.OpenID, &user.Name, &user.Email, &user.LoginMethod, &user.Role,
		&user.CreatedAt, &user.UpdatedAt, &user.LastSignedIn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}
