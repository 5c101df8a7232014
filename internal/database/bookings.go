package database

import (
	"context"
	"fmt"
	"time"

	"cleanbook/internal/domain"
	"cleanbook/internal/models"
)

const bookingColumns = `id, customer_id, service_type, quantity, price,
	customer_name, customer_email, customer_phone, service_date, notes,
	status, created_at, updated_at`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) (*models.InsertResult, error) {
	query := `INSERT INTO bookings (
				customer_id, service_type, quantity, price,
				customer_name, customer_email, customer_phone, service_date, notes,
				status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.CustomerID,
		booking.ServiceType,
		booking.Quantity,
		booking.Price,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.ServiceDate,
		booking.Notes,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	return &models.InsertResult{InsertID: id, AffectedRows: affected, Booking: &stored}, nil
}

// GetBookings returns every booking, newest first.
func (db *DB) GetBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID, &b.CustomerID, &b.ServiceType, &b.Quantity, &b.Price,
			&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.ServiceDate, &b.Notes,
			&b.Status, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid booking status %q", status)
	}
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrBookingNotFound
	}

	return nil
}
