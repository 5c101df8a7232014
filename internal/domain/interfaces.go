package domain

import (
	"context"

	"cleanbook/internal/models"
)

// BookingStore is the persistence boundary used by the booking procedures.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (*models.InsertResult, error)
	GetBookings(ctx context.Context) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	Ping(ctx context.Context) error
}

type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}

// Store is implemented by every storage backend (sqlite, postgres).
type Store interface {
	BookingStore
	UserStore
	Close() error
}

type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
