package database

import (
	"context"
	"testing"

	"cleanbook/internal/domain"
	"cleanbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(serviceType string) *models.Booking {
	return &models.Booking{
		CustomerID:    models.AnonymousCustomerID,
		ServiceType:   serviceType,
		Quantity:      "1",
		Price:         "50",
		CustomerName:  "Ann",
		CustomerEmail: "ann@example.com",
		CustomerPhone: "+1-555-0100",
		Status:        models.StatusPending,
	}
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	date := "2025-03-01"
	b := newBooking("Windows Cleaning")
	b.ServiceDate = &date

	res, err := db.CreateBooking(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, res.Booking)

	assert.Equal(t, int64(1), res.InsertID)
	assert.Equal(t, int64(1), res.AffectedRows)
	assert.Equal(t, res.InsertID, res.Booking.ID)
	assert.Equal(t, b.ID, res.InsertID)
	assert.False(t, res.Booking.CreatedAt.IsZero())

	bookings, err := db.GetBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	got := bookings[0]
	assert.Equal(t, "Windows Cleaning", got.ServiceType)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, models.AnonymousCustomerID, got.CustomerID)
	require.NotNil(t, got.ServiceDate)
	assert.Equal(t, date, *got.ServiceDate)
	assert.Nil(t, got.Notes)
}

func TestCreateBooking_RejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)

	b := newBooking("Gutter Cleaning")
	b.Status = "archived"

	_, err := db.CreateBooking(context.Background(), b)
	assert.Error(t, err)
}

func TestGetBookings_EmptyAndOrdered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bookings, err := db.GetBookings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)

	for _, st := range []string{"first", "second", "third"} {
		_, err := db.CreateBooking(ctx, newBooking(st))
		require.NoError(t, err)
	}

	bookings, err = db.GetBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, "third", bookings[0].ServiceType)
	assert.Equal(t, "second", bookings[1].ServiceType)
	assert.Equal(t, "first", bookings[2].ServiceType)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	res, err := db.CreateBooking(ctx, newBooking("Deep Clean"))
	require.NoError(t, err)

	require.NoError(t, db.UpdateBookingStatus(ctx, res.InsertID, models.StatusConfirmed))
	// same update twice is still a success
	require.NoError(t, db.UpdateBookingStatus(ctx, res.InsertID, models.StatusConfirmed))

	bookings, err := db.GetBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.StatusConfirmed, bookings[0].Status)
	assert.False(t, bookings[0].UpdatedAt.Before(bookings[0].CreatedAt))

	err = db.UpdateBookingStatus(ctx, 999, models.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	err = db.UpdateBookingStatus(ctx, res.InsertID, models.BookingStatus("archived"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBookingNotFound)

	bookings, err = db.GetBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, bookings[0].Status)
}
