package service

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/internal/domain"
	"cleanbook/internal/metrics"
	"cleanbook/internal/models"
	"cleanbook/internal/notify"
	"cleanbook/internal/rpc"

	"github.com/rs/zerolog"
)

// OwnerNotifier delivers a notification and reports whether it got through.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, n notify.Notification) bool
}

type CreateBookingInput struct {
	ServiceType   string  `json:"serviceType" validate:"required"`
	Quantity      string  `json:"quantity" validate:"required"`
	Price         string  `json:"price" validate:"required"`
	CustomerName  string  `json:"customerName" validate:"required"`
	CustomerEmail string  `json:"customerEmail" validate:"required"`
	CustomerPhone string  `json:"customerPhone" validate:"required"`
	ServiceDate   *string `json:"serviceDate,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type UpdateStatusInput struct {
	ID     int64                `json:"id" validate:"required,gt=0"`
	Status models.BookingStatus `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type BookingService struct {
	store    domain.BookingStore
	notifier OwnerNotifier
	logger   *zerolog.Logger
}

func NewBookingService(store domain.BookingStore, notifier OwnerNotifier, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateBooking stores a pending booking for an anonymous customer and
// tells the owner about it. The notification outcome never affects the result.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.InsertResult, error) {
	booking := &models.Booking{
		CustomerID:    models.AnonymousCustomerID,
		ServiceType:   in.ServiceType,
		Quantity:      in.Quantity,
		Price:         in.Price,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		ServiceDate:   in.ServiceDate,
		Notes:         in.Notes,
		Status:        models.StatusPending,
	}

	result, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		s.logger.Error().Err(err).Str("service_type", in.ServiceType).Msg("Failed to create booking")
		return nil, rpc.StorageError(err)
	}
	metrics.IncBookingsCreated()

	s.logger.Info().Int64("booking_id", result.InsertID).Str("service_type", in.ServiceType).Msg("Booking created")

	s.notifier.NotifyOwner(ctx, NewBookingNotification(in))

	return result, nil
}

// NewBookingNotification renders the owner message for a fresh booking.
func NewBookingNotification(in CreateBookingInput) notify.Notification {
	return notify.Notification{
		Title: "New Booking Request",
		Content: fmt.Sprintf("New booking from %s\nService: %s (%s)\nPrice: %s\nPhone: %s\nEmail: %s",
			in.CustomerName, in.ServiceType, in.Quantity, in.Price, in.CustomerPhone, in.CustomerEmail),
	}
}

// ListBookings returns every booking, newest first. Admin only.
func (s *BookingService) ListBookings(ctx context.Context, _ rpc.Empty) ([]models.Booking, error) {
	if _, err := rpc.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	bookings, err := s.store.GetBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		return nil, rpc.StorageError(err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// UpdateStatus moves a booking to another lifecycle state. Admin only.
func (s *BookingService) UpdateStatus(ctx context.Context, in UpdateStatusInput) (rpc.Success, error) {
	admin, err := rpc.RequireAdmin(ctx)
	if err != nil {
		return rpc.Success{}, err
	}

	err = s.store.UpdateBookingStatus(ctx, in.ID, in.Status)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return rpc.Success{}, rpc.Errorf(rpc.CodeNotFound, "booking %d not found", in.ID)
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", in.ID).Msg("Failed to update booking status")
		return rpc.Success{}, rpc.StorageError(err)
	}

	s.logger.Info().
		Int64("booking_id", in.ID).
		Str("status", string(in.Status)).
		Int64("admin_id", admin.ID).
		Msg("Booking status updated")

	return rpc.Success{Success: true}, nil
}
