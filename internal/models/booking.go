package models

import "time"

type BookingStatus string

// Valid reports whether s is one of the four lifecycle states.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customerId"`
	ServiceType   string        `json:"serviceType"`
	Quantity      string        `json:"quantity"`
	Price         string        `json:"price"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerPhone string        `json:"customerPhone"`
	ServiceDate   *string       `json:"serviceDate,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// InsertResult is what storage hands back after persisting a booking.
type InsertResult struct {
	InsertID     int64    `json:"insertId"`
	AffectedRows int64    `json:"affectedRows"`
	Booking      *Booking `json:"booking"`
}
