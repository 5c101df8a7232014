package models

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	// AnonymousCustomerID is stored on bookings submitted through the public intake form.
	AnonymousCustomerID int64 = 0

	// LoginMethodAPIKey marks identities resolved from a configured API key.
	LoginMethodAPIKey = "api_key"

	// LoginMethodOperator marks users created with the admin CLI.
	LoginMethodOperator = "operator"
)
