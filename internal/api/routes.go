package api

import (
	"cleanbook/internal/rpc"
	"cleanbook/internal/service"
)

// NewAppRouter composes every procedure group into one namespace.
func NewAppRouter(bookings *service.BookingService, authSvc *service.AuthService, system *service.SystemService) *rpc.Router {
	return rpc.NewRouter().
		Group("system", rpc.Routes{
			"health":      rpc.Query(rpc.Public, system.Health),
			"notifyOwner": rpc.Mutation(rpc.Protected, system.NotifyOwner),
		}).
		Group("auth", rpc.Routes{
			"me":     rpc.Query(rpc.Public, authSvc.Me),
			"logout": rpc.Mutation(rpc.Public, authSvc.Logout),
		}).
		Group("bookings", rpc.Routes{
			"create":       rpc.Mutation(rpc.Public, bookings.CreateBooking),
			"list":         rpc.Query(rpc.Protected, bookings.ListBookings),
			"updateStatus": rpc.Mutation(rpc.Protected, bookings.UpdateStatus),
		})
}
