package router

// This file registers the booking surface: trip publication and deletion for
// drivers, and seat reservation for passengers.  All routes require a valid
// JWT; ownership checks run in the handlers against the ids stored on each
// row.

import (
	"github.com/labstack/echo/v4"

	"github.com/andescampus/uniride/internal/handler"
	"github.com/andescampus/uniride/internal/middleware"
)

// RegisterBooking registers trip and reservation endpoints under /v1.
func RegisterBooking(e *echo.Echo, t *handler.TripHandler, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Trips ----
	g.GET("/drivers/:driverId/trips", t.ListDriverTrips)
	g.POST("/trips", t.CreateTrip)
	g.DELETE("/trips/:tripId", t.DeleteTrip)

	// ---- Reservations ----
	g.POST("/trips/:tripId/reserve", r.ReserveSeats)
	g.GET("/passengers/:passengerId/reservations", r.ListPassengerReservations)
	g.DELETE("/reservations/:reservationId", r.DeleteReservation)
	g.GET("/drivers/:driverId/pending-requests", r.PendingRequests)
	g.PUT("/reservations/:reservationId/status", r.UpdateReservationStatus)
}
