package model

import "time"

// Reservation statuses.  A reservation starts PENDING and the trip's driver
// may move it between any of the three states; no transition releases seats.
// Seats are returned to the trip only when the passenger deletes the
// reservation, whatever its status at that moment.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// ValidStatus reports whether s is one of the three reservation statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

// Reservation records a passenger's claim on seats of a trip.  TripID and
// DriverID are denormalized from the trip at creation time and never
// re-synced; permission checks run against these captured values.
//
// Fields:
//  ID              – primary key identifier.
//  TripID          – trip the seats are drawn from (no FK; may dangle).
//  DriverID        – driver captured from the trip at creation.
//  PassengerID     – user holding the reservation.
//  SeatCount       – number of seats claimed (>= 1).
//  PickupAddresses – one pickup address per seat, in seat order.
//  Status          – PENDING, ACCEPTED or REJECTED.
//  CreatedAt       – creation timestamp.
type Reservation struct {
	ID              uint64    `json:"id"`
	TripID          uint64    `json:"trip_id"`
	DriverID        uint64    `json:"driver_id"`
	PassengerID     uint64    `json:"passenger_id"`
	SeatCount       uint32    `json:"seat_count"`
	PickupAddresses []string  `json:"pickup_addresses"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
