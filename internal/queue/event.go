// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationRequestedEvent is published when a passenger successfully holds
// seats on a trip.  It carries enough detail for downstream consumers to log
// or notify the driver without querying the primary database.
type ReservationRequestedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	TripID        uint64   `json:"trip_id"`
	DriverID      uint64   `json:"driver_id"`
	PassengerID   uint64   `json:"passenger_id"`
	SeatCount     uint32   `json:"seat_count"`
	Pickups       []string `json:"pickup_addresses"`
	FromLocation  string   `json:"from_location"`
	ToLocation    string   `json:"to_location"`
	DepartureTime string   `json:"departure_time"`
	RequestedAt   string   `json:"requested_at"`
}
