package model

import "time"

// Trip represents a scheduled ride offered by a driver.  The driver and the
// total seat count are fixed at creation; SeatsAvailable is the only mutable
// counter and is owned exclusively by the capacity repository.  This struct
// corresponds to a row in the `trips` table.
//
// Fields:
//  ID             – primary key identifier.
//  DriverID       – user ID of the driver offering the trip.
//  FromLocation   – origin of the trip.
//  ToLocation     – destination of the trip.
//  Sector         – free-text area/zone the trip covers.
//  DepartureTime  – scheduled time of day, stored as text (e.g. "07:30").
//  PricePerSeat   – price charged per seat, in whole currency units.
//  SeatsTotal     – seats offered when the trip was created (>= 1).
//  SeatsAvailable – seats not currently claimed by an undeleted reservation.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Trip struct {
	ID             uint64    `json:"id"`
	DriverID       uint64    `json:"driver_id"`
	FromLocation   string    `json:"from_location"`
	ToLocation     string    `json:"to_location"`
	Sector         string    `json:"sector"`
	DepartureTime  string    `json:"departure_time"`
	PricePerSeat   uint32    `json:"price_per_seat"`
	SeatsTotal     uint32    `json:"seats_total"`
	SeatsAvailable uint32    `json:"seats_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}
