package model

import "time"

// User mirrors the `users` table.  Every account can act as both a driver
// (offering trips) and a passenger (reserving seats); the vehicle fields are
// only meaningful for accounts that registered a car.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	UniversityID string    // users.university_id
	Email        string    // users.email
	Phone        string    // users.phone
	PasswordHash string    // users.password_hash
	Plate        string    // users.plate
	VehicleBrand string    // users.vehicle_brand
	VehicleModel string    // users.vehicle_model
	VehicleSeats uint32    // users.vehicle_seats
	CarPhoto     string    // users.car_photo
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// DisplayName joins the first and last name for presentation in trip board
// and pending-request listings.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return ""
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}
