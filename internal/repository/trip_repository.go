package repository

import (
	"context"
	"database/sql"

	"github.com/andescampus/uniride/internal/model"
)

// TripRepo provides CRUD operations for trips.  Capacity mutation is out of
// its scope: seats_available is written only by CapacityRepo, and the
// cascade delete removes the whole row together with every reservation that
// references it.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the given database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *TripRepo) DB() *sql.DB { return r.db }

// Create inserts a new trip and populates the generated ID and timestamps
// on the provided struct.  seats_available starts equal to seats_total.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	const q = `INSERT INTO trips
		(driver_id, from_location, to_location, sector, departure_time, price_per_seat, seats_total, seats_available)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.DriverID, t.FromLocation, t.ToLocation, t.Sector, t.DepartureTime,
		t.PricePerSeat, t.SeatsTotal, t.SeatsTotal)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.SeatsAvailable = t.SeatsTotal
	// Query back the row to populate DB-generated timestamps.
	const sel = `SELECT created_at, updated_at FROM trips WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a single trip or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (model.Trip, error) {
	const q = `SELECT id, driver_id, from_location, to_location, sector, departure_time,
					  price_per_seat, seats_total, seats_available, created_at, updated_at
			   FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.DriverID, &t.FromLocation, &t.ToLocation, &t.Sector, &t.DepartureTime,
		&t.PricePerSeat, &t.SeatsTotal, &t.SeatsAvailable, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Trip{}, ErrTripNotFound
	}
	return t, err
}

// BoardEntry is a trip joined with the driver display data shown on the
// public trip board.
type BoardEntry struct {
	model.Trip
	DriverName string `json:"driver_name"`
	CarPhoto   string `json:"car_photo,omitempty"`
}

// ListAll returns every trip joined with its driver's name and car photo,
// newest first.  Seat counts in the result are display-only snapshots.
func (r *TripRepo) ListAll(ctx context.Context) ([]BoardEntry, error) {
	const q = `SELECT t.id, t.driver_id, t.from_location, t.to_location, t.sector, t.departure_time,
					  t.price_per_seat, t.seats_total, t.seats_available, t.created_at, t.updated_at,
					  u.first_name, u.last_name, u.car_photo
			   FROM trips t
			   JOIN users u ON u.id = t.driver_id
			   ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]BoardEntry, 0)
	for rows.Next() {
		var e BoardEntry
		var first, last string
		if err := rows.Scan(
			&e.ID, &e.DriverID, &e.FromLocation, &e.ToLocation, &e.Sector, &e.DepartureTime,
			&e.PricePerSeat, &e.SeatsTotal, &e.SeatsAvailable, &e.CreatedAt, &e.UpdatedAt,
			&first, &last, &e.CarPhoto,
		); err != nil {
			return nil, err
		}
		e.DriverName = model.User{FirstName: first, LastName: last}.DisplayName()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByDriver returns all trips offered by one driver, newest first.
func (r *TripRepo) ListByDriver(ctx context.Context, driverID uint64) ([]model.Trip, error) {
	const q = `SELECT id, driver_id, from_location, to_location, sector, departure_time,
					  price_per_seat, seats_total, seats_available, created_at, updated_at
			   FROM trips WHERE driver_id = ?
			   ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trips := make([]model.Trip, 0)
	for rows.Next() {
		var t model.Trip
		if err := rows.Scan(
			&t.ID, &t.DriverID, &t.FromLocation, &t.ToLocation, &t.Sector, &t.DepartureTime,
			&t.PricePerSeat, &t.SeatsTotal, &t.SeatsAvailable, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// DeleteCascadeTx removes a trip and every reservation referencing it inside
// the given transaction.  Reservations are deleted without restoring seats:
// the trip row carrying the counter is removed in the same transaction, so
// there is nothing to return them to.  Pickup rows go with their
// reservations via FK cascade.  It returns the number of reservations
// removed, ErrTripNotFound when the trip does not exist, and ErrForbidden
// when driverID does not own it.
func (r *TripRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, tripID, driverID uint64) (int64, error) {
	const sel = `SELECT driver_id FROM trips WHERE id = ? FOR UPDATE`
	var actual uint64
	if err := tx.QueryRowContext(ctx, sel, tripID).Scan(&actual); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTripNotFound
		}
		return 0, err
	}
	if actual != driverID {
		return 0, ErrForbidden
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE trip_id = ?`, tripID)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, tripID); err != nil {
		return 0, err
	}
	return deleted, nil
}
