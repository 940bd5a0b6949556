package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/andescampus/uniride/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// pickup addresses.  A reservation claims one or more seats on a trip and
// stores one pickup address per seat in the reservation_pickups table.
// The repository never touches seats_available: capacity moves only through
// CapacityRepo, and status changes in particular leave the counter alone.
// All timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a reservation and its pickup rows within the scope of an
// existing transaction.  It populates the generated ID and creation
// timestamp on the provided struct.  The caller must commit or rollback;
// rolling back also undoes the seat decrement made earlier in the same
// transaction, which is the compensating action for a failed ledger write.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (trip_id, driver_id, passenger_id, seat_count, status)
			   VALUES (?, ?, ?, ?, ?)`
	status := res.Status
	if status == "" {
		status = model.StatusPending
	}
	result, err := tx.ExecContext(ctx, q, res.TripID, res.DriverID, res.PassengerID, res.SeatCount, status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Status = status
	if len(res.PickupAddresses) > 0 {
		// One row per seat, position preserves the seat order.
		query := `INSERT INTO reservation_pickups (reservation_id, position, address) VALUES `
		args := make([]interface{}, 0, len(res.PickupAddresses)*3)
		for i, addr := range res.PickupAddresses {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, res.ID, i, addr)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// GetByID returns a reservation with its pickup addresses, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	const q = `SELECT id, trip_id, driver_id, passenger_id, seat_count, status, created_at
			   FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.TripID, &res.DriverID, &res.PassengerID, &res.SeatCount, &res.Status, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	pickups, err := r.pickupsByReservation(ctx, []uint64{res.ID})
	if err != nil {
		return model.Reservation{}, err
	}
	res.PickupAddresses = pickups[res.ID]
	return res, nil
}

// SetStatus updates the status of a reservation after validating that the
// caller is the driver captured on the reservation at creation time.  Any
// of the three statuses can be set from any other; this mirrors the
// behavior the product shipped with.  The capacity store is deliberately
// not involved: rejecting a reservation does not release its seats.
func (r *ReservationRepo) SetStatus(ctx context.Context, reservationID uint64, newStatus string, driverID uint64) (model.Reservation, error) {
	const sel = `SELECT id, trip_id, driver_id, passenger_id, seat_count, status, created_at
				 FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, sel, reservationID).Scan(
		&res.ID, &res.TripID, &res.DriverID, &res.PassengerID, &res.SeatCount, &res.Status, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	if res.DriverID != driverID {
		return model.Reservation{}, ErrForbidden
	}
	const upd = `UPDATE reservations SET status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, upd, newStatus, reservationID); err != nil {
		return model.Reservation{}, err
	}
	res.Status = newStatus
	return res, nil
}

// GetForPassengerTx loads a reservation inside a transaction, validating
// that it belongs to the given passenger.  The row is locked so the
// subsequent restore-and-delete runs against a stable snapshot.  It returns
// ErrReservationNotFound when the id does not exist and ErrForbidden when
// the reservation is held by a different passenger.
func (r *ReservationRepo) GetForPassengerTx(ctx context.Context, tx *sql.Tx, reservationID, passengerID uint64) (model.Reservation, error) {
	const q = `SELECT id, trip_id, driver_id, passenger_id, seat_count, status, created_at
			   FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	err := tx.QueryRowContext(ctx, q, reservationID).Scan(
		&res.ID, &res.TripID, &res.DriverID, &res.PassengerID, &res.SeatCount, &res.Status, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	if res.PassengerID != passengerID {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// DeleteTx removes a reservation row inside a transaction.  Pickup rows go
// with it via FK cascade.  Seat restoration is the caller's responsibility
// and must happen in the same transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, reservationID)
	return err
}

// TripSnapshot carries the display fields of the trip a reservation points
// at.  It is nil in listings when the trip has since been deleted.
type TripSnapshot struct {
	FromLocation  string `json:"from_location"`
	ToLocation    string `json:"to_location"`
	Sector        string `json:"sector"`
	DepartureTime string `json:"departure_time"`
	PricePerSeat  uint32 `json:"price_per_seat"`
}

// PassengerReservation is a reservation joined with its trip snapshot and
// driver name for display to the passenger.  TripDetails is null when the
// trip no longer exists; the reservation itself is still reported.
type PassengerReservation struct {
	model.Reservation
	TripDetails *TripSnapshot `json:"trip_details"`
	DriverName  string        `json:"driver_name"`
}

// ListByPassenger returns all reservations held by a passenger, newest
// first, each joined with its trip snapshot when the trip is still live.
func (r *ReservationRepo) ListByPassenger(ctx context.Context, passengerID uint64) ([]PassengerReservation, error) {
	const q = `SELECT r.id, r.trip_id, r.driver_id, r.passenger_id, r.seat_count, r.status, r.created_at,
					  t.from_location, t.to_location, t.sector, t.departure_time, t.price_per_seat,
					  u.first_name, u.last_name
			   FROM reservations r
			   LEFT JOIN trips t ON t.id = r.trip_id
			   LEFT JOIN users u ON u.id = r.driver_id
			   WHERE r.passenger_id = ?
			   ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]PassengerReservation, 0)
	ids := make([]uint64, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var pr PassengerReservation
		var from, to, sector, dep sql.NullString
		var price sql.NullInt64
		var first, last sql.NullString
		if err := rows.Scan(
			&pr.ID, &pr.TripID, &pr.DriverID, &pr.PassengerID, &pr.SeatCount, &pr.Status, &pr.CreatedAt,
			&from, &to, &sector, &dep, &price,
			&first, &last,
		); err != nil {
			return nil, err
		}
		if from.Valid {
			pr.TripDetails = &TripSnapshot{
				FromLocation:  from.String,
				ToLocation:    to.String,
				Sector:        sector.String,
				DepartureTime: dep.String,
				PricePerSeat:  uint32(price.Int64),
			}
		}
		pr.DriverName = model.User{FirstName: first.String, LastName: last.String}.DisplayName()
		index[pr.ID] = len(items)
		items = append(items, pr)
		ids = append(ids, pr.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}
	pickups, err := r.pickupsByReservation(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, addrs := range pickups {
		items[index[id]].PickupAddresses = addrs
	}
	return items, nil
}

// PendingRequest is a PENDING reservation joined with the requesting
// passenger and the live trip it targets, for display to the driver.
type PendingRequest struct {
	model.Reservation
	PassengerName  string       `json:"passenger_name"`
	PassengerEmail string       `json:"passenger_email"`
	TripDetails    TripSnapshot `json:"trip_details"`
}

// ListPendingByDriver returns every PENDING reservation whose denormalized
// driver matches and whose trip still resolves to a live row.  The inner
// join on trips makes the two ownership views agree: a request is only
// reported while its trip exists.
func (r *ReservationRepo) ListPendingByDriver(ctx context.Context, driverID uint64) ([]PendingRequest, error) {
	const q = `SELECT r.id, r.trip_id, r.driver_id, r.passenger_id, r.seat_count, r.status, r.created_at,
					  u.first_name, u.last_name, u.email,
					  t.from_location, t.to_location, t.sector, t.departure_time, t.price_per_seat
			   FROM reservations r
			   JOIN trips t ON t.id = r.trip_id
			   JOIN users u ON u.id = r.passenger_id
			   WHERE r.driver_id = ? AND r.status = ?
			   ORDER BY r.created_at ASC, r.id ASC`
	rows, err := r.db.QueryContext(ctx, q, driverID, model.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]PendingRequest, 0)
	ids := make([]uint64, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var pr PendingRequest
		var first, last string
		if err := rows.Scan(
			&pr.ID, &pr.TripID, &pr.DriverID, &pr.PassengerID, &pr.SeatCount, &pr.Status, &pr.CreatedAt,
			&first, &last, &pr.PassengerEmail,
			&pr.TripDetails.FromLocation, &pr.TripDetails.ToLocation, &pr.TripDetails.Sector,
			&pr.TripDetails.DepartureTime, &pr.TripDetails.PricePerSeat,
		); err != nil {
			return nil, err
		}
		pr.PassengerName = model.User{FirstName: first, LastName: last}.DisplayName()
		index[pr.ID] = len(requests)
		requests = append(requests, pr)
		ids = append(ids, pr.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return requests, nil
	}
	pickups, err := r.pickupsByReservation(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, addrs := range pickups {
		requests[index[id]].PickupAddresses = addrs
	}
	return requests, nil
}

// pickupsByReservation fetches the ordered pickup addresses for a set of
// reservations in one query.
func (r *ReservationRepo) pickupsByReservation(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	if len(ids) == 0 {
		return map[uint64][]string{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT reservation_id, address
		  FROM reservation_pickups
		  WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
		  ORDER BY reservation_id, position`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]string, len(ids))
	for rows.Next() {
		var rid uint64
		var addr string
		if err := rows.Scan(&rid, &addr); err != nil {
			return nil, err
		}
		out[rid] = append(out[rid], addr)
	}
	return out, rows.Err()
}
