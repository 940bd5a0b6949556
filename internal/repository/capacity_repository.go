package repository

import (
	"context"
	"database/sql"
)

// CapacityRepo owns the seats_available counter on trips.  It is the only
// code allowed to mutate that column.  The reserve path is a single
// conditional UPDATE: the check and the decrement happen in one statement,
// so two racing requests for the last seats are linearized by the row lock
// and at most one can win.  Callers never pre-check availability with Peek
// and then decrement; the decision is made inside TryReserveTx.
type CapacityRepo struct {
	db *sql.DB
}

// NewCapacityRepo returns a CapacityRepo bound to the given database.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

// DB exposes the underlying handle so coordinating handlers can open
// transactions spanning the capacity and reservation repositories.
func (r *CapacityRepo) DB() *sql.DB { return r.db }

// TryReserveTx atomically claims n seats on a trip inside the given
// transaction.  On success it returns the seats remaining after the
// decrement.  When the trip has fewer than n seats left it returns the
// current count together with ErrInsufficientSeats and leaves the row
// unchanged.  A missing trip yields ErrTripNotFound.  n must be >= 1;
// zero or negative requests are rejected as insufficient without touching
// the database.
func (r *CapacityRepo) TryReserveTx(ctx context.Context, tx *sql.Tx, tripID uint64, n uint32) (uint32, error) {
	if n < 1 {
		return 0, ErrInsufficientSeats
	}
	const dec = `UPDATE trips SET seats_available = seats_available - ? WHERE id = ? AND seats_available >= ?`
	res, err := tx.ExecContext(ctx, dec, n, tripID, n)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	const sel = `SELECT seats_available FROM trips WHERE id = ?`
	var available uint32
	if err := tx.QueryRowContext(ctx, sel, tripID).Scan(&available); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTripNotFound
		}
		return 0, err
	}
	if affected == 0 {
		// The conditional update matched no row: the trip exists (we just
		// read it) but does not have n seats left.
		return available, ErrInsufficientSeats
	}
	return available, nil
}

// RestoreTx returns n seats to a trip inside the given transaction, clamped
// to seats_total.  It reports the counts before and after so callers can
// surface them to the user.  In correct operation the clamp never triggers,
// because every restore corresponds to an earlier successful decrement of
// the same size.  A missing trip yields ErrTripNotFound.
func (r *CapacityRepo) RestoreTx(ctx context.Context, tx *sql.Tx, tripID uint64, n uint32) (before, after uint32, err error) {
	const sel = `SELECT seats_available, seats_total FROM trips WHERE id = ? FOR UPDATE`
	var total uint32
	if err = tx.QueryRowContext(ctx, sel, tripID).Scan(&before, &total); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, ErrTripNotFound
		}
		return 0, 0, err
	}
	after = before + n
	if after > total {
		after = total
	}
	const upd = `UPDATE trips SET seats_available = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, upd, after, tripID); err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// Peek returns the current seats_available for a trip.  It is a plain read
// used for display and filtering only; reservation decisions always go
// through TryReserveTx.
func (r *CapacityRepo) Peek(ctx context.Context, tripID uint64) (uint32, error) {
	const q = `SELECT seats_available FROM trips WHERE id = ?`
	var available uint32
	if err := r.db.QueryRowContext(ctx, q, tripID).Scan(&available); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTripNotFound
		}
		return 0, err
	}
	return available, nil
}
