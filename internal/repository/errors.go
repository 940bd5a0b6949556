// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios. For example,
// ErrForbidden indicates that the current user is not authorized to perform
// an operation on a resource owned by someone else, while
// ErrInsufficientSeats signals that a reserve request asked for more seats
// than the trip has left.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own: a passenger deleting someone else's
// reservation, or a driver changing the status of a reservation drawn
// against another driver's trip. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientSeats is returned by the capacity repository when the
// conditional decrement finds fewer seats available than requested. The
// trip itself is untouched. Handlers surface this as a user-facing 400
// together with the remaining count, never as a fault.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrTripNotFound is returned when a trip id does not resolve to a live
// trip row.
var ErrTripNotFound = errors.New("trip not found")

// ErrReservationNotFound is returned when a reservation id does not resolve
// to a ledger entry.
var ErrReservationNotFound = errors.New("reservation not found")
