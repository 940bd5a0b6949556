package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andescampus/uniride/internal/model"
	"github.com/andescampus/uniride/internal/queue"
	"github.com/andescampus/uniride/internal/repository"
	"github.com/andescampus/uniride/internal/service"
)

// ReservationHandler coordinates seat capacity and the reservation ledger.
// The decrement and the ledger insert run in one transaction so a failed
// insert rolls the seats back automatically; the restore on passenger
// cancellation runs in the same transaction as the row delete.
type ReservationHandler struct {
	Capacity     *repository.CapacityRepo
	Trips        *repository.TripRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
}

func NewReservationHandler(capacity *repository.CapacityRepo, trips *repository.TripRepo, res *repository.ReservationRepo, users *repository.UserRepo) *ReservationHandler {
	if capacity == nil || trips == nil || res == nil || users == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Capacity: capacity, Trips: trips, Reservations: res, Users: users}
}

type reserveReq struct {
	PassengerID     uint64   `json:"passenger_id"`
	SeatCount       uint32   `json:"seat_count"`
	PickupAddresses []string `json:"pickup_addresses"`
	PickupAddress   string   `json:"pickup_address"`
}

type statusReq struct {
	DriverID uint64 `json:"driver_id"`
	Status   string `json:"status"`
}

// derivePickupAddresses produces exactly one address per seat.  An explicit
// list is truncated to seatCount or padded by repeating its last entry; when
// only a single address is given it is fanned out to every seat.  With
// neither input the request cannot be fulfilled.
func derivePickupAddresses(seatCount uint32, list []string, single string) ([]string, error) {
	cleaned := make([]string, 0, len(list))
	for _, a := range list {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	single = strings.TrimSpace(single)

	switch {
	case len(cleaned) > 0:
		out := make([]string, seatCount)
		for i := uint32(0); i < seatCount; i++ {
			if int(i) < len(cleaned) {
				out[i] = cleaned[i]
			} else {
				out[i] = cleaned[len(cleaned)-1]
			}
		}
		return out, nil
	case single != "":
		out := make([]string, seatCount)
		for i := range out {
			out[i] = single
		}
		return out, nil
	}
	return nil, errors.New("pickup_addresses or pickup_address required")
}

// ReserveSeats handles POST /v1/trips/:tripId/reserve.  All validation that
// can fail runs before the seat decrement so failures never mutate
// capacity; once the decrement succeeds the ledger insert commits in the
// same transaction or rolls the seats back with it.
func (h *ReservationHandler) ReserveSeats(c echo.Context) error {
	tripID, ok := pathID(c, "tripId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PassengerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_id required"})
	}
	if req.SeatCount < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be at least 1"})
	}
	pickups, err := derivePickupAddresses(req.SeatCount, req.PickupAddresses, req.PickupAddress)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, req.PassengerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "passenger not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	trip, err := h.Trips.GetByID(ctx, tripID)
	if err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tx, err := h.Capacity.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	available, err := h.Capacity.TryReserveTx(ctx, tx, tripID, req.SeatCount)
	if err != nil {
		switch err {
		case repository.ErrInsufficientSeats:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":           "not enough seats available",
				"seats_available": available,
			})
		case repository.ErrTripNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}

	res := model.Reservation{
		TripID:          tripID,
		DriverID:        trip.DriverID,
		PassengerID:     req.PassengerID,
		SeatCount:       req.SeatCount,
		PickupAddresses: pickups,
		Status:          model.StatusPending,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		// Rollback via the deferred guard undoes the decrement too.
		logrus.WithError(err).WithFields(logrus.Fields{
			"trip_id":      tripID,
			"passenger_id": req.PassengerID,
			"seat_count":   req.SeatCount,
		}).Error("ledger insert failed after seat decrement; rolling back")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Best effort notification; failures are logged and never surface to
	// the passenger.
	event := queue.ReservationRequestedEvent{
		ReservationID: res.ID,
		TripID:        tripID,
		DriverID:      trip.DriverID,
		PassengerID:   req.PassengerID,
		SeatCount:     req.SeatCount,
		Pickups:       pickups,
		FromLocation:  trip.FromLocation,
		ToLocation:    trip.ToLocation,
		DepartureTime: trip.DepartureTime,
		RequestedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = service.PublishReservationRequested(pubCtx, event)
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"reservation":     res,
		"seats_available": available,
	})
}

// ListPassengerReservations handles GET /v1/passengers/:passengerId/reservations.
// Reservations whose trip has been deleted are still listed, with a null
// trip snapshot.
func (h *ReservationHandler) ListPassengerReservations(c echo.Context) error {
	passengerID, ok := pathID(c, "passengerId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid passenger id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, passengerID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "passenger not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	list, err := h.Reservations.ListByPassenger(ctx, passengerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// DeleteReservation handles DELETE /v1/reservations/:reservationId.  The
// seats come back to the trip whatever the reservation's status, because the
// decrement happened at creation and was never undone by any status change.
// When the trip no longer exists there is nothing to restore.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	reservationID, ok := pathID(c, "reservationId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		PassengerID uint64 `json:"passenger_id"`
	}
	_ = c.Bind(&body)
	passengerID := body.PassengerID
	if passengerID == 0 {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		passengerID = uid
	}

	ctx := c.Request().Context()
	tx, err := h.Capacity.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetForPassengerTx(ctx, tx, reservationID, passengerID)
	if err != nil {
		switch err {
		case repository.ErrReservationNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another passenger"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Reservations.DeleteTx(ctx, tx, reservationID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	var before, after uint32
	restored := false
	before, after, err = h.Capacity.RestoreTx(ctx, tx, res.TripID, res.SeatCount)
	if err == nil {
		restored = true
	} else if err != repository.ErrTripNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restore failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	logrus.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"trip_id":        res.TripID,
		"passenger_id":   passengerID,
		"seats_restored": restored,
	}).Info("reservation deleted")

	msg := "reservation deleted"
	if res.Status == model.StatusRejected {
		msg = "rejected reservation removed"
	}
	resp := echo.Map{"message": msg}
	if restored {
		resp["seats_restored"] = res.SeatCount
		resp["seats_available_before"] = before
		resp["seats_available_after"] = after
	} else {
		resp["seats_restored"] = 0
	}
	return c.JSON(http.StatusOK, resp)
}

// PendingRequests handles GET /v1/drivers/:driverId/pending-requests.
func (h *ReservationHandler) PendingRequests(c echo.Context) error {
	driverID, ok := pathID(c, "driverId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid driver id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListPendingByDriver(ctx, driverID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": list})
}

// UpdateReservationStatus handles PUT /v1/reservations/:reservationId/status.
// Only the trip's driver may move a reservation between states, and any of
// the three states can be set from any other.  Status changes never touch
// seat capacity; a rejected reservation keeps its seats until the passenger
// deletes it.
func (h *ReservationHandler) UpdateReservationStatus(c echo.Context) error {
	reservationID, ok := pathID(c, "reservationId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, ACCEPTED or REJECTED"})
	}
	driverID := req.DriverID
	if driverID == 0 {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		driverID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.SetStatus(ctx, reservationID, status, driverID)
	if err != nil {
		switch err {
		case repository.ErrReservationNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another driver"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"driver_id":      driverID,
		"status":         status,
	}).Info("reservation status updated")

	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}
