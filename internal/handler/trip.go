package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andescampus/uniride/internal/config"
	"github.com/andescampus/uniride/internal/model"
	"github.com/andescampus/uniride/internal/repository"
)

// TripHandler groups the repositories needed to publish, list and delete
// trips.  Deleting a trip cascades over its reservations inside a single
// transaction; no seats are restored because the trip row itself is removed.
type TripHandler struct {
	Cfg   config.Config
	Trips *repository.TripRepo
	Users *repository.UserRepo
}

func NewTripHandler(cfg config.Config, trips *repository.TripRepo, users *repository.UserRepo) *TripHandler {
	if trips == nil || users == nil {
		panic("nil repository passed to NewTripHandler")
	}
	return &TripHandler{Cfg: cfg, Trips: trips, Users: users}
}

type createTripReq struct {
	DriverID      uint64 `json:"driver_id"`
	FromLocation  string `json:"from_location"`
	ToLocation    string `json:"to_location"`
	Sector        string `json:"sector"`
	DepartureTime string `json:"departure_time"`
	PricePerSeat  uint32 `json:"price_per_seat"`
	SeatsTotal    uint32 `json:"seats_total"`
}

// ListTrips handles GET /v1/trips, the public board of every published trip.
// Seat counts here are display snapshots; the authoritative check happens
// inside the reserve transaction.
func (h *TripHandler) ListTrips(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Trips.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	base := strings.TrimRight(h.Cfg.MediaBaseURL, "/")
	for i := range entries {
		if p := entries[i].CarPhoto; p != "" && base != "" && !strings.HasPrefix(p, "http") {
			entries[i].CarPhoto = base + "/" + strings.TrimLeft(p, "/")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"trips": entries})
}

// ListDriverTrips handles GET /v1/drivers/:driverId/trips.
func (h *TripHandler) ListDriverTrips(c echo.Context) error {
	driverID, ok := pathID(c, "driverId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid driver id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, driverID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	trips, err := h.Trips.ListByDriver(ctx, driverID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trips": trips})
}

// CreateTrip handles POST /v1/trips.  The trip starts with every offered
// seat available.
func (h *TripHandler) CreateTrip(c echo.Context) error {
	var req createTripReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FromLocation = strings.TrimSpace(req.FromLocation)
	req.ToLocation = strings.TrimSpace(req.ToLocation)
	req.DepartureTime = strings.TrimSpace(req.DepartureTime)
	if req.DriverID == 0 || req.FromLocation == "" || req.ToLocation == "" || req.DepartureTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "driver_id, from_location, to_location and departure_time are required"})
	}
	if req.SeatsTotal < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats_total must be at least 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.DriverID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	t := model.Trip{
		DriverID:       req.DriverID,
		FromLocation:   req.FromLocation,
		ToLocation:     req.ToLocation,
		Sector:         strings.TrimSpace(req.Sector),
		DepartureTime:  req.DepartureTime,
		PricePerSeat:   req.PricePerSeat,
		SeatsTotal:     req.SeatsTotal,
		SeatsAvailable: req.SeatsTotal,
	}
	if err := h.Trips.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create trip failed"})
	}

	logrus.WithFields(logrus.Fields{
		"trip_id":   t.ID,
		"driver_id": t.DriverID,
		"seats":     t.SeatsTotal,
	}).Info("trip published")

	return c.JSON(http.StatusCreated, t)
}

// DeleteTrip handles DELETE /v1/trips/:tripId.  Only the owning driver may
// delete; all reservations on the trip are removed in the same transaction
// and their count reported.  No seat restore happens since the trip row is
// gone.
func (h *TripHandler) DeleteTrip(c echo.Context) error {
	tripID, ok := pathID(c, "tripId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		DriverID uint64 `json:"driver_id"`
	}
	_ = c.Bind(&body)
	driverID := body.DriverID
	if driverID == 0 {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		driverID = uid
	}

	ctx := c.Request().Context()
	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	removed, err := h.Trips.DeleteCascadeTx(ctx, tx, tripID, driverID)
	if err != nil {
		switch err {
		case repository.ErrTripNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "trip belongs to another driver"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	logrus.WithFields(logrus.Fields{
		"trip_id":              tripID,
		"driver_id":            driverID,
		"deleted_reservations": removed,
	}).Info("trip deleted")

	return c.JSON(http.StatusOK, echo.Map{
		"message":                    "trip deleted",
		"deleted_reservations_count": removed,
	})
}
