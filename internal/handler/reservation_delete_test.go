package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/andescampus/uniride/internal/repository"
)

func newDeleteContext(t *testing.T, reservationID, jsonBody string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/"+reservationID, strings.NewReader(jsonBody))
	if jsonBody != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/reservations/:reservationId")
	c.SetParamNames("reservationId")
	c.SetParamValues(reservationID)
	return c, rec
}

func TestDeleteReservationRejectsBadInput(t *testing.T) {
	h := &ReservationHandler{
		Capacity:     &repository.CapacityRepo{},
		Trips:        &repository.TripRepo{},
		Reservations: &repository.ReservationRepo{},
		Users:        &repository.UserRepo{},
	}

	// Malformed ids never reach the database.
	for _, id := range []string{"abc", "0", "-4"} {
		c, rec := newDeleteContext(t, id, "")
		if err := h.DeleteReservation(c); err != nil {
			t.Fatalf("DeleteReservation(%q) returned error: %v", id, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("DeleteReservation(%q) status = %d, want %d", id, rec.Code, http.StatusBadRequest)
		}
	}

	// Without a passenger_id in the body and no authenticated user, the
	// request is rejected before any transaction starts.
	c, rec := newDeleteContext(t, "7", `{}`)
	if err := h.DeleteReservation(c); err != nil {
		t.Fatalf("DeleteReservation without actor returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("DeleteReservation without actor status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
