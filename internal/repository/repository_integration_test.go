package repository

// Integration tests against a real MySQL instance.  They are skipped unless
// TEST_MYSQL_DSN is set, e.g.
//
//	TEST_MYSQL_DSN='root:secret@tcp(127.0.0.1:3306)/uniride_test?parseTime=true&loc=UTC' go test ./internal/repository/
//
// The schema is created on first connect and the relevant tables are
// truncated before each test.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/andescampus/uniride/internal/database"
	"github.com/andescampus/uniride/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping MySQL integration tests")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping test db: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	for _, table := range []string{"reservation_pickups", "reservations", "trips", "refresh_tokens", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) uint64 {
	t.Helper()
	id, err := NewUserRepo(db).Create(context.Background(), model.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Phone:     "000",
	}, "password", 4)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func createTestTrip(t *testing.T, db *sql.DB, driverID uint64, seats uint32) model.Trip {
	t.Helper()
	trip := model.Trip{
		DriverID:       driverID,
		FromLocation:   "Campus",
		ToLocation:     "Downtown",
		Sector:         "North",
		DepartureTime:  "07:30",
		PricePerSeat:   5,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
	}
	if err := NewTripRepo(db).Create(context.Background(), &trip); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return trip
}

// reserve claims n seats and records the reservation in one transaction,
// mirroring what the HTTP handler does.
func reserve(t *testing.T, db *sql.DB, trip model.Trip, passengerID uint64, n uint32, pickups []string) (model.Reservation, uint32, error) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	available, err := NewCapacityRepo(db).TryReserveTx(ctx, tx, trip.ID, n)
	if err != nil {
		_ = tx.Rollback()
		return model.Reservation{}, available, err
	}
	res := model.Reservation{
		TripID:          trip.ID,
		DriverID:        trip.DriverID,
		PassengerID:     passengerID,
		SeatCount:       n,
		PickupAddresses: pickups,
	}
	if err := NewReservationRepo(db).CreateTx(ctx, tx, &res); err != nil {
		_ = tx.Rollback()
		return model.Reservation{}, available, err
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit reserve tx: %v", err)
	}
	return res, available, nil
}

// cancel deletes a reservation and restores its seats, mirroring the
// handler's delete flow.
func cancel(t *testing.T, db *sql.DB, reservationID, passengerID uint64) (restored uint32, after uint32) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	resRepo := NewReservationRepo(db)
	res, err := resRepo.GetForPassengerTx(ctx, tx, reservationID, passengerID)
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("load reservation for cancel: %v", err)
	}
	if err := resRepo.DeleteTx(ctx, tx, reservationID); err != nil {
		_ = tx.Rollback()
		t.Fatalf("delete reservation: %v", err)
	}
	_, afterSeats, err := NewCapacityRepo(db).RestoreTx(ctx, tx, res.TripID, res.SeatCount)
	if err != nil && err != ErrTripNotFound {
		_ = tx.Rollback()
		t.Fatalf("restore seats: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit cancel tx: %v", err)
	}
	if err == ErrTripNotFound {
		return 0, 0
	}
	return res.SeatCount, afterSeats
}

func TestCapacityBoundAndRecovery(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	passenger := createTestUser(t, db, "pass@test.local")
	trip := createTestTrip(t, db, driver, 4)

	// Claim 3 of 4 seats.
	first, available, err := reserve(t, db, trip, passenger, 3, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("reserve 3: %v", err)
	}
	if available != 1 {
		t.Errorf("seats after reserving 3 = %d, want 1", available)
	}

	// A 2-seat request must fail and leave the count untouched.
	_, available, err = reserve(t, db, trip, passenger, 2, []string{"x"})
	if err != ErrInsufficientSeats {
		t.Fatalf("reserve 2 of 1 error = %v, want ErrInsufficientSeats", err)
	}
	if available != 1 {
		t.Errorf("seats reported on failure = %d, want 1", available)
	}
	if got, _ := NewCapacityRepo(db).Peek(context.Background(), trip.ID); got != 1 {
		t.Errorf("seats after failed reserve = %d, want 1", got)
	}

	// The last seat is still claimable.
	_, available, err = reserve(t, db, trip, passenger, 1, []string{"x"})
	if err != nil {
		t.Fatalf("reserve last seat: %v", err)
	}
	if available != 0 {
		t.Errorf("seats after last reserve = %d, want 0", available)
	}

	// Rejecting the first reservation changes nothing about capacity.
	if _, err := NewReservationRepo(db).SetStatus(context.Background(), first.ID, model.StatusRejected, driver); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got, _ := NewCapacityRepo(db).Peek(context.Background(), trip.ID); got != 0 {
		t.Errorf("seats after rejection = %d, want 0", got)
	}

	// Cancelling the 3-seat reservation frees exactly 3.
	restored, after := cancel(t, db, first.ID, passenger)
	if restored != 3 || after != 3 {
		t.Errorf("cancel returned restored=%d after=%d, want 3 and 3", restored, after)
	}
}

func TestConcurrentReserveNoDoubleSpend(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	trip := createTestTrip(t, db, driver, 5)

	const attempts = 20
	passengers := make([]uint64, attempts)
	for i := range passengers {
		passengers[i] = createTestUser(t, db, fmt.Sprintf("p%d@test.local", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = reserve(t, db, trip, passengers[i], 1, []string{"gate"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch err {
		case nil:
			succeeded++
		case ErrInsufficientSeats:
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Errorf("successful reservations = %d, want exactly 5", succeeded)
	}
	if got, _ := NewCapacityRepo(db).Peek(context.Background(), trip.ID); got != 0 {
		t.Errorf("seats after concurrent reserve = %d, want 0", got)
	}

	// Conservation: ledger seat sum + available == total.
	var claimed uint32
	if err := db.QueryRow(`SELECT COALESCE(SUM(seat_count),0) FROM reservations WHERE trip_id=?`, trip.ID).Scan(&claimed); err != nil {
		t.Fatalf("sum seats: %v", err)
	}
	if claimed != 5 {
		t.Errorf("ledger holds %d seats, want 5", claimed)
	}
}

func TestRejectionKeepsSeatsUntilDelete(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	passenger := createTestUser(t, db, "pass@test.local")
	trip := createTestTrip(t, db, driver, 4)

	res, _, err := reserve(t, db, trip, passenger, 2, []string{"a", "b"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	resRepo := NewReservationRepo(db)
	ctx := context.Background()

	// Only the trip's driver may change the status.
	if _, err := resRepo.SetStatus(ctx, res.ID, model.StatusRejected, passenger); err != ErrForbidden {
		t.Fatalf("SetStatus by non-driver error = %v, want ErrForbidden", err)
	}

	rejected, err := resRepo.SetStatus(ctx, res.ID, model.StatusRejected, driver)
	if err != nil {
		t.Fatalf("SetStatus rejected: %v", err)
	}
	if rejected.Status != model.StatusRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	// Rejection must not restore seats.
	if got, _ := NewCapacityRepo(db).Peek(ctx, trip.ID); got != 2 {
		t.Errorf("seats after rejection = %d, want 2", got)
	}

	// Statuses move freely between the three states.
	if _, err := resRepo.SetStatus(ctx, res.ID, model.StatusAccepted, driver); err != nil {
		t.Fatalf("SetStatus accepted after rejected: %v", err)
	}
	if _, err := resRepo.SetStatus(ctx, res.ID, model.StatusRejected, driver); err != nil {
		t.Fatalf("SetStatus rejected again: %v", err)
	}

	// Deleting the rejected reservation is what frees the seats.
	restored, after := cancel(t, db, res.ID, passenger)
	if restored != 2 || after != 4 {
		t.Errorf("cancel rejected reservation restored=%d after=%d, want 2 and 4", restored, after)
	}
}

func TestTripCascadeDelete(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	other := createTestUser(t, db, "other@test.local")
	trip := createTestTrip(t, db, driver, 6)

	for i := 0; i < 3; i++ {
		p := createTestUser(t, db, fmt.Sprintf("p%d@test.local", i))
		if _, _, err := reserve(t, db, trip, p, 1, []string{"gate"}); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}

	ctx := context.Background()
	tripRepo := NewTripRepo(db)

	// Another driver cannot delete the trip.
	tx, _ := db.BeginTx(ctx, nil)
	if _, err := tripRepo.DeleteCascadeTx(ctx, tx, trip.ID, other); err != ErrForbidden {
		t.Fatalf("DeleteCascadeTx by non-owner error = %v, want ErrForbidden", err)
	}
	_ = tx.Rollback()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	removed, err := tripRepo.DeleteCascadeTx(ctx, tx, trip.ID, driver)
	if err != nil {
		t.Fatalf("DeleteCascadeTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if removed != 3 {
		t.Errorf("deleted reservation count = %d, want 3", removed)
	}
	if _, err := tripRepo.GetByID(ctx, trip.ID); err != ErrTripNotFound {
		t.Errorf("GetByID after delete error = %v, want ErrTripNotFound", err)
	}
	var left int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE trip_id=?`, trip.ID).Scan(&left); err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if left != 0 {
		t.Errorf("reservations left after cascade = %d, want 0", left)
	}
}

func TestRestoreClampsAtTotal(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	trip := createTestTrip(t, db, driver, 3)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	before, after, err := NewCapacityRepo(db).RestoreTx(ctx, tx, trip.ID, 10)
	if err != nil {
		t.Fatalf("RestoreTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if before != 3 || after != 3 {
		t.Errorf("RestoreTx clamp: before=%d after=%d, want 3 and 3", before, after)
	}
}

func TestPickupAddressesPersistInSeatOrder(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	passenger := createTestUser(t, db, "pass@test.local")
	trip := createTestTrip(t, db, driver, 4)

	pickups := []string{"Main Gate", "Library", "Library"}
	res, _, err := reserve(t, db, trip, passenger, 3, pickups)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	got, err := NewReservationRepo(db).GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.PickupAddresses) != 3 {
		t.Fatalf("pickup count = %d, want 3", len(got.PickupAddresses))
	}
	for i, want := range pickups {
		if got.PickupAddresses[i] != want {
			t.Errorf("pickup[%d] = %q, want %q", i, got.PickupAddresses[i], want)
		}
	}
}

func TestPassengerListingSurvivesTripDeletion(t *testing.T) {
	db := openTestDB(t)
	driver := createTestUser(t, db, "driver@test.local")
	passenger := createTestUser(t, db, "pass@test.local")
	kept := createTestTrip(t, db, driver, 4)
	doomed := createTestTrip(t, db, driver, 4)

	if _, _, err := reserve(t, db, kept, passenger, 1, []string{"gate"}); err != nil {
		t.Fatalf("reserve on kept trip: %v", err)
	}
	res, _, err := reserve(t, db, doomed, passenger, 1, []string{"gate"})
	if err != nil {
		t.Fatalf("reserve on doomed trip: %v", err)
	}

	// Delete the trip row directly, leaving the reservation dangling the
	// way a raw cleanup job would.
	if _, err := db.Exec(`DELETE FROM trips WHERE id=?`, doomed.ID); err != nil {
		t.Fatalf("delete trip row: %v", err)
	}

	ctx := context.Background()
	list, err := NewReservationRepo(db).ListByPassenger(ctx, passenger)
	if err != nil {
		t.Fatalf("ListByPassenger: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("listing length = %d, want 2", len(list))
	}
	for _, pr := range list {
		if pr.TripID == doomed.ID && pr.TripDetails != nil {
			t.Error("dangling reservation reported trip details, want null")
		}
		if pr.TripID == kept.ID && pr.TripDetails == nil {
			t.Error("live reservation missing trip details")
		}
	}

	// Pending requests for the driver only include live trips.
	pending, err := NewReservationRepo(db).ListPendingByDriver(ctx, driver)
	if err != nil {
		t.Fatalf("ListPendingByDriver: %v", err)
	}
	if len(pending) != 1 || pending[0].TripID != kept.ID {
		t.Errorf("pending requests = %+v, want only the live trip", pending)
	}

	// Cancelling the dangling reservation restores nothing but succeeds.
	restored, _ := cancel(t, db, res.ID, passenger)
	if restored != 0 {
		t.Errorf("restored %d seats for dangling reservation, want 0", restored)
	}
}

func TestUserAndTokenLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	uid, err := users.Create(ctx, model.User{
		FirstName: "Ana",
		Email:     "ana@test.local",
		Plate:     "ABC123",
	}, "secret", 4)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(ctx, model.User{FirstName: "Dup", Email: "ana@test.local"}, "x", 4); err != ErrEmailExists {
		t.Fatalf("duplicate email error = %v, want ErrEmailExists", err)
	}

	taken, err := users.PlateExists(ctx, "ABC123")
	if err != nil || !taken {
		t.Errorf("PlateExists(ABC123) = %v, %v, want true", taken, err)
	}

	other := createTestUser(t, db, "other@test.local")
	if err := users.UpdateProfile(ctx, model.User{ID: other, Plate: "ABC123"}); err != ErrPlateTaken {
		t.Errorf("UpdateProfile with taken plate error = %v, want ErrPlateTaken", err)
	}

	tokens := NewTokenRepo(db)
	const hash = "0000000000000000000000000000000000000000000000000000000000000001"
	if err := tokens.StoreRefresh(ctx, uid, hash, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}
	got, err := tokens.ValidateRefresh(ctx, hash)
	if err != nil || got != uid {
		t.Fatalf("ValidateRefresh = %d, %v, want %d", got, err, uid)
	}
	if err := tokens.RevokeByHash(ctx, hash); err != nil {
		t.Fatalf("RevokeByHash: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, hash); err == nil {
		t.Error("ValidateRefresh succeeded after revoke")
	}
}
