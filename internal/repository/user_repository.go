package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/andescampus/uniride/internal/model"
	"github.com/andescampus/uniride/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrPlateTaken is returned when a vehicle plate is already registered to a
// different account.
var ErrPlateTaken = errors.New("plate already registered")

const userCols = `id, first_name, last_name, university_id, email, phone, password_hash,
	plate, vehicle_brand, vehicle_model, vehicle_seats, car_photo, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.UniversityID, &u.Email, &u.Phone,
		&u.PasswordHash, &u.Plate, &u.VehicleBrand, &u.VehicleModel, &u.VehicleSeats,
		&u.CarPhoto, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user with a bcrypt-hashed password and returns its ID.
// Vehicle fields may be zero; they are only filled for accounts that
// registered a car.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, university_id, email, phone, password_hash,
			plate, vehicle_brand, vehicle_model, vehicle_seats, car_photo)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.UniversityID, email, u.Phone, hash,
		u.Plate, u.VehicleBrand, u.VehicleModel, u.VehicleSeats, u.CarPhoto)
	if err != nil {
		// MySQL duplicate-key error on the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email=? LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id=? LIMIT 1`, id))
}

// PlateExists reports whether any account has registered the given plate.
func (r *UserRepo) PlateExists(ctx context.Context, plate string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE plate=? AND plate<>''`, plate).Scan(&n)
	return n > 0, err
}

// UpdateProfile applies profile and vehicle changes to an existing user.
// A non-empty plate must not belong to another account; violations return
// ErrPlateTaken.  Empty strings leave the stored value untouched except for
// vehicle_seats, which is always written (zero is a meaningful value for an
// account without a car).
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User) error {
	if u.Plate != "" {
		var ownerID uint64
		err := r.DB.QueryRowContext(ctx,
			`SELECT id FROM users WHERE plate=? LIMIT 1`, u.Plate).Scan(&ownerID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil && ownerID != u.ID {
			return ErrPlateTaken
		}
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
			first_name    = IF(?='', first_name, ?),
			last_name     = IF(?='', last_name, ?),
			university_id = IF(?='', university_id, ?),
			phone         = IF(?='', phone, ?),
			plate         = IF(?='', plate, ?),
			vehicle_brand = IF(?='', vehicle_brand, ?),
			vehicle_model = IF(?='', vehicle_model, ?),
			car_photo     = IF(?='', car_photo, ?),
			vehicle_seats = ?
		 WHERE id = ?`,
		u.FirstName, u.FirstName, u.LastName, u.LastName,
		u.UniversityID, u.UniversityID, u.Phone, u.Phone,
		u.Plate, u.Plate, u.VehicleBrand, u.VehicleBrand,
		u.VehicleModel, u.VehicleModel, u.CarPhoto, u.CarPhoto,
		u.VehicleSeats, u.ID)
	return err
}
