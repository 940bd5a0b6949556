package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the table definitions applied at startup.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) and ordered so that referenced
// tables exist before their dependents.
//
// reservations.trip_id deliberately carries no foreign key: a trip is
// removed through an explicit cascade in the coordinator, and listing code
// must tolerate a dangling trip reference by reporting a null trip snapshot
// instead of failing.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		first_name    VARCHAR(100)  NOT NULL,
		last_name     VARCHAR(100)  NOT NULL,
		university_id VARCHAR(50)   NOT NULL DEFAULT '',
		email         VARCHAR(255)  NOT NULL,
		phone         VARCHAR(30)   NOT NULL DEFAULT '',
		password_hash VARCHAR(255)  NOT NULL,
		plate         VARCHAR(16)   NOT NULL DEFAULT '',
		vehicle_brand VARCHAR(60)   NOT NULL DEFAULT '',
		vehicle_model VARCHAR(60)   NOT NULL DEFAULT '',
		vehicle_seats INT UNSIGNED  NOT NULL DEFAULT 0,
		car_photo     VARCHAR(255)  NOT NULL DEFAULT '',
		created_at    DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS trips (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		driver_id       BIGINT UNSIGNED NOT NULL,
		from_location   VARCHAR(255)  NOT NULL,
		to_location     VARCHAR(255)  NOT NULL,
		sector          VARCHAR(100)  NOT NULL,
		departure_time  VARCHAR(20)   NOT NULL,
		price_per_seat  INT UNSIGNED  NOT NULL,
		seats_total     INT UNSIGNED  NOT NULL,
		seats_available INT UNSIGNED  NOT NULL,
		created_at      DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_trips_driver (driver_id),
		CONSTRAINT fk_trips_driver FOREIGN KEY (driver_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT chk_trips_capacity CHECK (seats_available <= seats_total)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		trip_id      BIGINT UNSIGNED NOT NULL,
		driver_id    BIGINT UNSIGNED NOT NULL,
		passenger_id BIGINT UNSIGNED NOT NULL,
		seat_count   INT UNSIGNED    NOT NULL,
		status       ENUM('PENDING','ACCEPTED','REJECTED') NOT NULL DEFAULT 'PENDING',
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_res_trip (trip_id),
		KEY idx_res_driver_status (driver_id, status),
		KEY idx_res_passenger (passenger_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservation_pickups (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reservation_id BIGINT UNSIGNED NOT NULL,
		position       INT UNSIGNED    NOT NULL,
		address        VARCHAR(255)    NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_pickup_pos (reservation_id, position),
		CONSTRAINT fk_pickup_res FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema to the given database.  It is safe to call on
// every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
