package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createStationsTable,
		createTrainsTable,
		createTrainStopsTable,
		createPricingRulesTable,
		createInventoryTable,
		createBookingsTable,
		createPassengerSeatsTable,
		createWaitlistTable,
		createPaymentsTable,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createStationsTable = `
CREATE TABLE IF NOT EXISTS stations (
    id SERIAL PRIMARY KEY,
    code VARCHAR(10) UNIQUE NOT NULL,
    name VARCHAR(200) NOT NULL
);`

const createTrainsTable = `
CREATE TABLE IF NOT EXISTS trains (
    id SERIAL PRIMARY KEY,
    number VARCHAR(10) UNIQUE NOT NULL,
    name VARCHAR(200) NOT NULL,
    source VARCHAR(200) NOT NULL DEFAULT '',
    destination VARCHAR(200) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTrainStopsTable = `
CREATE TABLE IF NOT EXISTS train_stops (
    train_id INTEGER NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
    station_id INTEGER NOT NULL REFERENCES stations(id),
    seq INTEGER NOT NULL,
    distance_km DOUBLE PRECISION NOT NULL,

    PRIMARY KEY (train_id, station_id),
    UNIQUE (train_id, seq),
    CHECK (seq > 0),
    CHECK (distance_km >= 0)
);`

const createPricingRulesTable = `
CREATE TABLE IF NOT EXISTS pricing_rules (
    train_id INTEGER NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
    coach_class VARCHAR(4) NOT NULL,
    base_rate_per_km DECIMAL(8,4) NOT NULL,
    tatkal_multiplier DECIMAL(4,2) NOT NULL DEFAULT 1.0,
    medium_threshold DECIMAL(4,2) NOT NULL DEFAULT 0,
    medium_multiplier DECIMAL(4,2) NOT NULL DEFAULT 1.0,
    high_threshold DECIMAL(4,2) NOT NULL DEFAULT 0,
    high_multiplier DECIMAL(4,2) NOT NULL DEFAULT 1.0,

    PRIMARY KEY (train_id, coach_class),
    CHECK (tatkal_multiplier BETWEEN 1.0 AND 1.4)
);`

const createInventoryTable = `
CREATE TABLE IF NOT EXISTS inventory (
    train_id INTEGER NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
    journey_date DATE NOT NULL,
    coach_class VARCHAR(4) NOT NULL,
    quota VARCHAR(20) NOT NULL,
    total_seats INTEGER NOT NULL,
    available_seats INTEGER NOT NULL,

    PRIMARY KEY (train_id, journey_date, coach_class, quota),
    CHECK (total_seats >= 0),
    CHECK (available_seats >= 0),
    CHECK (available_seats <= total_seats)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    pnr VARCHAR(10) UNIQUE NOT NULL,
    user_id INTEGER REFERENCES users(user_id),
    train_id INTEGER NOT NULL REFERENCES trains(id),
    journey_date DATE NOT NULL,
    coach_class VARCHAR(4) NOT NULL,
    quota VARCHAR(20) NOT NULL,
    booking_type VARCHAR(10) NOT NULL DEFAULT 'general',
    from_station_id INTEGER NOT NULL REFERENCES stations(id),
    to_station_id INTEGER NOT NULL REFERENCES stations(id),
    passenger_count INTEGER NOT NULL,
    fare_amount DECIMAL(10,2) NOT NULL,
    status VARCHAR(20) NOT NULL,
    waitlist_tag VARCHAR(10),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (passenger_count > 0),
    CHECK (status IN ('pending_payment', 'waitlisted', 'confirmed', 'cancelled')),
    CHECK (booking_type IN ('general', 'tatkal'))
);
CREATE INDEX IF NOT EXISTS bookings_key_idx
ON bookings (train_id, journey_date, coach_class, quota);`

const createPassengerSeatsTable = `
CREATE TABLE IF NOT EXISTS passenger_seats (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name VARCHAR(200) NOT NULL,
    berth_preference VARCHAR(12),
    train_id INTEGER NOT NULL,
    journey_date DATE NOT NULL,
    coach_class VARCHAR(4) NOT NULL,
    coach_label VARCHAR(6),
    seat_number INTEGER,
    berth_type VARCHAR(12),

    UNIQUE (booking_id, position)
);
CREATE UNIQUE INDEX IF NOT EXISTS passenger_seats_identity_idx
ON passenger_seats (train_id, journey_date, coach_class, coach_label, seat_number)
WHERE coach_label IS NOT NULL;`

const createWaitlistTable = `
CREATE TABLE IF NOT EXISTS waitlist_entries (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER UNIQUE NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    train_id INTEGER NOT NULL,
    journey_date DATE NOT NULL,
    coach_class VARCHAR(4) NOT NULL,
    quota VARCHAR(20) NOT NULL,
    seq BIGINT NOT NULL,
    passengers INTEGER NOT NULL,

    UNIQUE (train_id, journey_date, coach_class, quota, seq)
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    order_id VARCHAR(64) NOT NULL,
    status VARCHAR(10) NOT NULL,
    amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'success', 'failed'))
);
CREATE UNIQUE INDEX IF NOT EXISTS payments_single_success_idx
ON payments (booking_id)
WHERE status = 'success';`
