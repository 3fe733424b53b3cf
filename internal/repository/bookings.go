package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railbook/internal/apperr"
	"railbook/internal/database"
	"railbook/internal/models"

	"github.com/lib/pq"
)

// BookingRepository persists bookings, passenger seats and payment
// records. Every state transition is one transaction so the database
// can never observe a booking whose seats and counter disagree.
type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, pnr, user_id, train_id, journey_date, coach_class, quota, booking_type,
	from_station_id, to_station_id, passenger_count, fare_amount, status,
	waitlist_tag, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.PNR,
		&b.UserID,
		&b.TrainID,
		&b.JourneyDate,
		&b.Class,
		&b.Quota,
		&b.BookingType,
		&b.FromStationID,
		&b.ToStationID,
		&b.PassengerCount,
		&b.FareAmount,
		&b.Status,
		&b.WaitlistTag,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// CreateWithSeats inserts a pending_payment booking together with its
// assigned passenger seats and decrements the inventory counter, all in
// one transaction. A unique violation on a seat identity or a counter
// shortfall surfaces as ConcurrentModification: the in-memory view was
// stale.
func (r *BookingRepository) CreateWithSeats(ctx context.Context, b *models.Booking, passengers []models.PassengerSeat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertBooking(ctx, tx, b); err != nil {
		return err
	}

	for i := range passengers {
		passengers[i].BookingID = b.ID
		if err := insertPassenger(ctx, tx, b, &passengers[i]); err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrConcurrentModification
			}
			return err
		}
	}

	if err := decrementInventory(ctx, tx, b, len(passengers)); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateWaitlisted inserts a waitlisted booking, its unassigned
// passenger rows and the persistent mirror of its queue entry.
func (r *BookingRepository) CreateWaitlisted(ctx context.Context, b *models.Booking, passengers []models.PassengerSeat, entry *models.WaitlistEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertBooking(ctx, tx, b); err != nil {
		return err
	}

	for i := range passengers {
		passengers[i].BookingID = b.ID
		if err := insertPassenger(ctx, tx, b, &passengers[i]); err != nil {
			return err
		}
	}

	entry.BookingID = b.ID
	query := `
		INSERT INTO waitlist_entries (booking_id, train_id, journey_date, coach_class, quota, seq, passengers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		b.ID, b.TrainID, b.JourneyDate, b.Class, b.Quota, entry.Seq, entry.Passengers,
	).Scan(&entry.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConcurrentModification
		}
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	b := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := scanBooking(r.db.QueryRowContext(ctx, query, id), b)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return b, err
}

func (r *BookingRepository) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	b := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE pnr = $1`

	err := scanBooking(r.db.QueryRowContext(ctx, query, pnr), b)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return b, err
}

// GetPassengers returns the passenger rows of a booking in request order.
func (r *BookingRepository) GetPassengers(ctx context.Context, bookingID int64) ([]models.PassengerSeat, error) {
	var passengers []models.PassengerSeat
	query := `
		SELECT id, booking_id, position, name, berth_preference, coach_label, seat_number, berth_type
		FROM passenger_seats
		WHERE booking_id = $1
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PassengerSeat
		err := rows.Scan(
			&p.ID,
			&p.BookingID,
			&p.Position,
			&p.Name,
			&p.Preference,
			&p.CoachLabel,
			&p.SeatNumber,
			&p.Berth,
		)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}

	return passengers, rows.Err()
}

// RecordPaymentSuccess inserts the success payment record and confirms
// the booking. The partial unique index on payments makes the insert
// the idempotency gate: a concurrent duplicate callback loses the race
// and gets DuplicatePayment.
func (r *BookingRepository) RecordPaymentSuccess(ctx context.Context, bookingID int64, orderID string, amount float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO payments (booking_id, order_id, status, amount)
		VALUES ($1, $2, 'success', $3)`

	if _, err := tx.ExecContext(ctx, query, bookingID, orderID, amount); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrDuplicatePayment
		}
		return err
	}

	update := `
		UPDATE bookings SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending_payment'`

	res, err := tx.ExecContext(ctx, update, bookingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrInvalidState
	}

	return tx.Commit()
}

// GetSuccessfulPayment returns the success record of a booking, nil if
// none exists.
func (r *BookingRepository) GetSuccessfulPayment(ctx context.Context, bookingID int64) (*models.PaymentRecord, error) {
	p := &models.PaymentRecord{}
	query := `
		SELECT id, booking_id, order_id, status, amount, created_at
		FROM payments
		WHERE booking_id = $1 AND status = 'success'`

	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&p.ID,
		&p.BookingID,
		&p.OrderID,
		&p.Status,
		&p.Amount,
		&p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return p, err
}

// CancelWithRelease cancels a seat-holding booking: marks it cancelled,
// clears its seat identities so the labels become reusable, returns the
// seats to the inventory counter, and records a failed payment row when
// the cancellation came from a terminal payment failure.
//
// The update only matches the caller's allowed source statuses, so a
// failure callback or expiry sweep that lost a race to a success
// callback affects zero rows and gets InvalidState instead of
// cancelling a paid booking.
func (r *BookingRepository) CancelWithRelease(ctx context.Context, b *models.Booking, failedOrderID string, allowed []models.BookingStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}

	update := `
		UPDATE bookings SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`

	res, err := tx.ExecContext(ctx, update, b.ID, pq.Array(statuses))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrInvalidState
	}

	clear := `
		UPDATE passenger_seats
		SET coach_label = NULL, seat_number = NULL, berth_type = NULL
		WHERE booking_id = $1`

	if _, err := tx.ExecContext(ctx, clear, b.ID); err != nil {
		return err
	}

	release := `
		UPDATE inventory
		SET available_seats = available_seats + $1
		WHERE train_id = $2 AND journey_date = $3 AND coach_class = $4 AND quota = $5
		  AND available_seats + $1 <= total_seats`

	res, err = tx.ExecContext(ctx, release, b.PassengerCount, b.TrainID, b.JourneyDate, b.Class, b.Quota)
	if err != nil {
		return err
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrConcurrentModification
	}

	if failedOrderID != "" {
		payment := `
			INSERT INTO payments (booking_id, order_id, status, amount)
			VALUES ($1, $2, 'failed', $3)`
		if _, err := tx.ExecContext(ctx, payment, b.ID, failedOrderID, b.FareAmount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CancelWaitlisted cancels a queued booking and deletes its persisted
// queue entry.
func (r *BookingRepository) CancelWaitlisted(ctx context.Context, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `
		UPDATE bookings SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'waitlisted'`

	res, err := tx.ExecContext(ctx, update, bookingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE booking_id = $1`, bookingID); err != nil {
		return err
	}

	return tx.Commit()
}

// Promote confirms a waitlisted booking with its freshly assigned
// seats: sets the seat identities on the passenger rows, removes the
// queue entry and decrements the counter, all in one transaction.
func (r *BookingRepository) Promote(ctx context.Context, b *models.Booking, assignments []models.SeatAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `
		UPDATE bookings SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status = 'waitlisted'`

	res, err := tx.ExecContext(ctx, update, b.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrInvalidState
	}

	seatQuery := `
		UPDATE passenger_seats
		SET coach_label = $1, seat_number = $2, berth_type = $3
		WHERE booking_id = $4 AND position = $5`

	for i, a := range assignments {
		_, err := tx.ExecContext(ctx, seatQuery, a.CoachLabel, a.SeatNumber, a.Berth, b.ID, i+1)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrConcurrentModification
			}
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE booking_id = $1`, b.ID); err != nil {
		return err
	}

	if err := decrementInventory(ctx, tx, b, len(assignments)); err != nil {
		return err
	}

	return tx.Commit()
}

// GetExpiredPending returns pending_payment bookings created before the
// cutoff, oldest first.
func (r *BookingRepository) GetExpiredPending(ctx context.Context, before time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending_payment' AND created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// ActiveSeatLabels returns the seat labels currently held by active
// bookings of a key, used to rebuild the free pool on registry fill.
func (r *BookingRepository) ActiveSeatLabels(ctx context.Context, key models.InventoryKey) ([]string, error) {
	var labels []string
	query := `
		SELECT ps.coach_label || '-' || ps.seat_number
		FROM passenger_seats ps
		JOIN bookings b ON b.id = ps.booking_id
		WHERE b.train_id = $1 AND b.journey_date = $2 AND b.coach_class = $3 AND b.quota = $4
		  AND b.status IN ('pending_payment', 'confirmed')
		  AND ps.coach_label IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, key.TrainID, key.JourneyDate, key.Class, key.Quota)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}

// DeleteAll wipes all booking state and restores inventory counters.
// Test support only.
func (r *BookingRepository) DeleteAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM payments`,
		`DELETE FROM waitlist_entries`,
		`DELETE FROM passenger_seats`,
		`DELETE FROM bookings`,
		`UPDATE inventory SET available_seats = total_seats`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset statement failed: %w", err)
		}
	}

	return tx.Commit()
}

// insertBooking maps a PNR unique violation to ConcurrentModification;
// the create loop in the service retries with a fresh PNR.
func insertBooking(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	query := `
		INSERT INTO bookings (pnr, user_id, train_id, journey_date, coach_class, quota, booking_type,
		                      from_station_id, to_station_id, passenger_count, fare_amount, status, waitlist_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRowContext(ctx, query,
		b.PNR,
		b.UserID,
		b.TrainID,
		b.JourneyDate,
		b.Class,
		b.Quota,
		b.BookingType,
		b.FromStationID,
		b.ToStationID,
		b.PassengerCount,
		b.FareAmount,
		b.Status,
		b.WaitlistTag,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.ErrConcurrentModification
	}
	return err
}

func insertPassenger(ctx context.Context, tx *sql.Tx, b *models.Booking, p *models.PassengerSeat) error {
	query := `
		INSERT INTO passenger_seats (booking_id, position, name, berth_preference,
		                             train_id, journey_date, coach_class,
		                             coach_label, seat_number, berth_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	return tx.QueryRowContext(ctx, query,
		p.BookingID,
		p.Position,
		p.Name,
		p.Preference,
		b.TrainID,
		b.JourneyDate,
		b.Class,
		p.CoachLabel,
		p.SeatNumber,
		p.Berth,
	).Scan(&p.ID)
}

func decrementInventory(ctx context.Context, tx *sql.Tx, b *models.Booking, count int) error {
	query := `
		UPDATE inventory
		SET available_seats = available_seats - $1
		WHERE train_id = $2 AND journey_date = $3 AND coach_class = $4 AND quota = $5
		  AND available_seats >= $1`

	res, err := tx.ExecContext(ctx, query, count, b.TrainID, b.JourneyDate, b.Class, b.Quota)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrConcurrentModification
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
