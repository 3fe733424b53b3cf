package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"railbook/internal/apperr"
	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/models"
	"railbook/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario tests drive the full pipeline against a mocked database.
// The registry fill sequence inside Acquire is deterministic (stops,
// rule, inventory, held labels, waitlist), so ordered expectations
// describe each flow exactly.

func newTestService(t *testing.T, clock time.Time) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		TatkalOpenAC:    "10:00",
		TatkalOpenNonAC: "11:00",
		PaymentTimeout:  15 * time.Minute,
	}
	repos := repository.NewRepositories(&database.DB{DB: db})
	svc := New(cfg, repos, nil, nil, nil, nil).WithClock(func() time.Time { return clock })
	return svc, mock
}

func bookingRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		TrainID:       7,
		FromStationID: 10,
		ToStationID:   40,
		JourneyDate:   "2026-09-01",
		Class:         models.ClassSL,
		Passengers:    []models.PassengerRequest{{Name: "Asha"}},
	}
}

func expectStops(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT ts.train_id").WillReturnRows(
		sqlmock.NewRows([]string{"train_id", "station_id", "name", "seq", "distance_km"}).
			AddRow(7, 10, "Mumbai CSMT", 1, 0.0).
			AddRow(7, 40, "Pune Jn", 2, 400.0))
}

func expectPricingRule(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT train_id, coach_class").WillReturnRows(
		sqlmock.NewRows([]string{"train_id", "coach_class", "base_rate_per_km", "tatkal_multiplier",
			"medium_threshold", "medium_multiplier", "high_threshold", "high_multiplier"}).
			AddRow(7, "SL", 0.5, 1.3, 0.5, 1.1, 0.8, 1.25))
}

// expectFill mocks the registry fill for one key: inventory row, held
// seat labels, persisted waitlist.
func expectFill(mock sqlmock.Sqlmock, quota models.Quota, total int, sold []string, waitlist *sqlmock.Rows) {
	mock.ExpectQuery("SELECT train_id, journey_date").WillReturnRows(
		sqlmock.NewRows([]string{"train_id", "journey_date", "coach_class", "quota", "total_seats", "available_seats"}).
			AddRow(7, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "SL", string(quota), total, total-len(sold)))

	labels := sqlmock.NewRows([]string{"label"})
	for _, l := range sold {
		labels.AddRow(l)
	}
	mock.ExpectQuery("SELECT ps.coach_label").WillReturnRows(labels)

	if waitlist == nil {
		waitlist = waitlistRows()
	}
	mock.ExpectQuery("SELECT id, booking_id, train_id").WillReturnRows(waitlist)
}

func waitlistRows(entries ...models.WaitlistEntry) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "booking_id", "train_id", "journey_date", "coach_class", "quota", "seq", "passengers"})
	for _, e := range entries {
		rows.AddRow(e.ID, e.BookingID, 7, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "SL", "general", e.Seq, e.Passengers)
	}
	return rows
}

func bookingRows(id int64, status models.BookingStatus, passengers int, fare float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "pnr", "user_id", "train_id", "journey_date", "coach_class", "quota",
		"booking_type", "from_station_id", "to_station_id", "passenger_count", "fare_amount", "status",
		"waitlist_tag", "created_at", "updated_at"}).
		AddRow(id, "1234567890", nil, 7, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "SL", "general",
			"general", 10, 40, passengers, fare, string(status), nil, now, now)
}

func TestCreateBookingAllocatesSeats(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	expectStops(mock)
	expectPricingRule(mock)
	expectFill(mock, models.QuotaGeneral, 10, nil, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(91, now, now))
	mock.ExpectQuery("INSERT INTO passenger_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("UPDATE inventory").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.CreateBooking(context.Background(), bookingRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(91), resp.BookingID)
	assert.Equal(t, models.StatusPendingPayment, resp.Status)
	assert.Len(t, resp.PNR, 10)
	// 400 km * 0.5/km * 1 passenger, empty pool so no surge.
	assert.Equal(t, 200.0, resp.FareAmount)
	require.Len(t, resp.Seats, 1)
	assert.Equal(t, "S1", resp.Seats[0].Coach)
	assert.Equal(t, 1, resp.Seats[0].Seat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingWaitlistsWhenFull(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	expectStops(mock)
	expectPricingRule(mock)
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1", "S1-2"}, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(92, now, now))
	mock.ExpectQuery("INSERT INTO passenger_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO waitlist_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	resp, err := svc.CreateBooking(context.Background(), bookingRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaitlisted, resp.Status)
	assert.Equal(t, 1, resp.WaitlistPosition)
	assert.Empty(t, resp.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingConcurrentLastSeat(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))
	mock.MatchExpectationsInOrder(false)

	// Two requests race for a single remaining seat. The entry lock
	// serializes them: whichever enters the critical section first gets
	// the seat, the other joins the waitlist.
	expectStops(mock)
	expectStops(mock)
	expectPricingRule(mock)
	expectPricingRule(mock)
	expectFill(mock, models.QuotaGeneral, 1, nil, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(91, now, now))
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(92, now, now))
	mock.ExpectQuery("INSERT INTO passenger_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO passenger_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("UPDATE inventory").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO waitlist_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()
	mock.ExpectCommit()

	type outcome struct {
		resp *models.CreateBookingResponse
		err  error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			resp, err := svc.CreateBooking(context.Background(), bookingRequest())
			results <- outcome{resp, err}
		}()
	}

	var seated, waitlisted int
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		switch r.resp.Status {
		case models.StatusPendingPayment:
			seated++
			assert.Len(t, r.resp.Seats, 1)
		case models.StatusWaitlisted:
			waitlisted++
			assert.Equal(t, 1, r.resp.WaitlistPosition)
		default:
			t.Fatalf("Unexpected booking status %s", r.resp.Status)
		}
	}

	assert.Equal(t, 1, seated)
	assert.Equal(t, 1, waitlisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingNeverSkipsWaitlist(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	expectStops(mock)
	expectPricingRule(mock)
	// Nine seats technically free, but a four-passenger group is already
	// queued: the newcomer must line up behind it.
	expectFill(mock, models.QuotaGeneral, 10, []string{"S1-1"},
		waitlistRows(models.WaitlistEntry{ID: 3, BookingID: 60, Seq: 1, Passengers: 4}))

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(93, now, now))
	mock.ExpectQuery("INSERT INTO passenger_seats").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO waitlist_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
	mock.ExpectCommit()

	resp, err := svc.CreateBooking(context.Background(), bookingRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaitlisted, resp.Status)
	assert.Equal(t, 2, resp.WaitlistPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingTatkalWindowClosed(t *testing.T) {
	// Non-AC tatkal opens 11:00 on 2026-08-31 for a 2026-09-01 journey.
	svc, mock := newTestService(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))

	req := bookingRequest()
	req.BookingType = models.BookingTatkal

	_, err := svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTatkalWindowClosed, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingTatkalNeverWaitlists(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))

	expectStops(mock)
	expectPricingRule(mock)
	expectFill(mock, models.QuotaTatkal, 2, []string{"S1-1", "S1-2"}, nil)

	req := bookingRequest()
	req.BookingType = models.BookingTatkal

	_, err := svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeQuotaFull, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnknownTrain(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT ts.train_id").WillReturnRows(
		sqlmock.NewRows([]string{"train_id", "station_id", "name", "seq", "distance_km"}))

	_, err := svc.CreateBooking(context.Background(), bookingRequest())
	assert.ErrorIs(t, err, apperr.ErrTrainNotFound)
}

func TestCreateBookingReversedRoute(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	expectStops(mock)

	req := bookingRequest()
	req.FromStationID, req.ToStationID = req.ToStationID, req.FromStationID

	_, err := svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeRouteNotFound, apperr.CodeOf(err))
}

func TestPaymentSucceededConfirms(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusPendingPayment, 1, 200.0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(int64(91), "RB-91", 200.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.PaymentSucceeded(context.Background(), 91, "RB-91")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSucceededDuplicateCallback(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	// Already confirmed: absorbed without touching payments again.
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusConfirmed, 1, 200.0))

	err := svc.PaymentSucceeded(context.Background(), 91, "RB-91")
	assert.ErrorIs(t, err, apperr.ErrDuplicatePayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSucceededUnknownBooking(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.PaymentSucceeded(context.Background(), 999, "RB-999")
	assert.ErrorIs(t, err, apperr.ErrBookingNotFound)
}

func TestPaymentFailedOnCancelledIsNoop(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusCancelled, 1, 200.0))

	err := svc.PaymentFailed(context.Background(), 91, "RB-91", "EXPIRED")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentFailedOnConfirmedRejected(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusConfirmed, 1, 200.0))

	err := svc.PaymentFailed(context.Background(), 91, "RB-91", "REJECTED")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestPaymentFailedLosesRaceToSuccess(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	// The failure callback reads the booking while it is still pending,
	// but a success callback confirms it before the cancellation runs.
	// The cancellation only matches pending_payment, so it affects zero
	// rows and the paid booking keeps its seat.
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusPendingPayment, 1, 200.0))
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1"}, nil)

	mock.ExpectQuery("SELECT id, booking_id, position").WillReturnRows(
		sqlmock.NewRows([]string{"id", "booking_id", "position", "name", "berth_preference", "coach_label", "seat_number", "berth_type"}).
			AddRow(1, 91, 1, "Asha", nil, "S1", 1, "LOWER"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(int64(91), pq.Array([]string{"pending_payment"})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.PaymentFailed(context.Background(), 91, "RB-91", "EXPIRED")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSucceededConcurrentCallbacks(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))
	mock.MatchExpectationsInOrder(false)

	// Both callbacks observe the booking while it is still pending; the
	// partial unique index on payments lets exactly one success row in.
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusPendingPayment, 1, 200.0))
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusPendingPayment, 1, 200.0))
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- svc.PaymentSucceeded(context.Background(), 91, "RB-91")
		}()
	}

	var confirmed, duplicates int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			confirmed++
		case errors.Is(err, apperr.ErrDuplicatePayment):
			duplicates++
		default:
			t.Fatalf("Unexpected callback error: %v", err)
		}
	}

	assert.Equal(t, 1, confirmed)
	assert.Equal(t, 1, duplicates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingPromotesWaitlist(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	// Confirmed booking 91 holds S1-1; booking 60 waits with one
	// passenger.
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusConfirmed, 1, 200.0))
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1"},
		waitlistRows(models.WaitlistEntry{ID: 3, BookingID: 60, Seq: 1, Passengers: 1}))

	// Seats of the cancelled booking.
	mock.ExpectQuery("SELECT id, booking_id, position").WillReturnRows(
		sqlmock.NewRows([]string{"id", "booking_id", "position", "name", "berth_preference", "coach_label", "seat_number", "berth_type"}).
			AddRow(1, 91, 1, "Asha", nil, "S1", 1, "LOWER"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE passenger_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE inventory").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Promotion of the queue head.
	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(60, models.StatusWaitlisted, 1, 150.0))
	mock.ExpectQuery("SELECT id, booking_id, position").WillReturnRows(
		sqlmock.NewRows([]string{"id", "booking_id", "position", "name", "berth_preference", "coach_label", "seat_number", "berth_type"}).
			AddRow(2, 60, 1, "Ravi", nil, nil, nil, nil))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE passenger_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM waitlist_entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE inventory").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.CancelBooking(context.Background(), 91)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusCancelled, 1, 200.0))

	_, err := svc.CancelBooking(context.Background(), 91)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCancelWaitlistedLeavesQueue(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(60, models.StatusWaitlisted, 1, 150.0))
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1", "S1-2"},
		waitlistRows(models.WaitlistEntry{ID: 3, BookingID: 60, Seq: 1, Passengers: 1}))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM waitlist_entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.CancelBooking(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistPositionReportsQueueOrder(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(61, models.StatusWaitlisted, 1, 150.0))
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1", "S1-2"},
		waitlistRows(
			models.WaitlistEntry{ID: 3, BookingID: 60, Seq: 1, Passengers: 1},
			models.WaitlistEntry{ID: 4, BookingID: 61, Seq: 2, Passengers: 1}))

	resp, err := svc.WaitlistPosition(context.Background(), 61)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Position)
}

func TestWaitlistPositionRequiresWaitlistedStatus(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusConfirmed, 1, 200.0))

	_, err := svc.WaitlistPosition(context.Background(), 91)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestExpirePendingPayments(t *testing.T) {
	svc, mock := newTestService(t, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT").WillReturnRows(bookingRows(91, models.StatusPendingPayment, 1, 200.0))
	expectFill(mock, models.QuotaGeneral, 2, []string{"S1-1"}, nil)

	mock.ExpectQuery("SELECT id, booking_id, position").WillReturnRows(
		sqlmock.NewRows([]string{"id", "booking_id", "position", "name", "berth_preference", "coach_label", "seat_number", "berth_type"}).
			AddRow(1, 91, 1, "Asha", nil, "S1", 1, "LOWER"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE passenger_seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE inventory").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := svc.ExpirePendingPayments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseOrderID(t *testing.T) {
	id, ok := ParseOrderID("RB-42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = ParseOrderID("XX-42")
	assert.False(t, ok)
	_, ok = ParseOrderID("RB-")
	assert.False(t, ok)
	_, ok = ParseOrderID("RB--5")
	assert.False(t, ok)
}
