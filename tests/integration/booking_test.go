package integration

import (
	"fmt"
	"testing"

	"railbook/internal/models"
)

func TestBookingLifecycle(t *testing.T) {
	client := newClientOrSkip(t)
	client.HealthCheck(t)

	trainID := client.CreateTrain(t, makeTrainRequest(10, 2))
	date := journeyDate()

	LogTestStep(t, "Booking 2 seats on train %d", trainID)
	booking := client.CreateBooking(t, makeBookingRequest(trainID, 2))

	if booking.Status != models.StatusPendingPayment {
		t.Fatalf("Expected pending_payment, got %s", booking.Status)
	}
	if len(booking.PNR) != 10 {
		t.Fatalf("Expected 10-digit PNR, got %q", booking.PNR)
	}
	if len(booking.Seats) != 2 {
		t.Fatalf("Expected 2 assigned seats, got %d", len(booking.Seats))
	}
	// 400 km * 0.5/km * 2 passengers on an empty train.
	if booking.FareAmount != 400.0 {
		t.Fatalf("Expected fare 400.00, got %.2f", booking.FareAmount)
	}

	availability := client.GetAvailability(t, trainID, date, models.ClassSL, models.QuotaGeneral)
	if availability.AvailableSeats != 8 {
		t.Fatalf("Expected 8 seats after booking, got %d", availability.AvailableSeats)
	}

	LogTestStep(t, "Confirming payment for booking %d", booking.BookingID)
	client.NotifyPaymentSuccess(t, booking.BookingID)

	confirmed := client.GetBooking(t, fmt.Sprintf("%d", booking.BookingID))
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("Expected confirmed, got %s", confirmed.Status)
	}

	byPNR := client.GetBooking(t, booking.PNR)
	if byPNR.ID != booking.BookingID {
		t.Fatalf("PNR lookup returned booking %d, expected %d", byPNR.ID, booking.BookingID)
	}

	LogTestStep(t, "Cancelling booking %d", booking.BookingID)
	client.CancelBooking(t, booking.BookingID)

	availability = client.GetAvailability(t, trainID, date, models.ClassSL, models.QuotaGeneral)
	if availability.AvailableSeats != 10 {
		t.Fatalf("Expected seats back after cancel, got %d", availability.AvailableSeats)
	}
	LogTestResult(t, "Booking lifecycle completed")
}

func TestWaitlistPromotionOnCancel(t *testing.T) {
	client := newClientOrSkip(t)

	// One general seat only: the second booking must queue.
	trainID := client.CreateTrain(t, makeTrainRequest(1, 1))

	first := client.CreateBooking(t, makeBookingRequest(trainID, 1))
	if first.Status != models.StatusPendingPayment {
		t.Fatalf("Expected pending_payment, got %s", first.Status)
	}

	second := client.CreateBooking(t, makeBookingRequest(trainID, 1))
	if second.Status != models.StatusWaitlisted {
		t.Fatalf("Expected waitlisted, got %s", second.Status)
	}
	if second.WaitlistPosition != 1 {
		t.Fatalf("Expected waitlist position 1, got %d", second.WaitlistPosition)
	}

	pos := client.GetWaitlistPosition(t, second.BookingID)
	if pos.Position != 1 {
		t.Fatalf("Expected position 1, got %d", pos.Position)
	}

	LogTestStep(t, "Cancelling seat holder %d", first.BookingID)
	client.CancelBooking(t, first.BookingID)

	promoted := client.GetBooking(t, fmt.Sprintf("%d", second.BookingID))
	if promoted.Status != models.StatusConfirmed {
		t.Fatalf("Expected promoted booking to be confirmed, got %s", promoted.Status)
	}
	if len(promoted.Passengers) != 1 || promoted.Passengers[0].CoachLabel == nil {
		t.Fatal("Expected promoted booking to hold an assigned seat")
	}
	LogTestResult(t, "Waitlisted booking %d promoted", second.BookingID)
}

func TestWaitlistIsFIFO(t *testing.T) {
	client := newClientOrSkip(t)

	trainID := client.CreateTrain(t, makeTrainRequest(1, 1))

	client.CreateBooking(t, makeBookingRequest(trainID, 1))
	waiting1 := client.CreateBooking(t, makeBookingRequest(trainID, 1))
	waiting2 := client.CreateBooking(t, makeBookingRequest(trainID, 1))

	if waiting1.WaitlistPosition != 1 || waiting2.WaitlistPosition != 2 {
		t.Fatalf("Expected positions 1 and 2, got %d and %d",
			waiting1.WaitlistPosition, waiting2.WaitlistPosition)
	}

	// The middle entry leaves; the one behind moves up.
	client.CancelBooking(t, waiting1.BookingID)

	pos := client.GetWaitlistPosition(t, waiting2.BookingID)
	if pos.Position != 1 {
		t.Fatalf("Expected position 1 after cancellation ahead, got %d", pos.Position)
	}
}

func TestTatkalQuotaNeverWaitlists(t *testing.T) {
	client := newClientOrSkip(t)

	trainID := client.CreateTrain(t, makeTrainRequest(5, 1))

	tatkalReq := makeBookingRequest(trainID, 1)
	tatkalReq.BookingType = models.BookingTatkal

	// Whether the first booking succeeds depends on the tatkal window
	// being open right now; either outcome is acceptable. The invariant
	// under test: tatkal is never waitlisted.
	status, booking := client.TryCreateBooking(t, tatkalReq)
	switch status {
	case 201:
		if booking.Status == models.StatusWaitlisted {
			t.Fatal("Tatkal booking must never be waitlisted")
		}
		// Quota of one is now exhausted: the next attempt must conflict.
		status, booking = client.TryCreateBooking(t, tatkalReq)
		if status == 201 && booking.Status == models.StatusWaitlisted {
			t.Fatal("Tatkal booking must never be waitlisted")
		}
		if status != 409 {
			t.Fatalf("Expected 409 for exhausted tatkal quota, got %d", status)
		}
	case 409:
		LogTestStep(t, "Tatkal window closed, conflict as expected")
	default:
		t.Fatalf("Expected 201 or 409 for tatkal booking, got %d", status)
	}
}

func TestCancelCancelledBookingFails(t *testing.T) {
	client := newClientOrSkip(t)

	trainID := client.CreateTrain(t, makeTrainRequest(5, 1))
	booking := client.CreateBooking(t, makeBookingRequest(trainID, 1))

	client.CancelBooking(t, booking.BookingID)

	resp := client.makeRequest(t, "PATCH", "/api/bookings/cancel",
		models.CancelBookingRequest{BookingID: booking.BookingID})
	defer resp.Body.Close()

	if resp.StatusCode != 422 {
		t.Fatalf("Expected 422 for double cancel, got %d", resp.StatusCode)
	}
}
