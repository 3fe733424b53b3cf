package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"railbook/internal/apperr"
	"railbook/internal/fare"
	"railbook/internal/inventory"
	"railbook/internal/metrics"
	"railbook/internal/models"
	"railbook/internal/waitlist"
)

// CreateBooking runs the full booking pipeline: route validation,
// tatkal window check, fare computation, then allocate-or-waitlist
// inside the inventory entry's critical section.
func (s *Service) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	journeyDate, err := time.Parse("2006-01-02", req.JourneyDate)
	if err != nil {
		return nil, fmt.Errorf("invalid journey date %q: %w", req.JourneyDate, err)
	}

	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = models.BookingGeneral
	}
	quota := req.Quota
	if quota == "" {
		quota = models.QuotaGeneral
	}
	// Tatkal bookings always draw from the tatkal quota regardless of
	// what the request says.
	if bookingType == models.BookingTatkal {
		quota = models.QuotaTatkal
		if err := s.checkTatkalWindow(req.Class, journeyDate); err != nil {
			metrics.BookingsCreated.WithLabelValues(apperr.CodeTatkalWindowClosed).Inc()
			return nil, err
		}
	}

	line, err := s.routes.Line(ctx, req.TrainID)
	if err != nil {
		return nil, err
	}
	distance, err := line.Distance(req.FromStationID, req.ToStationID)
	if err != nil {
		metrics.BookingsCreated.WithLabelValues(apperr.CodeRouteNotFound).Inc()
		return nil, err
	}

	rule, err := s.repos.Catalog.GetPricingRule(ctx, req.TrainID, req.Class)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing rule: %w", err)
	}
	if rule == nil {
		return nil, apperr.ErrTrainNotFound
	}

	key := models.InventoryKey{
		TrainID:     req.TrainID,
		JourneyDate: req.JourneyDate,
		Class:       req.Class,
		Quota:       quota,
	}

	entry, ok, err := s.registry.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BookingsCreated.WithLabelValues(apperr.CodeQuotaFull).Inc()
		return nil, apperr.QuotaFull(string(quota))
	}
	defer entry.Release()

	// Fare is priced off utilization at decision time, before this
	// request's own seats are taken.
	fareAmount := fare.Compute(distance, len(req.Passengers), *rule, bookingType, entry.Pool.Utilization())

	b := &models.Booking{
		TrainID:        req.TrainID,
		JourneyDate:    journeyDate,
		Class:          req.Class,
		Quota:          quota,
		BookingType:    bookingType,
		FromStationID:  req.FromStationID,
		ToStationID:    req.ToStationID,
		PassengerCount: len(req.Passengers),
		FareAmount:     fareAmount,
	}

	prefs := make([]*models.BerthType, len(req.Passengers))
	for i := range req.Passengers {
		prefs[i] = req.Passengers[i].Preference
	}

	// A non-empty queue means earlier requests are still waiting. New
	// requests never skip ahead of them, even when head-of-line blocking
	// leaves some capacity technically free.
	if entry.Queue.Len() > 0 {
		if bookingType == models.BookingTatkal {
			metrics.BookingsCreated.WithLabelValues(apperr.CodeQuotaFull).Inc()
			return nil, apperr.QuotaFull(string(quota))
		}
		return s.enqueueWaitlisted(ctx, entry, b, req.Passengers)
	}

	// Allocation and persistence run under the entry lock. A persist
	// conflict means the in-memory view was stale (another process or a
	// manual intervention touched the counter): refill once and retry.
	for attempt := 0; attempt < 2; attempt++ {
		assignments, aerr := entry.Pool.Allocate(prefs)
		if aerr != nil {
			var ce *apperr.CapacityExceededError
			if errors.As(aerr, &ce) {
				break
			}
			return nil, aerr
		}

		b.ID = 0
		b.PNR = generatePNR()
		b.Status = models.StatusPendingPayment
		passengers := passengerRows(req.Passengers, assignments)

		perr := s.repos.Bookings.CreateWithSeats(ctx, b, passengers)
		if perr == nil {
			return s.finishSeated(ctx, b, req.Passengers, assignments), nil
		}

		entry.Pool.Release(assignments)
		if errors.Is(perr, apperr.ErrConcurrentModification) && attempt == 0 {
			if rerr := entry.Refill(ctx, s.registry); rerr != nil {
				return nil, rerr
			}
			continue
		}
		return nil, perr
	}

	// Not enough seats. Tatkal never waitlists: the quota is simply
	// full and the caller may fall back to a general booking.
	if bookingType == models.BookingTatkal {
		metrics.BookingsCreated.WithLabelValues(apperr.CodeQuotaFull).Inc()
		return nil, apperr.QuotaFull(string(quota))
	}

	return s.enqueueWaitlisted(ctx, entry, b, req.Passengers)
}

// enqueueWaitlisted persists a waitlisted booking with the next queue
// sequence number and mirrors it into the in-memory queue on commit.
func (s *Service) enqueueWaitlisted(ctx context.Context, entry *inventory.Entry, b *models.Booking, reqPassengers []models.PassengerRequest) (*models.CreateBookingResponse, error) {
	for attempt := 0; attempt < 2; attempt++ {
		seq := entry.Queue.NextSeq()

		b.ID = 0
		b.PNR = generatePNR()
		b.Status = models.StatusWaitlisted
		wl := &models.WaitlistEntry{
			TrainID:     b.TrainID,
			JourneyDate: b.JourneyDate,
			Class:       b.Class,
			Quota:       b.Quota,
			Seq:         seq,
			Passengers:  b.PassengerCount,
		}

		err := s.repos.Bookings.CreateWaitlisted(ctx, b, passengerRows(reqPassengers, nil), wl)
		if err == nil {
			entry.Queue.Restore(waitlist.Entry{BookingID: b.ID, Passengers: b.PassengerCount, Seq: seq})
			pos, _ := entry.Queue.Position(b.ID)

			metrics.BookingsCreated.WithLabelValues(string(models.StatusWaitlisted)).Inc()
			metrics.WaitlistDepth.WithLabelValues(string(b.Class), string(b.Quota)).Set(float64(entry.Queue.Len()))
			s.cachePNR(ctx, b)
			now := s.now()
			s.publish(models.EventBookingCreated, models.BookingCreatedEvent{
				BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Status: b.Status, UserID: b.UserID, Timestamp: now,
			})
			s.publish(models.EventBookingWaitlisted, models.BookingWaitlistedEvent{
				BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Position: pos, Seq: seq, Timestamp: now,
			})

			return &models.CreateBookingResponse{
				BookingID:        b.ID,
				PNR:              b.PNR,
				Status:           b.Status,
				FareAmount:       b.FareAmount,
				WaitlistPosition: pos,
			}, nil
		}

		if errors.Is(err, apperr.ErrConcurrentModification) && attempt == 0 {
			if rerr := entry.Refill(ctx, s.registry); rerr != nil {
				return nil, rerr
			}
			continue
		}
		return nil, err
	}
	return nil, apperr.ErrConcurrentModification
}

// finishSeated emits the side effects of a successful seat allocation
// and builds the response. Best-effort pieces (events, cache, gateway
// order) never fail the booking.
func (s *Service) finishSeated(ctx context.Context, b *models.Booking, reqPassengers []models.PassengerRequest, assignments []models.SeatAssignment) *models.CreateBookingResponse {
	metrics.BookingsCreated.WithLabelValues(string(models.StatusPendingPayment)).Inc()
	s.cachePNR(ctx, b)
	s.publish(models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Status: b.Status, UserID: b.UserID, Timestamp: s.now(),
	})
	s.initPaymentOrder(b)

	seats := make([]models.BookedSeat, len(assignments))
	for i, a := range assignments {
		seats[i] = models.BookedSeat{
			Passenger: reqPassengers[i].Name,
			Coach:     a.CoachLabel,
			Seat:      a.SeatNumber,
			Berth:     a.Berth,
		}
	}

	return &models.CreateBookingResponse{
		BookingID:  b.ID,
		PNR:        b.PNR,
		Status:     b.Status,
		FareAmount: b.FareAmount,
		Seats:      seats,
	}
}

// initPaymentOrder opens a gateway order for a pending booking. Amount
// goes to the gateway in minor units.
func (s *Service) initPaymentOrder(b *models.Booking) {
	if s.payments == nil {
		return
	}
	amount := int64(b.FareAmount*100 + 0.5)
	desc := fmt.Sprintf("Booking %s, train %d, %s", b.PNR, b.TrainID, b.JourneyDate.Format("2006-01-02"))
	if _, err := s.payments.InitPayment(amount, orderIDFor(b.ID), "INR", desc); err != nil {
		slog.Warn("Failed to init payment order", "booking_id", b.ID, "error", err)
	}
}

func (s *Service) cachePNR(ctx context.Context, b *models.Booking) {
	if s.valkey == nil {
		return
	}
	if err := s.valkey.SetBookingPNR(ctx, b.PNR, b.ID); err != nil {
		slog.Warn("Failed to cache PNR", "pnr", b.PNR, "error", err)
	}
}

// checkTatkalWindow rejects tatkal bookings made before the class
// group's opening time on the day before the journey.
func (s *Service) checkTatkalWindow(class models.CoachClass, journeyDate time.Time) error {
	opens := s.cfg.TatkalOpenNonAC
	if class.IsAirConditioned() {
		opens = s.cfg.TatkalOpenAC
	}
	clock, err := time.Parse("15:04", opens)
	if err != nil {
		return fmt.Errorf("invalid tatkal window config %q: %w", opens, err)
	}

	now := s.now()
	dayBefore := journeyDate.AddDate(0, 0, -1)
	opensAt := time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(),
		clock.Hour(), clock.Minute(), 0, 0, now.Location())

	if now.Before(opensAt) {
		return apperr.TatkalWindowClosed(opensAt)
	}
	return nil
}

// passengerRows builds the persistence rows for a booking's passengers.
// assignments may be nil for a waitlisted booking.
func passengerRows(reqPassengers []models.PassengerRequest, assignments []models.SeatAssignment) []models.PassengerSeat {
	rows := make([]models.PassengerSeat, len(reqPassengers))
	for i, p := range reqPassengers {
		rows[i] = models.PassengerSeat{
			Position:   i + 1,
			Name:       p.Name,
			Preference: p.Preference,
		}
		if assignments != nil {
			a := assignments[i]
			coach, seat, berth := a.CoachLabel, a.SeatNumber, a.Berth
			rows[i].CoachLabel = &coach
			rows[i].SeatNumber = &seat
			rows[i].Berth = &berth
		}
	}
	return rows
}

// PaymentSucceeded confirms a pending booking on a gateway success
// callback. Duplicate callbacks are absorbed: the partial unique index
// on payments guarantees at most one success row per booking no matter
// how the callbacks race.
func (s *Service) PaymentSucceeded(ctx context.Context, bookingID int64, orderID string) error {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		metrics.PaymentCallbacks.WithLabelValues("unknown_booking").Inc()
		return apperr.ErrBookingNotFound
	}

	switch b.Status {
	case models.StatusConfirmed:
		metrics.PaymentCallbacks.WithLabelValues("duplicate").Inc()
		return apperr.ErrDuplicatePayment
	case models.StatusWaitlisted, models.StatusCancelled:
		metrics.PaymentCallbacks.WithLabelValues("invalid_state").Inc()
		return apperr.ErrInvalidState
	}

	if err := s.repos.Bookings.RecordPaymentSuccess(ctx, bookingID, orderID, b.FareAmount); err != nil {
		if errors.Is(err, apperr.ErrDuplicatePayment) {
			metrics.PaymentCallbacks.WithLabelValues("duplicate").Inc()
		}
		return err
	}

	metrics.PaymentCallbacks.WithLabelValues("success").Inc()
	now := s.now()
	s.publish(models.EventPaymentSucceeded, models.PaymentSucceededEvent{
		BookingID: bookingID, OrderID: orderID, Amount: b.FareAmount, Timestamp: now,
	})
	s.publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: bookingID, PNR: b.PNR, Key: b.Key(), Timestamp: now,
	})

	slog.Info("Booking confirmed", "booking_id", bookingID, "pnr", b.PNR, "order_id", orderID)
	return nil
}

// PaymentFailed cancels a pending booking on a terminal gateway
// failure, releasing its seats and promoting the waitlist in the same
// critical section. A failure callback for an already-cancelled booking
// is a no-op; one for a confirmed booking contradicts the recorded
// success and is rejected.
func (s *Service) PaymentFailed(ctx context.Context, bookingID int64, orderID, reason string) error {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		metrics.PaymentCallbacks.WithLabelValues("unknown_booking").Inc()
		return apperr.ErrBookingNotFound
	}

	switch b.Status {
	case models.StatusCancelled:
		metrics.PaymentCallbacks.WithLabelValues("duplicate").Inc()
		return nil
	case models.StatusConfirmed, models.StatusWaitlisted:
		metrics.PaymentCallbacks.WithLabelValues("invalid_state").Inc()
		return apperr.ErrInvalidState
	}

	// Only a still-pending booking may be cancelled by a failure
	// callback; a success callback landing between the status read above
	// and the critical section wins.
	if err := s.releaseAndPromote(ctx, b, orderID, reason, models.StatusPendingPayment); err != nil {
		return err
	}

	metrics.PaymentCallbacks.WithLabelValues("failed").Inc()
	s.publish(models.EventPaymentFailed, models.PaymentFailedEvent{
		BookingID: bookingID, OrderID: orderID, Reason: reason, Timestamp: s.now(),
	})
	return nil
}

// CancelBooking cancels a booking in any active state. Seat-holding
// bookings release their seats and trigger promotion; waitlisted ones
// just leave the queue.
func (s *Service) CancelBooking(ctx context.Context, bookingID int64) (*models.CancelBookingResponse, error) {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.ErrBookingNotFound
	}

	switch b.Status {
	case models.StatusCancelled:
		return nil, apperr.ErrInvalidState
	case models.StatusWaitlisted:
		if err := s.cancelWaitlisted(ctx, b); err != nil {
			return nil, err
		}
	default:
		if err := s.releaseAndPromote(ctx, b, "", "cancelled by user",
			models.StatusPendingPayment, models.StatusConfirmed); err != nil {
			return nil, err
		}
	}

	return &models.CancelBookingResponse{BookingID: b.ID, Status: models.StatusCancelled}, nil
}

func (s *Service) cancelWaitlisted(ctx context.Context, b *models.Booking) error {
	entry, ok, err := s.registry.Acquire(ctx, b.Key())
	if err != nil {
		return err
	}
	if !ok {
		// Inventory row gone from under an active booking; persist the
		// cancellation anyway.
		return s.repos.Bookings.CancelWaitlisted(ctx, b.ID)
	}
	defer entry.Release()

	if err := s.repos.Bookings.CancelWaitlisted(ctx, b.ID); err != nil {
		return err
	}
	entry.Queue.Remove(b.ID)
	metrics.WaitlistDepth.WithLabelValues(string(b.Class), string(b.Quota)).Set(float64(entry.Queue.Len()))

	s.publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Reason: "cancelled by user", Timestamp: s.now(),
	})
	return nil
}

// releaseAndPromote cancels a seat-holding booking and hands its seats
// to the waitlist before any new request can see them: cancellation,
// seat release and promotion share one critical section.
//
// allowed names the statuses the cancellation may transition from. The
// status read in the caller happens before this critical section, so
// the database update re-checks it: a failure callback that lost a race
// to a success callback must not cancel the now-confirmed booking.
func (s *Service) releaseAndPromote(ctx context.Context, b *models.Booking, failedOrderID, reason string, allowed ...models.BookingStatus) error {
	entry, ok, err := s.registry.Acquire(ctx, b.Key())
	if err != nil {
		return err
	}
	if !ok {
		return s.repos.Bookings.CancelWithRelease(ctx, b, failedOrderID, allowed)
	}
	defer entry.Release()

	passengers, err := s.repos.Bookings.GetPassengers(ctx, b.ID)
	if err != nil {
		return err
	}

	if err := s.repos.Bookings.CancelWithRelease(ctx, b, failedOrderID, allowed); err != nil {
		return err
	}

	var released []models.SeatAssignment
	for i := range passengers {
		if a, ok := passengers[i].Assignment(); ok {
			released = append(released, a)
		}
	}
	entry.Pool.Release(released)

	s.publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Reason: reason, Timestamp: s.now(),
	})

	s.promoteLocked(ctx, entry)
	return nil
}

// promoteLocked promotes waitlisted bookings while the head of the
// queue fits the freed capacity. Strict head-of-line blocking: a large
// head request blocks smaller ones behind it, preserving FIFO order.
// Caller holds the entry lock.
func (s *Service) promoteLocked(ctx context.Context, entry *inventory.Entry) {
	for {
		head, ok := entry.Queue.Head()
		if !ok {
			break
		}
		if head.Passengers > entry.Pool.Available() {
			break
		}

		b, err := s.repos.Bookings.GetByID(ctx, head.BookingID)
		if err != nil {
			slog.Error("Failed to load waitlisted booking for promotion", "booking_id", head.BookingID, "error", err)
			break
		}
		if b == nil || b.Status != models.StatusWaitlisted {
			// Persisted queue drifted (booking cancelled out of band);
			// drop the stale entry and keep going.
			entry.Queue.Pop()
			continue
		}

		passengers, err := s.repos.Bookings.GetPassengers(ctx, b.ID)
		if err != nil {
			slog.Error("Failed to load passengers for promotion", "booking_id", b.ID, "error", err)
			break
		}
		prefs := make([]*models.BerthType, len(passengers))
		for i := range passengers {
			prefs[i] = passengers[i].Preference
		}

		assignments, err := entry.Pool.Allocate(prefs)
		if err != nil {
			break
		}

		if err := s.repos.Bookings.Promote(ctx, b, assignments); err != nil {
			entry.Pool.Release(assignments)
			slog.Error("Failed to persist waitlist promotion", "booking_id", b.ID, "error", err)
			if rerr := entry.Refill(ctx, s.registry); rerr != nil {
				slog.Error("Failed to refill inventory entry", "error", rerr)
			}
			break
		}

		entry.Queue.Pop()
		metrics.WaitlistPromotions.Inc()
		metrics.WaitlistDepth.WithLabelValues(string(b.Class), string(b.Quota)).Set(float64(entry.Queue.Len()))

		now := s.now()
		s.publish(models.EventWaitlistPromoted, models.WaitlistPromotedEvent{
			BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Seq: head.Seq, Timestamp: now,
		})
		s.publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
			BookingID: b.ID, PNR: b.PNR, Key: b.Key(), Timestamp: now,
		})

		slog.Info("Waitlisted booking promoted", "booking_id", b.ID, "pnr", b.PNR, "seats", len(assignments))
	}
}

// GetBooking returns a booking with its passenger rows.
func (s *Service) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.ErrBookingNotFound
	}

	b.Passengers, err = s.repos.Bookings.GetPassengers(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookingByPNR resolves a PNR, consulting the cache before the
// database.
func (s *Service) GetBookingByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	if s.valkey != nil {
		if id, err := s.valkey.GetBookingIDByPNR(ctx, pnr); err == nil {
			return s.GetBooking(ctx, id)
		}
	}

	b, err := s.repos.Bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.ErrBookingNotFound
	}

	b.Passengers, err = s.repos.Bookings.GetPassengers(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.cachePNR(ctx, b)
	return b, nil
}

// WaitlistPosition reports the effective 1-based queue position of a
// waitlisted booking. Positions shrink as entries ahead leave the
// queue; they are never renumbered upward.
func (s *Service) WaitlistPosition(ctx context.Context, bookingID int64) (*models.WaitlistPositionResponse, error) {
	b, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.ErrBookingNotFound
	}
	if b.Status != models.StatusWaitlisted {
		return nil, apperr.ErrInvalidState
	}

	entry, ok, err := s.registry.Acquire(ctx, b.Key())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidState
	}
	defer entry.Release()

	pos, found := entry.Queue.Position(bookingID)
	if !found {
		return nil, apperr.ErrInvalidState
	}

	return &models.WaitlistPositionResponse{BookingID: bookingID, Position: pos}, nil
}

// ExpirePendingPayments cancels pending bookings whose payment window
// has lapsed, releasing their seats to the waitlist. Returns the number
// of bookings expired.
func (s *Service) ExpirePendingPayments(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.PaymentTimeout)
	expired, err := s.repos.Bookings.GetExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bookings: %w", err)
	}

	count := 0
	for i := range expired {
		b := &expired[i]
		err := s.releaseAndPromote(ctx, b, "", "payment window expired", models.StatusPendingPayment)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidState) {
				// Paid or cancelled between the query and the lock.
				continue
			}
			slog.Error("Failed to expire booking", "booking_id", b.ID, "error", err)
			continue
		}
		count++
	}

	if count > 0 {
		slog.Info("Expired pending bookings", "count", count)
	}
	return count, nil
}

// RunPaymentExpiry drives ExpirePendingPayments on a ticker until the
// context is cancelled.
func (s *Service) RunPaymentExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpirePendingPayments(ctx); err != nil {
				slog.Error("Payment expiry pass failed", "error", err)
			}
		}
	}
}
