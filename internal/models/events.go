package models

import "time"

// NATS Event Types
const (
	EventBookingCreated    = "booking.created"
	EventBookingWaitlisted = "booking.waitlisted"
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingCancelled  = "booking.cancelled"
	EventWaitlistPromoted  = "waitlist.promoted"
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentFailed     = "payment.failed"
	EventTrainCreated      = "train.created"
)

// BookingCreatedEvent represents a booking creation event.
type BookingCreatedEvent struct {
	BookingID int64         `json:"booking_id"`
	PNR       string        `json:"pnr"`
	Key       InventoryKey  `json:"inventory_key"`
	Status    BookingStatus `json:"status"`
	UserID    *int64        `json:"user_id"`
	Timestamp time.Time     `json:"timestamp"`
}

// BookingWaitlistedEvent is published when a request falls back to the
// waitlist instead of receiving seats.
type BookingWaitlistedEvent struct {
	BookingID int64        `json:"booking_id"`
	PNR       string       `json:"pnr"`
	Key       InventoryKey `json:"inventory_key"`
	Position  int          `json:"position"`
	Seq       int64        `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
}

// BookingConfirmedEvent represents a booking reaching confirmed state.
type BookingConfirmedEvent struct {
	BookingID int64        `json:"booking_id"`
	PNR       string       `json:"pnr"`
	Key       InventoryKey `json:"inventory_key"`
	Timestamp time.Time    `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation.
type BookingCancelledEvent struct {
	BookingID int64        `json:"booking_id"`
	PNR       string       `json:"pnr"`
	Key       InventoryKey `json:"inventory_key"`
	Reason    string       `json:"reason"`
	Timestamp time.Time    `json:"timestamp"`
}

// WaitlistPromotedEvent is published per booking promoted off the queue.
type WaitlistPromotedEvent struct {
	BookingID int64        `json:"booking_id"`
	PNR       string       `json:"pnr"`
	Key       InventoryKey `json:"inventory_key"`
	Seq       int64        `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
}

// PaymentSucceededEvent represents a successful payment callback.
type PaymentSucceededEvent struct {
	BookingID int64     `json:"booking_id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a terminal payment failure.
type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	OrderID   string    `json:"order_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// TrainCreatedEvent is published when a train enters the catalog, so
// the consumer can index it for search.
type TrainCreatedEvent struct {
	TrainID   int64     `json:"train_id"`
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}
