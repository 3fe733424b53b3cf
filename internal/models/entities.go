package models

import (
	"strconv"
	"time"
)

// CoachClass identifies a bookable coach class on a train.
type CoachClass string

const (
	ClassSL CoachClass = "SL"
	Class3A CoachClass = "3A"
	Class2A CoachClass = "2A"
	Class1A CoachClass = "1A"
	ClassCC CoachClass = "CC"
)

// IsAirConditioned reports whether the class belongs to the AC tatkal
// window group.
func (c CoachClass) IsAirConditioned() bool {
	switch c {
	case Class3A, Class2A, Class1A, ClassCC:
		return true
	}
	return false
}

// Quota is a named sub-allocation of inventory with independent capacity.
type Quota string

const (
	QuotaGeneral Quota = "general"
	QuotaTatkal  Quota = "tatkal"
	QuotaLadies  Quota = "ladies"
	QuotaSenior  Quota = "senior"
)

// BookingType distinguishes normal advance bookings from time-windowed
// tatkal bookings.
type BookingType string

const (
	BookingGeneral BookingType = "general"
	BookingTatkal  BookingType = "tatkal"
)

// BerthType is the physical berth category within a coach.
type BerthType string

const (
	BerthLower     BerthType = "LOWER"
	BerthMiddle    BerthType = "MIDDLE"
	BerthUpper     BerthType = "UPPER"
	BerthSideLower BerthType = "SIDE_LOWER"
	BerthSideUpper BerthType = "SIDE_UPPER"
)

// BookingStatus is a booking state machine state.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusWaitlisted     BookingStatus = "waitlisted"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusCancelled      BookingStatus = "cancelled"
)

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// InventoryKey is the unit of seat contention: exactly one seat counter
// and one FIFO waitlist exist per key. JourneyDate is a calendar date in
// "2006-01-02" form so the key stays a comparable value type.
type InventoryKey struct {
	TrainID     int64      `json:"train_id"`
	JourneyDate string     `json:"journey_date"`
	Class       CoachClass `json:"coach_class"`
	Quota       Quota      `json:"quota"`
}

// Station represents a railway station.
type Station struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Train represents a train in the catalog. Source and destination names
// are denormalized from the first and last stop for search.
type Train struct {
	ID          int64     `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	Name        string    `json:"name" db:"name"`
	Source      string    `json:"source" db:"source"`
	Destination string    `json:"destination" db:"destination"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Stop is one entry of a train's ordered stop sequence. Seq is strictly
// increasing per train; DistanceKm is cumulative from the origin.
type Stop struct {
	TrainID     int64   `json:"train_id" db:"train_id"`
	StationID   int64   `json:"station_id" db:"station_id"`
	StationName string  `json:"station_name,omitempty" db:"station_name"`
	Seq         int     `json:"seq" db:"seq"`
	DistanceKm  float64 `json:"distance_km" db:"distance_km"`
}

// PricingRule holds the fare modifiers for one (train, class) pair.
type PricingRule struct {
	TrainID          int64      `json:"train_id" db:"train_id"`
	Class            CoachClass `json:"coach_class" db:"coach_class"`
	BaseRatePerKm    float64    `json:"base_rate_per_km" db:"base_rate_per_km"`
	TatkalMultiplier float64    `json:"tatkal_multiplier" db:"tatkal_multiplier"`
	MediumThreshold  float64    `json:"medium_threshold" db:"medium_threshold"`
	MediumMultiplier float64    `json:"medium_multiplier" db:"medium_multiplier"`
	HighThreshold    float64    `json:"high_threshold" db:"high_threshold"`
	HighMultiplier   float64    `json:"high_multiplier" db:"high_multiplier"`
}

// Inventory is the persisted seat counter for one InventoryKey.
type Inventory struct {
	TrainID        int64      `json:"train_id" db:"train_id"`
	JourneyDate    time.Time  `json:"journey_date" db:"journey_date"`
	Class          CoachClass `json:"coach_class" db:"coach_class"`
	Quota          Quota      `json:"quota" db:"quota"`
	TotalSeats     int        `json:"total_seats" db:"total_seats"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
}

// Key returns the counter's InventoryKey.
func (inv *Inventory) Key() InventoryKey {
	return InventoryKey{
		TrainID:     inv.TrainID,
		JourneyDate: inv.JourneyDate.Format("2006-01-02"),
		Class:       inv.Class,
		Quota:       inv.Quota,
	}
}

// SeatAssignment is one passenger's concrete seat identity, unique
// within (train, journey date, class) while the owning booking is active.
type SeatAssignment struct {
	CoachLabel string    `json:"coach"`
	SeatNumber int       `json:"seat"`
	Berth      BerthType `json:"berth"`
}

// Label renders the user-facing seat label, e.g. "S1-43".
func (a SeatAssignment) Label() string {
	if a.CoachLabel == "" {
		return ""
	}
	return a.CoachLabel + "-" + strconv.Itoa(a.SeatNumber)
}

// PassengerSeat is one passenger row of a booking. Seat columns are nil
// while the booking is waitlisted and again after release on cancellation.
type PassengerSeat struct {
	ID         int64      `json:"id" db:"id"`
	BookingID  int64      `json:"booking_id" db:"booking_id"`
	Position   int        `json:"position" db:"position"`
	Name       string     `json:"name" db:"name"`
	Preference *BerthType `json:"berth_preference,omitempty" db:"berth_preference"`
	CoachLabel *string    `json:"coach,omitempty" db:"coach_label"`
	SeatNumber *int       `json:"seat,omitempty" db:"seat_number"`
	Berth      *BerthType `json:"berth,omitempty" db:"berth_type"`
}

// Assignment converts an assigned passenger row to a SeatAssignment.
// Returns false while the row has no seat.
func (p *PassengerSeat) Assignment() (SeatAssignment, bool) {
	if p.CoachLabel == nil || p.SeatNumber == nil || p.Berth == nil {
		return SeatAssignment{}, false
	}
	return SeatAssignment{CoachLabel: *p.CoachLabel, SeatNumber: *p.SeatNumber, Berth: *p.Berth}, true
}

// Booking is a booking row plus its passenger seats.
type Booking struct {
	ID             int64           `json:"id" db:"id"`
	PNR            string          `json:"pnr" db:"pnr"`
	UserID         *int64          `json:"user_id" db:"user_id"`
	TrainID        int64           `json:"train_id" db:"train_id"`
	JourneyDate    time.Time       `json:"journey_date" db:"journey_date"`
	Class          CoachClass      `json:"coach_class" db:"coach_class"`
	Quota          Quota           `json:"quota" db:"quota"`
	BookingType    BookingType     `json:"booking_type" db:"booking_type"`
	FromStationID  int64           `json:"from_station_id" db:"from_station_id"`
	ToStationID    int64           `json:"to_station_id" db:"to_station_id"`
	PassengerCount int             `json:"passenger_count" db:"passenger_count"`
	FareAmount     float64         `json:"fare_amount" db:"fare_amount"`
	Status         BookingStatus   `json:"status" db:"status"`
	WaitlistTag    *string         `json:"waitlist_tag,omitempty" db:"waitlist_tag"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	Passengers     []PassengerSeat `json:"passengers,omitempty"`
}

// Key returns the booking's InventoryKey.
func (b *Booking) Key() InventoryKey {
	return InventoryKey{
		TrainID:     b.TrainID,
		JourneyDate: b.JourneyDate.Format("2006-01-02"),
		Class:       b.Class,
		Quota:       b.Quota,
	}
}

// WaitlistEntry is the persisted mirror of one queue position. Seq is a
// per-key monotonically increasing counter, the sole FIFO tie-break.
type WaitlistEntry struct {
	ID          int64      `json:"id" db:"id"`
	BookingID   int64      `json:"booking_id" db:"booking_id"`
	TrainID     int64      `json:"train_id" db:"train_id"`
	JourneyDate time.Time  `json:"journey_date" db:"journey_date"`
	Class       CoachClass `json:"coach_class" db:"coach_class"`
	Quota       Quota      `json:"quota" db:"quota"`
	Seq         int64      `json:"seq" db:"seq"`
	Passengers  int        `json:"passengers" db:"passengers"`
}

// PaymentRecord tracks payment outcomes per booking. At most one success
// row may ever exist per booking, enforced by a partial unique index.
type PaymentRecord struct {
	ID        int64         `json:"id" db:"id"`
	BookingID int64         `json:"booking_id" db:"booking_id"`
	OrderID   string        `json:"order_id" db:"order_id"`
	Status    PaymentStatus `json:"status" db:"status"`
	Amount    float64       `json:"amount" db:"amount"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// User represents an API user (Basic Auth subject).
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}
