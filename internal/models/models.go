package models

// PassengerRequest is one passenger of a booking request.
type PassengerRequest struct {
	Name       string     `json:"name" binding:"required"`
	Preference *BerthType `json:"berth_preference,omitempty"`
}

// CreateBookingRequest - модель для создания бронирования
type CreateBookingRequest struct {
	TrainID       int64              `json:"train_id" binding:"required"`
	FromStationID int64              `json:"from_station_id" binding:"required"`
	ToStationID   int64              `json:"to_station_id" binding:"required"`
	JourneyDate   string             `json:"journey_date" binding:"required"`
	Class         CoachClass         `json:"coach_class" binding:"required"`
	Quota         Quota              `json:"quota"`
	BookingType   BookingType        `json:"booking_type"`
	Passengers    []PassengerRequest `json:"passengers" binding:"required,min=1"`
}

// BookedSeat is one assigned seat in a booking response.
type BookedSeat struct {
	Passenger string    `json:"passenger"`
	Coach     string    `json:"coach"`
	Seat      int       `json:"seat"`
	Berth     BerthType `json:"berth"`
}

// CreateBookingResponse - модель ответа при создании бронирования
type CreateBookingResponse struct {
	BookingID        int64         `json:"booking_id"`
	PNR              string        `json:"pnr"`
	Status           BookingStatus `json:"status"`
	FareAmount       float64       `json:"fare_amount"`
	Seats            []BookedSeat  `json:"seats,omitempty"`
	WaitlistPosition int           `json:"waitlist_position,omitempty"`
}

// CancelBookingRequest - модель для отмены бронирования
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// CancelBookingResponse - модель ответа при отмене
type CancelBookingResponse struct {
	BookingID int64         `json:"booking_id"`
	Status    BookingStatus `json:"status"`
}

// WaitlistPositionResponse reports the effective FIFO position of a
// waitlisted booking (1 = next to be promoted).
type WaitlistPositionResponse struct {
	BookingID int64 `json:"booking_id"`
	Position  int   `json:"position"`
}

// StopRequest is one stop of a train creation request. Stops must carry
// strictly increasing seq and distance values.
type StopRequest struct {
	StationID  int64   `json:"station_id" binding:"required"`
	Seq        int     `json:"seq" binding:"required"`
	DistanceKm float64 `json:"distance_km"`
}

// ClassConfigRequest configures inventory and pricing for one class of
// a new train.
type ClassConfigRequest struct {
	Class            CoachClass `json:"coach_class" binding:"required"`
	SeatsPerQuota    map[Quota]int `json:"seats_per_quota" binding:"required"`
	BaseRatePerKm    float64    `json:"base_rate_per_km" binding:"required"`
	TatkalMultiplier float64    `json:"tatkal_multiplier"`
	MediumThreshold  float64    `json:"medium_threshold"`
	MediumMultiplier float64    `json:"medium_multiplier"`
	HighThreshold    float64    `json:"high_threshold"`
	HighMultiplier   float64    `json:"high_multiplier"`
}

// CreateTrainRequest - модель для создания поезда
type CreateTrainRequest struct {
	Number      string               `json:"number" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	Stops       []StopRequest        `json:"stops" binding:"required,min=2"`
	Classes     []ClassConfigRequest `json:"classes" binding:"required,min=1"`
	ServiceDays []string             `json:"service_days,omitempty"`
}

// CreateTrainResponse - модель ответа при создании поезда
type CreateTrainResponse struct {
	ID int64 `json:"id"`
}

// ListTrainsResponseItem is one search hit of the train catalog.
type ListTrainsResponseItem struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// AvailabilityResponse reports capacity for one InventoryKey.
type AvailabilityResponse struct {
	TrainID        int64      `json:"train_id"`
	JourneyDate    string     `json:"journey_date"`
	Class          CoachClass `json:"coach_class"`
	Quota          Quota      `json:"quota"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	WaitlistDepth  int        `json:"waitlist_depth"`
}

// PaymentNotificationPayload - модель для webhook уведомлений от
// платежного шлюза
type PaymentNotificationPayload struct {
	OrderID   string                 `json:"orderId"`
	PaymentID string                 `json:"paymentId"`
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}
