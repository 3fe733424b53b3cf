package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"railbook/internal/models"
)

// SpecValidator - смоук-проверка работающего API: создает поезд,
// бронирует места, проходит платежный цикл и отмену.
type SpecValidator struct {
	baseURL  string
	user     string
	password string
}

// NewSpecValidator создает новый валидатор
func NewSpecValidator(baseURL, user, password string) *SpecValidator {
	return &SpecValidator{baseURL: baseURL, user: user, password: password}
}

// ValidateAll проверяет все endpoints
func (v *SpecValidator) ValidateAll() error {
	log.Println("Начинаю валидацию API...")

	trainID, err := v.validateTrains()
	if err != nil {
		return fmt.Errorf("Trains validation failed: %w", err)
	}

	if err := v.validateBookings(trainID); err != nil {
		return fmt.Errorf("Bookings validation failed: %w", err)
	}

	log.Println("Все endpoints прошли валидацию успешно")
	return nil
}

func (v *SpecValidator) validateTrains() (int64, error) {
	log.Println("Проверяю Trains endpoints...")

	reqBody := models.CreateTrainRequest{
		Number: fmt.Sprintf("%d", time.Now().Unix()%100000),
		Name:   "Validation Express",
		Stops: []models.StopRequest{
			{StationID: 1, Seq: 1, DistanceKm: 0},
			{StationID: 2, Seq: 2, DistanceKm: 350},
		},
		Classes: []models.ClassConfigRequest{
			{
				Class:         models.ClassSL,
				SeatsPerQuota: map[models.Quota]int{models.QuotaGeneral: 72},
				BaseRatePerKm: 0.5,
			},
		},
	}

	resp, err := v.makeRequest("POST", "/api/trains", reqBody)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("POST /api/trains: expected 201, got %d", resp.StatusCode)
	}

	var createResp models.CreateTrainResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return 0, fmt.Errorf("POST /api/trains: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if createResp.ID == 0 {
		return 0, fmt.Errorf("POST /api/trains: expected non-zero ID")
	}

	resp, err = v.makeRequest("GET", "/api/trains", nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/trains: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = v.makeRequest("GET", fmt.Sprintf("/api/trains/%d/stops", createResp.ID), nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/trains/:id/stops: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	log.Println("Trains endpoints валидны")
	return createResp.ID, nil
}

func (v *SpecValidator) validateBookings(trainID int64) error {
	log.Println("Проверяю Bookings endpoints...")

	journeyDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	resp, err := v.makeRequest("GET", fmt.Sprintf(
		"/api/availability?train_id=%d&date=%s&class=SL&quota=general", trainID, journeyDate), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/availability: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	reqBody := models.CreateBookingRequest{
		TrainID:       trainID,
		FromStationID: 1,
		ToStationID:   2,
		JourneyDate:   journeyDate,
		Class:         models.ClassSL,
		Passengers:    []models.PassengerRequest{{Name: "Validation Passenger"}},
	}

	resp, err = v.makeRequest("POST", "/api/bookings", reqBody)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/bookings: expected 201, got %d", resp.StatusCode)
	}

	var createResp models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return fmt.Errorf("POST /api/bookings: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if createResp.PNR == "" {
		return fmt.Errorf("POST /api/bookings: expected non-empty PNR")
	}

	resp, err = v.makeRequest("GET", fmt.Sprintf("/api/bookings/%d", createResp.BookingID), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/bookings/:id: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Платежный цикл: success callback подтверждает бронирование.
	resp, err = v.makeRequest("GET", fmt.Sprintf("/api/payments/success?orderId=RB-%d", createResp.BookingID), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/payments/success: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Повторный callback должен быть no-op.
	resp, err = v.makeRequest("GET", fmt.Sprintf("/api/payments/success?orderId=RB-%d", createResp.BookingID), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/payments/success (duplicate): expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	cancelReq := models.CancelBookingRequest{BookingID: createResp.BookingID}
	resp, err = v.makeRequest("PATCH", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PATCH /api/bookings/cancel: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	log.Println("Bookings endpoints валидны")
	return nil
}

func (v *SpecValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, merr := json.Marshal(body)
		if merr != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", merr)
		}
		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	if v.user != "" {
		req.SetBasicAuth(v.user, v.password)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// RunValidation запускает валидацию API
func RunValidation() {
	baseURL := os.Getenv("RAILBOOK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}

	validator := NewSpecValidator(baseURL,
		os.Getenv("RAILBOOK_VALIDATE_USER"),
		os.Getenv("RAILBOOK_VALIDATE_PASSWORD"))
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Валидация не пройдена: %v", err)
	}
}
