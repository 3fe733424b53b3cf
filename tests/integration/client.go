package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"railbook/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	User       string
	Password   string
	HTTPClient *http.Client
}

// NewTestClient creates a new test client
func NewTestClient(baseURL, user, password string) *TestClient {
	return &TestClient{
		BaseURL:  baseURL,
		User:     user,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.User, c.Password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// CreateTrain creates a train with its stops and class configuration
func (c *TestClient) CreateTrain(t *testing.T, req models.CreateTrainRequest) int64 {
	resp := c.makeRequest(t, "POST", "/api/trains", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var train models.CreateTrainResponse
	if err := json.NewDecoder(resp.Body).Decode(&train); err != nil {
		t.Fatalf("Failed to decode train response: %v", err)
	}

	return train.ID
}

// ListTrains lists trains from the catalog
func (c *TestClient) ListTrains(t *testing.T, query string) []models.ListTrainsResponseItem {
	path := "/api/trains?page=1&pageSize=50"
	if query != "" {
		path += "&query=" + query
	}
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var trains []models.ListTrainsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&trains); err != nil {
		t.Fatalf("Failed to decode trains response: %v", err)
	}

	return trains
}

// GetTrainStops returns the ordered stop sequence of a train
func (c *TestClient) GetTrainStops(t *testing.T, trainID int64) []models.Stop {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/trains/%d/stops", trainID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var stops []models.Stop
	if err := json.NewDecoder(resp.Body).Decode(&stops); err != nil {
		t.Fatalf("Failed to decode stops response: %v", err)
	}

	return stops
}

// CreateBooking creates a new booking
func (c *TestClient) CreateBooking(t *testing.T, req models.CreateBookingRequest) *models.CreateBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// TryCreateBooking creates a booking and returns the raw status code
// together with the decoded body on success.
func (c *TestClient) TryCreateBooking(t *testing.T, req models.CreateBookingRequest) (int, *models.CreateBookingResponse) {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	var booking models.CreateBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}
	return resp.StatusCode, &booking
}

// GetBooking fetches a booking by id or PNR
func (c *TestClient) GetBooking(t *testing.T, idOrPNR string) *models.Booking {
	resp := c.makeRequest(t, "GET", "/api/bookings/"+idOrPNR, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// CancelBooking cancels a booking
func (c *TestClient) CancelBooking(t *testing.T, bookingID int64) {
	req := models.CancelBookingRequest{
		BookingID: bookingID,
	}

	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// GetWaitlistPosition returns the queue position of a waitlisted booking
func (c *TestClient) GetWaitlistPosition(t *testing.T, bookingID int64) *models.WaitlistPositionResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/bookings/%d/waitlist", bookingID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var pos models.WaitlistPositionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pos); err != nil {
		t.Fatalf("Failed to decode waitlist response: %v", err)
	}

	return &pos
}

// GetAvailability returns the seat availability for an inventory key
func (c *TestClient) GetAvailability(t *testing.T, trainID int64, date string, class models.CoachClass, quota models.Quota) *models.AvailabilityResponse {
	path := fmt.Sprintf("/api/availability?train_id=%d&date=%s&class=%s&quota=%s", trainID, date, class, quota)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var availability models.AvailabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&availability); err != nil {
		t.Fatalf("Failed to decode availability response: %v", err)
	}

	return &availability
}

// NotifyPaymentSuccess simulates a successful payment callback
func (c *TestClient) NotifyPaymentSuccess(t *testing.T, bookingID int64) {
	path := fmt.Sprintf("/api/payments/success?orderId=RB-%d", bookingID)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// NotifyPaymentFailure simulates a failed payment callback
func (c *TestClient) NotifyPaymentFailure(t *testing.T, bookingID int64) {
	path := fmt.Sprintf("/api/payments/fail?orderId=RB-%d", bookingID)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// SendPaymentWebhook sends a payment webhook notification
func (c *TestClient) SendPaymentWebhook(t *testing.T, notification models.PaymentNotificationPayload) {
	resp := c.makeRequest(t, "POST", "/api/payments/notifications", notification)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
}

// HealthCheck checks if the API is healthy
func (c *TestClient) HealthCheck(t *testing.T) {
	req, err := http.NewRequest("GET", c.BaseURL+"/health", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}
