package integration

import (
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"railbook/internal/models"
)

// newClientOrSkip builds a client against the API named by
// RAILBOOK_API_URL, or skips the test when no API is running.
func newClientOrSkip(t *testing.T) *TestClient {
	baseURL := os.Getenv("RAILBOOK_API_URL")
	if baseURL == "" {
		t.Skip("RAILBOOK_API_URL not set, skipping integration test")
	}

	user := os.Getenv("RAILBOOK_API_USER")
	if user == "" {
		user = "admin@railbook.local"
	}
	password := os.Getenv("RAILBOOK_API_PASSWORD")
	if password == "" {
		password = "password123"
	}

	return NewTestClient(baseURL, user, password)
}

// journeyDate returns a journey date comfortably inside the service
// window of a freshly created train.
func journeyDate() string {
	return time.Now().AddDate(0, 0, 3).Format("2006-01-02")
}

// uniqueTrainNumber generates a 5-digit train number unlikely to clash
// with earlier runs.
func uniqueTrainNumber() string {
	return fmt.Sprintf("%05d", 10000+rand.Intn(89999))
}

// makeTrainRequest builds a two-stop train with one sleeper class. The
// caller controls the seat split so capacity-sensitive tests stay
// deterministic.
func makeTrainRequest(seatsGeneral, seatsTatkal int) models.CreateTrainRequest {
	return models.CreateTrainRequest{
		Number: uniqueTrainNumber(),
		Name:   "Integration Express",
		Stops: []models.StopRequest{
			{StationID: 1, Seq: 1, DistanceKm: 0},
			{StationID: 2, Seq: 2, DistanceKm: 400},
		},
		Classes: []models.ClassConfigRequest{
			{
				Class: models.ClassSL,
				SeatsPerQuota: map[models.Quota]int{
					models.QuotaGeneral: seatsGeneral,
					models.QuotaTatkal:  seatsTatkal,
				},
				BaseRatePerKm:    0.5,
				TatkalMultiplier: 1.3,
				MediumThreshold:  0.5,
				MediumMultiplier: 1.1,
				HighThreshold:    0.8,
				HighMultiplier:   1.25,
			},
		},
		ServiceDays: []string{journeyDate()},
	}
}

// makeBookingRequest builds a general booking on the given train for
// the standard two-stop route.
func makeBookingRequest(trainID int64, passengers int) models.CreateBookingRequest {
	req := models.CreateBookingRequest{
		TrainID:       trainID,
		FromStationID: 1,
		ToStationID:   2,
		JourneyDate:   journeyDate(),
		Class:         models.ClassSL,
	}
	for i := 0; i < passengers; i++ {
		req.Passengers = append(req.Passengers, models.PassengerRequest{
			Name: fmt.Sprintf("Passenger %d", i+1),
		})
	}
	return req
}

// LogTestStep logs a test step for better debugging
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
