package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/repository"
	"railbook/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the handlers to a service backed by a mocked
// database. Validation-only tests never reach it.
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
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
	svc := service.New(cfg, repos, nil, nil, nil, nil)
	h := NewHandlers(svc)

	r := gin.New()
	r.POST("/api/bookings", h.CreateBooking)
	r.PATCH("/api/bookings/cancel", h.CancelBooking)
	r.GET("/api/bookings/:id", h.GetBooking)
	r.GET("/api/bookings/:id/waitlist", h.GetWaitlistPosition)
	r.GET("/api/availability", h.GetAvailability)
	r.GET("/api/payments/success", h.PaymentSuccess)
	r.GET("/api/payments/fail", h.PaymentFail)
	r.POST("/api/payments/notifications", h.PaymentNotifications)
	return r, mock
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/bookings", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/bookings", gin.H{"train_id": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingRejectsTooManyPassengers(t *testing.T) {
	r, _ := newTestRouter(t)

	passengers := make([]gin.H, 7)
	for i := range passengers {
		passengers[i] = gin.H{"name": "P"}
	}
	w := doJSON(r, "POST", "/api/bookings", gin.H{
		"train_id": 7, "from_station_id": 10, "to_station_id": 40,
		"journey_date": "2026-09-01", "coach_class": "SL", "passengers": passengers,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingRejectsBadDate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/bookings", gin.H{
		"train_id": 7, "from_station_id": 10, "to_station_id": 40,
		"journey_date": "01-09-2026", "coach_class": "SL",
		"passengers": []gin.H{{"name": "Asha"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingRejectsUnknownBookingType(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/bookings", gin.H{
		"train_id": 7, "from_station_id": 10, "to_station_id": 40,
		"journey_date": "2026-09-01", "coach_class": "SL", "booking_type": "premium",
		"passengers": []gin.H{{"name": "Asha"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingUnknownTrainIs404(t *testing.T) {
	r, mock := newTestRouter(t)

	// No stops: the train does not exist.
	mock.ExpectQuery("SELECT ts.train_id").WillReturnRows(
		sqlmock.NewRows([]string{"train_id", "station_id", "name", "seq", "distance_km"}))

	w := doJSON(r, "POST", "/api/bookings", gin.H{
		"train_id": 999, "from_station_id": 10, "to_station_id": 40,
		"journey_date": "2026-09-01", "coach_class": "SL",
		"passengers": []gin.H{{"name": "Asha"}},
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TRAIN_NOT_FOUND", body["code"])
}

func TestGetBookingNotFound(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest("GET", "/api/bookings/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetWaitlistPositionRejectsBadID(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/bookings/abc/waitlist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailabilityRequiresParams(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/availability",
		"/api/availability?train_id=7",
		"/api/availability?train_id=7&date=2026-09-01",
		"/api/availability?train_id=7&date=bad&class=SL",
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
	}
}

func TestPaymentSuccessRejectsForeignOrderID(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, orderID := range []string{"", "42", "XX-42"} {
		req := httptest.NewRequest("GET", "/api/payments/success?orderId="+orderID, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "orderId %q", orderID)
	}
}

func TestPaymentSuccessDuplicateReturns200(t *testing.T) {
	r, mock := newTestRouter(t)

	now := time.Now()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "pnr", "user_id", "train_id", "journey_date", "coach_class", "quota",
			"booking_type", "from_station_id", "to_station_id", "passenger_count", "fare_amount", "status",
			"waitlist_tag", "created_at", "updated_at"}).
			AddRow(42, "1234567890", nil, 7, now, "SL", "general", "general", 10, 40, 1, 200.0, "confirmed", nil, now, now))

	req := httptest.NewRequest("GET", "/api/payments/success?orderId=RB-42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "already_confirmed", body["status"])
}

func TestPaymentNotificationsIgnoresIntermediateStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/payments/notifications", gin.H{
		"orderId": "RB-42", "status": "FORM_SHOWED",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ignored", body["status"])
}

func TestPaymentNotificationsRejectsBadOrderID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/payments/notifications", gin.H{
		"orderId": "nope", "status": "CONFIRMED",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBookingRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest("PATCH", "/api/bookings/cancel", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
