package handlers

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"railbook/internal/models"

	"github.com/gin-gonic/gin"
)

// maxPassengersPerBooking ограничивает размер одного бронирования.
const maxPassengersPerBooking = 6

// CreateBooking - POST /api/bookings
// Создать бронирование
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Passengers) > maxPassengersPerBooking {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 6 passengers per booking"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.JourneyDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "journey_date must be YYYY-MM-DD"})
		return
	}
	if req.BookingType != "" && req.BookingType != models.BookingGeneral && req.BookingType != models.BookingTatkal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown booking_type"})
		return
	}

	response, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create booking", "train_id", req.TrainID, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CancelBooking - PATCH /api/bookings/cancel
// Отменить бронирование
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.CancelBooking(c.Request.Context(), req.BookingID)
	if err != nil {
		slog.Error("Failed to cancel booking", "booking_id", req.BookingID, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBooking - GET /api/bookings/:id
// Получить бронирование по id или PNR
func (h *Handlers) GetBooking(c *gin.Context) {
	idParam := c.Param("id")

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		// Not numeric: treat as PNR lookup.
		booking, err := h.service.GetBookingByPNR(c.Request.Context(), idParam)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetWaitlistPosition - GET /api/bookings/:id/waitlist
// Текущая позиция в очереди ожидания
func (h *Handlers) GetWaitlistPosition(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	response, err := h.service.WaitlistPosition(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAvailability - GET /api/availability
// Доступность мест по ключу инвентаря
func (h *Handlers) GetAvailability(c *gin.Context) {
	trainID, err := strconv.ParseInt(c.Query("train_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "train_id is required"})
		return
	}

	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	class := models.CoachClass(c.Query("class"))
	if class == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class is required"})
		return
	}

	quota := models.Quota(c.DefaultQuery("quota", string(models.QuotaGeneral)))

	key := models.InventoryKey{TrainID: trainID, JourneyDate: date, Class: class, Quota: quota}
	response, err := h.service.Availability(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
