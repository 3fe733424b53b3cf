package handlers

import (
	"errors"
	"net/http"

	"log/slog"

	"railbook/internal/apperr"
	"railbook/internal/models"
	"railbook/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentSuccess - GET /api/payments/success
// Callback платежного шлюза об успешной оплате
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	orderID := c.Query("orderId")
	bookingID, ok := service.ParseOrderID(orderID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
		return
	}

	err := h.service.PaymentSucceeded(c.Request.Context(), bookingID, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicatePayment) {
			// Повторный callback — оплата уже учтена.
			c.JSON(http.StatusOK, gin.H{"status": "already_confirmed"})
			return
		}
		slog.Error("Payment success callback failed", "order_id", orderID, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// PaymentFail - GET /api/payments/fail
// Callback платежного шлюза о неуспешной оплате
func (h *Handlers) PaymentFail(c *gin.Context) {
	orderID := c.Query("orderId")
	bookingID, ok := service.ParseOrderID(orderID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
		return
	}

	err := h.service.PaymentFailed(c.Request.Context(), bookingID, orderID, "payment failed")
	if err != nil {
		slog.Error("Payment fail callback failed", "order_id", orderID, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// PaymentNotifications - POST /api/payments/notifications
// Webhook уведомления от платежного шлюза
func (h *Handlers) PaymentNotifications(c *gin.Context) {
	var payload models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookingID, ok := service.ParseOrderID(payload.OrderID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid orderId"})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch payload.Status {
	case "CONFIRMED", "AUTHORIZED", "success":
		err = h.service.PaymentSucceeded(ctx, bookingID, payload.OrderID)
		if errors.Is(err, apperr.ErrDuplicatePayment) {
			err = nil
		}
	case "CANCELLED", "REJECTED", "EXPIRED", "failed":
		err = h.service.PaymentFailed(ctx, bookingID, payload.OrderID, payload.Status)
	default:
		// Промежуточные статусы шлюза не являются терминальными.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err != nil {
		slog.Error("Payment notification failed", "order_id", payload.OrderID, "status", payload.Status, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
