package handlers

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
)

// Reset - POST /api/reset
// Полный сброс состояния бронирований (для тестов)
func (h *Handlers) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		slog.Error("Failed to reset booking state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
