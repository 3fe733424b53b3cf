package handlers

import (
	"net/http"
	"strconv"

	"log/slog"

	"railbook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateTrain - POST /api/trains
// Создать поезд с маршрутом, тарифами и инвентарем
func (h *Handlers) CreateTrain(c *gin.Context) {
	var req models.CreateTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg := validateTrainRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	response, err := h.service.CreateTrain(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create train", "number", req.Number, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// validateTrainRequest enforces the stop sequence contract: strictly
// increasing seq, non-decreasing cumulative distance starting at the
// origin, sane pricing multipliers.
func validateTrainRequest(req *models.CreateTrainRequest) string {
	for i, stop := range req.Stops {
		if i == 0 {
			continue
		}
		prev := req.Stops[i-1]
		if stop.Seq <= prev.Seq {
			return "stop seq must be strictly increasing"
		}
		if stop.DistanceKm < prev.DistanceKm {
			return "stop distance_km must be non-decreasing"
		}
	}

	for _, class := range req.Classes {
		if class.TatkalMultiplier != 0 && (class.TatkalMultiplier < 1.0 || class.TatkalMultiplier > 1.4) {
			return "tatkal_multiplier must be between 1.0 and 1.4"
		}
		if len(class.SeatsPerQuota) == 0 {
			return "seats_per_quota is required per class"
		}
	}

	return ""
}

// ListTrains - GET /api/trains
// Поиск поездов по номеру, названию или конечным станциям
func (h *Handlers) ListTrains(c *gin.Context) {
	query := c.Query("query")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	trains, err := h.service.ListTrains(c.Request.Context(), query, page, pageSize)
	if err != nil {
		slog.Error("Failed to list trains", "query", query, "error", err)
		respondError(c, err)
		return
	}

	if trains == nil {
		trains = []models.ListTrainsResponseItem{}
	}
	c.JSON(http.StatusOK, trains)
}

// GetTrainStops - GET /api/trains/:id/stops
// Последовательность остановок поезда
func (h *Handlers) GetTrainStops(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid train id"})
		return
	}

	stops, err := h.service.GetTrainStops(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stops)
}
