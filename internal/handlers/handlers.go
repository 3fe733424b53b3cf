package handlers

import (
	"net/http"

	"railbook/internal/apperr"
	"railbook/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	service *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{service: svc}
}

// statusFor maps a domain reason code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case apperr.CodeBookingNotFound, apperr.CodeTrainNotFound:
		return http.StatusNotFound
	case apperr.CodeRouteNotFound, apperr.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case apperr.CodeTatkalWindowClosed, apperr.CodeQuotaFull:
		return http.StatusConflict
	case apperr.CodeDuplicatePayment:
		return http.StatusOK
	case apperr.CodeConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a domain error with its reason code, or a bare
// 500 for unexpected failures.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(statusFor(code), gin.H{"error": err.Error(), "code": code})
}
