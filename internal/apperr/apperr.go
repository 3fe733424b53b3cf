// Package apperr defines the domain error taxonomy. Every user-visible
// failure carries a stable reason code; lock and queue internals never
// leak through these errors.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Reason codes returned to API callers.
const (
	CodeRouteNotFound          = "ROUTE_NOT_FOUND"
	CodeTatkalWindowClosed     = "TATKAL_WINDOW_CLOSED"
	CodeQuotaFull              = "QUOTA_FULL"
	CodeCapacityExceeded       = "CAPACITY_EXCEEDED"
	CodeDuplicatePayment       = "DUPLICATE_PAYMENT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeBookingNotFound        = "BOOKING_NOT_FOUND"
	CodeTrainNotFound          = "TRAIN_NOT_FOUND"
	CodeInvalidState           = "INVALID_STATE"
)

// Error is a domain error with a stable reason code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by reason code so sentinel comparisons survive
// wrapping and per-instance detail fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrRouteNotFound          = &Error{Code: CodeRouteNotFound, Message: "no valid route for station pair"}
	ErrTatkalWindowClosed     = &Error{Code: CodeTatkalWindowClosed, Message: "tatkal window is closed"}
	ErrQuotaFull              = &Error{Code: CodeQuotaFull, Message: "quota has no capacity"}
	ErrCapacityExceeded       = &Error{Code: CodeCapacityExceeded, Message: "not enough seats available"}
	ErrDuplicatePayment       = &Error{Code: CodeDuplicatePayment, Message: "payment already recorded"}
	ErrConcurrentModification = &Error{Code: CodeConcurrentModification, Message: "conflicting concurrent update"}
	ErrBookingNotFound        = &Error{Code: CodeBookingNotFound, Message: "booking not found"}
	ErrTrainNotFound          = &Error{Code: CodeTrainNotFound, Message: "train not found"}
	ErrInvalidState           = &Error{Code: CodeInvalidState, Message: "operation not allowed in current state"}
)

// RouteNotFound builds a route rejection for a concrete station pair.
func RouteNotFound(trainID, from, to int64) error {
	return &Error{
		Code:    CodeRouteNotFound,
		Message: fmt.Sprintf("train %d does not travel from station %d to station %d", trainID, from, to),
	}
}

// TatkalWindowClosedError carries the time the window reopens.
type TatkalWindowClosedError struct {
	ReopensAt time.Time
}

func (e *TatkalWindowClosedError) Error() string {
	return fmt.Sprintf("%s: tatkal booking opens at %s", CodeTatkalWindowClosed, e.ReopensAt.Format(time.RFC3339))
}

func (e *TatkalWindowClosedError) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == CodeTatkalWindowClosed
	}
	return false
}

// TatkalWindowClosed builds a tatkal rejection with the reopen time.
func TatkalWindowClosed(reopensAt time.Time) error {
	return &TatkalWindowClosedError{ReopensAt: reopensAt}
}

// CapacityExceededError is the recoverable allocation failure: the
// orchestrator absorbs it into a waitlist transition rather than
// surfacing it to the caller.
type CapacityExceededError struct {
	Needed    int
	Available int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%s: need %d seats, %d available", CodeCapacityExceeded, e.Needed, e.Available)
}

func (e *CapacityExceededError) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == CodeCapacityExceeded
	}
	return false
}

// CapacityExceeded builds the allocation shortfall error.
func CapacityExceeded(needed, available int) error {
	return &CapacityExceededError{Needed: needed, Available: available}
}

// QuotaFull builds the per-quota rejection. The caller may retry with a
// different quota.
func QuotaFull(quota string) error {
	return &Error{
		Code:    CodeQuotaFull,
		Message: fmt.Sprintf("quota %q has no capacity for this train and date", quota),
	}
}

// CodeOf extracts the reason code from an error chain, or "" when the
// error is not a domain error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var tw *TatkalWindowClosedError
	if errors.As(err, &tw) {
		return CodeTatkalWindowClosed
	}
	var ce *CapacityExceededError
	if errors.As(err, &ce) {
		return CodeCapacityExceeded
	}
	return ""
}

// IsFatal reports whether the error must be rejected synchronously to
// the caller (as opposed to being absorbed into a state transition).
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case CodeRouteNotFound, CodeTatkalWindowClosed, CodeQuotaFull, CodeBookingNotFound, CodeTrainNotFound, CodeInvalidState:
		return true
	}
	return false
}
