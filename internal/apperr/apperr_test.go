package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetailErrorsImplementError(t *testing.T) {
	// Both detail-carrying types must satisfy error through a real
	// method, not a promoted field.
	var _ error = &TatkalWindowClosedError{}
	var _ error = &CapacityExceededError{}

	reopens := time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)
	err := TatkalWindowClosed(reopens)
	assert.Contains(t, err.Error(), CodeTatkalWindowClosed)
	assert.Contains(t, err.Error(), "2026-08-31T11:00:00Z")

	err = CapacityExceeded(3, 1)
	assert.Contains(t, err.Error(), CodeCapacityExceeded)
	assert.Contains(t, err.Error(), "need 3 seats, 1 available")
}

func TestDetailErrorsMatchSentinels(t *testing.T) {
	tw := TatkalWindowClosed(time.Now())
	assert.ErrorIs(t, tw, ErrTatkalWindowClosed)
	assert.NotErrorIs(t, tw, ErrCapacityExceeded)

	ce := CapacityExceeded(2, 0)
	assert.ErrorIs(t, ce, ErrCapacityExceeded)
	assert.NotErrorIs(t, ce, ErrTatkalWindowClosed)

	var detail *CapacityExceededError
	assert.True(t, errors.As(ce, &detail))
	assert.Equal(t, 2, detail.Needed)
	assert.Equal(t, 0, detail.Available)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTatkalWindowClosed, CodeOf(TatkalWindowClosed(time.Now())))
	assert.Equal(t, CodeCapacityExceeded, CodeOf(CapacityExceeded(1, 0)))
	assert.Equal(t, CodeBookingNotFound, CodeOf(fmt.Errorf("lookup: %w", ErrBookingNotFound)))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrRouteNotFound))
	assert.True(t, IsFatal(TatkalWindowClosed(time.Now())))
	assert.False(t, IsFatal(CapacityExceeded(1, 0)))
	assert.False(t, IsFatal(ErrConcurrentModification))
}
