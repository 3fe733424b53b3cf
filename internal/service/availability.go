package service

import (
	"context"

	"railbook/internal/apperr"
	"railbook/internal/models"
)

// Availability reports the capacity of one inventory key: total seats,
// free seats and current waitlist depth, read atomically under the
// entry lock.
func (s *Service) Availability(ctx context.Context, key models.InventoryKey) (*models.AvailabilityResponse, error) {
	entry, ok, err := s.registry.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrTrainNotFound
	}
	defer entry.Release()

	return &models.AvailabilityResponse{
		TrainID:        key.TrainID,
		JourneyDate:    key.JourneyDate,
		Class:          key.Class,
		Quota:          key.Quota,
		TotalSeats:     entry.Pool.Total(),
		AvailableSeats: entry.Pool.Available(),
		WaitlistDepth:  entry.Queue.Len(),
	}, nil
}
