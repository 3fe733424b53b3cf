package service

import (
	"context"
	"log/slog"
)

// Reset wipes all booking state and forgets cached inventory entries.
// Load-test and integration-test support; the catalog survives.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repos.Bookings.DeleteAll(ctx); err != nil {
		return err
	}
	s.registry.Drop()

	slog.Info("Booking state reset")
	return nil
}
