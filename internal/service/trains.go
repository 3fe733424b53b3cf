package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"railbook/internal/apperr"
	"railbook/internal/models"
)

// defaultServiceDays is how many journey dates get seeded when a train
// is created without an explicit service calendar.
const defaultServiceDays = 30

// CreateTrain registers a train with its stop sequence and pricing
// rules, then seeds inventory counters for every configured class and
// quota across the service days.
func (s *Service) CreateTrain(ctx context.Context, req *models.CreateTrainRequest) (*models.CreateTrainResponse, error) {
	stops := make([]models.Stop, len(req.Stops))
	for i, st := range req.Stops {
		stops[i] = models.Stop{
			StationID:  st.StationID,
			Seq:        st.Seq,
			DistanceKm: st.DistanceKm,
		}
	}

	rules := make([]models.PricingRule, len(req.Classes))
	for i, c := range req.Classes {
		rules[i] = models.PricingRule{
			Class:            c.Class,
			BaseRatePerKm:    c.BaseRatePerKm,
			TatkalMultiplier: c.TatkalMultiplier,
			MediumThreshold:  c.MediumThreshold,
			MediumMultiplier: c.MediumMultiplier,
			HighThreshold:    c.HighThreshold,
			HighMultiplier:   c.HighMultiplier,
		}
	}

	train := &models.Train{Number: req.Number, Name: req.Name}
	if err := s.repos.Catalog.CreateTrain(ctx, train, stops, rules); err != nil {
		return nil, fmt.Errorf("failed to create train: %w", err)
	}
	s.routes.Invalidate(train.ID)

	dates, err := serviceDates(req.ServiceDays, s.now())
	if err != nil {
		return nil, err
	}

	for _, date := range dates {
		for _, c := range req.Classes {
			for quota, seats := range c.SeatsPerQuota {
				if seats <= 0 {
					continue
				}
				inv := &models.Inventory{
					TrainID:     train.ID,
					JourneyDate: date,
					Class:       c.Class,
					Quota:       quota,
					TotalSeats:  seats,
				}
				if err := s.repos.Inventory.Upsert(ctx, inv); err != nil {
					return nil, fmt.Errorf("failed to seed inventory: %w", err)
				}
				s.registry.Invalidate(inv.Key())
			}
		}
	}

	if s.search != nil {
		if err := s.search.IndexTrain(ctx, train); err != nil {
			slog.Warn("Failed to index train", "train_id", train.ID, "error", err)
		}
	}
	s.publish(models.EventTrainCreated, models.TrainCreatedEvent{
		TrainID: train.ID, Number: train.Number, Name: train.Name, Timestamp: s.now(),
	})

	slog.Info("Train created", "train_id", train.ID, "number", train.Number, "dates", len(dates))
	return &models.CreateTrainResponse{ID: train.ID}, nil
}

// serviceDates parses an explicit service calendar, or defaults to the
// next defaultServiceDays days starting tomorrow.
func serviceDates(days []string, now time.Time) ([]time.Time, error) {
	if len(days) > 0 {
		dates := make([]time.Time, len(days))
		for i, d := range days {
			date, err := time.Parse("2006-01-02", d)
			if err != nil {
				return nil, fmt.Errorf("invalid service day %q: %w", d, err)
			}
			dates[i] = date
		}
		return dates, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, defaultServiceDays)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i+1)
	}
	return dates, nil
}

// ListTrains searches the catalog. Elasticsearch serves the query when
// configured; otherwise the database answers without relevance ranking.
func (s *Service) ListTrains(ctx context.Context, query string, page, pageSize int) ([]models.ListTrainsResponseItem, error) {
	var (
		trains []models.Train
		err    error
	)

	if s.search != nil {
		trains, err = s.search.Search(ctx, query, page, pageSize)
	} else {
		trains, err = s.repos.Catalog.ListTrains(ctx, page, pageSize)
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.ListTrainsResponseItem, len(trains))
	for i, t := range trains {
		items[i] = models.ListTrainsResponseItem{
			ID:          t.ID,
			Number:      t.Number,
			Name:        t.Name,
			Source:      t.Source,
			Destination: t.Destination,
		}
	}
	return items, nil
}

// GetTrainStops returns the ordered stop sequence of a train.
func (s *Service) GetTrainStops(ctx context.Context, trainID int64) ([]models.Stop, error) {
	stops, err := s.repos.Catalog.GetStops(ctx, trainID)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, apperr.ErrTrainNotFound
	}
	return stops, nil
}
