// Package consumers runs the NATS event consumers: audit logging of
// booking lifecycle events and search indexing of new trains. The
// consumers never mutate inventory; allocation state lives in the API
// process.
package consumers

import (
	"context"

	"log/slog"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/messaging"
	"railbook/internal/models"
	"railbook/internal/repository"
	"railbook/internal/search"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	esClient, err := search.NewElasticsearchClient(config.LoadElasticsearchConfig())
	if err != nil {
		slog.Warn("Elasticsearch unavailable, train indexing disabled", "error", err)
		esClient = nil
	}

	handlers := NewHandlers(repos, esClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subjects := map[string]func() error{
		models.EventBookingCreated: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventBookingCreated, "consumers", cs.handlers.HandleBookingCreated)
			return err
		},
		models.EventBookingWaitlisted: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventBookingWaitlisted, "consumers", cs.handlers.HandleBookingWaitlisted)
			return err
		},
		models.EventBookingConfirmed: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventBookingConfirmed, "consumers", cs.handlers.HandleBookingConfirmed)
			return err
		},
		models.EventBookingCancelled: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventBookingCancelled, "consumers", cs.handlers.HandleBookingCancelled)
			return err
		},
		models.EventWaitlistPromoted: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventWaitlistPromoted, "consumers", cs.handlers.HandleWaitlistPromoted)
			return err
		},
		models.EventPaymentSucceeded: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventPaymentSucceeded, "consumers", cs.handlers.HandlePaymentSucceeded)
			return err
		},
		models.EventPaymentFailed: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventPaymentFailed, "consumers", cs.handlers.HandlePaymentFailed)
			return err
		},
		models.EventTrainCreated: func() error {
			_, err := cs.nats.SubscribeQueue(models.EventTrainCreated, "consumers", cs.handlers.HandleTrainCreated)
			return err
		},
	}

	for subject, subscribe := range subjects {
		if err := subscribe(); err != nil {
			slog.Error("Failed to subscribe", "subject", subject, "error", err)
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
