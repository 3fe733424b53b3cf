package consumers

import (
	"context"
	"encoding/json"

	"log/slog"

	"railbook/internal/models"
	"railbook/internal/repository"
	"railbook/internal/search"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos  *repository.Repositories
	search *search.ElasticsearchClient
}

func NewHandlers(repos *repository.Repositories, es *search.ElasticsearchClient) *Handlers {
	return &Handlers{
		repos:  repos,
		search: es,
	}
}

func (h *Handlers) HandleBookingCreated(m *stan.Msg) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	slog.Info("Booking created",
		"booking_id", event.BookingID,
		"pnr", event.PNR,
		"train_id", event.Key.TrainID,
		"journey_date", event.Key.JourneyDate,
		"coach_class", event.Key.Class,
		"quota", event.Key.Quota,
		"status", event.Status)

	m.Ack()
}

func (h *Handlers) HandleBookingWaitlisted(m *stan.Msg) {
	var event models.BookingWaitlistedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking waitlisted event", "error", err)
		return
	}

	slog.Info("Booking waitlisted",
		"booking_id", event.BookingID,
		"pnr", event.PNR,
		"position", event.Position,
		"seq", event.Seq)

	m.Ack()
}

func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return
	}

	slog.Info("Booking confirmed", "booking_id", event.BookingID, "pnr", event.PNR)

	m.Ack()
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Booking cancelled",
		"booking_id", event.BookingID,
		"pnr", event.PNR,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleWaitlistPromoted(m *stan.Msg) {
	var event models.WaitlistPromotedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal waitlist promoted event", "error", err)
		return
	}

	slog.Info("Waitlist promoted",
		"booking_id", event.BookingID,
		"pnr", event.PNR,
		"seq", event.Seq)

	m.Ack()
}

func (h *Handlers) HandlePaymentSucceeded(m *stan.Msg) {
	var event models.PaymentSucceededEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment succeeded event", "error", err)
		return
	}

	slog.Info("Payment succeeded",
		"booking_id", event.BookingID,
		"order_id", event.OrderID,
		"amount", event.Amount)

	m.Ack()
}

func (h *Handlers) HandlePaymentFailed(m *stan.Msg) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	slog.Info("Payment failed",
		"booking_id", event.BookingID,
		"order_id", event.OrderID,
		"reason", event.Reason)

	m.Ack()
}

// HandleTrainCreated indexes a new train for search. The document id is
// the train id, so redelivered events overwrite idempotently.
func (h *Handlers) HandleTrainCreated(m *stan.Msg) {
	var event models.TrainCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal train created event", "error", err)
		return
	}

	if h.search != nil {
		ctx := context.Background()
		train, err := h.repos.Catalog.GetTrain(ctx, event.TrainID)
		if err != nil {
			slog.Error("Failed to load train for indexing", "train_id", event.TrainID, "error", err)
			return
		}
		if train != nil {
			if err := h.search.IndexTrain(ctx, train); err != nil {
				slog.Error("Failed to index train", "train_id", event.TrainID, "error", err)
				return
			}
			slog.Info("Train indexed", "train_id", event.TrainID, "number", train.Number)
		}
	}

	m.Ack()
}
