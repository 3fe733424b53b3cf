// Package service implements the booking orchestration: every state
// transition of a booking happens inside the critical section of its
// inventory entry, then persists transactionally, so the in-memory pool
// and the database counter cannot drift apart.
package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"railbook/internal/cache"
	"railbook/internal/config"
	"railbook/internal/external"
	"railbook/internal/inventory"
	"railbook/internal/messaging"
	"railbook/internal/models"
	"railbook/internal/repository"
	"railbook/internal/route"
	"railbook/internal/search"
	"railbook/internal/waitlist"
)

// Service owns the booking core. NATS, Valkey, Elasticsearch and the
// payment gateway are optional collaborators: a nil client degrades the
// feature (no events, no cache, database search fallback) without
// touching booking correctness.
type Service struct {
	cfg      *config.Config
	repos    *repository.Repositories
	registry *inventory.Registry
	routes   *route.Index
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	search   *search.ElasticsearchClient
	payments *external.PaymentClient

	// now is injected so tatkal windows and payment expiry are testable.
	now func() time.Time
}

func New(cfg *config.Config, repos *repository.Repositories, nats *messaging.NATSClient, valkey *cache.ValkeyClient, es *search.ElasticsearchClient, payments *external.PaymentClient) *Service {
	s := &Service{
		cfg:      cfg,
		repos:    repos,
		nats:     nats,
		valkey:   valkey,
		search:   es,
		payments: payments,
		now:      time.Now,
	}

	s.registry = inventory.NewRegistry(s.fillEntry)
	s.routes = route.NewIndex(repos.Catalog.GetStops)

	return s
}

// WithClock overrides the service clock. Test support.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Warm pre-fills the inventory registry for upcoming journeys.
func (s *Service) Warm(ctx context.Context) error {
	keys, err := s.repos.Inventory.ListKeys(ctx, s.now().Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to list inventory keys: %w", err)
	}

	if err := s.registry.Warm(ctx, keys); err != nil {
		return fmt.Errorf("failed to warm inventory registry: %w", err)
	}

	slog.Info("Inventory registry warmed", "keys", len(keys))
	return nil
}

// fillEntry rebuilds the in-memory state of one key from persistence:
// the configured total, the labels of seats held by active bookings and
// the persisted waitlist in seq order.
func (s *Service) fillEntry(ctx context.Context, key models.InventoryKey) (inventory.Snapshot, bool, error) {
	inv, err := s.repos.Inventory.Get(ctx, key)
	if err != nil {
		return inventory.Snapshot{}, false, fmt.Errorf("failed to load inventory: %w", err)
	}
	if inv == nil {
		return inventory.Snapshot{}, false, nil
	}

	labels, err := s.repos.Bookings.ActiveSeatLabels(ctx, key)
	if err != nil {
		return inventory.Snapshot{}, false, fmt.Errorf("failed to load held seats: %w", err)
	}

	persisted, err := s.repos.Waitlist.ListByKey(ctx, key)
	if err != nil {
		return inventory.Snapshot{}, false, fmt.Errorf("failed to load waitlist: %w", err)
	}

	entries := make([]waitlist.Entry, len(persisted))
	for i, e := range persisted {
		entries[i] = waitlist.Entry{BookingID: e.BookingID, Passengers: e.Passengers, Seq: e.Seq}
	}

	return inventory.Snapshot{
		TotalSeats: inv.TotalSeats,
		SoldLabels: labels,
		Waitlist:   entries,
	}, true, nil
}

// publish sends a domain event, best-effort. Event delivery never fails
// a booking operation.
func (s *Service) publish(subject string, event interface{}) {
	if s.nats == nil {
		return
	}
	if err := s.nats.Publish(subject, event); err != nil {
		slog.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// generatePNR returns a 10-digit passenger name record. Uniqueness is
// enforced by the database; collisions at 10 random digits are retried
// by the caller.
func generatePNR() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand on a supported platform does not fail; fall back
		// to the clock rather than panic.
		binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	}
	n := binary.BigEndian.Uint64(buf[:]) % 9_000_000_000
	return strconv.FormatUint(1_000_000_000+n, 10)
}

// orderIDFor derives the payment gateway order id of a booking.
func orderIDFor(bookingID int64) string {
	return "RB-" + strconv.FormatInt(bookingID, 10)
}

// ParseOrderID resolves a gateway order id back to a booking id.
func ParseOrderID(orderID string) (int64, bool) {
	rest, ok := strings.CutPrefix(orderID, "RB-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
