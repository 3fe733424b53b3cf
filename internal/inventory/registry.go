// Package inventory owns the per-InventoryKey contention state: one
// mutex, one seat pool and one waitlist queue per key, held by an
// explicit registry instance that is injected into the booking service.
// No process-wide mutable state.
package inventory

import (
	"context"
	"sync"

	"railbook/internal/allocation"
	"railbook/internal/models"
	"railbook/internal/waitlist"
)

// Snapshot is the persisted state a key is filled from.
type Snapshot struct {
	TotalSeats int
	// SoldLabels are seat labels ("S1-43") currently held by active
	// bookings.
	SoldLabels []string
	// Waitlist entries in ascending Seq order.
	Waitlist []waitlist.Entry
}

// FillFunc loads the persisted snapshot for a key. It must return
// (nil, nil) error with Found=false semantics via ok=false when the key
// has no configured inventory.
type FillFunc func(ctx context.Context, key models.InventoryKey) (snap Snapshot, ok bool, err error)

// Entry is the contention unit for one key. Its mutex guards the seat
// pool and the queue as one critical section: read counter,
// allocate-or-waitlist, update counter and queue all happen under it.
// Two entries are never locked at the same time.
type Entry struct {
	mu     sync.Mutex
	Key    models.InventoryKey
	Pool   *allocation.Pool
	Queue  *waitlist.Queue
	filled bool
}

// Registry maps InventoryKeys to entries. Entries are created on first
// access; the fill itself runs under the entry lock so concurrent
// first-touch callers cannot observe a half-filled key.
type Registry struct {
	mu      sync.Mutex
	entries map[models.InventoryKey]*Entry
	fill    FillFunc
}

// NewRegistry creates a registry backed by the given fill function.
func NewRegistry(fill FillFunc) *Registry {
	return &Registry{entries: make(map[models.InventoryKey]*Entry), fill: fill}
}

// Acquire returns the entry for a key with its lock held. The caller
// must call Release exactly once. ok=false means the key has no
// configured inventory (unknown train/date/class/quota combination).
func (r *Registry) Acquire(ctx context.Context, key models.InventoryKey) (e *Entry, ok bool, err error) {
	r.mu.Lock()
	e = r.entries[key]
	if e == nil {
		e = &Entry{Key: key}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	if !e.filled {
		if err := e.refill(ctx, r.fill); err != nil {
			e.mu.Unlock()
			return nil, false, err
		}
	}
	if e.Pool == nil {
		e.mu.Unlock()
		return nil, false, nil
	}
	return e, true, nil
}

// Release unlocks an acquired entry.
func (e *Entry) Release() {
	e.mu.Unlock()
}

// Refill reloads the entry from persistence while its lock is held.
// Used after a persist conflict indicates the in-memory view is stale.
func (e *Entry) Refill(ctx context.Context, r *Registry) error {
	return e.refill(ctx, r.fill)
}

func (e *Entry) refill(ctx context.Context, fill FillFunc) error {
	snap, ok, err := fill(context.WithoutCancel(ctx), e.Key)
	if err != nil {
		return err
	}
	if !ok {
		e.Pool = nil
		e.Queue = nil
		e.filled = true
		return nil
	}

	sold := make(map[string]bool, len(snap.SoldLabels))
	for _, label := range snap.SoldLabels {
		sold[label] = true
	}
	e.Pool = allocation.NewPool(e.Key.Class, snap.TotalSeats, sold)
	e.Queue = waitlist.NewQueue()
	for _, entry := range snap.Waitlist {
		e.Queue.Restore(entry)
	}
	e.filled = true
	return nil
}

// Warm pre-fills entries for the given keys at service start, so the
// first booking request after a restart does not pay the fill cost.
func (r *Registry) Warm(ctx context.Context, keys []models.InventoryKey) error {
	for _, key := range keys {
		e, ok, err := r.Acquire(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			e.Release()
		}
	}
	return nil
}

// Invalidate forgets one key, forcing a refill on next access. Called
// when inventory is published for a key that may have been probed (and
// cached as absent) before.
func (r *Registry) Invalidate(key models.InventoryKey) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// Drop forgets all cached entries. Test support: the next access per
// key refills from persistence.
func (r *Registry) Drop() {
	r.mu.Lock()
	r.entries = make(map[models.InventoryKey]*Entry)
	r.mu.Unlock()
}
