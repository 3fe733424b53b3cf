package repository

import (
	"context"

	"railbook/internal/database"
	"railbook/internal/models"
)

// WaitlistRepository reads the persisted waitlist mirror. Writes happen
// inside booking transactions; this repository only serves queue
// rebuilds and depth reporting.
type WaitlistRepository struct {
	db *database.DB
}

func NewWaitlistRepository(db *database.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// ListByKey returns the persisted queue entries of a key in seq order,
// used to rebuild the in-memory queue on registry fill.
func (r *WaitlistRepository) ListByKey(ctx context.Context, key models.InventoryKey) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	query := `
		SELECT id, booking_id, train_id, journey_date, coach_class, quota, seq, passengers
		FROM waitlist_entries
		WHERE train_id = $1 AND journey_date = $2 AND coach_class = $3 AND quota = $4
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, key.TrainID, key.JourneyDate, key.Class, key.Quota)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e models.WaitlistEntry
		err := rows.Scan(
			&e.ID,
			&e.BookingID,
			&e.TrainID,
			&e.JourneyDate,
			&e.Class,
			&e.Quota,
			&e.Seq,
			&e.Passengers,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CountByKey returns the persisted queue depth of a key.
func (r *WaitlistRepository) CountByKey(ctx context.Context, key models.InventoryKey) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM waitlist_entries
		WHERE train_id = $1 AND journey_date = $2 AND coach_class = $3 AND quota = $4`

	err := r.db.QueryRowContext(ctx, query, key.TrainID, key.JourneyDate, key.Class, key.Quota).Scan(&count)
	return count, err
}
