package repository

import (
	"context"
	"database/sql"

	"railbook/internal/database"
	"railbook/internal/models"
)

// InventoryRepository owns the persisted per-key seat counters.
type InventoryRepository struct {
	db *database.DB
}

func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Upsert(ctx context.Context, inv *models.Inventory) error {
	query := `
		INSERT INTO inventory (train_id, journey_date, coach_class, quota, total_seats, available_seats)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (train_id, journey_date, coach_class, quota)
		DO UPDATE SET total_seats = EXCLUDED.total_seats`

	_, err := r.db.ExecContext(ctx, query,
		inv.TrainID,
		inv.JourneyDate,
		inv.Class,
		inv.Quota,
		inv.TotalSeats,
	)

	return err
}

func (r *InventoryRepository) Get(ctx context.Context, key models.InventoryKey) (*models.Inventory, error) {
	inv := &models.Inventory{}
	query := `
		SELECT train_id, journey_date, coach_class, quota, total_seats, available_seats
		FROM inventory
		WHERE train_id = $1 AND journey_date = $2 AND coach_class = $3 AND quota = $4`

	err := r.db.QueryRowContext(ctx, query, key.TrainID, key.JourneyDate, key.Class, key.Quota).Scan(
		&inv.TrainID,
		&inv.JourneyDate,
		&inv.Class,
		&inv.Quota,
		&inv.TotalSeats,
		&inv.AvailableSeats,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return inv, err
}

// ListKeys returns every configured inventory key for journeys on or
// after the given date, used to warm the registry at service start.
func (r *InventoryRepository) ListKeys(ctx context.Context, fromDate string) ([]models.InventoryKey, error) {
	var keys []models.InventoryKey
	query := `
		SELECT train_id, to_char(journey_date, 'YYYY-MM-DD'), coach_class, quota
		FROM inventory
		WHERE journey_date >= $1
		ORDER BY train_id, journey_date`

	rows, err := r.db.QueryContext(ctx, query, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key models.InventoryKey
		if err := rows.Scan(&key.TrainID, &key.JourneyDate, &key.Class, &key.Quota); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Reconcile recomputes available_seats from the seats actually held by
// active bookings, returning the number of corrected rows. Ops tool for
// drift after manual interventions; the running service keeps the
// counter consistent transactionally.
func (r *InventoryRepository) Reconcile(ctx context.Context) (int64, error) {
	query := `
		UPDATE inventory i
		SET available_seats = i.total_seats - COALESCE(held.n, 0)
		FROM (
			SELECT b.train_id, b.journey_date, b.coach_class, b.quota, COUNT(*) AS n
			FROM passenger_seats ps
			JOIN bookings b ON b.id = ps.booking_id
			WHERE ps.coach_label IS NOT NULL
			  AND b.status IN ('pending_payment', 'confirmed')
			GROUP BY b.train_id, b.journey_date, b.coach_class, b.quota
		) held
		WHERE held.train_id = i.train_id
		  AND held.journey_date = i.journey_date
		  AND held.coach_class = i.coach_class
		  AND held.quota = i.quota
		  AND i.available_seats <> i.total_seats - held.n`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
