package repository

import (
	"context"
	"database/sql"

	"railbook/internal/database"
	"railbook/internal/models"
)

// CatalogRepository serves the static side of the system: stations,
// trains, ordered stop sequences and pricing rules.
type CatalogRepository struct {
	db *database.DB
}

func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	return r.db.QueryRowContext(ctx, query, station.Code, station.Name).Scan(&station.ID)
}

func (r *CatalogRepository) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	station := &models.Station{}
	query := `SELECT id, code, name FROM stations WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&station.ID, &station.Code, &station.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return station, err
}

// CreateTrain inserts a train together with its stop sequence and
// pricing rules in one transaction. Source and destination names are
// denormalized from the first and last stop.
func (r *CatalogRepository) CreateTrain(ctx context.Context, train *models.Train, stops []models.Stop, rules []models.PricingRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO trains (number, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query, train.Number, train.Name).
		Scan(&train.ID, &train.CreatedAt, &train.UpdatedAt)
	if err != nil {
		return err
	}

	stopQuery := `
		INSERT INTO train_stops (train_id, station_id, seq, distance_km)
		VALUES ($1, $2, $3, $4)`

	for _, stop := range stops {
		if _, err := tx.ExecContext(ctx, stopQuery, train.ID, stop.StationID, stop.Seq, stop.DistanceKm); err != nil {
			return err
		}
	}

	ruleQuery := `
		INSERT INTO pricing_rules (train_id, coach_class, base_rate_per_km, tatkal_multiplier,
		                           medium_threshold, medium_multiplier, high_threshold, high_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, rule := range rules {
		_, err := tx.ExecContext(ctx, ruleQuery, train.ID, rule.Class, rule.BaseRatePerKm,
			rule.TatkalMultiplier, rule.MediumThreshold, rule.MediumMultiplier,
			rule.HighThreshold, rule.HighMultiplier)
		if err != nil {
			return err
		}
	}

	endpointQuery := `
		UPDATE trains SET
			source = (SELECT s.name FROM train_stops ts JOIN stations s ON s.id = ts.station_id
			          WHERE ts.train_id = $1 ORDER BY ts.seq ASC LIMIT 1),
			destination = (SELECT s.name FROM train_stops ts JOIN stations s ON s.id = ts.station_id
			               WHERE ts.train_id = $1 ORDER BY ts.seq DESC LIMIT 1),
			updated_at = NOW()
		WHERE id = $1`

	if _, err := tx.ExecContext(ctx, endpointQuery, train.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	refreshed, err := r.GetTrain(ctx, train.ID)
	if err == nil && refreshed != nil {
		*train = *refreshed
	}
	return nil
}

func (r *CatalogRepository) GetTrain(ctx context.Context, id int64) (*models.Train, error) {
	train := &models.Train{}
	query := `
		SELECT id, number, name, source, destination, created_at, updated_at
		FROM trains
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&train.ID,
		&train.Number,
		&train.Name,
		&train.Source,
		&train.Destination,
		&train.CreatedAt,
		&train.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return train, err
}

// GetStops returns the ordered stop sequence of a train, with station
// names joined in for display.
func (r *CatalogRepository) GetStops(ctx context.Context, trainID int64) ([]models.Stop, error) {
	var stops []models.Stop
	query := `
		SELECT ts.train_id, ts.station_id, s.name, ts.seq, ts.distance_km
		FROM train_stops ts
		JOIN stations s ON s.id = ts.station_id
		WHERE ts.train_id = $1
		ORDER BY ts.seq`

	rows, err := r.db.QueryContext(ctx, query, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var stop models.Stop
		err := rows.Scan(
			&stop.TrainID,
			&stop.StationID,
			&stop.StationName,
			&stop.Seq,
			&stop.DistanceKm,
		)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

func (r *CatalogRepository) GetPricingRule(ctx context.Context, trainID int64, class models.CoachClass) (*models.PricingRule, error) {
	rule := &models.PricingRule{}
	query := `
		SELECT train_id, coach_class, base_rate_per_km, tatkal_multiplier,
		       medium_threshold, medium_multiplier, high_threshold, high_multiplier
		FROM pricing_rules
		WHERE train_id = $1 AND coach_class = $2`

	err := r.db.QueryRowContext(ctx, query, trainID, class).Scan(
		&rule.TrainID,
		&rule.Class,
		&rule.BaseRatePerKm,
		&rule.TatkalMultiplier,
		&rule.MediumThreshold,
		&rule.MediumMultiplier,
		&rule.HighThreshold,
		&rule.HighMultiplier,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return rule, err
}

// ListTrains is the database fallback used when Elasticsearch is not
// configured.
func (r *CatalogRepository) ListTrains(ctx context.Context, page, pageSize int) ([]models.Train, error) {
	var trains []models.Train
	query := `
		SELECT id, number, name, source, destination, created_at, updated_at
		FROM trains
		ORDER BY id
		LIMIT $1 OFFSET $2`

	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}

	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var train models.Train
		err := rows.Scan(
			&train.ID,
			&train.Number,
			&train.Name,
			&train.Source,
			&train.Destination,
			&train.CreatedAt,
			&train.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		trains = append(trains, train)
	}

	return trains, rows.Err()
}
