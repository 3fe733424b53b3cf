package main

import (
	"context"
	"flag"
	"time"

	"log/slog"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/logger"
	"railbook/internal/repository"
)

// Reconciles inventory available_seats counters against the seats
// actually held by active bookings. The running service keeps the two
// consistent transactionally; this tool repairs drift after manual
// interventions or restores.
func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "Report drift without fixing it")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting inventory reconciliation")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	repos := repository.NewRepositories(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if dryRun {
		drifted, err := countDrift(ctx, db)
		if err != nil {
			logger.Fatal("Failed to count drift", "error", err)
		}
		slog.Info("Dry run complete", "drifted_rows", drifted)
		return
	}

	start := time.Now()
	corrected, err := repos.Inventory.Reconcile(ctx)
	if err != nil {
		logger.Fatal("Reconciliation failed", "error", err)
	}

	slog.Info("Reconciliation complete",
		"corrected_rows", corrected,
		"duration_ms", time.Since(start).Milliseconds())
}

func countDrift(ctx context.Context, db *database.DB) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM inventory i
		LEFT JOIN (
			SELECT b.train_id, b.journey_date, b.coach_class, b.quota, COUNT(*) AS n
			FROM passenger_seats ps
			JOIN bookings b ON b.id = ps.booking_id
			WHERE ps.coach_label IS NOT NULL
			  AND b.status IN ('pending_payment', 'confirmed')
			GROUP BY b.train_id, b.journey_date, b.coach_class, b.quota
		) held ON held.train_id = i.train_id
		      AND held.journey_date = i.journey_date
		      AND held.coach_class = i.coach_class
		      AND held.quota = i.quota
		WHERE i.available_seats <> i.total_seats - COALESCE(held.n, 0)`

	var count int64
	err := db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
