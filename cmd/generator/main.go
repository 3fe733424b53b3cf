package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"log/slog"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/logger"
	"railbook/internal/models"
	"railbook/internal/repository"

	"github.com/google/uuid"
)

var (
	trainCount = flag.Int("trains", 10, "Number of trains to generate")
	dayCount   = flag.Int("days", 30, "Number of journey days to seed inventory for")
	userCount  = flag.Int("users", 50, "Number of test users to create")
	seed       = flag.Int64("seed", 0, "Random seed (0 = time-based)")
)

var stationNames = []struct {
	code string
	name string
}{
	{"NDLS", "New Delhi"},
	{"BCT", "Mumbai Central"},
	{"HWH", "Howrah Junction"},
	{"MAS", "Chennai Central"},
	{"SBC", "Bengaluru City"},
	{"PUNE", "Pune Junction"},
	{"JP", "Jaipur Junction"},
	{"LKO", "Lucknow"},
	{"BPL", "Bhopal Junction"},
	{"ALD", "Prayagraj Junction"},
	{"CNB", "Kanpur Central"},
	{"NGP", "Nagpur Junction"},
}

var trainNameParts = []string{
	"Rajdhani", "Shatabdi", "Duronto", "Garib Rath", "Sampark Kranti",
	"Superfast", "Intercity", "Mail", "Janshatabdi", "Humsafar",
}

type generator struct {
	repos *repository.Repositories
	rng   *rand.Rand
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting data generator", "trains", *trainCount, "days", *dayCount, "users", *userCount)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g := &generator{
		repos: repository.NewRepositories(db),
		rng:   rand.New(rand.NewSource(rngSeed)),
	}

	ctx := context.Background()

	stations, err := g.seedStations(ctx)
	if err != nil {
		logger.Fatal("Failed to seed stations", "error", err)
	}

	if err := g.seedTrains(ctx, stations); err != nil {
		logger.Fatal("Failed to seed trains", "error", err)
	}

	if err := g.seedUsers(ctx); err != nil {
		logger.Fatal("Failed to seed users", "error", err)
	}

	slog.Info("Data generation completed successfully")
}

func (g *generator) seedStations(ctx context.Context) ([]models.Station, error) {
	stations := make([]models.Station, 0, len(stationNames))
	for _, sn := range stationNames {
		station := models.Station{Code: sn.code, Name: sn.name}
		if err := g.repos.Catalog.CreateStation(ctx, &station); err != nil {
			return nil, fmt.Errorf("failed to create station %s: %w", sn.code, err)
		}
		stations = append(stations, station)
	}

	slog.Info("Stations seeded", "count", len(stations))
	return stations, nil
}

func (g *generator) seedTrains(ctx context.Context, stations []models.Station) error {
	for i := 0; i < *trainCount; i++ {
		// 3-6 остановок вдоль случайного подмножества станций.
		stopCount := 3 + g.rng.Intn(4)
		picked := g.rng.Perm(len(stations))[:stopCount]

		stops := make([]models.Stop, stopCount)
		distance := 0.0
		for j, idx := range picked {
			if j > 0 {
				distance += 100 + float64(g.rng.Intn(400))
			}
			stops[j] = models.Stop{
				StationID:  stations[idx].ID,
				Seq:        j + 1,
				DistanceKm: distance,
			}
		}

		classes := []models.CoachClass{models.ClassSL, models.Class3A, models.Class2A}
		rules := make([]models.PricingRule, len(classes))
		for j, class := range classes {
			rules[j] = models.PricingRule{
				Class:            class,
				BaseRatePerKm:    0.4 + float64(j)*0.5,
				TatkalMultiplier: 1.1 + g.rng.Float64()*0.3,
				MediumThreshold:  0.5,
				MediumMultiplier: 1.1,
				HighThreshold:    0.8,
				HighMultiplier:   1.25,
			}
		}

		train := &models.Train{
			Number: fmt.Sprintf("%05d", 10000+g.rng.Intn(90000)),
			Name:   trainNameParts[g.rng.Intn(len(trainNameParts))] + " Express",
		}
		if err := g.repos.Catalog.CreateTrain(ctx, train, stops, rules); err != nil {
			return fmt.Errorf("failed to create train: %w", err)
		}

		if err := g.seedInventory(ctx, train.ID, classes); err != nil {
			return err
		}

		slog.Info("Train seeded", "train_id", train.ID, "number", train.Number, "stops", stopCount)
	}

	return nil
}

func (g *generator) seedInventory(ctx context.Context, trainID int64, classes []models.CoachClass) error {
	totals := map[models.CoachClass]int{
		models.ClassSL: 144,
		models.Class3A: 64,
		models.Class2A: 46,
	}

	today := time.Now().Truncate(24 * time.Hour)
	for d := 1; d <= *dayCount; d++ {
		date := today.AddDate(0, 0, d)
		for _, class := range classes {
			total := totals[class]
			// Примерно 80% мест в general, 20% в tatkal.
			general := total * 8 / 10
			tatkal := total - general

			for quota, seats := range map[models.Quota]int{
				models.QuotaGeneral: general,
				models.QuotaTatkal:  tatkal,
			} {
				inv := &models.Inventory{
					TrainID:     trainID,
					JourneyDate: date,
					Class:       class,
					Quota:       quota,
					TotalSeats:  seats,
				}
				if err := g.repos.Inventory.Upsert(ctx, inv); err != nil {
					return fmt.Errorf("failed to seed inventory: %w", err)
				}
			}
		}
	}

	return nil
}

func (g *generator) seedUsers(ctx context.Context) error {
	hash := sha256.Sum256([]byte("password123"))
	passwordHash := fmt.Sprintf("%x", hash)

	for i := 0; i < *userCount; i++ {
		user := &models.User{
			Email:        fmt.Sprintf("user-%s@example.com", uuid.New().String()[:8]),
			PasswordHash: passwordHash,
			FirstName:    fmt.Sprintf("Test%d", i+1),
			Surname:      "User",
			IsActive:     true,
		}
		if err := g.repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	slog.Info("Users seeded", "count", *userCount, "password", "password123")
	return nil
}
