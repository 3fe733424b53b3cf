package api

import (
	"context"
	"fmt"
	"net/http"

	"log/slog"

	"railbook/internal/cache"
	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/external"
	"railbook/internal/handlers"
	"railbook/internal/logger"
	"railbook/internal/messaging"
	"railbook/internal/metrics"
	"railbook/internal/middleware"
	"railbook/internal/repository"
	"railbook/internal/search"
	"railbook/internal/service"

	"github.com/gin-gonic/gin"
)

// Server представляет HTTP сервер API
type Server struct {
	router  *gin.Engine
	config  *config.Config
	db      *database.DB
	nats    *messaging.NATSClient
	valkey  *cache.ValkeyClient
	service *service.Service
	repos   *repository.Repositories
}

// NewServer создает новый экземпляр сервера. База данных обязательна;
// NATS, Valkey и Elasticsearch опциональны и при недоступности только
// деградируют соответствующую функциональность.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, events disabled", "error", err)
		natsClient = nil
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, caching disabled", "error", err)
		valkeyClient = nil
	}

	esClient, err := search.NewElasticsearchClient(config.LoadElasticsearchConfig())
	if err != nil {
		slog.Warn("Elasticsearch unavailable, using database search fallback", "error", err)
		esClient = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)
	svc := service.New(cfg, repos, natsClient, valkeyClient, esClient, paymentClient)

	if err := svc.Warm(context.Background()); err != nil {
		slog.Warn("Failed to warm inventory registry", "error", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:  router,
		config:  cfg,
		db:      db,
		nats:    natsClient,
		valkey:  valkeyClient,
		service: svc,
		repos:   repos,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.service)

	api := s.router.Group("/api")
	// Обязательная Basic Auth для всех API роутов
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		trains := api.Group("/trains")
		{
			trains.POST("", h.CreateTrain)
			trains.GET("", h.ListTrains)
			trains.GET("/:id/stops", h.GetTrainStops)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.PATCH("/cancel", h.CancelBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.GET("/:id/waitlist", h.GetWaitlistPosition)
		}

		api.GET("/availability", h.GetAvailability)

		payments := api.Group("/payments")
		{
			payments.GET("/success", h.PaymentSuccess)
			payments.GET("/fail", h.PaymentFail)
			payments.POST("/notifications", h.PaymentNotifications)
		}

		api.POST("/reset", h.Reset)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   check.Status,
		"service":  "railbook-api",
		"database": check,
	})
}

// Service возвращает сервис бронирований (для фоновых задач).
func (s *Server) Service() *service.Service {
	return s.service
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
