package config

import (
	"os"
	"strconv"
	"time"

	"railbook/internal/cache"
	"railbook/internal/database"
	"railbook/internal/external"
	"railbook/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Tatkal booking windows: local clock times at which tatkal
	// bookings open on the day before the journey, per class group.
	TatkalOpenAC    string
	TatkalOpenNonAC string

	// Pending-payment bookings older than this are cancelled and
	// their seats promoted to the waitlist.
	PaymentTimeout time.Duration

	Database database.Config
	NATS     messaging.Config
	Valkey   cache.Config
	Payment  external.PaymentConfig
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		TatkalOpenAC:    getEnv("TATKAL_OPEN_AC", "10:00"),
		TatkalOpenNonAC: getEnv("TATKAL_OPEN_NON_AC", "11:00"),
		PaymentTimeout:  time.Duration(getEnvInt("PAYMENT_TIMEOUT_MIN", 15)) * time.Minute,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "railbook"),
			Password:           getEnv("DB_PASSWORD", "railbook123"),
			DBName:             getEnv("DB_NAME", "railbook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "railbook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "railbook-api"),
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     os.Getenv("VALKEY_PASSWORD"),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
		},

		Payment: external.PaymentConfig{
			BaseURL:  getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090/gateway"),
			TeamSlug: getEnv("PAYMENT_TEAM_SLUG", "railbook"),
			Password: getEnv("PAYMENT_PASSWORD", ""),
			Timeout:  time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
