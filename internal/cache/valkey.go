package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
}

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

// GetUserIDByAuth resolves Basic Auth credentials to a user id from the
// credential hash, avoiding a database round trip per request.
func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

// SetUserAuth stores a credential-to-user-id mapping after a successful
// database authentication.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))
	return v.client.HSet(ctx, v.usersHashKey, cacheKey, strconv.FormatInt(userID, 10)).Err()
}

// GetBookingIDByPNR resolves a PNR to a booking id.
func (v *ValkeyClient) GetBookingIDByPNR(ctx context.Context, pnr string) (int64, error) {
	val, err := v.client.Get(ctx, "pnr:"+pnr).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("pnr not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid booking ID in cache: %w", err)
	}

	return id, nil
}

// SetBookingPNR stores a PNR-to-booking-id mapping. PNRs are immutable
// for the life of a booking; a day of TTL keeps the keyspace bounded.
func (v *ValkeyClient) SetBookingPNR(ctx context.Context, pnr string, bookingID int64) error {
	return v.client.Set(ctx, "pnr:"+pnr, strconv.FormatInt(bookingID, 10), 24*time.Hour).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
