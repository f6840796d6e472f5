/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based read cache for schedule listings.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/telemetry"
)

// Default TTL values for different cache types
const (
	DefaultSessionListTTL  = 2 * time.Minute
	DefaultTrainerListTTL  = 10 * time.Minute
	DefaultUserBookingsTTL = 1 * time.Minute
)

// Key prefixes for Redis cache
const (
	keyPrefix       = "viberide:cache:"
	KeySessionList  = keyPrefix + "sessions"
	KeyTrainerList  = keyPrefix + "trainers"
	KeyUserBookings = keyPrefix + "bookings:" // + user_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionListTTL  time.Duration
	TrainerListTTL  time.Duration
	UserBookingsTTL time.Duration

	// DisableOnError trips the cache off after the first Redis failure.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:       "localhost:6379",
		SessionListTTL:  DefaultSessionListTTL,
		TrainerListTTL:  DefaultTrainerListTTL,
		UserBookingsTTL: DefaultUserBookingsTTL,
		DisableOnError:  true,
	}
}

// Cache provides Redis-backed caching with graceful fallback. A nil *Cache
// is valid and behaves as a permanently disabled cache.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New connects to Redis. An unreachable server yields a disabled cache, not an error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return Disabled(logger), nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, cfg Config, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}
}

// Disabled returns a cache that never stores anything.
func Disabled(logger zerolog.Logger) *Cache {
	return &Cache{
		logger:   logger.With().Str("component", "cache").Logger(),
		disabled: true,
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, family, key string, dest any) bool {
	if !c.IsAvailable() {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.CacheRequestsTotal.WithLabelValues(family, "miss").Inc()
		return false
	}
	if err != nil {
		telemetry.CacheRequestsTotal.WithLabelValues(family, "error").Inc()
		c.handleError(err, "get")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		telemetry.CacheRequestsTotal.WithLabelValues(family, "miss").Inc()
		return false
	}

	telemetry.CacheRequestsTotal.WithLabelValues(family, "hit").Inc()
	return true
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}
	return nil
}

// delete removes keys from cache.
func (c *Cache) delete(ctx context.Context, keys ...string) error {
	if !c.IsAvailable() {
		return nil
	}

	c.logger.Debug().Strs("keys", keys).Msg("invalidating cache keys")
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}
	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// SCAN instead of KEYS so large keyspaces don't block Redis.
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// GetSessionList returns the cached session list ordered by start.
func (c *Cache) GetSessionList(ctx context.Context) ([]models.Session, bool) {
	var sessions []models.Session
	if !c.get(ctx, "sessions", KeySessionList, &sessions) {
		return nil, false
	}
	return sessions, true
}

// SetSessionList caches the session list.
func (c *Cache) SetSessionList(ctx context.Context, sessions []models.Session) error {
	return c.set(ctx, KeySessionList, sessions, c.config.SessionListTTL)
}

// InvalidateSessions drops cached session listings.
func (c *Cache) InvalidateSessions(ctx context.Context) error {
	return c.delete(ctx, KeySessionList)
}

// GetTrainerList returns the cached trainer list.
func (c *Cache) GetTrainerList(ctx context.Context) ([]models.Trainer, bool) {
	var trainers []models.Trainer
	if !c.get(ctx, "trainers", KeyTrainerList, &trainers) {
		return nil, false
	}
	return trainers, true
}

// SetTrainerList caches the trainer list.
func (c *Cache) SetTrainerList(ctx context.Context, trainers []models.Trainer) error {
	return c.set(ctx, KeyTrainerList, trainers, c.config.TrainerListTTL)
}

// InvalidateTrainers drops the trainer list. Sessions embed trainer ids, so
// they are dropped too.
func (c *Cache) InvalidateTrainers(ctx context.Context) error {
	return c.delete(ctx, KeyTrainerList, KeySessionList)
}

// GetUserBookings returns a user's cached active bookings.
func (c *Cache) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, bool) {
	var bookings []models.Booking
	if !c.get(ctx, "bookings", KeyUserBookings+userID, &bookings) {
		return nil, false
	}
	return bookings, true
}

// SetUserBookings caches a user's active bookings.
func (c *Cache) SetUserBookings(ctx context.Context, userID string, bookings []models.Booking) error {
	return c.set(ctx, KeyUserBookings+userID, bookings, c.config.UserBookingsTTL)
}

// InvalidateUserBookings drops one user's bookings, or every user's when
// userID is empty.
func (c *Cache) InvalidateUserBookings(ctx context.Context, userID string) error {
	if userID == "" {
		return c.deletePattern(ctx, KeyUserBookings+"*")
	}
	return c.delete(ctx, KeyUserBookings+userID)
}

// FlushAll removes all cached data (use sparingly).
func (c *Cache) FlushAll(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Warn().Msg("flushing all cache data")
	return c.deletePattern(ctx, keyPrefix+"*")
}
