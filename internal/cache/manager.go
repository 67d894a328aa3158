// Package cache is the shared store behind every namespace in this repo:
// geocoding, places results, ranking, intent memoization, and provider
// deep-link slots plus their dedup locks (spec.md §6). It wraps a single
// Redis client; cache errors never propagate as request failures — the
// cache kind is bypass-only (DESIGN.md).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager is the shared cache client every namespace package wraps.
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config configures the underlying Redis connection.
type Config struct {
	Addr                string        `yaml:"addr" json:"addr"`
	Password            string        `yaml:"password" json:"password"`
	DB                  int           `yaml:"db" json:"db"`
	DefaultTTL          time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxRetries          int           `yaml:"max_retries" json:"max_retries"`
	PoolSize            int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns        int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig returns sane local-dev defaults.
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		DefaultTTL:          5 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// NewManager dials Redis, verifies the connection with a Ping, and starts
// the background health-check loop.
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "cache")),
	}

	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	logger.Info("cache manager initialized", zap.String("addr", config.Addr), zap.Int("poolSize", config.PoolSize))
	return m, nil
}

// Get reads a raw string value, returning ErrCacheMiss if absent.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", fmt.Errorf("cache manager is closed")
	}

	val, err := m.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

// Set writes a raw string value with the given TTL (DefaultTTL when zero).
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	if err := m.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// GetJSON reads and unmarshals a JSON value.
func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("unmarshal cache value: %w", err)
	}
	return nil
}

// SetJSON marshals and writes a JSON value.
func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return m.Set(ctx, key, string(data), ttl)
}

// Delete removes one or more keys.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Exists reports how many of keys are present.
func (m *Manager) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, fmt.Errorf("cache manager is closed")
	}
	count, err := m.redis.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}
	return count, nil
}

// SetNX attempts to acquire a lock key, returning true if this call won
// it. Used for the per-provider enrichment dedup lock (spec.md §4.7).
func (m *Manager) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, fmt.Errorf("cache manager is closed")
	}
	ok, err := m.redis.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx failed: %w", err)
	}
	return ok, nil
}

// Expire sets a key's TTL.
func (m *Manager) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}
	if err := m.redis.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire failed: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}
	return m.redis.Ping(ctx).Err()
}

// Close shuts the manager down; safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("closing cache manager")
	return m.redis.Close()
}

func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			return
		}
		m.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.Ping(ctx); err != nil {
			m.logger.Error("cache health check failed", zap.Error(err))
		}
		cancel()
	}
}

// ErrCacheMiss is returned by Get/GetJSON when the key is absent.
var ErrCacheMiss = fmt.Errorf("cache miss")

// IsCacheMiss reports whether err is ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}
