package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, ModelClientConfig{}, cfg.ModelClient)
	assert.NotEqual(t, ProviderAPIConfig{}, cfg.Places)
	assert.NotEqual(t, ProviderAPIConfig{}, cfg.Geocode)
	assert.NotEqual(t, StageTimeouts{}, cfg.Stages)
	assert.NotEqual(t, CacheSizes{}, cfg.Cache)
	assert.NotEqual(t, FeatureFlags{}, cfg.Features)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.WSPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
}

func TestDefaultModelClientConfig(t *testing.T) {
	cfg := DefaultModelClientConfig()
	assert.Equal(t, "default", cfg.Model)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
}

func TestDefaultPlacesAPIConfig(t *testing.T) {
	cfg := DefaultPlacesAPIConfig()
	assert.Contains(t, cfg.BaseURL, "maps.googleapis.com")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestDefaultGeocodeAPIConfig(t *testing.T) {
	cfg := DefaultGeocodeAPIConfig()
	assert.Contains(t, cfg.BaseURL, "maps.googleapis.com")
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestDefaultStageTimeouts(t *testing.T) {
	cfg := DefaultStageTimeouts()
	assert.Equal(t, 5*time.Second, cfg.Gate)
	assert.Equal(t, 8*time.Second, cfg.Intent)
	assert.Equal(t, 6*time.Second, cfg.RouteLLM)
	assert.Equal(t, 5*time.Second, cfg.PostConstraints)
	assert.Equal(t, 3*time.Second, cfg.Geocoding)
	assert.Equal(t, 5*time.Second, cfg.Provider)
	assert.Equal(t, 15*time.Second, cfg.Total)
}

func TestDefaultCacheSizes(t *testing.T) {
	cfg := DefaultCacheSizes()
	assert.Equal(t, 500, cfg.GeocodingEntries)
	assert.Equal(t, 1000, cfg.PlacesEntries)
	assert.Equal(t, 500, cfg.RankingEntries)
	assert.Equal(t, 200, cfg.IntentEntries)
}

func TestDefaultFeatureFlags(t *testing.T) {
	cfg := DefaultFeatureFlags()
	assert.True(t, cfg.EnableWoltEnrichment)
	assert.True(t, cfg.EnableTenBisEnrichment)
	assert.True(t, cfg.EnableMishlohaEnrichment)
	assert.True(t, cfg.WSRequireAuth)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}
