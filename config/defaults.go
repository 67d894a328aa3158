// =============================================================================
// Default configuration
// =============================================================================
// Sensible defaults for every config section, matching the Environment
// Contract in spec.md §6.
// =============================================================================
package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:      DefaultServerConfig(),
		Redis:       DefaultRedisConfig(),
		ModelClient: DefaultModelClientConfig(),
		Places:      DefaultPlacesAPIConfig(),
		Geocode:     DefaultGeocodeAPIConfig(),
		Brave:       DefaultBraveAPIConfig(),
		GoogleCSE:   DefaultGoogleCSEAPIConfig(),
		Stages:      DefaultStageTimeouts(),
		Cache:       DefaultCacheSizes(),
		Features:    DefaultFeatureFlags(),
		Log:         DefaultLogConfig(),
	}
}

// DefaultServerConfig returns the default server config.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		WSPort:            8080,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}
}

// DefaultRedisConfig returns the default Redis config.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultModelClientConfig returns the default structured-output LLM config.
func DefaultModelClientConfig() ModelClientConfig {
	return ModelClientConfig{
		BaseURL:    "",
		Model:      "default",
		Timeout:    8 * time.Second,
		MaxRetries: 0,
	}
}

// DefaultPlacesAPIConfig returns the default places provider config.
func DefaultPlacesAPIConfig() ProviderAPIConfig {
	return ProviderAPIConfig{
		BaseURL: "https://maps.googleapis.com/maps/api/place",
		Timeout: 5 * time.Second,
	}
}

// DefaultGeocodeAPIConfig returns the default geocoding provider config.
func DefaultGeocodeAPIConfig() ProviderAPIConfig {
	return ProviderAPIConfig{
		BaseURL: "https://maps.googleapis.com/maps/api/geocode",
		Timeout: 3 * time.Second,
	}
}

// DefaultBraveAPIConfig returns the default Brave Search provider config.
// APIKey is empty by default: an unset key means Brave is unavailable
// and search.Select falls through to Google CSE or, failing that, returns
// no engine, in which case the resolver runs no search and every
// enrichment job ends NOT_FOUND.
func DefaultBraveAPIConfig() ProviderAPIConfig {
	return ProviderAPIConfig{
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Timeout: 5 * time.Second,
	}
}

// DefaultGoogleCSEAPIConfig returns the default Google Custom Search
// provider config.
func DefaultGoogleCSEAPIConfig() GoogleCSEAPIConfig {
	return GoogleCSEAPIConfig{
		BaseURL: "https://www.googleapis.com/customsearch/v1",
		Timeout: 5 * time.Second,
	}
}

// DefaultStageTimeouts returns the per-stage deadlines from spec.md §6.
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Gate:            5 * time.Second,
		Intent:          8 * time.Second,
		RouteLLM:        6 * time.Second,
		PostConstraints: 5 * time.Second,
		Geocoding:       3 * time.Second,
		Provider:        5 * time.Second,
		Total:           15 * time.Second,
	}
}

// DefaultCacheSizes returns the per-namespace entry caps from spec.md §6.
func DefaultCacheSizes() CacheSizes {
	return CacheSizes{
		GeocodingEntries: 500,
		PlacesEntries:    1000,
		RankingEntries:   500,
		IntentEntries:    200,
	}
}

// DefaultFeatureFlags returns the default feature flags. Enrichment is on
// by default for all three providers; auth is required by default (the
// dev-only anonymous bypass is opt-in, never the default).
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		EnableWoltEnrichment:     true,
		EnableTenBisEnrichment:   true,
		EnableMishlohaEnrichment: true,
		WSRequireAuth:            true,
	}
}

// DefaultLogConfig returns the default log config.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
