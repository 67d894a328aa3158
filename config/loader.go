// =============================================================================
// Configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("GRUBROUTE").
//	    Load()
//
// Priority: defaults -> YAML file -> environment variables.
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Core configuration structure — the Environment Contract (spec.md §6)
// =============================================================================

// Config is the complete configuration for the grubroute pipeline.
type Config struct {
	Server      ServerConfig      `yaml:"server" env:"SERVER"`
	Redis       RedisConfig       `yaml:"redis" env:"REDIS"`
	ModelClient ModelClientConfig `yaml:"model_client" env:"MODEL_CLIENT"`
	Places      ProviderAPIConfig `yaml:"places" env:"PLACES"`
	Geocode     ProviderAPIConfig `yaml:"geocode" env:"GEOCODE"`
	Brave       ProviderAPIConfig `yaml:"brave" env:"BRAVE"`
	GoogleCSE   GoogleCSEAPIConfig `yaml:"google_cse" env:"GOOGLE_CSE"`
	Stages      StageTimeouts     `yaml:"stages" env:"STAGES"`
	Cache       CacheSizes        `yaml:"cache" env:"CACHE"`
	Features    FeatureFlags      `yaml:"features" env:"FEATURES"`
	Log         LogConfig         `yaml:"log" env:"LOG"`
}

// ServerConfig controls the WebSocket-facing session transport.
type ServerConfig struct {
	WSPort            int           `yaml:"ws_port" env:"WS_PORT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"HEARTBEAT_INTERVAL"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// RedisConfig is the shared cache-manager connection.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// ModelClientConfig is the structured-output LLM backend used by every
// classifier stage.
type ModelClientConfig struct {
	BaseURL    string        `yaml:"base_url" env:"BASE_URL"`
	APIKey     string        `yaml:"api_key" env:"API_KEY"`
	Model      string        `yaml:"model" env:"MODEL"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"`
}

// ProviderAPIConfig is the outbound HTTP config shared by places and
// geocoding (see providers.PlacesConfig / providers.GeocodeConfig).
type ProviderAPIConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GoogleCSEAPIConfig adds the search-engine-ID Google's Custom Search
// API requires on top of the shared outbound-HTTP shape.
type GoogleCSEAPIConfig struct {
	APIKey         string        `yaml:"api_key" env:"API_KEY"`
	SearchEngineID string        `yaml:"search_engine_id" env:"SEARCH_ENGINE_ID"`
	BaseURL        string        `yaml:"base_url" env:"BASE_URL"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// StageTimeouts is the per-stage deadline budget (spec.md §6): gate 5s,
// intent 8s, route-llm 6s, post-constraints 5s, geocoding 3s, provider
// 5s, total 15s.
type StageTimeouts struct {
	Gate            time.Duration `yaml:"gate" env:"GATE"`
	Intent          time.Duration `yaml:"intent" env:"INTENT"`
	RouteLLM        time.Duration `yaml:"route_llm" env:"ROUTE_LLM"`
	PostConstraints time.Duration `yaml:"post_constraints" env:"POST_CONSTRAINTS"`
	Geocoding       time.Duration `yaml:"geocoding" env:"GEOCODING"`
	Provider        time.Duration `yaml:"provider" env:"PROVIDER"`
	Total           time.Duration `yaml:"total" env:"TOTAL"`
}

// CacheSizes is the per-namespace entry cap named in the Environment
// Contract. TTLs themselves live in internal/cache as named constants;
// these caps bound the advisory local-process footprint a deployment
// may additionally choose to enforce (e.g. an LRU fronting Redis).
type CacheSizes struct {
	GeocodingEntries int `yaml:"geocoding_entries" env:"GEOCODING_ENTRIES"`
	PlacesEntries    int `yaml:"places_entries" env:"PLACES_ENTRIES"`
	RankingEntries   int `yaml:"ranking_entries" env:"RANKING_ENTRIES"`
	IntentEntries    int `yaml:"intent_entries" env:"INTENT_ENTRIES"`
}

// FeatureFlags are the boolean switches named in the Environment
// Contract: enable_<provider>_enrichment and ws_require_auth.
type FeatureFlags struct {
	EnableWoltEnrichment     bool `yaml:"enable_wolt_enrichment" env:"ENABLE_WOLT_ENRICHMENT"`
	EnableTenBisEnrichment   bool `yaml:"enable_tenbis_enrichment" env:"ENABLE_TENBIS_ENRICHMENT"`
	EnableMishlohaEnrichment bool `yaml:"enable_mishloha_enrichment" env:"ENABLE_MISHLOHA_ENRICHMENT"`
	WSRequireAuth            bool `yaml:"ws_require_auth" env:"WS_REQUIRE_AUTH"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader is a builder-pattern config loader.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "GRUBROUTE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a config validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads the config. Priority: defaults -> YAML file -> env vars.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads the config, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads the config from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks invariants across the config.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.WSPort <= 0 || c.Server.WSPort > 65535 {
		errs = append(errs, "invalid ws port")
	}
	if c.Stages.Total <= 0 {
		errs = append(errs, "stages.total must be positive")
	}
	for _, d := range []time.Duration{c.Stages.Gate, c.Stages.Intent, c.Stages.RouteLLM, c.Stages.PostConstraints, c.Stages.Geocoding, c.Stages.Provider} {
		if d > c.Stages.Total {
			errs = append(errs, "per-stage timeouts exceed the total deadline")
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
