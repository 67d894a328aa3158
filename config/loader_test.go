// Config loader and defaults tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.WSPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  ws_port: 8888
  read_timeout: 60s

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

stages:
  gate: 10s

log:
  level: "debug"
  format: "console"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.WSPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, 10*time.Second, cfg.Stages.Gate)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	envVars := map[string]string{
		"GRUBROUTE_SERVER_WS_PORT": "7777",
		"GRUBROUTE_REDIS_ADDR":     "env-redis:6379",
		"GRUBROUTE_LOG_LEVEL":      "warn",
	}

	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.WSPort)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  ws_port: 8888
redis:
  addr: "yaml-redis:6379"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	os.Setenv("GRUBROUTE_SERVER_WS_PORT", "9999")
	defer os.Unsetenv("GRUBROUTE_SERVER_WS_PORT")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.WSPort)
	assert.Equal(t, "yaml-redis:6379", cfg.Redis.Addr)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	os.Setenv("MYAPP_SERVER_WS_PORT", "6666")
	defer os.Unsetenv("MYAPP_SERVER_WS_PORT")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.WSPort)
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.WSPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	os.Setenv("GRUBROUTE_SERVER_WS_PORT", "80")
	defer os.Unsetenv("GRUBROUTE_SERVER_WS_PORT")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.WSPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  ws_port: [invalid
  this is not valid yaml
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	_, err = NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid ws port (negative)",
			modify: func(c *Config) {
				c.Server.WSPort = -1
			},
			wantErr: true,
		},
		{
			name: "invalid ws port (too large)",
			modify: func(c *Config) {
				c.Server.WSPort = 70000
			},
			wantErr: true,
		},
		{
			name: "zero total deadline",
			modify: func(c *Config) {
				c.Stages.Total = 0
			},
			wantErr: true,
		},
		{
			name: "per-stage timeouts exceed total",
			modify: func(c *Config) {
				c.Stages.Total = time.Second
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  ws_port: 8080
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.WSPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	err := os.WriteFile(configPath, []byte("invalid: [yaml"), 0644)
	require.NoError(t, err)

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	os.Setenv("GRUBROUTE_LOG_LEVEL", "debug")
	defer os.Unsetenv("GRUBROUTE_LOG_LEVEL")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
