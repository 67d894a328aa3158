package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	logger := zap.NewNop()
	config := Config{
		Addr:       mr.Addr(),
		Password:   "",
		DB:         0,
		DefaultTTL: 1 * time.Minute,
	}

	manager, err := NewManager(config, logger)
	require.NoError(t, err)

	return mr, manager
}

func TestNewManager(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.redis)
	assert.NotNil(t, manager.logger)
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "test-key", "test-value", 1*time.Minute)
	require.NoError(t, err)

	value, err := manager.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-value", value)
}

func TestManager_GetNonExistent(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	value, err := manager.Get(ctx, "non-existent")
	assert.Error(t, err)
	assert.Equal(t, "", value)
}

func TestManager_Delete(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "test-key", "test-value", 1*time.Minute)
	require.NoError(t, err)

	err = manager.Delete(ctx, "test-key")
	require.NoError(t, err)

	_, err = manager.Get(ctx, "test-key")
	assert.Error(t, err)
}

func TestManager_SetJSON(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	type TestData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	data := TestData{
		Name:  "test",
		Value: 123,
	}

	err := manager.SetJSON(ctx, "test-json", data, 1*time.Minute)
	require.NoError(t, err)

	var result TestData
	err = manager.GetJSON(ctx, "test-json", &result)
	require.NoError(t, err)

	assert.Equal(t, data.Name, result.Name)
	assert.Equal(t, data.Value, result.Value)
}

func TestManager_GetJSONNonExistent(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	var result map[string]any
	err := manager.GetJSON(ctx, "non-existent", &result)
	assert.Error(t, err)
}

func TestManager_SetJSONInvalidData(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	invalidData := make(chan int)
	err := manager.SetJSON(ctx, "test-invalid", invalidData, 1*time.Minute)
	assert.Error(t, err)
}

func TestManager_GetJSONInvalidJSON(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "test-invalid-json", "not a json", 1*time.Minute)
	require.NoError(t, err)

	var result map[string]any
	err = manager.GetJSON(ctx, "test-invalid-json", &result)
	assert.Error(t, err)
}

func TestManager_TTL(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "test-ttl", "value", 100*time.Millisecond)
	require.NoError(t, err)

	value, err := manager.Get(ctx, "test-ttl")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	mr.FastForward(200 * time.Millisecond)

	_, err = manager.Get(ctx, "test-ttl")
	assert.Error(t, err)
}

func TestManager_HealthCheck(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Ping(ctx)
	assert.NoError(t, err)
}

func TestManager_HealthCheckFailed(t *testing.T) {
	logger := zap.NewNop()
	config := Config{
		Addr: "localhost:9999", // unreachable address
	}

	manager, err := NewManager(config, logger)
	assert.Nil(t, manager)
	assert.Error(t, err)
}

func TestManager_ConcurrentOperations(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "concurrent-" + string(rune('0'+id))
			err := manager.Set(ctx, key, "value", 1*time.Minute)
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "concurrent-" + string(rune('0'+id))
			value, err := manager.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, "value", value)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_SetNX(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	ok, err := manager.SetNX(ctx, "lock:place-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first SetNX should acquire the lock")

	ok, err = manager.SetNX(ctx, "lock:place-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX should find the lock already held")
}
