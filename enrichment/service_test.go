package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/types"
)

func setupServiceCache(t *testing.T) *cache.Manager {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	mgr, err := cache.NewManager(cache.Config{Addr: mr.Addr(), DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestService_AttachSkipsResultsWithoutPlaceID(t *testing.T) {
	cacheMgr := setupServiceCache(t)
	s := NewService(map[types.DeliveryProvider]bool{types.ProviderWolt: true}, cacheMgr, nil, nil, zap.NewNop())
	defer s.Close()

	result := &types.RestaurantResult{Name: "Tony Pizza"}
	s.Attach(context.Background(), "req-1", "Tel Aviv", result)

	assert.Empty(t, result.Providers)
}

func TestService_AttachReturnsCachedSlotOnHit(t *testing.T) {
	cacheMgr := setupServiceCache(t)
	url := "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza"
	err := cache.PutEntry(context.Background(), cacheMgr, cache.ProviderKey("wolt", "place-1"),
		types.ProviderSlot{Status: types.ProviderFound, URL: &url}, cache.StatusFound, cache.TTLProviderFound, cache.TTLProviderNotFound)
	require.NoError(t, err)

	s := NewService(map[types.DeliveryProvider]bool{types.ProviderWolt: true}, cacheMgr, nil, nil, zap.NewNop())
	defer s.Close()

	result := &types.RestaurantResult{PlaceID: "place-1", Name: "Tony Pizza"}
	s.Attach(context.Background(), "req-1", "Tel Aviv", result)

	require.Contains(t, result.Providers, types.ProviderWolt)
	assert.Equal(t, types.ProviderFound, result.Providers[types.ProviderWolt].Status)
}

func TestService_AttachReturnsPendingOnCacheMissAndAcquiresLock(t *testing.T) {
	cacheMgr := setupServiceCache(t)
	s := NewService(map[types.DeliveryProvider]bool{types.ProviderWolt: true}, cacheMgr, nil, nil, zap.NewNop())
	defer s.Close()

	result := &types.RestaurantResult{PlaceID: "place-2", Name: "Tony Pizza"}
	s.Attach(context.Background(), "req-1", "Tel Aviv", result)

	assert.Equal(t, types.ProviderPending, result.Providers[types.ProviderWolt].Status)

	held, err := cacheMgr.Exists(context.Background(), cache.ProviderLockKey("wolt", "place-2"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), held)
}

func TestService_AttachNoOpsWhenLockAlreadyHeld(t *testing.T) {
	cacheMgr := setupServiceCache(t)
	_, err := cacheMgr.SetNX(context.Background(), cache.ProviderLockKey("wolt", "place-3"), time.Minute)
	require.NoError(t, err)

	s := NewService(map[types.DeliveryProvider]bool{types.ProviderWolt: true}, cacheMgr, nil, nil, zap.NewNop())
	defer s.Close()

	result := &types.RestaurantResult{PlaceID: "place-3", Name: "Tony Pizza"}
	s.Attach(context.Background(), "req-1", "Tel Aviv", result)

	assert.Equal(t, types.ProviderPending, result.Providers[types.ProviderWolt].Status)
}

func TestService_AttachOnlyTouchesEnabledProviders(t *testing.T) {
	cacheMgr := setupServiceCache(t)
	s := NewService(map[types.DeliveryProvider]bool{types.ProviderWolt: true, types.ProviderTenBis: false}, cacheMgr, nil, nil, zap.NewNop())
	defer s.Close()

	result := &types.RestaurantResult{PlaceID: "place-4", Name: "Tony Pizza"}
	s.Attach(context.Background(), "req-1", "Tel Aviv", result)

	_, hasWolt := result.Providers[types.ProviderWolt]
	_, hasTenBis := result.Providers[types.ProviderTenBis]
	assert.True(t, hasWolt)
	assert.False(t, hasTenBis)
}
