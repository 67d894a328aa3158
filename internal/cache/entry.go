package cache

import (
	"context"
	"fmt"
	"time"
)

// Status is whether a cached lookup found a value or confirmed its
// absence — both are cacheable outcomes with different TTLs (spec.md §3).
type Status string

const (
	StatusFound    Status = "FOUND"
	StatusNotFound Status = "NOT_FOUND"
)

// Entry is the envelope every namespace stores: the payload, whether it
// was found, and when it was written.
type Entry[T any] struct {
	Value     T         `json:"value"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TTL policy per namespace, from the Environment Contract (spec.md §6, §3).
const (
	TTLGeocoding        = 24 * time.Hour
	TTLPlacesStatic     = time.Hour
	TTLPlacesLive       = 5 * time.Minute
	TTLRanking          = 15 * time.Minute
	TTLIntent           = 10 * time.Minute
	TTLProviderFound    = 7 * 24 * time.Hour
	TTLProviderNotFound = 24 * time.Hour
	TTLProviderLock     = 60 * time.Second
)

// GeoKey builds the `geo:<normalized>` cache key.
func GeoKey(normalized string) string {
	return fmt.Sprintf("geo:%s", normalized)
}

// PlacesKey builds the `places:<q>:<lat4>,<lng4>:<radius>:<lang>:<live>` key.
func PlacesKey(query string, lat, lng float64, radiusMeters int, language string, liveDataRequested bool) string {
	return fmt.Sprintf("places:%s:%.4f,%.4f:%d:%s:%t", query, lat, lng, radiusMeters, language, liveDataRequested)
}

// RankKey builds the `rank:<resHash>:<intentHash>` key.
func RankKey(resultsHash, intentHash string) string {
	return fmt.Sprintf("rank:%s:%s", resultsHash, intentHash)
}

// IntentKey builds the `intent:<q>:<lang>[:<ctxHash>]` key. ctxHash is
// empty by default per the Open Question in spec.md §9 (session-context
// keying is off unless a caller explicitly supplies one).
func IntentKey(query, language, ctxHash string) string {
	if ctxHash == "" {
		return fmt.Sprintf("intent:%s:%s", query, language)
	}
	return fmt.Sprintf("intent:%s:%s:%s", query, language, ctxHash)
}

// ProviderKey builds the `provider:<p>:<placeId>` key.
func ProviderKey(provider, placeID string) string {
	return fmt.Sprintf("provider:%s:%s", provider, placeID)
}

// ProviderLockKey builds the `provider:<p>:lock:<placeId>` key.
func ProviderLockKey(provider, placeID string) string {
	return fmt.Sprintf("provider:%s:lock:%s", provider, placeID)
}

// GetEntry reads a typed Entry, returning ErrCacheMiss when absent.
func GetEntry[T any](ctx context.Context, m *Manager, key string) (Entry[T], error) {
	var e Entry[T]
	if err := m.GetJSON(ctx, key, &e); err != nil {
		return Entry[T]{}, err
	}
	return e, nil
}

// PutEntry writes a typed Entry with the TTL matching its status.
func PutEntry[T any](ctx context.Context, m *Manager, key string, value T, status Status, foundTTL, notFoundTTL time.Duration) error {
	ttl := notFoundTTL
	if status == StatusFound {
		ttl = foundTTL
	}
	entry := Entry[T]{Value: value, Status: status, UpdatedAt: time.Now().UTC()}
	return m.SetJSON(ctx, key, entry, ttl)
}
