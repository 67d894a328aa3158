/*
Package cache provides the shared Redis-backed store for every namespace
used across the pipeline: geocoding results, places results, ranking
results, intent memoization, and provider deep-link slots plus their
dedup locks.

Manager owns the Redis connection lifecycle (dial, health-check loop,
graceful close) and exposes Get/Set/GetJSON/SetJSON/Delete/Exists/
Expire/SetNX. Cache-layer failures are never fatal to a request: callers
treat ErrCacheMiss and connection errors alike as "bypass the cache for
this read" rather than propagating an error up to the caller.
*/
package cache
