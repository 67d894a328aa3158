// Package retry provides the per-stage retry policies named in spec.md
// §5: geocoding 2 attempts/500ms backoff, places 2 attempts/1s backoff,
// web-search 3 attempts with exponential backoff (1s, then 2s, capped at
// 4s), and LLM calls that get a single attempt with a fallback instead of
// a retry. 429 and 5xx responses are retryable; every other status is not.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/types"
)

// Policy configures one retryer.
type Policy struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	Jitter          bool
	RetryableErrors []error
	OnRetry         func(attempt int, err error, delay time.Duration)
}

// GeocodingPolicy: 2 attempts, 500ms backoff (spec.md §5).
func GeocodingPolicy() *Policy {
	return &Policy{MaxRetries: 1, InitialDelay: 500 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Multiplier: 1, Jitter: false}
}

// PlacesPolicy: 2 attempts, 1s backoff.
func PlacesPolicy() *Policy {
	return &Policy{MaxRetries: 1, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1, Jitter: false}
}

// WebSearchPolicy: 3 attempts, exponential backoff 1s then 2s, capped at 4s.
func WebSearchPolicy() *Policy {
	return &Policy{MaxRetries: 2, InitialDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2, Jitter: false}
}

// Retryer runs a function under a Policy.
type Retryer interface {
	Do(ctx context.Context, fn func() error) error
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

type backoffRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// NewRetryer builds a Retryer from policy, normalizing invalid fields.
func NewRetryer(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = PlacesPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = policy.InitialDelay
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 1.0
	}
	return &backoffRetryer{policy: policy, logger: logger}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	_, err := r.DoWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

func (r *backoffRetryer) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var lastErr error
	var result any

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)

			r.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("maxRetries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !r.isRetryable(lastErr) {
			return nil, lastErr
		}
		if attempt >= r.policy.MaxRetries {
			break
		}
	}

	r.logger.Warn("retries exhausted", zap.Int("attempts", r.policy.MaxRetries+1), zap.Error(lastErr))
	return nil, fmt.Errorf("failed after %d retries: %w", r.policy.MaxRetries, lastErr)
}

func (r *backoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := delay * 0.25
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}

func (r *backoffRetryer) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if len(r.policy.RetryableErrors) == 0 {
		// A *types.Error that is neither marked Retryable nor wrapped by
		// WrapRetryable is a permanent failure (e.g. a non-429 4xx status).
		var te *types.Error
		if errors.As(err, &te) && !te.Retryable && !IsRetryableError(err) {
			return false
		}
		return true
	}
	for _, retryable := range r.policy.RetryableErrors {
		if errors.Is(err, retryable) {
			return true
		}
	}
	return false
}

// RetryableError marks an error as eligible for retry, distinct from
// types.Error's own Retryable field.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryableError reports whether err was wrapped by WrapRetryable.
func IsRetryableError(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// WrapRetryable wraps err as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsStatusRetryable reports whether an HTTP status code should trigger a
// retry: 429 and any 5xx (spec.md §5).
func IsStatusRetryable(statusCode int) bool {
	return statusCode == 429 || statusCode >= 500
}
