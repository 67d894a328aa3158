package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetryer_SucceedsAfterTransientFailures(t *testing.T) {
	r := NewRetryer(&Policy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, zap.NewNop())

	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryer_ExhaustsRetries(t *testing.T) {
	r := NewRetryer(&Policy{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, zap.NewNop())

	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		return errors.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryer_RespectsContextCancellation(t *testing.T) {
	r := NewRetryer(&Policy{MaxRetries: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: 50 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		return errors.New("keeps failing")
	})

	assert.Error(t, err)
}

func TestIsStatusRetryable(t *testing.T) {
	assert.True(t, IsStatusRetryable(429))
	assert.True(t, IsStatusRetryable(500))
	assert.True(t, IsStatusRetryable(503))
	assert.False(t, IsStatusRetryable(404))
	assert.False(t, IsStatusRetryable(200))
}
