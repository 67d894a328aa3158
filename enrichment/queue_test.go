package enrichment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestQueue_ProcessesJobsInEnqueueOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	gate := make(chan struct{})
	q := newQueue(10, zap.NewNop(), func(ctx context.Context, j job) error {
		<-gate
		mu.Lock()
		order = append(order, j.PlaceID)
		mu.Unlock()
		return nil
	})
	defer q.Close()

	q.Enqueue(job{PlaceID: "a"})
	q.Enqueue(job{PlaceID: "b"})
	q.Enqueue(job{PlaceID: "c"})
	close(gate)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestQueue_DeduplicatesPendingPlaceID(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})

	q := newQueue(10, zap.NewNop(), func(ctx context.Context, j job) error {
		<-gate
		calls.Add(1)
		return nil
	})
	defer q.Close()

	q.Enqueue(job{PlaceID: "dup"})
	q.Enqueue(job{PlaceID: "dup"})
	close(gate)

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueue_AllowsReenqueueAfterCompletion(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 2)

	q := newQueue(10, zap.NewNop(), func(ctx context.Context, j job) error {
		calls.Add(1)
		done <- struct{}{}
		return nil
	})
	defer q.Close()

	q.Enqueue(job{PlaceID: "p"})
	<-done

	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return !q.pending["p"]
	}, time.Second, 5*time.Millisecond)

	q.Enqueue(job{PlaceID: "p"})
	<-done

	assert.Equal(t, int32(2), calls.Load())
}
