package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0)
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job[string]{ID: id}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestQueueRejectsBeforeStartAndAfterStop(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job[string]) error { return nil }, QueueConfig{})
	require.ErrorIs(t, q.Enqueue(Job[string]{ID: "early"}), ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	require.ErrorIs(t, q.TryEnqueue(Job[string]{ID: "late"}), ErrQueueClosed)
}

func TestQueueTryEnqueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job[string]{ID: "1"}))
	<-started
	require.NoError(t, q.TryEnqueue(Job[string]{ID: "2"}))
	require.ErrorIs(t, q.TryEnqueue(Job[string]{ID: "3"}), ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueDoesNotRetryByDefault(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job[string]{ID: "once"}))
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRecoversFromPanic(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("handler exploded")
		}
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job[string]{ID: "panics"}))
	require.NoError(t, q.Enqueue(Job[string]{ID: "fine"}))
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueAppliesJobTimeout(t *testing.T) {
	deadlines := make(chan bool, 1)
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		_, ok := ctx.Deadline()
		deadlines <- ok
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1, Timeout: 10 * time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job[string]{ID: "slow", Payload: "c-1"}))
	q.Stop()

	assert.True(t, <-deadlines)
}

func TestQueueRetriesUpToMax(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			close(done)
			return nil
		}
		return errors.New("transient")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job[string]{ID: "flaky"}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
