package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsSubmittedTask(t *testing.T) {
	q := NewQueue("test", 1000, 2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var ran atomic.Bool
	done := make(chan struct{})
	q.Submit("t1", func(ctx context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	assert.True(t, ran.Load())
}

func TestQueueDeadLettersAfterMaxRetries(t *testing.T) {
	q := NewQueue("test", 1000, 1, 0)
	q.backoff = func(int) int { return 0 }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var calls atomic.Int32
	done := make(chan struct{})
	q.Submit("failing", func(ctx context.Context) error {
		calls.Add(1)
		close(done)
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	time.Sleep(50 * time.Millisecond)
	require.Len(t, q.DeadLetters(), 1)
}
