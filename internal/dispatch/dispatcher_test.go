package dispatch

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

// ============================================
// Execution
// ============================================

func TestDispatcher_RunsTask(t *testing.T) {
	d := New(2, 8, time.Second)
	defer d.Close()

	done := make(chan struct{})
	ok := d.Dispatch("test.run", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestDispatcher_ErrorsAreSwallowed(t *testing.T) {
	d := New(1, 8, time.Second)

	var afterFailure atomic.Bool
	d.Dispatch("test.fail", func(ctx context.Context) error {
		return errors.New("smtp unreachable")
	})
	d.Dispatch("test.after", func(ctx context.Context) error {
		afterFailure.Store(true)
		return nil
	})

	d.Close()
	assert.True(t, afterFailure.Load(), "a failed task must not stop the pool")
}

func TestDispatcher_PanicsAreRecovered(t *testing.T) {
	d := New(1, 8, time.Second)

	var afterPanic atomic.Bool
	d.Dispatch("test.panic", func(ctx context.Context) error {
		panic("boom")
	})
	d.Dispatch("test.after", func(ctx context.Context) error {
		afterPanic.Store(true)
		return nil
	})

	d.Close()
	assert.True(t, afterPanic.Load(), "a panicking task must not kill its worker")
}

func TestDispatcher_TaskTimeout(t *testing.T) {
	d := New(1, 8, 20*time.Millisecond)
	defer d.Close()

	expired := make(chan bool, 1)
	d.Dispatch("test.timeout", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			expired <- true
		case <-time.After(time.Second):
			expired <- false
		}
		return ctx.Err()
	})

	select {
	case ok := <-expired:
		assert.True(t, ok, "task context should expire at the configured timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed its context")
	}
}

// ============================================
// Backpressure
// ============================================

func TestDispatcher_FullQueueDrops(t *testing.T) {
	d := New(1, 1, time.Second)
	defer d.Close()

	var release sync.WaitGroup
	release.Add(1)
	started := make(chan struct{})

	// Occupy the single worker
	d.Dispatch("test.block", func(ctx context.Context) error {
		close(started)
		release.Wait()
		return nil
	})
	<-started

	// Fill the single queue slot
	require.True(t, d.Dispatch("test.queued", func(ctx context.Context) error { return nil }))

	// Nothing left to absorb this one
	assert.False(t, d.Dispatch("test.dropped", func(ctx context.Context) error { return nil }))

	release.Done()
}

// ============================================
// Shutdown
// ============================================

func TestDispatcher_CloseWaitsForQueuedTasks(t *testing.T) {
	d := New(2, 16, time.Second)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, d.Dispatch("test.batch", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	d.Close()
	assert.Equal(t, int32(10), ran.Load())
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	d := New(1, 8, time.Second)
	d.Close()

	ok := d.Dispatch("test.late", func(ctx context.Context) error { return nil })
	assert.False(t, ok)

	// Close is idempotent
	d.Close()
}
