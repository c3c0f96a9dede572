package thirdparty

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitResult(t *testing.T, task *Task) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestRegistry_LoadsAtMostOnce(t *testing.T) {
	reg := NewRegistry(time.Second)
	defer reg.Close()

	var calls int32
	load := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "handle", nil
	}

	var wg sync.WaitGroup
	tasks := make([]*Task, 10)
	for i := range tasks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tasks[i] = reg.Request("paypal", load)
		}(i)
	}
	wg.Wait()

	for _, task := range tasks {
		assert.Same(t, tasks[0], task)
	}
	res := waitResult(t, tasks[0])
	assert.True(t, res.Ready())
	assert.Equal(t, "handle", res.Handle)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StateReady, reg.State("paypal"))
}

func TestRegistry_FailureIsSticky(t *testing.T) {
	reg := NewRegistry(time.Second)
	defer reg.Close()

	boom := errors.New("sdk blocked")
	var calls int32
	load := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	res := waitResult(t, reg.Request("stripe", load))
	assert.False(t, res.Ready())
	assert.ErrorIs(t, res.Reason, boom)

	res = waitResult(t, reg.Request("stripe", load))
	assert.ErrorIs(t, res.Reason, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StateFailed, reg.State("stripe"))
}

func TestRegistry_NilHandleIsUnavailable(t *testing.T) {
	reg := NewRegistry(0)
	defer reg.Close()

	res := waitResult(t, reg.Request("empty", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}))
	assert.ErrorIs(t, res.Reason, ErrUnavailable)
}

func TestRegistry_WaitDistinguishesLoadingFromFailed(t *testing.T) {
	reg := NewRegistry(0)
	defer reg.Close()

	release := make(chan struct{})
	task := reg.Request("slow", func(ctx context.Context) (interface{}, error) {
		<-release
		return "ok", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateLoading, task.State())

	_, ok := task.Result()
	assert.False(t, ok)

	close(release)
	res := waitResult(t, task)
	assert.True(t, res.Ready())
}

func TestRegistry_TimeoutFailsHungLoad(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry(30 * time.Millisecond)
	defer reg.Close()

	hang := make(chan struct{})
	defer close(hang)
	task := reg.Request("hung", func(ctx context.Context) (interface{}, error) {
		<-hang
		return "late", nil
	})

	res := waitResult(t, task)
	assert.ErrorIs(t, res.Reason, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, task.State())
}

func TestRegistry_CloseCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry(0)

	started := make(chan struct{})
	task := reg.Request("paypal", func(ctx context.Context) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	reg.Close()

	res := waitResult(t, task)
	assert.ErrorIs(t, res.Reason, context.Canceled)
}

func TestRegistry_States(t *testing.T) {
	reg := NewRegistry(time.Second)
	defer reg.Close()

	assert.Equal(t, StateNotRequested, reg.State("paypal"))
	assert.Empty(t, reg.States())

	waitResult(t, reg.Request("paypal", func(ctx context.Context) (interface{}, error) {
		return 1, nil
	}))
	waitResult(t, reg.Request("stripe", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("nope")
	}))

	assert.Equal(t, map[string]string{"paypal": "ready", "stripe": "failed"}, reg.States())
}

func TestRegistry_Preload(t *testing.T) {
	reg := NewRegistry(time.Second)
	defer reg.Close()

	boom := errors.New("blocked")
	err := reg.Preload(context.Background(), map[string]LoadFunc{
		"paypal": func(ctx context.Context) (interface{}, error) { return "pp", nil },
		"stripe": func(ctx context.Context) (interface{}, error) { return nil, boom },
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateReady, reg.State("paypal"))
	assert.Equal(t, StateFailed, reg.State("stripe"))
}
