package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeRetriesOnFloodWait(t *testing.T) {
	var slept []time.Duration
	invoker := NewInvoker()
	invoker.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	calls := 0
	err := invoker.Invoke(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &FloodWaitError{Duration: 2 * time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "exactly one retry after the flood wait")
	assert.Equal(t, []time.Duration{2 * time.Second}, slept, "waits exactly the signalled duration")
}

func TestInvokePropagatesOtherErrors(t *testing.T) {
	invoker := NewInvoker()
	invoker.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatal("must not sleep on non-flood errors")
		return nil
	}

	boom := fmt.Errorf("boom")
	calls := 0
	err := invoker.Invoke(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestInvokeStopsWhenContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	invoker := NewInvoker()
	err := invoker.Invoke(ctx, func(ctx context.Context) error {
		return &FloodWaitError{Duration: time.Hour}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvokeResult(t *testing.T) {
	invoker := NewInvoker()
	invoker.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	got, err := InvokeResult(context.Background(), invoker, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &FloodWaitError{Duration: time.Second}
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 2, calls)
}

func TestFloodWait(t *testing.T) {
	d, ok := FloodWait(&FloodWaitError{Duration: 5 * time.Second})
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	d, ok = FloodWait(&bot.TooManyRequestsError{RetryAfter: 3})
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	wrapped := fmt.Errorf("send failed: %w", &FloodWaitError{Duration: time.Second})
	d, ok = FloodWait(wrapped)
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)

	_, ok = FloodWait(fmt.Errorf("plain error"))
	assert.False(t, ok)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrStopTransmission))
	assert.True(t, IsCancelled(fmt.Errorf("download aborted: %w", ErrStopTransmission)))
	assert.False(t, IsCancelled(fmt.Errorf("other")))
}
