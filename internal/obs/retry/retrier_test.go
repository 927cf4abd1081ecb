package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	var seen []int
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, Policy{Name: "test_ok", Attempts: 3, OnAttempt: func(i int, _ error) { seen = append(seen, i) }})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{0, 1}, seen)
}

func TestDoExhausts(t *testing.T) {
	calls := 0
	var last error
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, Policy{Name: "test_exhaust", Attempts: 3, OnExhaust: func(err error) { last = err }})

	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, last, errBoom)
	require.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return context.Canceled
	}, Policy{Name: "test_nonretry", Attempts: 5, Retryable: NotCanceled})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoHonoursContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Do(ctx, func(context.Context) error { return errBoom },
		Policy{Name: "test_ctx", Attempts: 3, Backoff: Constant(time.Hour)})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpoJitterBounds(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	require.Equal(t, 100*time.Millisecond, b.Next(0))
	require.Equal(t, 400*time.Millisecond, b.Next(2))
	require.Equal(t, time.Second, b.Next(10))

	j := ExpoJitter{Base: 100 * time.Millisecond, Jitter: 0.2}
	for i := 0; i < 50; i++ {
		d := j.Next(0)
		require.GreaterOrEqual(t, d, 80*time.Millisecond)
		require.LessOrEqual(t, d, 120*time.Millisecond)
	}
}
