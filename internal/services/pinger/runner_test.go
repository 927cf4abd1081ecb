package pinger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingCycles struct {
	calls   atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	took    time.Duration
	fail    bool
}

func (c *countingCycles) RunCycle(context.Context) CycleResult {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.active.Add(-1)
	c.calls.Add(1)
	time.Sleep(c.took)
	if c.fail {
		return CycleResult{Phase: PhaseFailed, Err: errors.New("db down")}
	}
	return CycleResult{Phase: PhaseDone}
}

func TestRunnerRunsImmediately(t *testing.T) {
	cycles := &countingCycles{}
	r := NewRunner(zap.NewNop(), cycles, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return cycles.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.EqualValues(t, 1, cycles.calls.Load())
}

func TestRunnerIntervalStartsAfterCycle(t *testing.T) {
	cycles := &countingCycles{took: 30 * time.Millisecond}
	r := NewRunner(zap.NewNop(), cycles, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = r.Run(ctx)

	n := cycles.calls.Load()
	assert.GreaterOrEqual(t, n, int32(3))
	// each round is at least took+interval long
	assert.LessOrEqual(t, n, int32(8))
	assert.False(t, cycles.overlap.Load())
}

func TestRunnerTriggerCoalesces(t *testing.T) {
	cycles := &countingCycles{took: 50 * time.Millisecond}
	r := NewRunner(zap.NewNop(), cycles, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.Eventually(t, func() bool { return cycles.active.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, r.Trigger("manual"))
	assert.False(t, r.Trigger("manual"), "second request folds into the pending one")

	require.Eventually(t, func() bool { return cycles.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 2, cycles.calls.Load())
	assert.False(t, cycles.overlap.Load())
}

func TestRunnerLogsFailedCycles(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cycles := &countingCycles{fail: true}
	r := NewRunner(zap.New(core), cycles, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = r.Run(ctx)

	assert.GreaterOrEqual(t, logs.FilterMessage("cycle failed").Len(), 2, "runner keeps going after a failure")
	assert.Zero(t, logs.FilterMessage("cycle done").Len())
}
