package pinger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/NordCoder/ipwatch/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type flakyExecutor struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *flakyExecutor) Execute(_ context.Context, batch []string) ([]target.ProbeOutcome, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, f.err
	}
	out := make([]target.ProbeOutcome, len(batch))
	for i, a := range batch {
		out[i] = target.ProbeOutcome{Address: a, Alive: true}
	}
	return out, nil
}

func execErr() error {
	return &ExecutionError{BatchSize: 2, Reason: "worker panic", Err: errors.New("boom")}
}

func newTestSupervisor(exec Executor, log *zap.Logger) *RetrySupervisor {
	return NewRetrySupervisor(exec, log).WithBackoff(retry.Constant(0))
}

func TestSupervisorRecoversWithinBudget(t *testing.T) {
	exec := &flakyExecutor{failures: DefaultRetries, err: execErr()}
	out := newTestSupervisor(exec, zap.NewNop()).ExecuteWithRetry(context.Background(), []string{"10.0.0.1", "10.0.0.2"})

	require.Len(t, out, 2)
	assert.True(t, out[0].Alive)
	assert.True(t, out[1].Alive)
	assert.EqualValues(t, DefaultRetries+1, exec.calls.Load())
}

func TestSupervisorSynthesizesAfterExhaustion(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	exec := &flakyExecutor{failures: 100, err: execErr()}
	batch := []string{"10.0.0.1", "10.0.0.2"}

	out := newTestSupervisor(exec, zap.New(core)).ExecuteWithRetry(context.Background(), batch)

	assert.EqualValues(t, DefaultRetries+1, exec.calls.Load())
	require.Len(t, out, len(batch))
	for i, o := range out {
		assert.Equal(t, batch[i], o.Address)
		assert.False(t, o.Alive)
		assert.Nil(t, o.Latency)
		assert.Equal(t, ErrMsgRetriesExhausted, o.Error)
	}
	assert.Equal(t, DefaultRetries+1, logs.FilterMessage("batch execution failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("batch degraded to unreachable").Len())
}

func TestSupervisorDoesNotRetryCancellation(t *testing.T) {
	exec := &flakyExecutor{failures: 100, err: &ExecutionError{BatchSize: 1, Reason: "terminated", Err: context.Canceled}}

	out := newTestSupervisor(exec, zap.NewNop()).ExecuteWithRetry(context.Background(), []string{"10.0.0.1"})
	assert.EqualValues(t, 1, exec.calls.Load())
	require.Len(t, out, 1)
	assert.False(t, out[0].Alive)
}

func TestSupervisorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &flakyExecutor{}

	out := newTestSupervisor(exec, zap.NewNop()).ExecuteWithRetry(ctx, []string{"10.0.0.1", "10.0.0.2"})
	assert.Zero(t, exec.calls.Load())
	assert.Len(t, out, 2)
}

func TestSupervisorWithRealExecutorPanics(t *testing.T) {
	var calls atomic.Int32
	p := ProberFunc(func(context.Context, string, time.Duration) target.ProbeOutcome {
		calls.Add(1)
		panic("always")
	})
	sup := newTestSupervisor(&BatchExecutor{Prober: p, Timeout: time.Second}, zap.NewNop())

	out := sup.ExecuteWithRetry(context.Background(), []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})
	require.Len(t, out, 3)
	for _, o := range out {
		assert.False(t, o.Alive)
		assert.Equal(t, ErrMsgRetriesExhausted, o.Error)
	}
	assert.EqualValues(t, 3*(DefaultRetries+1), calls.Load())
}
