package pinger

import (
	"context"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/NordCoder/ipwatch/internal/obs/retry"
	"go.uber.org/zap"
)

// DefaultRetries is the number of extra attempts after the first failed
// batch execution.
const DefaultRetries = 2

const ErrMsgRetriesExhausted = "execution failed after retries"

type Executor interface {
	Execute(ctx context.Context, batch []string) ([]target.ProbeOutcome, error)
}

// RetrySupervisor repeats failed batch executions and, once the budget is
// spent, answers for every address of the batch with an unreachable outcome.
type RetrySupervisor struct {
	exec    Executor
	retries int
	backoff retry.Backoff
	log     *zap.Logger
}

func NewRetrySupervisor(exec Executor, log *zap.Logger) *RetrySupervisor {
	return &RetrySupervisor{
		exec:    exec,
		retries: DefaultRetries,
		backoff: retry.ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second, Jitter: 0.2},
		log:     log.With(zap.String("component", "pinger.supervisor")),
	}
}

// WithBackoff replaces the pause between attempts.
func (s *RetrySupervisor) WithBackoff(b retry.Backoff) *RetrySupervisor {
	cp := *s
	cp.backoff = b
	return &cp
}

func (s *RetrySupervisor) ExecuteWithRetry(ctx context.Context, batch []string) []target.ProbeOutcome {
	if len(batch) == 0 {
		return nil
	}

	var out []target.ProbeOutcome
	err := retry.Do(ctx, func(ctx context.Context) error {
		res, err := s.exec.Execute(ctx, batch)
		if err != nil {
			return err
		}
		out = res
		return nil
	}, retry.Policy{
		Name:      "batch_execute",
		Attempts:  s.retries + 1,
		Backoff:   s.backoff,
		Retryable: retry.NotCanceled,
		OnAttempt: func(i int, err error) {
			s.log.Warn("batch execution failed",
				zap.Int("attempt", i+1),
				zap.Int("retries_left", s.retries-i),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		},
	})
	if err == nil {
		return out
	}

	s.log.Error("batch degraded to unreachable",
		zap.Int("batch_size", len(batch)),
		zap.String("first", batch[0]),
		zap.Error(err),
	)
	mSynthesized.Add(float64(len(batch)))
	return synthesize(batch, ErrMsgRetriesExhausted)
}

func synthesize(batch []string, msg string) []target.ProbeOutcome {
	out := make([]target.ProbeOutcome, len(batch))
	for i, addr := range batch {
		out[i] = target.ProbeOutcome{Address: addr, Alive: false, Error: msg}
	}
	return out
}
