package pinger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) CycleResult
}

// Runner drives cycles: one at start, then one Interval after the previous
// cycle settled. Trigger asks for an early cycle; requests made while one is
// already pending collapse into it.
type Runner struct {
	log      *zap.Logger
	cycles   CycleRunner
	interval time.Duration
	trigger  chan string
}

func NewRunner(log *zap.Logger, cycles CycleRunner, interval time.Duration) *Runner {
	return &Runner{
		log:      log.With(zap.String("component", "pinger.runner")),
		cycles:   cycles,
		interval: interval,
		trigger:  make(chan string, 1),
	}
}

// Trigger reports whether the request was queued.
func (r *Runner) Trigger(reason string) bool {
	select {
	case r.trigger <- reason:
		return true
	default:
		return false
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.runOnce(ctx, "startup", "")

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			r.runOnce(ctx, "interval", "")
		case reason := <-r.trigger:
			r.runOnce(ctx, "trigger", reason)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		timer.Reset(r.interval)
	}
}

func (r *Runner) runOnce(ctx context.Context, source, reason string) {
	mTriggers.WithLabelValues(source).Inc()
	res := r.cycles.RunCycle(ctx)

	fields := []zap.Field{
		zap.String("cycle_id", res.ID),
		zap.String("source", source),
		zap.String("reason", reason),
		zap.Stringer("phase", res.Phase),
		zap.Int("total", res.Total),
		zap.Int("processed", res.Processed),
		zap.Int("up", res.Up),
		zap.Int("down", res.Down),
		zap.Int("transitions", res.Transitions),
		zap.Duration("took", res.Duration),
	}
	if res.Err != nil {
		r.log.Warn("cycle failed", append(fields, zap.Error(res.Err))...)
		return
	}
	r.log.Info("cycle done", fields...)
}
