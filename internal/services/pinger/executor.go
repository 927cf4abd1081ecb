package pinger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrExecutionFailed = errors.New("batch execution failed")

const defaultExecGrace = 2 * time.Second

type ExecutionError struct {
	BatchSize int
	Reason    string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("batch execution failed (%d targets): %s: %v", e.BatchSize, e.Reason, e.Err)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecutionFailed, e.Err} }

// BatchExecutor probes every address of a batch at once. A panic in any probe
// or an execution that outlives Timeout+Grace fails the whole batch; partial
// results are never returned.
type BatchExecutor struct {
	Prober  Prober
	Timeout time.Duration
	Grace   time.Duration
}

func (e *BatchExecutor) Execute(ctx context.Context, batch []string) ([]target.ProbeOutcome, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("pinger.executor").Start(ctx, "pinger.batch.execute",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))),
	)
	defer span.End()

	grace := e.Grace
	if grace <= 0 {
		grace = defaultExecGrace
	}
	ectx, cancel := context.WithTimeout(ctx, e.Timeout+grace)
	defer cancel()

	// each goroutine owns one index; the slices are read only after Wait
	outcomes := make([]target.ProbeOutcome, len(batch))
	filled := make([]bool, len(batch))

	var wg conc.WaitGroup
	for i, addr := range batch {
		wg.Go(func() {
			out := e.Prober.Probe(ectx, addr, e.Timeout)
			out.Address = addr
			outcomes[i] = out
			filled[i] = true
		})
	}

	settled := make(chan *panics.Recovered, 1)
	go func() { settled <- wg.WaitAndRecover() }()

	var rec *panics.Recovered
	select {
	case rec = <-settled:
	case <-ectx.Done():
		select {
		case rec = <-settled:
		default:
			err := e.abandoned(ctx, ectx, len(batch))
			span.RecordError(err)
			return nil, err
		}
	}

	if rec != nil {
		err := &ExecutionError{BatchSize: len(batch), Reason: "worker panic", Err: rec.AsError()}
		mExecFailures.WithLabelValues("panic").Inc()
		span.RecordError(err)
		return nil, err
	}

	for i := range filled {
		if !filled[i] {
			err := &ExecutionError{BatchSize: len(batch), Reason: "missing outcome", Err: fmt.Errorf("no outcome for %s", batch[i])}
			mExecFailures.WithLabelValues("incomplete").Inc()
			span.RecordError(err)
			return nil, err
		}
	}

	alive := 0
	for _, o := range outcomes {
		if o.Alive {
			alive++
			if o.Latency != nil {
				mProbeLatency.Observe(o.Latency.Seconds())
			}
		}
	}
	span.SetAttributes(attribute.Int("batch.alive", alive))
	return outcomes, nil
}

func (e *BatchExecutor) abandoned(parent, ectx context.Context, size int) error {
	if perr := parent.Err(); perr != nil {
		mExecFailures.WithLabelValues("terminated").Inc()
		return &ExecutionError{BatchSize: size, Reason: "terminated", Err: perr}
	}
	mExecFailures.WithLabelValues("deadline").Inc()
	return &ExecutionError{BatchSize: size, Reason: "execution deadline exceeded", Err: ectx.Err()}
}
