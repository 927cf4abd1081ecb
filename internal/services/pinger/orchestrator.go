package pinger

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/NordCoder/ipwatch/internal/obs"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrTerminated = errors.New("orchestrator terminated")

const (
	DefaultMaxBatchSize = 50
	maxDefaultWorkers   = 4
)

func DefaultWorkers() int { return min(runtime.GOMAXPROCS(0), maxDefaultWorkers) }

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseDispatching
	PhaseAwaiting
	PhaseReconciling
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseDispatching:
		return "dispatching"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseReconciling:
		return "reconciling"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

type CycleResult struct {
	ID          string
	Phase       Phase
	Total       int
	Processed   int
	Up          int
	Down        int
	Transitions int
	Updated     int64
	Started     time.Time
	Duration    time.Duration
	Err         error
}

func (r CycleResult) OK() bool { return r.Err == nil }

type TargetLoader interface {
	LoadTargets(ctx context.Context) ([]*target.Target, error)
}

type Supervisor interface {
	ExecuteWithRetry(ctx context.Context, batch []string) []target.ProbeOutcome
}

type OutcomeReconciler interface {
	Reconcile(ctx context.Context, outcomes []target.ProbeOutcome) (ReconcileResult, error)
}

type OrchestratorConfig struct {
	Workers      int
	MaxBatchSize int
}

// Orchestrator runs one probe cycle at a time: load, partition, fan out,
// wait for every batch, reconcile. It owns the registry of running batch
// executions so Terminate can cancel them.
type Orchestrator struct {
	log     *zap.Logger
	targets TargetLoader
	sup     Supervisor
	rec     OutcomeReconciler
	cfg     OrchestratorConfig

	cycleMu sync.Mutex
	phase   atomic.Int32

	mu         sync.Mutex
	terminated bool
	inflight   map[uint64]context.CancelFunc
	nextID     uint64
	wg         sync.WaitGroup
}

func NewOrchestrator(log *zap.Logger, targets TargetLoader, sup Supervisor, rec OutcomeReconciler, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	return &Orchestrator{
		log:      log.With(zap.String("component", "pinger.orchestrator")),
		targets:  targets,
		sup:      sup,
		rec:      rec,
		cfg:      cfg,
		inflight: make(map[uint64]context.CancelFunc),
	}
}

func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

func (o *Orchestrator) setPhase(p Phase) {
	o.phase.Store(int32(p))
	mPhase.Set(float64(p))
}

// RunCycle never panics and never returns an error directly: failures are
// reported in the result with PhaseFailed. Concurrent calls wait for the
// running cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (res CycleResult) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	res = CycleResult{ID: uuid.NewString(), Started: time.Now()}
	ctx, span := otel.Tracer("pinger.orchestrator").Start(ctx, "pinger.cycle",
		trace.WithAttributes(attribute.String("cycle.id", res.ID)),
	)
	defer span.End()
	log := obs.WithTrace(ctx, o.log).With(zap.String("cycle_id", res.ID))

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("cycle panic: %v", p)
			log.Error("cycle panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
		if res.Err != nil {
			o.setPhase(PhaseFailed)
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		res.Phase = o.Phase()
		res.Duration = time.Since(res.Started)
		observeCycle(res)
	}()

	if o.isTerminated() {
		res.Err = ErrTerminated
		return res
	}

	o.setPhase(PhaseLoading)
	addrs, err := o.load(ctx, log)
	if err != nil {
		res.Err = err
		return res
	}
	res.Total = len(addrs)
	span.SetAttributes(attribute.Int("cycle.total", res.Total))
	if len(addrs) == 0 {
		o.setPhase(PhaseDone)
		return res
	}

	o.setPhase(PhaseDispatching)
	batches := Partition(addrs, o.cfg.Workers, o.cfg.MaxBatchSize)
	p := pool.NewWithResults[[]target.ProbeOutcome]().WithMaxGoroutines(len(batches))
	for _, b := range batches {
		p.Go(func() []target.ProbeOutcome { return o.dispatch(ctx, b) })
	}
	log.Debug("batches dispatched", zap.Int("batches", len(batches)), zap.Int("targets", len(addrs)))

	o.setPhase(PhaseAwaiting)
	outcomes := flatten(p.Wait())
	res.Processed = len(outcomes)
	for _, oc := range outcomes {
		if oc.Alive {
			res.Up++
		} else {
			res.Down++
		}
	}

	// Outcomes of cancelled executions say nothing about the targets.
	if o.isTerminated() {
		res.Err = ErrTerminated
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("cycle interrupted: %w", err)
		return res
	}

	o.setPhase(PhaseReconciling)
	rr, err := o.rec.Reconcile(ctx, outcomes)
	if err != nil {
		res.Err = fmt.Errorf("reconcile: %w", err)
		return res
	}
	res.Transitions = rr.Transitions
	res.Updated = rr.TotalUpdated

	o.setPhase(PhaseDone)
	return res
}

func (o *Orchestrator) load(ctx context.Context, log *zap.Logger) ([]string, error) {
	targets, err := o.targets.LoadTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	addrs := make([]string, 0, len(targets))
	for _, t := range targets {
		if err := target.ValidateAddress(t.Address); err != nil {
			log.Warn("skipping stored target", zap.String("address", t.Address), zap.Error(err))
			continue
		}
		addrs = append(addrs, t.Address)
	}
	return addrs, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, batch []string) []target.ProbeOutcome {
	ectx, release, ok := o.register(ctx)
	if !ok {
		return synthesize(batch, ErrTerminated.Error())
	}
	defer release()
	return o.sup.ExecuteWithRetry(ectx, batch)
}

func (o *Orchestrator) register(parent context.Context) (context.Context, func(), bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.terminated {
		return nil, nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	id := o.nextID
	o.nextID++
	o.inflight[id] = cancel
	o.wg.Add(1)
	mInflight.Inc()

	return ctx, func() {
		o.mu.Lock()
		delete(o.inflight, id)
		o.mu.Unlock()
		cancel()
		mInflight.Dec()
		o.wg.Done()
	}, true
}

func (o *Orchestrator) isTerminated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.terminated
}

// InFlight returns the number of registered batch executions.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Terminate refuses further cycles, cancels every registered execution and
// waits until all of them have returned or ctx expires.
func (o *Orchestrator) Terminate(ctx context.Context) error {
	o.mu.Lock()
	o.terminated = true
	n := len(o.inflight)
	for _, cancel := range o.inflight {
		cancel()
	}
	o.mu.Unlock()

	if n > 0 {
		o.log.Info("terminating executions", zap.Int("inflight", n))
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		left := o.InFlight()
		o.log.Warn("executions did not stop in time", zap.Int("inflight", left))
		return fmt.Errorf("terminate: %d executions still running: %w", left, ctx.Err())
	}
}

func flatten(parts [][]target.ProbeOutcome) []target.ProbeOutcome {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]target.ProbeOutcome, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func observeCycle(res CycleResult) {
	result := "done"
	if res.Err != nil {
		result = "failed"
	}
	mCycles.WithLabelValues(result).Inc()
	mCycleDur.Observe(res.Duration.Seconds())
	if res.Err == nil {
		mCycleTargets.WithLabelValues("total").Set(float64(res.Total))
		mCycleTargets.WithLabelValues("up").Set(float64(res.Up))
		mCycleTargets.WithLabelValues("down").Set(float64(res.Down))
	}
}
