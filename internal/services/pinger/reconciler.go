package pinger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/ipwatch/internal/domain/outbox"
	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/NordCoder/ipwatch/internal/obs"
	intoutbox "github.com/NordCoder/ipwatch/internal/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReconcileResult struct {
	TotalUpdated      int64
	Transitions       int
	Up                int
	Down              int
	FailedTransitions int
	MissingOpenEvents int
}

// Reconciler turns probe outcomes into status updates and downtime history.
// It is the only writer of either.
type Reconciler struct {
	targets  target.Repo
	downtime target.DowntimeRepo
	tx       TxRunner
	outbox   outbox.Repository
	clock    Clock
	log      *zap.Logger
}

type ReconcilerOption func(*Reconciler)

// WithOutbox enqueues a transition message inside each transition transaction.
func WithOutbox(r outbox.Repository) ReconcilerOption {
	return func(rc *Reconciler) { rc.outbox = r }
}

func WithClock(c Clock) ReconcilerOption {
	return func(rc *Reconciler) { rc.clock = c }
}

func NewReconciler(targets target.Repo, downtime target.DowntimeRepo, tx TxRunner, log *zap.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		targets:  targets,
		downtime: downtime,
		tx:       tx,
		clock:    SystemClock{},
		log:      log.With(zap.String("component", "pinger.reconciler")),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Reconciler) Reconcile(ctx context.Context, outcomes []target.ProbeOutcome) (ReconcileResult, error) {
	var res ReconcileResult

	ctx, span := otel.Tracer("pinger.reconciler").Start(ctx, "pinger.reconcile",
		trace.WithAttributes(attribute.Int("outcomes", len(outcomes))),
	)
	defer span.End()
	log := obs.WithTrace(ctx, r.log)

	latest := dedupe(outcomes)
	if len(latest) == 0 {
		return res, nil
	}

	addrs := make([]string, len(latest))
	for i, o := range latest {
		addrs[i] = o.Address
	}
	prior, err := r.targets.StatusOf(ctx, addrs)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("read prior status: %w", err)
	}

	now := r.clock.Now()
	updates := make([]target.StatusUpdate, 0, len(latest))
	for _, o := range latest {
		next := target.StatusFromAlive(o.Alive)
		if next == target.StatusUp {
			res.Up++
		} else {
			res.Down++
		}

		u := target.StatusUpdate{Address: o.Address, Status: next, CheckedAt: now}
		if o.Alive {
			u.ResponseTime = o.Latency
		}

		prev, ok := prior[o.Address]
		if !ok || !prev.Known() || prev == next {
			updates = append(updates, u)
			continue
		}

		missing, err := r.transition(ctx, u, prev)
		if err != nil {
			// status stays as stored so the next cycle detects the change again
			res.FailedTransitions++
			mTransitionErrors.Inc()
			log.Warn("transition not applied",
				zap.String("address", o.Address),
				zap.Stringer("from", prev),
				zap.Stringer("to", next),
				zap.Error(err),
			)
			continue
		}
		if missing {
			res.MissingOpenEvents++
			mMissingOpen.Inc()
			log.Warn("target came up without an open downtime event", zap.String("address", o.Address))
		}
		res.Transitions++
		res.TotalUpdated++
		mTransitions.WithLabelValues(next.String()).Inc()
	}

	if len(updates) > 0 {
		r.bulkUpdate(ctx, updates, &res)
	}

	span.SetAttributes(
		attribute.Int("transitions", res.Transitions),
		attribute.Int("transitions.failed", res.FailedTransitions),
		attribute.Int64("updated", res.TotalUpdated),
	)
	return res, nil
}

// bulkUpdate writes statuses that did not change. Failures only reduce
// TotalUpdated.
func (r *Reconciler) bulkUpdate(ctx context.Context, updates []target.StatusUpdate, res *ReconcileResult) {
	modified, err := r.targets.BulkUpdateStatus(ctx, updates)
	res.TotalUpdated += modified
	if short := int64(len(updates)) - modified; short > 0 {
		mUpdateShortfall.Add(float64(short))
	}
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		obs.WithTrace(ctx, r.log).Warn("status update partially applied",
			zap.Int("requested", len(updates)),
			zap.Int64("modified", modified),
			zap.Error(err),
		)
	}
}

// transition applies a status change together with its downtime event,
// the new status and the outbox message, all in one transaction. missing
// reports a down to up change that found no open event to close.
func (r *Reconciler) transition(ctx context.Context, u target.StatusUpdate, from target.Status) (missing bool, err error) {
	address, now := u.Address, u.CheckedAt
	err = r.withTx(ctx, func(ctx context.Context) error {
		missing = false
		p := intoutbox.TransitionPayload{Address: address, From: from.String(), To: u.Status.String(), At: now}

		switch u.Status {
		case target.StatusDown:
			if _, err := r.downtime.Open(ctx, address, now); err != nil {
				return fmt.Errorf("open downtime: %w", err)
			}
			if err := r.targets.MarkDown(ctx, address, now); err != nil {
				return fmt.Errorf("mark down: %w", err)
			}
		case target.StatusUp:
			ev, closed, err := r.downtime.CloseLatest(ctx, address, now)
			if err != nil {
				return fmt.Errorf("close downtime: %w", err)
			}
			if !closed {
				missing = true
			} else if ev != nil && ev.Duration != nil {
				ms := ev.Duration.Milliseconds()
				p.DowntimeMs = &ms
			}
		}
		if err := r.targets.UpdateStatus(ctx, u); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return r.enqueue(ctx, p)
	})
	return missing, err
}

func (r *Reconciler) enqueue(ctx context.Context, p intoutbox.TransitionPayload) error {
	if r.outbox == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err := r.outbox.Enqueue(ctx, p.Key(), outbox.KindTransition, data); err != nil {
		return fmt.Errorf("enqueue transition: %w", err)
	}
	return nil
}

func (r *Reconciler) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.tx == nil {
		return fn(ctx)
	}
	return r.tx.WithTx(ctx, fn)
}

// dedupe keeps the last outcome per address, in order of first appearance.
func dedupe(outcomes []target.ProbeOutcome) []target.ProbeOutcome {
	idx := make(map[string]int, len(outcomes))
	out := make([]target.ProbeOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if i, ok := idx[o.Address]; ok {
			out[i] = o
			continue
		}
		idx[o.Address] = len(out)
		out = append(out, o)
	}
	return out
}
