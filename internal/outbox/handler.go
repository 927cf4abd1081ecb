package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/outbox"
	"github.com/NordCoder/ipwatch/internal/obs/retry"
	kafkax "github.com/NordCoder/ipwatch/internal/repository/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// TransitionPayload is stored in the outbox together with the downtime
// write it describes.
type TransitionPayload struct {
	Address    string    `json:"address"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	At         time.Time `json:"at"`
	DowntimeMs *int64    `json:"downtime_ms,omitempty"`
}

func (p TransitionPayload) Key() string {
	return fmt.Sprintf("transition:%s:%s:%d", p.Address, p.To, p.At.UnixMicro())
}

func (p TransitionPayload) Event() kafkax.TransitionEvent {
	ev := kafkax.TransitionEvent{Address: p.Address, From: p.From, To: p.To, At: p.At}
	if p.DowntimeMs != nil {
		d := time.Duration(*p.DowntimeMs) * time.Millisecond
		ev.Downtime = &d
	}
	return ev
}

type TransitionPublisher interface {
	PublishTransition(ctx context.Context, ev kafkax.TransitionEvent) error
}

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind outbox.Kind, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind.String()
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+kind.String())
		defer span.End()

		start := time.Now()
		err := WrapKindHandler(h, pol)(ctx, data)
		outboxHandlerLatency.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind.String()).Inc()
		}
		return err
	}
}

func MakeGlobalOutboxHandler(pub TransitionPublisher, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindTransition:
			base := func(ctx context.Context, data []byte) error {
				var p TransitionPayload
				if err := json.Unmarshal(data, &p); err != nil {
					return fmt.Errorf("unmarshal transition payload: %w", err)
				}
				return pub.PublishTransition(ctx, p.Event())
			}
			return instrument(kind, base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
