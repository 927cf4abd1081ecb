package pinger

import (
	"context"
	"errors"

	kafkax "github.com/NordCoder/ipwatch/internal/repository/kafka"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

type Triggerer interface {
	Trigger(reason string) bool
}

type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

// TriggerController turns messages from the trigger topic into early cycles.
type TriggerController struct {
	Log    *zap.Logger
	Sub    Subscriber
	Runner Triggerer
}

func (c *TriggerController) Run(ctx context.Context) error {
	err := c.Sub.Consume(ctx, c.Handler())
	if err != nil && !errors.Is(err, context.Canceled) {
		c.Log.Warn("trigger consumer stopped", zap.Error(err))
		return err
	}
	return ctx.Err()
}

func (c *TriggerController) Handler() kafkax.Handler {
	return kafkax.ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(_ context.Context, _ []byte, msg *structpb.Struct) error {
			req := kafkax.DecodeTrigger(msg)
			if req.Reason == "" {
				req.Reason = "kafka"
			}
			if !c.Runner.Trigger(req.Reason) {
				c.Log.Debug("trigger coalesced", zap.String("reason", req.Reason))
			}
			return nil
		},
	)
}
