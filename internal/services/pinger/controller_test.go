package pinger

import (
	"context"
	"testing"

	kafkax "github.com/NordCoder/ipwatch/internal/repository/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type recordingTriggerer struct{ reasons []string }

func (r *recordingTriggerer) Trigger(reason string) bool {
	r.reasons = append(r.reasons, reason)
	return len(r.reasons) == 1
}

type sliceSubscriber [][]byte

func (s sliceSubscriber) Consume(ctx context.Context, h kafkax.Handler) error {
	for _, v := range s {
		if err := h(ctx, nil, v); err != nil {
			return err
		}
	}
	return context.Canceled
}

func encodeTrigger(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	b, err := proto.Marshal(s)
	require.NoError(t, err)
	return b
}

func TestTriggerControllerForwardsReasons(t *testing.T) {
	trg := &recordingTriggerer{}
	c := &TriggerController{
		Log:    zap.NewNop(),
		Sub:    sliceSubscriber{encodeTrigger(t, map[string]any{"reason": "target-added"}), encodeTrigger(t, map[string]any{})},
		Runner: trg,
	}

	err := c.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"target-added", "kafka"}, trg.reasons)
}

func TestTriggerControllerRejectsGarbage(t *testing.T) {
	c := &TriggerController{Log: zap.NewNop(), Runner: &recordingTriggerer{}}
	require.Error(t, c.Handler()(context.Background(), nil, []byte{0x0a}))
}
