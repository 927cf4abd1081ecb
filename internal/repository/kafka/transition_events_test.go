package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestTransitionWireFormat(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d := 90 * time.Second

	msg, err := EncodeTransition(TransitionEvent{Address: "10.0.0.1", From: "down", To: "up", At: at, Downtime: &d})
	require.NoError(t, err)

	raw, err := proto.Marshal(msg)
	require.NoError(t, err)

	var got structpb.Struct
	require.NoError(t, proto.Unmarshal(raw, &got))

	ev, err := DecodeTransition(&got)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ev.Address)
	assert.Equal(t, "up", ev.To)
	assert.True(t, ev.At.Equal(at))
	require.NotNil(t, ev.Downtime)
	assert.Equal(t, d, *ev.Downtime)
}

func TestDecodeTransitionRejectsEmpty(t *testing.T) {
	_, err := DecodeTransition(&structpb.Struct{})
	require.Error(t, err)
}

func TestProtoHandlerDecodesTrigger(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"reason": "manual"})
	require.NoError(t, err)
	raw, err := proto.Marshal(s)
	require.NoError(t, err)

	var got TriggerRequest
	h := ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(_ context.Context, _ []byte, m *structpb.Struct) error {
			got = DecodeTrigger(m)
			return nil
		},
	)
	require.NoError(t, h(context.Background(), nil, raw))
	assert.Equal(t, "manual", got.Reason)

	require.Error(t, h(context.Background(), nil, []byte{0xff, 0xff}))
}
