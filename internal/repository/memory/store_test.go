package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestNewSeedsAndValidates(t *testing.T) {
	s, err := New("10.0.0.2", "10.0.0.1", "10.0.0.2")
	require.NoError(t, err)

	ts, err := s.LoadTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "10.0.0.1", ts[0].Address)
	assert.Equal(t, target.StatusUnknown, ts[0].Status)

	_, err = New("example.com")
	assert.ErrorIs(t, err, target.ErrInvalidAddress)
}

func TestStatusOfOnlyKnownAddresses(t *testing.T) {
	s, err := New("10.0.0.1")
	require.NoError(t, err)
	require.NoError(t, s.SetStatus("10.0.0.1", target.StatusUp))

	got, err := s.StatusOf(context.Background(), []string{"10.0.0.1", "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]target.Status{"10.0.0.1": target.StatusUp}, got)
}

func TestBulkUpdateCountsModified(t *testing.T) {
	s, err := New("10.0.0.1", "10.0.0.2")
	require.NoError(t, err)
	rtt := 4 * time.Millisecond

	n, err := s.BulkUpdateStatus(context.Background(), []target.StatusUpdate{
		{Address: "10.0.0.1", Status: target.StatusUp, CheckedAt: t0, ResponseTime: &rtt},
		{Address: "10.0.0.2", Status: target.StatusDown, CheckedAt: t0},
		{Address: "10.0.0.3", Status: target.StatusDown, CheckedAt: t0},
	})
	assert.EqualValues(t, 2, n)
	assert.ErrorIs(t, err, ErrNotFound)

	tg, _ := s.Target("10.0.0.1")
	assert.Equal(t, target.StatusUp, tg.Status)
	assert.Equal(t, rtt, *tg.ResponseTime)
	_, ok := s.Target("10.0.0.3")
	assert.False(t, ok)
}

func TestDowntimeLifecycle(t *testing.T) {
	s, err := New("10.0.0.1")
	require.NoError(t, err)
	ctx := context.Background()

	ev, err := s.Open(ctx, "10.0.0.1", t0)
	require.NoError(t, err)
	assert.True(t, ev.Open())

	_, err = s.Open(ctx, "10.0.0.1", t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrOpenEvent)

	closed, ok, err := s.CloseLatest(ctx, "10.0.0.1", t0.Add(75*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 75*time.Second, *closed.Duration)

	_, ok, err = s.CloseLatest(ctx, "10.0.0.1", t0.Add(80*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "closed events are never reopened")

	_, err = s.Open(ctx, "10.0.0.1", t0.Add(90*time.Second))
	require.NoError(t, err)
	assert.Len(t, s.Events("10.0.0.1"), 2)
}

func TestDeregisterKeepsHistory(t *testing.T) {
	s, err := New("10.0.0.1")
	require.NoError(t, err)
	_, err = s.Open(context.Background(), "10.0.0.1", t0)
	require.NoError(t, err)

	s.Deregister("10.0.0.1")
	_, ok := s.Target("10.0.0.1")
	assert.False(t, ok)
	assert.Len(t, s.Events("10.0.0.1"), 1)
	assert.ErrorIs(t, s.MarkDown(context.Background(), "10.0.0.1", t0), ErrNotFound)
}

func TestOutboxPickAndAck(t *testing.T) {
	o := NewOutbox()
	now := t0
	o.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, o.Enqueue(ctx, "a", 1, []byte("1")))
	require.NoError(t, o.Enqueue(ctx, "a", 1, []byte("dup")))
	require.NoError(t, o.Enqueue(ctx, "b", 1, []byte("2")))

	got, err := o.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("1"), got[0].Data)

	again, err := o.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, o.MarkSuccess(ctx, []string{"a"}))
	now = now.Add(2 * time.Minute)
	stale, err := o.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "b", stale[0].IdempotencyKey)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, err := New("10.0.0.1")
	require.NoError(t, err)
	require.NoError(t, s.SetStatus("10.0.0.1", target.StatusUp))
	o := NewOutbox()
	boom := errors.New("boom")

	err = s.WithTx(context.Background(), func(ctx context.Context) error {
		if _, err := s.Open(ctx, "10.0.0.1", t0); err != nil {
			return err
		}
		if err := s.MarkDown(ctx, "10.0.0.1", t0); err != nil {
			return err
		}
		if err := s.UpdateStatus(ctx, target.StatusUpdate{Address: "10.0.0.1", Status: target.StatusDown, CheckedAt: t0}); err != nil {
			return err
		}
		if err := o.Enqueue(ctx, "k", 1, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	tg, _ := s.Target("10.0.0.1")
	assert.Equal(t, target.StatusUp, tg.Status)
	assert.Nil(t, tg.LastChecked)
	assert.Zero(t, tg.DowntimeCount)
	assert.Nil(t, tg.LastDowntime)
	assert.Empty(t, s.Events("10.0.0.1"))
	assert.Empty(t, o.Messages())

	ev, err := s.Open(context.Background(), "10.0.0.1", t0)
	require.NoError(t, err)
	assert.True(t, ev.Open())
}

func TestWithTxKeepsClosedEventOnSuccess(t *testing.T) {
	s, err := New("10.0.0.1")
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.Open(ctx, "10.0.0.1", t0)
	require.NoError(t, err)

	err = s.WithTx(ctx, func(ctx context.Context) error {
		_, closed, err := s.CloseLatest(ctx, "10.0.0.1", t0.Add(time.Minute))
		require.True(t, closed)
		return err
	})
	require.NoError(t, err)

	evs := s.Events("10.0.0.1")
	require.Len(t, evs, 1)
	require.NotNil(t, evs[0].Duration)
	assert.Equal(t, time.Minute, *evs[0].Duration)

	_, err = s.Open(ctx, "10.0.0.1", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Error(t, s.WithTx(ctx, func(ctx context.Context) error {
		_, closed, _ := s.CloseLatest(ctx, "10.0.0.1", t0.Add(time.Hour))
		require.True(t, closed)
		return errors.New("abort")
	}))

	evs = s.Events("10.0.0.1")
	require.Len(t, evs, 2)
	assert.Equal(t, time.Minute, *evs[0].Duration)
	assert.True(t, evs[1].Open())
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	err = s.UpdateStatus(context.Background(), target.StatusUpdate{Address: "10.0.0.1", Status: target.StatusUp, CheckedAt: t0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOutboxDropsDelivered(t *testing.T) {
	o := NewOutbox()
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, o.Enqueue(ctx, k, 1, []byte(k)))
	}
	_, err := o.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)

	require.NoError(t, o.MarkSuccess(ctx, []string{"a", "c"}))
	msgs := o.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b", msgs[0].IdempotencyKey)
	assert.Len(t, o.msgs, 1)
	assert.Equal(t, []string{"b"}, o.order)
}
