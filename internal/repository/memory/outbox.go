package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/outbox"
)

var _ outbox.Repository = (*Outbox)(nil)

type Outbox struct {
	mu    sync.Mutex
	order []string
	msgs  map[string]*outbox.Message
	now   func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{
		msgs: make(map[string]*outbox.Message),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (o *Outbox) Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.msgs[key]; ok {
		return nil
	}
	now := o.now()
	o.msgs[key] = &outbox.Message{
		IdempotencyKey: key,
		Kind:           kind,
		Data:           append([]byte(nil), data...),
		Status:         outbox.StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.order = append(o.order, key)
	journalFrom(ctx).record(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.removeLocked(map[string]bool{key: true})
	})
	return nil
}

func (o *Outbox) PickBatch(_ context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if batch <= 0 {
		return nil, errors.New("batch must be > 0")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	var out []outbox.Message
	for _, k := range o.order {
		if len(out) == batch {
			break
		}
		m := o.msgs[k]
		stale := m.Status == outbox.StatusInProgress && m.UpdatedAt.Before(now.Add(-inProgressTTL))
		if m.Status != outbox.StatusCreated && !stale {
			continue
		}
		m.Status = outbox.StatusInProgress
		m.UpdatedAt = now
		out = append(out, *m)
	}
	return out, nil
}

// MarkSuccess drops delivered messages.
func (o *Outbox) MarkSuccess(_ context.Context, keys []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	done := make(map[string]bool, len(keys))
	for _, k := range keys {
		done[k] = true
	}
	o.removeLocked(done)
	return nil
}

func (o *Outbox) removeLocked(keys map[string]bool) {
	kept := o.order[:0]
	for _, k := range o.order {
		if keys[k] {
			delete(o.msgs, k)
			continue
		}
		kept = append(kept, k)
	}
	clear(o.order[len(kept):])
	o.order = kept
}

// Messages returns a snapshot of undelivered messages in enqueue order.
func (o *Outbox) Messages() []outbox.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]outbox.Message, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, *o.msgs[k])
	}
	return out
}
