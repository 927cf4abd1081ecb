package memory

import (
	"context"
	"sync"
)

type journalKey struct{}

// journal collects undo steps of an open WithTx call.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// record is a no-op outside a transaction.
func (j *journal) record(undo func()) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}
