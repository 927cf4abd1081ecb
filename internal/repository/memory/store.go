// Package memory keeps targets and downtime history in process memory. It is
// used for dry runs without a database and as the reference store in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
)

var (
	ErrNotFound      = errors.New("target not found")
	ErrAlreadyExists = errors.New("target already registered")
	ErrOpenEvent     = errors.New("downtime event already open")
)

var (
	_ target.Repo         = (*Store)(nil)
	_ target.DowntimeRepo = (*Store)(nil)
)

type Store struct {
	mu      sync.RWMutex
	targets map[string]*target.Target
	events  map[string][]*target.DowntimeEvent
	nextID  int64
}

func New(seed ...string) (*Store, error) {
	s := &Store{
		targets: make(map[string]*target.Target, len(seed)),
		events:  make(map[string][]*target.DowntimeEvent),
	}
	for _, addr := range seed {
		if err := s.Register(addr); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Register(address string) error {
	if err := target.ValidateAddress(address); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[address]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, address)
	}
	s.targets[address] = &target.Target{Address: address, Status: target.StatusUnknown}
	return nil
}

// Deregister drops the target. Its downtime history is kept, like rows of an
// append-only table.
func (s *Store) Deregister(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, address)
}

// SetStatus overrides the stored status. Meant for seeding state in tests.
func (s *Store) SetStatus(address string, st target.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	t.Status = st
	return nil
}

func (s *Store) Target(address string) (target.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[address]
	if !ok {
		return target.Target{}, false
	}
	return *t, true
}

func (s *Store) Events(address string) []target.DowntimeEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]target.DowntimeEvent, 0, len(s.events[address]))
	for _, ev := range s.events[address] {
		out = append(out, *ev)
	}
	return out
}

func (s *Store) LoadTargets(_ context.Context) ([]*target.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*target.Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, &target.Target{Address: t.Address, Status: t.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) StatusOf(_ context.Context, addresses []string) (map[string]target.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]target.Status, len(addresses))
	for _, a := range addresses {
		if t, ok := s.targets[a]; ok {
			out[a] = t.Status
		}
	}
	return out, nil
}

func (s *Store) BulkUpdateStatus(ctx context.Context, updates []target.StatusUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		modified int64
		errs     []error
	)
	for _, u := range updates {
		if err := s.applyLocked(ctx, u); err != nil {
			errs = append(errs, err)
			continue
		}
		modified++
	}
	return modified, errors.Join(errs...)
}

func (s *Store) UpdateStatus(ctx context.Context, u target.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ctx, u)
}

func (s *Store) applyLocked(ctx context.Context, u target.StatusUpdate) error {
	t, ok := s.targets[u.Address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, u.Address)
	}
	prevStatus, prevChecked, prevRTT := t.Status, t.LastChecked, t.ResponseTime
	journalFrom(ctx).record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.Status, t.LastChecked, t.ResponseTime = prevStatus, prevChecked, prevRTT
	})

	checked := u.CheckedAt
	t.Status = u.Status
	t.LastChecked = &checked
	t.ResponseTime = copyDuration(u.ResponseTime)
	return nil
}

func (s *Store) MarkDown(ctx context.Context, address string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	prevCount, prevLast := t.DowntimeCount, t.LastDowntime
	journalFrom(ctx).record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.DowntimeCount, t.LastDowntime = prevCount, prevLast
	})

	t.DowntimeCount++
	t.LastDowntime = &at
	return nil
}

func (s *Store) Open(ctx context.Context, address string, at time.Time) (*target.DowntimeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events[address] {
		if ev.Open() {
			return nil, fmt.Errorf("%w: %s since %s", ErrOpenEvent, address, ev.StartedAt.Format(time.RFC3339))
		}
	}
	s.nextID++
	ev := &target.DowntimeEvent{ID: s.nextID, Address: address, StartedAt: at}
	s.events[address] = append(s.events[address], ev)
	journalFrom(ctx).record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		evs := s.events[address]
		for i := range evs {
			if evs[i] == ev {
				s.events[address] = append(evs[:i:i], evs[i+1:]...)
				break
			}
		}
	})
	cp := *ev
	return &cp, nil
}

func (s *Store) CloseLatest(ctx context.Context, address string, at time.Time) (*target.DowntimeEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.events[address]
	for i := len(evs) - 1; i >= 0; i-- {
		if !evs[i].Open() {
			continue
		}
		ev := evs[i]
		journalFrom(ctx).record(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ev.Duration = nil
		})
		d := at.Sub(ev.StartedAt)
		ev.Duration = &d
		cp := *ev
		return &cp, true, nil
	}
	return nil, false, nil
}

// WithTx undoes every write fn made through the store, or through an
// Outbox, when fn fails. Nested calls join the outer transaction. There is
// no isolation: concurrent writers see uncommitted state.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
