package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/jackc/pgx/v5"
)

var _ target.Repo = (*TargetRepoImpl)(nil)

type TargetRepoImpl struct {
	db *DB
}

func NewTargetRepo(db *DB) *TargetRepoImpl { return &TargetRepoImpl{db: db} }

const (
	qTargetsLoad = `
SELECT address, status
FROM targets
ORDER BY address;
`

	qTargetsStatusOf = `
SELECT address, status
FROM targets
WHERE address = ANY($1);
`

	qTargetsBulkStatus = `
UPDATE targets t
SET status           = u.status,
    last_checked     = u.checked_at,
    response_time_ms = u.response_time_ms,
    updated_at       = now()
FROM unnest($1::text[], $2::text[], $3::timestamptz[], $4::float8[])
    AS u(address, status, checked_at, response_time_ms)
WHERE t.address = u.address;
`

	qTargetStatus = `
UPDATE targets
SET status = $2, last_checked = $3, response_time_ms = $4, updated_at = now()
WHERE address = $1;
`

	qTargetMarkDown = `
UPDATE targets
SET downtime_count = downtime_count + 1,
    last_downtime  = $2,
    updated_at     = now()
WHERE address = $1;
`

	qTargetRegister = `
INSERT INTO targets (address)
VALUES ($1)
ON CONFLICT (address) DO NOTHING;
`

	qTargetDeregister = `
DELETE FROM targets
WHERE address = $1;
`

	qTargetGet = `
SELECT address, status, downtime_count, last_downtime, last_checked, response_time_ms
FROM targets
WHERE address = $1;
`
)

func (r *TargetRepoImpl) LoadTargets(ctx context.Context) ([]*target.Target, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTargetsLoad)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var out []*target.Target
	for rows.Next() {
		var (
			t  target.Target
			st string
		)
		if err := rows.Scan(&t.Address, &st); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.Status = target.Status(st)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *TargetRepoImpl) StatusOf(ctx context.Context, addresses []string) (map[string]target.Status, error) {
	out := make(map[string]target.Status, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTargetsStatusOf, addresses)
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr, st string
		if err := rows.Scan(&addr, &st); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out[addr] = target.Status(st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// BulkUpdateStatus writes all updates in one statement. If that statement
// fails the updates are retried one by one so a single bad row cannot block
// the others.
func (r *TargetRepoImpl) BulkUpdateStatus(ctx context.Context, updates []target.StatusUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	var (
		addrs   = make([]string, len(updates))
		states  = make([]string, len(updates))
		checked = make([]time.Time, len(updates))
		rtt     = make([]*float64, len(updates))
	)
	for i, u := range updates {
		addrs[i] = u.Address
		states[i] = string(u.Status)
		checked[i] = u.CheckedAt
		rtt[i] = durationToMillis(u.ResponseTime)
	}

	bctx, cancel := r.db.withTimeout(ctx)
	tag, err := r.db.execQueryer(bctx).Exec(bctx, qTargetsBulkStatus, addrs, states, checked, rtt)
	cancel()
	if err == nil {
		return tag.RowsAffected(), nil
	}

	bulkErr := fmt.Errorf("bulk status update: %w", err)
	var (
		modified int64
		errs     []error
	)
	for _, u := range updates {
		n, err := r.updateOne(ctx, u)
		if err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", u.Address, err))
			continue
		}
		modified += n
	}
	if len(errs) > 0 {
		return modified, errors.Join(append([]error{bulkErr}, errs...)...)
	}
	return modified, nil
}

func (r *TargetRepoImpl) updateOne(ctx context.Context, u target.StatusUpdate) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTargetStatus,
		u.Address, string(u.Status), u.CheckedAt, durationToMillis(u.ResponseTime))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TargetRepoImpl) UpdateStatus(ctx context.Context, u target.StatusUpdate) error {
	n, err := r.updateOne(ctx, u)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update status %s: %w", u.Address, ErrNotFound)
	}
	return nil
}

func (r *TargetRepoImpl) MarkDown(ctx context.Context, address string, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTargetMarkDown, address, at)
	if err != nil {
		return fmt.Errorf("mark down: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark down %s: %w", address, ErrNotFound)
	}
	return nil
}

func (r *TargetRepoImpl) Get(ctx context.Context, address string) (*target.Target, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		t     target.Target
		st    string
		rttMs *float64
	)
	err := r.db.execQueryer(ctx).QueryRow(ctx, qTargetGet, address).
		Scan(&t.Address, &st, &t.DowntimeCount, &t.LastDowntime, &t.LastChecked, &rttMs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get target: %w", err)
	}
	t.Status = target.Status(st)
	if rttMs != nil {
		d := time.Duration(*rttMs * float64(time.Millisecond))
		t.ResponseTime = &d
	}
	return &t, nil
}

// Register adds a target with unknown status. Registering an existing
// address is not an error and leaves its state untouched.
func (r *TargetRepoImpl) Register(ctx context.Context, address string) error {
	if err := target.ValidateAddress(address); err != nil {
		return err
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qTargetRegister, address); err != nil {
		return fmt.Errorf("register target: %w", err)
	}
	return nil
}

// Deregister removes the target. Its downtime history stays.
func (r *TargetRepoImpl) Deregister(ctx context.Context, address string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTargetDeregister, address)
	if err != nil {
		return fmt.Errorf("deregister target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
