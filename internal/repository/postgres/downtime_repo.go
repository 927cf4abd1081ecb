package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/jackc/pgx/v5"
)

var _ target.DowntimeRepo = (*DowntimeRepoImpl)(nil)

type DowntimeRepoImpl struct{ db *DB }

func NewDowntimeRepo(db *DB) *DowntimeRepoImpl { return &DowntimeRepoImpl{db: db} }

const (
	qDowntimeOpen = `
INSERT INTO downtime_events (address, started_at)
VALUES ($1, $2)
RETURNING id, address, started_at;
`

	// duration is computed server side from the stored start so it matches
	// the persisted timestamps exactly.
	qDowntimeCloseLatest = `
WITH latest AS (
    SELECT id
    FROM downtime_events
    WHERE address = $1 AND duration_us IS NULL
    ORDER BY started_at DESC
    LIMIT 1
    FOR UPDATE
)
UPDATE downtime_events d
SET duration_us = (EXTRACT(EPOCH FROM ($2::timestamptz - d.started_at)) * 1000000)::bigint
FROM latest
WHERE d.id = latest.id
RETURNING d.id, d.address, d.started_at, d.duration_us;
`

	qDowntimeByAddress = `
SELECT id, address, started_at, duration_us
FROM downtime_events
WHERE address = $1
ORDER BY started_at DESC
LIMIT $2;
`
)

func (r *DowntimeRepoImpl) Open(ctx context.Context, address string, at time.Time) (*target.DowntimeEvent, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ev target.DowntimeEvent
	err := r.db.execQueryer(ctx).QueryRow(ctx, qDowntimeOpen, address, at).
		Scan(&ev.ID, &ev.Address, &ev.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("open downtime %s: %w", address, ErrConflict)
		}
		return nil, fmt.Errorf("open downtime: %w", err)
	}
	return &ev, nil
}

func (r *DowntimeRepoImpl) CloseLatest(ctx context.Context, address string, at time.Time) (*target.DowntimeEvent, bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		ev target.DowntimeEvent
		us *int64
	)
	err := r.db.execQueryer(ctx).QueryRow(ctx, qDowntimeCloseLatest, address, at).
		Scan(&ev.ID, &ev.Address, &ev.StartedAt, &us)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("close downtime: %w", err)
	}
	ev.Duration = microsToDuration(us)
	return &ev, true, nil
}

func (r *DowntimeRepoImpl) ListByAddress(ctx context.Context, address string, limit int) ([]*target.DowntimeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qDowntimeByAddress, address, limit)
	if err != nil {
		return nil, fmt.Errorf("query downtime: %w", err)
	}
	defer rows.Close()

	out := make([]*target.DowntimeEvent, 0, limit)
	for rows.Next() {
		var (
			ev target.DowntimeEvent
			us *int64
		)
		if err := rows.Scan(&ev.ID, &ev.Address, &ev.StartedAt, &us); err != nil {
			return nil, fmt.Errorf("scan downtime: %w", err)
		}
		ev.Duration = microsToDuration(us)
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
