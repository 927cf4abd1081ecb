package target

//go:generate mockgen -destination=mocks/mock_port.go -package=mocks . Repo,DowntimeRepo

import (
	"context"
	"time"
)

type Repo interface {
	// LoadTargets returns address and status of every registered target.
	LoadTargets(ctx context.Context) ([]*Target, error)
	// StatusOf reads the stored status for exactly the given addresses.
	// Addresses that are not registered are absent from the result.
	StatusOf(ctx context.Context, addresses []string) (map[string]Status, error)
	// BulkUpdateStatus is best effort per item: it returns how many rows
	// were modified and a joined error describing the items that failed.
	BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) (int64, error)
	// UpdateStatus writes a single status update and fails when the target
	// is not registered. Used inside transition transactions.
	UpdateStatus(ctx context.Context, u StatusUpdate) error
	MarkDown(ctx context.Context, address string, at time.Time) error
}

type DowntimeRepo interface {
	Open(ctx context.Context, address string, at time.Time) (*DowntimeEvent, error)
	// CloseLatest sets the duration of the most recent open event of
	// address. closed is false when no event was open.
	CloseLatest(ctx context.Context, address string, at time.Time) (ev *DowntimeEvent, closed bool, err error)
}
