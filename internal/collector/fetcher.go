package collector

import (
	"context"

	"SettleBook/internal/model"
)

// Fetcher defines the interface for fetching weekly player rows.
type Fetcher interface {
	// LatestWeek returns the newest week with data, or "" if there is none.
	LatestWeek(ctx context.Context) (string, error)
	FetchRows(ctx context.Context, weekID string) ([]model.Row, error)
	Name() string
}

// RowSink receives rows fetched from a remote source so they can be kept locally.
type RowSink interface {
	SaveRows(ctx context.Context, weekID string, rows []model.Row) error
}
