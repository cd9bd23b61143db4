package recorder

import (
	"context"

	"SettleBook/internal/model"
)

// Recorder persists settlement history for later review.
type Recorder interface {
	RecordSettlement(ctx context.Context, weekID string, s *model.Settlement) error
	// RunCount returns how many settlements were recorded for a week.
	RunCount(ctx context.Context, weekID string) (int, error)
	Close() error
}
