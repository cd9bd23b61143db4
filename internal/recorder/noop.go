package recorder

import (
	"context"

	"SettleBook/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSettlement(_ context.Context, _ string, _ *model.Settlement) error {
	return nil
}
func (n *NoopRecorder) RunCount(_ context.Context, _ string) (int, error) { return 0, nil }

func (n *NoopRecorder) Close() error { return nil }
