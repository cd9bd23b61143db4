package settlement

import (
	"context"
	"log"

	"SettleBook/internal/bubble"
	"SettleBook/internal/model"
	"SettleBook/internal/recorder"

	"github.com/shopspring/decimal"
)

// Service runs settlements against the stored bubble balance and records them.
type Service struct {
	Engine   *Engine
	Bubble   *bubble.Manager
	Recorder recorder.Recorder
}

// NewService creates a Service.
func NewService(engine *Engine, bm *bubble.Manager, rec recorder.Recorder) *Service {
	return &Service{Engine: engine, Bubble: bm, Recorder: rec}
}

// Run settles one week. The bubble balance is read, the settlement computed
// and the new balance written back while the bubble manager's lock is held.
// Settling a week again computes from the balance that week started with and
// leaves the stored balance alone.
// A failure to record history is logged and does not fail the run.
func (s *Service) Run(ctx context.Context, weekID string, rows []model.Row) (*model.Settlement, error) {
	if n, err := s.Recorder.RunCount(ctx, weekID); err != nil {
		log.Printf("[WARN] count runs for %s: %v", weekID, err)
	} else if n > 0 {
		log.Printf("[INFO] week %s already settled %d time(s), settling again", weekID, n)
	}

	var result *model.Settlement
	replayed, err := s.Bubble.Update(ctx, weekID, func(previous *decimal.Decimal) (*decimal.Decimal, error) {
		st, err := s.Engine.Compute(rows, previous)
		if err != nil {
			return nil, err
		}
		result = st
		if !st.Bubble.Applied {
			return nil, nil
		}
		next := st.Bubble.NewBalance
		return &next, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Bubble.Applied && replayed {
		log.Printf("[INFO] bubble %s: week %s replayed from %s, balance unchanged", result.Bubble.EntityID,
			weekID, result.Bubble.Previous.StringFixed(2))
	} else if result.Bubble.Applied {
		log.Printf("[INFO] bubble %s: %s -> %s (released=%v)", result.Bubble.EntityID,
			result.Bubble.Previous.StringFixed(2), result.Bubble.NewBalance.StringFixed(2), result.Bubble.Released)
	}
	log.Printf("[INFO] week %s settled: book %s, rule %s, %d transfers",
		weekID, result.BookTotal.StringFixed(2), result.Rule, len(result.Transfers))

	if err := s.Recorder.RecordSettlement(ctx, weekID, result); err != nil {
		log.Printf("[ERROR] record settlement: %v", err)
	}
	return result, nil
}
