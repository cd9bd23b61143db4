package bubble

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// ErrNoEntity is returned when no bubble entity is configured.
var ErrNoEntity = errors.New("no bubble entity configured")

// Accumulator stores the running bubble balance per entity, plus the balance
// each applied week started from.
type Accumulator interface {
	// LoadBalance returns the stored state and false when there is none.
	LoadBalance(ctx context.Context, entityID string) (model.BubbleState, bool, error)
	// LoadWeek returns the balance carried into weekID, false if that week
	// never changed the balance.
	LoadWeek(ctx context.Context, entityID, weekID string) (decimal.Decimal, bool, error)
	// SaveBalance stores state. A non-empty WeekID also records
	// state.Previous as the balance carried into that week.
	SaveBalance(ctx context.Context, state model.BubbleState) error
}

// Manager serializes reads and write-backs of the bubble balance so two
// settlements cannot interleave their read-modify-write.
type Manager struct {
	mu        sync.Mutex
	acc       Accumulator
	entityID  string
	threshold decimal.Decimal
}

// NewManager creates a Manager and starts the entity's balance at zero if
// the accumulator has no entry for it yet. An empty entityID disables the bubble.
func NewManager(ctx context.Context, acc Accumulator, entityID string, threshold decimal.Decimal) (*Manager, error) {
	m := &Manager{acc: acc, entityID: entityID, threshold: threshold}
	if entityID == "" {
		return m, nil
	}

	_, found, err := acc.LoadBalance(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load bubble balance: %w", err)
	}
	if !found {
		if err := acc.SaveBalance(ctx, model.BubbleState{EntityID: entityID, Balance: decimal.Zero, UpdatedAt: time.Now()}); err != nil {
			return nil, fmt.Errorf("init bubble balance: %w", err)
		}
		log.Printf("[INFO] bubble balance initialized for %s", entityID)
	}
	return m, nil
}

// EntityID returns the configured bubble entity.
func (m *Manager) EntityID() string { return m.entityID }

// Threshold returns the release threshold.
func (m *Manager) Threshold() decimal.Decimal { return m.threshold }

// Update hands fn the balance carried into weekID and stores the balance fn
// returns, all under the manager lock. The first time a week is settled that
// is the current balance. A week that already changed the balance is replayed
// from the balance it started with and nothing is written, so settling the
// same week twice counts its amount once; replayed reports that case.
// fn gets nil when no balance is tracked and returns nil to leave the stored
// balance alone. An error from fn aborts without writing.
func (m *Manager) Update(ctx context.Context, weekID string, fn func(previous *decimal.Decimal) (*decimal.Decimal, error)) (replayed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entityID == "" {
		_, err := fn(nil)
		return false, err
	}

	if weekID != "" {
		carried, found, err := m.acc.LoadWeek(ctx, m.entityID, weekID)
		if err != nil {
			return false, fmt.Errorf("load bubble week %s: %w", weekID, err)
		}
		if found {
			_, err := fn(&carried)
			return true, err
		}
	}

	var previous *decimal.Decimal
	state, found, err := m.acc.LoadBalance(ctx, m.entityID)
	if err != nil {
		return false, fmt.Errorf("load bubble balance: %w", err)
	}
	if found {
		previous = &state.Balance
	}

	next, err := fn(previous)
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, nil
	}

	saved := model.BubbleState{EntityID: m.entityID, Balance: *next, WeekID: weekID, UpdatedAt: time.Now()}
	if previous != nil {
		saved.Previous = *previous
	}
	if err := m.acc.SaveBalance(ctx, saved); err != nil {
		return false, fmt.Errorf("save bubble balance: %w", err)
	}
	return false, nil
}

// Status returns the current bubble balance for display.
func (m *Manager) Status(ctx context.Context) (model.BubbleStatus, error) {
	if m.entityID == "" {
		return model.BubbleStatus{Threshold: m.threshold}, ErrNoEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, _, err := m.acc.LoadBalance(ctx, m.entityID)
	if err != nil {
		return model.BubbleStatus{}, fmt.Errorf("load bubble balance: %w", err)
	}
	return model.BubbleStatus{
		EntityID:  m.entityID,
		Balance:   state.Balance,
		Threshold: m.threshold,
		Active:    !state.Balance.IsZero(),
	}, nil
}
