package bubble

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// FileAccumulator keeps bubble balances in a JSON file keyed by entity id.
// It is used when no database is configured.
type FileAccumulator struct {
	mu   sync.Mutex
	path string
}

type fileEntry struct {
	model.BubbleState
	Weeks map[string]decimal.Decimal `json:"weeks,omitempty"`
}

// NewFileAccumulator returns an accumulator backed by the file at path.
func NewFileAccumulator(path string) *FileAccumulator {
	return &FileAccumulator{path: path}
}

// LoadBalance reads the entity's state. A missing file holds no balances.
func (f *FileAccumulator) LoadBalance(_ context.Context, entityID string) (model.BubbleState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return model.BubbleState{}, false, err
	}
	entry, ok := entries[entityID]
	return entry.BubbleState, ok, nil
}

// LoadWeek returns the balance the entity carried into weekID.
func (f *FileAccumulator) LoadWeek(_ context.Context, entityID, weekID string) (decimal.Decimal, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return decimal.Zero, false, err
	}
	carried, ok := entries[entityID].Weeks[weekID]
	return carried, ok, nil
}

// SaveBalance writes the entity's state, keeping other entities' entries.
func (f *FileAccumulator) SaveBalance(_ context.Context, state model.BubbleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return err
	}
	entry := entries[state.EntityID]
	entry.BubbleState = state
	if state.WeekID != "" {
		if entry.Weeks == nil {
			entry.Weeks = make(map[string]decimal.Decimal)
		}
		entry.Weeks[state.WeekID] = state.Previous
	}
	entries[state.EntityID] = entry

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, data, 0644)
}

func (f *FileAccumulator) read() (map[string]fileEntry, error) {
	entries := make(map[string]fileEntry)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
