package bubble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_CreatesZeroBalance(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "state", "bubble.json"))

	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	state, found, err := acc.LoadBalance(ctx, "pyr109")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, state.Balance.IsZero())

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.True(t, st.Threshold.Equal(DefaultThreshold))
}

func TestNewManager_KeepsExistingBalance(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	require.NoError(t, acc.SaveBalance(ctx, model.BubbleState{EntityID: "pyr109", Balance: dec("42.50")}))

	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(dec("42.50")))
	assert.True(t, st.Active)
}

func TestManager_UpdateWritesBack(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	replayed, err := m.Update(ctx, "w1", func(prev *decimal.Decimal) (*decimal.Decimal, error) {
		require.NotNil(t, prev)
		next := prev.Add(dec("30"))
		return &next, nil
	})
	require.NoError(t, err)
	assert.False(t, replayed)

	state, _, err := acc.LoadBalance(ctx, "pyr109")
	require.NoError(t, err)
	assert.True(t, state.Balance.Equal(dec("30")))
	assert.Equal(t, "w1", state.WeekID)
	assert.True(t, state.Previous.IsZero())
	assert.False(t, state.UpdatedAt.IsZero())

	carried, found, err := acc.LoadWeek(ctx, "pyr109", "w1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, carried.IsZero())
}

func TestManager_UpdateSameWeekReplays(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	add := func(amount string) func(*decimal.Decimal) (*decimal.Decimal, error) {
		return func(prev *decimal.Decimal) (*decimal.Decimal, error) {
			next := prev.Add(dec(amount))
			return &next, nil
		}
	}

	_, err = m.Update(ctx, "w1", add("40"))
	require.NoError(t, err)
	_, err = m.Update(ctx, "w2", add("25"))
	require.NoError(t, err)

	var seen []decimal.Decimal
	for _, week := range []string{"w2", "w1", "w2"} {
		replayed, err := m.Update(ctx, week, func(prev *decimal.Decimal) (*decimal.Decimal, error) {
			seen = append(seen, *prev)
			next := prev.Add(dec("1000"))
			return &next, nil
		})
		require.NoError(t, err)
		assert.True(t, replayed, week)
	}
	require.Len(t, seen, 3)
	assert.True(t, seen[0].Equal(dec("40")))
	assert.True(t, seen[1].IsZero())
	assert.True(t, seen[2].Equal(dec("40")))

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(dec("65")), "balance %s", st.Balance)
}

func TestManager_UpdateErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = m.Update(ctx, "w1", func(*decimal.Decimal) (*decimal.Decimal, error) {
		next := dec("999")
		return &next, boom
	})
	assert.ErrorIs(t, err, boom)

	state, _, err := acc.LoadBalance(ctx, "pyr109")
	require.NoError(t, err)
	assert.True(t, state.Balance.IsZero())

	_, found, err := acc.LoadWeek(ctx, "pyr109", "w1")
	require.NoError(t, err)
	assert.False(t, found, "a failed week is settled fresh next time")
}

func TestManager_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	m, err := NewManager(ctx, acc, "pyr109", DefaultThreshold)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = m.Update(ctx, fmt.Sprintf("w%02d", i), func(prev *decimal.Decimal) (*decimal.Decimal, error) {
				next := prev.Add(decimal.NewFromInt(1))
				return &next, nil
			})
		}(i)
	}
	wg.Wait()

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(decimal.NewFromInt(n)), "balance %s", st.Balance)
}

func TestManager_Disabled(t *testing.T) {
	ctx := context.Background()
	acc := NewFileAccumulator(filepath.Join(t.TempDir(), "bubble.json"))
	m, err := NewManager(ctx, acc, "", DefaultThreshold)
	require.NoError(t, err)

	called := false
	_, err = m.Update(ctx, "w1", func(prev *decimal.Decimal) (*decimal.Decimal, error) {
		called = true
		assert.Nil(t, prev)
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	_, err = m.Status(ctx)
	assert.ErrorIs(t, err, ErrNoEntity)
}
