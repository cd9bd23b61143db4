package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"SettleBook/internal/model"
)

// ErrNoRows is returned when a week has no rows to settle.
var ErrNoRows = errors.New("no rows for week")

// MockFetcher serves fixed weeks for development and testing.
type MockFetcher struct {
	Weeks map[string][]model.Row
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) LatestWeek(_ context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	weeks := make([]string, 0, len(m.Weeks))
	for w := range m.Weeks {
		weeks = append(weeks, w)
	}
	if len(weeks) == 0 {
		return "", nil
	}
	sort.Strings(weeks)
	return weeks[len(weeks)-1], nil
}

func (m *MockFetcher) FetchRows(_ context.Context, weekID string) ([]model.Row, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Weeks[weekID], nil
}

// Collector fetches a week's rows and cleans them up for settlement.
type Collector struct {
	Fetcher Fetcher
	Sink    RowSink
}

// NewCollector creates a Collector. sink may be nil.
func NewCollector(fetcher Fetcher, sink RowSink) *Collector {
	return &Collector{Fetcher: fetcher, Sink: sink}
}

// Collect returns the rows of weekID, or of the latest week when weekID is
// empty, together with the week actually collected.
func (c *Collector) Collect(ctx context.Context, weekID string) (string, []model.Row, error) {
	if weekID == "" {
		latest, err := c.Fetcher.LatestWeek(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("fetch latest week: %w", err)
		}
		if latest == "" {
			return "", nil, ErrNoRows
		}
		weekID = latest
	}

	raw, err := c.Fetcher.FetchRows(ctx, weekID)
	if err != nil {
		return weekID, nil, fmt.Errorf("fetch rows for %s: %w", weekID, err)
	}

	rows := make([]model.Row, 0, len(raw))
	for _, r := range raw {
		r.GroupID = strings.TrimSpace(r.GroupID)
		r.EntityID = strings.ToLower(strings.TrimSpace(r.EntityID))
		r.DisplayName = strings.TrimSpace(r.DisplayName)
		if r.GroupID == "" || r.EntityID == "" {
			log.Printf("[WARN] week %s: skipping row without agent or player: %+v", weekID, r)
			continue
		}
		if r.DisplayName == "" {
			r.DisplayName = r.EntityID
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return weekID, nil, fmt.Errorf("%w %s", ErrNoRows, weekID)
	}

	if c.Sink != nil {
		if err := c.Sink.SaveRows(ctx, weekID, rows); err != nil {
			log.Printf("[WARN] keep rows for %s: %v", weekID, err)
		}
	}
	log.Printf("[INFO] collected %d rows for week %s from %s", len(rows), weekID, c.Fetcher.Name())
	return weekID, rows, nil
}
