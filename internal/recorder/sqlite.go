package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"SettleBook/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrInvalidStatusField is returned by SetStatus for anything but engaged or paid.
var ErrInvalidStatusField = errors.New("invalid status field")

// SQLiteRecorder stores weekly rows, bubble balances and settlement history
// in one SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS weekly_rows (
			week_id      TEXT NOT NULL,
			entity_id    TEXT NOT NULL,
			group_id     TEXT NOT NULL,
			display_name TEXT,
			amount       TEXT,
			engaged      INTEGER NOT NULL DEFAULT 0,
			paid         INTEGER NOT NULL DEFAULT 0,
			updated_at   INTEGER NOT NULL,
			PRIMARY KEY (week_id, entity_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_week ON weekly_rows(week_id)`,

		`CREATE TABLE IF NOT EXISTS bubble_balances (
			entity_id  TEXT PRIMARY KEY,
			balance    TEXT NOT NULL,
			week_id    TEXT NOT NULL DEFAULT '',
			previous   TEXT NOT NULL DEFAULT '0',
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bubble_weeks (
			entity_id  TEXT NOT NULL,
			week_id    TEXT NOT NULL,
			previous   TEXT NOT NULL,
			balance    TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (entity_id, week_id)
		)`,

		`CREATE TABLE IF NOT EXISTS settlement_runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			week_id     TEXT NOT NULL,
			book_total  TEXT NOT NULL,
			rule        TEXT NOT NULL,
			explanation TEXT,
			bubble_note TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_week ON settlement_runs(week_id)`,

		`CREATE TABLE IF NOT EXISTS settlement_shares (
			run_id       TEXT NOT NULL,
			group_id     TEXT NOT NULL,
			net          TEXT NOT NULL,
			member_count INTEGER NOT NULL,
			fraction     TEXT NOT NULL,
			entitlement  TEXT NOT NULL,
			delta        TEXT NOT NULL,
			PRIMARY KEY (run_id, group_id)
		)`,

		`CREATE TABLE IF NOT EXISTS settlement_transfers (
			run_id     TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			from_group TEXT NOT NULL,
			to_group   TEXT NOT NULL,
			amount     TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Name identifies the store as a row source.
func (r *SQLiteRecorder) Name() string { return "sqlite" }

// SaveRows upserts a week's rows. Existing engaged/paid flags are kept.
func (r *SQLiteRecorder) SaveRows(ctx context.Context, weekID string, rows []model.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO weekly_rows
			(week_id, entity_id, group_id, display_name, amount, engaged, paid, updated_at)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT (week_id, entity_id) DO UPDATE SET
				group_id = excluded.group_id,
				display_name = excluded.display_name,
				amount = excluded.amount,
				updated_at = excluded.updated_at`,
			weekID, row.EntityID, row.GroupID, row.DisplayName, row.Amount.String(),
			row.Engaged, row.Paid, now,
		); err != nil {
			return fmt.Errorf("insert row %s: %w", row.EntityID, err)
		}
	}
	return tx.Commit()
}

// LatestWeek returns the most recent week with rows, or "" when there is none.
func (r *SQLiteRecorder) LatestWeek(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var week sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(week_id) FROM weekly_rows`).Scan(&week); err != nil {
		return "", fmt.Errorf("query latest week: %w", err)
	}
	return week.String, nil
}

// FetchRows returns a week's rows ordered by agent then player.
// Missing or unparsable amounts read as zero.
func (r *SQLiteRecorder) FetchRows(ctx context.Context, weekID string) ([]model.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.db.QueryContext(ctx, `SELECT group_id, entity_id, display_name, amount, engaged, paid
		FROM weekly_rows WHERE week_id = ? ORDER BY group_id, entity_id`, weekID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rs.Close()

	var rows []model.Row
	for rs.Next() {
		var (
			row    model.Row
			name   sql.NullString
			amount sql.NullString
		)
		if err := rs.Scan(&row.GroupID, &row.EntityID, &name, &amount, &row.Engaged, &row.Paid); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.DisplayName = name.String
		row.Amount = model.ParseAmount(amount.String)
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// SetStatus sets a player's engaged or paid flag for a week.
func (r *SQLiteRecorder) SetStatus(ctx context.Context, weekID, entityID, field string, value bool) error {
	var column string
	switch field {
	case "engaged":
		column = "engaged"
	case "paid":
		column = "paid"
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatusField, field)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE weekly_rows SET `+column+` = ?, updated_at = ? WHERE week_id = ? AND entity_id = ?`,
		value, time.Now().Unix(), weekID, entityID)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no row for %s in week %s", entityID, weekID)
	}
	return nil
}

// LoadBalance returns the stored bubble balance for an entity.
func (r *SQLiteRecorder) LoadBalance(ctx context.Context, entityID string) (model.BubbleState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		balance  decimal.NullDecimal
		previous decimal.NullDecimal
		weekID   string
		updated  int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT balance, week_id, previous, updated_at FROM bubble_balances WHERE entity_id = ?`, entityID).
		Scan(&balance, &weekID, &previous, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BubbleState{}, false, nil
	}
	if err != nil {
		return model.BubbleState{}, false, fmt.Errorf("query bubble balance: %w", err)
	}

	state := model.BubbleState{EntityID: entityID, Balance: decimal.Zero, WeekID: weekID, UpdatedAt: time.Unix(updated, 0)}
	if balance.Valid {
		state.Balance = balance.Decimal
	}
	if previous.Valid {
		state.Previous = previous.Decimal
	}
	return state, true, nil
}

// LoadWeek returns the bubble balance an entity carried into weekID.
func (r *SQLiteRecorder) LoadWeek(ctx context.Context, entityID, weekID string) (decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var previous decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `SELECT previous FROM bubble_weeks WHERE entity_id = ? AND week_id = ?`, entityID, weekID).
		Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("query bubble week: %w", err)
	}
	if !previous.Valid {
		return decimal.Zero, true, nil
	}
	return previous.Decimal, true, nil
}

// SaveBalance upserts an entity's bubble balance. When the state names a
// week, the balance carried into it is recorded in the same transaction.
func (r *SQLiteRecorder) SaveBalance(ctx context.Context, state model.BubbleState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO bubble_balances (entity_id, balance, week_id, previous, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT (entity_id) DO UPDATE SET balance = excluded.balance, week_id = excluded.week_id,
			previous = excluded.previous, updated_at = excluded.updated_at`,
		state.EntityID, state.Balance.String(), state.WeekID, state.Previous.String(), updated.Unix(),
	); err != nil {
		return fmt.Errorf("upsert bubble balance: %w", err)
	}
	if state.WeekID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO bubble_weeks (entity_id, week_id, previous, balance, updated_at)
			VALUES (?,?,?,?,?)
			ON CONFLICT (entity_id, week_id) DO UPDATE SET
				previous = excluded.previous, balance = excluded.balance, updated_at = excluded.updated_at`,
			state.EntityID, state.WeekID, state.Previous.String(), state.Balance.String(), updated.Unix(),
		); err != nil {
			return fmt.Errorf("insert bubble week: %w", err)
		}
	}
	return tx.Commit()
}

// RecordSettlement stores a settlement run with its shares and transfers.
func (r *SQLiteRecorder) RecordSettlement(ctx context.Context, weekID string, s *model.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO settlement_runs
		(id, timestamp, week_id, book_total, rule, explanation, bubble_note)
		VALUES (?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), weekID, s.BookTotal.StringFixed(2), string(s.Rule), s.Explanation, s.Bubble.Note,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sh := range s.Shares {
		var (
			net     = decimal.Zero
			members int
		)
		if g := s.Group(sh.GroupID); g != nil {
			net, members = g.Net, g.MemberCount
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settlement_shares
			(run_id, group_id, net, member_count, fraction, entitlement, delta)
			VALUES (?,?,?,?,?,?,?)`,
			runID, sh.GroupID, net.StringFixed(2), members,
			sh.Fraction.String(), sh.Entitlement.StringFixed(2), sh.Delta.StringFixed(2),
		); err != nil {
			return fmt.Errorf("insert share %s: %w", sh.GroupID, err)
		}
	}

	for i, tr := range s.Transfers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settlement_transfers
			(run_id, seq, from_group, to_group, amount) VALUES (?,?,?,?,?)`,
			runID, i, tr.From, tr.To, tr.Amount.StringFixed(2),
		); err != nil {
			return fmt.Errorf("insert transfer %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RunCount returns how many settlement runs were recorded for a week.
func (r *SQLiteRecorder) RunCount(ctx context.Context, weekID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settlement_runs WHERE week_id = ?`, weekID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
