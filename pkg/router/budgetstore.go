package router

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
)

// SQLBudgetStore is a BudgetSource backed by the budget_state table, one row
// per tenant, tracking cumulative spend within a rolling window. Matches
// pkg/memory.SQLAdapter and SQLArmStore's raw *sql.DB-over-pgx convention
// (no generated ent client is checked into this module — see DESIGN.md).
type SQLBudgetStore struct {
	db  *sql.DB
	cfg config.BudgetConfig
}

// NewSQLBudgetStore wraps an existing *sql.DB.
func NewSQLBudgetStore(db *sql.DB, cfg config.BudgetConfig) *SQLBudgetStore {
	return &SQLBudgetStore{db: db, cfg: cfg}
}

// RemainingUSD implements BudgetSource. A tenant with no row yet has its
// full hard cap available; a window whose age exceeds WindowDuration is
// treated as reset (rolled over lazily on the next spend record, not here,
// so a read-only preflight never needs a write).
func (s *SQLBudgetStore) RemainingUSD(ctx context.Context, tenantID string) (float64, error) {
	var spent float64
	var windowStarted time.Time
	err := s.db.QueryRowContext(ctx, `
SELECT spent_usd, window_started_at FROM budget_state WHERE tenant_id = $1`, tenantID).
		Scan(&spent, &windowStarted)
	if err == sql.ErrNoRows {
		return s.cfg.HardCapUSD, nil
	}
	if err != nil {
		return 0, fmt.Errorf("router: load budget state for %s: %w", tenantID, err)
	}
	if s.cfg.WindowDuration > 0 && time.Since(windowStarted) > s.cfg.WindowDuration {
		return s.cfg.HardCapUSD, nil
	}
	remaining := s.cfg.HardCapUSD - spent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordSpend adds amountUSD to the tenant's current window, rolling the
// window over to start now if it has expired.
func (s *SQLBudgetStore) RecordSpend(ctx context.Context, tenantID string, amountUSD float64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO budget_state (tenant_id, spent_usd, window_started_at)
VALUES ($1, $2, $3)
ON CONFLICT (tenant_id) DO UPDATE SET
	spent_usd = CASE
		WHEN $4 > 0 AND EXTRACT(EPOCH FROM ($3 - budget_state.window_started_at)) > $4
			THEN $2
		ELSE budget_state.spent_usd + $2
	END,
	window_started_at = CASE
		WHEN $4 > 0 AND EXTRACT(EPOCH FROM ($3 - budget_state.window_started_at)) > $4
			THEN $3
		ELSE budget_state.window_started_at
	END`,
		tenantID, amountUSD, now, s.cfg.WindowDuration.Seconds())
	if err != nil {
		return fmt.Errorf("router: record spend for %s: %w", tenantID, err)
	}
	return nil
}
