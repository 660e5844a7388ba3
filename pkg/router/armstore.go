package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fathomhq/mediacore/pkg/bandit"
)

// SQLArmStore persists BanditArm state in a plain relational table, matching
// pkg/memory.SQLAdapter's raw *sql.DB-over-pgx convention: no ent generated
// client is checked into this module (the teacher ships ent/schema only,
// with codegen run out of band), so direct SQL is the grounded choice here
// rather than guessing at an unseen generated API.
type SQLArmStore struct {
	db *sql.DB
}

// NewSQLArmStore wraps an existing *sql.DB.
func NewSQLArmStore(db *sql.DB) *SQLArmStore {
	return &SQLArmStore{db: db}
}

func (s *SQLArmStore) Load(ctx context.Context, tenantID, domain string) (map[string]bandit.ArmState, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT arm_id, pulls, reward_sum, reward_sq_sum, context_a, context_b
FROM bandit_arms
WHERE tenant_id = $1 AND domain = $2`, tenantID, domain)
	if err != nil {
		return nil, fmt.Errorf("router: load arms: %w", err)
	}
	defer rows.Close()

	arms := make(map[string]bandit.ArmState)
	for rows.Next() {
		var st bandit.ArmState
		var contextAJSON, contextBJSON []byte
		if err := rows.Scan(&st.ArmID, &st.Pulls, &st.RewardSum, &st.RewardSqSum, &contextAJSON, &contextBJSON); err != nil {
			return nil, fmt.Errorf("router: scan arm: %w", err)
		}
		if len(contextAJSON) > 0 {
			if err := json.Unmarshal(contextAJSON, &st.ContextA); err != nil {
				return nil, fmt.Errorf("router: decode context_a: %w", err)
			}
		}
		if len(contextBJSON) > 0 {
			if err := json.Unmarshal(contextBJSON, &st.ContextB); err != nil {
				return nil, fmt.Errorf("router: decode context_b: %w", err)
			}
		}
		arms[st.ArmID] = st
	}
	return arms, rows.Err()
}

func (s *SQLArmStore) Save(ctx context.Context, tenantID, domain string, arms map[string]bandit.ArmState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("router: begin save tx: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO bandit_arms
	(tenant_id, domain, arm_id, pulls, reward_sum, reward_sq_sum, context_a, context_b, version)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, 1)
ON CONFLICT (tenant_id, domain, arm_id) DO UPDATE SET
	pulls = EXCLUDED.pulls,
	reward_sum = EXCLUDED.reward_sum,
	reward_sq_sum = EXCLUDED.reward_sq_sum,
	context_a = EXCLUDED.context_a,
	context_b = EXCLUDED.context_b,
	version = bandit_arms.version + 1`

	for armID, st := range arms {
		contextAJSON, err := json.Marshal(st.ContextA)
		if err != nil {
			return fmt.Errorf("router: encode context_a: %w", err)
		}
		contextBJSON, err := json.Marshal(st.ContextB)
		if err != nil {
			return fmt.Errorf("router: encode context_b: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			tenantID, domain, armID, st.Pulls, st.RewardSum, st.RewardSqSum, contextAJSON, contextBJSON,
		); err != nil {
			return fmt.Errorf("router: save arm %q: %w", armID, err)
		}
	}
	return tx.Commit()
}
