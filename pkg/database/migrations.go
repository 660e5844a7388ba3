package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes not expressed by
// the plain column migrations, covering memory_items.text (retrieval
// lexical matching, C5) and mission_outbox.final_text (debugging/search over
// past mission results).
func CreateGINIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_memory_items_text_gin
		ON memory_items USING gin(to_tsvector('english', text))`)
	if err != nil {
		return fmt.Errorf("failed to create memory_items text GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_mission_outbox_final_text_gin
		ON mission_outbox USING gin(to_tsvector('english', COALESCE(final_text, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create mission_outbox final_text GIN index: %w", err)
	}

	return nil
}
