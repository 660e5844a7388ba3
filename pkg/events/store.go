package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// EventService queries persisted events for WebSocket catchup delivery.
// It implements CatchupQuerier.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// GetCatchupEvents returns up to limit events on channel with id > sinceID,
// ordered oldest first.
func (s *EventService) GetCatchupEvents(ctx context.Context, channel string, sinceID, limit int) ([]CatchupEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM events WHERE channel = $1 AND id > $2 ORDER BY id ASC LIMIT $3`,
		channel, sinceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query catchup events: %w", err)
	}
	defer rows.Close()

	var events []CatchupEvent
	for rows.Next() {
		var id int
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan catchup event: %w", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal catchup event %d: %w", id, err)
		}
		events = append(events, CatchupEvent{ID: id, Payload: payload})
	}
	return events, rows.Err()
}
