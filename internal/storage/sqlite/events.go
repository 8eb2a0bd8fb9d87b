package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// AppendEvents adds events to the log in order and assigns their IDs.
func (s *SQLiteStore) AppendEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	return s.atomic(ctx, func(q dbtx) error {
		for i := range events {
			ev := &events[i]
			if ev.ID == "" {
				ev.ID = newID()
			}

			payload, err := json.Marshal(ev.Payload)
			if err != nil {
				return fmt.Errorf("failed to encode event payload: %w", err)
			}

			_, err = q.ExecContext(ctx,
				`INSERT INTO events (id, type, group_id, source_id, triggered_by, occurred_at, payload)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				ev.ID, ev.Type, ev.GroupID, ev.SourceID, ev.TriggeredBy, toMillis(ev.OccurredAt), string(payload),
			)
			if err != nil {
				return fmt.Errorf("failed to insert event: %w", err)
			}
		}
		return nil
	})
}

// ListEventsByGroup returns a group's events in the order they were appended.
func (s *SQLiteStore) ListEventsByGroup(ctx context.Context, groupID string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, group_id, source_id, triggered_by, occurred_at, payload
		 FROM events WHERE group_id = ? ORDER BY seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var occurredAt int64
		var payload string
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.GroupID, &ev.SourceID, &ev.TriggeredBy, &occurredAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.OccurredAt = fromMillis(occurredAt)
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode event payload: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
