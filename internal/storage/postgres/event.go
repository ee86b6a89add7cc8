package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// EventRepository stores the game event log. It implements combat.EventSink.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an EventRepository backed by the given pool.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Record appends ev to game_events.
func (r *EventRepository) Record(ctx context.Context, ev combat.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_events (session_id, encounter_id, actor_id, event_type, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ev.SessionID, ev.EncounterID, ev.ActorID, ev.Type, ev.Description, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording game event: %w", err)
	}
	return nil
}

// ListBySession returns the session's events in recording order.
func (r *EventRepository) ListBySession(ctx context.Context, sessionID string) ([]combat.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, encounter_id, actor_id, event_type, description, created_at
		FROM game_events WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing game events: %w", err)
	}
	defer rows.Close()

	out := make([]combat.Event, 0)
	for rows.Next() {
		var ev combat.Event
		if err := rows.Scan(&ev.SessionID, &ev.EncounterID, &ev.ActorID, &ev.Type, &ev.Description, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning game event row: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
