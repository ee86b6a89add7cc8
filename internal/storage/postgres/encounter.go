package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)


// EncounterRepository persists encounters. It implements combat.EncounterRepository.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

const encounterColumns = `id, session_id, name, difficulty, status, hostile_ids, round,
	budget_total, budget_remaining, acted, xp_awarded, created_at, updated_at`

func scanEncounter(row pgx.Row) (*combat.Encounter, error) {
	var (
		e      combat.Encounter
		status string
	)
	if err := row.Scan(
		&e.ID, &e.SessionID, &e.Name, &e.Difficulty, &status, &e.HostileIDs, &e.Round,
		&e.Budget.Total, &e.Budget.Remaining, &e.Acted, &e.XPAwarded, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = combat.Status(status)
	return &e, nil
}

// Create inserts a new encounter.
//
// Postcondition: Returns combat.ErrEncounterExists on a duplicate id.
func (r *EncounterRepository) Create(ctx context.Context, e *combat.Encounter) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO encounters (`+encounterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.SessionID, e.Name, e.Difficulty, string(e.Status), nonNil(e.HostileIDs), e.Round,
		e.Budget.Total, e.Budget.Remaining, nonNil(e.Acted), e.XPAwarded, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %q", combat.ErrEncounterExists, e.ID)
		}
		return fmt.Errorf("inserting encounter: %w", err)
	}
	return nil
}

// Get retrieves an encounter by id.
//
// Postcondition: Returns the Encounter or combat.ErrEncounterNotFound.
func (r *EncounterRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	e, err := scanEncounter(r.db.QueryRow(ctx, `SELECT `+encounterColumns+` FROM encounters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, id)
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	return e, nil
}

// Update writes the mutable encounter state.
//
// Postcondition: Returns combat.ErrEncounterNotFound if no row was updated.
func (r *EncounterRepository) Update(ctx context.Context, e *combat.Encounter) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE encounters SET
			status = $2, hostile_ids = $3, round = $4,
			budget_total = $5, budget_remaining = $6, acted = $7,
			xp_awarded = $8, updated_at = $9
		WHERE id = $1`,
		e.ID, string(e.Status), nonNil(e.HostileIDs), e.Round,
		e.Budget.Total, e.Budget.Remaining, nonNil(e.Acted), e.XPAwarded, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, e.ID)
	}
	return nil
}

// ListBySession returns the session's encounters ordered by creation time.
func (r *EncounterRepository) ListBySession(ctx context.Context, sessionID string) ([]*combat.Encounter, error) {
	rows, err := r.db.Query(ctx, `SELECT `+encounterColumns+` FROM encounters WHERE session_id = $1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	out := make([]*combat.Encounter, 0)
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
