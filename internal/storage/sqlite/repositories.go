package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

// CombatantRepository implements combat.CombatantRepository.
type CombatantRepository struct {
	db *sql.DB
}

// Get returns the combatant, or combat.ErrCombatantNotFound.
func (r *CombatantRepository) Get(ctx context.Context, id string) (*combat.Combatant, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var (
		c                 combat.Combatant
		kind, role, state string
		equipment, packed string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, kind, role, level, experience,
		       strength, dexterity, constitution, intelligence, wisdom, charisma, agility,
		       max_hp, current_hp, state, equipment, consumables
		  FROM combatants WHERE id = ?`, id,
	).Scan(
		&c.ID, &c.SessionID, &c.Name, &kind, &role, &c.Level, &c.Experience,
		&c.Abilities.Strength, &c.Abilities.Dexterity, &c.Abilities.Constitution,
		&c.Abilities.Intelligence, &c.Abilities.Wisdom, &c.Abilities.Charisma, &c.Abilities.Agility,
		&c.MaxHP, &c.CurrentHP, &state, &equipment, &packed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", combat.ErrCombatantNotFound, id)
		}
		return nil, fmt.Errorf("get combatant: %w", err)
	}
	var slots map[string]string
	if err := json.Unmarshal([]byte(equipment), &slots); err != nil {
		return nil, fmt.Errorf("decode equipment of %q: %w", id, err)
	}
	c.Consumables = make(map[string]int)
	if err := json.Unmarshal([]byte(packed), &c.Consumables); err != nil {
		return nil, fmt.Errorf("decode consumables of %q: %w", id, err)
	}
	if c.Consumables == nil {
		c.Consumables = make(map[string]int)
	}
	c.Kind = combat.Kind(kind)
	c.Role = combat.Role(role)
	c.State = combat.State(state)
	raw := make(map[combat.Slot]string, len(slots))
	for k, v := range slots {
		raw[combat.Slot(k)] = v
	}
	c.Equipment = combat.NormalizeEquipment(raw)
	return &c, nil
}

// Save inserts or replaces the combatant.
func (r *CombatantRepository) Save(ctx context.Context, c *combat.Combatant) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("%w: combatant id is required", combat.ErrInvalidInput)
	}
	slots := make(map[string]string, len(c.Equipment))
	for k, v := range c.Equipment {
		slots[string(k)] = v
	}
	equipment, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode equipment: %w", err)
	}
	packed := c.Consumables
	if packed == nil {
		packed = map[string]int{}
	}
	consumables, err := json.Marshal(packed)
	if err != nil {
		return fmt.Errorf("encode consumables: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO combatants (
		   id, session_id, name, kind, role, level, experience,
		   strength, dexterity, constitution, intelligence, wisdom, charisma, agility,
		   max_hp, current_hp, state, equipment, consumables, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id, name = excluded.name,
		   kind = excluded.kind, role = excluded.role,
		   level = excluded.level, experience = excluded.experience,
		   strength = excluded.strength, dexterity = excluded.dexterity,
		   constitution = excluded.constitution, intelligence = excluded.intelligence,
		   wisdom = excluded.wisdom, charisma = excluded.charisma, agility = excluded.agility,
		   max_hp = excluded.max_hp, current_hp = excluded.current_hp,
		   state = excluded.state, equipment = excluded.equipment,
		   consumables = excluded.consumables, updated_at = excluded.updated_at`,
		c.ID, c.SessionID, c.Name, string(c.Kind), string(c.Role), c.Level, c.Experience,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma, c.Abilities.Agility,
		c.MaxHP, c.CurrentHP, string(c.State), string(equipment), string(consumables), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save combatant: %w", err)
	}
	return nil
}

// EncounterRepository implements combat.EncounterRepository.
type EncounterRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEncounter(row rowScanner) (*combat.Encounter, error) {
	var (
		e                  combat.Encounter
		status             string
		hostiles, acted    string
		xpAwarded          int
		createdAt, updated int64
	)
	if err := row.Scan(
		&e.ID, &e.SessionID, &e.Name, &e.Difficulty, &status, &hostiles, &e.Round,
		&e.Budget.Total, &e.Budget.Remaining, &acted, &xpAwarded, &createdAt, &updated,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hostiles), &e.HostileIDs); err != nil {
		return nil, fmt.Errorf("decode hostile ids: %w", err)
	}
	if err := json.Unmarshal([]byte(acted), &e.Acted); err != nil {
		return nil, fmt.Errorf("decode acted: %w", err)
	}
	e.Status = combat.Status(status)
	e.XPAwarded = xpAwarded != 0
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const encounterColumns = `id, session_id, name, difficulty, status, hostile_ids, round,
	budget_total, budget_remaining, acted, xp_awarded, created_at, updated_at`

// Create inserts a new encounter, or returns combat.ErrEncounterExists.
func (r *EncounterRepository) Create(ctx context.Context, e *combat.Encounter) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	hostiles, err := encodeIDs(e.HostileIDs)
	if err != nil {
		return fmt.Errorf("encode hostile ids: %w", err)
	}
	acted, err := encodeIDs(e.Acted)
	if err != nil {
		return fmt.Errorf("encode acted: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO encounters (`+encounterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Name, e.Difficulty, string(e.Status), hostiles, e.Round,
		e.Budget.Total, e.Budget.Remaining, acted, boolInt(e.XPAwarded),
		toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", combat.ErrEncounterExists, e.ID)
		}
		return fmt.Errorf("create encounter: %w", err)
	}
	return nil
}

// Get returns the encounter, or combat.ErrEncounterNotFound.
func (r *EncounterRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	e, err := scanEncounter(r.db.QueryRowContext(ctx, `SELECT `+encounterColumns+` FROM encounters WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, id)
		}
		return nil, fmt.Errorf("get encounter: %w", err)
	}
	return e, nil
}

// Update writes the mutable encounter state, or returns combat.ErrEncounterNotFound.
func (r *EncounterRepository) Update(ctx context.Context, e *combat.Encounter) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	hostiles, err := encodeIDs(e.HostileIDs)
	if err != nil {
		return fmt.Errorf("encode hostile ids: %w", err)
	}
	acted, err := encodeIDs(e.Acted)
	if err != nil {
		return fmt.Errorf("encode acted: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE encounters
		   SET status = ?, hostile_ids = ?, round = ?, budget_total = ?, budget_remaining = ?,
		       acted = ?, xp_awarded = ?, updated_at = ?
		 WHERE id = ?`,
		string(e.Status), hostiles, e.Round, e.Budget.Total, e.Budget.Remaining,
		acted, boolInt(e.XPAwarded), toMillis(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update encounter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update encounter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, e.ID)
	}
	return nil
}

// ListBySession returns the session's encounters ordered by creation time.
func (r *EncounterRepository) ListBySession(ctx context.Context, sessionID string) ([]*combat.Encounter, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+encounterColumns+` FROM encounters WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list encounters: %w", err)
	}
	defer rows.Close()

	out := make([]*combat.Encounter, 0)
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventRepository implements combat.EventSink over the game_events table.
type EventRepository struct {
	db *sql.DB
}

// Record appends ev.
func (r *EventRepository) Record(ctx context.Context, ev combat.Event) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO game_events (session_id, encounter_id, actor_id, event_type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.EncounterID, ev.ActorID, ev.Type, ev.Description, toMillis(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record game event: %w", err)
	}
	return nil
}

// ListBySession returns the session's events in recording order.
func (r *EventRepository) ListBySession(ctx context.Context, sessionID string) ([]combat.Event, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, encounter_id, actor_id, event_type, description, created_at
		  FROM game_events WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list game events: %w", err)
	}
	defer rows.Close()

	out := make([]combat.Event, 0)
	for rows.Next() {
		var (
			ev        combat.Event
			createdAt int64
		)
		if err := rows.Scan(&ev.SessionID, &ev.EncounterID, &ev.ActorID, &ev.Type, &ev.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		ev.CreatedAt = fromMillis(createdAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ItemRepository stores item definitions and implements combat.EquipmentBonusLookup.
type ItemRepository struct {
	db *sql.DB
}

// Upsert inserts or replaces an item definition.
func (r *ItemRepository) Upsert(ctx context.Context, d *inventory.ItemDef) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	bonuses := d.Bonuses
	if bonuses == nil {
		bonuses = map[string]int{}
	}
	encoded, err := json.Marshal(bonuses)
	if err != nil {
		return fmt.Errorf("encode bonuses: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO items (id, name, description, kind, slot, bonuses, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, description = excluded.description,
		   kind = excluded.kind, slot = excluded.slot,
		   bonuses = excluded.bonuses, value = excluded.value`,
		d.ID, d.Name, d.Description, d.Kind, string(d.Slot), string(encoded), d.Value,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// DefenseBonus returns the item's DEF bonus, or 0 when the item is unknown.
func (r *ItemRepository) DefenseBonus(ctx context.Context, itemRef string) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	var encoded string
	err := r.db.QueryRowContext(ctx, `SELECT bonuses FROM items WHERE id = ?`, itemRef).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get item bonus: %w", err)
	}
	def := inventory.ItemDef{}
	if err := json.Unmarshal([]byte(encoded), &def.Bonuses); err != nil {
		return 0, fmt.Errorf("decode bonuses of %q: %w", itemRef, err)
	}
	return def.Bonus(inventory.BonusDefense), nil
}
