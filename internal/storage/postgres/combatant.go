package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// CombatantRepository persists combatants. It implements combat.CombatantRepository.
type CombatantRepository struct {
	db *pgxpool.Pool
}

// NewCombatantRepository creates a CombatantRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatantRepository(db *pgxpool.Pool) *CombatantRepository {
	return &CombatantRepository{db: db}
}

const combatantColumns = `id, session_id, name, kind, role, level, experience,
	strength, dexterity, constitution, intelligence, wisdom, charisma, agility,
	max_hp, current_hp, state, equipment, consumables`

// Get retrieves a combatant by id.
//
// Postcondition: Returns the Combatant or combat.ErrCombatantNotFound.
func (r *CombatantRepository) Get(ctx context.Context, id string) (*combat.Combatant, error) {
	var (
		c                 combat.Combatant
		kind, role, state string
		equipment         map[string]string
		consumables       map[string]int
	)
	err := r.db.QueryRow(ctx, `SELECT `+combatantColumns+` FROM combatants WHERE id = $1`, id).Scan(
		&c.ID, &c.SessionID, &c.Name, &kind, &role, &c.Level, &c.Experience,
		&c.Abilities.Strength, &c.Abilities.Dexterity, &c.Abilities.Constitution,
		&c.Abilities.Intelligence, &c.Abilities.Wisdom, &c.Abilities.Charisma, &c.Abilities.Agility,
		&c.MaxHP, &c.CurrentHP, &state, &equipment, &consumables,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", combat.ErrCombatantNotFound, id)
		}
		return nil, fmt.Errorf("querying combatant: %w", err)
	}
	c.Kind = combat.Kind(kind)
	c.Role = combat.Role(role)
	c.State = combat.State(state)
	raw := make(map[combat.Slot]string, len(equipment))
	for k, v := range equipment {
		raw[combat.Slot(k)] = v
	}
	c.Equipment = combat.NormalizeEquipment(raw)
	if consumables == nil {
		consumables = make(map[string]int)
	}
	c.Consumables = consumables
	return &c, nil
}

// Save inserts or updates a combatant. Only persisted values are written;
// no combat math happens here.
//
// Precondition: c.ID must be non-empty.
func (r *CombatantRepository) Save(ctx context.Context, c *combat.Combatant) error {
	if c.ID == "" {
		return fmt.Errorf("%w: combatant id is required", combat.ErrInvalidInput)
	}
	equipment := make(map[string]string, len(c.Equipment))
	for k, v := range c.Equipment {
		equipment[string(k)] = v
	}
	consumables := c.Consumables
	if consumables == nil {
		consumables = map[string]int{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO combatants (`+combatantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id, name = EXCLUDED.name,
			kind = EXCLUDED.kind, role = EXCLUDED.role,
			level = EXCLUDED.level, experience = EXCLUDED.experience,
			strength = EXCLUDED.strength, dexterity = EXCLUDED.dexterity,
			constitution = EXCLUDED.constitution, intelligence = EXCLUDED.intelligence,
			wisdom = EXCLUDED.wisdom, charisma = EXCLUDED.charisma, agility = EXCLUDED.agility,
			max_hp = EXCLUDED.max_hp, current_hp = EXCLUDED.current_hp,
			state = EXCLUDED.state, equipment = EXCLUDED.equipment,
			consumables = EXCLUDED.consumables, updated_at = NOW()`,
		c.ID, c.SessionID, c.Name, string(c.Kind), string(c.Role), c.Level, c.Experience,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma, c.Abilities.Agility,
		c.MaxHP, c.CurrentHP, string(c.State), equipment, consumables,
	)
	if err != nil {
		return fmt.Errorf("saving combatant: %w", err)
	}
	return nil
}
