package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

// ItemRepository stores item definitions and answers defense bonus queries.
// It implements combat.EquipmentBonusLookup.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates an ItemRepository backed by the given pool.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// Upsert inserts or replaces an item definition.
func (r *ItemRepository) Upsert(ctx context.Context, d *inventory.ItemDef) error {
	bonuses := d.Bonuses
	if bonuses == nil {
		bonuses = map[string]int{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO items (id, name, description, kind, slot, bonuses, value)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			kind = EXCLUDED.kind, slot = EXCLUDED.slot,
			bonuses = EXCLUDED.bonuses, value = EXCLUDED.value`,
		d.ID, d.Name, d.Description, d.Kind, string(d.Slot), bonuses, d.Value,
	)
	if err != nil {
		return fmt.Errorf("upserting item: %w", err)
	}
	return nil
}

// DefenseBonus returns the DEF bonus of the item, or 0 when the item is unknown
// or carries no DEF bonus.
func (r *ItemRepository) DefenseBonus(ctx context.Context, itemRef string) (int, error) {
	var bonus int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE((bonuses->>$2)::int, 0) FROM items WHERE id = $1`,
		itemRef, inventory.BonusDefense,
	).Scan(&bonus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying item bonus: %w", err)
	}
	return bonus, nil
}
