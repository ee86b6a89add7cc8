package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/config"
	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
	"github.com/cory-johannsen/tabletop/internal/storage/memory"
	"github.com/cory-johannsen/tabletop/internal/storage/postgres"
	"github.com/cory-johannsen/tabletop/internal/storage/sqlite"
)

// eventLister reads back a session's recorded events.
type eventLister interface {
	combat.EventSink
	ListBySession(ctx context.Context, sessionID string) ([]combat.Event, error)
}

// backend bundles the repositories of one storage driver.
type backend struct {
	combatants combat.CombatantRepository
	encounters combat.EncounterRepository
	events     eventLister
	lookup     combat.EquipmentBonusLookup
	close      func()
}

// itemStore is implemented by the SQL item repositories.
type itemStore interface {
	combat.EquipmentBonusLookup
	Upsert(ctx context.Context, d *inventory.ItemDef) error
}

// syncItems copies every registry item into store.
func syncItems(ctx context.Context, store itemStore, items *inventory.Registry) error {
	for _, d := range items.AllItems() {
		if err := store.Upsert(ctx, d); err != nil {
			return fmt.Errorf("syncing item %q: %w", d.ID, err)
		}
	}
	return nil
}

// openBackend connects the driver named in cfg.Storage. Item definitions are
// synced into SQL stores so defense lookups read from the same database.
func openBackend(ctx context.Context, cfg config.Config, items *inventory.Registry, logger *zap.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return &backend{
			combatants: memory.NewCombatantRepository(),
			encounters: memory.NewEncounterRepository(),
			events:     memory.NewEventRepository(),
			lookup:     items,
			close:      func() {},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		itemRepo := postgres.NewItemRepository(pool.DB())
		if err := syncItems(ctx, itemRepo, items); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		return &backend{
			combatants: postgres.NewCombatantRepository(pool.DB()),
			encounters: postgres.NewEncounterRepository(pool.DB()),
			events:     postgres.NewEventRepository(pool.DB()),
			lookup:     itemRepo,
			close:      pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		if err := syncItems(ctx, store.Items(), items); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("sqlite store opened", zap.String("path", cfg.Storage.SQLitePath))
		return &backend{
			combatants: store.Combatants(),
			encounters: store.Encounters(),
			events:     store.Events(),
			lookup:     store.Items(),
			close:      func() { _ = store.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
