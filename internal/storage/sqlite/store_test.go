package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
	"github.com/cory-johannsen/tabletop/internal/storage/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestOpen_FileReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tabletop.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	c := combat.NewCharacter("p1", "s1", "Ayla", combat.RolePlayer, combat.DefaultAbilities())
	require.NoError(t, store.Combatants().Save(ctx, c))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Combatants().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ayla", got.Name)
}

func TestClose_NilSafe(t *testing.T) {
	var store *sqlite.Store
	assert.NoError(t, store.Close())
}

func TestCombatantRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Combatants()

	abilities := combat.DefaultAbilities()
	abilities.Strength = 14
	abilities.Agility = 16
	c := combat.NewCharacter("p1", "s1", "Ayla", combat.RoleDM, abilities)
	c.Equipment[combat.SlotArmor] = "leather"
	c.Consumables["healing-potion"] = 2
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, combat.KindPlayer, got.Kind)
	assert.Equal(t, combat.RoleDM, got.Role)
	assert.Equal(t, 14, got.Abilities.Strength)
	assert.Equal(t, 16, got.Abilities.Agility)
	assert.Equal(t, "leather", got.Equipment[combat.SlotArmor])
	assert.Equal(t, map[string]int{"healing-potion": 2}, got.Consumables)

	got.ApplyDamage(3)
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, got.CurrentHP, again.CurrentHP)

	_, err = repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, combat.ErrCombatantNotFound)
	assert.ErrorIs(t, repo.Save(ctx, &combat.Combatant{}), combat.ErrInvalidInput)
}

func TestEncounterRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Encounters()

	enc := combat.NewEncounter("e1", "s1", "Ambush", 2, []string{"m1", "m2"})
	require.NoError(t, repo.Create(ctx, enc))
	assert.ErrorIs(t, repo.Create(ctx, enc), combat.ErrEncounterExists)

	require.NoError(t, enc.Begin(3))
	enc.ConsumeAction("p1", []string{"p1", "p2", "p3"})
	require.NoError(t, repo.Update(ctx, enc))

	got, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, combat.StatusInCombat, got.Status)
	assert.Equal(t, []string{"m1", "m2"}, got.HostileIDs)
	assert.Equal(t, enc.Budget, got.Budget)
	assert.Equal(t, []string{"p1"}, got.Acted)
	assert.False(t, got.XPAwarded)

	_, err = repo.Get(ctx, "e2")
	assert.ErrorIs(t, err, combat.ErrEncounterNotFound)
	assert.ErrorIs(t, repo.Update(ctx, combat.NewEncounter("e2", "s1", "x", 1, nil)), combat.ErrEncounterNotFound)

	require.NoError(t, repo.Create(ctx, combat.NewEncounter("e3", "s1", "Second", 1, nil)))
	require.NoError(t, repo.Create(ctx, combat.NewEncounter("e4", "s2", "Other", 1, nil)))
	list, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEventRepository_OrderedBySession(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Events()
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s1", Type: combat.EventAttack, Description: "hit"}))
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s2", Type: combat.EventWait}))
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s1", Type: combat.EventObserve}))

	events, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, combat.EventAttack, events[0].Type)
	assert.Equal(t, "hit", events[0].Description)
	assert.Equal(t, combat.EventObserve, events[1].Type)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestItemRepository_DefenseBonus(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Items()

	require.NoError(t, repo.Upsert(ctx, &inventory.ItemDef{
		ID: "leather", Name: "Leather", Kind: inventory.KindArmor, Slot: combat.SlotArmor,
		Bonuses: map[string]int{"DEF": 2},
	}))
	bonus, err := repo.DefenseBonus(ctx, "leather")
	require.NoError(t, err)
	assert.Equal(t, 2, bonus)

	require.NoError(t, repo.Upsert(ctx, &inventory.ItemDef{
		ID: "leather", Name: "Leather", Kind: inventory.KindArmor, Slot: combat.SlotArmor,
		Bonuses: map[string]int{"DEF": 3},
	}))
	bonus, err = repo.DefenseBonus(ctx, "leather")
	require.NoError(t, err)
	assert.Equal(t, 3, bonus)

	bonus, err = repo.DefenseBonus(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, bonus)
}

func TestRepositories_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := openStore(t)

	_, err := store.Combatants().Get(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Events().Record(ctx, combat.Event{SessionID: "s1"}), context.Canceled)
}

func TestStore_SatisfiesCombatPorts(t *testing.T) {
	store := openStore(t)
	var _ combat.CombatantRepository = store.Combatants()
	var _ combat.EncounterRepository = store.Encounters()
	var _ combat.EventSink = store.Events()
	var _ combat.EquipmentBonusLookup = store.Items()
}
