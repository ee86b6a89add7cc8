package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/storage/memory"
)

func TestCombatantRepository_SaveGetClones(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCombatantRepository()

	c := combat.NewCharacter("p1", "s1", "Ayla", combat.RolePlayer, combat.DefaultAbilities())
	c.Equipment[combat.SlotArmor] = "leather"
	require.NoError(t, repo.Save(ctx, c))

	c.CurrentHP = 1
	c.Equipment[combat.SlotArmor] = "plate"

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, got.MaxHP, got.CurrentHP)
	assert.Equal(t, "leather", got.Equipment[combat.SlotArmor])

	_, err = repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, combat.ErrCombatantNotFound)

	assert.ErrorIs(t, repo.Save(ctx, &combat.Combatant{}), combat.ErrInvalidInput)
}

func TestEncounterRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEncounterRepository()

	enc := combat.NewEncounter("e1", "s1", "Ambush", 2, []string{"m1"})
	require.NoError(t, repo.Create(ctx, enc))
	assert.ErrorIs(t, repo.Create(ctx, enc), combat.ErrEncounterExists)

	require.NoError(t, enc.Begin(3))
	require.NoError(t, repo.Update(ctx, enc))

	got, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, combat.StatusInCombat, got.Status)
	assert.Equal(t, 3, got.Budget.Remaining)

	got.HostileIDs[0] = "mutated"
	again, err := repo.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "m1", again.HostileIDs[0])

	_, err = repo.Get(ctx, "e2")
	assert.ErrorIs(t, err, combat.ErrEncounterNotFound)
	assert.ErrorIs(t, repo.Update(ctx, combat.NewEncounter("e2", "s1", "x", 1, nil)), combat.ErrEncounterNotFound)

	require.NoError(t, repo.Create(ctx, combat.NewEncounter("e3", "s1", "Second", 1, nil)))
	require.NoError(t, repo.Create(ctx, combat.NewEncounter("e4", "s2", "Other", 1, nil)))
	list, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEventRepository()
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s1", Type: combat.EventAttack}))
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s2", Type: combat.EventWait}))
	require.NoError(t, repo.Record(ctx, combat.Event{SessionID: "s1", Type: combat.EventObserve}))

	events, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, combat.EventAttack, events[0].Type)
	assert.Equal(t, combat.EventObserve, events[1].Type)
	assert.False(t, events[0].CreatedAt.IsZero())
}
