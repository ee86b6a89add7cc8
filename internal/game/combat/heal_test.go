package combat_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// healTable is a ConsumableLookup over a fixed map.
type healTable map[string]int

func (h healTable) HealAmount(_ context.Context, ref string) (int, error) {
	v, ok := h[ref]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a healing item", combat.ErrInvalidInput, ref)
	}
	return v, nil
}

type brokenLookup struct{}

func (brokenLookup) HealAmount(context.Context, string) (int, error) {
	return 0, errors.New("connection reset")
}

func TestUseConsumable_HealsAndSpendsOne(t *testing.T) {
	c := fighter("p1", nil)
	c.ApplyDamage(6)
	c.Consumables["potion"] = 2

	res, err := combat.UseConsumable(context.Background(), c, "potion", healTable{"potion": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Restored)
	assert.Equal(t, 8, c.CurrentHP)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 1, c.Consumables["potion"])
}

func TestUseConsumable_CapsAtMaxHP(t *testing.T) {
	c := fighter("p1", nil)
	c.ApplyDamage(1)
	c.Consumables["potion"] = 1

	res, err := combat.UseConsumable(context.Background(), c, "potion", healTable{"potion": 8})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored)
	assert.Equal(t, c.MaxHP, c.CurrentHP)
	assert.NotContains(t, c.Consumables, "potion")
}

func TestUseConsumable_NeverRevives(t *testing.T) {
	c := fighter("p1", nil)
	c.Consumables["potion"] = 1
	c.ApplyDamage(c.MaxHP)

	_, err := combat.UseConsumable(context.Background(), c, "potion", healTable{"potion": 8})
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.Equal(t, 0, c.CurrentHP)
	assert.Equal(t, combat.StateEliminated, c.State)
	assert.Equal(t, 1, c.Consumables["potion"])

	m := combat.NewMonster("m1", "s1", "Rat", 3, combat.DefaultAbilities())
	m.ApplyDamage(3)
	_, err = m.Heal(3)
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.Equal(t, combat.StateDefeated, m.State)
}

func TestUseConsumable_Rejections(t *testing.T) {
	ctx := context.Background()
	c := fighter("p1", nil)
	c.Consumables["rock"] = 1

	_, err := combat.UseConsumable(ctx, c, "potion", healTable{"potion": 4})
	assert.ErrorIs(t, err, combat.ErrInvalidInput)

	_, err = combat.UseConsumable(ctx, c, "rock", healTable{"potion": 4})
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.NotErrorIs(t, err, combat.ErrCollaborator)

	_, err = combat.UseConsumable(ctx, c, "rock", brokenLookup{})
	assert.ErrorIs(t, err, combat.ErrCollaborator)

	_, err = combat.UseConsumable(ctx, c, "rock", nil)
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.Equal(t, 1, c.Consumables["rock"])
}

func TestProperty_HealNeverExceedsMax(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 200).Draw(rt, "max")
		dmg := rapid.IntRange(0, maxHP-1).Draw(rt, "dmg")
		amount := rapid.IntRange(0, 400).Draw(rt, "amount")

		m := combat.NewMonster("m", "s", "M", maxHP, combat.DefaultAbilities())
		m.ApplyDamage(dmg)
		before := m.CurrentHP
		restored, err := m.Heal(amount)
		if err != nil {
			rt.Fatalf("heal: %v", err)
		}
		if m.CurrentHP > m.MaxHP || m.CurrentHP != before+restored {
			rt.Fatalf("hp %d after restoring %d from %d (max %d)", m.CurrentHP, restored, before, m.MaxHP)
		}
	})
}
