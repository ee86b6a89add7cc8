package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tabletop/internal/game/character"
	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

func TestBuild_DefaultsUnsetScores(t *testing.T) {
	c, err := character.Build(character.Sheet{ID: "ayla", Name: "Ayla", Abilities: combat.Abilities{Constitution: 14}})
	require.NoError(t, err)

	assert.Equal(t, "ayla", c.ID)
	assert.Equal(t, combat.KindPlayer, c.Kind)
	assert.Equal(t, combat.RolePlayer, c.Role)
	assert.Equal(t, combat.StateActive, c.State)
	assert.Equal(t, 10, c.Abilities.Strength)
	assert.Equal(t, 10, c.Abilities.Agility)
	assert.Equal(t, 12, c.MaxHP) // 10 + modifier(14)
	assert.Equal(t, c.MaxHP, c.CurrentHP)
	assert.Empty(t, c.SessionID)
}

func TestBuild_AssignsID(t *testing.T) {
	a, err := character.Build(character.Sheet{Name: "A"})
	require.NoError(t, err)
	b, err := character.Build(character.Sheet{Name: "B"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBuild_Rejects(t *testing.T) {
	_, err := character.Build(character.Sheet{})
	assert.ErrorIs(t, err, combat.ErrInvalidInput)

	_, err = character.Build(character.Sheet{Name: "X", Role: "KING"})
	assert.ErrorIs(t, err, combat.ErrInvalidInput)

	_, err = character.Build(character.Sheet{Name: "X", Abilities: combat.Abilities{Strength: 31, Agility: -2}})
	require.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.Contains(t, err.Error(), "STR must be in [1, 30], got 31")
	assert.Contains(t, err.Error(), "AGI must be in [1, 30], got -2")
}

func TestProperty_Build_HPFollowsConstitution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		con := rapid.IntRange(character.MinAbility, character.MaxAbility).Draw(rt, "con")
		c, err := character.Build(character.Sheet{Name: "P", Abilities: combat.Abilities{Constitution: con}})
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		want := 10 + combat.Modifier(con)
		if want < 1 {
			want = 1
		}
		if c.MaxHP != want {
			rt.Fatalf("CON %d: MaxHP %d, want %d", con, c.MaxHP, want)
		}
	})
}

func testItems(t *testing.T) *inventory.Registry {
	t.Helper()
	items, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{ID: "leather", Name: "Leather", Kind: inventory.KindArmor, Slot: combat.SlotArmor, Bonuses: map[string]int{"DEF": 2}},
		{ID: "torch", Name: "Torch", Kind: inventory.KindJunk},
		{ID: "healing-potion", Name: "Healing Potion", Kind: inventory.KindConsumable, Heal: 8},
	})
	require.NoError(t, err)
	return items
}

func TestEquip(t *testing.T) {
	items := testItems(t)
	c, err := character.Build(character.Sheet{Name: "Ayla"})
	require.NoError(t, err)

	require.NoError(t, character.Equip(c, "armadura", "leather", items))
	assert.Equal(t, "leather", c.Equipment[combat.SlotArmor])

	require.NoError(t, character.Equip(c, "offhand", "torch", items))
	assert.Equal(t, "torch", c.Equipment[combat.SlotOffhand])

	assert.ErrorIs(t, character.Equip(c, "casco", "leather", items), combat.ErrInvalidInput)
	assert.ErrorIs(t, character.Equip(c, "armor", "ghost", items), combat.ErrInvalidInput)
	assert.NotContains(t, c.Equipment, combat.SlotHelmet)

	c.Equipment["armadura"] = "rags"
	require.NoError(t, character.Equip(c, "armor", "leather", items))
	assert.NotContains(t, c.Equipment, combat.Slot("armadura"))
	assert.Equal(t, "leather", c.Equipment[combat.SlotArmor])
}

func TestStock(t *testing.T) {
	items := testItems(t)
	c, err := character.Build(character.Sheet{Name: "Brom"})
	require.NoError(t, err)

	require.NoError(t, character.Stock(c, "healing-potion", 2, items))
	require.NoError(t, character.Stock(c, "healing-potion", 1, items))
	assert.Equal(t, 3, c.Consumables["healing-potion"])

	assert.ErrorIs(t, character.Stock(c, "torch", 1, items), combat.ErrInvalidInput)
	assert.ErrorIs(t, character.Stock(c, "elixir", 1, items), combat.ErrInvalidInput)
	assert.ErrorIs(t, character.Stock(c, "healing-potion", 0, items), combat.ErrInvalidInput)
}

func TestJoinAndLeave(t *testing.T) {
	c, err := character.Build(character.Sheet{Name: "Ayla"})
	require.NoError(t, err)

	require.NoError(t, character.JoinSession(c, "s1"))
	assert.Equal(t, "s1", c.SessionID)
	require.NoError(t, character.JoinSession(c, "s1"))
	assert.ErrorIs(t, character.JoinSession(c, "s2"), character.ErrInSession)
	assert.ErrorIs(t, character.JoinSession(c, ""), combat.ErrInvalidInput)

	require.NoError(t, character.Leave(c))
	assert.Equal(t, combat.StateLeft, c.State)
	assert.Empty(t, c.SessionID)
	assert.ErrorIs(t, character.Leave(c), combat.ErrInvalidInput)

	require.NoError(t, character.JoinSession(c, "s2"))
	assert.Equal(t, combat.StateActive, c.State)
}
