package inventory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

const leatherYAML = `
id: leather
name: Leather Armor
kind: armor
slot: armadura
bonuses:
  DEF: 2
value: 10
`

func TestLoadItemFromBytes(t *testing.T) {
	d, err := inventory.LoadItemFromBytes([]byte(leatherYAML))
	require.NoError(t, err)
	assert.Equal(t, combat.SlotArmor, d.Slot)
	assert.Equal(t, 2, d.Bonus("DEF"))
	assert.Equal(t, 2, d.Bonus("def"))
	assert.Equal(t, 0, d.Bonus("ATK"))
}

func TestLoadItemFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing id":        "name: X\nkind: junk\n",
		"bad kind":          "id: x\nname: X\nkind: spaceship\n",
		"armor not defense": "id: x\nname: X\nkind: armor\nslot: rings\n",
		"negative value":    "id: x\nname: X\nkind: junk\nvalue: -1\n",
	}
	for name, data := range cases {
		_, err := inventory.LoadItemFromBytes([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestLoadItems_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leather.yaml"), []byte(leatherYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ring.yml"), []byte("id: ring\nname: Ring\nkind: accessory\nslot: rings\nbonuses: {DEF: 9}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	items, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)

	reg, err := inventory.NewRegistryFrom(items)
	require.NoError(t, err)
	all := reg.AllItems()
	assert.Equal(t, "leather", all[0].ID)
	assert.Equal(t, "ring", all[1].ID)
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := inventory.NewRegistry()
	d := &inventory.ItemDef{ID: "x", Name: "X", Kind: inventory.KindJunk}
	require.NoError(t, reg.RegisterItem(d))
	assert.Error(t, reg.RegisterItem(d))
}

func TestRegistry_DefenseBonusFeedsComputeDefense(t *testing.T) {
	reg := inventory.NewRegistry()
	require.NoError(t, reg.RegisterItem(&inventory.ItemDef{ID: "leather", Name: "Leather", Kind: inventory.KindArmor, Slot: combat.SlotArmor, Bonuses: map[string]int{"DEF": 2}}))
	require.NoError(t, reg.RegisterItem(&inventory.ItemDef{ID: "ring", Name: "Ring", Kind: inventory.KindAccessory, Slot: combat.SlotRings, Bonuses: map[string]int{"DEF": 9}}))

	c := combat.NewCharacter("p1", "s1", "Ayla", combat.RolePlayer, combat.DefaultAbilities())
	c.Equipment[combat.SlotArmor] = "leather"
	c.Equipment[combat.SlotRings] = "ring"
	c.Equipment[combat.SlotBoots] = "unknown-boots"

	def, err := combat.ComputeDefense(context.Background(), c, reg)
	require.NoError(t, err)
	assert.Equal(t, 12, def)

	// Definitions changed between rounds are picked up immediately.
	reg.ReplaceItem(&inventory.ItemDef{ID: "leather", Name: "Leather", Kind: inventory.KindArmor, Slot: combat.SlotArmor, Bonuses: map[string]int{"DEF": 4}})
	def, err = combat.ComputeDefense(context.Background(), c, reg)
	require.NoError(t, err)
	assert.Equal(t, 14, def)
}

func TestRegistry_HealAmount(t *testing.T) {
	potion, err := inventory.LoadItemFromBytes([]byte(`
id: healing-potion
name: Healing Potion
kind: consumable
heal: 8
`))
	require.NoError(t, err)
	leather, err := inventory.LoadItemFromBytes([]byte(leatherYAML))
	require.NoError(t, err)
	r, err := inventory.NewRegistryFrom([]*inventory.ItemDef{potion, leather})
	require.NoError(t, err)

	var lookup combat.ConsumableLookup = r
	heal, err := lookup.HealAmount(context.Background(), "healing-potion")
	require.NoError(t, err)
	assert.Equal(t, 8, heal)

	_, err = lookup.HealAmount(context.Background(), "leather")
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	_, err = lookup.HealAmount(context.Background(), "elixir")
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
}

func TestLoadItemFromBytes_HealOnlyOnConsumables(t *testing.T) {
	_, err := inventory.LoadItemFromBytes([]byte(`
id: warm-cloak
name: Warm Cloak
kind: accessory
heal: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only consumables heal")
}
