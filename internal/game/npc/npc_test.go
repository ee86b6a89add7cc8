package npc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/npc"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

const goblinYAML = `
id: goblin
name: Goblin
description: A small, vicious humanoid.
level: 1
max_hp: 7
abilities:
  strength: 8
  agility: 14
equipment:
  armadura: leather
`

func TestLoadTemplateFromBytes(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(goblinYAML))
	require.NoError(t, err)
	assert.Equal(t, "goblin", tmpl.ID)
	assert.Equal(t, 7, tmpl.MaxHP)
	assert.Equal(t, 8, tmpl.Abilities.Strength)
	assert.Equal(t, 14, tmpl.Abilities.Agility)
	assert.Equal(t, 10, tmpl.Abilities.Constitution, "omitted abilities default to 10")
}

func TestLoadTemplateFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing id":    "name: X\nmax_hp: 3\n",
		"missing name":  "id: x\nmax_hp: 3\n",
		"zero hp":       "id: x\nname: X\n",
		"bad hit dice":  "id: x\nname: X\nhit_dice: banana\n",
		"bad level":     "id: x\nname: X\nmax_hp: 3\nlevel: 0\n",
		"malformed yml": "id: [x\n",
	}
	for name, data := range cases {
		_, err := npc.LoadTemplateFromBytes([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestLoadTemplates_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goblin.yaml"), []byte(goblinYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ogre.yaml"), []byte("id: ogre\nname: Ogre\nhit_dice: 4d10+8\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	templates, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	cat, err := npc.NewCatalog(templates)
	require.NoError(t, err)
	assert.Equal(t, []string{"goblin", "ogre"}, cat.IDs())
}

func TestLoadTemplates_MissingDir(t *testing.T) {
	_, err := npc.LoadTemplates(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewCatalog_Duplicate(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(goblinYAML))
	require.NoError(t, err)
	_, err = npc.NewCatalog([]*npc.Template{tmpl, tmpl})
	assert.Error(t, err)
}

func TestCatalog_Spawn(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(goblinYAML))
	require.NoError(t, err)
	cat, err := npc.NewCatalog([]*npc.Template{tmpl})
	require.NoError(t, err)

	a, err := cat.Spawn("goblin", "s1", nil)
	require.NoError(t, err)
	b, err := cat.Spawn("goblin", "s1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, combat.KindMonster, a.Kind)
	assert.Equal(t, combat.StateAlive, a.State)
	assert.Equal(t, "s1", a.SessionID)
	assert.Equal(t, 7, a.CurrentHP)
	assert.Equal(t, "leather", a.Equipment[combat.SlotArmor])

	_, err = cat.Spawn("dragon", "s1", nil)
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
}

func TestProperty_Spawn_HitDiceWithinRange(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte("id: ogre\nname: Ogre\nhit_dice: 4d10+8\n"))
	require.NoError(t, err)
	cat, err := npc.NewCatalog([]*npc.Template{tmpl})
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		face := rapid.IntRange(0, 9).Draw(rt, "face")
		m, err := cat.Spawn("ogre", "s1", fixedSrc{val: face})
		if err != nil {
			rt.Fatalf("spawn: %v", err)
		}
		want := 4*(face+1) + 8
		if m.MaxHP != want || m.CurrentHP != want {
			rt.Fatalf("hp %d/%d, want %d", m.CurrentHP, m.MaxHP, want)
		}
	})
}
