package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

func TestParseActionType_Aliases(t *testing.T) {
	cases := map[string]combat.ActionType{
		"attack": combat.ActionAttack, "ATACAR": combat.ActionAttack,
		"flee": combat.ActionFlee, "huir": combat.ActionFlee,
		"dialogue": combat.ActionDialogue, "dialogar": combat.ActionDialogue,
		"wait": combat.ActionWait, "esperar": combat.ActionWait,
		"observe": combat.ActionObserve, " ver ": combat.ActionObserve,
		"use_item": combat.ActionUseItem, "pocion": combat.ActionUseItem,
	}
	for in, want := range cases {
		got, err := combat.ParseActionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := combat.ParseActionType("dance")
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
}

func TestAllActionTypes_RoundTrip(t *testing.T) {
	for _, a := range combat.AllActionTypes() {
		got, err := combat.ParseActionType(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	assert.Equal(t, "unknown", combat.ActionUnknown.String())
	assert.False(t, combat.ActionObserve.ConsumesTurn())
	assert.True(t, combat.ActionWait.ConsumesTurn())
	assert.True(t, combat.ActionAttack.CausesDamage())
	assert.False(t, combat.ActionFlee.CausesDamage())
	assert.True(t, combat.ActionUseItem.ConsumesTurn())
	assert.False(t, combat.ActionUseItem.CausesDamage())
}

func TestActionRequest_Validate(t *testing.T) {
	valid := combat.ActionRequest{ActorID: "p1", Action: combat.ActionAttack, TargetID: "m1", Kind: combat.AttackMelee}
	require.NoError(t, valid.Validate())
	require.NoError(t, combat.ActionRequest{ActorID: "p1", Action: combat.ActionUseItem, ItemID: "potion"}.Validate())

	bad := []combat.ActionRequest{
		{Action: combat.ActionWait},
		{ActorID: "p1", Action: combat.ActionAttack, Kind: combat.AttackMelee},
		{ActorID: "p1", Action: combat.ActionAttack, TargetID: "m1"},
		{ActorID: "p1"},
		{ActorID: "p1", Action: combat.ActionUseItem},
	}
	for _, r := range bad {
		assert.ErrorIs(t, r.Validate(), combat.ErrInvalidInput, "%+v", r)
	}
}
