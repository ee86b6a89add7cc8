package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/session"
)

func newChat(t *testing.T) (*ChatHandler, *session.Manager) {
	t.Helper()
	sessMgr := session.NewManager(session.DefaultHistoryLimit)
	require.NoError(t, sessMgr.Join("s1", session.Member{CombatantID: "alice", Name: "Alice"}))
	require.NoError(t, sessMgr.Join("s1", session.Member{CombatantID: "gm", Name: "Narrator", Role: combat.RoleDM}))
	return NewChatHandler(sessMgr), sessMgr
}

func TestChatHandler_Say(t *testing.T) {
	h, sessMgr := newChat(t)

	e, err := h.Say("s1", "alice", "  hello world ")
	require.NoError(t, err)
	assert.Equal(t, session.EntryChat, e.Kind)
	assert.Equal(t, "hello world", e.Text)

	history := sessMgr.History("s1")
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Speaker)
}

func TestChatHandler_Say_Rejects(t *testing.T) {
	h, sessMgr := newChat(t)

	_, err := h.Say("s1", "stranger", "hello")
	assert.ErrorIs(t, err, combat.ErrIneligibleActor)
	_, err = h.Say("s1", "alice", "   ")
	assert.ErrorIs(t, err, combat.ErrInvalidInput)
	assert.Empty(t, sessMgr.History("s1"))
}

func TestChatHandler_Narrate(t *testing.T) {
	h, sessMgr := newChat(t)

	_, err := h.Narrate("s1", "alice", "The walls drip.")
	assert.ErrorIs(t, err, combat.ErrIneligibleActor)

	e, err := h.Narrate("s1", "gm", "The walls drip.")
	require.NoError(t, err)
	assert.Equal(t, session.EntryNarration, e.Kind)
	assert.Len(t, sessMgr.History("s1"), 1)
}

func TestChatHandler_Who(t *testing.T) {
	h, _ := newChat(t)
	members := h.Who("s1")
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].CombatantID)
	assert.True(t, members[1].IsDM())
	assert.Empty(t, h.Who("nobody"))
}
