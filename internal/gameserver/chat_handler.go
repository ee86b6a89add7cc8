package gameserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/session"
)

// ChatHandler posts chat and narration lines into a session's history.
type ChatHandler struct {
	sessions *session.Manager
}

// NewChatHandler creates a ChatHandler with the given dependencies.
//
// Precondition: sessMgr must be non-nil.
func NewChatHandler(sessMgr *session.Manager) *ChatHandler {
	return &ChatHandler{
		sessions: sessMgr,
	}
}

func (h *ChatHandler) post(sessionID, speakerID, text string, kind session.EntryKind) (session.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return session.Entry{}, fmt.Errorf("%w: message must not be empty", combat.ErrInvalidInput)
	}
	member, ok := h.sessions.Member(sessionID, speakerID)
	if !ok {
		return session.Entry{}, fmt.Errorf("%w: %q is not a member of session %q", combat.ErrIneligibleActor, speakerID, sessionID)
	}
	if kind == session.EntryNarration && !member.IsDM() {
		return session.Entry{}, fmt.Errorf("%w: only the DM narrates", combat.ErrIneligibleActor)
	}
	e := session.Entry{Kind: kind, Speaker: speakerID, Text: text, CreatedAt: time.Now().UTC()}
	h.sessions.Append(sessionID, e)
	return e, nil
}

// Say appends a chat line from speakerID.
//
// Precondition: speakerID must be a member of sessionID.
// Postcondition: Returns the appended entry, or an error.
func (h *ChatHandler) Say(sessionID, speakerID, message string) (session.Entry, error) {
	return h.post(sessionID, speakerID, message, session.EntryChat)
}

// Narrate appends a narration line. Only the session's DM may narrate.
func (h *ChatHandler) Narrate(sessionID, dmID, text string) (session.Entry, error) {
	return h.post(sessionID, dmID, text, session.EntryNarration)
}

// Who returns the session's members in join order.
func (h *ChatHandler) Who(sessionID string) []session.Member {
	return h.sessions.Members(sessionID)
}
