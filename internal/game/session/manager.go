package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// DefaultHistoryLimit bounds the history kept per session when none is configured.
const DefaultHistoryLimit = 200

// EntryKind classifies a history entry.
type EntryKind string

const (
	EntryChat      EntryKind = "chat"
	EntryNarration EntryKind = "narration"
	EntryEvent     EntryKind = "event"
)

// Entry is one line of a session's chat/narration history.
type Entry struct {
	Kind      EntryKind
	Speaker   string // combatant id, or empty for system lines
	Type      string // event type for EntryEvent
	Text      string
	CreatedAt time.Time
}

// Member is a participant of a game session.
type Member struct {
	CombatantID string
	Name        string
	Role        combat.Role
	JoinedAt    time.Time
}

// IsDM reports whether m runs the session.
func (m Member) IsDM() bool { return m.Role == combat.RoleDM }

type state struct {
	members   map[string]Member
	order     []string
	history   []Entry
	listeners map[string]*Listener
}

// Manager tracks membership and history for every game session, keyed by
// session id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*state
	limit    int
}

// NewManager creates an empty Manager keeping at most historyLimit entries
// per session (DefaultHistoryLimit when historyLimit <= 0).
func NewManager(historyLimit int) *Manager {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Manager{
		sessions: make(map[string]*state),
		limit:    historyLimit,
	}
}

func (m *Manager) session(id string) *state {
	s, ok := m.sessions[id]
	if !ok {
		s = &state{
			members:   make(map[string]Member),
			listeners: make(map[string]*Listener),
		}
		m.sessions[id] = s
	}
	return s
}

// Join adds a member to sessionID.
//
// Precondition: sessionID and mem.CombatantID must be non-empty.
// Postcondition: Member(sessionID, mem.CombatantID) returns mem; returns an
// error if the combatant already joined.
func (m *Manager) Join(sessionID string, mem Member) error {
	if sessionID == "" || mem.CombatantID == "" {
		return fmt.Errorf("%w: session and combatant ids are required", combat.ErrInvalidInput)
	}
	if mem.Role == "" {
		mem.Role = combat.RolePlayer
	}
	if mem.JoinedAt.IsZero() {
		mem.JoinedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID)
	if _, exists := s.members[mem.CombatantID]; exists {
		return fmt.Errorf("combatant %q already joined session %q", mem.CombatantID, sessionID)
	}
	s.members[mem.CombatantID] = mem
	s.order = append(s.order, mem.CombatantID)
	return nil
}

// Leave removes combatantID from sessionID.
//
// Postcondition: Returns an error if the combatant is not a member.
func (m *Manager) Leave(sessionID, combatantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("combatant %q not in session %q", combatantID, sessionID)
	}
	if _, exists := s.members[combatantID]; !exists {
		return fmt.Errorf("combatant %q not in session %q", combatantID, sessionID)
	}
	delete(s.members, combatantID)
	for i, id := range s.order {
		if id == combatantID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Member returns the membership record of combatantID in sessionID.
func (m *Manager) Member(sessionID, combatantID string) (Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Member{}, false
	}
	mem, ok := s.members[combatantID]
	return mem, ok
}

// Members returns every member of sessionID in join order.
func (m *Manager) Members(sessionID string) []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Member, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// Append adds e to sessionID's history, trimming the oldest entries past the
// limit, and pushes it to every listener. A full listener drops the entry.
func (m *Manager) Append(sessionID string, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	s := m.session(sessionID)
	s.history = append(s.history, e)
	if over := len(s.history) - m.limit; over > 0 {
		s.history = append([]Entry(nil), s.history[over:]...)
	}
	listeners := make([]*Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		_ = l.Push(e)
	}
}

// History returns a copy of sessionID's history, oldest first.
func (m *Manager) History(sessionID string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]Entry(nil), s.history...)
}

// Subscribe registers a listener for new entries of sessionID.
//
// Postcondition: Returns an error if listenerID is already subscribed.
func (m *Manager) Subscribe(sessionID, listenerID string, bufferSize int) (*Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID)
	if _, exists := s.listeners[listenerID]; exists {
		return nil, fmt.Errorf("listener %q already subscribed to session %q", listenerID, sessionID)
	}
	l := NewListener(listenerID, bufferSize)
	s.listeners[listenerID] = l
	return l, nil
}

// Unsubscribe removes and closes a listener. Unknown ids are ignored.
func (m *Manager) Unsubscribe(sessionID, listenerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	if l, ok := s.listeners[listenerID]; ok {
		_ = l.Close()
		delete(s.listeners, listenerID)
	}
}

// Record implements combat.EventSink by appending ev to its session's history.
func (m *Manager) Record(_ context.Context, ev combat.Event) error {
	if ev.SessionID == "" {
		return fmt.Errorf("%w: event %q has no session id", combat.ErrInvalidInput, ev.Type)
	}
	m.Append(ev.SessionID, Entry{
		Kind:      EntryEvent,
		Speaker:   ev.ActorID,
		Type:      ev.Type,
		Text:      ev.Description,
		CreatedAt: ev.CreatedAt,
	})
	return nil
}
