// Package memory provides in-process implementations of the combat
// repositories. Stored values are cloned on the way in and out, so callers
// never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// CombatantRepository stores combatants in a map.
// All methods are safe for concurrent use.
type CombatantRepository struct {
	mu   sync.RWMutex
	rows map[string]*combat.Combatant
}

// NewCombatantRepository returns an empty CombatantRepository.
func NewCombatantRepository() *CombatantRepository {
	return &CombatantRepository{rows: make(map[string]*combat.Combatant)}
}

// Get returns a copy of the combatant, or combat.ErrCombatantNotFound.
func (r *CombatantRepository) Get(_ context.Context, id string) (*combat.Combatant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", combat.ErrCombatantNotFound, id)
	}
	return c.Clone(), nil
}

// Save inserts or replaces c.
//
// Precondition: c.ID must be non-empty.
func (r *CombatantRepository) Save(_ context.Context, c *combat.Combatant) error {
	if c.ID == "" {
		return fmt.Errorf("%w: combatant id is required", combat.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c.Clone()
	return nil
}

// EncounterRepository stores encounters in a map.
// All methods are safe for concurrent use.
type EncounterRepository struct {
	mu   sync.RWMutex
	rows map[string]*combat.Encounter
}

// NewEncounterRepository returns an empty EncounterRepository.
func NewEncounterRepository() *EncounterRepository {
	return &EncounterRepository{rows: make(map[string]*combat.Encounter)}
}

// Create stores a new encounter.
//
// Postcondition: Returns combat.ErrEncounterExists if e.ID is taken.
func (r *EncounterRepository) Create(_ context.Context, e *combat.Encounter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[e.ID]; exists {
		return fmt.Errorf("%w: %q", combat.ErrEncounterExists, e.ID)
	}
	r.rows[e.ID] = e.Clone()
	return nil
}

// Get returns a copy of the encounter, or combat.ErrEncounterNotFound.
func (r *EncounterRepository) Get(_ context.Context, id string) (*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, id)
	}
	return e.Clone(), nil
}

// Update replaces an existing encounter, or returns combat.ErrEncounterNotFound.
func (r *EncounterRepository) Update(_ context.Context, e *combat.Encounter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.ID]; !ok {
		return fmt.Errorf("%w: %q", combat.ErrEncounterNotFound, e.ID)
	}
	r.rows[e.ID] = e.Clone()
	return nil
}

// ListBySession returns the session's encounters ordered by creation time.
func (r *EncounterRepository) ListBySession(_ context.Context, sessionID string) ([]*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*combat.Encounter, 0)
	for _, e := range r.rows {
		if e.SessionID == sessionID {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// EventRepository is an append-only combat.EventSink.
// All methods are safe for concurrent use.
type EventRepository struct {
	mu     sync.RWMutex
	events []combat.Event
}

// NewEventRepository returns an empty EventRepository.
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// Record appends ev, stamping CreatedAt when unset.
func (r *EventRepository) Record(_ context.Context, ev combat.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// ListBySession returns the session's events in recording order.
func (r *EventRepository) ListBySession(_ context.Context, sessionID string) ([]combat.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]combat.Event, 0)
	for _, ev := range r.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}
