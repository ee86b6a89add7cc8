package combat

import (
	"fmt"
	"time"
)

// Status is an encounter's lifecycle state: pending → in_combat → resolved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInCombat Status = "in_combat"
	StatusResolved Status = "resolved"
)

// TurnBudget counts the player actions left in the current round.
//
// Invariant: 0 <= Remaining <= Total.
type TurnBudget struct {
	Total     int
	Remaining int
}

// Reset sets both counters to n (negative n is treated as 0).
func (b *TurnBudget) Reset(n int) {
	if n < 0 {
		n = 0
	}
	b.Total = n
	b.Remaining = n
}

// Consume spends one action, clamping at zero.
func (b *TurnBudget) Consume() {
	if b.Remaining > 0 {
		b.Remaining--
	}
}

// Exhausted reports whether no actions remain this round.
func (b TurnBudget) Exhausted() bool { return b.Remaining == 0 }

// Encounter is a bounded combat instance scoped to one game session.
type Encounter struct {
	ID         string
	SessionID  string
	Name       string
	Difficulty int
	Status     Status
	HostileIDs []string
	Round      int
	Budget     TurnBudget
	// Acted holds the ids of actors that already spent their action this round.
	Acted []string
	// XPAwarded is set once experience for the encounter has been granted.
	XPAwarded bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEncounter creates a pending encounter with the given hostile roster.
//
// Precondition: id and sessionID must be non-empty.
// Postcondition: Status == StatusPending; Round == 0; Difficulty >= 1.
func NewEncounter(id, sessionID, name string, difficulty int, hostileIDs []string) *Encounter {
	if difficulty < 1 {
		difficulty = 1
	}
	now := time.Now().UTC()
	return &Encounter{
		ID:         id,
		SessionID:  sessionID,
		Name:       name,
		Difficulty: difficulty,
		Status:     StatusPending,
		HostileIDs: append([]string(nil), hostileIDs...),
		Acted:      []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Begin moves a pending encounter into combat with a budget of eligible actions.
//
// Precondition: at least one hostile.
// Postcondition: Status == StatusInCombat; Round == 1; Budget.Total == eligible.
func (e *Encounter) Begin(eligible int) error {
	if e.Status != StatusPending {
		return fmt.Errorf("%w: encounter %q is %s, cannot begin", ErrInvalidInput, e.ID, e.Status)
	}
	if len(e.HostileIDs) == 0 {
		return fmt.Errorf("%w: encounter %q has no hostiles", ErrInvalidInput, e.ID)
	}
	e.Status = StatusInCombat
	e.Round = 1
	e.Budget.Reset(eligible)
	e.Acted = []string{}
	e.touch()
	return nil
}

// EnsureActive returns an error unless the encounter is in combat.
func (e *Encounter) EnsureActive() error {
	switch e.Status {
	case StatusInCombat:
		return nil
	case StatusResolved:
		return fmt.Errorf("%w: %q", ErrEncounterResolved, e.ID)
	default:
		return fmt.Errorf("%w: %q", ErrEncounterNotStarted, e.ID)
	}
}

// IsResolved reports whether the encounter reached its terminal state.
func (e *Encounter) IsResolved() bool { return e.Status == StatusResolved }

// HasHostile reports whether id is on the hostile roster.
func (e *Encounter) HasHostile(id string) bool {
	for _, h := range e.HostileIDs {
		if h == id {
			return true
		}
	}
	return false
}

// HasActed reports whether actorID already spent its action this round.
func (e *Encounter) HasActed(actorID string) bool {
	for _, a := range e.Acted {
		if a == actorID {
			return true
		}
	}
	return false
}

// ConsumeAction charges one action to actorID. The round ends when the
// budget runs out or every id in eligible has acted; the next round starts
// with a budget of len(eligible).
//
// Precondition: the encounter is in combat.
// Postcondition: 0 <= Budget.Remaining <= Budget.Total.
func (e *Encounter) ConsumeAction(actorID string, eligible []string) {
	e.Budget.Consume()
	if !e.HasActed(actorID) {
		e.Acted = append(e.Acted, actorID)
	}
	if e.Budget.Exhausted() || e.allActed(eligible) {
		e.Round++
		e.Budget.Reset(len(eligible))
		e.Acted = []string{}
	}
	e.touch()
}

func (e *Encounter) allActed(eligible []string) bool {
	for _, id := range eligible {
		if !e.HasActed(id) {
			return false
		}
	}
	return true
}

// AddHostiles appends new hostiles and resets the round's budget.
//
// Precondition: the encounter is in combat.
func (e *Encounter) AddHostiles(ids []string, eligible int) error {
	if err := e.EnsureActive(); err != nil {
		return err
	}
	for _, id := range ids {
		if !e.HasHostile(id) {
			e.HostileIDs = append(e.HostileIDs, id)
		}
	}
	e.Budget.Reset(eligible)
	e.Acted = []string{}
	e.touch()
	return nil
}

// CheckResolved moves the encounter to resolved when allDefeated is true.
// It returns true only on the call that performs the transition; once
// resolved, further calls return false.
func (e *Encounter) CheckResolved(allDefeated bool) bool {
	if e.Status != StatusInCombat || !allDefeated {
		return false
	}
	e.Status = StatusResolved
	e.Budget.Remaining = 0
	e.touch()
	return true
}

// Clone returns a deep copy of e.
func (e *Encounter) Clone() *Encounter {
	cp := *e
	cp.HostileIDs = append([]string(nil), e.HostileIDs...)
	cp.Acted = append([]string{}, e.Acted...)
	return &cp
}

func (e *Encounter) touch() { e.UpdatedAt = time.Now().UTC() }
