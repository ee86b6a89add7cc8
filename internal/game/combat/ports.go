package combat

import (
	"context"
	"errors"
	"time"
)

// CombatantRepository loads and persists combatants.
// Get returns ErrCombatantNotFound when id is unknown.
type CombatantRepository interface {
	Get(ctx context.Context, id string) (*Combatant, error)
	Save(ctx context.Context, c *Combatant) error
}

// EncounterRepository creates, reads and updates encounter records.
// Get returns ErrEncounterNotFound when id is unknown.
type EncounterRepository interface {
	Create(ctx context.Context, e *Encounter) error
	Get(ctx context.Context, id string) (*Encounter, error)
	Update(ctx context.Context, e *Encounter) error
}

// Event types recorded for resolved actions and encounter transitions.
const (
	EventAttack            = "attack"
	EventFleeSuccess       = "flee_success"
	EventFleeFail          = "flee_fail"
	EventDialogSuccess     = "dialog_success"
	EventDialogFail        = "dialog_fail"
	EventWait              = "wait"
	EventObserve           = "observe"
	EventEncounterCreated  = "encounter_created"
	EventEncounterResolved = "encounter_resolved"
	EventReinforcements    = "reinforcements"
	EventXPAward           = "xp_award"
	EventItemUsed          = "item_used"
)

// Event is one descriptive log record, consumed by chat and narration.
type Event struct {
	SessionID   string
	EncounterID string
	ActorID     string
	Type        string
	Description string
	CreatedAt   time.Time
}

// EventSink accepts one record per resolved action.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// MultiSink records each event in every sink, returning the joined errors.
type MultiSink []EventSink

// Record forwards ev to all sinks even when one of them fails.
func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CombatFinishedNotifier is invoked exactly once when an encounter resolves.
type CombatFinishedNotifier interface {
	CombatFinished(ctx context.Context, enc Encounter)
}

// NotifierFunc adapts a function to CombatFinishedNotifier.
type NotifierFunc func(ctx context.Context, enc Encounter)

// CombatFinished calls f.
func (f NotifierFunc) CombatFinished(ctx context.Context, enc Encounter) { f(ctx, enc) }
