package combat

import (
	"fmt"
	"strings"
)

// ActionType identifies what an actor does with its action this round.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown  ActionType = iota // zero value; intentionally invalid
	ActionAttack                     // damage-causing; consumes the actor's action
	ActionFlee                       // d20 + AGI vs flee DC; consumes the action
	ActionDialogue                   // d20 + CHA vs dialogue DC; consumes the action
	ActionWait                       // defensive wait; consumes the action
	ActionObserve                    // no-op; always allowed, consumes nothing
	ActionUseItem                    // drink a carried consumable; consumes the action
)

// AllActionTypes lists every valid ActionType. Dispatchers must handle each one.
func AllActionTypes() []ActionType {
	return []ActionType{ActionAttack, ActionFlee, ActionDialogue, ActionWait, ActionObserve, ActionUseItem}
}

// String returns the wire name of the action.
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionFlee:
		return "flee"
	case ActionDialogue:
		return "dialogue"
	case ActionWait:
		return "wait"
	case ActionObserve:
		return "observe"
	case ActionUseItem:
		return "use_item"
	default:
		return "unknown"
	}
}

// ConsumesTurn reports whether resolving a spends the actor's action.
func (a ActionType) ConsumesTurn() bool {
	switch a {
	case ActionAttack, ActionFlee, ActionDialogue, ActionWait, ActionUseItem:
		return true
	default:
		return false
	}
}

// CausesDamage reports whether a can change hit points.
func (a ActionType) CausesDamage() bool { return a == ActionAttack }

var actionNames = map[string]ActionType{
	"attack":   ActionAttack,
	"atacar":   ActionAttack,
	"flee":     ActionFlee,
	"huir":     ActionFlee,
	"dialogue": ActionDialogue,
	"dialogar": ActionDialogue,
	"wait":     ActionWait,
	"esperar":  ActionWait,
	"observe":  ActionObserve,
	"ver":      ActionObserve,
	"use_item": ActionUseItem,
	"usar":     ActionUseItem,
	"pocion":   ActionUseItem,
	"poción":   ActionUseItem,
}

// ParseActionType converts a wire name (English or the legacy Spanish verb)
// into an ActionType.
//
// Postcondition: Returns ErrInvalidInput for any unrecognised name.
func ParseActionType(s string) (ActionType, error) {
	if a, ok := actionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return ActionUnknown, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, s)
}

// ActionRequest is one player-submitted action in a round's batch.
type ActionRequest struct {
	ActorID  string
	Action   ActionType
	TargetID string     // required for ActionAttack
	Kind     AttackKind // required for ActionAttack
	ItemID   string     // required for ActionUseItem
}

// Validate checks the request's shape without consulting any state.
func (r ActionRequest) Validate() error {
	if r.ActorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	switch r.Action {
	case ActionAttack:
		if r.TargetID == "" {
			return fmt.Errorf("%w: attack requires a target", ErrInvalidInput)
		}
		if r.Kind == AttackUnknown {
			return fmt.Errorf("%w: attack requires a kind (melee, ranged, magic)", ErrInvalidInput)
		}
		return nil
	case ActionUseItem:
		if r.ItemID == "" {
			return fmt.Errorf("%w: use_item requires an item", ErrInvalidInput)
		}
		return nil
	case ActionFlee, ActionDialogue, ActionWait, ActionObserve:
		return nil
	default:
		return fmt.Errorf("%w: unknown action type %d", ErrInvalidInput, int(r.Action))
	}
}
