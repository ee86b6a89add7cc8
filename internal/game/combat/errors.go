package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers unknown attack or action kinds, non-positive
	// difficulty and missing actor or target references.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIneligibleActor is returned when the actor may not take the requested action.
	ErrIneligibleActor = errors.New("ineligible actor")
	// ErrActorExhausted is returned when the actor already acted this round.
	ErrActorExhausted = fmt.Errorf("%w: already acted this round", ErrIneligibleActor)
	// ErrEncounterResolved is returned for actions against a resolved encounter.
	ErrEncounterResolved = errors.New("encounter already resolved")
	// ErrEncounterNotStarted is returned for actions against a pending encounter.
	ErrEncounterNotStarted = errors.New("encounter not started")
	// ErrEncounterNotResolved is returned when an operation needs a resolved encounter.
	ErrEncounterNotResolved = errors.New("encounter not resolved")
	// ErrCollaborator marks a failure raised by a repository, lookup or sink.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrCombatantNotFound is returned by combatant repositories on a miss.
	ErrCombatantNotFound = errors.New("combatant not found")
	// ErrEncounterNotFound is returned by encounter repositories on a miss.
	ErrEncounterNotFound = errors.New("encounter not found")
	// ErrEncounterExists is returned by encounter repositories when creating a taken id.
	ErrEncounterExists = errors.New("encounter already exists")
)
