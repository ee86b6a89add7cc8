package combat

import (
	"fmt"
	"strings"
)

// Experience event categories.
const (
	XPCombat      = "combat"
	XPMission     = "mission"
	XPDecision    = "decision"
	XPExploration = "exploration"
)

// UnknownXP is awarded for any event type without a base value.
const UnknownXP = 10

var xpBase = map[string]int{
	XPCombat:      50,
	XPMission:     200,
	XPDecision:    100,
	XPExploration: 30,

	"combate":     50,
	"mision":      200,
	"misión":      200,
	"decisión":    100,
	"exploracion": 30,
	"exploración": 30,
}

// ComputeXP returns the experience awarded for an event of eventType at the
// given difficulty: base(eventType) * difficulty.
//
// Precondition: difficulty >= 1.
// Postcondition: Returns ErrInvalidInput when difficulty <= 0.
func ComputeXP(eventType string, difficulty int) (int, error) {
	if difficulty <= 0 {
		return 0, fmt.Errorf("%w: difficulty must be positive, got %d", ErrInvalidInput, difficulty)
	}
	base, ok := xpBase[strings.ToLower(strings.TrimSpace(eventType))]
	if !ok {
		base = UnknownXP
	}
	return base * difficulty, nil
}
