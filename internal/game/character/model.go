// Package character defines player-character creation and the steps a
// character goes through before and after combat: equipping items, joining
// a session and leaving it.
package character

import (
	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

// Ability score bounds accepted at creation.
const (
	MinAbility = 1
	MaxAbility = 30
)

// Sheet is a character creation request. Scores left at zero default to 10.
type Sheet struct {
	// ID is assigned when empty.
	ID        string
	Name      string
	Role      combat.Role
	Abilities combat.Abilities
}

// ItemCatalog resolves item ids for equipping. *inventory.Registry satisfies it.
type ItemCatalog interface {
	Item(id string) (*inventory.ItemDef, bool)
}
