package character

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
)

// ErrInSession is returned when joining a character that already belongs to another session.
var ErrInSession = errors.New("character already in a session")

// abilityFields pairs each score with its display label.
func abilityFields(a *combat.Abilities) []struct {
	label string
	score *int
} {
	return []struct {
		label string
		score *int
	}{
		{"STR", &a.Strength},
		{"DEX", &a.Dexterity},
		{"CON", &a.Constitution},
		{"INT", &a.Intelligence},
		{"WIS", &a.Wisdom},
		{"CHA", &a.Charisma},
		{"AGI", &a.Agility},
	}
}

// Build creates an active level-1 character from sheet. Unset scores start
// at 10; MaxHP = max(1, 10 + modifier(CON)).
//
// Precondition: sheet.Name must be non-empty.
// Postcondition: Returns a character with CurrentHP == MaxHP and no session,
// or an error listing every out-of-range score.
func Build(sheet Sheet) (*combat.Combatant, error) {
	if sheet.Name == "" {
		return nil, fmt.Errorf("%w: character name must not be empty", combat.ErrInvalidInput)
	}
	role := sheet.Role
	switch role {
	case "":
		role = combat.RolePlayer
	case combat.RolePlayer, combat.RoleDM:
	default:
		return nil, fmt.Errorf("%w: role must be PLAYER or DM, got %q", combat.ErrInvalidInput, role)
	}

	abilities := sheet.Abilities
	var errs []error
	for _, f := range abilityFields(&abilities) {
		if *f.score == 0 {
			*f.score = 10
		}
		if *f.score < MinAbility || *f.score > MaxAbility {
			errs = append(errs, fmt.Errorf("%s must be in [%d, %d], got %d", f.label, MinAbility, MaxAbility, *f.score))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", combat.ErrInvalidInput, errors.Join(errs...))
	}

	id := sheet.ID
	if id == "" {
		id = uuid.NewString()
	}
	return combat.NewCharacter(id, "", sheet.Name, role, abilities), nil
}

// Equip places itemID in slot. Legacy slot names are normalised; an item
// that declares a slot must go in that slot.
//
// Postcondition: c.Equipment[slot] == itemID on success; c is unchanged on error.
func Equip(c *combat.Combatant, slot, itemID string, items ItemCatalog) error {
	def, ok := items.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: item %q does not exist", combat.ErrInvalidInput, itemID)
	}
	s := combat.NormalizeSlot(slot)
	if def.Slot != "" && def.Slot != s {
		return fmt.Errorf("%w: %s goes in slot %s, not %s", combat.ErrInvalidInput, def.Name, def.Slot, s)
	}
	if c.Equipment == nil {
		c.Equipment = make(map[combat.Slot]string)
	}
	for k := range c.Equipment {
		if k != s && combat.NormalizeSlot(string(k)) == s {
			delete(c.Equipment, k)
		}
	}
	c.Equipment[s] = itemID
	return nil
}

// Stock adds qty copies of the consumable itemID to c's pack.
//
// Precondition: qty > 0.
// Postcondition: Returns ErrInvalidInput unless itemID is a known consumable.
func Stock(c *combat.Combatant, itemID string, qty int, items ItemCatalog) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be positive, got %d", combat.ErrInvalidInput, qty)
	}
	def, ok := items.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: item %q does not exist", combat.ErrInvalidInput, itemID)
	}
	if def.Kind != inventory.KindConsumable {
		return fmt.Errorf("%w: %s is not a consumable", combat.ErrInvalidInput, def.Name)
	}
	if c.Consumables == nil {
		c.Consumables = make(map[string]int)
	}
	c.Consumables[itemID] += qty
	return nil
}

// JoinSession attaches c to sessionID. A character that left a session
// becomes active again.
//
// Postcondition: Returns ErrInSession when c belongs to a different session.
func JoinSession(c *combat.Combatant, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", combat.ErrInvalidInput)
	}
	if c.SessionID != "" && c.SessionID != sessionID {
		return fmt.Errorf("%w: %q is in %q", ErrInSession, c.ID, c.SessionID)
	}
	c.SessionID = sessionID
	if c.State == combat.StateLeft {
		c.State = combat.StateActive
	}
	return nil
}

// Leave detaches c from its session.
//
// Postcondition: c.State == StateLeft; c.SessionID is empty.
func Leave(c *combat.Combatant) error {
	if c.SessionID == "" {
		return fmt.Errorf("%w: %q is not in a session", combat.ErrInvalidInput, c.ID)
	}
	c.State = combat.StateLeft
	c.SessionID = ""
	return nil
}
