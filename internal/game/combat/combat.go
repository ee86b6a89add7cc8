// Package combat implements combat resolution and the turn economy for
// tabletop game sessions: attack and flee checks, defense, experience awards,
// and the encounter state machine.
package combat

import "github.com/cory-johannsen/tabletop/internal/game/dice"

// Kind distinguishes player characters from monsters.
type Kind string

const (
	KindPlayer  Kind = "player"
	KindMonster Kind = "monster"
)

// Role is a session participant's privilege level. Only player characters carry a role.
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleDM     Role = "DM"
)

// State is a combatant's life/defeat state.
type State string

const (
	// Player character states.
	StateActive     State = "active"
	StateSpectator  State = "spectator"
	StateEliminated State = "eliminated"
	StateLeft       State = "left"

	// Monster states.
	StateAlive    State = "alive"
	StateDefeated State = "defeated"
)

// Abilities holds the ability scores of a combatant. Agility is tracked
// separately from Dexterity: Dexterity drives ranged attacks, Agility drives
// defense and flight.
type Abilities struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Charisma     int `yaml:"charisma"`
	Agility      int `yaml:"agility"`
}

// DefaultAbilities returns a score of 10 in every ability.
func DefaultAbilities() Abilities {
	return Abilities{10, 10, 10, 10, 10, 10, 10}
}

// Combatant is any entity with hit points that can take part in an encounter.
//
// Invariant: 0 <= CurrentHP <= MaxHP.
type Combatant struct {
	ID         string
	SessionID  string
	Name       string
	Kind       Kind
	Role       Role
	Level      int
	Experience int
	Abilities  Abilities
	MaxHP      int
	CurrentHP  int
	State      State
	// Equipment maps an equipment slot to the equipped item reference.
	Equipment map[Slot]string
	// Consumables counts carried consumable items by item reference.
	Consumables map[string]int
}

// NewCharacter builds an active player character with MaxHP derived from
// Constitution: 10 + Modifier(CON), never below 1.
//
// Precondition: id and name must be non-empty.
// Postcondition: CurrentHP == MaxHP; State == StateActive; Level == 1.
func NewCharacter(id, sessionID, name string, role Role, abilities Abilities) *Combatant {
	hp := 10 + Modifier(abilities.Constitution)
	if hp < 1 {
		hp = 1
	}
	if role == "" {
		role = RolePlayer
	}
	return &Combatant{
		ID:          id,
		SessionID:   sessionID,
		Name:        name,
		Kind:        KindPlayer,
		Role:        role,
		Level:       1,
		Abilities:   abilities,
		MaxHP:       hp,
		CurrentHP:   hp,
		State:       StateActive,
		Equipment:   make(map[Slot]string),
		Consumables: make(map[string]int),
	}
}

// NewMonster builds a living monster with full hit points.
//
// Precondition: maxHP > 0.
func NewMonster(id, sessionID, name string, maxHP int, abilities Abilities) *Combatant {
	return &Combatant{
		ID:          id,
		SessionID:   sessionID,
		Name:        name,
		Kind:        KindMonster,
		Level:       1,
		Abilities:   abilities,
		MaxHP:       maxHP,
		CurrentHP:   maxHP,
		State:       StateAlive,
		Equipment:   make(map[Slot]string),
		Consumables: make(map[string]int),
	}
}

// IsPlayer reports whether c is a player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsDM reports whether c is the session's Dungeon Master character.
func (c *Combatant) IsDM() bool { return c.Kind == KindPlayer && c.Role == RoleDM }

// IsDefeated reports whether c is out of the fight for good: eliminated,
// defeated, or at 0 HP.
func (c *Combatant) IsDefeated() bool {
	return c.State == StateEliminated || c.State == StateDefeated || c.CurrentHP <= 0
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero, and marks c
// eliminated (players) or defeated (monsters) once it reaches zero.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP == max(0, previous-amount).
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	if c.CurrentHP == 0 {
		c.Eliminate()
	}
}

// Eliminate moves c into its terminal defeat state. Calling it again is a no-op.
func (c *Combatant) Eliminate() {
	if c.Kind == KindMonster {
		c.State = StateDefeated
		return
	}
	c.State = StateEliminated
}

// Clone returns a deep copy of c.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	cp.Equipment = make(map[Slot]string, len(c.Equipment))
	for k, v := range c.Equipment {
		cp.Equipment[k] = v
	}
	cp.Consumables = make(map[string]int, len(c.Consumables))
	for k, v := range c.Consumables {
		cp.Consumables[k] = v
	}
	return &cp
}

// Modifier converts an ability score to its modifier: floor((score - 10) / 2).
// Negative differences round toward negative infinity, so 9 yields -1.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Source is the randomness the resolvers draw from. *dice.Roller and every
// dice.Source satisfy it.
type Source interface {
	Intn(n int) int
}

// RollDie returns a uniformly distributed value in [1, faces].
//
// Precondition: faces >= 1.
func RollDie(src Source, faces int) int {
	return dice.Die(src, faces)
}
