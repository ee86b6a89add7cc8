package combat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/tabletop/internal/game/dice"
)

// AttackKind selects the attack ability and damage die.
// The zero value (AttackUnknown) is intentionally invalid.
type AttackKind int

const (
	AttackUnknown AttackKind = iota
	AttackMelee              // STR, d8
	AttackRanged             // DEX, d6
	AttackMagic              // INT, d10
)

// String returns the wire name of the kind.
func (k AttackKind) String() string {
	switch k {
	case AttackMelee:
		return "melee"
	case AttackRanged:
		return "ranged"
	case AttackMagic:
		return "magic"
	default:
		return "unknown"
	}
}

// ParseAttackKind converts a wire name into an AttackKind. The legacy
// "magico" spelling is accepted for magic.
//
// Postcondition: Returns ErrInvalidInput for any unrecognised name.
func ParseAttackKind(s string) (AttackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "melee":
		return AttackMelee, nil
	case "ranged":
		return AttackRanged, nil
	case "magic", "magico", "mágico":
		return AttackMagic, nil
	default:
		return AttackUnknown, fmt.Errorf("%w: unknown attack kind %q", ErrInvalidInput, s)
	}
}

var (
	meleeDamage  = dice.MustParse("1d8")
	rangedDamage = dice.MustParse("1d6")
	magicDamage  = dice.MustParse("1d10")
)

// profile returns the ability modifier and damage expression for kind.
func (k AttackKind) profile(attacker *Combatant) (int, dice.Expression, error) {
	switch k {
	case AttackMelee:
		return Modifier(attacker.Abilities.Strength), meleeDamage, nil
	case AttackRanged:
		return Modifier(attacker.Abilities.Dexterity), rangedDamage, nil
	case AttackMagic:
		return Modifier(attacker.Abilities.Intelligence), magicDamage, nil
	default:
		return 0, dice.Expression{}, fmt.Errorf("%w: unknown attack kind %d", ErrInvalidInput, int(k))
	}
}

// CriticalFace and FumbleFace are the natural d20 faces that force a hit or a miss.
const (
	CriticalFace = 20
	FumbleFace   = 1
)

// AttackOutcome is the full record of one attack resolution.
type AttackOutcome struct {
	AttackerID  string
	DefenderID  string
	Kind        AttackKind
	Roll        int // raw d20
	Modifier    int
	AttackTotal int
	Defense     int
	Critical    bool
	Fumble      bool
	Success     bool
	DamageRoll  int // raw damage die; 0 when no damage was rolled
	Damage      int
	DefenderHP  int
	Defeated    bool // defender is eliminated/defeated after this attack
}

// ResolveAttack rolls one attack of kind from attacker against defender and
// applies any damage to defender.
//
// A natural 1 always misses. A natural 20 always hits and doubles damage.
// Otherwise the attack hits when d20 + modifier >= defense. Damage is
// die + modifier, never below 1.
//
// Precondition: attacker, defender and src must be non-nil.
// Postcondition: On success, defender.CurrentHP == max(0, previous-Damage) and
// a defender at 0 HP is eliminated/defeated. On error, defender is unchanged.
func ResolveAttack(ctx context.Context, attacker, defender *Combatant, kind AttackKind, lookup EquipmentBonusLookup, src Source) (AttackOutcome, error) {
	mod, damageExpr, err := kind.profile(attacker)
	if err != nil {
		return AttackOutcome{}, err
	}

	defense, err := ComputeDefense(ctx, defender, lookup)
	if err != nil {
		return AttackOutcome{}, err
	}

	raw := RollDie(src, 20)
	out := AttackOutcome{
		AttackerID:  attacker.ID,
		DefenderID:  defender.ID,
		Kind:        kind,
		Roll:        raw,
		Modifier:    mod,
		AttackTotal: raw + mod,
		Defense:     defense,
		Critical:    raw == CriticalFace,
		Fumble:      raw == FumbleFace,
		DefenderHP:  defender.CurrentHP,
		Defeated:    defender.IsDefeated(),
	}

	if out.Fumble {
		return out, nil
	}
	if !out.Critical && out.AttackTotal < defense {
		return out, nil
	}

	out.Success = true
	out.DamageRoll = dice.Roll(damageExpr, src).Total()
	base := out.DamageRoll + mod
	if base < 1 {
		base = 1
	}
	out.Damage = base
	if out.Critical {
		out.Damage = base * 2
	}

	defender.ApplyDamage(out.Damage)
	out.DefenderHP = defender.CurrentHP
	out.Defeated = defender.IsDefeated()
	return out, nil
}
