package combat

import (
	"context"
	"fmt"
	"strings"
)

// Slot identifies an equipment slot.
type Slot string

const (
	SlotArmor   Slot = "armor"
	SlotHelmet  Slot = "helmet"
	SlotGloves  Slot = "gloves"
	SlotBoots   Slot = "boots"
	SlotShield  Slot = "shield"
	SlotWeapon  Slot = "weapon"
	SlotOffhand Slot = "offhand"
	SlotRings   Slot = "rings"
	SlotAmulet  Slot = "amulet"
)

// defensiveSlots are the only slots whose items contribute to defense, in
// the order they are summed.
var defensiveSlots = []Slot{SlotArmor, SlotHelmet, SlotGloves, SlotBoots, SlotShield}

// slotAliases maps the legacy Spanish slot keys found in stored equipment to
// their canonical slot.
var slotAliases = map[string]Slot{
	"armadura": SlotArmor,
	"casco":    SlotHelmet,
	"guante":   SlotGloves,
	"guantes":  SlotGloves,
	"botas":    SlotBoots,
	"escudo":   SlotShield,
	"arma":     SlotWeapon,
	"anillos":  SlotRings,
	"amuleto":  SlotAmulet,
}

// NormalizeSlot returns the canonical Slot for key. Unknown keys are returned
// unchanged so that newer slot names survive a round trip.
func NormalizeSlot(key string) Slot {
	k := strings.ToLower(strings.TrimSpace(key))
	if s, ok := slotAliases[k]; ok {
		return s
	}
	return Slot(k)
}

// NormalizeEquipment rekeys eq by canonical slot. When a canonical key and
// an alias name the same slot the canonical key wins; between aliases the
// lexically smallest key wins.
func NormalizeEquipment(eq map[Slot]string) map[Slot]string {
	out := make(map[Slot]string, len(eq))
	from := make(map[Slot]Slot, len(eq))
	for k, v := range eq {
		slot := NormalizeSlot(string(k))
		if prev, taken := from[slot]; taken && !slotKeyBeats(k, prev, slot) {
			continue
		}
		out[slot] = v
		from[slot] = k
	}
	return out
}

func slotKeyBeats(k, prev, slot Slot) bool {
	if prev == slot {
		return false
	}
	if k == slot {
		return true
	}
	return k < prev
}

// IsDefensive reports whether items in s count toward defense.
func (s Slot) IsDefensive() bool {
	for _, d := range defensiveSlots {
		if s == d {
			return true
		}
	}
	return false
}

// EquipmentBonusLookup resolves an equipped item reference to its DEF bonus.
// Unknown references resolve to 0 with a nil error. Results must not be
// cached across calls: equipment changes between rounds.
type EquipmentBonusLookup interface {
	DefenseBonus(ctx context.Context, itemRef string) (int, error)
}

// EquipmentBonusFunc adapts a function to EquipmentBonusLookup.
type EquipmentBonusFunc func(ctx context.Context, itemRef string) (int, error)

// DefenseBonus calls f.
func (f EquipmentBonusFunc) DefenseBonus(ctx context.Context, itemRef string) (int, error) {
	return f(ctx, itemRef)
}

// ComputeDefense returns 10 + Modifier(Agility) + the DEF bonus of every item
// equipped in a defensive slot. Slots outside the defensive set are ignored.
//
// Precondition: defender must be non-nil.
// Postcondition: No side effects; lookup failures are returned wrapped in ErrCollaborator.
func ComputeDefense(ctx context.Context, defender *Combatant, lookup EquipmentBonusLookup) (int, error) {
	total := 10 + Modifier(defender.Abilities.Agility)
	if lookup == nil {
		return total, nil
	}
	equipped := NormalizeEquipment(defender.Equipment)
	for _, slot := range defensiveSlots {
		ref := equipped[slot]
		if ref == "" {
			continue
		}
		bonus, err := lookup.DefenseBonus(ctx, ref)
		if err != nil {
			return 0, fmt.Errorf("%w: defense bonus for %q in slot %s: %w", ErrCollaborator, ref, slot, err)
		}
		total += bonus
	}
	return total, nil
}
