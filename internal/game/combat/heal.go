package combat

import (
	"context"
	"errors"
	"fmt"
)

// ConsumableLookup resolves a consumable item reference to the hit points it
// restores. Unknown or non-healing items are reported as ErrInvalidInput.
type ConsumableLookup interface {
	HealAmount(ctx context.Context, itemRef string) (int, error)
}

// HealResult is the outcome of using a consumable.
type HealResult struct {
	ItemID    string
	Restored  int // hit points actually restored after the MaxHP cap
	CurrentHP int
	Remaining int // copies of the item still carried
}

// Heal restores up to amount hit points, capped at MaxHP, and returns the
// number restored. Defeat is final: an eliminated or defeated combatant is
// never revived.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP <= MaxHP; on error c is unchanged.
func (c *Combatant) Heal(amount int) (int, error) {
	if c.IsDefeated() {
		return 0, fmt.Errorf("%w: %q is %s and cannot be revived", ErrInvalidInput, c.ID, c.State)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative heal %d", ErrInvalidInput, amount)
	}
	before := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - before, nil
}

// UseConsumable spends one carried copy of itemRef and heals user by the
// item's amount.
//
// Precondition: user must be non-nil.
// Postcondition: On success one copy is spent and user.CurrentHP <= user.MaxHP.
// On error user is unchanged.
func UseConsumable(ctx context.Context, user *Combatant, itemRef string, lookup ConsumableLookup) (HealResult, error) {
	if lookup == nil {
		return HealResult{}, fmt.Errorf("%w: no consumable catalog configured", ErrInvalidInput)
	}
	if user.IsDefeated() {
		return HealResult{}, fmt.Errorf("%w: %q is %s and cannot be revived", ErrInvalidInput, user.ID, user.State)
	}
	if user.Consumables[itemRef] < 1 {
		return HealResult{}, fmt.Errorf("%w: %q carries no %q", ErrInvalidInput, user.ID, itemRef)
	}
	amount, err := lookup.HealAmount(ctx, itemRef)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return HealResult{}, err
		}
		return HealResult{}, fmt.Errorf("%w: heal amount for %q: %w", ErrCollaborator, itemRef, err)
	}
	restored, err := user.Heal(amount)
	if err != nil {
		return HealResult{}, err
	}
	user.Consumables[itemRef]--
	left := user.Consumables[itemRef]
	if left == 0 {
		delete(user.Consumables, itemRef)
	}
	return HealResult{ItemID: itemRef, Restored: restored, CurrentHP: user.CurrentHP, Remaining: left}, nil
}
