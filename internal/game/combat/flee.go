package combat

// DefaultFleeDC is the difficulty class of a flight check.
const DefaultFleeDC = 15

// DefaultDialogueDC is the difficulty class of a parley attempt.
const DefaultDialogueDC = 12

// CheckResult is the audit record of a d20 ability check.
type CheckResult struct {
	Roll     int // raw d20
	Modifier int
	Total    int
	DC       int
	Success  bool
}

// FleeResult is the outcome of a flight attempt.
type FleeResult struct {
	CheckResult
	Escaped bool
}

func abilityCheck(score, dc int, src Source) CheckResult {
	raw := RollDie(src, 20)
	mod := Modifier(score)
	total := raw + mod
	return CheckResult{
		Roll:     raw,
		Modifier: mod,
		Total:    total,
		DC:       dc,
		Success:  total >= dc,
	}
}

// AttemptFlee rolls d20 + Modifier(Agility) against dc. The resolver only
// reports the check; moving the character out of combat is the caller's job.
//
// Precondition: c and src must be non-nil.
// Postcondition: Escaped == (Total >= DC); c is not modified.
func AttemptFlee(c *Combatant, dc int, src Source) FleeResult {
	chk := abilityCheck(c.Abilities.Agility, dc, src)
	return FleeResult{CheckResult: chk, Escaped: chk.Success}
}

// AttemptDialogue rolls d20 + Modifier(Charisma) against dc.
//
// Postcondition: c is not modified.
func AttemptDialogue(c *Combatant, dc int, src Source) CheckResult {
	return abilityCheck(c.Abilities.Charisma, dc, src)
}
