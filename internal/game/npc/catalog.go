package npc

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/dice"
)

// Catalog indexes monster templates by ID and spawns combatants from them.
// A Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	templates map[string]*Template
}

// NewCatalog indexes templates.
//
// Postcondition: Returns an error if two templates share an ID.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, exists := c.templates[t.ID]; exists {
			return nil, fmt.Errorf("npc: duplicate template ID %q", t.ID)
		}
		c.templates[t.ID] = t
	}
	return c, nil
}

// Template returns the template for id and whether it was found.
func (c *Catalog) Template(id string) (*Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// IDs returns every template ID in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Spawn builds a living monster combatant from the template with the given
// id, scoped to sessionID. HitDice templates roll their hit points from src,
// never below 1.
//
// Precondition: src must be non-nil when the template uses hit dice.
// Postcondition: The combatant has a fresh uuid, CurrentHP == MaxHP and State == alive.
// Returns combat.ErrInvalidInput for an unknown template id.
func (c *Catalog) Spawn(templateID, sessionID string, src dice.Source) (*combat.Combatant, error) {
	tmpl, ok := c.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown monster template %q", combat.ErrInvalidInput, templateID)
	}

	hp := tmpl.MaxHP
	if tmpl.HitDice != "" {
		expr, err := dice.Parse(tmpl.HitDice)
		if err != nil {
			return nil, fmt.Errorf("npc template %q: %w", tmpl.ID, err)
		}
		hp = dice.Roll(expr, src).Total()
		if hp < 1 {
			hp = 1
		}
	}

	m := combat.NewMonster(uuid.NewString(), sessionID, tmpl.Name, hp, tmpl.Abilities)
	m.Level = tmpl.Level
	for k, v := range tmpl.Equipment {
		m.Equipment[combat.NormalizeSlot(k)] = v
	}
	return m, nil
}
