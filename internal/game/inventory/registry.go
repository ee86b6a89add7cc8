package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// Registry holds all loaded item definitions indexed by ID. Definitions may
// be replaced at runtime, so lookups always read the current value.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*ItemDef)}
}

// NewRegistryFrom registers every def in defs.
//
// Postcondition: Returns an error on the first duplicate ID.
func NewRegistryFrom(defs []*ItemDef) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.RegisterItem(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterItem: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// ReplaceItem inserts or overwrites d.
func (r *Registry) ReplaceItem(d *ItemDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[d.ID] = d
}

// Item returns the ItemDef for the given id and whether it was found.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	return d, ok
}

// AllItems returns all registered ItemDefs sorted by ID.
func (r *Registry) AllItems() []*ItemDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ItemDef, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefenseBonus implements combat.EquipmentBonusLookup. Unknown item
// references resolve to 0.
func (r *Registry) DefenseBonus(_ context.Context, itemRef string) (int, error) {
	d, ok := r.Item(itemRef)
	if !ok {
		return 0, nil
	}
	return d.Bonus(BonusDefense), nil
}

// HealAmount implements combat.ConsumableLookup.
//
// Postcondition: Returns combat.ErrInvalidInput unless itemRef names a
// consumable with a positive heal.
func (r *Registry) HealAmount(_ context.Context, itemRef string) (int, error) {
	d, ok := r.Item(itemRef)
	if !ok {
		return 0, fmt.Errorf("%w: unknown item %q", combat.ErrInvalidInput, itemRef)
	}
	if d.Kind != KindConsumable || d.Heal <= 0 {
		return 0, fmt.Errorf("%w: %s does not heal", combat.ErrInvalidInput, d.Name)
	}
	return d.Heal, nil
}
