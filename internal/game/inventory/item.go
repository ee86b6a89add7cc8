// Package inventory provides item definitions and the registry that
// answers equipment bonus queries for combat.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// Kind constants for ItemDef.Kind.
const (
	KindArmor      = "armor"
	KindWeapon     = "weapon"
	KindAccessory  = "accessory"
	KindConsumable = "consumable"
	KindJunk       = "junk"
)

var validKinds = map[string]bool{
	KindArmor:      true,
	KindWeapon:     true,
	KindAccessory:  true,
	KindConsumable: true,
	KindJunk:       true,
}

// BonusDefense is the bonus key that contributes to defense.
const BonusDefense = "DEF"

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	// Slot is the equipment slot the item occupies; empty for unequippable items.
	Slot    combat.Slot    `yaml:"slot"`
	Bonuses map[string]int `yaml:"bonuses"`
	Value   int            `yaml:"value"`
	// Heal is the hit points a consumable restores when used.
	Heal int `yaml:"heal"`
}

// Bonus returns the named bonus (case-insensitive key), 0 when absent.
func (d *ItemDef) Bonus(name string) int {
	if v, ok := d.Bonuses[name]; ok {
		return v
	}
	for k, v := range d.Bonuses {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return 0
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of armor, weapon, accessory, consumable, junk; got %q", d.Kind))
	}
	if d.Kind == KindArmor && !d.Slot.IsDefensive() {
		errs = append(errs, fmt.Errorf("armor must occupy a defensive slot; got %q", d.Slot))
	}
	if d.Heal < 0 {
		errs = append(errs, errors.New("Heal must be >= 0"))
	}
	if d.Heal > 0 && d.Kind != KindConsumable {
		errs = append(errs, fmt.Errorf("only consumables heal; %q is %s", d.ID, d.Kind))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// LoadItemFromBytes parses and validates one ItemDef. Legacy Spanish slot
// names are normalised.
func LoadItemFromBytes(data []byte) (*ItemDef, error) {
	var d ItemDef
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing item YAML: %w", err)
	}
	if d.Slot != "" {
		d.Slot = combat.NormalizeSlot(string(d.Slot))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		d, err := LoadItemFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, d)
	}
	return items, nil
}
