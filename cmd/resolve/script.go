package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// Script describes one session's party, opening scene and the rounds of
// actions to resolve against it.
type Script struct {
	Session string        `yaml:"session"`
	Party   []PartyMember `yaml:"party"`
	Scene   Scene         `yaml:"scene"`
	Rounds  []Round       `yaml:"rounds"`
}

// PartyMember is a player character joined to the session.
type PartyMember struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Role        string            `yaml:"role"`
	Abilities   combat.Abilities  `yaml:"abilities"`
	Equipment   map[string]string `yaml:"equipment"`
	Consumables map[string]int    `yaml:"consumables"`
}

// Scene opens the encounter.
type Scene struct {
	Name       string   `yaml:"name"`
	Difficulty int      `yaml:"difficulty"`
	Monsters   []string `yaml:"monsters"`
}

// Round is one batch of actions, optionally preceded by table talk and
// reinforcements.
type Round struct {
	Chat      []ChatLine     `yaml:"chat"`
	Reinforce []string       `yaml:"reinforce"`
	Actions   []ScriptAction `yaml:"actions"`
}

// ChatLine is a line of table talk; Narration lines must come from the DM.
type ChatLine struct {
	Speaker   string `yaml:"speaker"`
	Text      string `yaml:"text"`
	Narration bool   `yaml:"narration"`
}

// ScriptAction is one action line. Target is a combatant id, or "#n" for
// the n-th hostile of the encounter (1-based). Item names the consumable of
// a use_item line.
type ScriptAction struct {
	Actor  string `yaml:"actor"`
	Action string `yaml:"action"`
	Target string `yaml:"target"`
	Kind   string `yaml:"kind"`
	Item   string `yaml:"item"`
}

// LoadScriptFromBytes parses and validates a round script.
//
// Postcondition: Returns a validated Script or a non-nil error.
func LoadScriptFromBytes(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i := range s.Party {
		if s.Party[i].Role == "" {
			s.Party[i].Role = string(combat.RolePlayer)
		}
		fillAbilities(&s.Party[i].Abilities)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// fillAbilities sets every unset score to 10.
func fillAbilities(a *combat.Abilities) {
	for _, score := range []*int{
		&a.Strength, &a.Dexterity, &a.Constitution, &a.Intelligence,
		&a.Wisdom, &a.Charisma, &a.Agility,
	} {
		if *score == 0 {
			*score = 10
		}
	}
}

// LoadScript reads and parses the script at path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return LoadScriptFromBytes(data)
}

// Validate checks the script for missing references and unknown actions.
func (s *Script) Validate() error {
	var errs []error
	if s.Session == "" {
		errs = append(errs, errors.New("session must not be empty"))
	}
	if len(s.Party) == 0 {
		errs = append(errs, errors.New("party must not be empty"))
	}
	members := make(map[string]bool, len(s.Party))
	for _, p := range s.Party {
		if p.ID == "" {
			errs = append(errs, errors.New("party member id must not be empty"))
			continue
		}
		if members[p.ID] {
			errs = append(errs, fmt.Errorf("duplicate party member %q", p.ID))
		}
		members[p.ID] = true
		if r := combat.Role(strings.ToUpper(p.Role)); r != combat.RolePlayer && r != combat.RoleDM {
			errs = append(errs, fmt.Errorf("party member %q: role must be PLAYER or DM, got %q", p.ID, p.Role))
		}
	}
	if len(s.Scene.Monsters) == 0 {
		errs = append(errs, errors.New("scene.monsters must not be empty"))
	}
	if s.Scene.Difficulty < 1 {
		errs = append(errs, fmt.Errorf("scene.difficulty must be >= 1, got %d", s.Scene.Difficulty))
	}
	for ri, r := range s.Rounds {
		for ci, c := range r.Chat {
			if !members[c.Speaker] {
				errs = append(errs, fmt.Errorf("round %d chat %d: unknown speaker %q", ri+1, ci+1, c.Speaker))
			}
		}
		for ai, a := range r.Actions {
			if _, err := a.request(nil); err != nil && !errors.Is(err, errNoHostile) {
				errs = append(errs, fmt.Errorf("round %d action %d: %w", ri+1, ai+1, err))
			}
			if !members[a.Actor] {
				errs = append(errs, fmt.Errorf("round %d action %d: unknown actor %q", ri+1, ai+1, a.Actor))
			}
		}
	}
	return errors.Join(errs...)
}

var errNoHostile = errors.New("hostile index out of range")

// request converts the line into an ActionRequest, resolving "#n" targets
// against hostiles.
func (a ScriptAction) request(hostiles []string) (combat.ActionRequest, error) {
	action, err := combat.ParseActionType(a.Action)
	if err != nil {
		return combat.ActionRequest{}, err
	}
	req := combat.ActionRequest{ActorID: a.Actor, Action: action}
	switch action {
	case combat.ActionAttack:
	case combat.ActionUseItem:
		req.ItemID = a.Item
		return req, req.Validate()
	default:
		return req, nil
	}
	req.Kind, err = combat.ParseAttackKind(a.Kind)
	if err != nil {
		return combat.ActionRequest{}, err
	}
	req.TargetID = a.Target
	if strings.HasPrefix(a.Target, "#") {
		n, err := strconv.Atoi(strings.TrimPrefix(a.Target, "#"))
		if err != nil || n < 1 {
			return combat.ActionRequest{}, fmt.Errorf("%w: bad hostile reference %q", combat.ErrInvalidInput, a.Target)
		}
		if n > len(hostiles) {
			return combat.ActionRequest{}, fmt.Errorf("%w: %q of %d", errNoHostile, a.Target, len(hostiles))
		}
		req.TargetID = hostiles[n-1]
	}
	return req, nil
}

// Requests converts the round's actions. A line that cannot be converted
// keeps its position as an invalid request so the batch reports it.
func (r Round) Requests(hostiles []string) []combat.ActionRequest {
	out := make([]combat.ActionRequest, 0, len(r.Actions))
	for _, a := range r.Actions {
		req, err := a.request(hostiles)
		if err != nil {
			req = combat.ActionRequest{ActorID: a.Actor}
		}
		out = append(out, req)
	}
	return out
}
