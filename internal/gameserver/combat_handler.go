package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/dice"
	"github.com/cory-johannsen/tabletop/internal/game/npc"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/observability"
)

// Rules holds the tunable difficulty classes used by the handler.
type Rules struct {
	FleeDC     int
	DialogueDC int
}

// DefaultRules returns the standard difficulty classes.
func DefaultRules() Rules {
	return Rules{FleeDC: combat.DefaultFleeDC, DialogueDC: combat.DefaultDialogueDC}
}

// ActionResult is the outcome of one request in a batch.
type ActionResult struct {
	Request combat.ActionRequest
	// Attack is set for resolved attacks.
	Attack *combat.AttackOutcome
	// Check is set for resolved flee and dialogue attempts.
	Check *combat.CheckResult
	// Heal is set for used consumables.
	Heal *combat.HealResult
	// Fled is set when the actor left combat as a spectator.
	Fled        bool
	Description string
	// Err is non-nil when the action was rejected or a collaborator failed.
	// A sink failure after the state was saved keeps the outcome fields.
	Err error
}

// BatchResult summarises a resolved batch.
type BatchResult struct {
	EncounterID string
	Status      combat.Status
	Round       int
	Remaining   int
	Results     []ActionResult
}

// XPAward is the experience granted to one player for a resolved encounter.
type XPAward struct {
	CombatantID string
	Amount      int
	Total       int
}

// CombatHandler orchestrates batches of player actions against encounters:
// eligibility, dispatch to the combat resolvers, persistence, event
// recording, turn economy and completion.
//
// Precondition: All collaborators except notifier, catalog and consumables
// must be non-nil. notifier may be nil (completion is then only recorded as
// an event); catalog may be nil (BeginScene and Reinforce then reject every
// template); consumables may be nil (use_item is then always rejected).
//
// Work is serialised per session through engine, since every encounter of a
// session shares its players; the notifier runs after the lock is released.
type CombatHandler struct {
	engine      *combat.Engine
	combatants  combat.CombatantRepository
	encounters  combat.EncounterRepository
	lookup      combat.EquipmentBonusLookup
	consumables combat.ConsumableLookup
	sink        combat.EventSink
	notifier    combat.CombatFinishedNotifier
	sessions    *session.Manager
	catalog     *npc.Catalog
	dice        *dice.Roller
	rules       Rules
	logger      *zap.Logger
}

// NewCombatHandler creates a CombatHandler.
//
// Postcondition: Returns a non-nil CombatHandler.
func NewCombatHandler(
	engine *combat.Engine,
	combatants combat.CombatantRepository,
	encounters combat.EncounterRepository,
	lookup combat.EquipmentBonusLookup,
	consumables combat.ConsumableLookup,
	sink combat.EventSink,
	notifier combat.CombatFinishedNotifier,
	sessions *session.Manager,
	catalog *npc.Catalog,
	diceRoller *dice.Roller,
	rules Rules,
	logger *zap.Logger,
) *CombatHandler {
	return &CombatHandler{
		engine:      engine,
		combatants:  combatants,
		encounters:  encounters,
		lookup:      lookup,
		consumables: consumables,
		sink:        sink,
		notifier:    notifier,
		sessions:    sessions,
		catalog:     catalog,
		dice:        diceRoller,
		rules:       rules,
		logger:      logger,
	}
}

func collaboratorErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, combat.ErrCollaborator, err)
}

// loadCombatant fetches id, mapping a miss to ErrInvalidInput.
func (h *CombatHandler) loadCombatant(ctx context.Context, role, id string) (*combat.Combatant, error) {
	c, err := h.combatants.Get(ctx, id)
	if err != nil {
		if errors.Is(err, combat.ErrCombatantNotFound) {
			return nil, fmt.Errorf("%w: %s %q not found", combat.ErrInvalidInput, role, id)
		}
		return nil, collaboratorErr("loading "+role, err)
	}
	return c, nil
}

func (h *CombatHandler) loadEncounter(ctx context.Context, id string) (*combat.Encounter, error) {
	enc, err := h.encounters.Get(ctx, id)
	if err != nil {
		if errors.Is(err, combat.ErrEncounterNotFound) {
			return nil, err
		}
		return nil, collaboratorErr("loading encounter", err)
	}
	return enc, nil
}

// lockSession takes the lock of encounterID's session. The session of an
// encounter never changes, so it is safe to read before locking.
func (h *CombatHandler) lockSession(ctx context.Context, encounterID string) (func(), error) {
	enc, err := h.loadEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	return h.engine.Lock(enc.SessionID), nil
}

// eligible returns the ids of the session's non-DM members whose combatant
// is active, in join order.
func (h *CombatHandler) eligible(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	for _, m := range h.sessions.Members(sessionID) {
		if m.IsDM() {
			continue
		}
		c, err := h.combatants.Get(ctx, m.CombatantID)
		if err != nil {
			if errors.Is(err, combat.ErrCombatantNotFound) {
				continue
			}
			return nil, collaboratorErr("loading session member", err)
		}
		if c.State == combat.StateActive && !c.IsDM() {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// allHostilesDefeated reports whether every hostile of enc is out of the fight.
func (h *CombatHandler) allHostilesDefeated(ctx context.Context, enc *combat.Encounter) (bool, error) {
	for _, id := range enc.HostileIDs {
		c, err := h.combatants.Get(ctx, id)
		if err != nil {
			if errors.Is(err, combat.ErrCombatantNotFound) {
				continue
			}
			return false, collaboratorErr("loading hostile", err)
		}
		if !c.IsDefeated() {
			return false, nil
		}
	}
	return true, nil
}

func (h *CombatHandler) record(ctx context.Context, events []combat.Event) error {
	var errs []error
	for _, ev := range events {
		if err := h.sink.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return collaboratorErr("recording event", errors.Join(errs...))
	}
	return nil
}

func (h *CombatHandler) notify(ctx context.Context, finished *combat.Encounter) {
	if finished == nil {
		return
	}
	h.logger.Info("encounter resolved", observability.EncounterFields(finished)...)
	if h.notifier != nil {
		h.notifier.CombatFinished(ctx, *finished)
	}
}

// ResolveBatch resolves reqs against encounterID in submission order.
//
// Precondition: encounterID must name an existing encounter.
// Postcondition: Results has one entry per request, in order; a failed
// request never stops the rest of the batch. Only an unknown encounter or a
// failure to read it returns a top-level error.
func (h *CombatHandler) ResolveBatch(ctx context.Context, encounterID string, reqs []combat.ActionRequest) (BatchResult, error) {
	enc, err := h.loadEncounter(ctx, encounterID)
	if err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{EncounterID: encounterID, Results: make([]ActionResult, 0, len(reqs))}
	for _, req := range reqs {
		res, finished := h.resolveAction(ctx, enc.SessionID, encounterID, req)
		if res.Err != nil {
			h.logger.Warn("action failed",
				zap.String("encounter_id", encounterID),
				zap.String("actor_id", req.ActorID),
				zap.Stringer("action", req.Action),
				zap.Error(res.Err),
			)
		} else {
			h.logger.Debug("action resolved",
				zap.String("encounter_id", encounterID),
				zap.String("actor_id", req.ActorID),
				zap.Stringer("action", req.Action),
				zap.String("description", res.Description),
			)
		}
		out.Results = append(out.Results, res)
		h.notify(ctx, finished)
	}

	enc, err = h.loadEncounter(ctx, encounterID)
	if err != nil {
		return out, err
	}
	out.Status = enc.Status
	out.Round = enc.Round
	out.Remaining = enc.Budget.Remaining
	return out, nil
}

// resolveAction runs one request under the session lock. finished is
// non-nil only for the request that moved the encounter to resolved.
func (h *CombatHandler) resolveAction(ctx context.Context, sessionID, encounterID string, req combat.ActionRequest) (res ActionResult, finished *combat.Encounter) {
	res.Request = req
	unlock := h.engine.Lock(sessionID)
	defer unlock()

	if err := req.Validate(); err != nil {
		res.Err = err
		return res, nil
	}
	enc, err := h.loadEncounter(ctx, encounterID)
	if err != nil {
		res.Err = err
		return res, nil
	}
	if req.Action != combat.ActionObserve {
		if err := enc.EnsureActive(); err != nil {
			res.Err = err
			return res, nil
		}
	}

	member, ok := h.sessions.Member(enc.SessionID, req.ActorID)
	if !ok {
		res.Err = fmt.Errorf("%w: %q is not a member of session %q", combat.ErrIneligibleActor, req.ActorID, enc.SessionID)
		return res, nil
	}
	actor, err := h.loadCombatant(ctx, "actor", req.ActorID)
	if err != nil {
		res.Err = err
		return res, nil
	}
	if err := checkEligibility(req.Action, member, actor, enc); err != nil {
		res.Err = err
		return res, nil
	}
	// A flee after acting this round does not spend a second budget slot.
	wasEligible := actor.State == combat.StateActive && !enc.HasActed(actor.ID)

	var events []combat.Event
	newEvent := func(eventType, description string) combat.Event {
		return combat.Event{
			SessionID:   enc.SessionID,
			EncounterID: enc.ID,
			ActorID:     actor.ID,
			Type:        eventType,
			Description: description,
		}
	}

	switch req.Action {
	case combat.ActionAttack:
		target, err := h.loadCombatant(ctx, "target", req.TargetID)
		if err != nil {
			res.Err = err
			return res, nil
		}
		if !enc.HasHostile(target.ID) && !(target.IsPlayer() && target.SessionID == enc.SessionID) {
			res.Err = fmt.Errorf("%w: target %q is neither a hostile of encounter %q nor a player of its session", combat.ErrInvalidInput, target.ID, enc.ID)
			return res, nil
		}
		outcome, err := combat.ResolveAttack(ctx, actor, target, req.Kind, h.lookup, h.dice)
		if err != nil {
			res.Err = err
			return res, nil
		}
		if outcome.Success {
			if err := h.combatants.Save(ctx, target); err != nil {
				res.Err = collaboratorErr("saving target", err)
				return res, nil
			}
		}
		res.Attack = &outcome
		res.Description = describeAttack(actor, target, outcome)
		events = append(events, newEvent(combat.EventAttack, res.Description))

	case combat.ActionFlee:
		flee := combat.AttemptFlee(actor, h.rules.FleeDC, h.dice)
		res.Check = &flee.CheckResult
		switch {
		case actor.State == combat.StateEliminated:
			res.Description = fmt.Sprintf("%s tries to crawl away but is down for good (%d vs DC %d)", actor.Name, flee.Total, flee.DC)
			eventType := combat.EventFleeFail
			if flee.Escaped {
				eventType = combat.EventFleeSuccess
			}
			events = append(events, newEvent(eventType, res.Description))
		case flee.Escaped:
			res.Fled = true
			actor.State = combat.StateSpectator
			if err := h.combatants.Save(ctx, actor); err != nil {
				res.Err = collaboratorErr("saving actor", err)
				return res, nil
			}
			res.Description = fmt.Sprintf("%s escapes the fight (%d vs DC %d)", actor.Name, flee.Total, flee.DC)
			events = append(events, newEvent(combat.EventFleeSuccess, res.Description))
		default:
			res.Description = fmt.Sprintf("%s fails to escape (%d vs DC %d)", actor.Name, flee.Total, flee.DC)
			events = append(events, newEvent(combat.EventFleeFail, res.Description))
		}

	case combat.ActionDialogue:
		chk := combat.AttemptDialogue(actor, h.rules.DialogueDC, h.dice)
		res.Check = &chk
		if chk.Success {
			res.Description = fmt.Sprintf("%s's words land (%d vs DC %d)", actor.Name, chk.Total, chk.DC)
			events = append(events, newEvent(combat.EventDialogSuccess, res.Description))
		} else {
			res.Description = fmt.Sprintf("%s's words fall flat (%d vs DC %d)", actor.Name, chk.Total, chk.DC)
			events = append(events, newEvent(combat.EventDialogFail, res.Description))
		}

	case combat.ActionWait:
		res.Description = fmt.Sprintf("%s waits defensively", actor.Name)
		events = append(events, newEvent(combat.EventWait, res.Description))

	case combat.ActionObserve:
		res.Description = fmt.Sprintf("%s observes the scene", actor.Name)
		events = append(events, newEvent(combat.EventObserve, res.Description))

	case combat.ActionUseItem:
		heal, err := combat.UseConsumable(ctx, actor, req.ItemID, h.consumables)
		if err != nil {
			res.Err = err
			return res, nil
		}
		if err := h.combatants.Save(ctx, actor); err != nil {
			res.Err = collaboratorErr("saving actor", err)
			return res, nil
		}
		res.Heal = &heal
		res.Description = fmt.Sprintf("%s uses %s and recovers %d HP (%d/%d)", actor.Name, req.ItemID, heal.Restored, actor.CurrentHP, actor.MaxHP)
		events = append(events, newEvent(combat.EventItemUsed, res.Description))

	default:
		res.Err = fmt.Errorf("%w: unhandled action %s", combat.ErrInvalidInput, req.Action)
		return res, nil
	}

	dirty := false
	if req.Action.ConsumesTurn() && wasEligible {
		ids, err := h.eligible(ctx, enc.SessionID)
		if err != nil {
			res.Err = err
			return res, nil
		}
		enc.ConsumeAction(actor.ID, ids)
		dirty = true
	}
	if req.Action.CausesDamage() {
		done, err := h.allHostilesDefeated(ctx, enc)
		if err != nil {
			res.Err = err
			return res, nil
		}
		if enc.CheckResolved(done) {
			finished = enc.Clone()
			dirty = true
			events = append(events, newEvent(combat.EventEncounterResolved,
				fmt.Sprintf("%s ends in round %d", enc.Name, enc.Round)))
		}
	}
	if dirty {
		if err := h.encounters.Update(ctx, enc); err != nil {
			res.Err = collaboratorErr("saving encounter", err)
			return res, nil
		}
	}

	if err := h.record(ctx, events); err != nil {
		res.Err = err
	}
	return res, finished
}

// checkEligibility applies the membership and turn rules for action.
func checkEligibility(action combat.ActionType, member session.Member, actor *combat.Combatant, enc *combat.Encounter) error {
	if action == combat.ActionObserve {
		return nil
	}
	if member.IsDM() || actor.IsDM() {
		return fmt.Errorf("%w: the DM may only observe", combat.ErrIneligibleActor)
	}
	switch action {
	case combat.ActionFlee:
		// Eliminated actors may still roll; the result never changes their state.
		if actor.State == combat.StateLeft {
			return fmt.Errorf("%w: %q is %s", combat.ErrIneligibleActor, actor.ID, actor.State)
		}
		return nil
	default:
		if actor.State != combat.StateActive {
			return fmt.Errorf("%w: %q is %s", combat.ErrIneligibleActor, actor.ID, actor.State)
		}
		if enc.HasActed(actor.ID) {
			return fmt.Errorf("%w: %q in round %d", combat.ErrActorExhausted, actor.ID, enc.Round)
		}
		return nil
	}
}

func describeAttack(attacker, defender *combat.Combatant, o combat.AttackOutcome) string {
	switch {
	case o.Fumble:
		return fmt.Sprintf("%s fumbles a %s attack on %s", attacker.Name, o.Kind, defender.Name)
	case !o.Success:
		return fmt.Sprintf("%s misses %s (%d vs DEF %d)", attacker.Name, defender.Name, o.AttackTotal, o.Defense)
	}
	verb := "hits"
	if o.Critical {
		verb = "critically hits"
	}
	msg := fmt.Sprintf("%s %s %s for %d damage (%d vs DEF %d)", attacker.Name, verb, defender.Name, o.Damage, o.AttackTotal, o.Defense)
	if o.Defeated {
		msg += fmt.Sprintf("; %s falls", defender.Name)
	}
	return msg
}

// StartEncounter creates an encounter in sessionID against hostileIDs and
// moves it into combat with a budget of one action per eligible player.
//
// Precondition: difficulty >= 1; every hostile must exist.
// Postcondition: Returns the in-combat encounter, already persisted.
func (h *CombatHandler) StartEncounter(ctx context.Context, sessionID, name string, difficulty int, hostileIDs []string) (*combat.Encounter, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", combat.ErrInvalidInput)
	}
	if difficulty < 1 {
		return nil, fmt.Errorf("%w: difficulty must be positive, got %d", combat.ErrInvalidInput, difficulty)
	}
	for _, id := range hostileIDs {
		if _, err := h.loadCombatant(ctx, "hostile", id); err != nil {
			return nil, err
		}
	}

	ids, err := h.eligible(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	enc := combat.NewEncounter(uuid.NewString(), sessionID, name, difficulty, hostileIDs)
	if err := enc.Begin(len(ids)); err != nil {
		return nil, err
	}
	if err := h.encounters.Create(ctx, enc); err != nil {
		return nil, collaboratorErr("creating encounter", err)
	}

	h.logger.Info("encounter started", observability.EncounterFields(enc)...)
	err = h.record(ctx, []combat.Event{{
		SessionID:   sessionID,
		EncounterID: enc.ID,
		Type:        combat.EventEncounterCreated,
		Description: fmt.Sprintf("%s begins with %d hostiles", enc.Name, len(enc.HostileIDs)),
	}})
	return enc, err
}

// spawn creates and saves one monster per template id.
func (h *CombatHandler) spawn(ctx context.Context, sessionID string, templateIDs []string) ([]*combat.Combatant, error) {
	if h.catalog == nil {
		return nil, fmt.Errorf("%w: no monster catalog configured", combat.ErrInvalidInput)
	}
	spawned := make([]*combat.Combatant, 0, len(templateIDs))
	for _, tid := range templateIDs {
		m, err := h.catalog.Spawn(tid, sessionID, h.dice)
		if err != nil {
			return nil, err
		}
		if err := h.combatants.Save(ctx, m); err != nil {
			return nil, collaboratorErr("saving monster", err)
		}
		spawned = append(spawned, m)
	}
	return spawned, nil
}

func combatantIDs(cs []*combat.Combatant) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

// BeginScene spawns one monster per template id and opens an encounter
// named after scene against them. The scene is narrated into the session
// history.
//
// Precondition: templateIDs must be non-empty and known to the catalog.
func (h *CombatHandler) BeginScene(ctx context.Context, sessionID, scene string, difficulty int, templateIDs []string) (*combat.Encounter, error) {
	if len(templateIDs) == 0 {
		return nil, fmt.Errorf("%w: a scene needs at least one monster", combat.ErrInvalidInput)
	}
	monsters, err := h.spawn(ctx, sessionID, templateIDs)
	if err != nil {
		return nil, err
	}
	h.sessions.Append(sessionID, session.Entry{
		Kind: session.EntryNarration,
		Text: fmt.Sprintf("The scene shifts: %s", scene),
	})
	return h.StartEncounter(ctx, sessionID, scene, difficulty, combatantIDs(monsters))
}

// Reinforce spawns monsters from templateIDs into an in-combat encounter.
// The round's budget is reset for the current eligible players.
//
// Postcondition: Returns the spawned monsters; the encounter's hostile roster includes them.
func (h *CombatHandler) Reinforce(ctx context.Context, encounterID string, templateIDs []string) ([]*combat.Combatant, error) {
	unlock, err := h.lockSession(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	enc, err := h.loadEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if err := enc.EnsureActive(); err != nil {
		return nil, err
	}
	monsters, err := h.spawn(ctx, enc.SessionID, templateIDs)
	if err != nil {
		return nil, err
	}
	ids, err := h.eligible(ctx, enc.SessionID)
	if err != nil {
		return nil, err
	}
	if err := enc.AddHostiles(combatantIDs(monsters), len(ids)); err != nil {
		return nil, err
	}
	if err := h.encounters.Update(ctx, enc); err != nil {
		return nil, collaboratorErr("saving encounter", err)
	}

	err = h.record(ctx, []combat.Event{{
		SessionID:   enc.SessionID,
		EncounterID: enc.ID,
		Type:        combat.EventReinforcements,
		Description: fmt.Sprintf("%d reinforcements join %s", len(monsters), enc.Name),
	}})
	return monsters, err
}

// AwardXP grants combat experience scaled by difficulty to every active
// player of a resolved encounter. A second call returns no awards.
//
// Postcondition: Returns ErrEncounterNotResolved unless the encounter is resolved.
func (h *CombatHandler) AwardXP(ctx context.Context, encounterID string) ([]XPAward, error) {
	unlock, err := h.lockSession(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	enc, err := h.loadEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if !enc.IsResolved() {
		return nil, fmt.Errorf("%w: %q is %s", combat.ErrEncounterNotResolved, enc.ID, enc.Status)
	}
	if enc.XPAwarded {
		return nil, nil
	}
	amount, err := combat.ComputeXP(combat.XPCombat, enc.Difficulty)
	if err != nil {
		return nil, err
	}
	// Persisted first: experience is granted at most once per encounter.
	enc.XPAwarded = true
	if err := h.encounters.Update(ctx, enc); err != nil {
		return nil, collaboratorErr("saving encounter", err)
	}

	var (
		awards []XPAward
		events []combat.Event
	)
	for _, m := range h.sessions.Members(enc.SessionID) {
		if m.IsDM() {
			continue
		}
		c, err := h.combatants.Get(ctx, m.CombatantID)
		if err != nil {
			if errors.Is(err, combat.ErrCombatantNotFound) {
				continue
			}
			return nil, collaboratorErr("loading session member", err)
		}
		if c.State != combat.StateActive {
			continue
		}
		c.Experience += amount
		if err := h.combatants.Save(ctx, c); err != nil {
			return nil, collaboratorErr("saving experience", err)
		}
		awards = append(awards, XPAward{CombatantID: c.ID, Amount: amount, Total: c.Experience})
		events = append(events, combat.Event{
			SessionID:   enc.SessionID,
			EncounterID: enc.ID,
			ActorID:     c.ID,
			Type:        combat.EventXPAward,
			Description: fmt.Sprintf("%s gains %d experience", c.Name, amount),
		})
	}

	return awards, h.record(ctx, events)
}
