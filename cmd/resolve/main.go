// Package main provides a command that resolves a scripted encounter: it
// loads content and a round script, opens the scene, resolves each round's
// batch and awards experience when the encounter ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/config"
	"github.com/cory-johannsen/tabletop/internal/game/character"
	"github.com/cory-johannsen/tabletop/internal/game/combat"
	"github.com/cory-johannsen/tabletop/internal/game/dice"
	"github.com/cory-johannsen/tabletop/internal/game/inventory"
	"github.com/cory-johannsen/tabletop/internal/game/npc"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/gameserver"
	"github.com/cory-johannsen/tabletop/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scriptPath := flag.String("script", "content/scripts/crypt.yaml", "path to the round script")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	script, err := LoadScript(*scriptPath)
	if err != nil {
		logger.Fatal("loading script", zap.Error(err))
	}

	templates, err := npc.LoadTemplates(cfg.Content.MonstersDir)
	if err != nil {
		logger.Fatal("loading monster templates", zap.Error(err))
	}
	catalog, err := npc.NewCatalog(templates)
	if err != nil {
		logger.Fatal("indexing monster templates", zap.Error(err))
	}
	defs, err := inventory.LoadItems(cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading items", zap.Error(err))
	}
	items, err := inventory.NewRegistryFrom(defs)
	if err != nil {
		logger.Fatal("indexing items", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("monsters", len(templates)),
		zap.Int("items", len(defs)),
	)

	store, err := openBackend(ctx, cfg, items, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer store.close()

	sessions := session.NewManager(cfg.Combat.HistoryLimit)
	sink := combat.MultiSink{store.events, sessions, observability.EventLogger{Logger: logger}}
	notifier := combat.NotifierFunc(func(_ context.Context, enc combat.Encounter) {
		logger.Info("combat finished", observability.EncounterFields(&enc)...)
	})
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	rules := gameserver.Rules{FleeDC: cfg.Combat.FleeDC, DialogueDC: cfg.Combat.DialogueDC}

	handler := gameserver.NewCombatHandler(combat.NewEngine(), store.combatants, store.encounters,
		store.lookup, items, sink, notifier, sessions, catalog, roller, rules, logger)

	if err := run(ctx, os.Stdout, handler, store, sessions, items, script); err != nil {
		logger.Fatal("resolving script", zap.Error(err))
	}
	logger.Info("script resolved", zap.Duration("elapsed", time.Since(start)))
}

// transcriptBuffer bounds the table talk held between two rounds.
const transcriptBuffer = 256

// run seats the party, opens the scene and resolves every round, writing a
// transcript to w. Table talk reaches the transcript through a session
// listener.
func run(ctx context.Context, w io.Writer, h *gameserver.CombatHandler, store *backend, sessions *session.Manager, items character.ItemCatalog, script *Script) error {
	for _, p := range script.Party {
		role := combat.Role(strings.ToUpper(p.Role))
		c, err := character.Build(character.Sheet{ID: p.ID, Name: p.Name, Role: role, Abilities: p.Abilities})
		if err != nil {
			return fmt.Errorf("creating %q: %w", p.ID, err)
		}
		for slot, item := range p.Equipment {
			if err := character.Equip(c, slot, item, items); err != nil {
				return fmt.Errorf("equipping %q: %w", p.ID, err)
			}
		}
		for item, qty := range p.Consumables {
			if err := character.Stock(c, item, qty, items); err != nil {
				return fmt.Errorf("stocking %q: %w", p.ID, err)
			}
		}
		if err := character.JoinSession(c, script.Session); err != nil {
			return err
		}
		if err := store.combatants.Save(ctx, c); err != nil {
			return fmt.Errorf("saving %q: %w", p.ID, err)
		}
		if err := sessions.Join(script.Session, session.Member{CombatantID: p.ID, Name: p.Name, Role: role}); err != nil {
			return err
		}
	}

	talk, err := sessions.Subscribe(script.Session, "transcript", transcriptBuffer)
	if err != nil {
		return err
	}
	defer sessions.Unsubscribe(script.Session, "transcript")

	enc, err := h.BeginScene(ctx, script.Session, script.Scene.Name, script.Scene.Difficulty, script.Scene.Monsters)
	if err != nil {
		return fmt.Errorf("beginning scene: %w", err)
	}
	fmt.Fprintf(w, "encounter %s: %s (difficulty %d, %d hostiles)\n", enc.ID, enc.Name, enc.Difficulty, len(enc.HostileIDs))

	chat := gameserver.NewChatHandler(sessions)
	hostiles := enc.HostileIDs
	status := enc.Status
	for i, round := range script.Rounds {
		if status == combat.StatusResolved {
			break
		}
		for _, line := range round.Chat {
			post := chat.Say
			if line.Narration {
				post = chat.Narrate
			}
			if _, err := post(script.Session, line.Speaker, line.Text); err != nil {
				return fmt.Errorf("round %d chat: %w", i+1, err)
			}
		}
		printTalk(w, talk)
		if len(round.Reinforce) > 0 {
			spawned, err := h.Reinforce(ctx, enc.ID, round.Reinforce)
			if err != nil {
				return fmt.Errorf("round %d reinforcements: %w", i+1, err)
			}
			for _, m := range spawned {
				hostiles = append(hostiles, m.ID)
			}
			fmt.Fprintf(w, "round %d: %d reinforcements arrive\n", i+1, len(spawned))
		}

		res, err := h.ResolveBatch(ctx, enc.ID, round.Requests(hostiles))
		if err != nil {
			return fmt.Errorf("round %d: %w", i+1, err)
		}
		for _, r := range res.Results {
			if r.Err != nil {
				fmt.Fprintf(w, "  %s %s: rejected: %v\n", r.Request.ActorID, r.Request.Action, r.Err)
				continue
			}
			fmt.Fprintf(w, "  %s\n", r.Description)
		}
		fmt.Fprintf(w, "round %d done: status=%s round=%d remaining=%d\n", i+1, res.Status, res.Round, res.Remaining)
		status = res.Status
	}

	if status == combat.StatusResolved {
		awards, err := h.AwardXP(ctx, enc.ID)
		if err != nil {
			return fmt.Errorf("awarding experience: %w", err)
		}
		for _, a := range awards {
			fmt.Fprintf(w, "%s gains %d experience (total %d)\n", a.CombatantID, a.Amount, a.Total)
		}
	}

	printTalk(w, talk)
	if n := talk.Dropped(); n > 0 {
		fmt.Fprintf(w, "transcript missed %d history lines\n", n)
	}

	events, err := store.events.ListBySession(ctx, script.Session)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	fmt.Fprintf(w, "%d events recorded, %d history lines\n", len(events), len(sessions.History(script.Session)))
	return nil
}

// printTalk writes the chat and narration l has buffered. Combat events are
// skipped; their outcomes are printed from the batch results.
func printTalk(w io.Writer, l *session.Listener) {
	for {
		select {
		case e, ok := <-l.Entries():
			if !ok {
				return
			}
			if e.Kind != session.EntryEvent {
				fmt.Fprintf(w, "  [%s] %s: %s\n", e.Kind, e.Speaker, e.Text)
			}
		default:
			return
		}
	}
}
