package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sectornet/commander-server/game"
	"github.com/sectornet/commander-server/store"
)

// readCharacterSnapshot loads a character save without attaching it to
// a live Game. Leaderboards, mail delivery and combat write-backs read
// through this.
func readCharacterSnapshot(path string) (*game.CharacterSave, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap game.CharacterSave
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// writeCharacterSnapshot replaces a save atomically.
func writeCharacterSnapshot(path string, snap *game.CharacterSave) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// transferPlanet runs the store-side consequences of a conquest: the
// mirror flips owner, the shared universe file linearizes the change,
// the galaxy hears about it, and the previous owner gets the bad news.
func (s *Server) transferPlanet(sess *Session, g *game.Game, planetName string) {
	p := g.Planets[planetName]
	if p == nil {
		return
	}
	prevOwner := p.Owner
	p.Owner = g.Player.Name
	p.Defenders = 0
	p.Shields = 0
	g.Player.OwnedPlanets[planetName] = g.Now()
	delete(g.Player.BarredPlanets, planetName)

	if err := g.PublishToUniverse(); err != nil {
		s.log.Error().Err(err).Str("planet", planetName).Msg("conquest publish failed")
	}
	headline := fmt.Sprintf("%s has seized %s", g.Player.Name, planetName)
	if _, err := s.news.Append("conquest", headline, "", store.AudienceGlobal, ""); err != nil {
		s.log.Warn().Err(err).Msg("conquest news append failed")
	}
	if prevOwner != "" && prevOwner != g.Player.Name {
		body := fmt.Sprintf("Your garrison on %s has fallen. The planet now answers to %s.", planetName, g.Player.Name)
		if err := s.deliverMail(g.Player.Name, prevOwner, "Colony lost: "+planetName, body); err != nil {
			s.log.Warn().Err(err).Str("recipient", prevOwner).Msg("conquest mail failed")
		}
	}
	s.log.Info().Str("planet", planetName).Str("winner", g.Player.Name).Str("previous", prevOwner).Msg("planet conquered")
}

// writeBackDefeatedPlayer applies a combat loss to the other commander:
// through their session's delivery queue when they are online (their
// goroutine applies and saves it), atomically against their save when
// not.
func (s *Server) writeBackDefeatedPlayer(sess *Session, cs *game.CombatSession, outcome *game.CombatOutcome) {
	attacker := sess.PlayerDisplayName
	delta := outcome.CreditsDelta
	looted := make(map[string]int, len(outcome.LootedItems))
	for item, qty := range outcome.LootedItems {
		looted[item] = qty
	}
	body := fmt.Sprintf("%s hit your ship and made off with %d credits.", attacker, delta)

	apply := func(p *game.Player) {
		p.Credits -= delta
		if p.Credits < 0 {
			p.Credits = 0
		}
		for item, qty := range looted {
			p.RemoveItem(item, qty)
		}
		p.CombatWinStreak = 0
	}

	if other := s.findOnline(cs.Target.Name); other != nil {
		other.enqueue(func(g *game.Game) {
			apply(g.Player)
			g.Player.AddMessage(game.NewMessage(attacker, g.Player.Name, "Ambushed", body, g.Now()))
		})
		return
	}

	if cs.Target.AccountSafe == "" || cs.Target.CharacterSafe == "" {
		return
	}
	path := s.accounts.CharacterPath(cs.Target.AccountSafe, cs.Target.CharacterSafe)
	snap, err := readCharacterSnapshot(path)
	if err != nil || snap.Player == nil {
		s.log.Warn().Err(err).Str("character", cs.Target.CharacterSafe).Msg("defeat write-back load failed")
		return
	}
	apply(snap.Player)
	snap.Player.AddMessage(game.NewMessage(attacker, cs.Target.Name, "Ambushed", body,
		float64(time.Now().Unix())))
	if err := writeCharacterSnapshot(path, snap); err != nil {
		s.log.Error().Err(err).Str("character", cs.Target.CharacterSafe).Msg("defeat write-back save failed")
	}
}

// evaluateVictory re-scores the campaign leaderboard after a save:
// ownership comes from the shared universe file, wealth counts credits,
// bank and colony treasuries, and the top qualifier across every
// commander save takes the crown. A standing winner makes this a no-op.
func (s *Server) evaluateVictory(sess *Session, g *game.Game) {
	total := len(g.Planets)
	if total == 0 {
		return
	}
	states, err := s.universe.LoadStates()
	if err != nil {
		s.log.Warn().Err(err).Msg("victory check universe load failed")
		return
	}
	ownedBy := make(map[string]int)
	treasuries := make(map[string]int)
	for _, st := range states {
		if st.Owner == "" {
			continue
		}
		ownedBy[st.Owner]++
		treasuries[st.Owner] += st.CreditBalance
	}

	cfg := s.cfg
	var best *store.WinnerRecord
	seen := make(map[string]bool)
	for _, info := range s.accounts.AllCharacterSaves() {
		snap, err := readCharacterSnapshot(info.Path)
		if err != nil || snap.Player == nil {
			continue
		}
		name := snap.Player.Name
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		owned := ownedBy[name]
		pct := float64(owned) / float64(total)
		if pct < cfg.VictoryPlanetOwnershipPct {
			continue
		}
		auth := snap.Player.AuthorityStanding
		front := snap.Player.FrontierStanding
		if auth < cfg.VictoryAuthorityMin || auth > cfg.VictoryAuthorityMax ||
			front < cfg.VictoryFrontierMin || front > cfg.VictoryFrontierMax {
			continue
		}
		rec := store.WinnerRecord{
			CharacterName:  name,
			AccountSafe:    snap.AccountName,
			PlanetsOwned:   owned,
			OwnershipPct:   pct,
			TotalWealth:    snap.Player.Credits + snap.Player.BankBalance + treasuries[name],
			AuthorityStand: auth,
			FrontierStand:  front,
		}
		if best == nil || rec.OwnershipPct > best.OwnershipPct ||
			(rec.OwnershipPct == best.OwnershipPct && rec.TotalWealth > best.TotalWealth) {
			best = &rec
		}
	}
	if best == nil {
		return
	}

	scheduledAt, declared := s.winner.DeclareWinner(*best, cfg.VictoryResetDays)
	if !declared {
		return
	}
	reset := time.Unix(int64(scheduledAt), 0)
	headline := fmt.Sprintf("%s has won the campaign", best.CharacterName)
	body := fmt.Sprintf("Holding %d planets, %s rules the sector. The universe resets %s.",
		best.PlanetsOwned, best.CharacterName, reset.Format("Jan 2 15:04"))
	if _, err := s.news.Append("campaign", headline, body, store.AudienceGlobal, ""); err != nil {
		s.log.Warn().Err(err).Msg("victory news append failed")
	}
	// Every commander hears the news, online or not.
	notified := map[string]bool{strings.ToLower(best.CharacterName): true}
	for _, info := range s.accounts.AllCharacterSaves() {
		key := strings.ToLower(info.DisplayName)
		if info.DisplayName == "" || notified[key] {
			continue
		}
		notified[key] = true
		if err := s.deliverMail("Sector Control", info.DisplayName, "Campaign over", body); err != nil {
			s.log.Warn().Err(err).Str("recipient", info.DisplayName).Msg("victory mail failed")
		}
	}
	s.log.Info().Str("winner", best.CharacterName).Float64("ownership_pct", best.OwnershipPct).Msg("campaign winner declared")
}

// runScheduledResetIfDue executes a due campaign reset: planets back to
// base, commander saves purged (auth records kept), analytics cleared,
// the winner archived. Safe to call repeatedly.
func (s *Server) runScheduledResetIfDue() error {
	if !s.winner.ResetDue() {
		return nil
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	planets, err := game.GeneratePlanets(s.cfg.DataDir, s.catalog, rng)
	if err != nil {
		return fmt.Errorf("campaign reset: %w", err)
	}
	if err := s.universe.Reset(planets); err != nil {
		return fmt.Errorf("campaign reset universe: %w", err)
	}
	removed := s.accounts.PurgeCharacterSaves()
	if err := s.analytics.Reset(); err != nil {
		s.log.Warn().Err(err).Msg("campaign reset analytics failed")
	}
	if err := s.winner.CompleteReset(); err != nil {
		return fmt.Errorf("campaign reset winner board: %w", err)
	}
	if _, err := s.news.Append("campaign", "A new campaign begins",
		"The universe has been rebuilt. All commanders start fresh.", store.AudienceGlobal, ""); err != nil {
		s.log.Warn().Err(err).Msg("campaign reset news failed")
	}
	s.log.Info().Int("saves_removed", removed).Msg("campaign reset complete")
	return nil
}
