package server

import (
	"fmt"

	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("combat",
		"get_orbit_targets", "start_combat_session", "resolve_combat_round",
		"flee_combat_session", "fire_special_weapon", "get_special_weapon_status",
		"should_initialize_planet_auto_combat", "_get_target_stats")
	registerHandlers(map[string]HandlerFunc{
		"get_orbit_targets":                    handleGetOrbitTargets,
		"start_combat_session":                 handleStartCombatSession,
		"resolve_combat_round":                 handleResolveCombatRound,
		"flee_combat_session":                  handleFleeCombatSession,
		"fire_special_weapon":                  handleFireSpecialWeapon,
		"get_special_weapon_status":            handleGetSpecialWeaponStatus,
		"should_initialize_planet_auto_combat": handleShouldInitializePlanetAutoCombat,
		"_get_target_stats":                    handleGetTargetStats,
	})
}

func handleGetOrbitTargets(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	resp := Response{"targets": g.OrbitNPCs}
	if p != nil && p.Owner != g.Player.Name {
		resp["planet_target"] = game.PlanetTargetStats(p)
	}
	return ok(resp)
}

// resolveTarget turns a name into a combat snapshot: the current planet,
// an orbit NPC, or another commander (online or from their save).
func (s *Server) resolveTarget(sess *Session, g *game.Game, name string) (*game.TargetStats, error) {
	if p := g.CurrentPlanet(); p != nil && p.Name == name {
		if p.Owner == g.Player.Name {
			return nil, fmt.Errorf("%s already flies your colors", p.Name)
		}
		target := game.PlanetTargetStats(p)
		return &target, nil
	}
	if npc := g.FindOrbitNPC(name); npc != nil {
		target := *npc
		return &target, nil
	}
	if target, err := s.playerTargetStats(sess, name); err == nil {
		return target, nil
	}
	return nil, fmt.Errorf("no target named %q in range", name)
}

// playerTargetStats snapshots another commander for combat from their
// save file. Online targets are snapshotted the same way: their session
// owns the live Game, and every character has a save from creation on,
// refreshed on travel, explicit saves and delivery drains.
func (s *Server) playerTargetStats(sess *Session, name string) (*game.TargetStats, error) {
	for _, info := range s.accounts.AllCharacterSaves() {
		snap, err := readCharacterSnapshot(info.Path)
		if err != nil || snap.Player == nil || snap.Player.Name != name || snap.Player.Ship == nil {
			continue
		}
		p := snap.Player
		return &game.TargetStats{
			Name:          p.Name,
			Type:          game.TargetPlayer,
			ShipModel:     p.Ship.Model,
			Credits:       p.Credits,
			Shields:       p.Ship.Shields,
			Defenders:     p.Ship.Defenders,
			Integrity:     p.Ship.Integrity,
			Inventory:     p.Inventory,
			AccountSafe:   snap.AccountName,
			CharacterSafe: info.CharacterSafe,
		}, nil
	}
	return nil, fmt.Errorf("no commander named %q", name)
}

func handleStartCombatSession(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "target_name")
	if name == "" {
		return ruleResp("no target named")
	}
	target, err := s.resolveTarget(sess, g, name)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	scale := paramFloat(params, "enemy_scale", 1.0)
	cs, err := g.StartCombatSession(*target, scale)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"session": cs})
}

func handleResolveCombatRound(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	committed := paramInt(params, "committed", 1)
	cs := g.Combat
	result, err := g.ResolveCombatRound(committed)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	if result.Victory != nil {
		s.settleVictory(sess, g, cs, result.Victory)
	}
	return ok(Response{"round": result, "session": g.Combat})
}

// settleVictory runs the store-side consequences of a win: planet
// conquest transfer, defeated-commander write-back, news.
func (s *Server) settleVictory(sess *Session, g *game.Game, cs *game.CombatSession, outcome *game.CombatOutcome) {
	switch cs.TargetType {
	case game.TargetPlanet:
		if outcome.PlanetCaptured {
			s.transferPlanet(sess, g, cs.Target.Name)
		}
	case game.TargetPlayer:
		s.writeBackDefeatedPlayer(sess, cs, outcome)
	}
}

func handleFleeCombatSession(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	outcome, err := g.FleeCombat()
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"outcome": outcome, "credits": g.Player.Credits})
}

func handleFireSpecialWeapon(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	cs := g.Combat
	result, err := g.FireSpecialWeapon()
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	if result.Victory != nil {
		s.settleVictory(sess, g, cs, result.Victory)
	}
	return ok(Response{"result": result, "session": g.Combat})
}

func handleGetSpecialWeaponStatus(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"status": g.GetSpecialWeaponStatus()})
}

func handleShouldInitializePlanetAutoCombat(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	if p == nil {
		return ok(Response{"auto_combat": false})
	}
	return ok(Response{"auto_combat": g.ShouldInitializePlanetAutoCombat(p)})
}

func handleGetTargetStats(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	target, err := s.resolveTarget(sess, g, paramString(params, "target_name"))
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"target": target})
}
