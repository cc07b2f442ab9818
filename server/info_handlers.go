package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("info",
		"get_player_info", "get_current_planet_info", "get_docking_fee",
		"get_config", "get_winner_board", "get_all_commander_statuses",
		"get_ship_level", "get_spaceships", "_load_shared_planet_states")
	registerHandlers(map[string]HandlerFunc{
		"get_player_info":            handleGetPlayerInfo,
		"get_current_planet_info":    handleGetCurrentPlanetInfo,
		"get_docking_fee":            handleGetDockingFee,
		"get_config":                 handleGetConfig,
		"get_winner_board":           handleGetWinnerBoard,
		"get_all_commander_statuses": handleGetAllCommanderStatuses,
		"get_ship_level":             handleGetShipLevel,
		"get_spaceships":             handleGetSpaceships,
		"_load_shared_planet_states": handleLoadSharedPlanetStates,
	})
}

func handleGetPlayerInfo(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.Player
	p.NormalizeInventory()
	return ok(Response{
		"player":          p,
		"current_planet":  g.CurrentPlanetName,
		"cargo_used":      p.CargoUsed(),
		"cargo_free":      p.CargoFree(),
		"ship_level":      g.ShipLevel(),
		"authority_label": p.AuthorityLabel(),
		"frontier_label":  p.FrontierLabel(),
		"unread_messages": p.UnreadCount(),
	})
}

func handleGetCurrentPlanetInfo(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	if p == nil {
		return ruleResp("not docked anywhere")
	}
	market := make([]game.MarketSnapshot, 0)
	for _, item := range p.MarketItems() {
		market = append(market, g.ItemMarketSnapshot(p, item))
	}
	resp := Response{
		"planet":      p,
		"market":      market,
		"orbit_npcs":  g.OrbitNPCs,
		"bribe_level": g.BribeLevel(p.Name),
		"heat":        g.HeatAt(p.Name),
	}
	now := g.Now()
	if ev := g.Events[p.Name]; ev.Active(now) {
		resp["event"] = ev
	}
	if sp := g.Spotlights[p.Name]; sp.Active(now) {
		resp["spotlight"] = sp
	}
	return ok(resp)
}

func handleGetDockingFee(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "planet")
	if name == "" {
		name = g.CurrentPlanetName
	}
	p := g.Planets[name]
	if p == nil {
		return ruleResp("unknown planet %q", name)
	}
	return ok(Response{"planet": p.Name, "docking_fee": g.DockingFee(p)})
}

// handleGetConfig exposes the client-relevant tunables, not the whole
// server config.
func handleGetConfig(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	cfg := s.cfg
	return ok(Response{"settings": Response{
		"allow_multiple_games":          cfg.AllowMultipleGames,
		"starting_planet":               cfg.StartingPlanet,
		"starting_ship":                 cfg.StartingShip,
		"fuel_unit_cost":                cfg.FuelUnitCost,
		"refuel_timer_enabled":          cfg.RefuelTimerEnabled,
		"max_refuels":                   cfg.MaxRefuels,
		"enable_special_weapons":        cfg.EnableSpecialWeapons,
		"special_weapon_cooldown_hours": cfg.SpecialWeaponCooldownHours,
		"bribe_max_level":               cfg.BribeMaxLevel,
		"victory_planet_ownership_pct":  cfg.VictoryPlanetOwnershipPct,
		"victory_reset_days":            cfg.VictoryResetDays,
	}})
}

func handleGetWinnerBoard(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	board := s.winner.Load()
	return ok(Response{
		"current_winner":     board.CurrentWinner,
		"scheduled_reset_ts": board.ScheduledResetTS,
		"last_reset_ts":      board.LastResetTS,
		"history":            board.History,
	})
}

// handleGetAllCommanderStatuses is the campaign leaderboard: every
// character save plus whether its commander is online right now.
func handleGetAllCommanderStatuses(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	online := make(map[string]bool)
	for _, name := range s.onlineNames() {
		online[name] = true
	}
	statuses := make([]Response, 0)
	for _, info := range s.accounts.AllCharacterSaves() {
		snap, err := readCharacterSnapshot(info.Path)
		if err != nil || snap.Player == nil {
			continue
		}
		statuses = append(statuses, Response{
			"character":          snap.Player.Name,
			"credits":            snap.Player.Credits,
			"bank_balance":       snap.Player.BankBalance,
			"planets_owned":      len(snap.Player.OwnedPlanets),
			"authority_standing": snap.Player.AuthorityStanding,
			"frontier_standing":  snap.Player.FrontierStanding,
			"current_planet":     snap.CurrentPlanet,
			"last_save":          snap.LastSaveTimestamp,
			"online":             online[snap.Player.Name],
		})
	}
	return ok(Response{"commanders": statuses})
}

func handleGetShipLevel(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"ship_level": g.ShipLevel(), "model": g.Player.Ship.Model})
}

func handleGetSpaceships(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"spaceships": s.ships.Templates()})
}

func handleLoadSharedPlanetStates(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := g.SyncFromUniverse(); err != nil {
		return errResp("LOAD_FAILED")
	}
	states, err := s.universe.LoadStates()
	if err != nil {
		return errResp("LOAD_FAILED")
	}
	return ok(Response{"planet_states": states})
}
