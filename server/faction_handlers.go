package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("faction",
		"get_authority_standing_label", "get_frontier_standing_label",
		"_get_authority_standing", "_get_frontier_standing",
		"_adjust_authority_standing", "_adjust_frontier_standing",
		"check_barred", "bar_player", "get_planet_event",
		"is_planet_hostile_market", "get_planet_price_penalty_seconds_remaining",
		"get_current_port_spotlight_deal", "process_conquered_planet_defense_regen",
		"process_commander_stipend")
	registerHandlers(map[string]HandlerFunc{
		"get_authority_standing_label":               handleGetAuthorityStandingLabel,
		"get_frontier_standing_label":                handleGetFrontierStandingLabel,
		"_get_authority_standing":                    handleGetAuthorityStanding,
		"_get_frontier_standing":                     handleGetFrontierStanding,
		"_adjust_authority_standing":                 handleAdjustAuthorityStanding,
		"_adjust_frontier_standing":                  handleAdjustFrontierStanding,
		"check_barred":                               handleCheckBarred,
		"bar_player":                                 handleBarPlayer,
		"get_planet_event":                           handleGetPlanetEvent,
		"is_planet_hostile_market":                   handleIsPlanetHostileMarket,
		"get_planet_price_penalty_seconds_remaining": handleGetPlanetPricePenaltySecondsRemaining,
		"get_current_port_spotlight_deal":            handleGetCurrentPortSpotlightDeal,
		"process_conquered_planet_defense_regen":     handleProcessConqueredPlanetDefenseRegen,
		"process_commander_stipend":                  handleProcessCommanderStipend,
	})
}

func handleGetAuthorityStandingLabel(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"label": g.Player.AuthorityLabel(), "standing": g.Player.AuthorityStanding})
}

func handleGetFrontierStandingLabel(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"label": g.Player.FrontierLabel(), "standing": g.Player.FrontierStanding})
}

func handleGetAuthorityStanding(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"standing": g.Player.AuthorityStanding})
}

func handleGetFrontierStanding(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"standing": g.Player.FrontierStanding})
}

func handleAdjustAuthorityStanding(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	standing := g.Player.AdjustAuthority(paramInt(params, "delta", 0))
	return ok(Response{"standing": standing, "label": g.Player.AuthorityLabel()})
}

func handleAdjustFrontierStanding(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	standing := g.Player.AdjustFrontier(paramInt(params, "delta", 0))
	return ok(Response{"standing": standing, "label": g.Player.FrontierLabel()})
}

// planetParam resolves the planet a query targets, defaulting to the
// current dock.
func planetParam(g *game.Game, params map[string]any) *game.Planet {
	if name := paramString(params, "planet"); name != "" {
		return g.Planets[name]
	}
	return g.CurrentPlanet()
}

func handleCheckBarred(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	barred := g.Player.IsBarred(p.Name, g.Now())
	resp := Response{"planet": p.Name, "barred": barred}
	if barred {
		resp["expires_at"] = g.Player.BarredPlanets[p.Name]
	}
	return ok(resp)
}

func handleBarPlayer(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	hours := paramFloat(params, "hours", 24)
	g.Player.BarFrom(p.Name, g.Now(), hours*3600)
	return ok(Response{"planet": p.Name, "expires_at": g.Player.BarredPlanets[p.Name]})
}

func handleGetPlanetEvent(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	ev := g.Events[p.Name]
	if !ev.Active(g.Now()) {
		return ok(Response{"event": nil})
	}
	return ok(Response{"event": ev})
}

// A hostile market surcharges buys: the player attacked the planet
// recently and does not own it.
func handleIsPlanetHostileMarket(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	hostile := g.Player.AttackedWithin(p.Name, g.Now(), s.cfg.HostileMarketWindowHours*3600) &&
		p.Owner != g.Player.Name
	return ok(Response{"planet": p.Name, "hostile": hostile})
}

func handleGetPlanetPricePenaltySecondsRemaining(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	remaining := 0.0
	if last, attacked := g.Player.AttackedPlanets[p.Name]; attacked && p.Owner != g.Player.Name {
		until := last + s.cfg.HostileMarketWindowHours*3600
		if now := g.Now(); now < until {
			remaining = until - now
		}
	}
	return ok(Response{"planet": p.Name, "seconds_remaining": int(remaining)})
}

func handleGetCurrentPortSpotlightDeal(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := planetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	sp := g.Spotlights[p.Name]
	if !sp.Active(g.Now()) {
		return ok(Response{"spotlight": nil})
	}
	return ok(Response{"spotlight": sp})
}

func handleProcessConqueredPlanetDefenseRegen(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	regen := make(map[string]Response)
	for name := range g.Player.OwnedPlanets {
		p := g.Planets[name]
		if p == nil || p.Owner != g.Player.Name {
			continue
		}
		def, shield := g.ProcessDefenseRegen(p)
		if def == 0 && shield == 0 {
			continue
		}
		regen[name] = Response{
			"defenders_added": def,
			"shields_added":   shield,
			"defenders":       p.Defenders,
			"shields":         p.Shields,
		}
	}
	return ok(Response{"regen": regen})
}

func handleProcessCommanderStipend(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	amount, paid := g.ProcessCommanderStipend()
	return ok(Response{"paid": paid, "amount": amount, "credits": g.Player.Credits})
}
