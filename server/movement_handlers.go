package server

import (
	"sort"

	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("travel",
		"travel_to_planet", "get_planets", "get_known_planets",
		"roll_travel_event_payload", "resolve_travel_event_payload")
	registerHandlers(map[string]HandlerFunc{
		"travel_to_planet":             handleTravelToPlanet,
		"get_planets":                  handleGetPlanets,
		"get_known_planets":            handleGetPlanets,
		"roll_travel_event_payload":    handleRollTravelEventPayload,
		"resolve_travel_event_payload": handleResolveTravelEventPayload,
	})
}

func handleTravelToPlanet(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	dest := paramString(params, "planet")
	result, err := g.TravelTo(dest)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	// Arrival publishes the shared fields other sessions read on load.
	if err := g.SaveGame(); err != nil {
		s.log.Warn().Err(err).Str("planet", dest).Msg("post-travel save failed")
	}
	return ok(Response{
		"planet":           result.Planet,
		"fuel_spent":       result.FuelSpent,
		"integrity_lost":   result.IntegrityLost,
		"docking_fee":      result.DockingFee,
		"docking_discount": result.DockingDiscount,
		"event_rolled":     result.EventRolled,
		"spotlight_rolled": result.SpotlightRolled,
		"auto_recharge":    result.AutoRecharge,
		"fuel":             g.Player.Ship.Fuel,
		"integrity":        g.Player.Ship.Integrity,
		"credits":          g.Player.Credits,
	})
}

// handleGetPlanets lists every charted planet with the jump cost from
// the current dock.
func handleGetPlanets(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	here := g.CurrentPlanet()
	out := make([]Response, 0, len(g.Planets))
	for _, p := range g.Planets {
		entry := Response{
			"name":            p.Name,
			"population":      p.Population,
			"description":     p.Description,
			"security_level":  p.SecurityLevel,
			"vendor":          p.Vendor,
			"bank":            p.Bank,
			"crew_services":   p.CrewServices,
			"is_smuggler_hub": p.IsSmugglerHub,
			"docking_fee":     p.DockingFee,
			"owner":           p.Owner,
		}
		if here != nil && p.Name != here.Name {
			dist := game.Distance(here, p)
			entry["distance"] = dist
			entry["fuel_cost"] = g.FuelCost(dist)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return ok(Response{"planets": out, "current_planet": g.CurrentPlanetName})
}

// handleRollTravelEventPayload is phase one of the travel event
// protocol: roll against the configured chance and hand the client a
// payload with pre-rolled magnitudes, or nil when the jump is quiet.
func handleRollTravelEventPayload(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"event": g.RollTravelEvent()})
}

// handleResolveTravelEventPayload is phase two: the client returns the
// payload with its chosen option (or "AUTO").
func handleResolveTravelEventPayload(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	var payload game.TravelEventPayload
	if !paramStruct(params, "event", &payload) {
		return ruleResp("no travel event payload supplied")
	}
	outcome, err := g.ResolveTravelEvent(&payload, paramString(params, "choice"))
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"outcome":   outcome,
		"credits":   g.Player.Credits,
		"fuel":      g.Player.Ship.Fuel,
		"integrity": g.Player.Ship.Integrity,
	})
}
