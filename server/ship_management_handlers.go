package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("ship",
		"buy_fuel", "get_refuel_quote", "repair_hull", "buy_ship",
		"transfer_fighters", "transfer_shields", "check_auto_refuel",
		"install_ship_upgrade", "claim_abandoned_ship")
	registerHandlers(map[string]HandlerFunc{
		"buy_fuel":             handleBuyFuel,
		"get_refuel_quote":     handleGetRefuelQuote,
		"repair_hull":          handleRepairHull,
		"buy_ship":             handleBuyShip,
		"transfer_fighters":    handleTransferFighters,
		"transfer_shields":     handleTransferShields,
		"check_auto_refuel":    handleCheckAutoRefuel,
		"install_ship_upgrade": handleInstallShipUpgrade,
		"claim_abandoned_ship": handleClaimAbandonedShip,
	})
}

func handleBuyFuel(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	units := paramInt(params, "units", 0)
	if units <= 0 {
		units = g.Player.Ship.MaxFuel - g.Player.Ship.Fuel
	}
	bought, cost, err := g.BuyFuel(units)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"bought":  bought,
		"cost":    cost,
		"fuel":    g.Player.Ship.Fuel,
		"credits": g.Player.Credits,
	})
}

func handleGetRefuelQuote(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"quote": g.GetRefuelQuote()})
}

func handleRepairHull(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	repaired, cost, err := g.RepairHull()
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"repaired":  repaired,
		"cost":      cost,
		"integrity": g.Player.Ship.Integrity,
		"credits":   g.Player.Credits,
	})
}

func handleBuyShip(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	ship, err := g.BuyShip(paramString(params, "model"))
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"ship": ship, "credits": g.Player.Credits})
}

func handleTransferFighters(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	if err := g.TransferFighters(p, paramInt(params, "count", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"ship_defenders":   g.Player.Ship.Defenders,
		"planet_defenders": p.Defenders,
	})
}

func handleTransferShields(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	if err := g.TransferShields(p, paramInt(params, "amount", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"ship_shields":   g.Player.Ship.Shields,
		"planet_shields": p.Shields,
	})
}

func handleCheckAutoRefuel(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	recovered := g.CheckAutoRecharge()
	return ok(Response{"recovered": recovered, "fuel": g.Player.Ship.Fuel})
}

// handleInstallShipUpgrade covers both consumable upgrades (cargo pods,
// shield emitters, defenders, nanobot kits) and module installs.
func handleInstallShipUpgrade(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if module := paramString(params, "module"); module != "" {
		cost, err := g.BuyModule(module)
		if err != nil {
			return ruleResp("%s", err.Error())
		}
		return ok(Response{
			"module":  module,
			"cost":    cost,
			"modules": g.Player.Ship.InstalledModules,
			"credits": g.Player.Credits,
		})
	}
	item := paramString(params, "item")
	applied, err := g.UpgradeShip(item, paramInt(params, "quantity", 1))
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"item": game.CanonicalItemName(item), "applied": applied, "ship": g.Player.Ship})
}

func handleClaimAbandonedShip(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	ship, err := g.ClaimAbandonedShip()
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"ship": ship})
}
