package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("trade",
		"trade_item", "buy_item", "sell_item", "jettison_cargo",
		"get_market_sell_price", "get_effective_buy_price",
		"get_item_market_snapshot", "get_best_trade_opportunities",
		"get_bribe_market_snapshot", "get_contraband_market_context",
		"get_smuggling_item_names", "check_contraband_detection", "bribe_npc",
		"sell_non_market_cargo", "get_active_trade_contract", "reroll_trade_contract")
	registerHandlers(map[string]HandlerFunc{
		"trade_item":                    handleTradeItem,
		"buy_item":                      handleBuyItem,
		"sell_item":                     handleSellItem,
		"jettison_cargo":                handleJettisonCargo,
		"get_market_sell_price":         handleGetMarketSellPrice,
		"get_effective_buy_price":       handleGetEffectiveBuyPrice,
		"get_item_market_snapshot":      handleGetItemMarketSnapshot,
		"get_best_trade_opportunities":  handleGetBestTradeOpportunities,
		"get_bribe_market_snapshot":     handleGetBribeMarketSnapshot,
		"get_contraband_market_context": handleGetContrabandMarketContext,
		"get_smuggling_item_names":      handleGetSmugglingItemNames,
		"check_contraband_detection":    handleCheckContrabandDetection,
		"bribe_npc":                     handleBribeNPC,
		"sell_non_market_cargo":         handleSellItem,
		"get_active_trade_contract":     handleGetActiveTradeContract,
		"reroll_trade_contract":         handleRerollTradeContract,
	})
}

// handleTradeItem is the combined entry: direction picks the leg.
func handleTradeItem(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	switch paramString(params, "direction") {
	case "sell":
		return handleSellItem(s, sess, g, params)
	default:
		return handleBuyItem(s, sess, g, params)
	}
}

func handleBuyItem(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	item := paramString(params, "item")
	qty := paramInt(params, "quantity", 1)
	var result *game.TradeResult
	var err error
	if g.Catalog.IsContraband(item) {
		result, err = g.BuyContraband(item, qty)
	} else {
		result, err = g.BuyItem(item, qty)
	}
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return tradeResponse(g, result)
}

func handleSellItem(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	item := paramString(params, "item")
	qty := paramInt(params, "quantity", 1)
	result, err := g.SellItem(item, qty)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return tradeResponse(g, result)
}

func tradeResponse(g *game.Game, result *game.TradeResult) Response {
	resp := ok(Response{
		"item":       result.Item,
		"quantity":   result.Quantity,
		"unit_price": result.UnitPrice,
		"total":      result.Total,
		"credits":    g.Player.Credits,
	})
	if result.Detected {
		resp["detected"] = true
		resp["detection_notice"] = result.DetectionNotice
	}
	if result.Contract != nil {
		resp["contract"] = result.Contract
	}
	return resp
}

func handleJettisonCargo(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	dropped, err := g.JettisonCargo(paramString(params, "item"), paramInt(params, "quantity", 0))
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"dropped": dropped, "cargo_free": g.Player.CargoFree()})
}

func handleGetMarketSellPrice(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	item := game.CanonicalItemName(paramString(params, "item"))
	return ok(Response{"item": item, "sell_price": g.SellPrice(p, item)})
}

func handleGetEffectiveBuyPrice(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	item := game.CanonicalItemName(paramString(params, "item"))
	price := g.BuyPrice(p, item)
	if g.Catalog.IsContraband(item) {
		price = g.ContrabandBuyPrice(p, item)
	}
	return ok(Response{"item": item, "buy_price": price})
}

func handleGetItemMarketSnapshot(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	snap := g.ItemMarketSnapshot(g.CurrentPlanet(), paramString(params, "item"))
	return ok(Response{"snapshot": snap})
}

func handleGetBestTradeOpportunities(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	limit := paramInt(params, "limit", 5)
	return ok(Response{"opportunities": g.BestTradeOpportunities(limit)})
}

func handleGetBribeMarketSnapshot(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	resp := Response{
		"planet":         p.Name,
		"bribe_level":    g.BribeLevel(p.Name),
		"max_level":      s.cfg.BribeMaxLevel,
		"heat":           g.HeatAt(p.Name),
		"bribed_planets": g.BribedPlanets(),
	}
	if g.BribeLevel(p.Name) < s.cfg.BribeMaxLevel {
		resp["next_level_cost"] = g.BribeCost(p)
	}
	if st := g.Bribes[p.Name]; st != nil {
		resp["expires_at"] = st.ExpiresAt
	}
	return ok(resp)
}

// handleGetContrabandMarketContext lists the shadow market at the
// current planet with per-item gate status.
func handleGetContrabandMarketContext(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	listings := make([]Response, 0)
	for item, entry := range p.SmugglingInventory {
		allowed, required := g.CanBuyContraband(p, item)
		listings = append(listings, Response{
			"item":                 item,
			"quantity":             entry.Quantity,
			"tier":                 game.ContrabandTier(item),
			"price":                g.ContrabandBuyPrice(p, item),
			"allowed":              allowed,
			"required_bribe_level": required,
		})
	}
	return ok(Response{
		"planet":          p.Name,
		"is_smuggler_hub": p.IsSmugglerHub,
		"bribe_level":     g.BribeLevel(p.Name),
		"heat":            g.HeatAt(p.Name),
		"listings":        listings,
	})
}

func handleGetSmugglingItemNames(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	return ok(Response{"items": g.Catalog.ContrabandNames()})
}

func handleCheckContrabandDetection(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	item := paramString(params, "item")
	qty := paramInt(params, "quantity", 1)
	return ok(Response{
		"item":        game.CanonicalItemName(item),
		"probability": g.DetectionProbability(p, item, qty),
		"heat":        g.HeatAt(p.Name),
	})
}

func handleBribeNPC(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	cost, err := g.BribeNPC(p)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{
		"planet":      p.Name,
		"cost":        cost,
		"bribe_level": g.BribeLevel(p.Name),
		"credits":     g.Player.Credits,
	})
}

func handleGetActiveTradeContract(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	g.RefreshContract()
	return ok(Response{"contract": g.ActiveContract})
}

func handleRerollTradeContract(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	c := g.RerollContract()
	if c == nil {
		return ruleResp("no contracts on offer here")
	}
	return ok(Response{"contract": c})
}
