package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("bank",
		"bank_deposit", "bank_withdraw", "payout_interest",
		"get_planet_financials", "planet_deposit", "planet_withdraw",
		"process_colony_payouts", "get_planet_crew_offers",
		"hire_crew", "dismiss_crew", "process_crew_pay")
	registerHandlers(map[string]HandlerFunc{
		"bank_deposit":           handleBankDeposit,
		"bank_withdraw":          handleBankWithdraw,
		"payout_interest":        handlePayoutInterest,
		"get_planet_financials":  handleGetPlanetFinancials,
		"planet_deposit":         handlePlanetDeposit,
		"planet_withdraw":        handlePlanetWithdraw,
		"process_colony_payouts": handleProcessColonyPayouts,
		"get_planet_crew_offers": handleGetPlanetCrewOffers,
		"hire_crew":              handleHireCrew,
		"dismiss_crew":           handleDismissCrew,
		"process_crew_pay":       handleProcessCrewPay,
	})
}

func handleBankDeposit(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := g.BankDeposit(paramInt(params, "amount", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"credits": g.Player.Credits, "bank_balance": g.Player.BankBalance})
}

func handleBankWithdraw(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := g.BankWithdraw(paramInt(params, "amount", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"credits": g.Player.Credits, "bank_balance": g.Player.BankBalance})
}

func handlePayoutInterest(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	earned := g.PayoutInterest()
	return ok(Response{"earned": earned, "bank_balance": g.Player.BankBalance})
}

// ownedPlanetParam resolves the planet a treasury action targets: the
// named one, or the current dock when none is given.
func ownedPlanetParam(g *game.Game, params map[string]any) *game.Planet {
	if name := paramString(params, "planet"); name != "" {
		return g.Planets[name]
	}
	return g.CurrentPlanet()
}

func handleGetPlanetFinancials(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := ownedPlanetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	fin, err := g.GetPlanetFinancials(p)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"financials": fin})
}

func handlePlanetDeposit(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := ownedPlanetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	if err := g.PlanetDeposit(p, paramInt(params, "amount", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	// Treasury moves linearize through the universe file right away.
	if err := g.PublishToUniverse(); err != nil {
		s.log.Warn().Err(err).Str("planet", p.Name).Msg("treasury publish failed")
	}
	return ok(Response{"credits": g.Player.Credits, "treasury": p.CreditBalance})
}

func handlePlanetWithdraw(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := ownedPlanetParam(g, params)
	if p == nil {
		return ruleResp("no such planet")
	}
	if err := g.PlanetWithdraw(p, paramInt(params, "amount", 0)); err != nil {
		return ruleResp("%s", err.Error())
	}
	if err := g.PublishToUniverse(); err != nil {
		s.log.Warn().Err(err).Str("planet", p.Name).Msg("treasury publish failed")
	}
	return ok(Response{"credits": g.Player.Credits, "treasury": p.CreditBalance})
}

func handleProcessColonyPayouts(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	total, byPlanet := g.ProcessColonyPayouts()
	return ok(Response{"total": total, "by_planet": byPlanet, "credits": g.Player.Credits})
}

func handleGetPlanetCrewOffers(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	p := g.CurrentPlanet()
	if p == nil || !p.CrewServices {
		return ruleResp("no crew hall here")
	}
	return ok(Response{"offers": game.RollCrewOffers(g.RNG, 4)})
}

func handleHireCrew(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	var offer game.CrewOffer
	if !paramStruct(params, "offer", &offer) {
		return ruleResp("no crew offer supplied")
	}
	member, err := g.HireCrew(offer)
	if err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"member": member, "credits": g.Player.Credits})
}

func handleDismissCrew(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := g.DismissCrew(paramString(params, "name")); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"crew": g.Player.Crew})
}

func handleProcessCrewPay(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	paid, departed := g.ProcessCrewPay()
	return ok(Response{
		"paid":     paid,
		"departed": departed,
		"credits":  g.Player.Credits,
		"crew":     g.Player.Crew,
	})
}
