package game

import (
	"math"

	"github.com/google/uuid"
)

// Contract route types.
const (
	RouteLegal     = "LEGAL"
	RouteSmuggling = "SMUGGLING"
)

const contractMinReward = 200

// Contract is one step of a 2–4 step delivery arc. One contract is active
// at a time.
type Contract struct {
	Item              string  `json:"item"`
	SourcePlanet      string  `json:"source_planet"`
	DestinationPlanet string  `json:"destination_planet"`
	Quantity          int     `json:"quantity"`
	Delivered         int     `json:"delivered"`
	Reward            int     `json:"reward"`
	ChainBonusPct     int     `json:"chain_bonus_pct"`
	CreatedAt         float64 `json:"created_at"`
	ExpiresAt         float64 `json:"expires_at"`
	RouteType         string  `json:"route_type"`
	ArcID             string  `json:"arc_id"`
	ArcStep           int     `json:"arc_step"`
	ArcTotalSteps     int     `json:"arc_total_steps"`
}

// Expired reports whether the contract has lapsed or finished.
func (c *Contract) Expired(now float64) bool {
	return c == nil || now >= c.ExpiresAt || c.Delivered >= c.Quantity
}

// contractRouteType derives the offered route from the player's standings:
// frontier leads authority by more than 8 points, the shadow network calls.
func (g *Game) contractRouteType() string {
	if g.Player.FrontierStanding > g.Player.AuthorityStanding+8 {
		return RouteSmuggling
	}
	return RouteLegal
}

// contractQuantityRange sizes the haul to the ship.
func (g *Game) contractQuantityRange() (int, int) {
	capacity := 20
	if g.Player.Ship != nil {
		capacity = g.Player.Ship.EffectiveMaxCargo()
	}
	lo := capacity / 5
	if lo < 2 {
		lo = 2
	}
	hi := capacity / 2
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// GenerateContract rolls a fresh contract (a new arc) from the given
// source planet. Returns nil when no viable route exists.
func (g *Game) GenerateContract(source *Planet) *Contract {
	route := g.contractRouteType()

	var item string
	if route == RouteSmuggling {
		names := g.Catalog.ContrabandNames()
		if len(names) == 0 {
			route = RouteLegal
		} else {
			item = names[g.RNG.Intn(len(names))]
		}
	}
	if route == RouteLegal {
		items := source.MarketItems()
		if len(items) == 0 {
			return nil
		}
		item = items[g.RNG.Intn(len(items))]
	}

	var candidates []*Planet
	for _, p := range g.Planets {
		if p.Name == source.Name {
			continue
		}
		if route == RouteSmuggling && !p.IsSmugglerHub {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}
	dest := candidates[g.RNG.Intn(len(candidates))]

	arc := &Contract{
		Item:              item,
		SourcePlanet:      source.Name,
		DestinationPlanet: dest.Name,
		RouteType:         route,
		ArcID:             uuid.NewString(),
		ArcStep:           1,
		ArcTotalSteps:     2 + g.RNG.Intn(3),
		CreatedAt:         g.Now(),
		ExpiresAt:         g.Now() + g.cfg.ContractExpiryHours*3600,
	}
	g.fillContractTerms(arc, source, dest)
	return arc
}

// fillContractTerms sets quantity and reward for one step.
func (g *Game) fillContractTerms(c *Contract, source, dest *Planet) {
	lo, hi := g.contractQuantityRange()
	c.Quantity = lo + g.RNG.Intn(hi-lo+1)
	c.Delivered = 0
	c.ChainBonusPct = g.cfg.ChainBonusPctPerStep * g.Player.ContractChainStreak

	profit := g.SellPrice(dest, c.Item) - g.BuyPrice(source, c.Item)
	if c.RouteType == RouteSmuggling {
		profit = g.SellPrice(dest, c.Item) / 2
	}
	if profit < 5 {
		profit = 5
	}

	eventMult := 1.0
	if ev := g.Events[dest.Name]; ev.Active(g.Now()) {
		eventMult = ev.ContractMult
	}

	reward := float64(profit*c.Quantity) * g.cfg.ContractRewardMult *
		(1 + float64(c.ChainBonusPct)/100) * eventMult
	c.Reward = int(math.Round(reward))
	if c.Reward < contractMinReward {
		c.Reward = contractMinReward
	}
}

// RefreshContract drops an expired contract (resetting the chain streak)
// and rolls a new one on arrival when none is active.
func (g *Game) RefreshContract() {
	now := g.Now()
	if g.ActiveContract != nil && now >= g.ActiveContract.ExpiresAt &&
		g.ActiveContract.Delivered < g.ActiveContract.Quantity {
		g.Player.ContractChainStreak = 0
		g.ActiveContract = nil
	}
	if g.ActiveContract == nil {
		if p := g.CurrentPlanet(); p != nil {
			g.ActiveContract = g.GenerateContract(p)
		}
	}
}

// RerollContract abandons the current arc and rolls a new one here.
func (g *Game) RerollContract() *Contract {
	g.ActiveContract = nil
	if p := g.CurrentPlanet(); p != nil {
		g.ActiveContract = g.GenerateContract(p)
	}
	return g.ActiveContract
}

// ContractCompletion summarizes a finished contract step for the caller.
type ContractCompletion struct {
	Reward        int    `json:"reward"`
	MilestonePay  int    `json:"milestone_pay,omitempty"`
	RouteType     string `json:"route_type"`
	ArcStep       int    `json:"arc_step"`
	ArcTotalSteps int    `json:"arc_total_steps"`
	ArcComplete   bool   `json:"arc_complete"`
	NextGenerated bool   `json:"next_generated"`
}

// ApplyContractDelivery credits qty units of item sold at planet against
// the active contract. On step completion it pays out, adjusts standings,
// bumps the chain streak and generates the next arc step in place.
func (g *Game) ApplyContractDelivery(planet, item string, qty int) *ContractCompletion {
	c := g.ActiveContract
	if c == nil || g.Now() >= c.ExpiresAt {
		return nil
	}
	if c.DestinationPlanet != planet || CanonicalItemName(c.Item) != CanonicalItemName(item) {
		return nil
	}
	c.Delivered += qty
	if c.Delivered < c.Quantity {
		return nil
	}

	done := &ContractCompletion{
		Reward:        c.Reward,
		RouteType:     c.RouteType,
		ArcStep:       c.ArcStep,
		ArcTotalSteps: c.ArcTotalSteps,
	}
	g.Player.Credits += c.Reward
	g.Player.ContractChainStreak++

	switch c.RouteType {
	case RouteLegal:
		g.Player.AdjustAuthority(3)
		g.Player.AdjustFrontier(1)
		done.MilestonePay = c.Reward / 5
		g.Player.Credits += done.MilestonePay
	case RouteSmuggling:
		g.Player.AdjustFrontier(4)
		g.Player.AdjustAuthority(-2)
	}

	if c.ArcStep >= c.ArcTotalSteps {
		done.ArcComplete = true
		g.ActiveContract = nil
		return done
	}

	// Next step in the arc: continue from the delivery planet.
	source := g.Planets[planet]
	var dest *Planet
	var candidates []*Planet
	for _, p := range g.Planets {
		if p.Name == planet {
			continue
		}
		if c.RouteType == RouteSmuggling && !p.IsSmugglerHub {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 || source == nil {
		done.ArcComplete = true
		g.ActiveContract = nil
		return done
	}
	dest = candidates[g.RNG.Intn(len(candidates))]

	next := &Contract{
		Item:              c.Item,
		SourcePlanet:      planet,
		DestinationPlanet: dest.Name,
		RouteType:         c.RouteType,
		ArcID:             c.ArcID,
		ArcStep:           c.ArcStep + 1,
		ArcTotalSteps:     c.ArcTotalSteps,
		CreatedAt:         g.Now(),
		ExpiresAt:         g.Now() + g.cfg.ContractExpiryHours*3600,
	}
	g.fillContractTerms(next, source, dest)
	g.ActiveContract = next
	done.NextGenerated = true
	return done
}
