package game

import (
	"fmt"
	"math"
)

// BribeStatus is the player's standing with one planet's contact NPC.
// ExpiresAt == 0 means the contact never lapses.
type BribeStatus struct {
	Level     int     `json:"level"`
	ExpiresAt float64 `json:"expires_at"`
}

// BribeLevel returns the current effective contact level at a planet,
// dropping lapsed entries as they are observed.
func (g *Game) BribeLevel(planet string) int {
	st, ok := g.Bribes[planet]
	if !ok || st.Level <= 0 {
		return 0
	}
	if st.ExpiresAt != 0 && st.ExpiresAt < g.Now() {
		delete(g.Bribes, planet)
		return 0
	}
	return st.Level
}

// BribedPlanets lists planets with a live contact.
func (g *Game) BribedPlanets() []string {
	var out []string
	for name := range g.Bribes {
		if g.BribeLevel(name) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// BribeCost prices the next contact level at a planet: base cost scaled by
// the next level and inflated by current heat.
func (g *Game) BribeCost(p *Planet) int {
	base := p.BribeCost
	if base <= 0 {
		base = g.cfg.BribeBaseCost
	}
	next := g.BribeLevel(p.Name) + 1
	cost := float64(base*next) * (1 + float64(g.HeatAt(p.Name))/100)
	return int(math.Round(cost))
}

// BribeNPC advances the contact level by one, refreshing the expiry.
func (g *Game) BribeNPC(p *Planet) (int, error) {
	level := g.BribeLevel(p.Name)
	if level >= g.cfg.BribeMaxLevel {
		return level, fmt.Errorf("%s already trusts you completely", p.NPCName)
	}
	cost := g.BribeCost(p)
	if g.Player.Credits < cost {
		return level, fmt.Errorf("need %d credits to sweeten %s", cost, p.NPCName)
	}
	g.Player.Credits -= cost
	g.Bribes[p.Name] = &BribeStatus{
		Level:     level + 1,
		ExpiresAt: g.Now() + g.cfg.BribeDurationHours*3600,
	}
	return level + 1, nil
}

// HeatAt returns the planet's current law heat after hourly decay.
func (g *Game) HeatAt(planet string) int {
	heat, ok := g.Heat[planet]
	if !ok {
		return 0
	}
	elapsed := g.Now() - g.HeatUpdatedAt[planet]
	decayed := heat - int(elapsed/3600)*g.cfg.HeatDecayPerHour
	if decayed <= 0 {
		delete(g.Heat, planet)
		delete(g.HeatUpdatedAt, planet)
		return 0
	}
	if decayed != heat {
		g.Heat[planet] = decayed
		g.HeatUpdatedAt[planet] = g.Now()
	}
	return decayed
}

// AddHeat raises law attention at a planet, clamped to [0, 100].
func (g *Game) AddHeat(planet string, amount int) int {
	heat := g.HeatAt(planet) + amount
	if heat > 100 {
		heat = 100
	}
	if heat <= 0 {
		delete(g.Heat, planet)
		delete(g.HeatUpdatedAt, planet)
		return 0
	}
	g.Heat[planet] = heat
	g.HeatUpdatedAt[planet] = g.Now()
	return heat
}

// CanBuyContraband checks the gate: the player's contact level must meet
// the listing's requirement, or the listing must be free goods on a
// smuggler hub.
func (g *Game) CanBuyContraband(p *Planet, item string) (bool, int) {
	entry, ok := p.SmugglingInventory[CanonicalItemName(item)]
	if !ok {
		return false, 0
	}
	required := entry.RequiredBribeLevel
	if required == 0 && p.IsSmugglerHub {
		return true, 0
	}
	return g.BribeLevel(p.Name) >= required, required
}

// DetectionProbability computes the scan-risk for moving qty units of a
// contraband item at a planet. Clamped to [0.01, 0.95].
func (g *Game) DetectionProbability(p *Planet, item string, qty int) float64 {
	item = CanonicalItemName(item)
	tier := ContrabandTier(item)

	var base float64
	switch p.SecurityLevel {
	case SecurityHigh:
		base = g.cfg.DetectionBaseHighSec
	case SecurityMid:
		base = g.cfg.DetectionBaseMidSec
	default:
		base = g.cfg.DetectionBaseLowSec
	}

	prob := base
	prob *= 1 + float64(tier-1)*g.cfg.DetectionTierStep
	prob *= 1 + math.Sqrt(float64(qty))*0.05
	prob += float64(g.HeatAt(p.Name)) * g.cfg.DetectionHeatScalar
	if g.Player.FrontierStanding > 0 {
		prob -= float64(g.Player.FrontierStanding) * g.cfg.DetectionFrontierDiscount
	}
	prob *= 1 - float64(g.BribeLevel(p.Name))*g.cfg.DetectionBribeDiscount
	prob *= 1 + float64(g.ShipLevel()-1)*g.cfg.DetectionShipLevelStep
	if g.Player.Ship != nil {
		prob *= g.Player.Ship.ScanEvasionMultiplier()
	}

	if prob < 0.01 {
		prob = 0.01
	}
	if prob > 0.95 {
		prob = 0.95
	}
	return prob
}

// securityBlockMessages key the blocking error to the planet's security
// posture.
var securityBlockMessages = map[int]string{
	SecurityLow:  "A local enforcer crew shakes you down and confiscates the goods.",
	SecurityMid:  "Customs drones flag your hold. The shipment is impounded.",
	SecurityHigh: "Authority interdiction teams swarm the dock. The cargo is seized.",
}

// RollDetection runs the scan roll for a contraband trade. On a hit it
// raises heat (scaled by ship level) and returns the blocking message.
func (g *Game) RollDetection(p *Planet, item string, qty int) (detected bool, message string) {
	prob := g.DetectionProbability(p, item, qty)
	if g.RNG.Float64() >= prob {
		return false, ""
	}
	gain := float64(g.cfg.LawHeatGainDetected) * (1 + float64(g.ShipLevel()-1)*g.cfg.DetectionShipLevelStep)
	g.AddHeat(p.Name, int(math.Round(gain)))
	return true, securityBlockMessages[p.SecurityLevel]
}

// ContrabandSaleFallout applies the reputation and heat consequences of a
// completed contraband sale: heat and authority penalty scale with tier,
// value ratio and quantity; frontier standing rises.
func (g *Game) ContrabandSaleFallout(p *Planet, item string, qty int) {
	tier := ContrabandTier(item)
	scale := float64(tier) * valueRatioBonus(g.Catalog.BasePrice(item)) * math.Sqrt(float64(qty))
	g.AddHeat(p.Name, int(math.Round(scale*2)))
	g.Player.AdjustAuthority(-int(math.Max(1, math.Round(scale))))
	g.Player.AdjustFrontier(int(math.Max(1, math.Round(scale/2))))
}
