package game

import (
	"math"
	"sort"
)

// momentumMaxAbs bounds per-item signed momentum.
const momentumMaxAbs = 0.45

// ShippingState is per-planet, per-item trade pressure: signed momentum
// pushes prices with the flow of trade, volume dampens sell prices.
type ShippingState struct {
	Momentum  float64 `json:"momentum"`
	Volume    float64 `json:"volume"`
	UpdatedAt float64 `json:"updated_at"`
}

func shippingKey(planet, item string) string {
	return planet + "|" + CanonicalItemName(item)
}

// shipping returns (creating on demand) the momentum record for a market,
// decayed to the current wall clock. Every market-touching call routes
// through here first.
func (g *Game) shipping(planet, item string) *ShippingState {
	key := shippingKey(planet, item)
	st, ok := g.Shipping[key]
	now := g.Now()
	if !ok {
		st = &ShippingState{UpdatedAt: now}
		g.Shipping[key] = st
		return st
	}
	dh := (now - st.UpdatedAt) / 3600
	if dh > 0 {
		factor := math.Exp(-g.cfg.MomentumDecayPerHour * dh)
		st.Momentum *= factor
		st.Volume *= factor
	}
	st.UpdatedAt = now
	return st
}

// RecordBuy shifts momentum upward by step·√qty and accumulates volume.
func (g *Game) RecordBuy(planet, item string, qty int) {
	st := g.shipping(planet, item)
	st.Momentum += g.cfg.MomentumStep * math.Sqrt(float64(qty))
	if st.Momentum > momentumMaxAbs {
		st.Momentum = momentumMaxAbs
	}
	st.Volume += float64(qty)
}

// RecordSell shifts momentum downward by step·√qty and accumulates volume.
func (g *Game) RecordSell(planet, item string, qty int) {
	st := g.shipping(planet, item)
	st.Momentum -= g.cfg.MomentumStep * math.Sqrt(float64(qty))
	if st.Momentum < -momentumMaxAbs {
		st.Momentum = -momentumMaxAbs
	}
	st.Volume += float64(qty)
}

// sellDampening caps how far accumulated volume can push a sell price
// down; floor comes from config.
func (g *Game) sellDampening(planet, item string) float64 {
	st := g.shipping(planet, item)
	damp := 1.0 - st.Volume*0.001
	if damp < g.cfg.SellDampeningFloor {
		damp = g.cfg.SellDampeningFloor
	}
	return damp
}

// prePriceMultipliers applies, in the fixed order, hostile-market
// surcharge, port-spotlight discount and planet-event buy multiplier to a
// raw market price. Momentum is applied by the caller (it differs between
// buy and sell).
func (g *Game) prePriceMultipliers(p *Planet, item string, price float64) float64 {
	now := g.Now()

	// Hostile market: recently attacked, not owned by the player.
	if g.Player.AttackedWithin(p.Name, now, g.cfg.HostileMarketWindowHours*3600) && p.Owner != g.Player.Name {
		price *= g.cfg.PlanetPricePenaltyMultiplier
	}

	if spot := g.Spotlights[p.Name]; spot.Active(now) && spot.Item == CanonicalItemName(item) {
		price *= 1 - float64(spot.DiscountPct)/100
	}

	if ev := g.Events[p.Name]; ev.Active(now) {
		price *= ev.BuyMult
	}

	return price
}

// BuyPrice is the effective per-unit purchase price for a legal market
// item at a planet. Pipeline order: base·modifier → surcharge → spotlight
// → event → momentum. Never below 1.
func (g *Game) BuyPrice(p *Planet, item string) int {
	item = CanonicalItemName(item)
	base := float64(g.Catalog.BasePrice(item))
	mod, ok := p.ItemModifiers[item]
	if !ok {
		mod = 100
	}
	price := math.Round(base * float64(mod) / 100)
	price = g.prePriceMultipliers(p, item, price)
	price *= 1 + g.shipping(p.Name, item).Momentum
	final := int(math.Round(price))
	if final < 1 {
		final = 1
	}
	return final
}

// ContrabandBuyPrice prices a shadow-market listing. Same pipeline shape
// as BuyPrice but the modifier comes from the smuggling entry and the
// tier multiplier applies.
func (g *Game) ContrabandBuyPrice(p *Planet, item string) int {
	item = CanonicalItemName(item)
	entry, ok := p.SmugglingInventory[item]
	if !ok {
		return 0
	}
	price := math.Round(float64(entry.BasePrice) * float64(entry.Modifier) / 100)
	price *= g.contrabandTierMultiplier(entry.Tier)
	price = g.prePriceMultipliers(p, item, price)
	price *= 1 + g.shipping(p.Name, item).Momentum
	final := int(math.Round(price))
	if final < 1 {
		final = 1
	}
	return final
}

func (g *Game) contrabandTierMultiplier(tier int) float64 {
	return 1 + float64(tier-1)*g.cfg.ContrabandTierStep*0.55
}

// valueRatioBonus rewards moving high-value goods: up to +50% at a base
// price of 1000.
func valueRatioBonus(basePrice int) float64 {
	bonus := float64(basePrice) / 1000
	if bonus > 0.5 {
		bonus = 0.5
	}
	return 1 + bonus
}

// SellPrice is the effective per-unit sale price at a planet. Starts from
// the buy pipeline with the opposite momentum multiplier and volume
// dampening; contraband stacks tier, value-ratio and bribe bonuses; items
// off the planet's market fall back to salvage value.
func (g *Game) SellPrice(p *Planet, item string) int {
	item = CanonicalItemName(item)

	if g.Catalog.IsContraband(item) {
		tier := ContrabandTier(item)
		base := float64(g.Catalog.BasePrice(item))
		if entry, ok := p.SmugglingInventory[item]; ok {
			base = math.Round(float64(entry.BasePrice) * float64(entry.Modifier) / 100)
		}
		price := g.prePriceMultipliers(p, item, base)
		price *= 1 - g.shipping(p.Name, item).Momentum
		price *= g.sellDampening(p.Name, item)
		price *= g.contrabandTierMultiplier(tier)
		price *= valueRatioBonus(g.Catalog.BasePrice(item))
		price *= 1 + float64(g.BribeLevel(p.Name))*g.cfg.BribeSellBonus
		final := int(math.Round(price))
		if final < 1 {
			final = 1
		}
		return final
	}

	if !p.SellsItem(item) {
		return g.SalvagePrice(item)
	}

	base := float64(g.Catalog.BasePrice(item))
	mod := p.ItemModifiers[item]
	price := math.Round(base * float64(mod) / 100)
	price = g.prePriceMultipliers(p, item, price)
	price *= 1 - g.shipping(p.Name, item).Momentum
	price *= g.sellDampening(p.Name, item)
	final := int(math.Round(price))
	if final < 1 {
		final = 1
	}
	return final
}

// SalvagePrice is the flat rate for cargo no market wants.
func (g *Game) SalvagePrice(item string) int {
	price := int(math.Round(float64(g.Catalog.BasePrice(item)) * g.cfg.SalvageMultiplier))
	if price < 1 {
		price = 1
	}
	return price
}

// MarketSnapshot is the full pricing context for one item at one planet.
type MarketSnapshot struct {
	Item        string  `json:"item"`
	Planet      string  `json:"planet"`
	BuyPrice    int     `json:"buy_price"`
	SellPrice   int     `json:"sell_price"`
	Momentum    float64 `json:"momentum"`
	Volume      float64 `json:"volume"`
	Spotlight   bool    `json:"spotlight"`
	EventType   string  `json:"event_type,omitempty"`
	OnMarket    bool    `json:"on_market"`
	Contraband  bool    `json:"contraband"`
	SalvageOnly bool    `json:"salvage_only"`
}

// ItemMarketSnapshot gathers the pricing context for one item here.
func (g *Game) ItemMarketSnapshot(p *Planet, item string) MarketSnapshot {
	item = CanonicalItemName(item)
	st := g.shipping(p.Name, item)
	snap := MarketSnapshot{
		Item:       item,
		Planet:     p.Name,
		SellPrice:  g.SellPrice(p, item),
		Momentum:   st.Momentum,
		Volume:     st.Volume,
		OnMarket:   p.SellsItem(item),
		Contraband: g.Catalog.IsContraband(item),
	}
	now := g.Now()
	if spot := g.Spotlights[p.Name]; spot.Active(now) && spot.Item == item {
		snap.Spotlight = true
	}
	if ev := g.Events[p.Name]; ev.Active(now) {
		snap.EventType = ev.Type
	}
	switch {
	case snap.Contraband:
		snap.BuyPrice = g.ContrabandBuyPrice(p, item)
	case snap.OnMarket:
		snap.BuyPrice = g.BuyPrice(p, item)
	default:
		snap.SalvageOnly = true
	}
	return snap
}

// TradeOpportunity is one buy-here / sell-there spread.
type TradeOpportunity struct {
	Item       string  `json:"item"`
	BuyPlanet  string  `json:"buy_planet"`
	SellPlanet string  `json:"sell_planet"`
	BuyPrice   int     `json:"buy_price"`
	SellPrice  int     `json:"sell_price"`
	Spread     int     `json:"spread"`
	Distance   float64 `json:"distance"`
}

// BestTradeOpportunities ranks legal spreads from the current planet to
// every other market, best margin first.
func (g *Game) BestTradeOpportunities(limit int) []TradeOpportunity {
	here := g.CurrentPlanet()
	if here == nil {
		return nil
	}
	var out []TradeOpportunity
	for _, item := range here.MarketItems() {
		buy := g.BuyPrice(here, item)
		for _, dest := range g.Planets {
			if dest.Name == here.Name || !dest.SellsItem(item) {
				continue
			}
			sell := g.SellPrice(dest, item)
			if sell <= buy {
				continue
			}
			out = append(out, TradeOpportunity{
				Item:       item,
				BuyPlanet:  here.Name,
				SellPlanet: dest.Name,
				BuyPrice:   buy,
				SellPrice:  sell,
				Spread:     sell - buy,
				Distance:   Distance(here, dest),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spread > out[j].Spread })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
