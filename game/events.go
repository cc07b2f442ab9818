package game

import "math/rand"

// Planet event types.
const (
	EventFestival = "FESTIVAL"
	EventEmbargo  = "EMBARGO"
	EventShortage = "SHORTAGE"
	EventStrike   = "STRIKE"
)

// PlanetEvent is a time-limited state that skews one planet's buy prices,
// docking fee and contract rewards.
type PlanetEvent struct {
	Type         string  `json:"type"`
	Planet       string  `json:"planet"`
	BuyMult      float64 `json:"buy_mult"`
	DockingMult  float64 `json:"docking_mult"`
	ContractMult float64 `json:"contract_mult"`
	StartedAt    float64 `json:"started_at"`
	ExpiresAt    float64 `json:"expires_at"`
}

// eventEffects fixes the multiplier table per event type.
var eventEffects = map[string]struct {
	buy, docking, contract float64
}{
	EventFestival: {buy: 0.90, docking: 1.50, contract: 1.10},
	EventEmbargo:  {buy: 1.30, docking: 1.00, contract: 1.40},
	EventShortage: {buy: 1.20, docking: 1.00, contract: 1.20},
	EventStrike:   {buy: 1.10, docking: 2.00, contract: 1.30},
}

var eventTypes = []string{EventFestival, EventEmbargo, EventShortage, EventStrike}

// RollPlanetEvent draws a 2–6 hour event for a planet. The chance gate is
// the caller's; this always assigns one.
func RollPlanetEvent(rng *rand.Rand, planet string, now float64) *PlanetEvent {
	typ := eventTypes[rng.Intn(len(eventTypes))]
	fx := eventEffects[typ]
	durationHours := 2 + rng.Float64()*4
	return &PlanetEvent{
		Type:         typ,
		Planet:       planet,
		BuyMult:      fx.buy,
		DockingMult:  fx.docking,
		ContractMult: fx.contract,
		StartedAt:    now,
		ExpiresAt:    now + durationHours*3600,
	}
}

// Active reports whether the event is still running.
func (e *PlanetEvent) Active(now float64) bool {
	return e != nil && now < e.ExpiresAt
}

// PortSpotlight is a time-limited single-item discount at one planet.
type PortSpotlight struct {
	Planet      string  `json:"planet"`
	Item        string  `json:"item"`
	DiscountPct int     `json:"discount_pct"`
	Quantity    int     `json:"quantity"`
	ExpiresAt   float64 `json:"expires_at"`
}

// RollPortSpotlight discounts one random market item by minPct..maxPct for
// a small quantity. Returns nil when the planet has no market.
func RollPortSpotlight(rng *rand.Rand, p *Planet, now float64, minPct, maxPct int, durationHours float64) *PortSpotlight {
	items := p.MarketItems()
	if len(items) == 0 {
		return nil
	}
	span := maxPct - minPct
	if span < 0 {
		span = 0
	}
	return &PortSpotlight{
		Planet:      p.Name,
		Item:        items[rng.Intn(len(items))],
		DiscountPct: minPct + rng.Intn(span+1),
		Quantity:    3 + rng.Intn(6),
		ExpiresAt:   now + durationHours*3600,
	}
}

// Active reports whether the spotlight still applies: unexpired and with
// stock remaining.
func (s *PortSpotlight) Active(now float64) bool {
	return s != nil && now < s.ExpiresAt && s.Quantity > 0
}
