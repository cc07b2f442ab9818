package game

import (
	"fmt"
	"math"
)

// Travel event types.
const (
	TravelEventCache   = "CACHE"
	TravelEventPirates = "PIRATES"
	TravelEventDrift   = "DRIFT"
	TravelEventLeak    = "LEAK"
)

// TravelEventPayload is the choice-bearing half of the two-phase travel
// event protocol. The client answers with one of Choices (or "AUTO" for
// the first entry).
type TravelEventPayload struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Detail  string   `json:"detail"`
	Choices []string `json:"choices"`

	// Rolled magnitudes, fixed at payload time so resolution is
	// deterministic for a given payload.
	Credits   int    `json:"credits,omitempty"`
	Damage    int    `json:"damage,omitempty"`
	FuelLoss  int    `json:"fuel_loss,omitempty"`
	CacheItem string `json:"cache_item,omitempty"`
	CacheQty  int    `json:"cache_qty,omitempty"`
}

// FuelCost computes the burn for a jump of dist units: (dist/10)·burn,
// reduced multiplicatively by engineers, scaled by the config multiplier
// and the fixed 0.90 efficiency pass, rounded up, minimum 1.
func (g *Game) FuelCost(dist float64) int {
	ship := g.Player.Ship
	if ship == nil {
		return 0
	}
	burn := (dist / 10) * ship.EffectiveFuelBurn()
	for _, m := range g.Player.Crew {
		burn *= m.EngineerFuelFactor()
	}
	burn *= g.cfg.FuelUsageMultiplier * 0.90
	cost := int(math.Ceil(burn))
	if cost < 1 {
		cost = 1
	}
	return cost
}

// TravelResult reports a completed jump.
type TravelResult struct {
	Planet          string `json:"planet"`
	FuelSpent       int    `json:"fuel_spent"`
	IntegrityLost   int    `json:"integrity_lost"`
	DockingFee      int    `json:"docking_fee"`
	DockingDiscount bool   `json:"docking_discount,omitempty"`
	EventRolled     bool   `json:"event_rolled,omitempty"`
	SpotlightRolled bool   `json:"spotlight_rolled,omitempty"`
	AutoRecharge    bool   `json:"auto_recharge,omitempty"`
}

// TravelTo executes a jump: burn fuel, wear the hull, fluctuate every
// market, roll planet event and port spotlight, charge the docking fee.
func (g *Game) TravelTo(destName string) (*TravelResult, error) {
	dest := g.Planets[destName]
	if dest == nil {
		return nil, fmt.Errorf("unknown destination %q", destName)
	}
	here := g.CurrentPlanet()
	if here == nil {
		return nil, fmt.Errorf("no current position")
	}
	if dest.Name == here.Name {
		return nil, fmt.Errorf("already docked at %s", dest.Name)
	}
	if g.Player.IsBarred(dest.Name, g.Now()) {
		return nil, fmt.Errorf("you are barred from %s", dest.Name)
	}
	ship := g.Player.Ship

	dist := Distance(here, dest)
	cost := g.FuelCost(dist)
	if ship.Fuel < cost {
		return nil, fmt.Errorf("need %d fuel for the jump to %s", cost, dest.Name)
	}

	res := &TravelResult{Planet: dest.Name, FuelSpent: cost}
	ship.Fuel -= cost

	// Hull wear: 1–5% of max integrity, proportional to distance over a
	// 1400 unit sector diagonal.
	wearPct := 0.01 + 0.04*math.Min(1, dist/1400)
	res.IntegrityLost = int(math.Max(1, math.Round(float64(ship.MaxIntegrity)*wearPct)))
	ship.Integrity -= res.IntegrityLost
	if ship.Integrity < 1 {
		ship.Integrity = 1
	}

	g.CurrentPlanetName = dest.Name
	g.Player.PortVisits++

	// Crew worked the jump.
	for _, m := range g.Player.Crew {
		m.Fatigue += 5
		if m.Fatigue > 100 {
			m.Fatigue = 100
		}
		m.GainXP(8)
	}

	// Every market drifts on a sector jump.
	for _, p := range g.Planets {
		p.FluctuatePrices(g.RNG)
	}

	now := g.Now()
	if g.RNG.Float64() < g.cfg.PlanetEventChance {
		g.Events[dest.Name] = RollPlanetEvent(g.RNG, dest.Name, now)
		res.EventRolled = true
	}
	if spot := RollPortSpotlight(g.RNG, dest, now,
		g.cfg.SpotlightMinPct, g.cfg.SpotlightMaxPct, g.cfg.SpotlightDurationHours); spot != nil {
		g.Spotlights[dest.Name] = spot
		res.SpotlightRolled = true
	}

	fee := g.DockingFee(dest)
	if g.Player.PortVisits > 5 && fee > 0 {
		fee = int(float64(fee) * 0.90)
		res.DockingDiscount = true
	}
	if fee > g.Player.Credits {
		fee = g.Player.Credits
	}
	g.Player.Credits -= fee
	res.DockingFee = fee

	if ship.Fuel == 0 {
		// Stranded ships get the slow trickle; reset the recharge clock.
		ship.LastRefuelTime = now
		res.AutoRecharge = true
	}

	g.RefreshContract()
	return res, nil
}

// DockingFee is the planet's fee after any active event multiplier.
func (g *Game) DockingFee(p *Planet) int {
	fee := float64(p.DockingFee)
	if ev := g.Events[p.Name]; ev.Active(g.Now()) {
		fee *= ev.DockingMult
	}
	return int(math.Round(fee))
}

// RollTravelEvent rolls the optional mid-jump encounter. Returns nil most
// of the time; otherwise a payload the operator must answer.
func (g *Game) RollTravelEvent() *TravelEventPayload {
	if g.RNG.Float64() >= g.cfg.TravelEventChance {
		return nil
	}
	switch g.RNG.Intn(4) {
	case 0:
		items := g.Catalog.Names()
		item := items[g.RNG.Intn(len(items))]
		return &TravelEventPayload{
			Type:      TravelEventCache,
			Title:     "Drifting Cache",
			Detail:    "A sealed cargo pod tumbles across your lane, transponder dark.",
			Choices:   []string{"SALVAGE", "IGNORE"},
			CacheItem: item,
			CacheQty:  1 + g.RNG.Intn(4),
		}
	case 1:
		return &TravelEventPayload{
			Type:    TravelEventPirates,
			Title:   "Pirate Shakedown",
			Detail:  "A cutter slides out of the shadow of a wreck and demands a toll.",
			Choices: []string{"PAY", "FIGHT", "RUN"},
			Credits: 100 + g.RNG.Intn(400),
			Damage:  10 + g.RNG.Intn(25),
		}
	case 2:
		return &TravelEventPayload{
			Type:     TravelEventDrift,
			Title:    "Nav Drift",
			Detail:   "The lane buoys are out of alignment; the long way around costs fuel.",
			Choices:  []string{"CORRECT", "COAST"},
			FuelLoss: 2 + g.RNG.Intn(5),
		}
	default:
		return &TravelEventPayload{
			Type:    TravelEventLeak,
			Title:   "Coolant Leak",
			Detail:  "A feed line lets go somewhere aft. The gauge is dropping.",
			Choices: []string{"PATCH", "PUSH"},
			Damage:  8 + g.RNG.Intn(20),
		}
	}
}

// ResolveTravelEvent applies the operator's choice and returns one
// narrative line. "AUTO" takes the default (first) choice.
func (g *Game) ResolveTravelEvent(payload *TravelEventPayload, choice string) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("no travel event payload")
	}
	if choice == "AUTO" && len(payload.Choices) > 0 {
		choice = payload.Choices[0]
	}
	ship := g.Player.Ship

	switch payload.Type {
	case TravelEventCache:
		switch choice {
		case "SALVAGE":
			if g.Player.CargoFree() < payload.CacheQty {
				return "The pod is full of goods you have no room for. You cut it loose.", nil
			}
			g.Player.AddItem(payload.CacheItem, payload.CacheQty)
			return fmt.Sprintf("You winch the pod aboard: %d %s.", payload.CacheQty, payload.CacheItem), nil
		case "IGNORE":
			return "You leave the pod to the void.", nil
		}
	case TravelEventPirates:
		switch choice {
		case "PAY":
			toll := payload.Credits
			if toll > g.Player.Credits {
				toll = g.Player.Credits
			}
			g.Player.Credits -= toll
			return fmt.Sprintf("You transfer %d credits and the cutter peels away.", toll), nil
		case "FIGHT":
			// One quick exchange; weapons crew earns its pay here.
			dmg, hit, _ := g.attackRoll(max(1, ship.Defenders/2), g.playerHitBonus())
			if hit {
				bounty := payload.Credits / 2
				g.Player.Credits += bounty
				for _, m := range g.Player.Crew {
					m.GainXP(15)
				}
				return fmt.Sprintf("Your gunners drive them off and strip %d credits from the wreckage.", bounty), nil
			}
			g.applyDamage(&ship.Shields, &ship.Defenders, &ship.Integrity, payload.Damage+dmg/2)
			return "The cutter rakes your flank before you break contact.", nil
		case "RUN":
			loss := payload.Damage / 2
			g.applyDamage(&ship.Shields, &ship.Defenders, &ship.Integrity, loss)
			return "You burn hard and take glancing fire on the way out.", nil
		}
	case TravelEventDrift:
		switch choice {
		case "CORRECT":
			loss := payload.FuelLoss / 2
			if loss < 1 {
				loss = 1
			}
			if ship.Fuel >= loss {
				ship.Fuel -= loss
			} else {
				ship.Fuel = 0
			}
			return fmt.Sprintf("You re-plot and burn %d extra fuel.", loss), nil
		case "COAST":
			if ship.Fuel >= payload.FuelLoss {
				ship.Fuel -= payload.FuelLoss
			} else {
				ship.Fuel = 0
			}
			return fmt.Sprintf("The long drift costs %d fuel.", payload.FuelLoss), nil
		}
	case TravelEventLeak:
		switch choice {
		case "PATCH":
			if g.Player.ItemCount("Nanobot Kits") > 0 {
				g.Player.RemoveItem("Nanobot Kits", 1)
				reduced := payload.Damage / 4
				ship.Integrity -= reduced
				if ship.Integrity < 1 {
					ship.Integrity = 1
				}
				return fmt.Sprintf("A nanobot kit seals the line. Minor scarring: %d integrity.", reduced), nil
			}
			// No kit aboard; the leak runs its course.
			ship.Integrity -= payload.Damage
			if ship.Integrity < 1 {
				ship.Integrity = 1
			}
			return fmt.Sprintf("No nanobot kits aboard. The leak costs %d integrity.", payload.Damage), nil
		case "PUSH":
			ship.Integrity -= payload.Damage
			if ship.Integrity < 1 {
				ship.Integrity = 1
			}
			return fmt.Sprintf("You push through. The hull takes %d integrity.", payload.Damage), nil
		}
	}
	return "", fmt.Errorf("invalid choice %q for %s event", choice, payload.Type)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
