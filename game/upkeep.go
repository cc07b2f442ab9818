package game

import (
	"fmt"
	"math"
	"sort"
)

// RefuelQuote prices a fill-up at the current planet.
type RefuelQuote struct {
	UnitsNeeded   int  `json:"units_needed"`
	CostPerUnit   int  `json:"cost_per_unit"`
	TotalCost     int  `json:"total_cost"`
	TimerEnabled  bool `json:"timer_enabled"`
	UsesRemaining int  `json:"uses_remaining"`
	WindowResetIn int  `json:"window_reset_in,omitempty"`
}

// refuelWindow rolls the player's refuel limiter window forward and
// returns uses remaining plus seconds until the window clears.
func (g *Game) refuelWindow() (remaining, resetIn int) {
	if !g.cfg.RefuelTimerEnabled {
		return 0, 0
	}
	now := g.Now()
	windowSeconds := g.cfg.RefuelWindowHours * 3600
	if g.Player.RefuelWindowStartedAt > 0 && now-g.Player.RefuelWindowStartedAt >= windowSeconds {
		g.Player.RefuelWindowStartedAt = 0
		g.Player.RefuelUsesInWindow = 0
	}
	remaining = g.cfg.MaxRefuels - g.Player.RefuelUsesInWindow
	if remaining < 0 {
		remaining = 0
	}
	if g.Player.RefuelWindowStartedAt > 0 {
		resetIn = int(windowSeconds - (now - g.Player.RefuelWindowStartedAt))
	}
	return remaining, resetIn
}

// GetRefuelQuote prices topping the tank, including the limiter surcharge.
func (g *Game) GetRefuelQuote() RefuelQuote {
	ship := g.Player.Ship
	q := RefuelQuote{
		UnitsNeeded:  ship.MaxFuel - ship.Fuel,
		CostPerUnit:  g.cfg.FuelUnitCost,
		TimerEnabled: g.cfg.RefuelTimerEnabled,
	}
	if g.cfg.RefuelTimerEnabled {
		q.CostPerUnit = int(math.Round(float64(g.cfg.FuelUnitCost) * float64(g.cfg.RefuelCostMultiplierPct) / 100))
		q.UsesRemaining, q.WindowResetIn = g.refuelWindow()
	}
	q.TotalCost = q.UnitsNeeded * q.CostPerUnit
	return q
}

// BuyFuel purchases up to units of fuel (0 = fill the tank).
func (g *Game) BuyFuel(units int) (bought, cost int, err error) {
	ship := g.Player.Ship
	need := ship.MaxFuel - ship.Fuel
	if need <= 0 {
		return 0, 0, fmt.Errorf("tank is already full")
	}
	if units <= 0 || units > need {
		units = need
	}

	q := g.GetRefuelQuote()
	if g.cfg.RefuelTimerEnabled {
		remaining, resetIn := g.refuelWindow()
		if remaining <= 0 {
			return 0, 0, fmt.Errorf("refuel limit reached; window clears in %d seconds", resetIn)
		}
	}

	cost = units * q.CostPerUnit
	if g.Player.Credits < cost {
		affordable := g.Player.Credits / q.CostPerUnit
		if affordable <= 0 {
			return 0, 0, fmt.Errorf("need %d credits for fuel", q.CostPerUnit)
		}
		units = affordable
		cost = units * q.CostPerUnit
	}

	g.Player.Credits -= cost
	ship.Fuel += units
	ship.LastRefuelTime = g.Now()

	if g.cfg.RefuelTimerEnabled {
		if g.Player.RefuelWindowStartedAt == 0 {
			g.Player.RefuelWindowStartedAt = g.Now()
		}
		g.Player.RefuelUsesInWindow++
	}
	return units, cost, nil
}

// RepairHull restores integrity at the docked planet's rates.
func (g *Game) RepairHull() (repaired, cost int, err error) {
	ship := g.Player.Ship
	p := g.CurrentPlanet()
	if p == nil {
		return 0, 0, fmt.Errorf("not docked")
	}
	missing := ship.MaxIntegrity - ship.Integrity
	if missing <= 0 {
		return 0, 0, fmt.Errorf("hull is already sound")
	}
	missingPct := float64(missing) / float64(ship.MaxIntegrity) * 100
	cost = int(math.Ceil(missingPct * g.cfg.RepairCostPerPercent * p.EffectiveRepairMultiplier()))
	if g.Player.Credits < cost {
		return 0, 0, fmt.Errorf("full repairs cost %d credits", cost)
	}
	g.Player.Credits -= cost
	ship.Integrity = ship.MaxIntegrity
	return missing, cost, nil
}

// BuyShip replaces the hull with a fresh template, preserving inventory.
// The old hull trades in at a quarter of its cost.
func (g *Game) BuyShip(model string) (*Spaceship, error) {
	tmpl, ok := g.Ships.Template(model)
	if !ok {
		return nil, fmt.Errorf("no hull named %q for sale", model)
	}
	old := g.Player.Ship
	if old != nil && old.Model == model {
		return nil, fmt.Errorf("already flying a %s", model)
	}
	price := tmpl.Cost
	tradeIn := 0
	if old != nil {
		tradeIn = old.Cost / 4
	}
	due := price - tradeIn
	if due < 0 {
		due = 0
	}
	if g.Player.Credits < due {
		return nil, fmt.Errorf("the %s runs %d credits after trade-in", model, due)
	}
	if g.Player.CargoUsed() > tmpl.StartingCargoPods {
		return nil, fmt.Errorf("your cargo will not fit in a %s hold", model)
	}
	g.Player.Credits -= due
	g.Player.Ship = tmpl
	return tmpl, nil
}

// TransferFighters moves defenders between the ship and an owned planet.
// Positive count moves ship → planet.
func (g *Game) TransferFighters(p *Planet, count int) error {
	if p.Owner != g.Player.Name {
		return fmt.Errorf("you do not hold %s", p.Name)
	}
	ship := g.Player.Ship
	switch {
	case count > 0:
		if ship.Defenders < count {
			return fmt.Errorf("only %d fighters aboard", ship.Defenders)
		}
		if p.Defenders+count > p.MaxDefenders {
			return fmt.Errorf("%s garrison caps at %d", p.Name, p.MaxDefenders)
		}
		ship.Defenders -= count
		p.Defenders += count
	case count < 0:
		take := -count
		if p.Defenders < take {
			return fmt.Errorf("only %d fighters garrisoned", p.Defenders)
		}
		if ship.Defenders+take > ship.MaxDefenders {
			return fmt.Errorf("ship berths cap at %d", ship.MaxDefenders)
		}
		p.Defenders -= take
		ship.Defenders += take
	default:
		return fmt.Errorf("transfer count cannot be zero")
	}
	return nil
}

// TransferShields moves shield strength between ship and owned planet.
func (g *Game) TransferShields(p *Planet, amount int) error {
	if p.Owner != g.Player.Name {
		return fmt.Errorf("you do not hold %s", p.Name)
	}
	ship := g.Player.Ship
	switch {
	case amount > 0:
		if ship.Shields < amount {
			return fmt.Errorf("only %d shield strength aboard", ship.Shields)
		}
		if p.Shields+amount > p.MaxShields {
			return fmt.Errorf("%s shield grid caps at %d", p.Name, p.MaxShields)
		}
		ship.Shields -= amount
		p.Shields += amount
	case amount < 0:
		take := -amount
		if p.Shields < take {
			return fmt.Errorf("only %d shield strength on the grid", p.Shields)
		}
		if ship.Shields+take > ship.MaxShields {
			return fmt.Errorf("ship emitters cap at %d", ship.MaxShields)
		}
		p.Shields -= take
		ship.Shields += take
	default:
		return fmt.Errorf("transfer amount cannot be zero")
	}
	return nil
}

// JettisonCargo dumps qty units of an item into the void.
func (g *Game) JettisonCargo(item string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("nothing to jettison")
	}
	dumped := g.Player.RemoveItem(item, qty)
	if dumped == 0 {
		return 0, fmt.Errorf("no %s aboard", CanonicalItemName(item))
	}
	return dumped, nil
}

// ClaimAbandonedShip rolls a derelict find: a rare free hull upgrade one
// level above the current ship, when the dice and dock allow it.
func (g *Game) ClaimAbandonedShip() (*Spaceship, error) {
	p := g.CurrentPlanet()
	if p == nil {
		return nil, fmt.Errorf("not docked")
	}
	if !p.IsSmugglerHub {
		return nil, fmt.Errorf("no derelicts registered at %s", p.Name)
	}
	if g.RNG.Float64() > 0.08 {
		return nil, fmt.Errorf("the yards have nothing unclaimed today")
	}
	level := g.ShipLevel()
	models := g.Ships.Models()
	if level >= len(models) {
		return nil, fmt.Errorf("nothing in the yards outclasses your hull")
	}
	tmpl, _ := g.Ships.Template(models[level])
	if g.Player.CargoUsed() > tmpl.StartingCargoPods {
		return nil, fmt.Errorf("your cargo will not fit in the derelict's hold")
	}
	// Derelicts fly, barely.
	tmpl.Integrity = tmpl.MaxIntegrity / 2
	tmpl.Fuel = tmpl.MaxFuel / 4
	g.Player.Ship = tmpl
	return tmpl, nil
}

// ProcessCrewPay charges wages for every full 24 hour cycle elapsed.
// Funded cycles rest the crew; unfunded ones stack unpaid cycles and
// members walk at the limit.
func (g *Game) ProcessCrewPay() (paid int, departed []string) {
	now := g.Now()
	if g.Player.LastCrewPayTime == 0 {
		g.Player.LastCrewPayTime = now
		return 0, nil
	}
	cycles := int((now - g.Player.LastCrewPayTime) / (crewPayIntervalHrs * 3600))
	if cycles <= 0 || len(g.Player.Crew) == 0 {
		return 0, nil
	}
	g.Player.LastCrewPayTime += float64(cycles) * crewPayIntervalHrs * 3600

	for i := 0; i < cycles; i++ {
		total := 0
		for _, m := range g.Player.Crew {
			total += m.DailyPay
		}
		if g.Player.Credits >= total {
			g.Player.Credits -= total
			paid += total
			for _, m := range g.Player.Crew {
				m.UnpaidCycles = 0
				m.Rest()
			}
			continue
		}
		for key, m := range g.Player.Crew {
			m.UnpaidCycles++
			m.Morale -= 15
			if m.Morale < 0 {
				m.Morale = 0
			}
			if m.UnpaidCycles >= crewUnpaidLimit {
				departed = append(departed, m.Name)
				delete(g.Player.Crew, key)
			}
		}
	}
	sort.Strings(departed)
	return paid, departed
}

// ProcessCommanderStipend pays the periodic flat stipend when due.
func (g *Game) ProcessCommanderStipend() (int, bool) {
	now := g.Now()
	interval := g.cfg.StipendIntervalHours * 3600
	if g.Player.LastCommanderStipendTime == 0 {
		g.Player.LastCommanderStipendTime = now
		return 0, false
	}
	if now-g.Player.LastCommanderStipendTime < interval {
		return 0, false
	}
	g.Player.LastCommanderStipendTime = now
	g.Player.Credits += g.cfg.CommanderStipendCredits
	return g.cfg.CommanderStipendCredits, true
}

// BankDeposit moves credits into the bank at a banking planet.
func (g *Game) BankDeposit(amount int) error {
	p := g.CurrentPlanet()
	if p == nil || !p.Bank {
		return fmt.Errorf("no banking services here")
	}
	if amount <= 0 || amount > g.Player.Credits {
		return fmt.Errorf("invalid deposit amount")
	}
	g.Player.Credits -= amount
	g.Player.BankBalance += amount
	return nil
}

// BankWithdraw moves credits out of the bank at a banking planet.
func (g *Game) BankWithdraw(amount int) error {
	p := g.CurrentPlanet()
	if p == nil || !p.Bank {
		return fmt.Errorf("no banking services here")
	}
	if amount <= 0 || amount > g.Player.BankBalance {
		return fmt.Errorf("invalid withdrawal amount")
	}
	g.Player.BankBalance -= amount
	g.Player.Credits += amount
	return nil
}

// PayoutInterest accrues bank interest for full elapsed days.
func (g *Game) PayoutInterest() int {
	now := g.Now()
	if g.Player.LastBankInterestTime == 0 {
		g.Player.LastBankInterestTime = now
		return 0
	}
	days := int((now - g.Player.LastBankInterestTime) / 86400)
	if days <= 0 || g.Player.BankBalance <= 0 {
		return 0
	}
	g.Player.LastBankInterestTime += float64(days) * 86400
	earned := int(float64(g.Player.BankBalance) * g.cfg.BankInterestPerDay * float64(days))
	g.Player.BankBalance += earned
	return earned
}

// PlanetFinancials is the treasury view of an owned planet.
type PlanetFinancials struct {
	Planet         string `json:"planet"`
	CreditBalance  int    `json:"credit_balance"`
	InterestEarned int    `json:"interest_earned"`
}

// GetPlanetFinancials accrues colony treasury interest and reports it.
func (g *Game) GetPlanetFinancials(p *Planet) (*PlanetFinancials, error) {
	if p.Owner != g.Player.Name {
		return nil, fmt.Errorf("you do not hold %s", p.Name)
	}
	now := g.Now()
	if !p.CreditsInitialized {
		p.CreditsInitialized = true
		p.LastCreditInterestTime = now
	}
	earned := 0
	days := int((now - p.LastCreditInterestTime) / 86400)
	if days > 0 && p.CreditBalance > 0 {
		earned = int(float64(p.CreditBalance) * g.cfg.PlanetInterestPerDay * float64(days))
		p.CreditBalance += earned
		p.LastCreditInterestTime += float64(days) * 86400
	}
	return &PlanetFinancials{Planet: p.Name, CreditBalance: p.CreditBalance, InterestEarned: earned}, nil
}

// PlanetDeposit moves credits into an owned planet's treasury.
func (g *Game) PlanetDeposit(p *Planet, amount int) error {
	if p.Owner != g.Player.Name {
		return fmt.Errorf("you do not hold %s", p.Name)
	}
	if amount <= 0 || amount > g.Player.Credits {
		return fmt.Errorf("invalid deposit amount")
	}
	g.Player.Credits -= amount
	p.CreditBalance += amount
	p.CreditsInitialized = true
	return nil
}

// PlanetWithdraw pulls credits from an owned planet's treasury.
func (g *Game) PlanetWithdraw(p *Planet, amount int) error {
	if p.Owner != g.Player.Name {
		return fmt.Errorf("you do not hold %s", p.Name)
	}
	if amount <= 0 || amount > p.CreditBalance {
		return fmt.Errorf("invalid withdrawal amount")
	}
	p.CreditBalance -= amount
	g.Player.Credits += amount
	return nil
}

// ProcessColonyPayouts collects population dividends from owned planets
// for each full elapsed day since the last collection.
func (g *Game) ProcessColonyPayouts() (total int, byPlanet map[string]int) {
	now := g.Now()
	byPlanet = make(map[string]int)
	for name, lastPayout := range g.Player.OwnedPlanets {
		p := g.Planets[name]
		if p == nil || p.Owner != g.Player.Name {
			continue
		}
		if lastPayout == 0 {
			g.Player.OwnedPlanets[name] = now
			continue
		}
		days := int((now - lastPayout) / 86400)
		if days <= 0 {
			continue
		}
		g.Player.OwnedPlanets[name] = lastPayout + float64(days)*86400
		// One credit per ten thousand citizens per day.
		payout := days * (p.Population / 10000)
		if payout <= 0 {
			continue
		}
		byPlanet[name] = payout
		total += payout
	}
	g.Player.Credits += total
	return total, byPlanet
}

// CheckAutoRecharge trickles fuel into a stranded tank: one unit per ten
// minutes adrift, stopping once the ship can make its cheapest jump.
func (g *Game) CheckAutoRecharge() int {
	ship := g.Player.Ship
	if ship.Fuel > 0 || ship.LastRefuelTime == 0 {
		return 0
	}
	elapsed := g.Now() - ship.LastRefuelTime
	gained := int(elapsed / 600)
	if gained <= 0 {
		return 0
	}
	if gained > ship.MaxFuel/4 {
		gained = ship.MaxFuel / 4
	}
	ship.Fuel += gained
	ship.LastRefuelTime = g.Now()
	return gained
}

// HireCrew signs an offered candidate, replacing any member already
// holding that specialty slot if the ship has only one.
func (g *Game) HireCrew(offer CrewOffer) (*CrewMember, error) {
	p := g.CurrentPlanet()
	if p == nil || !p.CrewServices {
		return nil, fmt.Errorf("no crew hall here")
	}
	ship := g.Player.Ship
	slots := ship.CrewSlots[offer.Specialty]
	if slots <= 0 {
		return nil, fmt.Errorf("this hull has no %s berth", offer.Specialty)
	}
	held := 0
	for _, m := range g.Player.Crew {
		if m.Specialty == offer.Specialty {
			held++
		}
	}
	if held >= slots {
		return nil, fmt.Errorf("all %s berths are filled", offer.Specialty)
	}
	if g.Player.Credits < offer.HireCost {
		return nil, fmt.Errorf("signing bonus is %d credits", offer.HireCost)
	}
	g.Player.Credits -= offer.HireCost
	m := NewCrewMember(offer)
	g.Player.Crew[m.Name] = m
	return m, nil
}

// DismissCrew releases a member by name.
func (g *Game) DismissCrew(name string) error {
	for key, m := range g.Player.Crew {
		if m.Name == name {
			delete(g.Player.Crew, key)
			return nil
		}
	}
	return fmt.Errorf("no crew member named %q", name)
}

// ProcessDefenseRegen regrows a conquered planet's garrison and shields
// toward base values at the hourly rates.
func (g *Game) ProcessDefenseRegen(p *Planet) (defAdded, shieldAdded int) {
	if p.Owner == "" {
		return 0, 0
	}
	now := g.Now()
	if p.LastDefenseRegenTime == 0 {
		p.LastDefenseRegenTime = now
		return 0, 0
	}
	hours := int((now - p.LastDefenseRegenTime) / 3600)
	if hours <= 0 {
		return 0, 0
	}
	p.LastDefenseRegenTime += float64(hours) * 3600

	if p.Defenders < p.BaseDefenders {
		defAdded = hours * g.cfg.DefenseRegenPerHour
		if p.Defenders+defAdded > p.BaseDefenders {
			defAdded = p.BaseDefenders - p.Defenders
		}
		p.Defenders += defAdded
	}
	if p.Shields < p.BaseShields {
		shieldAdded = hours * g.cfg.ShieldRegenPerHour
		if p.Shields+shieldAdded > p.BaseShields {
			shieldAdded = p.BaseShields - p.Shields
		}
		p.Shields += shieldAdded
	}
	return defAdded, shieldAdded
}
