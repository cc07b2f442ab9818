package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefuel(t *testing.T) {
	t.Run("fills the tank at the unit cost", func(t *testing.T) {
		g, _ := newTestGame(t, 70)
		g.Player.Credits = 10_000
		ship := g.Player.Ship
		ship.Fuel = ship.MaxFuel - 10

		bought, cost, err := g.BuyFuel(0)
		require.NoError(t, err)
		assert.Equal(t, 10, bought)
		assert.Equal(t, 10*g.Config().FuelUnitCost, cost)
		assert.Equal(t, ship.MaxFuel, ship.Fuel)
	})

	t.Run("refuses a full tank", func(t *testing.T) {
		g, _ := newTestGame(t, 71)
		g.Player.Ship.Fuel = g.Player.Ship.MaxFuel
		_, _, err := g.BuyFuel(0)
		require.Error(t, err)
	})

	t.Run("partial fill when credits run short", func(t *testing.T) {
		g, _ := newTestGame(t, 72)
		g.Player.Credits = g.Config().FuelUnitCost * 3
		g.Player.Ship.Fuel = 0

		bought, _, err := g.BuyFuel(0)
		require.NoError(t, err)
		assert.Equal(t, 3, bought)
		assert.Equal(t, 0, g.Player.Credits)
	})

	t.Run("the limiter window caps refuels", func(t *testing.T) {
		g, clk := newTestGame(t, 73)
		g.Config().RefuelTimerEnabled = true
		g.Config().MaxRefuels = 2
		g.Config().RefuelWindowHours = 1
		g.Player.Credits = 100_000

		for i := 0; i < 2; i++ {
			g.Player.Ship.Fuel = 0
			_, _, err := g.BuyFuel(5)
			require.NoError(t, err)
		}
		g.Player.Ship.Fuel = 0
		_, _, err := g.BuyFuel(5)
		require.Error(t, err)

		clk.Advance(61 * time.Minute)
		_, _, err = g.BuyFuel(5)
		require.NoError(t, err)
	})

	t.Run("the limiter surcharge raises the quote", func(t *testing.T) {
		g, _ := newTestGame(t, 74)
		g.Player.Ship.Fuel = 0
		base := g.GetRefuelQuote()
		g.Config().RefuelTimerEnabled = true
		g.Config().RefuelCostMultiplierPct = 150
		assert.Greater(t, g.GetRefuelQuote().CostPerUnit, base.CostPerUnit)
	})
}

func TestRepairHull(t *testing.T) {
	g, _ := newTestGame(t, 75)
	g.Player.Credits = 100_000
	ship := g.Player.Ship
	ship.MaxIntegrity = 100
	ship.Integrity = 60

	repaired, cost, err := g.RepairHull()
	require.NoError(t, err)
	assert.Equal(t, 40, repaired)
	// 40 missing percent at the per-percent rate, multiplier 1.0 here.
	assert.Equal(t, 600, cost)
	assert.Equal(t, ship.MaxIntegrity, ship.Integrity)

	_, _, err = g.RepairHull()
	require.Error(t, err)
}

func TestBuyShip(t *testing.T) {
	t.Run("replaces the hull, keeps the cargo", func(t *testing.T) {
		g, _ := newTestGame(t, 76)
		g.Player.Credits = 50_000
		g.Player.AddItem("Iridium Ore", 10)

		ship, err := g.BuyShip("Pack Mule")
		require.NoError(t, err)
		assert.Equal(t, "Pack Mule", ship.Model)
		assert.Equal(t, ship, g.Player.Ship)
		assert.Equal(t, 10, g.Player.ItemCount("Iridium Ore"))
	})

	t.Run("trade-in discounts the price", func(t *testing.T) {
		g, _ := newTestGame(t, 77)
		old := g.Player.Ship
		tmpl, _ := g.Ships.Template("Pack Mule")
		due := tmpl.Cost - old.Cost/4
		g.Player.Credits = due

		_, err := g.BuyShip("Pack Mule")
		require.NoError(t, err)
		assert.Equal(t, 0, g.Player.Credits)
	})

	t.Run("refuses when the cargo will not fit", func(t *testing.T) {
		g, _ := newTestGame(t, 78)
		g.Player.Credits = 1_000_000
		g.Player.Ship, _ = g.Ships.Template("Leviathan")
		g.Player.AddItem("Hydroponic Grain", 80)

		_, err := g.BuyShip("Sparrow")
		require.Error(t, err)
	})

	t.Run("refuses the same model and unknown hulls", func(t *testing.T) {
		g, _ := newTestGame(t, 79)
		_, err := g.BuyShip(g.Player.Ship.Model)
		require.Error(t, err)
		_, err = g.BuyShip("Dreadnought")
		require.Error(t, err)
	})
}

func TestGarrisonTransfers(t *testing.T) {
	g, _ := newTestGame(t, 80)
	p := g.CurrentPlanet()
	p.Owner = g.Player.Name
	p.Defenders = 0
	p.Shields = 0
	g.Player.OwnedPlanets[p.Name] = g.Now()
	ship := g.Player.Ship
	ship.Defenders = 4
	ship.MaxDefenders = 4
	ship.Shields = 20
	ship.MaxShields = 40

	t.Run("fighters move both ways within caps", func(t *testing.T) {
		require.NoError(t, g.TransferFighters(p, 2))
		assert.Equal(t, 2, ship.Defenders)
		assert.Equal(t, 2, p.Defenders)

		require.NoError(t, g.TransferFighters(p, -1))
		assert.Equal(t, 3, ship.Defenders)

		require.Error(t, g.TransferFighters(p, 10))
		require.Error(t, g.TransferFighters(p, 0))
	})

	t.Run("shields move both ways within caps", func(t *testing.T) {
		require.NoError(t, g.TransferShields(p, 10))
		assert.Equal(t, 10, ship.Shields)
		assert.Equal(t, 10, p.Shields)

		require.Error(t, g.TransferShields(p, 1000))
	})

	t.Run("unowned ground refuses transfers", func(t *testing.T) {
		other := otherPlanet(t, g)
		other.Owner = "Rival Commander"
		require.Error(t, g.TransferFighters(other, 1))
		require.Error(t, g.TransferShields(other, 1))
	})
}

func TestCrewPay(t *testing.T) {
	t.Run("funded cycles pay and rest the crew", func(t *testing.T) {
		g, clk := newTestGame(t, 81)
		g.Player.Credits = 10_000
		m := &CrewMember{Name: "Petra Holt", Specialty: SpecialtyEngineer, Level: 2, Morale: 60, Fatigue: 50, DailyPay: 100}
		g.Player.Crew[m.Name] = m

		clk.Advance(25 * time.Hour)
		paid, departed := g.ProcessCrewPay()
		assert.Equal(t, 100, paid)
		assert.Empty(t, departed)
		assert.Equal(t, 0, m.Fatigue)
		assert.Equal(t, 0, m.UnpaidCycles)
	})

	t.Run("seven unpaid cycles and the crew walks", func(t *testing.T) {
		g, clk := newTestGame(t, 82)
		g.Player.Credits = 0
		m := &CrewMember{Name: "Renn Stross", Specialty: SpecialtyWeapons, Level: 3, Morale: 80, DailyPay: 100}
		g.Player.Crew[m.Name] = m

		clk.Advance(6 * 24 * time.Hour)
		_, departed := g.ProcessCrewPay()
		assert.Empty(t, departed)
		assert.Equal(t, 6, m.UnpaidCycles)

		clk.Advance(24 * time.Hour)
		_, departed = g.ProcessCrewPay()
		assert.Equal(t, []string{"Renn Stross"}, departed)
		assert.Empty(t, g.Player.Crew)
	})
}

func TestStipendAndBanking(t *testing.T) {
	t.Run("stipend pays on the interval", func(t *testing.T) {
		g, clk := newTestGame(t, 83)
		start := g.Player.Credits
		_, ok := g.ProcessCommanderStipend()
		assert.False(t, ok)

		clk.Advance(25 * time.Hour)
		amount, ok := g.ProcessCommanderStipend()
		assert.True(t, ok)
		assert.Equal(t, g.Config().CommanderStipendCredits, amount)
		assert.Equal(t, start+amount, g.Player.Credits)
	})

	t.Run("deposits and withdrawals need a banking planet", func(t *testing.T) {
		g, _ := newTestGame(t, 84)
		p := g.CurrentPlanet()
		require.True(t, p.Bank, "starting planet banks")

		require.NoError(t, g.BankDeposit(500))
		assert.Equal(t, 500, g.Player.BankBalance)
		require.Error(t, g.BankDeposit(10_000_000))
		require.NoError(t, g.BankWithdraw(200))
		require.Error(t, g.BankWithdraw(10_000))

		p.Bank = false
		require.Error(t, g.BankDeposit(10))
		p.Bank = true
	})

	t.Run("interest accrues per full day", func(t *testing.T) {
		g, clk := newTestGame(t, 85)
		g.Player.BankBalance = 1000
		g.Player.LastBankInterestTime = g.Now()

		clk.Advance(12 * time.Hour)
		assert.Equal(t, 0, g.PayoutInterest())

		clk.Advance(36 * time.Hour)
		earned := g.PayoutInterest()
		assert.Equal(t, int(1000*g.Config().BankInterestPerDay*2), earned)
	})
}

func TestPlanetTreasury(t *testing.T) {
	g, clk := newTestGame(t, 86)
	p := g.CurrentPlanet()
	p.Owner = g.Player.Name
	g.Player.OwnedPlanets[p.Name] = g.Now()

	t.Run("owner-gated deposits and withdrawals", func(t *testing.T) {
		require.NoError(t, g.PlanetDeposit(p, 400))
		assert.Equal(t, 400, p.CreditBalance)
		require.NoError(t, g.PlanetWithdraw(p, 100))
		assert.Equal(t, 300, p.CreditBalance)

		other := otherPlanet(t, g)
		other.Owner = "Rival Commander"
		require.Error(t, g.PlanetDeposit(other, 10))
		_, err := g.GetPlanetFinancials(other)
		require.Error(t, err)
	})

	t.Run("treasury earns interest", func(t *testing.T) {
		fin, err := g.GetPlanetFinancials(p)
		require.NoError(t, err)
		assert.Equal(t, 0, fin.InterestEarned)

		clk.Advance(48 * time.Hour)
		fin, err = g.GetPlanetFinancials(p)
		require.NoError(t, err)
		assert.Greater(t, fin.InterestEarned, 0)
	})
}

func TestColonyPayouts(t *testing.T) {
	g, clk := newTestGame(t, 87)
	p := g.CurrentPlanet()
	p.Owner = g.Player.Name
	g.Player.OwnedPlanets[p.Name] = g.Now()

	total, byPlanet := g.ProcessColonyPayouts()
	assert.Equal(t, 0, total)

	clk.Advance(24 * time.Hour)
	start := g.Player.Credits
	total, byPlanet = g.ProcessColonyPayouts()
	assert.Equal(t, p.Population/10000, total)
	assert.Equal(t, total, byPlanet[p.Name])
	assert.Equal(t, start+total, g.Player.Credits)

	// No double dipping inside the same day.
	total, _ = g.ProcessColonyPayouts()
	assert.Equal(t, 0, total)
}

func TestDefenseRegen(t *testing.T) {
	g, clk := newTestGame(t, 88)
	p := g.CurrentPlanet()
	p.Owner = g.Player.Name
	p.BaseDefenders = 30
	p.BaseShields = 60
	p.Defenders = 10
	p.Shields = 20
	p.LastDefenseRegenTime = g.Now()

	clk.Advance(3 * time.Hour)
	defAdded, shieldAdded := g.ProcessDefenseRegen(p)
	assert.Equal(t, 3*g.Config().DefenseRegenPerHour, defAdded)
	assert.Equal(t, 3*g.Config().ShieldRegenPerHour, shieldAdded)

	clk.Advance(1000 * time.Hour)
	g.ProcessDefenseRegen(p)
	assert.Equal(t, p.BaseDefenders, p.Defenders)
	assert.Equal(t, p.BaseShields, p.Shields)
}

func TestAutoRecharge(t *testing.T) {
	g, clk := newTestGame(t, 89)
	ship := g.Player.Ship
	ship.Fuel = 0
	ship.LastRefuelTime = g.Now()

	assert.Equal(t, 0, g.CheckAutoRecharge())

	clk.Advance(30 * time.Minute)
	gained := g.CheckAutoRecharge()
	assert.Equal(t, 3, gained)
	assert.Equal(t, 3, ship.Fuel)

	// A wet tank never trickles.
	clk.Advance(30 * time.Minute)
	assert.Equal(t, 0, g.CheckAutoRecharge())
}

func TestJettison(t *testing.T) {
	g, _ := newTestGame(t, 90)
	g.Player.AddItem("Hydroponic Grain", 5)

	dumped, err := g.JettisonCargo("Grain", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, dumped)
	assert.Equal(t, 2, g.Player.ItemCount("Hydroponic Grain"))

	_, err = g.JettisonCargo("Void Opals", 1)
	require.Error(t, err)
}
