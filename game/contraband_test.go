package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smugglerHub(t *testing.T, g *Game) *Planet {
	t.Helper()
	for _, p := range g.Planets {
		if p.IsSmugglerHub {
			return p
		}
	}
	t.Fatal("universe has no smuggler hub")
	return nil
}

func TestContrabandTiers(t *testing.T) {
	t.Run("tiers are stable and in range", func(t *testing.T) {
		for _, name := range []string{"Crimson Spice", "Neural Lace", "Phase Disruptors", "Void Opals"} {
			tier := ContrabandTier(name)
			assert.GreaterOrEqual(t, tier, 1)
			assert.LessOrEqual(t, tier, 4)
			assert.Equal(t, tier, ContrabandTier(name))
			assert.Equal(t, tier-1, RequiredBribeLevel(name))
		}
	})

	t.Run("aliases share the tier", func(t *testing.T) {
		assert.Equal(t, ContrabandTier("Crimson Spice"), ContrabandTier("Spice"))
	})
}

func TestContrabandGate(t *testing.T) {
	g, _ := newTestGame(t, 50)
	hub := smugglerHub(t, g)

	hub.SmugglingInventory = map[string]*SmugglingEntry{
		"Crimson Spice": {Modifier: 100, Quantity: 10, Tier: 1, BasePrice: 90, RequiredBribeLevel: 0},
		"Void Opals":    {Modifier: 100, Quantity: 4, Tier: 3, BasePrice: 500, RequiredBribeLevel: 2},
	}

	t.Run("free goods need no contact on a hub", func(t *testing.T) {
		ok, required := g.CanBuyContraband(hub, "Crimson Spice")
		assert.True(t, ok)
		assert.Equal(t, 0, required)
	})

	t.Run("gated goods need the contact level", func(t *testing.T) {
		ok, required := g.CanBuyContraband(hub, "Void Opals")
		assert.False(t, ok)
		assert.Equal(t, 2, required)

		g.Bribes[hub.Name] = &BribeStatus{Level: 2, ExpiresAt: g.Now() + 3600}
		ok, _ = g.CanBuyContraband(hub, "Void Opals")
		assert.True(t, ok)
	})

	t.Run("unlisted goods are never buyable", func(t *testing.T) {
		ok, _ := g.CanBuyContraband(hub, "Neural Lace")
		assert.False(t, ok)
	})

	t.Run("lapsed contacts stop counting", func(t *testing.T) {
		g.Bribes[hub.Name] = &BribeStatus{Level: 2, ExpiresAt: g.Now() - 1}
		assert.Equal(t, 0, g.BribeLevel(hub.Name))
		ok, _ := g.CanBuyContraband(hub, "Void Opals")
		assert.False(t, ok)
	})

	t.Run("the refusal names the contact gate", func(t *testing.T) {
		g.CurrentPlanetName = hub.Name
		_, err := g.BuyContraband("Void Opals", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CONTACT LEVEL TOO LOW")
	})
}

func TestDetectionProbability(t *testing.T) {
	g, _ := newTestGame(t, 51)

	var lowSec, highSec *Planet
	for _, p := range g.Planets {
		switch p.SecurityLevel {
		case SecurityLow:
			lowSec = p
		case SecurityHigh:
			highSec = p
		}
	}
	require.NotNil(t, lowSec)
	require.NotNil(t, highSec)

	t.Run("clamped to the probability band", func(t *testing.T) {
		assert.GreaterOrEqual(t, g.DetectionProbability(lowSec, "Crimson Spice", 1), 0.01)
		assert.LessOrEqual(t, g.DetectionProbability(highSec, "Void Opals", 100000), 0.95)

		g.Player.FrontierStanding = 100
		assert.GreaterOrEqual(t, g.DetectionProbability(lowSec, "Crimson Spice", 1), 0.01)
		g.Player.FrontierStanding = 0
	})

	t.Run("high security scans harder", func(t *testing.T) {
		assert.Greater(t,
			g.DetectionProbability(highSec, "Crimson Spice", 5),
			g.DetectionProbability(lowSec, "Crimson Spice", 5))
	})

	t.Run("heat raises the odds", func(t *testing.T) {
		base := g.DetectionProbability(lowSec, "Crimson Spice", 5)
		g.AddHeat(lowSec.Name, 60)
		assert.Greater(t, g.DetectionProbability(lowSec, "Crimson Spice", 5), base)
	})

	t.Run("a jammer lowers the odds", func(t *testing.T) {
		g.Player.Ship.InstalledModules = nil
		g.Player.Ship.ModuleSlots = 1
		base := g.DetectionProbability(highSec, "Void Opals", 5)
		require.NoError(t, g.Player.Ship.InstallModule(ModuleJammer))
		assert.Less(t, g.DetectionProbability(highSec, "Void Opals", 5), base)
	})
}

func TestHeat(t *testing.T) {
	g, clk := newTestGame(t, 52)
	p := g.CurrentPlanet()

	t.Run("clamps to one hundred", func(t *testing.T) {
		assert.Equal(t, 100, g.AddHeat(p.Name, 250))
	})

	t.Run("decays hourly and clears at zero", func(t *testing.T) {
		g.Heat[p.Name] = 10
		g.HeatUpdatedAt[p.Name] = g.Now()
		clk.Advance(2 * time.Hour)
		assert.Equal(t, 10-2*g.Config().HeatDecayPerHour, g.HeatAt(p.Name))

		clk.Advance(100 * time.Hour)
		assert.Equal(t, 0, g.HeatAt(p.Name))
		_, tracked := g.Heat[p.Name]
		assert.False(t, tracked)
	})
}

func TestBribes(t *testing.T) {
	g, clk := newTestGame(t, 53)
	p := g.CurrentPlanet()
	g.Player.Credits = 1_000_000

	t.Run("each level costs more than the last", func(t *testing.T) {
		first := g.BribeCost(p)
		level, err := g.BribeNPC(p)
		require.NoError(t, err)
		assert.Equal(t, 1, level)
		assert.Greater(t, g.BribeCost(p), first)
	})

	t.Run("heat inflates the price", func(t *testing.T) {
		quiet := g.BribeCost(p)
		g.AddHeat(p.Name, 50)
		assert.Greater(t, g.BribeCost(p), quiet)
		g.AddHeat(p.Name, -100)
	})

	t.Run("caps at the max level", func(t *testing.T) {
		for g.BribeLevel(p.Name) < g.Config().BribeMaxLevel {
			_, err := g.BribeNPC(p)
			require.NoError(t, err)
		}
		_, err := g.BribeNPC(p)
		require.Error(t, err)
	})

	t.Run("contacts lapse after the duration", func(t *testing.T) {
		require.Greater(t, g.BribeLevel(p.Name), 0)
		clk.Advance(time.Duration(g.Config().BribeDurationHours+1) * time.Hour)
		assert.Equal(t, 0, g.BribeLevel(p.Name))
	})
}
