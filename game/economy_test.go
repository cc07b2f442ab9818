package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyPricePipeline(t *testing.T) {
	g, _ := newTestGame(t, 1)
	p := g.CurrentPlanet()
	require.NotNil(t, p)
	const item = "Fuel Cells"

	t.Run("never below one credit", func(t *testing.T) {
		assert.GreaterOrEqual(t, g.BuyPrice(p, item), 1)
	})

	t.Run("spotlight discounts the listed item only", func(t *testing.T) {
		base := g.BuyPrice(p, item)
		grainBase := g.BuyPrice(p, "Hydroponic Grain")
		g.Spotlights[p.Name] = &PortSpotlight{
			Planet: p.Name, Item: item, DiscountPct: 20, Quantity: 5,
			ExpiresAt: g.Now() + 3600,
		}
		assert.Less(t, g.BuyPrice(p, item), base)
		assert.Equal(t, grainBase, g.BuyPrice(p, "Hydroponic Grain"))
		delete(g.Spotlights, p.Name)
	})

	t.Run("event buy multiplier raises prices", func(t *testing.T) {
		base := g.BuyPrice(p, item)
		g.Events[p.Name] = &PlanetEvent{
			Type: EventEmbargo, Planet: p.Name, BuyMult: 1.30, DockingMult: 1.0,
			ContractMult: 1.4, ExpiresAt: g.Now() + 3600,
		}
		assert.Greater(t, g.BuyPrice(p, item), base)
		delete(g.Events, p.Name)
	})

	t.Run("hostile market surcharge after an attack", func(t *testing.T) {
		base := g.BuyPrice(p, item)
		g.Player.MarkAttacked(p.Name, g.Now())
		assert.Greater(t, g.BuyPrice(p, item), base)
		delete(g.Player.AttackedPlanets, p.Name)
	})

	t.Run("alias names price identically", func(t *testing.T) {
		assert.Equal(t, g.BuyPrice(p, "Fuel Cells"), g.BuyPrice(p, "Standard Fuel"))
	})
}

func TestMomentum(t *testing.T) {
	g, clk := newTestGame(t, 2)
	p := g.CurrentPlanet()
	const item = "Iridium Ore"

	t.Run("buys push prices up, sells push them down", func(t *testing.T) {
		base := g.BuyPrice(p, item)
		g.RecordBuy(p.Name, item, 40)
		bought := g.BuyPrice(p, item)
		assert.Greater(t, bought, base)

		g.RecordSell(p.Name, item, 200)
		assert.Less(t, g.BuyPrice(p, item), bought)
	})

	t.Run("momentum clamps at the cap", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			g.RecordBuy(p.Name, item, 100)
		}
		st := g.shipping(p.Name, item)
		assert.InDelta(t, momentumMaxAbs, st.Momentum, 1e-9)
	})

	t.Run("momentum decays exponentially over hours", func(t *testing.T) {
		before := g.shipping(p.Name, item).Momentum
		require.Greater(t, before, 0.0)
		clk.Advance(5 * time.Hour)
		after := g.shipping(p.Name, item).Momentum
		assert.Less(t, after, before)
		assert.Greater(t, after, 0.0)
	})

	t.Run("sell dampening never drops below the floor", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			g.RecordSell(p.Name, item, 100)
		}
		assert.GreaterOrEqual(t, g.sellDampening(p.Name, item), g.Config().SellDampeningFloor)
	})
}

func TestSellPrice(t *testing.T) {
	g, _ := newTestGame(t, 3)
	p := g.CurrentPlanet()

	t.Run("off-market items fall back to salvage", func(t *testing.T) {
		// New Terra does not trade ore on its open market.
		for _, item := range g.Catalog.Names() {
			if !p.SellsItem(item) && !g.Catalog.IsContraband(item) {
				assert.Equal(t, g.SalvagePrice(item), g.SellPrice(p, item))
				return
			}
		}
		t.Skip("every legal item is on this market")
	})

	t.Run("salvage price floors at one", func(t *testing.T) {
		assert.GreaterOrEqual(t, g.SalvagePrice("Fuel Cells"), 1)
	})

	t.Run("bribe level raises contraband sale prices", func(t *testing.T) {
		const item = "Void Opals"
		base := g.SellPrice(p, item)
		g.Bribes[p.Name] = &BribeStatus{Level: 3, ExpiresAt: g.Now() + 3600}
		assert.Greater(t, g.SellPrice(p, item), base)
		delete(g.Bribes, p.Name)
	})
}

func TestBestTradeOpportunities(t *testing.T) {
	g, _ := newTestGame(t, 4)

	ops := g.BestTradeOpportunities(5)
	assert.LessOrEqual(t, len(ops), 5)
	for i := 1; i < len(ops); i++ {
		assert.GreaterOrEqual(t, ops[i-1].Spread, ops[i].Spread)
	}
	for _, op := range ops {
		assert.Greater(t, op.Spread, 0)
		assert.Equal(t, g.CurrentPlanetName, op.BuyPlanet)
	}
}
