package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractGeneration(t *testing.T) {
	t.Run("arcs run two to four steps with a reward floor", func(t *testing.T) {
		g, _ := newTestGame(t, 40)
		for i := 0; i < 50; i++ {
			c := g.GenerateContract(g.CurrentPlanet())
			require.NotNil(t, c)
			assert.GreaterOrEqual(t, c.ArcTotalSteps, 2)
			assert.LessOrEqual(t, c.ArcTotalSteps, 4)
			assert.Equal(t, 1, c.ArcStep)
			assert.GreaterOrEqual(t, c.Reward, contractMinReward)
			assert.Greater(t, c.Quantity, 0)
			assert.NotEmpty(t, c.ArcID)
			assert.NotEqual(t, c.SourcePlanet, c.DestinationPlanet)
		}
	})

	t.Run("route follows the standings gap", func(t *testing.T) {
		g, _ := newTestGame(t, 41)

		g.Player.FrontierStanding = 9
		g.Player.AuthorityStanding = 0
		assert.Equal(t, RouteSmuggling, g.contractRouteType())

		g.Player.FrontierStanding = 8
		assert.Equal(t, RouteLegal, g.contractRouteType())

		g.Player.FrontierStanding = -20
		assert.Equal(t, RouteLegal, g.contractRouteType())
	})

	t.Run("smuggling contracts only route to smuggler hubs", func(t *testing.T) {
		g, _ := newTestGame(t, 42)
		g.Player.FrontierStanding = 50
		for i := 0; i < 30; i++ {
			c := g.GenerateContract(g.CurrentPlanet())
			require.NotNil(t, c)
			require.Equal(t, RouteSmuggling, c.RouteType)
			assert.True(t, g.Planets[c.DestinationPlanet].IsSmugglerHub)
			assert.True(t, g.Catalog.IsContraband(c.Item))
		}
	})

	t.Run("quantity scales with the hold", func(t *testing.T) {
		g, _ := newTestGame(t, 43)
		capacity := g.Player.Ship.EffectiveMaxCargo()
		lo, hi := g.contractQuantityRange()
		assert.LessOrEqual(t, lo, hi)
		assert.GreaterOrEqual(t, lo, 2)
		assert.LessOrEqual(t, hi, capacity/2+1)
	})
}

func TestContractDelivery(t *testing.T) {
	t.Run("partial deliveries accumulate", func(t *testing.T) {
		g, _ := newTestGame(t, 44)
		c := g.ActiveContract
		require.NotNil(t, c)
		require.Greater(t, c.Quantity, 1)

		done := g.ApplyContractDelivery(c.DestinationPlanet, c.Item, 1)
		assert.Nil(t, done)
		assert.Equal(t, 1, c.Delivered)
	})

	t.Run("completion pays out and advances the arc in place", func(t *testing.T) {
		g, _ := newTestGame(t, 45)
		c := g.ActiveContract
		require.NotNil(t, c)
		c.ArcTotalSteps = 3
		startCredits := g.Player.Credits

		done := g.ApplyContractDelivery(c.DestinationPlanet, c.Item, c.Quantity)
		require.NotNil(t, done)
		assert.Greater(t, g.Player.Credits, startCredits)
		assert.Equal(t, 1, g.Player.ContractChainStreak)
		assert.False(t, done.ArcComplete)
		assert.True(t, done.NextGenerated)

		next := g.ActiveContract
		require.NotNil(t, next)
		assert.Equal(t, c.ArcID, next.ArcID)
		assert.Equal(t, 2, next.ArcStep)
		assert.Equal(t, c.DestinationPlanet, next.SourcePlanet)
	})

	t.Run("legal completion shifts standings and pays the milestone", func(t *testing.T) {
		g, _ := newTestGame(t, 46)
		c := g.ActiveContract
		require.NotNil(t, c)
		require.Equal(t, RouteLegal, c.RouteType)

		done := g.ApplyContractDelivery(c.DestinationPlanet, c.Item, c.Quantity)
		require.NotNil(t, done)
		assert.Equal(t, 3, g.Player.AuthorityStanding)
		assert.Equal(t, 1, g.Player.FrontierStanding)
		assert.Equal(t, c.Reward/5, done.MilestonePay)
	})

	t.Run("wrong planet or item never credits the contract", func(t *testing.T) {
		g, _ := newTestGame(t, 47)
		c := g.ActiveContract
		require.NotNil(t, c)

		assert.Nil(t, g.ApplyContractDelivery(c.SourcePlanet, c.Item, c.Quantity))
		assert.Nil(t, g.ApplyContractDelivery(c.DestinationPlanet, "Luxury Textiles", c.Quantity))
		assert.Equal(t, 0, c.Delivered)
	})
}

func TestContractExpiry(t *testing.T) {
	g, clk := newTestGame(t, 48)
	c := g.ActiveContract
	require.NotNil(t, c)
	g.Player.ContractChainStreak = 3

	clk.Advance(time.Duration(g.Config().ContractExpiryHours+1) * time.Hour)
	g.RefreshContract()

	assert.Equal(t, 0, g.Player.ContractChainStreak)
	require.NotNil(t, g.ActiveContract)
	assert.NotEqual(t, c.ArcID, g.ActiveContract.ArcID)
}
