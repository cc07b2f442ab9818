package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDockedFlow walks a short session the way a client would: look
// around, bank, jump, trade.
func TestDockedFlow(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "runabout", "hunter2", "Jess Vega")
	ship := sess.Game.Player.Ship
	ship.MaxFuel = 500
	ship.Fuel = 500

	t.Run("config and surroundings", func(t *testing.T) {
		resp := s.Dispatch(sess, "get_config", nil)
		require.True(t, resp.succeeded())
		settings := resp["settings"].(Response)
		assert.Equal(t, s.cfg.StartingPlanet, settings["starting_planet"])

		resp = s.Dispatch(sess, "get_player_info", nil)
		require.True(t, resp.succeeded())
		assert.Equal(t, s.cfg.StartingPlanet, resp["current_planet"])

		resp = s.Dispatch(sess, "get_current_planet_info", nil)
		require.True(t, resp.succeeded())

		resp = s.Dispatch(sess, "get_planets", nil)
		require.True(t, resp.succeeded())
		planets := resp["planets"].([]Response)
		assert.Len(t, planets, len(sess.Game.Planets))
	})

	t.Run("banking at the home port", func(t *testing.T) {
		resp := s.Dispatch(sess, "bank_deposit", map[string]any{"amount": float64(200)})
		require.True(t, resp.succeeded())
		assert.Equal(t, 200, resp["bank_balance"])

		resp = s.Dispatch(sess, "bank_withdraw", map[string]any{"amount": float64(50)})
		require.True(t, resp.succeeded())
		assert.Equal(t, 150, resp["bank_balance"])
	})

	t.Run("jump and trade", func(t *testing.T) {
		resp := s.Dispatch(sess, "travel_to_planet", map[string]any{"planet": "Junction"})
		require.True(t, resp.succeeded(), "travel failed: %v", resp)
		assert.Equal(t, "Junction", sess.Game.CurrentPlanetName)
		assert.Greater(t, resp["fuel_spent"], 0)

		before := sess.Game.Player.Credits
		resp = s.Dispatch(sess, "buy_item", map[string]any{
			"item": "Hydroponic Grain", "quantity": float64(5),
		})
		require.True(t, resp.succeeded(), "buy failed: %v", resp)
		assert.Equal(t, 5, sess.Game.Player.ItemCount("Hydroponic Grain"))
		assert.Less(t, sess.Game.Player.Credits, before)

		resp = s.Dispatch(sess, "sell_item", map[string]any{
			"item": "Hydroponic Grain", "quantity": float64(5),
		})
		require.True(t, resp.succeeded(), "sell failed: %v", resp)
		assert.Equal(t, 0, sess.Game.Player.ItemCount("Hydroponic Grain"))
	})

	t.Run("no bank on a waystation", func(t *testing.T) {
		resp := s.Dispatch(sess, "bank_deposit", map[string]any{"amount": float64(10)})
		assert.False(t, resp.succeeded())
		assert.NotEmpty(t, resp["message"])
	})

	t.Run("the shared universe sees the arrival", func(t *testing.T) {
		resp := s.Dispatch(sess, "get_all_commander_statuses", nil)
		require.True(t, resp.succeeded())
		statuses := resp["commanders"].([]Response)
		require.Len(t, statuses, 1)
		assert.Equal(t, "Jess Vega", statuses[0]["character"])
		assert.Equal(t, "Junction", statuses[0]["current_planet"])
		assert.Equal(t, true, statuses[0]["online"])
	})
}
