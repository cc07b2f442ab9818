package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectornet/commander-server/game"
)

func TestAccountFlow(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("create then re-check", func(t *testing.T) {
		sess := newTestSession(s)
		resp := s.Dispatch(sess, "check_account", map[string]any{"account_name": "vasquez"})
		require.True(t, resp.succeeded())
		assert.Equal(t, false, resp["exists"])

		resp = s.Dispatch(sess, "create_account", map[string]any{
			"account_name": "vasquez", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		assert.True(t, sess.Authenticated)

		resp = s.Dispatch(newTestSession(s), "check_account", map[string]any{"account_name": "vasquez"})
		assert.Equal(t, true, resp["exists"])
	})

	t.Run("duplicate account is refused", func(t *testing.T) {
		resp := s.Dispatch(newTestSession(s), "create_account", map[string]any{
			"account_name": "vasquez", "password": "other",
		})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "ACCOUNT_EXISTS", resp["error"])
	})

	t.Run("wrong password is refused", func(t *testing.T) {
		resp := s.Dispatch(newTestSession(s), "authenticate", map[string]any{
			"account_name": "vasquez", "password": "wrong",
		})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "WRONG_PASSWORD", resp["error"])
	})

	t.Run("unknown account is refused", func(t *testing.T) {
		resp := s.Dispatch(newTestSession(s), "authenticate", map[string]any{
			"account_name": "nobody", "password": "hunter2",
		})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "NO_ACCOUNT", resp["error"])
	})

	t.Run("authenticate with no characters asks for a create", func(t *testing.T) {
		resp := s.Dispatch(newTestSession(s), "authenticate", map[string]any{
			"account_name": "vasquez", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		assert.Equal(t, true, resp["requires_character_create"])
		assert.Equal(t, false, resp["requires_character_select"])
	})
}

func TestCharacterLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "hoshi", "hunter2", "Captain Moss")

	t.Run("new character docks at the starting planet", func(t *testing.T) {
		assert.Equal(t, "Captain Moss", sess.PlayerDisplayName)
		assert.Equal(t, s.cfg.StartingPlanet, sess.Game.CurrentPlanetName)
	})

	t.Run("character name collisions across accounts are refused", func(t *testing.T) {
		other := newTestSession(s)
		resp := s.Dispatch(other, "create_account", map[string]any{
			"account_name": "imposter", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		resp = s.Dispatch(other, "new_game", map[string]any{"player_name": "Captain Moss"})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "NAME_TAKEN", resp["error"])
	})

	t.Run("save then reconnect and select", func(t *testing.T) {
		sess.Game.Player.Credits = 4242
		require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())

		again := newTestSession(s)
		resp := s.Dispatch(again, "authenticate", map[string]any{
			"account_name": "hoshi", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		assert.Equal(t, false, resp["requires_character_create"])

		resp = s.Dispatch(again, "select_character", map[string]any{"character_name": "Captain Moss"})
		require.True(t, resp.succeeded())
		assert.Equal(t, 4242, again.Game.Player.Credits)
	})

	t.Run("selecting someone else's character is refused", func(t *testing.T) {
		other := newTestSession(s)
		resp := s.Dispatch(other, "create_account", map[string]any{
			"account_name": "snoop", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		resp = s.Dispatch(other, "select_character", map[string]any{"character_name": "Captain Moss"})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "CHARACTER_NOT_LINKED", resp["error"])
	})

	t.Run("logout clears the character but keeps the account", func(t *testing.T) {
		resp := s.Dispatch(sess, "logout_commander", nil)
		require.True(t, resp.succeeded())
		assert.Nil(t, sess.Game)
		assert.True(t, sess.Authenticated)

		resp = s.Dispatch(sess, "list_characters", nil)
		require.True(t, resp.succeeded())
		assert.Len(t, resp["characters"], 1)
	})
}

func TestSingleSaveMode(t *testing.T) {
	s := newTestServer(t, func(cfg *game.Config) { cfg.AllowMultipleGames = false })
	sess := loginWithCharacter(t, s, "solo", "hunter2", "Lone Wolf")
	require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())
	require.True(t, s.Dispatch(sess, "logout_commander", nil).succeeded())

	t.Run("the only character auto-loads on authenticate", func(t *testing.T) {
		again := newTestSession(s)
		resp := s.Dispatch(again, "authenticate", map[string]any{
			"account_name": "solo", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		assert.Equal(t, false, resp["requires_character_select"])
		assert.Equal(t, "Lone Wolf", resp["character"])
		require.NotNil(t, again.Game)
		assert.Equal(t, "Lone Wolf", again.Game.Player.Name)
	})

	t.Run("a second save is refused", func(t *testing.T) {
		again := newTestSession(s)
		resp := s.Dispatch(again, "authenticate", map[string]any{
			"account_name": "solo", "password": "hunter2",
		})
		require.True(t, resp.succeeded())
		resp = s.Dispatch(again, "new_game", map[string]any{"player_name": "Second Wolf"})
		assert.False(t, resp.succeeded())
		assert.Equal(t, "SINGLE_SAVE_LIMIT", resp["error"])
	})
}
