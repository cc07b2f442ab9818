package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageOnline(t *testing.T) {
	s := newTestServer(t, nil)
	sender := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	receiver := loginWithCharacter(t, s, "bravo", "hunter2", "Dray")

	resp := s.Dispatch(sender, "send_message", map[string]any{
		"recipient": "Dray", "subject": "Convoy", "body": "Meet at Junction.",
	})
	require.True(t, resp.succeeded())

	// Delivery lands when the recipient's own goroutine next runs an
	// action; the sender never touches the recipient's Game directly.
	require.True(t, s.Dispatch(receiver, "get_player_info", nil).succeeded())

	require.Len(t, receiver.Game.Player.Messages, 1)
	msg := receiver.Game.Player.Messages[0]
	assert.Equal(t, "Riggs", msg.Sender)
	assert.Equal(t, "Convoy", msg.Subject)
	assert.False(t, msg.IsRead)
	assert.Equal(t, 1, receiver.Game.Player.UnreadCount())

	// The drain persisted the mailbox: a process death after delivery
	// does not lose the message.
	snap, err := readCharacterSnapshot(s.accounts.CharacterPath(receiver.AccountSafe, receiver.CharacterSafe))
	require.NoError(t, err)
	require.Len(t, snap.Player.Messages, 1)
	assert.Equal(t, "Convoy", snap.Player.Messages[0].Subject)
}

func TestSendMessageOfflineWritesThroughSave(t *testing.T) {
	s := newTestServer(t, nil)
	receiver := loginWithCharacter(t, s, "bravo", "hunter2", "Dray")
	require.True(t, s.Dispatch(receiver, "save_game", nil).succeeded())
	require.True(t, s.Dispatch(receiver, "logout_commander", nil).succeeded())

	sender := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	resp := s.Dispatch(sender, "send_message", map[string]any{
		"recipient": "Dray", "subject": "Debt", "body": "You still owe me 400 credits.",
	})
	require.True(t, resp.succeeded())

	// The message is waiting in the save when the recipient returns.
	back := newTestSession(s)
	resp = s.Dispatch(back, "authenticate", map[string]any{
		"account_name": "bravo", "password": "hunter2",
	})
	require.True(t, resp.succeeded())
	resp = s.Dispatch(back, "select_character", map[string]any{"character_name": "Dray"})
	require.True(t, resp.succeeded())

	require.Len(t, back.Game.Player.Messages, 1)
	assert.Equal(t, "Debt", back.Game.Player.Messages[0].Subject)
}

func TestSendMessageToSelf(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")

	resp := s.Dispatch(sess, "send_message", map[string]any{
		"recipient": "riggs", "subject": "Reminder", "body": "Refuel before Junction.",
	})
	require.True(t, resp.succeeded())

	require.Len(t, sess.Game.Player.Messages, 1)
	assert.Equal(t, "Riggs", sess.Game.Player.Messages[0].Sender)
	assert.Equal(t, "Reminder", sess.Game.Player.Messages[0].Subject)
}

func TestSendMessageSenderName(t *testing.T) {
	s := newTestServer(t, nil)
	sender := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	receiver := loginWithCharacter(t, s, "bravo", "hunter2", "Dray")

	resp := s.Dispatch(sender, "send_message", map[string]any{
		"recipient": "Dray", "subject": "Tip", "body": "Grain is cheap on Silverholt.",
		"sender_name": "An Anonymous Friend",
	})
	require.True(t, resp.succeeded())
	require.True(t, s.Dispatch(receiver, "get_player_info", nil).succeeded())

	require.Len(t, receiver.Game.Player.Messages, 1)
	assert.Equal(t, "An Anonymous Friend", receiver.Game.Player.Messages[0].Sender)
}

func TestMessageRules(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")

	t.Run("unknown recipients are refused", func(t *testing.T) {
		resp := s.Dispatch(sess, "send_message", map[string]any{
			"recipient": "Ghost", "subject": "hi", "body": "hi",
		})
		assert.False(t, resp.succeeded())
	})

	t.Run("read and delete", func(t *testing.T) {
		other := loginWithCharacter(t, s, "bravo", "hunter2", "Dray")
		resp := s.Dispatch(other, "send_message", map[string]any{
			"recipient": "Riggs", "subject": "ping", "body": "pong",
		})
		require.True(t, resp.succeeded())
		require.True(t, s.Dispatch(sess, "get_player_info", nil).succeeded())
		require.NotEmpty(t, sess.Game.Player.Messages)
		id := sess.Game.Player.Messages[len(sess.Game.Player.Messages)-1].ID

		resp = s.Dispatch(sess, "mark_message_read", map[string]any{"message_id": id})
		require.True(t, resp.succeeded())
		assert.Equal(t, 0, resp["unread"])

		resp = s.Dispatch(sess, "delete_message", map[string]any{"message_id": id})
		require.True(t, resp.succeeded())
		assert.Empty(t, sess.Game.Player.Messages)
	})
}

func TestGetOtherPlayers(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	other := loginWithCharacter(t, s, "bravo", "hunter2", "Dray")
	require.True(t, s.Dispatch(other, "save_game", nil).succeeded())
	require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())
	require.True(t, s.Dispatch(other, "logout_commander", nil).succeeded())

	resp := s.Dispatch(sess, "get_other_players", nil)
	require.True(t, resp.succeeded())
	players := resp["players"].([]Response)
	require.Len(t, players, 1)
	assert.Equal(t, "Dray", players[0]["name"])
	assert.Equal(t, false, players[0]["online"])
}

func TestGetOtherPlayersSortsCaseInsensitively(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	for account, name := range map[string]string{
		"bravo":   "ash Kato",
		"charlie": "Bell Ward",
		"delta":   "adder Quin",
	} {
		other := loginWithCharacter(t, s, account, "hunter2", name)
		require.True(t, s.Dispatch(other, "save_game", nil).succeeded())
	}

	resp := s.Dispatch(sess, "get_other_players", nil)
	require.True(t, resp.succeeded())
	players := resp["players"].([]Response)
	require.Len(t, players, 3)
	assert.Equal(t, "adder Quin", players[0]["name"])
	assert.Equal(t, "ash Kato", players[1]["name"])
	assert.Equal(t, "Bell Ward", players[2]["name"])
}

func TestMarkGalacticNewsSeenPersists(t *testing.T) {
	s := newTestServer(t, nil)
	sess := loginWithCharacter(t, s, "alfa", "hunter2", "Riggs")
	require.Zero(t, sess.Game.Player.LastSeenNewsTimestamp)

	require.True(t, s.Dispatch(sess, "mark_galactic_news_seen", nil).succeeded())

	// The watermark survives without an explicit save_game.
	snap, err := readCharacterSnapshot(s.accounts.CharacterPath(sess.AccountSafe, sess.CharacterSafe))
	require.NoError(t, err)
	assert.Greater(t, snap.Player.LastSeenNewsTimestamp, 0.0)
}
