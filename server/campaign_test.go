package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectornet/commander-server/game"
)

func TestPlanetConquestTransfer(t *testing.T) {
	s := newTestServer(t, nil)
	loser := loginWithCharacter(t, s, "holdout", "hunter2", "Baron Klee")
	winner := loginWithCharacter(t, s, "raider", "hunter2", "Red Sela")

	g := winner.Game
	target := g.Planets["Ashfall"]
	require.NotNil(t, target)
	target.Owner = "Baron Klee"
	target.Defenders = 0
	target.Shields = 0

	s.transferPlanet(winner, g, "Ashfall")

	assert.Equal(t, "Red Sela", target.Owner)
	assert.Contains(t, g.Player.OwnedPlanets, "Ashfall")

	// The change is linearized through the shared universe file.
	states, err := s.universe.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, "Red Sela", states["Ashfall"].Owner)

	// The previous owner hears about it on their next action, and so
	// does the galaxy.
	require.True(t, s.Dispatch(loser, "get_player_info", nil).succeeded())
	require.NotEmpty(t, loser.Game.Player.Messages)
	assert.Contains(t, loser.Game.Player.Messages[0].Subject, "Ashfall")
	news := s.news.Recent("Red Sela", 1)
	require.NotEmpty(t, news)
	assert.Contains(t, news[len(news)-1].Headline, "Ashfall")
}

func TestRoutineSaveDoesNotRevertConquest(t *testing.T) {
	s := newTestServer(t, nil)
	alice := loginWithCharacter(t, s, "vanguard", "hunter2", "Alice Vane")
	bob := loginWithCharacter(t, s, "drifter", "hunter2", "Bob Ashe")

	require.NotNil(t, alice.Game.Planets["Ashfall"])
	s.transferPlanet(alice, alice.Game, "Ashfall")

	states, err := s.universe.LoadStates()
	require.NoError(t, err)
	require.Equal(t, "Alice Vane", states["Ashfall"].Owner)

	// Bob loaded before the conquest; his routine save publishes only
	// the planets he touched, never his stale mirror of Ashfall.
	require.True(t, s.Dispatch(bob, "save_game", nil).succeeded())

	states, err = s.universe.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, "Alice Vane", states["Ashfall"].Owner)
}

func TestSpecialWeaponConquestSettles(t *testing.T) {
	s := newTestServer(t, func(cfg *game.Config) { cfg.EnableSpecialWeapons = true })
	sess := loginWithCharacter(t, s, "lance", "hunter2", "Vex Harrow")
	g := sess.Game
	g.Player.Ship.SpecialWeapon = "Orbital Lance"

	p := g.CurrentPlanet()
	require.NotNil(t, p)
	p.Owner = "Baron Klee"
	p.Shields = 1
	p.Defenders = 0
	p.CreditBalance = 2000

	resp := s.Dispatch(sess, "start_combat_session", map[string]any{"target_name": p.Name})
	require.True(t, resp.succeeded(), "start failed: %v", resp)

	var victory *game.CombatOutcome
	for i := 0; i < 50 && victory == nil; i++ {
		resp = s.Dispatch(sess, "fire_special_weapon", nil)
		require.True(t, resp.succeeded(), "fire failed: %v", resp)
		victory = resp["result"].(*game.SpecialWeaponResult).Victory
		if victory == nil {
			g.Player.LastSpecialWeaponTime = 0
		}
	}
	require.NotNil(t, victory, "no strike broke a 1-point shield in 50 attempts")
	assert.True(t, victory.PlanetCaptured)

	// The win settles like any other conquest: mirror, universe file,
	// and a terminal session.
	assert.Equal(t, "Vex Harrow", p.Owner)
	states, err := s.universe.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, "Vex Harrow", states[p.Name].Owner)
	resp = s.Dispatch(sess, "resolve_combat_round", nil)
	assert.False(t, resp.succeeded())
}

func TestDefeatedPlayerWriteBackOffline(t *testing.T) {
	s := newTestServer(t, nil)
	victim := loginWithCharacter(t, s, "prey", "hunter2", "Moth")
	victim.Game.Player.Credits = 900
	victim.Game.Player.AddItem("Iridium Ore", 5)
	require.True(t, s.Dispatch(victim, "save_game", nil).succeeded())
	victimAccount := victim.AccountSafe
	victimChar := victim.CharacterSafe
	require.True(t, s.Dispatch(victim, "logout_commander", nil).succeeded())

	attacker := loginWithCharacter(t, s, "wolf", "hunter2", "Fang")
	cs := &game.CombatSession{
		TargetType: game.TargetPlayer,
		Target: game.TargetStats{
			Name:          "Moth",
			Type:          game.TargetPlayer,
			AccountSafe:   victimAccount,
			CharacterSafe: victimChar,
		},
	}
	s.writeBackDefeatedPlayer(attacker, cs, &game.CombatOutcome{
		CreditsDelta: 300,
		LootedItems:  map[string]int{"Iridium Ore": 2},
	})

	snap, err := readCharacterSnapshot(s.accounts.CharacterPath(victimAccount, victimChar))
	require.NoError(t, err)
	assert.Equal(t, 600, snap.Player.Credits)
	assert.Equal(t, 3, snap.Player.ItemCount("Iridium Ore"))
	require.NotEmpty(t, snap.Player.Messages)
	assert.Equal(t, "Fang", snap.Player.Messages[len(snap.Player.Messages)-1].Sender)
}

func TestCampaignVictoryAndReset(t *testing.T) {
	s := newTestServer(t, func(cfg *game.Config) { cfg.VictoryResetDays = 0 })
	sess := loginWithCharacter(t, s, "empire", "hunter2", "Overlord Nyx")
	g := sess.Game

	// Holding under the threshold declares nothing.
	require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())
	assert.Nil(t, s.winner.Load().CurrentWinner)

	// A second commander saves and signs off before the crown drops.
	bystander := loginWithCharacter(t, s, "lurker", "hunter2", "Silent Jo")
	bystanderAccount := bystander.AccountSafe
	bystanderChar := bystander.CharacterSafe
	require.True(t, s.Dispatch(bystander, "save_game", nil).succeeded())
	require.True(t, s.Dispatch(bystander, "logout_commander", nil).succeeded())

	owned := 0
	for _, p := range g.Planets {
		if owned*2 >= len(g.Planets)+2 {
			break
		}
		p.Owner = g.Player.Name
		g.Player.OwnedPlanets[p.Name] = g.Now()
		owned++
	}
	require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())

	board := s.winner.Load()
	require.NotNil(t, board.CurrentWinner)
	assert.Equal(t, "Overlord Nyx", board.CurrentWinner.CharacterName)
	assert.Equal(t, owned, board.CurrentWinner.PlanetsOwned)
	assert.NotZero(t, board.ScheduledResetTS)

	// Offline commanders hear about the campaign ending too.
	snap, err := readCharacterSnapshot(s.accounts.CharacterPath(bystanderAccount, bystanderChar))
	require.NoError(t, err)
	require.NotEmpty(t, snap.Player.Messages)
	assert.Equal(t, "Campaign over", snap.Player.Messages[len(snap.Player.Messages)-1].Subject)

	// A second qualifying save does not dethrone the standing winner.
	first := *board.CurrentWinner
	require.True(t, s.Dispatch(sess, "save_game", nil).succeeded())
	assert.Equal(t, first.DeclaredAt, s.winner.Load().CurrentWinner.DeclaredAt)

	// With zero reset days the schedule is already due: the next reset
	// sweep rebuilds the universe and purges commander saves.
	savePath := s.accounts.CharacterPath(sess.AccountSafe, sess.CharacterSafe)
	require.NoError(t, s.runScheduledResetIfDue())

	_, err = os.Stat(savePath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.accounts.AccountDir(sess.AccountSafe), "ACCOUNT.json"))
	assert.NoError(t, err, "auth records survive the reset")

	board = s.winner.Load()
	assert.Nil(t, board.CurrentWinner)
	assert.Zero(t, board.ScheduledResetTS)
	require.Len(t, board.History, 1)
	assert.Equal(t, "Overlord Nyx", board.History[0].CharacterName)

	states, err := s.universe.LoadStates()
	require.NoError(t, err)
	for name, st := range states {
		assert.Empty(t, st.Owner, "planet %s still owned after reset", name)
	}

	// Running the sweep again with nothing scheduled is a no-op.
	lastReset := board.LastResetTS
	require.NoError(t, s.runScheduledResetIfDue())
	assert.Equal(t, lastReset, s.winner.Load().LastResetTS)
	assert.Len(t, s.winner.Load().History, 1)
}
