package server

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sectornet/commander-server/game"
)

// newTestServer builds a Server over temp directories with built-in
// catalogs. Tests drive it through Dispatch with synthetic sessions; no
// websocket is involved.
func newTestServer(t *testing.T, mutate func(cfg *game.Config)) *Server {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.SavesRoot = t.TempDir()
	cfg.DataDir = filepath.Join(t.TempDir(), "nodata")
	cfg.AssetsDir = filepath.Join(t.TempDir(), "assets")
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg, zerolog.Nop())
	require.NoError(t, err)
	return s
}

// newTestSession is a bare connected-but-anonymous session.
func newTestSession(s *Server) *Session {
	return &Session{server: s, log: zerolog.Nop()}
}

// loginWithCharacter runs the create_account + character flow and
// returns the live session.
func loginWithCharacter(t *testing.T, s *Server, account, password, character string) *Session {
	t.Helper()
	sess := newTestSession(s)
	resp := s.Dispatch(sess, "create_account", map[string]any{
		"account_name":   account,
		"password":       password,
		"character_name": character,
	})
	require.True(t, resp.succeeded(), "create_account failed: %v", resp)
	require.NotNil(t, sess.Game)
	require.NotNil(t, sess.Game.Player)
	return sess
}
