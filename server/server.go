package server

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sectornet/commander-server/game"
	"github.com/sectornet/commander-server/store"
)

// Server owns the shared stores and the online session registry. One
// instance serves every websocket session in the process.
type Server struct {
	cfg     *game.Config
	log     zerolog.Logger
	catalog *game.ItemCatalog
	ships   *game.ShipCatalog

	accounts  *store.AccountStore
	universe  *store.UniverseFile
	news      *store.NewsStore
	winner    *store.WinnerStore
	analytics *store.Analytics

	mu     sync.RWMutex
	online map[string]*Session // lowercased display name
}

// NewServer wires the stores under cfg.SavesRoot and runs any due
// campaign reset before the first session connects.
func NewServer(cfg *game.Config, log zerolog.Logger) (*Server, error) {
	catalog, err := game.LoadItemCatalog(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load item catalog: %w", err)
	}
	ships, err := game.LoadShipCatalog(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load ship catalog: %w", err)
	}
	accounts, err := store.NewAccountStore(cfg.SavesRoot, log)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		catalog:  catalog,
		ships:    ships,
		accounts: accounts,
		universe: store.NewUniverseFile(filepath.Join(cfg.SavesRoot, "universe_planets.json"), log),
		news:     store.NewNewsStore(filepath.Join(cfg.SavesRoot, "galactic_news.json"), cfg.NewsRetentionDays, log),
		winner:   store.NewWinnerStore(filepath.Join(cfg.SavesRoot, "winner_board.json"), log),
		analytics: store.NewAnalytics(filepath.Join(cfg.SavesRoot, "analytics_metrics.json"),
			cfg.AnalyticsMaxEvents, cfg.AnalyticsRetentionDays, cfg.AnalyticsFlushSeconds, log),
		online: make(map[string]*Session),
	}
	if err := s.runScheduledResetIfDue(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config exposes the loaded tunables.
func (s *Server) Config() *game.Config { return s.cfg }

// newGame builds a fresh Game over the shared stores, running the
// campaign reset first when one has come due.
func (s *Server) newGame(rng *rand.Rand) (*game.Game, error) {
	if err := s.runScheduledResetIfDue(); err != nil {
		s.log.Error().Err(err).Msg("campaign reset failed")
	}
	return game.NewGame(s.cfg, s.log, s.catalog, s.ships, s.universe, rng)
}

// registerOnline claims the display name for a session. Replaces any
// stale entry left by an unclean disconnect of the same commander.
func (s *Server) registerOnline(sess *Session) {
	if sess.PlayerDisplayName == "" {
		return
	}
	s.mu.Lock()
	s.online[strings.ToLower(sess.PlayerDisplayName)] = sess
	s.mu.Unlock()
}

// unregisterOnline drops the session from the registry if it still
// holds its name.
func (s *Server) unregisterOnline(sess *Session) {
	if sess.PlayerDisplayName == "" {
		return
	}
	key := strings.ToLower(sess.PlayerDisplayName)
	s.mu.Lock()
	if s.online[key] == sess {
		delete(s.online, key)
	}
	s.mu.Unlock()
}

// findOnline returns the live session for a commander display name.
func (s *Server) findOnline(displayName string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online[strings.ToLower(displayName)]
}

// onlineNames snapshots the registry for directory listings.
func (s *Server) onlineNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.online))
	for _, sess := range s.online {
		out = append(out, sess.PlayerDisplayName)
	}
	return out
}
