package game

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testClock is a settable wall clock for timer-driven mechanics.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestGame builds a Game from built-in catalogs with a seeded RNG and a
// frozen clock, docked at the starting planet with a fresh commander.
func newTestGame(t *testing.T, seed int64) (*Game, *testClock) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "nodata")

	catalog, err := LoadItemCatalog(cfg.DataDir)
	require.NoError(t, err)
	ships, err := LoadShipCatalog(cfg.DataDir)
	require.NoError(t, err)

	g, err := NewGame(cfg, zerolog.Nop(), catalog, ships, nil, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)

	clk := &testClock{now: time.Unix(1_700_000_000, 0)}
	g.Clock = clk.Now

	require.NoError(t, g.NewCommander("Test Commander"))
	return g, clk
}
