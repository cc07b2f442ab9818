package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectornet/commander-server/game"
)

func newTestUniverse(t *testing.T) *UniverseFile {
	t.Helper()
	return NewUniverseFile(filepath.Join(t.TempDir(), "universe_planets.json"), zerolog.Nop())
}

func TestUniverseRoundtrip(t *testing.T) {
	u := newTestUniverse(t)

	states, err := u.LoadStates()
	require.NoError(t, err)
	assert.Empty(t, states, "missing file reads as empty universe")

	err = u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["Rust Haven"] = game.SharedPlanetState{Owner: "Vex", Defenders: 12, Shields: 40}
		return nil
	})
	require.NoError(t, err)

	states, err = u.LoadStates()
	require.NoError(t, err)
	require.Contains(t, states, "Rust Haven")
	assert.Equal(t, "Vex", states["Rust Haven"].Owner)
	assert.Equal(t, 12, states["Rust Haven"].Defenders)
}

func TestUniverseLoadStatesReturnsCopy(t *testing.T) {
	u := newTestUniverse(t)
	require.NoError(t, u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["The Sprawl"] = game.SharedPlanetState{Defenders: 5}
		return nil
	}))

	states, err := u.LoadStates()
	require.NoError(t, err)
	states["The Sprawl"] = game.SharedPlanetState{Defenders: 99}
	delete(states, "The Sprawl")

	fresh, err := u.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, 5, fresh["The Sprawl"].Defenders)
}

func TestUniverseMutateSerializesWriters(t *testing.T) {
	u := newTestUniverse(t)
	const writers = 8
	const bumps = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < bumps; j++ {
				_ = u.Mutate(func(states map[string]game.SharedPlanetState) error {
					st := states["Krull's Landing"]
					st.Defenders++
					states["Krull's Landing"] = st
					return nil
				})
			}
		}()
	}
	wg.Wait()

	states, err := u.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, writers*bumps, states["Krull's Landing"].Defenders)
}

func TestUniverseMutateErrorDiscardsChanges(t *testing.T) {
	u := newTestUniverse(t)
	require.NoError(t, u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["New Terra"] = game.SharedPlanetState{Shields: 30}
		return nil
	}))

	err := u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["New Terra"] = game.SharedPlanetState{Shields: 999}
		return assert.AnError
	})
	require.Error(t, err)

	states, err := u.LoadStates()
	require.NoError(t, err)
	assert.Equal(t, 30, states["New Terra"].Shields)
}

func TestUniverseReset(t *testing.T) {
	u := newTestUniverse(t)
	require.NoError(t, u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["Night Market"] = game.SharedPlanetState{
			Owner: "Vex", Defenders: 1, Shields: 2, CreditBalance: 5000, CreditsInitialized: true,
		}
		states["Ghost Colony"] = game.SharedPlanetState{Owner: "Vex"}
		return nil
	}))

	planets := map[string]*game.Planet{
		"Night Market": {
			Name: "Night Market", BaseDefenders: 20, BaseShields: 60,
			MaxShields: 80, Population: 40000,
		},
	}
	require.NoError(t, u.Reset(planets))

	states, err := u.LoadStates()
	require.NoError(t, err)
	assert.NotContains(t, states, "Ghost Colony", "planets outside the catalog drop on reset")
	st := states["Night Market"]
	assert.Empty(t, st.Owner)
	assert.Equal(t, 20, st.Defenders)
	assert.Equal(t, 60, st.Shields)
	assert.Equal(t, 80, st.MaxShields)
	assert.Equal(t, 0, st.CreditBalance)
	assert.False(t, st.CreditsInitialized)
}

func TestUniverseNoPartialFiles(t *testing.T) {
	u := newTestUniverse(t)
	require.NoError(t, u.Mutate(func(states map[string]game.SharedPlanetState) error {
		states["New Terra"] = game.SharedPlanetState{Defenders: 1}
		return nil
	}))

	entries, err := os.ReadDir(filepath.Dir(u.path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp files must not linger")
	}
}
