package store

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sectornet/commander-server/game"
)

// universeDoc is the on-disk shape of saves/universe_planets.json.
type universeDoc struct {
	UpdatedAt    float64                           `json:"updated_at"`
	PlanetStates map[string]game.SharedPlanetState `json:"planet_states"`
}

// UniverseFile is the shared planet-state store: one JSON file, writers
// serialized by an in-process mutex around load → mutate → save.
type UniverseFile struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewUniverseFile points the store at its backing file.
func NewUniverseFile(path string, log zerolog.Logger) *UniverseFile {
	return &UniverseFile{path: path, log: log}
}

func (u *UniverseFile) load() (*universeDoc, error) {
	doc := &universeDoc{PlanetStates: make(map[string]game.SharedPlanetState)}
	if err := readJSON(u.path, doc); err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	if doc.PlanetStates == nil {
		doc.PlanetStates = make(map[string]game.SharedPlanetState)
	}
	return doc, nil
}

// LoadStates returns a copy of the shared planet states.
func (u *UniverseFile) LoadStates() (map[string]game.SharedPlanetState, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	doc, err := u.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]game.SharedPlanetState, len(doc.PlanetStates))
	for name, st := range doc.PlanetStates {
		out[name] = st
	}
	return out, nil
}

// Mutate runs fn on the freshest states under the store lock and persists
// the result atomically.
func (u *UniverseFile) Mutate(fn func(states map[string]game.SharedPlanetState) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	doc, err := u.load()
	if err != nil {
		return err
	}
	if err := fn(doc.PlanetStates); err != nil {
		return err
	}
	doc.UpdatedAt = float64(time.Now().UnixNano()) / float64(time.Second)
	if err := writeJSON(u.path, doc); err != nil {
		return fmt.Errorf("write universe file: %w", err)
	}
	return nil
}

// Reset restores every planet to unowned with base defenses, in one write.
func (u *UniverseFile) Reset(planets map[string]*game.Planet) error {
	return u.Mutate(func(states map[string]game.SharedPlanetState) error {
		for name := range states {
			delete(states, name)
		}
		for name, p := range planets {
			states[name] = game.SharedPlanetState{
				Defenders:  p.BaseDefenders,
				Shields:    p.BaseShields,
				MaxShields: p.MaxShields,
				Population: p.Population,
			}
		}
		return nil
	})
}
