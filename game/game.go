package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SharedPlanetState is the slice of a planet owned by the shared universe
// store: ownership, garrison and treasury. Per-character saves never carry
// these fields authoritatively.
type SharedPlanetState struct {
	Owner                  string  `json:"owner,omitempty"`
	Defenders              int     `json:"defenders"`
	Shields                int     `json:"shields"`
	MaxShields             int     `json:"max_shields"`
	Population             int     `json:"population,omitempty"`
	CreditBalance          int     `json:"credit_balance"`
	CreditsInitialized     bool    `json:"credits_initialized"`
	LastCreditInterestTime float64 `json:"last_credit_interest_time,omitempty"`
	LastDefenseRegenTime   float64 `json:"last_defense_regen_time,omitempty"`
}

// UniverseStore linearizes shared planet state across sessions.
type UniverseStore interface {
	LoadStates() (map[string]SharedPlanetState, error)
	// Mutate runs fn under the store lock on the freshest states and
	// persists the result atomically.
	Mutate(fn func(states map[string]SharedPlanetState) error) error
}

// Game is the per-character aggregate: the player, the mirrored universe,
// per-character economy state and the active combat session. One session
// owns one Game.
type Game struct {
	cfg *Config
	log zerolog.Logger

	Catalog *ItemCatalog
	Ships   *ShipCatalog
	Planets map[string]*Planet

	Player            *Player
	CurrentPlanetName string

	Shipping      map[string]*ShippingState
	Heat          map[string]int
	HeatUpdatedAt map[string]float64
	Bribes        map[string]*BribeStatus

	ActiveContract *Contract
	Events         map[string]*PlanetEvent
	Spotlights     map[string]*PortSpotlight
	Combat         *CombatSession

	// OrbitNPCs are rolled per arrival and live until the next jump.
	OrbitNPCs []TargetStats

	// RNG and Clock are injectable for deterministic tests.
	RNG   *rand.Rand
	Clock func() time.Time

	Universe UniverseStore

	// universeBase is the shared-field projection of every planet as of
	// the last sync. Publishing compares against it so a save only
	// writes planets this session actually changed.
	universeBase map[string]SharedPlanetState

	// SaveDir is where this character's save file lives. The server points
	// it at the account's directory once the character is linked.
	SaveDir       string
	AccountSafe   string
	CharacterSafe string
}

// NewGame builds a Game around shared catalogs and a universe store.
// The player is nil until NewCommander or LoadCharacter runs.
func NewGame(cfg *Config, log zerolog.Logger, catalog *ItemCatalog, ships *ShipCatalog,
	universe UniverseStore, rng *rand.Rand) (*Game, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	planets, err := GeneratePlanets(cfg.DataDir, catalog, rng)
	if err != nil {
		return nil, fmt.Errorf("generate planets: %w", err)
	}
	g := &Game{
		cfg:           cfg,
		log:           log,
		Catalog:       catalog,
		Ships:         ships,
		Planets:       planets,
		Shipping:      make(map[string]*ShippingState),
		Heat:          make(map[string]int),
		HeatUpdatedAt: make(map[string]float64),
		Bribes:        make(map[string]*BribeStatus),
		Events:        make(map[string]*PlanetEvent),
		Spotlights:    make(map[string]*PortSpotlight),
		RNG:           rng,
		Clock:         time.Now,
		Universe:      universe,
	}
	if err := g.SyncFromUniverse(); err != nil {
		return nil, err
	}
	return g, nil
}

// Config exposes the loaded tunables.
func (g *Game) Config() *Config { return g.cfg }

// Now is the wall clock in unix seconds. All timers compare against it.
func (g *Game) Now() float64 {
	return float64(g.Clock().UnixNano()) / float64(time.Second)
}

// CurrentPlanet returns the docked planet, nil before new_game/load.
func (g *Game) CurrentPlanet() *Planet {
	return g.Planets[g.CurrentPlanetName]
}

// ShipLevel ranks the player's hull within the catalog.
func (g *Game) ShipLevel() int {
	if g.Player == nil || g.Player.Ship == nil {
		return 1
	}
	return g.Ships.Level(g.Player.Ship.Model)
}

// NewCommander starts a fresh character on the starting planet with the
// starting hull.
func (g *Game) NewCommander(name string) error {
	ship, ok := g.Ships.Template(g.cfg.StartingShip)
	if !ok {
		return fmt.Errorf("starting ship %q not in catalog", g.cfg.StartingShip)
	}
	if g.cfg.StartingFuel > 0 && g.cfg.StartingFuel < ship.MaxFuel {
		ship.Fuel = g.cfg.StartingFuel
	}
	g.Player = NewPlayer(name, g.cfg.StartingCredits, ship)
	g.CurrentPlanetName = g.cfg.StartingPlanet
	if g.CurrentPlanet() == nil {
		// Data file changed under us; dock anywhere rather than nowhere.
		for planetName := range g.Planets {
			g.CurrentPlanetName = planetName
			break
		}
	}
	now := g.Now()
	g.Player.LastCrewPayTime = now
	g.Player.LastCommanderStipendTime = now
	g.Player.LastBankInterestTime = now
	g.RefreshContract()
	g.RollOrbitNPCs()
	return nil
}

// sharedStateOf projects a planet's store-owned fields.
func sharedStateOf(p *Planet) SharedPlanetState {
	return SharedPlanetState{
		Owner:                  p.Owner,
		Defenders:              p.Defenders,
		Shields:                p.Shields,
		MaxShields:             p.MaxShields,
		Population:             p.Population,
		CreditBalance:          p.CreditBalance,
		CreditsInitialized:     p.CreditsInitialized,
		LastCreditInterestTime: p.LastCreditInterestTime,
		LastDefenseRegenTime:   p.LastDefenseRegenTime,
	}
}

// SyncFromUniverse overlays shared planet state onto the mirror and
// rebaselines the publish diff.
func (g *Game) SyncFromUniverse() error {
	if g.Universe == nil {
		return nil
	}
	states, err := g.Universe.LoadStates()
	if err != nil {
		return fmt.Errorf("load universe states: %w", err)
	}
	for name, st := range states {
		p := g.Planets[name]
		if p == nil {
			continue
		}
		p.Owner = st.Owner
		p.Defenders = st.Defenders
		p.Shields = st.Shields
		if st.MaxShields > 0 {
			p.MaxShields = st.MaxShields
		}
		if st.Population > 0 {
			p.Population = st.Population
		}
		p.CreditBalance = st.CreditBalance
		p.CreditsInitialized = st.CreditsInitialized
		p.LastCreditInterestTime = st.LastCreditInterestTime
		p.LastDefenseRegenTime = st.LastDefenseRegenTime
	}
	g.universeBase = make(map[string]SharedPlanetState, len(g.Planets))
	for name, p := range g.Planets {
		g.universeBase[name] = sharedStateOf(p)
	}
	return nil
}

// PublishToUniverse writes changed planets back through the store's
// serialized mutator. Planets untouched since the last sync are left
// alone, so a routine save cannot clobber conquests or treasury moves
// other sessions committed in the meantime.
func (g *Game) PublishToUniverse() error {
	if g.Universe == nil {
		return nil
	}
	return g.Universe.Mutate(func(states map[string]SharedPlanetState) error {
		for name, p := range g.Planets {
			cur := sharedStateOf(p)
			if base, synced := g.universeBase[name]; synced && base == cur {
				continue
			}
			states[name] = cur
			g.universeBase[name] = cur
		}
		return nil
	})
}

// CharacterSave is the on-disk shape of one commander snapshot.
type CharacterSave struct {
	AccountName       string  `json:"account_name,omitempty"`
	CharacterName     string  `json:"character_name"`
	LastSaveTimestamp float64 `json:"last_save_timestamp"`

	Player        *Player `json:"player"`
	CurrentPlanet string  `json:"current_planet"`

	Shipping      map[string]*ShippingState `json:"shipping,omitempty"`
	Heat          map[string]int            `json:"heat,omitempty"`
	HeatUpdatedAt map[string]float64        `json:"heat_updated_at,omitempty"`
	Bribes        map[string]*BribeStatus   `json:"bribes,omitempty"`

	ActiveContract *Contract                 `json:"active_contract,omitempty"`
	Events         map[string]*PlanetEvent   `json:"events,omitempty"`
	Spotlights     map[string]*PortSpotlight `json:"spotlights,omitempty"`
}

// SavePath is the character file this Game reads and writes.
func (g *Game) SavePath() string {
	return filepath.Join(g.SaveDir, g.CharacterSafe+".json")
}

// SaveGame snapshots the character to disk (atomic replace) and publishes
// shared planet state to the universe store.
func (g *Game) SaveGame() error {
	if g.Player == nil {
		return fmt.Errorf("no player loaded")
	}
	if g.SaveDir == "" || g.CharacterSafe == "" {
		return fmt.Errorf("save location not set")
	}
	snap := CharacterSave{
		AccountName:       g.AccountSafe,
		CharacterName:     g.Player.Name,
		LastSaveTimestamp: g.Now(),
		Player:            g.Player,
		CurrentPlanet:     g.CurrentPlanetName,
		Shipping:          g.Shipping,
		Heat:              g.Heat,
		HeatUpdatedAt:     g.HeatUpdatedAt,
		Bribes:            g.Bribes,
		ActiveContract:    g.ActiveContract,
		Events:            g.Events,
		Spotlights:        g.Spotlights,
	}
	if err := writeJSONAtomic(g.SavePath(), &snap); err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	if err := g.PublishToUniverse(); err != nil {
		return fmt.Errorf("publish universe: %w", err)
	}
	return nil
}

// LoadCharacter restores a commander snapshot from disk. Shared planet
// fields come from the universe store, never from the save.
func (g *Game) LoadCharacter(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	var snap CharacterSave
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parse save %s: %w", path, err)
	}
	if snap.Player == nil {
		return fmt.Errorf("save %s has no player record", path)
	}
	g.Player = snap.Player
	g.Player.NormalizeInventory()
	if g.Player.Crew == nil {
		g.Player.Crew = make(map[string]*CrewMember)
	}
	g.CurrentPlanetName = snap.CurrentPlanet
	if g.CurrentPlanet() == nil {
		g.CurrentPlanetName = g.cfg.StartingPlanet
	}
	if snap.Shipping != nil {
		g.Shipping = snap.Shipping
	}
	if snap.Heat != nil {
		g.Heat = snap.Heat
	}
	if snap.HeatUpdatedAt != nil {
		g.HeatUpdatedAt = snap.HeatUpdatedAt
	}
	if snap.Bribes != nil {
		g.Bribes = snap.Bribes
	}
	g.ActiveContract = snap.ActiveContract
	if snap.Events != nil {
		g.Events = snap.Events
	}
	if snap.Spotlights != nil {
		g.Spotlights = snap.Spotlights
	}
	if err := g.SyncFromUniverse(); err != nil {
		return err
	}
	g.RollOrbitNPCs()
	return nil
}

// npcShipNames seed the orbit traffic generator.
var npcShipNames = []string{
	"Vulture's Share", "Pale Harbinger", "Long Odds", "Carrion Crow",
	"Second Mortgage", "Dust Devil", "Iron Promise", "Stray Signal",
	"Last Legal Tender", "Half Moon Runner", "Debt Collector", "Quiet Cargo",
}

// RollOrbitNPCs repopulates orbit traffic at the current planet: 0–3 NPC
// hulls, sized to the local security posture.
func (g *Game) RollOrbitNPCs() {
	g.OrbitNPCs = g.OrbitNPCs[:0]
	p := g.CurrentPlanet()
	if p == nil {
		return
	}
	count := g.RNG.Intn(4)
	models := g.Ships.Models()
	for i := 0; i < count; i++ {
		model := models[g.RNG.Intn(len(models))]
		tmpl, _ := g.Ships.Template(model)
		hostile := g.RNG.Float64() < 0.35
		if p.SecurityLevel == SecurityHigh {
			hostile = g.RNG.Float64() < 0.10
		}
		npc := TargetStats{
			Name:      npcShipNames[g.RNG.Intn(len(npcShipNames))],
			Type:      TargetNPC,
			ShipModel: model,
			Credits:   300 + g.RNG.Intn(1200)*g.Ships.Level(model),
			Shields:   tmpl.StartingShields,
			Defenders: tmpl.StartingDefenders,
			Integrity: tmpl.MaxIntegrity,
			Hostile:   hostile,
			Inventory: map[string]int{},
		}
		for _, item := range p.MarketItems() {
			if g.RNG.Float64() < 0.4 {
				npc.Inventory[item] = 1 + g.RNG.Intn(5)
			}
		}
		g.OrbitNPCs = append(g.OrbitNPCs, npc)
	}
}

// FindOrbitNPC returns the orbit NPC with the given name.
func (g *Game) FindOrbitNPC(name string) *TargetStats {
	for i := range g.OrbitNPCs {
		if g.OrbitNPCs[i].Name == name {
			return &g.OrbitNPCs[i]
		}
	}
	return nil
}

// writeJSONAtomic writes via temp file + rename so readers never observe
// a partial file.
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
