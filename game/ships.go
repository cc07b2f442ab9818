package game

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Ship role tags.
const (
	RoleHauler      = "Hauler"
	RoleInterceptor = "Interceptor"
	RoleSiege       = "Siege"
	RoleRunner      = "Runner"
)

// Installable module names.
const (
	ModuleScanner        = "scanner"
	ModuleJammer         = "jammer"
	ModuleCargoOptimizer = "cargo_optimizer"
)

// Fixed coefficients for derived ship stats.
const (
	haulerCargoBonus      = 0.25
	optimizerCargoBonus   = 0.15
	runnerBurnFactor      = 0.85
	interceptorPowerBonus = 0.20
	siegePowerBonus       = 0.15
	jammerEvasionFactor   = 0.80
	runnerEvasionFactor   = 0.90
	scannerEvasionFactor  = 0.95
)

// Spaceship is the player's (or an NPC's) hull, mutated in place by
// repair/upgrade/damage and replaced wholesale by buy_ship.
type Spaceship struct {
	Model string `json:"model"`
	Cost  int    `json:"cost"`

	StartingCargoPods int `json:"starting_cargo_pods"`
	MaxCargoPods      int `json:"max_cargo_pods"`
	CargoPods         int `json:"cargo_pods"`

	StartingShields int `json:"starting_shields"`
	MaxShields      int `json:"max_shields"`
	Shields         int `json:"shields"`

	StartingDefenders int `json:"starting_defenders"`
	MaxDefenders      int `json:"max_defenders"`
	Defenders         int `json:"defenders"`

	Integrity    int `json:"integrity"`
	MaxIntegrity int `json:"max_integrity"`

	Fuel         int     `json:"fuel"`
	MaxFuel      int     `json:"max_fuel"`
	FuelBurnRate float64 `json:"fuel_burn_rate"`

	SpecialWeapon string `json:"special_weapon,omitempty"`

	RoleTags         []string       `json:"role_tags,omitempty"`
	ModuleSlots      int            `json:"module_slots"`
	InstalledModules []string       `json:"installed_modules,omitempty"`
	CrewSlots        map[string]int `json:"crew_slots,omitempty"`

	LastRefuelTime float64 `json:"last_refuel_time,omitempty"`
}

// HasRole reports whether the ship carries the given role tag.
func (s *Spaceship) HasRole(role string) bool {
	for _, tag := range s.RoleTags {
		if tag == role {
			return true
		}
	}
	return false
}

// HasModule reports whether the named module is installed.
func (s *Spaceship) HasModule(name string) bool {
	for _, m := range s.InstalledModules {
		if m == name {
			return true
		}
	}
	return false
}

// InstallModule fits a module if a slot is free and it is not a duplicate.
func (s *Spaceship) InstallModule(name string) error {
	switch name {
	case ModuleScanner, ModuleJammer, ModuleCargoOptimizer:
	default:
		return fmt.Errorf("unknown module %q", name)
	}
	if s.HasModule(name) {
		return fmt.Errorf("module %s already installed", name)
	}
	if len(s.InstalledModules) >= s.ModuleSlots {
		return fmt.Errorf("no free module slots")
	}
	s.InstalledModules = append(s.InstalledModules, name)
	return nil
}

// EffectiveMaxCargo is the cargo capacity after role and module bonuses.
func (s *Spaceship) EffectiveMaxCargo() int {
	capacity := float64(s.CargoPods)
	if s.HasRole(RoleHauler) {
		capacity *= 1 + haulerCargoBonus
	}
	if s.HasModule(ModuleCargoOptimizer) {
		capacity *= 1 + optimizerCargoBonus
	}
	return int(capacity)
}

// EffectiveFuelBurn is the burn rate after role bonuses.
func (s *Spaceship) EffectiveFuelBurn() float64 {
	burn := s.FuelBurnRate
	if s.HasRole(RoleRunner) {
		burn *= runnerBurnFactor
	}
	return burn
}

// CombatPowerMultiplier scales attack rolls in combat.
func (s *Spaceship) CombatPowerMultiplier() float64 {
	mult := 1.0
	if s.HasRole(RoleInterceptor) {
		mult += interceptorPowerBonus
	}
	if s.HasRole(RoleSiege) {
		mult += siegePowerBonus
	}
	return mult
}

// ScanEvasionMultiplier scales contraband detection probability downward.
// Lower is harder to scan.
func (s *Spaceship) ScanEvasionMultiplier() float64 {
	mult := 1.0
	if s.HasModule(ModuleJammer) {
		mult *= jammerEvasionFactor
	}
	if s.HasModule(ModuleScanner) {
		mult *= scannerEvasionFactor
	}
	if s.HasRole(RoleRunner) {
		mult *= runnerEvasionFactor
	}
	return mult
}

// RoleScores rates the hull per role from its current stats. Used by
// contract sizing and the ship broker display.
func (s *Spaceship) RoleScores() map[string]float64 {
	return map[string]float64{
		RoleHauler:      float64(s.EffectiveMaxCargo()),
		RoleInterceptor: float64(s.Defenders) * s.CombatPowerMultiplier(),
		RoleSiege:       float64(s.Shields) + float64(s.MaxIntegrity)/2,
		RoleRunner:      math.Max(0, 10-s.EffectiveFuelBurn()*10) + float64(s.MaxFuel)/10,
	}
}

// Upgrade install semantics: each unit consumed from cargo applies a fixed
// bump, capped at the hull maximum.
const (
	upgradeCargoPerPod      = 1
	upgradeShieldsPerUnit   = 10
	upgradeDefendersPerUnit = 1
	repairPerNanobotKit     = 50
)

// ApplyUpgrade applies up to qty units of the named upgrade item and
// returns how many units were actually consumed.
func (s *Spaceship) ApplyUpgrade(item string, qty int) int {
	if qty <= 0 {
		return 0
	}
	applied := 0
	switch CanonicalItemName(item) {
	case "Cargo Pods":
		for applied < qty && s.CargoPods+upgradeCargoPerPod <= s.MaxCargoPods {
			s.CargoPods += upgradeCargoPerPod
			applied++
		}
	case "Shield Emitters":
		for applied < qty && s.Shields+upgradeShieldsPerUnit <= s.MaxShields {
			s.Shields += upgradeShieldsPerUnit
			applied++
		}
	case "Defense Drones":
		for applied < qty && s.Defenders+upgradeDefendersPerUnit <= s.MaxDefenders {
			s.Defenders += upgradeDefendersPerUnit
			applied++
		}
	case "Nanobot Kits":
		for applied < qty && s.Integrity < s.MaxIntegrity {
			s.Integrity += repairPerNanobotKit
			if s.Integrity > s.MaxIntegrity {
				s.Integrity = s.MaxIntegrity
			}
			applied++
		}
	}
	return applied
}

// ShipCatalog is the purchasable hull table, cheapest first.
type ShipCatalog struct {
	templates []Spaceship
	byModel   map[string]int
}

// defaultShips seeds the catalog when data/ships.yaml is missing.
var defaultShips = []Spaceship{
	{
		Model: "Sparrow", Cost: 0,
		StartingCargoPods: 20, MaxCargoPods: 30,
		StartingShields: 20, MaxShields: 40,
		StartingDefenders: 2, MaxDefenders: 4,
		MaxIntegrity: 100, MaxFuel: 60, FuelBurnRate: 0.6,
		RoleTags: []string{RoleRunner}, ModuleSlots: 1,
		CrewSlots: map[string]int{SpecialtyEngineer: 1},
	},
	{
		Model: "Pack Mule", Cost: 8000,
		StartingCargoPods: 60, MaxCargoPods: 90,
		StartingShields: 30, MaxShields: 60,
		StartingDefenders: 3, MaxDefenders: 6,
		MaxIntegrity: 140, MaxFuel: 80, FuelBurnRate: 0.9,
		RoleTags: []string{RoleHauler}, ModuleSlots: 2,
		CrewSlots: map[string]int{SpecialtyEngineer: 1, SpecialtyWeapons: 1},
	},
	{
		Model: "Kestrel", Cost: 15000,
		StartingCargoPods: 35, MaxCargoPods: 50,
		StartingShields: 60, MaxShields: 100,
		StartingDefenders: 6, MaxDefenders: 10,
		MaxIntegrity: 160, MaxFuel: 90, FuelBurnRate: 0.8,
		RoleTags: []string{RoleInterceptor}, ModuleSlots: 2,
		CrewSlots: map[string]int{SpecialtyEngineer: 1, SpecialtyWeapons: 2},
	},
	{
		Model: "Bastion", Cost: 32000,
		StartingCargoPods: 50, MaxCargoPods: 80,
		StartingShields: 120, MaxShields: 200,
		StartingDefenders: 10, MaxDefenders: 16,
		MaxIntegrity: 240, MaxFuel: 110, FuelBurnRate: 1.1,
		SpecialWeapon: "Orbital Lance",
		RoleTags:      []string{RoleSiege}, ModuleSlots: 3,
		CrewSlots: map[string]int{SpecialtyEngineer: 2, SpecialtyWeapons: 2},
	},
	{
		Model: "Leviathan", Cost: 70000,
		StartingCargoPods: 90, MaxCargoPods: 140,
		StartingShields: 180, MaxShields: 300,
		StartingDefenders: 16, MaxDefenders: 24,
		MaxIntegrity: 320, MaxFuel: 140, FuelBurnRate: 1.4,
		SpecialWeapon: "Orbital Lance",
		RoleTags:      []string{RoleHauler, RoleSiege}, ModuleSlots: 4,
		CrewSlots: map[string]int{SpecialtyEngineer: 2, SpecialtyWeapons: 3},
	},
}

// LoadShipCatalog reads data/ships.yaml, falling back to built-ins.
func LoadShipCatalog(dataDir string) (*ShipCatalog, error) {
	templates := defaultShips
	path := filepath.Join(dataDir, "ships.yaml")
	if raw, err := os.ReadFile(path); err == nil {
		var loaded struct {
			Ships []Spaceship `yaml:"ships"`
		}
		if err := yaml.Unmarshal(raw, &loaded); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(loaded.Ships) > 0 {
			templates = loaded.Ships
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cat := &ShipCatalog{byModel: make(map[string]int, len(templates))}
	cat.templates = make([]Spaceship, len(templates))
	copy(cat.templates, templates)
	sort.SliceStable(cat.templates, func(i, j int) bool {
		return cat.templates[i].Cost < cat.templates[j].Cost
	})
	for i, t := range cat.templates {
		cat.byModel[t.Model] = i
	}
	return cat, nil
}

// Template returns a fresh ship built from the named template: current
// stats at starting values, full integrity, empty modules.
func (c *ShipCatalog) Template(model string) (*Spaceship, bool) {
	idx, ok := c.byModel[model]
	if !ok {
		return nil, false
	}
	ship := c.templates[idx]
	ship.CargoPods = ship.StartingCargoPods
	ship.Shields = ship.StartingShields
	ship.Defenders = ship.StartingDefenders
	ship.Integrity = ship.MaxIntegrity
	ship.Fuel = ship.MaxFuel
	ship.RoleTags = append([]string(nil), ship.RoleTags...)
	ship.InstalledModules = nil
	slots := make(map[string]int, len(ship.CrewSlots))
	for k, v := range ship.CrewSlots {
		slots[k] = v
	}
	ship.CrewSlots = slots
	return &ship, true
}

// Models returns all hull names, cheapest first.
func (c *ShipCatalog) Models() []string {
	out := make([]string, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Model
	}
	return out
}

// Templates returns copies of every hull template, cheapest first.
func (c *ShipCatalog) Templates() []Spaceship {
	out := make([]Spaceship, len(c.templates))
	copy(out, c.templates)
	return out
}

// Level ranks a hull 1..N by its position in the cost-sorted catalog.
// Unknown models rank 1.
func (c *ShipCatalog) Level(model string) int {
	if idx, ok := c.byModel[model]; ok {
		return idx + 1
	}
	return 1
}
