package game

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Security levels.
const (
	SecurityLow = iota
	SecurityMid
	SecurityHigh
)

// SmugglingEntry is one contraband listing on a planet's shadow market.
type SmugglingEntry struct {
	Modifier           int `json:"modifier"`
	Quantity           int `json:"quantity"`
	Tier               int `json:"tier"`
	BasePrice          int `json:"base_price"`
	RequiredBribeLevel int `json:"required_bribe_level"`
}

// Planet is shared world state. Ownership, garrisons and treasuries are
// authoritative in the shared universe store; per-character saves never
// override them on load.
type Planet struct {
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Population  int     `json:"population"`
	Description string  `json:"description"`

	Vendor        bool `json:"vendor"`
	Bank          bool `json:"bank"`
	CrewServices  bool `json:"crew_services"`
	IsSmugglerHub bool `json:"is_smuggler_hub"`

	NPCName        string `json:"npc_name"`
	NPCPersonality string `json:"npc_personality"`

	DockingFee    int `json:"docking_fee"`
	BribeCost     int `json:"bribe_cost"`
	SecurityLevel int `json:"security_level"`

	Owner         string `json:"owner,omitempty"`
	Defenders     int    `json:"defenders"`
	Shields       int    `json:"shields"`
	MaxDefenders  int    `json:"max_defenders"`
	MaxShields    int    `json:"max_shields"`
	BaseDefenders int    `json:"base_defenders"`
	BaseShields   int    `json:"base_shields"`

	CreditBalance          int     `json:"credit_balance"`
	CreditsInitialized     bool    `json:"credits_initialized"`
	LastCreditInterestTime float64 `json:"last_credit_interest_time,omitempty"`
	LastDefenseRegenTime   float64 `json:"last_defense_regen_time,omitempty"`

	RepairMultiplier *float64 `json:"repair_multiplier,omitempty"`

	// ItemModifiers is the percent-of-base price per market item; drifts
	// 85–115 on every sector jump.
	ItemModifiers map[string]int `json:"item_modifiers"`

	SmugglingInventory map[string]*SmugglingEntry `json:"smuggling_inventory,omitempty"`

	// Rendering hints for the client shell; opaque to the engine.
	SpriteHint string `json:"sprite_hint,omitempty"`
	TintHint   string `json:"tint_hint,omitempty"`
}

// planetDef is the static shape read from data/planets.yaml.
type planetDef struct {
	Name           string   `yaml:"name"`
	Population     int      `yaml:"population"`
	Description    string   `yaml:"description"`
	Vendor         bool     `yaml:"vendor"`
	Bank           bool     `yaml:"bank"`
	CrewServices   bool     `yaml:"crew_services"`
	SmugglerHub    bool     `yaml:"smuggler_hub"`
	NPCName        string   `yaml:"npc_name"`
	NPCPersonality string   `yaml:"npc_personality"`
	DockingFee     int      `yaml:"docking_fee"`
	BribeCost      int      `yaml:"bribe_cost"`
	SecurityLevel  int      `yaml:"security_level"`
	MaxDefenders   int      `yaml:"max_defenders"`
	MaxShields     int      `yaml:"max_shields"`
	Market         []string `yaml:"market"`
	RepairMult     *float64 `yaml:"repair_multiplier"`
	SpriteHint     string   `yaml:"sprite_hint"`
	TintHint       string   `yaml:"tint_hint"`
}

var defaultPlanets = []planetDef{
	{Name: "New Terra", Population: 4200000, Description: "Core-world port with heavy patrols and clean docks.",
		Vendor: true, Bank: true, CrewServices: true, NPCName: "Magistrate Hollis", NPCPersonality: "officious",
		DockingFee: 50, BribeCost: 900, SecurityLevel: SecurityHigh, MaxDefenders: 60, MaxShields: 120,
		Market: []string{"Fuel Cells", "Hydroponic Grain", "Medical Supplies", "Quantum Processors", "Cargo Pods", "Shield Emitters"}},
	{Name: "Krull's Landing", Population: 310000, Description: "Frontier strip mine; the law is whoever docked last.",
		Vendor: true, CrewServices: true, SmugglerHub: true, NPCName: "Broker Vex", NPCPersonality: "oily",
		DockingFee: 10, BribeCost: 250, SecurityLevel: SecurityLow, MaxDefenders: 25, MaxShields: 40,
		Market: []string{"Fuel Cells", "Iridium Ore", "Nanobot Kits", "Defense Drones"}},
	{Name: "Port Meridian", Population: 1800000, Description: "Trade hub strung along an orbital tether.",
		Vendor: true, Bank: true, NPCName: "Factor Imbrey", NPCPersonality: "mercantile",
		DockingFee: 30, BribeCost: 600, SecurityLevel: SecurityMid, MaxDefenders: 40, MaxShields: 80,
		Market: []string{"Fuel Cells", "Luxury Textiles", "Plasma Conduits", "Quantum Processors", "Cargo Pods"}},
	{Name: "Ashfall", Population: 95000, Description: "Volcanic refinery world wrapped in grey storms.",
		Vendor: true, NPCName: "Foreman Dask", NPCPersonality: "gruff",
		DockingFee: 15, BribeCost: 300, SecurityLevel: SecurityLow, MaxDefenders: 20, MaxShields: 35,
		Market: []string{"Fuel Cells", "Iridium Ore", "Plasma Conduits"}},
	{Name: "Veridian Prime", Population: 2600000, Description: "Agri-giant feeding half the sector.",
		Vendor: true, Bank: true, CrewServices: true, NPCName: "Steward Ollan", NPCPersonality: "patient",
		DockingFee: 25, BribeCost: 500, SecurityLevel: SecurityMid, MaxDefenders: 35, MaxShields: 70,
		Market: []string{"Fuel Cells", "Hydroponic Grain", "Medical Supplies", "Luxury Textiles"}},
	{Name: "The Sprawl", Population: 7800000, Description: "Layered megacity; anything is for sale three decks down.",
		Vendor: true, Bank: true, CrewServices: true, SmugglerHub: true, NPCName: "Fixer Quade", NPCPersonality: "wry",
		DockingFee: 40, BribeCost: 450, SecurityLevel: SecurityMid, MaxDefenders: 50, MaxShields: 90,
		Market: []string{"Fuel Cells", "Quantum Processors", "Luxury Textiles", "Nanobot Kits", "Shield Emitters", "Defense Drones"}},
	{Name: "Cobalt Deep", Population: 45000, Description: "Ocean moon; the habitats cling to geothermal vents.",
		Vendor: true, NPCName: "Warden Sible", NPCPersonality: "quiet",
		DockingFee: 10, BribeCost: 280, SecurityLevel: SecurityLow, MaxDefenders: 15, MaxShields: 30,
		Market: []string{"Fuel Cells", "Medical Supplies", "Iridium Ore"}},
	{Name: "Halcyon Ring", Population: 1200000, Description: "Resort station orbiting a cracked gas giant.",
		Vendor: true, Bank: true, NPCName: "Concierge Brandt", NPCPersonality: "smooth",
		DockingFee: 60, BribeCost: 800, SecurityLevel: SecurityHigh, MaxDefenders: 45, MaxShields: 100,
		Market: []string{"Fuel Cells", "Luxury Textiles", "Medical Supplies", "Quantum Processors"}},
	{Name: "Rust Haven", Population: 220000, Description: "Shipbreaker yards and salvage bazaars.",
		Vendor: true, CrewServices: true, SmugglerHub: true, NPCName: "Scrapper Yone", NPCPersonality: "blunt",
		DockingFee: 5, BribeCost: 200, SecurityLevel: SecurityLow, MaxDefenders: 18, MaxShields: 25,
		Market: []string{"Fuel Cells", "Nanobot Kits", "Cargo Pods", "Defense Drones"}},
	{Name: "Silverholt", Population: 900000, Description: "Banking enclave under a kilometer of armored glass.",
		Vendor: true, Bank: true, NPCName: "Auditor Prynne", NPCPersonality: "precise",
		DockingFee: 45, BribeCost: 1000, SecurityLevel: SecurityHigh, MaxDefenders: 55, MaxShields: 110,
		Market: []string{"Fuel Cells", "Quantum Processors", "Shield Emitters"}},
	{Name: "Junction", Population: 640000, Description: "Waystation at the crossing of four shipping lanes.",
		Vendor: true, CrewServices: true, NPCName: "Dispatcher Rho", NPCPersonality: "harried",
		DockingFee: 20, BribeCost: 400, SecurityLevel: SecurityMid, MaxDefenders: 30, MaxShields: 60,
		Market: []string{"Fuel Cells", "Hydroponic Grain", "Plasma Conduits", "Cargo Pods"}},
	{Name: "Night Market", Population: 130000, Description: "A drifting flotilla that sells what the core worlds ban.",
		Vendor: true, SmugglerHub: true, NPCName: "The Curator", NPCPersonality: "unreadable",
		DockingFee: 0, BribeCost: 150, SecurityLevel: SecurityLow, MaxDefenders: 22, MaxShields: 35,
		Market: []string{"Fuel Cells", "Nanobot Kits", "Luxury Textiles"}},
}

// planetCoord derives a deterministic (x, y) in the sector grid from the
// planet name hash, so every process lays out the same map without a
// coordinate file.
func planetCoord(name string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(name))
	sum := h.Sum64()
	x := float64(sum % 1400)
	y := float64((sum / 1400) % 1400)
	return x, y
}

// Distance is the Euclidean distance between two planets.
func Distance(a, b *Planet) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// GeneratePlanets builds the universe from data/planets.yaml (or the
// built-in defaults) and a seeded rng for initial market modifiers.
// Runtime counters (owner, garrison, treasury) start at base values and
// are overlaid from the shared universe store afterwards.
func GeneratePlanets(dataDir string, catalog *ItemCatalog, rng *rand.Rand) (map[string]*Planet, error) {
	defs := defaultPlanets
	path := filepath.Join(dataDir, "planets.yaml")
	if raw, err := os.ReadFile(path); err == nil {
		var loaded struct {
			Planets []planetDef `yaml:"planets"`
		}
		if err := yaml.Unmarshal(raw, &loaded); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(loaded.Planets) > 0 {
			defs = loaded.Planets
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	planets := make(map[string]*Planet, len(defs))
	for _, def := range defs {
		x, y := planetCoord(def.Name)
		baseDef := def.MaxDefenders / 2
		baseShield := def.MaxShields / 2
		p := &Planet{
			Name:             def.Name,
			X:                x,
			Y:                y,
			Population:       def.Population,
			Description:      def.Description,
			Vendor:           def.Vendor,
			Bank:             def.Bank,
			CrewServices:     def.CrewServices,
			IsSmugglerHub:    def.SmugglerHub,
			NPCName:          def.NPCName,
			NPCPersonality:   def.NPCPersonality,
			DockingFee:       def.DockingFee,
			BribeCost:        def.BribeCost,
			SecurityLevel:    def.SecurityLevel,
			MaxDefenders:     def.MaxDefenders,
			MaxShields:       def.MaxShields,
			BaseDefenders:    baseDef,
			BaseShields:      baseShield,
			Defenders:        baseDef,
			Shields:          baseShield,
			RepairMultiplier: def.RepairMult,
			ItemModifiers:    make(map[string]int),
			SpriteHint:       def.SpriteHint,
			TintHint:         def.TintHint,
		}
		for _, item := range def.Market {
			item = CanonicalItemName(item)
			if !catalog.Known(item) || catalog.IsContraband(item) {
				continue
			}
			p.ItemModifiers[item] = 85 + rng.Intn(31)
		}
		if def.SmugglerHub {
			p.SmugglingInventory = make(map[string]*SmugglingEntry)
			for _, item := range catalog.ContrabandNames() {
				tier := ContrabandTier(item)
				p.SmugglingInventory[item] = &SmugglingEntry{
					Modifier:           50 + rng.Intn(101),
					Quantity:           2 + rng.Intn(5),
					Tier:               tier,
					BasePrice:          catalog.BasePrice(item),
					RequiredBribeLevel: RequiredBribeLevel(item),
				}
			}
		}
		planets[p.Name] = p
	}
	return planets, nil
}

// FluctuatePrices drifts one planet's market for a sector jump: legal
// modifiers move within 85–115, smuggling modifiers within 50–150 with a
// 5% chance to restock 1–2 units.
func (p *Planet) FluctuatePrices(rng *rand.Rand) {
	for item := range p.ItemModifiers {
		p.ItemModifiers[item] = 85 + rng.Intn(31)
	}
	for _, entry := range p.SmugglingInventory {
		entry.Modifier = 50 + rng.Intn(101)
		if rng.Float64() < 0.05 {
			entry.Quantity += 1 + rng.Intn(2)
		}
	}
}

// MarketItems lists the legal market item names, sorted.
func (p *Planet) MarketItems() []string {
	items := make([]string, 0, len(p.ItemModifiers))
	for item := range p.ItemModifiers {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// SellsItem reports whether the item is on the planet's legal market.
func (p *Planet) SellsItem(item string) bool {
	_, ok := p.ItemModifiers[CanonicalItemName(item)]
	return ok
}

// EffectiveRepairMultiplier defaults to 1.0 when the planet carries none.
func (p *Planet) EffectiveRepairMultiplier() float64 {
	if p.RepairMultiplier == nil {
		return 1.0
	}
	return *p.RepairMultiplier
}
