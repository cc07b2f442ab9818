package game

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ItemDef is one tradeable commodity loaded from data/items.yaml.
type ItemDef struct {
	Name       string `yaml:"name"`
	BasePrice  int    `yaml:"base_price"`
	Contraband bool   `yaml:"contraband"`
}

// itemAliases maps legacy / display spellings to canonical inventory keys.
// Applied on every normalize call, before reads and after loads.
var itemAliases = map[string]string{
	"Standard Fuel":   "Fuel Cells",
	"Fuel":            "Fuel Cells",
	"Nanobots":        "Nanobot Kits",
	"Repair Nanobots": "Nanobot Kits",
	"Grain":           "Hydroponic Grain",
	"Ore":             "Iridium Ore",
	"Meds":            "Medical Supplies",
	"Spice":           "Crimson Spice",
}

// CanonicalItemName resolves an item name through the alias table.
func CanonicalItemName(name string) string {
	if canon, ok := itemAliases[name]; ok {
		return canon
	}
	return name
}

// defaultItems seeds the catalog when data/items.yaml is missing, so a bare
// checkout still boots a playable universe.
var defaultItems = []ItemDef{
	{Name: "Fuel Cells", BasePrice: 10},
	{Name: "Hydroponic Grain", BasePrice: 14},
	{Name: "Iridium Ore", BasePrice: 35},
	{Name: "Medical Supplies", BasePrice: 48},
	{Name: "Nanobot Kits", BasePrice: 60},
	{Name: "Plasma Conduits", BasePrice: 85},
	{Name: "Quantum Processors", BasePrice: 140},
	{Name: "Luxury Textiles", BasePrice: 72},
	{Name: "Cargo Pods", BasePrice: 120},
	{Name: "Shield Emitters", BasePrice: 160},
	{Name: "Defense Drones", BasePrice: 200},
	{Name: "Crimson Spice", BasePrice: 90, Contraband: true},
	{Name: "Neural Lace", BasePrice: 220, Contraband: true},
	{Name: "Phase Disruptors", BasePrice: 340, Contraband: true},
	{Name: "Void Opals", BasePrice: 500, Contraband: true},
}

// ItemCatalog holds the global commodity table.
type ItemCatalog struct {
	items map[string]ItemDef
	order []string
}

// LoadItemCatalog reads data/items.yaml from dataDir, falling back to the
// built-in defaults when the file does not exist.
func LoadItemCatalog(dataDir string) (*ItemCatalog, error) {
	defs := defaultItems
	path := filepath.Join(dataDir, "items.yaml")
	if raw, err := os.ReadFile(path); err == nil {
		var loaded struct {
			Items []ItemDef `yaml:"items"`
		}
		if err := yaml.Unmarshal(raw, &loaded); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(loaded.Items) > 0 {
			defs = loaded.Items
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cat := &ItemCatalog{items: make(map[string]ItemDef, len(defs))}
	for _, def := range defs {
		def.Name = CanonicalItemName(def.Name)
		if _, dup := cat.items[def.Name]; dup {
			continue
		}
		cat.items[def.Name] = def
		cat.order = append(cat.order, def.Name)
	}
	return cat, nil
}

// BasePrice returns the global base price for an item, 0 if unknown.
func (c *ItemCatalog) BasePrice(name string) int {
	return c.items[CanonicalItemName(name)].BasePrice
}

// IsContraband reports whether the item is restricted goods.
func (c *ItemCatalog) IsContraband(name string) bool {
	return c.items[CanonicalItemName(name)].Contraband
}

// Known reports whether the item exists in the catalog.
func (c *ItemCatalog) Known(name string) bool {
	_, ok := c.items[CanonicalItemName(name)]
	return ok
}

// Names returns all item names in catalog order.
func (c *ItemCatalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ContrabandNames returns all restricted item names, sorted.
func (c *ItemCatalog) ContrabandNames() []string {
	var out []string
	for name, def := range c.items {
		if def.Contraband {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ContrabandTier derives the 1..4 tier for a restricted item from its name
// hash. The tier is stable across processes and drives the price multiplier,
// detection multiplier, heat multiplier and required bribe level.
func ContrabandTier(name string) int {
	h := fnv.New32a()
	h.Write([]byte(CanonicalItemName(name)))
	return int(h.Sum32()%4) + 1
}

// RequiredBribeLevel returns the NPC contact level needed to buy the item.
// Tier 1 goods need no contact on smuggler hubs.
func RequiredBribeLevel(name string) int {
	return ContrabandTier(name) - 1
}
