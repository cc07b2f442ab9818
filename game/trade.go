package game

import (
	"fmt"
)

// TradeResult reports one completed (or blocked) market transaction.
type TradeResult struct {
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	Total     int    `json:"total"`

	Detected        bool   `json:"detected,omitempty"`
	DetectionNotice string `json:"detection_notice,omitempty"`

	Contract *ContractCompletion `json:"contract,omitempty"`
}

// BuyItem purchases qty units of a legal market item at the current planet.
func (g *Game) BuyItem(item string, qty int) (*TradeResult, error) {
	p := g.CurrentPlanet()
	if p == nil {
		return nil, fmt.Errorf("not docked")
	}
	item = CanonicalItemName(item)
	if qty <= 0 {
		return nil, fmt.Errorf("invalid quantity")
	}
	if g.Catalog.IsContraband(item) {
		return nil, fmt.Errorf("%s does not move through the open market", item)
	}
	if !p.Vendor || !p.SellsItem(item) {
		return nil, fmt.Errorf("%s is not sold at %s", item, p.Name)
	}
	if g.Player.CargoFree() < qty {
		return nil, fmt.Errorf("only %d units of cargo space free", g.Player.CargoFree())
	}
	unit := g.BuyPrice(p, item)
	total := unit * qty
	if g.Player.Credits < total {
		return nil, fmt.Errorf("%d %s runs %d credits", qty, item, total)
	}

	g.Player.Credits -= total
	g.Player.AddItem(item, qty)
	g.RecordBuy(p.Name, item, qty)

	// A discounted purchase eats spotlight stock; the deal dies at zero.
	if spot := g.Spotlights[p.Name]; spot.Active(g.Now()) && spot.Item == item {
		spot.Quantity -= qty
		if spot.Quantity < 0 {
			spot.Quantity = 0
		}
	}
	return &TradeResult{Item: item, Quantity: qty, UnitPrice: unit, Total: total}, nil
}

// SellItem sells qty units from the hold at the current planet. Contraband
// sales run the scan roll first: a detection seizes the goods unpaid.
// Completed sales credit the active contract.
func (g *Game) SellItem(item string, qty int) (*TradeResult, error) {
	p := g.CurrentPlanet()
	if p == nil {
		return nil, fmt.Errorf("not docked")
	}
	item = CanonicalItemName(item)
	if qty <= 0 {
		return nil, fmt.Errorf("invalid quantity")
	}
	if g.Player.ItemCount(item) < qty {
		return nil, fmt.Errorf("only %d %s aboard", g.Player.ItemCount(item), item)
	}

	res := &TradeResult{Item: item, Quantity: qty}

	if g.Catalog.IsContraband(item) {
		if detected, notice := g.RollDetection(p, item, qty); detected {
			g.Player.RemoveItem(item, qty)
			res.Detected = true
			res.DetectionNotice = notice
			return res, nil
		}
	}

	unit := g.SellPrice(p, item)
	total := unit * qty
	g.Player.RemoveItem(item, qty)
	g.Player.Credits += total
	g.RecordSell(p.Name, item, qty)
	res.UnitPrice = unit
	res.Total = total

	if g.Catalog.IsContraband(item) {
		g.ContrabandSaleFallout(p, item, qty)
	}
	res.Contract = g.ApplyContractDelivery(p.Name, item, qty)
	return res, nil
}

// BuyContraband purchases qty units from the planet's shadow market. The
// contact gate applies before any credits move; the scan roll runs after
// payment, and a detection seizes the shipment.
func (g *Game) BuyContraband(item string, qty int) (*TradeResult, error) {
	p := g.CurrentPlanet()
	if p == nil {
		return nil, fmt.Errorf("not docked")
	}
	item = CanonicalItemName(item)
	if qty <= 0 {
		return nil, fmt.Errorf("invalid quantity")
	}
	entry, ok := p.SmugglingInventory[item]
	if !ok {
		return nil, fmt.Errorf("no %s moving through %s", item, p.Name)
	}
	if allowed, required := g.CanBuyContraband(p, item); !allowed {
		return nil, fmt.Errorf("CONTACT LEVEL TOO LOW: level %d required", required)
	}
	if entry.Quantity < qty {
		return nil, fmt.Errorf("only %d units on hand", entry.Quantity)
	}
	if g.Player.CargoFree() < qty {
		return nil, fmt.Errorf("only %d units of cargo space free", g.Player.CargoFree())
	}
	unit := g.ContrabandBuyPrice(p, item)
	total := unit * qty
	if g.Player.Credits < total {
		return nil, fmt.Errorf("%d %s runs %d credits", qty, item, total)
	}

	g.Player.Credits -= total
	entry.Quantity -= qty
	res := &TradeResult{Item: item, Quantity: qty, UnitPrice: unit, Total: total}

	if detected, notice := g.RollDetection(p, item, qty); detected {
		res.Detected = true
		res.DetectionNotice = notice
		return res, nil
	}

	g.Player.AddItem(item, qty)
	g.RecordBuy(p.Name, item, qty)
	return res, nil
}

// UpgradeShip consumes qty units of an upgrade item from the hold and
// applies them to the hull. Returns how many units actually took.
func (g *Game) UpgradeShip(item string, qty int) (int, error) {
	item = CanonicalItemName(item)
	have := g.Player.ItemCount(item)
	if have <= 0 {
		return 0, fmt.Errorf("no %s aboard", item)
	}
	if qty <= 0 || qty > have {
		qty = have
	}
	applied := g.Player.Ship.ApplyUpgrade(item, qty)
	if applied == 0 {
		return 0, fmt.Errorf("%s cannot improve this hull further", item)
	}
	g.Player.RemoveItem(item, applied)
	return applied, nil
}

// moduleCosts price module installation at a vendor.
var moduleCosts = map[string]int{
	ModuleScanner:        2500,
	ModuleJammer:         4000,
	ModuleCargoOptimizer: 3000,
}

// BuyModule purchases and installs a ship module at a vendor planet.
func (g *Game) BuyModule(name string) (int, error) {
	p := g.CurrentPlanet()
	if p == nil || !p.Vendor {
		return 0, fmt.Errorf("no outfitter here")
	}
	cost, ok := moduleCosts[name]
	if !ok {
		return 0, fmt.Errorf("unknown module %q", name)
	}
	if g.Player.Credits < cost {
		return 0, fmt.Errorf("the %s module runs %d credits", name, cost)
	}
	if err := g.Player.Ship.InstallModule(name); err != nil {
		return 0, err
	}
	g.Player.Credits -= cost
	return cost, nil
}
