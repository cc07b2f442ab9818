package game

// Player is the per-character aggregate: wallet, cargo, holdings, crew,
// mailbox and faction state. The in-memory Game instance owns it
// exclusively for the duration of a session.
type Player struct {
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	BankBalance int    `json:"bank_balance"`

	Ship *Spaceship `json:"ship"`

	// Inventory values are strictly positive; a key is dropped when its
	// quantity reaches 0. Keys canonicalize through the alias table.
	Inventory map[string]int `json:"inventory"`

	// OwnedPlanets maps planet name to the last colony payout time.
	OwnedPlanets map[string]float64 `json:"owned_planets,omitempty"`
	// BarredPlanets maps planet name to the wall-clock expiry of the bar.
	BarredPlanets map[string]float64 `json:"barred_planets,omitempty"`
	// AttackedPlanets maps planet name to the last attack wall-clock.
	AttackedPlanets map[string]float64 `json:"attacked_planets,omitempty"`

	Crew     map[string]*CrewMember `json:"crew,omitempty"`
	Messages []*Message             `json:"messages,omitempty"`

	AuthorityStanding int `json:"authority_standing"`
	FrontierStanding  int `json:"frontier_standing"`

	CombatWinStreak     int `json:"combat_win_streak"`
	ContractChainStreak int `json:"contract_chain_streak"`

	LastSpecialWeaponTime    float64 `json:"last_special_weapon_time,omitempty"`
	LastCommanderStipendTime float64 `json:"last_commander_stipend_time,omitempty"`
	LastCrewPayTime          float64 `json:"last_crew_pay_time,omitempty"`
	LastSeenNewsTimestamp    float64 `json:"last_seen_news_timestamp,omitempty"`
	LastBankInterestTime     float64 `json:"last_bank_interest_time,omitempty"`

	RefuelUsesInWindow    int     `json:"refuel_uses_in_window,omitempty"`
	RefuelWindowStartedAt float64 `json:"refuel_window_started_at,omitempty"`

	PortVisits int `json:"port_visits"`
}

// NewPlayer builds a fresh commander with a starting ship.
func NewPlayer(name string, credits int, ship *Spaceship) *Player {
	return &Player{
		Name:            name,
		Credits:         credits,
		Ship:            ship,
		Inventory:       make(map[string]int),
		OwnedPlanets:    make(map[string]float64),
		BarredPlanets:   make(map[string]float64),
		AttackedPlanets: make(map[string]float64),
		Crew:            make(map[string]*CrewMember),
	}
}

// NormalizeInventory folds alias keys into canonical ones and drops
// non-positive quantities. Called before reads and after loads.
func (p *Player) NormalizeInventory() {
	if p.Inventory == nil {
		p.Inventory = make(map[string]int)
		return
	}
	for key, qty := range p.Inventory {
		canon := CanonicalItemName(key)
		if canon != key {
			delete(p.Inventory, key)
			if qty > 0 {
				p.Inventory[canon] += qty
			}
			continue
		}
		if qty <= 0 {
			delete(p.Inventory, key)
		}
	}
}

// CargoUsed is the total units currently held.
func (p *Player) CargoUsed() int {
	total := 0
	for _, qty := range p.Inventory {
		total += qty
	}
	return total
}

// CargoFree is the remaining capacity against the ship's effective max.
func (p *Player) CargoFree() int {
	if p.Ship == nil {
		return 0
	}
	free := p.Ship.EffectiveMaxCargo() - p.CargoUsed()
	if free < 0 {
		free = 0
	}
	return free
}

// AddItem adds qty units, canonicalizing the key.
func (p *Player) AddItem(item string, qty int) {
	if qty <= 0 {
		return
	}
	if p.Inventory == nil {
		p.Inventory = make(map[string]int)
	}
	p.Inventory[CanonicalItemName(item)] += qty
}

// RemoveItem removes up to qty units and returns how many were removed.
// The key is dropped when it reaches 0.
func (p *Player) RemoveItem(item string, qty int) int {
	if qty <= 0 {
		return 0
	}
	canon := CanonicalItemName(item)
	have := p.Inventory[canon]
	if have <= 0 {
		return 0
	}
	taken := qty
	if taken > have {
		taken = have
	}
	if have-taken <= 0 {
		delete(p.Inventory, canon)
	} else {
		p.Inventory[canon] = have - taken
	}
	return taken
}

// ItemCount returns the held quantity for an item.
func (p *Player) ItemCount(item string) int {
	return p.Inventory[CanonicalItemName(item)]
}

func clampStanding(v int) int {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return v
}

// AdjustAuthority shifts authority standing, clamped to [-100, 100].
func (p *Player) AdjustAuthority(delta int) int {
	p.AuthorityStanding = clampStanding(p.AuthorityStanding + delta)
	return p.AuthorityStanding
}

// AdjustFrontier shifts frontier standing, clamped to [-100, 100].
func (p *Player) AdjustFrontier(delta int) int {
	p.FrontierStanding = clampStanding(p.FrontierStanding + delta)
	return p.FrontierStanding
}

// standingLabels run from worst to best across the [-100, 100] band.
var authorityLabels = []string{
	"Wanted", "Suspect", "Unremarkable", "Recognized", "Trusted", "Commissioned",
}

var frontierLabels = []string{
	"Outsider", "Stranger", "Known", "Respected", "Favored", "Folk Hero",
}

func standingLabel(labels []string, standing int) string {
	// Map [-100, 100] onto the label band.
	idx := (standing + 100) * len(labels) / 201
	if idx >= len(labels) {
		idx = len(labels) - 1
	}
	return labels[idx]
}

// AuthorityLabel is the display label for the current authority standing.
func (p *Player) AuthorityLabel() string {
	return standingLabel(authorityLabels, p.AuthorityStanding)
}

// FrontierLabel is the display label for the current frontier standing.
func (p *Player) FrontierLabel() string {
	return standingLabel(frontierLabels, p.FrontierStanding)
}

// IsBarred reports whether the player is currently barred from the planet.
// Expired entries are pruned as they are observed.
func (p *Player) IsBarred(planet string, now float64) bool {
	expiry, ok := p.BarredPlanets[planet]
	if !ok {
		return false
	}
	if now >= expiry {
		delete(p.BarredPlanets, planet)
		return false
	}
	return true
}

// BarFrom bars the player from a planet until now+durationSeconds.
func (p *Player) BarFrom(planet string, now, durationSeconds float64) {
	if p.BarredPlanets == nil {
		p.BarredPlanets = make(map[string]float64)
	}
	p.BarredPlanets[planet] = now + durationSeconds
}

// MarkAttacked records a combat strike against a planet.
func (p *Player) MarkAttacked(planet string, now float64) {
	if p.AttackedPlanets == nil {
		p.AttackedPlanets = make(map[string]float64)
	}
	p.AttackedPlanets[planet] = now
}

// AttackedWithin reports whether the planet was attacked inside the
// trailing window.
func (p *Player) AttackedWithin(planet string, now, windowSeconds float64) bool {
	last, ok := p.AttackedPlanets[planet]
	return ok && now-last < windowSeconds
}

// OwnsPlanet reports colony ownership as the player's save sees it.
func (p *Player) OwnsPlanet(planet string) bool {
	_, ok := p.OwnedPlanets[planet]
	return ok
}
