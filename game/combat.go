package game

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Combat session states.
const (
	CombatActive = "ACTIVE"
	CombatWon    = "WON"
	CombatLost   = "LOST"
	CombatFled   = "FLED"
)

// Combat target types.
const (
	TargetNPC    = "NPC"
	TargetPlayer = "PLAYER"
	TargetPlanet = "PLANET"
)

// Attack roll tuning.
const (
	baseHitChance   = 0.55
	minHitChance    = 0.20
	maxHitChance    = 0.90
	critChance      = 0.12
	critMultiplier  = 1.5
	rareDropChance  = 0.12
	defenderSoakDiv = 10
)

// TargetStats is the snapshot of the opposing side.
type TargetStats struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	ShipModel string         `json:"ship_model,omitempty"`
	Credits   int            `json:"credits"`
	Shields   int            `json:"shields"`
	Defenders int            `json:"defenders"`
	Integrity int            `json:"integrity"`
	Hostile   bool           `json:"hostile"`
	Inventory map[string]int `json:"inventory,omitempty"`

	// For PLAYER targets: where the defeated save lives.
	AccountSafe   string `json:"account_safe,omitempty"`
	CharacterSafe string `json:"character_safe,omitempty"`
}

// CombatSession is one round-based engagement. The session snapshots the
// player's entry stats so payouts and write-backs work from fixed points.
type CombatSession struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	TargetType string `json:"target_type"`

	PlayerStartShields   int `json:"player_start_shields"`
	PlayerStartDefenders int `json:"player_start_defenders"`
	PlayerStartIntegrity int `json:"player_start_integrity"`
	PlayerStartCredits   int `json:"player_start_credits"`

	Target           TargetStats `json:"target"`
	TargetStartCreds int         `json:"target_start_credits"`

	EnemyScale float64  `json:"enemy_scale"`
	PreStreak  int      `json:"pre_streak"`
	Round      int      `json:"round"`
	Log        []string `json:"log"`

	StartedAt float64 `json:"started_at"`
}

func (cs *CombatSession) logf(format string, args ...any) {
	cs.Log = append(cs.Log, fmt.Sprintf(format, args...))
}

// StartCombatSession opens an engagement against a snapshotted target.
// Only one session can be active per game.
func (g *Game) StartCombatSession(target TargetStats, enemyScale float64) (*CombatSession, error) {
	if g.Combat != nil && g.Combat.Status == CombatActive {
		return nil, fmt.Errorf("already engaged with %s", g.Combat.Target.Name)
	}
	ship := g.Player.Ship
	if ship == nil {
		return nil, fmt.Errorf("no ship to fight with")
	}
	if enemyScale <= 0 {
		enemyScale = 1.0
	}
	cs := &CombatSession{
		ID:                   uuid.NewString(),
		Status:               CombatActive,
		TargetType:           target.Type,
		PlayerStartShields:   ship.Shields,
		PlayerStartDefenders: ship.Defenders,
		PlayerStartIntegrity: ship.Integrity,
		PlayerStartCredits:   g.Player.Credits,
		Target:               target,
		TargetStartCreds:     target.Credits,
		EnemyScale:           enemyScale,
		PreStreak:            g.Player.CombatWinStreak,
		StartedAt:            g.Now(),
	}
	cs.logf("Engaged %s.", target.Name)
	g.Combat = cs
	return cs, nil
}

// attackRoll resolves one side's swing: hit chance, damage, crit, graze.
func (g *Game) attackRoll(committed int, bonus float64) (damage int, hit, crit bool) {
	chance := baseHitChance + bonus
	if chance < minHitChance {
		chance = minHitChance
	}
	if chance > maxHitChance {
		chance = maxHitChance
	}
	if g.RNG.Float64() < chance {
		lo := committed * 8
		hi := committed * 14
		damage = lo + g.RNG.Intn(hi-lo+1)
		if g.RNG.Float64() < critChance {
			damage = int(float64(damage) * critMultiplier)
			crit = true
		}
		return damage, true, crit
	}
	return g.RNG.Intn(committed*2 + 1), false, false
}

// applyDamage runs the shields → defenders → integrity cascade and
// returns fighter losses.
func (g *Game) applyDamage(shields, defenders, integrity *int, damage int) (losses int) {
	remaining := damage
	if *shields > 0 {
		absorbed := remaining
		if absorbed > *shields {
			absorbed = *shields
		}
		*shields -= absorbed
		remaining -= absorbed
	}
	if remaining <= 0 {
		return 0
	}
	if *defenders > 0 {
		losses = remaining/defenderSoakDiv + g.RNG.Intn(3)
		if losses < 1 {
			losses = 1
		}
		if losses > *defenders {
			losses = *defenders
		}
		*defenders -= losses
		// Residual bleeds through the screen at half rate.
		*integrity -= remaining / 2
	} else {
		*integrity -= remaining
	}
	if *integrity < 0 {
		*integrity = 0
	}
	return losses
}

// playerHitBonus folds weapons crew and hull role into the attack roll.
func (g *Game) playerHitBonus() float64 {
	bonus := 0.0
	for _, m := range g.Player.Crew {
		bonus += m.WeaponsHitBonus()
	}
	if g.Player.Ship != nil {
		bonus += (g.Player.Ship.CombatPowerMultiplier() - 1) * 0.25
	}
	return bonus
}

// RoundResult reports one resolved combat round.
type RoundResult struct {
	Status          string   `json:"status"`
	Round           int      `json:"round"`
	PlayerCommitted int      `json:"player_committed"`
	TargetCommitted int      `json:"target_committed"`
	PlayerDamage    int      `json:"player_damage"`
	TargetDamage    int      `json:"target_damage"`
	PlayerLosses    int      `json:"player_losses"`
	TargetLosses    int      `json:"target_losses"`
	Log             []string `json:"log"`
	Victory         *CombatOutcome `json:"victory,omitempty"`
	Defeat          *CombatOutcome `json:"defeat,omitempty"`
}

// ResolveCombatRound runs one simultaneous exchange.
func (g *Game) ResolveCombatRound(playerCommitted int) (*RoundResult, error) {
	cs := g.Combat
	if cs == nil || cs.Status != CombatActive {
		return nil, fmt.Errorf("no active combat session")
	}
	ship := g.Player.Ship
	cs.Round++

	// Clamp commits. At least one fighter goes over the rail while any
	// remain; a stripped ship swings with a skeleton crew of 1.
	if playerCommitted < 1 {
		playerCommitted = 1
	}
	if ship.Defenders > 0 && playerCommitted > ship.Defenders {
		playerCommitted = ship.Defenders
	}
	if ship.Defenders == 0 {
		playerCommitted = 1
	}

	targetCommit := 1
	if cs.Target.Defenders > 0 {
		targetCommit = 1 + g.RNG.Intn(cs.Target.Defenders)
		targetCommit = int(math.Round(float64(targetCommit) * cs.EnemyScale))
		if targetCommit < 1 {
			targetCommit = 1
		}
	}

	playerDmg, playerHit, playerCrit := g.attackRoll(playerCommitted, g.playerHitBonus())
	targetBonus := (cs.EnemyScale - 1) * 0.10
	targetDmg, targetHit, targetCrit := g.attackRoll(targetCommit, targetBonus)

	// Damage lands simultaneously; both rolls use the pre-round stats.
	result := &RoundResult{
		Round:           cs.Round,
		PlayerCommitted: playerCommitted,
		TargetCommitted: targetCommit,
		PlayerDamage:    playerDmg,
		TargetDamage:    targetDmg,
	}
	result.TargetLosses = g.applyDamage(&cs.Target.Shields, &cs.Target.Defenders, &cs.Target.Integrity, playerDmg)
	result.PlayerLosses = g.applyDamage(&ship.Shields, &ship.Defenders, &ship.Integrity, targetDmg)

	describe := func(who string, hit, crit bool, dmg int) {
		switch {
		case crit:
			cs.logf("%s lands a critical strike for %d.", who, dmg)
		case hit:
			cs.logf("%s hits for %d.", who, dmg)
		default:
			cs.logf("%s grazes for %d.", who, dmg)
		}
	}
	describe(g.Player.Name, playerHit, playerCrit, playerDmg)
	describe(cs.Target.Name, targetHit, targetCrit, targetDmg)

	targetDown := cs.Target.Shields <= 0 && cs.Target.Defenders <= 0
	playerDown := ship.Shields <= 0 && ship.Defenders <= 0

	switch {
	case targetDown:
		// Both falling in the same round goes to the player.
		cs.Status = CombatWon
		result.Victory = g.resolveVictory(cs)
	case playerDown:
		cs.Status = CombatLost
		result.Defeat = g.resolveDefeat(cs)
	}
	result.Status = cs.Status
	result.Log = append([]string(nil), cs.Log...)
	return result, nil
}

// CombatOutcome is the settlement of a finished session.
type CombatOutcome struct {
	CreditsDelta   int            `json:"credits_delta"`
	LootedItems    map[string]int `json:"looted_items,omitempty"`
	LostItems      map[string]int `json:"lost_items,omitempty"`
	RareDrop       string         `json:"rare_drop,omitempty"`
	Streak         int            `json:"streak"`
	PlanetCaptured bool           `json:"planet_captured,omitempty"`
}

// resolveVictory settles loot, streak and (for planets) conquest flags.
// Store-side effects of a conquest (ownership write, news, mail) belong to
// the caller, which sees PlanetCaptured.
func (g *Game) resolveVictory(cs *CombatSession) *CombatOutcome {
	out := &CombatOutcome{}

	baseLoot := float64(cs.TargetStartCreds) * (0.25 + g.RNG.Float64()*0.35)
	streakBonus := float64(g.Player.CombatWinStreak) * g.cfg.StreakBonusPerWin
	if streakBonus > g.cfg.StreakBonusCap {
		streakBonus = g.cfg.StreakBonusCap
	}
	loot := baseLoot + streakBonus*baseLoot + (cs.EnemyScale-1)*0.75*baseLoot

	if cs.TargetType == TargetNPC && cs.Target.Hostile {
		bounty := float64(g.Player.AuthorityStanding+100) / 200 * 250
		loot += bounty
	}

	out.CreditsDelta = int(math.Round(loot))
	g.Player.Credits += out.CreditsDelta

	// Loot cargo proportionally, capped by free hold space.
	if len(cs.Target.Inventory) > 0 {
		free := g.Player.CargoFree()
		total := 0
		for _, qty := range cs.Target.Inventory {
			total += qty
		}
		if total > 0 && free > 0 {
			share := 1.0
			if total > free {
				share = float64(free) / float64(total)
			}
			out.LootedItems = make(map[string]int)
			for item, qty := range cs.Target.Inventory {
				take := int(float64(qty) * share)
				if take <= 0 {
					continue
				}
				if take > free {
					take = free
				}
				g.Player.AddItem(item, take)
				out.LootedItems[item] = take
				free -= take
				if free <= 0 {
					break
				}
			}
		}
	}

	if g.RNG.Float64() < rareDropChance && g.Player.CargoFree() > 0 {
		names := g.Catalog.ContrabandNames()
		if len(names) > 0 {
			out.RareDrop = names[g.RNG.Intn(len(names))]
			g.Player.AddItem(out.RareDrop, 1)
		}
	}

	if cs.TargetType == TargetPlanet {
		out.PlanetCaptured = true
	}

	g.Player.CombatWinStreak++
	out.Streak = g.Player.CombatWinStreak
	cs.logf("%s is defeated.", cs.Target.Name)
	return out
}

// resolveDefeat settles the loss: credits forfeit, cargo at risk, streak
// reset.
func (g *Game) resolveDefeat(cs *CombatSession) *CombatOutcome {
	out := &CombatOutcome{}
	forfeit := float64(g.Player.Credits) * (0.15 + g.RNG.Float64()*0.25)
	out.CreditsDelta = -int(math.Round(forfeit))
	g.Player.Credits += out.CreditsDelta
	if g.Player.Credits < 0 {
		g.Player.Credits = 0
	}

	// Up to 3 item types each stand a 5–30% chance of going overboard.
	lost := make(map[string]int)
	tried := 0
	for item, qty := range g.Player.Inventory {
		if tried >= 3 {
			break
		}
		tried++
		if g.RNG.Float64() < 0.05+g.RNG.Float64()*0.25 {
			drop := 1 + g.RNG.Intn(qty)
			g.Player.RemoveItem(item, drop)
			lost[item] = drop
		}
	}
	if len(lost) > 0 {
		out.LostItems = lost
	}

	g.Player.CombatWinStreak = 0
	out.Streak = 0
	cs.logf("%s breaks your line.", cs.Target.Name)
	return out
}

// FleeCombat abandons the session: credits penalty, streak reset, and a
// 24 hour bar when running from a hostile-owned planet.
func (g *Game) FleeCombat() (*CombatOutcome, error) {
	cs := g.Combat
	if cs == nil || cs.Status != CombatActive {
		return nil, fmt.Errorf("no active combat session")
	}
	cs.Status = CombatFled

	out := &CombatOutcome{}
	penalty := float64(g.Player.Credits) * (0.05 + g.RNG.Float64()*0.10)
	out.CreditsDelta = -int(math.Round(penalty))
	g.Player.Credits += out.CreditsDelta
	if g.Player.Credits < 0 {
		g.Player.Credits = 0
	}

	if cs.TargetType == TargetPlanet {
		if p := g.Planets[cs.Target.Name]; p != nil && p.Owner != "" && p.Owner != g.Player.Name {
			g.Player.BarFrom(p.Name, g.Now(), 24*3600)
			g.Player.MarkAttacked(p.Name, g.Now())
		}
	}

	g.Player.CombatWinStreak = 0
	out.Streak = 0
	cs.logf("%s disengages and runs.", g.Player.Name)
	return out, nil
}

// SpecialWeaponStatus reports readiness of the ship's special weapon.
type SpecialWeaponStatus struct {
	Weapon           string  `json:"weapon,omitempty"`
	Enabled          bool    `json:"enabled"`
	Ready            bool    `json:"ready"`
	SecondsRemaining float64 `json:"seconds_remaining"`
}

// GetSpecialWeaponStatus checks gate, cooldown and fitting.
func (g *Game) GetSpecialWeaponStatus() SpecialWeaponStatus {
	st := SpecialWeaponStatus{Enabled: g.cfg.EnableSpecialWeapons}
	if g.Player.Ship != nil {
		st.Weapon = g.Player.Ship.SpecialWeapon
	}
	if !st.Enabled || st.Weapon == "" {
		return st
	}
	cooldown := g.cfg.SpecialWeaponCooldownHours * 3600
	elapsed := g.Now() - g.Player.LastSpecialWeaponTime
	if elapsed >= cooldown {
		st.Ready = true
	} else {
		st.SecondsRemaining = cooldown - elapsed
	}
	return st
}

// SpecialWeaponResult reports one special-weapon strike. A strike that
// breaks the garrison ends the session and carries the victory settlement.
type SpecialWeaponResult struct {
	Damage          int            `json:"damage"`
	PopulationLost  int            `json:"population_lost"`
	TreasuryBurned  int            `json:"treasury_burned"`
	TargetShields   int            `json:"target_shields"`
	TargetDefenders int            `json:"target_defenders"`
	Victory         *CombatOutcome `json:"victory,omitempty"`
}

// FireSpecialWeapon discharges the ship's special weapon inside an active
// planet-combat session. Never fires outside one.
func (g *Game) FireSpecialWeapon() (*SpecialWeaponResult, error) {
	if !g.cfg.EnableSpecialWeapons {
		return nil, fmt.Errorf("special weapons are disabled")
	}
	cs := g.Combat
	if cs == nil || cs.Status != CombatActive || cs.TargetType != TargetPlanet {
		return nil, fmt.Errorf("special weapons only fire in planetary combat")
	}
	ship := g.Player.Ship
	if ship == nil || ship.SpecialWeapon == "" {
		return nil, fmt.Errorf("no special weapon fitted")
	}
	st := g.GetSpecialWeaponStatus()
	if !st.Ready {
		return nil, fmt.Errorf("%s recharging: %.0f seconds remain", ship.SpecialWeapon, st.SecondsRemaining)
	}

	p := g.Planets[cs.Target.Name]
	if p == nil {
		return nil, fmt.Errorf("target planet %s is gone", cs.Target.Name)
	}

	res := &SpecialWeaponResult{}
	frac := g.cfg.SpecialWeaponPopMinPct +
		g.RNG.Float64()*(g.cfg.SpecialWeaponPopMaxPct-g.cfg.SpecialWeaponPopMinPct)
	res.PopulationLost = int(float64(p.Population) * frac)
	res.TreasuryBurned = int(float64(p.CreditBalance) * frac)
	p.Population -= res.PopulationLost
	p.CreditBalance -= res.TreasuryBurned
	cs.Target.Credits -= res.TreasuryBurned
	if cs.Target.Credits < 0 {
		cs.Target.Credits = 0
	}

	committed := ship.Defenders / 3
	if committed < 1 {
		committed = 1
	}
	dmg, _, _ := g.attackRoll(committed, g.playerHitBonus())
	res.Damage = int(float64(dmg) * g.cfg.SpecialWeaponDamageMult)
	g.applyDamage(&cs.Target.Shields, &cs.Target.Defenders, &cs.Target.Integrity, res.Damage)

	res.TargetShields = cs.Target.Shields
	res.TargetDefenders = cs.Target.Defenders
	g.Player.LastSpecialWeaponTime = g.Now()
	cs.logf("%s fires %s: %d damage.", g.Player.Name, ship.SpecialWeapon, res.Damage)

	if cs.Target.Shields <= 0 && cs.Target.Defenders <= 0 {
		cs.Status = CombatWon
		res.Victory = g.resolveVictory(cs)
	}
	return res, nil
}

// ShouldInitializePlanetAutoCombat reports whether docking at the planet
// drops the player straight into combat: hostile-owned ground the player
// is barred from.
func (g *Game) ShouldInitializePlanetAutoCombat(p *Planet) bool {
	if p == nil || p.Owner == "" || p.Owner == g.Player.Name {
		return false
	}
	return g.Player.IsBarred(p.Name, g.Now())
}

// PlanetTargetStats snapshots a planet for combat.
func PlanetTargetStats(p *Planet) TargetStats {
	return TargetStats{
		Name:      p.Name,
		Type:      TargetPlanet,
		Credits:   p.CreditBalance,
		Shields:   p.Shields,
		Defenders: p.Defenders,
		Integrity: 1,
		Hostile:   p.Owner != "",
	}
}
