package game

import (
	"fmt"
	"math/rand"
)

// Crew specialties.
const (
	SpecialtyWeapons  = "weapons"
	SpecialtyEngineer = "engineer"
)

const (
	crewMaxLevel       = 8
	crewUnpaidLimit    = 7
	crewPayIntervalHrs = 24.0
)

// CrewMember is one hired specialist, persisted with the Player.
type CrewMember struct {
	Name         string   `json:"name"`
	Specialty    string   `json:"specialty"`
	Level        int      `json:"level"`
	Morale       int      `json:"morale"`
	Fatigue      int      `json:"fatigue"`
	XP           int      `json:"xp"`
	Perks        []string `json:"perks,omitempty"`
	UnpaidCycles int      `json:"unpaid_cycles"`
	DailyPay     int      `json:"daily_pay"`
}

// crewPerkTable gives one deterministic perk per milestone level.
var crewPerkTable = map[string]map[int]string{
	SpecialtyWeapons: {
		3: "steady_hands",
		5: "overwatch",
		7: "deadeye",
	},
	SpecialtyEngineer: {
		3: "fuel_miser",
		5: "field_patch",
		7: "overdrive",
	},
}

// xpThreshold is the XP needed to leave the given level.
func xpThreshold(level int) int {
	return 70 + 35*level
}

// GainXP adds xp and levels the member up while thresholds are crossed.
// Milestone levels 3, 5 and 7 each add one deterministic perk.
func (m *CrewMember) GainXP(xp int) {
	if xp <= 0 {
		return
	}
	m.XP += xp
	for m.Level < crewMaxLevel && m.XP >= xpThreshold(m.Level) {
		m.XP -= xpThreshold(m.Level)
		m.Level++
		if perk, ok := crewPerkTable[m.Specialty][m.Level]; ok {
			m.Perks = append(m.Perks, fmt.Sprintf("L%d:%s", m.Level, perk))
		}
	}
}

// HasPerk reports whether the member has unlocked the named perk.
func (m *CrewMember) HasPerk(perk string) bool {
	suffix := ":" + perk
	for _, p := range m.Perks {
		if len(p) >= len(suffix) && p[len(p)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// Rest clears fatigue and tops up morale after a funded pay cycle.
func (m *CrewMember) Rest() {
	m.Fatigue = 0
	if m.Morale < 100 {
		m.Morale += 10
		if m.Morale > 100 {
			m.Morale = 100
		}
	}
}

// effectiveness is the 0..1 output scale for the member's bonuses, dragged
// down by fatigue and low morale.
func (m *CrewMember) effectiveness() float64 {
	eff := 1.0 - float64(m.Fatigue)/200.0
	if m.Morale < 50 {
		eff *= 0.75
	}
	if eff < 0.25 {
		eff = 0.25
	}
	return eff
}

// EngineerFuelFactor is the multiplicative fuel-burn reduction contributed
// by one engineer: up to 4% per level, scaled by effectiveness.
func (m *CrewMember) EngineerFuelFactor() float64 {
	if m.Specialty != SpecialtyEngineer {
		return 1.0
	}
	reduction := 0.04 * float64(m.Level) * m.effectiveness()
	if m.HasPerk("fuel_miser") {
		reduction += 0.03
	}
	if reduction > 0.35 {
		reduction = 0.35
	}
	return 1.0 - reduction
}

// WeaponsHitBonus is the additive hit-chance bonus contributed by one
// weapons specialist: 1.5% per level, scaled by effectiveness.
func (m *CrewMember) WeaponsHitBonus() float64 {
	if m.Specialty != SpecialtyWeapons {
		return 0
	}
	bonus := 0.015 * float64(m.Level) * m.effectiveness()
	if m.HasPerk("deadeye") {
		bonus += 0.02
	}
	return bonus
}

// CrewOffer is one hireable candidate shown at a planet with crew services.
type CrewOffer struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Level     int    `json:"level"`
	HireCost  int    `json:"hire_cost"`
	DailyPay  int    `json:"daily_pay"`
}

var crewForenames = []string{
	"Asha", "Brennik", "Cole", "Dmitra", "Esko", "Farrah", "Gorin",
	"Halle", "Ivo", "Juno", "Kessler", "Lyra", "Moss", "Nadia",
	"Oleg", "Petra", "Quill", "Renn", "Soren", "Tamsin",
}

var crewSurnames = []string{
	"Antares", "Brightwell", "Calloway", "Drax", "Eriksen", "Falk",
	"Grieve", "Holt", "Imari", "Jessop", "Kovacs", "Lang", "Mercer",
	"Novak", "Okafor", "Pryce", "Reyes", "Stross", "Teller", "Voss",
}

// RollCrewOffers generates hireable candidates for a planet. The planet
// name seeds nothing here; offers are per-visit and rolled from rng.
func RollCrewOffers(rng *rand.Rand, count int) []CrewOffer {
	offers := make([]CrewOffer, 0, count)
	for i := 0; i < count; i++ {
		specialty := SpecialtyWeapons
		if rng.Intn(2) == 0 {
			specialty = SpecialtyEngineer
		}
		level := 1 + rng.Intn(3)
		offers = append(offers, CrewOffer{
			Name:      crewForenames[rng.Intn(len(crewForenames))] + " " + crewSurnames[rng.Intn(len(crewSurnames))],
			Specialty: specialty,
			Level:     level,
			HireCost:  200*level + rng.Intn(150),
			DailyPay:  40*level + rng.Intn(20),
		})
	}
	return offers
}

// NewCrewMember builds the hired member from an accepted offer.
func NewCrewMember(offer CrewOffer) *CrewMember {
	return &CrewMember{
		Name:      offer.Name,
		Specialty: offer.Specialty,
		Level:     offer.Level,
		Morale:    80,
		DailyPay:  offer.DailyPay,
	}
}
