package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrewProgression(t *testing.T) {
	t.Run("thresholds grow with level", func(t *testing.T) {
		assert.Equal(t, 70, xpThreshold(0))
		assert.Equal(t, 105, xpThreshold(1))
		assert.Equal(t, 315, xpThreshold(7))
	})

	t.Run("milestone levels grant perks", func(t *testing.T) {
		m := &CrewMember{Name: "Juno Voss", Specialty: SpecialtyWeapons, Level: 1, Morale: 80}
		for m.Level < 7 {
			m.GainXP(500)
		}
		assert.True(t, m.HasPerk("steady_hands"))
		assert.True(t, m.HasPerk("overwatch"))
		assert.True(t, m.HasPerk("deadeye"))
		assert.Contains(t, m.Perks, "L3:steady_hands")
	})

	t.Run("levels cap", func(t *testing.T) {
		m := &CrewMember{Name: "Moss Drax", Specialty: SpecialtyEngineer, Level: 1}
		m.GainXP(1_000_000)
		assert.Equal(t, crewMaxLevel, m.Level)
	})
}

func TestCrewBonuses(t *testing.T) {
	t.Run("engineer factor shrinks with level, bounded", func(t *testing.T) {
		fresh := &CrewMember{Specialty: SpecialtyEngineer, Level: 1, Morale: 80}
		veteran := &CrewMember{Specialty: SpecialtyEngineer, Level: 8, Morale: 80}
		assert.Less(t, veteran.EngineerFuelFactor(), fresh.EngineerFuelFactor())
		assert.GreaterOrEqual(t, veteran.EngineerFuelFactor(), 0.65)
		assert.Less(t, fresh.EngineerFuelFactor(), 1.0)
	})

	t.Run("fatigue and low morale drag effectiveness", func(t *testing.T) {
		rested := &CrewMember{Specialty: SpecialtyWeapons, Level: 5, Morale: 80}
		worn := &CrewMember{Specialty: SpecialtyWeapons, Level: 5, Morale: 20, Fatigue: 90}
		assert.Greater(t, rested.WeaponsHitBonus(), worn.WeaponsHitBonus())
	})

	t.Run("specialists only contribute in their lane", func(t *testing.T) {
		eng := &CrewMember{Specialty: SpecialtyEngineer, Level: 5, Morale: 80}
		assert.Equal(t, 0.0, eng.WeaponsHitBonus())
		gun := &CrewMember{Specialty: SpecialtyWeapons, Level: 5, Morale: 80}
		assert.Equal(t, 1.0, gun.EngineerFuelFactor())
	})
}

func TestCrewOffers(t *testing.T) {
	rng := rand.New(rand.NewSource(60))
	offers := RollCrewOffers(rng, 4)
	require.Len(t, offers, 4)
	for _, o := range offers {
		assert.NotEmpty(t, o.Name)
		assert.Contains(t, []string{SpecialtyWeapons, SpecialtyEngineer}, o.Specialty)
		assert.GreaterOrEqual(t, o.Level, 1)
		assert.LessOrEqual(t, o.Level, 3)
		assert.Greater(t, o.HireCost, 0)
		assert.Greater(t, o.DailyPay, 0)

		m := NewCrewMember(o)
		assert.Equal(t, o.Level, m.Level)
		assert.Equal(t, o.DailyPay, m.DailyPay)
		assert.Equal(t, 80, m.Morale)
	}
}
