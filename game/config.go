package game

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every server tunable. Values come from
// server/game_config.json with defaults applied for anything missing,
// so a partial (or absent) config file is always safe to run with.
type Config struct {
	ServerPort int    `mapstructure:"server_port"`
	SavesRoot  string `mapstructure:"saves_root"`
	DataDir    string `mapstructure:"data_dir"`
	AssetsDir  string `mapstructure:"assets_dir"`

	AllowMultipleGames bool `mapstructure:"allow_multiple_games"`

	StartingCredits  int    `mapstructure:"starting_credits"`
	StartingShip     string `mapstructure:"starting_ship"`
	StartingPlanet   string `mapstructure:"starting_planet"`
	StartingFuel     int    `mapstructure:"starting_fuel"`
	SalvageMultiplier float64 `mapstructure:"salvage_multiplier"`

	// Hostile market: attacked-but-not-owned planets surcharge buys.
	PlanetPricePenaltyMultiplier float64 `mapstructure:"planet_price_penalty_multiplier"`
	HostileMarketWindowHours     float64 `mapstructure:"hostile_market_window_hours"`

	// Port spotlight discounts, rolled on arrival.
	SpotlightMinPct        int     `mapstructure:"spotlight_min_pct"`
	SpotlightMaxPct        int     `mapstructure:"spotlight_max_pct"`
	SpotlightDurationHours float64 `mapstructure:"spotlight_duration_hours"`

	PlanetEventChance float64 `mapstructure:"planet_event_chance"`

	// Economy momentum.
	MomentumStep         float64 `mapstructure:"momentum_step"`
	MomentumDecayPerHour float64 `mapstructure:"momentum_decay_per_hour"`
	SellDampeningFloor   float64 `mapstructure:"sell_dampening_floor"`

	// Contraband.
	ContrabandTierStep float64 `mapstructure:"contraband_tier_step"`
	BribeSellBonus     float64 `mapstructure:"bribe_sell_bonus"`

	// Detection.
	DetectionBaseLowSec  float64 `mapstructure:"detection_base_low_sec"`
	DetectionBaseMidSec  float64 `mapstructure:"detection_base_mid_sec"`
	DetectionBaseHighSec float64 `mapstructure:"detection_base_high_sec"`
	DetectionTierStep    float64 `mapstructure:"detection_tier_step"`
	DetectionHeatScalar  float64 `mapstructure:"detection_heat_scalar"`
	DetectionFrontierDiscount float64 `mapstructure:"detection_frontier_discount"`
	DetectionBribeDiscount    float64 `mapstructure:"detection_bribe_discount"`
	DetectionShipLevelStep    float64 `mapstructure:"detection_ship_level_step"`
	LawHeatGainDetected       int     `mapstructure:"law_heat_gain_detected"`

	HeatDecayPerHour int `mapstructure:"heat_decay_per_hour"`

	// Bribes.
	BribeBaseCost      int     `mapstructure:"bribe_base_cost"`
	BribeMaxLevel      int     `mapstructure:"bribe_max_level"`
	BribeDurationHours float64 `mapstructure:"bribe_duration_hours"`

	// Contracts.
	ContractRewardMult   float64 `mapstructure:"contract_reward_mult"`
	ContractExpiryHours  float64 `mapstructure:"contract_expiry_hours"`
	ChainBonusPctPerStep int     `mapstructure:"chain_bonus_pct_per_step"`

	// Combat.
	StreakBonusPerWin          float64 `mapstructure:"streak_bonus_per_win"`
	StreakBonusCap             float64 `mapstructure:"streak_bonus_cap"`
	EnableSpecialWeapons       bool    `mapstructure:"enable_special_weapons"`
	SpecialWeaponCooldownHours float64 `mapstructure:"special_weapon_cooldown_hours"`
	SpecialWeaponPopMinPct     float64 `mapstructure:"special_weapon_pop_min_pct"`
	SpecialWeaponPopMaxPct     float64 `mapstructure:"special_weapon_pop_max_pct"`
	SpecialWeaponDamageMult    float64 `mapstructure:"special_weapon_damage_mult"`

	// Travel.
	FuelUsageMultiplier float64 `mapstructure:"fuel_usage_multiplier"`
	TravelEventChance   float64 `mapstructure:"travel_event_chance"`

	// Refuel limiter.
	RefuelTimerEnabled      bool    `mapstructure:"refuel_timer_enabled"`
	MaxRefuels              int     `mapstructure:"max_refuels"`
	RefuelWindowHours       float64 `mapstructure:"refuel_window_hours"`
	RefuelCostMultiplierPct int     `mapstructure:"refuel_cost_multiplier_pct"`

	FuelUnitCost         int     `mapstructure:"fuel_unit_cost"`
	RepairCostPerPercent float64 `mapstructure:"repair_cost_per_percent"`

	// Banking.
	BankInterestPerDay   float64 `mapstructure:"bank_interest_per_day"`
	PlanetInterestPerDay float64 `mapstructure:"planet_interest_per_day"`

	// Commander stipend.
	StipendIntervalHours    float64 `mapstructure:"stipend_interval_hours"`
	CommanderStipendCredits int     `mapstructure:"commander_stipend_credits"`

	// Conquered planet defense regen.
	DefenseRegenPerHour int `mapstructure:"defense_regen_per_hour"`
	ShieldRegenPerHour  int `mapstructure:"shield_regen_per_hour"`

	// Campaign victory thresholds.
	VictoryPlanetOwnershipPct float64 `mapstructure:"victory_planet_ownership_pct"`
	VictoryAuthorityMin       int     `mapstructure:"victory_authority_min"`
	VictoryAuthorityMax       int     `mapstructure:"victory_authority_max"`
	VictoryFrontierMin        int     `mapstructure:"victory_frontier_min"`
	VictoryFrontierMax        int     `mapstructure:"victory_frontier_max"`
	VictoryResetDays          int     `mapstructure:"victory_reset_days"`

	// News.
	NewsRetentionDays       int `mapstructure:"news_retention_days"`
	NewsDefaultLookbackDays int `mapstructure:"news_default_lookback_days"`

	// Analytics.
	AnalyticsMaxEvents     int     `mapstructure:"analytics_max_events"`
	AnalyticsRetentionDays int     `mapstructure:"analytics_retention_days"`
	AnalyticsFlushSeconds  float64 `mapstructure:"analytics_flush_seconds"`
}

// LoadConfig reads server/game_config.json via viper. Tunables live under
// the "settings" key; every one of them has a default so a missing or
// partial file never leaves a zero where the engine expects a rate.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("game_config")
		v.SetConfigType("json")
		v.AddConfigPath("./server")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A file that exists but cannot be parsed is a hard error;
			// running with silently-defaulted economy rates is worse.
			if path == "" {
				return nil, fmt.Errorf("read game config: %w", err)
			}
			return nil, fmt.Errorf("read game config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.UnmarshalKey("settings", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal game config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a Config with every default applied and no file read.
// Tests build Games from this.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.UnmarshalKey("settings", &cfg); err != nil {
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.server_port", 8765)
	v.SetDefault("settings.saves_root", "saves")
	v.SetDefault("settings.data_dir", "data")
	v.SetDefault("settings.assets_dir", "assets")

	v.SetDefault("settings.allow_multiple_games", true)

	v.SetDefault("settings.starting_credits", 1000)
	v.SetDefault("settings.starting_ship", "Sparrow")
	v.SetDefault("settings.starting_planet", "New Terra")
	v.SetDefault("settings.starting_fuel", 40)
	v.SetDefault("settings.salvage_multiplier", 0.4)

	v.SetDefault("settings.planet_price_penalty_multiplier", 1.25)
	v.SetDefault("settings.hostile_market_window_hours", 24.0)

	v.SetDefault("settings.spotlight_min_pct", 10)
	v.SetDefault("settings.spotlight_max_pct", 35)
	v.SetDefault("settings.spotlight_duration_hours", 6.0)

	v.SetDefault("settings.planet_event_chance", 0.25)

	v.SetDefault("settings.momentum_step", 0.03)
	v.SetDefault("settings.momentum_decay_per_hour", 0.20)
	v.SetDefault("settings.sell_dampening_floor", 0.75)

	v.SetDefault("settings.contraband_tier_step", 0.25)
	v.SetDefault("settings.bribe_sell_bonus", 0.05)

	v.SetDefault("settings.detection_base_low_sec", 0.04)
	v.SetDefault("settings.detection_base_mid_sec", 0.12)
	v.SetDefault("settings.detection_base_high_sec", 0.24)
	v.SetDefault("settings.detection_tier_step", 0.08)
	v.SetDefault("settings.detection_heat_scalar", 0.004)
	v.SetDefault("settings.detection_frontier_discount", 0.0015)
	v.SetDefault("settings.detection_bribe_discount", 0.05)
	v.SetDefault("settings.detection_ship_level_step", 0.03)
	v.SetDefault("settings.law_heat_gain_detected", 15)

	v.SetDefault("settings.heat_decay_per_hour", 2)

	v.SetDefault("settings.bribe_base_cost", 400)
	v.SetDefault("settings.bribe_max_level", 4)
	v.SetDefault("settings.bribe_duration_hours", 48.0)

	v.SetDefault("settings.contract_reward_mult", 1.0)
	v.SetDefault("settings.contract_expiry_hours", 24.0)
	v.SetDefault("settings.chain_bonus_pct_per_step", 10)

	v.SetDefault("settings.streak_bonus_per_win", 0.05)
	v.SetDefault("settings.streak_bonus_cap", 0.50)
	v.SetDefault("settings.enable_special_weapons", true)
	v.SetDefault("settings.special_weapon_cooldown_hours", 6.0)
	v.SetDefault("settings.special_weapon_pop_min_pct", 0.05)
	v.SetDefault("settings.special_weapon_pop_max_pct", 0.15)
	v.SetDefault("settings.special_weapon_damage_mult", 2.5)

	v.SetDefault("settings.fuel_usage_multiplier", 1.15)
	v.SetDefault("settings.travel_event_chance", 0.30)

	v.SetDefault("settings.refuel_timer_enabled", false)
	v.SetDefault("settings.max_refuels", 3)
	v.SetDefault("settings.refuel_window_hours", 1.0)
	v.SetDefault("settings.refuel_cost_multiplier_pct", 100)

	v.SetDefault("settings.fuel_unit_cost", 6)
	v.SetDefault("settings.repair_cost_per_percent", 15.0)

	v.SetDefault("settings.bank_interest_per_day", 0.01)
	v.SetDefault("settings.planet_interest_per_day", 0.005)

	v.SetDefault("settings.stipend_interval_hours", 24.0)
	v.SetDefault("settings.commander_stipend_credits", 500)

	v.SetDefault("settings.defense_regen_per_hour", 4)
	v.SetDefault("settings.shield_regen_per_hour", 6)

	v.SetDefault("settings.victory_planet_ownership_pct", 0.50)
	v.SetDefault("settings.victory_authority_min", -100)
	v.SetDefault("settings.victory_authority_max", 100)
	v.SetDefault("settings.victory_frontier_min", -100)
	v.SetDefault("settings.victory_frontier_max", 100)
	v.SetDefault("settings.victory_reset_days", 3)

	v.SetDefault("settings.news_retention_days", 14)
	v.SetDefault("settings.news_default_lookback_days", 7)

	v.SetDefault("settings.analytics_max_events", 5000)
	v.SetDefault("settings.analytics_retention_days", 14)
	v.SetDefault("settings.analytics_flush_seconds", 30.0)
}
