// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string        // e.g. "8080"
	BackofficePort       string        // e.g. "8081"
	Env                  string        // "development" | "production"
	ReadTimeout          time.Duration // default 10s
	WriteTimeout         time.Duration // default 10s
	BackofficeAllowedIPs string        // comma-separated IPs; "" = allow all
}

// DBConfig holds SQLite connection settings.
type DBConfig struct {
	Path        string        // sqlite file path; ":memory:" for ephemeral runs
	BusyTimeout time.Duration // default 5s
}

// JWTConfig holds JWT signing settings.
type JWTConfig struct {
	AccessSecret  string        // must be set
	RefreshSecret string        // must be set
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 720h (30 days)
}

// CatalogConfig holds the universe catalog location.
type CatalogConfig struct {
	Path string // default "catalog/universe.yaml"
}

// SessionConfig holds live-session housekeeping settings.
type SessionConfig struct {
	AutosaveInterval time.Duration // default 30s
	IdleTTL          time.Duration // evict (after saving) sessions idle this long
}

// GameConfig holds the simulation tuning knobs. These are design knobs, not
// algorithmic contracts; everything here may be overridden per deployment.
type GameConfig struct {
	// Start conditions
	StartingCash         int64 // default −5000
	StarterLoanPrincipal int64 // forced opening loan
	InitialCargoCapacity int   // tonnes
	BaseMaxCargo         int   // phase-1 capacity ceiling
	CargoCostPerTonne    int64 // hold expansion price
	StartingHull         int
	MaxRepairHealth      int // hull can be repaired beyond 100

	// Trading
	OverdraftFloor        int64   // buys rejected below this cash level
	TradeTaxRate          float64 // repeat same-day trade tax
	OverdraftInterestRate float64 // daily interest on negative cash

	// Bank
	MaxLoans          int
	LoanTermDays      int
	EarlyRepayFeeRate float64 // of principal, per remaining day
	LoanOfferCount    int
	DepositRate1Day   float64
	DepositRate2Day   float64
	DepositRate3Day   float64

	// Contracts
	ContractLimitP1 int
	ContractLimitP2 int
	ContractLimitP3 int
	TradeBanDays    int

	// Shipping / warehouse
	ExpressRatePerTonne  int64 // 1-day tier
	StandardRatePerTonne int64 // 2-day tier
	FreightRatePerTonne  int64 // 3-day tier
	ShipmentDelayChance  float64
	SeizureGraceDays     int

	// Travel / encounters
	EncounterBaseChance   float64
	WarrantEncounterBonus float64
	SectorPassDiscount    float64
	InsurancePremiumRate  float64
	InsurancePayoutRate   float64
	WarrantBountyFee      int64 // per warrant level

	// Repairs
	RepairIncrement int
	HullRepairCost  int64 // per increment
	LaserRepairCost int64 // per increment

	// Mining
	OverloadYieldMult float64
	OverloadRiskMult  int

	// Phase progression
	Phase1Goal   int64
	Phase2Goal   int64
	Phase3Goal   int64
	Phase1Days   int
	Phase2Days   int
	Phase3Days   int
	OvertimeDays int
	GlutFactor   float64 // stock glut multiplier on phase advance
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	Catalog CatalogConfig
	Session SessionConfig
	Game    GameConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// GoalFor returns the net-worth goal for a phase (phase 4 has none).
func (c *Config) GoalFor(phase int) int64 {
	switch phase {
	case 1:
		return c.Game.Phase1Goal
	case 2:
		return c.Game.Phase2Goal
	case 3:
		return c.Game.Phase3Goal
	default:
		return 0
	}
}

// DeadlineFor returns the day limit for a phase; phase 4 runs to overtime.
func (c *Config) DeadlineFor(phase int) int {
	switch phase {
	case 1:
		return c.Game.Phase1Days
	case 2:
		return c.Game.Phase2Days
	case 3:
		return c.Game.Phase3Days
	default:
		return c.Game.OvertimeDays
	}
}

// ContractLimitFor returns the active-contract cap for a phase.
func (c *Config) ContractLimitFor(phase int) int {
	switch phase {
	case 1:
		return c.Game.ContractLimitP1
	case 2:
		return c.Game.ContractLimitP2
	default:
		return c.Game.ContractLimitP3
	}
}

// MaxCargoFor returns the cargo capacity ceiling for a phase.
func (c *Config) MaxCargoFor(phase int) int {
	switch phase {
	case 1:
		return c.Game.BaseMaxCargo
	case 2:
		return c.Game.BaseMaxCargo * 10
	case 3:
		return 250000
	default:
		return 500000
	}
}

// DepositRateFor returns the total-term rate for a 1–3 day deposit.
func (c *Config) DepositRateFor(termDays int) (float64, bool) {
	switch termDays {
	case 1:
		return c.Game.DepositRate1Day, true
	case 2:
		return c.Game.DepositRate2Day, true
	case 3:
		return c.Game.DepositRate3Day, true
	default:
		return 0, false
	}
}

// Validate checks that all required configuration values are present and valid.
func (c *Config) Validate() error {
	var errs []error

	// JWT secrets are mandatory
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must be set"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must be set"))
	}

	// In production, the DB path must be explicit
	if c.IsProd() && c.DB.Path == "" {
		errs = append(errs, errors.New("DATABASE_PATH must be set in production"))
	}

	// Rate sanity checks
	rates := map[string]float64{
		"TRADE_TAX_RATE":          c.Game.TradeTaxRate,
		"OVERDRAFT_INTEREST_RATE": c.Game.OverdraftInterestRate,
		"INSURANCE_PREMIUM_RATE":  c.Game.InsurancePremiumRate,
		"INSURANCE_PAYOUT_RATE":   c.Game.InsurancePayoutRate,
		"ENCOUNTER_BASE_CHANCE":   c.Game.EncounterBaseChance,
	}
	for name, v := range rates {
		if v <= 0 || v >= 1 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 1 (exclusive), got %.4f", name, v))
		}
	}

	if c.Game.OverdraftFloor >= 0 {
		errs = append(errs, fmt.Errorf("OVERDRAFT_FLOOR must be negative, got %d", c.Game.OverdraftFloor))
	}

	// Phase ladder must be strictly increasing
	if !(c.Game.Phase1Goal < c.Game.Phase2Goal && c.Game.Phase2Goal < c.Game.Phase3Goal) {
		errs = append(errs, errors.New("phase goals must be strictly increasing"))
	}
	if !(c.Game.Phase1Days < c.Game.Phase2Days && c.Game.Phase2Days < c.Game.Phase3Days && c.Game.Phase3Days < c.Game.OvertimeDays) {
		errs = append(errs, errors.New("phase deadlines must be strictly increasing up to the overtime limit"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// Default returns a Config with every knob at its default value, bypassing the
// environment. Used by tests that need a full tuning set without env setup.
func Default() *Config {
	cfg, err := load()
	if err != nil {
		panic(fmt.Sprintf("config: default load: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:                 getEnv("SERVER_PORT", "8080"),
		BackofficePort:       getEnv("BACKOFFICE_PORT", "8081"),
		Env:                  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:          getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BackofficeAllowedIPs: getEnv("BACKOFFICE_ALLOWED_IPS", ""),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	cfg.DB = DBConfig{
		Path:        getEnv("DATABASE_PATH", "tradeempire.db"),
		BusyTimeout: getDuration("DB_BUSY_TIMEOUT", 5*time.Second),
	}

	// ── JWT ───────────────────────────────────────────────────────────────────
	cfg.JWT = JWTConfig{
		AccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		AccessTTL:     getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
	}

	// ── Catalog ───────────────────────────────────────────────────────────────
	cfg.Catalog = CatalogConfig{
		Path: getEnv("CATALOG_PATH", "catalog/universe.yaml"),
	}

	// ── Sessions ──────────────────────────────────────────────────────────────
	cfg.Session = SessionConfig{
		AutosaveInterval: getDuration("SESSION_AUTOSAVE_INTERVAL", 30*time.Second),
		IdleTTL:          getDuration("SESSION_IDLE_TTL", 2*time.Hour),
	}

	// ── Game tuning ───────────────────────────────────────────────────────────
	game := GameConfig{}
	var err error

	if game.StartingCash, err = getInt64("GAME_STARTING_CASH", -5000); err != nil {
		return nil, fmt.Errorf("GAME_STARTING_CASH: %w", err)
	}
	if game.StarterLoanPrincipal, err = getInt64("GAME_STARTER_LOAN", 30000); err != nil {
		return nil, fmt.Errorf("GAME_STARTER_LOAN: %w", err)
	}
	if game.InitialCargoCapacity, err = getInt("GAME_INITIAL_CARGO", 1000); err != nil {
		return nil, fmt.Errorf("GAME_INITIAL_CARGO: %w", err)
	}
	if game.BaseMaxCargo, err = getInt("GAME_BASE_MAX_CARGO", 5000); err != nil {
		return nil, fmt.Errorf("GAME_BASE_MAX_CARGO: %w", err)
	}
	if game.CargoCostPerTonne, err = getInt64("GAME_CARGO_COST_PER_TONNE", 75); err != nil {
		return nil, fmt.Errorf("GAME_CARGO_COST_PER_TONNE: %w", err)
	}
	if game.StartingHull, err = getInt("GAME_STARTING_HULL", 100); err != nil {
		return nil, fmt.Errorf("GAME_STARTING_HULL: %w", err)
	}
	if game.MaxRepairHealth, err = getInt("GAME_MAX_REPAIR_HEALTH", 150); err != nil {
		return nil, fmt.Errorf("GAME_MAX_REPAIR_HEALTH: %w", err)
	}

	if game.OverdraftFloor, err = getInt64("GAME_OVERDRAFT_FLOOR", -10000); err != nil {
		return nil, fmt.Errorf("GAME_OVERDRAFT_FLOOR: %w", err)
	}
	if game.TradeTaxRate, err = getFloat("GAME_TRADE_TAX_RATE", 0.05); err != nil {
		return nil, fmt.Errorf("GAME_TRADE_TAX_RATE: %w", err)
	}
	if game.OverdraftInterestRate, err = getFloat("GAME_OVERDRAFT_INTEREST_RATE", 0.15); err != nil {
		return nil, fmt.Errorf("GAME_OVERDRAFT_INTEREST_RATE: %w", err)
	}

	if game.MaxLoans, err = getInt("GAME_MAX_LOANS", 3); err != nil {
		return nil, fmt.Errorf("GAME_MAX_LOANS: %w", err)
	}
	if game.LoanTermDays, err = getInt("GAME_LOAN_TERM_DAYS", 5); err != nil {
		return nil, fmt.Errorf("GAME_LOAN_TERM_DAYS: %w", err)
	}
	if game.EarlyRepayFeeRate, err = getFloat("GAME_EARLY_REPAY_FEE_RATE", 0.02); err != nil {
		return nil, fmt.Errorf("GAME_EARLY_REPAY_FEE_RATE: %w", err)
	}
	if game.LoanOfferCount, err = getInt("GAME_LOAN_OFFER_COUNT", 5); err != nil {
		return nil, fmt.Errorf("GAME_LOAN_OFFER_COUNT: %w", err)
	}
	if game.DepositRate1Day, err = getFloat("GAME_DEPOSIT_RATE_1D", 0.05); err != nil {
		return nil, fmt.Errorf("GAME_DEPOSIT_RATE_1D: %w", err)
	}
	if game.DepositRate2Day, err = getFloat("GAME_DEPOSIT_RATE_2D", 0.20); err != nil {
		return nil, fmt.Errorf("GAME_DEPOSIT_RATE_2D: %w", err)
	}
	if game.DepositRate3Day, err = getFloat("GAME_DEPOSIT_RATE_3D", 0.50); err != nil {
		return nil, fmt.Errorf("GAME_DEPOSIT_RATE_3D: %w", err)
	}

	if game.ContractLimitP1, err = getInt("GAME_CONTRACT_LIMIT_P1", 2); err != nil {
		return nil, fmt.Errorf("GAME_CONTRACT_LIMIT_P1: %w", err)
	}
	if game.ContractLimitP2, err = getInt("GAME_CONTRACT_LIMIT_P2", 3); err != nil {
		return nil, fmt.Errorf("GAME_CONTRACT_LIMIT_P2: %w", err)
	}
	if game.ContractLimitP3, err = getInt("GAME_CONTRACT_LIMIT_P3", 4); err != nil {
		return nil, fmt.Errorf("GAME_CONTRACT_LIMIT_P3: %w", err)
	}
	if game.TradeBanDays, err = getInt("GAME_TRADE_BAN_DAYS", 3); err != nil {
		return nil, fmt.Errorf("GAME_TRADE_BAN_DAYS: %w", err)
	}

	if game.ExpressRatePerTonne, err = getInt64("GAME_EXPRESS_RATE", 100); err != nil {
		return nil, fmt.Errorf("GAME_EXPRESS_RATE: %w", err)
	}
	if game.StandardRatePerTonne, err = getInt64("GAME_STANDARD_RATE", 50); err != nil {
		return nil, fmt.Errorf("GAME_STANDARD_RATE: %w", err)
	}
	if game.FreightRatePerTonne, err = getInt64("GAME_FREIGHT_RATE", 20); err != nil {
		return nil, fmt.Errorf("GAME_FREIGHT_RATE: %w", err)
	}
	if game.ShipmentDelayChance, err = getFloat("GAME_SHIPMENT_DELAY_CHANCE", 0.10); err != nil {
		return nil, fmt.Errorf("GAME_SHIPMENT_DELAY_CHANCE: %w", err)
	}
	if game.SeizureGraceDays, err = getInt("GAME_SEIZURE_GRACE_DAYS", 3); err != nil {
		return nil, fmt.Errorf("GAME_SEIZURE_GRACE_DAYS: %w", err)
	}

	if game.EncounterBaseChance, err = getFloat("GAME_ENCOUNTER_BASE_CHANCE", 0.65); err != nil {
		return nil, fmt.Errorf("GAME_ENCOUNTER_BASE_CHANCE: %w", err)
	}
	if game.WarrantEncounterBonus, err = getFloat("GAME_WARRANT_ENCOUNTER_BONUS", 0.15); err != nil {
		return nil, fmt.Errorf("GAME_WARRANT_ENCOUNTER_BONUS: %w", err)
	}
	if game.SectorPassDiscount, err = getFloat("GAME_SECTOR_PASS_DISCOUNT", 0.20); err != nil {
		return nil, fmt.Errorf("GAME_SECTOR_PASS_DISCOUNT: %w", err)
	}
	if game.InsurancePremiumRate, err = getFloat("GAME_INSURANCE_PREMIUM_RATE", 0.02); err != nil {
		return nil, fmt.Errorf("GAME_INSURANCE_PREMIUM_RATE: %w", err)
	}
	if game.InsurancePayoutRate, err = getFloat("GAME_INSURANCE_PAYOUT_RATE", 0.95); err != nil {
		return nil, fmt.Errorf("GAME_INSURANCE_PAYOUT_RATE: %w", err)
	}
	if game.WarrantBountyFee, err = getInt64("GAME_WARRANT_BOUNTY_FEE", 25000); err != nil {
		return nil, fmt.Errorf("GAME_WARRANT_BOUNTY_FEE: %w", err)
	}

	if game.RepairIncrement, err = getInt("GAME_REPAIR_INCREMENT", 10); err != nil {
		return nil, fmt.Errorf("GAME_REPAIR_INCREMENT: %w", err)
	}
	if game.HullRepairCost, err = getInt64("GAME_HULL_REPAIR_COST", 500); err != nil {
		return nil, fmt.Errorf("GAME_HULL_REPAIR_COST: %w", err)
	}
	if game.LaserRepairCost, err = getInt64("GAME_LASER_REPAIR_COST", 300); err != nil {
		return nil, fmt.Errorf("GAME_LASER_REPAIR_COST: %w", err)
	}

	if game.OverloadYieldMult, err = getFloat("GAME_OVERLOAD_YIELD_MULT", 2.0); err != nil {
		return nil, fmt.Errorf("GAME_OVERLOAD_YIELD_MULT: %w", err)
	}
	if game.OverloadRiskMult, err = getInt("GAME_OVERLOAD_RISK_MULT", 5); err != nil {
		return nil, fmt.Errorf("GAME_OVERLOAD_RISK_MULT: %w", err)
	}

	if game.Phase1Goal, err = getInt64("GAME_PHASE1_GOAL", 250000); err != nil {
		return nil, fmt.Errorf("GAME_PHASE1_GOAL: %w", err)
	}
	if game.Phase2Goal, err = getInt64("GAME_PHASE2_GOAL", 2500000); err != nil {
		return nil, fmt.Errorf("GAME_PHASE2_GOAL: %w", err)
	}
	if game.Phase3Goal, err = getInt64("GAME_PHASE3_GOAL", 25000000); err != nil {
		return nil, fmt.Errorf("GAME_PHASE3_GOAL: %w", err)
	}
	if game.Phase1Days, err = getInt("GAME_PHASE1_DAYS", 30); err != nil {
		return nil, fmt.Errorf("GAME_PHASE1_DAYS: %w", err)
	}
	if game.Phase2Days, err = getInt("GAME_PHASE2_DAYS", 60); err != nil {
		return nil, fmt.Errorf("GAME_PHASE2_DAYS: %w", err)
	}
	if game.Phase3Days, err = getInt("GAME_PHASE3_DAYS", 90); err != nil {
		return nil, fmt.Errorf("GAME_PHASE3_DAYS: %w", err)
	}
	if game.OvertimeDays, err = getInt("GAME_OVERTIME_DAYS", 120); err != nil {
		return nil, fmt.Errorf("GAME_OVERTIME_DAYS: %w", err)
	}
	if game.GlutFactor, err = getFloat("GAME_GLUT_FACTOR", 2.0); err != nil {
		return nil, fmt.Errorf("GAME_GLUT_FACTOR: %w", err)
	}

	cfg.Game = game
	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
