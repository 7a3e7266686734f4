package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/arpgcore/internal/telemetry"
)

// CombatSim holds all configuration for the combat simulator.
type CombatSim struct {
	Sim       SimConfig        `yaml:"sim"`
	Journal   JournalConfig    `yaml:"journal"`
	Database  DatabaseConfig   `yaml:"database"`
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Idle attack nodes to construct per template id before the first tick.
	Prewarm map[int32]int `yaml:"prewarm"`

	Roster []Fighter `yaml:"roster"`
}

// SimConfig controls the tick loop.
type SimConfig struct {
	LogLevel      string        `yaml:"log_level" env:"ARPG_LOG_LEVEL"`
	Seed          uint64        `yaml:"seed" env:"ARPG_SEED"`
	CatalogPath   string        `yaml:"catalog_path" env:"ARPG_CATALOG"`
	Stage         string        `yaml:"stage" env:"ARPG_STAGE"`
	TickInterval  time.Duration `yaml:"tick_interval" env:"ARPG_TICK_INTERVAL"` // wall time between ticks, 0 = as fast as possible
	Step          time.Duration `yaml:"step" env:"ARPG_STEP"`                   // combat time per tick
	MaxTicks      int           `yaml:"max_ticks" env:"ARPG_MAX_TICKS"`
	HitRadius     float64       `yaml:"hit_radius" env:"ARPG_HIT_RADIUS"`
	CancelOnDeath bool          `yaml:"cancel_attacks_on_death" env:"ARPG_CANCEL_ON_DEATH"`
}

// JournalConfig controls combat log persistence.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled" env:"ARPG_JOURNAL_ENABLED"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"ARPG_JOURNAL_FLUSH_INTERVAL"`
	MaxBuffered   int           `yaml:"max_buffered" env:"ARPG_JOURNAL_MAX_BUFFERED"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"ARPG_DB_HOST"`
	Port     int    `yaml:"port" env:"ARPG_DB_PORT"`
	User     string `yaml:"user" env:"ARPG_DB_USER"`
	Password string `yaml:"password" env:"ARPG_DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"ARPG_DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"ARPG_DB_SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultCombatSim returns CombatSim config with sensible defaults.
func DefaultCombatSim() CombatSim {
	return CombatSim{
		Sim: SimConfig{
			LogLevel:      "info",
			Seed:          1,
			CatalogPath:   "config/attacks.yaml",
			Stage:         "arena",
			TickInterval:  0,
			Step:          50 * time.Millisecond,
			MaxTicks:      600,
			HitRadius:     1.0,
			CancelOnDeath: true,
		},
		Journal: JournalConfig{
			FlushInterval: time.Second,
			MaxBuffered:   4096,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "arpg",
			Password: "arpg",
			DBName:   "arpg",
			SSLMode:  "disable",
		},
		Telemetry: telemetry.Config{
			ServiceName: "combatsim",
			SampleRatio: 1,
		},
	}
}

// LoadCombatSim loads simulator config from a YAML file, then applies
// ARPG_* environment overrides. If the file doesn't exist, defaults are used.
func LoadCombatSim(path string) (CombatSim, error) {
	cfg := DefaultCombatSim()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	for _, target := range []any{&cfg.Sim, &cfg.Journal, &cfg.Database, &cfg.Telemetry} {
		if err := ParseEnv(target); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// ParseEnv overrides fields of target from their env tags. Unset variables
// leave the current value in place.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
