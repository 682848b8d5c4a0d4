package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config aggregates all application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	OSRM    OSRMConfig    `yaml:"osrm"`
	Catalog CatalogConfig `yaml:"catalog"`
	Solver  SolverConfig  `yaml:"solver"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT" env-default:"8000"`
}

type DBConfig struct {
	// Driver selects the gorm dialect: "sqlite" for dev/tests, "postgres" for prod
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"planner.db"`
}

type OSRMConfig struct {
	URL        string `yaml:"url" env:"OSRM_URL" env-default:"http://localhost:5000"`
	TimeoutSec int    `yaml:"timeout" env:"OSRM_TIMEOUT" env-default:"5"`
	Enabled    bool   `yaml:"enabled" env:"USE_OSRM" env-default:"true"`
}

type CatalogConfig struct {
	// Advisory paging bounds for catalog queries
	DefaultLimit int `yaml:"default_limit" env:"DEFAULT_LIMIT" env-default:"12"`
	MaxLimit     int `yaml:"max_limit" env:"MAX_LIMIT" env-default:"90"`
}

type SolverConfig struct {
	TimeLimitSec int `yaml:"time_limit" env:"SOLVER_TIME_LIMIT" env-default:"15"`
}

// Timeout returns the OSRM request timeout as a duration
func (c OSRMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TimeLimit returns the solver budget as a duration
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSec) * time.Second
}

// Load reads configuration from config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	var cfg Config

	// Read config.yaml if present, then override with envs
	err := cleanenv.ReadConfig("config.yaml", &cfg)
	if err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	return &cfg, nil
}
