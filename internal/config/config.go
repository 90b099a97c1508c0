package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Values are read from a
// YAML file and may be overridden by environment variables, so secrets
// (database password, reset token) can stay out of the file.
type Config struct {
	Auction        AuctionConfig        `yaml:"auction"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// AuctionConfig holds the auction rules and controls.
type AuctionConfig struct {
	// RosterSize is the maximum squad size per team.
	RosterSize int `yaml:"roster_size" env:"AUCTION_ROSTER_SIZE"`
	// ReservePrice is the base price reserved per unfilled squad slot.
	ReservePrice int `yaml:"reserve_price" env:"AUCTION_RESERVE_PRICE"`
	// DefaultPurse is the budget assigned to newly created teams.
	DefaultPurse int `yaml:"default_purse" env:"AUCTION_DEFAULT_PURSE"`
	// DefaultRTM is the right-to-match allowance for new teams.
	DefaultRTM int `yaml:"default_rtm" env:"AUCTION_DEFAULT_RTM"`
	// ResetToken must accompany a full auction reset.
	ResetToken string `yaml:"reset_token" env:"AUCTION_RESET_TOKEN"`
	// SelectionSeed seeds the random player selection; 0 means seed from
	// the clock.
	SelectionSeed int64 `yaml:"selection_seed" env:"AUCTION_SELECTION_SEED"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"` // "postgres" or "sqlite"
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path" env:"DB_PATH"`
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure       bool   `yaml:"insecure" env:"OTEL_EXPORTER_INSECURE"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled" env:"LEADER_ELECTION_ENABLED"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// Load reads a YAML configuration file, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Auction: AuctionConfig{
			RosterSize:   15,
			ReservePrice: 200,
			DefaultPurse: 10000,
			DefaultRTM:   2,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Path:    "auctioneer.db",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctioneer",
			ServiceVersion: "0.1.0",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctioneer-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"postgres\" or \"sqlite\"", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("sqlite driver requires database.path")
	}
	if c.Auction.RosterSize <= 0 {
		return fmt.Errorf("auction.roster_size must be positive, got %d", c.Auction.RosterSize)
	}
	if c.Auction.ReservePrice < 0 {
		return fmt.Errorf("auction.reserve_price must not be negative, got %d", c.Auction.ReservePrice)
	}
	if c.Auction.ResetToken == "" {
		return fmt.Errorf("auction.reset_token must be set")
	}
	return nil
}
