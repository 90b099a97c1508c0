package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vpleague/auctioneer/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "valid full config",
			yaml: `
auction:
  roster_size: 11
  reserve_price: 100
  reset_token: "wipe-it"
database:
  driver: "postgres"
  host: "db.example.com"
  port: 5433
  user: "auctioneer"
  password: "secret"
  dbname: "vpl"
  sslmode: "require"
server:
  port: 9090
telemetry:
  service_name: "vpl-auction"
  otlp_endpoint: "localhost:4318"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Auction.RosterSize != 11 {
					t.Errorf("got roster size %d, want %d", cfg.Auction.RosterSize, 11)
				}
				if cfg.Auction.ReservePrice != 100 {
					t.Errorf("got reserve price %d, want %d", cfg.Auction.ReservePrice, 100)
				}
				if cfg.Database.Port != 5433 {
					t.Errorf("got db port %d, want %d", cfg.Database.Port, 5433)
				}
				if cfg.Server.Port != 9090 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 9090)
				}
				if cfg.Telemetry.ServiceName != "vpl-auction" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "vpl-auction")
				}
			},
		},
		{
			name: "defaults applied",
			yaml: `
auction:
  reset_token: "tok"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Auction.RosterSize != 15 {
					t.Errorf("got roster size %d, want %d", cfg.Auction.RosterSize, 15)
				}
				if cfg.Auction.ReservePrice != 200 {
					t.Errorf("got reserve price %d, want %d", cfg.Auction.ReservePrice, 200)
				}
				if cfg.Auction.DefaultPurse != 10000 {
					t.Errorf("got default purse %d, want %d", cfg.Auction.DefaultPurse, 10000)
				}
				if cfg.Database.Driver != "sqlite" {
					t.Errorf("got driver %q, want %q", cfg.Database.Driver, "sqlite")
				}
				if cfg.Server.Port != 8080 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 8080)
				}
			},
		},
		{
			name:    "invalid yaml",
			yaml:    `{{{invalid`,
			wantErr: true,
		},
		{
			name: "invalid driver rejected",
			yaml: `
auction:
  reset_token: "tok"
database:
  driver: "mongodb"
`,
			wantErr: true,
		},
		{
			name: "missing reset token rejected",
			yaml: `
database:
  driver: "sqlite"
  path: "test.db"
`,
			wantErr: true,
		},
		{
			name: "sqlite requires a path",
			yaml: `
auction:
  reset_token: "tok"
database:
  driver: "sqlite"
  path: ""
`,
			wantErr: true,
		},
		{
			name: "zero roster size rejected",
			yaml: `
auction:
  reset_token: "tok"
  roster_size: 0
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := config.Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && cfg != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("AUCTION_RESET_TOKEN", "env-token")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
auction:
  reset_token: "file-token"
database:
  driver: "postgres"
  password: "from-file"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("got db password %q, want env override %q", cfg.Database.Password, "from-env")
	}
	if cfg.Auction.ResetToken != "env-token" {
		t.Errorf("got reset token %q, want env override %q", cfg.Auction.ResetToken, "env-token")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "vpl",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=user password=pass dbname=vpl sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
