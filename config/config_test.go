package config

import (
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
)

func validConfig() Config {
	return Config{
		Mode:     types.RideService,
		Services: ServicesConfig{RideService: "3000", AuditService: "3001"},
		Matching: MatchingConfig{RadiusMeters: 60000, SearchInterval: 10 * time.Second, MaxAttempts: 20},
		Share:    ShareConfig{BaseURL: "http://localhost:3000"},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "audit mode", mutate: func(c *Config) { c.Mode = types.AuditService }},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "driver-service" }, wantErr: true},
		{name: "zero radius", mutate: func(c *Config) { c.Matching.RadiusMeters = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Matching.MaxAttempts = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.Matching.SearchInterval = -time.Second }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "kafka with brokers", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = []string{"kafka:9092"}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_InvalidModeIsWrapped(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "unknown"
	if err := cfg.validate(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestValidate_ShareBaseURLSlash(t *testing.T) {
	cfg := validConfig()
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Share.BaseURL != "http://localhost:3000/" {
		t.Fatalf("base url: got %q", cfg.Share.BaseURL)
	}
}

func TestPort(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Port(); got != "3000" {
		t.Fatalf("ride port: got %s", got)
	}
	cfg.Mode = types.AuditService
	if got := cfg.Port(); got != "3001" {
		t.Fatalf("audit port: got %s", got)
	}
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "rides"}
	if got, want := c.GetDSN(), "postgres://u:p@db:5432/rides?sslmode=disable"; got != want {
		t.Fatalf("dsn: got %s want %s", got, want)
	}
}
