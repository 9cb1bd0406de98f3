package configparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Database struct {
		Host string `env:"TEST_DATABASE_HOST" default:"localhost"`
		Port int    `env:"TEST_DATABASE_PORT" default:"5432"`
	}
	Matching struct {
		Interval time.Duration `env:"TEST_MATCHING_INTERVAL" default:"10s"`
		Radius   float64       `env:"TEST_MATCHING_RADIUS" default:"60000"`
	}
	Brokers []string `env:"TEST_KAFKA_BROKERS"`
	Debug   bool     `env:"TEST_DEBUG" default:"false"`
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("defaults not applied: %+v", cfg.Database)
	}
	if cfg.Matching.Interval != 10*time.Second {
		t.Fatalf("interval: got %v", cfg.Matching.Interval)
	}
	if cfg.Matching.Radius != 60000 {
		t.Fatalf("radius: got %v", cfg.Matching.Radius)
	}
	if cfg.Brokers != nil {
		t.Fatalf("brokers must stay empty, got %v", cfg.Brokers)
	}
}

func TestParseEnv_FromEnvironment(t *testing.T) {
	t.Setenv("TEST_DATABASE_PORT", "6543")
	t.Setenv("TEST_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("TEST_DEBUG", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Port != 6543 {
		t.Fatalf("port: got %d", cfg.Database.Port)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers: got %v", cfg.Brokers)
	}
	if !cfg.Debug {
		t.Fatalf("debug must be true")
	}
}

func TestParseEnv_InvalidValue(t *testing.T) {
	t.Setenv("TEST_DATABASE_PORT", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatalf("expected error for invalid int")
	}
}

func TestParseEnv_Required(t *testing.T) {
	var cfg struct {
		Secret string `env:"TEST_REQUIRED_SECRET" required:"true"`
	}
	if err := ParseEnv(&cfg); !errors.Is(err, ErrRequiredMissing) {
		t.Fatalf("expected ErrRequiredMissing, got %v", err)
	}
}

func TestParseEnv_NotPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); !errors.Is(err, ErrNotStructPointer) {
		t.Fatalf("expected ErrNotStructPointer, got %v", err)
	}
}

func TestLoadYamlFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
test_yaml:
  database:
    host: db.internal
    port: ${TEST_YAML_PORT_OVERRIDE:-7777}
  brokers:
    - a:9092
    - b:9092
  empty:
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_YAML_DATABASE_HOST", "")
	t.Setenv("TEST_YAML_DATABASE_PORT", "")
	t.Setenv("TEST_YAML_BROKERS", "")

	if err := LoadYamlFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv("TEST_YAML_DATABASE_HOST"); got != "db.internal" {
		t.Fatalf("host: got %q", got)
	}
	if got := os.Getenv("TEST_YAML_DATABASE_PORT"); got != "7777" {
		t.Fatalf("port: got %q", got)
	}
	if got := os.Getenv("TEST_YAML_BROKERS"); got != "a:9092,b:9092" {
		t.Fatalf("brokers: got %q", got)
	}
}

func TestLoadYamlFile_NoPath(t *testing.T) {
	if err := LoadYamlFile(""); !errors.Is(err, ErrNoFilePath) {
		t.Fatalf("expected ErrNoFilePath, got %v", err)
	}
}
