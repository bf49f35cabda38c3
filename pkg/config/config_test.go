package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: development
server:
  port: 8080
  shutdown_timeout: 10s
backend:
  type: both
kafka:
  brokers: ["localhost:9092"]
  events_topic: rally.events
clickhouse:
  host: localhost
  port: 9000
  database: rallyscan
scan:
  symbols: ["BTCUSDT", "ETHUSDT"]
  interval: 15m
  bars_per_scan: 3000
  min_gain_pct: 0.05
  buckets: [0.05, 0.10, 0.20, 0.30]
sim:
  tp_pct: 0.05
  sl_pct: 0.02
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" || cfg.Backend.Type != "both" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Scan.Symbols) != 2 || cfg.Scan.Interval != 15*time.Minute {
		t.Fatalf("scan section not parsed: %+v", cfg.Scan)
	}
	if len(cfg.Scan.Buckets) != 4 || cfg.Scan.Buckets[3] != 0.30 {
		t.Fatalf("buckets not parsed: %v", cfg.Scan.Buckets)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT")
	t.Setenv("BACKEND", "kafka")
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")

	cfg, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Scan.Symbols) != 1 || cfg.Scan.Symbols[0] != "SOLUSDT" {
		t.Fatalf("SYMBOLS override not applied: %v", cfg.Scan.Symbols)
	}
	if cfg.Backend.Type != "kafka" || cfg.ClickHouse.Host != "ch.internal" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, sampleYAML))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Environment = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("empty environment must fail")
	}

	cfg = base()
	cfg.Backend.Type = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown backend must fail")
	}

	cfg = base()
	cfg.Scan.Symbols = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("empty symbol list must fail")
	}

	cfg = base()
	cfg.Scan.Buckets = []float64{0.05, 0.05}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("non-increasing buckets must fail")
	}

	cfg = base()
	cfg.Scan.Mode = "fast15"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown scan mode must fail")
	}

	cfg = base()
	cfg.Scan.Mode = "oracle"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("oracle mode must validate: %v", err)
	}
}
