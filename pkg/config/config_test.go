package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
environment: test
venue: forex
consolidation:
  symbols: [EURUSD]
  timeframes: [1s, 1m]
backend:
  type: both
kafka:
  brokers: [localhost:9092]
  ticks_topic: rt.ticks
  bars_topic: rt.bars
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Venue != "forex" {
		t.Fatalf("unexpected venue %q", c.Venue)
	}
	if len(c.Consolidation.Timeframes) != 2 {
		t.Fatalf("unexpected timeframes %v", c.Consolidation.Timeframes)
	}
}

func TestLoadRejectsUnknownVenue(t *testing.T) {
	bad := `
environment: test
venue: nyse
consolidation:
  symbols: [EURUSD]
  timeframes: [1m]
backend:
  type: kafka
kafka:
  brokers: [localhost:9092]
  ticks_topic: rt.ticks
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for unknown venue")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("VENUE", "crypto")
	t.Setenv("SYMBOLS", "BTCUSDT,ETHUSDT")

	c, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Venue != "crypto" {
		t.Fatalf("env override not applied, venue=%q", c.Venue)
	}
	if len(c.Consolidation.Symbols) != 2 {
		t.Fatalf("env override not applied, symbols=%v", c.Consolidation.Symbols)
	}
}
