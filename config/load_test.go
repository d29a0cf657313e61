package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadMinimalFillsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
engine:
  symbol: TCS
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Symbol != "TCS" {
		t.Fatalf("unexpected symbol: %q", cfg.Engine.Symbol)
	}
	if cfg.Market.BasePrice != 4200.0 {
		t.Fatalf("base price should come from the symbol table, got %v", cfg.Market.BasePrice)
	}
	if cfg.Market.TickSize != 0.05 || cfg.Market.Depth != 10 {
		t.Fatalf("market defaults missing: %+v", cfg.Market)
	}
	if cfg.Strategy.BaseSpread != 0.05 || cfg.Strategy.MinProfit != 0.10 {
		t.Fatalf("strategy defaults missing: %+v", cfg.Strategy)
	}
	if cfg.Fill.AcceptProb != 0.15 || cfg.Fill.TTLMs != 10 || cfg.Fill.MaxOpen != 6 {
		t.Fatalf("fill defaults missing: %+v", cfg.Fill)
	}
	if cfg.Risk.MaxPosition != 1000 {
		t.Fatalf("risk defaults missing: %+v", cfg.Risk)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `
engine:
  symbol: RELIANCE
  tickIntervalMs: 5
strategy:
  baseSpread: 0.2
  minProfit: 0.3
fill:
  acceptProb: 0.5
  maxOpen: 4
risk:
  maxPosition: 200
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.TickIntervalMs != 5 {
		t.Fatalf("tickIntervalMs override lost: %d", cfg.Engine.TickIntervalMs)
	}
	if cfg.Strategy.BaseSpread != 0.2 || cfg.Strategy.MinProfit != 0.3 {
		t.Fatalf("strategy override lost: %+v", cfg.Strategy)
	}
	if cfg.Fill.AcceptProb != 0.5 || cfg.Fill.MaxOpen != 4 {
		t.Fatalf("fill override lost: %+v", cfg.Fill)
	}
	if cfg.Risk.MaxPosition != 200 {
		t.Fatalf("risk override lost: %+v", cfg.Risk)
	}
	// 未覆盖的字段保留默认值
	if cfg.Fill.SlippageProb != 0.1 {
		t.Fatalf("slippageProb default lost: %v", cfg.Fill.SlippageProb)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"garch weights", "engine:\n  symbol: RELIANCE\nmarket:\n  volatility:\n    alpha: 0.6\n    beta: 0.5\n"},
		{"bad accept prob", "engine:\n  symbol: RELIANCE\nfill:\n  acceptProb: 1.5\n"},
		{"zero max position", "engine:\n  symbol: RELIANCE\nrisk:\n  maxPosition: 0\n"},
		{"zero tick interval", "engine:\n  symbol: RELIANCE\n  tickIntervalMs: -1\n"},
		{"inverted volume bounds", "engine:\n  symbol: RELIANCE\nmarket:\n  volumeMin: 5000\n  volumeMax: 1000\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default("INFY")

	gen := cfg.GeneratorConfig()
	if gen.Symbol != "INFY" || gen.BasePrice != 1860.0 {
		t.Fatalf("generator mapping wrong: %+v", gen)
	}

	vol := cfg.VolatilityConfig()
	if vol.Omega != 0.0001 || vol.Alpha != 0.1 || vol.Beta != 0.85 {
		t.Fatalf("volatility mapping wrong: %+v", vol)
	}
	if vol.HistCap <= 0 {
		t.Fatalf("volatility mapping must keep default history cap")
	}

	sc := cfg.StrategyConfig()
	if sc.TickSize != cfg.Market.TickSize {
		t.Fatalf("strategy tick size must follow market tick size")
	}

	bc := cfg.BookConfig()
	if bc.TTL != 10*time.Millisecond || bc.TickSize != cfg.Market.TickSize {
		t.Fatalf("book mapping wrong: %+v", bc)
	}

	lc := cfg.LedgerConfig()
	if lc.InitialBalance != 1_000_000 || lc.TradeHistoryCap <= 0 {
		t.Fatalf("ledger mapping wrong: %+v", lc)
	}
}
