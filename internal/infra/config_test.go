package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `
app:
  name: backtest_go
  version: 0.1.0
data:
  instruments:
    - AUD/USD.FXCM
  streams:
    - kind: quote_ticks
      symbol: AUD/USD.FXCM
      file: data/audusd_quotes.msgpack
venues:
  - name: FXCM
    oms_type: HEDGING
    generate_position_ids: true
    starting_balances:
      - currency: USD
        amount: 1000000
strategies:
  - name: noop
logging:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Name != "backtest_go" {
		t.Errorf("expected app name backtest_go, got %s", cfg.App.Name)
	}
	if len(cfg.Venues) != 1 || cfg.Venues[0].Name != "FXCM" {
		t.Errorf("unexpected venues: %+v", cfg.Venues)
	}
	if cfg.Venues[0].StartingBalances[0].Amount.String() != "1000000" {
		t.Errorf("unexpected balance: %s", cfg.Venues[0].StartingBalances[0].Amount)
	}
	if len(cfg.Strategies) != 1 || cfg.Strategies[0].Name != "noop" {
		t.Errorf("unexpected strategies: %+v", cfg.Strategies)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("BACKTEST_LOG_LEVEL", "error")
	t.Setenv("BACKTEST_DB_PATH", "/tmp/override.db")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logging.Level != "error" {
		t.Errorf("expected env override error, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "/tmp/override.db" {
		t.Errorf("expected env override path, got %s", cfg.Storage.Path)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"bad instrument", func(cfg *Config) {
			cfg.Data.Instruments = []string{"AUDUSD"}
		}},
		{"bad stream kind", func(cfg *Config) {
			cfg.Data.Streams[0].Kind = "ticks"
		}},
		{"stream without file", func(cfg *Config) {
			cfg.Data.Streams[0].File = ""
		}},
		{"venue without name", func(cfg *Config) {
			cfg.Venues[0].Name = ""
		}},
		{"bad oms type", func(cfg *Config) {
			cfg.Venues[0].OMSType = "GROSS"
		}},
		{"venue without balances", func(cfg *Config) {
			cfg.Venues[0].StartingBalances = nil
		}},
		{"no strategies", func(cfg *Config) {
			cfg.Strategies = nil
		}},
		{"feed without ws url", func(cfg *Config) {
			cfg.Feed.Enabled = true
			cfg.Feed.WSURL = "http://example.com"
			cfg.Feed.Symbols = []string{"AUD/USD"}
		}},
		{"feed without symbols", func(cfg *Config) {
			cfg.Feed.Enabled = true
			cfg.Feed.WSURL = "wss://example.com"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
