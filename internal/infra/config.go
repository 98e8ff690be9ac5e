package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"backtest_go/internal/domain"
	"backtest_go/internal/strategy"
)

// Config holds every setting of a backtest run. Loaded from YAML, then
// selected values may be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Data struct {
		Instruments []string       `yaml:"instruments"`
		Streams     []StreamConfig `yaml:"streams"`
	} `yaml:"data"`

	Venues []VenueConfig `yaml:"venues"`

	Strategies []strategy.ImportableConfig `yaml:"strategies"`

	Feed struct {
		Enabled bool     `yaml:"enabled"`
		WSURL   string   `yaml:"ws_url"`
		Venue   string   `yaml:"venue"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"feed"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// StreamConfig points at one serialized historical stream on disk.
type StreamConfig struct {
	Kind   string `yaml:"kind"` // quote_ticks, trade_ticks or bars
	Symbol string `yaml:"symbol"`
	File   string `yaml:"file"`
}

// VenueConfig describes one simulated exchange.
type VenueConfig struct {
	Name                string          `yaml:"name"`
	OMSType             string          `yaml:"oms_type"`
	GeneratePositionIDs bool            `yaml:"generate_position_ids"`
	StartingBalances    []BalanceConfig `yaml:"starting_balances"`
	FillModel           FillModelConfig `yaml:"fill_model"`
}

// BalanceConfig is one starting balance entry.
type BalanceConfig struct {
	Currency string          `yaml:"currency"`
	Amount   decimal.Decimal `yaml:"amount"`
}

// FillModelConfig selects the fill model for a venue. When either
// probability is set the probabilistic model is used, otherwise the
// static one.
type FillModelConfig struct {
	NoFillAtLimit   bool     `yaml:"no_fill_at_limit"`
	Slippage        bool     `yaml:"slippage"`
	ProbFillAtLimit *float64 `yaml:"prob_fill_at_limit"`
	ProbSlippage    *float64 `yaml:"prob_slippage"`
	Seed            int64    `yaml:"seed"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	for _, instrument := range c.Data.Instruments {
		if _, err := domain.ParseSymbol(instrument); err != nil {
			return fmt.Errorf("invalid instrument %q: %w", instrument, err)
		}
	}
	for _, stream := range c.Data.Streams {
		switch stream.Kind {
		case "quote_ticks", "trade_ticks", "bars":
		default:
			return fmt.Errorf("invalid stream kind %q (want quote_ticks, trade_ticks or bars)", stream.Kind)
		}
		if stream.File == "" {
			return fmt.Errorf("stream for %s has no file", stream.Symbol)
		}
	}

	for _, venue := range c.Venues {
		if venue.Name == "" {
			return fmt.Errorf("venue name is required")
		}
		if _, ok := domain.ParseOMSType(venue.OMSType); !ok {
			return fmt.Errorf("venue %s: invalid oms_type %q", venue.Name, venue.OMSType)
		}
		if len(venue.StartingBalances) == 0 {
			return fmt.Errorf("venue %s: at least one starting balance is required", venue.Name)
		}
		for _, balance := range venue.StartingBalances {
			if balance.Currency == "" {
				return fmt.Errorf("venue %s: balance without currency", venue.Name)
			}
		}
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}

	if c.Feed.Enabled {
		if !hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://") {
			return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
		}
		if len(c.Feed.Symbols) == 0 {
			return fmt.Errorf("feed enabled but no symbols configured")
		}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces settings from environment variables when set.
func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("BACKTEST_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("BACKTEST_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if url := os.Getenv("BACKTEST_FEED_WS_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
}
