package strategy

import (
	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
)

// Noop consumes every event and never trades. Useful as an engine
// smoke-test strategy and as a base for data-collection runs.
type Noop struct {
	name string
}

// NewNoop creates a no-op strategy.
func NewNoop(name string) *Noop {
	if name == "" {
		name = "noop"
	}
	return &Noop{name: name}
}

func (n *Noop) Name() string         { return n.name }
func (n *Noop) OnStart(*cache.Cache) {}
func (n *Noop) OnStop()              {}
func (n *Noop) Reset()               {}

func (n *Noop) OnQuoteTick(domain.QuoteTick) []OrderIntent { return nil }
func (n *Noop) OnTradeTick(domain.TradeTick) []OrderIntent { return nil }
func (n *Noop) OnBar(domain.BarType, domain.Bar) []OrderIntent {
	return nil
}

func init() {
	Register("noop", func(params map[string]any) (Strategy, error) {
		name, err := param(params, "name", "noop")
		if err != nil {
			return nil, err
		}
		return NewNoop(name), nil
	})
}
