package strategy

import (
	"fmt"

	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
	"backtest_go/internal/indicator"
)

// SMACross trades a moving-average crossover over one bar series:
// buy on the golden cross (fast rises through slow), sell on the dead
// cross. Stateful and deterministic for a given data sequence.
type SMACross struct {
	name      string
	barType   domain.BarType
	tradeSize domain.Quantity

	fast *indicator.SMA
	slow *indicator.SMA

	prevFast float64
	prevSlow float64
	primed   bool
}

// NewSMACross creates an SMA crossover strategy for the given bar series.
func NewSMACross(name string, barType domain.BarType, fastPeriod, slowPeriod int, tradeSize domain.Quantity) (*SMACross, error) {
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("sma cross: fast period %d must be less than slow period %d", fastPeriod, slowPeriod)
	}
	if tradeSize.IsZero() {
		return nil, fmt.Errorf("sma cross: trade size must be positive")
	}
	return &SMACross{
		name:      name,
		barType:   barType,
		tradeSize: tradeSize,
		fast:      indicator.NewSMA(fastPeriod),
		slow:      indicator.NewSMA(slowPeriod),
	}, nil
}

func (s *SMACross) Name() string { return s.name }

func (s *SMACross) OnStart(*cache.Cache) {}

func (s *SMACross) OnQuoteTick(domain.QuoteTick) []OrderIntent { return nil }

func (s *SMACross) OnTradeTick(domain.TradeTick) []OrderIntent { return nil }

// OnBar feeds the close into both averages and emits a market order on
// a cross once both windows are full.
func (s *SMACross) OnBar(barType domain.BarType, bar domain.Bar) []OrderIntent {
	if barType != s.barType {
		return nil
	}

	closePx, _ := bar.Close.Decimal().Float64()
	s.fast.Update(closePx)
	s.slow.Update(closePx)

	if !s.slow.Initialized() {
		return nil
	}

	currFast := s.fast.Value()
	currSlow := s.slow.Value()
	defer func() {
		s.prevFast = currFast
		s.prevSlow = currSlow
		s.primed = true
	}()

	if !s.primed {
		return nil
	}

	var intents []OrderIntent
	if s.prevFast <= s.prevSlow && currFast > currSlow {
		intents = append(intents, OrderIntent{
			Symbol:   s.barType.Symbol,
			Side:     domain.SideBuy,
			Type:     domain.OrderMarket,
			Quantity: s.tradeSize,
		})
	}
	if s.prevFast >= s.prevSlow && currFast < currSlow {
		intents = append(intents, OrderIntent{
			Symbol:   s.barType.Symbol,
			Side:     domain.SideSell,
			Type:     domain.OrderMarket,
			Quantity: s.tradeSize,
		})
	}
	return intents
}

func (s *SMACross) OnStop() {}

// Reset clears indicator and crossover state.
func (s *SMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.prevFast = 0
	s.prevSlow = 0
	s.primed = false
}

func init() {
	Register("sma_cross", func(params map[string]any) (Strategy, error) {
		name, err := param(params, "name", "sma_cross")
		if err != nil {
			return nil, err
		}
		barTypeRaw, err := param(params, "bar_type", "")
		if err != nil {
			return nil, err
		}
		if barTypeRaw == "" {
			return nil, fmt.Errorf("parameter %q is required", "bar_type")
		}
		barType, err := domain.ParseBarType(barTypeRaw)
		if err != nil {
			return nil, err
		}
		fastPeriod, err := param(params, "fast_period", 10)
		if err != nil {
			return nil, err
		}
		slowPeriod, err := param(params, "slow_period", 20)
		if err != nil {
			return nil, err
		}
		tradeSize, err := param(params, "trade_size", 100_000)
		if err != nil {
			return nil, err
		}
		return NewSMACross(name, barType, fastPeriod, slowPeriod,
			domain.NewQuantityFromInt(int64(tradeSize)))
	})
}
