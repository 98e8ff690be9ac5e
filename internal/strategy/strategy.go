package strategy

import (
	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
)

// OrderIntent is a trading decision produced by a strategy. The engine
// routes it to the simulated exchange for the symbol's venue, which
// assigns the order ID.
type OrderIntent struct {
	Symbol   domain.Symbol
	Side     domain.OrderSide
	Type     domain.OrderType
	Price    domain.Price
	Quantity domain.Quantity
}

// Strategy is the contract the replay engine drives. Callbacks run
// synchronously on the engine's single event loop, one event at a time;
// data callbacks may read the cache freely and return intents to trade.
type Strategy interface {
	// Name identifies the strategy instance in logs and run records.
	Name() string
	// OnStart is called once before the first event of a run.
	OnStart(dataCache *cache.Cache)
	// OnQuoteTick is called for every replayed quote tick.
	OnQuoteTick(tick domain.QuoteTick) []OrderIntent
	// OnTradeTick is called for every replayed trade tick.
	OnTradeTick(tick domain.TradeTick) []OrderIntent
	// OnBar is called for every replayed bar.
	OnBar(barType domain.BarType, bar domain.Bar) []OrderIntent
	// OnStop is called after the last event, on reset and on dispose.
	OnStop()
	// Reset returns the strategy to its pre-run state.
	Reset()
}
