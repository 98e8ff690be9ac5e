package cache

import (
	"log/slog"
	"sort"

	"backtest_go/internal/domain"
)

// Cache is the single source of truth for all market data and reference
// data visible to strategies and the replay engine during a run.
//
// Sequences are stored in insertion order and addressed most-recent-first:
// index 0 is always the latest record, served in O(1). The cache never
// re-sorts; the replay engine is responsible for presenting data in
// non-decreasing timestamp order.
//
// The cache is single-writer. Concurrent reads are safe only while no
// mutation (Add*, Reset) is in flight, which the engine's single-threaded
// run loop guarantees.
type Cache struct {
	log *slog.Logger

	instruments map[domain.Symbol]domain.Instrument
	quoteTicks  map[domain.Symbol][]domain.QuoteTick
	tradeTicks  map[domain.Symbol][]domain.TradeTick
	bars        map[domain.BarType][]domain.Bar

	rates *rateGraph
}

// New creates an empty cache. The logger survives Reset.
func New(log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{log: log}
	c.allocate()
	return c
}

func (c *Cache) allocate() {
	c.instruments = make(map[domain.Symbol]domain.Instrument)
	c.quoteTicks = make(map[domain.Symbol][]domain.QuoteTick)
	c.tradeTicks = make(map[domain.Symbol][]domain.TradeTick)
	c.bars = make(map[domain.BarType][]domain.Bar)
	c.rates = newRateGraph()
}

// Reset clears all instrument, tick and bar storage. The cache becomes
// indistinguishable from a freshly constructed one; identity and the
// attached logger survive.
func (c *Cache) Reset() {
	c.allocate()
	c.log.Debug("cache reset")
}

// AddInstrument inserts reference data for a new symbol. Re-adding an
// identical instrument is a no-op; conflicting reference data for a known
// symbol is rejected so cached state is never silently overwritten.
func (c *Cache) AddInstrument(instrument domain.Instrument) error {
	if existing, ok := c.instruments[instrument.Symbol]; ok {
		if existing.Equal(instrument) {
			return nil
		}
		return domain.ErrDuplicateInstrument
	}
	c.instruments[instrument.Symbol] = instrument
	c.rates.addEdge(instrument)
	return nil
}

// AddQuoteTick appends a quote tick unless it is structurally equal to the
// current most-recent tick for the symbol (redundant re-delivery guard).
func (c *Cache) AddQuoteTick(tick domain.QuoteTick) {
	ticks := c.quoteTicks[tick.Symbol]
	if n := len(ticks); n > 0 && ticks[n-1].Equal(tick) {
		return
	}
	c.quoteTicks[tick.Symbol] = append(ticks, tick)
}

// AddQuoteTicks appends ticks as repeated single adds, each checked
// against the then-current tail.
func (c *Cache) AddQuoteTicks(ticks []domain.QuoteTick) {
	for _, tick := range ticks {
		c.AddQuoteTick(tick)
	}
}

// AddTradeTick appends a trade tick, deduplicated against the current tail.
func (c *Cache) AddTradeTick(tick domain.TradeTick) {
	ticks := c.tradeTicks[tick.Symbol]
	if n := len(ticks); n > 0 && ticks[n-1].Equal(tick) {
		return
	}
	c.tradeTicks[tick.Symbol] = append(ticks, tick)
}

// AddTradeTicks appends ticks as repeated single adds.
func (c *Cache) AddTradeTicks(ticks []domain.TradeTick) {
	for _, tick := range ticks {
		c.AddTradeTick(tick)
	}
}

// AddBar appends a bar for the bar type, deduplicated against the current tail.
func (c *Cache) AddBar(barType domain.BarType, bar domain.Bar) {
	bars := c.bars[barType]
	if n := len(bars); n > 0 && bars[n-1].Equal(bar) {
		return
	}
	c.bars[barType] = append(bars, bar)
}

// AddBars appends bars as repeated single adds.
func (c *Cache) AddBars(barType domain.BarType, bars []domain.Bar) {
	for _, bar := range bars {
		c.AddBar(barType, bar)
	}
}

// Symbols returns all known symbols ordered by code then venue.
func (c *Cache) Symbols() []domain.Symbol {
	symbols := make([]domain.Symbol, 0, len(c.instruments))
	for symbol := range c.instruments {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Less(symbols[j]) })
	return symbols
}

// Instruments returns all known instruments ordered by symbol.
func (c *Cache) Instruments() []domain.Instrument {
	instruments := make([]domain.Instrument, 0, len(c.instruments))
	for _, symbol := range c.Symbols() {
		instruments = append(instruments, c.instruments[symbol])
	}
	return instruments
}

// Instrument returns the instrument for a symbol, false when unknown.
func (c *Cache) Instrument(symbol domain.Symbol) (domain.Instrument, bool) {
	instrument, ok := c.instruments[symbol]
	return instrument, ok
}

// QuoteTicks returns the full stored sequence for the symbol in insertion
// order, nil for an unknown symbol.
func (c *Cache) QuoteTicks(symbol domain.Symbol) []domain.QuoteTick {
	return c.quoteTicks[symbol]
}

// TradeTicks returns the full stored sequence for the symbol, nil when unknown.
func (c *Cache) TradeTicks(symbol domain.Symbol) []domain.TradeTick {
	return c.tradeTicks[symbol]
}

// Bars returns the full stored sequence for the bar type, nil when unknown.
func (c *Cache) Bars(barType domain.BarType) []domain.Bar {
	return c.bars[barType]
}

// QuoteTick returns the tick at the given most-recent-first index
// (0 is the latest), false when the index is out of range.
func (c *Cache) QuoteTick(symbol domain.Symbol, index int) (domain.QuoteTick, bool) {
	ticks := c.quoteTicks[symbol]
	if index < 0 || index >= len(ticks) {
		return domain.QuoteTick{}, false
	}
	return ticks[len(ticks)-1-index], true
}

// TradeTick returns the tick at the given most-recent-first index.
func (c *Cache) TradeTick(symbol domain.Symbol, index int) (domain.TradeTick, bool) {
	ticks := c.tradeTicks[symbol]
	if index < 0 || index >= len(ticks) {
		return domain.TradeTick{}, false
	}
	return ticks[len(ticks)-1-index], true
}

// Bar returns the bar at the given most-recent-first index.
func (c *Cache) Bar(barType domain.BarType, index int) (domain.Bar, bool) {
	bars := c.bars[barType]
	if index < 0 || index >= len(bars) {
		return domain.Bar{}, false
	}
	return bars[len(bars)-1-index], true
}

// QuoteTickCount returns the number of stored quote ticks, 0 when unknown.
func (c *Cache) QuoteTickCount(symbol domain.Symbol) int {
	return len(c.quoteTicks[symbol])
}

// TradeTickCount returns the number of stored trade ticks, 0 when unknown.
func (c *Cache) TradeTickCount(symbol domain.Symbol) int {
	return len(c.tradeTicks[symbol])
}

// BarCount returns the number of stored bars, 0 when unknown.
func (c *Cache) BarCount(barType domain.BarType) int {
	return len(c.bars[barType])
}

// HasQuoteTicks reports whether any quote ticks are stored for the symbol.
func (c *Cache) HasQuoteTicks(symbol domain.Symbol) bool {
	return len(c.quoteTicks[symbol]) > 0
}

// HasTradeTicks reports whether any trade ticks are stored for the symbol.
func (c *Cache) HasTradeTicks(symbol domain.Symbol) bool {
	return len(c.tradeTicks[symbol]) > 0
}

// HasBars reports whether any bars are stored for the bar type.
func (c *Cache) HasBars(barType domain.BarType) bool {
	return len(c.bars[barType]) > 0
}

// Price derives a representative price for the symbol. LAST comes from the
// latest trade tick; BID, ASK and MID come from the latest quote tick.
// Returns false when the required tick kind is absent — strategies query
// speculatively on every event, so no-data is not an error.
func (c *Cache) Price(symbol domain.Symbol, priceType domain.PriceType) (domain.Price, bool) {
	switch priceType {
	case domain.PriceTypeLast:
		tick, ok := c.TradeTick(symbol, 0)
		if !ok {
			return domain.Price{}, false
		}
		return tick.Price, true
	case domain.PriceTypeBid, domain.PriceTypeAsk, domain.PriceTypeMid:
		tick, ok := c.QuoteTick(symbol, 0)
		if !ok {
			return domain.Price{}, false
		}
		return tick.ExtractPrice(priceType), true
	default:
		panic(domain.NewContractError("cache price", "unknown price type "+priceType.String()))
	}
}
