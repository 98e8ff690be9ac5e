package engine

import (
	"backtest_go/internal/domain"
)

// DataContainer collects the historical inputs for one backtest before
// the engine is built. Sources keep their registration order, which is
// part of the deterministic tie-break contract during the merge.
type DataContainer struct {
	instruments []domain.Instrument
	sources     []dataSource
}

// dataSource is one homogeneous stream of records, assumed non-decreasing
// in timestamp within itself.
type dataSource struct {
	kind       eventKind
	symbol     domain.Symbol
	barType    domain.BarType
	quoteTicks []domain.QuoteTick
	tradeTicks []domain.TradeTick
	bars       []domain.Bar
}

// NewDataContainer creates an empty container.
func NewDataContainer() *DataContainer {
	return &DataContainer{}
}

// AddInstrument registers reference data for a symbol.
func (d *DataContainer) AddInstrument(instrument domain.Instrument) {
	d.instruments = append(d.instruments, instrument)
}

// AddQuoteTicks registers one quote tick stream for a symbol.
func (d *DataContainer) AddQuoteTicks(symbol domain.Symbol, ticks []domain.QuoteTick) {
	d.sources = append(d.sources, dataSource{
		kind:       kindQuoteTick,
		symbol:     symbol,
		quoteTicks: ticks,
	})
}

// AddTradeTicks registers one trade tick stream for a symbol.
func (d *DataContainer) AddTradeTicks(symbol domain.Symbol, ticks []domain.TradeTick) {
	d.sources = append(d.sources, dataSource{
		kind:       kindTradeTick,
		symbol:     symbol,
		tradeTicks: ticks,
	})
}

// AddBars registers one bar stream for a symbol, keyed by step,
// aggregation and price type.
func (d *DataContainer) AddBars(symbol domain.Symbol, step int, aggregation domain.BarAggregation, priceType domain.PriceType, bars []domain.Bar) {
	d.sources = append(d.sources, dataSource{
		kind:    kindBar,
		symbol:  symbol,
		barType: domain.NewBarType(symbol, step, aggregation, priceType),
		bars:    bars,
	})
}

// EventCount returns the total number of events across all sources.
func (d *DataContainer) EventCount() int {
	total := 0
	for _, source := range d.sources {
		total += len(source.quoteTicks) + len(source.tradeTicks) + len(source.bars)
	}
	return total
}
