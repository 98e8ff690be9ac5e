// Package wire implements the canonical binary encoding of market data
// and reference data. Payloads are msgpack maps with stable field names,
// so they are self-describing: decoders ignore unknown fields, and field
// names plus the string representation of decimals are part of the wire
// contract shared with other implementations.
package wire

import (
	"fmt"

	"backtest_go/internal/domain"
)

// DataKind discriminates the record type carried by one data payload.
type DataKind string

const (
	KindQuoteTicks DataKind = "QuoteTick[]"
	KindTradeTicks DataKind = "TradeTick[]"
	KindBars       DataKind = "Bar[]"
)

// Data is one logical message: a homogeneous batch of records for one key.
type Data struct {
	Kind       DataKind
	Symbol     domain.Symbol
	BarType    domain.BarType
	QuoteTicks []domain.QuoteTick
	TradeTicks []domain.TradeTick
	Bars       []domain.Bar
}

// Mapper groups raw records into Data batches for serialization.
// All records in one batch must share the key they are encoded under.
type Mapper struct{}

// MapQuoteTicks maps quote ticks for a single symbol into one batch.
func (Mapper) MapQuoteTicks(ticks []domain.QuoteTick) (Data, error) {
	if len(ticks) == 0 {
		return Data{}, fmt.Errorf("map quote ticks: empty batch")
	}
	symbol := ticks[0].Symbol
	for _, tick := range ticks[1:] {
		if tick.Symbol != symbol {
			return Data{}, fmt.Errorf("map quote ticks: mixed symbols %s and %s", symbol, tick.Symbol)
		}
	}
	return Data{Kind: KindQuoteTicks, Symbol: symbol, QuoteTicks: ticks}, nil
}

// MapTradeTicks maps trade ticks for a single symbol into one batch.
func (Mapper) MapTradeTicks(ticks []domain.TradeTick) (Data, error) {
	if len(ticks) == 0 {
		return Data{}, fmt.Errorf("map trade ticks: empty batch")
	}
	symbol := ticks[0].Symbol
	for _, tick := range ticks[1:] {
		if tick.Symbol != symbol {
			return Data{}, fmt.Errorf("map trade ticks: mixed symbols %s and %s", symbol, tick.Symbol)
		}
	}
	return Data{Kind: KindTradeTicks, Symbol: symbol, TradeTicks: ticks}, nil
}

// MapBars maps bars keyed by their bar type into one batch.
func (Mapper) MapBars(barType domain.BarType, bars []domain.Bar) (Data, error) {
	if len(bars) == 0 {
		return Data{}, fmt.Errorf("map bars: empty batch")
	}
	return Data{Kind: KindBars, BarType: barType, Bars: bars}, nil
}
