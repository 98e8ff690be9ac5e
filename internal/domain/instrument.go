package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument carries the full reference-data schema for one symbol.
// Instruments are immutable once added to the cache; one per symbol.
type Instrument struct {
	Symbol               Symbol
	BrokerSymbol         string
	QuoteCurrency        Currency
	SecurityType         string
	TickPrecision        int
	TickSize             decimal.Decimal
	MinTradeSize         Quantity
	MaxTradeSize         Quantity
	RolloverInterestBuy  decimal.Decimal
	RolloverInterestSell decimal.Decimal
	Timestamp            time.Time
}

// SecurityTypeForex is the security type for FX currency pairs.
const SecurityTypeForex = "FOREX"

// NewFXInstrument builds a FOREX instrument with conventional defaults
// for the given pair (e.g. code "AUD/USD" quotes in USD at 5 digits,
// JPY pairs at 3).
func NewFXInstrument(symbol Symbol) Instrument {
	_, quote := splitFXCode(symbol.Code)
	precision := 5
	if quote == JPY {
		precision = 3
	}
	return Instrument{
		Symbol:               symbol,
		BrokerSymbol:         symbol.Code,
		QuoteCurrency:        quote,
		SecurityType:         SecurityTypeForex,
		TickPrecision:        precision,
		TickSize:             decimal.New(1, -int32(precision)),
		MinTradeSize:         NewQuantityFromInt(1_000),
		MaxTradeSize:         NewQuantityFromInt(50_000_000),
		RolloverInterestBuy:  decimal.Zero,
		RolloverInterestSell: decimal.Zero,
		Timestamp:            time.Unix(0, 0).UTC(),
	}
}

// BaseCurrency returns the base side of an FX pair code ("AUD" of "AUD/USD").
func (i Instrument) BaseCurrency() Currency {
	base, _ := splitFXCode(i.Symbol.Code)
	return base
}

// Equal reports full field-wise equality.
func (i Instrument) Equal(other Instrument) bool {
	return i.Symbol == other.Symbol &&
		i.BrokerSymbol == other.BrokerSymbol &&
		i.QuoteCurrency == other.QuoteCurrency &&
		i.SecurityType == other.SecurityType &&
		i.TickPrecision == other.TickPrecision &&
		i.TickSize.Equal(other.TickSize) &&
		i.MinTradeSize.Equal(other.MinTradeSize) &&
		i.MaxTradeSize.Equal(other.MaxTradeSize) &&
		i.RolloverInterestBuy.Equal(other.RolloverInterestBuy) &&
		i.RolloverInterestSell.Equal(other.RolloverInterestSell) &&
		i.Timestamp.Equal(other.Timestamp)
}

// splitFXCode splits "AUD/USD" or "AUDUSD" into base and quote currencies.
func splitFXCode(code string) (Currency, Currency) {
	for i := 0; i < len(code); i++ {
		if code[i] == '/' {
			return Currency(code[:i]), Currency(code[i+1:])
		}
	}
	if len(code) == 6 {
		return Currency(code[:3]), Currency(code[3:])
	}
	return "", ""
}
