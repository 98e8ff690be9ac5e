package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BarType identifies one OHLCV series: which symbol, how many units of
// which aggregation, built from which price stream.
type BarType struct {
	Symbol      Symbol
	Step        int
	Aggregation BarAggregation
	PriceType   PriceType
}

// NewBarType creates a bar type key.
func NewBarType(symbol Symbol, step int, aggregation BarAggregation, priceType PriceType) BarType {
	return BarType{Symbol: symbol, Step: step, Aggregation: aggregation, PriceType: priceType}
}

// String returns the canonical "SYMBOL.VENUE-STEP-AGGREGATION-PRICETYPE"
// form used as the wire key for bar collections.
func (b BarType) String() string {
	return fmt.Sprintf("%s-%d-%s-%s", b.Symbol, b.Step, b.Aggregation, b.PriceType)
}

// ParseBarType parses the canonical bar type string.
func ParseBarType(value string) (BarType, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 4 {
		return BarType{}, &ConfigError{Field: "bar_type", Err: fmt.Errorf("malformed bar type %q", value)}
	}
	symbol, err := ParseSymbol(parts[0])
	if err != nil {
		return BarType{}, err
	}
	step, err := strconv.Atoi(parts[1])
	if err != nil || step <= 0 {
		return BarType{}, &ConfigError{Field: "bar_type", Err: fmt.Errorf("invalid step in %q", value)}
	}
	aggregation, ok := ParseBarAggregation(parts[2])
	if !ok {
		return BarType{}, &ConfigError{Field: "bar_type", Err: fmt.Errorf("invalid aggregation in %q", value)}
	}
	priceType, ok := ParsePriceType(parts[3])
	if !ok {
		return BarType{}, &ConfigError{Field: "bar_type", Err: fmt.Errorf("invalid price type in %q", value)}
	}
	return NewBarType(symbol, step, aggregation, priceType), nil
}

// Bar is an immutable OHLCV aggregate closing at Timestamp.
type Bar struct {
	Open      Price
	High      Price
	Low       Price
	Close     Price
	Volume    Quantity
	Timestamp time.Time
}

// NewBar creates a bar.
func NewBar(open, high, low, closePrice Price, volume Quantity, ts time.Time) Bar {
	return Bar{
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		Timestamp: ts.UTC(),
	}
}

// Equal reports full field-wise equality, used by the cache dedup rule.
func (b Bar) Equal(other Bar) bool {
	return b.Open.Equal(other.Open) &&
		b.High.Equal(other.High) &&
		b.Low.Equal(other.Low) &&
		b.Close.Equal(other.Close) &&
		b.Volume.Equal(other.Volume) &&
		b.Timestamp.Equal(other.Timestamp)
}
