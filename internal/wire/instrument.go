package wire

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"backtest_go/internal/domain"
)

type instrumentDoc struct {
	ID                   string `msgpack:"Id"`
	Symbol               string `msgpack:"Symbol"`
	BrokerSymbol         string `msgpack:"BrokerSymbol"`
	QuoteCurrency        string `msgpack:"QuoteCurrency"`
	SecurityType         string `msgpack:"SecurityType"`
	TickPrecision        int    `msgpack:"TickPrecision"`
	TickSize             string `msgpack:"TickSize"`
	MinTradeSize         string `msgpack:"MinTradeSize"`
	MaxTradeSize         string `msgpack:"MaxTradeSize"`
	RolloverInterestBuy  string `msgpack:"RolloverInterestBuy"`
	RolloverInterestSell string `msgpack:"RolloverInterestSell"`
	Timestamp            string `msgpack:"Timestamp"`
}

// InstrumentSerializer encodes and decodes instrument reference data.
type InstrumentSerializer struct{}

// Serialize encodes the full reference-data schema for one instrument.
func (InstrumentSerializer) Serialize(instrument domain.Instrument) ([]byte, error) {
	doc := instrumentDoc{
		ID:                   instrument.Symbol.String(),
		Symbol:               instrument.Symbol.String(),
		BrokerSymbol:         instrument.BrokerSymbol,
		QuoteCurrency:        string(instrument.QuoteCurrency),
		SecurityType:         instrument.SecurityType,
		TickPrecision:        instrument.TickPrecision,
		TickSize:             instrument.TickSize.String(),
		MinTradeSize:         instrument.MinTradeSize.String(),
		MaxTradeSize:         instrument.MaxTradeSize.String(),
		RolloverInterestBuy:  instrument.RolloverInterestBuy.String(),
		RolloverInterestSell: instrument.RolloverInterestSell.String(),
		Timestamp:            instrument.Timestamp.UTC().Format(timestampLayout),
	}
	return msgpack.Marshal(doc)
}

// Deserialize decodes an instrument payload. Missing or malformed required
// fields surface as a DecodeError matching domain.ErrDecode.
func (InstrumentSerializer) Deserialize(payload []byte) (domain.Instrument, error) {
	var doc instrumentDoc
	if err := msgpack.Unmarshal(payload, &doc); err != nil {
		return domain.Instrument{}, &domain.DecodeError{Kind: "instrument", Err: err}
	}

	symbol, err := domain.ParseSymbol(doc.Symbol)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{Kind: "instrument", Err: err}
	}
	if doc.QuoteCurrency == "" {
		return domain.Instrument{}, &domain.DecodeError{
			Kind: "instrument", Err: fmt.Errorf("missing quote currency for %s", doc.Symbol)}
	}
	ts, err := parseTimestamp(doc.Timestamp)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{Kind: "instrument", Err: err}
	}
	tickSize, err := decimal.NewFromString(doc.TickSize)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{
			Kind: "instrument", Err: fmt.Errorf("malformed tick size %q", doc.TickSize)}
	}
	minTrade, err := parseQuantity(doc.MinTradeSize)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{Kind: "instrument", Err: err}
	}
	maxTrade, err := parseQuantity(doc.MaxTradeSize)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{Kind: "instrument", Err: err}
	}
	rolloverBuy, err := decimal.NewFromString(doc.RolloverInterestBuy)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{
			Kind: "instrument", Err: fmt.Errorf("malformed rollover buy %q", doc.RolloverInterestBuy)}
	}
	rolloverSell, err := decimal.NewFromString(doc.RolloverInterestSell)
	if err != nil {
		return domain.Instrument{}, &domain.DecodeError{
			Kind: "instrument", Err: fmt.Errorf("malformed rollover sell %q", doc.RolloverInterestSell)}
	}

	return domain.Instrument{
		Symbol:               symbol,
		BrokerSymbol:         doc.BrokerSymbol,
		QuoteCurrency:        domain.Currency(doc.QuoteCurrency),
		SecurityType:         doc.SecurityType,
		TickPrecision:        doc.TickPrecision,
		TickSize:             tickSize,
		MinTradeSize:         minTrade,
		MaxTradeSize:         maxTrade,
		RolloverInterestBuy:  rolloverBuy,
		RolloverInterestSell: rolloverSell,
		Timestamp:            ts,
	}, nil
}
