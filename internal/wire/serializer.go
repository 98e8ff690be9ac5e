package wire

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"backtest_go/internal/domain"
)

// timestampLayout is the fixed-width wire format for timestamps. The full
// nine fractional digits always serialize, so encode/decode round-trips
// are exact to the nanosecond.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type quoteTickDoc struct {
	Bid       string `msgpack:"Bid"`
	Ask       string `msgpack:"Ask"`
	BidSize   string `msgpack:"BidSize"`
	AskSize   string `msgpack:"AskSize"`
	Timestamp string `msgpack:"Timestamp"`
}

type tradeTickDoc struct {
	Price     string `msgpack:"Price"`
	Size      string `msgpack:"Size"`
	Maker     string `msgpack:"Maker"`
	MatchID   string `msgpack:"MatchId"`
	Timestamp string `msgpack:"Timestamp"`
}

type barDoc struct {
	Open      string `msgpack:"Open"`
	High      string `msgpack:"High"`
	Low       string `msgpack:"Low"`
	Close     string `msgpack:"Close"`
	Volume    string `msgpack:"Volume"`
	Timestamp string `msgpack:"Timestamp"`
}

type dataDoc struct {
	DataType   string         `msgpack:"DataType"`
	Symbol     string         `msgpack:"Symbol,omitempty"`
	BarType    string         `msgpack:"BarType,omitempty"`
	QuoteTicks []quoteTickDoc `msgpack:"QuoteTicks,omitempty"`
	TradeTicks []tradeTickDoc `msgpack:"TradeTicks,omitempty"`
	Bars       []barDoc       `msgpack:"Bars,omitempty"`
}

// DataSerializer encodes and decodes Data batches. Serialize then
// Deserialize is an exact round trip, field for field, including numeric
// precision and timestamps.
type DataSerializer struct{}

// Serialize encodes one batch into its canonical binary form.
func (DataSerializer) Serialize(data Data) ([]byte, error) {
	doc := dataDoc{DataType: string(data.Kind)}
	switch data.Kind {
	case KindQuoteTicks:
		doc.Symbol = data.Symbol.String()
		doc.QuoteTicks = make([]quoteTickDoc, len(data.QuoteTicks))
		for i, tick := range data.QuoteTicks {
			doc.QuoteTicks[i] = quoteTickDoc{
				Bid:       tick.Bid.String(),
				Ask:       tick.Ask.String(),
				BidSize:   tick.BidSize.String(),
				AskSize:   tick.AskSize.String(),
				Timestamp: tick.Timestamp.UTC().Format(timestampLayout),
			}
		}
	case KindTradeTicks:
		doc.Symbol = data.Symbol.String()
		doc.TradeTicks = make([]tradeTickDoc, len(data.TradeTicks))
		for i, tick := range data.TradeTicks {
			doc.TradeTicks[i] = tradeTickDoc{
				Price:     tick.Price.String(),
				Size:      tick.Size.String(),
				Maker:     tick.Maker.String(),
				MatchID:   tick.MatchID,
				Timestamp: tick.Timestamp.UTC().Format(timestampLayout),
			}
		}
	case KindBars:
		doc.BarType = data.BarType.String()
		doc.Bars = make([]barDoc, len(data.Bars))
		for i, bar := range data.Bars {
			doc.Bars[i] = barDoc{
				Open:      bar.Open.String(),
				High:      bar.High.String(),
				Low:       bar.Low.String(),
				Close:     bar.Close.String(),
				Volume:    bar.Volume.String(),
				Timestamp: bar.Timestamp.UTC().Format(timestampLayout),
			}
		}
	default:
		return nil, fmt.Errorf("serialize: unknown data kind %q", data.Kind)
	}
	return msgpack.Marshal(doc)
}

// Deserialize decodes a canonical binary payload. Malformed payloads
// surface as a DecodeError matching domain.ErrDecode, never as partial
// or defaulted data.
func (DataSerializer) Deserialize(payload []byte) (Data, error) {
	var doc dataDoc
	if err := msgpack.Unmarshal(payload, &doc); err != nil {
		return Data{}, &domain.DecodeError{Kind: "data", Err: err}
	}

	switch DataKind(doc.DataType) {
	case KindQuoteTicks:
		symbol, err := domain.ParseSymbol(doc.Symbol)
		if err != nil {
			return Data{}, &domain.DecodeError{Kind: "data", Err: err}
		}
		ticks := make([]domain.QuoteTick, len(doc.QuoteTicks))
		for i, d := range doc.QuoteTicks {
			tick, err := d.toDomain(symbol)
			if err != nil {
				return Data{}, &domain.DecodeError{Kind: "quote tick", Err: err}
			}
			ticks[i] = tick
		}
		return Data{Kind: KindQuoteTicks, Symbol: symbol, QuoteTicks: ticks}, nil

	case KindTradeTicks:
		symbol, err := domain.ParseSymbol(doc.Symbol)
		if err != nil {
			return Data{}, &domain.DecodeError{Kind: "data", Err: err}
		}
		ticks := make([]domain.TradeTick, len(doc.TradeTicks))
		for i, d := range doc.TradeTicks {
			tick, err := d.toDomain(symbol)
			if err != nil {
				return Data{}, &domain.DecodeError{Kind: "trade tick", Err: err}
			}
			ticks[i] = tick
		}
		return Data{Kind: KindTradeTicks, Symbol: symbol, TradeTicks: ticks}, nil

	case KindBars:
		barType, err := domain.ParseBarType(doc.BarType)
		if err != nil {
			return Data{}, &domain.DecodeError{Kind: "data", Err: err}
		}
		bars := make([]domain.Bar, len(doc.Bars))
		for i, d := range doc.Bars {
			bar, err := d.toDomain()
			if err != nil {
				return Data{}, &domain.DecodeError{Kind: "bar", Err: err}
			}
			bars[i] = bar
		}
		return Data{Kind: KindBars, BarType: barType, Bars: bars}, nil

	default:
		return Data{}, &domain.DecodeError{Kind: "data", Err: fmt.Errorf("unknown data type %q", doc.DataType)}
	}
}

func (d quoteTickDoc) toDomain(symbol domain.Symbol) (domain.QuoteTick, error) {
	ts, err := parseTimestamp(d.Timestamp)
	if err != nil {
		return domain.QuoteTick{}, err
	}
	bid, err := parsePrice(d.Bid)
	if err != nil {
		return domain.QuoteTick{}, err
	}
	ask, err := parsePrice(d.Ask)
	if err != nil {
		return domain.QuoteTick{}, err
	}
	bidSize, err := parseQuantity(d.BidSize)
	if err != nil {
		return domain.QuoteTick{}, err
	}
	askSize, err := parseQuantity(d.AskSize)
	if err != nil {
		return domain.QuoteTick{}, err
	}
	return domain.NewQuoteTick(symbol, bid, ask, bidSize, askSize, ts), nil
}

func (d tradeTickDoc) toDomain(symbol domain.Symbol) (domain.TradeTick, error) {
	ts, err := parseTimestamp(d.Timestamp)
	if err != nil {
		return domain.TradeTick{}, err
	}
	price, err := parsePrice(d.Price)
	if err != nil {
		return domain.TradeTick{}, err
	}
	size, err := parseQuantity(d.Size)
	if err != nil {
		return domain.TradeTick{}, err
	}
	maker, ok := domain.ParseMaker(d.Maker)
	if !ok {
		return domain.TradeTick{}, fmt.Errorf("unknown maker %q", d.Maker)
	}
	return domain.NewTradeTick(symbol, price, size, maker, d.MatchID, ts), nil
}

func (d barDoc) toDomain() (domain.Bar, error) {
	ts, err := parseTimestamp(d.Timestamp)
	if err != nil {
		return domain.Bar{}, err
	}
	var prices [4]domain.Price
	for i, raw := range []string{d.Open, d.High, d.Low, d.Close} {
		prices[i], err = parsePrice(raw)
		if err != nil {
			return domain.Bar{}, err
		}
	}
	volume, err := parseQuantity(d.Volume)
	if err != nil {
		return domain.Bar{}, err
	}
	return domain.NewBar(prices[0], prices[1], prices[2], prices[3], volume, ts), nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", value, err)
	}
	return ts.UTC(), nil
}

// parsePrice recovers a price; precision is carried by the string itself.
// Parsing panics in the domain constructor are converted to errors so a
// malformed payload surfaces as a decode failure, not a crash.
func parsePrice(value string) (price domain.Price, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed price %q", value)
		}
	}()
	return domain.NewPriceFromString(value), nil
}

func parseQuantity(value string) (qty domain.Quantity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed quantity %q", value)
		}
	}()
	return domain.NewQuantityFromString(value), nil
}
