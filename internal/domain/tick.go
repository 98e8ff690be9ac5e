package domain

import "time"

// QuoteTick is an immutable top-of-book snapshot for one symbol.
type QuoteTick struct {
	Symbol    Symbol
	Bid       Price
	Ask       Price
	BidSize   Quantity
	AskSize   Quantity
	Timestamp time.Time
}

// NewQuoteTick creates a quote tick.
func NewQuoteTick(symbol Symbol, bid, ask Price, bidSize, askSize Quantity, ts time.Time) QuoteTick {
	return QuoteTick{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		BidSize:   bidSize,
		AskSize:   askSize,
		Timestamp: ts.UTC(),
	}
}

// ExtractPrice returns the bid, ask or mid price of the tick.
// LAST is never derivable from a quote and panics.
func (t QuoteTick) ExtractPrice(priceType PriceType) Price {
	switch priceType {
	case PriceTypeBid:
		return t.Bid
	case PriceTypeAsk:
		return t.Ask
	case PriceTypeMid:
		return MidPrice(t.Bid, t.Ask)
	default:
		panic(NewContractError("quote tick", "cannot extract "+priceType.String()+" price"))
	}
}

// Equal reports full field-wise equality, used by the cache dedup rule.
func (t QuoteTick) Equal(other QuoteTick) bool {
	return t.Symbol == other.Symbol &&
		t.Bid.Equal(other.Bid) &&
		t.Ask.Equal(other.Ask) &&
		t.BidSize.Equal(other.BidSize) &&
		t.AskSize.Equal(other.AskSize) &&
		t.Timestamp.Equal(other.Timestamp)
}

// TradeTick is an immutable record of a single executed trade.
type TradeTick struct {
	Symbol    Symbol
	Price     Price
	Size      Quantity
	Maker     Maker
	MatchID   string
	Timestamp time.Time
}

// NewTradeTick creates a trade tick.
func NewTradeTick(symbol Symbol, price Price, size Quantity, maker Maker, matchID string, ts time.Time) TradeTick {
	return TradeTick{
		Symbol:    symbol,
		Price:     price,
		Size:      size,
		Maker:     maker,
		MatchID:   matchID,
		Timestamp: ts.UTC(),
	}
}

// Equal reports full field-wise equality, used by the cache dedup rule.
func (t TradeTick) Equal(other TradeTick) bool {
	return t.Symbol == other.Symbol &&
		t.Price.Equal(other.Price) &&
		t.Size.Equal(other.Size) &&
		t.Maker == other.Maker &&
		t.MatchID == other.MatchID &&
		t.Timestamp.Equal(other.Timestamp)
}
