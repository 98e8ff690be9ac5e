package cache

import (
	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
)

// rateGraph is an edge registry over known instruments: currencies are
// nodes and each FX instrument contributes a directed edge per direction.
// Current lookups are single-hop (direct or inverse pair); the registry
// shape leaves room for multi-hop triangulation without redesign.
type rateGraph struct {
	edges map[rateKey]rateEdge
}

type rateKey struct {
	venue domain.Venue
	from  domain.Currency
	to    domain.Currency
}

type rateEdge struct {
	symbol domain.Symbol
	invert bool
}

func newRateGraph() *rateGraph {
	return &rateGraph{edges: make(map[rateKey]rateEdge)}
}

// addEdge registers both directions for an FX instrument. Non-FX
// instruments and pairs with unknown base currency contribute nothing.
func (g *rateGraph) addEdge(instrument domain.Instrument) {
	base := instrument.BaseCurrency()
	quote := instrument.QuoteCurrency
	if base == "" || quote == "" {
		return
	}
	venue := instrument.Symbol.Venue
	g.edges[rateKey{venue: venue, from: base, to: quote}] = rateEdge{symbol: instrument.Symbol}
	g.edges[rateKey{venue: venue, from: quote, to: base}] = rateEdge{symbol: instrument.Symbol, invert: true}
}

func (g *rateGraph) lookup(venue domain.Venue, from, to domain.Currency) (rateEdge, bool) {
	edge, ok := g.edges[rateKey{venue: venue, from: from, to: to}]
	return edge, ok
}

// GetXRate computes the conversion rate between two currencies at a venue
// from the latest quote of the direct or inverse instrument pair. The rate
// is the exact decimal (bid + ask) / 2 — not a pre-rounded mid price field —
// inverted when only the reverse pair is known. Identity conversions are
// exactly 1. Returns false when no single-hop pair exists.
func (c *Cache) GetXRate(venue domain.Venue, from, to domain.Currency) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}

	edge, ok := c.rates.lookup(venue, from, to)
	if !ok {
		return decimal.Decimal{}, false
	}

	tick, ok := c.QuoteTick(edge.symbol, 0)
	if !ok {
		return decimal.Decimal{}, false
	}

	rate := tick.Bid.Decimal().Add(tick.Ask.Decimal()).Div(decimal.NewFromInt(2))
	if edge.invert {
		rate = decimal.NewFromInt(1).Div(rate)
	}
	return rate, true
}
