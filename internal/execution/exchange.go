package execution

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
)

// SimulatedExchange applies strategy orders against replayed market data
// for one venue. It owns the venue's balances, open orders, positions and
// fills, and the position-ID policy configured by its OMS type:
// HEDGING opens a fresh position per opening fill, NETTING aggregates
// fills per symbol onto one position.
//
// All methods run on the engine's single event loop; the exchange holds
// no locks.
type SimulatedExchange struct {
	log *slog.Logger

	venue               domain.Venue
	omsType             domain.OMSType
	generatePositionIDs bool
	startingBalances    []domain.Money
	fillModel           FillModel
	cache               *cache.Cache

	balances   map[domain.Currency]domain.Money
	openOrders []*domain.Order
	positions  []*positionState
	netBySym   map[domain.Symbol]*positionState
	fills      []domain.Fill

	orderSeq    int
	positionSeq int
	now         time.Time
}

// positionState tracks exposure with a signed base quantity
// (positive long, negative short).
type positionState struct {
	id       string
	symbol   domain.Symbol
	net      decimal.Decimal
	entry    domain.Price
	openedAt time.Time
}

// NewSimulatedExchange registers one simulated venue.
func NewSimulatedExchange(
	venue domain.Venue,
	omsType domain.OMSType,
	generatePositionIDs bool,
	startingBalances []domain.Money,
	fillModel FillModel,
	dataCache *cache.Cache,
	log *slog.Logger,
) *SimulatedExchange {
	if fillModel == nil {
		fillModel = StaticFillModel{}
	}
	if log == nil {
		log = slog.Default()
	}
	e := &SimulatedExchange{
		log:                 log,
		venue:               venue,
		omsType:             omsType,
		generatePositionIDs: generatePositionIDs,
		startingBalances:    startingBalances,
		fillModel:           fillModel,
		cache:               dataCache,
	}
	e.Reset()
	return e
}

// Venue returns the venue this exchange simulates.
func (e *SimulatedExchange) Venue() domain.Venue { return e.venue }

// SetFillModel hot-swaps the fill model. Effective for subsequent fills
// only; nothing is reprocessed.
func (e *SimulatedExchange) SetFillModel(model FillModel) {
	if model == nil {
		model = StaticFillModel{}
	}
	e.fillModel = model
}

// Reset restores starting balances and clears orders, positions and fills.
// Registration and configuration survive; a stateful fill model is
// rewound so a replay draws the same decisions.
func (e *SimulatedExchange) Reset() {
	if resettable, ok := e.fillModel.(interface{ Reset() }); ok {
		resettable.Reset()
	}
	e.balances = make(map[domain.Currency]domain.Money, len(e.startingBalances))
	for _, money := range e.startingBalances {
		e.balances[money.Currency] = money
	}
	e.openOrders = nil
	e.positions = nil
	e.netBySym = make(map[domain.Symbol]*positionState)
	e.fills = nil
	e.orderSeq = 0
	e.positionSeq = 0
	e.now = time.Time{}
}

// SubmitOrder accepts an order for this venue. Market orders execute
// immediately against the latest quote; limit orders rest until touched.
// Returns the assigned order ID.
func (e *SimulatedExchange) SubmitOrder(order domain.Order) (string, error) {
	if order.Symbol.Venue != e.venue {
		return "", fmt.Errorf("submit order: symbol %s not on venue %s", order.Symbol, e.venue)
	}
	if order.Quantity.IsZero() {
		return "", fmt.Errorf("submit order: zero quantity for %s", order.Symbol)
	}
	e.orderSeq++
	order.ID = fmt.Sprintf("O-%s-%d", e.venue, e.orderSeq)
	order.Status = domain.OrderStatusNew
	order.CreatedAt = e.now

	switch order.Type {
	case domain.OrderMarket:
		quote, ok := e.cache.QuoteTick(order.Symbol, 0)
		if !ok {
			order.Status = domain.OrderStatusRejected
			e.log.Warn("market order rejected, no quote",
				slog.String("order_id", order.ID), slog.String("symbol", order.Symbol.String()))
			return order.ID, nil
		}
		e.fill(&order, e.marketFillPrice(order, quote))
	case domain.OrderLimit:
		resting := order
		e.openOrders = append(e.openOrders, &resting)
	default:
		return "", fmt.Errorf("submit order: unknown order type %s", order.Type)
	}
	return order.ID, nil
}

// OnQuoteTick advances the venue clock and matches resting orders
// against the new top of book.
func (e *SimulatedExchange) OnQuoteTick(tick domain.QuoteTick) {
	e.now = tick.Timestamp
	e.matchOpenOrders(tick.Bid, tick.Ask)
}

// OnTradeTick advances the venue clock. Matching keys off quotes; trades
// only move time forward.
func (e *SimulatedExchange) OnTradeTick(tick domain.TradeTick) {
	e.now = tick.Timestamp
}

// OnBar advances the venue clock and matches resting orders against the
// bar close as a proxy for both sides of the book.
func (e *SimulatedExchange) OnBar(barType domain.BarType, bar domain.Bar) {
	e.now = bar.Timestamp
	e.matchOpenOrders(bar.Close, bar.Close)
}

// matchOpenOrders fills resting limit orders in submission order.
// A buy fills when the ask trades through the limit, or touches it and
// the fill model allows; symmetrically for sells against the bid.
func (e *SimulatedExchange) matchOpenOrders(bid, ask domain.Price) {
	remaining := e.openOrders[:0]
	for _, order := range e.openOrders {
		if !order.IsOpen() || !e.tryMatch(order, bid, ask) {
			remaining = append(remaining, order)
		}
	}
	e.openOrders = remaining
}

func (e *SimulatedExchange) tryMatch(order *domain.Order, bid, ask domain.Price) bool {
	var marketSide domain.Price
	if order.Side == domain.SideBuy {
		marketSide = ask
	} else {
		marketSide = bid
	}
	// Compare exact decimal values: a resting limit may carry a finer
	// precision than the tick stream (a mid price gains one digit).
	cmp := marketSide.Decimal().Cmp(order.Price.Decimal())
	through := (order.Side == domain.SideBuy && cmp < 0) ||
		(order.Side == domain.SideSell && cmp > 0)
	touched := cmp == 0
	if !through && !(touched && e.fillModel.FillsAtLimit()) {
		return false
	}
	e.fill(order, order.Price)
	return true
}

// marketFillPrice is the aggressive side of the book, slipped one tick
// against the order when the fill model says so.
func (e *SimulatedExchange) marketFillPrice(order domain.Order, quote domain.QuoteTick) domain.Price {
	price := quote.Ask
	if order.Side == domain.SideSell {
		price = quote.Bid
	}
	if !e.fillModel.AppliesSlippage() {
		return price
	}
	instrument, ok := e.cache.Instrument(order.Symbol)
	if !ok {
		return price
	}
	tick := instrument.TickSize
	if order.Side == domain.SideBuy {
		return domain.NewPrice(price.Decimal().Add(tick), price.Precision())
	}
	return domain.NewPrice(price.Decimal().Sub(tick), price.Precision())
}

// fill executes the order completely at the given price, settles
// balances and applies the position-ID policy.
func (e *SimulatedExchange) fill(order *domain.Order, price domain.Price) {
	if !e.settle(order, price) {
		order.Status = domain.OrderStatusRejected
		return
	}
	order.Status = domain.OrderStatusFilled

	fill := domain.Fill{
		OrderID:    order.ID,
		PositionID: e.applyPosition(order, price),
		Symbol:     order.Symbol,
		Side:       order.Side,
		Price:      price,
		Quantity:   order.Quantity,
		Timestamp:  e.now,
	}
	e.fills = append(e.fills, fill)
	e.log.Debug("order filled",
		slog.String("order_id", fill.OrderID),
		slog.String("position_id", fill.PositionID),
		slog.String("symbol", fill.Symbol.String()),
		slog.String("side", fill.Side.String()),
		slog.String("price", fill.Price.String()),
		slog.String("quantity", fill.Quantity.String()))
}

// settle moves money for the fill: the quote-currency notional against
// the base-currency quantity. Buys with insufficient quote balance are
// rejected.
func (e *SimulatedExchange) settle(order *domain.Order, price domain.Price) bool {
	instrument, ok := e.cache.Instrument(order.Symbol)
	if !ok {
		// No reference data; fill without settlement.
		return true
	}
	quoteCcy := instrument.QuoteCurrency
	baseCcy := instrument.BaseCurrency()
	notional := price.Decimal().Mul(order.Quantity.Decimal())

	if order.Side == domain.SideBuy {
		quoteBal := e.balances[quoteCcy]
		if quoteBal.Currency == "" {
			quoteBal = domain.NewMoney(decimal.Zero, quoteCcy)
		}
		if quoteBal.Amount.LessThan(notional) {
			e.log.Warn("order rejected, insufficient balance",
				slog.String("order_id", order.ID),
				slog.String("currency", string(quoteCcy)),
				slog.String("needed", notional.String()),
				slog.String("available", quoteBal.Amount.String()))
			return false
		}
		e.adjustBalance(quoteCcy, notional.Neg())
		if baseCcy != "" {
			e.adjustBalance(baseCcy, order.Quantity.Decimal())
		}
		return true
	}

	e.adjustBalance(quoteCcy, notional)
	if baseCcy != "" {
		e.adjustBalance(baseCcy, order.Quantity.Decimal().Neg())
	}
	return true
}

func (e *SimulatedExchange) adjustBalance(currency domain.Currency, delta decimal.Decimal) {
	balance, ok := e.balances[currency]
	if !ok {
		balance = domain.NewMoney(decimal.Zero, currency)
	}
	balance.Amount = balance.Amount.Add(delta)
	e.balances[currency] = balance
}

// applyPosition updates position state per the OMS policy and returns
// the position ID assigned to the fill. IDs are counter-based so that
// identical runs produce identical IDs.
func (e *SimulatedExchange) applyPosition(order *domain.Order, price domain.Price) string {
	signed := order.Quantity.Decimal()
	if order.Side == domain.SideSell {
		signed = signed.Neg()
	}

	if e.omsType == domain.OMSHedging {
		if !e.generatePositionIDs {
			return ""
		}
		e.positionSeq++
		pos := &positionState{
			id:       fmt.Sprintf("P-%s-%d", e.venue, e.positionSeq),
			symbol:   order.Symbol,
			net:      signed,
			entry:    price,
			openedAt: e.now,
		}
		e.positions = append(e.positions, pos)
		return pos.id
	}

	// NETTING: one position per (venue, symbol).
	pos, ok := e.netBySym[order.Symbol]
	if !ok {
		e.positionSeq++
		pos = &positionState{
			id:       fmt.Sprintf("P-%s-%d", e.venue, e.positionSeq),
			symbol:   order.Symbol,
			entry:    price,
			openedAt: e.now,
		}
		e.netBySym[order.Symbol] = pos
		e.positions = append(e.positions, pos)
	}
	pos.net = pos.net.Add(signed)
	return pos.id
}

// Balances returns the venue balances in currency order.
func (e *SimulatedExchange) Balances() []domain.Money {
	currencies := make([]domain.Currency, 0, len(e.balances))
	for currency := range e.balances {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	balances := make([]domain.Money, len(currencies))
	for i, currency := range currencies {
		balances[i] = e.balances[currency]
	}
	return balances
}

// Balance returns the balance for one currency, false when untracked.
func (e *SimulatedExchange) Balance(currency domain.Currency) (domain.Money, bool) {
	balance, ok := e.balances[currency]
	return balance, ok
}

// OpenOrderCount returns the number of resting orders.
func (e *SimulatedExchange) OpenOrderCount() int { return len(e.openOrders) }

// Fills returns all fills in execution order.
func (e *SimulatedExchange) Fills() []domain.Fill { return e.fills }

// Positions returns a snapshot of all positions in open order.
func (e *SimulatedExchange) Positions() []domain.Position {
	positions := make([]domain.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		side := domain.SideBuy
		qty := pos.net
		if pos.net.IsNegative() {
			side = domain.SideSell
			qty = pos.net.Neg()
		}
		precision := 0
		if exp := qty.Exponent(); exp < 0 {
			precision = int(-exp)
		}
		positions = append(positions, domain.Position{
			ID:         pos.id,
			Symbol:     pos.symbol,
			Side:       side,
			Quantity:   domain.NewQuantity(qty, precision),
			EntryPrice: pos.entry,
			OpenedAt:   pos.openedAt,
		})
	}
	return positions
}
