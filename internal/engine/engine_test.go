package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
	"backtest_go/internal/execution"
	"backtest_go/internal/strategy"
)

var (
	fxcm      = domain.NewVenue("FXCM")
	audusd    = domain.NewSymbol("AUD/USD", fxcm)
	unixEpoch = time.Unix(0, 0).UTC()
)

func quoteAt(bid, ask string, ts time.Time) domain.QuoteTick {
	return domain.NewQuoteTick(audusd,
		domain.NewPriceFromString(bid), domain.NewPriceFromString(ask),
		domain.NewQuantityFromInt(1_000_000), domain.NewQuantityFromInt(1_000_000), ts)
}

func tradeAt(price string, ts time.Time) domain.TradeTick {
	return domain.NewTradeTick(audusd,
		domain.NewPriceFromString(price), domain.NewQuantityFromInt(50_000),
		domain.MakerBuyer, fmt.Sprintf("T-%d", ts.UnixNano()), ts)
}

func barAt(closePrice string, ts time.Time) domain.Bar {
	p := domain.NewPriceFromString(closePrice)
	return domain.NewBar(p, p, p, p, domain.NewQuantityFromInt(100_000), ts)
}

func quoteSeries(n int) []domain.QuoteTick {
	ticks := make([]domain.QuoteTick, 0, n)
	for i := 0; i < n; i++ {
		ticks = append(ticks, quoteAt("0.80000", "0.80010", unixEpoch.Add(time.Duration(i)*time.Second)))
	}
	return ticks
}

// recordingStrategy counts callbacks and emits one market buy when the
// quote count reaches buyOnQuote.
type recordingStrategy struct {
	name       string
	buyOnQuote int
	started    int
	stopped    int
	resets     int
	quotes     int
	trades     int
	bars       int
	order      []string // callback trace for ordering assertions
}

func (s *recordingStrategy) Name() string { return s.name }

func (s *recordingStrategy) OnStart(*cache.Cache) { s.started++ }

func (s *recordingStrategy) OnQuoteTick(tick domain.QuoteTick) []strategy.OrderIntent {
	s.quotes++
	s.order = append(s.order, fmt.Sprintf("quote@%d", tick.Timestamp.Unix()))
	if s.buyOnQuote > 0 && s.quotes == s.buyOnQuote {
		return []strategy.OrderIntent{{
			Symbol:   tick.Symbol,
			Side:     domain.SideBuy,
			Type:     domain.OrderMarket,
			Quantity: domain.NewQuantityFromInt(100_000),
		}}
	}
	return nil
}

func (s *recordingStrategy) OnTradeTick(tick domain.TradeTick) []strategy.OrderIntent {
	s.trades++
	s.order = append(s.order, fmt.Sprintf("trade@%d", tick.Timestamp.Unix()))
	return nil
}

func (s *recordingStrategy) OnBar(_ domain.BarType, bar domain.Bar) []strategy.OrderIntent {
	s.bars++
	s.order = append(s.order, fmt.Sprintf("bar@%d", bar.Timestamp.Unix()))
	return nil
}

func (s *recordingStrategy) OnStop() { s.stopped++ }

func (s *recordingStrategy) Reset() {
	s.resets++
	s.quotes, s.trades, s.bars = 0, 0, 0
	s.order = nil
}

// panicStrategy panics on every quote tick.
type panicStrategy struct{ recordingStrategy }

func (s *panicStrategy) OnQuoteTick(domain.QuoteTick) []strategy.OrderIntent {
	panic("boom")
}

func newTestEngine(t *testing.T, data *DataContainer, strategies ...strategy.Strategy) *Engine {
	t.Helper()
	e, err := NewEngine(data, strategies, nil)
	require.NoError(t, err)
	return e
}

func addFXCM(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.AddExchange(fxcm, domain.OMSNetting, true,
		[]domain.Money{domain.NewMoneyFromInt(1_000_000, domain.USD)},
		execution.StaticFillModel{}))
}

func TestEngine_RunCountsEveryEvent(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(5))
	data.AddTradeTicks(audusd, []domain.TradeTick{
		tradeAt("0.80005", unixEpoch.Add(500 * time.Millisecond)),
	})
	data.AddBars(audusd, 1, domain.AggregationMinute, domain.PriceTypeBid, []domain.Bar{
		barAt("0.80000", unixEpoch.Add(time.Minute)),
	})

	rec := &recordingStrategy{name: "rec"}
	e := newTestEngine(t, data, rec)

	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, 7, e.Iteration())
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.stopped)
	assert.Equal(t, 5, rec.quotes)
	assert.Equal(t, 1, rec.trades)
	assert.Equal(t, 1, rec.bars)
	assert.Equal(t, 7, e.Cache().QuoteTickCount(audusd)+
		e.Cache().TradeTickCount(audusd)+
		e.Cache().BarCount(domain.NewBarType(audusd, 1, domain.AggregationMinute, domain.PriceTypeBid)))
}

func TestEngine_ResetRestoresIdle(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(3))

	rec := &recordingStrategy{name: "rec", buyOnQuote: 1}
	e := newTestEngine(t, data, rec)
	addFXCM(t, e)

	require.NoError(t, e.Run(context.Background()))
	exchange, ok := e.Exchange(fxcm)
	require.True(t, ok)
	require.Len(t, exchange.Fills(), 1)
	require.Equal(t, 3, e.Iteration())

	require.NoError(t, e.Reset())

	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 0, e.Iteration())
	assert.Equal(t, 0, e.Cache().QuoteTickCount(audusd))
	assert.Empty(t, exchange.Fills())
	assert.Equal(t, 1, rec.resets)

	// instruments survive reset through the container
	_, ok = e.Cache().Instrument(audusd)
	assert.True(t, ok)

	// a second run behaves like the first
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Iteration())
	assert.Len(t, exchange.Fills(), 1)
}

func TestEngine_TwoRunsAreIdentical(t *testing.T) {
	build := func() (*Engine, *recordingStrategy) {
		data := NewDataContainer()
		data.AddInstrument(domain.NewFXInstrument(audusd))
		data.AddQuoteTicks(audusd, quoteSeries(10))
		data.AddTradeTicks(audusd, []domain.TradeTick{
			tradeAt("0.80003", unixEpoch.Add(2500 * time.Millisecond)),
			tradeAt("0.80007", unixEpoch.Add(6500 * time.Millisecond)),
		})
		rec := &recordingStrategy{name: "rec", buyOnQuote: 4}
		e := newTestEngine(t, data, rec)
		addFXCM(t, e)
		return e, rec
	}

	first, firstRec := build()
	second, secondRec := build()
	require.NoError(t, first.Run(context.Background()))
	require.NoError(t, second.Run(context.Background()))

	assert.Equal(t, firstRec.order, secondRec.order)

	firstEx, _ := first.Exchange(fxcm)
	secondEx, _ := second.Exchange(fxcm)
	assert.Equal(t, firstEx.Fills(), secondEx.Fills())
	assert.Equal(t, firstEx.Balances(), secondEx.Balances())
	assert.Equal(t, firstEx.Positions(), secondEx.Positions())
}

func TestEngine_MergeTieBreakDeterministic(t *testing.T) {
	ts := unixEpoch.Add(time.Hour)
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	// registered bars first, then trades, then two quote sources; at an
	// equal timestamp quotes still replay first, then trades, then bars,
	// and the two quote sources keep registration order
	data.AddBars(audusd, 1, domain.AggregationMinute, domain.PriceTypeBid,
		[]domain.Bar{barAt("0.80001", ts)})
	data.AddTradeTicks(audusd, []domain.TradeTick{tradeAt("0.80002", ts)})
	data.AddQuoteTicks(audusd, []domain.QuoteTick{quoteAt("0.80000", "0.80010", ts)})
	data.AddQuoteTicks(audusd, []domain.QuoteTick{quoteAt("0.80001", "0.80011", ts)})

	events := merge(data)
	require.Len(t, events, 4)
	assert.Equal(t, kindQuoteTick, events[0].kind)
	assert.Equal(t, kindQuoteTick, events[1].kind)
	assert.Equal(t, kindTradeTick, events[2].kind)
	assert.Equal(t, kindBar, events[3].kind)
	assert.True(t, events[0].quoteTick.Bid.Equal(domain.NewPriceFromString("0.80000")))
	assert.True(t, events[1].quoteTick.Bid.Equal(domain.NewPriceFromString("0.80001")))
}

func TestEngine_MergeOrdersByTimestamp(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddTradeTicks(audusd, []domain.TradeTick{
		tradeAt("0.80001", unixEpoch.Add(3*time.Second)),
	})
	data.AddQuoteTicks(audusd, []domain.QuoteTick{
		quoteAt("0.80000", "0.80010", unixEpoch.Add(1*time.Second)),
		quoteAt("0.80002", "0.80012", unixEpoch.Add(5*time.Second)),
	})

	rec := &recordingStrategy{name: "rec"}
	e := newTestEngine(t, data, rec)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{"quote@1", "trade@3", "quote@5"}, rec.order)
}

func TestEngine_CancelStopsBetweenEvents(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(100))

	e := newTestEngine(t, data, &recordingStrategy{name: "rec"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, e.Iteration())
	assert.Equal(t, StateStopped, e.State())
}

func TestEngine_StrategyPanicIsIsolated(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(3))

	bad := &panicStrategy{recordingStrategy{name: "bad"}}
	good := &recordingStrategy{name: "good"}
	e := newTestEngine(t, data, bad, good)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Iteration())
	assert.Equal(t, 3, good.quotes)
}

func TestEngine_ChangeFillModel(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(2))

	e := newTestEngine(t, data, &recordingStrategy{name: "rec"})
	addFXCM(t, e)

	require.NoError(t, e.ChangeFillModel(fxcm, execution.StaticFillModel{Slippage: true}))

	err := e.ChangeFillModel(domain.NewVenue("SIM"), execution.StaticFillModel{})
	assert.Error(t, err)
}

func TestEngine_DisposeIsTerminal(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(2))

	e := newTestEngine(t, data, &recordingStrategy{name: "rec"})
	require.NoError(t, e.Run(context.Background()))

	e.Dispose()
	e.Dispose() // idempotent

	assert.Equal(t, StateDisposed, e.State())
	assert.ErrorIs(t, e.Run(context.Background()), domain.ErrDisposed)
	assert.ErrorIs(t, e.Reset(), domain.ErrDisposed)
	assert.ErrorIs(t, e.ChangeFillModel(fxcm, execution.StaticFillModel{}), domain.ErrDisposed)
	assert.ErrorIs(t, e.AddExchange(fxcm, domain.OMSNetting, true, nil, nil), domain.ErrDisposed)
}

func TestEngine_DuplicateVenueRejected(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))

	e := newTestEngine(t, data, &recordingStrategy{name: "rec"})
	addFXCM(t, e)

	err := e.AddExchange(fxcm, domain.OMSHedging, true, nil, nil)
	assert.Error(t, err)
}

// restAtAskStrategy rests a limit buy at the ask on every quote, so a
// flat quote series produces a touch opportunity per subsequent tick.
type restAtAskStrategy struct{}

func (restAtAskStrategy) Name() string         { return "rest_at_ask" }
func (restAtAskStrategy) OnStart(*cache.Cache) {}
func (restAtAskStrategy) OnStop()              {}
func (restAtAskStrategy) Reset()               {}

func (restAtAskStrategy) OnQuoteTick(tick domain.QuoteTick) []strategy.OrderIntent {
	return []strategy.OrderIntent{{
		Symbol:   tick.Symbol,
		Side:     domain.SideBuy,
		Type:     domain.OrderLimit,
		Price:    tick.Ask,
		Quantity: domain.NewQuantityFromInt(1_000),
	}}
}

func (restAtAskStrategy) OnTradeTick(domain.TradeTick) []strategy.OrderIntent { return nil }

func (restAtAskStrategy) OnBar(domain.BarType, domain.Bar) []strategy.OrderIntent { return nil }

func TestEngine_ResetRewindsProbabilisticFills(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(30))

	e := newTestEngine(t, data, restAtAskStrategy{})
	require.NoError(t, e.AddExchange(fxcm, domain.OMSNetting, true,
		[]domain.Money{domain.NewMoneyFromInt(1_000_000, domain.USD)},
		execution.NewProbFillModel(0.5, 0, 42)))

	require.NoError(t, e.Run(context.Background()))
	exchange, ok := e.Exchange(fxcm)
	require.True(t, ok)
	first := append([]domain.Fill(nil), exchange.Fills()...)
	require.NotEmpty(t, first)
	firstBalances := exchange.Balances()

	require.NoError(t, e.Reset())
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, first, exchange.Fills())
	assert.Equal(t, firstBalances, exchange.Balances())
}

func TestEngine_RunAfterStopRequiresReset(t *testing.T) {
	data := NewDataContainer()
	data.AddInstrument(domain.NewFXInstrument(audusd))
	data.AddQuoteTicks(audusd, quoteSeries(3))

	e := newTestEngine(t, data, &recordingStrategy{name: "rec"})
	require.NoError(t, e.Run(context.Background()))
	require.Equal(t, 3, e.Iteration())

	err := e.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrEngineStopped)
	assert.Equal(t, 3, e.Iteration())
	assert.Equal(t, 3, e.Cache().QuoteTickCount(audusd))

	require.NoError(t, e.Reset())
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Iteration())
}
