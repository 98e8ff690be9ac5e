package engine

import (
	"context"
	"fmt"
	"log/slog"

	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
	"backtest_go/internal/execution"
	"backtest_go/internal/strategy"
)

// State is the engine lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	case StateDisposed:
		return "DISPOSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine replays a merged historical stream through registered
// strategies and simulated exchanges on a single goroutine. Identical
// inputs always produce identical fills, positions and balances.
type Engine struct {
	log        *slog.Logger
	cache      *cache.Cache
	data       *DataContainer
	events     []event
	strategies []strategy.Strategy
	exchanges  map[domain.Venue]*execution.SimulatedExchange
	venues     []domain.Venue
	state      State
	iteration  int
}

// NewEngine builds an engine over the container's data. Instruments are
// loaded into the cache immediately; tick and bar events reach the cache
// one at a time during Run so strategies only ever see the past.
func NewEngine(data *DataContainer, strategies []strategy.Strategy, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log:        log,
		cache:      cache.New(log),
		data:       data,
		events:     merge(data),
		strategies: strategies,
		exchanges:  make(map[domain.Venue]*execution.SimulatedExchange),
	}
	for _, instrument := range data.instruments {
		if err := e.cache.AddInstrument(instrument); err != nil {
			return nil, fmt.Errorf("load instrument %s: %w", instrument.Symbol, err)
		}
	}
	e.log.Info("engine built",
		slog.Int("events", len(e.events)),
		slog.Int("instruments", len(data.instruments)),
		slog.Int("strategies", len(strategies)))
	return e, nil
}

// Cache exposes the engine's market data cache.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// State returns the current lifecycle phase.
func (e *Engine) State() State { return e.state }

// Iteration returns the number of events processed in the current run.
func (e *Engine) Iteration() int { return e.iteration }

// AddExchange registers a simulated venue. Must be called before Run.
func (e *Engine) AddExchange(
	venue domain.Venue,
	omsType domain.OMSType,
	generatePositionIDs bool,
	startingBalances []domain.Money,
	fillModel execution.FillModel,
) error {
	if e.state == StateDisposed {
		return domain.ErrDisposed
	}
	if e.state == StateRunning {
		return domain.ErrEngineRunning
	}
	if _, ok := e.exchanges[venue]; ok {
		return fmt.Errorf("add exchange: venue %s already registered", venue)
	}
	e.exchanges[venue] = execution.NewSimulatedExchange(
		venue, omsType, generatePositionIDs, startingBalances, fillModel, e.cache, e.log)
	e.venues = append(e.venues, venue)
	e.log.Info("exchange added",
		slog.String("venue", venue.String()),
		slog.String("oms_type", omsType.String()))
	return nil
}

// Exchange returns the simulated exchange for a venue.
func (e *Engine) Exchange(venue domain.Venue) (*execution.SimulatedExchange, bool) {
	exchange, ok := e.exchanges[venue]
	return exchange, ok
}

// ChangeFillModel swaps the fill model of one venue. Applies to fills
// from the next event on.
func (e *Engine) ChangeFillModel(venue domain.Venue, model execution.FillModel) error {
	if e.state == StateDisposed {
		return domain.ErrDisposed
	}
	exchange, ok := e.exchanges[venue]
	if !ok {
		return fmt.Errorf("change fill model: venue %s not registered", venue)
	}
	exchange.SetFillModel(model)
	return nil
}

// Run replays every event in merged order. Cancellation is honored
// between events only, so each event's effects are always complete.
// After a run the engine stays queryable; replaying requires Reset.
func (e *Engine) Run(ctx context.Context) error {
	switch e.state {
	case StateDisposed:
		return domain.ErrDisposed
	case StateRunning:
		return domain.ErrEngineRunning
	case StateStopped:
		return domain.ErrEngineStopped
	}
	e.state = StateRunning
	e.log.Info("run started", slog.Int("events", len(e.events)))

	for _, s := range e.strategies {
		e.guard(s, func() { s.OnStart(e.cache) })
	}

	var runErr error
	for _, ev := range e.events {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		e.processEvent(ev)
		e.iteration++
	}

	for _, s := range e.strategies {
		e.guard(s, func() { s.OnStop() })
	}
	e.state = StateStopped
	if runErr != nil {
		e.log.Warn("run interrupted",
			slog.Int("iteration", e.iteration), slog.Any("error", runErr))
		return runErr
	}
	e.log.Info("run finished", slog.Int("iteration", e.iteration))
	return nil
}

// processEvent applies one event: cache first, then the event symbol's
// exchange, then every strategy in registration order.
func (e *Engine) processEvent(ev event) {
	switch ev.kind {
	case kindQuoteTick:
		e.cache.AddQuoteTick(ev.quoteTick)
		if exchange, ok := e.exchanges[ev.quoteTick.Symbol.Venue]; ok {
			exchange.OnQuoteTick(ev.quoteTick)
		}
		for _, s := range e.strategies {
			e.dispatch(s, func() []strategy.OrderIntent { return s.OnQuoteTick(ev.quoteTick) })
		}
	case kindTradeTick:
		e.cache.AddTradeTick(ev.tradeTick)
		if exchange, ok := e.exchanges[ev.tradeTick.Symbol.Venue]; ok {
			exchange.OnTradeTick(ev.tradeTick)
		}
		for _, s := range e.strategies {
			e.dispatch(s, func() []strategy.OrderIntent { return s.OnTradeTick(ev.tradeTick) })
		}
	case kindBar:
		e.cache.AddBar(ev.barType, ev.bar)
		if exchange, ok := e.exchanges[ev.barType.Symbol.Venue]; ok {
			exchange.OnBar(ev.barType, ev.bar)
		}
		for _, s := range e.strategies {
			e.dispatch(s, func() []strategy.OrderIntent { return s.OnBar(ev.barType, ev.bar) })
		}
	}
}

// dispatch runs one strategy callback with panic isolation and routes
// any returned intents. A panicking strategy loses this event only.
func (e *Engine) dispatch(s strategy.Strategy, callback func() []strategy.OrderIntent) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("strategy panicked",
				slog.String("strategy", s.Name()),
				slog.Int("iteration", e.iteration),
				slog.Any("panic", r))
		}
	}()
	for _, intent := range callback() {
		e.routeIntent(s, intent)
	}
}

// guard runs a lifecycle callback with panic isolation.
func (e *Engine) guard(s strategy.Strategy, callback func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("strategy panicked",
				slog.String("strategy", s.Name()),
				slog.Any("panic", r))
		}
	}()
	callback()
}

// routeIntent submits an intent to the exchange of its symbol's venue.
func (e *Engine) routeIntent(s strategy.Strategy, intent strategy.OrderIntent) {
	exchange, ok := e.exchanges[intent.Symbol.Venue]
	if !ok {
		e.log.Warn("intent dropped, venue not registered",
			slog.String("strategy", s.Name()),
			slog.String("symbol", intent.Symbol.String()))
		return
	}
	orderID, err := exchange.SubmitOrder(domain.Order{
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Type:     intent.Type,
		Price:    intent.Price,
		Quantity: intent.Quantity,
	})
	if err != nil {
		e.log.Warn("order rejected",
			slog.String("strategy", s.Name()),
			slog.String("symbol", intent.Symbol.String()),
			slog.Any("error", err))
		return
	}
	e.log.Debug("order submitted",
		slog.String("strategy", s.Name()),
		slog.String("order_id", orderID))
}

// Reset returns the engine to its pre-run state with all registrations
// intact. Data, instruments, exchanges and strategies survive; balances,
// fills, positions and the iteration counter do not.
func (e *Engine) Reset() error {
	switch e.state {
	case StateDisposed:
		return domain.ErrDisposed
	case StateRunning:
		return domain.ErrEngineRunning
	}
	e.cache.Reset()
	for _, instrument := range e.data.instruments {
		if err := e.cache.AddInstrument(instrument); err != nil {
			return fmt.Errorf("reload instrument %s: %w", instrument.Symbol, err)
		}
	}
	for _, venue := range e.venues {
		e.exchanges[venue].Reset()
	}
	for _, s := range e.strategies {
		e.guard(s, func() { s.Reset() })
	}
	e.iteration = 0
	e.state = StateIdle
	e.log.Info("engine reset")
	return nil
}

// Dispose releases the engine permanently. Every later lifecycle call
// returns ErrDisposed. Disposing twice is a no-op.
func (e *Engine) Dispose() {
	if e.state == StateDisposed {
		return
	}
	if e.state == StateRunning {
		// single-goroutine contract makes this unreachable in practice
		e.log.Warn("dispose called while running")
	}
	e.state = StateDisposed
	e.events = nil
	e.log.Info("engine disposed")
}
