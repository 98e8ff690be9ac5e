package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"backtest_go/internal/cache"
	"backtest_go/internal/domain"
	"backtest_go/internal/engine"
	"backtest_go/internal/execution"
	"backtest_go/internal/feed"
	"backtest_go/internal/infra"
	"backtest_go/internal/infra/storage"
	"backtest_go/internal/strategy"
	"backtest_go/internal/wire"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config *infra.Config
	Store  *storage.Store
	Engine *engine.Engine

	strategies []strategy.Strategy
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration, logger and result store.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Storage.Path != "" {
		store, err := storage.NewStore(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Store = store
		slog.Info("result store initialized", slog.String("path", cfg.Storage.Path))
	}

	return nil
}

// BuildEngine loads the configured data streams and strategies and
// assembles the replay engine with its simulated exchanges.
func (b *Bootstrap) BuildEngine() error {
	data := engine.NewDataContainer()

	for _, code := range b.Config.Data.Instruments {
		symbol, err := domain.ParseSymbol(code)
		if err != nil {
			return err
		}
		data.AddInstrument(domain.NewFXInstrument(symbol))
	}

	for _, stream := range b.Config.Data.Streams {
		if err := loadStream(data, stream); err != nil {
			return fmt.Errorf("load stream %s: %w", stream.File, err)
		}
	}

	strategies := make([]strategy.Strategy, 0, len(b.Config.Strategies))
	for _, importable := range b.Config.Strategies {
		s, err := strategy.Create(importable)
		if err != nil {
			return err
		}
		strategies = append(strategies, s)
	}
	b.strategies = strategies

	eng, err := engine.NewEngine(data, strategies, slog.Default())
	if err != nil {
		return err
	}

	for _, venueCfg := range b.Config.Venues {
		omsType, _ := domain.ParseOMSType(venueCfg.OMSType)
		balances := make([]domain.Money, 0, len(venueCfg.StartingBalances))
		for _, balance := range venueCfg.StartingBalances {
			balances = append(balances, domain.NewMoney(balance.Amount, domain.Currency(balance.Currency)))
		}
		if err := eng.AddExchange(
			domain.NewVenue(venueCfg.Name), omsType,
			venueCfg.GeneratePositionIDs, balances,
			buildFillModel(venueCfg.FillModel),
		); err != nil {
			return err
		}
	}

	b.Engine = eng
	return nil
}

// loadStream reads one serialized batch from disk into the container.
func loadStream(data *engine.DataContainer, stream infra.StreamConfig) error {
	payload, err := os.ReadFile(stream.File)
	if err != nil {
		return err
	}
	decoded, err := wire.DataSerializer{}.Deserialize(payload)
	if err != nil {
		return err
	}
	switch decoded.Kind {
	case wire.KindQuoteTicks:
		data.AddQuoteTicks(decoded.Symbol, decoded.QuoteTicks)
	case wire.KindTradeTicks:
		data.AddTradeTicks(decoded.Symbol, decoded.TradeTicks)
	case wire.KindBars:
		barType := decoded.BarType
		data.AddBars(barType.Symbol, barType.Step, barType.Aggregation, barType.PriceType, decoded.Bars)
	default:
		return fmt.Errorf("unsupported data kind %s", decoded.Kind)
	}
	return nil
}

// buildFillModel maps the config shape onto a fill model.
func buildFillModel(cfg infra.FillModelConfig) execution.FillModel {
	if cfg.ProbFillAtLimit != nil || cfg.ProbSlippage != nil {
		probFill := 1.0
		if cfg.ProbFillAtLimit != nil {
			probFill = *cfg.ProbFillAtLimit
		}
		probSlippage := 0.0
		if cfg.ProbSlippage != nil {
			probSlippage = *cfg.ProbSlippage
		}
		return execution.NewProbFillModel(probFill, probSlippage, cfg.Seed)
	}
	return execution.StaticFillModel{
		NoFillAtLimit: cfg.NoFillAtLimit,
		Slippage:      cfg.Slippage,
	}
}

// RunBacktest replays the data once, records metrics and persists the
// results when a store is configured.
func (b *Bootstrap) RunBacktest(ctx context.Context) error {
	startedAt := time.Now().UTC()

	if err := b.Engine.Run(ctx); err != nil {
		infra.GlobalMetrics.RecordError()
		return err
	}
	finishedAt := time.Now().UTC()

	infra.GlobalMetrics.AddEvents(b.Engine.Iteration())
	infra.GlobalMetrics.RecordRunCompleted()

	run := storage.RunRecord{
		ID:         uuid.NewString(),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Events:     b.Engine.Iteration(),
		Strategies: joinStrategyNames(b.strategies),
		Venues:     joinVenueNames(b.Config.Venues),
	}

	var fills []storage.FillRecord
	var balances []storage.BalanceRecord
	for _, venueCfg := range b.Config.Venues {
		venue := domain.NewVenue(venueCfg.Name)
		exchange, ok := b.Engine.Exchange(venue)
		if !ok {
			continue
		}
		infra.GlobalMetrics.AddOrdersFilled(len(exchange.Fills()))
		for _, fill := range exchange.Fills() {
			fills = append(fills, storage.FillRecord{
				OrderID:    fill.OrderID,
				PositionID: fill.PositionID,
				Symbol:     fill.Symbol.String(),
				Side:       fill.Side.String(),
				Price:      fill.Price.String(),
				Quantity:   fill.Quantity.String(),
				FilledAt:   fill.Timestamp,
			})
		}
		for _, money := range exchange.Balances() {
			balances = append(balances, storage.BalanceRecord{
				Venue:    venueCfg.Name,
				Currency: string(money.Currency),
				Amount:   money.Amount.String(),
			})
		}
	}

	if b.Store != nil {
		if err := b.Store.SaveRun(run, fills, balances); err != nil {
			infra.GlobalMetrics.RecordError()
			return fmt.Errorf("persist run: %w", err)
		}
	}

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("backtest completed",
		slog.String("run_id", run.ID),
		slog.Int("events", run.Events),
		slog.Int("fills", len(fills)),
		slog.Duration("elapsed", finishedAt.Sub(startedAt)),
		slog.Uint64("total_events", snap.EventsProcessed),
		slog.Uint64("total_fills", snap.OrdersFilled),
	)
	return nil
}

// StartFeed connects the live quote feed when enabled. Received ticks
// land in a dedicated cache owned by the consumer goroutine; the blocked
// call returns when ctx is done.
func (b *Bootstrap) StartFeed(ctx context.Context) error {
	if !b.Config.Feed.Enabled {
		return nil
	}
	venue := domain.NewVenue(b.Config.Feed.Venue)
	quotes := make(chan domain.QuoteTick, 256)
	quoteFeed := feed.NewQuoteFeed(b.Config.Feed.WSURL, venue, b.Config.Feed.Symbols, quotes, slog.Default())
	if err := quoteFeed.Connect(ctx); err != nil {
		return err
	}
	defer quoteFeed.Close()

	liveCache := cache.New(slog.Default())
	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-quotes:
			liveCache.AddQuoteTick(tick)
			if mid, ok := liveCache.Price(tick.Symbol, domain.PriceTypeMid); ok {
				slog.Debug("live quote",
					slog.String("symbol", tick.Symbol.String()),
					slog.String("mid", mid.String()))
			}
		}
	}
}

func joinStrategyNames(strategies []strategy.Strategy) string {
	names := ""
	for i, s := range strategies {
		if i > 0 {
			names += ","
		}
		names += s.Name()
	}
	return names
}

func joinVenueNames(venues []infra.VenueConfig) string {
	names := ""
	for i, venue := range venues {
		if i > 0 {
			names += ","
		}
		names += venue.Name
	}
	return names
}
