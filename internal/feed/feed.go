package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"backtest_go/internal/domain"
	"backtest_go/internal/infra"
)

const (
	maxRetries   = 10
	baseDelay    = 1 * time.Second
	maxDelay     = 60 * time.Second
	readTimeout  = 60 * time.Second
	dialTimeout  = 10 * time.Second
	subscribeOp  = "subscribe"
	quoteMsgType = "quote"
)

// quoteMessage is the wire shape of one live quote. Prices travel as
// strings so precision survives transport.
type quoteMessage struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	BidSize   string `json:"bid_size"`
	AskSize   string `json:"ask_size"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// subscribeRequest asks the server to stream quotes for symbols.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// QuoteFeed bridges a live quote websocket into domain quote ticks.
// Received ticks are delivered on the channel given at construction;
// the consumer decides whether they reach a cache or an engine.
type QuoteFeed struct {
	log     *slog.Logger
	wsURL   string
	venue   domain.Venue
	symbols []string
	quotes  chan<- domain.QuoteTick

	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewQuoteFeed creates a feed for one venue's symbols.
func NewQuoteFeed(wsURL string, venue domain.Venue, symbols []string, quotes chan<- domain.QuoteTick, log *slog.Logger) *QuoteFeed {
	if log == nil {
		log = slog.Default()
	}
	return &QuoteFeed{
		log:     log,
		wsURL:   wsURL,
		venue:   venue,
		symbols: symbols,
		quotes:  quotes,
	}
}

// Connect starts the connection loop with automatic reconnection.
func (f *QuoteFeed) Connect(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.connectionLoop(ctx)

	return nil
}

// Close stops the feed and waits for the connection loop to exit.
func (f *QuoteFeed) Close() {
	if f.cancel != nil {
		f.cancel()
	}
	f.closeConnection()
	f.wg.Wait()
}

// connectionLoop handles connection and reconnection with exponential backoff.
func (f *QuoteFeed) connectionLoop(ctx context.Context) {
	defer f.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("feed panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			f.log.Info("feed connection loop stopped")
			return
		default:
		}

		err := f.connect(ctx)
		if err != nil {
			infra.GlobalMetrics.RecordError()
			f.log.Warn("feed connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := f.calculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				f.log.Error("feed max retries exceeded, resetting counter")
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0

		f.readLoop(ctx)
	}
}

// calculateBackoff returns the delay for the current retry attempt.
func (f *QuoteFeed) calculateBackoff(retryCount int) time.Duration {
	delay := baseDelay * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// connect dials the websocket and subscribes to the configured symbols.
func (f *QuoteFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	infra.GlobalMetrics.IncrementConnections()

	if err := f.subscribe(); err != nil {
		f.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	f.log.Info("quote feed connected",
		slog.String("venue", f.venue.String()),
		slog.Int("symbols", len(f.symbols)),
	)

	return nil
}

// subscribe sends the subscription message for all symbols.
func (f *QuoteFeed) subscribe() error {
	msgBytes, err := json.Marshal(subscribeRequest{
		Op:      subscribeOp,
		Symbols: f.symbols,
	})
	if err != nil {
		return err
	}
	return f.threadSafeWrite(websocket.TextMessage, msgBytes)
}

// threadSafeWrite sends a message on the connection under the write lock.
func (f *QuoteFeed) threadSafeWrite(messageType int, data []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

// readLoop reads messages until the connection breaks or ctx is done.
func (f *QuoteFeed) readLoop(ctx context.Context) {
	defer f.closeConnection()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn("feed read failed", slog.Any("error", err))
				infra.GlobalMetrics.RecordError()
			}
			return
		}

		start := time.Now()
		tick, ok := f.parseQuote(payload)
		if !ok {
			continue
		}
		infra.GlobalMetrics.RecordEvent(time.Since(start).Nanoseconds())

		select {
		case f.quotes <- tick:
		case <-ctx.Done():
			return
		}
	}
}

// parseQuote decodes one message into a quote tick. Malformed messages
// are logged and skipped so one bad payload cannot kill the stream.
func (f *QuoteFeed) parseQuote(payload []byte) (tick domain.QuoteTick, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("feed message dropped", slog.Any("error", r))
			infra.GlobalMetrics.RecordError()
			ok = false
		}
	}()

	var msg quoteMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		f.log.Warn("feed message dropped", slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
		return domain.QuoteTick{}, false
	}
	if msg.Type != quoteMsgType {
		return domain.QuoteTick{}, false
	}

	tick = domain.NewQuoteTick(
		domain.NewSymbol(msg.Symbol, f.venue),
		domain.NewPriceFromString(msg.Bid),
		domain.NewPriceFromString(msg.Ask),
		domain.NewQuantityFromString(msg.BidSize),
		domain.NewQuantityFromString(msg.AskSize),
		time.UnixMilli(msg.Timestamp).UTC(),
	)
	return tick, true
}

// closeConnection closes the socket if open.
func (f *QuoteFeed) closeConnection() {
	f.mu.Lock()
	conn := f.conn
	f.conn = nil
	f.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		infra.GlobalMetrics.DecrementConnections()
	}
}
