package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest_go/internal/domain"
)

var upgrader = websocket.Upgrader{}

// newTestServer runs a websocket endpoint that checks the subscription
// and then sends each payload in order.
func newTestServer(t *testing.T, payloads [][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(sub, &req); err != nil || req.Op != subscribeOp {
			t.Errorf("unexpected subscription: %s", sub)
			return
		}

		for _, payload := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func quotePayload(t *testing.T, symbol, bid, ask string, ts int64) []byte {
	t.Helper()
	payload, err := json.Marshal(quoteMessage{
		Type: quoteMsgType, Symbol: symbol,
		Bid: bid, Ask: ask, BidSize: "1000000", AskSize: "1000000",
		Timestamp: ts,
	})
	require.NoError(t, err)
	return payload
}

func TestQuoteFeed_DeliversTicks(t *testing.T) {
	server := newTestServer(t, [][]byte{
		quotePayload(t, "AUD/USD", "0.80000", "0.80010", 1_700_000_000_000),
	})

	quotes := make(chan domain.QuoteTick, 1)
	fxcm := domain.NewVenue("FXCM")
	f := NewQuoteFeed(wsURL(server), fxcm, []string{"AUD/USD"}, quotes, nil)

	require.NoError(t, f.Connect(context.Background()))
	defer f.Close()

	select {
	case tick := <-quotes:
		assert.Equal(t, domain.NewSymbol("AUD/USD", fxcm), tick.Symbol)
		assert.True(t, tick.Bid.Equal(domain.NewPriceFromString("0.80000")))
		assert.True(t, tick.Ask.Equal(domain.NewPriceFromString("0.80010")))
		assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), tick.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("no tick received")
	}
}

func TestQuoteFeed_SkipsMalformedMessages(t *testing.T) {
	server := newTestServer(t, [][]byte{
		[]byte("not json"),
		[]byte(`{"type":"heartbeat"}`),
		[]byte(`{"type":"quote","symbol":"AUD/USD","bid":"garbage","ask":"0.80010","bid_size":"1","ask_size":"1","timestamp":1}`),
		quotePayload(t, "AUD/USD", "0.80001", "0.80011", 1_700_000_000_500),
	})

	quotes := make(chan domain.QuoteTick, 4)
	fxcm := domain.NewVenue("FXCM")
	f := NewQuoteFeed(wsURL(server), fxcm, []string{"AUD/USD"}, quotes, nil)

	require.NoError(t, f.Connect(context.Background()))
	defer f.Close()

	select {
	case tick := <-quotes:
		// only the valid quote survives
		assert.True(t, tick.Bid.Equal(domain.NewPriceFromString("0.80001")))
	case <-time.After(5 * time.Second):
		t.Fatal("no tick received")
	}
	assert.Empty(t, quotes)
}
