package angelone

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWSServer upgrades every request and hands the connection and the
// handshake headers to handler.
func mockWSServer(t *testing.T, handler func(*websocket.Conn, http.Header)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r.Header)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestFeedRequestHeaders(t *testing.T) {
	mf := &MarketFeed{APIKey: "key", ClientCode: "C123", FeedToken: "feed", JwtToken: "jwt"}
	req := mf.Request()
	assert.Equal(t, smartapi.WSURL, req.URL)
	assert.Equal(t, "Bearer jwt", req.Header.Get("Authorization"))
	assert.Equal(t, "key", req.Header.Get("x-api-key"))
	assert.Equal(t, "C123", req.Header.Get("x-client-code"))
	assert.Equal(t, "feed", req.Header.Get("x-feed-token"))

	osf := &OrderStatusFeed{ClientCode: "C123", FeedToken: "feed", JwtToken: "jwt"}
	req = osf.Request()
	assert.Equal(t, smartapi.OrderStatusWSURL, req.URL)
	assert.Equal(t, "Bearer jwt", req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("x-api-key"))
}

func TestOrderStatusFeed(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, h http.Header) {
		assert.Equal(t, "C123", h.Get("x-client-code"))
		assert.Equal(t, "feed", h.Get("x-feed-token"))

		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"user-id":"C123","status-code":"200","order-status":"AB00","error-message":"","orderData":null}`))

		// keep-alive text is answered with a pong text
		_, msg, err := conn.ReadMessage()
		if err != nil || string(msg) != "ping" {
			t.Errorf("want ping, got %q (%v)", msg, err)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"user-id":"C123","status-code":"200","order-status":"AB01","error-message":"",
			"orderData":{"orderid":"2401","status":"open"}}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	feed := &OrderStatusFeed{URL: wsURL(server), ClientCode: "C123", FeedToken: "feed", JwtToken: "jwt"}
	ctx := context.Background()
	s, err := feed.Connect(ctx)
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, UpdateConnected, first.OrderStatus)
	assert.Nil(t, first.OrderData)

	require.NoError(t, s.SendText("ping"))
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, stream.ErrPongReceived)

	second, err := s.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, second.OrderData)
	assert.Equal(t, "2401", second.OrderData.OrderID)

	_, err = s.Next(ctx)
	assert.Error(t, err)
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMarketFeedSubscribeAndTicks(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, h http.Header) {
		assert.Equal(t, "key", h.Get("x-api-key"))

		var req SubscriptionRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, Subscribe, req.Action)
		if req.Params == nil || len(req.Params.TokenList) != 1 {
			t.Errorf("unexpected params %+v", req.Params)
			return
		}
		assert.Equal(t, []string{"3045"}, req.Params.TokenList[0].Tokens)

		_ = conn.WriteMessage(websocket.BinaryMessage, quotePacket("3045"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	ctx := context.Background()
	mf := &MarketFeed{URL: wsURL(server), APIKey: "key", ClientCode: "C123", FeedToken: "feed", JwtToken: "jwt"}
	s, err := ConnectMarketFeed[Tick](ctx, mf)
	require.NoError(t, err)
	defer s.Close()

	bad := NewSubscription("c1", Subscribe, SubscriptionDepth).AddTokens(BseCM, "1")
	assert.ErrorIs(t, SubscribeFeed(s, bad), smartapi.ErrInvalidSubscriptionExchange)

	require.NoError(t, SubscribeFeed(s, NewSubscription("c1", Subscribe, SubscriptionQuote).AddTokens(NseCM, "3045")))

	tick, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3045", tick.Token)
	assert.Equal(t, 613.2, Price(tick.LTP))
}
