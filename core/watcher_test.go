package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/riven-blade/smartconnect/pkg/angelone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type stubSource struct {
	url string
	err error
}

func (s stubSource) OrderStatusFeed() (*angelone.OrderStatusFeed, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &angelone.OrderStatusFeed{URL: s.url, ClientCode: "C123", FeedToken: "feed", JwtToken: "jwt"}, nil
}

func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
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
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func collector() (EventHandler, <-chan Event) {
	ch := make(chan Event, 64)
	return HandlerFunc(func(_ context.Context, e Event) error {
		ch <- e
		return nil
	}), ch
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func update(code string) []byte {
	return []byte(`{"user-id":"C123","status-code":"200","order-status":"` + code + `","error-message":"","orderData":null}`)
}

func TestOrderWatcherPublishesUpdates(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, update("AB00"))
		_, msg, err := conn.ReadMessage()
		if err != nil || string(msg) != "ping" {
			t.Errorf("want keep-alive ping, got %q (%v)", msg, err)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		_ = conn.WriteMessage(websocket.TextMessage, update("AB05"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	handler, events := collector()
	w := NewOrderWatcher("C123", stubSource{url: wsURL(server)}, NewEventPublisher(handler),
		WatcherOptions{KeepAlive: 20 * time.Millisecond})
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	assert.Equal(t, EventFeedConnected, nextEvent(t, events).Type)
	first := nextEvent(t, events)
	require.Equal(t, EventOrderUpdate, first.Type)
	assert.Equal(t, angelone.UpdateConnected, first.Update.OrderStatus)
	assert.Equal(t, "C123", first.ClientCode)

	second := nextEvent(t, events)
	require.Equal(t, EventOrderUpdate, second.Type)
	assert.Equal(t, angelone.UpdateComplete, second.Update.OrderStatus)

	assert.Equal(t, int64(1), w.Stats().Pongs.Load())
	assert.Equal(t, int64(1), w.Stats().Errors.Load())
	assert.Equal(t, "healthy", w.Health().Status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, "unhealthy", w.Health().Status)
	require.NoError(t, w.Stop(ctx))
}

func TestOrderWatcherSkipsBinaryFrames(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		_ = conn.WriteMessage(websocket.TextMessage, update("AB05"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	handler, events := collector()
	w := NewOrderWatcher("C123", stubSource{url: wsURL(server)}, NewEventPublisher(handler),
		WatcherOptions{KeepAlive: time.Minute})
	require.NoError(t, w.Start(context.Background()))

	assert.Equal(t, EventFeedConnected, nextEvent(t, events).Type)
	got := nextEvent(t, events)
	require.Equal(t, EventOrderUpdate, got.Type)
	assert.Equal(t, angelone.UpdateComplete, got.Update.OrderStatus)
	assert.Equal(t, int64(1), w.Stats().Errors.Load())
	assert.Equal(t, int64(1), w.Stats().Connects.Load())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestOrderWatcherReconnects(t *testing.T) {
	var conns atomic.Int64
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conns.Inc()
		_ = conn.WriteMessage(websocket.TextMessage, update("AB01"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})

	handler, events := collector()
	w := NewOrderWatcher("C123", stubSource{url: wsURL(server)}, NewEventPublisher(handler),
		WatcherOptions{KeepAlive: time.Minute, ReconnectDelay: 10 * time.Millisecond})
	require.NoError(t, w.Start(context.Background()))

	want := []EventType{
		EventFeedConnected, EventOrderUpdate, EventFeedClosed,
		EventFeedConnected, EventOrderUpdate, EventFeedClosed,
	}
	for _, typ := range want {
		assert.Equal(t, typ, nextEvent(t, events).Type)
	}
	require.NoError(t, w.Stop(context.Background()))
	assert.GreaterOrEqual(t, conns.Load(), int64(2))
	assert.GreaterOrEqual(t, w.Stats().Connects.Load(), int64(2))
}

func TestOrderWatcherSourceError(t *testing.T) {
	w := NewOrderWatcher("C123", stubSource{err: errors.New("no session")}, nil,
		WatcherOptions{ReconnectDelay: 5 * time.Millisecond})
	require.NoError(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool { return w.Stats().Errors.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "degraded", w.Health().Status)
	require.NoError(t, w.Stop(context.Background()))
}

func TestEventPublisherRunsEveryHandler(t *testing.T) {
	var calls atomic.Int64
	failing := HandlerFunc(func(context.Context, Event) error {
		calls.Inc()
		return errors.New("boom")
	})
	counting := HandlerFunc(func(context.Context, Event) error {
		calls.Inc()
		return nil
	})

	p := NewEventPublisher(failing)
	p.Register(counting)
	p.Register(LogHandler{})

	err := p.Publish(context.Background(), Event{Type: EventOrderUpdate, Update: &angelone.OrderStatus{OrderStatus: angelone.UpdateOpen}})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int64(2), calls.Load())
}
