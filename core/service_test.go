package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/riven-blade/smartconnect/config"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// RFC 6238 SHA1 seed "12345678901234567890" in base32.
const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

type brokerHits struct {
	logins   atomic.Int64
	profiles atomic.Int64
	logouts  atomic.Int64
}

func replyCounted(n *atomic.Int64, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n.Inc()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// newBroker serves login, profile and logout and returns a config pointing
// at it with the order feed disabled.
func newBroker(t *testing.T) (*config.Config, *brokerHits) {
	t.Helper()
	hits := &brokerHits{}
	mux := http.NewServeMux()
	mux.HandleFunc(smartapi.Login.Path(), replyCounted(&hits.logins, `{"status":true,"message":"SUCCESS","errorcode":"",
		"data":{"jwtToken":"jwt-1","refreshToken":"ref-1","feedToken":"feed-1"}}`))
	mux.HandleFunc(smartapi.UserProfile.Path(), replyCounted(&hits.profiles, `{"status":true,"message":"SUCCESS","errorcode":"",
		"data":{"clientcode":"C123","name":"TEST USER","exchanges":["NSE"],"products":["MIS"],"brokerid":"B2C"}}`))
	mux.HandleFunc(smartapi.Logout.Path(), replyCounted(&hits.logouts, `{"status":true,"message":"SUCCESS","errorcode":"","data":""}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.SmartAPI = smartapi.DefaultConfig().WithAPIKey("key").WithBaseURL(srv.URL)
	cfg.Credentials = &config.Credentials{ClientCode: "C123", PIN: "1111", TOTPSecret: testSecret}
	cfg.OrderStatus.Enabled = false
	return cfg, hits
}

type closeCountingStore struct {
	*storage.MemoryStore
	closes atomic.Int64
}

func (s *closeCountingStore) Close() error {
	s.closes.Inc()
	return s.MemoryStore.Close()
}

func newTestService(t *testing.T, cfg *config.Config, handlers ...EventHandler) (*Service, *closeCountingStore) {
	t.Helper()
	store := &closeCountingStore{MemoryStore: storage.NewMemoryStore()}
	s, err := newService(cfg, store, handlers...)
	require.NoError(t, err)
	return s, store
}

func TestServiceStartLogsInWithTOTP(t *testing.T) {
	cfg, hits := newBroker(t)
	s, store := newTestService(t, cfg)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))
	assert.Equal(t, int64(1), hits.logins.Load())
	assert.Equal(t, "healthy", s.Health().Status)

	rec, err := store.Load(ctx, "C123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", rec.JwtToken)

	require.NoError(t, s.Stop(ctx, false))
	assert.Zero(t, hits.logouts.Load())
	assert.Equal(t, int64(1), store.closes.Load())

	// the session survives a plain stop
	_, err = store.Load(ctx, "C123")
	assert.NoError(t, err)
}

func TestServiceStartRestoresStoredSession(t *testing.T) {
	cfg, hits := newBroker(t)
	s, store := newTestService(t, cfg)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &storage.SessionRecord{
		ClientCode: "C123", JwtToken: "jwt-stored", RefreshToken: "ref-stored", FeedToken: "feed-stored",
	}, time.Hour))

	require.NoError(t, s.Start(ctx))
	assert.Zero(t, hits.logins.Load())
	assert.Equal(t, int64(1), hits.profiles.Load())

	session, err := s.Conn().Session()
	require.NoError(t, err)
	assert.Equal(t, "jwt-stored", session.JwtToken)

	require.NoError(t, s.Stop(ctx, true))
	assert.Equal(t, int64(1), hits.logouts.Load())
	assert.Equal(t, int64(1), store.closes.Load())
	assert.Equal(t, "unhealthy", s.Health().Status)

	_, err = store.Load(ctx, "C123")
	assert.True(t, storage.IsNotFound(err))
}

func TestServiceStartWithoutSecretFails(t *testing.T) {
	cfg, hits := newBroker(t)
	cfg.Credentials.TOTPSecret = ""
	s, store := newTestService(t, cfg)
	ctx := context.Background()

	err := s.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no totp secret")
	assert.Zero(t, hits.logins.Load())

	// never started, so nothing to log out
	require.NoError(t, s.Stop(ctx, true))
	assert.Zero(t, hits.logouts.Load())
	assert.Equal(t, int64(1), store.closes.Load())
}

func TestServiceRunsOrderWatcher(t *testing.T) {
	cfg, hits := newBroker(t)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, update("AB00"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	cfg.OrderStatus.Enabled = true
	cfg.OrderStatus.URL = wsURL(server)
	cfg.OrderStatus.KeepAlive = time.Minute

	handler, events := collector()
	s, store := newTestService(t, cfg, handler)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, EventFeedConnected, nextEvent(t, events).Type)
	got := nextEvent(t, events)
	require.Equal(t, EventOrderUpdate, got.Type)
	assert.Equal(t, "C123", got.ClientCode)
	assert.Equal(t, "healthy", s.Health().Status)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx, true))
	assert.Equal(t, "unhealthy", s.Health().Status)
	assert.Equal(t, int64(1), hits.logouts.Load())
	assert.Equal(t, int64(1), store.closes.Load())
}

func TestNewServiceRejectsNilConfig(t *testing.T) {
	_, err := NewService(context.Background(), nil)
	assert.Error(t, err)
}
