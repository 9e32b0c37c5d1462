package angelone

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	loginOK = `{"status":true,"message":"SUCCESS","errorcode":"",
		"data":{"jwtToken":"jwt-1","refreshToken":"ref-1","feedToken":"feed-1"}}`
	profileOK = `{"status":true,"message":"SUCCESS","errorcode":"",
		"data":{"clientcode":"C123","name":"TEST USER","email":"","mobileno":"",
		"exchanges":["NSE","BSE"],"products":["MARGIN","MIS"],"lastlogintime":"","brokerid":"B2C"}}`
)

type route map[string]http.HandlerFunc

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// newBroker serves the login and profile endpoints plus routes, which may
// override them.
func newBroker(t *testing.T, routes route, opts ...Option) *SmartConnect {
	t.Helper()
	all := route{
		smartapi.Login.Path():       reply(loginOK),
		smartapi.UserProfile.Path(): reply(profileOK),
	}
	for path, h := range routes {
		all[path] = h
	}

	mux := http.NewServeMux()
	for path, h := range all {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := smartapi.DefaultConfig().WithAPIKey("key").WithBaseURL(srv.URL)
	sc, err := New(cfg, "C123", "1111", opts...)
	require.NoError(t, err)
	return sc
}

func login(t *testing.T, sc *SmartConnect) {
	t.Helper()
	_, err := sc.GenerateSession(context.Background(), "123456")
	require.NoError(t, err)
}

func TestNewRequiresClientCode(t *testing.T) {
	_, err := New(smartapi.DefaultConfig().WithAPIKey("key"), "", "1111")
	assert.Error(t, err)
}

func TestUnauthenticatedAccessors(t *testing.T) {
	sc := newBroker(t, nil)

	_, err := sc.CurrentFeedToken()
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	_, err = sc.CurrentRefreshToken()
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	_, err = sc.Session()
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	_, err = sc.User()
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	_, err = sc.OrderStatusFeed()
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	_, err = sc.Token(context.Background())
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	assert.False(t, sc.Client().HasToken())
}

func TestGenerateSession(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.Login.Path(): func(w http.ResponseWriter, r *http.Request) {
			var req SessionReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Error(err)
			}
			assert.Equal(t, SessionReq{ClientCode: "C123", Password: "1111", TOTP: "123456"}, req)
			assert.Empty(t, r.Header.Get("Authorization"))
			reply(loginOK)(w, r)
		},
		smartapi.UserProfile.Path(): func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
			assert.Equal(t, "ref-1", r.URL.Query().Get("refreshToken"))
			reply(profileOK)(w, r)
		},
	})

	s, err := sc.GenerateSession(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.JwtToken)

	feed, err := sc.CurrentFeedToken()
	require.NoError(t, err)
	assert.Equal(t, "feed-1", feed)
	assert.Equal(t, "jwt-1", sc.Client().BearerToken())

	user, err := sc.User()
	require.NoError(t, err)
	assert.Equal(t, "TEST USER", user.Name)
	assert.Equal(t, []string{"NSE", "BSE"}, user.Exchanges)

	osf, err := sc.OrderStatusFeed()
	require.NoError(t, err)
	assert.Equal(t, "feed-1", osf.FeedToken)
	mf, err := sc.MarketFeed()
	require.NoError(t, err)
	assert.Equal(t, "key", mf.APIKey)
}

func TestGenerateSessionLoginRejected(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.Login.Path(): reply(`{"status":false,"message":"Invalid totp","errorcode":"AB1050","data":null}`),
	})

	_, err := sc.GenerateSession(context.Background(), "000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
	code, ok := smartapi.FailedCode(err)
	assert.True(t, ok)
	assert.Equal(t, smartapi.ErrorCode("AB1050"), code)
	assert.False(t, sc.Client().HasToken())
}

func TestGenerateSessionProfileFailurePropagates(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.UserProfile.Path(): func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		},
	})

	_, err := sc.GenerateSession(context.Background(), "123456")
	require.Error(t, err)
	assert.True(t, smartapi.IsRateLimit(err))
	assert.False(t, errors.Is(err, smartapi.ErrSessionNotEstablished))
}

func TestTokenLeavesSessionAlone(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.Token.Path(): func(w http.ResponseWriter, r *http.Request) {
			var req TokenReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Error(err)
			}
			assert.Equal(t, "ref-1", req.RefreshToken)
			reply(`{"status":true,"message":"SUCCESS","errorcode":"",
				"data":{"jwtToken":"jwt-2","refreshToken":"ref-2","feedToken":"feed-2"}}`)(w, r)
		},
	})
	login(t, sc)

	fresh, err := sc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", fresh.JwtToken)
	assert.Equal(t, "jwt-1", sc.Client().BearerToken())

	_, err = sc.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", sc.Client().BearerToken())
	feed, err := sc.CurrentFeedToken()
	require.NoError(t, err)
	assert.Equal(t, "feed-2", feed)
}

func TestLogout(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"success", `{"status":true,"message":"SUCCESS","errorcode":"","data":""}`, false},
		{"inconsistent success", `{"status":false,"message":"Logout Successfully","errorcode":"","data":null}`, false},
		{"rejected", `{"status":false,"message":"Invalid Token","errorcode":"AG8001","data":null}`, true},
		{"near miss", `{"status":false,"message":"logout successfully","errorcode":"","data":null}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			sc := newBroker(t, route{smartapi.Logout.Path(): reply(tc.body)}, WithStore(store, 0))
			login(t, sc)

			err := sc.Logout(context.Background())
			_, sessErr := sc.Session()
			_, stored := store.Load(context.Background(), "C123")
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, smartapi.IsFailedRequest(err))
				assert.NoError(t, sessErr)
				assert.True(t, sc.Client().HasToken())
				assert.NoError(t, stored)
				return
			}
			require.NoError(t, err)
			assert.ErrorIs(t, sessErr, smartapi.ErrSessionNotEstablished)
			assert.False(t, sc.Client().HasToken())
			_, err = sc.User()
			assert.ErrorIs(t, err, smartapi.ErrSessionNotEstablished)
			assert.True(t, storage.IsNotFound(stored))
		})
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newBroker(t, nil, WithStore(store, 0))
	ok, err := first.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	login(t, first)

	second := newBroker(t, nil, WithStore(store, 0))
	ok, err = second.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jwt-1", second.Client().BearerToken())
	user, err := second.User()
	require.NoError(t, err)
	assert.Equal(t, "C123", user.ClientCode)
}

func TestRestoreRejectedSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &storage.SessionRecord{ClientCode: "C123", JwtToken: "old"}, 0))

	sc := newBroker(t, route{
		smartapi.UserProfile.Path(): reply(`{"status":false,"message":"Invalid Token","errorcode":"AG8001","data":null}`),
	}, WithStore(store, 0))

	ok, err := sc.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, sc.Client().HasToken())
	_, err = store.Load(ctx, "C123")
	assert.True(t, storage.IsNotFound(err))
}

func TestRestoreWithoutStore(t *testing.T) {
	ok, err := newBroker(t, nil).Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderStatusUsesOrderPath(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.IndividualOrderDetails("uid-1").Path(): func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			reply(`{"status":true,"message":"SUCCESS","errorcode":"",
				"data":{"orderid":"111","uniqueorderid":"uid-1","variety":"","ordertype":"LIMIT","status":"open"}}`)(w, r)
		},
	})
	login(t, sc)

	order, err := sc.OrderStatus(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "111", order.OrderID)
	assert.Equal(t, OrderVariety(""), order.Variety)
	assert.Equal(t, OrderLimit, order.OrderType)
}

func TestCollectionsTolerateEmptyData(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.NseIntraday.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"","data":""}`),
		smartapi.BseIntraday.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"",
			"data":[{"Exchange":"BSE","SymbolName":"RELIANCE","Multiplier":5}]}`),
		smartapi.OrderBook.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"","data":null}`),
	})
	login(t, sc)
	ctx := context.Background()

	nse, err := sc.NseIntradayScrips(ctx)
	require.NoError(t, err)
	assert.NotNil(t, nse)
	assert.Empty(t, nse)

	bse, err := sc.BseIntradayScrips(ctx)
	require.NoError(t, err)
	require.Len(t, bse, 1)
	assert.Equal(t, float64(5), bse[0].Multiplier)

	orders, err := sc.OrderBook(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSendOperations(t *testing.T) {
	sc := newBroker(t, route{
		smartapi.OrderPlace.Path(): func(w http.ResponseWriter, r *http.Request) {
			var req PlaceOrderReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Error(err)
			}
			assert.Equal(t, "SBIN-EQ", req.TradingSymbol)
			assert.Equal(t, "5", req.Quantity)
			reply(`{"status":true,"message":"SUCCESS","errorcode":"",
				"data":{"script":"SBIN-EQ","orderid":"2401","uniqueorderid":"u-2401"}}`)(w, r)
		},
		smartapi.CandleData.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"",
			"data":[["2024-01-02T09:15:00+05:30",612.1,614.0,611.5,613.2,120345]]}`),
		smartapi.GttCreate.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"","data":{"id":"7788"}}`),
		smartapi.ConvertPosition.Path(): reply(`{"status":true,"message":"SUCCESS","errorcode":"","data":null}`),
	})
	login(t, sc)
	ctx := context.Background()

	placed, err := sc.PlaceOrder(ctx, NewPlaceOrder("SBIN-EQ", "3045", Buy).WithQuantity(5))
	require.NoError(t, err)
	assert.Equal(t, "u-2401", placed.UniqueOrderID)

	req, err := NewCandleData(MarketDataNSE, "3045", OneDay, "2024-01-01 09:15", "2024-01-05 15:30")
	require.NoError(t, err)
	candles, err := sc.CandleData(ctx, req)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(120345), candles[0].Volume)

	ref, err := sc.CreateRule(ctx, NewCreateRule("SBIN-EQ", "3045"))
	require.NoError(t, err)
	assert.Equal(t, int64(7788), ref.ID.Int64())

	assert.NoError(t, sc.ConvertPosition(ctx, NewConvertPosition("SBIN-EQ", 1)))
}

func TestInstruments(t *testing.T) {
	master := httptest.NewServer(reply(`[{"token":"3045","symbol":"SBIN-EQ","name":"SBIN","expiry":"",
		"strike":"-1.000000","lotsize":"1","instrumenttype":"","exch_seg":"NSE","tick_size":"5.000000"}]`))
	t.Cleanup(master.Close)

	sc := newBroker(t, nil, WithInstrumentURL(master.URL))
	rows, err := sc.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SBIN-EQ", rows[0].Symbol)
	assert.Equal(t, "NSE", rows[0].ExchSeg)
}
