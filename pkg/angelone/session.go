package angelone

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/riven-blade/smartconnect/pkg/otp"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/storage"
	"go.uber.org/zap"
)

// logoutSuccessMessage is reported by the logout endpoint together with
// status=false on some successful logouts.
const logoutSuccessMessage = "Logout Successfully"

// ========== 会话管理 ==========

// SmartConnect is a logged-in view of one client's account. It starts
// unauthenticated; GenerateSession or Restore move it to authenticated and
// Logout moves it back. Session changes are not meant to run concurrently
// with each other.
type SmartConnect struct {
	client     *smartapi.Client
	clientCode string
	pin        string

	instrumentURL string
	store         storage.SessionStore
	storeTTL      time.Duration

	mu      sync.RWMutex
	session *SessionRes
	user    *Profile
}

// Option customises a SmartConnect.
type Option func(*SmartConnect)

// WithStore persists sessions in store for ttl.
func WithStore(store storage.SessionStore, ttl time.Duration) Option {
	return func(sc *SmartConnect) {
		sc.store = store
		sc.storeTTL = ttl
	}
}

// WithInstrumentURL overrides where the instrument master is downloaded from.
func WithInstrumentURL(url string) Option {
	return func(sc *SmartConnect) {
		sc.instrumentURL = url
	}
}

// New creates an unauthenticated SmartConnect for clientCode.
func New(cfg *smartapi.Config, clientCode, pin string, opts ...Option) (*SmartConnect, error) {
	if clientCode == "" {
		return nil, errors.New("client code is required")
	}
	client, err := smartapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	sc := &SmartConnect{
		client:        client,
		clientCode:    clientCode,
		pin:           pin,
		instrumentURL: smartapi.InstrumentURL,
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Client returns the underlying request pipeline.
func (sc *SmartConnect) Client() *smartapi.Client {
	return sc.client
}

// ClientCode returns the account this instance logs into.
func (sc *SmartConnect) ClientCode() string {
	return sc.clientCode
}

// install sets the bearer token before the session becomes visible.
func (sc *SmartConnect) install(s *SessionRes) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client.SetToken(s.JwtToken)
	sc.session = s
}

func (sc *SmartConnect) clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.session = nil
	sc.user = nil
	sc.client.ClearToken()
}

// GenerateSession logs in with the current one-time password, then fetches
// and caches the profile.
func (sc *SmartConnect) GenerateSession(ctx context.Context, totp string) (*SessionRes, error) {
	ctx = logger.WithModule(ctx, "session")
	log := logger.Ctx(ctx)

	res, err := smartapi.SendData[SessionRes](ctx, sc.client, &SessionReq{
		ClientCode: sc.clientCode,
		Password:   sc.pin,
		TOTP:       totp,
	})
	if err != nil {
		log.Error("login failed", zap.String("clientCode", sc.clientCode), zap.Error(err))
		return nil, smartapi.WithClass(errors.Wrap(err, "login"), smartapi.ErrSessionNotEstablished)
	}
	sc.install(&res)
	log.Info("会话已建立", zap.String("clientCode", sc.clientCode))

	if _, err := sc.Profile(ctx); err != nil {
		return nil, err
	}
	sc.persist(ctx, &res)

	out := res
	return &out, nil
}

// GenerateSessionTOTP logs in with a code derived from a TOTP secret.
func (sc *SmartConnect) GenerateSessionTOTP(ctx context.Context, secret string) (*SessionRes, error) {
	code, err := otp.Now(secret)
	if err != nil {
		return nil, smartapi.WithClass(err, smartapi.ErrSessionNotEstablished)
	}
	return sc.GenerateSession(ctx, code)
}

// Token exchanges the refresh token for fresh tokens. The current session
// is left untouched.
func (sc *SmartConnect) Token(ctx context.Context) (*SessionRes, error) {
	refresh, err := sc.CurrentRefreshToken()
	if err != nil {
		return nil, err
	}
	res, err := smartapi.SendData[SessionRes](ctx, sc.client, &TokenReq{RefreshToken: refresh})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RefreshSession calls Token and installs the result.
func (sc *SmartConnect) RefreshSession(ctx context.Context) (*SessionRes, error) {
	res, err := sc.Token(ctx)
	if err != nil {
		return nil, err
	}
	session := *res
	sc.install(&session)
	sc.persist(ctx, &session)
	logger.Ctx(ctx).Info("会话已刷新", zap.String("clientCode", sc.clientCode))
	return res, nil
}

// Logout ends the session. The session and cached profile are cleared
// once the broker accepts the call.
func (sc *SmartConnect) Logout(ctx context.Context) error {
	log := logger.Ctx(ctx)

	_, err := smartapi.Send[struct{}](ctx, sc.client, &LogoutReq{ClientCode: sc.clientCode})
	if err != nil {
		msg, ok := smartapi.FailedMessage(err)
		if !ok || msg != logoutSuccessMessage {
			return err
		}
		log.Debug("logout reported as failed request, treating as success")
	}

	sc.clear()
	if sc.store != nil {
		if err := sc.store.Delete(ctx, sc.clientCode); err != nil {
			log.Warn("failed to delete stored session", zap.Error(err))
		}
	}
	log.Info("已登出", zap.String("clientCode", sc.clientCode))
	return nil
}

// Restore installs a session saved by an earlier login. It reports false
// when nothing usable is stored.
func (sc *SmartConnect) Restore(ctx context.Context) (bool, error) {
	if sc.store == nil {
		return false, nil
	}
	log := logger.Ctx(ctx)

	rec, err := sc.store.Load(ctx, sc.clientCode)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	sc.install(&SessionRes{
		JwtToken:     rec.JwtToken,
		RefreshToken: rec.RefreshToken,
		FeedToken:    rec.FeedToken,
	})
	if _, err := sc.Profile(ctx); err != nil {
		sc.clear()
		if smartapi.IsFailedRequest(err) {
			log.Info("stored session rejected", zap.Error(err))
			_ = sc.store.Delete(ctx, sc.clientCode)
			return false, nil
		}
		return false, err
	}
	log.Info("会话已恢复", zap.String("clientCode", sc.clientCode), zap.Time("createdAt", rec.CreatedAt))
	return true, nil
}

func (sc *SmartConnect) persist(ctx context.Context, s *SessionRes) {
	if sc.store == nil {
		return
	}
	err := sc.store.Save(ctx, &storage.SessionRecord{
		ClientCode:   sc.clientCode,
		JwtToken:     s.JwtToken,
		RefreshToken: s.RefreshToken,
		FeedToken:    s.FeedToken,
		CreatedAt:    time.Now(),
	}, sc.storeTTL)
	if err != nil {
		logger.Ctx(ctx).Warn("failed to persist session", zap.Error(err))
	}
}

// ========== 会话访问 ==========

// Session returns a copy of the active session.
func (sc *SmartConnect) Session() (*SessionRes, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.session == nil {
		return nil, errors.WithStack(smartapi.ErrSessionNotEstablished)
	}
	s := *sc.session
	return &s, nil
}

// CurrentFeedToken returns the feed token of the active session.
func (sc *SmartConnect) CurrentFeedToken() (string, error) {
	s, err := sc.Session()
	if err != nil {
		return "", err
	}
	return s.FeedToken, nil
}

// CurrentRefreshToken returns the refresh token of the active session.
func (sc *SmartConnect) CurrentRefreshToken() (string, error) {
	s, err := sc.Session()
	if err != nil {
		return "", err
	}
	return s.RefreshToken, nil
}

// User returns the cached profile.
func (sc *SmartConnect) User() (*Profile, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.session == nil || sc.user == nil {
		return nil, errors.WithStack(smartapi.ErrSessionNotEstablished)
	}
	u := *sc.user
	return &u, nil
}

// Profile fetches the profile and refreshes the cached copy.
func (sc *SmartConnect) Profile(ctx context.Context) (*Profile, error) {
	refresh, err := sc.CurrentRefreshToken()
	if err != nil {
		return nil, err
	}
	profile, err := smartapi.FetchData[Profile](ctx, sc.client, map[string]string{"refreshToken": refresh})
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	if sc.session != nil {
		u := profile
		sc.user = &u
	}
	sc.mu.Unlock()
	return &profile, nil
}

// OrderStatusFeed describes the order update stream of the active session.
func (sc *SmartConnect) OrderStatusFeed() (*OrderStatusFeed, error) {
	s, err := sc.Session()
	if err != nil {
		return nil, err
	}
	return &OrderStatusFeed{
		ClientCode: sc.clientCode,
		FeedToken:  s.FeedToken,
		JwtToken:   s.JwtToken,
	}, nil
}

// MarketFeed describes the market feed of the active session.
func (sc *SmartConnect) MarketFeed() (*MarketFeed, error) {
	s, err := sc.Session()
	if err != nil {
		return nil, err
	}
	return &MarketFeed{
		APIKey:     sc.client.Config().APIKey,
		ClientCode: sc.clientCode,
		FeedToken:  s.FeedToken,
		JwtToken:   s.JwtToken,
	}, nil
}

// Instruments downloads the instrument master.
func (sc *SmartConnect) Instruments(ctx context.Context) ([]Instrument, error) {
	return smartapi.GetJSON[[]Instrument](ctx, sc.client, sc.instrumentURL)
}

// ========== 账户与订单 ==========

func (sc *SmartConnect) RmsLimit(ctx context.Context) (*Rms, error) {
	return ptr(smartapi.FetchData[Rms](ctx, sc.client, nil))
}

func (sc *SmartConnect) PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error) {
	return ptr(smartapi.SendData[PlaceOrderRes](ctx, sc.client, req))
}

func (sc *SmartConnect) ModifyOrder(ctx context.Context, req *ModifyOrderReq) (*OrderRef, error) {
	return ptr(smartapi.SendData[OrderRef](ctx, sc.client, req))
}

func (sc *SmartConnect) CancelOrder(ctx context.Context, req *CancelOrderReq) (*OrderRef, error) {
	return ptr(smartapi.SendData[OrderRef](ctx, sc.client, req))
}

func (sc *SmartConnect) OrderBook(ctx context.Context) ([]OrderBook, error) {
	return smartapi.FetchCollection[OrderBook](ctx, sc.client, nil)
}

// OrderStatus looks up one order by its unique order id.
func (sc *SmartConnect) OrderStatus(ctx context.Context, uniqueOrderID string) (*OrderBook, error) {
	env, err := smartapi.Do[OrderBook](ctx, sc.client, http.MethodGet, smartapi.IndividualOrderDetails(uniqueOrderID), nil)
	if err != nil {
		return nil, err
	}
	return ptr(env.IntoData())
}

func (sc *SmartConnect) TradeBook(ctx context.Context) ([]TradeBook, error) {
	return smartapi.FetchCollection[TradeBook](ctx, sc.client, nil)
}

// ========== 行情 ==========

func (sc *SmartConnect) LtpData(ctx context.Context, req *LtpDataReq) (*LtpDataRes, error) {
	return ptr(smartapi.SendData[LtpDataRes](ctx, sc.client, req))
}

func (sc *SmartConnect) MarketData(ctx context.Context, req *MarketDataReq) (*MarketDataRes, error) {
	return ptr(smartapi.SendData[MarketDataRes](ctx, sc.client, req))
}

// CandleData returns the candles of a range, oldest first.
func (sc *SmartConnect) CandleData(ctx context.Context, req *CandleDataReq) ([]Candle, error) {
	return smartapi.SendCollection[Candle](ctx, sc.client, req)
}

func (sc *SmartConnect) SearchScrip(ctx context.Context, req *SearchScripReq) ([]Scrip, error) {
	return smartapi.SendCollection[Scrip](ctx, sc.client, req)
}

func (sc *SmartConnect) NseIntradayScrips(ctx context.Context) ([]IntradayScrip, error) {
	return smartapi.FetchCollection[IntradayScrip](ctx, sc.client, nil)
}

func (sc *SmartConnect) BseIntradayScrips(ctx context.Context) ([]BseIntradayScrip, error) {
	return smartapi.FetchCollection[BseIntradayScrip](ctx, sc.client, nil)
}

func (sc *SmartConnect) CalculateMargin(ctx context.Context, req *MarginCalculatorReq) (*MarginCalculatorRes, error) {
	return ptr(smartapi.SendData[MarginCalculatorRes](ctx, sc.client, req))
}

func (sc *SmartConnect) Brokerage(ctx context.Context, req *BrokerageReq) (*BrokerageRes, error) {
	return ptr(smartapi.SendData[BrokerageRes](ctx, sc.client, req))
}

// ========== 持仓 ==========

func (sc *SmartConnect) Holdings(ctx context.Context) ([]Holding, error) {
	return smartapi.FetchCollection[Holding](ctx, sc.client, nil)
}

func (sc *SmartConnect) AllHoldings(ctx context.Context) (*AllHoldings, error) {
	return ptr(smartapi.FetchData[AllHoldings](ctx, sc.client, nil))
}

func (sc *SmartConnect) Positions(ctx context.Context) ([]Position, error) {
	return smartapi.FetchCollection[Position](ctx, sc.client, nil)
}

// ConvertPosition changes the product type of a position.
func (sc *SmartConnect) ConvertPosition(ctx context.Context, req *ConvertPositionReq) error {
	_, err := smartapi.Send[struct{}](ctx, sc.client, req)
	return err
}

// ========== GTT ==========

func (sc *SmartConnect) CreateRule(ctx context.Context, req *CreateRuleReq) (*RuleRef, error) {
	return ptr(smartapi.SendData[RuleRef](ctx, sc.client, req))
}

func (sc *SmartConnect) ModifyRule(ctx context.Context, req *ModifyRuleReq) (*RuleRef, error) {
	return ptr(smartapi.SendData[RuleRef](ctx, sc.client, req))
}

func (sc *SmartConnect) CancelRule(ctx context.Context, req *CancelRuleReq) (*RuleRef, error) {
	return ptr(smartapi.SendData[RuleRef](ctx, sc.client, req))
}

func (sc *SmartConnect) RuleDetail(ctx context.Context, id string) (*Rule, error) {
	return ptr(smartapi.SendData[Rule](ctx, sc.client, &RuleDetailReq{ID: id}))
}

func (sc *SmartConnect) RuleList(ctx context.Context, req *RuleListReq) ([]Rule, error) {
	return smartapi.SendCollection[Rule](ctx, sc.client, req)
}

func ptr[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}
