package angelone

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/pkg/stream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ========== 行情推送 ==========

// MarketFeed holds what the market feed handshake needs.
type MarketFeed struct {
	URL        string
	APIKey     string
	ClientCode string
	FeedToken  string
	JwtToken   string
}

// Request builds the handshake with the feed authentication headers.
func (f *MarketFeed) Request() *stream.Request {
	url := f.URL
	if url == "" {
		url = smartapi.WSURL
	}
	return stream.NewRequest(url).
		WithHeader("Authorization", "Bearer "+f.JwtToken).
		WithHeader("x-api-key", f.APIKey).
		WithHeader("x-client-code", f.ClientCode).
		WithHeader("x-feed-token", f.FeedToken)
}

// ConnectMarketFeed opens the market feed decoding frames as M. Tick decodes
// the binary frames the feed sends.
func ConnectMarketFeed[M any](ctx context.Context, f *MarketFeed) (*stream.Stream[M], error) {
	return stream.Connect[M](ctx, f.Request())
}

// SubscriptionAction subscribes or unsubscribes tokens.
type SubscriptionAction int

const (
	Unsubscribe SubscriptionAction = 0
	Subscribe   SubscriptionAction = 1
)

// SubscriptionMode is the depth of ticks requested.
type SubscriptionMode int

const (
	SubscriptionLTP       SubscriptionMode = 1
	SubscriptionQuote     SubscriptionMode = 2
	SubscriptionSnapQuote SubscriptionMode = 3
	SubscriptionDepth     SubscriptionMode = 4
)

func (m SubscriptionMode) valid() bool {
	return m >= SubscriptionLTP && m <= SubscriptionDepth
}

// SubscriptionExchange is the numeric exchange segment of the feed.
type SubscriptionExchange int

const (
	NseCM SubscriptionExchange = 1
	NseFO SubscriptionExchange = 2
	BseCM SubscriptionExchange = 3
	BseFO SubscriptionExchange = 4
	McxFO SubscriptionExchange = 5
	NcxFO SubscriptionExchange = 7
	CdeFO SubscriptionExchange = 13
)

func (e SubscriptionExchange) valid() bool {
	switch e {
	case NseCM, NseFO, BseCM, BseFO, McxFO, NcxFO, CdeFO:
		return true
	}
	return false
}

// SubscriptionTokens lists tokens of one exchange segment.
type SubscriptionTokens struct {
	ExchangeType SubscriptionExchange `json:"exchangeType"`
	Tokens       []string             `json:"tokens"`
}

type SubscriptionParams struct {
	Mode      SubscriptionMode     `json:"mode"`
	TokenList []SubscriptionTokens `json:"tokenList"`
}

// SubscriptionRequest is the control message of the market feed.
type SubscriptionRequest struct {
	CorrelationID string              `json:"correlationID"`
	Action        SubscriptionAction  `json:"action"`
	Params        *SubscriptionParams `json:"params"`
}

// NewSubscription starts a request; add tokens with AddTokens.
func NewSubscription(correlationID string, action SubscriptionAction, mode SubscriptionMode) *SubscriptionRequest {
	return &SubscriptionRequest{
		CorrelationID: correlationID,
		Action:        action,
		Params:        &SubscriptionParams{Mode: mode},
	}
}

// AddTokens appends tokens of one exchange segment.
func (r *SubscriptionRequest) AddTokens(exchange SubscriptionExchange, tokens ...string) *SubscriptionRequest {
	if r.Params == nil {
		r.Params = &SubscriptionParams{}
	}
	r.Params.TokenList = append(r.Params.TokenList, SubscriptionTokens{ExchangeType: exchange, Tokens: tokens})
	return r
}

// Validate checks the request before it is sent.
func (r *SubscriptionRequest) Validate() error {
	if r.Params == nil {
		return errors.WithStack(smartapi.ErrInvalidSubscriptionParams)
	}
	if !r.Params.Mode.valid() {
		return errors.Wrapf(smartapi.ErrInvalidSubscriptionMode, "mode %d", r.Params.Mode)
	}
	if len(r.Params.TokenList) == 0 {
		return errors.WithStack(smartapi.ErrInvalidSubscriptionToken)
	}
	for _, entry := range r.Params.TokenList {
		if !entry.ExchangeType.valid() {
			return errors.Wrapf(smartapi.ErrInvalidSubscriptionExchange, "exchange type %d", entry.ExchangeType)
		}
		if len(entry.Tokens) == 0 {
			return errors.WithStack(smartapi.ErrInvalidSubscriptionToken)
		}
		for _, token := range entry.Tokens {
			if token == "" {
				return errors.WithStack(smartapi.ErrInvalidSubscriptionToken)
			}
		}
		// depth is served for NSE cash only
		if r.Params.Mode == SubscriptionDepth && entry.ExchangeType != NseCM {
			return errors.Wrapf(smartapi.ErrInvalidSubscriptionExchange, "depth mode on exchange type %d", entry.ExchangeType)
		}
	}
	return nil
}

// SubscribeFeed validates req and sends it on s.
func SubscribeFeed[M any](s *stream.Stream[M], req *SubscriptionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.Subscribe(req)
}

// ========== 二进制行情包 ==========

const (
	tickLTPSize   = 51
	tickQuoteSize = 123
)

// Tick is a decoded market feed packet. Prices are in paise as sent; use
// Price to convert. Quote fields are zero for LTP packets.
type Tick struct {
	Mode          SubscriptionMode
	Exchange      SubscriptionExchange
	Token         string
	Sequence      int64
	ExchangeTime  int64
	LTP           int64
	LastTradedQty int64
	AvgPrice      int64
	Volume        int64
	TotalBuyQty   float64
	TotalSellQty  float64
	Open          int64
	High          int64
	Low           int64
	Close         int64
}

// UnmarshalBinary decodes the little-endian packet layout of the feed.
func (t *Tick) UnmarshalBinary(b []byte) error {
	if len(b) < tickLTPSize {
		return errors.Newf("tick packet too short: %d bytes", len(b))
	}
	le := binary.LittleEndian

	t.Mode = SubscriptionMode(b[0])
	t.Exchange = SubscriptionExchange(b[1])
	t.Token = cString(b[2:27])
	t.Sequence = int64(le.Uint64(b[27:35]))
	t.ExchangeTime = int64(le.Uint64(b[35:43]))
	t.LTP = int64(le.Uint64(b[43:51]))

	if t.Mode == SubscriptionLTP {
		return nil
	}
	if len(b) < tickQuoteSize {
		return errors.Newf("quote packet too short: %d bytes", len(b))
	}
	t.LastTradedQty = int64(le.Uint64(b[51:59]))
	t.AvgPrice = int64(le.Uint64(b[59:67]))
	t.Volume = int64(le.Uint64(b[67:75]))
	t.TotalBuyQty = math.Float64frombits(le.Uint64(b[75:83]))
	t.TotalSellQty = math.Float64frombits(le.Uint64(b[83:91]))
	t.Open = int64(le.Uint64(b[91:99]))
	t.High = int64(le.Uint64(b[99:107]))
	t.Low = int64(le.Uint64(b[107:115]))
	t.Close = int64(le.Uint64(b[115:123]))
	return nil
}

// Price converts a paise value to rupees.
func Price(paise int64) float64 {
	return float64(paise) / 100
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ========== 订单状态推送 ==========

// OrderStatusFeed holds what the order update handshake needs.
type OrderStatusFeed struct {
	URL        string
	ClientCode string
	FeedToken  string
	JwtToken   string
}

// Request builds the handshake with the order update headers.
func (f *OrderStatusFeed) Request() *stream.Request {
	url := f.URL
	if url == "" {
		url = smartapi.OrderStatusWSURL
	}
	return stream.NewRequest(url).
		WithHeader("Authorization", "Bearer "+f.JwtToken).
		WithHeader("x-client-code", f.ClientCode).
		WithHeader("x-feed-token", f.FeedToken)
}

// Connect opens the order update stream.
func (f *OrderStatusFeed) Connect(ctx context.Context) (*stream.Stream[OrderStatus], error) {
	return stream.Connect[OrderStatus](ctx, f.Request())
}

// OrderUpdateCode is the order-status field of an order update.
type OrderUpdateCode string

const (
	UpdateConnected      OrderUpdateCode = "AB00"
	UpdateOpen           OrderUpdateCode = "AB01"
	UpdateCancelled      OrderUpdateCode = "AB02"
	UpdateRejected       OrderUpdateCode = "AB03"
	UpdateModified       OrderUpdateCode = "AB04"
	UpdateComplete       OrderUpdateCode = "AB05"
	UpdateAMOReceived    OrderUpdateCode = "AB06"
	UpdateAMOCancelled   OrderUpdateCode = "AB07"
	UpdateAMOModified    OrderUpdateCode = "AB08"
	UpdateOpenPending    OrderUpdateCode = "AB09"
	UpdateTriggerPending OrderUpdateCode = "AB10"
	UpdateModifyPending  OrderUpdateCode = "AB11"
)

var orderUpdateDescriptions = map[OrderUpdateCode]string{
	UpdateConnected:      "after successful connection",
	UpdateOpen:           "open",
	UpdateCancelled:      "cancelled",
	UpdateRejected:       "rejected",
	UpdateModified:       "modified",
	UpdateComplete:       "complete",
	UpdateAMOReceived:    "after market order req received",
	UpdateAMOCancelled:   "cancelled after market order",
	UpdateAMOModified:    "modify after market order req received",
	UpdateOpenPending:    "open pending",
	UpdateTriggerPending: "trigger pending",
	UpdateModifyPending:  "modify pending",
}

func (c OrderUpdateCode) Description() string { return orderUpdateDescriptions[c] }

func (c OrderUpdateCode) IsUnknown() bool {
	_, ok := orderUpdateDescriptions[c]
	return c != "" && !ok
}

// OrderStatus is one message of the order update stream.
type OrderStatus struct {
	UserID       string          `json:"user-id"`
	StatusCode   string          `json:"status-code"`
	OrderStatus  OrderUpdateCode `json:"order-status"`
	ErrorMessage string          `json:"error-message"`
	OrderData    *OrderBook      `json:"orderData"`
}

// StatusOK reports a 200 status code.
func (s OrderStatus) StatusOK() bool {
	code, err := strconv.Atoi(s.StatusCode)
	return err == nil && code == 200
}
