package angelone

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/spf13/cast"
)

// ========== 行情 ==========

// LtpDataReq asks for the last traded price of one instrument.
type LtpDataReq struct {
	Exchange      Exchange `json:"exchange"`
	TradingSymbol string   `json:"tradingsymbol"`
	SymbolToken   string   `json:"symboltoken"`
}

func (LtpDataReq) Endpoint() smartapi.Endpoint { return smartapi.LtpData }

// LtpDataRes is the day's OHLC and last price.
type LtpDataRes struct {
	Exchange      Exchange `json:"exchange"`
	TradingSymbol string   `json:"tradingsymbol"`
	SymbolToken   string   `json:"symboltoken"`
	Open          float64  `json:"open"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	Close         float64  `json:"close"`
	LTP           float64  `json:"ltp"`
}

// MarketDataReq asks for quotes of several instruments at once.
type MarketDataReq struct {
	Mode           MarketMode            `json:"mode"`
	ExchangeTokens map[Exchange][]string `json:"exchangeTokens"`
}

func (MarketDataReq) Endpoint() smartapi.Endpoint { return smartapi.MarketData }

// NewMarketData starts an empty request in mode.
func NewMarketData(mode MarketMode) *MarketDataReq {
	return &MarketDataReq{Mode: mode, ExchangeTokens: make(map[Exchange][]string)}
}

// Add appends symbol tokens of an exchange.
func (r *MarketDataReq) Add(exchange Exchange, tokens ...string) *MarketDataReq {
	r.ExchangeTokens[exchange] = append(r.ExchangeTokens[exchange], tokens...)
	return r
}

// MarketDataRes splits instruments into fetched and unfetched.
type MarketDataRes struct {
	Fetched   []Quote          `json:"fetched"`
	Unfetched []UnfetchedQuote `json:"unfetched"`
}

// Quote is one fetched instrument. Fields beyond LTP depend on the mode.
type Quote struct {
	Exchange      Exchange `json:"exchange"`
	TradingSymbol string   `json:"tradingSymbol"`
	SymbolToken   string   `json:"symbolToken"`
	LTP           float64  `json:"ltp"`
	Open          float64  `json:"open"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	Close         float64  `json:"close"`
	LastTradeQty  int64    `json:"lastTradeQty"`
	ExchFeedTime  string   `json:"exchFeedTime"`
	ExchTradeTime string   `json:"exchTradeTime"`
	NetChange     float64  `json:"netChange"`
	PercentChange float64  `json:"percentChange"`
	AvgPrice      float64  `json:"avgPrice"`
	TradeVolume   int64    `json:"tradeVolume"`
	OpenInterest  int64    `json:"opnInterest"`
	LowerCircuit  float64  `json:"lowerCircuit"`
	UpperCircuit  float64  `json:"upperCircuit"`
	TotBuyQuan    int64    `json:"totBuyQuan"`
	TotSellQuan   int64    `json:"totSellQuan"`
	WeekLow52     float64  `json:"52WeekLow"`
	WeekHigh52    float64  `json:"52WeekHigh"`
	Depth         *Depth   `json:"depth,omitempty"`
}

// Depth is the best five bids and asks.
type Depth struct {
	Buy  []DepthLevel `json:"buy"`
	Sell []DepthLevel `json:"sell"`
}

type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// UnfetchedQuote is an instrument the broker could not quote.
type UnfetchedQuote struct {
	Exchange    Exchange           `json:"exchange"`
	SymbolToken string             `json:"symbolToken"`
	Message     string             `json:"message"`
	ErrorCode   smartapi.ErrorCode `json:"errorCode"`
}

// ========== 历史K线 ==========

// CandleTimeLayout is the date format of candle requests.
const CandleTimeLayout = "2006-01-02 15:04"

// CandleDataReq asks for historical candles.
type CandleDataReq struct {
	Exchange    MarketDataExchange `json:"exchange"`
	SymbolToken string             `json:"symboltoken"`
	Interval    Interval           `json:"interval"`
	FromDate    string             `json:"fromdate"`
	ToDate      string             `json:"todate"`
}

func (CandleDataReq) Endpoint() smartapi.Endpoint { return smartapi.CandleData }

// NewCandleData validates the range against the interval limit.
func NewCandleData(exchange MarketDataExchange, symbolToken string, interval Interval, from, to string) (*CandleDataReq, error) {
	maxDays, ok := maxCandleDays[interval]
	if !ok {
		return nil, errors.Newf("unsupported interval %q", interval)
	}
	start, err := time.Parse(CandleTimeLayout, from)
	if err != nil {
		return nil, errors.Wrap(err, "from date")
	}
	end, err := time.Parse(CandleTimeLayout, to)
	if err != nil {
		return nil, errors.Wrap(err, "to date")
	}
	if end.Before(start) {
		return nil, errors.Newf("from date %s is after to date %s", from, to)
	}
	if end.Sub(start) > time.Duration(maxDays)*24*time.Hour {
		return nil, errors.Newf("interval %s allows at most %d days", interval, maxDays)
	}
	return &CandleDataReq{
		Exchange:    exchange,
		SymbolToken: symbolToken,
		Interval:    interval,
		FromDate:    from,
		ToDate:      to,
	}, nil
}

// Candle is one OHLCV bar. On the wire it is
// [timestamp, open, high, low, close, volume].
type Candle struct {
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

func (c *Candle) UnmarshalJSON(b []byte) error {
	var row []interface{}
	if err := json.Unmarshal(b, &row); err != nil {
		return err
	}
	if len(row) < 6 {
		return errors.Newf("candle has %d fields, want 6", len(row))
	}

	var err error
	if c.Time, err = cast.ToStringE(row[0]); err != nil {
		return errors.Wrap(err, "candle time")
	}
	for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close} {
		if *dst, err = cast.ToFloat64E(row[i+1]); err != nil {
			return errors.Wrapf(err, "candle field %d", i+1)
		}
	}
	if c.Volume, err = cast.ToInt64E(row[5]); err != nil {
		return errors.Wrap(err, "candle volume")
	}
	return nil
}

func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Time, c.Open, c.High, c.Low, c.Close, c.Volume})
}

// ========== 合约查询 ==========

// SearchScripReq searches instruments by name.
type SearchScripReq struct {
	Exchange    Exchange `json:"exchange"`
	SearchScrip string   `json:"searchscrip"`
}

func (SearchScripReq) Endpoint() smartapi.Endpoint { return smartapi.SearchScrip }

// Scrip is one search hit.
type Scrip struct {
	Exchange      Exchange `json:"exchange"`
	TradingSymbol string   `json:"tradingsymbol"`
	SymbolToken   string   `json:"symboltoken"`
}

// IntradayScrip is an instrument allowed for intraday trading on NSE.
type IntradayScrip struct {
	Exchange   Exchange `json:"Exchange"`
	SymbolName string   `json:"SymbolName"`
	Multiplier float64  `json:"Multiplier"`
}

func (IntradayScrip) Endpoint() smartapi.Endpoint { return smartapi.NseIntraday }

// BseIntradayScrip is the BSE counterpart of IntradayScrip.
type BseIntradayScrip IntradayScrip

func (BseIntradayScrip) Endpoint() smartapi.Endpoint { return smartapi.BseIntraday }

// Instrument is one row of the instrument master.
type Instrument struct {
	Token          string `json:"token"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Expiry         string `json:"expiry"`
	Strike         string `json:"strike"`
	LotSize        string `json:"lotsize"`
	InstrumentType string `json:"instrumenttype"`
	ExchSeg        string `json:"exch_seg"`
	TickSize       string `json:"tick_size"`
}

// ========== 费用估算 ==========

// BrokerageReq estimates charges for one or more orders.
type BrokerageReq struct {
	Orders []BrokerageOrder `json:"orders"`
}

func (BrokerageReq) Endpoint() smartapi.Endpoint { return smartapi.Brokerage }

type BrokerageOrder struct {
	ProductType     ProductType     `json:"product_type"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        int             `json:"quantity"`
	Price           float64         `json:"price"`
	Exchange        Exchange        `json:"exchange"`
	SymbolName      string          `json:"symbol_name"`
	Token           string          `json:"token"`
}

// BrokerageRes is the charge summary and the per-order charges.
type BrokerageRes struct {
	Summary BrokerageSummary   `json:"summary"`
	Charges []BrokerageSummary `json:"charges"`
}

type BrokerageSummary struct {
	TotalCharges float64           `json:"total_charges"`
	TradeValue   float64           `json:"trade_value"`
	Breakup      []BrokerageCharge `json:"breakup"`
}

type BrokerageCharge struct {
	Name    string            `json:"name"`
	Amount  float64           `json:"amount"`
	Msg     string            `json:"msg"`
	Breakup []BrokerageCharge `json:"breakup"`
}
