package angelone

import (
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/spf13/cast"
)

// ========== 下单 ==========

// PlaceOrderReq places a new order. Numeric fields travel as strings.
type PlaceOrderReq struct {
	Variety         OrderVariety    `json:"variety"`
	TradingSymbol   string          `json:"tradingsymbol"`
	SymbolToken     string          `json:"symboltoken"`
	TransactionType TransactionType `json:"transactiontype"`
	Exchange        Exchange        `json:"exchange"`
	OrderType       OrderType       `json:"ordertype"`
	ProductType     ProductType     `json:"producttype"`
	Duration        DurationType    `json:"duration"`
	Price           string          `json:"price"`
	SquareOff       string          `json:"squareoff"`
	StopLoss        string          `json:"stoploss"`
	Quantity        string          `json:"quantity"`
	TriggerPrice    string          `json:"triggerprice,omitempty"`
	OrderTag        string          `json:"ordertag,omitempty"`
}

func (PlaceOrderReq) Endpoint() smartapi.Endpoint { return smartapi.OrderPlace }

// NewPlaceOrder returns a normal NSE delivery market order for one unit.
func NewPlaceOrder(tradingSymbol, symbolToken string, side TransactionType) *PlaceOrderReq {
	return &PlaceOrderReq{
		Variety:         VarietyNormal,
		TradingSymbol:   tradingSymbol,
		SymbolToken:     symbolToken,
		TransactionType: side,
		Exchange:        NSE,
		OrderType:       OrderMarket,
		ProductType:     ProductDelivery,
		Duration:        DurationDay,
		Price:           "0",
		SquareOff:       "0",
		StopLoss:        "0",
		Quantity:        "1",
	}
}

func (r *PlaceOrderReq) WithVariety(v OrderVariety) *PlaceOrderReq { r.Variety = v; return r }
func (r *PlaceOrderReq) WithExchange(e Exchange) *PlaceOrderReq { r.Exchange = e; return r }
func (r *PlaceOrderReq) WithOrderType(t OrderType) *PlaceOrderReq { r.OrderType = t; return r }
func (r *PlaceOrderReq) WithProduct(p ProductType) *PlaceOrderReq { r.ProductType = p; return r }
func (r *PlaceOrderReq) WithDuration(d DurationType) *PlaceOrderReq { r.Duration = d; return r }
func (r *PlaceOrderReq) WithTag(tag string) *PlaceOrderReq { r.OrderTag = tag; return r }
func (r *PlaceOrderReq) WithPrice(p interface{}) *PlaceOrderReq { r.Price = cast.ToString(p); return r }
func (r *PlaceOrderReq) WithQuantity(q interface{}) *PlaceOrderReq { r.Quantity = cast.ToString(q); return r }
func (r *PlaceOrderReq) WithTrigger(p interface{}) *PlaceOrderReq { r.TriggerPrice = cast.ToString(p); return r }
func (r *PlaceOrderReq) WithSquareOff(p interface{}) *PlaceOrderReq { r.SquareOff = cast.ToString(p); return r }
func (r *PlaceOrderReq) WithStopLoss(p interface{}) *PlaceOrderReq { r.StopLoss = cast.ToString(p); return r }

// PlaceOrderRes identifies a placed order.
type PlaceOrderRes struct {
	Script        string `json:"script"`
	OrderID       string `json:"orderid"`
	UniqueOrderID string `json:"uniqueorderid"`
}

// ModifyOrderReq changes an open order.
type ModifyOrderReq struct {
	Variety       OrderVariety `json:"variety"`
	OrderID       string       `json:"orderid"`
	OrderType     OrderType    `json:"ordertype"`
	ProductType   ProductType  `json:"producttype"`
	Duration      DurationType `json:"duration"`
	Price         string       `json:"price"`
	Quantity      string       `json:"quantity"`
	TradingSymbol string       `json:"tradingsymbol"`
	SymbolToken   string       `json:"symboltoken"`
	Exchange      Exchange     `json:"exchange"`
}

func (ModifyOrderReq) Endpoint() smartapi.Endpoint { return smartapi.OrderModify }

// NewModifyOrder starts from a normal NSE delivery limit order.
func NewModifyOrder(tradingSymbol, symbolToken string, orderID interface{}) *ModifyOrderReq {
	return &ModifyOrderReq{
		Variety:       VarietyNormal,
		OrderID:       cast.ToString(orderID),
		OrderType:     OrderLimit,
		ProductType:   ProductDelivery,
		Duration:      DurationDay,
		Price:         "0",
		Quantity:      "1",
		TradingSymbol: tradingSymbol,
		SymbolToken:   symbolToken,
		Exchange:      NSE,
	}
}

func (r *ModifyOrderReq) WithPrice(p interface{}) *ModifyOrderReq { r.Price = cast.ToString(p); return r }
func (r *ModifyOrderReq) WithQuantity(q interface{}) *ModifyOrderReq { r.Quantity = cast.ToString(q); return r }
func (r *ModifyOrderReq) WithOrderType(t OrderType) *ModifyOrderReq { r.OrderType = t; return r }

// CancelOrderReq cancels an open order.
type CancelOrderReq struct {
	Variety OrderVariety `json:"variety"`
	OrderID string       `json:"orderid"`
}

func (CancelOrderReq) Endpoint() smartapi.Endpoint { return smartapi.OrderCancel }

// NewCancelOrder cancels orderID of the given variety.
func NewCancelOrder(variety OrderVariety, orderID interface{}) *CancelOrderReq {
	return &CancelOrderReq{Variety: variety, OrderID: cast.ToString(orderID)}
}

// OrderRef is the response of modify and cancel.
type OrderRef struct {
	OrderID       string `json:"orderid"`
	UniqueOrderID string `json:"uniqueorderid"`
}

// ========== 订单簿 ==========

// OrderBook is one order row. Enum fields the broker leaves empty decode to
// their zero value.
type OrderBook struct {
	Variety             OrderVariety    `json:"variety"`
	OrderType           OrderType       `json:"ordertype"`
	ProductType         ProductType     `json:"producttype"`
	Duration            DurationType    `json:"duration"`
	Price               float64         `json:"price"`
	TriggerPrice        float64         `json:"triggerprice"`
	Quantity            string          `json:"quantity"`
	DisclosedQuantity   string          `json:"disclosedquantity"`
	SquareOff           float64         `json:"squareoff"`
	StopLoss            float64         `json:"stoploss"`
	TrailingStopLoss    float64         `json:"trailingstoploss"`
	TradingSymbol       string          `json:"tradingsymbol"`
	TransactionType     TransactionType `json:"transactiontype"`
	Exchange            Exchange        `json:"exchange"`
	SymbolToken         string          `json:"symboltoken"`
	OrderTag            string          `json:"ordertag"`
	InstrumentType      string          `json:"instrumenttype"`
	StrikePrice         float64         `json:"strikeprice"`
	OptionType          string          `json:"optiontype"`
	ExpiryDate          string          `json:"expirydate"`
	LotSize             string          `json:"lotsize"`
	CancelSize          string          `json:"cancelsize"`
	AveragePrice        float64         `json:"averageprice"`
	FilledShares        string          `json:"filledshares"`
	UnfilledShares      string          `json:"unfilledshares"`
	OrderID             string          `json:"orderid"`
	UniqueOrderID       string          `json:"uniqueorderid,omitempty"`
	Text                string          `json:"text"`
	Status              string          `json:"status"`
	OrderStatus         string          `json:"orderstatus"`
	UpdateTime          string          `json:"updatetime"`
	ExchTime            string          `json:"exchtime"`
	ExchOrderUpdateTime string          `json:"exchorderupdatetime"`
	FillID              string          `json:"fillid"`
	FillTime            string          `json:"filltime"`
	ParentOrderID       string          `json:"parentorderid"`
}

func (OrderBook) Endpoint() smartapi.Endpoint { return smartapi.OrderBook }

// TradeBook is one executed fill.
type TradeBook struct {
	Exchange        Exchange        `json:"exchange"`
	ProductType     ProductType     `json:"producttype"`
	TradingSymbol   string          `json:"tradingsymbol"`
	InstrumentType  string          `json:"instrumenttype"`
	SymbolGroup     string          `json:"symbolgroup"`
	StrikePrice     string          `json:"strikeprice"`
	OptionType      string          `json:"optiontype"`
	ExpiryDate      string          `json:"expirydate"`
	MarketLot       string          `json:"marketlot"`
	Precision       string          `json:"precision"`
	Multiplier      string          `json:"multiplier"`
	TradeValue      string          `json:"tradevalue"`
	TransactionType TransactionType `json:"transactiontype"`
	FillPrice       string          `json:"fillprice"`
	FillSize        string          `json:"fillsize"`
	OrderID         string          `json:"orderid"`
	FillID          string          `json:"fillid"`
	FillTime        string          `json:"filltime"`
}

func (TradeBook) Endpoint() smartapi.Endpoint { return smartapi.TradeBook }
