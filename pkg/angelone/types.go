package angelone

import (
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// ========== 枚举类型 ==========
//
// Enumerations are string types: a value outside the known set decodes
// unchanged and reports IsUnknown, and the empty string is the zero value.

// Exchange is a trading segment.
type Exchange string

const (
	BSE   Exchange = "BSE"
	NSE   Exchange = "NSE"
	NFO   Exchange = "NFO"
	MCX   Exchange = "MCX"
	BFO   Exchange = "BFO"
	CDS   Exchange = "CDS"
	NCDEX Exchange = "NCDEX"
	NCO   Exchange = "NCO"
)

func (e Exchange) IsUnknown() bool {
	return unknown(e, BSE, NSE, NFO, MCX, BFO, CDS, NCDEX, NCO)
}

// MarketDataExchange is the subset accepted by historical candle requests.
type MarketDataExchange string

const (
	MarketDataNSE MarketDataExchange = "NSE"
	MarketDataNFO MarketDataExchange = "NFO"
)

func (e MarketDataExchange) IsUnknown() bool {
	return unknown(e, MarketDataNSE, MarketDataNFO)
}

// ProductType is the margin product of an order.
type ProductType string

const (
	ProductDelivery     ProductType = "DELIVERY"     // CNC
	ProductCarryForward ProductType = "CARRYFORWARD" // NRML
	ProductMargin       ProductType = "MARGIN"
	ProductIntraday     ProductType = "INTRADAY" // MIS
	ProductBracket      ProductType = "BO"
)

func (p ProductType) IsUnknown() bool {
	return unknown(p, ProductDelivery, ProductCarryForward, ProductMargin, ProductIntraday, ProductBracket)
}

// OrderType is the pricing type of an order.
type OrderType string

const (
	OrderMarket         OrderType = "MARKET"
	OrderLimit          OrderType = "LIMIT"
	OrderStopLossLimit  OrderType = "STOPLOSS_LIMIT"
	OrderStopLossMarket OrderType = "STOPLOSS_MARKET"
)

func (o OrderType) IsUnknown() bool {
	return unknown(o, OrderMarket, OrderLimit, OrderStopLossLimit, OrderStopLossMarket)
}

// OrderVariety is the order category.
type OrderVariety string

const (
	VarietyNormal   OrderVariety = "NORMAL"
	VarietyStopLoss OrderVariety = "STOPLOSS"
	VarietyAMO      OrderVariety = "AMO"
	VarietyRobo     OrderVariety = "ROBO"
)

func (v OrderVariety) IsUnknown() bool {
	return unknown(v, VarietyNormal, VarietyStopLoss, VarietyAMO, VarietyRobo)
}

// DurationType is the order validity.
type DurationType string

const (
	DurationDay DurationType = "DAY"
	DurationIOC DurationType = "IOC"
)

func (d DurationType) IsUnknown() bool {
	return unknown(d, DurationDay, DurationIOC)
}

// TransactionType is the order side.
type TransactionType string

const (
	Buy  TransactionType = "BUY"
	Sell TransactionType = "SELL"
)

func (t TransactionType) IsUnknown() bool {
	return unknown(t, Buy, Sell)
}

// Interval is a candle width.
type Interval string

const (
	OneMinute     Interval = "ONE_MINUTE"
	ThreeMinute   Interval = "THREE_MINUTE"
	FiveMinute    Interval = "FIVE_MINUTE"
	TenMinute     Interval = "TEN_MINUTE"
	FifteenMinute Interval = "FIFTEEN_MINUTE"
	ThirtyMinute  Interval = "THIRTY_MINUTE"
	OneHour       Interval = "ONE_HOUR"
	OneDay        Interval = "ONE_DAY"
)

// maxCandleDays is the widest date range the broker serves per interval.
var maxCandleDays = map[Interval]int{
	OneMinute:     30,
	ThreeMinute:   60,
	FiveMinute:    100,
	TenMinute:     100,
	FifteenMinute: 200,
	ThirtyMinute:  200,
	OneHour:       400,
	OneDay:        2000,
}

func (i Interval) IsUnknown() bool {
	_, ok := maxCandleDays[i]
	return i != "" && !ok
}

// MarketMode selects the quote depth of a market data request.
type MarketMode string

const (
	ModeLTP  MarketMode = "LTP"
	ModeOHLC MarketMode = "OHLC"
	ModeFull MarketMode = "FULL"
)

func (m MarketMode) IsUnknown() bool {
	return unknown(m, ModeLTP, ModeOHLC, ModeFull)
}

// RuleStatus filters GTT rule listings.
type RuleStatus string

const (
	RuleNew            RuleStatus = "NEW"
	RuleCancelled      RuleStatus = "CANCELLED"
	RuleActive         RuleStatus = "ACTIVE"
	RuleSentToExchange RuleStatus = "SENTTOEXCHANGE"
	RuleForAll         RuleStatus = "FORALL"
)

func (r RuleStatus) IsUnknown() bool {
	return unknown(r, RuleNew, RuleCancelled, RuleActive, RuleSentToExchange, RuleForAll)
}

func unknown[T ~string](v T, known ...T) bool {
	return v != "" && !slices.Contains(known, v)
}

// ========== 宽松数值 ==========

// Number decodes from a JSON number or a numeric string. The broker is not
// consistent about which one it sends for ids and quantities.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func (n Number) Int64() int64     { return int64(n) }
func (n Number) Float64() float64 { return float64(n) }
