package smartapi

import (
	"fmt"
	"net/url"
)

const (
	// RootURL is the API connect platform root every endpoint path hangs off.
	RootURL = "https://apiconnect.angelone.in"

	// WSURL is the market feed websocket.
	WSURL = "ws://smartapisocket.angelone.in/smart-stream"

	// OrderStatusWSURL is the order update websocket.
	OrderStatusWSURL = "wss://tns.angelone.in/smart-order-update"

	// InstrumentURL serves the full instrument master as plain JSON.
	InstrumentURL = "https://margincalculator.angelone.in/OpenAPI_File/files/OpenAPIScripMaster.json"

	publisherLoginURL = "https://smartapi.angelone.in/publisher-login"
)

type endpointID int

const (
	epLogin endpointID = iota
	epLogout
	epToken
	epRefresh
	epUserProfile

	epOrderPlace
	epOrderModify
	epOrderCancel
	epOrderBook

	epLtpData
	epTradeBook
	epRmsLimit
	epHolding
	epPosition
	epConvertPosition

	epGttCreate
	epGttModify
	epGttCancel
	epGttDetails
	epGttList

	epCandleData
	epMarketData
	epAllHolding
	epIndividualOrderDetails
	epMarginAPI
	epBrokerage

	epSearchScrip
	epNseIntraday
	epBseIntraday
)

var endpointPaths = map[endpointID]string{
	epLogin:       "/rest/auth/angelbroking/user/v1/loginByPassword",
	epLogout:      "/rest/secure/angelbroking/user/v1/logout",
	epToken:       "/rest/auth/angelbroking/jwt/v1/generateTokens",
	epRefresh:     "/rest/auth/angelbroking/jwt/v1/generateTokens",
	epUserProfile: "/rest/secure/angelbroking/user/v1/getProfile",

	epOrderPlace:  "/rest/secure/angelbroking/order/v1/placeOrder",
	epOrderModify: "/rest/secure/angelbroking/order/v1/modifyOrder",
	epOrderCancel: "/rest/secure/angelbroking/order/v1/cancelOrder",
	epOrderBook:   "/rest/secure/angelbroking/order/v1/getOrderBook",

	epLtpData:         "/rest/secure/angelbroking/order/v1/getLtpData",
	epTradeBook:       "/rest/secure/angelbroking/order/v1/getTradeBook",
	epRmsLimit:        "/rest/secure/angelbroking/user/v1/getRMS",
	epHolding:         "/rest/secure/angelbroking/portfolio/v1/getHolding",
	epPosition:        "/rest/secure/angelbroking/order/v1/getPosition",
	epConvertPosition: "/rest/secure/angelbroking/order/v1/convertPosition",

	epGttCreate:  "/gtt-service/rest/secure/angelbroking/gtt/v1/createRule",
	epGttModify:  "/gtt-service/rest/secure/angelbroking/gtt/v1/modifyRule",
	epGttCancel:  "/gtt-service/rest/secure/angelbroking/gtt/v1/cancelRule",
	epGttDetails: "/rest/secure/angelbroking/gtt/v1/ruleDetails",
	epGttList:    "/rest/secure/angelbroking/gtt/v1/ruleList",

	epCandleData: "/rest/secure/angelbroking/historical/v1/getCandleData",
	epMarketData: "/rest/secure/angelbroking/market/v1/quote/",
	epAllHolding: "/rest/secure/angelbroking/portfolio/v1/getAllHolding",
	epMarginAPI:  "/rest/secure/angelbroking/margin/v1/batch",
	epBrokerage:  "/rest/secure/angelbroking/brokerage/v1/estimateCharges",

	epSearchScrip: "/rest/secure/angelbroking/order/v1/searchScrip",
	epNseIntraday: "/rest/secure/angelbroking/marketData/v1/nseIntraday",
	epBseIntraday: "/rest/secure/angelbroking/marketData/v1/bseIntraday",
}

var endpointNames = map[endpointID]string{
	epLogin: "Login", epLogout: "Logout", epToken: "Token", epRefresh: "Refresh",
	epUserProfile: "UserProfile", epOrderPlace: "OrderPlace", epOrderModify: "OrderModify",
	epOrderCancel: "OrderCancel", epOrderBook: "OrderBook", epLtpData: "LtpData",
	epTradeBook: "TradeBook", epRmsLimit: "RmsLimit", epHolding: "Holding",
	epPosition: "Position", epConvertPosition: "ConvertPosition", epGttCreate: "GttCreate",
	epGttModify: "GttModify", epGttCancel: "GttCancel", epGttDetails: "GttDetails",
	epGttList: "GttList", epCandleData: "CandleData", epMarketData: "MarketData",
	epAllHolding: "AllHolding", epIndividualOrderDetails: "IndividualOrderDetails",
	epMarginAPI: "MarginApi", epBrokerage: "Brokerage", epSearchScrip: "SearchScrip",
	epNseIntraday: "NseIntraday", epBseIntraday: "BseIntraday",
}

// Endpoint identifies one remote operation. The zero value is Login.
type Endpoint struct {
	id    endpointID
	param string
}

// Fixed endpoints. IndividualOrderDetails carries a parameter and is built
// with its constructor.
var (
	Login       = Endpoint{id: epLogin}
	Logout      = Endpoint{id: epLogout}
	Token       = Endpoint{id: epToken}
	Refresh     = Endpoint{id: epRefresh}
	UserProfile = Endpoint{id: epUserProfile}

	OrderPlace  = Endpoint{id: epOrderPlace}
	OrderModify = Endpoint{id: epOrderModify}
	OrderCancel = Endpoint{id: epOrderCancel}
	OrderBook   = Endpoint{id: epOrderBook}

	LtpData         = Endpoint{id: epLtpData}
	TradeBook       = Endpoint{id: epTradeBook}
	RmsLimit        = Endpoint{id: epRmsLimit}
	Holding         = Endpoint{id: epHolding}
	Position        = Endpoint{id: epPosition}
	ConvertPosition = Endpoint{id: epConvertPosition}

	GttCreate  = Endpoint{id: epGttCreate}
	GttModify  = Endpoint{id: epGttModify}
	GttCancel  = Endpoint{id: epGttCancel}
	GttDetails = Endpoint{id: epGttDetails}
	GttList    = Endpoint{id: epGttList}

	CandleData = Endpoint{id: epCandleData}
	MarketData = Endpoint{id: epMarketData}
	AllHolding = Endpoint{id: epAllHolding}
	MarginAPI  = Endpoint{id: epMarginAPI}
	Brokerage  = Endpoint{id: epBrokerage}

	SearchScrip = Endpoint{id: epSearchScrip}
	NseIntraday = Endpoint{id: epNseIntraday}
	BseIntraday = Endpoint{id: epBseIntraday}
)

// IndividualOrderDetails is the status lookup for one unique order id.
func IndividualOrderDetails(uniqueOrderID string) Endpoint {
	return Endpoint{id: epIndividualOrderDetails, param: uniqueOrderID}
}

// Path returns the endpoint path below RootURL.
func (e Endpoint) Path() string {
	if e.id == epIndividualOrderDetails {
		return "/rest/secure/angelbroking/order/v1/details/" + url.PathEscape(e.param)
	}
	return endpointPaths[e.id]
}

// URL resolves the endpoint against RootURL.
func (e Endpoint) URL() string {
	return RootURL + e.Path()
}

// String names the endpoint for logs.
func (e Endpoint) String() string {
	if e.id == epIndividualOrderDetails {
		return fmt.Sprintf("%s(%s)", endpointNames[e.id], e.param)
	}
	return endpointNames[e.id]
}

// LoginURL is the publisher login page used for out-of-band OTP logins.
func LoginURL(apiKey string) string {
	return publisherLoginURL + "?api_key=" + url.QueryEscape(apiKey)
}
