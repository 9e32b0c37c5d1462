package angelone

import "github.com/riven-blade/smartconnect/pkg/smartapi"

// Rms is the fund, cash and margin summary of the account.
type Rms struct {
	Net                    string `json:"net"`
	AvailableCash          string `json:"availablecash"`
	AvailableIntradayPayin string `json:"availableintradaypayin"`
	AvailableLimitMargin   string `json:"availablelimitmargin"`
	Collateral             string `json:"collateral"`
	M2MUnrealized          string `json:"m2munrealized"`
	M2MRealized            string `json:"m2mrealized"`
	UtilisedDebits         string `json:"utiliseddebits"`
	UtilisedSpan           string `json:"utilisedspan"`
	UtilisedOptionPremium  string `json:"utilisedoptionpremium"`
	UtilisedHoldingSales   string `json:"utilisedholdingsales"`
	UtilisedExposure       string `json:"utilisedexposure"`
	UtilisedTurnover       string `json:"utilisedturnover"`
	UtilisedPayout         string `json:"utilisedpayout"`
}

func (Rms) Endpoint() smartapi.Endpoint { return smartapi.RmsLimit }

// MarginPosition is one leg of a margin calculation.
type MarginPosition struct {
	Exchange    Exchange        `json:"exchange"`
	Qty         int             `json:"qty"`
	Price       float64         `json:"price"`
	ProductType ProductType     `json:"productType"`
	Token       string          `json:"token"`
	TradeType   TransactionType `json:"tradeType"`
}

// MarginCalculatorReq asks for the margin of a basket.
type MarginCalculatorReq struct {
	Positions []MarginPosition `json:"positions"`
}

func (MarginCalculatorReq) Endpoint() smartapi.Endpoint { return smartapi.MarginAPI }

// MarginCalculatorRes is the margin required by a basket.
type MarginCalculatorRes struct {
	TotalMarginRequired float64 `json:"totalMarginRequired"`
	MarginComponents    struct {
		NetPremium        float64 `json:"netPremium"`
		SpanMargin        float64 `json:"spanMargin"`
		MarginBenefit     float64 `json:"marginBenefit"`
		DeliveryMargin    float64 `json:"deliveryMargin"`
		NonNFOMargin      float64 `json:"nonNFOMargin"`
		TotOptionsPremium float64 `json:"totOptionsPremium"`
	} `json:"marginComponents"`
}
