package angelone

import "github.com/riven-blade/smartconnect/pkg/smartapi"

// Holding is one long-term holding.
type Holding struct {
	TradingSymbol      string      `json:"tradingsymbol"`
	Exchange           Exchange    `json:"exchange"`
	ISIN               string      `json:"isin"`
	T1Quantity         int64       `json:"t1quantity"`
	RealisedQuantity   int64       `json:"realisedquantity"`
	Quantity           int64       `json:"quantity"`
	AuthorisedQuantity int64       `json:"authorisedquantity"`
	Product            ProductType `json:"product"`
	CollateralQuantity *int64      `json:"collateralquantity"`
	CollateralType     *string     `json:"collateraltype"`
	Haircut            float64     `json:"haircut"`
	AveragePrice       float64     `json:"averageprice"`
	LTP                float64     `json:"ltp"`
	SymbolToken        string      `json:"symboltoken"`
	Close              float64     `json:"close"`
	ProfitAndLoss      float64     `json:"profitandloss"`
	PnlPercentage      float64     `json:"pnlpercentage"`
}

func (Holding) Endpoint() smartapi.Endpoint { return smartapi.Holding }

// TotalHolding aggregates all holdings.
type TotalHolding struct {
	TotalHoldingValue  float64 `json:"totalholdingvalue"`
	TotalInvValue      float64 `json:"totalinvvalue"`
	TotalProfitAndLoss float64 `json:"totalprofitandloss"`
	TotalPnlPercentage float64 `json:"totalpnlpercentage"`
}

// AllHoldings is the holdings list with its totals.
type AllHoldings struct {
	Holdings     []Holding    `json:"holdings"`
	TotalHolding TotalHolding `json:"totalholding"`
}

func (AllHoldings) Endpoint() smartapi.Endpoint { return smartapi.AllHolding }

// Position is one open or carried-forward position. The broker reports most
// numbers as strings.
type Position struct {
	Exchange          Exchange    `json:"exchange"`
	SymbolToken       string      `json:"symboltoken"`
	ProductType       ProductType `json:"producttype"`
	TradingSymbol     string      `json:"tradingsymbol"`
	SymbolName        string      `json:"symbolname"`
	InstrumentType    string      `json:"instrumenttype"`
	PriceDen          string      `json:"priceden"`
	PriceNum          string      `json:"pricenum"`
	GenDen            string      `json:"genden"`
	GenNum            string      `json:"gennum"`
	Precision         string      `json:"precision"`
	Multiplier        string      `json:"multiplier"`
	BoardLotSize      string      `json:"boardlotsize"`
	BuyQty            string      `json:"buyqty"`
	SellQty           string      `json:"sellqty"`
	BuyAmount         string      `json:"buyamount"`
	SellAmount        string      `json:"sellamount"`
	SymbolGroup       string      `json:"symbolgroup"`
	StrikePrice       string      `json:"strikeprice"`
	OptionType        string      `json:"optiontype"`
	ExpiryDate        string      `json:"expirydate"`
	LotSize           string      `json:"lotsize"`
	CfBuyQty          string      `json:"cfbuyqty"`
	CfSellQty         string      `json:"cfsellqty"`
	CfBuyAmount       string      `json:"cfbuyamount"`
	CfSellAmount      string      `json:"cfsellamount"`
	BuyAvgPrice       string      `json:"buyavgprice"`
	SellAvgPrice      string      `json:"sellavgprice"`
	AvgNetPrice       string      `json:"avgnetprice"`
	NetValue          string      `json:"netvalue"`
	NetQty            string      `json:"netqty"`
	TotalBuyValue     string      `json:"totalbuyvalue"`
	TotalSellValue    string      `json:"totalsellvalue"`
	CfBuyAvgPrice     string      `json:"cfbuyavgprice"`
	CfSellAvgPrice    string      `json:"cfsellavgprice"`
	TotalBuyAvgPrice  string      `json:"totalbuyavgprice"`
	TotalSellAvgPrice string      `json:"totalsellavgprice"`
	NetPrice          string      `json:"netprice"`
}

func (Position) Endpoint() smartapi.Endpoint { return smartapi.Position }

// ConvertPositionReq moves a position between product types.
type ConvertPositionReq struct {
	Exchange        Exchange        `json:"exchange"`
	SymbolToken     string          `json:"symboltoken"`
	OldProductType  ProductType     `json:"oldproducttype"`
	NewProductType  ProductType     `json:"newproducttype"`
	TradingSymbol   string          `json:"tradingsymbol"`
	SymbolName      string          `json:"symbolname"`
	InstrumentType  string          `json:"instrumenttype"`
	PriceDen        string          `json:"priceden"`
	PriceNum        string          `json:"pricenum"`
	GenDen          string          `json:"genden"`
	GenNum          string          `json:"gennum"`
	Precision       string          `json:"precision"`
	Multiplier      string          `json:"multiplier"`
	BoardLotSize    string          `json:"boardlotsize"`
	BuyQty          string          `json:"buyqty"`
	SellQty         string          `json:"sellqty"`
	BuyAmount       string          `json:"buyamount"`
	SellAmount      string          `json:"sellamount"`
	TransactionType TransactionType `json:"transactiontype"`
	Quantity        int             `json:"quantity"`
	Type            string          `json:"type"`
}

func (ConvertPositionReq) Endpoint() smartapi.Endpoint { return smartapi.ConvertPosition }

// NewConvertPosition converts quantity of an NSE intraday position to delivery.
func NewConvertPosition(tradingSymbol string, quantity int) *ConvertPositionReq {
	return &ConvertPositionReq{
		Exchange:        NSE,
		OldProductType:  ProductIntraday,
		NewProductType:  ProductDelivery,
		TradingSymbol:   tradingSymbol,
		TransactionType: Buy,
		Quantity:        quantity,
		Type:            "DAY",
	}
}
