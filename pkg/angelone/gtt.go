package angelone

import (
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/spf13/cast"
)

// ========== GTT 规则 ==========

// CreateRuleReq creates a good-till-triggered rule.
type CreateRuleReq struct {
	TradingSymbol   string          `json:"tradingsymbol"`
	SymbolToken     string          `json:"symboltoken"`
	Exchange        Exchange        `json:"exchange"`
	TransactionType TransactionType `json:"transactiontype"`
	ProductType     ProductType     `json:"producttype"`
	Price           string          `json:"price"`
	Qty             string          `json:"qty"`
	TriggerPrice    string          `json:"triggerprice"`
	DisclosedQty    string          `json:"disclosedqty"`
	TimePeriod      string          `json:"timeperiod,omitempty"`
}

func (CreateRuleReq) Endpoint() smartapi.Endpoint { return smartapi.GttCreate }

// NewCreateRule starts an NSE delivery buy rule for one unit.
func NewCreateRule(tradingSymbol, symbolToken string) *CreateRuleReq {
	return &CreateRuleReq{
		TradingSymbol:   tradingSymbol,
		SymbolToken:     symbolToken,
		Exchange:        NSE,
		TransactionType: Buy,
		ProductType:     ProductDelivery,
		Price:           "0",
		Qty:             "1",
		TriggerPrice:    "0",
		DisclosedQty:    "0",
	}
}

func (r *CreateRuleReq) WithPrice(p interface{}) *CreateRuleReq {
	r.Price = cast.ToString(p)
	return r
}

func (r *CreateRuleReq) WithQty(q interface{}) *CreateRuleReq {
	r.Qty = cast.ToString(q)
	return r
}

func (r *CreateRuleReq) WithTriggerPrice(p interface{}) *CreateRuleReq {
	r.TriggerPrice = cast.ToString(p)
	return r
}

func (r *CreateRuleReq) WithSide(t TransactionType) *CreateRuleReq {
	r.TransactionType = t
	return r
}

func (r *CreateRuleReq) WithProduct(p ProductType) *CreateRuleReq {
	r.ProductType = p
	return r
}

func (r *CreateRuleReq) WithExchange(e Exchange) *CreateRuleReq {
	r.Exchange = e
	return r
}

// RuleRef is the id returned by create, modify and cancel.
type RuleRef struct {
	ID Number `json:"id"`
}

// ModifyRuleReq changes a rule's prices or quantity.
type ModifyRuleReq struct {
	ID           string   `json:"id"`
	SymbolToken  string   `json:"symboltoken"`
	Exchange     Exchange `json:"exchange"`
	Price        string   `json:"price"`
	Qty          string   `json:"qty"`
	TriggerPrice string   `json:"triggerprice"`
	DisclosedQty string   `json:"disclosedqty"`
	TimePeriod   string   `json:"timeperiod,omitempty"`
}

func (ModifyRuleReq) Endpoint() smartapi.Endpoint { return smartapi.GttModify }

// NewModifyRule targets rule id on NSE.
func NewModifyRule(id interface{}, symbolToken string) *ModifyRuleReq {
	return &ModifyRuleReq{ID: cast.ToString(id), SymbolToken: symbolToken, Exchange: NSE}
}

func (r *ModifyRuleReq) WithPrice(p interface{}) *ModifyRuleReq {
	r.Price = cast.ToString(p)
	return r
}

func (r *ModifyRuleReq) WithQty(q interface{}) *ModifyRuleReq {
	r.Qty = cast.ToString(q)
	return r
}

func (r *ModifyRuleReq) WithTriggerPrice(p interface{}) *ModifyRuleReq {
	r.TriggerPrice = cast.ToString(p)
	return r
}

// CancelRuleReq cancels a rule.
type CancelRuleReq struct {
	ID          string   `json:"id"`
	SymbolToken string   `json:"symboltoken"`
	Exchange    Exchange `json:"exchange"`
}

func (CancelRuleReq) Endpoint() smartapi.Endpoint { return smartapi.GttCancel }

// NewCancelRule cancels rule id.
func NewCancelRule(id interface{}, symbolToken string, exchange Exchange) *CancelRuleReq {
	return &CancelRuleReq{ID: cast.ToString(id), SymbolToken: symbolToken, Exchange: exchange}
}

// RuleDetailReq looks up one rule.
type RuleDetailReq struct {
	ID string `json:"id"`
}

func (RuleDetailReq) Endpoint() smartapi.Endpoint { return smartapi.GttDetails }

// Rule is a stored GTT rule.
type Rule struct {
	ID              Number          `json:"id"`
	Status          RuleStatus      `json:"status"`
	CreatedDate     string          `json:"createddate"`
	UpdatedDate     string          `json:"updateddate"`
	ExpiryDate      string          `json:"expirydate"`
	ClientID        string          `json:"clientid"`
	TradingSymbol   string          `json:"tradingsymbol"`
	SymbolToken     string          `json:"symboltoken"`
	Exchange        Exchange        `json:"exchange"`
	ProductType     ProductType     `json:"producttype"`
	TransactionType TransactionType `json:"transactiontype"`
	Price           Number          `json:"price"`
	Qty             Number          `json:"qty"`
	TriggerPrice    Number          `json:"triggerprice"`
	DisclosedQty    Number          `json:"disclosedqty"`
}

// RuleListReq pages through rules in the given states.
type RuleListReq struct {
	Status []RuleStatus `json:"status"`
	Page   int          `json:"page"`
	Count  int          `json:"count"`
}

func (RuleListReq) Endpoint() smartapi.Endpoint { return smartapi.GttList }
