package domain

import "github.com/shopspring/decimal"

var (
	defaultMarkup = decimal.RequireFromString("1.5")
	half          = decimal.RequireFromString("0.5")
)

// Quote is the seller-side pricing for one product
type Quote struct {
	Cost         decimal.Decimal `json:"cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Margin       decimal.Decimal `json:"margin"`
	CanPush      bool            `json:"can_push"`
}

// roundHalfUp rounds to the nearest integer with halves going towards +inf
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// DefaultSellingPrice is 1.5 times cost, rounded to an integer
func DefaultSellingPrice(cost decimal.Decimal) decimal.Decimal {
	return roundHalfUp(cost.Mul(defaultMarkup))
}

// Margin is selling minus cost, rounded to an integer
func Margin(selling, cost decimal.Decimal) decimal.Decimal {
	return roundHalfUp(selling.Sub(cost))
}

// CanPush holds only while the selling price strictly exceeds cost
func CanPush(selling, cost decimal.Decimal) bool {
	return selling.GreaterThan(cost)
}

// NewQuote prices a product. A nil selling price selects the default markup.
func NewQuote(cost decimal.Decimal, selling *decimal.Decimal) Quote {
	price := DefaultSellingPrice(cost)
	if selling != nil {
		price = *selling
	}
	return Quote{
		Cost:         cost,
		SellingPrice: price,
		Margin:       Margin(price, cost),
		CanPush:      CanPush(price, cost),
	}
}
