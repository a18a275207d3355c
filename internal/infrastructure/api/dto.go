package api

import (
	"reflect"
	"strings"

	shopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type createProductRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images" validate:"omitempty,max=20,dive,url"`
}

type updateProductRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=10000"`
	Price       *decimal.Decimal `json:"price"`
	Images      []string         `json:"images" validate:"omitempty,max=20,dive,url"`
}

type pushRequest struct {
	Shop         string           `json:"shop" validate:"required"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

type bulkPushItem struct {
	ProductID    string           `json:"product_id" validate:"required"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

type bulkPushRequest struct {
	Shop  string         `json:"shop" validate:"required"`
	Items []bulkPushItem `json:"items" validate:"required,min=1,max=50,dive"`
}

// rawPushRequest is checked by the push service so its messages match the
// pass-through endpoint's historical responses
type rawPushRequest struct {
	Shop    string           `json:"shop"`
	Product *shopify.Product `json:"product"`
}

type updateOrderRequest struct {
	FulfillmentStatus string `json:"fulfillmentStatus" validate:"required,oneof=pending fulfilled cancelled"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
