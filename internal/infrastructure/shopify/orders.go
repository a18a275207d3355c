package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-bridge/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/shopspring/decimal"
)

// Order API

func (c *client) GetOrders(ctx context.Context, shopDomain string, accessToken string, limit int) ([]domain.Order, error) {
	orders, err := call(ctx, c, shopDomain, accessToken, "list_orders_rest", func(api *goshopify.Client) ([]goshopify.Order, error) {
		return api.Order.List(ctx, statusAny{Status: "any", Limit: limit})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		out = append(out, orderFromREST(&orders[i]))
	}
	return out, nil
}

func (c *client) GetOrdersGraphQL(ctx context.Context, shopDomain string, accessToken string, limit int) ([]domain.Order, error) {
	var resp ordersResponse
	_, err := call(ctx, c, shopDomain, accessToken, "list_orders_graphql", func(api *goshopify.Client) (struct{}, error) {
		return struct{}{}, api.GraphQL.Query(ctx, ordersQuery, map[string]interface{}{"first": limit}, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	out := make([]domain.Order, 0, len(resp.Orders.Edges))
	for _, edge := range resp.Orders.Edges {
		out = append(out, edge.Node.toDomain())
	}
	return out, nil
}

func (c *client) ShopSummaryGraphQL(ctx context.Context, shopDomain string, accessToken string) (*domain.ConnectionInfo, error) {
	var resp shopSummaryResponse
	_, err := call(ctx, c, shopDomain, accessToken, "shop_summary_graphql", func(api *goshopify.Client) (struct{}, error) {
		return struct{}{}, api.GraphQL.Query(ctx, shopSummaryQuery, map[string]interface{}{"first": 250}, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query shop summary: %w", err)
	}
	return &domain.ConnectionInfo{
		ShopName:   resp.Shop.Name,
		OrderCount: len(resp.Orders.Edges),
		Method:     domain.SyncGraphQL,
	}, nil
}

// UpdateOrderStatus is a partial order update. Cancellation goes through
// CancelOrder instead.
func (c *client) UpdateOrderStatus(ctx context.Context, shopDomain string, accessToken string, orderID uint64, status domain.FulfillmentStatus) error {
	order := goshopify.Order{Id: orderID}
	switch status {
	case domain.FulfillmentFulfilled:
		order.FulfillmentStatus = "fulfilled"
	case domain.FulfillmentPending:
		order.FulfillmentStatus = "unfulfilled"
	default:
		return domain.NewValidationError("unsupported fulfillment status %q", status)
	}

	_, err := call(ctx, c, shopDomain, accessToken, "update_order", func(api *goshopify.Client) (*goshopify.Order, error) {
		return api.Order.Update(ctx, order)
	})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (c *client) CancelOrder(ctx context.Context, shopDomain string, accessToken string, orderID uint64) error {
	_, err := call(ctx, c, shopDomain, accessToken, "cancel_order", func(api *goshopify.Client) (*goshopify.Order, error) {
		return api.Order.Cancel(ctx, orderID, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	return nil
}

func orderFromREST(o *goshopify.Order) domain.Order {
	order := domain.Order{
		ID:              strconv.FormatUint(o.Id, 10),
		OrderNumber:     o.OrderNumber,
		Name:            o.Name,
		CustomerEmail:   o.Email,
		FinancialStatus: string(o.FinancialStatus),
		Currency:        o.Currency,
		Tags:            splitTags(o.Tags),
		Note:            o.Note,
		LineItems:       make([]domain.LineItem, 0, len(o.LineItems)),
	}
	if o.TotalPrice != nil {
		order.Amount = *o.TotalPrice
	}
	if o.CreatedAt != nil {
		order.Date = *o.CreatedAt
	}
	if o.Customer != nil {
		order.CustomerName = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
		if order.CustomerEmail == "" {
			order.CustomerEmail = o.Customer.Email
		}
	}
	order.Status = restFulfillmentStatus(string(o.FulfillmentStatus), o.CancelledAt != nil)

	for _, li := range o.LineItems {
		item := domain.LineItem{
			ID:        strconv.FormatUint(li.Id, 10),
			Name:      li.Name,
			Quantity:  li.Quantity,
			VariantID: formatID(li.VariantId),
			ProductID: formatID(li.ProductId),
		}
		if item.Name == "" {
			item.Name = li.Title
		}
		if li.Price != nil {
			item.Price = *li.Price
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}

func restFulfillmentStatus(status string, cancelled bool) domain.FulfillmentStatus {
	if cancelled {
		return domain.FulfillmentCancelled
	}
	switch strings.ToLower(status) {
	case "fulfilled":
		return domain.FulfillmentFulfilled
	case "partial":
		return domain.FulfillmentPartial
	}
	return domain.FulfillmentPending
}

func graphQLFulfillmentStatus(status string, cancelled bool) domain.FulfillmentStatus {
	if cancelled {
		return domain.FulfillmentCancelled
	}
	switch status {
	case "FULFILLED":
		return domain.FulfillmentFulfilled
	case "PARTIALLY_FULFILLED":
		return domain.FulfillmentPartial
	}
	return domain.FulfillmentPending
}

// formatID renders REST resource ids, which go-shopify exposes as plain or
// pointer integers depending on the resource.
func formatID(v interface{}) string {
	switch id := v.(type) {
	case uint64:
		if id == 0 {
			return ""
		}
		return strconv.FormatUint(id, 10)
	case *uint64:
		if id == nil || *id == 0 {
			return ""
		}
		return strconv.FormatUint(*id, 10)
	case int64:
		if id == 0 {
			return ""
		}
		return strconv.FormatInt(id, 10)
	case *int64:
		if id == nil || *id == 0 {
			return ""
		}
		return strconv.FormatInt(*id, 10)
	}
	return ""
}

func splitTags(tags string) []string {
	out := []string{}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// gidToID extracts the numeric id from "gid://shopify/Order/123?params"
func gidToID(gid string) string {
	if gid == "" {
		return ""
	}
	id := gid[strings.LastIndex(gid, "/")+1:]
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	return id
}

type gqlMoneyBag struct {
	ShopMoney struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
	} `json:"shopMoney"`
}

func (m gqlMoneyBag) decimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.ShopMoney.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type gqlID struct {
	ID string `json:"id"`
}

type gqlLineItem struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Quantity             int         `json:"quantity"`
	OriginalUnitPriceSet gqlMoneyBag `json:"originalUnitPriceSet"`
	Variant              *gqlID      `json:"variant"`
	Product              *gqlID      `json:"product"`
}

type gqlOrder struct {
	ID                       string      `json:"id"`
	Name                     string      `json:"name"`
	Email                    string      `json:"email"`
	Note                     string      `json:"note"`
	Tags                     []string    `json:"tags"`
	CreatedAt                time.Time   `json:"createdAt"`
	CancelledAt              *time.Time  `json:"cancelledAt"`
	DisplayFulfillmentStatus string      `json:"displayFulfillmentStatus"`
	DisplayFinancialStatus   string      `json:"displayFinancialStatus"`
	TotalPriceSet            gqlMoneyBag `json:"totalPriceSet"`
	Customer                 *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	} `json:"customer"`
	LineItems struct {
		Edges []struct {
			Node gqlLineItem `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

type ordersResponse struct {
	Orders struct {
		Edges []struct {
			Node gqlOrder `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

type shopSummaryResponse struct {
	Shop struct {
		Name string `json:"name"`
	} `json:"shop"`
	Orders struct {
		Edges []struct {
			Node gqlID `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

func (o gqlOrder) toDomain() domain.Order {
	order := domain.Order{
		ID:              gidToID(o.ID),
		Name:            o.Name,
		CustomerEmail:   o.Email,
		Status:          graphQLFulfillmentStatus(o.DisplayFulfillmentStatus, o.CancelledAt != nil),
		FinancialStatus: strings.ToLower(o.DisplayFinancialStatus),
		Amount:          o.TotalPriceSet.decimal(),
		Currency:        o.TotalPriceSet.ShopMoney.CurrencyCode,
		Date:            o.CreatedAt,
		Tags:            o.Tags,
		Note:            o.Note,
		LineItems:       make([]domain.LineItem, 0, len(o.LineItems.Edges)),
	}
	if order.Tags == nil {
		order.Tags = []string{}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(o.Name, "#")); err == nil {
		order.OrderNumber = n
	}
	if o.Customer != nil {
		order.CustomerName = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
		if order.CustomerEmail == "" {
			order.CustomerEmail = o.Customer.Email
		}
	}
	for _, edge := range o.LineItems.Edges {
		li := edge.Node
		item := domain.LineItem{
			ID:       gidToID(li.ID),
			Name:     li.Name,
			Quantity: li.Quantity,
			Price:    li.OriginalUnitPriceSet.decimal(),
		}
		if li.Variant != nil {
			item.VariantID = gidToID(li.Variant.ID)
		}
		if li.Product != nil {
			item.ProductID = gidToID(li.Product.ID)
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}
