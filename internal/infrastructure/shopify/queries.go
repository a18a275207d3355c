package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const ordersQuery = `
query RecentOrders($first: Int!) {
  orders(first: $first, sortKey: CREATED_AT, reverse: true) {
    edges {
      node {
        id
        name
        email
        note
        tags
        createdAt
        cancelledAt
        displayFulfillmentStatus
        displayFinancialStatus
        totalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        customer {
          firstName
          lastName
          email
        }
        lineItems(first: 50) {
          edges {
            node {
              id
              name
              quantity
              originalUnitPriceSet {
                shopMoney {
                  amount
                  currencyCode
                }
              }
              variant {
                id
              }
              product {
                id
              }
            }
          }
        }
      }
    }
  }
}`

const shopSummaryQuery = `
query ShopSummary($first: Int!) {
  shop {
    name
  }
  orders(first: $first) {
    edges {
      node {
        id
      }
    }
  }
}`

// validateQueries parses every document sent to the Admin GraphQL API so a
// malformed query fails at startup instead of on the first request.
func validateQueries() error {
	docs := map[string]string{
		"RecentOrders": ordersQuery,
		"ShopSummary":  shopSummaryQuery,
	}
	for name, q := range docs {
		doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: q})
		if err != nil {
			return fmt.Errorf("invalid GraphQL document %s: %w", name, err)
		}
		if len(doc.Operations) != 1 || doc.Operations[0].Name != name {
			return fmt.Errorf("GraphQL document %s must declare exactly one operation named %s", name, name)
		}
	}
	return nil
}
