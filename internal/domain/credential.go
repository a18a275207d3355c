package domain

import (
	"strings"
	"time"
)

const myshopifySuffix = ".myshopify.com"

// Credential is the access token issued by Shopify for one shop
type Credential struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeShopDomain lower-cases and trims a shop identifier and appends the
// myshopify suffix when a bare store name is given.
func NormalizeShopDomain(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")
	if shop == "" {
		return ""
	}
	if !strings.Contains(shop, ".") {
		shop += myshopifySuffix
	}
	return shop
}

// IsValidShopDomain reports whether shop looks like <name>.myshopify.com
func IsValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, myshopifySuffix) {
		return false
	}
	name := strings.TrimSuffix(shop, myshopifySuffix)
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
