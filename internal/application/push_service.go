package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-bridge/internal/config"
	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	shopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	pushMarkerTTL   = 2 * time.Minute
	bulkConcurrency = 4
)

// BulkPushItem is one entry of a bulk push request
type BulkPushItem struct {
	ProductID    string
	SellingPrice *decimal.Decimal
}

// PushService moves approved products into a seller's Shopify store and
// tracks what was pushed where.
type PushService struct {
	products    *ProductService
	credentials *CredentialService
	pushes      ports.PushRecordRepository
	markers     ports.MarkerStore
	client      ports.ShopifyClient
	metrics     ports.WorkflowMetrics
	vendor      string
	productType string
	logger      zerolog.Logger
}

// NewPushService creates a new push service. metrics may be nil.
func NewPushService(
	products *ProductService,
	credentials *CredentialService,
	pushes ports.PushRecordRepository,
	markers ports.MarkerStore,
	client ports.ShopifyClient,
	metrics ports.WorkflowMetrics,
	cfg config.ShopifyConfig,
	logger zerolog.Logger,
) *PushService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &PushService{
		products:    products,
		credentials: credentials,
		pushes:      pushes,
		markers:     markers,
		client:      client,
		metrics:     metrics,
		vendor:      cfg.Vendor,
		productType: cfg.ProductType,
		logger:      logger.With().Str("service", "push").Logger(),
	}
}

func pushMarkerKey(shop, productID string) string {
	return "push:" + shop + ":" + productID
}

// Quote prices a product for a seller. A nil selling price uses the default markup.
func (s *PushService) Quote(ctx context.Context, productID string, sellingPrice *decimal.Decimal) (domain.Quote, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(product.Price, sellingPrice), nil
}

// Push creates the product in the shop and records the external id
func (s *PushService) Push(ctx context.Context, shop, productID string, sellingPrice *decimal.Decimal) (*domain.PushResult, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return nil, domain.NewValidationError("shop is required")
	}
	if productID == "" {
		return nil, domain.NewValidationError("product id is required")
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ApprovalApproved {
		return nil, domain.NewValidationError("product is not approved")
	}

	quote := domain.NewQuote(product.Price, sellingPrice)
	if !quote.CanPush {
		return nil, domain.NewValidationError("selling price must be greater than cost price %s", product.Price.StringFixed(2))
	}

	key := pushMarkerKey(shop, productID)
	acquired, err := s.markers.Acquire(ctx, key, pushMarkerTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire push marker: %w", err)
	}
	if !acquired {
		return nil, domain.ErrPushInProgress
	}
	defer func() {
		if err := s.markers.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to release push marker")
		}
	}()

	// Read under the marker: a push that finished before we acquired it has
	// already saved its record.
	existing, err := s.pushes.Get(ctx, productID, shop)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("product", productID).Msg("Failed to read push record")
		return nil, err
	}
	if existing != nil && existing.Active() {
		return nil, domain.ErrAlreadyPushed
	}

	token, err := s.credentials.AccessToken(ctx, shop)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateProduct(ctx, shop, token, s.externalProduct(product, quote.SellingPrice))
	if err != nil {
		s.metrics.IncPush(string(domain.PushFailed))
		s.logger.Error().Err(err).Str("shop", shop).Str("product", productID).Msg("Failed to push product")
		return nil, err
	}

	record := &domain.PushRecord{
		ProductID:         productID,
		Shop:              shop,
		ExternalProductID: created.Id,
		SellingPrice:      quote.SellingPrice,
		Status:            domain.PushPushed,
	}
	if err := s.pushes.Save(ctx, record); err != nil {
		// The product now exists in the shop; only the local record is missing.
		s.logger.Error().Err(err).
			Str("shop", shop).
			Str("product", productID).
			Uint64("externalProductId", created.Id).
			Msg("Failed to save push record")
		return nil, err
	}

	s.metrics.IncPush(string(domain.PushPushed))
	s.logger.Info().
		Str("shop", shop).
		Str("product", productID).
		Uint64("externalProductId", created.Id).
		Str("sellingPrice", quote.SellingPrice.String()).
		Msg("Product pushed to Shopify")

	return &domain.PushResult{
		ProductID:         productID,
		Status:            domain.PushPushed,
		ExternalProductID: created.Id,
		SellingPrice:      quote.SellingPrice,
	}, nil
}

func (s *PushService) externalProduct(product *domain.Product, price decimal.Decimal) *shopify.Product {
	images := make([]shopify.Image, 0, len(product.Images))
	for _, src := range product.Images {
		images = append(images, shopify.Image{Src: src})
	}
	return &shopify.Product{
		Title:       product.Title,
		BodyHTML:    "<strong>" + product.Description + "</strong>",
		Vendor:      s.vendor,
		ProductType: s.productType,
		Variants:    []shopify.Variant{{Price: &price}},
		Images:      images,
	}
}

// PushRaw forwards a caller-built product to the shop unchanged. Nothing is
// recorded locally.
func (s *PushService) PushRaw(ctx context.Context, shop string, product *shopify.Product) (*shopify.Product, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" || product == nil {
		return nil, domain.NewValidationError("Missing shop or product data")
	}
	if strings.TrimSpace(product.Title) == "" || len(product.Variants) == 0 ||
		product.Variants[0].Price == nil || product.Variants[0].Price.IsZero() {
		return nil, domain.NewValidationError("Product must have a title and at least one variant with a price")
	}

	token, err := s.credentials.AccessToken(ctx, shop)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateProduct(ctx, shop, token, product)
	if err != nil {
		s.metrics.IncPush(string(domain.PushFailed))
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to forward product")
		return nil, err
	}
	s.metrics.IncPush(string(domain.PushPushed))
	return created, nil
}

// BulkPush pushes each item independently and reports one result per item in
// request order. Item failures never abort the batch.
func (s *PushService) BulkPush(ctx context.Context, shop string, items []BulkPushItem) ([]domain.PushResult, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return nil, domain.NewValidationError("shop is required")
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("at least one product is required")
	}

	results := make([]domain.PushResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, item := range items {
		g.Go(func() error {
			result, err := s.Push(gctx, shop, item.ProductID, item.SellingPrice)
			if err != nil {
				results[i] = domain.PushResult{
					ProductID: item.ProductID,
					Status:    domain.PushFailed,
					Error:     err.Error(),
				}
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pushed := 0
	for _, r := range results {
		if r.Status == domain.PushPushed {
			pushed++
		}
	}
	s.logger.Info().Str("shop", shop).Int("requested", len(items)).Int("pushed", pushed).Msg("Bulk push finished")
	return results, nil
}

// Reconcile checks every pushed record of the shop against Shopify and marks
// records whose external product no longer exists as removed.
func (s *PushService) Reconcile(ctx context.Context, shop string) (*domain.ReconcileReport, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return nil, domain.NewValidationError("shop is required")
	}

	token, err := s.credentials.AccessToken(ctx, shop)
	if err != nil {
		return nil, err
	}

	records, err := s.pushes.ListByShop(ctx, shop)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to list push records")
		return nil, err
	}

	report := &domain.ReconcileReport{Removed: []string{}}
	for _, record := range records {
		if !record.Active() {
			continue
		}
		report.Checked++

		_, err := s.client.GetProduct(ctx, shop, token, record.ExternalProductID)
		if err == nil {
			continue
		}
		if !domain.IsNotFound(err) {
			s.logger.Warn().Err(err).
				Str("shop", shop).
				Str("product", record.ProductID).
				Msg("Failed to check external product, leaving record unchanged")
			continue
		}
		if err := s.pushes.UpdateStatus(ctx, record.ProductID, shop, domain.PushRemoved); err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Str("product", record.ProductID).Msg("Failed to mark push record removed")
			return nil, err
		}
		report.Removed = append(report.Removed, record.ProductID)
	}

	s.logger.Info().Str("shop", shop).Int("checked", report.Checked).Int("removed", len(report.Removed)).Msg("Reconciled push records")
	return report, nil
}

// MarkRemoved flags the record pointing at a deleted external product. It
// reports false when no record references the product.
func (s *PushService) MarkRemoved(ctx context.Context, shop string, externalProductID uint64) (bool, error) {
	shop = domain.NormalizeShopDomain(shop)
	record, err := s.pushes.FindByExternalID(ctx, shop, externalProductID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if err := s.pushes.UpdateStatus(ctx, record.ProductID, shop, domain.PushRemoved); err != nil {
		return false, err
	}
	s.logger.Info().Str("shop", shop).Str("product", record.ProductID).Uint64("externalProductId", externalProductID).Msg("Push record marked removed")
	return true, nil
}

// ListForSeller returns approved products annotated with their push state in
// the shop. Shopify is not consulted.
func (s *PushService) ListForSeller(ctx context.Context, shop string) ([]domain.SellerProduct, error) {
	products, err := s.products.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	shop = domain.NormalizeShopDomain(shop)
	records := map[string]*domain.PushRecord{}
	if shop != "" {
		list, err := s.pushes.ListByShop(ctx, shop)
		if err != nil {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to list push records")
			return nil, err
		}
		for _, r := range list {
			records[r.ProductID] = r
		}
	}

	out := make([]domain.SellerProduct, 0, len(products))
	for _, p := range products {
		item := domain.SellerProduct{
			Product:    *p,
			Quote:      domain.NewQuote(p.Price, nil),
			PushStatus: domain.PushNotPushed,
		}
		if r, ok := records[p.ID]; ok && r.Active() {
			item.PushStatus = domain.PushPushed
			item.ExternalProductID = r.ExternalProductID
			item.Quote = domain.NewQuote(p.Price, &r.SellingPrice)
		} else if shop != "" {
			held, err := s.markers.Held(ctx, pushMarkerKey(shop, p.ID))
			if err != nil {
				s.logger.Warn().Err(err).Str("product", p.ID).Msg("Failed to read push marker")
			} else if held {
				item.PushStatus = domain.PushPushing
			}
		}
		out = append(out, item)
	}
	return out, nil
}

type noopMetrics struct{}

func (noopMetrics) IncPush(string)              {}
func (noopMetrics) IncOrderFetch(string, error) {}
