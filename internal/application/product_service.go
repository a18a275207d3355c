package application

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// imageExtensions maps accepted upload content types to their stored extension
var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageUpload is an uploaded product image
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ProductService manages supplier products. Every mutating call takes the
// verified supplier explicitly.
type ProductService struct {
	repo          ports.ProductRepository
	images        ports.ImageStorage
	maxImageBytes int64
	logger        zerolog.Logger
	now           func() time.Time
}

// NewProductService creates a new product service
func NewProductService(
	repo ports.ProductRepository,
	images ports.ImageStorage,
	maxImageBytes int64,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{
		repo:          repo,
		images:        images,
		maxImageBytes: maxImageBytes,
		logger:        logger.With().Str("service", "products").Logger(),
		now:           time.Now,
	}
}

// ListApproved returns approved products, newest first
func (s *ProductService) ListApproved(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.ListByStatus(ctx, domain.ApprovalApproved)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list approved products")
		return nil, err
	}
	return products, nil
}

// ListForSupplier returns the supplier's own products, newest first
func (s *ProductService) ListForSupplier(ctx context.Context, supplier domain.Supplier) ([]*domain.Product, error) {
	products, err := s.repo.ListBySupplier(ctx, supplier.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("supplier", supplier.ID).Msg("Failed to list supplier products")
		return nil, err
	}
	return products, nil
}

// Get returns a product or domain.ErrProductNotFound
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrProductNotFound
	}
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product", id).Msg("Failed to get product")
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// Create stores a new product owned by the supplier. New products are
// published as approved straight away.
func (s *ProductService) Create(ctx context.Context, supplier domain.Supplier, input domain.NewProductInput) (*domain.Product, error) {
	if supplier.ID == "" {
		return nil, domain.ErrInvalidSession
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}
	now := s.now().UTC()
	product := &domain.Product{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Price:        input.Price,
		Images:       images,
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Status:       domain.ApprovalApproved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("supplier", supplier.ID).Msg("Failed to create product")
		return nil, err
	}

	s.logger.Info().Str("supplier", supplier.ID).Str("product", product.ID).Msg("Product created")
	return product, nil
}

// Update applies a partial update to a product the supplier owns. A product
// owned by someone else is reported as not found.
func (s *ProductService) Update(ctx context.Context, supplier domain.Supplier, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if supplier.ID == "" {
		return nil, domain.ErrInvalidSession
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.OwnedBy(supplier) {
		return nil, domain.ErrProductNotFound
	}
	if patch.Empty() {
		return product, nil
	}

	patch.Apply(product)
	product.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, supplier.ID, product); err != nil {
		if !domain.IsNotFound(err) {
			s.logger.Error().Err(err).Str("product", id).Msg("Failed to update product")
		}
		return nil, err
	}

	s.logger.Info().Str("supplier", supplier.ID).Str("product", id).Msg("Product updated")
	return product, nil
}

// Delete removes a product the supplier owns
func (s *ProductService) Delete(ctx context.Context, supplier domain.Supplier, id string) error {
	if supplier.ID == "" {
		return domain.ErrInvalidSession
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrProductNotFound
	}
	if err := s.repo.Delete(ctx, supplier.ID, id); err != nil {
		if !domain.IsNotFound(err) {
			s.logger.Error().Err(err).Str("product", id).Msg("Failed to delete product")
		}
		return err
	}
	s.logger.Info().Str("supplier", supplier.ID).Str("product", id).Msg("Product deleted")
	return nil
}

// UploadImage stores an image under <supplier>/<unix millis>.<ext>, where ext
// follows the sniffed content type, and returns its public URL. Two uploads in the same millisecond share a key.
func (s *ProductService) UploadImage(ctx context.Context, supplier domain.Supplier, upload ImageUpload) (string, error) {
	if supplier.ID == "" {
		return "", domain.ErrInvalidSession
	}
	if len(upload.Data) == 0 {
		return "", domain.NewValidationError("file is required")
	}
	if s.maxImageBytes > 0 && int64(len(upload.Data)) > s.maxImageBytes {
		return "", domain.NewValidationError("file exceeds %d bytes", s.maxImageBytes)
	}

	contentType := http.DetectContentType(upload.Data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", domain.NewValidationError("unsupported image type %q", contentType)
	}

	key := fmt.Sprintf("%s/%d.%s", supplier.ID, s.now().UnixMilli(), ext)
	if err := s.images.Upload(ctx, key, upload.Data, contentType); err != nil {
		s.logger.Error().Err(err).Str("supplier", supplier.ID).Str("key", key).Msg("Failed to upload image")
		return "", err
	}

	s.logger.Info().Str("supplier", supplier.ID).Str("key", key).Str("filename", upload.Filename).Msg("Image uploaded")
	return s.images.PublicURL(key), nil
}
