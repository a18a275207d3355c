package api

import (
	"errors"
	"io"
	"net/http"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/domain"

	"github.com/shopspring/decimal"
)

func supplierFrom(r *http.Request) domain.Supplier {
	supplier, _ := domain.SupplierFromContext(r.Context())
	return supplier
}

func (h *Handler) listSupplierProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.Products.ListForSupplier(r.Context(), supplierFrom(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
	}
}

func (h *Handler) createProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		product, err := h.Products.Create(r.Context(), supplierFrom(r), domain.NewProductInput{
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Images:      req.Images,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

// getSupplierProduct returns one of the caller's own products
func (h *Handler) getSupplierProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.Products.Get(r.Context(), chiParam(r, "id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if !product.OwnedBy(supplierFrom(r)) {
			writeError(w, h.logger, domain.ErrProductNotFound)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func (h *Handler) updateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProductRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		product, err := h.Products.Update(r.Context(), supplierFrom(r), chiParam(r, "id"), domain.ProductPatch{
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Images:      req.Images,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func (h *Handler) deleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Products.Delete(r.Context(), supplierFrom(r), chiParam(r, "id")); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// uploadImage stores the multipart "file" field and returns its public URL
func (h *Handler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, h.logger, domain.NewValidationError("file exceeds %d bytes", h.maxUploadBytes))
				return
			}
			writeError(w, h.logger, domain.NewValidationError("file is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
		if err != nil {
			writeError(w, h.logger, domain.NewValidationError("failed to read file"))
			return
		}

		publicURL, err := h.Products.UploadImage(r.Context(), supplierFrom(r), application.ImageUpload{
			Filename: header.Filename,
			Data:     data,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": publicURL})
	}
}

// listSellerProducts lists approved products, annotated with push state when ?shop= is given
func (h *Handler) listSellerProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.Pushes.ListForSeller(r.Context(), shopParam(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
	}
}

func (h *Handler) getProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.Products.Get(r.Context(), chiParam(r, "id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func (h *Handler) quote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var selling *decimal.Decimal
		if raw := r.URL.Query().Get("selling_price"); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, h.logger, domain.NewValidationError("invalid selling_price %q", raw))
				return
			}
			selling = &d
		}
		q, err := h.Pushes.Quote(r.Context(), chiParam(r, "id"), selling)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}
