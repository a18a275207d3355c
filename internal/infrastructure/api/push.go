package api

import (
	"encoding/json"
	"net/http"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/domain"
)

func (h *Handler) push() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pushRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		result, err := h.Pushes.Push(r.Context(), req.Shop, chiParam(r, "id"), req.SellingPrice)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) bulkPush() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkPushRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		items := make([]application.BulkPushItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, application.BulkPushItem{ProductID: it.ProductID, SellingPrice: it.SellingPrice})
		}
		results, err := h.Pushes.BulkPush(r.Context(), req.Shop, items)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
	}
}

func (h *Handler) reconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.Pushes.Reconcile(r.Context(), shopParam(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// pushRaw forwards {shop, product} to Shopify as-is
func (h *Handler) pushRaw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rawPushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, domain.NewValidationError("Missing shop or product data"))
			return
		}
		created, err := h.Pushes.PushRaw(r.Context(), req.Shop, req.Product)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "product": created})
	}
}
