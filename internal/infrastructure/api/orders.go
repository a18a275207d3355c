package api

import (
	"context"
	"net/http"

	"storefront-bridge/internal/domain"
)

// listingHandler serves an order fetch keyed by ?shop=
func (h *Handler) listingHandler(fetch func(ctx context.Context, shop string) (*domain.OrderListing, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := fetch(r.Context(), shopParam(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

func (h *Handler) connectionHandler(test func(ctx context.Context, shop string) (*domain.ConnectionInfo, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := test(r.Context(), shopParam(r))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "connection": info})
	}
}

func (h *Handler) fetchOrdersGraphQL() http.HandlerFunc {
	return h.listingHandler(h.Orders.FetchOrdersGraphQL)
}

func (h *Handler) fetchOrdersREST() http.HandlerFunc {
	return h.listingHandler(h.Orders.FetchOrdersREST)
}

func (h *Handler) testConnectionGraphQL() http.HandlerFunc {
	return h.connectionHandler(h.Orders.TestConnectionGraphQL)
}

func (h *Handler) testConnectionREST() http.HandlerFunc {
	return h.connectionHandler(h.Orders.TestConnectionREST)
}

func (h *Handler) testConnection() http.HandlerFunc {
	return h.connectionHandler(h.Orders.TestConnection)
}

// listOrders fetches with fallback, then applies ?status= and ?q=
func (h *Handler) listOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := domain.OrderFilter{Status: q.Get("status"), Search: q.Get("q")}
		view, err := h.Orders.ListOrders(r.Context(), shopParam(r), filter)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *Handler) updateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateOrderRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		orderID := chiParam(r, "id")
		status := domain.FulfillmentStatus(req.FulfillmentStatus)
		if err := h.Orders.UpdateStatus(r.Context(), shopParam(r), orderID, status); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": orderID, "status": status})
	}
}
