package api

import (
	"net/http"
)

// login issues a supplier session
//
//	POST /api/supplier/login {"name": "..."}
func (h *Handler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		session, err := h.Auth.Login(req.Name)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// beginInstall redirects the merchant to Shopify's authorize page
func (h *Handler) beginInstall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := h.Auth.BeginInstall(shopParam(r), r.URL.Query().Get("return_url"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// completeInstall handles Shopify's OAuth callback
func (h *Handler) completeInstall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := h.Auth.CompleteInstall(r.Context(), r.URL)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

func (h *Handler) hasCredential() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chiParam(r, "shop")
		connected, err := h.Credentials.Has(r.Context(), shop)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"shop": shop, "connected": connected})
	}
}

func (h *Handler) removeCredential() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Credentials.Remove(r.Context(), chiParam(r, "shop")); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// reauthenticate clears every stored token and tells the client where to reconnect
func (h *Handler) reauthenticate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connectURL, err := h.Orders.Reauthenticate(r.Context())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"redirect_url": connectURL})
	}
}
