package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-bridge/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error interface{} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps service errors onto HTTP statuses. Platform rejections keep
// the platform's status and payload.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorResponse{Error: upstream.Payload()})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, status, errorResponse{Error: "Internal server error"})
		return
	}

	message := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads the body into dst and runs struct validation on it
func (h *Handler) decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("request body too large")
		}
		return domain.NewValidationError("invalid JSON body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return domain.NewValidationError("%s", strings.Join(msgs, "; "))
}
