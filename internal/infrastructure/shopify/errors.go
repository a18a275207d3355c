package shopify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-bridge/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/sony/gobreaker"
)

// translateError converts go-shopify and breaker errors into *domain.UpstreamError
// so the platform status and error payload reach the caller unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.UpstreamError{
			Status:  http.StatusServiceUnavailable,
			Message: "Shopify is temporarily unavailable for this shop",
		}
	}

	if resp, ok := responseError(err); ok {
		status := resp.Status
		if status < http.StatusBadRequest {
			// GraphQL reports errors with a 200 envelope
			status = http.StatusBadGateway
		}
		message := resp.Message
		if message == "" && len(resp.Errors) > 0 {
			message = strings.Join(resp.Errors, "; ")
		}
		return &domain.UpstreamError{
			Status:  status,
			Message: message,
			Errors:  resp.Errors,
		}
	}

	return err
}

func responseError(err error) (goshopify.ResponseError, bool) {
	var value goshopify.ResponseError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *goshopify.ResponseError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var rateLimited goshopify.RateLimitError
	if errors.As(err, &rateLimited) {
		return rateLimited.ResponseError, true
	}
	var rateLimitedPtr *goshopify.RateLimitError
	if errors.As(err, &rateLimitedPtr) && rateLimitedPtr != nil {
		return rateLimitedPtr.ResponseError, true
	}
	return goshopify.ResponseError{}, false
}

// isBreakerSuccess keeps caller mistakes and cancellations from opening the
// breaker. Only transport failures and 5xx responses count against a shop.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status >= 400 && upstream.Status < 500
	}
	return false
}
