package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service either wraps one of these
// or is an *UpstreamError.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a client-facing error message tagged with its kind
type Error struct {
	Kind    error
	Message string
}

// NewError creates an error of the given kind
func NewError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError creates an ErrValidation error with a client-facing message
func NewValidationError(format string, args ...interface{}) *Error {
	return NewError(ErrValidation, format, args...)
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var (
	ErrMissingAccessToken  = NewError(ErrUnauthorized, "Missing access token. Please connect to Shopify first.")
	ErrInvalidSession      = NewError(ErrUnauthorized, "invalid or expired session")
	ErrCredentialNotFound  = NewError(ErrNotFound, "shopify credential not found")
	ErrProductNotFound     = NewError(ErrNotFound, "product not found")
	ErrPushRecordNotFound  = NewError(ErrNotFound, "push record not found")
	ErrAlreadyPushed       = NewError(ErrConflict, "product already pushed to this shop")
	ErrPushInProgress      = NewError(ErrConflict, "product push already in progress")
	ErrOrderUpdateInFlight = NewError(ErrConflict, "order update already in progress")
)

// UpstreamError is a rejection returned by the commerce platform. Status is the
// platform's HTTP status and is relayed to the caller unchanged.
type UpstreamError struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("shopify responded %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("shopify responded %d", e.Status)
}

// Payload is the body relayed to the caller: the platform's error list when
// present, its message otherwise.
func (e *UpstreamError) Payload() interface{} {
	if len(e.Errors) > 0 {
		return e.Errors
	}
	return e.Message
}

// IsNotFound reports whether err is a not-found error of any origin
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == 404
}
