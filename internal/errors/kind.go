package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, user-visible classification of a failure.
type Kind string

const (
	KindConfiguration     Kind = "CONFIGURATION_ERROR"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindTransientNetwork  Kind = "TRANSIENT_NETWORK_ERROR"
	KindRateLimit         Kind = "RATE_LIMIT_ERROR"
	KindServer            Kind = "SERVER_ERROR"
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
	KindOverload          Kind = "OVERLOAD_ERROR"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Retryable reports whether another attempt of the same gateway call can succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransientNetwork, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// HTTPStatus maps the kind to the status class returned by the intake routes.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindOverload:
		return http.StatusServiceUnavailable
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ChargeError carries the classification of a failed charge operation.
// StatusCode is the gateway HTTP status when there was one; Detail is the
// decoded gateway body or any other opaque debug payload.
type ChargeError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Detail     any
	Err        error
}

func (e *ChargeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ChargeError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *ChargeError {
	return &ChargeError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *ChargeError {
	return &ChargeError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first ChargeError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var ce *ChargeError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is classified as retryable.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err).Retryable()
}
