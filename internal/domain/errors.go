package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies which of the three caller-facing failure classes
// a ServiceError belongs to.
type ErrorKind string

// Error kinds surfaced to callers. Every failure in the pipeline is
// normalized to exactly one of these at the service boundary.
const (
	KindUnauthenticated ErrorKind = "Unauthenticated"
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindInternal        ErrorKind = "Internal"
)

// ServiceError is the typed error returned to callers. Kind is uniform
// per failure class; the underlying cause is kept for operator
// diagnostics and never changes the kind.
type ServiceError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to the transport status code.
func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewUnauthenticated creates an Unauthenticated error.
func NewUnauthenticated(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthenticated, Message: message}
}

// NewInvalidArgument creates an InvalidArgument error.
func NewInvalidArgument(message string) *ServiceError {
	return &ServiceError{Kind: KindInvalidArgument, Message: message}
}

// NewInternal creates an Internal error preserving the diagnostic
// message of the underlying failure.
func NewInternal(message string, cause error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: message, cause: cause}
}

// AsServiceError returns err as a *ServiceError, converting anything
// that is not already typed into an Internal error. This is the single
// conversion point guaranteeing callers always see a typed error.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewInternal(fmt.Sprintf("AI engine error: %v", err), err)
}
