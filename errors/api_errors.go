package errors

import (
	"fmt"
	"net/http"
)

// APIError is the JSON error envelope returned by every handler.
type APIError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// Status strings used in error envelopes.
const (
	StatusBadRequest   = "bad_request"
	StatusUnauthorized = "unauthorized"
	StatusForbidden    = "forbidden"
	StatusNotFound     = "not_found"
	StatusConflict     = "conflict"
	StatusServerError  = "server_error"
)

// VerificationRequiredMessage is the fixed user-facing explanation returned
// when an authenticated but unverified account hits a community endpoint.
// It is deliberately distinct from generic authorization failures.
const VerificationRequiredMessage = "Email verification required. Please verify your email address to join community discussions and favorites."

// Common error constructors

func NewBadRequest(message string) *APIError {
	return &APIError{
		Code:    http.StatusBadRequest,
		Status:  StatusBadRequest,
		Message: message,
	}
}

func NewUnauthorized(message string) *APIError {
	return &APIError{
		Code:    http.StatusUnauthorized,
		Status:  StatusUnauthorized,
		Message: message,
	}
}

func NewForbidden(message string) *APIError {
	return &APIError{
		Code:    http.StatusForbidden,
		Status:  StatusForbidden,
		Message: message,
	}
}

func NewVerificationRequired() *APIError {
	return &APIError{
		Code:    http.StatusForbidden,
		Status:  StatusForbidden,
		Message: VerificationRequiredMessage,
	}
}

func NewNotFound(message string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Status:  StatusNotFound,
		Message: message,
	}
}

func NewConflict(message string) *APIError {
	return &APIError{
		Code:    http.StatusConflict,
		Status:  StatusConflict,
		Message: message,
	}
}

func NewServerError(message string) *APIError {
	return &APIError{
		Code:    http.StatusInternalServerError,
		Status:  StatusServerError,
		Message: message,
	}
}
