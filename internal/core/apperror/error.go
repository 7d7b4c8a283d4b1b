// Package apperror provides structured error handling for the service.
// Business errors carry a machine-readable code plus details so the HTTP
// layer can render consistent responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule conditions (422)
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeLotNotResolved         = "LOT_NOT_RESOLVED"
	CodeOperationDismissed     = "OPERATION_DISMISSED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewLotNotResolved is returned when no stock lot matches a sale line.
// The operation stays unapplied and can be retried by a later pass; callers
// in the sync path absorb this condition instead of failing the sale.
func NewLotNotResolved(produit, numeroLot string) *AppError {
	return &AppError{
		Code:       CodeLotNotResolved,
		Message:    "no stock lot matches this sale line",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"produit": produit, "numeroLot": numeroLot},
	}
}

// NewInsufficientStock reports a shortfall. The decrement engine commits
// partial fulfilment anyway; this error is only raised by callers that
// explicitly request full availability (manual adjustments).
func NewInsufficientStock(produit string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"produit":   produit,
			"requested": requested,
			"available": available,
		},
	}
}

// NewOperationDismissed is returned when a dismissed operation id is handed
// to a workflow that requires a live one.
func NewOperationDismissed(operationID string) *AppError {
	return &AppError{
		Code:       CodeOperationDismissed,
		Message:    "operation was dismissed and cannot be reused",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"operationId": operationID},
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified by another device, refresh and try again",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helpers ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}
