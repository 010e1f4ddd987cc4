package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnprocessable     = "UNPROCESSABLE_ENTITY"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeTimeout           = "TIMEOUT"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is a typed failure carrying its HTTP status and an optional cause
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithDetails(details map[string]string) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// Wrap keeps the underlying cause for logging
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// NotFound builds "<resource> not found" with the id as detail
func NotFound(resource, id string) *AppError {
	e := New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Unprocessable(message string) *AppError {
	return New(CodeUnprocessable, message, http.StatusUnprocessableEntity)
}

// InsufficientStock names the product and the quantities involved
func InsufficientStock(product string, requested, available int) *AppError {
	return New(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: requested %d, available %d", product, requested, available),
		http.StatusUnprocessableEntity,
	).WithDetails(map[string]string{
		"product":   product,
		"requested": fmt.Sprint(requested),
		"available": fmt.Sprint(available),
	})
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

// Timeout reports an operation that was aborted and rolled back before it committed
func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

// Internal hides infrastructure causes from clients while keeping them on the error
func Internal(err error) *AppError {
	return New(CodeInternal, "an internal error occurred", http.StatusInternalServerError).Wrap(err)
}

// From converts any error into an AppError, treating unknown errors as internal
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err is an AppError with the given code
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
