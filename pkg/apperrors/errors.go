package apperrors

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeStorage           Code = "STORAGE_ERROR"
	CodeExtraction        Code = "EXTRACTION_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:        http.StatusBadRequest,
	CodeNotFound:          http.StatusNotFound,
	CodeInsufficientStock: http.StatusBadRequest,
	CodeStorage:           http.StatusInternalServerError,
	CodeExtraction:        http.StatusInternalServerError,
	CodeInternal:          http.StatusInternalServerError,
}

// Error is a coded application error with a caller-facing message
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

// Message returns the human-readable message without the wrapped cause
func (e *Error) Message() string { return e.message }

// HTTPStatus maps the error code to a response status
func (e *Error) HTTPStatus() int {
	if status, ok := statusByCode[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// As extracts a typed Error from an error chain, or nil
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// InsufficientStock builds the stock-violation error surfaced to the caller
// with the quantities that caused it
func InsufficientStock(itemName string, available, requested int) *Error {
	return Newf(CodeInsufficientStock,
		"Insufficient stock for %s. Available: %d, Requested: %d",
		itemName, available, requested)
}

// IsUniqueViolation reports whether err is a postgres unique-constraint error
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
