// Package errors defines the application error taxonomy for the storefront.
package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Is matches on the business error code, so copies carrying details still
// compare equal to their predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == t.errorCode
}

// WithDetails returns a copy of the error carrying detailed information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error values. Every failure in the cart/checkout subsystem maps
// onto one of four recoverable families: validation, transport, payment and
// redirect-outcome errors. None of them is fatal to the process.
var (
	// Cart-related errors
	ErrCartNotFound = NewBaseError(
		http.StatusNotFound,
		"CART_NOT_FOUND",
		"No cart exists for this guest yet",
		"",
	)

	ErrCartEmpty = NewBaseError(
		http.StatusConflict,
		"CART_EMPTY",
		"Your cart is empty",
		"",
	)

	ErrLineNotFound = NewBaseError(
		http.StatusNotFound,
		"LINE_NOT_FOUND",
		"That product is not in your cart",
		"",
	)

	// Checkout-related errors
	ErrCheckoutOrder = NewBaseError(
		http.StatusConflict,
		"CHECKOUT_ORDER",
		"This step is not available in the current checkout state",
		"",
	)

	ErrNoActiveIntent = NewBaseError(
		http.StatusConflict,
		"NO_ACTIVE_INTENT",
		"No payment attempt is in progress",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Something went wrong on our side",
		"",
	)
)

// ValidationError is a recoverable field-level error raised while the
// checkout is at the form step. It never advances the state machine.
type ValidationError struct {
	fields map[string]string
}

// NewValidationError creates a validation error from field messages
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{fields: fields}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return "checkout form validation failed"
}

// Fields returns per-field validation messages
func (e *ValidationError) Fields() map[string]string {
	return e.fields
}

// HTTPCode returns the HTTP status code
func (e *ValidationError) HTTPCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the business error code
func (e *ValidationError) ErrorCode() string {
	return "VALIDATION_FAILED"
}

// Message returns the user-friendly error message
func (e *ValidationError) Message() string {
	return "Please fill all required fields correctly"
}

// Details returns the first offending field for quick display
func (e *ValidationError) Details() string {
	for field, msg := range e.fields {
		return field + ": " + msg
	}

	return ""
}

// TransportError wraps a network or backend failure on the cart or intent
// path. It is surfaced as a retryable condition, never silently swallowed
// outside the two documented best-effort fallbacks.
type TransportError struct {
	op  string
	err error
}

// NewTransportError creates a transport error for the given operation
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{op: op, err: err}
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return errors.Wrapf(e.err, "transport failure during %s", e.op).Error()
}

// Unwrap exposes the underlying cause
func (e *TransportError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *TransportError) HTTPCode() int {
	return http.StatusBadGateway
}

// ErrorCode returns the business error code
func (e *TransportError) ErrorCode() string {
	return "TRANSPORT_FAILED"
}

// Message returns the user-friendly error message
func (e *TransportError) Message() string {
	return "We could not reach the store backend, please try again"
}

// Details returns detailed error information
func (e *TransportError) Details() string {
	return e.op
}

// PaymentError is a provider-side failure (declined card and the like).
// It is surfaced inline and the same intent stays retryable.
type PaymentError struct {
	code    string
	message string
}

// NewPaymentError creates a payment error from the provider's code and message
func NewPaymentError(code, message string) *PaymentError {
	return &PaymentError{code: code, message: message}
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	return "payment failed: " + e.message
}

// ProviderCode returns the provider's decline code
func (e *PaymentError) ProviderCode() string {
	return e.code
}

// HTTPCode returns the HTTP status code
func (e *PaymentError) HTTPCode() int {
	return http.StatusPaymentRequired
}

// ErrorCode returns the business error code
func (e *PaymentError) ErrorCode() string {
	return "PAYMENT_FAILED"
}

// Message returns the user-friendly error message
func (e *PaymentError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *PaymentError) Details() string {
	return e.code
}
