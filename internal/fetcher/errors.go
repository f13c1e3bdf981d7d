package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNoData marks a provider response that succeeded but carried nothing for
// the instrument. It is an outcome, not a fault, and is never retried.
var ErrNoData = errors.New("no data")

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeValidation indicates the response was received but data validation failed
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeParse indicates the response body could not be decoded
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeProvider indicates the provider library reported a failure
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeRateLimit,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "rate limit exceeded",
	}
}

// NewServerError creates a server error
func NewServerError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeServer,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "server returned an error",
	}
}

// NewClientError creates a client error. Client errors are still retried:
// providers are known to answer transient throttling with plain 4xx codes.
func NewClientError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeClient,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:      ErrorTypeValidation,
		Retryable: false,
		Message:   message,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewParseError creates a parse error
func NewParseError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeParse,
		Retryable: true,
		Message:   "failed to parse response",
		Cause:     cause,
	}
}

// NewProviderError wraps a failure reported by a provider library
func NewProviderError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeProvider,
		Retryable: true,
		Message:   "provider call failed",
		Cause:     cause,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == 429:
		return NewRateLimitError(statusCode)
	case statusCode >= 500:
		return NewServerError(statusCode)
	case statusCode >= 400:
		return NewClientError(statusCode, fmt.Sprintf("client error: HTTP %d", statusCode))
	default:
		return &FetchError{
			Type:       ErrorTypeUnknown,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// ClassifyTransportError wraps an error returned by an HTTP client call.
func ClassifyTransportError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if isTimeout(err) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// Kind returns the error_kind reported in log events for err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return string(fe.Type)
	}
	if isTimeout(err) {
		return string(ErrorTypeTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return string(ErrorTypeNetwork)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return string(ErrorTypeUnknown)
}

// IsNoData reports whether err marks data absence.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsPermanent reports whether err must not be retried.
// Everything is retried except data absence and failed validation.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrNoData) {
		return true
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return !fe.Retryable
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
