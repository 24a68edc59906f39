package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrCircuitOpen is the underlying cause carried by the fail-fast error a
// breaker returns while open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrorKind classifies upstream acquisition failures.
type ErrorKind string

const (
	KindNetwork          ErrorKind = "network"
	KindRateLimit        ErrorKind = "rate_limit"
	KindDataSource       ErrorKind = "data_source"
	KindTickerNotFound   ErrorKind = "ticker_not_found"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindDataQuality      ErrorKind = "data_quality"
)

// Error is a classified acquisition failure with provider context.
type Error struct {
	Kind       ErrorKind
	Provider   string
	Retryable  bool
	RetryAfter time.Duration // rate-limit hint, zero when unknown
	Missing    []string      // insufficient-data categories
	DataType   string        // data-quality subject
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Provider != "" {
		msg = fmt.Sprintf("%s error from %s", e.Kind, e.Provider)
	}
	if len(e.Missing) > 0 {
		msg = fmt.Sprintf("%s (missing: %v)", msg, e.Missing)
	}
	if e.DataType != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.DataType)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure or timeout.
func NewNetworkError(provider string, err error) error {
	return &Error{Kind: KindNetwork, Provider: provider, Retryable: true, Err: err}
}

// NewRateLimitError signals an exceeded upstream quota, with an optional
// retry-after hint.
func NewRateLimitError(provider string, retryAfter time.Duration) error {
	return &Error{Kind: KindRateLimit, Provider: provider, Retryable: true, RetryAfter: retryAfter}
}

// NewDataSourceError wraps a malformed or unexpected upstream response.
func NewDataSourceError(provider string, retryable bool, err error) error {
	return &Error{Kind: KindDataSource, Provider: provider, Retryable: retryable, Err: err}
}

// NewTickerNotFoundError signals an unknown or unsupported symbol.
func NewTickerNotFoundError(provider, ticker string) error {
	return &Error{Kind: KindTickerNotFound, Provider: provider, Err: fmt.Errorf("ticker %q not found", ticker)}
}

// NewInsufficientDataError signals that the upstream returned less than
// the minimum data the analysis needs.
func NewInsufficientDataError(provider string, missing ...string) error {
	return &Error{Kind: KindInsufficientData, Provider: provider, Missing: missing}
}

// NewDataQualityError signals values that fail sanity checks.
func NewDataQualityError(provider, dataType string, err error) error {
	return &Error{Kind: KindDataQuality, Provider: provider, DataType: dataType, Err: err}
}

// KindOf extracts the error kind, defaulting unknown errors to network
// (transport-level failures from the HTTP client arrive unclassified).
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNetwork
}

// IsRetryable reports whether the error may succeed on a later attempt.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	// Unclassified errors are treated as transient transport failures.
	return true
}

// RetryAfterHint returns the upstream's retry-after hint, if any.
func RetryAfterHint(err error) time.Duration {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// IsNotFound reports whether the error is a ticker-not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindTickerNotFound
}
