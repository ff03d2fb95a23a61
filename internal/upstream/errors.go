// Package upstream holds the resilience primitives shared by every vendor
// client: the error taxonomy, the mapping from HTTP outcomes onto it, the
// backoff retrier and a small JSON client that applies both.
package upstream

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the closed set of failure categories a vendor call can end in.
type Kind string

const (
	KindRateLimited   Kind = "RATE_LIMITED"
	KindServer        Kind = "SERVER_ERROR"
	KindNetwork       Kind = "NETWORK_ERROR"
	KindClient        Kind = "CLIENT_ERROR"
	KindInvalid       Kind = "INVALID_RESPONSE"
	KindMissingConfig Kind = "MISSING_CONFIGURATION"
)

// Retryable reports whether a failure of this kind may succeed on a later
// attempt.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindNetwork:
		return true
	}
	return false
}

// ErrRetriesExhausted wraps the last error once the retrier gives up.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Error is a classified vendor failure.
type Error struct {
	Kind       Kind
	Vendor     string
	StatusCode int
	// RetryAfter is the server supplied wait, zero when absent.
	RetryAfter time.Duration
	// Body is the start of a non-2xx response body, for vendors that explain
	// errors there.
	Body string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Vendor, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err was never classified.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// IsRetryable reports whether err is a classified, retryable failure.
// Unclassified errors are treated as fatal.
func IsRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}

// RetryAfterOf returns the server supplied delay carried by err, if any.
func RetryAfterOf(err error) (time.Duration, bool) {
	var ue *Error
	if errors.As(err, &ue) && ue.RetryAfter > 0 {
		return ue.RetryAfter, true
	}
	return 0, false
}

// MissingConfig reports that vendor has no credentials configured.
func MissingConfig(vendor string) error {
	return &Error{Kind: KindMissingConfig, Vendor: vendor, Err: errors.New("credentials not configured")}
}

// Invalid reports a response that could not be decoded or had an
// unexpected shape.
func Invalid(vendor string, err error) error {
	return &Error{Kind: KindInvalid, Vendor: vendor, Err: err}
}
