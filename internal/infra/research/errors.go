package research

import (
	"errors"
	"fmt"
	"net/http"

	"postlabor-feed/internal/resilience/circuitbreaker"
	"postlabor-feed/internal/resilience/retry"
)

// ErrUnavailable matches errors caused by the backend being unreachable or
// failing on its side: transport failures and 5xx responses.
var ErrUnavailable = errors.New("research API unavailable")

// TransportError is a failure to complete the HTTP exchange: DNS, dial,
// timeout, or a request rejected by the open circuit breaker.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("research %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) true for every transport failure.
func (e *TransportError) Is(target error) bool { return target == ErrUnavailable }

// Retryable reports false for breaker rejections so callers back off.
func (e *TransportError) Retryable() bool {
	return !circuitbreaker.IsRejection(e.Err)
}

// StatusError is a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("research %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is matches ErrUnavailable for 5xx responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnavailable && e.StatusCode >= http.StatusInternalServerError
}

// Retryable follows retry.HTTPError: 5xx, 408 and 429 are transient.
func (e *StatusError) Retryable() bool {
	return (&retry.HTTPError{StatusCode: e.StatusCode}).Retryable()
}

// DecodeError is a response body that is not the expected JSON shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("research %s: decode: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Retryable is false: the same payload would fail again.
func (e *DecodeError) Retryable() bool { return false }
