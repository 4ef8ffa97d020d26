package crux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codewandler/crux-go/ports/pricing"
)

// Error kinds, tested with errors.Is. Responses carry them inside [*Error];
// 404 maps to [pricing.ErrNotFound] instead so callers stay decoupled from
// the transport.
var (
	ErrAuth        = errors.New("crux: authentication failed")
	ErrRateLimited = errors.New("crux: rate limited")
	ErrRequest     = errors.New("crux: request rejected")
	ErrServer      = errors.New("crux: server error")
	ErrDecode      = errors.New("crux: decode response")
)

// Error carries the HTTP context of a failed API call and wraps a sentinel
// kind for errors.Is checks.
type Error struct {
	Kind       error
	Status     int
	URL        string
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.Kind }

// newStatusError maps a non-200 response onto the error taxonomy.
func newStatusError(resp *http.Response, body []byte) *Error {
	e := &Error{
		Status:  resp.StatusCode,
		URL:     resp.Request.URL.String(),
		Message: strings.TrimSpace(truncate(string(body), 256)),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		e.Kind = ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = pricing.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Kind = ErrRateLimited
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	case resp.StatusCode >= 500:
		e.Kind = ErrServer
	default:
		e.Kind = ErrRequest
	}
	return e
}

// retryable reports whether a failure class is worth another attempt: rate
// limiting, gateway-side 5xx trouble, timeouts and dropped connections.
// Caller cancellation is final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Remaining url.Error cases are transport-level: refused, reset, DNS.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
