// Package netutil classifies outbound HTTP failures for the retry loops of
// the Telegram client and the REST integrations.
package netutil

import (
	"errors"
	"net"
	"net/http"
	"net/url"
)

// ShouldRetry reports whether a transport error is transient: a timeout or
// a failed dial. Errors wrapped by net/http are unwrapped first.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Timeout() || opErr.Op == "dial") {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RetryableStatus reports whether an HTTP status signals a temporary
// condition on the remote side.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Retryable combines ShouldRetry and RetryableStatus for a finished request.
// Only idempotent methods qualify.
func Retryable(method string, status int, err error) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
	default:
		return false
	}
	if err != nil {
		return ShouldRetry(err)
	}
	return RetryableStatus(status)
}
