package netutil

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	wrapped := &url.Error{Op: "Get", URL: "https://api.telegram.org", Err: dial}

	assert.False(t, ShouldRetry(nil))
	assert.True(t, ShouldRetry(dial))
	assert.True(t, ShouldRetry(wrapped))
	assert.True(t, ShouldRetry(timeoutErr{}))
	assert.False(t, ShouldRetry(errors.New("bad request")))
	assert.False(t, ShouldRetry(&net.OpError{Op: "read", Err: errors.New("reset")}))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(http.MethodGet, http.StatusServiceUnavailable, nil))
	assert.True(t, Retryable(http.MethodGet, 0, timeoutErr{}))
	assert.False(t, Retryable(http.MethodGet, http.StatusBadRequest, nil))
	assert.False(t, Retryable(http.MethodPost, http.StatusServiceUnavailable, nil), "POST is never replayed")
	assert.False(t, Retryable(http.MethodPost, 0, timeoutErr{}))
}
