package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited by upstream")
	ErrUpstreamDown = errors.New("upstream unavailable")
)

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Unwrap maps the status code onto the package sentinels so callers can
// use errors.Is without inspecting status codes.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrUpstreamDown
	}
	return nil
}

// retryable reports whether a request that failed with err may succeed
// if sent again.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamDown)
}

// upstreamFailure reports whether err says something about the health of
// the remote host, as opposed to the request itself.
func upstreamFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, errRequest)
}

// errRequest marks failures that happened before anything was sent.
var errRequest = errors.New("invalid request")
