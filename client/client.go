// Package client provides the HTTP client used to talk to the Expo API and
// the npm registry, with retry, per-host circuit breaking and DNS caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
)

const (
	defaultUserAgent = "expo-cli"
	maxBodySize      = 10 << 20
)

var (
	resolverOnce sync.Once
	resolver     *dnscache.Resolver
)

// sharedResolver returns the process-wide DNS cache, refreshed every five
// minutes.
func sharedResolver() *dnscache.Resolver {
	resolverOnce.Do(func() {
		resolver = &dnscache.Resolver{}
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				resolver.Refresh(true)
			}
		}()
	})
	return resolver
}

// Client is an HTTP client with retry logic for JSON APIs.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	breakers   *breakerSet
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the initial delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithBreakerThreshold sets how many consecutive upstream failures trip a
// host's circuit breaker.
func WithBreakerThreshold(n int64) Option {
	return func(c *Client) {
		c.breakers = newBreakerSet(n)
	}
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 3 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return NewClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	dns := sharedResolver()

	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := dns.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
					}
					return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
				},
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent:  defaultUserAgent,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   10 * time.Second,
		breakers:   newBreakerSet(defaultBreakerThreshold),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithUserAgent returns a shallow copy of the client that sends ua.
// Circuit breaker state is shared with the original.
func (c *Client) WithUserAgent(ua string) *Client {
	cp := *c
	cp.userAgent = ua
	return &cp
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// GetBody fetches url and returns the raw body.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil, nil)
}

// PostJSON encodes payload as JSON and posts it to url. If v is non-nil
// the response body is decoded into it. header entries are added to the
// request.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, v any, header http.Header) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, url, data, header)
	if err != nil {
		return err
	}
	if v == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// BreakerStates returns "open" or "closed" for every host contacted so far.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.states()
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, header http.Header) ([]byte, error) {
	host := hostOf(url)
	breaker := c.breakers.get(host)
	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var body []byte
	var reqErr error
	err := breaker.Call(func() error {
		body, reqErr = c.doWithRetry(ctx, method, url, payload, header)
		if upstreamFailure(reqErr) {
			return reqErr
		}
		return nil
	}, 0)
	if reqErr != nil {
		return nil, reqErr
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, host, err)
	}
	return body, nil
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.MaxInterval = c.maxDelay
	b.RandomizationFactor = 0.1
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Client) doWithRetry(ctx context.Context, method, url string, payload []byte, header http.Header) ([]byte, error) {
	b := c.newBackOff()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doOnce(ctx, method, url, payload, header)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Only rate limits and server errors are worth another attempt.
		if !retryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte, header http.Header) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w: %w", errRequest, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", url, err)
		}
		return body, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, &HTTPError{
		StatusCode: resp.StatusCode,
		URL:        url,
		Body:       string(body),
	}
}
