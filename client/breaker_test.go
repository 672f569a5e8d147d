package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestHostOf(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "expo api",
			url:      "https://exp.host/--/api/v2/sdks/50.0.0/native-modules",
			expected: "exp.host",
		},
		{
			name:     "npm registry",
			url:      "https://registry.npmjs.org/expo-av",
			expected: "registry.npmjs.org",
		},
		{
			name:     "invalid URL",
			url:      "not-a-valid-url",
			expected: "not-a-valid-url",
		},
		{
			name:     "with port",
			url:      "http://localhost:19000/path",
			expected: "localhost:19000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hostOf(tt.url); got != tt.expected {
				t.Errorf("hostOf(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestBreakerStates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := DefaultClient()
	if states := c.BreakerStates(); len(states) != 0 {
		t.Errorf("expected empty states, got %d entries", len(states))
	}

	_, _ = c.GetBody(context.Background(), server.URL)

	states := c.BreakerStates()
	if len(states) != 1 {
		t.Fatalf("expected one breaker state after request, got %v", states)
	}
	for _, state := range states {
		if state != "closed" {
			t.Errorf("expected closed state, got %s", state)
		}
	}
}

func TestBreakerPerHost(t *testing.T) {
	server1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("server1"))
	}))
	defer server1.Close()

	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("server2"))
	}))
	defer server2.Close()

	c := DefaultClient()
	if _, err := c.GetBody(context.Background(), server1.URL); err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	if _, err := c.GetBody(context.Background(), server2.URL); err != nil {
		t.Fatalf("request 2 failed: %v", err)
	}

	if states := c.BreakerStates(); len(states) != 2 {
		t.Errorf("expected 2 breaker states, got %d", len(states))
	}
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(WithMaxRetries(0), WithBaseDelay(0))

	var lastErr error
	for range 10 {
		_, lastErr = c.GetBody(context.Background(), server.URL)
	}

	if n := requests.Load(); n >= 10 {
		t.Errorf("requests = %d, expected the breaker to short-circuit some of them", n)
	}
	if !errors.Is(lastErr, ErrUpstreamDown) {
		t.Errorf("last error = %v, want ErrUpstreamDown", lastErr)
	}
	for host, state := range c.BreakerStates() {
		if state != "open" {
			t.Errorf("breaker for %s = %s, want open", host, state)
		}
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(WithMaxRetries(0))
	for range 10 {
		_, _ = c.GetBody(context.Background(), server.URL)
	}

	if n := requests.Load(); n != 10 {
		t.Errorf("requests = %d, want 10", n)
	}
	for host, state := range c.BreakerStates() {
		if state != "closed" {
			t.Errorf("breaker for %s = %s, want closed", host, state)
		}
	}
}
