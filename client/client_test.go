package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"expo","version":"50.0.0"}`))
	}))
	defer server.Close()

	var got struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := DefaultClient().GetJSON(context.Background(), server.URL+"/pkg", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.Name != "expo" || got.Version != "50.0.0" {
		t.Errorf("got %+v", got)
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var v map[string]any
	err := DefaultClient().GetJSON(context.Background(), server.URL, &v)
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := DefaultClient().GetBody(context.Background(), server.URL+"/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBody = %v, want ErrNotFound", err)
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if !httpErr.IsNotFound() {
		t.Error("IsNotFound() = false, want true")
	}
}

func TestRateLimitRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	c := NewClient(WithBaseDelay(10 * time.Millisecond))
	body, err := c.GetBody(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if string(body) != "success" {
		t.Errorf("body = %q, want success", body)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestServerErrorRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := NewClient(WithBaseDelay(10 * time.Millisecond))
	if _, err := c.GetBody(context.Background(), server.URL); err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("attempts = %d, want 2", n)
	}
}

func TestMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(WithMaxRetries(2), WithBaseDelay(10*time.Millisecond))
	_, err := c.GetBody(context.Background(), server.URL)
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("expected ErrUpstreamDown, got %v", err)
	}

	// Initial attempt + 2 retries = 3 total
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(WithBaseDelay(10 * time.Millisecond))
	_, err := c.GetBody(context.Background(), server.URL)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := DefaultClient().GetBody(ctx, server.URL); err == nil {
		t.Error("expected error on context cancellation")
	}
}

func TestPostJSON(t *testing.T) {
	var gotBody map[string]any
	var gotSession, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		gotSession = r.Header.Get("Expo-Session")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("expo-session", "secret")

	var resp struct {
		Data struct {
			OK bool `json:"ok"`
		} `json:"data"`
	}
	err := DefaultClient().PostJSON(context.Background(), server.URL, map[string]string{"source": "desktop"}, &resp, header)
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if !resp.Data.OK {
		t.Error("expected ok response")
	}
	if gotSession != "secret" {
		t.Errorf("expo-session = %q, want secret", gotSession)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["source"] != "desktop" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestUserAgent(t *testing.T) {
	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, _ = DefaultClient().GetBody(context.Background(), server.URL)
	if ua := gotUA.Load(); ua != defaultUserAgent {
		t.Errorf("default User-Agent = %v, want %q", ua, defaultUserAgent)
	}

	_, _ = DefaultClient().WithUserAgent("expo-cli/6.3.10").GetBody(context.Background(), server.URL)
	if ua := gotUA.Load(); ua != "expo-cli/6.3.10" {
		t.Errorf("User-Agent = %v, want %q", ua, "expo-cli/6.3.10")
	}
}

func TestDNSCachingRepeatedRequests(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := DefaultClient()
	for i := range 3 {
		if _, err := c.GetBody(context.Background(), server.URL); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	if n := requests.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}
