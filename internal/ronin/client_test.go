package ronin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorderStub collects call results for assertions.
type recorderStub struct {
	mu      sync.Mutex
	results []CallResult
}

func (r *recorderStub) Record(result CallResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorderStub) last(t *testing.T) CallResult {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		t.Fatal("no call results recorded")
	}
	return r.results[len(r.results)-1]
}

func testClient(url string, maxRetries int, rec Recorder) *Client {
	return NewClient(ClientConfig{
		BaseURL:        url,
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		Recorder:       rec,
	})
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"transactions":["0xaaa"]}`))
	}))
	defer srv.Close()

	rec := &recorderStub{}
	client := testClient(srv.URL, 5, rec)

	hashes, err := client.ListSentTransactions(context.Background(), "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != "0xaaa" {
		t.Errorf("hashes = %v, want [0xaaa]", hashes)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}

	result := rec.last(t)
	if !result.Success || result.Attempts != 3 || result.Endpoint != "listSentTransactions" {
		t.Errorf("recorded result = %+v, want success with 3 attempts on listSentTransactions", result)
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"transactions":[]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 5, nil)

	if _, err := client.ListReceivedTransactions(context.Background(), "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &recorderStub{}
	client := testClient(srv.URL, 5, rec)

	_, err := client.GetTransaction(context.Background(), "0xdead")
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if result := rec.last(t); result.ErrorType != ErrorTypeOther {
		t.Errorf("error type = %q, want %q", result.ErrorType, ErrorTypeOther)
	}
}

func TestClientDoesNotRetryMalformedJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"transactions": [`))
	}))
	defer srv.Close()

	rec := &recorderStub{}
	client := testClient(srv.URL, 5, rec)

	_, err := client.ListSentTransactions(context.Background(), "0xb00f9ad1dae1e78e05b823ef27c162a610e0a706")
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("error = %v, want mention of invalid JSON", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if result := rec.last(t); result.ErrorType != ErrorTypeParseError {
		t.Errorf("error type = %q, want %q", result.ErrorType, ErrorTypeParseError)
	}
}

func TestClientRetryExhaustion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &recorderStub{}
	client := testClient(srv.URL, 2, rec)

	_, err := client.GetTransaction(context.Background(), "0xdead")
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error = %v, want mention of 3 attempts", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
	if result := rec.last(t); result.ErrorType != ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", result.ErrorType, ErrorTypeServerError)
	}
}

func TestClientBackoffHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     5,
		BackoffInitial: time.Minute,
		BackoffMax:     time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetTransaction(ctx, "0xdead")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call blocked %s in backoff, want prompt cancellation", elapsed)
	}
}

func TestClientBackoffGrowsAndCaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		BackoffInitial: 20 * time.Millisecond,
		BackoffMax:     30 * time.Millisecond,
		BackoffFactor:  2,
	})

	// Sleeps between the 4 attempts: 20ms, 30ms (capped), 30ms (capped).
	start := time.Now()
	_, err := client.GetTransaction(context.Background(), "0xdead")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("retries finished in %s, want at least 80ms of backoff", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("retries took %s, backoff cap not applied", elapsed)
	}
}

func TestClientRetriesDisabled(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &recorderStub{}
	client := testClient(srv.URL, -1, rec)

	if _, err := client.GetTransaction(context.Background(), "0xdead"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1 with retries disabled", got)
	}
	if result := rec.last(t); result.Attempts != 1 {
		t.Errorf("recorded attempts = %d, want 1", result.Attempts)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{})

	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.maxRetries != defaultMaxRetries {
		t.Errorf("maxRetries = %d, want %d", c.maxRetries, defaultMaxRetries)
	}
	if c.backoffInitial != defaultBackoffInitial || c.backoffMax != defaultBackoffMax {
		t.Errorf("backoff = %s/%s, want %s/%s", c.backoffInitial, c.backoffMax, defaultBackoffInitial, defaultBackoffMax)
	}
	if c.backoffFactor != defaultBackoffFactor {
		t.Errorf("backoffFactor = %d, want %d", c.backoffFactor, defaultBackoffFactor)
	}
}
