// Package ronin is a client for the ronin.rest transaction index.
package ronin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Base URLs the CLI can point at.
const (
	DefaultBaseURL = "https://ronin.rest"
	LocalBaseURL   = "http://localhost:3000"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 15
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 30 * time.Second
	defaultBackoffFactor  = 2
)

// ErrorType categorizes a failed call for reporting.
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParseError  ErrorType = "parse_error"
	ErrorTypeOther       ErrorType = "other"
)

// CallResult records the outcome of one logical API call, including any
// retries it took. Latency covers the final HTTP attempt only, not backoff.
type CallResult struct {
	Endpoint  string
	Latency   time.Duration
	Attempts  int
	Success   bool
	ErrorType ErrorType
}

// Recorder receives a CallResult after every call.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Record(result CallResult)
}

// ClientConfig holds the settings for a Client.
// Zero values fall back to the defaults above.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int // retry attempts after the first try; -1 disables retries
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	BackoffFactor  int
	UserAgent      string
	Recorder       Recorder
}

type Client struct {
	baseURL        string
	userAgent      string
	httpClient     *http.Client
	maxRetries     int
	backoffInitial time.Duration
	backoffMax     time.Duration
	backoffFactor  int
	recorder       Recorder
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = defaultBackoffInitial
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.BackoffFactor == 0 {
		cfg.BackoffFactor = defaultBackoffFactor
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:      cfg.UserAgent,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		backoffInitial: cfg.BackoffInitial,
		backoffMax:     cfg.BackoffMax,
		backoffFactor:  cfg.BackoffFactor,
		recorder:       cfg.Recorder,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// callError carries the classification of a failed attempt so the retry
// loop can decide whether another attempt is worthwhile.
type callError struct {
	errorType ErrorType
	retryable bool
	err       error
}

func (e *callError) Error() string { return e.err.Error() }
func (e *callError) Unwrap() error { return e.err }

// get fetches path and decodes the JSON response into out, retrying
// transient failures (network errors, 429, 5xx) with exponential backoff.
// Non-transient failures and malformed JSON propagate immediately.
func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	var lastErr *callError

	backoff := c.backoffInitial
	attempts := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		attempts++
		start := time.Now()
		body, cerr := c.doRequest(ctx, path)
		latency := time.Since(start)

		if cerr == nil {
			if err := json.Unmarshal(body, out); err != nil {
				c.record(endpoint, latency, attempts, false, ErrorTypeParseError)
				return fmt.Errorf("%s: invalid JSON response: %w", endpoint, err)
			}
			c.record(endpoint, latency, attempts, true, "")
			return nil
		}

		if !cerr.retryable {
			c.record(endpoint, latency, attempts, false, cerr.errorType)
			return fmt.Errorf("%s: %w", endpoint, cerr.err)
		}
		lastErr = cerr

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				c.record(endpoint, latency, attempts, false, ErrorTypeOther)
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= time.Duration(c.backoffFactor)
			if backoff > c.backoffMax {
				backoff = c.backoffMax
			}
		}
	}

	c.record(endpoint, 0, attempts, false, lastErr.errorType)
	return fmt.Errorf("%s failed after %d attempts: %w", endpoint, attempts, lastErr.err)
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, *callError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &callError{errorType: ErrorTypeOther, err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &callError{errorType: ErrorTypeRateLimit, retryable: true, err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, &callError{errorType: ErrorTypeServerError, retryable: true, err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	default:
		return nil, &callError{errorType: ErrorTypeOther, err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return body, nil
}

func classifyTransportError(err error) *callError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &callError{errorType: ErrorTypeTimeout, retryable: true, err: err}
	}
	// A cancelled context means the caller gave up; retrying is pointless.
	if errors.Is(err, context.Canceled) {
		return &callError{errorType: ErrorTypeOther, err: err}
	}
	return &callError{errorType: ErrorTypeOther, retryable: true, err: err}
}

func (c *Client) record(endpoint string, latency time.Duration, attempts int, success bool, errType ErrorType) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(CallResult{
		Endpoint:  endpoint,
		Latency:   latency,
		Attempts:  attempts,
		Success:   success,
		ErrorType: errType,
	})
}
