package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Connection pooling limits. One session polls one host repeatedly, so the
// pool is kept small but keep-alives stay on to reuse the connection between
// attempts.
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Result holds the outcome of one status request made by [Client].
//
// Result captures everything the session needs to classify the attempt: the
// body (limited to 1MB), the status code, the parsed Retry-After hint, the
// request latency, and any transport error.
type Result struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if the request failed before
	// receiving a response.
	StatusCode int

	// RetryAfter is the parsed Retry-After header as a duration. Zero when
	// the header is absent or unparseable.
	RetryAfter time.Duration

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport error. nil indicates the request
	// completed, though StatusCode may still indicate a failure.
	Error error
}

// Client is an HTTP client wrapper for polling one job-status endpoint.
//
// The client sends credentialed GET requests with a fixed header set (a
// CSRF-style token, an Authorization header, whatever the endpoint needs)
// and applies a per-request timeout via context. A cookie jar is installed
// so session-cookie authentication survives across attempts. Response bodies
// are limited to 1MB.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	timeout    time.Duration
}

// NewClient creates a new polling [Client].
//
// headers are sent verbatim with every request. timeout bounds each
// individual request; it is independent of the session's total wall-clock
// budget.
func NewClient(headers map[string]string, timeout time.Duration) *Client {
	// cookiejar.New with nil options never returns an error
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
		headers: headers,
		timeout: timeout,
	}
}

// FetchStatus performs one GET against the status URL and returns a
// structured [Result].
//
// FetchStatus always returns a Result; errors are captured in the Error field
// rather than returned separately, which simplifies classification in the
// session loop. Cancelling ctx aborts an in-flight request; callers
// distinguish cancellation from genuine transport failure by checking
// ctx.Err().
func (c *Client) FetchStatus(ctx context.Context, url string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return Result{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Result{
		Body:       body,
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Latency:    time.Since(start),
	}
}

// parseRetryAfter converts a Retry-After header value (delay in seconds per
// RFC 9110) to a duration. Absent, negative, or unparseable values yield
// zero, which callers treat as "use the standard backoff".
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but new
// connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
