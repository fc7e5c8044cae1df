// Package fetch implements a resilient JSON-over-HTTP client for unreliable upstream APIs.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"token-radar/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 8 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoff     = 250 * time.Millisecond
	DefaultMaxBackoff  = 4 * time.Second
	DefaultBackoffMult = 2.0

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 8 << 20
)

// ErrNoData is wrapped by every error the client returns. Callers are
// expected to fall back to empty or default data when they see it.
var ErrNoData = errors.New("fetch: no data")

// Client fetches JSON documents with a per-attempt timeout, retries with
// exponential backoff, and rejects HTML or otherwise unparseable bodies.
type Client struct {
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	backoffMult float64
	userAgent   string
	limiter     *rate.Limiter
	logger      *zap.Logger

	breakerEnabled   bool
	breakerThreshold uint32
	breakerCooldown  time.Duration
	breakers         map[string]*gobreaker.CircuitBreaker
	breakersMu       sync.Mutex
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the timeout applied to each individual attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxAttempts sets the total number of attempts, including the first one.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial retry delay and its ceiling.
func WithBackoff(initial, max time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = initial
		c.maxBackoff = max
	}
}

// WithRateLimit throttles attempts to rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker enables a per-host circuit breaker that opens after threshold
// consecutive failures and stays open for cooldown.
func WithBreaker(threshold uint32, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		c.breakerEnabled = threshold > 0
		c.breakerThreshold = threshold
		c.breakerCooldown = cooldown
	}
}

// WithHTTPClient sets a custom http.Client. Its Timeout should be zero;
// the per-attempt timeout is applied through the request context.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new fetch client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client:           &http.Client{},
		timeout:          DefaultTimeout,
		maxAttempts:      DefaultMaxAttempts,
		backoff:          DefaultBackoff,
		maxBackoff:       DefaultMaxBackoff,
		backoffMult:      DefaultBackoffMult,
		userAgent:        "token-radar/1.0",
		logger:           zap.NewNop(),
		breakerEnabled:   true,
		breakerThreshold: 5,
		breakerCooldown:  30 * time.Second,
		breakers:         make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxAttempts returns the configured attempt count.
func (c *Client) MaxAttempts() int {
	return c.maxAttempts
}

// Fetch performs a GET and returns the raw JSON body.
// Any failure wraps ErrNoData.
func (c *Client) Fetch(ctx context.Context, rawURL string) (json.RawMessage, error) {
	host := hostOf(rawURL)
	start := time.Now()

	body, err := c.fetchWithRetry(ctx, host, rawURL)

	reason := ""
	if err != nil {
		reason = failureReason(err)
	}
	observability.RecordFetch(host, time.Since(start).Seconds(), reason)

	if err != nil {
		c.logger.Debug("fetch failed",
			zap.String("host", host),
			zap.String("reason", reason),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrNoData, host, err)
	}
	return body, nil
}

// FetchInto performs a GET and decodes the JSON body into v.
// A body that does not match v's shape is treated like a failed fetch.
func (c *Client) FetchInto(ctx context.Context, rawURL string, v any) error {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: unexpected shape: %w", ErrNoData, err)
	}
	return nil
}

// fetchWithRetry runs attempts with exponential backoff between them.
func (c *Client) fetchWithRetry(ctx context.Context, host, rawURL string) ([]byte, error) {
	delay := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			observability.RecordFetchRetry(host)
			c.logger.Debug("retrying fetch",
				zap.String("host", host),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}

			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if c.maxBackoff > 0 && delay > c.maxBackoff {
				delay = c.maxBackoff
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		body, err := c.attempt(ctx, host, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
	}

	return nil, lastErr
}

// attempt runs one request, through the host's breaker when enabled.
func (c *Client) attempt(ctx context.Context, host, rawURL string) ([]byte, error) {
	cb := c.breaker(host)
	if cb == nil {
		return c.do(ctx, rawURL)
	}

	v, err := cb.Execute(func() (interface{}, error) {
		return c.do(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// do performs a single GET bounded by the per-attempt timeout.
func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &attemptError{reason: "request", err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		reason := "transport"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return nil, &attemptError{reason: reason, retry: true, err: fmt.Errorf("http request: %w", err)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		return nil, &attemptError{reason: "read", retry: true, err: fmt.Errorf("read response: %w", err)}
	}

	// Handle rate limiting and upstream outages
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &attemptError{reason: "rate_limited", retry: true, err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &attemptError{reason: "status", retry: true, err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &attemptError{reason: "status", err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if looksLikeHTML(body) {
		return nil, &attemptError{reason: "html", retry: true, err: fmt.Errorf("html body instead of json")}
	}
	if !json.Valid(body) {
		return nil, &attemptError{reason: "malformed", retry: true, err: fmt.Errorf("body is not valid json")}
	}

	return body, nil
}

// breaker returns the circuit breaker for host, creating it on first use.
func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	if !c.breakerEnabled {
		return nil
	}

	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	threshold := c.breakerThreshold
	logger := c.logger
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Permanent client errors mean the host is up.
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	c.breakers[host] = cb
	return cb
}

// attemptError classifies a single failed attempt.
type attemptError struct {
	reason string
	retry  bool
	err    error
}

func (e *attemptError) Error() string {
	return e.err.Error()
}

func (e *attemptError) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var ae *attemptError
	if errors.As(err, &ae) {
		return ae.retry
	}
	return false
}

func failureReason(err error) string {
	var ae *attemptError
	switch {
	case errors.As(err, &ae):
		return ae.reason
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// looksLikeHTML detects error pages served in place of JSON, typically
// upstream rate-limit or maintenance pages returned with a 200 status.
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '<' {
		return true
	}
	if json.Valid(trimmed) {
		return false
	}
	head := trimmed
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html"))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
