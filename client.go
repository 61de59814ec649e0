package arxivfeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Version is reported in the User-Agent header.
const Version = "0.3.0"

const (
	// defaultRateInterval follows arXiv's request to wait 3 seconds between calls.
	defaultRateInterval = 3 * time.Second

	defaultTimeout     = 60 * time.Second
	defaultConcurrency = 4
	maxBodyBytes       = 64 << 20
)

// Client fetches and parses listings from the arXiv Atom API.
// A Client is safe for concurrent use.
type Client struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	limiter     *rate.Limiter
	logger      *slog.Logger
	metrics     *Metrics
	parse       ParseOptions
	concurrency int
	maxBody     int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout bounds each request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit sets the minimum interval between requests.
// A non-positive interval disables throttling.
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithParseOptions sets the parsing strategy and normalization rules.
func WithParseOptions(o ParseOptions) Option {
	return func(c *Client) {
		c.parse = o
	}
}

// WithConcurrency bounds how many requests FetchAll runs at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a client for the public arXiv endpoint.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:     DefaultBaseURL,
		userAgent:   "arxivfeed/" + Version,
		limiter:     rate.NewLimiter(rate.Every(defaultRateInterval), 1),
		logger:      slog.Default(),
		parse:       DefaultParseOptions(),
		concurrency: defaultConcurrency,
		maxBody:     maxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint the client queries.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs one GET and returns the body of a 2xx response. Every failure
// after the request is built is a *TransportError.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &TransportError{URL: reqURL, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, invalidRequest("create request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, resp.StatusCode, &TransportError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{URL: reqURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, resp.StatusCode, &TransportError{
			URL: reqURL,
			Err: fmt.Errorf("response body exceeds %d bytes", c.maxBody),
		}
	}
	return body, resp.StatusCode, nil
}
