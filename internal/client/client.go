// Package client provides an HTTP client for the Banking AI Engine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/bankchat/internal/metrics"
	"github.com/raphaelgruber/bankchat/internal/models"
)

const (
	// DefaultBaseURL is used when no server URL is configured.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultTimeout bounds one request/response cycle.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client talks to the Banking AI Engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request timings into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a new engine client.
// If baseURL is empty, DefaultBaseURL is used.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the engine base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// analyzeRequest is the request payload for POST /analyze.
type analyzeRequest struct {
	CustomerQuery string `json:"customer_query"`
}

// healthResponse is the response payload for GET /health.
type healthResponse struct {
	Status string `json:"status"`
}

// Analyze sends query to the engine and returns the decoded analysis.
// The caller must reject empty queries before calling.
func (c *Client) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	reqBody, err := json.Marshal(analyzeRequest{CustomerQuery: query})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	requestID := uuid.NewString()
	start := time.Now()

	body, status, err := c.do(ctx, http.MethodPost, "/analyze", requestID, reqBody)
	duration := time.Since(start)
	words := int64(len(strings.Fields(query)))

	logAttrs := []any{
		"request_id", requestID,
		"duration_ms", duration.Milliseconds(),
		"query_words", words,
	}
	if status != 0 {
		logAttrs = append(logAttrs, "status", status)
	}

	if err != nil {
		c.metrics.RecordQuery(duration, words, true)
		c.logger.Warn("analyze failed", append(logAttrs, "error", err)...)
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.metrics.RecordQuery(duration, words, true)
		c.logger.Warn("analyze response unreadable", append(logAttrs, "error", err)...)
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if msg := result.EngineError(); msg != "" {
		c.metrics.RecordQuery(duration, words, true)
		c.logger.Warn("engine reported error", append(logAttrs, "error", msg)...)
		return nil, &EngineError{Message: msg}
	}

	c.metrics.RecordQuery(duration, words, false)
	c.logger.Debug("analyze completed", logAttrs...)
	return &result, nil
}

// Health queries GET /health and returns the reported status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	start := time.Now()
	body, _, err := c.do(ctx, http.MethodGet, "/health", uuid.NewString(), nil)
	c.metrics.RecordTiming(metrics.OpHealth, time.Since(start), err != nil)
	if err != nil {
		return "", err
	}

	var hr healthResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}
	return hr.Status, nil
}

// do performs one request and returns the body of a 2xx response.
// status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path, requestID string, payload []byte) (body []byte, status int, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body carries no detail we use.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, resp.StatusCode, &ServerError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	return body, resp.StatusCode, nil
}
