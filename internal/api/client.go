// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout is the default timeout for API requests. Completions
	// run a retrieval pipeline server-side and can be slow.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for idempotent requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the backoff delay.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize bounds response body reads.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 4 * 1024 * 1024 // 4MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// ErrNoUserID indicates the client was constructed without an operator
// identity; the backend rejects anonymous calls.
var ErrNoUserID = errors.New("user identity not configured")

// =============================================================================
// WIRE TYPES
// =============================================================================

// CompletionResult is the outcome of a successful completion call.
type CompletionResult struct {
	// Raw is the answer payload, either the nested data field or the whole
	// body for backends that respond flat. Shape is unknown here; the
	// answer package normalizes it.
	Raw json.RawMessage

	// SessionID is the session identity from the X-Session-Id response
	// header. Newly minted when the request carried none.
	SessionID string

	// RequestID is the durable exchange identifier from X-Request-Id.
	RequestID string
}

// completionEnvelope peels the optional data nesting off a completion body.
type completionEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// HistoryMessage is one persisted exchange in a session transcript.
type HistoryMessage struct {
	UserInput string          `json:"user_input"`
	Response  json.RawMessage `json:"response"`
	RequestID string          `json:"request_id"`
	Liked     *bool           `json:"liked"`
}

// historyEnvelope is the response shape of the history endpoint.
type historyEnvelope struct {
	Messages []HistoryMessage `json:"messages"`
}

// ConversationInfo summarizes a persisted session for the sidebar.
type ConversationInfo struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// conversationsEnvelope is the response shape of the session list endpoint.
type conversationsEnvelope struct {
	Sessions []ConversationInfo `json:"sessions"`
}

// IndexLog is one document ingestion record from the management surface.
type IndexLog struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// indexLogsEnvelope is the response shape of the index-log endpoint.
type indexLogsEnvelope struct {
	Logs []IndexLog `json:"logs"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the askdesk backend on behalf of one operator.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int

	// limiter smooths bursts of chained calls (suggested-question clicks,
	// like toggles) so the backend is never hammered by a stuck key.
	limiter *rate.Limiter
}

// NewClient creates a client for the given backend base URL and operator.
func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userID:     strings.TrimSpace(userID),
		httpClient: sharedHTTPClient,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithMaxRetries sets the retry budget for idempotent requests.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithHTTPClient substitutes the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UserID returns the operator identity carried on every request.
func (c *Client) UserID() string {
	return c.userID
}

// =============================================================================
// CHAT SURFACE
// =============================================================================

// Completion posts a user message and returns the raw answer payload plus
// the session and request identifiers from the response headers.
//
// sessionID is empty for the first message of a fresh conversation; the
// backend then mints a session and returns its id. Completion is never
// retried automatically: a duplicate POST would duplicate the exchange
// server-side, and the transcript's retry affordance covers failures.
func (c *Client) Completion(ctx context.Context, sessionID, userInput string) (*CompletionResult, error) {
	if c.userID == "" {
		return nil, ErrNoUserID
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(map[string]string{"user_input": userInput})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completion", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, sessionID)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, body)
	}

	result := &CompletionResult{
		Raw:       body,
		SessionID: resp.Header.Get("X-Session-Id"),
		RequestID: resp.Header.Get("X-Request-Id"),
	}
	var envelope completionEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		result.Raw = envelope.Data
	}
	return result, nil
}

// History fetches the persisted transcript of a session, in server order.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryMessage, error) {
	var envelope historyEnvelope
	path := "/chat/histories/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}
	return envelope.Messages, nil
}

// Histories lists the operator's persisted sessions for the sidebar.
func (c *Client) Histories(ctx context.Context) ([]ConversationInfo, error) {
	var envelope conversationsEnvelope
	if err := c.getJSON(ctx, "/chat/histories", &envelope); err != nil {
		return nil, err
	}
	return envelope.Sessions, nil
}

// UpdateLike records a thumbs-up/down vote for one exchange.
func (c *Client) UpdateLike(ctx context.Context, sessionID, requestID string, liked bool) error {
	path := "/chat/histories/" + url.PathEscape(sessionID) + "/messages/" + url.PathEscape(requestID)
	body, err := json.Marshal(map[string]bool{"liked": liked})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.doIdempotent(ctx, http.MethodPatch, path, body)
}

// DeleteHistory removes a persisted session and its transcript.
func (c *Client) DeleteHistory(ctx context.Context, sessionID string) error {
	path := "/chat/histories/" + url.PathEscape(sessionID)
	return c.doIdempotent(ctx, http.MethodDelete, path, nil)
}

// =============================================================================
// MANAGEMENT SURFACE
// =============================================================================

// IndexLogs lists document ingestion records.
func (c *Client) IndexLogs(ctx context.Context) ([]IndexLog, error) {
	var envelope indexLogsEnvelope
	if err := c.getJSON(ctx, "/management/document-index/logs", &envelope); err != nil {
		return nil, err
	}
	return envelope.Logs, nil
}

// DeleteIndexLog removes one document ingestion record.
func (c *Client) DeleteIndexLog(ctx context.Context, logID string) error {
	path := "/management/document-index/logs/" + url.PathEscape(logID)
	return c.doIdempotent(ctx, http.MethodDelete, path, nil)
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// setHeaders applies the identity headers. X-Session-Id is present only
// when the conversation is bound.
func (c *Client) setHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "askdesk/0.3.0")
	req.Header.Set("X-User-Id", c.userID)
	if sessionID != "" {
		req.Header.Set("X-Session-Id", sessionID)
	}
}

// getJSON performs a GET with retry and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doIdempotent performs a mutating but idempotent request with retry,
// discarding any response body.
func (c *Client) doIdempotent(ctx context.Context, method, path string, body []byte) error {
	_, err := c.doWithRetry(ctx, method, path, body)
	return err
}

// doWithRetry performs a request with exponential backoff on transport
// failures and 5xx responses. Only idempotent requests go through here.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.userID == "" {
		return nil, ErrNoUserID
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		respBody, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			return respBody, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single request attempt.
func (c *Client) doOnce(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// readResponse reads a response body under the size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return body, nil
}

// isRetryable reports whether an error should trigger another attempt:
// 5xx rejections and transport failures, never context cancellation.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	return true
}

// calculateBackoff returns the delay before the next retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// logRequest logs an API request without headers or body; the body carries
// user content.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
