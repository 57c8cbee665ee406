package sensorpush

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
)

// ErrTimeout marks a request that hit the wall-clock timeout. Timeouts are a
// retryable error class distinct from upstream 4xx/5xx responses.
var ErrTimeout = errors.New("sensorpush request timed out")

// DefaultRequestTimeout bounds every upstream call.
const DefaultRequestTimeout = 15 * time.Second

// Response is the uniform envelope for an upstream reply. Non-2xx statuses are
// delivered here rather than as errors so callers can branch on the code
// (401/403 reauthenticate, 429 rate limited) without parsing exceptions.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the upstream returned a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsAuthError reports a credential problem: the caller must reconnect.
func (r *Response) IsAuthError() bool {
	return r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden
}

// IsRateLimited reports that the upstream rejected the call for pacing.
func (r *Response) IsRateLimited() bool {
	return r.StatusCode == http.StatusTooManyRequests
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to unmarshal sensorpush response: %w", err)
	}
	return nil
}

// Client forwards (method, path, token, body) tuples to the SensorPush API.
// It attaches the token as a bearer credential for all paths except the OAuth
// bootstrap paths, which carry credentials in the body only. Log lines carry
// method, path and status; token material is never written to the log.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Do performs one upstream request. Transport failures and timeouts are
// returned as errors; every HTTP response, 2xx or not, comes back as a
// *Response.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !strings.HasPrefix(path, "/oauth/") {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			log.Printf("sensorpush: %s %s timed out", method, path)
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, fmt.Errorf("sensorpush request failed: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Printf("sensorpush: %s %s -> %d", method, path, resp.StatusCode)
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       respBody,
	}, nil
}
