// Package renderer is the HTTP client for the external PDF rendering service.
// The service turns an assessment record (plus an optional resident snapshot)
// into a PDF document; it is best-effort and never sits on the user-facing
// write path.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned when no HTTPS renderer endpoint is set.
	ErrNotConfigured = errors.New("renderer is not configured")
)

// StatusError is returned when the renderer responds with a non-2xx status.
// The response body is captured for the dispatcher's failure record.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("renderer returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the external renderer over HTTPS.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a renderer client. baseURL must be an https:// URL; any
// other value leaves the client unconfigured and Render returns
// ErrNotConfigured.
func NewClient(baseURL, token string) *Client {
	if !strings.HasPrefix(baseURL, "https://") {
		baseURL = ""
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the client has a usable endpoint.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Render POSTs the payload to /api/pdf/{kind} and returns the PDF bytes on
// any 2xx response.
func (c *Client) Render(ctx context.Context, kind string, payload interface{}) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/pdf/%s", c.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	return pdf, nil
}
